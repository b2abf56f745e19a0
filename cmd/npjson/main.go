package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/npjson/pkg/npjson"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "npjson",
		Short: "npjson - tagged JSON for numeric arrays and quaternions",
		Long: `npjson reads and writes documents in which n-dimensional arrays,
quaternion arrays and quaternions are stored as single-key tagged objects.
The same convention is available over MessagePack and CBOR.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to npjson.yaml")
	flags.String("codec", "", "Codec for reading and writing (json, msgpack, cbor)")
	flags.String("indent", "", "Indentation for JSON output")
	flags.Bool("allow-comments", false, "Accept // and /* */ comments in JSON input")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-format", "", "Log format (text, json)")

	rootCmd.AddCommand(newInspectCmd(), newConvertCmd(), newVersionCmd())
	return rootCmd
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [file]",
		Short: "List the tagged values in a document",
		Long:  `Decodes a document and prints the path, kind and shape of every array and quaternion in it. Reads stdin when no file is given.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInspect,
	}
}

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert [in] [out]",
		Short: "Transcode a document between codecs",
		Long:  `Decodes a document with one codec and re-encodes it with another, keeping every tagged value. Uses stdin and stdout when paths are omitted or "-".`,
		Args:  cobra.MaximumNArgs(2),
		RunE:  runConvert,
	}
	cmd.Flags().String("from", "", "Input codec (defaults to --codec)")
	cmd.Flags().String("to", "", "Output codec (defaults to --codec)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "npjson %s (json backend: %s)\n", version, npjson.JSONBackend())
		},
	}
}

// setup loads configuration and creates the logger for a command
func setup(cmd *cobra.Command) (*npjson.Config, *npjson.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := npjson.LoadConfig(configPath, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}

	return cfg, npjson.NewLoggerTo(cmd.ErrOrStderr(), cfg.Logging), nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	codec, err := npjson.NewTaggedFromConfig(cfg.Codec, logger)
	if err != nil {
		return err
	}

	in, name, err := openInput(cmd, args, 0)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	doc, err := codec.DecodeFrom(in)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tKIND\tSHAPE")
	count := 0
	err = npjson.Visit(doc, func(path string, kind npjson.Kind, v any) error {
		count++
		_, err := fmt.Fprintf(tw, "%s\t%s\t%s\n", path, kind, shapeOf(v))
		return err
	})
	if err != nil {
		return err
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	logger.WithSource(name).Info("inspected document", "tagged", count)
	return nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	fromCfg, toCfg := cfg.Codec, cfg.Codec
	if from, _ := cmd.Flags().GetString("from"); from != "" {
		fromCfg.Type = npjson.CodecType(from)
	}
	if to, _ := cmd.Flags().GetString("to"); to != "" {
		toCfg.Type = npjson.CodecType(to)
	}

	decoder, err := npjson.NewTaggedFromConfig(fromCfg, logger)
	if err != nil {
		return fmt.Errorf("invalid --from: %w", err)
	}
	encoder, err := npjson.NewTaggedFromConfig(toCfg, logger)
	if err != nil {
		return fmt.Errorf("invalid --to: %w", err)
	}

	in, name, err := openInput(cmd, args, 0)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	doc, err := decoder.DecodeFrom(in)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}

	outName := "-"
	if len(args) > 1 && args[1] != "-" {
		outName = args[1]
	}
	if err := writeOutput(cmd, outName, func(w io.Writer) error {
		return encoder.EncodeTo(w, doc)
	}); err != nil {
		return err
	}

	logger.WithSource(name).Info("converted document",
		"from", decoder.Name(),
		"to", encoder.Name(),
		"output", outName)
	return nil
}

// createOutput opens the file convert writes to
var createOutput = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

// writeOutput runs encode against stdout or the named file. A file is closed
// before returning so that a failed flush is reported.
func writeOutput(cmd *cobra.Command, path string, encode func(io.Writer) error) error {
	if path == "-" {
		if err := encode(cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("failed to encode -: %w", err)
		}
		return nil
	}

	f, err := createOutput(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := encode(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}

// openInput opens args[i] or falls back to stdin
func openInput(cmd *cobra.Command, args []string, i int) (io.ReadCloser, string, error) {
	if len(args) <= i || args[i] == "-" {
		return io.NopCloser(cmd.InOrStdin()), "-", nil
	}
	f, err := os.Open(args[i])
	if err != nil {
		return nil, "", fmt.Errorf("failed to open input file: %w", err)
	}
	return f, args[i], nil
}

func shapeOf(v any) string {
	switch x := v.(type) {
	case *npjson.NDArray:
		return fmt.Sprint(x.Shape())
	case *npjson.QuatArray:
		return fmt.Sprint(x.Shape())
	default:
		return "-"
	}
}
