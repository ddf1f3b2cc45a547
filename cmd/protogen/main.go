package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nwidger/protogen/internal/config"
	"github.com/nwidger/protogen/internal/emit"
	"github.com/nwidger/protogen/internal/xmlproto"
)

func main() {
	executable := filepath.Base(os.Args[0])
	root := &cobra.Command{
		Use:   executable + " <input.xml> [outputPath]",
		Short: "Generate C source and documentation from a protocol description",
		Args:  cobra.RangeArgs(0, 2),
		// Errors are printed once here, not again by cobra.
		// https://github.com/spf13/cobra/issues/340
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runGenerate(cmd, args)
		},
	}

	addGenerateFlags(root)
	root.AddCommand(newGenerateCmd())
	root.AddCommand(newVersionCmd())

	// 1 on success, 0 on failure: the original tool's main() returned its
	// accumulated error count inverted into a boolean Return flag, and
	// scripts built against it expect that same polarity.
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(0)
	}
	os.Exit(1)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the generator version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version)
			return nil
		},
	}
}

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <input.xml> [outputPath]",
		Short: "Generate C source and documentation from a protocol description",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runGenerate,
	}
	addGenerateFlags(cmd)
	return cmd
}

func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-doxygen", false, "omit Doxygen comment blocks from generated headers")
	cmd.Flags().Bool("no-markdown", false, "skip Markdown documentation output")
	cmd.Flags().Bool("no-helper-files", false, "skip the generated runtime-helper support header")
	cmd.Flags().BoolP("verbose", "v", false, "enable debug logging")
	cmd.Flags().String("config", "", "path to a .protogen.yaml config file")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	if filepath.Ext(inputPath) != ".xml" {
		return fmt.Errorf("input file %q must end in .xml", inputPath)
	}
	outputPath := filepath.Dir(inputPath)
	if len(args) == 2 {
		outputPath = args[1]
	}

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return err
	}
	if noDoxygen, _ := cmd.Flags().GetBool("no-doxygen"); noDoxygen {
		cfg.Doxygen = false
	}
	if noMarkdown, _ := cmd.Flags().GetBool("no-markdown"); noMarkdown {
		cfg.Markdown = false
	}
	if noHelperFiles, _ := cmd.Flags().GetBool("no-helper-files"); noHelperFiles {
		cfg.HelperFiles = false
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Verbose = true
	}

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	f, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	proto, err := xmlproto.Parse(f)
	if err != nil {
		return err
	}
	for _, line := range proto.Diagnostics.Lines() {
		fmt.Fprintln(os.Stdout, line)
	}

	if err := os.MkdirAll(outputPath, 0755); err != nil {
		return err
	}

	res, err := emit.Generate(proto, outputPath, emit.Options{
		Doxygen:     cfg.Doxygen,
		Markdown:    cfg.Markdown,
		HelperFiles: cfg.HelperFiles,
	}, logger)
	if err != nil {
		return err
	}

	fmt.Println(res.ProtocolHeaderPath)
	for _, m := range res.Modules {
		fmt.Println(m.HeaderPath)
		fmt.Println(m.SourcePath)
	}
	if res.SupportPath != "" {
		fmt.Println(res.SupportPath)
	}
	if res.MarkdownPath != "" {
		fmt.Println(res.MarkdownPath)
	}
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}
