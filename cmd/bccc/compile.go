package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gogpu/slangbc"
)

var compileCmd = &cobra.Command{
	Use:   "compile [flags] <input.bcir...>",
	Short: "Compile IR fixture files into one bytecode container",
	Long: "Compile parses each input file as one translation unit of lowered IR\n" +
		"and serializes all units into a single slang\\0bc container.",
	Args: cobra.MinimumNArgs(1),
	RunE: runCompile,
}

func init() {
	compileCmd.Flags().StringP("output", "o", "", "output file (default: from bccc.toml or first input)")
}

func runCompile(cmd *cobra.Command, args []string) error {
	req := &slangbc.CompileRequest{}
	for _, inputPath := range args {
		src, err := os.ReadFile(inputPath)
		if err != nil {
			return fmt.Errorf("reading %s: %w", inputPath, err)
		}
		module, err := parseIRText(inputPath, string(src))
		if err != nil {
			return err
		}
		req.TranslationUnits = append(req.TranslationUnits, slangbc.TranslationUnit{IRModule: module})
	}

	if err := slangbc.GenerateBytecode(req); err != nil {
		color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "compilation error: %v\n", err)
		return err
	}

	outputPath, err := resolveOutputPath(cmd, args[0])
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, req.GeneratedBytecode, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}

	if !quiet(cmd) {
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes, %d modules)\n",
			outputPath, len(req.GeneratedBytecode), len(req.TranslationUnits))
	}
	return nil
}

func resolveOutputPath(cmd *cobra.Command, firstInput string) (string, error) {
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		return output, nil
	}
	manifest, ok, err := loadProjectManifest(".")
	if err != nil {
		return "", err
	}
	if ok && manifest.Config.Build.Output != "" {
		return filepath.Join(manifest.Root, manifest.Config.Build.Output), nil
	}
	base := strings.TrimSuffix(firstInput, filepath.Ext(firstInput))
	return base + ".bc", nil
}
