package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/iley/armback/internal/codegen"
	"github.com/iley/armback/internal/frame"
	"github.com/iley/armback/internal/mirfile"
)

func newEmitCmd() *cobra.Command {
	var output string
	var targetName string
	var frameName string
	var noValidate bool
	cmd := &cobra.Command{
		Use:   "emit <program.yaml>",
		Short: "Finalize stack frames and write assembly",
		Long: "Finalize stack frames and write assembly.\n" +
			"\n" +
			"The output goes to <program>.s unless -o is given; use -o - for stdout.\n" +
			"The frame convention must be the same one instruction selection assumed:\n" +
			"'fixed' saves r4-r11 in every function, 'used' saves only the registers written.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := codegen.TargetFromName(targetName)
			if err != nil {
				return err
			}
			conv, err := frame.ConventionFromName(frameName)
			if err != nil {
				return err
			}

			p, err := mirfile.LoadFile(args[0])
			if err != nil {
				return err
			}

			// Generate into memory first so that a failure never leaves a partial file behind.
			var sb strings.Builder
			options := codegen.Options{Frame: conv, SkipValidation: noValidate}
			if err := codegen.Generate(&sb, target, p, options); err != nil {
				return errors.Wrap(err, "generating assembly")
			}

			return writeOutput(cmd.OutOrStdout(), output, args[0], sb.String())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file name")
	cmd.Flags().StringVarP(&targetName, "target", "t", "armv7-linux", "Target architecture")
	cmd.Flags().StringVar(&frameName, "frame", "fixed", "Frame convention: fixed or used")
	cmd.Flags().BoolVar(&noValidate, "no-validate", false, "Skip structural and liveness validation")
	return cmd
}

func writeOutput(stdout io.Writer, output, input, text string) error {
	if output == "-" {
		_, err := io.WriteString(stdout, text)
		return err
	}
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".s"
	}

	f, err := os.Create(output)
	if err != nil {
		return errors.Wrap(err, "creating output file")
	}
	if _, err := io.WriteString(f, text); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", output)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", output, err)
	}
	return nil
}
