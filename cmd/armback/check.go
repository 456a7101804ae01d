package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iley/armback/internal/codegen"
	"github.com/iley/armback/internal/codegen/common"
	"github.com/iley/armback/internal/mirfile"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <program.yaml>",
		Short: "Validate a machine program without emitting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := mirfile.LoadFile(args[0])
			if err != nil {
				return err
			}
			if err := codegen.Check(p); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d functions, %d globals\n", args[0], len(p.Functions), len(p.Globals))
			if ext := common.GatherExternals(p); len(ext) > 0 {
				fmt.Fprintf(out, "external symbols: %s\n", strings.Join(ext, ", "))
			}
			return nil
		},
	}
}
