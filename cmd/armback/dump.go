package main

import (
	"github.com/spf13/cobra"

	"github.com/iley/armback/internal/frame"
	"github.com/iley/armback/internal/mirfile"
)

func newDumpCmd() *cobra.Command {
	var finalize bool
	var frameName string
	cmd := &cobra.Command{
		Use:   "dump <program.yaml>",
		Short: "Print the machine program, optionally after frame finalization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := mirfile.LoadFile(args[0])
			if err != nil {
				return err
			}
			if finalize {
				conv, err := frame.ConventionFromName(frameName)
				if err != nil {
					return err
				}
				for _, fn := range p.Functions {
					if err := frame.Finalize(fn, conv); err != nil {
						return err
					}
				}
			}
			p.Print(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().BoolVar(&finalize, "finalize", false, "Run the frame finalizer before printing")
	cmd.Flags().StringVar(&frameName, "frame", "fixed", "Frame convention: fixed or used")
	return cmd
}
