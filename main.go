// Command kanic reads a single source argument, compiles it, and prints
// the resulting x86-64 assembly to standard output.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mi-wada/kanic/compiler"
	"github.com/mi-wada/kanic/diagnostic"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// SilenceErrors keeps cobra from prefixing this with "Error:" or
		// dumping usage; the missing-argument message must stand alone
		// per the command-line contract.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:           "kanic <program-source>",
		Short:         "Compile a kanic program to x86-64 assembly",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("Please provide a expr")
			}
			return nil
		},
		RunE: func(_ *cobra.Command, args []string) error {
			source := args[0]

			c := compiler.New(source)
			c.SetDebug(debug)

			out, err := c.Compile()
			if err != nil {
				diagnostic.Report(source, err) // never returns
				return nil
			}

			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "trace compiler phases to stderr and emit an int3 breakpoint")

	return cmd
}
