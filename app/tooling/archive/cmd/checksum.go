package cmd

import (
	"fmt"
	"strings"

	"github.com/ardanlabs/archive/foundation/procedural"
	"github.com/spf13/cobra"
)

func newChecksumCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checksum <text>...",
		Short: "Print the terminal checksum of some text.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), procedural.Checksum(strings.Join(args, " ")))
			return nil
		},
	}
}
