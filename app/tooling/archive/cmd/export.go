package cmd

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/archive/business/core/archive"
	"github.com/ardanlabs/archive/business/sys/snapshot"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newExportCmd(v *viper.Viper) *cobra.Command {
	var (
		kind  string
		path  string
		from  int64
		to    int64
		reset bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write generated history into a snapshot store.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if from < 0 || to < from {
				return fmt.Errorf("invalid range %d to %d", from, to)
			}

			chain, err := newChain(v)
			if err != nil {
				return err
			}

			strg, err := snapshot.Open(kind, path)
			if err != nil {
				return err
			}
			if strg == nil {
				return errors.New("a store kind is required")
			}
			defer strg.Close()

			if reset {
				if err := strg.Reset(); err != nil {
					return fmt.Errorf("resetting store: %w", err)
				}
			}

			for index := from; index <= to; index++ {
				if err := cmd.Context().Err(); err != nil {
					return err
				}

				block, err := chain.GenerateBlock(index)
				if err != nil {
					return err
				}

				if err := strg.Write(block); err != nil {
					return fmt.Errorf("writing block %d: %w", index, err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "exported %d blocks to %s store\n", to-from+1, kind)

			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "store", snapshot.KindPebble, "Store kind: memory, disk or pebble.")
	cmd.Flags().StringVar(&path, "path", "zarchive/blocks", "Path of the store.")
	cmd.Flags().Int64Var(&from, "from", 0, "First block index.")
	cmd.Flags().Int64Var(&to, "to", archive.MaxRange-1, "Last block index.")
	cmd.Flags().BoolVar(&reset, "reset", false, "Remove existing blocks first.")

	return cmd
}
