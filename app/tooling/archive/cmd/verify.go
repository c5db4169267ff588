package cmd

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/archive/business/core/archive"
	"github.com/ardanlabs/archive/business/sys/snapshot"
	"github.com/ardanlabs/archive/foundation/procedural"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newVerifyCmd(v *viper.Viper) *cobra.Command {
	var (
		kind string
		path string
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check every block of a snapshot store against the generator.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := newCore(v)
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

			out := cmd.OutOrStdout()

			var (
				checked int
				bad     int
				hasPrev bool
				prev    procedural.Block
			)

			iter := strg.ForEach()
			defer iter.Close()

			for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
				if err != nil {
					return fmt.Errorf("reading store: %w", err)
				}
				checked++

				rpt, err := core.Verify(block)
				if err != nil {
					fmt.Fprintf(out, "block %d: %v\n", block.Index, err)
					bad++
					continue
				}

				if hasPrev && prev.Index+1 == block.Index {
					if err := archive.VerifyLink(prev, block); err != nil {
						rpt.Problems = append(rpt.Problems, err.Error())
						rpt.Valid = false
					}
				}
				prev, hasPrev = block, true

				if !rpt.Valid {
					bad++
					for _, p := range rpt.Problems {
						fmt.Fprintf(out, "block %d: %s\n", rpt.Index, p)
					}
				}
			}

			fmt.Fprintf(out, "checked %d blocks, %d altered\n", checked, bad)

			if bad > 0 {
				return fmt.Errorf("%d altered blocks", bad)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "store", snapshot.KindPebble, "Store kind: disk or pebble.")
	cmd.Flags().StringVar(&path, "path", "zarchive/blocks", "Path of the store.")

	return cmd
}
