package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newBlockCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "block <index>",
		Short: "Print the block at an index.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}

			core, err := newCore(v)
			if err != nil {
				return err
			}

			rec, err := core.QueryByIndex(cmd.Context(), index)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), record{Source: rec.Source, Block: rec.Block})
		},
	}
}

func newRangeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "range <from> <to>",
		Short: "Print the blocks of an inclusive range.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseIndex(args[0])
			if err != nil {
				return err
			}

			to, err := parseIndex(args[1])
			if err != nil {
				return err
			}

			core, err := newCore(v)
			if err != nil {
				return err
			}

			recs, err := core.QueryRange(cmd.Context(), from, to)
			if err != nil {
				return err
			}

			out := make([]record, len(recs))
			for i, rec := range recs {
				out[i] = record{Source: rec.Source, Block: rec.Block}
			}

			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newNodeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "node <index>",
		Short: "Print the network station at an index.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}

			core, err := newCore(v)
			if err != nil {
				return err
			}

			node, err := core.QueryNode(cmd.Context(), index)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", node.Index, node.Name, node.Tier)

			return nil
		},
	}
}

func parseIndex(s string) (int64, error) {
	index, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("index %q is not a number", s)
	}

	return index, nil
}
