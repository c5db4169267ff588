// Package cmd contains the archive tooling commands.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ardanlabs/archive/business/core/archive"
	"github.com/ardanlabs/archive/business/sys/ledger"
	"github.com/ardanlabs/archive/foundation/logger"
	"github.com/ardanlabs/archive/foundation/procedural"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Execute runs the archive command tree and exits on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd constructs the archive command tree. Settings are read from
// flags, ARCHIVE_ prefixed environment variables and an optional config
// file, in that order of precedence.
func NewRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:          "archive",
		Short:        "Explore and audit the archive terminal history",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return readConfig(v)
		},
	}

	defaults := procedural.DefaultConfig()

	flags := root.PersistentFlags()
	flags.String("config", "", "Path to a config file.")
	flags.String("genesis", defaults.GenesisTime.Format(time.RFC3339), "Time of block 0.")
	flags.Duration("block-time", defaults.AvgBlockTime, "Time between blocks.")
	flags.String("prefix", defaults.DifficultyPrefix, "Difficulty prefix of every hash.")
	flags.Uint32("seed", defaults.MasterSeed, "Master seed of the history.")
	flags.String("ledger", "", "Game backend to ask before generating, e.g. http://localhost:3000.")
	flags.Duration("ledger-timeout", 3*time.Second, "Timeout of a backend request.")
	flags.Bool("verbose", false, "Write archive logs to stderr.")

	v.BindPFlags(flags)
	v.SetEnvPrefix("ARCHIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root.AddCommand(
		newBlockCmd(v),
		newRangeCmd(v),
		newNodeCmd(v),
		newChecksumCmd(),
		newExportCmd(v),
		newVerifyCmd(v),
	)

	return root
}

func readConfig(v *viper.Viper) error {
	path := v.GetString("config")
	if path == "" {
		return nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	return nil
}

// newChain constructs the generator from the settings.
func newChain(v *viper.Viper) (*procedural.Chain, error) {
	genesis, err := time.Parse(time.RFC3339, v.GetString("genesis"))
	if err != nil {
		return nil, fmt.Errorf("parsing genesis time: %w", err)
	}

	return procedural.New(procedural.Config{
		GenesisTime:      genesis.UTC(),
		AvgBlockTime:     v.GetDuration("block-time"),
		DifficultyPrefix: v.GetString("prefix"),
		MasterSeed:       v.GetUint32("seed"),
	})
}

// newCore constructs the archive core from the settings.
func newCore(v *viper.Viper) (*archive.Core, error) {
	log := zap.NewNop().Sugar()
	if v.GetBool("verbose") {
		l, err := logger.New("ARCHIVE-CLI", "stderr")
		if err != nil {
			return nil, err
		}
		log = l
	}

	chain, err := newChain(v)
	if err != nil {
		return nil, err
	}

	cfg := archive.Config{
		Log:   log,
		Chain: chain,
	}

	if host := v.GetString("ledger"); host != "" {
		cfg.Ledger = ledger.New(host, v.GetDuration("ledger-timeout"))
	}

	return archive.NewCore(cfg)
}

// record is how a block is printed.
type record struct {
	Source archive.Source `json:"source"`
	procedural.Block
}

func printJSON(w io.Writer, val any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(val)
}
