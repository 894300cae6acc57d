package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "hexfrontd",
	Short: "Deterministic game-state processor node",
	Long: `hexfrontd maintains the game state of the hexfront world.

It pulls confirmed blocks from a block feed, applies them through the
deterministic state-transition pipeline and serves the resulting state
over HTTP. Every node computes bit-identical state for the same chain.`,
	SilenceUsage: true,
}

// v is the process-wide configuration. Flags override HEXFRONT_* environment
// variables, which override the config file.
var v = viper.New()

func init() {
	rootCmd.PersistentFlags().String("chain", "main", "chain to follow (main, test, regtest)")
	rootCmd.PersistentFlags().String("datadir", defaultDataDir(), "data directory")
	rootCmd.PersistentFlags().String("config", "", "config file (default <datadir>/hexfrontd.yaml)")

	_ = v.BindPFlag("chain", rootCmd.PersistentFlags().Lookup("chain"))
	_ = v.BindPFlag("datadir", rootCmd.PersistentFlags().Lookup("datadir"))

	v.SetEnvPrefix("HEXFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cobra.OnInitialize(loadConfigFile)
}

func loadConfigFile() {
	if path, _ := rootCmd.PersistentFlags().GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("hexfrontd")
		v.SetConfigType("yaml")
		v.AddConfigPath(v.GetString("datadir"))
	}
	// A missing config file is fine; flags and env cover everything.
	_ = v.ReadInConfig()
}
