package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hexfront/hexfront/internal/daemon"
	"github.com/hexfront/hexfront/internal/gamecfg"
	"github.com/hexfront/hexfront/internal/mapdata"
	"github.com/hexfront/hexfront/internal/params"
	"github.com/hexfront/hexfront/internal/pipeline"
	"github.com/hexfront/hexfront/internal/storage"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the node",
	RunE:  runNode,
}

func init() {
	runCmd.Flags().String("feed", "http://127.0.0.1:8590", "block feed base URL")
	runCmd.Flags().String("listen", "127.0.0.1:8591", "state RPC listen address")
	runCmd.Flags().Duration("poll-interval", 5*time.Second, "feed poll interval at the tip")
	runCmd.Flags().Bool("validate", false, "run the invariant pass after every block")
	runCmd.Flags().Bool("debug-moves", false, "log rejected moves")

	_ = v.BindPFlag("feed", runCmd.Flags().Lookup("feed"))
	_ = v.BindPFlag("listen", runCmd.Flags().Lookup("listen"))
	_ = v.BindPFlag("poll-interval", runCmd.Flags().Lookup("poll-interval"))
	_ = v.BindPFlag("validate", runCmd.Flags().Lookup("validate"))
	_ = v.BindPFlag("debug-moves", runCmd.Flags().Lookup("debug-moves"))

	rootCmd.AddCommand(runCmd)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hexfront"
	}
	return filepath.Join(home, ".hexfront")
}

func runNode(cmd *cobra.Command, args []string) error {
	chain, err := params.ChainFromString(v.GetString("chain"))
	if err != nil {
		return err
	}
	dataDir := filepath.Join(v.GetString("datadir"), chain.String())
	if err := daemon.EnsureDataDir(dataDir); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, filepath.Join(dataDir, "state.db"))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	cfg, err := gamecfg.Load()
	if err != nil {
		return err
	}

	opts := pipeline.Options{Validate: v.GetBool("validate")}
	if v.GetBool("debug-moves") {
		// Rejected moves go to standard error.
		opts.DebugLog = log.New(os.Stderr, "moves ", log.LstdFlags|log.LUTC)
	}
	game := pipeline.New(store, params.ForChain(chain), mapdata.Default(), cfg, opts)

	d, err := daemon.New(daemon.Config{
		FeedURL:      v.GetString("feed"),
		ListenAddr:   v.GetString("listen"),
		DataDir:      dataDir,
		PollInterval: v.GetDuration("poll-interval"),
	}, game)
	if err != nil {
		return err
	}

	log.Printf("hexfrontd following %s chain, data in %s", chain, dataDir)
	if err := d.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("node stopped: %w", err)
	}
	return nil
}
