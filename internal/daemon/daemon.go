// Package daemon runs a node around the state processor: it pulls blocks
// from a feed endpoint in order, applies them, and serves the resulting
// state over HTTP. Wire-level chain integration stays outside the core;
// the feed only has to honour the block JSON contract.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/hexfront/hexfront/internal/pipeline"
)

// Config is the node configuration resolved from flags, file and
// environment by the command layer.
type Config struct {
	// FeedURL is the base URL of the block feed; blocks are fetched from
	// FeedURL/block/<height>.
	FeedURL string
	// ListenAddr serves /state and /healthz.
	ListenAddr string
	// DataDir holds the database, lock file and logs.
	DataDir string
	// PollInterval is the pause between feed polls once caught up.
	PollInterval time.Duration
}

// Daemon owns the long-running node loops.
type Daemon struct {
	cfg     Config
	game    *pipeline.Game
	logger  *log.Logger
	metrics *metrics
	client  *http.Client

	height uint64
}

// New wires a daemon around an initialised game instance. The logger
// rotates inside the data directory.
func New(cfg Config, game *pipeline.Game) (*Daemon, error) {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	logger := log.New(&lumberjack.Logger{
		Filename:   filepath.Join(cfg.DataDir, "logs", "hexfrontd.log"),
		MaxSize:    50, // megabytes
		MaxBackups: 5,
	}, "", log.LstdFlags|log.LUTC)

	m, err := newMetrics()
	if err != nil {
		return nil, err
	}
	return &Daemon{
		cfg:     cfg,
		game:    game,
		logger:  logger,
		metrics: m,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Logger exposes the daemon's rotating logger, e.g. as the pipeline debug
// sink.
func (d *Daemon) Logger() *log.Logger {
	return d.logger
}

// Run initialises the state if needed and serves the sync and RPC loops
// until the context ends. The data directory is locked against concurrent
// daemons.
func (d *Daemon) Run(ctx context.Context) error {
	lock := flock.New(filepath.Join(d.cfg.DataDir, "hexfrontd.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock data directory: %w", err)
	}
	if !locked {
		return fmt.Errorf("data directory %s is locked by another daemon", d.cfg.DataDir)
	}
	defer func() { _ = lock.Unlock() }()

	if err := d.game.InitialiseState(ctx); err != nil {
		return fmt.Errorf("initialise state: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.syncLoop(ctx) })
	g.Go(func() error { return d.serveHTTP(ctx) })
	return g.Wait()
}

// syncLoop pulls and applies blocks in order, backing off on feed errors.
func (d *Daemon) syncLoop(ctx context.Context) error {
	genesis, _ := d.game.InitialStateBlock()
	next := genesis
	if cur, ok := d.game.CurrentBlockHeight(ctx); ok {
		next = cur + 1
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		blockJSON, err := d.fetchBlock(ctx, next)
		if err != nil {
			if errors.Is(err, errNotYetMined) {
				select {
				case <-time.After(d.cfg.PollInterval):
					continue
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return err
		}

		start := time.Now()
		if err := d.game.UpdateState(ctx, blockJSON); err != nil {
			return fmt.Errorf("apply block %d: %w", next, err)
		}
		d.height = next
		d.metrics.blockProcessed(ctx, next, time.Since(start))
		d.logger.Printf("applied block %d", next)
		next++
	}
}

var errNotYetMined = errors.New("block not yet available")

// fetchBlock gets one block from the feed, retrying transport errors with
// exponential backoff. A 404 means the chain tip has not reached the
// height yet.
func (d *Daemon) fetchBlock(ctx context.Context, height uint64) ([]byte, error) {
	var body []byte
	op := func() error {
		url := fmt.Sprintf("%s/block/%d", d.cfg.FeedURL, height)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := d.client.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		switch resp.StatusCode {
		case http.StatusOK:
			body, err = io.ReadAll(resp.Body)
			return err
		case http.StatusNotFound:
			return backoff.Permanent(errNotYetMined)
		default:
			return fmt.Errorf("feed returned %s", resp.Status)
		}
	}

	policy := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return body, nil
}

// EnsureDataDir creates the daemon's directory layout.
func EnsureDataDir(dir string) error {
	for _, sub := range []string{"", "logs"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
	}
	return nil
}
