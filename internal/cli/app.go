package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/tinycms/internal/blobstore"
	"github.com/roach88/tinycms/internal/config"
	"github.com/roach88/tinycms/internal/snapshot"
	"github.com/roach88/tinycms/internal/store"
	"github.com/roach88/tinycms/internal/transfer"
)

// app is the per-invocation wiring: one blob store, one Store, one transfer
// engine. close performs the final persist.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	blobs    blobstore.Store
	store    *store.Store
	transfer *transfer.Engine
	out      *OutputFormatter
}

// openApp loads configuration, applies flag overrides and opens the store.
func openApp(cmd *cobra.Command, opts *RootOptions) (*app, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load config", err)
		}
		cfg = loaded
	}
	if opts.Database != "" {
		cfg.Storage.Path = opts.Database
	}
	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid config", err)
	}

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid config", err)
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	var blobs blobstore.Store
	if cfg.Storage.Path == config.MemoryPath {
		blobs = blobstore.NewMemory()
	} else {
		b, err := blobstore.OpenBolt(cfg.Storage.Path, blobstore.BoltOptions{Timeout: cfg.Storage.Timeout})
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open snapshot file", err)
		}
		logger.Debug("snapshot file opened", "path", b.Path())
		blobs = b
	}

	s, err := store.New(store.Options{
		Blobs:  blobs,
		Codec:  snapshot.Codec{Compress: cfg.Snapshot.Compress},
		Key:    cfg.Storage.Key,
		Logger: logger,
	})
	if err != nil {
		blobs.Close()
		return nil, WrapExitError(ExitCommandError, "failed to create store", err)
	}

	if err := s.Initialize(cmd.Context()); err != nil {
		blobs.Close()
		return nil, WrapExitError(ExitCommandError, "failed to initialize store", err)
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		blobs:    blobs,
		store:    s,
		transfer: transfer.New(s, logger),
		out:      &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()},
	}, nil
}

// close shuts the store down and releases the blob store.
func (a *app) close(ctx context.Context) error {
	err := a.store.Shutdown(ctx)
	if cerr := a.blobs.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	if err != nil {
		a.logger.Error("shutdown failed", "error", err)
		return WrapExitError(ExitFailure, "failed to save snapshot", err)
	}
	return nil
}

// withApp runs fn against an opened app and always closes it. Errors from
// fn take precedence over close errors.
func withApp(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	runErr := fn(ctx, a)
	closeErr := a.close(context.WithoutCancel(ctx))
	if runErr != nil {
		return runErr
	}
	return closeErr
}

// storeFailure maps a store error to an exit error.
func storeFailure(message string, err error) error {
	return WrapExitError(ExitFailure, message, err)
}
