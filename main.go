package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/aldema/pipeboard/internal/board"
	"github.com/aldema/pipeboard/internal/cache"
	"github.com/aldema/pipeboard/internal/config"
	"github.com/aldema/pipeboard/internal/events"
	"github.com/aldema/pipeboard/internal/logging"
	"github.com/aldema/pipeboard/internal/remote"
	"github.com/aldema/pipeboard/internal/store"
	"github.com/aldema/pipeboard/internal/tui"
	"github.com/aldema/pipeboard/internal/tui/components"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if err := logging.Init(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	components.InitStyles(cfg.ColorScheme)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := remote.NewHTTPClient(cfg.API.BaseURL, time.Duration(cfg.API.Timeout))
	if cfg.API.Token != "" {
		client.SetToken(cfg.API.Token)
	}

	// The snapshot cache is optional: a broken cache file should never
	// keep the board from starting.
	var snapshots *cache.Store
	snapshots, err = cache.Open(ctx, cfg.Cache.Path)
	if err != nil {
		slog.Warn("snapshot cache unavailable", "error", err)
		snapshots = nil
	} else {
		defer func() {
			if err := snapshots.Close(); err != nil {
				slog.Error("error closing snapshot cache", "error", err)
			}
		}()
	}

	deals := store.NewDealStore(client, cfg.Pipeline.ID, snapshotterOrNil(snapshots))
	inbox := store.NewNotificationStore(client)

	// Show the last confirmed board immediately; the live load replaces
	// it once the API answers.
	if snapshots != nil {
		if b, savedAt, err := snapshots.LoadBoard(ctx, cfg.Pipeline.ID); err == nil {
			slog.Info("restored cached board", "saved_at", savedAt)
			deals.RestoreBoard(b)
		} else if !errors.Is(err, cache.ErrNoSnapshot) {
			slog.Warn("could not restore cached board", "error", err)
		}
	}

	feed := tui.NewNoticeFeed()
	engine := board.NewEngine(board.DefaultActivation())
	ctrl := board.NewController(deals, engine, feed)
	defer ctrl.Wait()

	// Live updates are best effort. A dead push endpoint downgrades the
	// client to manual refresh, it never blocks startup.
	var eventCh <-chan events.Event
	eventClient := events.NewClient(cfg.Events.Network, cfg.Events.Addr, cfg.Pipeline.ID)
	if err := eventClient.Connect(ctx); err != nil {
		connErr := events.ClassifyConnError(err)
		slog.Warn("failed to connect to event channel", "message", connErr.Message, "hint", connErr.Hint)
		slog.Info("continuing without live updates")
	} else {
		eventCh, err = eventClient.Listen(ctx)
		if err != nil {
			slog.Warn("event channel listen failed", "error", err)
			eventCh = nil
		}
		defer func() {
			if err := eventClient.Close(); err != nil {
				slog.Error("error closing event client", "error", err)
			}
		}()
	}

	model := tui.NewModel(ctx, cfg, deals, inbox, ctrl, feed, eventCh)
	p := tea.NewProgram(model, tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

// snapshotterOrNil keeps a typed nil *cache.Store out of the store's
// interface field.
func snapshotterOrNil(s *cache.Store) store.Snapshotter {
	if s == nil {
		return nil
	}
	return s
}
