package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aflah-pp/NarrativeNexus/internal/api"
	"github.com/aflah-pp/NarrativeNexus/internal/commands"
	"github.com/aflah-pp/NarrativeNexus/internal/config"
	"github.com/aflah-pp/NarrativeNexus/internal/guard"
	"github.com/aflah-pp/NarrativeNexus/internal/realtime"
	"github.com/aflah-pp/NarrativeNexus/internal/session"
	"github.com/aflah-pp/NarrativeNexus/internal/ui"
)

func run(ctx context.Context, exportSpec string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	if exportSpec != "" {
		return commands.Export(ctx, cfg, exportSpec, logger)
	}

	store, err := session.Open(cfg.StateFile, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	client, err := api.New(cfg.BaseURL, store, logger)
	if err != nil {
		return err
	}
	store.BindIdentity(client)

	rt := realtime.NewManager(nil, logger)
	defer rt.Shutdown()

	app := ui.NewApp(ctx, ui.Deps{
		Cfg:    cfg,
		Store:  store,
		Client: client,
		Guard:  guard.New(store, client, logger),
		RT:     rt,
		Logger: logger,
	})

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

func main() {
	exportSpec := flag.String("export", "", "Export a chapter to HTML (storyID/chapterNo) and exit")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *exportSpec); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Application error: %v", err)
	}
}
