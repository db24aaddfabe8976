package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nhle/diet-tracker/internal/app"
	"github.com/nhle/diet-tracker/internal/credential"
	"github.com/nhle/diet-tracker/internal/gateway"
	"github.com/nhle/diet-tracker/internal/model"
	"github.com/nhle/diet-tracker/internal/store"
	"github.com/nhle/diet-tracker/internal/theme"
	"github.com/nhle/diet-tracker/internal/ui/prompt"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to the config file")
	verbose := flag.Bool("v", false, "log requests and background failures to stderr")
	flag.Usage = func() { fmt.Fprint(os.Stderr, app.Usage) }
	flag.Parse()

	if !*verbose {
		log.SetOutput(io.Discard)
	}

	if err := run(*configPath, flag.Args()); err != nil {
		if errors.Is(err, app.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprint(os.Stderr, app.Usage)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, theme.ErrorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

func run(configPath string, args []string) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}

	if err := theme.Apply(cfg.Display.Theme); err != nil {
		return err
	}

	creds, err := credential.Open(cfg.Credentials)
	if err != nil {
		return err
	}

	events, err := store.NewSQLiteStore(cfg.Cache.DBPath)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer events.Close()

	client := gateway.NewClient(cfg.API, creds,
		gateway.WithUnauthorizedHook(func() {
			log.Printf("stored token rejected by backend; signed out")
		}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(client, creds, events, prompt.New(nil),
		app.WithRefreshInterval(time.Duration(cfg.Dashboard.RefreshIntervalSec)*time.Second),
	)
	return a.Run(ctx, args)
}
