package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"nyiyui.ca/hato/senro/config"
	"nyiyui.ca/hato/senro/kujo"
	"nyiyui.ca/hato/senro/store"
	"nyiyui.ca/hato/senro/workspace"
)

var configPath string
var listen string
var dbPath string
var open string

func main() {
	defer zap.S().Sync()
	level := zap.LevelFlag("log-level", zap.InfoLevel, "set log level")
	flag.StringVar(&configPath, "config", "", "path to config file (.json, .yaml or .yml)")
	flag.StringVar(&listen, "listen", "", "address to listen on (overrides config)")
	flag.StringVar(&dbPath, "db-path", "", "path to database (overrides config)")
	flag.StringVar(&open, "open", "", "ID of a saved layout to open on start")
	flag.Parse()
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(*level)
	dev, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(dev)

	if err := main2(); err != nil {
		zap.S().Fatal(err)
	}
}

func loadConfig() (config.Config, error) {
	c := config.Default()
	if configPath != "" {
		var err error
		c, err = config.Load(configPath)
		if err != nil {
			return config.Config{}, err
		}
	}
	if listen != "" {
		c.Listen = listen
	}
	if dbPath != "" {
		c.DBPath = dbPath
	}
	return c, c.Validate()
}

func main2() error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	zap.S().Infow("config", "config", c)

	st, err := store.Open(c.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	w := workspace.New(c.Resolver())
	if open != "" {
		id, err := uuid.Parse(open)
		if err != nil {
			return err
		}
		y, _, err := st.Load(id)
		if err != nil {
			return err
		}
		w.SetLayout(y)
	}

	s := kujo.NewServer(w, st, c.AllowedOrigins)
	defer s.Close()
	srv := &http.Server{
		Addr:    c.Listen,
		Handler: s,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		zap.S().Infow("listening", "addr", c.Listen)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		zap.S().Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}
