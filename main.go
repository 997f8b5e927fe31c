package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"presentify/config"
	"presentify/deck"
	"presentify/outline"
	"presentify/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a JSON config file; built-in defaults apply when omitted")
	serve := flag.Bool("serve", false, "start the web server")
	addr := flag.String("addr", "", "listen address when --serve (overrides config server_addr)")
	inPath := flag.String("in", "", "input text or markdown file")
	templatePath := flag.String("template", "", "optional .pptx or .potx template")
	outPath := flag.String("out", "presentify_output.pptx", "output deck path")
	guidance := flag.String("guidance", "", "extra instruction for the outline step")
	notes := flag.Bool("notes", false, "ask for speaker notes")
	verbose := flag.Bool("v", false, "enable debug logs")
	flag.Parse()

	logger, err := buildLogger(*verbose)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg := config.Default()
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			return err
		}
	}

	if *serve {
		listen := cfg.ServerAddr
		if *addr != "" {
			listen = *addr
		}
		if listen == "" {
			listen = ":8080"
		}
		return runServer(cfg, logger, listen)
	}

	if *inPath == "" {
		return fmt.Errorf("--in is required unless --serve is set")
	}
	return runOnce(cfg, logger, onceParams{
		inPath:       *inPath,
		templatePath: *templatePath,
		outPath:      *outPath,
		guidance:     *guidance,
		withNotes:    *notes,
	})
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// runServer blocks until the listener fails or a shutdown signal arrives,
// then drains in-flight requests before returning.
func runServer(cfg config.Config, logger *zap.Logger, listen string) error {
	srv := &http.Server{
		Addr:    listen,
		Handler: server.New(cfg, logger).Routes(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", listen))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return err
	case sig := <-shutdown:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			_ = srv.Close()
			return err
		}
	}
	return nil
}

type onceParams struct {
	inPath       string
	templatePath string
	outPath      string
	guidance     string
	withNotes    bool
}

// runOnce performs a single generation without the server: read the input,
// inspect the optional template, outline, assemble, write the deck.
func runOnce(cfg config.Config, logger *zap.Logger, p onceParams) error {
	text, err := os.ReadFile(p.inPath)
	if err != nil {
		return err
	}

	var template []byte
	if p.templatePath != "" {
		switch strings.ToLower(filepath.Ext(p.templatePath)) {
		case ".pptx", ".potx":
		default:
			return fmt.Errorf("template %s: only .pptx and .potx are accepted", p.templatePath)
		}
		template, err = os.ReadFile(p.templatePath)
		if err != nil {
			return err
		}
	}

	inventory, err := deck.Inspect(template, cfg.Limits.MaxTemplateBytes)
	if err != nil {
		return err
	}

	gen := outline.NewGenerator(cfg)
	slides, source, genErr := gen.Generate(context.Background(), outline.Request{
		Text:     string(text),
		Guidance: p.guidance,
		Settings: outline.Settings{
			Provider: cfg.LLM.Provider,
			Model:    cfg.LLM.Model,
			APIKey:   cfg.LLM.APIKey(),
			BaseURL:  cfg.LLM.BaseURL,
		},
		WithNotes: p.withNotes,
	})
	if genErr != nil {
		logger.Warn("provider failed, outline built by fallback",
			zap.String("provider", cfg.LLM.Provider),
			zap.Error(genErr),
		)
	}

	data, err := deck.Assemble(slides, inventory, template)
	if err != nil {
		return err
	}
	if err := os.WriteFile(p.outPath, data, 0o644); err != nil {
		return err
	}

	logger.Info("deck written",
		zap.String("path", p.outPath),
		zap.Int("slides", len(slides)),
		zap.String("source", source),
	)
	return nil
}
