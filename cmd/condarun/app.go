package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dmora/condarun"
	"github.com/dmora/condarun/conda"
	"github.com/dmora/condarun/config"
	"github.com/dmora/condarun/transport"
)

// app carries the state shared by every subcommand.
type app struct {
	stdout io.Writer
	stderr io.Writer

	// Persistent flags.
	configPath string
	mode       string
	executable string
	apiRoot    string
	socketURL  string
	progress   bool
	verbose    bool

	// newTransport builds the transport once flags are parsed.
	newTransport func(config.Config, *slog.Logger) (condarun.Transport, error)

	logger *slog.Logger
	client *conda.Client
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:       stdout,
		stderr:       stderr,
		newTransport: transport.New,
	}
}

// setup loads configuration, applies flag overrides and builds the client.
func (a *app) setup() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if a.mode != "" {
		cfg.Mode = a.mode
	}
	if a.executable != "" {
		cfg.Executable = a.executable
	}
	if a.apiRoot != "" {
		cfg.APIRoot = a.apiRoot
	}
	if a.socketURL != "" {
		cfg.SocketURL = a.socketURL
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	level := cfg.Level()
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	t, err := a.newTransport(cfg, a.logger)
	if err != nil {
		return err
	}
	a.client = conda.New(t, conda.WithLogger(a.logger))
	return nil
}

func (a *app) loadConfig() (config.Config, error) {
	if a.configPath != "" {
		return config.Load(a.configPath)
	}
	return config.FromEnv()
}

// printJSON writes doc to stdout, indented.
func (a *app) printJSON(doc json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, doc, "", "  "); err != nil {
		return fmt.Errorf("format result: %w", err)
	}
	buf.WriteByte('\n')
	_, err := a.stdout.Write(buf.Bytes())
	return err
}

// printValue marshals v and writes it to stdout.
func (a *app) printValue(v any) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("format result: %w", err)
	}
	return a.printJSON(doc)
}

// printProgress writes one progress payload to stderr with a timestamp.
func (a *app) printProgress(p json.RawMessage) {
	fmt.Fprintf(a.stderr, "[%s] progress %s\n", time.Now().Format(time.TimeOnly+".000"), p)
}
