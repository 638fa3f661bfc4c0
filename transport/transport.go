package transport

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmora/condarun"
	"github.com/dmora/condarun/config"
	"github.com/dmora/condarun/transport/local"
	"github.com/dmora/condarun/transport/remote"
	"github.com/dmora/condarun/transport/socket"
)

// New builds the Transport named by cfg.Mode. An unrecognized mode is an
// UnsupportedConfiguration error. logger may be nil.
func New(cfg config.Config, logger *slog.Logger) (condarun.Transport, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("mode", cfg.Mode)

	switch strings.ToLower(cfg.Mode) {
	case config.ModeLocal, "":
		return local.New(
			local.WithExecutable(cfg.Executable),
			local.WithDir(cfg.Dir),
			local.WithEnv(cfg.Env),
			local.WithLogger(logger),
		), nil

	case config.ModeSocket:
		if cfg.SocketURL == "" {
			return nil, missing(cfg.Mode, "socket_url")
		}
		s, err := socket.New(cfg.SocketURL, socket.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return s, nil

	default:
		mode, err := remote.ParseMode(cfg.Mode)
		if err != nil {
			return nil, err
		}
		if cfg.APIRoot == "" {
			return nil, missing(cfg.Mode, "api_root")
		}
		opts := []remote.Option{remote.WithLogger(logger)}
		if cfg.SocketURL != "" {
			s, err := socket.New(cfg.SocketURL, socket.WithLogger(logger))
			if err != nil {
				return nil, err
			}
			opts = append(opts, remote.WithStreamer(s))
		}
		r, err := remote.New(cfg.APIRoot, mode, opts...)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

func missing(mode, field string) error {
	return &condarun.Error{
		Kind:    condarun.KindUnsupportedConfiguration,
		Op:      "transport",
		Message: fmt.Sprintf("mode %q requires %s", mode, field),
	}
}
