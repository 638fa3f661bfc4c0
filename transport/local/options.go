package local

import (
	"log/slog"
	"maps"
)

// Default transport configuration values.
const (
	defaultExecutable = "conda"
	defaultChunkSize  = 32 << 10 // 32 KB
	defaultStderrCap  = 64 << 10
)

// Options holds resolved construction-time configuration for a Transport.
type Options struct {
	// Executable is the program to spawn, resolved through PATH.
	Executable string

	// Dir is the working directory for the subprocess. Empty inherits ours.
	Dir string

	// Env holds extra environment variables layered over the parent's.
	Env map[string]string

	// ChunkSize is the read size for standard output. Progress frames are
	// delivered as soon as a read completes them.
	ChunkSize int

	// Logger receives dispatch and failure logs.
	Logger *slog.Logger
}

// Option configures a Transport at construction time.
type Option func(*Options)

// WithExecutable overrides the executable. Empty values are ignored.
func WithExecutable(path string) Option {
	return func(o *Options) {
		if path != "" {
			o.Executable = path
		}
	}
}

// WithDir sets the subprocess working directory.
func WithDir(dir string) Option {
	return func(o *Options) {
		o.Dir = dir
	}
}

// WithEnv adds environment variables for the subprocess. Later calls
// merge over earlier ones.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		if len(env) == 0 {
			return
		}
		if o.Env == nil {
			o.Env = make(map[string]string, len(env))
		}
		maps.Copy(o.Env, env)
	}
}

// WithChunkSize sets the standard output read size in bytes.
// Values <= 0 are ignored.
func WithChunkSize(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.ChunkSize = size
		}
	}
}

// WithLogger sets the logger. nil is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

func resolveOptions(opts ...Option) Options {
	o := Options{
		Executable: defaultExecutable,
		ChunkSize:  defaultChunkSize,
		Logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
