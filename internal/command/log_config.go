package command

import (
	"flag"
	"io"

	"github.com/joeycumines/goap/internal/config"
	"github.com/joeycumines/goap/internal/logging"
)

// logFlags are the logging flags shared by commands that run agents.
type logFlags struct {
	file       string
	level      string
	bufferSize int
	verbose    bool
}

func (f *logFlags) setup(fs *flag.FlagSet) {
	fs.StringVar(&f.file, "log-file", "", "Path to log file (JSON output)")
	fs.StringVar(&f.level, "log-level", "", "Log level (debug, info, warn, error)")
	fs.IntVar(&f.bufferSize, "log-buffer", 0, "Size of in-memory log buffer")
	fs.BoolVar(&f.verbose, "v", false, "Also write logs to stderr")
}

// resolveLogConfig resolves log options from flags and config defaults.
// Flag values take precedence; config values are used when flags have their
// zero value.
func resolveLogConfig(flagPath, flagLevel string, flagBufferSize int, cfg *config.Config) (logging.Options, error) {
	schema := config.DefaultSchema()
	var opts logging.Options

	// Level: flag, then config, then info.
	levelStr := flagLevel
	if levelStr == "" {
		levelStr = schema.Resolve(cfg, "log.level")
	}
	level, err := logging.ParseLevel(levelStr)
	if err != nil {
		return opts, err
	}
	opts.Level = level

	opts.BufferSize = flagBufferSize
	if opts.BufferSize <= 0 {
		opts.BufferSize = schema.ResolveInt(cfg, "", "log.buffer-size")
	}

	opts.File = flagPath
	if opts.File == "" {
		opts.File = schema.Resolve(cfg, "log.file")
	}
	if opts.File != "" {
		opts.MaxSizeMB = schema.ResolveInt(cfg, "", "log.max-size-mb")
		// Zero maxFiles is valid (no backups, just truncate on rotate).
		opts.MaxFiles = schema.ResolveInt(cfg, "", "log.max-files")
	}

	return opts, nil
}

// newLogger builds the logger for a command run. Records go to the buffer,
// the log file if one is configured, and stderr when verbose.
func (f *logFlags) newLogger(cfg *config.Config, stderr io.Writer) (*logging.Logger, error) {
	opts, err := resolveLogConfig(f.file, f.level, f.bufferSize, cfg)
	if err != nil {
		return nil, err
	}
	if f.verbose {
		opts.Console = stderr
	}
	return logging.New(opts)
}
