package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/specialistvlad/minipack/internal/app"
	"github.com/specialistvlad/minipack/internal/translate"
)

const (
	// DefaultOutput is where a single-entry bundle is written when no
	// output path is given.
	DefaultOutput = "dist/bundle.js"
	// DefaultProjectFile is picked up from the working directory when no
	// entry is given.
	DefaultProjectFile = "minipack.hcl"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("minipack", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
minipack - bundles an ES module and its relative imports into one script.

Usage:
  minipack [options] [ENTRY [OUTPUT]]

Arguments:
  ENTRY
    Path to the entry module.
  OUTPUT
    Path of the bundle to write (default "`+DefaultOutput+`").

Without ENTRY the bundles of ./`+DefaultProjectFile+` are built, if present.

Options:
`)
		flagSet.PrintDefaults()
	}

	entryFlag := flagSet.String("entry", "", "Path to the entry module.")
	outputFlag := flagSet.String("output", "", "Path of the bundle to write.")
	oFlag := flagSet.String("o", "", "Path of the bundle to write (shorthand).")
	configFlag := flagSet.String("config", "", "Path to an HCL project file or a directory of them.")
	graphFlag := flagSet.String("graph", "", "Write the module graph in Graphviz DOT format to this path.")
	envFileFlag := flagSet.String("env-file", ".env", "Env file loaded before the project file is evaluated. Missing files are ignored.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", 4, "Number of files extracted concurrently.")
	dedupeFlag := flagSet.Bool("dedupe", true, "Bundle each file once, however many modules import it.")
	cacheFlag := flagSet.Bool("cache-exports", true, "Run each module body once and share its exports.")
	minifyFlag := flagSet.Bool("minify", false, "Minify the emitted bundle.")
	targetFlag := flagSet.String("target", "es2015", "Language level of the emitted code, es2015 through esnext.")
	globalFlag := flagSet.String("global-name", "", "Expose the entry module's exports as this global variable.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() > 2 {
		return nil, false, usageError("too many arguments: %s", strings.Join(flagSet.Args(), " "))
	}

	entry := *entryFlag
	if entry == "" && flagSet.NArg() > 0 {
		entry = flagSet.Arg(0)
	}
	out := firstNonEmpty(*outputFlag, *oFlag)
	if out == "" && flagSet.NArg() > 1 {
		out = flagSet.Arg(1)
	}

	configPath := *configFlag
	if entry == "" && configPath == "" {
		if _, err := os.Stat(DefaultProjectFile); err == nil {
			configPath = DefaultProjectFile
			slog.Debug("Using project file from working directory.", "path", configPath)
		}
	}

	if entry == "" && configPath == "" {
		slog.Debug("Nothing to build, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}
	if entry != "" && out == "" {
		out = DefaultOutput
	}
	slog.Debug("Build inputs determined.", "entry", entry, "output", out, "config", configPath)

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, usageError("invalid log-format: must be 'text' or 'json'")
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}

	target := strings.ToLower(*targetFlag)
	if _, err := translate.ParseTarget(target); err != nil {
		return nil, false, usageError("invalid target: %v", err)
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		EntryPath:    entry,
		OutputPath:   out,
		ConfigPath:   configPath,
		GraphPath:    *graphFlag,
		EnvFile:      *envFileFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
		Workers:      *workersFlag,
		Dedupe:       *dedupeFlag,
		CacheExports: *cacheFlag,
		Minify:       *minifyFlag,
		Target:       target,
		GlobalName:   *globalFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
