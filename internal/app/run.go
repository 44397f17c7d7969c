package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/specialistvlad/minipack/internal/asset"
	"github.com/specialistvlad/minipack/internal/bundle"
	"github.com/specialistvlad/minipack/internal/config"
	"github.com/specialistvlad/minipack/internal/ctxlog"
	"github.com/specialistvlad/minipack/internal/graph"
	"github.com/specialistvlad/minipack/internal/translate"
)

// Result summarises one written bundle.
type Result struct {
	Name    string
	Output  string
	Modules int
	Bytes   int
	Elapsed time.Duration
}

// Run builds every requested bundle in order and stops at the first failure.
// Nothing is written for a bundle whose build fails.
func (a *App) Run(ctx context.Context) ([]*Result, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if err := a.loadEnvFile(); err != nil {
		return nil, err
	}

	bundles, err := a.bundles(ctx)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("Bundles resolved.", "count", len(bundles))

	results := make([]*Result, 0, len(bundles))
	for _, b := range bundles {
		res, err := a.Build(ctx, b)
		if err != nil {
			return results, fmt.Errorf("bundle %q: %w", b.Name, err)
		}
		results = append(results, res)
	}

	a.logger.Debug("App.Run method finished.")
	return results, nil
}

// Build runs the full pipeline for a single bundle: graph construction,
// emission and the atomic write of the output file.
func (a *App) Build(ctx context.Context, b *config.Bundle) (*Result, error) {
	start := time.Now()
	ctx = ctxlog.With(ctx, "bundle", b.Name)
	logger := ctxlog.FromContext(ctx)

	if err := b.Validate(); err != nil {
		return nil, err
	}

	tr, err := translate.NewESModule(translate.Options{
		Target:    b.Target,
		Define:    b.Define,
		CacheSize: translationCacheSize,
	})
	if err != nil {
		return nil, err
	}
	emitter, err := bundle.New(bundle.Options{
		CacheExports: b.CacheExports,
		GlobalName:   b.GlobalName,
		Minify:       b.Minify,
	})
	if err != nil {
		return nil, err
	}
	builder := graph.New(asset.NewExtractor(a.fs, tr), a.fs, graph.Options{
		Dedupe:  b.Dedupe,
		Workers: b.Workers,
	})

	logger.Debug("Building module graph.", "entry", b.Entry, "dedupe", b.Dedupe, "workers", b.Workers)
	assets, err := builder.Build(ctx, b.Entry)
	if err != nil {
		return nil, err
	}

	code, err := emitter.Emit(ctx, assets)
	if err != nil {
		return nil, err
	}
	if err := a.fs.WriteFile(b.Output, code); err != nil {
		return nil, fmt.Errorf("write bundle %s: %w", b.Output, err)
	}
	// A graph write failure is reported but does not fail the build.
	if b.Graph != "" {
		if err := a.fs.WriteFile(b.Graph, graph.DOT(assets)); err != nil {
			logger.Warn("Failed to write module graph.", "path", b.Graph, "error", err)
		} else {
			logger.Debug("Module graph written.", "path", b.Graph)
		}
	}

	res := &Result{
		Name:    b.Name,
		Output:  b.Output,
		Modules: len(assets),
		Bytes:   len(code),
		Elapsed: time.Since(start),
	}
	logger.Info("Bundle written.", "output", res.Output, "modules", res.Modules, "bytes", res.Bytes, "elapsed", res.Elapsed)
	return res, nil
}

// bundles returns the single command-line bundle, or every bundle declared
// in the project file.
func (a *App) bundles(ctx context.Context) ([]*config.Bundle, error) {
	defaults := a.config.BundleDefaults()
	if a.config.ConfigPath == "" {
		return []*config.Bundle{&defaults}, nil
	}

	a.logger.Debug("Loading project file.", "path", a.config.ConfigPath)
	model, err := a.loader.Load(ctx, defaults, a.config.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load project file: %w", err)
	}
	if len(model.Bundles) == 0 {
		return nil, fmt.Errorf("project file %s declares no bundles", a.config.ConfigPath)
	}
	return model.Bundles, nil
}

// loadEnvFile adds the variables of the configured .env file to the process
// environment. Variables that are already set win. A missing file is not an
// error.
func (a *App) loadEnvFile() error {
	if a.config.EnvFile == "" {
		return nil
	}
	err := godotenv.Load(a.config.EnvFile)
	if errors.Is(err, fs.ErrNotExist) {
		a.logger.Debug("No env file found, skipping.", "path", a.config.EnvFile)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load env file %s: %w", a.config.EnvFile, err)
	}
	a.logger.Debug("Env file loaded.", "path", a.config.EnvFile)
	return nil
}
