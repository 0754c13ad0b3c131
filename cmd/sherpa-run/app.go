package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/sherpa-wasm/asr"
	"github.com/wippyai/sherpa-wasm/assetcache"
	"github.com/wippyai/sherpa-wasm/audio"
	"github.com/wippyai/sherpa-wasm/engine"
	"github.com/wippyai/sherpa-wasm/grpcserver"
	"github.com/wippyai/sherpa-wasm/loader"
	"github.com/wippyai/sherpa-wasm/marshal"
	"github.com/wippyai/sherpa-wasm/mcpserver"
	"github.com/wippyai/sherpa-wasm/resource"
	"github.com/wippyai/sherpa-wasm/settings"
	"github.com/wippyai/sherpa-wasm/transcribe"
)

func newLogger(s *settings.Settings, debug, quiet bool) (*zap.Logger, error) {
	if quiet && !debug {
		return zap.NewNop(), nil
	}
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(s.LogLevel())
	}
	if quiet {
		// keep the screen and stdout clean; debug output goes to a file
		cfg.OutputPaths = []string{"sherpa-run.log"}
		cfg.ErrorOutputPaths = []string{"sherpa-run.log"}
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func installLogger(log *zap.Logger) {
	zap.ReplaceGlobals(log)
	engine.SetLogger(log.Named("engine"))
	marshal.SetLogger(log.Named("marshal"))
	asr.SetLogger(log.Named("asr"))
	loader.SetLogger(log.Named("loader"))
	assetcache.SetLogger(log.Named("assetcache"))
	audio.SetLogger(log.Named("audio"))
	transcribe.SetLogger(log.Named("transcribe"))
	grpcserver.SetLogger(log.Named("grpc"))
	mcpserver.SetLogger(log.Named("mcp"))
}

// app holds the loaded engine and the recognizers built from settings.
type app struct {
	settings *settings.Settings
	engine   *loader.Engine
	online   *asr.OnlineRecognizer
	offline  *asr.OfflineRecognizer
	files    *transcribe.FileRecognizer
	table    *resource.UnifiedTable
	unwatch  func()
}

func loaderOptions(s *settings.Settings, onStatus func(string)) (loader.Options, error) {
	opts := loader.Options{
		WasmPath:            s.Engine.Path,
		WasmURL:             s.Engine.URL,
		ModelDir:            s.Engine.ModelDir,
		CompilationCacheDir: s.Engine.CompilationCacheDir,
		MemoryLimitPages:    s.Engine.MemoryLimitPages,
		OnStatus:            onStatus,
		Stderr:              os.Stderr,
	}
	if s.Engine.URL == "" {
		return opts, nil
	}

	var store assetcache.Store = assetcache.NewMemoryStore()
	if s.Cache.Dir != "" {
		ds, err := assetcache.NewDirStore(s.Cache.Dir)
		if err != nil {
			return opts, err
		}
		store = ds
	}
	tr := assetcache.NewTransport(http.DefaultTransport, store, s.Cache.Prefix)
	tr.Disabled = s.Cache.Disabled
	opts.Client = &http.Client{Transport: tr}
	return opts, nil
}

func startApp(ctx context.Context, s *settings.Settings, onStatus func(string)) (*app, error) {
	opts, err := loaderOptions(s, onStatus)
	if err != nil {
		return nil, err
	}
	eng, err := loader.Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load engine: %w", err)
	}

	a := &app{settings: s, engine: eng, table: resource.NewTable()}
	a.unwatch = a.table.Watch(func(e resource.Event) {
		zap.L().Debug("handle "+e.Op.String(),
			zap.Stringer("kind", e.Kind),
			zap.Uint32("handle", uint32(e.Handle)),
			zap.Uint32("owner", uint32(e.Owner)))
	})
	a.online, err = asr.NewOnlineRecognizer(ctx, eng.Native(), s.Online, asr.WithTable(a.table))
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("create online recognizer: %w", err)
	}
	a.files = transcribe.NewFileRecognizer(a.online)

	if s.Offline != nil {
		a.offline, err = asr.NewOfflineRecognizer(ctx, eng.Native(), *s.Offline, asr.WithTable(a.table))
		if err != nil {
			a.close(ctx)
			return nil, fmt.Errorf("create offline recognizer: %w", err)
		}
		a.files.WithOffline(a.offline)
	}
	return a, nil
}

// leaks reports streams still live besides the recognizers app owns.
func (a *app) leaks() map[resource.Kind]int {
	census := a.table.Census()
	delete(census, resource.KindOnlineRecognizer)
	delete(census, resource.KindOfflineRecognizer)
	return census
}

func (a *app) close(ctx context.Context) {
	for kind, n := range a.leaks() {
		zap.L().Warn("handles still live at shutdown", zap.Stringer("kind", kind), zap.Int("count", n))
	}
	if a.offline != nil {
		if err := a.offline.Free(ctx); err != nil {
			zap.L().Warn("free offline recognizer", zap.Error(err))
		}
	}
	if a.online != nil {
		if err := a.online.Free(ctx); err != nil {
			zap.L().Warn("free online recognizer", zap.Error(err))
		}
	}
	a.unwatch()
	_ = a.table.Close()
	if err := loader.Reset(ctx); err != nil {
		zap.L().Warn("close engine", zap.Error(err))
	}
}
