package engine

import (
	"context"
	"io"
	"io/fs"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/emscripten"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/sherpa-wasm/errors"
)

// WazeroEngine owns the wazero runtime that hosts the recognition engine.
type WazeroEngine struct {
	runtime      wazero.Runtime
	wasiInitMu   sync.Mutex
	wasiInitDone atomic.Bool
}

// Config holds configuration for engine creation
type Config struct {
	// CompilationCache persists compiled machine code across processes.
	CompilationCache wazero.CompilationCache

	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32
}

// NewWazeroEngine creates a new wazero-based engine with cfg, which may be nil.
func NewWazeroEngine(ctx context.Context, cfg *Config) (*WazeroEngine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()

	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.CompilationCache != nil {
			runtimeCfg = runtimeCfg.WithCompilationCache(cfg.CompilationCache)
		}
	}

	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	return &WazeroEngine{runtime: runtime}, nil
}

// Runtime exposes the underlying wazero runtime.
func (e *WazeroEngine) Runtime() wazero.Runtime {
	return e.runtime
}

// Compile validates and compiles the engine binary.
func (e *WazeroEngine) Compile(ctx context.Context, wasmBytes []byte) (wazero.CompiledModule, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidData, err, "compile engine module")
	}
	return compiled, nil
}

func (e *WazeroEngine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// InitWASI instantiates the WASI singleton for this engine's runtime.
// Safe for concurrent calls.
func (e *WazeroEngine) InitWASI(ctx context.Context) error {
	if e.wasiInitDone.Load() {
		return nil
	}

	e.wasiInitMu.Lock()
	defer e.wasiInitMu.Unlock()

	if e.wasiInitDone.Load() {
		return nil
	}

	if e.runtime.Module(wasi_snapshot_preview1.ModuleName) != nil {
		e.wasiInitDone.Store(true)
		return nil
	}

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, e.runtime); err != nil {
		if e.runtime.Module(wasi_snapshot_preview1.ModuleName) == nil {
			return errors.Wrap(errors.PhaseLoad, errors.KindInstantiation, err, "instantiate WASI")
		}
	}

	e.wasiInitDone.Store(true)
	return nil
}

// HostFunc is an extra import supplied to the engine's "env" module.
type HostFunc struct {
	Fn      api.GoModuleFunc
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
}

// InstanceConfig holds configuration for engine instantiation
type InstanceConfig struct {
	// FS is mounted at "/" for model files. ModelDir is used when FS is nil.
	FS       fs.FS
	Stdout   io.Writer
	Stderr   io.Writer
	Name     string
	ModelDir string
	Args     []string
	EnvFuncs []HostFunc
}

// Instance is one running engine module with its bound entry points.
type Instance struct {
	module  api.Module
	env     api.Module
	exports *Exports
}

// Instantiate links the Emscripten "env" imports and WASI, runs the module's
// initializer and binds the entry points.
func (e *WazeroEngine) Instantiate(ctx context.Context, compiled wazero.CompiledModule, cfg *InstanceConfig) (*Instance, error) {
	if cfg == nil {
		cfg = &InstanceConfig{}
	}
	if err := e.InitWASI(ctx); err != nil {
		return nil, err
	}

	env, err := e.instantiateEnv(ctx, compiled, cfg.EnvFuncs)
	if err != nil {
		return nil, err
	}

	modCfg := wazero.NewModuleConfig().
		WithName(cfg.Name).
		WithStartFunctions("_initialize").
		WithArgs(append([]string{"sherpa-onnx"}, cfg.Args...)...)

	fsCfg := wazero.NewFSConfig()
	switch {
	case cfg.FS != nil:
		fsCfg = fsCfg.WithFSMount(cfg.FS, "/")
	case cfg.ModelDir != "":
		fsCfg = fsCfg.WithDirMount(cfg.ModelDir, "/")
	}
	modCfg = modCfg.WithFSConfig(fsCfg)
	if cfg.Stdout != nil {
		modCfg = modCfg.WithStdout(cfg.Stdout)
	}
	if cfg.Stderr != nil {
		modCfg = modCfg.WithStderr(cfg.Stderr)
	}

	mod, err := e.runtime.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		if env != nil {
			_ = env.Close(ctx)
		}
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindInstantiation, err, "instantiate engine module")
	}

	exports, err := BindModule(mod)
	if err != nil {
		_ = mod.Close(ctx)
		if env != nil {
			_ = env.Close(ctx)
		}
		return nil, err
	}

	Logger().Info("engine instantiated",
		zap.String("name", cfg.Name),
		zap.Bool("offline", exports.HasOffline()))

	return &Instance{module: mod, env: env, exports: exports}, nil
}

// instantiateEnv builds "env" from the Emscripten invoke_* trampolines the
// module imports plus any extra host functions. Modules without env imports
// get nothing.
func (e *WazeroEngine) instantiateEnv(ctx context.Context, compiled wazero.CompiledModule, extra []HostFunc) (api.Module, error) {
	needsEnv := false
	for _, def := range compiled.ImportedFunctions() {
		if mod, _, _ := def.Import(); mod == "env" {
			needsEnv = true
			break
		}
	}
	if !needsEnv {
		return nil, nil
	}
	if existing := e.runtime.Module("env"); existing != nil {
		return nil, nil
	}

	exporter, err := emscripten.NewFunctionExporterForModule(compiled)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindInstantiation, err, "emscripten imports")
	}

	builder := e.runtime.NewHostModuleBuilder("env")
	exporter.ExportFunctions(builder)
	for _, hf := range extra {
		builder = builder.NewFunctionBuilder().
			WithGoModuleFunction(hf.Fn, hf.Params, hf.Results).
			Export(hf.Name)
	}

	env, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindInstantiation, err, "instantiate env")
	}
	return env, nil
}

// Native returns the bound entry points.
func (i *Instance) Native() *Exports {
	return i.exports
}

// Module exposes the underlying wazero module.
func (i *Instance) Module() api.Module {
	return i.module
}

func (i *Instance) Close(ctx context.Context) error {
	var firstErr error
	if i.module != nil {
		if err := i.module.Close(ctx); err != nil {
			firstErr = err
		}
		i.module = nil
	}
	if i.env != nil {
		if err := i.env.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		i.env = nil
	}
	i.exports = nil
	return firstErr
}
