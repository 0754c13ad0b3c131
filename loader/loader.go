package loader

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"sync"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/sherpa-wasm/engine"
	"github.com/wippyai/sherpa-wasm/errors"
)

// Options configures engine loading.
type Options struct {
	// ModelFS is mounted at "/" in the guest. ModelDir is used when it is nil.
	ModelFS fs.FS
	Stdout  io.Writer
	Stderr  io.Writer
	// Client fetches WasmURL. Wrap its transport with assetcache to cache
	// the binary.
	Client *http.Client
	// OnStatus receives progress messages; see the Status constants.
	OnStatus func(status string)
	// WasmPath is a local engine binary. It wins over WasmURL.
	WasmPath string
	WasmURL  string
	ModelDir string
	// CompilationCacheDir persists compiled machine code between runs.
	CompilationCacheDir string
	MemoryLimitPages    uint32
}

func (o *Options) status(s string) {
	if o.OnStatus != nil {
		o.OnStatus(s)
	}
}

// Engine is a loaded, bound engine instance.
type Engine struct {
	runtime  *engine.WazeroEngine
	instance *engine.Instance
}

// Native returns the engine entry points.
func (e *Engine) Native() engine.Native {
	return e.instance.Native()
}

// HasOffline reports whether batch recognition is available.
func (e *Engine) HasOffline() bool {
	return e.instance.Native().HasOffline()
}

func (e *Engine) Close(ctx context.Context) error {
	var firstErr error
	if e.instance != nil {
		firstErr = e.instance.Close(ctx)
	}
	if e.runtime != nil {
		if err := e.runtime.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type call struct {
	done chan struct{}
	eng  *Engine
	err  error
}

// Loader memoizes one engine load.
type Loader struct {
	cur  *call
	load func(ctx context.Context, opts Options) (*Engine, error)
	mu   sync.Mutex
}

// New returns a Loader that loads with wazero.
func New() *Loader {
	return &Loader{load: load}
}

// Load returns the memoized engine, starting the load if none has been
// attempted. Options of callers that join an in-flight or finished load are
// ignored. The load itself is detached from ctx cancellation; every caller,
// the starting one included, returns early when its own ctx ends.
func (l *Loader) Load(ctx context.Context, opts Options) (*Engine, error) {
	l.mu.Lock()
	c := l.cur
	if c == nil {
		c = &call{done: make(chan struct{})}
		l.cur = c
		go l.run(context.WithoutCancel(ctx), c, opts)
	}
	l.mu.Unlock()

	select {
	case <-c.done:
		return c.eng, c.err
	default:
	}
	select {
	case <-c.done:
		return c.eng, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Loader) run(ctx context.Context, c *call, opts Options) {
	defer close(c.done)
	defer func() {
		if r := recover(); r != nil {
			c.eng = nil
			c.err = errors.Wrap(errors.PhaseLoad, errors.KindInstantiation, fmt.Errorf("%v", r), "engine load panicked")
		}
	}()
	c.eng, c.err = l.load(ctx, opts)
}

// Loaded returns the engine if a load has completed successfully.
func (l *Loader) Loaded() (*Engine, bool) {
	l.mu.Lock()
	c := l.cur
	l.mu.Unlock()
	if c == nil {
		return nil, false
	}
	select {
	case <-c.done:
		return c.eng, c.err == nil
	default:
		return nil, false
	}
}

// Reset waits for any in-flight load, closes a loaded engine and forgets
// the result.
func (l *Loader) Reset(ctx context.Context) error {
	l.mu.Lock()
	c := l.cur
	l.cur = nil
	l.mu.Unlock()
	if c == nil {
		return nil
	}
	<-c.done
	if c.eng != nil {
		return c.eng.Close(ctx)
	}
	return nil
}

var defaultLoader = New()

// Load loads the process-wide engine.
func Load(ctx context.Context, opts Options) (*Engine, error) {
	return defaultLoader.Load(ctx, opts)
}

// Reset resets the process-wide engine.
func Reset(ctx context.Context) error {
	return defaultLoader.Reset(ctx)
}

func load(ctx context.Context, opts Options) (*Engine, error) {
	opts.status(StatusFetching)
	wasm, err := fetch(ctx, &opts)
	if err != nil {
		return nil, err
	}

	cfg := &engine.Config{MemoryLimitPages: opts.MemoryLimitPages}
	if opts.CompilationCacheDir != "" {
		cache, err := wazero.NewCompilationCacheWithDir(opts.CompilationCacheDir)
		if err != nil {
			Logger().Warn("compilation cache disabled", zap.String("dir", opts.CompilationCacheDir), zap.Error(err))
		} else {
			cfg.CompilationCache = cache
		}
	}

	rt, err := engine.NewWazeroEngine(ctx, cfg)
	if err != nil {
		return nil, err
	}
	compiled, err := rt.Compile(ctx, wasm)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}

	opts.status(StatusInitializing)
	inst, err := rt.Instantiate(ctx, compiled, &engine.InstanceConfig{
		Name:     "sherpa-onnx",
		FS:       opts.ModelFS,
		ModelDir: opts.ModelDir,
		Stdout:   opts.Stdout,
		Stderr:   opts.Stderr,
	})
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	opts.status(StatusDone)

	Logger().Info("engine loaded",
		zap.Int("bytes", len(wasm)),
		zap.Bool("offline", inst.Native().HasOffline()))
	return &Engine{runtime: rt, instance: inst}, nil
}

func fetch(ctx context.Context, opts *Options) ([]byte, error) {
	if opts.WasmPath != "" {
		data, err := os.ReadFile(opts.WasmPath)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseLoad, errors.KindIO, err, "read engine binary")
		}
		return data, nil
	}
	if opts.WasmURL == "" {
		return nil, errors.InvalidInput(errors.PhaseLoad, []string{"wasm"}, "no engine path or URL")
	}

	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.WasmURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "engine URL")
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindIO, err, "fetch engine binary")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.PhaseLoad, errors.KindIO).
			Value(resp.StatusCode).
			Detail("fetch %s: %s", opts.WasmURL, resp.Status).
			Build()
	}

	var body io.Reader = resp.Body
	if opts.OnStatus != nil {
		body = &progressReader{r: resp.Body, fn: opts.OnStatus, total: resp.ContentLength}
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindIO, err, "read engine binary")
	}
	return data, nil
}
