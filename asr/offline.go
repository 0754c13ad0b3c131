package asr

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/sherpa-wasm/engine"
	"github.com/wippyai/sherpa-wasm/errors"
	"github.com/wippyai/sherpa-wasm/marshal"
	"github.com/wippyai/sherpa-wasm/resource"
)

// OfflineRecognizer decodes whole utterances. It is not safe for concurrent use.
type OfflineRecognizer struct {
	native engine.Native
	table  *resource.UnifiedTable
	cfg    OfflineRecognizerConfig
	handle engine.Handle
	id     resource.Handle
}

// NewOfflineRecognizer creates a batch recognizer. Engines built without the
// batch entry points fail with a missing-export error.
func NewOfflineRecognizer(ctx context.Context, native engine.Native, cfg OfflineRecognizerConfig, opts ...Option) (*OfflineRecognizer, error) {
	if !native.HasOffline() {
		return nil, errors.MissingExport(engine.OfflineExports...)
	}
	o := buildOptions(opts)

	var handle engine.Handle
	err := marshal.WithEncoded(native.Heap(), cfg.Record(), func(ptr uint32) error {
		h, err := native.CreateOfflineRecognizer(ctx, ptr)
		handle = h
		return err
	})
	if err != nil {
		return nil, err
	}
	if handle == 0 {
		return nil, errors.NullHandle(engine.FnCreateOfflineRecognizer)
	}

	r := &OfflineRecognizer{native: native, table: o.table, cfg: cfg, handle: handle}
	id, err := o.table.Insert(resource.KindOfflineRecognizer, 0, r)
	if err != nil {
		_ = native.DestroyOfflineRecognizer(ctx, handle)
		return nil, errors.Wrap(errors.PhaseLifecycle, errors.KindInvalidHandle, err, "register recognizer")
	}
	r.id = id

	Logger().Debug("offline recognizer created",
		zap.Uint32("handle", uint32(handle)),
		zap.String("family", familyName(cfg.Model.Family)))
	return r, nil
}

func (r *OfflineRecognizer) Config() OfflineRecognizerConfig { return r.cfg }

func (r *OfflineRecognizer) Handle() engine.Handle { return r.handle }

func (r *OfflineRecognizer) live() error {
	if r == nil || r.handle == 0 {
		return errors.InvalidHandle("offline recognizer")
	}
	return nil
}

// SetConfig replaces the recognizer's decoding configuration in place.
func (r *OfflineRecognizer) SetConfig(ctx context.Context, cfg OfflineRecognizerConfig) error {
	if err := r.live(); err != nil {
		return err
	}
	err := marshal.WithEncoded(r.native.Heap(), cfg.Record(), func(ptr uint32) error {
		return r.native.OfflineRecognizerSetConfig(ctx, r.handle, ptr)
	})
	if err != nil {
		return err
	}
	r.cfg = cfg
	return nil
}

func (r *OfflineRecognizer) CreateStream(ctx context.Context) (*OfflineStream, error) {
	if err := r.live(); err != nil {
		return nil, err
	}
	h, err := r.native.CreateOfflineStream(ctx, r.handle)
	if err != nil {
		return nil, err
	}
	if h == 0 {
		return nil, errors.NullHandle(engine.FnCreateOfflineStream)
	}

	s := &OfflineStream{rec: r, handle: h}
	id, err := r.table.Insert(resource.KindOfflineStream, r.id, s)
	if err != nil {
		_ = r.native.DestroyOfflineStream(ctx, h)
		return nil, errors.Wrap(errors.PhaseLifecycle, errors.KindInvalidHandle, err, "register stream")
	}
	s.id = id
	return s, nil
}

// Free destroys every stream created from r, then r itself.
func (r *OfflineRecognizer) Free(ctx context.Context) error {
	if err := r.live(); err != nil {
		return err
	}

	var firstErr error
	for _, child := range r.table.Children(r.id) {
		v, ok := r.table.Get(child)
		if !ok {
			continue
		}
		if s, ok := v.(*OfflineStream); ok {
			if err := s.Free(ctx); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}

	h := r.handle
	r.handle = 0
	if err := r.native.DestroyOfflineRecognizer(ctx, h); err != nil && firstErr == nil {
		firstErr = err
	}
	r.table.Remove(r.id)
	return firstErr
}

// Drop implements resource.Dropper.
func (r *OfflineRecognizer) Drop() {
	if r.handle == 0 {
		return
	}
	h := r.handle
	r.handle = 0
	if err := r.native.DestroyOfflineRecognizer(context.Background(), h); err != nil {
		Logger().Warn("destroy offline recognizer on drop", zap.Error(err))
	}
}

// OfflineStream holds one utterance for batch decoding.
type OfflineStream struct {
	rec    *OfflineRecognizer
	handle engine.Handle
	id     resource.Handle
}

func (s *OfflineStream) Handle() engine.Handle { return s.handle }

func (s *OfflineStream) live() error {
	if s == nil || s.handle == 0 || s.rec.handle == 0 {
		return errors.InvalidHandle("offline stream")
	}
	return nil
}

// AcceptWaveform copies samples into a temporary engine buffer, feeds them
// and frees the buffer whether or not the call succeeded.
func (s *OfflineStream) AcceptWaveform(ctx context.Context, sampleRate int32, samples []float32) error {
	if err := s.live(); err != nil {
		return err
	}
	if len(samples) == 0 {
		return nil
	}
	heap := s.rec.native.Heap()
	ptr, err := writeOnce(heap, samples)
	if err != nil {
		return err
	}
	err = s.rec.native.AcceptWaveformOffline(ctx, s.handle, sampleRate, ptr, uint32(len(samples)))
	if ferr := heap.Free(ptr); ferr != nil && err == nil {
		err = errors.Wrap(errors.PhaseRelease, errors.KindCall, ferr, "sample buffer")
	}
	return err
}

func (s *OfflineStream) Decode(ctx context.Context) error {
	if err := s.live(); err != nil {
		return err
	}
	return s.rec.native.DecodeOfflineStream(ctx, s.rec.handle, s.handle)
}

func (s *OfflineStream) Result(ctx context.Context) (Result, error) {
	if err := s.live(); err != nil {
		return Result{}, err
	}
	ptr, err := s.rec.native.GetOfflineStreamResultAsJSON(ctx, s.handle)
	if err != nil {
		return Result{}, err
	}
	return DecodeResult(ctx, s.rec.native.Heap(), ptr, engine.FnGetOfflineStreamResultAsJSON, s.rec.native.DestroyOfflineStreamResultJSON)
}

func (s *OfflineStream) Free(ctx context.Context) error {
	if s == nil || s.handle == 0 {
		return errors.InvalidHandle("offline stream")
	}
	h := s.handle
	s.handle = 0
	err := s.rec.native.DestroyOfflineStream(ctx, h)
	s.rec.table.Remove(s.id)
	return err
}

// Drop implements resource.Dropper.
func (s *OfflineStream) Drop() {
	if s.handle == 0 {
		return
	}
	h := s.handle
	s.handle = 0
	if err := s.rec.native.DestroyOfflineStream(context.Background(), h); err != nil {
		Logger().Warn("destroy offline stream on drop", zap.Error(err))
	}
}
