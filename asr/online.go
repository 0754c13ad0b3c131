package asr

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/sherpa-wasm/engine"
	"github.com/wippyai/sherpa-wasm/errors"
	"github.com/wippyai/sherpa-wasm/marshal"
	"github.com/wippyai/sherpa-wasm/resource"
)

// OnlineRecognizer is a streaming recognizer. It is not safe for concurrent use.
type OnlineRecognizer struct {
	native engine.Native
	table  *resource.UnifiedTable
	cfg    OnlineRecognizerConfig
	handle engine.Handle
	id     resource.Handle
}

// NewOnlineRecognizer encodes cfg, creates the engine recognizer and releases
// the encoded config before returning.
func NewOnlineRecognizer(ctx context.Context, native engine.Native, cfg OnlineRecognizerConfig, opts ...Option) (*OnlineRecognizer, error) {
	o := buildOptions(opts)

	var handle engine.Handle
	err := marshal.WithEncoded(native.Heap(), cfg.Record(), func(ptr uint32) error {
		h, err := native.CreateOnlineRecognizer(ctx, ptr)
		handle = h
		return err
	})
	if err != nil {
		return nil, err
	}
	if handle == 0 {
		return nil, errors.NullHandle(engine.FnCreateOnlineRecognizer)
	}

	r := &OnlineRecognizer{native: native, table: o.table, cfg: cfg, handle: handle}
	id, err := o.table.Insert(resource.KindOnlineRecognizer, 0, r)
	if err != nil {
		_ = native.DestroyOnlineRecognizer(ctx, handle)
		return nil, errors.Wrap(errors.PhaseLifecycle, errors.KindInvalidHandle, err, "register recognizer")
	}
	r.id = id

	Logger().Debug("online recognizer created",
		zap.Uint32("handle", uint32(handle)),
		zap.String("family", familyName(cfg.Model.Family)))
	return r, nil
}

func familyName(f interface{ Family() string }) string {
	if f == nil {
		return ""
	}
	return f.Family()
}

// Config returns the configuration the recognizer was created with.
func (r *OnlineRecognizer) Config() OnlineRecognizerConfig { return r.cfg }

// Handle returns the engine handle, 0 after Free.
func (r *OnlineRecognizer) Handle() engine.Handle { return r.handle }

func (r *OnlineRecognizer) live() error {
	if r == nil || r.handle == 0 {
		return errors.InvalidHandle("online recognizer")
	}
	return nil
}

// CreateStream creates a stream owned by this recognizer.
func (r *OnlineRecognizer) CreateStream(ctx context.Context) (*OnlineStream, error) {
	if err := r.live(); err != nil {
		return nil, err
	}
	h, err := r.native.CreateOnlineStream(ctx, r.handle)
	if err != nil {
		return nil, err
	}
	if h == 0 {
		return nil, errors.NullHandle(engine.FnCreateOnlineStream)
	}

	s := &OnlineStream{rec: r, handle: h, buf: NewSampleBuffer(r.native.Heap())}
	id, err := r.table.Insert(resource.KindOnlineStream, r.id, s)
	if err != nil {
		_ = r.native.DestroyOnlineStream(ctx, h)
		return nil, errors.Wrap(errors.PhaseLifecycle, errors.KindInvalidHandle, err, "register stream")
	}
	s.id = id
	return s, nil
}

// Free destroys every stream created from r, then r itself. Later use of r
// or its streams fails with an invalid-handle error.
func (r *OnlineRecognizer) Free(ctx context.Context) error {
	if err := r.live(); err != nil {
		return err
	}

	var firstErr error
	for _, child := range r.table.Children(r.id) {
		v, ok := r.table.Get(child)
		if !ok {
			continue
		}
		if s, ok := v.(*OnlineStream); ok {
			if err := s.Free(ctx); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}

	if err := r.release(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	r.table.Remove(r.id)
	return firstErr
}

func (r *OnlineRecognizer) release(ctx context.Context) error {
	h := r.handle
	r.handle = 0
	return r.native.DestroyOnlineRecognizer(ctx, h)
}

// Drop implements resource.Dropper for table teardown.
func (r *OnlineRecognizer) Drop() {
	if r.handle == 0 {
		return
	}
	if err := r.release(context.Background()); err != nil {
		Logger().Warn("destroy online recognizer on drop", zap.Error(err))
	}
}

// OnlineStream is one streaming decode session.
type OnlineStream struct {
	rec    *OnlineRecognizer
	buf    *SampleBuffer
	handle engine.Handle
	id     resource.Handle
	padded bool
}

// Handle returns the engine handle, 0 after Free.
func (s *OnlineStream) Handle() engine.Handle { return s.handle }

func (s *OnlineStream) live() error {
	if s == nil || s.handle == 0 || s.rec.handle == 0 {
		return errors.InvalidHandle("online stream")
	}
	return nil
}

// AcceptWaveform copies mono samples in [-1, 1] into the stream's reusable
// engine buffer and feeds them to the engine. Empty input is a no-op.
func (s *OnlineStream) AcceptWaveform(ctx context.Context, sampleRate int32, samples []float32) error {
	if err := s.live(); err != nil {
		return err
	}
	if len(samples) == 0 {
		return nil
	}
	ptr, err := s.buf.Write(samples)
	if err != nil {
		return err
	}
	return s.rec.native.OnlineStreamAcceptWaveform(ctx, s.handle, sampleRate, ptr, uint32(len(samples)))
}

func (s *OnlineStream) IsReady(ctx context.Context) (bool, error) {
	if err := s.live(); err != nil {
		return false, err
	}
	return s.rec.native.IsOnlineStreamReady(ctx, s.rec.handle, s.handle)
}

func (s *OnlineStream) Decode(ctx context.Context) error {
	if err := s.live(); err != nil {
		return err
	}
	return s.rec.native.DecodeOnlineStream(ctx, s.rec.handle, s.handle)
}

// Drain decodes while the stream reports ready and returns the number of
// decode passes.
func (s *OnlineStream) Drain(ctx context.Context) (int, error) {
	n := 0
	for {
		ready, err := s.IsReady(ctx)
		if err != nil || !ready {
			return n, err
		}
		if err := s.Decode(ctx); err != nil {
			return n, err
		}
		n++
	}
}

func (s *OnlineStream) IsEndpoint(ctx context.Context) (bool, error) {
	if err := s.live(); err != nil {
		return false, err
	}
	return s.rec.native.OnlineStreamIsEndpoint(ctx, s.rec.handle, s.handle)
}

// Reset starts a new utterance on the same stream.
func (s *OnlineStream) Reset(ctx context.Context) error {
	if err := s.live(); err != nil {
		return err
	}
	if err := s.rec.native.OnlineStreamReset(ctx, s.rec.handle, s.handle); err != nil {
		return err
	}
	s.padded = false
	return nil
}

func (s *OnlineStream) InputFinished(ctx context.Context) error {
	if err := s.live(); err != nil {
		return err
	}
	return s.rec.native.OnlineStreamInputFinished(ctx, s.handle)
}

// FinishWithPadding ends the input. Families that need trailing silence get
// one second of zeros at the feature sample rate, once per utterance. The
// stream is drained afterwards.
func (s *OnlineStream) FinishWithPadding(ctx context.Context) error {
	if err := s.live(); err != nil {
		return err
	}
	if s.rec.cfg.NeedsTailPadding() && !s.padded {
		sr := s.rec.cfg.SampleRate()
		if err := s.AcceptWaveform(ctx, sr, make([]float32, sr)); err != nil {
			return err
		}
		s.padded = true
	}
	if err := s.InputFinished(ctx); err != nil {
		return err
	}
	_, err := s.Drain(ctx)
	return err
}

// Result fetches and decodes the current result.
func (s *OnlineStream) Result(ctx context.Context) (Result, error) {
	if err := s.live(); err != nil {
		return Result{}, err
	}
	ptr, err := s.rec.native.GetOnlineStreamResultAsJSON(ctx, s.rec.handle, s.handle)
	if err != nil {
		return Result{}, err
	}
	return DecodeResult(ctx, s.rec.native.Heap(), ptr, engine.FnGetOnlineStreamResultAsJSON, s.rec.native.DestroyOnlineStreamResultJSON)
}

// Free destroys the stream and its sample buffer.
func (s *OnlineStream) Free(ctx context.Context) error {
	if s == nil || s.handle == 0 {
		return errors.InvalidHandle("online stream")
	}
	err := s.release(ctx)
	s.rec.table.Remove(s.id)
	return err
}

func (s *OnlineStream) release(ctx context.Context) error {
	h := s.handle
	s.handle = 0
	var firstErr error
	if err := s.buf.Free(); err != nil {
		firstErr = err
	}
	if err := s.rec.native.DestroyOnlineStream(ctx, h); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Drop implements resource.Dropper for table teardown.
func (s *OnlineStream) Drop() {
	if s.handle == 0 {
		return
	}
	if err := s.release(context.Background()); err != nil {
		Logger().Warn("destroy online stream on drop", zap.Error(err))
	}
}
