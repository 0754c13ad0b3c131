package transcribe

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/sherpa-wasm/asr"
	"github.com/wippyai/sherpa-wasm/audio"
	"github.com/wippyai/sherpa-wasm/errors"
)

// Transcript is the outcome of recognizing one recording.
type Transcript struct {
	Text       string
	Tokens     []string
	Timestamps []float64
	// Mode is "online" or "offline".
	Mode string
}

// Transcriber recognizes complete recordings.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32, sampleRate int) (Transcript, error)
}

// FileRecognizer recognizes complete recordings with an online recognizer
// and, when one is set, an offline recognizer.
type FileRecognizer struct {
	online  *asr.OnlineRecognizer
	offline *asr.OfflineRecognizer
	// ChunkSize is the number of samples per AcceptWaveform call.
	ChunkSize int
	mu        sync.Mutex
}

var _ Transcriber = (*FileRecognizer)(nil)

func NewFileRecognizer(online *asr.OnlineRecognizer) *FileRecognizer {
	return &FileRecognizer{online: online, ChunkSize: audio.DefaultChunkSize}
}

// WithOffline sets the recognizer used by RecognizeOffline and by
// Transcribe.
func (f *FileRecognizer) WithOffline(off *asr.OfflineRecognizer) *FileRecognizer {
	f.offline = off
	return f
}

// Recognize runs samples through a fresh online stream and returns the
// final result. The stream is freed on every path.
func (f *FileRecognizer) Recognize(ctx context.Context, samples []float32, sampleRate int) (res asr.Result, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.online == nil {
		return asr.Result{}, errors.NotInitialized("online recognizer")
	}
	st, err := f.online.CreateStream(ctx)
	if err != nil {
		return asr.Result{}, err
	}
	defer func() {
		if ferr := st.Free(ctx); ferr != nil && err == nil {
			err = ferr
		}
	}()

	for _, chunk := range audio.Chunks(samples, f.ChunkSize) {
		if err := st.AcceptWaveform(ctx, int32(sampleRate), chunk); err != nil {
			return asr.Result{}, err
		}
		if _, err := st.Drain(ctx); err != nil {
			return asr.Result{}, err
		}
	}
	if err := st.FinishWithPadding(ctx); err != nil {
		return asr.Result{}, err
	}
	return st.Result(ctx)
}

// RecognizeOffline decodes samples in one pass with the offline recognizer.
func (f *FileRecognizer) RecognizeOffline(ctx context.Context, samples []float32, sampleRate int) (res asr.Result, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.offline == nil {
		return asr.Result{}, errors.NotInitialized("offline recognizer")
	}
	st, err := f.offline.CreateStream(ctx)
	if err != nil {
		return asr.Result{}, err
	}
	defer func() {
		if ferr := st.Free(ctx); ferr != nil && err == nil {
			err = ferr
		}
	}()

	if err := st.AcceptWaveform(ctx, int32(sampleRate), samples); err != nil {
		return asr.Result{}, err
	}
	if err := st.Decode(ctx); err != nil {
		return asr.Result{}, err
	}
	return st.Result(ctx)
}

// Transcribe prefers the offline recognizer when one is set.
func (f *FileRecognizer) Transcribe(ctx context.Context, samples []float32, sampleRate int) (Transcript, error) {
	mode := "online"
	recognize := f.Recognize
	if f.offline != nil {
		mode = "offline"
		recognize = f.RecognizeOffline
	}

	res, err := recognize(ctx, samples, sampleRate)
	if err != nil {
		return Transcript{}, err
	}
	Logger().Debug("recording transcribed",
		zap.String("mode", mode),
		zap.Int("samples", len(samples)),
		zap.Int("chars", len(res.Text)))
	return Transcript{
		Text:       res.Text,
		Tokens:     res.Tokens(),
		Timestamps: res.Timestamps(),
		Mode:       mode,
	}, nil
}
