package transcribe

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/sherpa-wasm/asr"
)

// Update is the state after one Push.
type Update struct {
	Partial string
	Finals  []string
	// Endpoint is set when this Push committed an utterance.
	Endpoint bool
}

// Streaming is a live transcription session over one online stream. It is
// safe for concurrent use; calls are serialized.
type Streaming struct {
	rec     *asr.OnlineRecognizer
	stream  *asr.OnlineStream
	partial string
	finals  []string
	ID      uuid.UUID
	mu      sync.Mutex
}

func NewStreaming(rec *asr.OnlineRecognizer) *Streaming {
	return &Streaming{rec: rec, ID: uuid.New()}
}

func (s *Streaming) ensureStream(ctx context.Context) (*asr.OnlineStream, error) {
	if s.stream != nil {
		return s.stream, nil
	}
	st, err := s.rec.CreateStream(ctx)
	if err != nil {
		return nil, err
	}
	s.stream = st
	Logger().Debug("streaming session opened", zap.Stringer("session", s.ID))
	return st, nil
}

// Push feeds samples and returns the current partial text and finals.
func (s *Streaming) Push(ctx context.Context, samples []float32, sampleRate int) (Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.ensureStream(ctx)
	if err != nil {
		return Update{}, err
	}
	if err := st.AcceptWaveform(ctx, int32(sampleRate), samples); err != nil {
		return Update{}, err
	}
	if _, err := st.Drain(ctx); err != nil {
		return Update{}, err
	}

	endpoint, err := st.IsEndpoint(ctx)
	if err != nil {
		return Update{}, err
	}
	if endpoint && s.rec.Config().NeedsTailPadding() {
		sr := s.rec.Config().SampleRate()
		if err := st.AcceptWaveform(ctx, sr, make([]float32, sr)); err != nil {
			return Update{}, err
		}
		if _, err := st.Drain(ctx); err != nil {
			return Update{}, err
		}
	}

	res, err := st.Result(ctx)
	if err != nil {
		return Update{}, err
	}
	if res.Text != "" {
		s.partial = res.Text
	}

	if endpoint {
		s.commit()
		if err := st.Reset(ctx); err != nil {
			return Update{}, err
		}
	}
	return s.update(endpoint), nil
}

// Flush ends the current utterance, decodes the remaining input and moves
// any text to the finals. The session stays usable.
func (s *Streaming) Flush(ctx context.Context) (Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil {
		return s.update(false), nil
	}
	st := s.stream
	if err := st.FinishWithPadding(ctx); err != nil {
		return Update{}, err
	}
	res, err := st.Result(ctx)
	if err != nil {
		return Update{}, err
	}
	if res.Text != "" {
		s.partial = res.Text
	}
	s.commit()
	if err := st.Reset(ctx); err != nil {
		return Update{}, err
	}
	return s.update(true), nil
}

func (s *Streaming) commit() {
	if s.partial == "" {
		return
	}
	s.finals = append(s.finals, s.partial)
	Logger().Debug("utterance committed",
		zap.Stringer("session", s.ID),
		zap.Int("index", len(s.finals)-1))
	s.partial = ""
}

func (s *Streaming) update(endpoint bool) Update {
	return Update{
		Partial:  s.partial,
		Finals:   append([]string(nil), s.finals...),
		Endpoint: endpoint,
	}
}

// Reset starts a new utterance and drops all text.
func (s *Streaming) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partial = ""
	s.finals = nil
	if s.stream == nil {
		return nil
	}
	return s.stream.Reset(ctx)
}

// Clear drops the committed finals and keeps the partial text.
func (s *Streaming) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finals = nil
}

// Display renders the finals and the partial text as numbered lines.
// Empty finals are skipped without using a number.
func (s *Streaming) Display() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return FormatLines(s.finals, s.partial)
}

// FormatLines renders "i: text" lines for the non-empty finals followed by
// the partial text when present.
func FormatLines(finals []string, partial string) string {
	var b strings.Builder
	i := 0
	for _, f := range finals {
		if f == "" {
			continue
		}
		fmt.Fprintf(&b, "%d: %s\n", i, f)
		i++
	}
	if partial != "" {
		fmt.Fprintf(&b, "%d: %s\n", i, partial)
	}
	return b.String()
}

// Close frees the stream. The recognizer is left to its owner.
func (s *Streaming) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return nil
	}
	err := s.stream.Free(ctx)
	s.stream = nil
	Logger().Debug("streaming session closed", zap.Stringer("session", s.ID))
	return err
}
