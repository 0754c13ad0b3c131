// Package enginetest provides a scripted engine.Native over a heaptest.Heap.
// It decodes nothing; each accepted chunk makes one decode step ready and the
// result text is taken from Script.
package enginetest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	sherpawasm "github.com/wippyai/sherpa-wasm"
	"github.com/wippyai/sherpa-wasm/engine"
	"github.com/wippyai/sherpa-wasm/internal/heaptest"
)

type stream struct {
	rec        engine.Handle
	offline    bool
	sampleRate int32
	samples    []float32
	pending    int
	decoded    int
	finished   bool
}

// Native is a fake engine. Zero values of the exported fields give a working
// online-only engine with an empty transcript.
type Native struct {
	Mem *heaptest.Heap

	// Offline enables the batch surface.
	Offline bool
	// Script returns the transcript for a stream holding n samples.
	Script func(n int) string
	// EndpointAfter makes IsEndpoint true once that many decode steps ran.
	EndpointAfter int
	// Fail injects an error for the named entry point.
	Fail map[string]error
	// NullCreate makes create entry points return a 0 handle.
	NullCreate bool
	// OnCreate observes the config pointer while it is still live.
	OnCreate func(entry string, cfg uint32)

	streams   map[engine.Handle]*stream
	recs      map[engine.Handle]bool
	Destroyed []engine.Handle
	Calls     map[string]int
	next      engine.Handle
	mu        sync.Mutex
}

var _ engine.Native = (*Native)(nil)

// New returns a fake with a 1 MiB heap.
func New() *Native {
	return &Native{
		Mem:     heaptest.New(1 << 20),
		streams: make(map[engine.Handle]*stream),
		recs:    make(map[engine.Handle]bool),
		Calls:   make(map[string]int),
		next:    100,
	}
}

func (n *Native) Heap() sherpawasm.Heap { return n.Mem }

func (n *Native) HasOffline() bool { return n.Offline }

// Samples returns the samples accepted so far by stream h.
func (n *Native) Samples(h engine.Handle) []float32 {
	n.mu.Lock()
	defer n.mu.Unlock()
	if s, ok := n.streams[h]; ok {
		return append([]float32(nil), s.samples...)
	}
	return nil
}

// Finished reports whether InputFinished was called on stream h.
func (n *Native) Finished(h engine.Handle) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	s, ok := n.streams[h]
	return ok && s.finished
}

// Live returns the number of undestroyed recognizers and streams.
func (n *Native) Live() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.streams) + len(n.recs)
}

func (n *Native) enter(ctx context.Context, name string) error {
	n.Calls[name]++
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := n.Fail[name]; err != nil {
		return err
	}
	return nil
}

func (n *Native) newHandle() engine.Handle {
	n.next += 8
	return n.next
}

func (n *Native) createRec(ctx context.Context, entry string, cfg uint32) (engine.Handle, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.enter(ctx, entry); err != nil {
		return 0, err
	}
	if n.OnCreate != nil {
		n.OnCreate(entry, cfg)
	}
	if _, ok := n.Mem.SizeOf(cfg); !ok {
		return 0, fmt.Errorf("%s: config %d is not a live allocation", entry, cfg)
	}
	if n.NullCreate {
		return 0, nil
	}
	h := n.newHandle()
	n.recs[h] = true
	return h, nil
}

func (n *Native) destroyRec(ctx context.Context, entry string, h engine.Handle) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.enter(ctx, entry); err != nil {
		return err
	}
	if !n.recs[h] {
		return fmt.Errorf("%s: unknown recognizer %d", entry, h)
	}
	delete(n.recs, h)
	n.Destroyed = append(n.Destroyed, h)
	return nil
}

func (n *Native) createStream(ctx context.Context, entry string, rec engine.Handle, offline bool) (engine.Handle, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.enter(ctx, entry); err != nil {
		return 0, err
	}
	if !n.recs[rec] {
		return 0, fmt.Errorf("%s: unknown recognizer %d", entry, rec)
	}
	if n.NullCreate {
		return 0, nil
	}
	h := n.newHandle()
	n.streams[h] = &stream{rec: rec, offline: offline}
	return h, nil
}

func (n *Native) destroyStream(ctx context.Context, entry string, h engine.Handle) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.enter(ctx, entry); err != nil {
		return err
	}
	if _, ok := n.streams[h]; !ok {
		return fmt.Errorf("%s: unknown stream %d", entry, h)
	}
	delete(n.streams, h)
	n.Destroyed = append(n.Destroyed, h)
	return nil
}

func (n *Native) stream(entry string, h engine.Handle) (*stream, error) {
	s, ok := n.streams[h]
	if !ok {
		return nil, fmt.Errorf("%s: unknown stream %d", entry, h)
	}
	return s, nil
}

func (n *Native) accept(ctx context.Context, entry string, h engine.Handle, sampleRate int32, ptr, count uint32) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.enter(ctx, entry); err != nil {
		return err
	}
	s, err := n.stream(entry, h)
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		v, err := n.Mem.ReadF32(ptr + i*4)
		if err != nil {
			return err
		}
		s.samples = append(s.samples, v)
	}
	s.sampleRate = sampleRate
	s.pending++
	return nil
}

func (n *Native) result(ctx context.Context, entry string, h engine.Handle) (uint32, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.enter(ctx, entry); err != nil {
		return 0, err
	}
	s, err := n.stream(entry, h)
	if err != nil {
		return 0, err
	}
	text := ""
	if n.Script != nil && len(s.samples) > 0 {
		text = n.Script(len(s.samples))
	}
	tokens := strings.Fields(text)
	stamps := make([]float64, len(tokens))
	for i := range stamps {
		stamps[i] = float64(i) * 0.32
	}
	raw, err := json.Marshal(map[string]any{
		"text":       text,
		"tokens":     tokens,
		"timestamps": stamps,
		"is_final":   s.finished,
	})
	if err != nil {
		return 0, err
	}
	return n.Mem.PutCString(string(raw)), nil
}

func (n *Native) destroyResult(ctx context.Context, entry string, ptr uint32) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.enter(ctx, entry); err != nil {
		return err
	}
	return n.Mem.Free(ptr)
}

func (n *Native) CreateOnlineRecognizer(ctx context.Context, cfg uint32) (engine.Handle, error) {
	return n.createRec(ctx, engine.FnCreateOnlineRecognizer, cfg)
}

func (n *Native) DestroyOnlineRecognizer(ctx context.Context, rec engine.Handle) error {
	return n.destroyRec(ctx, engine.FnDestroyOnlineRecognizer, rec)
}

func (n *Native) CreateOnlineStream(ctx context.Context, rec engine.Handle) (engine.Handle, error) {
	return n.createStream(ctx, engine.FnCreateOnlineStream, rec, false)
}

func (n *Native) DestroyOnlineStream(ctx context.Context, h engine.Handle) error {
	return n.destroyStream(ctx, engine.FnDestroyOnlineStream, h)
}

func (n *Native) OnlineStreamAcceptWaveform(ctx context.Context, h engine.Handle, sampleRate int32, ptr, count uint32) error {
	return n.accept(ctx, engine.FnOnlineStreamAcceptWaveform, h, sampleRate, ptr, count)
}

func (n *Native) IsOnlineStreamReady(ctx context.Context, _, h engine.Handle) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.enter(ctx, engine.FnIsOnlineStreamReady); err != nil {
		return false, err
	}
	s, err := n.stream(engine.FnIsOnlineStreamReady, h)
	if err != nil {
		return false, err
	}
	return s.pending > 0, nil
}

func (n *Native) DecodeOnlineStream(ctx context.Context, _, h engine.Handle) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.enter(ctx, engine.FnDecodeOnlineStream); err != nil {
		return err
	}
	s, err := n.stream(engine.FnDecodeOnlineStream, h)
	if err != nil {
		return err
	}
	if s.pending > 0 {
		s.pending--
	}
	s.decoded++
	return nil
}

func (n *Native) OnlineStreamIsEndpoint(ctx context.Context, _, h engine.Handle) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.enter(ctx, engine.FnOnlineStreamIsEndpoint); err != nil {
		return false, err
	}
	s, err := n.stream(engine.FnOnlineStreamIsEndpoint, h)
	if err != nil {
		return false, err
	}
	return n.EndpointAfter > 0 && s.decoded >= n.EndpointAfter, nil
}

func (n *Native) OnlineStreamReset(ctx context.Context, _, h engine.Handle) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.enter(ctx, engine.FnOnlineStreamReset); err != nil {
		return err
	}
	s, err := n.stream(engine.FnOnlineStreamReset, h)
	if err != nil {
		return err
	}
	s.samples, s.pending, s.decoded, s.finished = nil, 0, 0, false
	return nil
}

func (n *Native) OnlineStreamInputFinished(ctx context.Context, h engine.Handle) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.enter(ctx, engine.FnOnlineStreamInputFinished); err != nil {
		return err
	}
	s, err := n.stream(engine.FnOnlineStreamInputFinished, h)
	if err != nil {
		return err
	}
	s.finished = true
	return nil
}

func (n *Native) GetOnlineStreamResultAsJSON(ctx context.Context, _, h engine.Handle) (uint32, error) {
	return n.result(ctx, engine.FnGetOnlineStreamResultAsJSON, h)
}

func (n *Native) DestroyOnlineStreamResultJSON(ctx context.Context, ptr uint32) error {
	return n.destroyResult(ctx, engine.FnDestroyOnlineStreamResultJSON, ptr)
}

func (n *Native) CreateOfflineRecognizer(ctx context.Context, cfg uint32) (engine.Handle, error) {
	return n.createRec(ctx, engine.FnCreateOfflineRecognizer, cfg)
}

func (n *Native) DestroyOfflineRecognizer(ctx context.Context, rec engine.Handle) error {
	return n.destroyRec(ctx, engine.FnDestroyOfflineRecognizer, rec)
}

func (n *Native) CreateOfflineStream(ctx context.Context, rec engine.Handle) (engine.Handle, error) {
	return n.createStream(ctx, engine.FnCreateOfflineStream, rec, true)
}

func (n *Native) DestroyOfflineStream(ctx context.Context, h engine.Handle) error {
	return n.destroyStream(ctx, engine.FnDestroyOfflineStream, h)
}

func (n *Native) AcceptWaveformOffline(ctx context.Context, h engine.Handle, sampleRate int32, ptr, count uint32) error {
	return n.accept(ctx, engine.FnAcceptWaveformOffline, h, sampleRate, ptr, count)
}

func (n *Native) DecodeOfflineStream(ctx context.Context, _, h engine.Handle) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.enter(ctx, engine.FnDecodeOfflineStream); err != nil {
		return err
	}
	s, err := n.stream(engine.FnDecodeOfflineStream, h)
	if err != nil {
		return err
	}
	s.pending = 0
	s.decoded++
	s.finished = true
	return nil
}

func (n *Native) GetOfflineStreamResultAsJSON(ctx context.Context, h engine.Handle) (uint32, error) {
	return n.result(ctx, engine.FnGetOfflineStreamResultAsJSON, h)
}

func (n *Native) DestroyOfflineStreamResultJSON(ctx context.Context, ptr uint32) error {
	return n.destroyResult(ctx, engine.FnDestroyOfflineStreamResultJSON, ptr)
}

func (n *Native) OfflineRecognizerSetConfig(ctx context.Context, rec engine.Handle, cfg uint32) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.enter(ctx, engine.FnOfflineRecognizerSetConfig); err != nil {
		return err
	}
	if !n.recs[rec] {
		return fmt.Errorf("%s: unknown recognizer %d", engine.FnOfflineRecognizerSetConfig, rec)
	}
	if n.OnCreate != nil {
		n.OnCreate(engine.FnOfflineRecognizerSetConfig, cfg)
	}
	return nil
}
