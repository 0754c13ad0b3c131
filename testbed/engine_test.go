// Package testbed runs the binding against a real sherpa-onnx engine build.
// Tests skip unless SHERPA_TESTBED_WASM names the engine binary and
// SHERPA_TESTBED_MODELS the model directory it expects.
package testbed

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/wippyai/sherpa-wasm/asr"
	"github.com/wippyai/sherpa-wasm/audio"
	sherrors "github.com/wippyai/sherpa-wasm/errors"
	"github.com/wippyai/sherpa-wasm/loader"
	"github.com/wippyai/sherpa-wasm/resource"
	"github.com/wippyai/sherpa-wasm/transcribe"
)

func loadEngine(t *testing.T) *loader.Engine {
	t.Helper()
	wasm := os.Getenv("SHERPA_TESTBED_WASM")
	models := os.Getenv("SHERPA_TESTBED_MODELS")
	if wasm == "" || models == "" {
		t.Skip("SHERPA_TESTBED_WASM and SHERPA_TESTBED_MODELS not set")
	}
	if _, err := os.Stat(wasm); err != nil {
		t.Skipf("engine binary not found: %v", err)
	}

	ctx := context.Background()
	l := loader.New()
	var statuses []string
	eng, err := l.Load(ctx, loader.Options{
		WasmPath: wasm,
		ModelDir: models,
		OnStatus: func(s string) { statuses = append(statuses, s) },
	})
	if err != nil {
		t.Fatalf("load engine: %v", err)
	}
	t.Cleanup(func() { _ = l.Reset(context.Background()) })

	if len(statuses) == 0 || statuses[len(statuses)-1] != loader.StatusDone {
		t.Errorf("statuses = %q", statuses)
	}
	return eng
}

func TestEngine_StreamingSilence(t *testing.T) {
	eng := loadEngine(t)
	ctx := context.Background()
	table := resource.NewTable()

	rec, err := asr.NewOnlineRecognizer(ctx, eng.Native(), asr.DefaultOnlineConfig(), asr.WithTable(table))
	if err != nil {
		t.Fatalf("create recognizer: %v", err)
	}
	defer rec.Free(ctx)

	s, err := rec.CreateStream(ctx)
	if err != nil {
		t.Fatalf("create stream: %v", err)
	}
	if err := s.AcceptWaveform(ctx, 16000, make([]float32, 4096)); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := s.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
	res, err := s.Result(ctx)
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if res.Text != "" {
		t.Errorf("silence decoded as %q", res.Text)
	}
	if err := s.Free(ctx); err != nil {
		t.Fatalf("free stream: %v", err)
	}
	if table.Len() != 1 {
		t.Errorf("table.Len = %d, want 1", table.Len())
	}
}

func TestEngine_RecognizeFile(t *testing.T) {
	wav := os.Getenv("SHERPA_TESTBED_WAV")
	if wav == "" {
		t.Skip("SHERPA_TESTBED_WAV not set")
	}
	eng := loadEngine(t)
	ctx := context.Background()

	samples, err := audio.ReadWAV(wav, 16000)
	if err != nil {
		t.Fatalf("read WAV: %v", err)
	}
	rec, err := asr.NewOnlineRecognizer(ctx, eng.Native(), asr.DefaultOnlineConfig(), asr.WithTable(resource.NewTable()))
	if err != nil {
		t.Fatalf("create recognizer: %v", err)
	}
	defer rec.Free(ctx)

	tr, err := transcribe.NewFileRecognizer(rec).Transcribe(ctx, samples, 16000)
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if tr.Text == "" {
		t.Error("empty transcript")
	}
	t.Logf("transcript: %s", tr.Text)
}

func TestEngine_OfflineCapability(t *testing.T) {
	eng := loadEngine(t)
	if eng.HasOffline() {
		t.Skip("engine exports the batch surface")
	}
	_, err := asr.NewOfflineRecognizer(context.Background(), eng.Native(), asr.OfflineRecognizerConfig{
		Model: asr.OfflineModelConfig{Family: &asr.OfflineSenseVoice{Model: "./model.onnx"}},
	}, asr.WithTable(resource.NewTable()))
	if !errors.Is(err, &sherrors.Error{Phase: sherrors.PhaseLoad, Kind: sherrors.KindMissingExport}) {
		t.Errorf("err = %v, want missing export", err)
	}
}
