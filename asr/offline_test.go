package asr

import (
	"context"
	"errors"
	"testing"

	"github.com/wippyai/sherpa-wasm/engine"
	sherrors "github.com/wippyai/sherpa-wasm/errors"
	"github.com/wippyai/sherpa-wasm/internal/enginetest"
	"github.com/wippyai/sherpa-wasm/layout"
	"github.com/wippyai/sherpa-wasm/resource"
)

func senseVoiceConfig() OfflineRecognizerConfig {
	return OfflineRecognizerConfig{
		Model: OfflineModelConfig{
			Family: &OfflineSenseVoice{Model: "model.int8.onnx", Language: "auto"},
			Tokens: "tokens.txt",
		},
	}
}

func TestNewOfflineRecognizer_RequiresBatchSurface(t *testing.T) {
	fake := enginetest.New()
	_, err := NewOfflineRecognizer(context.Background(), fake, senseVoiceConfig(), WithTable(resource.NewTable()))
	if !errors.Is(err, &sherrors.Error{Phase: sherrors.PhaseLoad, Kind: sherrors.KindMissingExport}) {
		t.Fatalf("err = %v, want missing export", err)
	}
	if fake.Calls[engine.FnCreateOfflineRecognizer] != 0 {
		t.Error("create called on an online-only engine")
	}
	if len(fake.Mem.Mall) != 0 {
		t.Error("config encoded on an online-only engine")
	}
}

func TestOfflineRecognizer_Recognize(t *testing.T) {
	ctx := context.Background()
	fake := enginetest.New()
	fake.Offline = true
	fake.Script = func(int) string { return "batch text" }
	table := resource.NewTable()

	rec, err := NewOfflineRecognizer(ctx, fake, senseVoiceConfig(), WithTable(table))
	if err != nil {
		t.Fatalf("NewOfflineRecognizer: %v", err)
	}
	s, err := rec.CreateStream(ctx)
	if err != nil {
		t.Fatalf("CreateStream: %v", err)
	}

	samples := make([]float32, 8000)
	if err := s.AcceptWaveform(ctx, 16000, samples); err != nil {
		t.Fatalf("AcceptWaveform: %v", err)
	}
	if fake.Mem.Live() != 0 {
		t.Errorf("sample buffer live after accept: %d", fake.Mem.Live())
	}
	if err := s.Decode(ctx); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	res, err := s.Result(ctx)
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if res.Text != "batch text" {
		t.Errorf("Text = %q", res.Text)
	}
	if res.Fields["is_final"] != true {
		t.Errorf("is_final = %v", res.Fields["is_final"])
	}

	if err := rec.Free(ctx); err != nil {
		t.Fatalf("Free: %v", err)
	}
	if fake.Live() != 0 || fake.Mem.Live() != 0 || table.Len() != 0 {
		t.Errorf("after free: engine=%d heap=%d table=%d", fake.Live(), fake.Mem.Live(), table.Len())
	}
	if err := s.Decode(ctx); !errors.Is(err, errInvalidHandle) {
		t.Errorf("Decode after free: %v", err)
	}
}

func TestOfflineStream_AcceptFailureFreesBuffer(t *testing.T) {
	ctx := context.Background()
	fake := enginetest.New()
	fake.Offline = true
	rec, err := NewOfflineRecognizer(ctx, fake, senseVoiceConfig(), WithTable(resource.NewTable()))
	if err != nil {
		t.Fatal(err)
	}
	s, _ := rec.CreateStream(ctx)

	fake.Fail = map[string]error{engine.FnAcceptWaveformOffline: errBoom}
	if err := s.AcceptWaveform(ctx, 16000, make([]float32, 100)); !errors.Is(err, errBoom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if fake.Mem.Live() != 0 {
		t.Errorf("buffer leaked on failed accept")
	}
}

func TestOfflineRecognizer_SetConfig(t *testing.T) {
	ctx := context.Background()
	fake := enginetest.New()
	fake.Offline = true
	rec, err := NewOfflineRecognizer(ctx, fake, senseVoiceConfig(), WithTable(resource.NewTable()))
	if err != nil {
		t.Fatal(err)
	}

	var method string
	fake.OnCreate = func(entry string, cfg uint32) {
		if entry != engine.FnOfflineRecognizerSetConfig {
			return
		}
		p, _ := fake.Mem.ReadU32(cfg + layout.Of(layout.OfflineRecognizerConfig).FieldOffs["decodingMethod"])
		method = fake.Mem.CString(p)
	}

	next := senseVoiceConfig()
	next.DecodingMethod = "modified_beam_search"
	if err := rec.SetConfig(ctx, next); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	if method != "modified_beam_search" {
		t.Errorf("engine saw %q", method)
	}
	if rec.Config().DecodingMethod != "modified_beam_search" {
		t.Error("Config not updated")
	}
	if fake.Mem.Live() != 0 {
		t.Errorf("config leaked: %d", fake.Mem.Live())
	}

	fake.Fail = map[string]error{engine.FnOfflineRecognizerSetConfig: errBoom}
	if err := rec.SetConfig(ctx, senseVoiceConfig()); !errors.Is(err, errBoom) {
		t.Errorf("err = %v", err)
	}
	if rec.Config().DecodingMethod != "modified_beam_search" {
		t.Error("Config changed on failure")
	}
}
