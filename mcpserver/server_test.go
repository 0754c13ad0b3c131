package mcpserver

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wippyai/sherpa-wasm/audio"
	"github.com/wippyai/sherpa-wasm/transcribe"
)

type stubTranscriber struct {
	got  int
	rate int
}

func (s *stubTranscriber) Transcribe(_ context.Context, samples []float32, rate int) (transcribe.Transcript, error) {
	s.got, s.rate = len(samples), rate
	return transcribe.Transcript{
		Text:       "hello world",
		Tokens:     []string{"hello", "world"},
		Timestamps: []float64{0, 0.32},
		Mode:       "online",
	}, nil
}

func writeWAV(t *testing.T, dir string, n, rate int) string {
	t.Helper()
	path := filepath.Join(dir, "clip.wav")
	if err := audio.WriteWAV(path, make([]float32, n), rate); err != nil {
		t.Fatal(err)
	}
	return path
}

func connect(t *testing.T, cfg Config) *sdk.ClientSession {
	t.Helper()
	ctx := context.Background()
	srv := NewServer(cfg)

	serverT, clientT := sdk.NewInMemoryTransports()
	ss, err := srv.Connect(ctx, serverT)
	if err != nil {
		t.Fatalf("server Connect: %v", err)
	}
	t.Cleanup(func() { _ = ss.Close() })

	client := sdk.NewClient(&sdk.Implementation{Name: "test", Version: "0"}, nil)
	cs, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client Connect: %v", err)
	}
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func text(t *testing.T, res *sdk.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty content")
	}
	tc, ok := res.Content[0].(*sdk.TextContent)
	if !ok {
		t.Fatalf("content is %T", res.Content[0])
	}
	return tc.Text
}

func TestTranscribeAudio(t *testing.T) {
	stub := &stubTranscriber{}
	cs := connect(t, Config{Files: stub})

	data, err := os.ReadFile(writeWAV(t, t.TempDir(), 8000, 8000))
	if err != nil {
		t.Fatal(err)
	}
	res, err := cs.CallTool(context.Background(), &sdk.CallToolParams{
		Name:      "transcribe_audio",
		Arguments: map[string]any{"audio": base64.StdEncoding.EncodeToString(data)},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", text(t, res))
	}
	if got := text(t, res); got != "hello world" {
		t.Errorf("text = %q", got)
	}
	if stub.got != 16000 || stub.rate != 16000 {
		t.Errorf("transcriber got %d samples at %d", stub.got, stub.rate)
	}
}

func TestTranscribeAudio_BadInput(t *testing.T) {
	tests := []struct {
		name  string
		audio string
	}{
		{"not base64", "%%%"},
		{"not WAV", base64.StdEncoding.EncodeToString([]byte("plain text"))},
	}

	cs := connect(t, Config{Files: &stubTranscriber{}})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := cs.CallTool(context.Background(), &sdk.CallToolParams{
				Name:      "transcribe_audio",
				Arguments: map[string]any{"audio": tt.audio},
			})
			if err != nil {
				t.Fatalf("CallTool: %v", err)
			}
			if !res.IsError {
				t.Error("expected a tool error")
			}
		})
	}
}

func TestTranscribeFile(t *testing.T) {
	root := t.TempDir()
	writeWAV(t, root, 1600, 16000)
	stub := &stubTranscriber{}
	cs := connect(t, Config{Files: stub, Root: root})

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"inside root", "clip.wav", false},
		{"escapes root", "../clip.wav", true},
		{"absolute", filepath.Join(root, "clip.wav"), true},
		{"missing", "nope.wav", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := cs.CallTool(context.Background(), &sdk.CallToolParams{
				Name:      "transcribe_file",
				Arguments: map[string]any{"path": tt.path},
			})
			if err != nil {
				t.Fatalf("CallTool: %v", err)
			}
			if res.IsError != tt.wantErr {
				t.Errorf("IsError = %v, want %v", res.IsError, tt.wantErr)
			}
		})
	}
}

func TestTools_FileToolNeedsRoot(t *testing.T) {
	cs := connect(t, Config{Files: &stubTranscriber{}})
	res, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	for _, tool := range res.Tools {
		if tool.Name == "transcribe_file" {
			t.Error("transcribe_file listed without a root")
		}
	}
	if len(res.Tools) != 1 {
		t.Errorf("tools = %d, want 1", len(res.Tools))
	}
}
