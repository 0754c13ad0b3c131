// Package mcpserver exposes recording transcription as Model Context
// Protocol tools.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/wippyai/sherpa-wasm/asr"
	"github.com/wippyai/sherpa-wasm/audio"
	"github.com/wippyai/sherpa-wasm/transcribe"
)

type Config struct {
	Files         transcribe.Transcriber
	ServerName    string
	ServerVersion string
	// Root limits transcribe_file to files under this directory. Empty
	// disables the tool.
	Root       string
	SampleRate int
}

type Server struct {
	mcpServer *sdk.Server
	config    Config
}

func NewServer(cfg Config) *Server {
	if cfg.ServerName == "" {
		cfg.ServerName = "sherpa-wasm"
	}
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = asr.DefaultSampleRate
	}

	s := &Server{config: cfg}
	s.mcpServer = sdk.NewServer(&sdk.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}, nil)
	s.registerTools()
	return s
}

// Run serves one session over stdio until ctx ends or the client leaves.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &sdk.StdioTransport{})
}

// Connect serves one session over t.
func (s *Server) Connect(ctx context.Context, t sdk.Transport) (*sdk.ServerSession, error) {
	return s.mcpServer.Connect(ctx, t, nil)
}

// Handler serves sessions over streamable HTTP.
func (s *Server) Handler() http.Handler {
	return sdk.NewStreamableHTTPHandler(func(*http.Request) *sdk.Server {
		return s.mcpServer
	}, nil)
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "transcribe_audio",
		Description: "Transcribe a base64-encoded WAV recording",
	}, s.handleTranscribeAudio)

	if s.config.Root != "" {
		sdk.AddTool(s.mcpServer, &sdk.Tool{
			Name:        "transcribe_file",
			Description: "Transcribe a WAV file from the server's recordings directory",
		}, s.handleTranscribeFile)
	}
}

type TranscribeAudioArgs struct {
	Audio string `json:"audio" jsonschema:"base64-encoded WAV file"`
}

type TranscribeFileArgs struct {
	Path string `json:"path" jsonschema:"path of a WAV file relative to the recordings directory"`
}

type TranscribeOutput struct {
	Text            string    `json:"text"`
	Mode            string    `json:"mode"`
	Tokens          []string  `json:"tokens"`
	Timestamps      []float64 `json:"timestamps"`
	DurationSeconds float64   `json:"duration_seconds"`
}

func (s *Server) handleTranscribeAudio(ctx context.Context, _ *sdk.CallToolRequest, args TranscribeAudioArgs) (*sdk.CallToolResult, TranscribeOutput, error) {
	data, err := base64.StdEncoding.DecodeString(args.Audio)
	if err != nil {
		return nil, TranscribeOutput{}, fmt.Errorf("invalid base64 audio: %w", err)
	}
	return s.transcribe(ctx, data)
}

func (s *Server) handleTranscribeFile(ctx context.Context, _ *sdk.CallToolRequest, args TranscribeFileArgs) (*sdk.CallToolResult, TranscribeOutput, error) {
	path, err := s.resolve(args.Path)
	if err != nil {
		return nil, TranscribeOutput{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, TranscribeOutput{}, fmt.Errorf("failed to read %s: %w", args.Path, err)
	}
	return s.transcribe(ctx, data)
}

func (s *Server) resolve(rel string) (string, error) {
	if rel == "" || filepath.IsAbs(rel) {
		return "", fmt.Errorf("path must be relative to the recordings directory")
	}
	clean := filepath.Clean(rel)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q leaves the recordings directory", rel)
	}
	return filepath.Join(s.config.Root, clean), nil
}

func (s *Server) transcribe(ctx context.Context, wav []byte) (*sdk.CallToolResult, TranscribeOutput, error) {
	if s.config.Files == nil {
		return nil, TranscribeOutput{}, fmt.Errorf("transcription is not configured")
	}
	samples, rate, err := audio.DecodeWAV(bytes.NewReader(wav))
	if err != nil {
		return nil, TranscribeOutput{}, err
	}
	duration := time.Duration(len(samples)) * time.Second / time.Duration(max(rate, 1))
	samples = audio.Resample(samples, rate, s.config.SampleRate)

	tr, err := s.config.Files.Transcribe(ctx, samples, s.config.SampleRate)
	if err != nil {
		return nil, TranscribeOutput{}, fmt.Errorf("transcription failed: %w", err)
	}
	Logger().Debug("tool transcription",
		zap.String("mode", tr.Mode),
		zap.Duration("audio", duration))

	out := TranscribeOutput{
		Text:            tr.Text,
		Mode:            tr.Mode,
		Tokens:          append([]string{}, tr.Tokens...),
		Timestamps:      append([]float64{}, tr.Timestamps...),
		DurationSeconds: duration.Seconds(),
	}
	return &sdk.CallToolResult{
		Content: []sdk.Content{
			&sdk.TextContent{Text: tr.Text},
		},
	}, out, nil
}
