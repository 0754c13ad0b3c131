package grpcserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/wippyai/sherpa-wasm/asr"
	"github.com/wippyai/sherpa-wasm/audio"
	"github.com/wippyai/sherpa-wasm/internal/enginetest"
	"github.com/wippyai/sherpa-wasm/resource"
	"github.com/wippyai/sherpa-wasm/transcribe"
)

func heard(n int) string { return fmt.Sprintf("HEARD %d", n) }

func setup(t *testing.T, fake *enginetest.Native, cfg Config) *Client {
	t.Helper()
	ctx := context.Background()

	if cfg.Online == nil {
		rec, err := asr.NewOnlineRecognizer(ctx, fake, asr.OnlineRecognizerConfig{
			Model: asr.OnlineModelConfig{
				Family: &asr.OnlineTransducer{Encoder: "e", Decoder: "d", Joiner: "j"},
				Tokens: "tokens.txt",
			},
			EnableEndpoint: true,
		}, asr.WithTable(resource.NewTable()))
		if err != nil {
			t.Fatalf("NewOnlineRecognizer: %v", err)
		}
		t.Cleanup(func() { _ = rec.Free(ctx) })
		cfg.Online = rec
		if cfg.Files == nil {
			cfg.Files = transcribe.NewFileRecognizer(rec)
		}
	}

	lis := bufconn.Listen(1 << 20)
	srv := New(cfg)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn)
}

func wavBytes(t *testing.T, n, rate int) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.wav")
	if err := audio.WriteWAV(path, make([]float32, n), rate); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func pcm(n int) []byte {
	return make([]byte, 2*n)
}

func TestTranscribe(t *testing.T) {
	fake := enginetest.New()
	fake.Script = heard
	client := setup(t, fake, Config{})

	out, err := client.Transcribe(context.Background(), wavBytes(t, 8000, 8000))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	fields := out.AsMap()
	// 8 kHz input is resampled to 16 kHz before recognition
	if fields["text"] != heard(16000) {
		t.Errorf("text = %v", fields["text"])
	}
	if fields["mode"] != "online" {
		t.Errorf("mode = %v", fields["mode"])
	}
	if tokens, _ := fields["tokens"].([]any); len(tokens) != 2 {
		t.Errorf("tokens = %v", fields["tokens"])
	}
}

func TestTranscribe_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  func(*Config)
		body []byte
		want codes.Code
	}{
		{name: "not a WAV file", body: []byte("garbage"), want: codes.InvalidArgument},
		{name: "no transcriber", cfg: func(c *Config) { c.Files = &transcribe.FileRecognizer{} }, want: codes.FailedPrecondition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := enginetest.New()
			cfg := Config{}
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			client := setup(t, fake, cfg)

			body := tt.body
			if body == nil {
				body = wavBytes(t, 100, 16000)
			}
			_, err := client.Transcribe(context.Background(), body)
			if got := status.Code(err); got != tt.want {
				t.Errorf("code = %v, want %v (%v)", got, tt.want, err)
			}
		})
	}
}

func TestStream(t *testing.T) {
	fake := enginetest.New()
	fake.Script = heard
	fake.EndpointAfter = 2
	client := setup(t, fake, Config{})

	stream, err := client.Stream(context.Background())
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	var partials []string
	for range 3 {
		if err := stream.Send(wrapperspb.Bytes(pcm(1600))); err != nil {
			t.Fatalf("Send: %v", err)
		}
		msg, err := stream.Recv()
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		partials = append(partials, msg.AsMap()["partial"].(string))
	}
	if err := stream.CloseSend(); err != nil {
		t.Fatalf("CloseSend: %v", err)
	}

	final, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv final: %v", err)
	}
	finals := final.AsMap()["finals"].([]any)
	if len(finals) != 2 || finals[0] != heard(3200) || finals[1] != heard(1600) {
		t.Errorf("finals = %v", finals)
	}
	if partials[0] != heard(1600) || partials[1] != "" || partials[2] != heard(1600) {
		t.Errorf("partials = %q", partials)
	}

	if _, err := stream.Recv(); !errors.Is(err, io.EOF) {
		t.Errorf("trailing Recv err = %v, want EOF", err)
	}
	if fake.Live() != 1 {
		t.Errorf("engine objects live = %d, want only the recognizer", fake.Live())
	}
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{context.Canceled, codes.Canceled},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{errors.New("x"), codes.Internal},
	}
	for _, tt := range tests {
		if got := status.Code(toStatus(tt.err)); got != tt.want {
			t.Errorf("toStatus(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
