package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/wippyai/sherpa-wasm/asr"
	"github.com/wippyai/sherpa-wasm/audio"
	"github.com/wippyai/sherpa-wasm/grpcserver"
	"github.com/wippyai/sherpa-wasm/mcpserver"
	"github.com/wippyai/sherpa-wasm/settings"
	"github.com/wippyai/sherpa-wasm/transcribe"
)

const version = "0.1.0"

func printStatus(status string) {
	if status != "" {
		fmt.Fprintln(os.Stderr, status)
	}
}

func runFile(ctx context.Context, s *settings.Settings, path string, offline bool) error {
	samples, err := audio.ReadWAV(path, s.Audio.SampleRate)
	if err != nil {
		return fmt.Errorf("read audio: %w", err)
	}

	a, err := startApp(ctx, s, printStatus)
	if err != nil {
		return err
	}
	defer a.close(context.WithoutCancel(ctx))

	start := time.Now()
	var res asr.Result
	if offline {
		if a.offline == nil {
			return fmt.Errorf("-offline needs an offline recognizer in the settings")
		}
		res, err = a.files.RecognizeOffline(ctx, samples, s.Audio.SampleRate)
	} else {
		res, err = a.files.Recognize(ctx, samples, s.Audio.SampleRate)
	}
	if err != nil {
		return fmt.Errorf("recognize: %w", err)
	}

	zap.L().Info("file recognized",
		zap.String("file", path),
		zap.Duration("audio", time.Duration(len(samples))*time.Second/time.Duration(s.Audio.SampleRate)),
		zap.Duration("elapsed", time.Since(start)))
	fmt.Println(res.Text)
	return nil
}

func runRemote(ctx context.Context, addr, path string) error {
	if path == "" {
		return fmt.Errorf("-remote needs -file")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	out, err := grpcserver.NewClient(conn).Transcribe(ctx, data)
	if err != nil {
		return fmt.Errorf("transcribe: %w", err)
	}
	fmt.Println(out.GetFields()["text"].GetStringValue())
	return nil
}

// micSession captures from the microphone into a streaming session and an
// optional clip.
type micSession struct {
	capturer *audio.Capturer
	stream   *transcribe.Streaming
	clip     *audio.Clip
	clipDir  string
	rate     int
}

func newMicSession(a *app) *micSession {
	s := a.settings
	m := &micSession{
		capturer: audio.NewCapturer(audio.CaptureConfig{
			DeviceRate: s.Audio.DeviceRate,
			TargetRate: s.Audio.SampleRate,
		}),
		stream:  transcribe.NewStreaming(a.online),
		clipDir: s.Audio.ClipDir,
		rate:    s.Audio.SampleRate,
	}
	if m.clipDir != "" {
		m.clip = audio.NewClip(m.rate)
	}
	return m
}

func (m *micSession) push(ctx context.Context, c audio.Chunk) (transcribe.Update, error) {
	if m.clip != nil {
		m.clip.Append(c.Samples)
	}
	return m.stream.Push(ctx, c.Samples, c.SampleRate)
}

// finish stops capture, commits the last utterance and saves the clip.
func (m *micSession) finish(ctx context.Context) (transcribe.Update, error) {
	if err := m.capturer.Stop(); err != nil {
		zap.L().Warn("stop capture", zap.Error(err))
	}
	u, err := m.stream.Flush(ctx)
	if cerr := m.stream.Close(ctx); cerr != nil && err == nil {
		err = cerr
	}
	if m.clip != nil && m.clip.Len() > 0 {
		path, serr := m.clip.Save(m.clipDir)
		if serr != nil {
			zap.L().Warn("save clip", zap.Error(serr))
		} else {
			zap.L().Info("clip saved", zap.String("path", path), zap.Duration("length", m.clip.Duration()))
		}
	}
	return u, err
}

func runMic(ctx context.Context, s *settings.Settings) error {
	a, err := startApp(ctx, s, printStatus)
	if err != nil {
		return err
	}
	defer a.close(context.WithoutCancel(ctx))

	m := newMicSession(a)
	if err := m.capturer.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "Listening. Press Ctrl+C to stop.")

	last := ""
	for c := range m.capturer.Chunks() {
		if _, err := m.push(ctx, c); err != nil {
			_, _ = m.finish(context.WithoutCancel(ctx))
			return err
		}
		if d := m.stream.Display(); d != last {
			fmt.Print("\033[H\033[2J" + d)
			last = d
		}
	}

	if _, err := m.finish(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	fmt.Print("\033[H\033[2J" + m.stream.Display())
	return nil
}

func runServe(ctx context.Context, s *settings.Settings, mode string) error {
	switch mode {
	case "grpc", "mcp", "mcp-http":
	default:
		return fmt.Errorf("unknown -serve mode %q", mode)
	}

	a, err := startApp(ctx, s, nil)
	if err != nil {
		return err
	}
	defer a.close(context.WithoutCancel(ctx))

	switch mode {
	case "grpc":
		lis, err := net.Listen("tcp", s.Server.GRPCAddr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", s.Server.GRPCAddr, err)
		}
		srv := grpcserver.New(grpcserver.Config{
			Files:      a.files,
			Online:     a.online,
			SampleRate: s.Audio.SampleRate,
		})
		errc := make(chan error, 1)
		go func() { errc <- srv.Serve(lis) }()
		select {
		case <-ctx.Done():
			srv.Stop()
			return nil
		case err := <-errc:
			return err
		}

	case "mcp":
		srv := mcpserver.NewServer(mcpserver.Config{
			Files:         a.files,
			ServerVersion: version,
			Root:          s.Audio.ClipDir,
			SampleRate:    s.Audio.SampleRate,
		})
		return srv.Run(ctx)

	default:
		srv := mcpserver.NewServer(mcpserver.Config{
			Files:         a.files,
			ServerVersion: version,
			Root:          s.Audio.ClipDir,
			SampleRate:    s.Audio.SampleRate,
		})
		hs := &http.Server{Addr: s.Server.MCPAddr, Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}
		errc := make(chan error, 1)
		go func() { errc <- hs.ListenAndServe() }()
		zap.L().Info("MCP server listening", zap.String("addr", s.Server.MCPAddr))
		select {
		case <-ctx.Done():
			sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			return hs.Shutdown(sctx)
		case err := <-errc:
			if stderrors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		}
	}
}
