// Package grpcserver serves file and live transcription over gRPC.
package grpcserver

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/wippyai/sherpa-wasm/asr"
	"github.com/wippyai/sherpa-wasm/audio"
	"github.com/wippyai/sherpa-wasm/errors"
	"github.com/wippyai/sherpa-wasm/transcribe"
)

// Config wires the server to the recognizers. Online may be nil, in which
// case Stream is unavailable.
type Config struct {
	Files  transcribe.Transcriber
	Online *asr.OnlineRecognizer
	// SampleRate is the rate of Stream input and of decoded files. 0 selects
	// 16000.
	SampleRate int
}

// Server implements TranscriptionServer. Engine calls are serialized
// across all requests.
type Server struct {
	grpc *grpc.Server
	cfg  Config
	mu   sync.Mutex
}

var _ TranscriptionServer = (*Server)(nil)

func New(cfg Config, opts ...grpc.ServerOption) *Server {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = asr.DefaultSampleRate
	}
	s := &Server{cfg: cfg}
	opts = append(opts, grpc.ChainUnaryInterceptor(logUnary), grpc.ChainStreamInterceptor(logStream))
	s.grpc = grpc.NewServer(opts...)
	RegisterTranscriptionServer(s.grpc, s)
	return s
}

// Serve blocks until the listener fails or Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	Logger().Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
	return s.grpc.Serve(lis)
}

func (s *Server) Stop() {
	s.grpc.GracefulStop()
}

func (s *Server) Transcribe(ctx context.Context, in *wrapperspb.BytesValue) (*structpb.Struct, error) {
	if s.cfg.Files == nil {
		return nil, status.Error(codes.Unimplemented, "file transcription is not configured")
	}
	samples, rate, err := audio.DecodeWAV(bytes.NewReader(in.GetValue()))
	if err != nil {
		return nil, toStatus(err)
	}
	samples = audio.Resample(samples, rate, s.cfg.SampleRate)

	s.mu.Lock()
	tr, err := s.cfg.Files.Transcribe(ctx, samples, s.cfg.SampleRate)
	s.mu.Unlock()
	if err != nil {
		return nil, toStatus(err)
	}
	return transcriptStruct(tr)
}

func (s *Server) Stream(stream grpc.BidiStreamingServer[wrapperspb.BytesValue, structpb.Struct]) error {
	if s.cfg.Online == nil {
		return status.Error(codes.Unimplemented, "live transcription is not configured")
	}
	ctx := stream.Context()
	session := transcribe.NewStreaming(s.cfg.Online)
	defer func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := session.Close(context.WithoutCancel(ctx)); err != nil {
			Logger().Warn("close streaming session", zap.Error(err))
		}
	}()

	for {
		in, err := stream.Recv()
		if stderrors.Is(err, io.EOF) {
			s.mu.Lock()
			u, err := session.Flush(ctx)
			s.mu.Unlock()
			if err != nil {
				return toStatus(err)
			}
			return send(stream, u)
		}
		if err != nil {
			return err
		}

		samples := audio.S16LEToFloat32(in.GetValue(), 1)
		s.mu.Lock()
		u, err := session.Push(ctx, samples, s.cfg.SampleRate)
		s.mu.Unlock()
		if err != nil {
			return toStatus(err)
		}
		if err := send(stream, u); err != nil {
			return err
		}
	}
}

func send(stream grpc.BidiStreamingServer[wrapperspb.BytesValue, structpb.Struct], u transcribe.Update) error {
	msg, err := updateStruct(u)
	if err != nil {
		return err
	}
	return stream.Send(msg)
}

func transcriptStruct(tr transcribe.Transcript) (*structpb.Struct, error) {
	tokens := make([]any, len(tr.Tokens))
	for i, t := range tr.Tokens {
		tokens[i] = t
	}
	stamps := make([]any, len(tr.Timestamps))
	for i, t := range tr.Timestamps {
		stamps[i] = t
	}
	out, err := structpb.NewStruct(map[string]any{
		"text":       tr.Text,
		"tokens":     tokens,
		"timestamps": stamps,
		"mode":       tr.Mode,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func updateStruct(u transcribe.Update) (*structpb.Struct, error) {
	finals := make([]any, len(u.Finals))
	for i, f := range u.Finals {
		finals[i] = f
	}
	out, err := structpb.NewStruct(map[string]any{
		"partial":  u.Partial,
		"finals":   finals,
		"endpoint": u.Endpoint,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func toStatus(err error) error {
	var e *errors.Error
	if !stderrors.As(err, &e) {
		if stderrors.Is(err, context.Canceled) {
			return status.Error(codes.Canceled, err.Error())
		}
		if stderrors.Is(err, context.DeadlineExceeded) {
			return status.Error(codes.DeadlineExceeded, err.Error())
		}
		return status.Error(codes.Internal, err.Error())
	}
	switch e.Kind {
	case errors.KindInvalidData, errors.KindInvalidInput, errors.KindUnsupported:
		return status.Error(codes.InvalidArgument, e.Error())
	case errors.KindNotInitialized, errors.KindMissingExport, errors.KindInvalidHandle:
		return status.Error(codes.FailedPrecondition, e.Error())
	case errors.KindAllocation:
		return status.Error(codes.ResourceExhausted, e.Error())
	default:
		return status.Error(codes.Internal, e.Error())
	}
}

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	Logger().Debug("unary call",
		zap.String("method", info.FullMethod),
		zap.Duration("elapsed", time.Since(start)),
		zap.Stringer("code", status.Code(err)))
	return resp, err
}

func logStream(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	start := time.Now()
	err := handler(srv, ss)
	Logger().Debug("stream call",
		zap.String("method", info.FullMethod),
		zap.Duration("elapsed", time.Since(start)),
		zap.Stringer("code", status.Code(err)))
	return err
}
