package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The service uses protobuf well-known types on the wire so that clients
// need no generated code:
//
//	service Transcription {
//	  rpc Transcribe(google.protobuf.BytesValue) returns (google.protobuf.Struct);
//	  rpc Stream(stream google.protobuf.BytesValue) returns (stream google.protobuf.Struct);
//	}
//
// Transcribe takes a WAV file. Stream takes mono S16LE PCM at the server's
// sample rate.
const (
	ServiceName      = "sherpawasm.v1.Transcription"
	TranscribeMethod = "/" + ServiceName + "/Transcribe"
	StreamMethod     = "/" + ServiceName + "/Stream"
)

// TranscriptionServer is the server API for the Transcription service.
type TranscriptionServer interface {
	Transcribe(context.Context, *wrapperspb.BytesValue) (*structpb.Struct, error)
	Stream(grpc.BidiStreamingServer[wrapperspb.BytesValue, structpb.Struct]) error
}

// RegisterTranscriptionServer registers srv with s.
func RegisterTranscriptionServer(s grpc.ServiceRegistrar, srv TranscriptionServer) {
	s.RegisterService(&serviceDesc, srv)
}

func transcribeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TranscriptionServer).Transcribe(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: TranscribeMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TranscriptionServer).Transcribe(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func streamHandler(srv any, stream grpc.ServerStream) error {
	return srv.(TranscriptionServer).Stream(&grpc.GenericServerStream[wrapperspb.BytesValue, structpb.Struct]{ServerStream: stream})
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TranscriptionServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Transcribe",
			Handler:    transcribeHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Stream",
			Handler:       streamHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "sherpawasm/v1/transcription.proto",
}

// Client calls the Transcription service.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Transcribe sends a WAV file and returns the transcript fields.
func (c *Client) Transcribe(ctx context.Context, wav []byte, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, TranscribeMethod, wrapperspb.Bytes(wav), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Stream opens a live transcription stream.
func (c *Client) Stream(ctx context.Context, opts ...grpc.CallOption) (grpc.BidiStreamingClient[wrapperspb.BytesValue, structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &serviceDesc.Streams[0], StreamMethod, opts...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[wrapperspb.BytesValue, structpb.Struct]{ClientStream: stream}, nil
}
