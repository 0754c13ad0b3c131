package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/sherpa-wasm/settings"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Settings file (default ~/.sherpa-wasm.yaml)")
		wasmFile    = flag.String("wasm", "", "Path to the engine wasm file")
		wasmURL     = flag.String("wasm-url", "", "URL of the engine wasm file")
		modelDir    = flag.String("models", "", "Directory mounted at / in the engine")
		file        = flag.String("file", "", "Transcribe a WAV file and exit")
		offline     = flag.Bool("offline", false, "Use the batch recognizer for -file")
		mic         = flag.Bool("mic", false, "Transcribe the default microphone")
		interactive = flag.Bool("i", false, "Interactive microphone mode with TUI")
		serve       = flag.String("serve", "", "Serve transcription: grpc, mcp (stdio) or mcp-http")
		remote      = flag.String("remote", "", "Send -file to a gRPC server at this address")
		debug       = flag.Bool("debug", false, "Development logging at debug level")
	)
	flag.Parse()

	if *file == "" && !*mic && !*interactive && *serve == "" {
		fmt.Fprintln(os.Stderr, "Usage: sherpa-run -file <audio.wav> [-offline] [-remote host:port]")
		fmt.Fprintln(os.Stderr, "       sherpa-run -mic")
		fmt.Fprintln(os.Stderr, "       sherpa-run -i  (interactive mode)")
		fmt.Fprintln(os.Stderr, "       sherpa-run -serve grpc|mcp|mcp-http")
		os.Exit(1)
	}

	s, err := settings.Resolve(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *wasmFile != "" {
		s.Engine.Path = *wasmFile
	}
	if *wasmURL != "" {
		s.Engine.Path = ""
		s.Engine.URL = *wasmURL
	}
	if *modelDir != "" {
		s.Engine.ModelDir = *modelDir
	}
	if err := s.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	tui := *interactive && term.IsTerminal(int(os.Stdout.Fd()))
	// stdio MCP owns stdout, and the TUI owns the screen
	quiet := tui || *serve == "mcp"
	log, err := newLogger(s, *debug, quiet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	installLogger(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *remote != "":
		err = runRemote(ctx, *remote, *file)
	case *file != "":
		err = runFile(ctx, s, *file, *offline)
	case *serve != "":
		err = runServe(ctx, s, *serve)
	case tui:
		err = runInteractive(ctx, s)
	default:
		if *interactive {
			log.Info("stdout is not a terminal, using plain microphone mode")
		}
		err = runMic(ctx, s)
	}
	if err != nil {
		if !quiet {
			log.Error("run failed", zap.Error(err))
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
