// Package settings loads the application configuration from a YAML file and
// environment variables.
//
// Search order for the file: an explicit path, then ~/.sherpa-wasm.yaml,
// then built-in defaults. Environment variables prefixed with SHERPA are
// applied on top, for example SHERPA_ENGINE_PATH or SHERPA_SERVER_GRPC_ADDR.
// Overrides never fall back to unprefixed names, so PATH is not read.
package settings

import (
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/sherpa-wasm/asr"
	"github.com/wippyai/sherpa-wasm/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SHERPA"

// FileName is the per-user settings file in the home directory.
const FileName = ".sherpa-wasm.yaml"

type Engine struct {
	// Path is a local .wasm file. It wins over URL.
	Path string `yaml:"path"`
	URL  string `yaml:"url"`
	// ModelDir is mounted at the root of the engine filesystem.
	ModelDir            string `yaml:"model_dir" split_words:"true"`
	CompilationCacheDir string `yaml:"compilation_cache_dir" split_words:"true"`
	MemoryLimitPages    uint32 `yaml:"memory_limit_pages" split_words:"true"`
}

type Cache struct {
	Dir      string `yaml:"dir"`
	Prefix   string `yaml:"prefix"`
	Disabled bool   `yaml:"disabled"`
}

type Audio struct {
	SampleRate int    `yaml:"sample_rate" split_words:"true"`
	DeviceRate uint32 `yaml:"device_rate" split_words:"true"`
	// ClipDir receives microphone recordings. Empty disables saving.
	ClipDir string `yaml:"clip_dir" split_words:"true"`
}

type Server struct {
	GRPCAddr string `yaml:"grpc_addr" split_words:"true"`
	MCPAddr  string `yaml:"mcp_addr" split_words:"true"`
}

type Log struct {
	Level string `yaml:"level"`
}

// Settings is the full application configuration.
type Settings struct {
	Offline *asr.OfflineRecognizerConfig `yaml:"offline,omitempty" ignored:"true"`
	Engine  Engine                       `yaml:"engine"`
	Cache   Cache                        `yaml:"cache"`
	Server  Server                       `yaml:"server"`
	Log     Log                          `yaml:"log"`
	Audio   Audio                        `yaml:"audio"`
	Online  asr.OnlineRecognizerConfig   `yaml:"online" ignored:"true"`
}

// Default returns the built-in settings.
func Default() *Settings {
	s := &Settings{Online: asr.DefaultOnlineConfig()}
	s.Engine.Path = "sherpa-onnx-wasm-main-asr.wasm"
	s.Engine.ModelDir = "."
	s.Cache.Prefix = "sherpa-wasm:"
	s.Audio.SampleRate = 16000
	s.Audio.DeviceRate = 48000
	s.Server.GRPCAddr = "localhost:50051"
	s.Server.MCPAddr = "localhost:8090"
	s.Log.Level = "info"
	return s
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (*Settings, error) {
	s := Default()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse settings")
	}
	return s, nil
}

// Load reads one settings file.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindIO, err, "read settings file")
	}
	return Parse(data)
}

// Resolve loads settings following the search order and applies the
// environment.
func Resolve(explicitPath string) (*Settings, error) {
	s, err := find(explicitPath)
	if err != nil {
		return nil, err
	}
	if err := s.ApplyEnv(); err != nil {
		return nil, err
	}
	return s, nil
}

func find(explicitPath string) (*Settings, error) {
	if explicitPath != "" {
		return Load(explicitPath)
	}
	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return Default(), nil
}

// ApplyEnv overlays SHERPA_* environment variables.
func (s *Settings) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, s); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "environment overrides")
	}
	return nil
}

// Validate checks the settings that cannot be defaulted.
func (s *Settings) Validate() error {
	if s.Engine.Path == "" && s.Engine.URL == "" {
		return errors.InvalidInput(errors.PhaseConfig, []string{"engine"}, "one of path or url is required")
	}
	if s.Audio.SampleRate <= 0 {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path("audio", "sample_rate").
			Value(s.Audio.SampleRate).
			Detail("must be positive").
			Build()
	}
	if s.Online.Model.Family == nil {
		return errors.InvalidInput(errors.PhaseConfig, []string{"online", "model", "type"}, "no streaming model family selected")
	}
	if s.Offline != nil && s.Offline.Model.Family == nil {
		return errors.InvalidInput(errors.PhaseConfig, []string{"offline", "model", "type"}, "no batch model family selected")
	}
	if _, err := zapcore.ParseLevel(s.Log.Level); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "log level")
	}
	return nil
}

// LogLevel returns the parsed log level, info when it does not parse.
func (s *Settings) LogLevel() zapcore.Level {
	l, err := zapcore.ParseLevel(s.Log.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// Save writes the settings as YAML, creating the directory.
func (s *Settings) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "marshal settings")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindIO, err, "create settings directory")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindIO, err, "write settings file")
	}
	return nil
}
