package asr

import (
	"cmp"

	"github.com/wippyai/sherpa-wasm/layout"
	"github.com/wippyai/sherpa-wasm/marshal"
)

// OnlineModel is one streaming model family. Exactly one is selected per
// recognizer; the encoder still writes every family's slots.
type OnlineModel interface {
	Family() string
	onlineRecord() (field string, rec *marshal.Record)
}

type OnlineTransducer struct {
	Encoder string `yaml:"encoder" json:"encoder"`
	Decoder string `yaml:"decoder" json:"decoder"`
	Joiner  string `yaml:"joiner" json:"joiner"`
}

type OnlineParaformer struct {
	Encoder string `yaml:"encoder" json:"encoder"`
	Decoder string `yaml:"decoder" json:"decoder"`
}

type OnlineZipformer2Ctc struct {
	Model string `yaml:"model" json:"model"`
}

type OnlineNemoCtc struct {
	Model string `yaml:"model" json:"model"`
}

type OnlineToneCtc struct {
	Model string `yaml:"model" json:"model"`
}

func (*OnlineTransducer) Family() string    { return "transducer" }
func (*OnlineParaformer) Family() string    { return "paraformer" }
func (*OnlineZipformer2Ctc) Family() string { return "zipformer2_ctc" }
func (*OnlineNemoCtc) Family() string       { return "nemo_ctc" }
func (*OnlineToneCtc) Family() string       { return "tone_ctc" }

func (m *OnlineTransducer) onlineRecord() (string, *marshal.Record) {
	return "transducer", marshal.NewRecord(layout.OnlineTransducerModelConfig).
		Set("encoder", marshal.String(m.Encoder)).
		Set("decoder", marshal.String(m.Decoder)).
		Set("joiner", marshal.String(m.Joiner))
}

func (m *OnlineParaformer) onlineRecord() (string, *marshal.Record) {
	return "paraformer", marshal.NewRecord(layout.OnlineParaformerModelConfig).
		Set("encoder", marshal.String(m.Encoder)).
		Set("decoder", marshal.String(m.Decoder))
}

func (m *OnlineZipformer2Ctc) onlineRecord() (string, *marshal.Record) {
	return "zipformer2Ctc", marshal.NewRecord(layout.OnlineZipformer2CtcModelConfig).
		Set("model", marshal.String(m.Model))
}

func (m *OnlineNemoCtc) onlineRecord() (string, *marshal.Record) {
	return "nemoCtc", marshal.NewRecord(layout.OnlineNemoCtcModelConfig).
		Set("model", marshal.String(m.Model))
}

func (m *OnlineToneCtc) onlineRecord() (string, *marshal.Record) {
	return "toneCtc", marshal.NewRecord(layout.OnlineToneCtcModelConfig).
		Set("model", marshal.String(m.Model))
}

// OnlineModelConfig is the streaming model selection plus shared settings.
type OnlineModelConfig struct {
	Family        OnlineModel `yaml:"-" json:"-"`
	Debug         *bool       `yaml:"debug" json:"debug,omitempty"`
	Tokens        string      `yaml:"tokens" json:"tokens"`
	Provider      string      `yaml:"provider" json:"provider,omitempty"`
	ModelType     string      `yaml:"model_type" json:"model_type,omitempty"`
	ModelingUnit  string      `yaml:"modeling_unit" json:"modeling_unit,omitempty"`
	BpeVocab      string      `yaml:"bpe_vocab" json:"bpe_vocab,omitempty"`
	TokensBuf     string      `yaml:"tokens_buf" json:"tokens_buf,omitempty"`
	NumThreads    int32       `yaml:"num_threads" json:"num_threads,omitempty"`
	TokensBufSize int32       `yaml:"tokens_buf_size" json:"tokens_buf_size,omitempty"`
}

func (c OnlineModelConfig) record() *marshal.Record {
	r := marshal.NewRecord(layout.OnlineModelConfig)
	for _, f := range []OnlineModel{
		&OnlineTransducer{}, &OnlineParaformer{}, &OnlineZipformer2Ctc{}, &OnlineNemoCtc{}, &OnlineToneCtc{},
	} {
		name, sub := f.onlineRecord()
		r.Set(name, marshal.Nested(sub))
	}
	if c.Family != nil {
		name, sub := c.Family.onlineRecord()
		r.Set(name, marshal.Nested(sub))
	}

	return r.
		Set("tokens", marshal.String(c.Tokens)).
		Set("numThreads", marshal.Int(cmp.Or(c.NumThreads, DefaultNumThreads))).
		Set("provider", marshal.String(cmp.Or(c.Provider, DefaultProvider))).
		Set("debug", marshal.Bool(boolOr(c.Debug, true))).
		Set("modelType", marshal.String(c.ModelType)).
		Set("modelingUnit", marshal.String(c.ModelingUnit)).
		Set("bpeVocab", marshal.String(c.BpeVocab)).
		Set("tokensBuf", marshal.String(c.TokensBuf)).
		Set("tokensBufSize", marshal.Int(c.TokensBufSize))
}

// OnlineRecognizerConfig configures a streaming recognizer.
type OnlineRecognizerConfig struct {
	Model                   OnlineModelConfig       `yaml:"model" json:"model"`
	HomophoneReplacer       HomophoneReplacerConfig `yaml:"hr" json:"hr"`
	CtcFstDecoder           CtcFstDecoderConfig     `yaml:"ctc_fst_decoder" json:"ctc_fst_decoder"`
	DecodingMethod          string                  `yaml:"decoding_method" json:"decoding_method,omitempty"`
	HotwordsFile            string                  `yaml:"hotwords_file" json:"hotwords_file,omitempty"`
	RuleFsts                string                  `yaml:"rule_fsts" json:"rule_fsts,omitempty"`
	RuleFars                string                  `yaml:"rule_fars" json:"rule_fars,omitempty"`
	HotwordsBuf             string                  `yaml:"hotwords_buf" json:"hotwords_buf,omitempty"`
	Feat                    FeatureConfig           `yaml:"feat" json:"feat"`
	MaxActivePaths          int32                   `yaml:"max_active_paths" json:"max_active_paths,omitempty"`
	Rule1MinTrailingSilence float32                 `yaml:"rule1_min_trailing_silence" json:"rule1_min_trailing_silence,omitempty"`
	Rule2MinTrailingSilence float32                 `yaml:"rule2_min_trailing_silence" json:"rule2_min_trailing_silence,omitempty"`
	Rule3MinUtteranceLength float32                 `yaml:"rule3_min_utterance_length" json:"rule3_min_utterance_length,omitempty"`
	HotwordsScore           float32                 `yaml:"hotwords_score" json:"hotwords_score,omitempty"`
	BlankPenalty            float32                 `yaml:"blank_penalty" json:"blank_penalty,omitempty"`
	HotwordsBufSize         int32                   `yaml:"hotwords_buf_size" json:"hotwords_buf_size,omitempty"`
	EnableEndpoint          bool                    `yaml:"enable_endpoint" json:"enable_endpoint,omitempty"`
}

// SampleRate is the feature sample rate after defaults.
func (c OnlineRecognizerConfig) SampleRate() int32 {
	return cmp.Or(c.Feat.SampleRate, DefaultSampleRate)
}

// Record builds the fully defaulted record for the engine struct.
func (c OnlineRecognizerConfig) Record() *marshal.Record {
	return marshal.NewRecord(layout.OnlineRecognizerConfig).
		Set("featConfig", marshal.Nested(c.Feat.record())).
		Set("modelConfig", marshal.Nested(c.Model.record())).
		Set("decodingMethod", marshal.String(cmp.Or(c.DecodingMethod, DefaultDecodingMethod))).
		Set("maxActivePaths", marshal.Int(cmp.Or(c.MaxActivePaths, DefaultMaxActivePaths))).
		Set("enableEndpoint", marshal.Bool(c.EnableEndpoint)).
		Set("rule1MinTrailingSilence", marshal.Float(cmp.Or(c.Rule1MinTrailingSilence, DefaultRule1))).
		Set("rule2MinTrailingSilence", marshal.Float(cmp.Or(c.Rule2MinTrailingSilence, DefaultRule2))).
		Set("rule3MinUtteranceLength", marshal.Float(cmp.Or(c.Rule3MinUtteranceLength, DefaultRule3))).
		Set("hotwordsFile", marshal.String(c.HotwordsFile)).
		Set("hotwordsScore", marshal.Float(cmp.Or(c.HotwordsScore, DefaultHotwordsScore))).
		Set("ctcFstDecoderConfig", marshal.Nested(c.CtcFstDecoder.record())).
		Set("ruleFsts", marshal.String(c.RuleFsts)).
		Set("ruleFars", marshal.String(c.RuleFars)).
		Set("blankPenalty", marshal.Float(c.BlankPenalty)).
		Set("hotwordsBuf", marshal.String(c.HotwordsBuf)).
		Set("hotwordsBufSize", marshal.Int(c.HotwordsBufSize)).
		Set("hr", marshal.Nested(c.HomophoneReplacer.record()))
}

// NeedsTailPadding reports whether the model family needs one second of
// trailing silence before its final result is complete.
func (c OnlineRecognizerConfig) NeedsTailPadding() bool {
	_, ok := c.Model.Family.(*OnlineParaformer)
	return ok
}

// DefaultOnlineConfig is the streaming transducer setup the engine's bundled
// model package is laid out for: model files at the root of the mounted
// model directory.
func DefaultOnlineConfig() OnlineRecognizerConfig {
	return OnlineRecognizerConfig{
		Model: OnlineModelConfig{
			Family: &OnlineTransducer{
				Encoder: "./encoder.onnx",
				Decoder: "./decoder.onnx",
				Joiner:  "./joiner.onnx",
			},
			Tokens:       "./tokens.txt",
			ModelingUnit: "cjkchar",
		},
		EnableEndpoint: true,
	}
}
