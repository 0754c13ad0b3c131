package asr

import (
	"cmp"

	"github.com/wippyai/sherpa-wasm/layout"
	"github.com/wippyai/sherpa-wasm/marshal"
)

// OfflineModel is one batch model family.
type OfflineModel interface {
	Family() string
	offlineRecord() (field string, rec *marshal.Record)
}

type OfflineTransducer struct {
	Encoder string `yaml:"encoder" json:"encoder"`
	Decoder string `yaml:"decoder" json:"decoder"`
	Joiner  string `yaml:"joiner" json:"joiner"`
}

type OfflineParaformer struct {
	Model string `yaml:"model" json:"model"`
}

type OfflineNemoCtc struct {
	Model string `yaml:"model" json:"model"`
}

// OfflineWhisper selects a Whisper model. TailPaddings of 0 uses the default.
type OfflineWhisper struct {
	Encoder      string `yaml:"encoder" json:"encoder"`
	Decoder      string `yaml:"decoder" json:"decoder"`
	Language     string `yaml:"language" json:"language,omitempty"`
	Task         string `yaml:"task" json:"task,omitempty"`
	TailPaddings int32  `yaml:"tail_paddings" json:"tail_paddings,omitempty"`
}

type OfflineTdnn struct {
	Model string `yaml:"model" json:"model"`
}

type OfflineSenseVoice struct {
	Model                       string `yaml:"model" json:"model"`
	Language                    string `yaml:"language" json:"language,omitempty"`
	UseInverseTextNormalization bool   `yaml:"use_itn" json:"use_itn,omitempty"`
}

type OfflineMoonshine struct {
	Preprocessor    string `yaml:"preprocessor" json:"preprocessor"`
	Encoder         string `yaml:"encoder" json:"encoder"`
	UncachedDecoder string `yaml:"uncached_decoder" json:"uncached_decoder"`
	CachedDecoder   string `yaml:"cached_decoder" json:"cached_decoder"`
}

type OfflineFireRedAsr struct {
	Encoder string `yaml:"encoder" json:"encoder"`
	Decoder string `yaml:"decoder" json:"decoder"`
}

type OfflineDolphin struct {
	Model string `yaml:"model" json:"model"`
}

type OfflineZipformerCtc struct {
	Model string `yaml:"model" json:"model"`
}

// OfflineCanary selects a Canary model. UsePnc defaults to true when nil.
type OfflineCanary struct {
	UsePnc  *bool  `yaml:"use_pnc" json:"use_pnc,omitempty"`
	Encoder string `yaml:"encoder" json:"encoder"`
	Decoder string `yaml:"decoder" json:"decoder"`
	SrcLang string `yaml:"src_lang" json:"src_lang,omitempty"`
	TgtLang string `yaml:"tgt_lang" json:"tgt_lang,omitempty"`
}

type OfflineWenetCtc struct {
	Model string `yaml:"model" json:"model"`
}

type OfflineOmnilingual struct {
	Model string `yaml:"model" json:"model"`
}

// OfflineTeleSpeechCtc has no sub-struct; its model path is a plain string
// slot of the model config.
type OfflineTeleSpeechCtc struct {
	Model string `yaml:"model" json:"model"`
}

func (*OfflineTransducer) Family() string    { return "transducer" }
func (*OfflineParaformer) Family() string    { return "paraformer" }
func (*OfflineNemoCtc) Family() string       { return "nemo_ctc" }
func (*OfflineWhisper) Family() string       { return "whisper" }
func (*OfflineTdnn) Family() string          { return "tdnn" }
func (*OfflineSenseVoice) Family() string    { return "sense_voice" }
func (*OfflineMoonshine) Family() string     { return "moonshine" }
func (*OfflineFireRedAsr) Family() string    { return "fire_red_asr" }
func (*OfflineDolphin) Family() string       { return "dolphin" }
func (*OfflineZipformerCtc) Family() string  { return "zipformer_ctc" }
func (*OfflineCanary) Family() string        { return "canary" }
func (*OfflineWenetCtc) Family() string      { return "wenet_ctc" }
func (*OfflineOmnilingual) Family() string   { return "omnilingual" }
func (*OfflineTeleSpeechCtc) Family() string { return "telespeech_ctc" }

func single(l *layout.Struct, model string) *marshal.Record {
	return marshal.NewRecord(l).Set("model", marshal.String(model))
}

func (m *OfflineTransducer) offlineRecord() (string, *marshal.Record) {
	return "transducer", marshal.NewRecord(layout.OfflineTransducerModelConfig).
		Set("encoder", marshal.String(m.Encoder)).
		Set("decoder", marshal.String(m.Decoder)).
		Set("joiner", marshal.String(m.Joiner))
}

func (m *OfflineParaformer) offlineRecord() (string, *marshal.Record) {
	return "paraformer", single(layout.OfflineParaformerModelConfig, m.Model)
}

func (m *OfflineNemoCtc) offlineRecord() (string, *marshal.Record) {
	return "nemoCtc", single(layout.OfflineNemoEncDecCtcModelConfig, m.Model)
}

func (m *OfflineWhisper) offlineRecord() (string, *marshal.Record) {
	return "whisper", marshal.NewRecord(layout.OfflineWhisperModelConfig).
		Set("encoder", marshal.String(m.Encoder)).
		Set("decoder", marshal.String(m.Decoder)).
		Set("language", marshal.String(m.Language)).
		Set("task", marshal.String(m.Task)).
		Set("tailPaddings", marshal.Int(cmp.Or(m.TailPaddings, DefaultTailPaddings)))
}

func (m *OfflineTdnn) offlineRecord() (string, *marshal.Record) {
	return "tdnn", single(layout.OfflineTdnnModelConfig, m.Model)
}

func (m *OfflineSenseVoice) offlineRecord() (string, *marshal.Record) {
	return "senseVoice", marshal.NewRecord(layout.OfflineSenseVoiceModelConfig).
		Set("model", marshal.String(m.Model)).
		Set("language", marshal.String(m.Language)).
		Set("useInverseTextNormalization", marshal.Bool(m.UseInverseTextNormalization))
}

func (m *OfflineMoonshine) offlineRecord() (string, *marshal.Record) {
	return "moonshine", marshal.NewRecord(layout.OfflineMoonshineModelConfig).
		Set("preprocessor", marshal.String(m.Preprocessor)).
		Set("encoder", marshal.String(m.Encoder)).
		Set("uncachedDecoder", marshal.String(m.UncachedDecoder)).
		Set("cachedDecoder", marshal.String(m.CachedDecoder))
}

func (m *OfflineFireRedAsr) offlineRecord() (string, *marshal.Record) {
	return "fireRedAsr", marshal.NewRecord(layout.OfflineFireRedAsrModelConfig).
		Set("encoder", marshal.String(m.Encoder)).
		Set("decoder", marshal.String(m.Decoder))
}

func (m *OfflineDolphin) offlineRecord() (string, *marshal.Record) {
	return "dolphin", single(layout.OfflineDolphinModelConfig, m.Model)
}

func (m *OfflineZipformerCtc) offlineRecord() (string, *marshal.Record) {
	return "zipformerCtc", single(layout.OfflineZipformerCtcModelConfig, m.Model)
}

func (m *OfflineCanary) offlineRecord() (string, *marshal.Record) {
	return "canary", marshal.NewRecord(layout.OfflineCanaryModelConfig).
		Set("encoder", marshal.String(m.Encoder)).
		Set("decoder", marshal.String(m.Decoder)).
		Set("srcLang", marshal.String(m.SrcLang)).
		Set("tgtLang", marshal.String(m.TgtLang)).
		Set("usePnc", marshal.Bool(boolOr(m.UsePnc, true)))
}

func (m *OfflineWenetCtc) offlineRecord() (string, *marshal.Record) {
	return "wenetCtc", single(layout.OfflineWenetCtcModelConfig, m.Model)
}

func (m *OfflineOmnilingual) offlineRecord() (string, *marshal.Record) {
	return "omnilingual", single(layout.OfflineOmnilingualAsrCtcModelConfig, m.Model)
}

func (m *OfflineTeleSpeechCtc) offlineRecord() (string, *marshal.Record) {
	return "teleSpeechCtc", nil
}

// OfflineModelConfig is the batch model selection plus shared settings.
type OfflineModelConfig struct {
	Family       OfflineModel `yaml:"-" json:"-"`
	Debug        *bool        `yaml:"debug" json:"debug,omitempty"`
	Tokens       string       `yaml:"tokens" json:"tokens"`
	Provider     string       `yaml:"provider" json:"provider,omitempty"`
	ModelType    string       `yaml:"model_type" json:"model_type,omitempty"`
	ModelingUnit string       `yaml:"modeling_unit" json:"modeling_unit,omitempty"`
	BpeVocab     string       `yaml:"bpe_vocab" json:"bpe_vocab,omitempty"`
	NumThreads   int32        `yaml:"num_threads" json:"num_threads,omitempty"`
}

// absentOffline holds the sub-struct values used for families that are not
// selected. Whisper's tail padding is -1 here, not the selected default.
func absentOffline() []OfflineModel {
	return []OfflineModel{
		&OfflineTransducer{},
		&OfflineParaformer{},
		&OfflineNemoCtc{},
		&OfflineWhisper{TailPaddings: -1},
		&OfflineTdnn{},
		&OfflineSenseVoice{},
		&OfflineMoonshine{},
		&OfflineFireRedAsr{},
		&OfflineDolphin{},
		&OfflineZipformerCtc{},
		&OfflineCanary{},
		&OfflineWenetCtc{},
		&OfflineOmnilingual{},
	}
}

func (c OfflineModelConfig) record() *marshal.Record {
	r := marshal.NewRecord(layout.OfflineModelConfig)
	for _, f := range absentOffline() {
		name, sub := f.offlineRecord()
		r.Set(name, marshal.Nested(sub))
	}

	teleSpeech := ""
	switch fam := c.Family.(type) {
	case nil:
	case *OfflineTeleSpeechCtc:
		teleSpeech = fam.Model
	default:
		name, sub := fam.offlineRecord()
		r.Set(name, marshal.Nested(sub))
	}

	return r.
		Set("tokens", marshal.String(c.Tokens)).
		Set("numThreads", marshal.Int(cmp.Or(c.NumThreads, DefaultNumThreads))).
		Set("debug", marshal.Bool(boolOr(c.Debug, true))).
		Set("provider", marshal.String(cmp.Or(c.Provider, DefaultProvider))).
		Set("modelType", marshal.String(c.ModelType)).
		Set("modelingUnit", marshal.String(c.ModelingUnit)).
		Set("bpeVocab", marshal.String(c.BpeVocab)).
		Set("teleSpeechCtc", marshal.String(teleSpeech))
}

// LMConfig configures an external language model for batch decoding.
type LMConfig struct {
	Model string  `yaml:"model" json:"model,omitempty"`
	Scale float32 `yaml:"scale" json:"scale,omitempty"`
}

func (c LMConfig) record() *marshal.Record {
	return marshal.NewRecord(layout.OfflineLMConfig).
		Set("model", marshal.String(c.Model)).
		Set("scale", marshal.Float(cmp.Or(c.Scale, DefaultLMScale)))
}

// OfflineRecognizerConfig configures a batch recognizer.
type OfflineRecognizerConfig struct {
	Model             OfflineModelConfig      `yaml:"model" json:"model"`
	LM                LMConfig                `yaml:"lm" json:"lm"`
	HomophoneReplacer HomophoneReplacerConfig `yaml:"hr" json:"hr"`
	DecodingMethod    string                  `yaml:"decoding_method" json:"decoding_method,omitempty"`
	HotwordsFile      string                  `yaml:"hotwords_file" json:"hotwords_file,omitempty"`
	RuleFsts          string                  `yaml:"rule_fsts" json:"rule_fsts,omitempty"`
	RuleFars          string                  `yaml:"rule_fars" json:"rule_fars,omitempty"`
	Feat              FeatureConfig           `yaml:"feat" json:"feat"`
	MaxActivePaths    int32                   `yaml:"max_active_paths" json:"max_active_paths,omitempty"`
	HotwordsScore     float32                 `yaml:"hotwords_score" json:"hotwords_score,omitempty"`
	BlankPenalty      float32                 `yaml:"blank_penalty" json:"blank_penalty,omitempty"`
}

// SampleRate is the feature sample rate after defaults.
func (c OfflineRecognizerConfig) SampleRate() int32 {
	return cmp.Or(c.Feat.SampleRate, DefaultSampleRate)
}

// Record builds the fully defaulted record for the engine struct.
func (c OfflineRecognizerConfig) Record() *marshal.Record {
	return marshal.NewRecord(layout.OfflineRecognizerConfig).
		Set("featConfig", marshal.Nested(c.Feat.record())).
		Set("modelConfig", marshal.Nested(c.Model.record())).
		Set("lmConfig", marshal.Nested(c.LM.record())).
		Set("decodingMethod", marshal.String(cmp.Or(c.DecodingMethod, DefaultDecodingMethod))).
		Set("maxActivePaths", marshal.Int(cmp.Or(c.MaxActivePaths, DefaultMaxActivePaths))).
		Set("hotwordsFile", marshal.String(c.HotwordsFile)).
		Set("hotwordsScore", marshal.Float(cmp.Or(c.HotwordsScore, DefaultHotwordsScore))).
		Set("ruleFsts", marshal.String(c.RuleFsts)).
		Set("ruleFars", marshal.String(c.RuleFars)).
		Set("blankPenalty", marshal.Float(c.BlankPenalty)).
		Set("hr", marshal.Nested(c.HomophoneReplacer.record()))
}
