package asr

import (
	"cmp"

	"github.com/wippyai/sherpa-wasm/layout"
	"github.com/wippyai/sherpa-wasm/marshal"
)

// Defaults applied to omitted (zero) values.
const (
	DefaultSampleRate     = 16000
	DefaultFeatureDim     = 80
	DefaultNumThreads     = 1
	DefaultProvider       = "cpu"
	DefaultDecodingMethod = "greedy_search"
	DefaultMaxActivePaths = 4
	DefaultRule1          = 2.4
	DefaultRule2          = 1.2
	DefaultRule3          = 20
	DefaultHotwordsScore  = 1.5
	DefaultCtcMaxActive   = 3000
	DefaultTailPaddings   = 2000
	DefaultLMScale        = 1
)

// FeatureConfig selects the front-end feature extraction.
type FeatureConfig struct {
	SampleRate int32 `yaml:"sample_rate" json:"sample_rate,omitempty"`
	FeatureDim int32 `yaml:"feature_dim" json:"feature_dim,omitempty"`
}

// HomophoneReplacerConfig configures post-recognition homophone replacement.
type HomophoneReplacerConfig struct {
	Lexicon  string `yaml:"lexicon" json:"lexicon,omitempty"`
	RuleFsts string `yaml:"rule_fsts" json:"rule_fsts,omitempty"`
}

// CtcFstDecoderConfig configures the streaming CTC FST decoder.
type CtcFstDecoderConfig struct {
	Graph     string `yaml:"graph" json:"graph,omitempty"`
	MaxActive int32  `yaml:"max_active" json:"max_active,omitempty"`
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func (c FeatureConfig) record() *marshal.Record {
	return marshal.NewRecord(layout.FeatureConfig).
		Set("sampleRate", marshal.Int(cmp.Or(c.SampleRate, DefaultSampleRate))).
		Set("featureDim", marshal.Int(cmp.Or(c.FeatureDim, DefaultFeatureDim)))
}

func (c HomophoneReplacerConfig) record() *marshal.Record {
	return marshal.NewRecord(layout.HomophoneReplacerConfig).
		Set("dictDir", marshal.String("")).
		Set("lexicon", marshal.String(c.Lexicon)).
		Set("ruleFsts", marshal.String(c.RuleFsts))
}

func (c CtcFstDecoderConfig) record() *marshal.Record {
	return marshal.NewRecord(layout.OnlineCtcFstDecoderConfig).
		Set("graph", marshal.String(c.Graph)).
		Set("maxActive", marshal.Int(cmp.Or(c.MaxActive, DefaultCtcMaxActive)))
}
