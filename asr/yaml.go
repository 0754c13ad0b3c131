package asr

import (
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/sherpa-wasm/errors"
)

var onlineFamilies = map[string]func() OnlineModel{
	"transducer":     func() OnlineModel { return &OnlineTransducer{} },
	"paraformer":     func() OnlineModel { return &OnlineParaformer{} },
	"zipformer2_ctc": func() OnlineModel { return &OnlineZipformer2Ctc{} },
	"nemo_ctc":       func() OnlineModel { return &OnlineNemoCtc{} },
	"tone_ctc":       func() OnlineModel { return &OnlineToneCtc{} },
}

var offlineFamilies = map[string]func() OfflineModel{
	"transducer":     func() OfflineModel { return &OfflineTransducer{} },
	"paraformer":     func() OfflineModel { return &OfflineParaformer{} },
	"nemo_ctc":       func() OfflineModel { return &OfflineNemoCtc{} },
	"whisper":        func() OfflineModel { return &OfflineWhisper{} },
	"tdnn":           func() OfflineModel { return &OfflineTdnn{} },
	"sense_voice":    func() OfflineModel { return &OfflineSenseVoice{} },
	"moonshine":      func() OfflineModel { return &OfflineMoonshine{} },
	"fire_red_asr":   func() OfflineModel { return &OfflineFireRedAsr{} },
	"dolphin":        func() OfflineModel { return &OfflineDolphin{} },
	"zipformer_ctc":  func() OfflineModel { return &OfflineZipformerCtc{} },
	"canary":         func() OfflineModel { return &OfflineCanary{} },
	"wenet_ctc":      func() OfflineModel { return &OfflineWenetCtc{} },
	"omnilingual":    func() OfflineModel { return &OfflineOmnilingual{} },
	"telespeech_ctc": func() OfflineModel { return &OfflineTeleSpeechCtc{} },
}

// OnlineFamilies lists the accepted streaming family names.
func OnlineFamilies() []string { return keys(onlineFamilies) }

// OfflineFamilies lists the accepted batch family names.
func OfflineFamilies() []string { return keys(offlineFamilies) }

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type familyTag struct {
	Type string `yaml:"type"`
}

// UnmarshalYAML reads the shared fields and the family named by "type";
// family fields sit beside the shared ones.
func (c *OnlineModelConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain OnlineModelConfig
	var tag familyTag
	if err := node.Decode(&tag); err != nil {
		return err
	}
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*c = OnlineModelConfig(p)
	if tag.Type == "" {
		return nil
	}

	ctor, ok := onlineFamilies[tag.Type]
	if !ok {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path("model", "type").
			Value(tag.Type).
			Detail("unknown streaming model family %q", tag.Type).
			Build()
	}
	fam := ctor()
	if err := node.Decode(fam); err != nil {
		return err
	}
	c.Family = fam
	return nil
}

func (c *OfflineModelConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain OfflineModelConfig
	var tag familyTag
	if err := node.Decode(&tag); err != nil {
		return err
	}
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*c = OfflineModelConfig(p)
	if tag.Type == "" {
		return nil
	}

	ctor, ok := offlineFamilies[tag.Type]
	if !ok {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path("model", "type").
			Value(tag.Type).
			Detail("unknown batch model family %q", tag.Type).
			Build()
	}
	fam := ctor()
	if err := node.Decode(fam); err != nil {
		return err
	}
	c.Family = fam
	return nil
}

func (c OnlineModelConfig) MarshalYAML() (any, error) {
	type plain OnlineModelConfig
	return mergeFamily(plain(c), c.Family)
}

func (c OfflineModelConfig) MarshalYAML() (any, error) {
	type plain OfflineModelConfig
	return mergeFamily(plain(c), c.Family)
}

// mergeFamily renders shared fields and family fields as one mapping with
// the family name under "type".
func mergeFamily(shared any, family interface{ Family() string }) (*yaml.Node, error) {
	var out yaml.Node
	if err := out.Encode(shared); err != nil {
		return nil, err
	}
	if family == nil {
		return &out, nil
	}

	var fam yaml.Node
	if err := fam.Encode(family); err != nil {
		return nil, err
	}
	head := []*yaml.Node{
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: "type"},
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: family.Family()},
	}
	out.Content = append(append(head, fam.Content...), out.Content...)
	return &out, nil
}
