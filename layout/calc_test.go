package layout

import "testing"

func TestCalculate_Sizes(t *testing.T) {
	tests := []struct {
		s     *Struct
		name  string
		size  uint32
		slots int
	}{
		{FeatureConfig, "feature", 8, 2},
		{OnlineTransducerModelConfig, "online transducer", 12, 3},
		{OnlineCtcFstDecoderConfig, "ctc fst", 8, 2},
		{HomophoneReplacerConfig, "hr", 12, 3},
		{OfflineWhisperModelConfig, "whisper", 20, 5},
		{OfflineLMConfig, "lm", 8, 2},
		// 3+2+1 nested, 9 scalars, 1+1 nested
		{OnlineModelConfig, "online model", 4 * 17, 17},
		// 2 + 17 + 8 + 2 + 5 + 3
		{OnlineRecognizerConfig, "online recognizer", 4 * 37, 37},
		// 3+1+1+5+1 + 8 + 3+4+2+1+1+5+1+1
		{OfflineModelConfig, "offline model", 4 * 37, 37},
		// 2 + 37 + 2 + 7 + 3
		{OfflineRecognizerConfig, "offline recognizer", 4 * 51, 51},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := Of(tt.s)
			if info.Size != tt.size {
				t.Errorf("Size = %d, want %d", info.Size, tt.size)
			}
			if got := tt.s.Slots(); got != tt.slots {
				t.Errorf("Slots = %d, want %d", got, tt.slots)
			}
			if info.Size != uint32(tt.s.Slots())*SlotSize {
				t.Errorf("size %d is not slots*4", info.Size)
			}
		})
	}
}

func TestCalculate_FieldOffsets(t *testing.T) {
	info := Of(OnlineRecognizerConfig)

	tests := []struct {
		field string
		want  uint32
	}{
		{"featConfig", 0},
		{"modelConfig", 8},
		{"decodingMethod", 8 + 68},
		{"maxActivePaths", 8 + 68 + 4},
		{"ctcFstDecoderConfig", 8 + 68 + 4*8},
		{"ruleFsts", 8 + 68 + 4*8 + 8},
		{"hr", 8 + 68 + 4*8 + 8 + 4*5},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			if got := info.FieldOffs[tt.field]; got != tt.want {
				t.Errorf("offset of %s = %d, want %d", tt.field, got, tt.want)
			}
		})
	}
}

func TestCalculate_StringCount(t *testing.T) {
	if got := Of(OfflineCanaryModelConfig).Strings; got != 4 {
		t.Errorf("canary strings = %d, want 4", got)
	}
	if got := Of(OnlineModelConfig).Strings; got != 6 {
		t.Errorf("online model strings = %d, want 6", got)
	}
}

func TestCalculator_Caches(t *testing.T) {
	c := NewCalculator()
	a := c.Calculate(OfflineRecognizerConfig)
	b := c.Calculate(OfflineRecognizerConfig)
	if a.Size != b.Size || len(c.cache) == 0 {
		t.Fatal("expected cached info")
	}
	if _, ok := c.cache[OfflineModelConfig]; !ok {
		t.Error("nested struct was not cached")
	}
}

func TestStruct_Field(t *testing.T) {
	f, ok := OfflineModelConfig.Field("whisper")
	if !ok || f.Kind != KindStruct || f.Struct != OfflineWhisperModelConfig {
		t.Fatalf("unexpected field %+v", f)
	}
	if _, ok := OfflineModelConfig.Field("nope"); ok {
		t.Error("unknown field reported present")
	}
}
