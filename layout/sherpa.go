package layout

// Shared sub-structs.
var (
	FeatureConfig = &Struct{Name: "FeatureConfig", Fields: []Field{
		I("sampleRate"), I("featureDim"),
	}}

	HomophoneReplacerConfig = &Struct{Name: "HomophoneReplacerConfig", Fields: []Field{
		S("dictDir"), S("lexicon"), S("ruleFsts"),
	}}
)

// Streaming recognizer.
var (
	OnlineTransducerModelConfig = &Struct{Name: "OnlineTransducerModelConfig", Fields: []Field{
		S("encoder"), S("decoder"), S("joiner"),
	}}

	OnlineParaformerModelConfig = &Struct{Name: "OnlineParaformerModelConfig", Fields: []Field{
		S("encoder"), S("decoder"),
	}}

	OnlineZipformer2CtcModelConfig = &Struct{Name: "OnlineZipformer2CtcModelConfig", Fields: []Field{
		S("model"),
	}}

	OnlineNemoCtcModelConfig = &Struct{Name: "OnlineNemoCtcModelConfig", Fields: []Field{
		S("model"),
	}}

	OnlineToneCtcModelConfig = &Struct{Name: "OnlineToneCtcModelConfig", Fields: []Field{
		S("model"),
	}}

	OnlineModelConfig = &Struct{Name: "OnlineModelConfig", Fields: []Field{
		N("transducer", OnlineTransducerModelConfig),
		N("paraformer", OnlineParaformerModelConfig),
		N("zipformer2Ctc", OnlineZipformer2CtcModelConfig),
		S("tokens"),
		I("numThreads"),
		S("provider"),
		I("debug"),
		S("modelType"),
		S("modelingUnit"),
		S("bpeVocab"),
		S("tokensBuf"),
		I("tokensBufSize"),
		N("nemoCtc", OnlineNemoCtcModelConfig),
		N("toneCtc", OnlineToneCtcModelConfig),
	}}

	OnlineCtcFstDecoderConfig = &Struct{Name: "OnlineCtcFstDecoderConfig", Fields: []Field{
		S("graph"), I("maxActive"),
	}}

	OnlineRecognizerConfig = &Struct{Name: "OnlineRecognizerConfig", Fields: []Field{
		N("featConfig", FeatureConfig),
		N("modelConfig", OnlineModelConfig),
		S("decodingMethod"),
		I("maxActivePaths"),
		I("enableEndpoint"),
		F("rule1MinTrailingSilence"),
		F("rule2MinTrailingSilence"),
		F("rule3MinUtteranceLength"),
		S("hotwordsFile"),
		F("hotwordsScore"),
		N("ctcFstDecoderConfig", OnlineCtcFstDecoderConfig),
		S("ruleFsts"),
		S("ruleFars"),
		F("blankPenalty"),
		S("hotwordsBuf"),
		I("hotwordsBufSize"),
		N("hr", HomophoneReplacerConfig),
	}}
)

// Batch recognizer.
var (
	OfflineTransducerModelConfig = &Struct{Name: "OfflineTransducerModelConfig", Fields: []Field{
		S("encoder"), S("decoder"), S("joiner"),
	}}

	OfflineParaformerModelConfig = &Struct{Name: "OfflineParaformerModelConfig", Fields: []Field{
		S("model"),
	}}

	OfflineNemoEncDecCtcModelConfig = &Struct{Name: "OfflineNemoEncDecCtcModelConfig", Fields: []Field{
		S("model"),
	}}

	OfflineWhisperModelConfig = &Struct{Name: "OfflineWhisperModelConfig", Fields: []Field{
		S("encoder"), S("decoder"), S("language"), S("task"), I("tailPaddings"),
	}}

	OfflineTdnnModelConfig = &Struct{Name: "OfflineTdnnModelConfig", Fields: []Field{
		S("model"),
	}}

	OfflineSenseVoiceModelConfig = &Struct{Name: "OfflineSenseVoiceModelConfig", Fields: []Field{
		S("model"), S("language"), I("useInverseTextNormalization"),
	}}

	OfflineMoonshineModelConfig = &Struct{Name: "OfflineMoonshineModelConfig", Fields: []Field{
		S("preprocessor"), S("encoder"), S("uncachedDecoder"), S("cachedDecoder"),
	}}

	OfflineFireRedAsrModelConfig = &Struct{Name: "OfflineFireRedAsrModelConfig", Fields: []Field{
		S("encoder"), S("decoder"),
	}}

	OfflineDolphinModelConfig = &Struct{Name: "OfflineDolphinModelConfig", Fields: []Field{
		S("model"),
	}}

	OfflineZipformerCtcModelConfig = &Struct{Name: "OfflineZipformerCtcModelConfig", Fields: []Field{
		S("model"),
	}}

	OfflineCanaryModelConfig = &Struct{Name: "OfflineCanaryModelConfig", Fields: []Field{
		S("encoder"), S("decoder"), S("srcLang"), S("tgtLang"), I("usePnc"),
	}}

	OfflineWenetCtcModelConfig = &Struct{Name: "OfflineWenetCtcModelConfig", Fields: []Field{
		S("model"),
	}}

	OfflineOmnilingualAsrCtcModelConfig = &Struct{Name: "OfflineOmnilingualAsrCtcModelConfig", Fields: []Field{
		S("model"),
	}}

	OfflineLMConfig = &Struct{Name: "OfflineLMConfig", Fields: []Field{
		S("model"), F("scale"),
	}}

	OfflineModelConfig = &Struct{Name: "OfflineModelConfig", Fields: []Field{
		N("transducer", OfflineTransducerModelConfig),
		N("paraformer", OfflineParaformerModelConfig),
		N("nemoCtc", OfflineNemoEncDecCtcModelConfig),
		N("whisper", OfflineWhisperModelConfig),
		N("tdnn", OfflineTdnnModelConfig),
		S("tokens"),
		I("numThreads"),
		I("debug"),
		S("provider"),
		S("modelType"),
		S("modelingUnit"),
		S("bpeVocab"),
		S("teleSpeechCtc"),
		N("senseVoice", OfflineSenseVoiceModelConfig),
		N("moonshine", OfflineMoonshineModelConfig),
		N("fireRedAsr", OfflineFireRedAsrModelConfig),
		N("dolphin", OfflineDolphinModelConfig),
		N("zipformerCtc", OfflineZipformerCtcModelConfig),
		N("canary", OfflineCanaryModelConfig),
		N("wenetCtc", OfflineWenetCtcModelConfig),
		N("omnilingual", OfflineOmnilingualAsrCtcModelConfig),
	}}

	OfflineRecognizerConfig = &Struct{Name: "OfflineRecognizerConfig", Fields: []Field{
		N("featConfig", FeatureConfig),
		N("modelConfig", OfflineModelConfig),
		N("lmConfig", OfflineLMConfig),
		S("decodingMethod"),
		I("maxActivePaths"),
		S("hotwordsFile"),
		F("hotwordsScore"),
		S("ruleFsts"),
		S("ruleFars"),
		F("blankPenalty"),
		N("hr", HomophoneReplacerConfig),
	}}
)
