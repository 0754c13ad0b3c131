package engine

// Engine entry points. Emscripten may export each under its C name or with a
// leading underscore; lookups try both.
const (
	FnMalloc   = "malloc"
	FnFree     = "free"
	FnCopyHeap = "CopyHeap"

	FnCreateOnlineRecognizer        = "SherpaOnnxCreateOnlineRecognizer"
	FnDestroyOnlineRecognizer       = "SherpaOnnxDestroyOnlineRecognizer"
	FnCreateOnlineStream            = "SherpaOnnxCreateOnlineStream"
	FnDestroyOnlineStream           = "SherpaOnnxDestroyOnlineStream"
	FnOnlineStreamAcceptWaveform    = "SherpaOnnxOnlineStreamAcceptWaveform"
	FnIsOnlineStreamReady           = "SherpaOnnxIsOnlineStreamReady"
	FnDecodeOnlineStream            = "SherpaOnnxDecodeOnlineStream"
	FnOnlineStreamIsEndpoint        = "SherpaOnnxOnlineStreamIsEndpoint"
	FnOnlineStreamReset             = "SherpaOnnxOnlineStreamReset"
	FnOnlineStreamInputFinished     = "SherpaOnnxOnlineStreamInputFinished"
	FnGetOnlineStreamResultAsJSON   = "SherpaOnnxGetOnlineStreamResultAsJson"
	FnDestroyOnlineStreamResultJSON = "SherpaOnnxDestroyOnlineStreamResultJson"

	FnCreateOfflineRecognizer        = "SherpaOnnxCreateOfflineRecognizer"
	FnDestroyOfflineRecognizer       = "SherpaOnnxDestroyOfflineRecognizer"
	FnCreateOfflineStream            = "SherpaOnnxCreateOfflineStream"
	FnDestroyOfflineStream           = "SherpaOnnxDestroyOfflineStream"
	FnAcceptWaveformOffline          = "SherpaOnnxAcceptWaveformOffline"
	FnDecodeOfflineStream            = "SherpaOnnxDecodeOfflineStream"
	FnGetOfflineStreamResultAsJSON   = "SherpaOnnxGetOfflineStreamResultAsJson"
	FnDestroyOfflineStreamResultJSON = "SherpaOnnxDestroyOfflineStreamResultJson"
	FnOfflineRecognizerSetConfig     = "SherpaOnnxOfflineRecognizerSetConfig"
)

// HeapExports must be present for any use of the engine.
var HeapExports = []string{FnMalloc, FnFree}

// OnlineExports is the streaming surface.
var OnlineExports = []string{
	FnCreateOnlineRecognizer,
	FnDestroyOnlineRecognizer,
	FnCreateOnlineStream,
	FnDestroyOnlineStream,
	FnOnlineStreamAcceptWaveform,
	FnIsOnlineStreamReady,
	FnDecodeOnlineStream,
	FnOnlineStreamIsEndpoint,
	FnOnlineStreamReset,
	FnOnlineStreamInputFinished,
	FnGetOnlineStreamResultAsJSON,
	FnDestroyOnlineStreamResultJSON,
}

// OfflineExports is the batch surface. OfflineRecognizerSetConfig is optional
// within it.
var OfflineExports = []string{
	FnCreateOfflineRecognizer,
	FnDestroyOfflineRecognizer,
	FnCreateOfflineStream,
	FnDestroyOfflineStream,
	FnAcceptWaveformOffline,
	FnDecodeOfflineStream,
	FnGetOfflineStreamResultAsJSON,
	FnDestroyOfflineStreamResultJSON,
}

// exportCandidates lists the names a C symbol may be exported under.
func exportCandidates(name string) [2]string {
	return [2]string{name, "_" + name}
}
