// Package audio prepares sample data for the recognizers: rate conversion,
// fixed-size chunking, int16 and float32 conversion, WAV files and
// microphone capture.
//
// Recognizers take mono float32 samples in [-1, 1]. DecodeWAV and Capturer
// both produce that format.
package audio
