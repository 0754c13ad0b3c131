// Package transcribe drives the asr recognizers for the two common jobs:
// live transcription of a sample stream with endpoint-based sentence
// splitting, and recognition of a complete recording.
//
// Streaming keeps one online stream alive across Push calls. Each Push
// decodes what is ready, reports the partial text and, when the engine
// detects an endpoint, moves the partial text to the list of finals and
// starts a new utterance.
//
// FileRecognizer creates a fresh stream per call and frees it on return.
// It serializes calls, so one FileRecognizer can back a server.
package transcribe
