// Package asr is the recognizer surface of the binding.
//
// Configs are plain Go structs with zero values meaning "use the default".
// Record turns a config into a fully defaulted marshal.Record; the
// recognizer constructors encode it, hand it to the engine and release it
// before returning.
//
// Recognizers own their streams. Freeing a recognizer frees every stream it
// created, and any later use of either fails with an invalid-handle error:
//
//	rec, err := asr.NewOnlineRecognizer(ctx, eng.Native(), cfg)
//	if err != nil {
//		return err
//	}
//	defer rec.Free(ctx)
//
//	stream, err := rec.CreateStream(ctx)
//	...
//	_ = stream.AcceptWaveform(ctx, 16000, samples)
//	_, _ = stream.Drain(ctx)
//	res, err := stream.Result(ctx)
//
// Every recognizer and stream is also registered in a resource table
// (DefaultTable unless WithTable is given) so a host can tear everything
// down at once with Close.
package asr
