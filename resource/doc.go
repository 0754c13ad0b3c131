// Package resource tracks live engine objects and who owns them.
//
// Every recognizer and stream created through the asr package is inserted
// into a Table. A stream is owned by the recognizer it was created from, so
// removing a recognizer first removes its streams:
//
//	rec, _ := table.Insert(resource.KindOnlineRecognizer, 0, recognizer)
//	s, _ := table.Insert(resource.KindOnlineStream, rec, stream)
//	table.Remove(rec) // drops s, then rec
//
// Values implementing Dropper are told when they leave the table, which is
// how a stream learns that its recognizer went away.
//
// Watch delivers an Event for every insert and remove; Census counts what
// is still live, which sherpa-run reports as leaks on shutdown.
//
// Handles are never reused within a table.
package resource
