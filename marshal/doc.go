// Package marshal encodes configuration records into engine memory.
//
// One Encode call produces an allocation Graph: for every struct level a string
// buffer holding each of that level's strings NUL-terminated and back to back,
// and a struct buffer whose pointer slots point into that string buffer. Nested
// structs are encoded first and their struct bytes copied into the parent slot
// range. The caller passes the root pointer to a create call and releases the
// graph exactly once afterwards:
//
//	err := marshal.WithEncoded(heap, rec, func(ptr uint32) error {
//		h, err := native.CreateOnlineRecognizer(ctx, ptr)
//		...
//	})
//
// If any allocation fails midway the buffers obtained so far are freed before
// the error is returned.
package marshal
