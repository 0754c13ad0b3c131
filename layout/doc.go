// Package layout declares the engine's C configuration structs as data.
//
// Every field of every struct occupies one 32-bit slot: a char* pointer, an
// int32 or a float. Nested structs are flattened into their parent, so a struct's
// size is four bytes per scalar slot plus the size of each nested struct.
// The Calculator derives sizes and byte offsets from these declarations and
// caches them per struct.
package layout
