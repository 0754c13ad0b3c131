package layout

// SlotSize is the width of every scalar slot in bytes.
const SlotSize = 4

// Kind is the ABI class of a field.
type Kind uint8

const (
	KindString Kind = iota + 1 // char*, NUL-terminated UTF-8
	KindI32
	KindF32
	KindStruct // nested struct, flattened in place
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindI32:
		return "i32"
	case KindF32:
		return "f32"
	case KindStruct:
		return "struct"
	default:
		return "unknown"
	}
}

// Field is one named member of a Struct.
type Field struct {
	Struct *Struct // set only for KindStruct
	Name   string
	Kind   Kind
}

// Struct is an ordered C struct declaration.
type Struct struct {
	Name   string
	Fields []Field
}

// Info is the computed shape of a Struct.
type Info struct {
	FieldOffs map[string]uint32
	Size      uint32
	Strings   int // string slots at this level, nested structs excluded
}

func S(name string) Field { return Field{Name: name, Kind: KindString} }

func I(name string) Field { return Field{Name: name, Kind: KindI32} }

func F(name string) Field { return Field{Name: name, Kind: KindF32} }

func N(name string, s *Struct) Field { return Field{Name: name, Kind: KindStruct, Struct: s} }

// Field returns the field with the given name.
func (s *Struct) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Slots counts the flattened 32-bit slots of s.
func (s *Struct) Slots() int {
	n := 0
	for _, f := range s.Fields {
		if f.Kind == KindStruct {
			n += f.Struct.Slots()
			continue
		}
		n++
	}
	return n
}
