package marshal

import (
	"math"

	"github.com/wippyai/sherpa-wasm/layout"
)

// Value is the content of one field slot.
type Value struct {
	rec  *Record
	str  string
	num  uint32
	kind layout.Kind
}

func String(s string) Value { return Value{kind: layout.KindString, str: s} }

func Int(v int32) Value { return Value{kind: layout.KindI32, num: uint32(v)} }

func Bool(v bool) Value {
	if v {
		return Int(1)
	}
	return Int(0)
}

func Float(v float32) Value { return Value{kind: layout.KindF32, num: math.Float32bits(v)} }

func Nested(r *Record) Value { return Value{kind: layout.KindStruct, rec: r} }

// Kind reports the slot class the value was built for.
func (v Value) Kind() layout.Kind { return v.kind }

// Record is a set of named values for one struct layout. Fields not set
// encode as the zero value of their kind; nested structs not set encode as
// an all-zero struct with empty strings.
type Record struct {
	Layout *layout.Struct
	values map[string]Value
}

func NewRecord(l *layout.Struct) *Record {
	return &Record{Layout: l, values: make(map[string]Value, len(l.Fields))}
}

// Set assigns a field value and returns the record for chaining.
func (r *Record) Set(name string, v Value) *Record {
	r.values[name] = v
	return r
}

// Get returns the value assigned to name.
func (r *Record) Get(name string) (Value, bool) {
	v, ok := r.values[name]
	return v, ok
}

// StringValue returns the string held by v.
func (v Value) StringValue() string { return v.str }

// IntValue returns the int32 held by v.
func (v Value) IntValue() int32 { return int32(v.num) }

// FloatValue returns the float32 held by v.
func (v Value) FloatValue() float32 { return math.Float32frombits(v.num) }

// RecordValue returns the nested record held by v.
func (v Value) RecordValue() *Record { return v.rec }
