package asr

import (
	"github.com/wippyai/sherpa-wasm/resource"
)

var defaultTable = resource.NewTable()

// DefaultTable is the registry used when no WithTable option is given.
func DefaultTable() *resource.UnifiedTable {
	return defaultTable
}

type options struct {
	table *resource.UnifiedTable
}

// Option configures recognizer construction.
type Option func(*options)

// WithTable registers the recognizer and its streams in t.
func WithTable(t *resource.UnifiedTable) Option {
	return func(o *options) {
		o.table = t
	}
}

func buildOptions(opts []Option) options {
	o := options{table: defaultTable}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
