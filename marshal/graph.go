package marshal

import (
	"go.uber.org/zap"

	sherpawasm "github.com/wippyai/sherpa-wasm"
	"github.com/wippyai/sherpa-wasm/errors"
)

// Graph owns every buffer produced by one Encode call.
// It must be released exactly once, after the consuming native call returns.
type Graph struct {
	heap     sherpawasm.Heap
	root     *Block
	released bool
}

// Ptr is the address of the top-level struct.
func (g *Graph) Ptr() uint32 {
	return g.root.Ptr
}

// Root returns the top-level block.
func (g *Graph) Root() *Block {
	return g.root
}

// Addresses lists every buffer owned by the graph, children before parents.
func (g *Graph) Addresses() []uint32 {
	var out []uint32
	walk(g.root, func(b *Block) {
		if b.Strings != 0 {
			out = append(out, b.Strings)
		}
		out = append(out, b.Ptr)
	})
	return out
}

// Released reports whether Release has been called.
func (g *Graph) Released() bool {
	return g.released
}

// Release frees every buffer of the graph. A second call returns a
// double-release error and frees nothing.
func (g *Graph) Release() error {
	if g.released {
		return errors.DoubleRelease()
	}
	g.released = true

	var firstErr error
	walk(g.root, func(b *Block) {
		if b.Strings != 0 {
			if err := g.heap.Free(b.Strings); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		if err := g.heap.Free(b.Ptr); err != nil && firstErr == nil {
			firstErr = err
		}
	})
	if firstErr != nil {
		return errors.Wrap(errors.PhaseRelease, errors.KindCall, firstErr, "free")
	}
	return nil
}

func walk(b *Block, fn func(*Block)) {
	for _, c := range b.Children {
		walk(c, fn)
	}
	fn(b)
}

// WithEncoded encodes rec, passes the root pointer to fn and releases the
// graph on every exit path, including a panic in fn.
func WithEncoded(heap sherpawasm.Heap, rec *Record, fn func(ptr uint32) error) (err error) {
	g, err := NewEncoder(heap).Encode(rec)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := g.Release(); rerr != nil {
			if err == nil {
				err = rerr
				return
			}
			Logger().Warn("release after failed call", zap.Error(rerr))
		}
	}()
	return fn(g.Ptr())
}
