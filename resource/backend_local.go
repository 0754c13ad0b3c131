package resource

import (
	"errors"
	"sync"
)

var (
	ErrClosed      = errors.New("resource table closed")
	ErrDeadParent  = errors.New("owner handle is not live")
	ErrNilResource = errors.New("nil resource value")
)

// LocalBackend is the in-process store behind UnifiedTable. Handles grow
// monotonically, so a freed handle never aliases a newer object.
type LocalBackend struct {
	entries map[Handle]*entry
	next    Handle
	mu      sync.RWMutex
	sealed  bool
}

type entry struct {
	value  any
	owned  map[Handle]struct{}
	parent Handle
	kind   Kind
}

func NewLocalBackend() *LocalBackend {
	return &LocalBackend{entries: make(map[Handle]*entry, 8)}
}

// Create stores value under a fresh handle. A non-zero parent must be live.
func (b *LocalBackend) Create(kind Kind, parent Handle, value any) (Handle, error) {
	if value == nil {
		return 0, ErrNilResource
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sealed {
		return 0, ErrClosed
	}
	var owner *entry
	if parent != 0 {
		owner = b.entries[parent]
		if owner == nil {
			return 0, ErrDeadParent
		}
	}

	b.next++
	b.entries[b.next] = &entry{kind: kind, parent: parent, value: value}
	if owner != nil {
		if owner.owned == nil {
			owner.owned = make(map[Handle]struct{}, 1)
		}
		owner.owned[b.next] = struct{}{}
	}
	return b.next, nil
}

func (b *LocalBackend) lookup(h Handle) (*entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.entries[h]
	return e, ok
}

func (b *LocalBackend) Get(h Handle) (any, bool) {
	e, ok := b.lookup(h)
	if !ok {
		return nil, false
	}
	return e.value, true
}

func (b *LocalBackend) Kind(h Handle) (Kind, bool) {
	e, ok := b.lookup(h)
	if !ok {
		return 0, false
	}
	return e.kind, true
}

// Parent returns the owner of h; 0 for roots and orphans.
func (b *LocalBackend) Parent(h Handle) (Handle, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.entries[h]
	if !ok {
		return 0, false
	}
	return e.parent, true
}

func (b *LocalBackend) Children(h Handle) []Handle {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.entries[h]
	if !ok || len(e.owned) == 0 {
		return nil
	}
	out := make([]Handle, 0, len(e.owned))
	for c := range e.owned {
		out = append(out, c)
	}
	return out
}

// Drop removes h alone. Anything it owned becomes an orphan; the table
// cascades through Children before calling Drop.
func (b *LocalBackend) Drop(h Handle) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[h]
	if !ok {
		return nil, false
	}
	delete(b.entries, h)
	if owner := b.entries[e.parent]; owner != nil {
		delete(owner.owned, h)
	}
	for c := range e.owned {
		if ce := b.entries[c]; ce != nil {
			ce.parent = 0
		}
	}
	return e.value, true
}

func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

type liveEntry struct {
	value any
	h     Handle
	kind  Kind
}

// Each visits a snapshot of live handles until fn returns false. fn may
// mutate the backend.
func (b *LocalBackend) Each(fn func(h Handle, kind Kind, value any) bool) {
	b.mu.RLock()
	snap := make([]liveEntry, 0, len(b.entries))
	for h, e := range b.entries {
		snap = append(snap, liveEntry{value: e.value, h: h, kind: e.kind})
	}
	b.mu.RUnlock()

	for _, s := range snap {
		if !fn(s.h, s.kind, s.value) {
			return
		}
	}
}

func (b *LocalBackend) seal() {
	b.mu.Lock()
	b.sealed = true
	b.mu.Unlock()
}

// Close rejects further creates and forgets every entry without dropping it.
func (b *LocalBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sealed = true
	b.entries = make(map[Handle]*entry)
	return nil
}
