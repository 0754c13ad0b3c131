package resource

import (
	"sort"
	"sync"
)

// UnifiedTable is the registry recognizers and streams are inserted into.
// Removing an owner removes what it owns first.
type UnifiedTable struct {
	store    *LocalBackend
	watchers map[int]func(Event)
	nextID   int
	mu       sync.RWMutex
}

// NewTable creates an empty table.
func NewTable() *UnifiedTable {
	return &UnifiedTable{
		store:    NewLocalBackend(),
		watchers: make(map[int]func(Event)),
	}
}

// Insert adds value owned by owner (0 for none) and returns its handle.
func (t *UnifiedTable) Insert(kind Kind, owner Handle, value any) (Handle, error) {
	h, err := t.store.Create(kind, owner, value)
	if err != nil {
		return 0, err
	}
	t.emit(Event{Op: OpInserted, Handle: h, Owner: owner, Kind: kind, Value: value})
	return h, nil
}

// Get returns the value behind a live handle.
func (t *UnifiedTable) Get(h Handle) (any, bool) {
	return t.store.Get(h)
}

// GetTyped is Get restricted to one kind.
func (t *UnifiedTable) GetTyped(h Handle, kind Kind) (any, bool) {
	if k, ok := t.store.Kind(h); !ok || k != kind {
		return nil, false
	}
	return t.store.Get(h)
}

func (t *UnifiedTable) Children(h Handle) []Handle {
	return t.store.Children(h)
}

// Remove drops h after everything it owns. Dropper values are told
// child-first. It reports false for a handle that is not live.
func (t *UnifiedTable) Remove(h Handle) (any, bool) {
	for _, child := range t.store.Children(h) {
		t.Remove(child)
	}

	kind, _ := t.store.Kind(h)
	owner, _ := t.store.Parent(h)
	value, ok := t.store.Drop(h)
	if !ok {
		return nil, false
	}
	if d, ok := value.(Dropper); ok {
		d.Drop()
	}
	t.emit(Event{Op: OpRemoved, Handle: h, Owner: owner, Kind: kind, Value: value})
	return value, true
}

// Watch calls fn after every insert and remove until the returned cancel
// function is called. fn runs on the mutating goroutine.
func (t *UnifiedTable) Watch(fn func(Event)) (cancel func()) {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.watchers[id] = fn
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.watchers, id)
			t.mu.Unlock()
		})
	}
}

func (t *UnifiedTable) emit(e Event) {
	t.mu.RLock()
	fns := make([]func(Event), 0, len(t.watchers))
	ids := make([]int, 0, len(t.watchers))
	for id := range t.watchers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, t.watchers[id])
	}
	t.mu.RUnlock()

	for _, fn := range fns {
		fn(e)
	}
}

// Len returns the number of live handles.
func (t *UnifiedTable) Len() int {
	return t.store.Len()
}

// Census counts live handles per kind. Kinds with no live handles are absent.
func (t *UnifiedTable) Census() map[Kind]int {
	out := make(map[Kind]int)
	t.store.Each(func(_ Handle, k Kind, _ any) bool {
		out[k]++
		return true
	})
	return out
}

// Clear removes every root handle and, through them, everything else.
func (t *UnifiedTable) Clear() {
	var roots []Handle
	t.store.Each(func(h Handle, _ Kind, _ any) bool {
		if p, ok := t.store.Parent(h); ok && p == 0 {
			roots = append(roots, h)
		}
		return true
	})
	for _, h := range roots {
		t.Remove(h)
	}
}

// Close clears the table and rejects further inserts with ErrClosed.
func (t *UnifiedTable) Close() error {
	t.store.seal()
	t.Clear()
	return t.store.Close()
}
