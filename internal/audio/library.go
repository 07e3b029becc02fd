package audio

import (
	"errors"
	"maps"
	"slices"
	"sync"
)

// Library holds preloaded handles by track index. Taking a handle transfers ownership to the caller.
type Library struct {
	mu    sync.Mutex
	items map[int]Media
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{items: make(map[int]Media)}
}

// Put stores m for index, closing any handle it replaces.
func (l *Library) Put(index int, m Media) {
	l.mu.Lock()
	old := l.items[index]
	l.items[index] = m
	l.mu.Unlock()

	if old != nil && old != m {
		old.Close()
	}
}

// Take removes and returns the handle for index.
func (l *Library) Take(index int) (Media, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.items[index]
	if ok {
		delete(l.items, index)
	}
	return m, ok
}

// Has reports whether a handle is stored for index.
func (l *Library) Has(index int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.items[index]
	return ok
}

// Len returns the number of stored handles.
func (l *Library) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Indices returns the stored indices, ascending.
func (l *Library) Indices() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Sorted(maps.Keys(l.items))
}

// Close closes and removes every stored handle.
func (l *Library) Close() error {
	l.mu.Lock()
	items := l.items
	l.items = make(map[int]Media)
	l.mu.Unlock()

	var errs []error
	for _, m := range items {
		if err := m.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
