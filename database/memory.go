package database

import (
	"context"
	"sync"
)

// MemoryStore keeps the whole tree in process. Used by tests and local runs.
type MemoryStore struct {
	mu   sync.Mutex
	root any
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(_ context.Context, p Path, out any) (bool, error) {
	if err := p.Validate(); err != nil {
		return false, err
	}
	s.mu.Lock()
	node, _ := lookup(s.root, p.segs)
	raw, err := encodeRaw(node)
	s.mu.Unlock()
	if err != nil {
		return false, err
	}
	tree, err := decodeTree(raw)
	if err != nil {
		return false, err
	}
	return decodeInto(tree, out)
}

func (s *MemoryStore) Set(_ context.Context, p Path, value any) error {
	if err := validateWrite(p); err != nil {
		return err
	}
	tree, err := toTree(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = assign(s.root, p.segs, tree)
	return nil
}

func (s *MemoryStore) List(_ context.Context, p Path) ([]Child, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	node, _ := lookup(s.root, p.segs)
	return childrenOf(node)
}

func (s *MemoryStore) Update(_ context.Context, p Path, fn UpdateFunc) error {
	if err := validateWrite(p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	node, _ := lookup(s.root, p.segs)
	current, err := encodeRaw(node)
	if err != nil {
		return err
	}
	next, err := fn(current)
	if err != nil || next == nil {
		return err
	}
	tree, err := toTree(next)
	if err != nil {
		return err
	}
	s.root = assign(s.root, p.segs, tree)
	return nil
}

func (s *MemoryStore) Close(context.Context) error {
	return nil
}
