package store

import (
	"sync"

	"github.com/simphone/ussdd/internal/menu"
)

// MemoryTreeStore keeps the tree document in memory only. Used when no
// database is wanted (tree.store: memory) and in tests.
type MemoryTreeStore struct {
	mu   sync.RWMutex
	tree *menu.Tree
	doc  []byte
}

// NewMemoryTreeStore creates a tree store seeded with the default tree.
func NewMemoryTreeStore() *MemoryTreeStore {
	doc := menu.DefaultDocument()
	tree, err := menu.ParseTree(doc)
	if err != nil {
		panic(err) // default document is static and always valid
	}
	return &MemoryTreeStore{tree: tree, doc: doc}
}

func (s *MemoryTreeStore) CurrentTree() *menu.Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree
}

func (s *MemoryTreeStore) Document() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]byte, len(s.doc))
	copy(out, s.doc)
	return out, nil
}

func (s *MemoryTreeStore) Save(doc []byte) error {
	tree, err := menu.ParseTree(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree = tree
	s.doc = append([]byte(nil), doc...)
	return nil
}

func (s *MemoryTreeStore) Reset() error {
	return s.Save(menu.DefaultDocument())
}
