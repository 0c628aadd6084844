package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/simphone/ussdd/internal/logging"
	"github.com/simphone/ussdd/internal/menu"
)

// TreeStore holds the current menu-tree document, persisted as a single
// SQLite row. Documents are validated on the way in, so readers always get
// a well-formed tree. The parsed tree is cached and swapped atomically on
// save; engine calls see a consistent snapshot per call.
type TreeStore struct {
	db  *DB
	log *logging.Logger

	mu   sync.RWMutex
	tree *menu.Tree
	doc  []byte
}

// NewTreeStore loads the stored document, seeding the built-in default tree
// when the table is empty.
func NewTreeStore(db *DB, log *logging.Logger) (*TreeStore, error) {
	s := &TreeStore{db: db, log: log.Sub("trees")}

	doc, err := s.loadDocument()
	if errors.Is(err, sql.ErrNoRows) {
		doc = menu.DefaultDocument()
		if err := s.writeDocument(doc); err != nil {
			return nil, fmt.Errorf("seeding default tree: %w", err)
		}
		s.log.Info().Msg("seeded default menu tree")
	} else if err != nil {
		return nil, fmt.Errorf("loading tree document: %w", err)
	}

	tree, err := menu.ParseTree(doc)
	if err != nil {
		return nil, fmt.Errorf("stored tree document is invalid: %w", err)
	}

	s.tree = tree
	s.doc = doc
	return s, nil
}

// CurrentTree returns the active tree snapshot. Never nil.
func (s *TreeStore) CurrentTree() *menu.Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree
}

// Document returns the stored JSON document.
func (s *TreeStore) Document() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]byte, len(s.doc))
	copy(out, s.doc)
	return out, nil
}

// Save validates and persists a new document, then swaps the active tree.
// Sessions started under the previous tree keep their old nodes.
func (s *TreeStore) Save(doc []byte) error {
	tree, err := menu.ParseTree(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeDocument(doc); err != nil {
		return fmt.Errorf("saving tree document: %w", err)
	}

	s.tree = tree
	s.doc = append([]byte(nil), doc...)
	s.log.Info().Int("bytes", len(doc)).Msg("menu tree replaced")
	return nil
}

// Reset restores the built-in default tree.
func (s *TreeStore) Reset() error {
	return s.Save(menu.DefaultDocument())
}

func (s *TreeStore) loadDocument() ([]byte, error) {
	var doc string
	err := s.db.sql.QueryRow(`SELECT document FROM tree_config WHERE id = 1`).Scan(&doc)
	if err != nil {
		return nil, err
	}
	return []byte(doc), nil
}

func (s *TreeStore) writeDocument(doc []byte) error {
	_, err := s.db.sql.Exec(
		`INSERT INTO tree_config (id, document, updated_at)
		 VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   document = excluded.document,
		   updated_at = excluded.updated_at`,
		string(doc), time.Now().Format(time.DateTime),
	)
	return err
}
