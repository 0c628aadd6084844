package store

import (
	"testing"

	"github.com/simphone/ussdd/internal/logging"
	"github.com/simphone/ussdd/internal/menu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	log := logging.New(nil, "silent")
	db, err := Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// --- DB/Migration tests ---

func TestOpen_InMemory(t *testing.T) {
	db := testDB(t)
	assert.NotNil(t, db)
	assert.NotNil(t, db.SQL())
}

func TestMigrations_Applied(t *testing.T) {
	db := testDB(t)

	var count int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

func TestMigrations_Idempotent(t *testing.T) {
	db := testDB(t)

	// Running migrate again should be a no-op
	err := db.migrate()
	require.NoError(t, err)

	var count int
	err = db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

// --- TreeStore tests ---

func TestTreeStore_SeedsDefault(t *testing.T) {
	db := testDB(t)

	ts, err := NewTreeStore(db, logging.New(nil, "silent"))
	require.NoError(t, err)

	tree := ts.CurrentTree()
	require.NotNil(t, tree)
	_, ok := tree.Root("*100#")
	assert.True(t, ok)

	doc, err := ts.Document()
	require.NoError(t, err)
	assert.JSONEq(t, string(menu.DefaultDocument()), string(doc))
}

func TestTreeStore_SaveAndReload(t *testing.T) {
	db := testDB(t)
	log := logging.New(nil, "silent")

	ts, err := NewTreeStore(db, log)
	require.NoError(t, err)

	doc := []byte(`{"networkName": "OtherNet", "codes": {"*5#": {"response": "Hi", "sessionEnd": true}}}`)
	require.NoError(t, ts.Save(doc))

	tree := ts.CurrentTree()
	assert.Equal(t, "OtherNet", tree.NetworkName)
	_, ok := tree.Root("*5#")
	assert.True(t, ok)
	_, ok = tree.Root("*100#")
	assert.False(t, ok)

	// A new store over the same DB sees the saved document.
	ts2, err := NewTreeStore(db, log)
	require.NoError(t, err)
	assert.Equal(t, "OtherNet", ts2.CurrentTree().NetworkName)
}

func TestTreeStore_SaveRejectsInvalid(t *testing.T) {
	db := testDB(t)

	ts, err := NewTreeStore(db, logging.New(nil, "silent"))
	require.NoError(t, err)

	before := ts.CurrentTree()

	err = ts.Save([]byte(`{"codes": {"*5#": null}}`))
	require.Error(t, err)

	assert.Same(t, before, ts.CurrentTree(), "rejected save must not change the tree")
}

func TestTreeStore_Reset(t *testing.T) {
	db := testDB(t)

	ts, err := NewTreeStore(db, logging.New(nil, "silent"))
	require.NoError(t, err)

	doc := []byte(`{"codes": {"*5#": {"response": "Hi", "sessionEnd": true}}}`)
	require.NoError(t, ts.Save(doc))
	require.NoError(t, ts.Reset())

	_, ok := ts.CurrentTree().Root("*100#")
	assert.True(t, ok)
}

func TestTreeStore_SnapshotSwap(t *testing.T) {
	db := testDB(t)

	ts, err := NewTreeStore(db, logging.New(nil, "silent"))
	require.NoError(t, err)

	old := ts.CurrentTree()
	require.NoError(t, ts.Save([]byte(`{"codes": {"*5#": {"response": "Hi", "sessionEnd": true}}}`)))

	// Holders of the old snapshot keep a consistent tree.
	_, ok := old.Root("*100#")
	assert.True(t, ok)
	assert.NotSame(t, old, ts.CurrentTree())
}

// --- MemoryTreeStore tests ---

func TestMemoryTreeStore(t *testing.T) {
	ts := NewMemoryTreeStore()

	_, ok := ts.CurrentTree().Root("*100#")
	assert.True(t, ok)

	doc := []byte(`{"codes": {"*5#": {"response": "Hi", "sessionEnd": true}}}`)
	require.NoError(t, ts.Save(doc))
	_, ok = ts.CurrentTree().Root("*5#")
	assert.True(t, ok)

	assert.Error(t, ts.Save([]byte(`not json`)))

	require.NoError(t, ts.Reset())
	_, ok = ts.CurrentTree().Root("*100#")
	assert.True(t, ok)
}
