// Package lstore is the public, host-facing surface of the engine:
// Database owns tables by name and drives the open/close durability
// protocol; Query composes Table primitives into the public query
// semantics described by the external interface.
package lstore

import (
	"fmt"

	"github.com/go-lstore/lstore/concurrency"
	"github.com/go-lstore/lstore/engine"
	"github.com/go-lstore/lstore/storage"
)

// Database owns every table by name and serializes the whole engine to a
// single snapshot file on Close.
type Database struct {
	path   string
	mem    *storage.MemFile
	lock   *storage.FileLock
	locks  *concurrency.LockManager
	tables map[string]*engine.Table
	order  []string
}

// New returns an empty database bound to no path; Close on it is a no-op.
func New() *Database {
	return &Database{
		tables: make(map[string]*engine.Table),
		locks:  concurrency.NewLockManager(concurrency.LockPolicyWait),
	}
}

// Open binds a database to path: if path holds a snapshot, it is restored;
// otherwise an empty database is created bound to that path. An OS-level
// advisory lock on path is held until Close.
func Open(path string) (*Database, error) {
	db := New()
	db.path = path

	lock, err := storage.LockFile(path)
	if err != nil {
		return nil, err
	}
	db.lock = lock

	body, found, err := storage.LoadSnapshot(path)
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	if found {
		if err := db.restore(body); err != nil {
			lock.Unlock()
			return nil, err
		}
	}
	return db, nil
}

// OpenMemory binds a database to mem instead of a file path, for tests and
// embedded hosts that never touch disk. If mem already holds a prior
// Close's snapshot, it is restored, mirroring Open's path semantics; pass
// a fresh storage.NewMemFile() to start empty, and the same instance again
// later to simulate a reopen.
func OpenMemory(mem *storage.MemFile) (*Database, error) {
	db := New()
	db.mem = mem

	body, found, err := storage.LoadSnapshotMem(mem)
	if err != nil {
		return nil, err
	}
	if found {
		if err := db.restore(body); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// CreateTable creates and registers a new table with n user columns and
// primary-key column key. Rejects a duplicate name.
func (db *Database) CreateTable(name string, n, key int) (*engine.Table, error) {
	if _, exists := db.tables[name]; exists {
		return nil, fmt.Errorf("lstore: table %q already exists", name)
	}
	t := engine.NewTable(name, n, key)
	db.tables[name] = t
	db.order = append(db.order, name)
	return t, nil
}

// GetTable returns the named table, or an error if it does not exist.
func (db *Database) GetTable(name string) (*engine.Table, error) {
	t, ok := db.tables[name]
	if !ok {
		return nil, fmt.Errorf("lstore: table %q not found", name)
	}
	return t, nil
}

// DropTable removes a table's registration.
func (db *Database) DropTable(name string) error {
	if _, exists := db.tables[name]; !exists {
		return fmt.Errorf("lstore: table %q not found", name)
	}
	delete(db.tables, name)
	for i, n := range db.order {
		if n == name {
			db.order = append(db.order[:i], db.order[i+1:]...)
			break
		}
	}
	return nil
}

// Locks exposes the database's lock manager, used by Query/txn callers to
// serialize writers and allow concurrent readers around each table.
func (db *Database) Locks() *concurrency.LockManager {
	return db.locks
}

// Query returns a Query bound to the named table, serialized through the
// database's lock manager.
func (db *Database) Query(name string) (*Query, error) {
	t, err := db.GetTable(name)
	if err != nil {
		return nil, err
	}
	return &Query{table: t, locks: db.locks, name: name}, nil
}

// Close serializes every table to the bound path (or in-memory target)
// atomically, and releases the advisory file lock if one is held.
func (db *Database) Close() error {
	w := storage.NewBinaryWriter()
	w.WriteUint32(uint32(len(db.order)))
	for _, name := range db.order {
		engine.EncodeTable(w, db.tables[name])
	}

	var err error
	switch {
	case db.mem != nil:
		err = storage.PersistSnapshotMem(db.mem, w.Bytes())
	case db.path != "":
		err = storage.PersistSnapshot(db.path, w.Bytes())
	}

	if db.lock != nil {
		if unlockErr := db.lock.Unlock(); err == nil {
			err = unlockErr
		}
	}
	return err
}

func (db *Database) restore(body []byte) error {
	r := storage.NewBinaryReader(body)
	n, err := r.ReadUint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		t, err := engine.DecodeTable(r)
		if err != nil {
			return err
		}
		db.tables[t.Name] = t
		db.order = append(db.order, t.Name)
	}
	return nil
}
