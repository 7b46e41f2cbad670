package engine

import "errors"

// Error taxonomy for Table's primitive operations. CapacityExhausted
// (storage.ErrRangeFull) is absorbed internally by allocating a new
// PageRange and never reaches here; Corrupt surfaces only from a snapshot
// load, in package lstore.
var (
	ErrKeyExists       = errors.New("engine: key already exists")
	ErrNotFound        = errors.New("engine: key not found")
	ErrSchemaViolation = errors.New("engine: schema violation")
	ErrEmptyRange      = errors.New("engine: no key in range")
)
