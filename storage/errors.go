package storage

import (
	"errors"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	// Note: badger.ErrKeyNotFound is the error returned by the badger API;
	// the storage/badger and storage/badger/operation packages translate it
	// into ErrNotFound so callers never depend on the backing store.
	ErrNotFound = errors.New("key not found")

	// ErrAlreadyExists is returned when storing a record whose key is taken.
	ErrAlreadyExists = errors.New("key already exists")
)
