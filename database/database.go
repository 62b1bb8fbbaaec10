// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package database is a small bucketed key/value layer with pluggable
// backends. Backends register themselves with RegisterDriver from their
// init function and are opened by type name.
package database

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("database: not found")

// DB is a bucketed key/value store. ForEach visits keys in ascending byte
// order.
type DB interface {
	Type() string
	Put(bucket string, key, value []byte) error
	Get(bucket string, key []byte) ([]byte, error)
	Has(bucket string, key []byte) (bool, error)
	Delete(bucket string, key []byte) error
	ForEach(bucket string, fn func(key, value []byte) error) error
	Close() error
}

// Driver opens a backend. An empty path asks for a throwaway in-memory
// database where the backend supports it.
type Driver struct {
	DbType string
	Open   func(path string) (DB, error)
}

var drivers = make(map[string]*Driver)

// RegisterDriver adds a backend. It fails if the type is already registered.
func RegisterDriver(driver Driver) error {
	if _, exists := drivers[driver.DbType]; exists {
		return fmt.Errorf("driver %q is already registered", driver.DbType)
	}
	drivers[driver.DbType] = &driver
	return nil
}

// SupportedDrivers returns the registered backend types, sorted.
func SupportedDrivers() []string {
	types := make([]string, 0, len(drivers))
	for t := range drivers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Open opens a database of the given type.
func Open(dbType, path string) (DB, error) {
	drv, exists := drivers[dbType]
	if !exists {
		return nil, fmt.Errorf("driver %q is not registered, supported: %v", dbType, SupportedDrivers())
	}
	db, err := drv.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database at %q", dbType, path)
	}
	return db, nil
}

// Key is the flat key of key in bucket for backends without native buckets.
func Key(bucket string, key []byte) []byte {
	return bytes.Join([][]byte{Prefix(bucket), key}, nil)
}

func Prefix(bucket string) []byte {
	return []byte(bucket + "-")
}

// LeafKeyToKey strips the bucket prefix from a flat key.
func LeafKeyToKey(bucket string, key []byte) []byte {
	return key[len(Prefix(bucket)):]
}
