// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package boltdb is the bbolt backend of package database. Buckets map to
// bolt buckets, created on first write.
package boltdb

import (
	"os"
	"path/filepath"
	"time"

	"github.com/Qitmeer/xsubnet/database"
	"github.com/coreos/bbolt"
	"github.com/pkg/errors"
)

const (
	DbType = "boltdb"

	fileName = "xsubnet.db"
)

type DB struct {
	db *bolt.DB
}

func init() {
	if err := database.RegisterDriver(database.Driver{DbType: DbType, Open: open}); err != nil {
		panic(err)
	}
}

func open(path string) (database.DB, error) {
	return Open(path)
}

// Open opens the bolt file inside directory path.
func Open(path string) (*DB, error) {
	if path == "" {
		return nil, errors.New("boltdb needs a directory")
	}
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(filepath.Join(path, fileName), 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	return &DB{db: db}, nil
}

func (b *DB) Type() string {
	return DbType
}

func (b *DB) Close() error {
	return b.db.Close()
}

func (b *DB) Put(bucket string, key, value []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bc, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}
		return bc.Put(key, value)
	})
}

func (b *DB) Get(bucket string, key []byte) ([]byte, error) {
	var value []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bc := tx.Bucket([]byte(bucket))
		if bc == nil {
			return database.ErrNotFound
		}
		v := bc.Get(key)
		if v == nil {
			return database.ErrNotFound
		}
		// Only valid inside the transaction.
		value = append([]byte(nil), v...)
		return nil
	})
	return value, err
}

func (b *DB) Has(bucket string, key []byte) (bool, error) {
	_, err := b.Get(bucket, key)
	if err == database.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (b *DB) Delete(bucket string, key []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bc := tx.Bucket([]byte(bucket))
		if bc == nil {
			return nil
		}
		return bc.Delete(key)
	})
}

func (b *DB) ForEach(bucket string, fn func(key, value []byte) error) error {
	return b.db.View(func(tx *bolt.Tx) error {
		bc := tx.Bucket([]byte(bucket))
		if bc == nil {
			return nil
		}
		return bc.ForEach(func(k, v []byte) error {
			return fn(append([]byte(nil), k...), append([]byte(nil), v...))
		})
	})
}
