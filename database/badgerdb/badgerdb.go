// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package badgerdb is the badger backend of package database. Buckets are
// key prefixes.
package badgerdb

import (
	"os"

	"github.com/Qitmeer/xsubnet/database"
	"github.com/dgraph-io/badger"
	"github.com/pkg/errors"
)

const DbType = "badgerdb"

type DB struct {
	db *badger.DB
}

func init() {
	if err := database.RegisterDriver(database.Driver{DbType: DbType, Open: open}); err != nil {
		panic(err)
	}
}

func open(path string) (database.DB, error) {
	return Open(path)
}

// Open opens the badger directory path, keys and values in the same place.
func Open(path string) (*DB, error) {
	if path == "" {
		return nil, errors.New("badgerdb needs a directory")
	}
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, err
	}
	opt := badger.DefaultOptions
	opt.Dir = path
	opt.ValueDir = path
	db, err := badger.Open(opt)
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
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(database.Key(bucket, key), value)
	})
}

func (b *DB) Get(bucket string, key []byte) ([]byte, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(database.Key(bucket, key))
		if err == badger.ErrKeyNotFound {
			return database.ErrNotFound
		}
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
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
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(database.Key(bucket, key))
	})
}

func (b *DB) ForEach(bucket string, fn func(key, value []byte) error) error {
	prefix := database.Prefix(bucket)
	return b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := append([]byte(nil), database.LeafKeyToKey(bucket, item.Key())...)
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(key, value); err != nil {
				return err
			}
		}
		return nil
	})
}
