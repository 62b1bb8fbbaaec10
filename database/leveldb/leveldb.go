// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package leveldb is the goleveldb backend of package database. Buckets are
// key prefixes.
package leveldb

import (
	"github.com/Qitmeer/xsubnet/database"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const DbType = "leveldb"

type DB struct {
	db *leveldb.DB
}

func init() {
	if err := database.RegisterDriver(database.Driver{DbType: DbType, Open: open}); err != nil {
		panic(err)
	}
}

func open(path string) (database.DB, error) {
	return Open(path)
}

// Open opens the database at path, recovering it if its manifest is
// damaged. An empty path opens an in-memory database.
func Open(path string) (*DB, error) {
	if path == "" {
		db, err := leveldb.Open(storage.NewMemStorage(), nil)
		if err != nil {
			return nil, err
		}
		return &DB{db: db}, nil
	}
	opts := &opt.Options{
		OpenFilesCacheCapacity: 16,
		Strict:                 opt.DefaultStrict,
		Compression:            opt.NoCompression,
		BlockCacheCapacity:     8 * opt.MiB,
		WriteBuffer:            4 * opt.MiB,
	}
	db, err := leveldb.OpenFile(path, opts)
	if err != nil {
		log.Warn("Recovering leveldb", "path", path, "err", err)
		if db, err = leveldb.RecoverFile(path, nil); err != nil {
			return nil, errors.Wrapf(err, "recover %s", path)
		}
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
	return b.db.Put(database.Key(bucket, key), value, nil)
}

func (b *DB) Get(bucket string, key []byte) ([]byte, error) {
	value, err := b.db.Get(database.Key(bucket, key), nil)
	if err == leveldb.ErrNotFound {
		return nil, database.ErrNotFound
	}
	return value, err
}

func (b *DB) Has(bucket string, key []byte) (bool, error) {
	return b.db.Has(database.Key(bucket, key), nil)
}

func (b *DB) Delete(bucket string, key []byte) error {
	return b.db.Delete(database.Key(bucket, key), nil)
}

func (b *DB) ForEach(bucket string, fn func(key, value []byte) error) error {
	iter := b.db.NewIterator(util.BytesPrefix(database.Prefix(bucket)), nil)
	defer iter.Release()

	for iter.Next() {
		// The iterator reuses its buffers.
		key := append([]byte(nil), database.LeafKeyToKey(bucket, iter.Key())...)
		value := append([]byte(nil), iter.Value()...)
		if err := fn(key, value); err != nil {
			return err
		}
	}
	return iter.Error()
}
