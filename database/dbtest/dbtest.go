// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package dbtest holds the behaviour every database backend must show.
package dbtest

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/Qitmeer/xsubnet/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDB exercises db, which must be empty.
func TestDB(t *testing.T, db database.DB) {
	_, err := db.Get("a", []byte("k"))
	assert.Equal(t, database.ErrNotFound, err)
	has, err := db.Has("a", []byte("k"))
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, db.Put("a", []byte("k"), []byte("v1")))
	require.NoError(t, db.Put("b", []byte("k"), []byte("v2")))
	v, err := db.Get("a", []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)
	v, err = db.Get("b", []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), v)
	has, err = db.Has("a", []byte("k"))
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, db.Delete("a", []byte("k")))
	_, err = db.Get("a", []byte("k"))
	assert.Equal(t, database.ErrNotFound, err)
	require.NoError(t, db.Delete("missing", []byte("k")))

	// ForEach walks one bucket in key order
	var idx [8]byte
	for _, n := range []uint64{3, 1, 256, 2} {
		binary.BigEndian.PutUint64(idx[:], n)
		require.NoError(t, db.Put("seq", idx[:], idx[:]))
	}
	var got []uint64
	err = db.ForEach("seq", func(key, value []byte) error {
		assert.Equal(t, key, value)
		got = append(got, binary.BigEndian.Uint64(key))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3, 256}, got)

	stop := errors.New("stop")
	count := 0
	err = db.ForEach("seq", func(key, value []byte) error {
		count++
		return stop
	})
	assert.Equal(t, stop, err)
	assert.Equal(t, 1, count)

	require.NoError(t, db.ForEach("empty", func(key, value []byte) error {
		t.Fatalf("unexpected key %x", key)
		return nil
	}))
}
