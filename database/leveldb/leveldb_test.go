// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package leveldb

import (
	"testing"

	"github.com/Qitmeer/xsubnet/database"
	"github.com/Qitmeer/xsubnet/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemDB(t *testing.T) {
	db, err := Open("")
	require.NoError(t, err)
	defer db.Close()
	dbtest.TestDB(t, db)
}

func TestFileDB(t *testing.T) {
	dir := t.TempDir()
	db, err := database.Open(DbType, dir)
	require.NoError(t, err)
	assert.Equal(t, DbType, db.Type())
	dbtest.TestDB(t, db)
	require.NoError(t, db.Put("p", []byte("k"), []byte("v")))
	require.NoError(t, db.Close())

	db, err = database.Open(DbType, dir)
	require.NoError(t, err)
	defer db.Close()
	v, err := db.Get("p", []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}
