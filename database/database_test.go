// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterDriver(t *testing.T) {
	drv := Driver{DbType: "test-null", Open: func(string) (DB, error) { return nil, ErrNotFound }}
	assert.NoError(t, RegisterDriver(drv))
	assert.Error(t, RegisterDriver(drv))
	assert.Contains(t, SupportedDrivers(), "test-null")

	_, err := Open("test-null", "x")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = Open("no-such-driver", "x")
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	k := Key("bucket", []byte("key"))
	assert.Equal(t, []byte("bucket-key"), k)
	assert.Equal(t, []byte("key"), LeafKeyToKey("bucket", k))
}
