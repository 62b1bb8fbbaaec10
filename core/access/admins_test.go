// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package access

import (
	"testing"

	"github.com/Qitmeer/xsubnet/core/rule"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestInitialize(t *testing.T) {
	a1 := common.HexToAddress("0xa1")
	a2 := common.HexToAddress("0xa2")

	tests := []struct {
		name      string
		admins    []common.Address
		threshold int
		want      error
	}{
		{"zero threshold", []common.Address{a1}, 0, rule.ErrInvalidAdminThreshold},
		{"threshold above count", []common.Address{a1}, 2, rule.ErrInvalidAdmins},
		{"zero address", []common.Address{a1, {}}, 1, rule.ErrInvalidAdmins},
		{"duplicate", []common.Address{a1, a1}, 1, rule.ErrDuplicateAdmin},
		{"ok", []common.Address{a1, a2}, 2, nil},
	}
	for _, test := range tests {
		a := NewAdmins()
		err := a.Initialize(test.admins, test.threshold)
		if test.want == nil {
			assert.NoError(t, err, test.name)
			continue
		}
		assert.ErrorIs(t, err, test.want, test.name)
		assert.False(t, a.Initialized(), test.name)
		assert.False(t, a.IsAdmin(a1), test.name)
	}
}

func TestAdmins(t *testing.T) {
	a1 := common.HexToAddress("0xa1")
	a2 := common.HexToAddress("0xa2")
	a := NewAdmins()
	assert.ErrorIs(t, a.Require(a1), rule.ErrNotAdmin)

	assert.NoError(t, a.Initialize([]common.Address{a1}, 1))
	assert.True(t, a.IsAdmin(a1))
	assert.False(t, a.IsAdmin(a2))
	assert.NoError(t, a.Require(a1))
	assert.ErrorIs(t, a.Require(a2), rule.ErrNotAdmin)
	assert.Equal(t, 1, a.Threshold())
	assert.Equal(t, []common.Address{a1}, a.List())

	assert.ErrorIs(t, a.Initialize([]common.Address{a2}, 1), rule.ErrAlreadyInitialized)
	assert.False(t, a.IsAdmin(a2))
}
