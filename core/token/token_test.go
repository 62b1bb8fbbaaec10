// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package token

import (
	"math/big"
	"testing"

	"github.com/Qitmeer/xsubnet/core/eventlog"
	"github.com/Qitmeer/xsubnet/core/rule"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tokenAddr = common.HexToAddress("0x7000")
	alice     = common.HexToAddress("0xa11ce")
	bob       = common.HexToAddress("0xb0b")
)

func newToken(cap int64) (*Token, *eventlog.Buffer) {
	logs := eventlog.NewBuffer()
	return New("Token X", "X", tokenAddr, big.NewInt(cap), logs), logs
}

func TestMintCap(t *testing.T) {
	tk, logs := newToken(100)
	require.NoError(t, tk.Mint(alice, big.NewInt(60)))
	assert.Equal(t, int64(60), tk.BalanceOf(alice).Int64())
	assert.Equal(t, 1, logs.Len())

	assert.ErrorIs(t, tk.Mint(alice, big.NewInt(41)), rule.ErrCapExceeded)
	assert.ErrorIs(t, tk.Mint(common.Address{}, big.NewInt(1)), rule.ErrMintToZeroAddress)
	assert.ErrorIs(t, tk.Mint(alice, big.NewInt(-1)), rule.ErrInvalidAmount)
	assert.Equal(t, 1, logs.Len())

	require.NoError(t, tk.Mint(bob, big.NewInt(40)))
	assert.Equal(t, int64(100), tk.TotalSupply().Int64())
	assert.Equal(t, []common.Address{bob, alice}, tk.Holders())
}

func TestTransfer(t *testing.T) {
	tk, _ := newToken(1000)
	require.NoError(t, tk.Mint(alice, big.NewInt(10)))
	assert.ErrorIs(t, tk.Transfer(alice, bob, big.NewInt(11)), rule.ErrTransferFailed)
	assert.ErrorIs(t, tk.Transfer(alice, common.Address{}, big.NewInt(1)), rule.ErrTransferFailed)
	require.NoError(t, tk.Transfer(alice, bob, big.NewInt(4)))
	assert.Equal(t, int64(6), tk.BalanceOf(alice).Int64())
	assert.Equal(t, int64(4), tk.BalanceOf(bob).Int64())
	assert.Equal(t, int64(10), tk.TotalSupply().Int64())
}

func TestBurnFrom(t *testing.T) {
	tk, logs := newToken(1000)
	require.NoError(t, tk.Mint(alice, big.NewInt(10)))
	logs.Reset()

	// no allowance
	assert.ErrorIs(t, tk.BurnFrom(bob, alice, big.NewInt(1)), rule.ErrBurnFailed)

	require.NoError(t, tk.Approve(alice, bob, big.NewInt(20)))
	// allowance fine, balance short
	assert.ErrorIs(t, tk.BurnFrom(bob, alice, big.NewInt(11)), rule.ErrBurnFailed)
	logs.Reset()

	require.NoError(t, tk.BurnFrom(bob, alice, big.NewInt(7)))
	assert.Equal(t, int64(3), tk.BalanceOf(alice).Int64())
	assert.Equal(t, int64(13), tk.Allowance(alice, bob).Int64())
	assert.Equal(t, int64(3), tk.TotalSupply().Int64())

	got := logs.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, eventlog.ApprovalTopic, got[0].Topics[0])
	from, to, value, err := eventlog.TransferValue(got[1])
	require.NoError(t, err)
	assert.Equal(t, alice, from)
	assert.Equal(t, common.Address{}, to)
	assert.Equal(t, int64(7), value.Int64())
}

func TestReturnedValuesAreCopies(t *testing.T) {
	tk, _ := newToken(1000)
	require.NoError(t, tk.Mint(alice, big.NewInt(10)))
	tk.BalanceOf(alice).SetInt64(0)
	tk.Cap().SetInt64(0)
	assert.Equal(t, int64(10), tk.BalanceOf(alice).Int64())
	assert.Equal(t, int64(1000), tk.Cap().Int64())
}
