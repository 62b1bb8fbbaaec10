// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package token implements the capped, mintable and burnable fungible token
// that backs every registry entry.
package token

import (
	"bytes"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/Qitmeer/xsubnet/core/eventlog"
	"github.com/Qitmeer/xsubnet/core/rule"
	"github.com/ethereum/go-ethereum/common"
)

// Kind is the name the token contract is deployed under. It salts the
// token address derivation.
const Kind = "BurnableMintableCappedERC20"

// Token is the ledger of one token. Balances and allowances are kept as
// big integers; absent entries are zero.
type Token struct {
	name    string
	symbol  string
	address common.Address

	cap         *big.Int
	totalSupply *big.Int
	balances    map[common.Address]*big.Int
	allowances  map[common.Address]map[common.Address]*big.Int

	logs *eventlog.Buffer
}

// New creates an empty token. logs receives its Transfer and Approval events.
func New(name, symbol string, address common.Address, cap *big.Int, logs *eventlog.Buffer) *Token {
	return &Token{
		name:        name,
		symbol:      symbol,
		address:     address,
		cap:         new(big.Int).Set(cap),
		totalSupply: new(big.Int),
		balances:    make(map[common.Address]*big.Int),
		allowances:  make(map[common.Address]map[common.Address]*big.Int),
		logs:        logs,
	}
}

func (t *Token) Name() string { return t.name }
func (t *Token) Symbol() string { return t.symbol }
func (t *Token) Address() common.Address { return t.address }

func (t *Token) Cap() *big.Int {
	return new(big.Int).Set(t.cap)
}

func (t *Token) TotalSupply() *big.Int {
	return new(big.Int).Set(t.totalSupply)
}

func (t *Token) BalanceOf(owner common.Address) *big.Int {
	if b, ok := t.balances[owner]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

func (t *Token) Allowance(owner, spender common.Address) *big.Int {
	if a, ok := t.allowances[owner][spender]; ok {
		return new(big.Int).Set(a)
	}
	return new(big.Int)
}

func (t *Token) balance(owner common.Address) *big.Int {
	b, ok := t.balances[owner]
	if !ok {
		b = new(big.Int)
		t.balances[owner] = b
	}
	return b
}

func (t *Token) setAllowance(owner, spender common.Address, amount *big.Int) {
	m, ok := t.allowances[owner]
	if !ok {
		m = make(map[common.Address]*big.Int)
		t.allowances[owner] = m
	}
	m[spender] = new(big.Int).Set(amount)
	t.logs.Add(eventlog.Approval(t.address, owner, spender, amount))
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return rule.Errorf(rule.ErrInvalidAmount, "invalid amount %v", amount)
	}
	return nil
}

// CheckMint reports the error Mint would fail with, without minting.
func (t *Token) CheckMint(to common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return rule.Errorf(rule.ErrMintToZeroAddress, "%s: mint to the zero address", t.symbol)
	}
	if supply := new(big.Int).Add(t.totalSupply, amount); supply.Cmp(t.cap) > 0 {
		return rule.Errorf(rule.ErrCapExceeded, "%s: supply %v would exceed cap %v", t.symbol, supply, t.cap)
	}
	return nil
}

// Mint creates amount new tokens for to.
func (t *Token) Mint(to common.Address, amount *big.Int) error {
	if err := t.CheckMint(to, amount); err != nil {
		return err
	}
	t.totalSupply.Add(t.totalSupply, amount)
	b := t.balance(to)
	b.Add(b, amount)
	t.logs.Add(eventlog.Transfer(t.address, common.Address{}, to, amount))
	return nil
}

// Approve sets the allowance of spender over the tokens of owner.
func (t *Token) Approve(owner, spender common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if owner == (common.Address{}) || spender == (common.Address{}) {
		return rule.Errorf(rule.ErrInvalidAmount, "%s: approve involving the zero address", t.symbol)
	}
	t.setAllowance(owner, spender, amount)
	return nil
}

// Transfer moves amount tokens from one holder to another.
func (t *Token) Transfer(from, to common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return rule.Errorf(rule.ErrTransferFailed, "%s: transfer to the zero address", t.symbol)
	}
	if t.BalanceOf(from).Cmp(amount) < 0 {
		return rule.Errorf(rule.ErrTransferFailed, "%s: balance of %s below %v", t.symbol, from.Hex(), amount)
	}
	fb := t.balance(from)
	fb.Sub(fb, amount)
	tb := t.balance(to)
	tb.Add(tb, amount)
	t.logs.Add(eventlog.Transfer(t.address, from, to, amount))
	return nil
}

// CheckBurnFrom reports the error BurnFrom would fail with.
func (t *Token) CheckBurnFrom(spender, from common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if allowance := t.Allowance(from, spender); allowance.Cmp(amount) < 0 {
		return rule.Errorf(rule.ErrBurnFailed, "%s: allowance %v of %s for %s below %v",
			t.symbol, allowance, from.Hex(), spender.Hex(), amount)
	}
	if balance := t.BalanceOf(from); balance.Cmp(amount) < 0 {
		return rule.Errorf(rule.ErrBurnFailed, "%s: balance %v of %s below %v", t.symbol, balance, from.Hex(), amount)
	}
	return nil
}

// BurnFrom destroys amount tokens of from, spending the allowance granted to
// spender. It logs the reduced allowance and then the burn.
func (t *Token) BurnFrom(spender, from common.Address, amount *big.Int) error {
	if err := t.CheckBurnFrom(spender, from, amount); err != nil {
		return err
	}
	t.setAllowance(from, spender, new(big.Int).Sub(t.Allowance(from, spender), amount))
	b := t.balance(from)
	b.Sub(b, amount)
	t.totalSupply.Sub(t.totalSupply, amount)
	t.logs.Add(eventlog.Transfer(t.address, from, common.Address{}, amount))
	return nil
}

// Holders returns the addresses with a non-zero balance, sorted.
func (t *Token) Holders() []common.Address {
	var holders []common.Address
	for addr, b := range t.balances {
		if b.Sign() > 0 {
			holders = append(holders, addr)
		}
	}
	sort.Slice(holders, func(i, j int) bool {
		return bytes.Compare(holders[i][:], holders[j][:]) < 0
	})
	return holders
}

func (t *Token) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s(%s)@%s supply:%v cap:%v [", t.name, t.symbol, t.address.Hex(), t.totalSupply, t.cap)
	for _, h := range t.Holders() {
		fmt.Fprintf(&b, "%s:%v,", h.Hex(), t.balances[h])
	}
	b.WriteString("]")
	return b.String()
}
