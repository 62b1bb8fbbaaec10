// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package registry keeps the tokens that can move between subnets, keyed by
// symbol, and enforces their daily mint limits.
package registry

import (
	"fmt"
	"math/big"
	"time"

	"github.com/Qitmeer/xsubnet/core/eventlog"
	"github.com/Qitmeer/xsubnet/core/idset"
	"github.com/Qitmeer/xsubnet/core/rule"
	"github.com/Qitmeer/xsubnet/core/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// MintWindow is the length of a daily mint window.
const MintWindow = 24 * time.Hour

// TokenEntry describes a registered token. Values are snapshots.
type TokenEntry struct {
	Name           string
	Symbol         string
	Address        common.Address
	MintCap        *big.Int
	DailyMintLimit *big.Int
	MintedToday    *big.Int
	DayWindowStart time.Time
}

func (e *TokenEntry) String() string {
	return fmt.Sprintf("%s(%s)@%s cap:%v limit:%v minted-today:%v window:%v",
		e.Name, e.Symbol, e.Address.Hex(), e.MintCap, e.DailyMintLimit, e.MintedToday, e.DayWindowStart.UTC())
}

// DeployParams are the arguments of DeployToken. A zero DailyMintLimit means
// unlimited daily minting.
type DeployParams struct {
	Name           string
	Symbol         string
	MintCap        *big.Int
	DailyMintLimit *big.Int
	InitialSupply  *big.Int
}

type entry struct {
	limit       *big.Int
	mintedToday *big.Int
	windowStart time.Time
	token       *token.Token
}

func (e *entry) snapshot() *TokenEntry {
	return &TokenEntry{
		Name:           e.token.Name(),
		Symbol:         e.token.Symbol(),
		Address:        e.token.Address(),
		MintCap:        e.token.Cap(),
		DailyMintLimit: new(big.Int).Set(e.limit),
		MintedToday:    new(big.Int).Set(e.mintedToday),
		DayWindowStart: e.windowStart,
	}
}

// Registry is the token registry. It is not safe for concurrent use.
type Registry struct {
	address   common.Address
	keys      *idset.Set
	entries   map[common.Hash]*entry
	byAddress map[common.Address]common.Hash
	logs      *eventlog.Buffer
	now       func() time.Time
}

// New creates a registry living at address. logs receives the events of the
// registry and of its tokens.
func New(address common.Address, logs *eventlog.Buffer) *Registry {
	return &Registry{
		address:   address,
		keys:      idset.New(),
		entries:   make(map[common.Hash]*entry),
		byAddress: make(map[common.Address]common.Hash),
		logs:      logs,
		now:       time.Now,
	}
}

// SetClock replaces the time source used for mint windows.
func (r *Registry) SetClock(now func() time.Time) {
	r.now = now
}

func (r *Registry) Address() common.Address {
	return r.address
}

// SymbolKey is the registry key of symbol.
func SymbolKey(symbol string) common.Hash {
	return crypto.Keccak256Hash([]byte(symbol))
}

// TokenAddress is the deterministic address of the token deployed by the
// registry at registryAddr for symbol.
func TokenAddress(registryAddr common.Address, symbol string) common.Address {
	return crypto.CreateAddress2(registryAddr, SymbolKey(symbol), crypto.Keccak256([]byte(token.Kind)))
}

func isPositive(v *big.Int) bool {
	return v != nil && v.Sign() > 0
}

// DeployToken creates a token and registers it under its symbol. The initial
// supply goes to deployer.
func (r *Registry) DeployToken(deployer common.Address, p DeployParams) (*TokenEntry, error) {
	key := SymbolKey(p.Symbol)
	if r.keys.Exists(key) {
		return nil, rule.Errorf(rule.ErrTokenAlreadyExists, "token %q already exists", p.Symbol)
	}
	if p.Symbol == "" {
		return nil, rule.Error(rule.ErrInvalidAmount, "empty token symbol")
	}
	if !isPositive(p.MintCap) {
		return nil, rule.Errorf(rule.ErrInvalidAmount, "%s: mint cap must be positive, got %v", p.Symbol, p.MintCap)
	}
	limit := new(big.Int)
	if p.DailyMintLimit != nil {
		if p.DailyMintLimit.Sign() < 0 {
			return nil, rule.Errorf(rule.ErrInvalidAmount, "%s: negative daily mint limit", p.Symbol)
		}
		limit.Set(p.DailyMintLimit)
	}
	supply := new(big.Int)
	if p.InitialSupply != nil {
		supply.Set(p.InitialSupply)
	}

	addr := TokenAddress(r.address, p.Symbol)
	tk := token.New(p.Name, p.Symbol, addr, p.MintCap, r.logs)
	if supply.Sign() != 0 {
		if err := tk.Mint(deployer, supply); err != nil {
			return nil, err
		}
	}

	if err := r.keys.Insert(key); err != nil {
		return nil, err
	}
	e := &entry{limit: limit, mintedToday: new(big.Int), token: tk}
	r.entries[key] = e
	r.byAddress[addr] = key
	r.logs.Add(eventlog.TokenDeployed(r.address, p.Symbol, addr))
	log.Debug("Token deployed", "symbol", p.Symbol, "address", addr, "cap", p.MintCap, "limit", limit)
	return e.snapshot(), nil
}

func (r *Registry) lookup(symbol string) (*entry, error) {
	e, ok := r.entries[SymbolKey(symbol)]
	if !ok {
		return nil, rule.Errorf(rule.ErrTokenDoesNotExist, "token %q does not exist", symbol)
	}
	return e, nil
}

// TokenBySymbol returns the entry of symbol.
func (r *Registry) TokenBySymbol(symbol string) (*TokenEntry, error) {
	e, err := r.lookup(symbol)
	if err != nil {
		return nil, err
	}
	return e.snapshot(), nil
}

// TokenByAddress returns the entry of the token at addr.
func (r *Registry) TokenByAddress(addr common.Address) (*TokenEntry, error) {
	key, ok := r.byAddress[addr]
	if !ok {
		return nil, rule.Errorf(rule.ErrTokenDoesNotExist, "no token at %s", addr.Hex())
	}
	return r.entries[key].snapshot(), nil
}

// Token returns the live ledger of symbol.
func (r *Registry) Token(symbol string) (*token.Token, error) {
	e, err := r.lookup(symbol)
	if err != nil {
		return nil, err
	}
	return e.token, nil
}

func (r *Registry) TokenCount() int {
	return r.keys.Count()
}

func (r *Registry) TokenKeyAtIndex(i int) (common.Hash, error) {
	return r.keys.At(i)
}

// Tokens returns all entries in key order.
func (r *Registry) Tokens() []*TokenEntry {
	entries := make([]*TokenEntry, 0, r.keys.Count())
	for _, key := range r.keys.Keys() {
		entries = append(entries, r.entries[key].snapshot())
	}
	return entries
}

// window returns the minted amount and start of the window a mint at now
// falls into.
func (e *entry) window(now time.Time) (*big.Int, time.Time) {
	if e.windowStart.IsZero() || !now.Before(e.windowStart.Add(MintWindow)) {
		return new(big.Int), now
	}
	return e.mintedToday, e.windowStart
}

// Mint mints amount of symbol to to, subject to the daily limit and the cap.
// Nothing changes when it fails.
func (r *Registry) Mint(symbol string, to common.Address, amount *big.Int) error {
	e, err := r.lookup(symbol)
	if err != nil {
		return err
	}
	if !isPositive(amount) {
		return rule.Errorf(rule.ErrInvalidAmount, "%s: invalid mint amount %v", symbol, amount)
	}
	minted, start := e.window(r.now())
	after := new(big.Int).Add(minted, amount)
	if e.limit.Sign() > 0 && after.Cmp(e.limit) > 0 {
		return rule.Errorf(rule.ErrExceedDailyMintLimit, "%s: minting %v would bring today's total to %v, limit %v",
			symbol, amount, after, e.limit)
	}
	if to == (common.Address{}) {
		return rule.Errorf(rule.ErrMintToZeroAddress, "%s: mint to the zero address", symbol)
	}
	if err := e.token.Mint(to, amount); err != nil {
		return err
	}
	e.mintedToday = after
	e.windowStart = start
	return nil
}

// Burn destroys amount of symbol held by from, spending the allowance from
// gave to spender.
func (r *Registry) Burn(symbol string, spender, from common.Address, amount *big.Int) error {
	e, err := r.lookup(symbol)
	if err != nil {
		return err
	}
	if !isPositive(amount) {
		return rule.Errorf(rule.ErrInvalidAmount, "%s: invalid burn amount %v", symbol, amount)
	}
	return e.token.BurnFrom(spender, from, amount)
}
