// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package idset implements an insertion-ordered set of 32-byte identifiers
// with constant time insert, remove, lookup and positional access.
//
// Removal swaps the last identifier into the vacated slot, so positions are
// stable for every identifier except the one that was moved.
package idset

import (
	"github.com/Qitmeer/xsubnet/core/rule"
	"github.com/ethereum/go-ethereum/common"
)

// Set is not safe for concurrent use; its owner serializes access.
type Set struct {
	keys  []common.Hash
	index map[common.Hash]int
}

func New() *Set {
	return &Set{index: make(map[common.Hash]int)}
}

// Insert appends id. It fails with ErrDuplicateKey if id is already present.
func (s *Set) Insert(id common.Hash) error {
	if s.Exists(id) {
		return rule.Errorf(rule.ErrDuplicateKey, "key %s already exists in the set", id.Hex())
	}
	s.keys = append(s.keys, id)
	s.index[id] = len(s.keys) - 1
	return nil
}

// Remove deletes id. It fails with ErrKeyNotFound if id is absent.
func (s *Set) Remove(id common.Hash) error {
	pos, ok := s.index[id]
	if !ok {
		return rule.Errorf(rule.ErrKeyNotFound, "key %s does not exist in the set", id.Hex())
	}
	last := len(s.keys) - 1
	if pos != last {
		moved := s.keys[last]
		s.keys[pos] = moved
		s.index[moved] = pos
	}
	s.keys[last] = common.Hash{}
	s.keys = s.keys[:last]
	delete(s.index, id)
	return nil
}

func (s *Set) Exists(id common.Hash) bool {
	_, ok := s.index[id]
	return ok
}

func (s *Set) Count() int {
	return len(s.keys)
}

// At returns the identifier at position i.
func (s *Set) At(i int) (common.Hash, error) {
	if i < 0 || i >= len(s.keys) {
		return common.Hash{}, rule.Errorf(rule.ErrIndexOutOfRange, "index %d out of range, count %d", i, len(s.keys))
	}
	return s.keys[i], nil
}

// IndexOf returns the current position of id.
func (s *Set) IndexOf(id common.Hash) (int, bool) {
	pos, ok := s.index[id]
	return pos, ok
}

// Keys returns a copy of the identifiers in positional order.
func (s *Set) Keys() []common.Hash {
	out := make([]common.Hash, len(s.keys))
	copy(out, s.keys)
	return out
}
