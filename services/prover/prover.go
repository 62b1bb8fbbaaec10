// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package prover builds receipt inclusion proofs for relayers. It is the
// counterpart of core/mpt and lives outside the engine: anyone holding the
// receipts of a sealed block can produce a proof blob for one of them.
package prover

import (
	"bytes"
	"fmt"

	"github.com/Qitmeer/xsubnet/core/mpt"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
)

// ReceiptSource hands out the receipts of a sealed block.
type ReceiptSource interface {
	BlockReceipts(number uint64) (types.Receipts, error)
}

// proofList collects trie nodes in the order the trie emits them, root first.
type proofList []rlp.RawValue

func (n *proofList) Put(key []byte, value []byte) error {
	*n = append(*n, common.CopyBytes(value))
	return nil
}

func (n *proofList) Delete(key []byte) error {
	return fmt.Errorf("proofList: delete not supported")
}

// ReceiptsRoot is the root the engine commits to for receipts.
func ReceiptsRoot(receipts types.Receipts) common.Hash {
	return types.DeriveSha(receipts, trie.NewStackTrie(nil))
}

// BuildReceiptProof returns the proof blob for receipts[txIndex] and the
// receipts root it verifies against.
func BuildReceiptProof(receipts types.Receipts, txIndex int) ([]byte, common.Hash, error) {
	if txIndex < 0 || txIndex >= len(receipts) {
		return nil, common.Hash{}, fmt.Errorf("receipt index %d out of range [0,%d)", txIndex, len(receipts))
	}
	tr := trie.NewEmpty(trie.NewDatabase(memorydb.New()))
	var buf bytes.Buffer
	for i := range receipts {
		key, err := rlp.EncodeToBytes(uint64(i))
		if err != nil {
			return nil, common.Hash{}, err
		}
		buf.Reset()
		receipts.EncodeIndex(i, &buf)
		if err := tr.TryUpdate(key, common.CopyBytes(buf.Bytes())); err != nil {
			return nil, common.Hash{}, err
		}
	}
	root := tr.Hash()
	if want := ReceiptsRoot(receipts); root != want {
		return nil, common.Hash{}, fmt.Errorf("receipts root mismatch: trie %x, derived %x", root, want)
	}

	p := &mpt.Proof{Kind: mpt.ProofKindReceipt, TxIndex: uint64(txIndex)}
	var nodes proofList
	if err := tr.Prove(p.Key(), 0, &nodes); err != nil {
		return nil, common.Hash{}, err
	}
	p.Nodes = nodes
	blob, err := p.Encode()
	if err != nil {
		return nil, common.Hash{}, err
	}
	log.Debug("Built receipt proof", "index", txIndex, "nodes", len(nodes), "root", root)
	return blob, root, nil
}

// Service builds proofs for blocks of a ReceiptSource.
type Service struct {
	source ReceiptSource
}

func New(source ReceiptSource) *Service {
	return &Service{source: source}
}

// Prove builds the proof for transaction txIndex of block number.
func (s *Service) Prove(number uint64, txIndex int) ([]byte, common.Hash, error) {
	receipts, err := s.source.BlockReceipts(number)
	if err != nil {
		return nil, common.Hash{}, err
	}
	return BuildReceiptProof(receipts, txIndex)
}
