// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mpt verifies Merkle-Patricia inclusion proofs of transaction
// receipts against a receipts root.
//
// A proof blob is rlp([kind, txIndex, [node0, node1, ...]]) where every node
// is the RLP list of a trie node on the path from the root (node0) to the
// leaf holding the receipt. The trie key is rlp(txIndex).
package mpt

import (
	"bytes"
	"errors"
	"fmt"
	"hash"

	"github.com/Qitmeer/xsubnet/core/rule"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"golang.org/x/crypto/sha3"
)

const (
	// ProofKindReceipt marks a receipt inclusion proof.
	ProofKindReceipt = 1

	// MaxProofNodes bounds the path length; a 64 nibble key cannot need more.
	MaxProofNodes = 65
)

// ErrInvalidProof is returned for every verification failure. The reason is
// only logged at trace level.
var ErrInvalidProof = rule.Error(rule.ErrInvalidMerkleProof, "invalid merkle proof")

// Proof is the decoded form of a proof blob.
type Proof struct {
	Kind    uint64
	TxIndex uint64
	Nodes   []rlp.RawValue
}

// Key is the receipts trie key of the proven transaction.
func (p *Proof) Key() []byte {
	key, _ := rlp.EncodeToBytes(p.TxIndex)
	return key
}

// Encode serializes the proof into a blob.
func (p *Proof) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(p)
}

// DecodeProof parses a proof blob.
func DecodeProof(blob []byte) (*Proof, error) {
	var p Proof
	if err := rlp.DecodeBytes(blob, &p); err != nil {
		return nil, err
	}
	if p.Kind != ProofKindReceipt {
		return nil, fmt.Errorf("unknown proof kind %d", p.Kind)
	}
	if len(p.Nodes) == 0 || len(p.Nodes) > MaxProofNodes {
		return nil, fmt.Errorf("bad proof length %d", len(p.Nodes))
	}
	return &p, nil
}

// VerifyReceiptProof decodes blob and checks it against root. It returns the
// raw receipt committed at the proof's key.
func VerifyReceiptProof(blob []byte, root common.Hash) ([]byte, *Proof, error) {
	p, err := DecodeProof(blob)
	if err != nil {
		log.Trace("Rejecting proof blob", "root", root, "err", err)
		return nil, nil, ErrInvalidProof
	}
	value, err := Verify(root, p.Key(), p.Nodes)
	if err != nil {
		return nil, nil, err
	}
	return value, p, nil
}

type hasher struct {
	sha hash.Hash
	buf common.Hash
}

func newHasher() *hasher {
	return &hasher{sha: sha3.NewLegacyKeccak256()}
}

func (h *hasher) hash(data []byte) common.Hash {
	h.sha.Reset()
	h.sha.Write(data)
	h.sha.Sum(h.buf[:0])
	return h.buf
}

// Verify walks nodes from root along key and returns the value stored at the
// end of the path. Children referenced by hash must be the next node of the
// proof; children shorter than 32 bytes are embedded in their parent and are
// walked in place. Every node of the proof must be used.
func Verify(root common.Hash, key []byte, nodes []rlp.RawValue) ([]byte, error) {
	value, err := walk(root, keyToNibbles(key), nodes)
	if err != nil {
		log.Trace("Merkle proof rejected", "root", root, "key", common.Bytes2Hex(key), "reason", err)
		return nil, ErrInvalidProof
	}
	return value, nil
}

func walk(root common.Hash, path []byte, nodes []rlp.RawValue) ([]byte, error) {
	if len(nodes) == 0 {
		return nil, errors.New("empty proof")
	}
	h := newHasher()
	if h.hash(nodes[0]) != root {
		return nil, errors.New("root node hash mismatch")
	}
	node, next, pos := []byte(nodes[0]), 1, 0

	for {
		items, err := listItems(node)
		if err != nil {
			return nil, err
		}
		var ref []byte
		switch len(items) {
		case 17:
			if pos == len(path) {
				value, err := stringContent(items[16])
				if err != nil {
					return nil, err
				}
				if len(value) == 0 {
					return nil, errors.New("key not present at branch")
				}
				return value, done(next, nodes)
			}
			ref = items[path[pos]]
			pos++

		case 2:
			compact, err := stringContent(items[0])
			if err != nil {
				return nil, err
			}
			nibbles, leaf, err := decodeCompact(compact)
			if err != nil {
				return nil, err
			}
			if len(path)-pos < len(nibbles) || !bytes.Equal(path[pos:pos+len(nibbles)], nibbles) {
				return nil, errors.New("path diverges")
			}
			pos += len(nibbles)
			if leaf {
				if pos != len(path) {
					return nil, errors.New("leaf before end of key")
				}
				value, err := stringContent(items[1])
				if err != nil {
					return nil, err
				}
				if len(value) == 0 {
					return nil, errors.New("empty leaf value")
				}
				return value, done(next, nodes)
			}
			if len(nibbles) == 0 {
				return nil, errors.New("empty extension")
			}
			ref = items[1]

		default:
			return nil, fmt.Errorf("node with %d items", len(items))
		}

		node, next, err = resolve(h, ref, nodes, next)
		if err != nil {
			return nil, err
		}
	}
}

func done(next int, nodes []rlp.RawValue) error {
	if next != len(nodes) {
		return fmt.Errorf("%d unused proof nodes", len(nodes)-next)
	}
	return nil
}

// resolve turns a child reference into the child node.
func resolve(h *hasher, ref []byte, nodes []rlp.RawValue, next int) ([]byte, int, error) {
	kind, content, _, err := rlp.Split(ref)
	if err != nil {
		return nil, next, err
	}
	switch {
	case kind == rlp.List:
		// Embedded node. Some provers also list it separately.
		if next < len(nodes) && bytes.Equal(nodes[next], ref) {
			next++
		}
		return ref, next, nil
	case kind == rlp.String && len(content) == common.HashLength:
		if next >= len(nodes) {
			return nil, next, errors.New("proof ends before the leaf")
		}
		if h.hash(nodes[next]) != common.BytesToHash(content) {
			return nil, next, fmt.Errorf("hash mismatch at node %d", next)
		}
		return nodes[next], next + 1, nil
	case len(content) == 0:
		return nil, next, errors.New("key not present")
	}
	return nil, next, fmt.Errorf("bad child reference of %d bytes", len(content))
}

// listItems splits an RLP list into the full encodings of its elements.
func listItems(node []byte) ([][]byte, error) {
	content, rest, err := rlp.SplitList(node)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, errors.New("trailing bytes after node")
	}
	var items [][]byte
	for len(content) > 0 {
		_, _, tail, err := rlp.Split(content)
		if err != nil {
			return nil, err
		}
		items = append(items, content[:len(content)-len(tail)])
		content = tail
		if len(items) > 17 {
			return nil, errors.New("too many node items")
		}
	}
	return items, nil
}

func stringContent(item []byte) ([]byte, error) {
	kind, content, _, err := rlp.Split(item)
	if err != nil {
		return nil, err
	}
	if kind == rlp.List {
		return nil, errors.New("expected string, got list")
	}
	return content, nil
}

func keyToNibbles(key []byte) []byte {
	nibbles := make([]byte, 0, len(key)*2)
	for _, b := range key {
		nibbles = append(nibbles, b>>4, b&0x0f)
	}
	return nibbles
}

// decodeCompact reverses the hex-prefix encoding of a leaf or extension path.
func decodeCompact(compact []byte) ([]byte, bool, error) {
	if len(compact) == 0 {
		return nil, false, errors.New("empty compact path")
	}
	flag := compact[0] >> 4
	if flag > 3 {
		return nil, false, fmt.Errorf("bad hex-prefix flag %d", flag)
	}
	leaf := flag&2 != 0
	nibbles := make([]byte, 0, len(compact)*2)
	if flag&1 != 0 {
		nibbles = append(nibbles, compact[0]&0x0f)
	} else if compact[0]&0x0f != 0 {
		return nil, false, errors.New("non-zero padding nibble")
	}
	for _, b := range compact[1:] {
		nibbles = append(nibbles, b>>4, b&0x0f)
	}
	return nibbles, leaf, nil
}
