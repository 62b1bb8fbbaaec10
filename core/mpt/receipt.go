// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mpt

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
)

// Receipt is the consensus part of a transaction receipt as committed in a
// receipts trie.
type Receipt struct {
	Type              uint8
	PostStateOrStatus []byte
	CumulativeGasUsed uint64
	Bloom             types.Bloom
	Logs              []*types.Log
}

type receiptRLP struct {
	PostStateOrStatus []byte
	CumulativeGasUsed uint64
	Bloom             types.Bloom
	Logs              []*types.Log
}

// Successful reports a status of exactly 1. Pre-byzantium receipts carry a
// state root instead and are never successful.
func (r *Receipt) Successful() bool {
	return bytes.Equal(r.PostStateOrStatus, []byte{1})
}

// DecodeReceipt decodes a legacy receipt or a typed receipt whose leading
// type byte is below 0x7f.
func DecodeReceipt(raw []byte) (*Receipt, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty receipt")
	}
	var (
		r   Receipt
		dec receiptRLP
	)
	if raw[0] <= 0x7f {
		r.Type = raw[0]
		raw = raw[1:]
	}
	if err := rlp.DecodeBytes(raw, &dec); err != nil {
		return nil, fmt.Errorf("decode receipt: %v", err)
	}
	r.PostStateOrStatus = dec.PostStateOrStatus
	r.CumulativeGasUsed = dec.CumulativeGasUsed
	r.Bloom = dec.Bloom
	r.Logs = dec.Logs
	return &r, nil
}

// EncodeReceipt is the inverse of DecodeReceipt.
func EncodeReceipt(r *Receipt) ([]byte, error) {
	enc, err := rlp.EncodeToBytes(&receiptRLP{
		PostStateOrStatus: r.PostStateOrStatus,
		CumulativeGasUsed: r.CumulativeGasUsed,
		Bloom:             r.Bloom,
		Logs:              r.Logs,
	})
	if err != nil {
		return nil, err
	}
	if r.Type == 0 {
		return enc, nil
	}
	return append([]byte{r.Type}, enc...), nil
}
