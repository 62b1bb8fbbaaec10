// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"fmt"
	"time"

	"github.com/Qitmeer/xsubnet/services/prover"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

// OperationGas is the gas every operation is charged in its receipt.
const OperationGas = 21000

var (
	ErrEmptyBlock    = errors.New("no pending operations to seal")
	ErrBlockNotFound = errors.New("block not found")
)

// Block is a sealed batch of operation receipts. ReceiptRoot is the root a
// certificate of this subnet carries for the block.
type Block struct {
	Number      uint64
	Time        time.Time
	ReceiptRoot common.Hash
	Receipts    ethtypes.Receipts
}

func (b *Block) String() string {
	return fmt.Sprintf("block{number=%d receipts=%d root=%s}", b.Number, len(b.Receipts), b.ReceiptRoot.TerminalString())
}

func decodeOp(rec *record, op interface{}) error {
	if err := rlp.DecodeBytes(rec.Data, op); err != nil {
		return errors.Wrapf(err, "decode %s", opKind(rec.Kind))
	}
	return nil
}

func errUnknownOp(kind opKind) error {
	return errors.Errorf("unknown operation %s", kind)
}

func (n *Node) seal(at time.Time) error {
	if len(n.pending) == 0 {
		return ErrEmptyBlock
	}
	b := &Block{
		Number:      uint64(len(n.blocks)),
		Time:        at,
		ReceiptRoot: prover.ReceiptsRoot(n.pending),
		Receipts:    n.pending,
	}
	n.blocks = append(n.blocks, b)
	n.pending = nil
	n.sealedCounter.Inc(1)
	log.Debug("Block sealed", "block", b)
	return nil
}

func (n *Node) BlockCount() uint64 {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return uint64(len(n.blocks))
}

func (n *Node) Block(number uint64) (*Block, error) {
	n.lock.RLock()
	defer n.lock.RUnlock()
	if number >= uint64(len(n.blocks)) {
		return nil, errors.Wrapf(ErrBlockNotFound, "block %d", number)
	}
	return n.blocks[number], nil
}

// BlockReceipts returns the receipts of a sealed block, for proof
// construction.
func (n *Node) BlockReceipts(number uint64) (ethtypes.Receipts, error) {
	b, err := n.Block(number)
	if err != nil {
		return nil, err
	}
	return append(ethtypes.Receipts(nil), b.Receipts...), nil
}
