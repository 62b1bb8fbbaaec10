// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"time"

	"github.com/Qitmeer/xsubnet/core/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

// JournalBucket holds one record per operation, keyed by its big endian
// sequence number.
const JournalBucket = "journal"

type opKind uint8

const (
	opInitialize opKind = iota + 1
	opSetNetworkSubnetID
	opPushCertificate
	opDeployToken
	opApprove
	opTransfer
	opSendToken
	opExecute
	opSeal
)

var opNames = map[opKind]string{
	opInitialize:         "initialize",
	opSetNetworkSubnetID: "setNetworkSubnetId",
	opPushCertificate:    "pushCertificate",
	opDeployToken:        "deployToken",
	opApprove:            "approve",
	opTransfer:           "transfer",
	opSendToken:          "sendToken",
	opExecute:            "execute",
	opSeal:               "seal",
}

func (k opKind) String() string {
	if s, ok := opNames[k]; ok {
		return s
	}
	return fmt.Sprintf("op(%d)", uint8(k))
}

// record is one journaled operation. Time is the clock the operation ran
// with, in unix nanoseconds, so replay reproduces the mint windows.
type record struct {
	Kind   uint8
	Time   uint64
	Caller common.Address
	Data   []byte
}

func (r *record) time() time.Time {
	return time.Unix(0, int64(r.Time))
}

// hash identifies the operation in its receipt.
func (r *record) hash(seq uint64) common.Hash {
	enc, _ := rlp.EncodeToBytes(r)
	return crypto.Keccak256Hash(seqKey(seq), enc)
}

func seqKey(seq uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], seq)
	return k[:]
}

// amount carries a big integer through RLP, nil and negative values
// included, so invalid inputs are journaled and fail again on replay.
type amount struct {
	Set bool
	Neg bool
	Abs []byte
}

func toAmount(v *big.Int) amount {
	if v == nil {
		return amount{}
	}
	return amount{Set: true, Neg: v.Sign() < 0, Abs: new(big.Int).Abs(v).Bytes()}
}

func (a amount) int() *big.Int {
	if !a.Set {
		return nil
	}
	v := new(big.Int).SetBytes(a.Abs)
	if a.Neg {
		v.Neg(v)
	}
	return v
}

type initializeOp struct {
	Admins    []common.Address
	Threshold amount
}

type setNetworkSubnetIDOp struct {
	ID types.SubnetID
}

type pushCertificateOp struct {
	Cert     *types.Certificate
	Position uint64
}

type deployTokenOp struct {
	Name           string
	Symbol         string
	MintCap        amount
	DailyMintLimit amount
	InitialSupply  amount
}

type approveOp struct {
	Symbol  string
	Spender common.Address
	Amount  amount
}

type transferOp struct {
	Symbol string
	To     common.Address
	Amount amount
}

type sendTokenOp struct {
	Target    types.SubnetID
	Symbol    string
	Recipient common.Address
	Amount    amount
}

type executeOp struct {
	LogIndices  []uint64
	Proof       []byte
	ReceiptRoot common.Hash
}

type sealOp struct{}

func newRecord(kind opKind, now time.Time, caller common.Address, payload interface{}) (*record, error) {
	data, err := rlp.EncodeToBytes(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s", kind)
	}
	return &record{Kind: uint8(kind), Time: uint64(now.UnixNano()), Caller: caller, Data: data}, nil
}

func decodeRecord(seq uint64, blob []byte) (*record, error) {
	rec := new(record)
	if err := rlp.DecodeBytes(blob, rec); err != nil {
		return nil, errors.Wrapf(err, "journal record %d", seq)
	}
	if _, ok := opNames[opKind(rec.Kind)]; !ok {
		return nil, errors.Errorf("journal record %d: unknown operation %d", seq, rec.Kind)
	}
	return rec, nil
}

func (n *Node) writeRecord(seq uint64, rec *record) error {
	blob, err := rlp.EncodeToBytes(rec)
	if err != nil {
		return errors.Wrapf(err, "encode journal record %d", seq)
	}
	if err := n.db.Put(JournalBucket, seqKey(seq), blob); err != nil {
		return errors.Wrapf(err, "write journal record %d", seq)
	}
	return nil
}

// replay applies every journaled operation in sequence order.
func (n *Node) replay() error {
	var expect uint64
	err := n.db.ForEach(JournalBucket, func(key, value []byte) error {
		if len(key) != 8 {
			return errors.Errorf("journal key %x is not a sequence number", key)
		}
		seq := binary.BigEndian.Uint64(key)
		if seq != expect {
			return errors.Errorf("journal gap: record %d follows %d", seq, expect)
		}
		rec, err := decodeRecord(seq, value)
		if err != nil {
			return err
		}
		if err := n.apply(seq, rec); err != nil {
			log.Trace("Replayed failed operation", "seq", seq, "op", opKind(rec.Kind), "err", err)
		}
		n.progress.LogOperation(seq, opKind(rec.Kind) == opSeal, rec.time())
		expect++
		return nil
	})
	if err != nil {
		return err
	}
	n.seq = expect
	return nil
}
