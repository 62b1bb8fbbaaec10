// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package messaging moves registered tokens between subnets. Outbound, it
// burns tokens and logs a TokenSent event; inbound, it mints the tokens of a
// TokenSent event proven against a stored certificate.
package messaging

import (
	"encoding/binary"
	"math/big"
	"time"

	"github.com/Qitmeer/xsubnet/core/certstore"
	"github.com/Qitmeer/xsubnet/core/eventlog"
	"github.com/Qitmeer/xsubnet/core/idset"
	"github.com/Qitmeer/xsubnet/core/mpt"
	"github.com/Qitmeer/xsubnet/core/registry"
	"github.com/Qitmeer/xsubnet/core/rule"
	"github.com/Qitmeer/xsubnet/core/types"
	"github.com/Qitmeer/xsubnet/metrics"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	gometrics "github.com/rcrowley/go-metrics"
)

// Executor is the message executor of one subnet. The same executor address
// is used on every subnet, so a TokenSent log is only accepted when it was
// emitted from this address on the source subnet.
type Executor struct {
	address  common.Address
	store    *certstore.Store
	registry *registry.Registry
	executed *idset.Set
	logs     *eventlog.Buffer

	executedCounter gometrics.Counter
	rejectedMeter   gometrics.Meter
	sentCounter     gometrics.Counter
	executeTimer    gometrics.Timer
}

func New(address common.Address, store *certstore.Store, reg *registry.Registry, logs *eventlog.Buffer) *Executor {
	return &Executor{
		address:  address,
		store:    store,
		registry: reg,
		executed: idset.New(),
		logs:     logs,

		executedCounter: metrics.NewCounter("messaging/executed"),
		rejectedMeter:   metrics.NewMeter("messaging/rejected"),
		sentCounter:     metrics.NewCounter("messaging/sent"),
		executeTimer:    metrics.NewTimer("messaging/execute"),
	}
}

func (e *Executor) Address() common.Address {
	return e.address
}

// Marker is the replay key of the log at logIndex of the receipt stored
// under key in the receipts trie with root receiptRoot.
func Marker(receiptRoot common.Hash, key []byte, logIndex uint64) common.Hash {
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], logIndex)
	return crypto.Keccak256Hash(receiptRoot[:], key, idx[:])
}

func (e *Executor) IsExecuted(marker common.Hash) bool {
	return e.executed.Exists(marker)
}

func (e *Executor) ExecutedCount() int {
	return e.executed.Count()
}

// Execute mints the tokens of the TokenSent log at logIndices[0] of the
// receipt proven by proofBlob under receiptRoot.
func (e *Executor) Execute(logIndices []uint64, proofBlob []byte, receiptRoot common.Hash) error {
	start := time.Now()
	err := e.execute(logIndices, proofBlob, receiptRoot)
	e.executeTimer.UpdateSince(start)
	if err != nil {
		e.rejectedMeter.Mark(1)
		return err
	}
	e.executedCounter.Inc(1)
	return nil
}

func (e *Executor) execute(logIndices []uint64, proofBlob []byte, receiptRoot common.Hash) error {
	if len(logIndices) == 0 {
		return rule.Error(rule.ErrLogIndexOutOfRange, "no log index given")
	}
	cert, err := e.store.CertificateByReceiptRoot(receiptRoot)
	if err != nil {
		return err
	}

	raw, proof, err := mpt.VerifyReceiptProof(proofBlob, receiptRoot)
	if err != nil {
		return err
	}
	receipt, err := mpt.DecodeReceipt(raw)
	if err != nil {
		log.Trace("Undecodable receipt in valid proof", "root", receiptRoot, "err", err)
		return mpt.ErrInvalidProof
	}
	if !receipt.Successful() {
		return rule.Errorf(rule.ErrInvalidTransactionStatus, "transaction %d under %s failed",
			proof.TxIndex, receiptRoot.Hex())
	}
	for _, i := range logIndices {
		if i >= uint64(len(receipt.Logs)) {
			return rule.Errorf(rule.ErrLogIndexOutOfRange, "log index %d out of range, receipt has %d logs",
				i, len(receipt.Logs))
		}
	}

	logIndex := logIndices[0]
	l := receipt.Logs[logIndex]
	if l.Address != e.address {
		return rule.Errorf(rule.ErrInvalidOriginAddress, "log %d emitted by %s, want %s",
			logIndex, l.Address.Hex(), e.address.Hex())
	}
	ev, err := eventlog.DecodeTokenSent(l.Topics, l.Data)
	if err != nil {
		return rule.Errorf(rule.ErrInvalidEventLog, "log %d: %v", logIndex, err)
	}
	if ev.TargetSubnetID != e.store.NetworkSubnetID() {
		return rule.Errorf(rule.ErrInvalidSubnetId, "message for subnet %s delivered to %s",
			ev.TargetSubnetID.Hex(), e.store.NetworkSubnetID().Hex())
	}

	marker := Marker(receiptRoot, proof.Key(), logIndex)
	if e.executed.Exists(marker) {
		return rule.Errorf(rule.ErrTransactionAlreadyExecuted, "log %d of transaction %d under %s already executed",
			logIndex, proof.TxIndex, receiptRoot.Hex())
	}
	if err := e.executed.Insert(marker); err != nil {
		return err
	}
	if err := e.registry.Mint(ev.Symbol, ev.Receiver, ev.Amount); err != nil {
		// Nothing was minted, the message may be executed later.
		if rerr := e.executed.Remove(marker); rerr != nil {
			log.Error("Failed to roll back execution marker", "marker", marker, "err", rerr)
		}
		return err
	}
	log.Debug("Executed cross-subnet transfer", "cert", cert.ID, "symbol", ev.Symbol,
		"to", ev.Receiver, "amount", ev.Amount, "marker", marker)
	return nil
}

// SendToken burns amount of symbol held by sender and logs a TokenSent event
// for target. The sender must have approved the executor for amount.
func (e *Executor) SendToken(sender common.Address, target types.SubnetID, symbol string,
	recipient common.Address, amount *big.Int) error {
	entry, err := e.registry.TokenBySymbol(symbol)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return rule.Errorf(rule.ErrInvalidAmount, "%s: invalid send amount %v", symbol, amount)
	}
	if err := e.registry.Burn(symbol, e.address, sender, amount); err != nil {
		return err
	}
	e.logs.Add(eventlog.TokenSent(e.address, target, symbol, entry.Address, recipient, amount))
	seq := e.store.EmitCrossSubnetMessage(target)
	e.sentCounter.Inc(1)
	log.Debug("Token sent", "symbol", symbol, "from", sender, "to", recipient,
		"target", target, "amount", amount, "sequence", seq)
	return nil
}
