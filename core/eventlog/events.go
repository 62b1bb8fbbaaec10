// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package eventlog encodes the observable events of the engine as EVM-style
// logs so that they can be committed to in a receipts trie and proven on
// another subnet.
package eventlog

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const eventsABI = `[
{"type":"event","name":"CertStored","anonymous":false,"inputs":[
	{"name":"certId","type":"bytes32","indexed":false},
	{"name":"receiptRoot","type":"bytes32","indexed":false}]},
{"type":"event","name":"CrossSubnetMessageSent","anonymous":false,"inputs":[
	{"name":"targetSubnetId","type":"bytes32","indexed":true},
	{"name":"sourceSubnetId","type":"bytes32","indexed":false},
	{"name":"nonce","type":"uint256","indexed":false}]},
{"type":"event","name":"TokenDeployed","anonymous":false,"inputs":[
	{"name":"symbol","type":"string","indexed":false},
	{"name":"tokenAddress","type":"address","indexed":false}]},
{"type":"event","name":"TokenSent","anonymous":false,"inputs":[
	{"name":"targetSubnetId","type":"bytes32","indexed":true},
	{"name":"tokenSymbol","type":"string","indexed":false},
	{"name":"tokenAddress","type":"address","indexed":false},
	{"name":"receiver","type":"address","indexed":false},
	{"name":"amount","type":"uint256","indexed":false}]},
{"type":"event","name":"Transfer","anonymous":false,"inputs":[
	{"name":"from","type":"address","indexed":true},
	{"name":"to","type":"address","indexed":true},
	{"name":"value","type":"uint256","indexed":false}]},
{"type":"event","name":"Approval","anonymous":false,"inputs":[
	{"name":"owner","type":"address","indexed":true},
	{"name":"spender","type":"address","indexed":true},
	{"name":"value","type":"uint256","indexed":false}]}
]`

var parsed abi.ABI

// Event topics.
var (
	CertStoredTopic             common.Hash
	CrossSubnetMessageSentTopic common.Hash
	TokenDeployedTopic          common.Hash
	TokenSentTopic              common.Hash
	TransferTopic               common.Hash
	ApprovalTopic               common.Hash
)

func init() {
	var err error
	parsed, err = abi.JSON(strings.NewReader(eventsABI))
	if err != nil {
		panic(err)
	}
	CertStoredTopic = parsed.Events["CertStored"].ID
	CrossSubnetMessageSentTopic = parsed.Events["CrossSubnetMessageSent"].ID
	TokenDeployedTopic = parsed.Events["TokenDeployed"].ID
	TokenSentTopic = parsed.Events["TokenSent"].ID
	TransferTopic = parsed.Events["Transfer"].ID
	ApprovalTopic = parsed.Events["Approval"].ID
}

func pack(name string, args ...interface{}) []byte {
	data, err := parsed.Events[name].Inputs.NonIndexed().Pack(args...)
	if err != nil {
		// Arguments are typed by the constructors below.
		panic(fmt.Sprintf("eventlog: pack %s: %v", name, err))
	}
	return data
}

func addressTopic(a common.Address) common.Hash {
	return common.BytesToHash(a.Bytes())
}

func CertStored(emitter common.Address, certID, receiptRoot common.Hash) *types.Log {
	return &types.Log{
		Address: emitter,
		Topics:  []common.Hash{CertStoredTopic},
		Data:    pack("CertStored", [32]byte(certID), [32]byte(receiptRoot)),
	}
}

func CrossSubnetMessageSent(emitter common.Address, target, source common.Hash, nonce uint64) *types.Log {
	return &types.Log{
		Address: emitter,
		Topics:  []common.Hash{CrossSubnetMessageSentTopic, target},
		Data:    pack("CrossSubnetMessageSent", [32]byte(source), new(big.Int).SetUint64(nonce)),
	}
}

func TokenDeployed(emitter common.Address, symbol string, token common.Address) *types.Log {
	return &types.Log{
		Address: emitter,
		Topics:  []common.Hash{TokenDeployedTopic},
		Data:    pack("TokenDeployed", symbol, token),
	}
}

func TokenSent(emitter common.Address, target common.Hash, symbol string, token, receiver common.Address, amount *big.Int) *types.Log {
	return &types.Log{
		Address: emitter,
		Topics:  []common.Hash{TokenSentTopic, target},
		Data:    pack("TokenSent", symbol, token, receiver, amount),
	}
}

func Transfer(token, from, to common.Address, value *big.Int) *types.Log {
	return &types.Log{
		Address: token,
		Topics:  []common.Hash{TransferTopic, addressTopic(from), addressTopic(to)},
		Data:    pack("Transfer", value),
	}
}

func Approval(token, owner, spender common.Address, value *big.Int) *types.Log {
	return &types.Log{
		Address: token,
		Topics:  []common.Hash{ApprovalTopic, addressTopic(owner), addressTopic(spender)},
		Data:    pack("Approval", value),
	}
}

// TokenSentEvent is the decoded payload of a TokenSent log.
type TokenSentEvent struct {
	TargetSubnetID common.Hash
	Symbol         string
	TokenAddress   common.Address
	Receiver       common.Address
	Amount         *big.Int
}

// DecodeTokenSent decodes topics and data of a TokenSent log. It does not
// look at the emitting address.
func DecodeTokenSent(topics []common.Hash, data []byte) (*TokenSentEvent, error) {
	if len(topics) != 2 || topics[0] != TokenSentTopic {
		return nil, fmt.Errorf("not a TokenSent log")
	}
	values, err := parsed.Events["TokenSent"].Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, err
	}
	if len(values) != 4 {
		return nil, fmt.Errorf("TokenSent: got %d fields", len(values))
	}
	ev := &TokenSentEvent{TargetSubnetID: topics[1]}
	var ok bool
	if ev.Symbol, ok = values[0].(string); !ok {
		return nil, fmt.Errorf("TokenSent: symbol is %T", values[0])
	}
	if ev.TokenAddress, ok = values[1].(common.Address); !ok {
		return nil, fmt.Errorf("TokenSent: token address is %T", values[1])
	}
	if ev.Receiver, ok = values[2].(common.Address); !ok {
		return nil, fmt.Errorf("TokenSent: receiver is %T", values[2])
	}
	if ev.Amount, ok = values[3].(*big.Int); !ok {
		return nil, fmt.Errorf("TokenSent: amount is %T", values[3])
	}
	return ev, nil
}

// TransferValue decodes the value of a Transfer log, mostly for indexers and
// tests.
func TransferValue(l *types.Log) (from, to common.Address, value *big.Int, err error) {
	if len(l.Topics) != 3 || l.Topics[0] != TransferTopic {
		return from, to, nil, fmt.Errorf("not a Transfer log")
	}
	values, err := parsed.Events["Transfer"].Inputs.NonIndexed().Unpack(l.Data)
	if err != nil {
		return from, to, nil, err
	}
	value, ok := values[0].(*big.Int)
	if !ok {
		return from, to, nil, fmt.Errorf("Transfer: value is %T", values[0])
	}
	return common.BytesToAddress(l.Topics[1].Bytes()), common.BytesToAddress(l.Topics[2].Bytes()), value, nil
}

// Name returns the event name of l, or "unknown".
func Name(l *types.Log) string {
	if len(l.Topics) == 0 {
		return "unknown"
	}
	ev, err := parsed.EventByID(l.Topics[0])
	if err != nil {
		return "unknown"
	}
	return ev.Name
}

// Summary lists the event names of logs, for trace output.
func Summary(logs []*types.Log) string {
	names := make([]string, len(logs))
	for i, l := range logs {
		names[i] = Name(l)
	}
	return "[" + strings.Join(names, " ") + "]"
}
