// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

type (
	// SubnetID identifies an independent ledger network.
	SubnetID = common.Hash

	// CertificateID identifies a certificate across all subnets.
	CertificateID = common.Hash
)

// Certificate is a checkpoint of a source subnet's state over an interval.
// PrevID links to the previous certificate of the same subnet; it is carried
// but not checked against the store.
type Certificate struct {
	PrevID         CertificateID
	SourceSubnetID SubnetID
	StateRoot      common.Hash
	TxRoot         common.Hash
	ReceiptRoot    common.Hash
	TargetSubnets  []SubnetID
	Verifier       uint32
	ID             CertificateID
	StarkProof     []byte
	Signature      []byte
}

func (c *Certificate) String() string {
	return fmt.Sprintf("cert{id=%s source=%s receipts=%s}", c.ID.TerminalString(),
		c.SourceSubnetID.TerminalString(), c.ReceiptRoot.TerminalString())
}

// Copy returns a deep copy so stored certificates cannot be changed through
// a returned value.
func (c *Certificate) Copy() *Certificate {
	cpy := *c
	cpy.TargetSubnets = append([]SubnetID(nil), c.TargetSubnets...)
	cpy.StarkProof = common.CopyBytes(c.StarkProof)
	cpy.Signature = common.CopyBytes(c.Signature)
	return &cpy
}

// Checkpoint is the latest certificate recorded for a source subnet.
type Checkpoint struct {
	CertID         CertificateID
	Position       uint64
	SourceSubnetID SubnetID
}

var certificateArgs abi.Arguments

func init() {
	for _, t := range []string{"bytes32", "bytes32", "bytes32", "bytes32", "bytes32",
		"bytes32[]", "uint32", "bytes32", "bytes", "bytes"} {
		typ, err := abi.NewType(t, "", nil)
		if err != nil {
			panic(err)
		}
		certificateArgs = append(certificateArgs, abi.Argument{Type: typ})
	}
}

// EncodeCertificateABI encodes c the way relayers submit it:
// (prevId, sourceSubnetId, stateRoot, txRoot, receiptRoot, targetSubnets,
// verifier, certId, starkProof, signature).
func EncodeCertificateABI(c *Certificate) ([]byte, error) {
	targets := make([][32]byte, len(c.TargetSubnets))
	for i, t := range c.TargetSubnets {
		targets[i] = t
	}
	starkProof := c.StarkProof
	if starkProof == nil {
		starkProof = []byte{}
	}
	signature := c.Signature
	if signature == nil {
		signature = []byte{}
	}
	return certificateArgs.Pack(
		[32]byte(c.PrevID),
		[32]byte(c.SourceSubnetID),
		[32]byte(c.StateRoot),
		[32]byte(c.TxRoot),
		[32]byte(c.ReceiptRoot),
		targets,
		c.Verifier,
		[32]byte(c.ID),
		starkProof,
		signature,
	)
}

// DecodeCertificateABI is the inverse of EncodeCertificateABI.
func DecodeCertificateABI(data []byte) (*Certificate, error) {
	values, err := certificateArgs.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("decode certificate: %v", err)
	}
	if len(values) != len(certificateArgs) {
		return nil, fmt.Errorf("decode certificate: got %d fields", len(values))
	}
	hashAt := func(i int) (common.Hash, error) {
		b, ok := values[i].([32]byte)
		if !ok {
			return common.Hash{}, fmt.Errorf("decode certificate: field %d is %T", i, values[i])
		}
		return common.Hash(b), nil
	}

	c := &Certificate{}
	for i, dst := range []*common.Hash{&c.PrevID, &c.SourceSubnetID, &c.StateRoot, &c.TxRoot, &c.ReceiptRoot} {
		if *dst, err = hashAt(i); err != nil {
			return nil, err
		}
	}
	targets, ok := values[5].([][32]byte)
	if !ok {
		return nil, fmt.Errorf("decode certificate: target subnets is %T", values[5])
	}
	for _, t := range targets {
		c.TargetSubnets = append(c.TargetSubnets, common.Hash(t))
	}
	if c.Verifier, ok = values[6].(uint32); !ok {
		return nil, fmt.Errorf("decode certificate: verifier is %T", values[6])
	}
	if c.ID, err = hashAt(7); err != nil {
		return nil, err
	}
	if c.StarkProof, ok = values[8].([]byte); !ok {
		return nil, fmt.Errorf("decode certificate: stark proof is %T", values[8])
	}
	if c.Signature, ok = values[9].([]byte); !ok {
		return nil, fmt.Errorf("decode certificate: signature is %T", values[9])
	}
	return c, nil
}
