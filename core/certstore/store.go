// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package certstore keeps the certificates trusted by a subnet, the latest
// checkpoint of every source subnet and the outbound message sequence
// numbers.
package certstore

import (
	"github.com/Qitmeer/xsubnet/core/access"
	"github.com/Qitmeer/xsubnet/core/eventlog"
	"github.com/Qitmeer/xsubnet/core/idset"
	"github.com/Qitmeer/xsubnet/core/rule"
	"github.com/Qitmeer/xsubnet/core/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Store is the certificate store. It is not safe for concurrent use.
type Store struct {
	address common.Address
	admins  *access.Admins
	logs    *eventlog.Buffer

	networkSubnetID types.SubnetID

	certIDs      *idset.Set
	certificates map[types.CertificateID]*types.Certificate
	receiptRoots map[common.Hash]types.CertificateID

	sources     *idset.Set
	checkpoints map[types.SubnetID]types.Checkpoint

	sequences map[common.Hash]uint64
}

// New creates an empty store living at address.
func New(address common.Address, admins *access.Admins, logs *eventlog.Buffer) *Store {
	return &Store{
		address:      address,
		admins:       admins,
		logs:         logs,
		certIDs:      idset.New(),
		certificates: make(map[types.CertificateID]*types.Certificate),
		receiptRoots: make(map[common.Hash]types.CertificateID),
		sources:      idset.New(),
		checkpoints:  make(map[types.SubnetID]types.Checkpoint),
		sequences:    make(map[common.Hash]uint64),
	}
}

func (s *Store) Address() common.Address {
	return s.address
}

// Initialize installs the admins allowed to push certificates.
func (s *Store) Initialize(admins []common.Address, threshold int) error {
	return s.admins.Initialize(admins, threshold)
}

func (s *Store) IsAdmin(addr common.Address) bool {
	return s.admins.IsAdmin(addr)
}

func (s *Store) Admins() []common.Address {
	return s.admins.List()
}

// SetNetworkSubnetID sets the id of the subnet this store runs on.
func (s *Store) SetNetworkSubnetID(caller common.Address, id types.SubnetID) error {
	if err := s.admins.Require(caller); err != nil {
		return err
	}
	s.networkSubnetID = id
	return nil
}

func (s *Store) NetworkSubnetID() types.SubnetID {
	return s.networkSubnetID
}

// PushCertificate stores cert and makes it the checkpoint of its source
// subnet. position is recorded as given.
func (s *Store) PushCertificate(caller common.Address, cert *types.Certificate, position uint64) error {
	if err := s.admins.Require(caller); err != nil {
		return err
	}
	if err := s.certIDs.Insert(cert.ID); err != nil {
		return err
	}
	stored := cert.Copy()
	s.certificates[cert.ID] = stored

	if !s.sources.Exists(cert.SourceSubnetID) {
		_ = s.sources.Insert(cert.SourceSubnetID)
	}
	s.checkpoints[cert.SourceSubnetID] = types.Checkpoint{
		CertID:         cert.ID,
		Position:       position,
		SourceSubnetID: cert.SourceSubnetID,
	}

	if prev, ok := s.receiptRoots[cert.ReceiptRoot]; ok {
		log.Debug("Receipt root shared by certificates, latest wins",
			"root", cert.ReceiptRoot, "previous", prev, "cert", cert.ID)
	}
	s.receiptRoots[cert.ReceiptRoot] = cert.ID

	s.logs.Add(eventlog.CertStored(s.address, cert.ID, cert.ReceiptRoot))
	log.Debug("Certificate stored", "cert", stored, "position", position)
	return nil
}

// Certificate returns a copy of the stored certificate id.
func (s *Store) Certificate(id types.CertificateID) (*types.Certificate, error) {
	c, ok := s.certificates[id]
	if !ok {
		return nil, rule.Errorf(rule.ErrCertNotPresent, "certificate %s not present", id.Hex())
	}
	return c.Copy(), nil
}

// CertificateByReceiptRoot returns the most recently stored certificate
// carrying root.
func (s *Store) CertificateByReceiptRoot(root common.Hash) (*types.Certificate, error) {
	id, ok := s.receiptRoots[root]
	if !ok {
		return nil, rule.Errorf(rule.ErrCertNotPresent, "no certificate with receipt root %s", root.Hex())
	}
	return s.Certificate(id)
}

// ReceiptRootToCertID returns the id CertificateByReceiptRoot resolves to,
// or the zero id.
func (s *Store) ReceiptRootToCertID(root common.Hash) types.CertificateID {
	return s.receiptRoots[root]
}

func (s *Store) CertificateExists(id types.CertificateID) bool {
	return s.certIDs.Exists(id)
}

func (s *Store) CertificateCount() int {
	return s.certIDs.Count()
}

func (s *Store) CertIDAtIndex(i int) (types.CertificateID, error) {
	return s.certIDs.At(i)
}

// Checkpoints returns the latest checkpoint of every source subnet, in the
// order the sources were first seen.
func (s *Store) Checkpoints() []types.Checkpoint {
	checkpoints := make([]types.Checkpoint, 0, s.sources.Count())
	for _, source := range s.sources.Keys() {
		checkpoints = append(checkpoints, s.checkpoints[source])
	}
	return checkpoints
}

func routeKey(source, target types.SubnetID) common.Hash {
	return crypto.Keccak256Hash(source[:], target[:])
}

// EmitCrossSubnetMessage bumps the sequence number of the route from this
// subnet to target and logs the message. It returns the new number, starting
// at 1.
func (s *Store) EmitCrossSubnetMessage(target types.SubnetID) uint64 {
	key := routeKey(s.networkSubnetID, target)
	seq := s.sequences[key] + 1
	s.sequences[key] = seq
	s.logs.Add(eventlog.CrossSubnetMessageSent(s.address, target, s.networkSubnetID, seq))
	return seq
}

// MessageSequence is the last sequence number used from source to target.
func (s *Store) MessageSequence(source, target types.SubnetID) uint64 {
	return s.sequences[routeKey(source, target)]
}
