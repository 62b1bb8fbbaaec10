// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package certstore

import (
	"testing"

	"github.com/Qitmeer/xsubnet/core/access"
	"github.com/Qitmeer/xsubnet/core/eventlog"
	"github.com/Qitmeer/xsubnet/core/rule"
	"github.com/Qitmeer/xsubnet/core/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	storeAddr = common.HexToAddress("0xc0de")
	admin     = common.HexToAddress("0xad")
	stranger  = common.HexToAddress("0x55")

	subnetA = common.HexToHash("0x0a")
	subnetB = common.HexToHash("0x0b")
)

func newStore(t *testing.T) (*Store, *eventlog.Buffer) {
	logs := eventlog.NewBuffer()
	s := New(storeAddr, access.NewAdmins(), logs)
	require.NoError(t, s.Initialize([]common.Address{admin}, 1))
	return s, logs
}

func cert(id, source, receiptRoot string) *types.Certificate {
	return &types.Certificate{
		ID:             common.HexToHash(id),
		SourceSubnetID: common.HexToHash(source),
		ReceiptRoot:    common.HexToHash(receiptRoot),
		TargetSubnets:  []types.SubnetID{common.HexToHash("0xff")},
	}
}

func TestPushCertificate(t *testing.T) {
	s, logs := newStore(t)
	c := cert("0x01", "0x0a", "0x21")

	assert.ErrorIs(t, s.PushCertificate(stranger, c, 0), rule.ErrNotAdmin)
	assert.Equal(t, 0, s.CertificateCount())

	require.NoError(t, s.PushCertificate(admin, c, 7))
	assert.ErrorIs(t, s.PushCertificate(admin, c, 8), rule.ErrDuplicateKey)
	assert.Equal(t, 1, s.CertificateCount())
	assert.True(t, s.CertificateExists(c.ID))

	got, err := s.Certificate(c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, got)

	id, err := s.CertIDAtIndex(0)
	require.NoError(t, err)
	assert.Equal(t, c.ID, id)
	_, err = s.CertIDAtIndex(1)
	assert.ErrorIs(t, err, rule.ErrIndexOutOfRange)

	stored := logs.Drain()
	require.Len(t, stored, 1)
	assert.Equal(t, storeAddr, stored[0].Address)
	assert.Equal(t, eventlog.CertStoredTopic, stored[0].Topics[0])
	assert.Equal(t, append(c.ID.Bytes(), c.ReceiptRoot.Bytes()...), stored[0].Data)

	// stored certificates do not change through their inputs or outputs
	c.TargetSubnets[0] = common.Hash{}
	got.TargetSubnets[0] = common.Hash{}
	again, _ := s.Certificate(c.ID)
	assert.Equal(t, common.HexToHash("0xff"), again.TargetSubnets[0])

	_, err = s.Certificate(common.HexToHash("0x99"))
	assert.ErrorIs(t, err, rule.ErrCertNotPresent)
}

func TestCheckpoints(t *testing.T) {
	s, _ := newStore(t)
	require.NoError(t, s.PushCertificate(admin, cert("0x01", "0x0a", "0x11"), 1))
	require.NoError(t, s.PushCertificate(admin, cert("0x02", "0x0b", "0x12"), 1))
	assert.Equal(t, []types.Checkpoint{
		{CertID: common.HexToHash("0x01"), Position: 1, SourceSubnetID: subnetA},
		{CertID: common.HexToHash("0x02"), Position: 1, SourceSubnetID: subnetB},
	}, s.Checkpoints())

	// replaced, not appended; positions are not checked for monotonicity
	require.NoError(t, s.PushCertificate(admin, cert("0x03", "0x0a", "0x13"), 0))
	assert.Equal(t, []types.Checkpoint{
		{CertID: common.HexToHash("0x03"), Position: 0, SourceSubnetID: subnetA},
		{CertID: common.HexToHash("0x02"), Position: 1, SourceSubnetID: subnetB},
	}, s.Checkpoints())
	assert.Equal(t, 3, s.CertificateCount())
}

func TestCertificateByReceiptRoot(t *testing.T) {
	s, _ := newStore(t)
	root := common.HexToHash("0x11")
	_, err := s.CertificateByReceiptRoot(root)
	assert.ErrorIs(t, err, rule.ErrCertNotPresent)
	assert.Equal(t, common.Hash{}, s.ReceiptRootToCertID(root))

	require.NoError(t, s.PushCertificate(admin, cert("0x01", "0x0a", "0x11"), 1))
	got, err := s.CertificateByReceiptRoot(root)
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash("0x01"), got.ID)

	// the most recently stored certificate wins
	require.NoError(t, s.PushCertificate(admin, cert("0x02", "0x0b", "0x11"), 1))
	got, err = s.CertificateByReceiptRoot(root)
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash("0x02"), got.ID)
	assert.Equal(t, common.HexToHash("0x02"), s.ReceiptRootToCertID(root))
}

func TestNetworkSubnetAndSequences(t *testing.T) {
	s, logs := newStore(t)
	assert.ErrorIs(t, s.SetNetworkSubnetID(stranger, subnetA), rule.ErrNotAdmin)
	require.NoError(t, s.SetNetworkSubnetID(admin, subnetA))
	assert.Equal(t, subnetA, s.NetworkSubnetID())

	assert.Equal(t, uint64(1), s.EmitCrossSubnetMessage(subnetB))
	assert.Equal(t, uint64(2), s.EmitCrossSubnetMessage(subnetB))
	assert.Equal(t, uint64(1), s.EmitCrossSubnetMessage(common.HexToHash("0x0c")))
	assert.Equal(t, uint64(2), s.MessageSequence(subnetA, subnetB))
	assert.Equal(t, uint64(0), s.MessageSequence(subnetB, subnetA))

	sent := logs.Drain()
	require.Len(t, sent, 3)
	assert.Equal(t, []common.Hash{eventlog.CrossSubnetMessageSentTopic, subnetB}, sent[1].Topics)
}
