// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"math/big"
	"testing"
	"time"

	"github.com/Qitmeer/xsubnet/core/eventlog"
	"github.com/Qitmeer/xsubnet/core/registry"
	"github.com/Qitmeer/xsubnet/core/rule"
	"github.com/Qitmeer/xsubnet/core/types"
	"github.com/Qitmeer/xsubnet/database"
	"github.com/Qitmeer/xsubnet/database/boltdb"
	"github.com/Qitmeer/xsubnet/database/leveldb"
	"github.com/Qitmeer/xsubnet/services/prover"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin     = common.HexToAddress("0xad")
	sender    = common.HexToAddress("0xa11ce")
	recipient = common.HexToAddress("0xb0b")
	relayer   = common.HexToAddress("0x4e1a")

	subnetA = common.HexToHash("0x0a")
	subnetB = common.HexToHash("0x0b")

	cfgTemplate = Config{
		StoreAddress:    common.HexToAddress("0xc0"),
		RegistryAddress: common.HexToAddress("0xf0"),
		ExecutorAddress: common.HexToAddress("0xe0"),
	}
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func memDB(t *testing.T) database.DB {
	db, err := leveldb.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func openNode(t *testing.T, db database.DB, c *clock) *Node {
	cfg := cfgTemplate
	cfg.Clock = c.now
	n, err := Open(&cfg, db)
	require.NoError(t, err)
	return n
}

// bootstrap initializes a fresh node for subnet id and deploys token X.
func bootstrap(t *testing.T, n *Node, id types.SubnetID, supply int64) {
	require.NoError(t, n.Initialize(admin, []common.Address{admin}, 1))
	require.NoError(t, n.SetNetworkSubnetID(admin, id))
	require.NoError(t, n.DeployToken(sender, registry.DeployParams{
		Name:           "Token X",
		Symbol:         "X",
		MintCap:        big.NewInt(100000000),
		DailyMintLimit: big.NewInt(100),
		InitialSupply:  big.NewInt(supply),
	}))
}

// source runs subnet A: two sends, 50 then 60, sealed in block 0 at
// receipts 4 and 5.
func source(t *testing.T) (*Node, *Block) {
	src := openNode(t, memDB(t), &clock{t: time.Unix(1700000000, 0)})
	bootstrap(t, src, subnetA, 1000)
	require.NoError(t, src.Approve(sender, "X", cfgTemplate.ExecutorAddress, big.NewInt(110)))
	require.NoError(t, src.SendToken(sender, subnetB, "X", recipient, big.NewInt(50)))
	require.NoError(t, src.SendToken(sender, subnetB, "X", recipient, big.NewInt(60)))
	blk, err := src.Seal()
	require.NoError(t, err)
	return src, blk
}

func certify(t *testing.T, dst *Node, blk *Block) {
	require.NoError(t, dst.PushCertificate(admin, &types.Certificate{
		ID:             common.HexToHash("0xce"),
		SourceSubnetID: subnetA,
		ReceiptRoot:    blk.ReceiptRoot,
		TargetSubnets:  []types.SubnetID{subnetB},
	}, blk.Number))
}

func balance(t *testing.T, n *Node, who common.Address) int64 {
	b, err := n.BalanceOf("X", who)
	require.NoError(t, err)
	return b.Int64()
}

func TestCrossSubnetTransfer(t *testing.T) {
	src, blk := source(t)
	assert.Equal(t, int64(890), balance(t, src, sender))
	assert.Equal(t, uint64(2), src.MessageSequence(subnetA, subnetB))
	require.Len(t, blk.Receipts, 6)
	assert.Equal(t, prover.ReceiptsRoot(blk.Receipts), blk.ReceiptRoot)
	assert.Empty(t, src.PendingReceipts())

	send := blk.Receipts[4]
	require.Len(t, send.Logs, 4)
	assert.Equal(t, eventlog.TokenSentTopic, send.Logs[2].Topics[0])
	assert.Equal(t, uint(2), send.Logs[2].Index)

	blob, root, err := prover.New(src).Prove(blk.Number, 4)
	require.NoError(t, err)
	assert.Equal(t, blk.ReceiptRoot, root)

	dst := openNode(t, memDB(t), &clock{t: time.Unix(1700000100, 0)})
	bootstrap(t, dst, subnetB, 0)

	// no certificate yet
	err = dst.Execute(relayer, []uint64{2}, blob, root)
	assert.ErrorIs(t, err, rule.ErrCertNotPresent)

	certify(t, dst, blk)
	require.NoError(t, dst.Execute(relayer, []uint64{2}, blob, root))
	assert.Equal(t, int64(50), balance(t, dst, recipient))

	err = dst.Execute(relayer, []uint64{2}, blob, root)
	assert.ErrorIs(t, err, rule.ErrTransactionAlreadyExecuted)
	assert.Equal(t, int64(50), balance(t, dst, recipient))
	assert.Equal(t, 1, dst.ExecutedCount())

	receipts := dst.PendingReceipts()
	failed := receipts[len(receipts)-1]
	assert.Equal(t, ethtypes.ReceiptStatusFailed, failed.Status)
	assert.Empty(t, failed.Logs)
	minted := receipts[len(receipts)-2]
	assert.Equal(t, ethtypes.ReceiptStatusSuccessful, minted.Status)
	require.Len(t, minted.Logs, 1)
	assert.Equal(t, eventlog.TransferTopic, minted.Logs[0].Topics[0])

	assert.Equal(t, []types.Checkpoint{{CertID: common.HexToHash("0xce"), Position: 0, SourceSubnetID: subnetA}},
		dst.Checkpoints())
}

func TestJournalReplay(t *testing.T) {
	src, blk := source(t)
	first, root, err := prover.New(src).Prove(blk.Number, 4)
	require.NoError(t, err)
	second, _, err := prover.New(src).Prove(blk.Number, 5)
	require.NoError(t, err)

	db := memDB(t)
	c := &clock{t: time.Unix(1700000100, 0)}
	dst := openNode(t, db, c)
	bootstrap(t, dst, subnetB, 0)
	certify(t, dst, blk)
	require.NoError(t, dst.Execute(relayer, []uint64{2}, first, root))
	assert.ErrorIs(t, dst.Approve(sender, "Y", relayer, big.NewInt(1)), rule.ErrTokenDoesNotExist)
	sealed, err := dst.Seal()
	require.NoError(t, err)
	_, err = dst.Seal()
	assert.Equal(t, ErrEmptyBlock, err)
	require.NoError(t, dst.Transfer(recipient, "X", sender, big.NewInt(5)))

	c.t = c.t.Add(time.Hour)
	again := openNode(t, db, c)
	assert.Equal(t, dst.OperationCount(), again.OperationCount())
	assert.Equal(t, uint64(1), again.BlockCount())
	replayed, err := again.Block(0)
	require.NoError(t, err)
	assert.Equal(t, sealed.ReceiptRoot, replayed.ReceiptRoot)
	assert.Equal(t, sealed.Time, replayed.Time)
	assert.Equal(t, prover.ReceiptsRoot(dst.PendingReceipts()), prover.ReceiptsRoot(again.PendingReceipts()))
	assert.Equal(t, int64(45), balance(t, again, recipient))
	assert.Equal(t, dst.Checkpoints(), again.Checkpoints())
	assert.Equal(t, []common.Address{admin}, again.Admins())
	assert.Equal(t, subnetB, again.NetworkSubnetID())

	assert.ErrorIs(t, again.Execute(relayer, []uint64{2}, first, root), rule.ErrTransactionAlreadyExecuted)

	// the replayed mint window still holds the first 50
	assert.ErrorIs(t, again.Execute(relayer, []uint64{2}, second, root), rule.ErrExceedDailyMintLimit)
	c.t = c.t.Add(registry.MintWindow)
	require.NoError(t, again.Execute(relayer, []uint64{2}, second, root))
	assert.Equal(t, int64(105), balance(t, again, recipient))
	entry, err := again.Token("X")
	require.NoError(t, err)
	assert.Equal(t, int64(60), entry.MintedToday.Int64())
}

func TestReopenBolt(t *testing.T) {
	dir := t.TempDir()
	c := &clock{t: time.Unix(1700000000, 0)}

	db, err := database.Open(boltdb.DbType, dir)
	require.NoError(t, err)
	n := openNode(t, db, c)
	bootstrap(t, n, subnetA, 1000)
	require.NoError(t, n.Approve(sender, "X", relayer, big.NewInt(7)))
	require.NoError(t, db.Close())

	db, err = database.Open(boltdb.DbType, dir)
	require.NoError(t, err)
	defer db.Close()
	n = openNode(t, db, c)
	allowance, err := n.Allowance("X", sender, relayer)
	require.NoError(t, err)
	assert.Equal(t, int64(7), allowance.Int64())
	assert.Equal(t, uint64(4), n.OperationCount())
	assert.Len(t, n.Tokens(), 1)
}

func TestSubscribeLogs(t *testing.T) {
	n := openNode(t, memDB(t), &clock{t: time.Unix(1700000000, 0)})
	ch := make(chan []*ethtypes.Log, 4)
	sub := n.SubscribeLogs(ch)
	defer sub.Unsubscribe()

	bootstrap(t, n, subnetA, 10)
	require.NoError(t, n.Transfer(sender, "X", recipient, big.NewInt(1)))
	assert.ErrorIs(t, n.Transfer(sender, "X", recipient, big.NewInt(100)), rule.ErrTransferFailed)

	deployed := <-ch
	require.Len(t, deployed, 2)
	assert.Equal(t, eventlog.TokenDeployedTopic, deployed[1].Topics[0])
	transferred := <-ch
	require.Len(t, transferred, 1)
	assert.Equal(t, eventlog.TransferTopic, transferred[0].Topics[0])
	assert.Equal(t, uint(3), transferred[0].TxIndex)
	assert.Len(t, ch, 0)

	receipts := n.PendingReceipts()
	require.Len(t, receipts, 5)
	assert.Equal(t, ethtypes.ReceiptStatusFailed, receipts[4].Status)
	assert.Equal(t, uint64(5*OperationGas), receipts[4].CumulativeGasUsed)
}

func TestInvalidInputsAreJournaled(t *testing.T) {
	db := memDB(t)
	c := &clock{t: time.Unix(1700000000, 0)}
	n := openNode(t, db, c)
	assert.ErrorIs(t, n.Initialize(admin, []common.Address{admin}, -1), rule.ErrInvalidAdmins)
	assert.ErrorIs(t, n.DeployToken(sender, registry.DeployParams{
		Symbol: "N", MintCap: big.NewInt(10), DailyMintLimit: big.NewInt(-1),
	}), rule.ErrInvalidAmount)
	assert.ErrorIs(t, n.PushCertificate(admin, &types.Certificate{ID: common.HexToHash("0x01")}, 0), rule.ErrNotAdmin)

	again := openNode(t, db, c)
	assert.Equal(t, uint64(3), again.OperationCount())
	receipts := again.PendingReceipts()
	require.Len(t, receipts, 3)
	for _, r := range receipts {
		assert.Equal(t, ethtypes.ReceiptStatusFailed, r.Status)
	}
	assert.Equal(t, 0, again.CertificateCount())
}
