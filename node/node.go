// Copyright (c) 2017-2018 The qitmeer developers

// Package node sequences the operations of one subnet's engine. Every
// operation runs alone against the certificate store, the token registry and
// the message executor, leaves a receipt in the pending block and is written
// to a journal that rebuilds the same state when the node is opened again.
package node

import (
	"math/big"
	"sync"
	"time"

	"github.com/Qitmeer/xsubnet/core/access"
	"github.com/Qitmeer/xsubnet/core/certstore"
	"github.com/Qitmeer/xsubnet/core/eventlog"
	"github.com/Qitmeer/xsubnet/core/messaging"
	"github.com/Qitmeer/xsubnet/core/registry"
	"github.com/Qitmeer/xsubnet/core/types"
	"github.com/Qitmeer/xsubnet/database"
	l "github.com/Qitmeer/xsubnet/log"
	"github.com/Qitmeer/xsubnet/metrics"
	"github.com/Qitmeer/xsubnet/services/common/progresslog"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	gometrics "github.com/rcrowley/go-metrics"
)

// Config holds the addresses the engine contracts live at. The executor
// address must be the same on every subnet that exchanges messages.
type Config struct {
	StoreAddress    common.Address
	RegistryAddress common.Address
	ExecutorAddress common.Address

	// Clock stamps new operations, time.Now when nil.
	Clock func() time.Time
}

// Node works as a sequencer for one subnet's engine.
type Node struct {
	lock sync.RWMutex

	cfg *Config
	db  database.DB

	logs     *eventlog.Buffer
	store    *certstore.Store
	registry *registry.Registry
	executor *messaging.Executor

	// opTime is the clock of the operation being applied.
	opTime time.Time
	seq    uint64

	pending []*ethtypes.Receipt
	blocks  []*Block

	// event system
	logFeed event.Feed

	progress *progresslog.BlockProgressLogger

	opsCounter    gometrics.Counter
	failedCounter gometrics.Counter
	sealedCounter gometrics.Counter
}

// Open builds the engine described by cfg and replays the journal found in
// db onto it.
func Open(cfg *Config, db database.DB) (*Node, error) {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	n := &Node{
		cfg:  cfg,
		db:   db,
		logs: eventlog.NewBuffer(),

		progress: progresslog.NewBlockProgressLogger("Replayed", log),

		opsCounter:    metrics.NewCounter("node/ops"),
		failedCounter: metrics.NewCounter("node/failed"),
		sealedCounter: metrics.NewCounter("node/sealed"),
	}
	n.store = certstore.New(cfg.StoreAddress, access.NewAdmins(), n.logs)
	n.registry = registry.New(cfg.RegistryAddress, n.logs)
	n.registry.SetClock(func() time.Time { return n.opTime })
	n.executor = messaging.New(cfg.ExecutorAddress, n.store, n.registry, n.logs)

	start := time.Now()
	if err := n.replay(); err != nil {
		return nil, err
	}
	if n.seq > 0 {
		log.Info("Journal replayed", "ops", n.seq, "blocks", len(n.blocks),
			"pending", len(n.pending), "elapsed", time.Since(start))
	}
	return n, nil
}

// SubscribeLogs delivers the logs of every successful operation to ch. The
// operation does not finish until ch has taken its logs.
func (n *Node) SubscribeLogs(ch chan<- []*ethtypes.Log) event.Subscription {
	return n.logFeed.Subscribe(ch)
}

// submit journals an operation and applies it.
func (n *Node) submit(kind opKind, caller common.Address, payload interface{}) error {
	n.lock.Lock()
	defer n.lock.Unlock()

	rec, err := newRecord(kind, n.cfg.Clock(), caller, payload)
	if err != nil {
		return err
	}
	if err := n.writeRecord(n.seq, rec); err != nil {
		return err
	}
	seq := n.seq
	n.seq++
	err = n.apply(seq, rec)
	if err != nil {
		log.Debug("Operation failed", "seq", seq, "op", kind, "caller", caller, "err", err)
	}
	return err
}

// apply runs rec. Failed operations leave a receipt with status 0 and no
// logs; a failed seal leaves nothing.
func (n *Node) apply(seq uint64, rec *record) error {
	n.opTime = rec.time()
	kind := opKind(rec.Kind)
	if kind == opSeal {
		return n.seal(rec.time())
	}

	n.opsCounter.Inc(1)
	err := n.dispatch(kind, rec)
	var logs []*ethtypes.Log
	status := ethtypes.ReceiptStatusSuccessful
	if err != nil {
		n.logs.Reset()
		n.failedCounter.Inc(1)
		status = ethtypes.ReceiptStatusFailed
	} else {
		logs = n.logs.Drain()
	}

	r := &ethtypes.Receipt{
		Type:              ethtypes.LegacyTxType,
		Status:            status,
		CumulativeGasUsed: uint64(len(n.pending)+1) * OperationGas,
		Logs:              logs,
		TxHash:            rec.hash(seq),
		BlockNumber:       new(big.Int).SetUint64(uint64(len(n.blocks))),
		TransactionIndex:  uint(len(n.pending)),
	}
	for i, lg := range logs {
		lg.TxHash = r.TxHash
		lg.TxIndex = r.TransactionIndex
		lg.BlockNumber = uint64(len(n.blocks))
		lg.Index = uint(i)
	}
	r.Bloom = ethtypes.CreateBloom(ethtypes.Receipts{r})
	n.pending = append(n.pending, r)

	if len(logs) > 0 {
		n.logFeed.Send(logs)
	}
	log.Trace("Operation applied", "seq", seq, "op", kind, "status", status,
		"logs", l.LogClosure(func() string { return eventlog.Summary(logs) }))
	return err
}

func (n *Node) dispatch(kind opKind, rec *record) error {
	switch kind {
	case opInitialize:
		var op initializeOp
		if err := decodeOp(rec, &op); err != nil {
			return err
		}
		return n.store.Initialize(op.Admins, int(op.Threshold.int().Int64()))

	case opSetNetworkSubnetID:
		var op setNetworkSubnetIDOp
		if err := decodeOp(rec, &op); err != nil {
			return err
		}
		return n.store.SetNetworkSubnetID(rec.Caller, op.ID)

	case opPushCertificate:
		var op pushCertificateOp
		if err := decodeOp(rec, &op); err != nil {
			return err
		}
		return n.store.PushCertificate(rec.Caller, op.Cert, op.Position)

	case opDeployToken:
		var op deployTokenOp
		if err := decodeOp(rec, &op); err != nil {
			return err
		}
		_, err := n.registry.DeployToken(rec.Caller, registry.DeployParams{
			Name:           op.Name,
			Symbol:         op.Symbol,
			MintCap:        op.MintCap.int(),
			DailyMintLimit: op.DailyMintLimit.int(),
			InitialSupply:  op.InitialSupply.int(),
		})
		return err

	case opApprove:
		var op approveOp
		if err := decodeOp(rec, &op); err != nil {
			return err
		}
		tk, err := n.registry.Token(op.Symbol)
		if err != nil {
			return err
		}
		return tk.Approve(rec.Caller, op.Spender, op.Amount.int())

	case opTransfer:
		var op transferOp
		if err := decodeOp(rec, &op); err != nil {
			return err
		}
		tk, err := n.registry.Token(op.Symbol)
		if err != nil {
			return err
		}
		return tk.Transfer(rec.Caller, op.To, op.Amount.int())

	case opSendToken:
		var op sendTokenOp
		if err := decodeOp(rec, &op); err != nil {
			return err
		}
		return n.executor.SendToken(rec.Caller, op.Target, op.Symbol, op.Recipient, op.Amount.int())

	case opExecute:
		var op executeOp
		if err := decodeOp(rec, &op); err != nil {
			return err
		}
		return n.executor.Execute(op.LogIndices, op.Proof, op.ReceiptRoot)
	}
	return errUnknownOp(kind)
}

// Initialize installs the certificate store admins.
func (n *Node) Initialize(caller common.Address, admins []common.Address, threshold int) error {
	return n.submit(opInitialize, caller, &initializeOp{
		Admins:    admins,
		Threshold: toAmount(big.NewInt(int64(threshold))),
	})
}

// SetNetworkSubnetID sets the id of the subnet this node runs.
func (n *Node) SetNetworkSubnetID(caller common.Address, id types.SubnetID) error {
	return n.submit(opSetNetworkSubnetID, caller, &setNetworkSubnetIDOp{ID: id})
}

// PushCertificate stores a certificate relayed from another subnet.
func (n *Node) PushCertificate(caller common.Address, cert *types.Certificate, position uint64) error {
	return n.submit(opPushCertificate, caller, &pushCertificateOp{Cert: cert, Position: position})
}

// DeployToken registers a new token deployed by caller.
func (n *Node) DeployToken(caller common.Address, p registry.DeployParams) error {
	return n.submit(opDeployToken, caller, &deployTokenOp{
		Name:           p.Name,
		Symbol:         p.Symbol,
		MintCap:        toAmount(p.MintCap),
		DailyMintLimit: toAmount(p.DailyMintLimit),
		InitialSupply:  toAmount(p.InitialSupply),
	})
}

// Approve lets spender burn or move up to value of the caller's symbol.
func (n *Node) Approve(caller common.Address, symbol string, spender common.Address, value *big.Int) error {
	return n.submit(opApprove, caller, &approveOp{Symbol: symbol, Spender: spender, Amount: toAmount(value)})
}

// Transfer moves value of the caller's symbol to to.
func (n *Node) Transfer(caller common.Address, symbol string, to common.Address, value *big.Int) error {
	return n.submit(opTransfer, caller, &transferOp{Symbol: symbol, To: to, Amount: toAmount(value)})
}

// SendToken burns value of the caller's symbol and emits a message for
// recipient on target.
func (n *Node) SendToken(caller common.Address, target types.SubnetID, symbol string,
	recipient common.Address, value *big.Int) error {
	return n.submit(opSendToken, caller, &sendTokenOp{
		Target:    target,
		Symbol:    symbol,
		Recipient: recipient,
		Amount:    toAmount(value),
	})
}

// Execute mints the tokens of a message proven against a stored certificate.
func (n *Node) Execute(caller common.Address, logIndices []uint64, proof []byte, receiptRoot common.Hash) error {
	return n.submit(opExecute, caller, &executeOp{
		LogIndices:  logIndices,
		Proof:       proof,
		ReceiptRoot: receiptRoot,
	})
}

// Seal closes the pending block.
func (n *Node) Seal() (*Block, error) {
	n.lock.Lock()
	defer n.lock.Unlock()

	if len(n.pending) == 0 {
		return nil, ErrEmptyBlock
	}
	rec, err := newRecord(opSeal, n.cfg.Clock(), common.Address{}, &sealOp{})
	if err != nil {
		return nil, err
	}
	if err := n.writeRecord(n.seq, rec); err != nil {
		return nil, err
	}
	n.seq++
	if err := n.apply(n.seq-1, rec); err != nil {
		return nil, err
	}
	return n.blocks[len(n.blocks)-1], nil
}

// Accessors.

func (n *Node) NetworkSubnetID() types.SubnetID {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return n.store.NetworkSubnetID()
}

func (n *Node) Admins() []common.Address {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return n.store.Admins()
}

func (n *Node) Certificate(id types.CertificateID) (*types.Certificate, error) {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return n.store.Certificate(id)
}

func (n *Node) CertificateByReceiptRoot(root common.Hash) (*types.Certificate, error) {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return n.store.CertificateByReceiptRoot(root)
}

func (n *Node) CertificateCount() int {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return n.store.CertificateCount()
}

func (n *Node) Checkpoints() []types.Checkpoint {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return n.store.Checkpoints()
}

func (n *Node) MessageSequence(source, target types.SubnetID) uint64 {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return n.store.MessageSequence(source, target)
}

func (n *Node) Token(symbol string) (*registry.TokenEntry, error) {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return n.registry.TokenBySymbol(symbol)
}

func (n *Node) Tokens() []*registry.TokenEntry {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return n.registry.Tokens()
}

// BalanceOf returns the symbol balance of owner.
func (n *Node) BalanceOf(symbol string, owner common.Address) (*big.Int, error) {
	n.lock.RLock()
	defer n.lock.RUnlock()
	tk, err := n.registry.Token(symbol)
	if err != nil {
		return nil, err
	}
	return tk.BalanceOf(owner), nil
}

func (n *Node) Allowance(symbol string, owner, spender common.Address) (*big.Int, error) {
	n.lock.RLock()
	defer n.lock.RUnlock()
	tk, err := n.registry.Token(symbol)
	if err != nil {
		return nil, err
	}
	return tk.Allowance(owner, spender), nil
}

func (n *Node) ExecutedCount() int {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return n.executor.ExecutedCount()
}

// OperationCount is the number of journaled operations, seals included.
func (n *Node) OperationCount() uint64 {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return n.seq
}

func (n *Node) PendingReceipts() ethtypes.Receipts {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return append(ethtypes.Receipts(nil), n.pending...)
}
