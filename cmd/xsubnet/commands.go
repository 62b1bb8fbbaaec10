// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"math/big"

	"github.com/Qitmeer/xsubnet/config"
	"github.com/Qitmeer/xsubnet/core/registry"
	"github.com/Qitmeer/xsubnet/core/types"
	"github.com/Qitmeer/xsubnet/metrics"
	"github.com/Qitmeer/xsubnet/node"
	"github.com/Qitmeer/xsubnet/services/prover"
	"github.com/davecgh/go-spew/spew"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/jessevdk/go-flags"
)

// env is what every command shares.
type env struct {
	cfg *config.Config
	out io.Writer
}

// withNode replays the journal, runs fn and closes the database.
func (e *env) withNode(fn func(n *node.Node) error) error {
	n, db, err := loadNode(e.cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(n)
}

// operate runs fn as the --from caller.
func (e *env) operate(fn func(n *node.Node, caller common.Address) error) error {
	caller, err := e.cfg.Caller()
	if err != nil {
		return err
	}
	return e.withNode(func(n *node.Node) error {
		if err := fn(n, caller); err != nil {
			return err
		}
		fmt.Fprintf(e.out, "ok, %d operations journaled\n", n.OperationCount())
		return nil
	})
}

func parseAmount(name, s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("--%s: invalid amount %q", name, s)
	}
	return v, nil
}

type initCmd struct{ *env }

func (c *initCmd) Execute(args []string) error {
	admins, err := c.cfg.AdminAddresses()
	if err != nil {
		return err
	}
	var subnet common.Hash
	if c.cfg.SubnetID != "" {
		if subnet, err = c.cfg.Subnet(); err != nil {
			return err
		}
	}
	return c.operate(func(n *node.Node, caller common.Address) error {
		if err := n.Initialize(caller, admins, c.cfg.Threshold); err != nil {
			return err
		}
		if c.cfg.SubnetID == "" {
			return nil
		}
		return n.SetNetworkSubnetID(caller, subnet)
	})
}

type setSubnetCmd struct{ *env }

func (c *setSubnetCmd) Execute(args []string) error {
	subnet, err := c.cfg.Subnet()
	if err != nil {
		return err
	}
	return c.operate(func(n *node.Node, caller common.Address) error {
		return n.SetNetworkSubnetID(caller, subnet)
	})
}

type pushCertCmd struct {
	*env
	Cert     string `long:"cert" required:"true" description:"ABI encoded certificate (hex)"`
	Position uint64 `long:"position" description:"Position of the certificate in the source subnet"`
}

func (c *pushCertCmd) Execute(args []string) error {
	blob, err := hexutil.Decode(c.Cert)
	if err != nil {
		return fmt.Errorf("--cert: %v", err)
	}
	cert, err := types.DecodeCertificateABI(blob)
	if err != nil {
		return fmt.Errorf("--cert: %v", err)
	}
	return c.operate(func(n *node.Node, caller common.Address) error {
		return n.PushCertificate(caller, cert, c.Position)
	})
}

type encodeCertCmd struct {
	*env
	ID          string   `long:"id" required:"true" description:"Certificate id"`
	Source      string   `long:"source" required:"true" description:"Source subnet id"`
	ReceiptRoot string   `long:"root" required:"true" description:"Receipts root"`
	Targets     []string `long:"target" description:"Target subnet id, may be repeated"`
}

func (c *encodeCertCmd) Execute(args []string) error {
	cert := &types.Certificate{}
	var err error
	if cert.ID, err = config.ParseHash("id", c.ID); err != nil {
		return err
	}
	if cert.SourceSubnetID, err = config.ParseHash("source", c.Source); err != nil {
		return err
	}
	if cert.ReceiptRoot, err = config.ParseHash("root", c.ReceiptRoot); err != nil {
		return err
	}
	for _, s := range c.Targets {
		target, err := config.ParseHash("target", s)
		if err != nil {
			return err
		}
		cert.TargetSubnets = append(cert.TargetSubnets, target)
	}
	blob, err := types.EncodeCertificateABI(cert)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, hexutil.Encode(blob))
	return nil
}

type deployTokenCmd struct {
	*env
	Name   string `long:"name" description:"Token name"`
	Symbol string `long:"symbol" required:"true" description:"Token symbol"`
	Cap    string `long:"cap" required:"true" description:"Mint cap"`
	Limit  string `long:"limit" description:"Daily mint limit, 0 for none"`
	Supply string `long:"supply" description:"Initial supply minted to the caller"`
}

func (c *deployTokenCmd) Execute(args []string) error {
	p := registry.DeployParams{Name: c.Name, Symbol: c.Symbol}
	var err error
	if p.MintCap, err = parseAmount("cap", c.Cap); err != nil {
		return err
	}
	if p.DailyMintLimit, err = parseAmount("limit", c.Limit); err != nil {
		return err
	}
	if p.InitialSupply, err = parseAmount("supply", c.Supply); err != nil {
		return err
	}
	return c.operate(func(n *node.Node, caller common.Address) error {
		if err := n.DeployToken(caller, p); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s deployed at %s\n", c.Symbol, registry.TokenAddress(c.registry(), c.Symbol).Hex())
		return nil
	})
}

func (c *deployTokenCmd) registry() common.Address {
	ncfg, _ := c.cfg.Node()
	return ncfg.RegistryAddress
}

type approveCmd struct {
	*env
	Symbol  string `long:"symbol" required:"true" description:"Token symbol"`
	Spender string `long:"spender" description:"Spender address, the executor when empty"`
	Amount  string `long:"amount" required:"true" description:"Allowance"`
}

func (c *approveCmd) Execute(args []string) error {
	spender := c.Spender
	if spender == "" {
		spender = c.cfg.ExecutorAddress
	}
	addr, err := config.ParseAddress("spender", spender)
	if err != nil {
		return err
	}
	amount, err := parseAmount("amount", c.Amount)
	if err != nil {
		return err
	}
	return c.operate(func(n *node.Node, caller common.Address) error {
		return n.Approve(caller, c.Symbol, addr, amount)
	})
}

type transferCmd struct {
	*env
	Symbol string `long:"symbol" required:"true" description:"Token symbol"`
	To     string `long:"to" required:"true" description:"Recipient address"`
	Amount string `long:"amount" required:"true" description:"Amount"`
}

func (c *transferCmd) Execute(args []string) error {
	to, err := config.ParseAddress("to", c.To)
	if err != nil {
		return err
	}
	amount, err := parseAmount("amount", c.Amount)
	if err != nil {
		return err
	}
	return c.operate(func(n *node.Node, caller common.Address) error {
		return n.Transfer(caller, c.Symbol, to, amount)
	})
}

type sendTokenCmd struct {
	*env
	Target string `long:"target" required:"true" description:"Target subnet id"`
	Symbol string `long:"symbol" required:"true" description:"Token symbol"`
	To     string `long:"to" required:"true" description:"Recipient on the target subnet"`
	Amount string `long:"amount" required:"true" description:"Amount"`
}

func (c *sendTokenCmd) Execute(args []string) error {
	target, err := config.ParseHash("target", c.Target)
	if err != nil {
		return err
	}
	to, err := config.ParseAddress("to", c.To)
	if err != nil {
		return err
	}
	amount, err := parseAmount("amount", c.Amount)
	if err != nil {
		return err
	}
	return c.operate(func(n *node.Node, caller common.Address) error {
		return n.SendToken(caller, target, c.Symbol, to, amount)
	})
}

type executeCmd struct {
	*env
	Logs  []uint64 `long:"log" required:"true" description:"Log index in the proven receipt, may be repeated"`
	Proof string   `long:"proof" required:"true" description:"Receipt proof (hex)"`
	Root  string   `long:"root" required:"true" description:"Receipts root of the certificate"`
}

func (c *executeCmd) Execute(args []string) error {
	proof, err := hexutil.Decode(c.Proof)
	if err != nil {
		return fmt.Errorf("--proof: %v", err)
	}
	root, err := config.ParseHash("root", c.Root)
	if err != nil {
		return err
	}
	return c.operate(func(n *node.Node, caller common.Address) error {
		return n.Execute(caller, c.Logs, proof, root)
	})
}

type sealCmd struct{ *env }

func (c *sealCmd) Execute(args []string) error {
	return c.withNode(func(n *node.Node) error {
		b, err := n.Seal()
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "block %d root %s receipts %d\n", b.Number, b.ReceiptRoot.Hex(), len(b.Receipts))
		return nil
	})
}

type proveCmd struct {
	*env
	Block uint64 `long:"block" description:"Sealed block number"`
	Tx    int    `long:"tx" description:"Receipt index in the block"`
}

func (c *proveCmd) Execute(args []string) error {
	return c.withNode(func(n *node.Node) error {
		blob, root, err := prover.New(n).Prove(c.Block, c.Tx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "root %s\nproof %s\n", root.Hex(), hexutil.Encode(blob))
		return nil
	})
}

type balanceCmd struct {
	*env
	Symbol string `long:"symbol" required:"true" description:"Token symbol"`
	Owner  string `long:"owner" required:"true" description:"Holder address"`
}

func (c *balanceCmd) Execute(args []string) error {
	owner, err := config.ParseAddress("owner", c.Owner)
	if err != nil {
		return err
	}
	return c.withNode(func(n *node.Node) error {
		b, err := n.BalanceOf(c.Symbol, owner)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, b)
		return nil
	})
}

type checkpointsCmd struct{ *env }

func (c *checkpointsCmd) Execute(args []string) error {
	return c.withNode(func(n *node.Node) error {
		for _, cp := range n.Checkpoints() {
			fmt.Fprintf(c.out, "%s %s %d\n", cp.SourceSubnetID.Hex(), cp.CertID.Hex(), cp.Position)
		}
		return nil
	})
}

type certificateCmd struct {
	*env
	ID   string `long:"id" description:"Certificate id"`
	Root string `long:"root" description:"Receipts root"`
}

func (c *certificateCmd) Execute(args []string) error {
	return c.withNode(func(n *node.Node) error {
		var (
			cert *types.Certificate
			err  error
		)
		switch {
		case c.ID != "":
			id, perr := config.ParseHash("id", c.ID)
			if perr != nil {
				return perr
			}
			cert, err = n.Certificate(id)
		case c.Root != "":
			root, perr := config.ParseHash("root", c.Root)
			if perr != nil {
				return perr
			}
			cert, err = n.CertificateByReceiptRoot(root)
		default:
			return fmt.Errorf("one of --id and --root is required")
		}
		if err != nil {
			return err
		}
		spew.Fdump(c.out, cert)
		return nil
	})
}

type tokensCmd struct{ *env }

func (c *tokensCmd) Execute(args []string) error {
	return c.withNode(func(n *node.Node) error {
		for _, t := range n.Tokens() {
			fmt.Fprintln(c.out, t)
		}
		return nil
	})
}

type blockCmd struct {
	*env
	Number uint64 `long:"number" description:"Block number"`
}

func (c *blockCmd) Execute(args []string) error {
	return c.withNode(func(n *node.Node) error {
		b, err := n.Block(c.Number)
		if err != nil {
			return err
		}
		spew.Fdump(c.out, b)
		return nil
	})
}

type statsCmd struct{ *env }

func (c *statsCmd) Execute(args []string) error {
	return c.withNode(func(n *node.Node) error {
		fmt.Fprintf(c.out, "operations %d blocks %d pending %d certificates %d executed %d\n",
			n.OperationCount(), n.BlockCount(), len(n.PendingReceipts()), n.CertificateCount(), n.ExecutedCount())
		if metrics.Enabled {
			spew.Fdump(c.out, metrics.Snapshot())
		}
		return nil
	})
}

func addCommands(parser *flags.Parser, e *env) error {
	commands := []struct {
		name, short string
		data        interface{}
	}{
		{"init", "Install the admins (--admin, --threshold) and the subnet id", &initCmd{env: e}},
		{"set-subnet", "Set the subnet id of this node (--subnetid)", &setSubnetCmd{env: e}},
		{"encode-cert", "ABI encode a certificate for push-cert", &encodeCertCmd{env: e}},
		{"push-cert", "Store a certificate of another subnet", &pushCertCmd{env: e}},
		{"deploy-token", "Deploy a token", &deployTokenCmd{env: e}},
		{"approve", "Approve a spender, the executor by default", &approveCmd{env: e}},
		{"transfer", "Transfer tokens", &transferCmd{env: e}},
		{"send-token", "Send tokens to another subnet", &sendTokenCmd{env: e}},
		{"execute", "Execute a proven cross-subnet message", &executeCmd{env: e}},
		{"seal", "Seal the pending block", &sealCmd{env: e}},
		{"prove", "Build the receipt proof of a sealed operation", &proveCmd{env: e}},
		{"balance", "Show a token balance", &balanceCmd{env: e}},
		{"checkpoints", "List the latest checkpoint of every source subnet", &checkpointsCmd{env: e}},
		{"certificate", "Show a stored certificate", &certificateCmd{env: e}},
		{"tokens", "List the registered tokens", &tokensCmd{env: e}},
		{"block", "Show a sealed block", &blockCmd{env: e}},
		{"stats", "Show node statistics", &statsCmd{env: e}},
	}
	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.short, c.short, c.data); err != nil {
			return err
		}
	}
	return nil
}
