// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	admin     = "0x00000000000000000000000000000000000000ad"
	sender    = "0x00000000000000000000000000000000000a11ce"
	recipient = "0x0000000000000000000000000000000000000b0b"
	subnetA   = "0x000000000000000000000000000000000000000000000000000000000000000a"
	subnetB   = "0x000000000000000000000000000000000000000000000000000000000000000b"
)

type subnetHome struct {
	t    *testing.T
	home string
}

func (s *subnetHome) run(args ...string) string {
	var out bytes.Buffer
	args = append([]string{"--appdata", s.home, "--nofilelogging", "--dbtype", "boltdb"}, args...)
	require.NoError(s.t, run(args, &out), strings.Join(args, " "))
	return out.String()
}

func (s *subnetHome) fail(args ...string) error {
	args = append([]string{"--appdata", s.home, "--nofilelogging", "--dbtype", "boltdb"}, args...)
	return run(args, &bytes.Buffer{})
}

// field returns the value printed after name in out.
func field(t *testing.T, out, name string) string {
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, name+" ") {
			return strings.Fields(line)[1]
		}
	}
	t.Fatalf("no %s in %q", name, out)
	return ""
}

func TestCrossSubnetFlow(t *testing.T) {
	a := &subnetHome{t: t, home: t.TempDir()}
	b := &subnetHome{t: t, home: t.TempDir()}

	for _, s := range []struct {
		h      *subnetHome
		id     string
		supply string
	}{{a, subnetA, "1000"}, {b, subnetB, "0"}} {
		s.h.run("--from", admin, "--admin", admin, "--threshold", "1", "--subnetid", s.id, "init")
		out := s.h.run("--from", sender, "deploy-token", "--name", "Token X", "--symbol", "X",
			"--cap", "100000000", "--limit", "100", "--supply", s.supply)
		assert.Contains(t, out, "X deployed at")
	}

	a.run("--from", sender, "approve", "--symbol", "X", "--amount", "50")
	a.run("--from", sender, "send-token", "--target", subnetB, "--symbol", "X", "--to", recipient, "--amount", "50")
	assert.Equal(t, "950\n", a.run("balance", "--symbol", "X", "--owner", sender))
	assert.Contains(t, a.run("seal"), "block 0")

	// init, set-subnet, deploy, approve, send
	proof := a.run("prove", "--block", "0", "--tx", "4")
	root := field(t, proof, "root")
	blob := field(t, proof, "proof")

	cert := strings.TrimSpace(a.run("encode-cert", "--id", "0x"+strings.Repeat("ce", 32),
		"--source", subnetA, "--root", root, "--target", subnetB))
	assert.Error(t, b.fail("--from", sender, "push-cert", "--cert", cert))
	b.run("--from", admin, "push-cert", "--cert", cert, "--position", "0")
	assert.Contains(t, b.run("checkpoints"), subnetA)
	assert.Contains(t, b.run("certificate", "--root", root), "ReceiptRoot")

	b.run("--from", admin, "execute", "--log", "2", "--proof", blob, "--root", root)
	assert.Equal(t, "50\n", b.run("balance", "--symbol", "X", "--owner", recipient))

	err := b.fail("--from", admin, "execute", "--log", "2", "--proof", blob, "--root", root)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already executed")

	assert.Contains(t, b.run("stats"), "executed 1")
	assert.Contains(t, b.run("tokens"), "X")
}

func TestBadInput(t *testing.T) {
	h := &subnetHome{t: t, home: t.TempDir()}
	assert.Error(t, h.fail("--from", "nope", "seal"))
	assert.Error(t, h.fail("--from", sender, "approve", "--symbol", "X", "--amount", "lots"))
	assert.Error(t, h.fail("seal"))
	assert.Error(t, h.fail("--dbtype", "ffldb", "stats"))
	assert.Error(t, h.fail("no-such-command"))
}
