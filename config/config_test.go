// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package config

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	_ "github.com/Qitmeer/xsubnet/database/leveldb"
	"github.com/ethereum/go-ethereum/common"
	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalize(t *testing.T) {
	home := t.TempDir()
	cfg := Default()
	cfg.HomeDir = home
	cfg.NoFileLogging = true
	require.NoError(t, cfg.Finalize())
	assert.Equal(t, filepath.Join(home, defaultDataDirname), cfg.DataDir)
	assert.Equal(t, filepath.Join(home, defaultLogDirname), cfg.LogDir)
	assert.Equal(t, filepath.Join(home, defaultDataDirname, "journal_leveldb"), cfg.DBPath())

	cfg = Default()
	cfg.HomeDir = home
	cfg.NoFileLogging = true
	cfg.DbType = "ffldb"
	assert.Error(t, cfg.Finalize())

	cfg.DbType = defaultDbType
	cfg.DebugLevel = "loud"
	assert.Error(t, cfg.Finalize())
}

func TestLoadFile(t *testing.T) {
	home := t.TempDir()
	conf := "[Application Options]\n" +
		"subnetid=0x000000000000000000000000000000000000000000000000000000000000000b\n" +
		"admin=0x00000000000000000000000000000000000000ad\n" +
		"threshold=1\n" +
		"dbtype=boltdb\n"
	require.NoError(t, ioutil.WriteFile(filepath.Join(home, defaultConfigFilename), []byte(conf), 0600))

	cfg := Default()
	parser := flags.NewParser(cfg, flags.None)
	args := []string{"--appdata", home, "--dbtype", "leveldb"}
	require.NoError(t, LoadFile(parser, args))
	_, err := parser.ParseArgs(args)
	require.NoError(t, err)

	// the command line wins over the file
	assert.Equal(t, "leveldb", cfg.DbType)
	id, err := cfg.Subnet()
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash("0x0b"), id)
	admins, err := cfg.AdminAddresses()
	require.NoError(t, err)
	assert.Equal(t, []common.Address{common.HexToAddress("0xad")}, admins)
}

func TestParse(t *testing.T) {
	cfg := Default()
	n, err := cfg.Node()
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(defaultExecutorAddress), n.ExecutorAddress)

	cfg.StoreAddress = "0x12"
	_, err = cfg.Node()
	assert.Error(t, err)

	_, err = cfg.Caller()
	assert.Error(t, err)
	_, err = ParseHash("subnetid", "0x0b")
	assert.Error(t, err)
	_, err = ParseHash("subnetid", "0b")
	assert.Error(t, err)
}
