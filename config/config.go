// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/Qitmeer/xsubnet/database"
	"github.com/Qitmeer/xsubnet/log"
	"github.com/Qitmeer/xsubnet/metrics"
	"github.com/Qitmeer/xsubnet/node"
	"github.com/btcsuite/btcutil"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

const (
	defaultConfigFilename = "xsubnet.conf"
	defaultDataDirname    = "data"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "xsubnet.log"
	defaultDbType         = "leveldb"
	defaultLogLevel       = "info"
	defaultThreshold      = 1
)

var (
	defaultHomeDir    = btcutil.AppDataDir("xsubnet", false)
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultDataDir    = filepath.Join(defaultHomeDir, defaultDataDirname)
	defaultLogDir     = filepath.Join(defaultHomeDir, defaultLogDirname)

	// Default contract addresses; the executor address must match on every
	// subnet.
	defaultStoreAddress    = "0x000000000000000000000000000000000000c0de"
	defaultRegistryAddress = "0x0000000000000000000000000000000000007e90"
	defaultExecutorAddress = "0x00000000000000000000000000000000000e8ec0"
)

type Config struct {
	HomeDir       string `short:"A" long:"appdata" description:"Path to application home directory"`
	ConfigFile    string `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir       string `short:"b" long:"datadir" description:"Directory to store data"`
	LogDir        string `long:"logdir" description:"Directory to log output."`
	NoFileLogging bool   `long:"nofilelogging" description:"Disable file logging."`
	DbType        string `long:"dbtype" description:"Database backend to use for the operation journal {leveldb, boltdb, badgerdb}"`
	DebugLevel    string `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, crit}"`
	Metrics       bool   `long:"metrics" description:"Enable metrics collection"`

	SubnetID  string   `long:"subnetid" description:"Id of the subnet this node runs (32 bytes hex)"`
	Admins    []string `long:"admin" description:"Certificate store admin address, may be repeated"`
	Threshold int      `long:"threshold" description:"Admin threshold"`

	StoreAddress    string `long:"storeaddr" description:"Address of the certificate store"`
	RegistryAddress string `long:"registryaddr" description:"Address of the token registry"`
	ExecutorAddress string `long:"executoraddr" description:"Address of the message executor, the same on every subnet"`

	From string `short:"f" long:"from" description:"Caller address of the operation"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		HomeDir:         defaultHomeDir,
		ConfigFile:      defaultConfigFile,
		DataDir:         defaultDataDir,
		LogDir:          defaultLogDir,
		DbType:          defaultDbType,
		DebugLevel:      defaultLogLevel,
		Threshold:       defaultThreshold,
		StoreAddress:    defaultStoreAddress,
		RegistryAddress: defaultRegistryAddress,
		ExecutorAddress: defaultExecutorAddress,
	}
}

// LoadFile reads the config file named on the command line, or the default
// one, into the options of parser. Command line options parsed afterwards
// override it.
func LoadFile(parser *flags.Parser, args []string) error {
	// Pre-parse the command line options to see if an alternative config
	// file or home directory was specified.
	preCfg := Default()
	preParser := flags.NewParser(preCfg, flags.IgnoreUnknown)
	if _, err := preParser.ParseArgs(args); err != nil {
		if e, ok := err.(*flags.Error); !ok || e.Type != flags.ErrHelp {
			return err
		}
	}

	configFile := preCfg.ConfigFile
	if preCfg.HomeDir != defaultHomeDir && configFile == defaultConfigFile {
		configFile = filepath.Join(preCfg.HomeDir, defaultConfigFilename)
	}
	configFile = CleanAndExpandPath(configFile)
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil
	}
	if err := flags.NewIniParser(parser).ParseFile(configFile); err != nil {
		return errors.Wrapf(err, "config file %s", configFile)
	}
	log.Debug("Loaded config file", "path", configFile)
	return nil
}

// Finalize derives the directories from the home directory, checks the
// options and sets up logging and metrics.
func (c *Config) Finalize() error {
	funcName := "loadConfig"
	// Update the home directory if specified. Since the home directory is
	// updated, other variables need to be updated to reflect the new changes.
	if c.HomeDir != defaultHomeDir {
		c.HomeDir, _ = filepath.Abs(CleanAndExpandPath(c.HomeDir))
		if c.DataDir == defaultDataDir {
			c.DataDir = filepath.Join(c.HomeDir, defaultDataDirname)
		}
		if c.LogDir == defaultLogDir {
			c.LogDir = filepath.Join(c.HomeDir, defaultLogDirname)
		}
	}
	c.DataDir = CleanAndExpandPath(c.DataDir)
	c.LogDir = CleanAndExpandPath(c.LogDir)

	if err := os.MkdirAll(c.HomeDir, 0700); err != nil {
		// Show a nicer error message if it's because a symlink is
		// linked to a directory that does not exist (probably because
		// it's not mounted).
		if e, ok := err.(*os.PathError); ok && os.IsExist(err) {
			if link, lerr := os.Readlink(e.Path); lerr == nil {
				err = fmt.Errorf("is symlink %s -> %s mounted?", e.Path, link)
			}
		}
		return fmt.Errorf("%s: failed to create home directory: %v", funcName, err)
	}

	if !isSupportedDbType(c.DbType) {
		return fmt.Errorf("%s: the specified database type [%v] is invalid -- supported types %v",
			funcName, c.DbType, database.SupportedDrivers())
	}
	if err := log.SetLevel(c.DebugLevel); err != nil {
		return fmt.Errorf("%s: %v", funcName, err)
	}
	if !c.NoFileLogging {
		if err := log.InitLogRotator(filepath.Join(c.LogDir, defaultLogFilename)); err != nil {
			return fmt.Errorf("%s: %v", funcName, err)
		}
	}
	if c.Metrics {
		metrics.Enable()
	}
	return nil
}

func isSupportedDbType(dbType string) bool {
	for _, t := range database.SupportedDrivers() {
		if t == dbType {
			return true
		}
	}
	return false
}

// DBPath is the directory of the journal database.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "journal_"+c.DbType)
}

// Node returns the engine addresses.
func (c *Config) Node() (*node.Config, error) {
	store, err := ParseAddress("storeaddr", c.StoreAddress)
	if err != nil {
		return nil, err
	}
	reg, err := ParseAddress("registryaddr", c.RegistryAddress)
	if err != nil {
		return nil, err
	}
	exec, err := ParseAddress("executoraddr", c.ExecutorAddress)
	if err != nil {
		return nil, err
	}
	return &node.Config{StoreAddress: store, RegistryAddress: reg, ExecutorAddress: exec}, nil
}

func (c *Config) Caller() (common.Address, error) {
	return ParseAddress("from", c.From)
}

func (c *Config) Subnet() (common.Hash, error) {
	return ParseHash("subnetid", c.SubnetID)
}

func (c *Config) AdminAddresses() ([]common.Address, error) {
	admins := make([]common.Address, 0, len(c.Admins))
	for _, s := range c.Admins {
		a, err := ParseAddress("admin", s)
		if err != nil {
			return nil, err
		}
		admins = append(admins, a)
	}
	return admins, nil
}

// ParseAddress parses the hex address given for option name.
func ParseAddress(name, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("--%s: invalid address %q", name, s)
	}
	return common.HexToAddress(s), nil
}

// ParseHash parses the 0x prefixed 32 byte value given for option name.
func ParseHash(name, s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, fmt.Errorf("--%s: %v", name, err)
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("--%s: want %d bytes, got %d", name, common.HashLength, len(b))
	}
	return common.BytesToHash(b), nil
}

// CleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func CleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		var homeDir string
		if u, err := user.Current(); err == nil {
			homeDir = u.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}
