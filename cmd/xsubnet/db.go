// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"github.com/Qitmeer/xsubnet/config"
	"github.com/Qitmeer/xsubnet/database"
	_ "github.com/Qitmeer/xsubnet/database/badgerdb"
	_ "github.com/Qitmeer/xsubnet/database/boltdb"
	_ "github.com/Qitmeer/xsubnet/database/leveldb"
	"github.com/Qitmeer/xsubnet/log"
	"github.com/Qitmeer/xsubnet/node"
)

// loadNode opens (or creates when needed) the journal database and replays
// it into a node.
func loadNode(cfg *config.Config) (*node.Node, database.DB, error) {
	dbPath := cfg.DBPath()
	log.Debug("Loading journal database", "dbPath", dbPath)
	db, err := database.Open(cfg.DbType, dbPath)
	if err != nil {
		return nil, nil, err
	}
	ncfg, err := cfg.Node()
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	n, err := node.Open(ncfg, db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return n, db, nil
}
