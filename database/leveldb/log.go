// Copyright (c) 2017-2020 The qitmeer developers

package leveldb

import (
	l "github.com/Qitmeer/xsubnet/log"
)

var log l.Logger

func init() {
	UseLogger(l.New(l.Ctx{"module": "leveldb"}))
}

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger l.Logger) {
	log = logger
}
