// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// xsubnet is the operator tool of a subnet's cross-subnet engine. Every
// command replays the node journal, runs one operation or query and exits.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/Qitmeer/xsubnet/config"
	"github.com/Qitmeer/xsubnet/log"
	"github.com/jessevdk/go-flags"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, err)
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	cfg := config.Default()
	parser := flags.NewParser(cfg, flags.HelpFlag|flags.PassDoubleDash)
	if err := addCommands(parser, &env{cfg: cfg, out: out}); err != nil {
		return err
	}
	if err := config.LoadFile(parser, args); err != nil {
		return err
	}
	parser.CommandHandler = func(command flags.Commander, args []string) error {
		if err := cfg.Finalize(); err != nil {
			return err
		}
		defer log.Close()
		return command.Execute(args)
	}
	_, err := parser.ParseArgs(args)
	return err
}
