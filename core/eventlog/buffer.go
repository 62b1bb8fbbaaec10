// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package eventlog

import "github.com/ethereum/go-ethereum/core/types"

// Buffer collects the logs emitted by the operation currently running. The
// components of one engine share a single Buffer; the sequencer drains it
// when the operation commits and resets it when the operation fails.
type Buffer struct {
	logs []*types.Log
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

func (b *Buffer) Add(l *types.Log) {
	b.logs = append(b.logs, l)
}

// Logs returns the pending logs without draining them.
func (b *Buffer) Logs() []*types.Log {
	return b.logs
}

func (b *Buffer) Len() int {
	return len(b.logs)
}

// Drain returns the pending logs and empties the buffer.
func (b *Buffer) Drain() []*types.Log {
	logs := b.logs
	b.logs = nil
	return logs
}

// Reset drops the pending logs.
func (b *Buffer) Reset() {
	b.logs = nil
}
