// Copyright (c) 2017-2018 The qitmeer developers
// Copyright (c) 2016 The btcsuite developers
// Copyright (c) 2016-2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package progresslog

import (
	"fmt"
	"sync"
	"time"

	"github.com/Qitmeer/xsubnet/log"
)

// BlockProgressLogger provides periodic logging for other services in order
// to show users progress of certain "actions" involving many operations.
// Ex: replaying the operation journal.
type BlockProgressLogger struct {
	receivedLogBlocks int64
	receivedLogOps    int64
	lastBlockLogTime  time.Time

	subsystemLogger log.Logger
	progressAction  string
	interval        time.Duration
	now             func() time.Time
	sync.Mutex
}

// NewBlockProgressLogger returns a new block progress logger.
// The progress message is templated as follows:
//  {progressAction} {numProcessed} {operations|operation} in the last {timePeriod}
//  ({numBlocks} sealed, sequence {lastSeq}, {lastOpTime})
func NewBlockProgressLogger(progressMessage string, logger log.Logger) *BlockProgressLogger {
	return &BlockProgressLogger{
		lastBlockLogTime: time.Now(),
		progressAction:   progressMessage,
		subsystemLogger:  logger,
		interval:         10 * time.Second,
		now:              time.Now,
	}
}

// LogOperation records one replayed operation and logs the totals as an
// information message. In order to prevent spam, it limits logging to one
// message every 10 seconds with duration and totals included.
func (b *BlockProgressLogger) LogOperation(seq uint64, sealed bool, opTime time.Time) {
	b.Lock()
	defer b.Unlock()
	b.receivedLogOps++
	if sealed {
		b.receivedLogBlocks++
	}

	now := b.now()
	duration := now.Sub(b.lastBlockLogTime)
	if duration < b.interval {
		return
	}
	b.flush(now, duration, seq, opTime)
}

func (b *BlockProgressLogger) flush(now time.Time, duration time.Duration, seq uint64, opTime time.Time) {
	// Truncate the duration to 10s of milliseconds.
	durationMillis := int64(duration / time.Millisecond)
	tDuration := 10 * time.Millisecond * time.Duration(durationMillis/10)

	opStr := "operations"
	if b.receivedLogOps == 1 {
		opStr = "operation"
	}
	b.subsystemLogger.Info(fmt.Sprintf("%s %d %s in the last %s (%d sealed, sequence %d, %s)",
		b.progressAction, b.receivedLogOps, opStr, tDuration,
		b.receivedLogBlocks, seq, opTime.UTC().Format(time.RFC3339)))

	b.receivedLogBlocks = 0
	b.receivedLogOps = 0
	b.lastBlockLogTime = now
}

// Pending returns the operations counted since the last message.
func (b *BlockProgressLogger) Pending() int64 {
	b.Lock()
	defer b.Unlock()
	return b.receivedLogOps
}

func (b *BlockProgressLogger) SetLastLogTime(time time.Time) {
	b.lastBlockLogTime = time
}
