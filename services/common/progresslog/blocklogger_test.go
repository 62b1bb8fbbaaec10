// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package progresslog

import (
	"testing"
	"time"

	"github.com/Qitmeer/xsubnet/log"
	"github.com/stretchr/testify/assert"
)

func TestLogOperation(t *testing.T) {
	start := time.Unix(1700000000, 0)
	clock := start
	b := NewBlockProgressLogger("Replayed", log.New(log.Ctx{"module": "test"}))
	b.now = func() time.Time { return clock }
	b.SetLastLogTime(start)

	b.LogOperation(1, false, start)
	b.LogOperation(2, true, start)
	assert.Equal(t, int64(2), b.Pending())

	clock = start.Add(11 * time.Second)
	b.LogOperation(3, false, start)
	assert.Equal(t, int64(0), b.Pending())
	assert.Equal(t, int64(0), b.receivedLogBlocks)

	b.LogOperation(4, false, start)
	assert.Equal(t, int64(1), b.Pending())
}
