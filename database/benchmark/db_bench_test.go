// Copyright (c) 2017-2018 The qitmeer developers

package benchmark

// $ go test -run='^$' -bench=. -benchmem
import (
	"encoding/binary"
	"io/ioutil"
	"os"
	"testing"

	"github.com/Qitmeer/xsubnet/database"
	_ "github.com/Qitmeer/xsubnet/database/badgerdb"
	_ "github.com/Qitmeer/xsubnet/database/boltdb"
	_ "github.com/Qitmeer/xsubnet/database/leveldb"
)

var (
	testKey       = []byte("testKey")
	testValue     = []byte("testValue")
	testValueSize = int64(len(testValue))
)

func openBench(b *testing.B, dbType string) (database.DB, func()) {
	tmp, err := ioutil.TempDir(os.TempDir(), dbType)
	if err != nil {
		b.Fatal(err)
	}
	db, err := database.Open(dbType, tmp)
	if err != nil {
		b.Fatal(err)
	}
	return db, func() {
		db.Close()
		os.RemoveAll(tmp)
	}
}

func benchmarkGet(b *testing.B, dbType string) {
	db, done := openBench(b, dbType)
	defer done()
	if err := db.Put("bench", testKey, testValue); err != nil {
		b.Fatal(err)
	}
	b.SetBytes(testValueSize)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := db.Get("bench", testKey); err != nil {
			b.Fatal(err)
		}
	}
	b.StopTimer()
}

// benchmarkJournal appends b.N journal records and walks them back.
func benchmarkJournal(b *testing.B, dbType string) {
	db, done := openBench(b, dbType)
	defer done()
	b.SetBytes(testValueSize)
	b.ResetTimer()

	var seq [8]byte
	for i := 0; i < b.N; i++ {
		binary.BigEndian.PutUint64(seq[:], uint64(i))
		if err := db.Put("journal", seq[:], testValue); err != nil {
			b.Fatal(err)
		}
	}
	n := 0
	err := db.ForEach("journal", func(key, value []byte) error {
		n++
		return nil
	})
	if err != nil || n != b.N {
		b.Fatalf("walked %d of %d records: %v", n, b.N, err)
	}
	b.StopTimer()
}

func BenchmarkGetBadger(b *testing.B)      { benchmarkGet(b, "badgerdb") }
func BenchmarkGetLevelDB(b *testing.B)     { benchmarkGet(b, "leveldb") }
func BenchmarkGetBolt(b *testing.B)        { benchmarkGet(b, "boltdb") }
func BenchmarkJournalBadger(b *testing.B)  { benchmarkJournal(b, "badgerdb") }
func BenchmarkJournalLevelDB(b *testing.B) { benchmarkJournal(b, "leveldb") }
func BenchmarkJournalBolt(b *testing.B)    { benchmarkJournal(b, "boltdb") }
