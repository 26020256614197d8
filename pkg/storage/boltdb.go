package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cuemby/warren-pubsub/pkg/transport"
	bolt "go.etcd.io/bbolt"
)

var bucketEvents = []byte("pubsub_events")

// TraceRecord is one directory mutation as seen by the scheduler: an
// AddPublisher call, a subscriber add/remove, or a delivered message.
// It is never consulted by a running scheduler - only ever read back
// by a human (or a replay tool) after the fact.
type TraceRecord struct {
	Seq    uint64
	At     time.Time
	Op     transport.Op
	Topic  transport.Topic
	Worker transport.WorkerAddr
	Client transport.ClientID
}

// BoltStore implements Store as a single append-only BoltDB bucket,
// keyed by a monotonic sequence number so Replay always walks records
// in the order they were recorded.
type BoltStore struct {
	db  *bolt.DB
	seq uint64
}

// NewBoltStore opens (creating if necessary) the trace database under
// dataDir.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "pubsub-trace.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", dbPath, err)
	}

	var lastSeq uint64
	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketEvents)
		if err != nil {
			return fmt.Errorf("storage: create bucket: %w", err)
		}
		if k, _ := b.Cursor().Last(); k != nil {
			lastSeq = binary.BigEndian.Uint64(k)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db, seq: lastSeq}, nil
}

// Record appends rec, assigning it the next sequence number.
func (s *BoltStore) Record(rec TraceRecord) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		s.seq++
		rec.Seq = s.seq

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("storage: marshal trace record: %w", err)
		}

		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, s.seq)

		b := tx.Bucket(bucketEvents)
		return b.Put(key, data)
	})
}

// Replay calls fn once per record, in sequence order, stopping at the
// first error fn returns.
func (s *BoltStore) Replay(fn func(TraceRecord) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEvents)
		return b.ForEach(func(k, v []byte) error {
			var rec TraceRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("storage: unmarshal trace record: %w", err)
			}
			return fn(rec)
		})
	})
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
