package storage

import (
	"testing"

	"github.com/cuemby/warren-pubsub/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndReplayPreserveOrder(t *testing.T) {
	store, err := NewBoltStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Record(TraceRecord{Op: transport.OpAddSubscriber, Topic: "prices", Worker: "worker-1"}))
	require.NoError(t, store.Record(TraceRecord{Op: transport.OpMsg, Topic: "prices", Worker: "worker-1"}))
	require.NoError(t, store.Record(TraceRecord{Op: transport.OpRemoveSubscriber, Topic: "prices", Worker: "worker-1"}))

	var ops []transport.Op
	var seqs []uint64
	require.NoError(t, store.Replay(func(rec TraceRecord) error {
		ops = append(ops, rec.Op)
		seqs = append(seqs, rec.Seq)
		return nil
	}))

	assert.Equal(t, []transport.Op{transport.OpAddSubscriber, transport.OpMsg, transport.OpRemoveSubscriber}, ops)
	assert.Equal(t, []uint64{1, 2, 3}, seqs)
}

func TestSequenceResumesAfterReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewBoltStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Record(TraceRecord{Op: transport.OpMsg, Topic: "prices"}))
	require.NoError(t, store.Close())

	reopened, err := NewBoltStore(dir)
	require.NoError(t, err)
	defer reopened.Close()
	require.NoError(t, reopened.Record(TraceRecord{Op: transport.OpMsg, Topic: "prices"}))

	var seqs []uint64
	require.NoError(t, reopened.Replay(func(rec TraceRecord) error {
		seqs = append(seqs, rec.Seq)
		return nil
	}))
	assert.Equal(t, []uint64{1, 2}, seqs)
}
