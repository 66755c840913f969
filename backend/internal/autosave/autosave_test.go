package autosave

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockEditor/backend/internal/editor"
	"blockEditor/backend/internal/ot/delta"
	"blockEditor/backend/internal/schema"
)

type draftCall struct {
	rev  uint64
	html string
}

type fakeDrafts struct{ calls []draftCall }

func (f *fakeDrafts) SaveDraft(_ context.Context, _ string, rev uint64, html string) error {
	f.calls = append(f.calls, draftCall{rev, html})
	return nil
}

type fakeSnapshots struct {
	revs []uint64
	last string
	err  error
}

func (f *fakeSnapshots) SaveDocumentSnapshot(_ context.Context, _ string, rev uint64, content string) error {
	if f.err != nil {
		return f.err
	}
	f.revs = append(f.revs, rev)
	f.last = content
	return nil
}

type fakeEvents struct{ events []ContentChangedEvent }

func (f *fakeEvents) Enqueue(_ context.Context, evt ContentChangedEvent) error {
	f.events = append(f.events, evt)
	return nil
}

func newEditor(t *testing.T, s *Saver, content string) *editor.Editor {
	t.Helper()
	reg, err := schema.New(schema.DefaultOptions())
	require.NoError(t, err)
	ed, err := editor.New(reg, content, editor.WithOnTransaction(s.OnTransaction), editor.WithOnUpdate(s.OnUpdate))
	require.NoError(t, err)
	return ed
}

func TestSaverPublishesEveryChange(t *testing.T) {
	drafts, snaps, events := &fakeDrafts{}, &fakeSnapshots{}, &fakeEvents{}
	s := NewSaver("doc-1", 7, drafts, snaps, events, Options{SnapshotsPerSecond: 0.001, SnapshotBurst: 1})
	ed := newEditor(t, s, "<p>ab</p>")
	ed.Focus(editor.FocusEnd)

	ed.TypeText("cd")
	assert.Equal(t, uint64(9), s.Revision())
	require.Len(t, drafts.calls, 2)
	assert.Equal(t, draftCall{9, "<p>abcd</p>"}, drafts.calls[1])

	require.Len(t, events.events, 2)
	evt := events.events[0]
	assert.Equal(t, EventContentChanged, evt.EventType)
	assert.Equal(t, "doc-1", evt.DocID)
	assert.Equal(t, uint64(8), evt.Revision)
	assert.Equal(t, "<p>abc</p>", evt.HTML)
	require.Len(t, evt.Ops, 1)
	assert.Equal(t, delta.Delta{{Kind: delta.KindRetain, Count: 3}, {Kind: delta.KindInsert, Count: 1, Text: "c"}}, evt.Ops[0])

	// the limiter lets the first snapshot through only
	assert.Equal(t, []uint64{8}, snaps.revs)
	assert.True(t, s.Dirty())

	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, []uint64{8, 9}, snaps.revs)
	assert.Equal(t, "<p>abcd</p>", snaps.last)
	assert.False(t, s.Dirty())
	require.NoError(t, s.Flush(context.Background()))
	assert.Len(t, snaps.revs, 2)
}

func TestSaverSelectionOnlyIsNotAChange(t *testing.T) {
	events := &fakeEvents{}
	s := NewSaver("doc-1", 0, nil, nil, events, DefaultOptions())
	ed := newEditor(t, s, "<p>ab</p>")
	ed.Focus(editor.FocusStart)
	require.True(t, ed.SetSelection(1, 3))
	assert.Empty(t, events.events)
	assert.Zero(t, s.Revision())
}

func TestSaverSnapshotFailureKeepsDirty(t *testing.T) {
	snaps := &fakeSnapshots{err: errors.New("db down")}
	s := NewSaver("doc-1", 0, nil, snaps, nil, Options{})
	s.OnUpdate("<p>x</p>")
	assert.True(t, s.Dirty())
	assert.Error(t, s.Flush(context.Background()))
}

func TestSemaphore(t *testing.T) {
	sem := NewSemaphoreControl(1)
	require.NoError(t, sem.Acquire(context.Background()))
	assert.Equal(t, 1, sem.InUse())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, sem.Acquire(ctx), ErrAcquireTimeout)

	require.NoError(t, sem.Release())
	assert.ErrorIs(t, sem.Release(), ErrNotAcquired)
	assert.Equal(t, DefaultSemaphoreSize, cap(NewSemaphoreControl(0).ch))
}

func fastOptions(retry int) KafkaDispatcherOptions {
	return KafkaDispatcherOptions{QueueSize: 8, Workers: 1, MaxRetry: retry, BaseBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestDispatcherSendsKeyedJSON(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "doc-9" {
			return errors.New("unexpected key " + string(key))
		}
		value, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var evt ContentChangedEvent
		if err := json.Unmarshal(value, &evt); err != nil {
			return err
		}
		if evt.Revision != 3 || evt.HTML != "<p>x</p>" {
			return errors.New("unexpected payload")
		}
		return nil
	})

	d := NewKafkaDispatcher(producer, "editor-content", NewSemaphoreControl(2), fastOptions(0))
	require.NoError(t, d.Enqueue(context.Background(), ContentChangedEvent{DocID: "doc-9", Revision: 3, HTML: "<p>x</p>"}))
	d.Close()
	require.NoError(t, producer.Close())
}

func TestDispatcherRetriesThenDrops(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	boom := errors.New("broker unavailable")
	// first event: fails twice, then goes through
	producer.ExpectSendMessageAndFail(boom)
	producer.ExpectSendMessageAndFail(boom)
	producer.ExpectSendMessageAndSucceed()
	// second event: fails every attempt and is dropped
	for i := 0; i < 3; i++ {
		producer.ExpectSendMessageAndFail(boom)
	}

	d := NewKafkaDispatcher(producer, "editor-content", nil, fastOptions(2))
	require.NoError(t, d.Enqueue(context.Background(), ContentChangedEvent{DocID: "a", Revision: 1}))
	require.NoError(t, d.Enqueue(context.Background(), ContentChangedEvent{DocID: "a", Revision: 2}))
	d.Close()
	require.NoError(t, producer.Close())
}

func TestDispatcherEnqueueTimesOutWhenFull(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndSucceed()
	producer.ExpectSendMessageAndSucceed()

	sem := NewSemaphoreControl(1)
	require.NoError(t, sem.Acquire(context.Background()))

	opts := fastOptions(0)
	opts.QueueSize = 1
	d := NewKafkaDispatcher(producer, "editor-content", sem, opts)

	// the worker takes the first event and waits on the semaphore
	require.NoError(t, d.Enqueue(context.Background(), ContentChangedEvent{Revision: 1}))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Enqueue(ctx, ContentChangedEvent{Revision: 2}))

	short, cancelShort := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancelShort()
	assert.ErrorIs(t, d.Enqueue(short, ContentChangedEvent{Revision: 3}), context.DeadlineExceeded)

	require.NoError(t, sem.Release())
	d.Close()
	require.NoError(t, producer.Close())
}

func TestDispatcherWithoutProducerIsNoop(t *testing.T) {
	d := NewKafkaDispatcher(nil, "", nil, fastOptions(0))
	require.NoError(t, d.Enqueue(context.Background(), ContentChangedEvent{DocID: "x"}))
	d.Close()
	d.Close()
}

func TestBackoffIsCapped(t *testing.T) {
	d := &KafkaDispatcher{baseBackoff: 50 * time.Millisecond, maxBackoff: 120 * time.Millisecond}
	assert.Equal(t, 50*time.Millisecond, d.backoff(0))
	assert.Equal(t, 100*time.Millisecond, d.backoff(1))
	assert.Equal(t, 120*time.Millisecond, d.backoff(2))
}
