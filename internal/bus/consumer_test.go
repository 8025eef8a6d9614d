package bus

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	msgs chan kafka.Message

	closeOnce sync.Once
	closed    chan struct{}
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		msgs:   make(chan kafka.Message, 16),
		closed: make(chan struct{}),
	}
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-f.msgs:
		return m, nil
	case <-f.closed:
		// kafka.Reader surfaces reads against a closed reader this way.
		return kafka.Message{}, io.ErrClosedPipe
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (f *fakeReader) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func testRegistry(t *testing.T, reader recordReader) *ConsumerRegistry {
	t.Helper()
	r := NewConsumerRegistry(context.Background(), nil, log.New(io.Discard, "", 0))
	r.newReader = func(string, []string) recordReader { return reader }
	return r
}

func TestHandlerErrorDoesNotStopConsumer(t *testing.T) {
	reader := newFakeReader()
	registry := testRegistry(t, reader)
	defer registry.Close()

	processed := make(chan string, 4)
	handler := func(_ context.Context, _ string, msg kafka.Message) error {
		processed <- string(msg.Value)
		if string(msg.Value) == "bad" {
			return errors.New("boom")
		}
		return nil
	}

	require.NoError(t, registry.Subscribe("g1", []string{TopicCryptoPrices}, handler))

	reader.msgs <- kafka.Message{Topic: TopicCryptoPrices, Value: []byte("bad")}
	reader.msgs <- kafka.Message{Topic: TopicCryptoPrices, Value: []byte("good")}

	assert.Equal(t, "bad", receiveWithin(t, processed))
	assert.Equal(t, "good", receiveWithin(t, processed), "record after the failing one must still be delivered")
}

func TestHandlerPanicDoesNotStopConsumer(t *testing.T) {
	reader := newFakeReader()
	registry := testRegistry(t, reader)
	defer registry.Close()

	processed := make(chan string, 4)
	handler := func(_ context.Context, _ string, msg kafka.Message) error {
		if string(msg.Value) == "bad" {
			panic("bad record")
		}
		processed <- string(msg.Value)
		return nil
	}

	require.NoError(t, registry.Subscribe("g1", []string{TopicCryptoPrices}, handler))

	reader.msgs <- kafka.Message{Topic: TopicCryptoPrices, Value: []byte("bad")}
	reader.msgs <- kafka.Message{Topic: TopicCryptoPrices, Value: []byte("good")}

	assert.Equal(t, "good", receiveWithin(t, processed), "record after the panicking one must still be delivered")
	assert.Equal(t, []string{"g1"}, registry.Groups(), "the group must survive the panic")
}

func TestUnsubscribeStopsCleanly(t *testing.T) {
	reader := newFakeReader()
	var buf bytes.Buffer
	registry := NewConsumerRegistry(context.Background(), nil, log.New(&buf, "", 0))
	registry.newReader = func(string, []string) recordReader { return reader }

	handler := func(context.Context, string, kafka.Message) error { return nil }
	require.NoError(t, registry.Subscribe("g1", []string{TopicCryptoPrices}, handler))
	require.NoError(t, registry.Unsubscribe("g1"))

	assert.NotContains(t, buf.String(), "stopped", "a deliberate unsubscribe must not log a consumer failure")
}

func TestSubscribeDuplicateGroup(t *testing.T) {
	reader := newFakeReader()
	registry := testRegistry(t, reader)
	defer registry.Close()

	handler := func(context.Context, string, kafka.Message) error { return nil }
	require.NoError(t, registry.Subscribe("g1", []string{TopicCryptoPrices}, handler))

	err := registry.Subscribe("g1", []string{TopicUserAlerts}, handler)
	assert.ErrorIs(t, err, ErrGroupExists)
}

func TestGroupsTracksLiveConsumers(t *testing.T) {
	reader := newFakeReader()
	registry := testRegistry(t, reader)
	defer registry.Close()

	handler := func(context.Context, string, kafka.Message) error { return nil }
	require.NoError(t, registry.Subscribe("indexer", []string{TopicNewsSentiment}, handler))
	assert.Equal(t, []string{"indexer"}, registry.Groups())
}

func TestUnsubscribeDrainsGroup(t *testing.T) {
	reader := newFakeReader()
	registry := testRegistry(t, reader)

	handler := func(context.Context, string, kafka.Message) error { return nil }
	require.NoError(t, registry.Subscribe("g1", []string{TopicCryptoPrices}, handler))

	require.NoError(t, registry.Unsubscribe("g1"))
	assert.Empty(t, registry.Groups())

	assert.Error(t, registry.Unsubscribe("g1"), "second unsubscribe must report an unknown group")
}

func TestCloseStopsAllGroups(t *testing.T) {
	r1, r2 := newFakeReader(), newFakeReader()
	readers := []recordReader{r1, r2}

	registry := NewConsumerRegistry(context.Background(), nil, log.New(io.Discard, "", 0))
	registry.newReader = func(string, []string) recordReader {
		next := readers[0]
		readers = readers[1:]
		return next
	}

	handler := func(context.Context, string, kafka.Message) error { return nil }
	require.NoError(t, registry.Subscribe("g1", []string{TopicCryptoPrices}, handler))
	require.NoError(t, registry.Subscribe("g2", []string{TopicUserAlerts}, handler))

	require.NoError(t, registry.Close())
	assert.Empty(t, registry.Groups())
}

func receiveWithin(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for handler invocation")
		return ""
	}
}
