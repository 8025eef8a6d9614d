package bus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/luiz-carlos-1985/AI-TRADING-ANALYTICS-PLATAFORM/pkg/routine"
	"github.com/segmentio/kafka-go"
)

// Handler processes a single record received from a topic. A returned error
// or a panic is logged and does not stop the consumer loop.
type Handler func(ctx context.Context, topic string, msg kafka.Message) error

// ErrGroupExists indicates a consumer group with the same id is already
// running in this registry.
var ErrGroupExists = errors.New("bus: consumer group already running")

// recordReader is the subset of kafka.Reader the registry relies on.
type recordReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// ConsumerRegistry runs consumer groups and tracks them by id so they can
// be enumerated and torn down individually or all at once. Reconnection on
// transient transport errors is the reader's own responsibility (session
// timeout and heartbeat below).
type ConsumerRegistry struct {
	logger  *log.Logger
	manager *routine.Manager

	mu      sync.Mutex
	readers map[string]recordReader

	newReader func(groupID string, topics []string) recordReader
}

// NewConsumerRegistry builds a registry whose consumer groups read from the
// given brokers.
func NewConsumerRegistry(ctx context.Context, brokers []string, logger *log.Logger) *ConsumerRegistry {
	return &ConsumerRegistry{
		logger:  logger,
		manager: routine.NewManager(ctx),
		readers: make(map[string]recordReader),
		newReader: func(groupID string, topics []string) recordReader {
			return kafka.NewReader(kafka.ReaderConfig{
				Brokers:           brokers,
				GroupID:           groupID,
				GroupTopics:       topics,
				StartOffset:       kafka.LastOffset,
				SessionTimeout:    30 * time.Second,
				HeartbeatInterval: 3 * time.Second,
			})
		},
	}
}

// Subscribe joins a consumer group to the given topics, from the current
// offset, and invokes handler for every received record. A handler error is
// logged and the loop moves on to the next record.
func (r *ConsumerRegistry) Subscribe(groupID string, topics []string, handler Handler) error {
	if groupID == "" {
		return fmt.Errorf("bus: empty group id")
	}
	if len(topics) == 0 {
		return fmt.Errorf("bus: no topics for group %s", groupID)
	}
	if handler == nil {
		return fmt.Errorf("bus: nil handler for group %s", groupID)
	}

	reader := r.newReader(groupID, topics)

	r.mu.Lock()
	if _, exists := r.readers[groupID]; exists {
		r.mu.Unlock()
		reader.Close()
		return ErrGroupExists
	}
	r.readers[groupID] = reader
	r.mu.Unlock()

	err := r.manager.RunTask(&routine.Task{
		ID: groupID,
		Handler: func(ctx context.Context) error {
			return r.consume(ctx, groupID, reader, handler)
		},
		OnError: func(id string, err error) {
			r.logger.Printf("consumer group %s stopped: %v", id, err)
		},
		OnDone: func(id string) {
			r.drop(id)
		},
	})
	if err != nil {
		r.drop(groupID)
		reader.Close()
		if errors.Is(err, routine.ErrRoutineExists) {
			return ErrGroupExists
		}
		return fmt.Errorf("bus: start group %s: %w", groupID, err)
	}

	r.logger.Printf("consumer group %s subscribed to %v", groupID, topics)
	return nil
}

func (r *ConsumerRegistry) consume(ctx context.Context, groupID string, reader recordReader, handler Handler) error {
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			// A reader closed by Unsubscribe or Close surfaces as
			// io.ErrClosedPipe; that is a clean stop, not a failure.
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
				errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return nil
			}
			return fmt.Errorf("kafka read: %w", err)
		}

		r.handle(ctx, groupID, msg, handler)
	}
}

// handle invokes the handler for one record. Both returned errors and
// panics are contained here so a bad record never stops the loop.
func (r *ConsumerRegistry) handle(ctx context.Context, groupID string, msg kafka.Message, handler Handler) {
	defer func() {
		if v := recover(); v != nil {
			r.logger.Printf("group %s: panic processing record from %s: %v", groupID, msg.Topic, v)
		}
	}()

	if err := handler(ctx, msg.Topic, msg); err != nil {
		r.logger.Printf("group %s: error processing record from %s: %v", groupID, msg.Topic, err)
	}
}

// Groups lists the ids of all currently running consumer groups.
func (r *ConsumerRegistry) Groups() []string {
	return r.manager.IDs()
}

// Unsubscribe stops one consumer group and waits for its loop to drain.
func (r *ConsumerRegistry) Unsubscribe(groupID string) error {
	r.mu.Lock()
	reader, ok := r.readers[groupID]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("bus: unknown consumer group %s", groupID)
	}

	if err := reader.Close(); err != nil {
		r.logger.Printf("error closing reader for group %s: %v", groupID, err)
	}
	if err := r.manager.Shutdown(groupID); err != nil && !errors.Is(err, routine.ErrRoutineNotFound) {
		return err
	}
	r.logger.Printf("consumer group %s disconnected", groupID)
	return nil
}

// Close stops every consumer group and waits for all loops to drain. It
// must run before the publisher is closed during shutdown.
func (r *ConsumerRegistry) Close() error {
	r.mu.Lock()
	readers := make(map[string]recordReader, len(r.readers))
	for id, reader := range r.readers {
		readers[id] = reader
	}
	r.mu.Unlock()

	for id, reader := range readers {
		if err := reader.Close(); err != nil {
			r.logger.Printf("error closing reader for group %s: %v", id, err)
		}
	}
	return r.manager.ShutdownAll()
}

func (r *ConsumerRegistry) drop(groupID string) {
	r.mu.Lock()
	delete(r.readers, groupID)
	r.mu.Unlock()
}
