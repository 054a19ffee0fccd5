package broadcaster

import (
	"context"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/lueurxax/courtside/internal/common"
	"github.com/lueurxax/courtside/internal/log"
)

const (
	writeWait      = time.Second * 10
	sendBufferSize = 64
	subscribersKey = "subscribers"
	countKey       = "count"
)

// Conn is the write side of one live connection. The production
// implementation wraps a websocket, tests use an in-memory fake.
type Conn interface {
	Write(ctx context.Context, data []byte) error
	Close() error
}

// Hub owns the subscriber set and fans newly fetched batches out to it.
// A broken or slow subscriber is pruned, never allowed to block the rest.
type Hub interface {
	Subscribe(ctx context.Context, conn Conn, snapshot []common.Record) *Subscriber
	Unsubscribe(sub *Subscriber)
	Broadcast(records []common.Record)
	Len() int
}

// Subscriber is one live connection. It is write-only from the hub's
// perspective and carries no identity beyond the connection itself.
type Subscriber struct {
	conn Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (s *Subscriber) close() {
	s.once.Do(func() {
		close(s.done)

		if err := s.conn.Close(); err != nil {
			_ = err
		}
	})
}

// Done is closed once the subscriber is finished, by either side.
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

type hub struct {
	mu   sync.Mutex
	subs map[*Subscriber]struct{}

	log log.Logger
}

// Subscribe registers the connection and queues the catch-up snapshot as its
// first frame, ahead of any broadcast racing with the accept.
func (h *hub) Subscribe(ctx context.Context, conn Conn, snapshot []common.Record) *Subscriber {
	sub := &Subscriber{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}

	data, err := marshalRecords(snapshot)
	if err != nil {
		h.log.WithError(err).Error("marshal snapshot")
	} else {
		sub.send <- data
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	total := len(h.subs)
	h.mu.Unlock()

	go h.writePump(ctx, sub)

	h.log.WithField(subscribersKey, total).Debug("subscriber connected")

	return sub
}

func (h *hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	if ok {
		delete(h.subs, sub)
	}
	total := len(h.subs)
	h.mu.Unlock()

	sub.close()

	if ok {
		h.log.WithField(subscribersKey, total).Debug("subscriber disconnected")
	}
}

// Broadcast queues one frame per open subscriber. Subscribers that cannot
// keep up are dropped so delivery to the rest is never delayed.
func (h *hub) Broadcast(records []common.Record) {
	data, err := marshalRecords(records)
	if err != nil {
		h.log.WithError(err).Error("marshal batch")
		return
	}

	var stale []*Subscriber

	h.mu.Lock()
	for sub := range h.subs {
		select {
		case sub.send <- data:
		default:
			stale = append(stale, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range stale {
		h.log.Warn("dropping slow subscriber")
		h.Unsubscribe(sub)
	}

	h.log.WithField(countKey, len(records)).Debug("broadcast batch")
}

func (h *hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subs)
}

func (h *hub) writePump(ctx context.Context, sub *Subscriber) {
	defer h.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.done:
			return
		case data := <-sub.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := sub.conn.Write(writeCtx, data)

			cancel()

			if err != nil {
				h.log.WithError(err).Debug("subscriber write failed")
				return
			}
		}
	}
}

func marshalRecords(records []common.Record) ([]byte, error) {
	if records == nil {
		records = []common.Record{}
	}

	return jsoniter.Marshal(records)
}

func NewHub(logger log.Logger) Hub {
	return &hub{subs: make(map[*Subscriber]struct{}), log: logger}
}
