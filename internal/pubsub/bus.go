// Package pubsub is an in-process topic broadcaster. A single goroutine owns
// the listener registry and drains one FIFO inbox, so every listener sees the
// events of a topic in publish order.
package pubsub

import (
	"context"
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const (
	TopicBookAdded = "book-added"

	defaultListenerBuffer = 64
	defaultInboxSize      = 1024
)

var ErrClosed = errors.New("pubsub: bus closed")

var (
	publishedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pubsub_events_published_total",
		Help: "The total number of events published per topic.",
	}, []string{"topic"})

	subscribersGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pubsub_subscribers",
		Help: "The number of active listeners per topic.",
	}, []string{"topic"})

	droppedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pubsub_listeners_dropped_total",
		Help: "The total number of listeners detached because their buffer was full.",
	}, []string{"topic"})

	discardedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pubsub_events_discarded_total",
		Help: "The total number of events discarded because the inbox was full.",
	}, []string{"topic"})
)

type event struct {
	topic   string
	payload any
}

type listener struct {
	topic  string
	ch     chan any
	closed bool
}

type subscribeRequest struct {
	l   *listener
	ack chan struct{}
}

type Bus struct {
	logger         *zap.Logger
	listenerBuffer int
	inboxSize      int

	inbox       chan event
	subscribe   chan subscribeRequest
	unsubscribe chan *listener

	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

type Option func(*Bus)

// WithListenerBuffer sets how many undelivered events a listener may hold
// before it is detached.
func WithListenerBuffer(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.listenerBuffer = n
		}
	}
}

func WithInboxSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.inboxSize = n
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New starts the bus. Callers must Close it to release the owner goroutine.
func New(opts ...Option) *Bus {
	b := newBus(opts...)
	go b.run()
	return b
}

func newBus(opts ...Option) *Bus {
	b := &Bus{
		logger:         zap.NewNop(),
		listenerBuffer: defaultListenerBuffer,
		inboxSize:      defaultInboxSize,
		subscribe:      make(chan subscribeRequest),
		unsubscribe:    make(chan *listener),
		done:           make(chan struct{}),
		stopped:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.inbox = make(chan event, b.inboxSize)
	return b
}

// Publish hands the payload to every current listener of topic. It never
// blocks and does not report delivery: when the inbox is full the event is
// discarded and counted. It is a no-op once the bus is closed.
func (b *Bus) Publish(topic string, payload any) {
	select {
	case <-b.done:
		return
	default:
	}

	select {
	case b.inbox <- event{topic: topic, payload: payload}:
		publishedCounter.WithLabelValues(topic).Inc()
	default:
		discardedCounter.WithLabelValues(topic).Inc()
		b.logger.Warn("pubsub inbox full, discarding event",
			zap.String("topic", topic),
			zap.Int("inbox", cap(b.inbox)),
		)
	}
}

// Subscribe registers a listener for topic. Events published after Subscribe
// returns are delivered on the channel until ctx ends, the listener falls
// behind by more than its buffer, or the bus is closed. The channel is closed
// in all three cases.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := subscribeRequest{
		l:   &listener{topic: topic, ch: make(chan any, b.listenerBuffer)},
		ack: make(chan struct{}),
	}

	select {
	case b.subscribe <- req:
	case <-b.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case <-req.ack:
	case <-b.stopped:
		return nil, ErrClosed
	}

	go func() {
		select {
		case <-ctx.Done():
			select {
			case b.unsubscribe <- req.l:
			case <-b.stopped:
			}
		case <-b.stopped:
		}
	}()

	return req.l.ch, nil
}

// Close stops the bus and closes every listener channel. Pending events that
// were not yet dispatched are discarded.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
	})
	<-b.stopped
}

func (b *Bus) run() {
	defer close(b.stopped)

	listeners := make(map[string]map[*listener]struct{})

	detach := func(l *listener) {
		set := listeners[l.topic]
		if _, ok := set[l]; !ok {
			return
		}
		delete(set, l)
		if len(set) == 0 {
			delete(listeners, l.topic)
		}
		subscribersGauge.WithLabelValues(l.topic).Dec()
		if !l.closed {
			l.closed = true
			close(l.ch)
		}
	}

	dispatch := func(ev event) {
		for l := range listeners[ev.topic] {
			select {
			case l.ch <- ev.payload:
			default:
				droppedCounter.WithLabelValues(ev.topic).Inc()
				b.logger.Warn("dropping slow listener",
					zap.String("topic", ev.topic),
					zap.Int("buffer", cap(l.ch)),
				)
				detach(l)
			}
		}
	}

	// drainInbox dispatches everything queued so far. Whatever was published
	// before a Subscribe call is already queued when its request arrives.
	drainInbox := func() {
		for {
			select {
			case ev := <-b.inbox:
				dispatch(ev)
			default:
				return
			}
		}
	}

	for {
		select {
		case req := <-b.subscribe:
			drainInbox()
			set, ok := listeners[req.l.topic]
			if !ok {
				set = make(map[*listener]struct{})
				listeners[req.l.topic] = set
			}
			set[req.l] = struct{}{}
			subscribersGauge.WithLabelValues(req.l.topic).Inc()
			close(req.ack)

		case l := <-b.unsubscribe:
			detach(l)

		case ev := <-b.inbox:
			dispatch(ev)

		case <-b.done:
			for _, set := range listeners {
				for l := range set {
					detach(l)
				}
			}
			return
		}
	}
}
