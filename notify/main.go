// Package notify fans values out to subscriber channels.
package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

const multiplexerTimeout = 200 * time.Millisecond

type subscriber[E any] struct {
	ch      chan E
	comment string
}

// MultiplexerSender is the sending half of a Multiplexer. Only its owner should hold it.
type MultiplexerSender[E any] struct {
	m *Multiplexer[E]
}

// Send records e as the current value and queues it for every subscriber.
// Values are delivered in the order they were sent.
func (ms *MultiplexerSender[E]) Send(e E) {
	m := ms.m
	m.queueLock.Lock()
	m.current = e
	m.queue = append(m.queue, e)
	m.queueLock.Unlock()
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func NewMultiplexerSender[E any](comment string, initial E) (*MultiplexerSender[E], *Multiplexer[E]) {
	m := &Multiplexer[E]{
		comment: comment,
		current: initial,
		wake:    make(chan struct{}, 1),
	}
	go m.deliver()
	return &MultiplexerSender[E]{m: m}, m
}

type Multiplexer[E any] struct {
	comment         string
	subscribersLock sync.Mutex
	subscribers     []subscriber[E]

	// queueLock guards current and queue.
	queueLock sync.Mutex
	current   E
	queue     []E
	wake      chan struct{}
}

// Current returns the value last sent, or the initial value.
func (m *Multiplexer[E]) Current() E {
	m.queueLock.Lock()
	defer m.queueLock.Unlock()
	return m.current
}

func (m *Multiplexer[E]) Subscribe(comment string, c chan E) {
	m.subscribersLock.Lock()
	defer m.subscribersLock.Unlock()
	m.subscribers = append(m.subscribers, subscriber[E]{
		ch:      c,
		comment: comment,
	})
}

// Unsubscribe stops delivery to c. It panics if c isn't subscribed.
func (m *Multiplexer[E]) Unsubscribe(c chan E) {
	m.subscribersLock.Lock()
	defer m.subscribersLock.Unlock()
	i := slices.IndexFunc(m.subscribers, func(sub subscriber[E]) bool { return sub.ch == c })
	if i == -1 {
		panic("already unsubscribed")
	}
	m.subscribers = slices.Delete(m.subscribers, i, i+1)
}

// deliver drains the queue, one value at a time, for the lifetime of the multiplexer.
func (m *Multiplexer[E]) deliver() {
	for range m.wake {
		for {
			m.queueLock.Lock()
			batch := m.queue
			m.queue = nil
			m.queueLock.Unlock()
			if len(batch) == 0 {
				break
			}
			for _, e := range batch {
				m.send(e)
			}
		}
	}
}

func (m *Multiplexer[E]) send(e E) {
	m.subscribersLock.Lock()
	defer m.subscribersLock.Unlock()
	for _, sub := range m.subscribers {
		select {
		case sub.ch <- e:
		case <-time.After(multiplexerTimeout):
			m.timeout(sub)
		}
	}
}

func (m *Multiplexer[E]) timeout(sub subscriber[E]) {
	zap.S().Warnw("subscriber timed out",
		"multiplexer", m.comment,
		"subscriber", sub.comment)
}
