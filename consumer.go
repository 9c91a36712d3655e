// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package shieldsim

import "github.com/pkg/errors"

// A Consumer handles a stream of timed events of a single value type.
// Consumers chain: after processing, an event may be passed to the next
// consumer, which makes a consumer usable as a transformer or as a sole
// producer. Links are non-owning; ownership of the chain lies with the test
// harness that builds it.
//
// AddEvent and AdvanceTime must be called with non-decreasing times; a time
// moving backward is a causality error.
//
type Consumer[V any] interface {
	// AddEvent consumes one event.
	AddEvent(t Time, v V) error
	// AdvanceTime notifies the consumer that time has passed without an
	// event, so that windowed filters further down the chain do not stall.
	AdvanceTime(t Time) error
	// Clear drops all recorded state and propagates down the chain. The
	// logical time watermark is not reset.
	Clear()
	// Next returns the next consumer in the chain, or nil.
	Next() Consumer[V]
	// AttachNext links c right after this consumer. The slot must be empty.
	AttachNext(c Consumer[V]) error
	// DetachNext unlinks the next consumer. The slot must be occupied.
	DetachNext() error
}

// LastConsumer walks the linear chain starting at c and returns its last
// element.
//
func LastConsumer[V any](c Consumer[V]) Consumer[V] {
	for c.Next() != nil {
		c = c.Next()
	}
	return c
}

// errCausality is returned whenever an event or a time notification would
// move time backward.
var errCausality = errors.New("causality violated: time moved backward")

// Hub is the linkage half of a consumer, meant to be embedded by concrete
// implementations. It manages the next link and provides forwarding
// helpers; the embedding type implements AddEvent, AdvanceTime and Clear.
//
type Hub[V any] struct {
	next Consumer[V]
}

// Next returns the next consumer in the chain, or nil.
//
func (h *Hub[V]) Next() Consumer[V] { return h.next }

// AttachNext links c right after this consumer.
//
func (h *Hub[V]) AttachNext(c Consumer[V]) error {
	if h.next != nil {
		return errors.New("next consumer is already attached")
	}
	h.next = c
	return nil
}

// DetachNext unlinks the next consumer.
//
func (h *Hub[V]) DetachNext() error {
	if h.next == nil {
		return errors.New("no next consumer is attached")
	}
	h.next = nil
	return nil
}

// Emit passes an event to the next consumer, if any.
//
func (h *Hub[V]) Emit(t Time, v V) error {
	if h.next == nil {
		return nil
	}
	return h.next.AddEvent(t, v)
}

// Advance passes a time notification to the next consumer, if any.
//
func (h *Hub[V]) Advance(t Time) error {
	if h.next == nil {
		return nil
	}
	return h.next.AdvanceTime(t)
}

// ClearNext propagates a clear down the chain.
//
func (h *Hub[V]) ClearNext() {
	if h.next != nil {
		h.next.Clear()
	}
}

// Sprout is the forking half of a consumer that produces events of a
// different type than it consumes. The sprout link starts a separate chain;
// the embedding filter decides when reconstructed output is emitted on it
// (events are never forwarded to the sprout automatically).
//
type Sprout[P any] struct {
	sprout Consumer[P]
}

// SproutConsumer returns the consumer attached to the sprout, or nil.
//
func (s *Sprout[P]) SproutConsumer() Consumer[P] { return s.sprout }

// AttachSprout links c to the sprout. The slot must be empty.
//
func (s *Sprout[P]) AttachSprout(c Consumer[P]) error {
	if s.sprout != nil {
		return errors.New("sprout consumer is already attached")
	}
	s.sprout = c
	return nil
}

// DetachSprout unlinks the sprout consumer. The slot must be occupied.
//
func (s *Sprout[P]) DetachSprout() error {
	if s.sprout == nil {
		return errors.New("no sprout consumer is attached")
	}
	s.sprout = nil
	return nil
}

// EmitSprout passes a produced event to the sprout chain, if attached.
//
func (s *Sprout[P]) EmitSprout(t Time, v P) error {
	if s.sprout == nil {
		return nil
	}
	return s.sprout.AddEvent(t, v)
}

// AdvanceSprout passes a time notification to the sprout chain, if
// attached.
//
func (s *Sprout[P]) AdvanceSprout(t Time) error {
	if s.sprout == nil {
		return nil
	}
	return s.sprout.AdvanceTime(t)
}

// ClearSprout propagates a clear down the sprout chain.
//
func (s *Sprout[P]) ClearSprout() {
	if s.sprout != nil {
		s.sprout.Clear()
	}
}

// A Relay is a transparent consumer: it forwards everything to the next
// link unchanged. It is a convenient chain head for externally produced
// streams.
//
type Relay[V any] struct {
	Hub[V]
	last Time
}

// NewRelay returns a new transparent consumer.
//
func NewRelay[V any]() *Relay[V] { return &Relay[V]{} }

// AddEvent implements Consumer.
//
func (r *Relay[V]) AddEvent(t Time, v V) error {
	if t < r.last {
		return errCausality
	}
	if err := r.Emit(t, v); err != nil {
		return err
	}
	r.last = t
	return nil
}

// AdvanceTime implements Consumer.
//
func (r *Relay[V]) AdvanceTime(t Time) error {
	if t < r.last {
		return errCausality
	}
	if err := r.Advance(t); err != nil {
		return err
	}
	r.last = t
	return nil
}

// Clear implements Consumer.
//
func (r *Relay[V]) Clear() { r.ClearNext() }

// An Analyzer invokes a callback for every event flowing through it and
// forwards the stream unchanged. It is used by scenario drivers to observe
// raw streams without recording them.
//
type Analyzer[V any] struct {
	Hub[V]
	last Time
	fn   func(t Time, v V)
}

// NewAnalyzer returns an Analyzer calling fn on every event.
//
func NewAnalyzer[V any](fn func(t Time, v V)) *Analyzer[V] {
	return &Analyzer[V]{fn: fn}
}

// AddEvent implements Consumer.
//
func (a *Analyzer[V]) AddEvent(t Time, v V) error {
	if t < a.last {
		return errCausality
	}
	a.fn(t, v)
	if err := a.Emit(t, v); err != nil {
		return err
	}
	a.last = t
	return nil
}

// AdvanceTime implements Consumer.
//
func (a *Analyzer[V]) AdvanceTime(t Time) error {
	if t < a.last {
		return errCausality
	}
	if err := a.Advance(t); err != nil {
		return err
	}
	a.last = t
	return nil
}

// Clear implements Consumer.
//
func (a *Analyzer[V]) Clear() { a.ClearNext() }
