// Package loopback implements an in-memory message fabric that
// stands in for a real network transport when running a cluster of
// replicas within a single process. It exists only to drive the
// cmd/raftd demo: the core raft package never imports it and knows
// nothing about how its Outbound messages actually get delivered.
package loopback

import (
	"github.com/bernerdschaefer/raftd"
)

// Envelope wraps a Message with the id of the replica that sent it,
// so a receiver processing its inbox knows who to reply to.
type Envelope[T any] struct {
	From    raft.ServerId
	Message raft.Message[T]
}

// Fabric routes Outbound messages between a fixed set of replica
// inboxes. Every inbox is a buffered channel of 256 envelopes; Send
// blocks only once the target inbox is full, which the demo avoids by
// draining every inbox on each tick.
type Fabric[T any] struct {
	inboxes map[raft.ServerId]chan Envelope[T]
}

// NewFabric allocates one inbox per id in ids.
func NewFabric[T any](ids []raft.ServerId) *Fabric[T] {
	f := &Fabric[T]{inboxes: make(map[raft.ServerId]chan Envelope[T], len(ids))}
	for _, id := range ids {
		f.inboxes[id] = make(chan Envelope[T], 256)
	}
	return f
}

// Inbox returns the channel a replica should drain to receive
// messages addressed to it.
func (f *Fabric[T]) Inbox(id raft.ServerId) <-chan Envelope[T] {
	return f.inboxes[id]
}

// Send delivers out to its target: a single peer's inbox, or every
// peer's inbox except from's own if the target is a broadcast.
func (f *Fabric[T]) Send(from raft.ServerId, out raft.Outbound[T]) {
	env := Envelope[T]{From: from, Message: out.Message}

	if id, ok := out.Target.ServerId(); ok {
		if ch, exists := f.inboxes[id]; exists {
			ch <- env
		}
		return
	}

	for id, ch := range f.inboxes {
		if id == from {
			continue
		}
		ch <- env
	}
}

// Close closes every inbox, unblocking any goroutine ranging over
// Inbox.
func (f *Fabric[T]) Close() {
	for _, ch := range f.inboxes {
		close(ch)
	}
}
