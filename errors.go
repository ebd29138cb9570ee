package raft

import (
	"errors"
	"fmt"
)

// ErrNotLeader is the sentinel wrapped by NotLeaderError, for callers
// that only want to check with errors.Is.
var ErrNotLeader = errors.New("raft: not the leader")

// NotLeaderError is returned by ClientSubmit when this replica isn't
// currently Leader. LastKnownLeader carries the last leader this
// replica heard from in its current term, if any, so the caller can
// retry against a better guess.
type NotLeaderError struct {
	LastKnownLeader *ServerId
}

func (e *NotLeaderError) Error() string {
	if e.LastKnownLeader == nil {
		return "raft: not the leader (no known leader)"
	}
	return fmt.Sprintf("raft: not the leader (last known leader: %d)", *e.LastKnownLeader)
}

func (e *NotLeaderError) Unwrap() error { return ErrNotLeader }

// FatalError marks one of the internal inconsistencies the design
// calls out as never supposed to happen: an AppendResponse from an
// unknown follower, an ok=false response when sent_up_to is already
// zero, or a splice that would truncate committed entries. These
// indicate a bug or corrupted state upstream; the core panics with a
// *FatalError rather than silently continuing.
type FatalError struct {
	Reason string
}

func (e *FatalError) Error() string {
	return "raft: fatal internal inconsistency: " + e.Reason
}
