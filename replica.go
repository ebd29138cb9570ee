package raft

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// Replica is a single participant in the cluster. It owns no I/O of
// any kind: every state transition is driven by the caller invoking
// Tick, Receive or ClientSubmit, and every side effect is returned as
// a batch of Outbound messages for the caller to deliver.
type Replica[T any] struct {
	id     ServerId
	peers  []ServerId // sorted, excludes id
	config Config

	currentTerm Term
	votedFor    *ServerId
	log         *Log[T]
	leadership  leadershipState

	rng *rand.Rand
	app Application[T]

	logger  zerolog.Logger
	metrics *Metrics
}

// Option customizes a Replica at construction time.
type Option[T any] func(*Replica[T])

// WithLogger attaches a structured logger. The default is a no-op
// logger.
func WithLogger[T any](logger zerolog.Logger) Option[T] {
	return func(r *Replica[T]) { r.logger = logger }
}

// WithMetrics attaches a Prometheus-backed Metrics collaborator. The
// default is nil, under which every metric observation is a no-op.
func WithMetrics[T any](m *Metrics) Option[T] {
	return func(r *Replica[T]) { r.metrics = m }
}

// NewReplica constructs a Replica as a Follower with a freshly rolled
// election timeout. seed fixes the replica's private random source
// for reproducible tests; pass nil to seed from the wall clock.
func NewReplica[T any](
	id ServerId,
	peers []ServerId,
	config Config,
	seed *int64,
	app Application[T],
	opts ...Option[T],
) (*Replica[T], error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := time.Now().UnixNano()
	if seed != nil {
		s = *seed
	}

	sortedPeers := make([]ServerId, len(peers))
	copy(sortedPeers, peers)
	sort.Slice(sortedPeers, func(i, j int) bool { return sortedPeers[i] < sortedPeers[j] })

	r := &Replica[T]{
		id:     id,
		peers:  sortedPeers,
		config: config,
		log:    newLog[T](),
		rng:    rand.New(rand.NewSource(s)),
		app:    app,
		logger: zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	r.leadership = &FollowerState{ElectionTime: r.randomElectionTimeout()}
	return r, nil
}

// State returns which of the three leadership states this replica is
// currently in.
func (r *Replica[T]) State() LeadershipKind { return r.leadership.kind() }

// IsFollower reports whether this replica is currently a Follower.
func (r *Replica[T]) IsFollower() bool { return r.State() == KindFollower }

// IsCandidate reports whether this replica is currently a Candidate.
func (r *Replica[T]) IsCandidate() bool { return r.State() == KindCandidate }

// IsLeader reports whether this replica is currently Leader.
func (r *Replica[T]) IsLeader() bool { return r.State() == KindLeader }

// CurrentTerm returns the replica's current term.
func (r *Replica[T]) CurrentTerm() Term { return r.currentTerm }

// CommittedLen returns the number of committed log entries.
func (r *Replica[T]) CommittedLen() uint64 { return r.log.CommittedLen() }

// AppliedLen returns the number of log entries delivered to the
// application.
func (r *Replica[T]) AppliedLen() uint64 { return r.log.AppliedLen() }

// LastLogIndex returns the length of the replicated log.
func (r *Replica[T]) LastLogIndex() uint64 { return r.log.LastIndex() }

// ClientSubmit appends cmd to the log as a new entry in the current
// term and returns the AppendRequests needed to start replicating it,
// or a *NotLeaderError if this replica isn't currently Leader.
func (r *Replica[T]) ClientSubmit(cmd T) ([]Outbound[T], error) {
	if !r.IsLeader() {
		var lastKnown *ServerId
		if fs, ok := r.leadership.(*FollowerState); ok {
			lastKnown = fs.Leader
		}
		return nil, &NotLeaderError{LastKnownLeader: lastKnown}
	}

	r.log.Append(LogEntry[T]{Term: r.currentTerm, Command: cmd})
	out := r.replicate(Broadcast())
	// A single-node cluster has no followers to ack, so the only way
	// this entry is ever committed is by counting this replica's own
	// implicit ack right away.
	r.advanceCommit()
	return out, nil
}

// Receive dispatches an inbound Message to the handler for its
// concrete type.
func (r *Replica[T]) Receive(msg Message[T]) []Outbound[T] {
	switch m := msg.(type) {
	case *VoteRequest:
		return r.handleVoteRequest(m)
	case *VoteResponse:
		return r.handleVoteResponse(m)
	case *AppendRequest[T]:
		return r.handleAppendRequest(m)
	case *AppendResponse:
		return r.handleAppendResponse(m)
	default:
		panic(fmt.Sprintf("raft: unrecognized message type %T", msg))
	}
}
