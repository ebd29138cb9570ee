package raft

import "sort"

// LeadershipKind identifies which of the three leadership states a
// replica is currently in.
type LeadershipKind int

const (
	KindFollower LeadershipKind = iota
	KindCandidate
	KindLeader
)

func (k LeadershipKind) String() string {
	switch k {
	case KindFollower:
		return "follower"
	case KindCandidate:
		return "candidate"
	case KindLeader:
		return "leader"
	default:
		return "unknown"
	}
}

// leadershipState is implemented by FollowerState, CandidateState and
// LeaderState. The unexported kind method keeps it from being
// satisfied outside this package, standing in for the sum type Go
// doesn't have natively; callers recover the concrete state with a
// type switch.
type leadershipState interface {
	kind() LeadershipKind
}

// FollowerState is held while waiting either to hear from a leader or
// to time out and start an election.
type FollowerState struct {
	// Leader is who this replica believes is the current leader, if
	// it has heard from one since the last step-down.
	Leader *ServerId

	// ElectionTime counts down to zero; reaching zero starts an
	// election.
	ElectionTime Ticks
}

func (*FollowerState) kind() LeadershipKind { return KindFollower }

// CandidateState is held while an election for the current term is in
// progress.
type CandidateState struct {
	VotesReceived map[ServerId]struct{}
	ElectionTime  Ticks
}

func (*CandidateState) kind() LeadershipKind { return KindCandidate }

// FollowerReplication is the leader's per-follower bookkeeping: the
// prefix length last sent, and the prefix length last acknowledged.
type FollowerReplication struct {
	SentUpTo  uint64
	AckedUpTo uint64
}

// LeaderState is held while this replica believes itself to be
// leader.
type LeaderState struct {
	Followers        map[ServerId]*FollowerReplication
	HeartbeatTimeout Ticks
}

func (*LeaderState) kind() LeadershipKind { return KindLeader }

// quorum returns the number of votes or acks required to win an
// election or commit an entry, for a cluster of len(peers)+1 members
// (this replica plus its peers).
func (r *Replica[T]) quorum() int {
	n := len(r.peers) + 1
	return n/2 + 1
}

// startElection begins a new term, votes for itself, and either wins
// outright (the single-node or already-sufficient-peers case) or
// broadcasts a VoteRequest to every peer.
func (r *Replica[T]) startElection() []Outbound[T] {
	r.currentTerm++
	self := r.id
	r.votedFor = &self

	cand := &CandidateState{
		VotesReceived: map[ServerId]struct{}{r.id: {}},
		ElectionTime:  r.randomElectionTimeout(),
	}
	r.leadership = cand

	r.metrics.observeElectionStarted(r.id)
	r.metrics.observeTerm(r.id, r.currentTerm)
	r.metrics.observeState(r.id, KindCandidate)
	r.logger.Info().
		Uint64("term", uint64(r.currentTerm)).
		Uint64("replica", uint64(r.id)).
		Msg("starting election")

	if len(cand.VotesReceived) >= r.quorum() {
		return r.becomeLeader()
	}

	req := &VoteRequest{
		CandidateTerm: r.currentTerm,
		CandidateId:   r.id,
		LastLogIdx:    r.log.LastIndex(),
		LastLogTerm:   r.log.LastTerm(),
	}
	return []Outbound[T]{{Target: Broadcast(), Message: req}}
}

// becomeLeader transitions to LeaderState and immediately broadcasts
// an AppendRequest (heartbeat) to assert leadership before any peer's
// election timer can expire.
func (r *Replica[T]) becomeLeader() []Outbound[T] {
	followers := make(map[ServerId]*FollowerReplication, len(r.peers))
	for _, p := range r.peers {
		followers[p] = &FollowerReplication{
			SentUpTo:  r.log.LastIndex(),
			AckedUpTo: 0,
		}
	}
	r.leadership = &LeaderState{
		Followers:        followers,
		HeartbeatTimeout: r.config.HeartbeatInterval,
	}

	r.metrics.observeState(r.id, KindLeader)
	r.logger.Info().
		Uint64("term", uint64(r.currentTerm)).
		Uint64("replica", uint64(r.id)).
		Msg("became leader")

	return r.replicate(Broadcast())
}

// stepDown reverts to FollowerState under a newer term, clearing the
// vote and resetting the election timer.
func (r *Replica[T]) stepDown(newTerm Term) {
	r.currentTerm = newTerm
	r.votedFor = nil
	r.leadership = &FollowerState{ElectionTime: r.randomElectionTimeout()}

	r.metrics.observeTerm(r.id, r.currentTerm)
	r.metrics.observeState(r.id, KindFollower)
	r.logger.Info().
		Uint64("term", uint64(newTerm)).
		Uint64("replica", uint64(r.id)).
		Msg("stepping down to follower")
}

// replicate builds and returns AppendRequests for one follower or
// every follower, addressed at the log suffix each one hasn't been
// sent yet. It is a no-op if this replica isn't currently Leader.
// Peers are iterated in ascending ServerId order so a broadcast's
// outbound batch is deterministic.
func (r *Replica[T]) replicate(target Target) []Outbound[T] {
	lst, ok := r.leadership.(*LeaderState)
	if !ok {
		return nil
	}

	var ids []ServerId
	if single, isSingle := target.ServerId(); isSingle {
		ids = []ServerId{single}
	} else {
		for id := range lst.Followers {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}

	out := make([]Outbound[T], 0, len(ids))
	for _, id := range ids {
		fs, ok := lst.Followers[id]
		if !ok {
			continue
		}
		prevLen := fs.SentUpTo
		req := &AppendRequest[T]{
			LeaderTerm:   r.currentTerm,
			LeaderId:     r.id,
			PrevLen:      prevLen,
			PrevTerm:     termAtOrZero(r.log, prevLen),
			Entries:      r.log.EntriesFrom(prevLen),
			LeaderCommit: r.log.CommittedLen(),
		}
		out = append(out, Outbound[T]{Target: Single(id), Message: req})
	}
	return out
}

func termAtOrZero[T any](l *Log[T], prefixLen uint64) Term {
	if prefixLen == 0 {
		return 0
	}
	return l.TermAt(prefixLen)
}
