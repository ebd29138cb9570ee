package raft

// handleAppendRequest implements the follower-replication RPC. A
// Candidate or Leader that sees an equal term steps down to Follower
// and re-handles the request in that role; a Candidate or Leader that
// sees a strictly stale term sends back nothing at all, since only a
// Follower ever constructs an AppendResponse. This mirrors the
// original implementation's rpc_append_request: the stale-term
// rejection described for the Follower branch doesn't apply
// universally, only once a Candidate/Leader has already stepped down
// to Follower.
func (r *Replica[T]) handleAppendRequest(req *AppendRequest[T]) []Outbound[T] {
	if req.LeaderTerm > r.currentTerm {
		r.stepDown(req.LeaderTerm)
	}

	switch r.leadership.(type) {
	case *CandidateState, *LeaderState:
		if req.LeaderTerm == r.currentTerm {
			// Same term: keep the vote already cast in it.
			votedFor := r.votedFor
			r.stepDown(req.LeaderTerm)
			r.votedFor = votedFor
			return r.handleAppendRequest(req)
		}
		return nil
	}

	fs := r.leadership.(*FollowerState)

	if req.LeaderTerm != r.currentTerm {
		res := &AppendResponse{
			FollowerId: r.id,
			Term:       r.currentTerm,
			Ok:         false,
			AckLen:     r.log.LastIndex(),
		}
		return []Outbound[T]{{Target: Single(req.LeaderId), Message: res}}
	}

	leader := req.LeaderId
	fs.Leader = &leader
	fs.ElectionTime = r.randomElectionTimeout()

	accept := req.PrevLen == 0 ||
		(req.PrevLen <= r.log.LastIndex() && r.log.TermAt(req.PrevLen) == req.PrevTerm)

	if accept {
		if err := r.log.Splice(req.PrevLen, req.Entries); err != nil {
			panic(err)
		}
		newCommitted := req.LeaderCommit
		if last := r.log.LastIndex(); newCommitted > last {
			newCommitted = last
		}
		r.log.AdvanceCommitTo(newCommitted, r.app)
		r.metrics.observeCommitIndex(r.id, r.log.CommittedLen())
	}

	r.logger.Debug().
		Uint64("replica", uint64(r.id)).
		Uint64("leader", uint64(req.LeaderId)).
		Bool("accept", accept).
		Msg("handling append request")

	res := &AppendResponse{
		FollowerId: r.id,
		Term:       r.currentTerm,
		Ok:         accept,
		AckLen:     r.log.LastIndex(),
	}
	return []Outbound[T]{{Target: Single(req.LeaderId), Message: res}}
}

// handleAppendResponse updates leader-side replication bookkeeping
// and tries to advance the commit index on a successful ack, or
// backtracks SentUpTo and retries on a rejection.
func (r *Replica[T]) handleAppendResponse(res *AppendResponse) []Outbound[T] {
	if res.Term > r.currentTerm {
		r.stepDown(res.Term)
		return nil
	}

	lst, ok := r.leadership.(*LeaderState)
	if !ok || res.Term != r.currentTerm {
		return nil
	}

	fs, ok := lst.Followers[res.FollowerId]
	if !ok {
		panic(&FatalError{Reason: "append response from unknown follower"})
	}

	switch {
	case res.Ok && res.AckLen >= fs.AckedUpTo:
		fs.SentUpTo = res.AckLen
		fs.AckedUpTo = res.AckLen
		return r.advanceCommit()

	case !res.Ok && fs.SentUpTo > 0:
		fs.SentUpTo--
		return r.replicate(Single(res.FollowerId))

	case !res.Ok && fs.SentUpTo == 0:
		panic(&FatalError{Reason: "append rejected with sent_up_to already zero"})

	default:
		// res.Ok is true but res.AckLen < fs.AckedUpTo: a stale or
		// duplicated response arriving after a newer one already
		// advanced this follower's state. Transport may reorder or
		// duplicate messages, so this is tolerated as a no-op rather
		// than treated as an inconsistency.
		return nil
	}
}
