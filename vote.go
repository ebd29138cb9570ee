package raft

// handleVoteRequest decides whether to grant a vote: the candidate's
// term must be at least as current, this replica must not have
// already voted for someone else this term, and the candidate's log
// must be at least as up to date as this replica's own.
func (r *Replica[T]) handleVoteRequest(req *VoteRequest) []Outbound[T] {
	if req.CandidateTerm > r.currentTerm {
		r.stepDown(req.CandidateTerm)
	}

	termOk := req.CandidateTerm == r.currentTerm
	voteAvailable := r.votedFor == nil || *r.votedFor == req.CandidateId
	logOk := req.LastLogTerm > r.log.LastTerm() ||
		(req.LastLogTerm == r.log.LastTerm() && req.LastLogIdx >= r.log.LastIndex())

	granted := termOk && voteAvailable && logOk
	if granted {
		candidate := req.CandidateId
		r.votedFor = &candidate
	}

	r.logger.Debug().
		Uint64("replica", uint64(r.id)).
		Uint64("candidate", uint64(req.CandidateId)).
		Bool("granted", granted).
		Msg("handling vote request")

	res := &VoteResponse{
		VoterId: r.id,
		Term:    r.currentTerm,
		Granted: granted,
	}
	return []Outbound[T]{{Target: Single(req.CandidateId), Message: res}}
}

// handleVoteResponse counts a granted vote toward the current
// election, if this replica is still a Candidate in the term the
// response answers, and transitions to Leader on reaching quorum.
func (r *Replica[T]) handleVoteResponse(res *VoteResponse) []Outbound[T] {
	if res.Term > r.currentTerm {
		r.stepDown(res.Term)
		return nil
	}

	cand, ok := r.leadership.(*CandidateState)
	if !ok || res.Term != r.currentTerm || !res.Granted {
		return nil
	}

	cand.VotesReceived[res.VoterId] = struct{}{}
	r.metrics.observeVote(r.id)

	if len(cand.VotesReceived) >= r.quorum() {
		return r.becomeLeader()
	}
	return nil
}
