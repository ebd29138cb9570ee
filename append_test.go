package raft

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandleAppendRequestStaleTermFromFollowerIsRejected(t *testing.T) {
	r, err := NewReplica[int](1, []ServerId{2, 3}, testConfig(), seeded(1), noopApp{})
	require.NoError(t, err)
	r.currentTerm = 5

	out := r.handleAppendRequest(&AppendRequest[int]{
		LeaderTerm: 3,
		LeaderId:   2,
	})

	require.Len(t, out, 1)
	res, ok := out[0].Message.(*AppendResponse)
	require.True(t, ok)
	require.False(t, res.Ok)
	require.Equal(t, Term(5), res.Term)
}

func TestHandleAppendRequestStaleTermFromCandidateGetsNoReply(t *testing.T) {
	r, err := NewReplica[int](1, []ServerId{2, 3}, testConfig(), seeded(1), noopApp{})
	require.NoError(t, err)
	r.startElection() // becomes Candidate in term 1

	out := r.handleAppendRequest(&AppendRequest[int]{
		LeaderTerm: 0,
		LeaderId:   2,
	})
	require.Nil(t, out)
	require.True(t, r.IsCandidate())
}

func TestHandleAppendRequestEqualTermStepsDownCandidate(t *testing.T) {
	r, err := NewReplica[int](1, []ServerId{2, 3}, testConfig(), seeded(1), noopApp{})
	require.NoError(t, err)
	r.startElection() // Candidate in term 1

	out := r.handleAppendRequest(&AppendRequest[int]{
		LeaderTerm: 1,
		LeaderId:   2,
	})
	require.True(t, r.IsFollower())
	require.Len(t, out, 1)
	res := out[0].Message.(*AppendResponse)
	require.True(t, res.Ok)
}

func TestHandleAppendRequestRejectsOnLogMismatch(t *testing.T) {
	r, err := NewReplica[int](1, []ServerId{2, 3}, testConfig(), seeded(1), noopApp{})
	require.NoError(t, err)

	out := r.handleAppendRequest(&AppendRequest[int]{
		LeaderTerm: 1,
		LeaderId:   2,
		PrevLen:    5, // follower log is empty, can't possibly match
		PrevTerm:   1,
	})
	require.Len(t, out, 1)
	res := out[0].Message.(*AppendResponse)
	require.False(t, res.Ok)
	require.Equal(t, uint64(0), res.AckLen)
}

func TestHandleAppendResponseBacktracksOnRejection(t *testing.T) {
	r, err := NewReplica[int](1, []ServerId{2}, testConfig(), seeded(1), noopApp{})
	require.NoError(t, err)
	r.log.Append(LogEntry[int]{Term: 1, Command: 1})
	r.log.Append(LogEntry[int]{Term: 1, Command: 2})
	r.startElection()
	r.handleVoteResponse(&VoteResponse{VoterId: 2, Term: r.currentTerm, Granted: true})
	require.True(t, r.IsLeader())

	lst := r.leadership.(*LeaderState)
	lst.Followers[2].SentUpTo = 2

	out := r.handleAppendResponse(&AppendResponse{
		FollowerId: 2,
		Term:       r.currentTerm,
		Ok:         false,
		AckLen:     0,
	})
	require.Equal(t, uint64(1), lst.Followers[2].SentUpTo)
	require.Len(t, out, 1)
	req := out[0].Message.(*AppendRequest[int])
	require.Equal(t, uint64(1), req.PrevLen)
}

func TestHandleAppendResponsePanicsWhenBacktrackingPastZero(t *testing.T) {
	r, err := NewReplica[int](1, []ServerId{2}, testConfig(), seeded(1), noopApp{})
	require.NoError(t, err)
	r.startElection()
	r.handleVoteResponse(&VoteResponse{VoterId: 2, Term: r.currentTerm, Granted: true})
	require.True(t, r.IsLeader())

	require.Panics(t, func() {
		r.handleAppendResponse(&AppendResponse{
			FollowerId: 2,
			Term:       r.currentTerm,
			Ok:         false,
			AckLen:     0,
		})
	})
}

func TestHandleAppendResponsePanicsOnUnknownFollower(t *testing.T) {
	r, err := NewReplica[int](1, []ServerId{2}, testConfig(), seeded(1), noopApp{})
	require.NoError(t, err)
	r.startElection()
	r.handleVoteResponse(&VoteResponse{VoterId: 2, Term: r.currentTerm, Granted: true})
	require.True(t, r.IsLeader())

	require.Panics(t, func() {
		r.handleAppendResponse(&AppendResponse{FollowerId: 99, Term: r.currentTerm, Ok: true, AckLen: 0})
	})
}

func TestHandleAppendResponseStaleDuplicateIsIgnored(t *testing.T) {
	r, err := NewReplica[int](1, []ServerId{2}, testConfig(), seeded(1), noopApp{})
	require.NoError(t, err)
	r.log.Append(LogEntry[int]{Term: 1, Command: 1})
	r.log.Append(LogEntry[int]{Term: 1, Command: 2})
	r.startElection()
	r.handleVoteResponse(&VoteResponse{VoterId: 2, Term: r.currentTerm, Granted: true})
	require.True(t, r.IsLeader())

	lst := r.leadership.(*LeaderState)
	r.handleAppendResponse(&AppendResponse{FollowerId: 2, Term: r.currentTerm, Ok: true, AckLen: 2})
	require.Equal(t, uint64(2), lst.Followers[2].AckedUpTo)

	out := r.handleAppendResponse(&AppendResponse{FollowerId: 2, Term: r.currentTerm, Ok: true, AckLen: 1})
	require.Nil(t, out)
	require.Equal(t, uint64(2), lst.Followers[2].AckedUpTo)
}
