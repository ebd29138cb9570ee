package raft

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdvanceCommitRefusesToCountAcksFromAnOlderTerm(t *testing.T) {
	r, err := NewReplica[int](1, []ServerId{2, 3}, testConfig(), seeded(1), noopApp{})
	require.NoError(t, err)

	// Simulate having become leader in term 2, inheriting one entry
	// from a previous leader's term plus one of its own.
	r.currentTerm = 2
	r.log.Append(LogEntry[int]{Term: 1, Command: 10})
	r.log.Append(LogEntry[int]{Term: 2, Command: 20})
	r.leadership = &LeaderState{
		Followers: map[ServerId]*FollowerReplication{
			2: {SentUpTo: 2, AckedUpTo: 2},
			3: {SentUpTo: 2, AckedUpTo: 2},
		},
		HeartbeatTimeout: r.config.HeartbeatInterval,
	}

	out := r.advanceCommit()
	require.Nil(t, out)
	require.Equal(t, uint64(0), r.CommittedLen(),
		"a quorum-acked entry from an earlier term must not be committed by ack-count alone")
}

func TestAdvanceCommitCommitsOnceCurrentTermEntryIsAcked(t *testing.T) {
	r, err := NewReplica[int](1, []ServerId{2, 3}, testConfig(), seeded(1), noopApp{})
	require.NoError(t, err)

	r.currentTerm = 1
	r.log.Append(LogEntry[int]{Term: 1, Command: 10})
	r.log.Append(LogEntry[int]{Term: 1, Command: 20})
	r.leadership = &LeaderState{
		Followers: map[ServerId]*FollowerReplication{
			2: {SentUpTo: 2, AckedUpTo: 2},
			3: {SentUpTo: 2, AckedUpTo: 0},
		},
		HeartbeatTimeout: r.config.HeartbeatInterval,
	}

	r.advanceCommit()
	require.Equal(t, uint64(2), r.CommittedLen())
}

func TestAdvanceCommitStopsAtFirstUnacknowledgedEntry(t *testing.T) {
	r, err := NewReplica[int](1, []ServerId{2, 3}, testConfig(), seeded(1), noopApp{})
	require.NoError(t, err)

	r.currentTerm = 1
	r.log.Append(LogEntry[int]{Term: 1, Command: 10})
	r.log.Append(LogEntry[int]{Term: 1, Command: 20})
	r.leadership = &LeaderState{
		Followers: map[ServerId]*FollowerReplication{
			2: {SentUpTo: 1, AckedUpTo: 1},
			3: {SentUpTo: 0, AckedUpTo: 0},
		},
		HeartbeatTimeout: r.config.HeartbeatInterval,
	}

	r.advanceCommit()
	require.Equal(t, uint64(1), r.CommittedLen())
}

func TestAdvanceCommitIsNoOpWhenNotLeader(t *testing.T) {
	r, err := NewReplica[int](1, []ServerId{2, 3}, testConfig(), seeded(1), noopApp{})
	require.NoError(t, err)
	require.Nil(t, r.advanceCommit())
}
