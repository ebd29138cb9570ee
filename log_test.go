package raft

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingApp struct {
	applied []int
}

func (a *recordingApp) Apply(cmd int) {
	a.applied = append(a.applied, cmd)
}

func TestLogAppendAndBasics(t *testing.T) {
	l := newLog[int]()
	require.Equal(t, uint64(0), l.LastIndex())
	require.Equal(t, Term(0), l.LastTerm())

	l.Append(LogEntry[int]{Term: 1, Command: 10})
	l.Append(LogEntry[int]{Term: 1, Command: 20})
	l.Append(LogEntry[int]{Term: 2, Command: 30})

	require.Equal(t, uint64(3), l.LastIndex())
	require.Equal(t, Term(2), l.LastTerm())
	require.Equal(t, Term(1), l.TermAt(1))
	require.Equal(t, Term(2), l.TermAt(3))
}

func TestLogSpliceAppendsPastEnd(t *testing.T) {
	l := newLog[int]()
	l.Append(LogEntry[int]{Term: 1, Command: 1})

	err := l.Splice(1, []LogEntry[int]{
		{Term: 1, Command: 2},
		{Term: 1, Command: 3},
	})
	require.NoError(t, err)
	require.Equal(t, uint64(3), l.LastIndex())
}

func TestLogSpliceIsIdempotent(t *testing.T) {
	l := newLog[int]()
	batch := []LogEntry[int]{
		{Term: 1, Command: 1},
		{Term: 1, Command: 2},
	}
	require.NoError(t, l.Splice(0, batch))
	require.NoError(t, l.Splice(0, batch))
	require.Equal(t, uint64(2), l.LastIndex())
}

func TestLogSpliceTruncatesConflictingSuffix(t *testing.T) {
	l := newLog[int]()
	require.NoError(t, l.Splice(0, []LogEntry[int]{
		{Term: 1, Command: 1},
		{Term: 1, Command: 2},
		{Term: 1, Command: 99}, // will be overwritten
	}))

	require.NoError(t, l.Splice(2, []LogEntry[int]{
		{Term: 2, Command: 3},
	}))

	require.Equal(t, uint64(3), l.LastIndex())
	require.Equal(t, Term(2), l.TermAt(3))
	require.Equal(t, 3, l.entries[2].Command)
}

func TestLogSpliceRefusesToTruncateCommittedPrefix(t *testing.T) {
	l := newLog[int]()
	app := &recordingApp{}
	require.NoError(t, l.Splice(0, []LogEntry[int]{
		{Term: 1, Command: 1},
		{Term: 1, Command: 2},
	}))
	l.CommitNext(app)
	l.CommitNext(app)
	require.Equal(t, uint64(2), l.CommittedLen())

	err := l.Splice(1, []LogEntry[int]{{Term: 2, Command: 999}})
	require.Error(t, err)

	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
}

func TestLogCommitNextAppliesInOrder(t *testing.T) {
	l := newLog[int]()
	app := &recordingApp{}
	l.Append(LogEntry[int]{Term: 1, Command: 10})
	l.Append(LogEntry[int]{Term: 1, Command: 20})

	l.CommitNext(app)
	require.Equal(t, uint64(1), l.CommittedLen())
	require.Equal(t, uint64(1), l.AppliedLen())
	require.Equal(t, []int{10}, app.applied)

	l.CommitNext(app)
	require.Equal(t, []int{10, 20}, app.applied)
}

func TestLogAdvanceCommitToDeliversEveryIntermediateEntry(t *testing.T) {
	l := newLog[int]()
	app := &recordingApp{}
	for i := 1; i <= 5; i++ {
		l.Append(LogEntry[int]{Term: 1, Command: i})
	}

	l.AdvanceCommitTo(3, app)
	require.Equal(t, uint64(3), l.CommittedLen())
	require.Equal(t, []int{1, 2, 3}, app.applied)

	// a stale/duplicate call with a smaller or equal target is a no-op.
	l.AdvanceCommitTo(2, app)
	require.Equal(t, uint64(3), l.CommittedLen())
	require.Equal(t, []int{1, 2, 3}, app.applied)

	l.AdvanceCommitTo(5, app)
	require.Equal(t, []int{1, 2, 3, 4, 5}, app.applied)
}
