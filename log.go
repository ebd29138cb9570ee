package raft

import "fmt"

// LogEntry pairs a command with the term of the leader that first
// created it.
type LogEntry[T any] struct {
	Term    Term
	Command T
}

// Log holds the replicated entries plus the two volatile cursors,
// committedLen and appliedLen, described in the data model. Indices
// follow prefix-length semantics throughout: a prefix length of p
// means "the first p entries"; the Go slice backing the log is
// zero-based internally, but every exported method speaks in prefix
// lengths, never zero-based array indices.
type Log[T any] struct {
	entries      []LogEntry[T]
	committedLen uint64
	appliedLen   uint64
}

func newLog[T any]() *Log[T] {
	return &Log[T]{}
}

// LastIndex returns the length of the log, i.e. the prefix length
// that covers every entry.
func (l *Log[T]) LastIndex() uint64 { return uint64(len(l.entries)) }

// LastTerm returns the term of the last entry, or 0 if the log is
// empty.
func (l *Log[T]) LastTerm() Term {
	if len(l.entries) == 0 {
		return 0
	}
	return l.entries[len(l.entries)-1].Term
}

// TermAt returns the term of the entry at prefix length prefixLen,
// i.e. entries[prefixLen-1]. The caller must ensure
// 1 <= prefixLen <= LastIndex().
func (l *Log[T]) TermAt(prefixLen uint64) Term {
	return l.entries[prefixLen-1].Term
}

// CommittedLen returns the number of leading entries known to be
// committed.
func (l *Log[T]) CommittedLen() uint64 { return l.committedLen }

// AppliedLen returns the number of leading entries already delivered
// to the application.
func (l *Log[T]) AppliedLen() uint64 { return l.appliedLen }

// EntriesFrom returns the entries after prefix length prefixLen, i.e.
// entries[prefixLen:]. The returned slice aliases the log's backing
// array and must not be mutated by the caller.
func (l *Log[T]) EntriesFrom(prefixLen uint64) []LogEntry[T] {
	if prefixLen >= uint64(len(l.entries)) {
		return nil
	}
	return l.entries[prefixLen:]
}

// Append adds a single entry to the end of the log. Used only by a
// Leader appending its own newly submitted commands, which is why it
// never needs to reconcile against an existing suffix: leader
// append-only (global invariant 2).
func (l *Log[T]) Append(e LogEntry[T]) {
	l.entries = append(l.entries, e)
}

// Splice implements the follower-side log reconciliation rule: walk
// batch against the existing entries starting at prefix length
// prefixLen; the first index whose term disagrees truncates the
// conflicting suffix and replaces it with the rest of batch; entries
// that already match are left untouched; any tail of batch past the
// end of the existing log is simply appended. Receiving the same
// batch twice is therefore a no-op the second time.
//
// Splicing never truncates below committedLen — doing so would mean a
// majority-acknowledged entry is being discarded, which can only
// happen if some invariant upstream has already been violated.
func (l *Log[T]) Splice(prefixLen uint64, batch []LogEntry[T]) error {
	for i, e := range batch {
		j := prefixLen + uint64(i)
		if j >= uint64(len(l.entries)) {
			l.entries = append(l.entries, batch[i:]...)
			return nil
		}
		if l.entries[j].Term != e.Term {
			if j < l.committedLen {
				return &FatalError{Reason: fmt.Sprintf(
					"splice at index %d would truncate committed prefix (committed_len=%d)",
					j, l.committedLen,
				)}
			}
			l.entries = append(l.entries[:j:j], batch[i:]...)
			return nil
		}
	}
	return nil
}

// CommitNext commits and delivers exactly the next not-yet-committed
// entry. Used by the leader's one-entry-at-a-time commit-advancement
// loop (see commit.go), which must check the current-term guard
// between each increment.
func (l *Log[T]) CommitNext(app Application[T]) {
	l.committedLen++
	if app != nil {
		app.Apply(l.entries[l.committedLen-1].Command)
	}
	l.appliedLen = l.committedLen
}

// AdvanceCommitTo is used on the follower path, where a single
// AppendRequest's leader_commit can jump the commit index forward by
// more than one entry at once; every newly committed entry is
// delivered to the application in order.
func (l *Log[T]) AdvanceCommitTo(newCommittedLen uint64, app Application[T]) {
	if newCommittedLen <= l.committedLen {
		return
	}
	l.committedLen = newCommittedLen
	for l.appliedLen < l.committedLen {
		if app != nil {
			app.Apply(l.entries[l.appliedLen].Command)
		}
		l.appliedLen++
	}
}
