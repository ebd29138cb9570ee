package raft

// advanceCommit is the leader's one-entry-at-a-time commit loop: it
// repeatedly checks whether the next not-yet-committed entry has been
// acknowledged by a quorum (counting this replica itself) and was
// created in the current term, committing and delivering it if so,
// and stopping at the first entry that doesn't qualify. The
// current-term guard is required: a leader may not commit an entry
// replicated in an earlier term purely by counting acks, since a
// quorum ack on an old-term entry doesn't guarantee it can't still be
// overwritten by a future leader (the original implementation omits
// this guard; it is added here per the design's call-out of the
// omission).
//
// Commit advancement never itself produces outbound messages.
func (r *Replica[T]) advanceCommit() []Outbound[T] {
	lst, ok := r.leadership.(*LeaderState)
	if !ok {
		return nil
	}

	for r.log.CommittedLen() < r.log.LastIndex() {
		nextPrefixLen := r.log.CommittedLen() + 1

		acks := 1 // self
		for _, fs := range lst.Followers {
			if fs.AckedUpTo >= nextPrefixLen {
				acks++
			}
		}

		if acks < r.quorum() || r.log.TermAt(nextPrefixLen) != r.currentTerm {
			break
		}

		r.log.CommitNext(r.app)
		r.metrics.observeCommitIndex(r.id, r.log.CommittedLen())
	}
	return nil
}
