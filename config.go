package raft

import "fmt"

// Config holds the tunables described in the external interfaces: the
// base election timeout, its symmetric jitter, and the leader
// heartbeat interval, all measured in Ticks.
type Config struct {
	// ElectionTimeout is the base number of idle ticks a Follower or
	// Candidate waits before starting an election.
	ElectionTimeout Ticks

	// ElectionTimeoutJitter is the symmetric uniform jitter applied
	// around ElectionTimeout; it must be strictly less than
	// ElectionTimeout.
	ElectionTimeoutJitter Ticks

	// HeartbeatInterval is how often a Leader re-broadcasts
	// AppendRequests to assert liveness. It must be strictly less
	// than ElectionTimeout-ElectionTimeoutJitter, so a heartbeat
	// always arrives well before a follower's election timer could
	// expire.
	HeartbeatInterval Ticks
}

// Validate checks the invariants spec'd for Config: a positive
// election timeout, jitter strictly smaller than it, and a heartbeat
// interval strictly smaller than the minimum possible election
// timeout.
func (c Config) Validate() error {
	if c.ElectionTimeout == 0 {
		return fmt.Errorf("raft: election timeout must be > 0")
	}
	if c.ElectionTimeoutJitter >= c.ElectionTimeout {
		return fmt.Errorf(
			"raft: election timeout jitter (%d) must be less than election timeout (%d)",
			c.ElectionTimeoutJitter, c.ElectionTimeout,
		)
	}
	if c.HeartbeatInterval == 0 {
		return fmt.Errorf("raft: heartbeat interval must be > 0")
	}
	if minElection := c.ElectionTimeout - c.ElectionTimeoutJitter; c.HeartbeatInterval >= minElection {
		return fmt.Errorf(
			"raft: heartbeat interval (%d) must be less than election_timeout-jitter (%d)",
			c.HeartbeatInterval, minElection,
		)
	}
	return nil
}
