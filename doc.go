// Package raft implements the per-server state machine at the core of
// a Raft consensus replica: leadership (Follower/Candidate/Leader),
// vote and log-replication message handling, tick-driven timers, and
// commit advancement.
//
// The replica performs no I/O of its own. Tick, Receive and
// ClientSubmit are synchronous, non-suspending state transitions that
// return the outbound messages a surrounding transport is responsible
// for delivering; the transport, the real-time clock, durable
// persistence, the application state machine, client session
// deduplication, cluster membership changes and snapshotting are all
// external collaborators that live outside this package.
package raft
