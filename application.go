package raft

// Application is the external state machine collaborator. The core
// calls Apply exactly once, in log order, for every committed entry,
// strictly inside the handler that advanced the commit index past
// that entry. The core never reads back the application's own state;
// the void-returning form from the interface design is used rather
// than threading a state type through the replica itself.
type Application[T any] interface {
	Apply(cmd T)
}
