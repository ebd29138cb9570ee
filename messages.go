package raft

// Message is implemented by the four RPC variants a replica can send
// or receive: VoteRequest, VoteResponse, AppendRequest and
// AppendResponse. It carries no methods beyond the marker, so
// Receive/Outbound can hold any of the four without an extra wrapper
// type; callers type-switch on the concrete pointer type.
type Message[T any] interface {
	isMessage()
}

// VoteRequest is broadcast by a Candidate to solicit votes for its
// current term.
type VoteRequest struct {
	CandidateTerm Term
	CandidateId   ServerId
	LastLogIdx    uint64
	LastLogTerm   Term
}

func (*VoteRequest) isMessage() {}

// VoteResponse answers a VoteRequest.
type VoteResponse struct {
	VoterId ServerId
	Term    Term
	Granted bool
}

func (*VoteResponse) isMessage() {}

// AppendRequest is sent by a Leader to replicate entries (or, with an
// empty Entries batch, as a heartbeat).
type AppendRequest[T any] struct {
	LeaderTerm   Term
	LeaderId     ServerId
	PrevLen      uint64
	PrevTerm     Term
	Entries      []LogEntry[T]
	LeaderCommit uint64
}

func (*AppendRequest[T]) isMessage() {}

// AppendResponse answers an AppendRequest.
type AppendResponse struct {
	FollowerId ServerId
	Term       Term
	Ok         bool
	AckLen     uint64
}

func (*AppendResponse) isMessage() {}

// Target addresses an outbound message either to one peer or to every
// peer (never to self).
type Target struct {
	broadcast bool
	id        ServerId
}

// Single addresses a message to exactly one peer.
func Single(id ServerId) Target { return Target{id: id} }

// Broadcast addresses a message to every peer.
func Broadcast() Target { return Target{broadcast: true} }

// IsBroadcast reports whether the target is a broadcast.
func (t Target) IsBroadcast() bool { return t.broadcast }

// ServerId returns the single addressed peer and true, or the zero
// value and false if the target is a broadcast.
func (t Target) ServerId() (ServerId, bool) { return t.id, !t.broadcast }

// Outbound pairs a Message with the Target it must be delivered to.
// Tick, Receive and ClientSubmit all return an ordered []Outbound[T];
// the surrounding runtime is responsible for actually delivering them.
type Outbound[T any] struct {
	Target  Target
	Message Message[T]
}
