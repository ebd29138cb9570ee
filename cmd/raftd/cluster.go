package main

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	raft "github.com/bernerdschaefer/raftd"
	"github.com/bernerdschaefer/raftd/internal/loopback"
)

// command is the toy application command this demo replicates: a
// single key/value assignment.
type command struct {
	Key   string
	Value string
}

// kvStore applies committed commands to an in-memory map. Reads go
// straight to the map without going through consensus at all; this
// demo only replicates writes.
type kvStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func newKVStore() *kvStore {
	return &kvStore{data: make(map[string]string)}
}

func (s *kvStore) Apply(cmd command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[cmd.Key] = cmd.Value
}

func (s *kvStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// node bundles a single replica with its application and the node id
// used to address it on the fabric.
type node struct {
	id      raft.ServerId
	replica *raft.Replica[command]
	store   *kvStore
}

// cluster drives a fixed set of in-process replicas against a
// loopback.Fabric on a fixed tick interval, logging every state
// transition with zerolog.
type cluster struct {
	nodes  []*node
	fabric *loopback.Fabric[command]
	logger zerolog.Logger

	tickInterval time.Duration
	metrics      *raft.Metrics
}

func newCluster(size int, config raft.Config, tickInterval time.Duration, logger zerolog.Logger, metrics *raft.Metrics) (*cluster, error) {
	ids := make([]raft.ServerId, size)
	for i := range ids {
		ids[i] = raft.ServerId(i + 1)
	}

	fabric := loopback.NewFabric[command](ids)

	c := &cluster{
		fabric:       fabric,
		logger:       logger,
		tickInterval: tickInterval,
		metrics:      metrics,
	}

	for i, id := range ids {
		peers := make([]raft.ServerId, 0, len(ids)-1)
		for _, other := range ids {
			if other != id {
				peers = append(peers, other)
			}
		}

		seed := int64(1000 + i)
		store := newKVStore()
		replica, err := raft.NewReplica[command](
			id, peers, config, &seed, store,
			raft.WithLogger[command](logger.With().Uint64("replica", uint64(id)).Logger()),
			raft.WithMetrics[command](metrics),
		)
		if err != nil {
			return nil, fmt.Errorf("constructing replica %d: %w", id, err)
		}

		c.nodes = append(c.nodes, &node{id: id, replica: replica, store: store})
	}

	return c, nil
}

// run drives every replica's Tick and inbox-drain loop until done
// closes.
func (c *cluster) run(done <-chan struct{}) {
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			for _, n := range c.nodes {
				c.deliver(n, n.replica.Tick())
				c.drainInbox(n)
			}
		}
	}
}

func (c *cluster) drainInbox(n *node) {
	for {
		select {
		case env := <-c.fabric.Inbox(n.id):
			c.deliver(n, n.replica.Receive(env.Message))
		default:
			return
		}
	}
}

func (c *cluster) deliver(n *node, out []raft.Outbound[command]) {
	for _, o := range out {
		c.fabric.Send(n.id, o)
	}
}

// byID looks up a node by its ServerId.
func (c *cluster) byID(id raft.ServerId) *node {
	for _, n := range c.nodes {
		if n.id == id {
			return n
		}
	}
	return nil
}

// submit tries ClientSubmit against node id specifically, delivering
// any replication it produces. The caller is expected to retry
// elsewhere on a *raft.NotLeaderError, per submitWithRetry below.
func (c *cluster) submit(id raft.ServerId, cmd command) error {
	n := c.byID(id)
	if n == nil {
		return fmt.Errorf("raftd: no such replica %d", id)
	}
	out, err := n.replica.ClientSubmit(cmd)
	if err != nil {
		return err
	}
	c.deliver(n, out)
	return nil
}

// submitWithRetry submits cmd starting at node start, following each
// *raft.NotLeaderError's LastKnownLeader hint to retry against a
// better guess, up to once per node in the cluster. If a rejecting
// node has no leader hint yet (e.g. an election is still in
// progress), it advances to the next node in id order instead.
func (c *cluster) submitWithRetry(start raft.ServerId, cmd command) error {
	guess := start
	var lastErr error

	for attempt := 0; attempt < len(c.nodes); attempt++ {
		err := c.submit(guess, cmd)
		if err == nil {
			return nil
		}
		lastErr = err

		var notLeader *raft.NotLeaderError
		if !errors.As(err, &notLeader) {
			return err
		}
		if notLeader.LastKnownLeader != nil {
			guess = *notLeader.LastKnownLeader
		} else {
			guess = c.nextID(guess)
		}
	}
	return fmt.Errorf("raftd: could not reach the leader after %d attempts: %w", len(c.nodes), lastErr)
}

// nextID returns the node id immediately after id in the cluster's id
// order, wrapping around.
func (c *cluster) nextID(id raft.ServerId) raft.ServerId {
	for i, n := range c.nodes {
		if n.id == id {
			return c.nodes[(i+1)%len(c.nodes)].id
		}
	}
	return c.nodes[0].id
}
