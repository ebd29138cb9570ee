package raft

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics wraps the Prometheus collectors a Replica reports to, all
// labeled by replica id. A nil *Metrics is valid everywhere and makes
// every observe call a no-op, so metrics are strictly optional.
type Metrics struct {
	term             *prometheus.GaugeVec
	leadershipState  *prometheus.GaugeVec
	commitIndex      *prometheus.GaugeVec
	electionsStarted *prometheus.CounterVec
	votesGranted     *prometheus.CounterVec
}

// NewMetrics builds and, if reg is non-nil, registers the collectors.
// Pass nil for reg to build a detached Metrics (useful in tests).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		term: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "raft",
			Name:      "current_term",
			Help:      "Current term observed by this replica.",
		}, []string{"replica"}),
		leadershipState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "raft",
			Name:      "leadership_state",
			Help:      "Current leadership state (0=follower, 1=candidate, 2=leader).",
		}, []string{"replica"}),
		commitIndex: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "raft",
			Name:      "commit_index",
			Help:      "Number of committed log entries.",
		}, []string{"replica"}),
		electionsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "raft",
			Name:      "elections_started_total",
			Help:      "Number of elections this replica has started.",
		}, []string{"replica"}),
		votesGranted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "raft",
			Name:      "votes_received_total",
			Help:      "Number of votes this replica has received while a candidate.",
		}, []string{"replica"}),
	}
	if reg != nil {
		reg.MustRegister(m.term, m.leadershipState, m.commitIndex, m.electionsStarted, m.votesGranted)
	}
	return m
}

func (m *Metrics) observeTerm(id ServerId, t Term) {
	if m == nil {
		return
	}
	m.term.WithLabelValues(label(id)).Set(float64(t))
}

func (m *Metrics) observeState(id ServerId, k LeadershipKind) {
	if m == nil {
		return
	}
	m.leadershipState.WithLabelValues(label(id)).Set(float64(k))
}

func (m *Metrics) observeCommitIndex(id ServerId, idx uint64) {
	if m == nil {
		return
	}
	m.commitIndex.WithLabelValues(label(id)).Set(float64(idx))
}

func (m *Metrics) observeElectionStarted(id ServerId) {
	if m == nil {
		return
	}
	m.electionsStarted.WithLabelValues(label(id)).Inc()
}

func (m *Metrics) observeVote(id ServerId) {
	if m == nil {
		return
	}
	m.votesGranted.WithLabelValues(label(id)).Inc()
}

func label(id ServerId) string {
	return strconv.FormatUint(uint64(id), 10)
}
