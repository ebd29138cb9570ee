// Command raftd runs a small in-process cluster of replicas wired
// together over an in-memory loopback fabric. It exists to exercise
// the core raft package end to end — election, replication, commit,
// client submission — outside of tests, with real ticking, logging
// and metrics.
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	raft "github.com/bernerdschaefer/raftd"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("RAFTD")
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "raftd",
		Short: "Run a small in-memory Raft cluster",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(v)
		},
	}

	flags := cmd.Flags()
	flags.Int("cluster-size", 3, "number of replicas in the cluster")
	flags.Duration("tick-interval", 50*time.Millisecond, "wall-clock duration of one logical tick")
	flags.Uint("election-timeout", 10, "election timeout, in ticks")
	flags.Uint("election-jitter", 3, "election timeout jitter, in ticks")
	flags.Uint("heartbeat-interval", 2, "leader heartbeat interval, in ticks")
	flags.String("metrics-addr", ":9090", "address to serve /metrics on")
	flags.Duration("run-for", 0, "stop after this long (0 runs until interrupted)")

	_ = v.BindPFlags(flags)

	return cmd
}

func run(v *viper.Viper) error {
	logger := zerolog.New(zerolog.NewConsoleWriter()).With().
		Timestamp().
		Str("run_id", uuid.NewString()).
		Logger()

	config := raft.Config{
		ElectionTimeout:       raft.Ticks(v.GetUint("election-timeout")),
		ElectionTimeoutJitter: raft.Ticks(v.GetUint("election-jitter")),
		HeartbeatInterval:     raft.Ticks(v.GetUint("heartbeat-interval")),
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("raftd: invalid configuration: %w", err)
	}

	reg := prometheus.NewRegistry()
	metrics := raft.NewMetrics(reg)

	c, err := newCluster(v.GetInt("cluster-size"), config, v.GetDuration("tick-interval"), logger, metrics)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	go serveMetrics(v.GetString("metrics-addr"), reg, logger, done)
	go c.run(done)
	go readStdinCommands(c, logger)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	if runFor := v.GetDuration("run-for"); runFor > 0 {
		select {
		case <-time.After(runFor):
		case <-sig:
		}
	} else {
		<-sig
	}

	close(done)
	logger.Info().Msg("shutting down")
	return nil
}

// readStdinCommands reads "KEY VALUE..." lines from stdin and submits
// each as a command, retrying against whichever leader
// submitWithRetry's NotLeaderError hints point to next. It returns
// once stdin is closed.
func readStdinCommands(c *cluster, logger zerolog.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			logger.Warn().Str("line", scanner.Text()).Msg("expected \"KEY VALUE\", skipping")
			continue
		}

		cmd := command{Key: fields[0], Value: strings.Join(fields[1:], " ")}
		if err := c.submitWithRetry(c.nodes[0].id, cmd); err != nil {
			logger.Error().Err(err).Str("key", cmd.Key).Msg("submit failed")
			continue
		}
		logger.Info().Str("key", cmd.Key).Str("value", cmd.Value).Msg("submitted")
	}
}
