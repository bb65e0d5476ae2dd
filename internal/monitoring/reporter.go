package monitoring

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/process"
)

// HubStats exposes the live connection figures of the realtime hub.
type HubStats interface {
	ConnectionCount() int
	OnlineUserIDs() []string
}

// UserCounter counts registered users.
type UserCounter interface {
	CountUsers(ctx context.Context) (int, error)
}

// MessageCounter counts stored messages.
type MessageCounter interface {
	CountMessages(ctx context.Context) (int, error)
}

// Snapshot is one reading of the service's health figures.
type Snapshot struct {
	Connections int
	OnlineUsers int
	Users       int
	Messages    int
	RSSBytes    uint64
	CPUPercent  float64
}

// Reporter periodically logs a Snapshot on a cron schedule.
type Reporter struct {
	hub      HubStats
	users    UserCounter
	messages MessageCounter
	proc     *process.Process
	cron     *cron.Cron
	timeout  time.Duration
}

// NewReporter validates the schedule and prepares a reporter. It does not start
// until Start is called.
func NewReporter(schedule string, hub HubStats, users UserCounter, messages MessageCounter) (*Reporter, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid stats schedule %q: %w", schedule, err)
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		// Database and hub figures are still reported.
		log.Warn().Err(err).Msg("Reporter: process metrics unavailable")
		proc = nil
	}

	r := &Reporter{
		hub:      hub,
		users:    users,
		messages: messages,
		proc:     proc,
		cron:     cron.New(),
		timeout:  10 * time.Second,
	}
	if _, err := r.cron.AddFunc(schedule, r.report); err != nil {
		return nil, fmt.Errorf("failed to schedule stats reporter: %w", err)
	}
	return r, nil
}

// Start runs the schedule in the background.
func (r *Reporter) Start() {
	log.Info().Msg("Starting background stats reporter...")
	r.cron.Start()
}

// Stop halts the schedule and waits for a running report to finish.
func (r *Reporter) Stop() {
	<-r.cron.Stop().Done()
	log.Info().Msg("Stopped background stats reporter.")
}

// Collect takes a Snapshot. Counter failures are returned; process metric
// failures leave the process fields zero.
func (r *Reporter) Collect(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{
		Connections: r.hub.ConnectionCount(),
		OnlineUsers: len(r.hub.OnlineUserIDs()),
	}

	var err error
	if snap.Users, err = r.users.CountUsers(ctx); err != nil {
		return snap, fmt.Errorf("count users: %w", err)
	}
	if snap.Messages, err = r.messages.CountMessages(ctx); err != nil {
		return snap, fmt.Errorf("count messages: %w", err)
	}

	if r.proc != nil {
		if mem, err := r.proc.MemoryInfoWithContext(ctx); err == nil {
			snap.RSSBytes = mem.RSS
		}
		if cpu, err := r.proc.CPUPercentWithContext(ctx); err == nil {
			snap.CPUPercent = cpu
		}
	}
	return snap, nil
}

func (r *Reporter) report() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	snap, err := r.Collect(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Reporter: failed to collect stats")
		return
	}

	log.Info().
		Int("connections", snap.Connections).
		Int("online_users", snap.OnlineUsers).
		Int("users", snap.Users).
		Int("messages", snap.Messages).
		Uint64("rss_bytes", snap.RSSBytes).
		Float64("cpu_percent", snap.CPUPercent).
		Msg("Stats")
}
