// Package heartbeat periodically announces a status event so operators
// can tell a quiet pipeline apart from a dead one.
package heartbeat

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"tradenotify/internal/event"
	"tradenotify/internal/notify"
	"tradenotify/pkg/logx"
)

const defaultStatus = "still watching the markets"

// Service dispatches a status event on a cron schedule.
type Service struct {
	schedule cron.Schedule
	status   string
	mgr      *notify.Manager
	log      logx.Logger

	c *cron.Cron
}

// New parses schedule with the standard 5-field cron syntax (descriptors
// like "@hourly" are accepted).
func New(schedule, status string, mgr *notify.Manager, log logx.Logger) (*Service, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	sched, err := parser.Parse(schedule)
	if err != nil {
		return nil, fmt.Errorf("heartbeat schedule: %w", err)
	}
	if status == "" {
		status = defaultStatus
	}
	return &Service{schedule: sched, status: status, mgr: mgr, log: log}, nil
}

// Run blocks until ctx is done.
func (s *Service) Run(ctx context.Context) {
	s.c = cron.New()
	s.c.Schedule(s.schedule, cron.FuncJob(func() { s.beat(ctx) }))
	s.c.Start()
	s.log.Info("heartbeat started")

	<-ctx.Done()
	stopped := s.c.Stop()
	<-stopped.Done()
}

func (s *Service) beat(ctx context.Context) {
	s.mgr.Dispatch(ctx, event.Event{
		Type:   event.TypeStatus,
		Status: s.status,
	})
}
