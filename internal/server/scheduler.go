package server

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"

	"github.com/taskpilot/taskpilot/config"
)

// Scheduler fires configured commands on their cron schedules. With a Redis
// client present it takes a short SetNX lock per schedule so multiple
// instances do not double-fire.
type Scheduler struct {
	schedules []config.ScheduleConfig
	rdb       *redis.Client
	runner    *Runner
	logger    *log.Logger

	mu      sync.Mutex
	lastRun map[string]time.Time
	stop    chan struct{}
	done    sync.WaitGroup
}

// NewScheduler builds a scheduler over the configured schedules.
func NewScheduler(schedules []config.ScheduleConfig, rdb *redis.Client, runner *Runner) *Scheduler {
	return &Scheduler{
		schedules: schedules,
		rdb:       rdb,
		runner:    runner,
		logger:    log.New(log.Writer(), "[SCHED] ", log.LstdFlags),
		lastRun:   make(map[string]time.Time),
		stop:      make(chan struct{}),
	}
}

// Start launches the tick loop.
func (s *Scheduler) Start() {
	ticker := time.NewTicker(time.Minute)
	s.done.Add(1)
	go func() {
		defer s.done.Done()
		for {
			select {
			case <-s.stop:
				ticker.Stop()
				return
			case <-ticker.C:
				s.tick(time.Now())
			}
		}
	}()
}

// Stop halts the tick loop and waits for it to exit. In-flight runs finish
// on their own goroutines.
func (s *Scheduler) Stop() {
	close(s.stop)
	s.done.Wait()
}

func (s *Scheduler) tick(now time.Time) {
	ctx := context.Background()
	for _, sched := range s.schedules {
		s.mu.Lock()
		last, ran := s.lastRun[sched.Name]
		s.mu.Unlock()

		var lastPtr *time.Time
		if ran {
			lastPtr = &last
		}
		if !isDue(sched.Cron, lastPtr, now) {
			continue
		}
		if s.rdb != nil {
			lockKey := "sched:lock:" + sched.Name
			ok, err := s.rdb.SetNX(ctx, lockKey, "1", 2*time.Minute).Result()
			if err != nil {
				s.logger.Printf("schedule %q: lock: %v", sched.Name, err)
				continue
			}
			if !ok {
				continue
			}
		}

		s.mu.Lock()
		s.lastRun[sched.Name] = now
		s.mu.Unlock()

		go func(sched config.ScheduleConfig) {
			rec, err := s.runner.Run(ctx, sched.Command, sched.Email, "")
			if err != nil {
				s.logger.Printf("schedule %q: %v", sched.Name, err)
				return
			}
			s.logger.Printf("schedule %q: run %s finished with %d log lines", sched.Name, rec.ID, len(rec.Logs))
		}(sched)
	}
}

// isDue reports whether a schedule with cronSpec should fire at now given
// its last firing. Supports @hourly, @daily and 5-field cron expressions;
// an unparsable expression degrades to @daily.
func isDue(cronSpec string, last *time.Time, now time.Time) bool {
	switch cronSpec {
	case "@daily":
		return last == nil || now.Sub(*last) >= 24*time.Hour
	case "@hourly":
		return last == nil || now.Sub(*last) >= time.Hour
	default:
		expr, err := cronexpr.Parse(cronSpec)
		if err != nil {
			return last == nil || now.Sub(*last) >= 24*time.Hour
		}
		if last == nil {
			return true
		}
		next := expr.Next(*last)
		return !next.After(now)
	}
}
