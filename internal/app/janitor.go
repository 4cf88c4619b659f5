/**
 * @description
 * Cron-driven cleanup of abandoned withdrawal sessions. Sessions live only
 * in memory, so a contributor who never explicitly abandons one would leak
 * it; the janitor sweeps sessions that have been idle past the configured
 * window.
 *
 * @dependencies
 * - github.com/robfig/cron/v3: Cron scheduling.
 */
package app

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// SweepIdleSessions removes withdrawal sessions whose last activity is older
// than maxIdle. Sessions with an operation in flight are skipped; the
// completion paths clear the busy flag and refresh activity, so a stuck one
// is collected on a later sweep. Returns the number of sessions removed.
func (s *Service) SweepIdleSessions(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for userID, sess := range s.sessions {
		if sess.busy {
			continue
		}
		if sess.lastActive.Before(cutoff) {
			delete(s.sessions, userID)
			removed++
		}
	}
	return removed
}

// SessionJanitor runs the idle session sweep on a cron schedule.
type SessionJanitor struct {
	cron     *cron.Cron
	service  *Service
	schedule string
	maxIdle  time.Duration
}

// NewSessionJanitor creates a janitor sweeping sessions idle longer than
// maxIdle on the given cron schedule.
func NewSessionJanitor(service *Service, schedule string, maxIdle time.Duration) *SessionJanitor {
	return &SessionJanitor{
		cron:     cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		service:  service,
		schedule: schedule,
		maxIdle:  maxIdle,
	}
}

// Start registers the sweep job and starts the scheduler.
func (j *SessionJanitor) Start() {
	if _, err := j.cron.AddFunc(j.schedule, func() {
		if removed := j.service.SweepIdleSessions(j.maxIdle); removed > 0 {
			log.Printf("level=info component=session_janitor msg=\"idle sessions swept\" removed=%d max_idle=%s", removed, j.maxIdle)
		}
	}); err != nil {
		log.Printf("level=error component=session_janitor msg=\"failed to schedule sweep job\" schedule=%q err=%v", j.schedule, err)
		return
	}
	j.cron.Start()
	log.Printf("level=info component=session_janitor msg=\"sweep job scheduled\" schedule=%q max_idle=%s", j.schedule, j.maxIdle)
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (j *SessionJanitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}
