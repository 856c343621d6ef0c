package sweeper

import (
	"log"
	"time"
)

// HallExpirer flips halls past their expiry to the expired status
type HallExpirer interface {
	ExpireBefore(now time.Time) (int64, error)
}

// Sweeper periodically marks overdue halls as expired. The sweep is a
// single batch UPDATE keyed on expires_at, so running it twice, or from
// two instances at once, converges on the same state.
type Sweeper struct {
	halls    HallExpirer
	interval time.Duration
	now      func() time.Time
}

func New(halls HallExpirer, interval time.Duration) *Sweeper {
	return &Sweeper{
		halls:    halls,
		interval: interval,
		now:      time.Now,
	}
}

// Run sweeps immediately, then on every tick until stop is closed. A
// failed sweep is logged and retried on the next tick; it never stops
// the loop.
func (s *Sweeper) Run(stop <-chan struct{}) {
	s.sweep()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-stop:
			return
		}
	}
}

func (s *Sweeper) sweep() {
	expired, err := s.halls.ExpireBefore(s.now())
	if err != nil {
		log.Printf("Hall sweep failed: %v", err)
		return
	}
	if expired > 0 {
		log.Printf("Hall sweep: marked %d hall(s) expired", expired)
	}
}
