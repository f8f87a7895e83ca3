package main

import "time"

// Pacer enforces the provider's requests-per-minute quota by spacing
// out calls. This is scheduling policy, separate from retry policy.
type Pacer interface {
	Wait()
}

type intervalPacer struct {
	interval time.Duration
	last     time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

// NewPacer spaces calls so no more than requestsPerMinute are issued.
func NewPacer(requestsPerMinute int) *intervalPacer {
	interval := time.Duration(0)
	if requestsPerMinute > 0 {
		interval = time.Minute / time.Duration(requestsPerMinute)
	}
	return &intervalPacer{
		interval: interval,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

func (p *intervalPacer) Wait() {
	if p.interval <= 0 {
		return
	}
	if !p.last.IsZero() {
		if elapsed := p.now().Sub(p.last); elapsed < p.interval {
			p.sleep(p.interval - elapsed)
		}
	}
	p.last = p.now()
}
