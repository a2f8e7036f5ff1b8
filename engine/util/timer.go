package util

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Wall-clock timing for the host loop. Durations never feed back into simulation state.

type PhaseStats struct {
	name string
	last time.Duration

	total time.Duration
	count int64

	min time.Duration
	max time.Duration
}

func (p *PhaseStats) Average() time.Duration {
	if p.count == 0 {
		return 0
	}
	return p.total / time.Duration(p.count)
}

func (p *PhaseStats) Count() int64 { return p.count }

func (p *PhaseStats) String() string {
	return fmt.Sprintf("%-10s n=%d last=%v avg=%v min=%v max=%v", p.name, p.count, p.last, p.Average(), p.min, p.max)
}

type Timer struct {
	phases     map[string]*PhaseStats
	phaseNames []string
}

func NewTimer() *Timer {
	return &Timer{
		phases: make(map[string]*PhaseStats),
	}
}

func (t *Timer) Phase(name string) *PhaseStats {
	return t.phases[name]
}

func (t *Timer) Reset() {
	for _, p := range t.phases {
		*p = PhaseStats{name: p.name, min: math.MaxInt64, max: math.MinInt64}
	}
}

// String lists phases in the order they were first started.
func (t *Timer) String() string {
	var sb strings.Builder
	for _, name := range t.phaseNames {
		sb.WriteString(t.phases[name].String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Start begins timing one run of a phase; call the returned func to stop it.
func (t *Timer) Start(name string) func() time.Duration {
	p, ok := t.phases[name]
	if !ok {
		t.phaseNames = append(t.phaseNames, name)
		p = &PhaseStats{name: name, min: math.MaxInt64, max: math.MinInt64}
		t.phases[name] = p
	}
	start := time.Now()
	return func() time.Duration {
		d := time.Since(start)
		p.last = d
		p.total += d
		p.count++
		if d < p.min {
			p.min = d
		}
		if d > p.max {
			p.max = d
		}
		return d
	}
}
