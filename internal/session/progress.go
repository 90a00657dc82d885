package session

import (
	"sync"
	"time"
)

type Step struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

var AnalysisSteps = []Step{
	{Title: "Data Ingestion & Normalization", Description: "Parsing raw workflow logs and validating event timelines..."},
	{Title: "Process Mining & Bottlenecks", Description: "Identifying execution loops and invisible idle time..."},
	{Title: "SLA Risk Profiling", Description: "Calculating breach probabilities and workload efficiency..."},
	{Title: "Financial Impact Modeling", Description: "Quantifying revenue leakage from operational friction..."},
	{Title: "Strategic Insight Synthesis", Description: "Generating corrective actions and executive summaries..."},
}

const DefaultProgressInterval = 1200 * time.Millisecond

// Progress advances a cosmetic step counter on a fixed interval. It does not
// reflect real request progress and must be stopped when the call settles.
type Progress struct {
	mu   sync.Mutex
	step int
	last int

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func StartProgress(interval time.Duration, steps int) *Progress {
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	p := &Progress{
		last: steps - 1,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go p.run(interval)
	return p
}

func (p *Progress) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer close(p.done)
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.mu.Lock()
			if p.step < p.last {
				p.step++
			}
			p.mu.Unlock()
		}
	}
}

func (p *Progress) Step() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.step
}

// Stop ends the ticker and waits for its goroutine. Safe to call twice.
func (p *Progress) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.done
}
