package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const DefaultPollInterval = 30 * time.Second

// Poller runs a task on a fixed interval until stopped. It runs the task
// once immediately on Start.
type Poller struct {
	name     string
	task     func(context.Context) error
	interval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewPoller(name string, interval time.Duration, task func(context.Context) error) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{name: name, task: task, interval: interval}
}

// Start begins the loop. Returns an error if already running.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("poller %s is already running", p.name)
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Poller started", "name", p.name, "interval", p.interval)
	return nil
}

// Stop signals the loop and waits for the current run to finish.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Poller stopped", "name", p.name)
	case <-ctx.Done():
		slog.WarnContext(ctx, "Poller stop timed out", "name", p.name)
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.run(ctx)
	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.run(ctx)
		}
	}
}

func (p *Poller) run(ctx context.Context) {
	if err := p.task(ctx); err != nil {
		slog.ErrorContext(ctx, "Poller task failed", "name", p.name, "error", err)
	}
}
