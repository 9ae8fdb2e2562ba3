package queue

import (
	"context"
	"fmt"
	"time"

	"ms-turnos/internal/logger"
)

// Engine drives the countdown: a fixed-period tick that recomputes remaining
// time and raises expiries through the service. Stop cancels the tick; no
// alert fires after Stop returns.
type Engine struct {
	svc      *Service
	interval time.Duration
	logger   *logger.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewEngine(svc *Service, interval time.Duration, log *logger.Logger) *Engine {
	if interval <= 0 {
		interval = time.Second
	}
	return &Engine{
		svc:      svc,
		interval: interval,
		logger:   log,
	}
}

func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})
	if e.logger != nil {
		e.logger.Info("ENGINE", fmt.Sprintf("Countdown engine started (interval %s)", e.interval))
	}
	go e.run(ctx)
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.done)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.svc.Tick()
		}
	}
}

// Stop cancels the periodic tick and waits for the in-flight one to finish.
func (e *Engine) Stop() {
	if e.cancel == nil {
		return
	}
	e.cancel()
	<-e.done
	if e.logger != nil {
		e.logger.Info("ENGINE", "Countdown engine stopped")
	}
}
