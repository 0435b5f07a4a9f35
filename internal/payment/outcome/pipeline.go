// Package outcome runs the side effects of a verified payment event as an
// ordered list of named steps. Each step gets its own deadline; a hard step
// failure aborts the remaining steps, a soft one is logged and skipped.
package outcome

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smallbiznis/campusswap/internal/observability/logger"
	"github.com/smallbiznis/campusswap/internal/observability/metrics"
	"github.com/smallbiznis/campusswap/internal/payment/domain"
	"go.uber.org/zap"
)

const DefaultStepTimeout = 5 * time.Second

const (
	resultOK         = "ok"
	resultFailed     = "failed"
	resultTimeout    = "timeout"
	resultSoftFailed = "soft_failed"
)

// Step is one collaborator call in a handler.
type Step struct {
	Name string
	// Soft steps log their failure and let the pipeline continue.
	Soft bool
	Run  func(ctx context.Context, evt *domain.PaymentEvent) error
}

// StepError reports the hard step that aborted a pipeline.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// TimeoutFunc returns the per-step deadline. It is read on every run so a
// reloaded policy applies to the next delivery.
type TimeoutFunc func() time.Duration

// Pipeline is a named, ordered list of steps.
type Pipeline struct {
	name    string
	steps   []Step
	timeout TimeoutFunc
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewPipeline(name string, steps []Step, timeout TimeoutFunc, log *zap.Logger, m *metrics.Metrics) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout == nil {
		timeout = func() time.Duration { return DefaultStepTimeout }
	}
	return &Pipeline{
		name:    name,
		steps:   steps,
		timeout: timeout,
		log:     log.Named(name),
		metrics: m,
	}
}

// Steps returns the step names in execution order.
func (p *Pipeline) Steps() []string {
	names := make([]string, 0, len(p.steps))
	for _, step := range p.steps {
		names = append(names, step.Name)
	}
	return names
}

// Handle satisfies domain.OutcomeHandler.
func (p *Pipeline) Handle(ctx context.Context, evt *domain.PaymentEvent) error {
	return p.Run(ctx, evt)
}

func (p *Pipeline) Run(ctx context.Context, evt *domain.PaymentEvent) error {
	if evt == nil {
		return domain.ErrInvalidEvent
	}
	log := logger.WithContext(ctx, p.log)

	for _, step := range p.steps {
		start := time.Now()
		err := p.runStep(ctx, step, evt)
		elapsed := time.Since(start)

		if err == nil {
			p.metrics.RecordStep(ctx, p.name, step.Name, resultOK, elapsed)
			log.Debug("webhook step completed",
				zap.String("step", step.Name),
				zap.Int64("duration_ms", elapsed.Milliseconds()),
			)
			continue
		}

		if step.Soft {
			p.metrics.RecordStep(ctx, p.name, step.Name, resultSoftFailed, elapsed)
			log.Warn("webhook step failed, continuing",
				zap.String("step", step.Name),
				zap.String("payment_id", evt.PaymentID),
				zap.Bool("manual_followup", true),
				zap.Error(err),
			)
			continue
		}

		result := resultFailed
		if errors.Is(err, context.DeadlineExceeded) {
			result = resultTimeout
		}
		p.metrics.RecordStep(ctx, p.name, step.Name, result, elapsed)
		log.Error("webhook step failed",
			zap.String("step", step.Name),
			zap.String("result", result),
			zap.Error(err),
		)
		return &StepError{Step: step.Name, Err: err}
	}
	return nil
}

// runStep bounds a step by the step timeout. A step that ignores its context
// is abandoned once the deadline passes.
func (p *Pipeline) runStep(ctx context.Context, step Step, evt *domain.PaymentEvent) (err error) {
	stepCtx, cancel := context.WithTimeout(ctx, p.stepTimeout())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic: %v", r)
			}
		}()
		done <- step.Run(stepCtx, evt)
	}()

	select {
	case err = <-done:
		return err
	case <-stepCtx.Done():
		return stepCtx.Err()
	}
}

func (p *Pipeline) stepTimeout() time.Duration {
	if d := p.timeout(); d > 0 {
		return d
	}
	return DefaultStepTimeout
}

var _ domain.OutcomeHandler = (*Pipeline)(nil)
