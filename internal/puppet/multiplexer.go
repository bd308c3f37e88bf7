package puppet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/normanking/cortexpuppet/internal/avatar3d"
	"github.com/normanking/cortexpuppet/internal/metrics"
	"github.com/normanking/cortexpuppet/internal/retarget"
	"github.com/normanking/cortexpuppet/internal/solver"
	"github.com/rs/zerolog"
)

// PassResult summarizes one retarget pass.
type PassResult struct {
	Applied int
	Skipped int
	Failed  int
}

// Multiplexer applies each submitted frame to every ready avatar.
type Multiplexer struct {
	registry   *Registry
	retargeter *retarget.Retargeter
	adapter    *solver.Adapter
	mailbox    *Mailbox
	logger     zerolog.Logger

	// passMu keeps passes from overlapping when Process is called directly
	// while Run is active.
	passMu sync.Mutex
}

// NewMultiplexer wires the pass loop. adapter may be nil when only solved
// frames are submitted.
func NewMultiplexer(reg *Registry, rt *retarget.Retargeter, adapter *solver.Adapter, logger zerolog.Logger) *Multiplexer {
	return &Multiplexer{
		registry:   reg,
		retargeter: rt,
		adapter:    adapter,
		mailbox:    NewMailbox(),
		logger:     logger.With().Str("component", "multiplexer").Logger(),
	}
}

// Submit hands a solved frame to the pass loop. Only the latest frame is
// kept.
func (m *Multiplexer) Submit(f *retarget.Frame) {
	if f == nil {
		return
	}
	metrics.FramesSubmitted.Inc()
	if m.mailbox.Put(f) {
		metrics.FramesDropped.Inc()
	}
}

// SubmitEstimate solves est once and submits the result.
func (m *Multiplexer) SubmitEstimate(est *solver.Estimate) error {
	if m.adapter == nil {
		return fmt.Errorf("submit estimate: no solver configured")
	}
	m.Submit(m.adapter.Solve(est))
	return nil
}

// Dropped reports how many frames were replaced before being processed.
func (m *Multiplexer) Dropped() uint64 {
	return m.mailbox.Dropped()
}

// Run processes submitted frames until ctx is cancelled.
func (m *Multiplexer) Run(ctx context.Context) error {
	m.logger.Info().Msg("Pass loop started")
	defer m.logger.Info().Msg("Pass loop stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.mailbox.Ready():
			f, ok := m.mailbox.Take()
			if !ok {
				continue
			}
			m.Process(f)
		}
	}
}

// Process runs one synchronous pass of f over the avatars that are ready
// when the pass starts. Avatars that become ready during the pass join the
// next one.
func (m *Multiplexer) Process(f *retarget.Frame) PassResult {
	m.passMu.Lock()
	defer m.passMu.Unlock()

	start := time.Now()
	var res PassResult
	for _, a := range m.registry.Ready() {
		ok, err := m.applyOne(a, f)
		switch {
		case err != nil:
			res.Failed++
			metrics.AvatarsRetargeted.WithLabelValues("failed").Inc()
			m.logger.Error().
				Err(err).
				Str("avatar", string(a.ID)).
				Msg("Retarget failed")
		case ok:
			res.Applied++
			metrics.AvatarsRetargeted.WithLabelValues("applied").Inc()
		default:
			res.Skipped++
			metrics.AvatarsRetargeted.WithLabelValues("skipped").Inc()
		}
	}
	metrics.PassDuration.Observe(time.Since(start).Seconds())
	return res
}

// ProcessEstimate solves est and runs one synchronous pass.
func (m *Multiplexer) ProcessEstimate(est *solver.Estimate) (PassResult, error) {
	if m.adapter == nil {
		return PassResult{}, fmt.Errorf("process estimate: no solver configured")
	}
	return m.Process(m.adapter.Solve(est)), nil
}

// applyOne isolates a failing avatar from the rest of the pass.
func (m *Multiplexer) applyOne(a *avatar3d.Avatar, f *retarget.Frame) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return m.retargeter.Apply(a, f), nil
}
