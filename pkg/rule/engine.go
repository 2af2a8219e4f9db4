package rule

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rulehound/rulehound/pkg/alert"
	"github.com/rulehound/rulehound/pkg/httpmsg"
)

// Engine dispatches transactions to the registered rules and forwards the
// resulting alerts to the host's Raiser.
//
// A rule that panics or returns an error is logged and contributes zero
// alerts for that transaction; it never takes down the dispatch loop or its
// sibling rules.
type Engine struct {
	registry  *Registry
	raiser    Raiser
	log       zerolog.Logger
	techs     TechSet
	strength  Strength
	threshold Threshold
}

// EngineConfig configures an Engine.
type EngineConfig struct {
	Registry  *Registry
	Raiser    Raiser
	Logger    zerolog.Logger
	Techs     TechSet
	Strength  Strength
	Threshold Threshold
}

// NewEngine creates an engine over the given registry and alert sink.
func NewEngine(cfg EngineConfig) *Engine {
	reg := cfg.Registry
	if reg == nil {
		reg = NewRegistry()
	}
	raiser := cfg.Raiser
	if raiser == nil {
		raiser = RaiserFunc(func(alert.Alert) {})
	}
	return &Engine{
		registry:  reg,
		raiser:    raiser,
		log:       cfg.Logger,
		techs:     cfg.Techs,
		strength:  cfg.Strength,
		threshold: cfg.Threshold,
	}
}

// InspectRequest runs every applicable passive rule against the request half
// of the transaction and raises the collected alerts.
func (e *Engine) InspectRequest(tx *httpmsg.Transaction) []alert.Alert {
	return e.inspect(tx, func(p PassiveRule) []alert.Alert {
		return p.InspectRequest(tx)
	})
}

// InspectResponse runs every applicable passive rule against the response
// half of the transaction and raises the collected alerts.
func (e *Engine) InspectResponse(tx *httpmsg.Transaction) []alert.Alert {
	return e.inspect(tx, func(p PassiveRule) []alert.Alert {
		return p.InspectResponse(tx)
	})
}

func (e *Engine) inspect(tx *httpmsg.Transaction, run func(PassiveRule) []alert.Alert) []alert.Alert {
	if e.threshold == ThresholdOff {
		return nil
	}
	var all []alert.Alert
	for _, p := range e.registry.Passive() {
		meta := p.Meta()
		if !e.techs.HasAny(meta.Technologies) {
			continue
		}
		alerts, err := e.runIsolated(func() []alert.Alert { return run(p) })
		if err != nil {
			e.log.Error().Err(err).Int("rule", meta.ID).Str("uri", tx.URI()).
				Msg("passive rule failed")
			continue
		}
		for _, a := range alerts {
			e.raiser.Raise(a)
		}
		all = append(all, alerts...)
	}
	return all
}

// ScanActive runs every applicable active rule against the base transaction,
// sequentially and in registration order. Cancelling ctx stops the scan at
// the next send boundary.
func (e *Engine) ScanActive(ctx context.Context, base *httpmsg.Transaction, send Sender) []alert.Alert {
	if e.threshold == ThresholdOff {
		return nil
	}
	var all []alert.Alert
	for _, ar := range e.registry.Active() {
		meta := ar.Meta()
		if !ar.AppliesTo(e.techs) {
			e.log.Debug().Int("rule", meta.ID).Msg("active rule not applicable, skipping")
			continue
		}
		if ctx.Err() != nil {
			return all
		}
		alerts, err := e.runIsolated(func() []alert.Alert {
			out, scanErr := ar.Scan(ctx, base, send, e.strength, e.threshold)
			if scanErr != nil {
				e.log.Warn().Err(scanErr).Int("rule", meta.ID).Str("uri", base.URI()).
					Msg("active rule aborted")
			}
			return out
		})
		if err != nil {
			e.log.Error().Err(err).Int("rule", meta.ID).Str("uri", base.URI()).
				Msg("active rule failed")
			continue
		}
		for _, a := range alerts {
			e.raiser.Raise(a)
		}
		all = append(all, alerts...)
	}
	return all
}

// runIsolated executes fn, converting a panic into an error so one rule
// cannot abort its siblings.
func (e *Engine) runIsolated(fn func() []alert.Alert) (alerts []alert.Alert, err error) {
	defer func() {
		if r := recover(); r != nil {
			alerts = nil
			err = fmt.Errorf("rule panicked: %v", r)
		}
	}()
	return fn(), nil
}
