package rule

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rulehound/rulehound/pkg/alert"
	"github.com/rulehound/rulehound/pkg/httpmsg"
)

type stubPassive struct {
	meta     alert.Metadata
	response func(*httpmsg.Transaction) []alert.Alert
}

func (s *stubPassive) Meta() alert.Metadata { return s.meta }

func (s *stubPassive) InspectRequest(tx *httpmsg.Transaction) []alert.Alert { return nil }

func (s *stubPassive) InspectResponse(tx *httpmsg.Transaction) []alert.Alert {
	return s.response(tx)
}

type stubActive struct {
	meta    alert.Metadata
	applies bool
	scan    func(ctx context.Context, base *httpmsg.Transaction, send Sender) ([]alert.Alert, error)
}

func (s *stubActive) Meta() alert.Metadata { return s.meta }

func (s *stubActive) AppliesTo(techs TechSet) bool { return s.applies }

func (s *stubActive) Scan(ctx context.Context, base *httpmsg.Transaction, send Sender, strength Strength, threshold Threshold) ([]alert.Alert, error) {
	return s.scan(ctx, base, send)
}

func oneAlert(id int) []alert.Alert {
	return []alert.Alert{alert.NewBuilder(alert.Metadata{ID: id}).Build()}
}

func newTx(t *testing.T) *httpmsg.Transaction {
	t.Helper()
	tx, err := httpmsg.New("GET", "https://example.com/index.html")
	if err != nil {
		t.Fatal(err)
	}
	return tx
}

func TestEngineCollectsFromAllPassiveRules(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterPassive(&stubPassive{
		meta:     alert.Metadata{ID: 1},
		response: func(*httpmsg.Transaction) []alert.Alert { return oneAlert(1) },
	})
	reg.RegisterPassive(&stubPassive{
		meta:     alert.Metadata{ID: 2},
		response: func(*httpmsg.Transaction) []alert.Alert { return oneAlert(2) },
	})

	var raised []alert.Alert
	eng := NewEngine(EngineConfig{
		Registry:  reg,
		Raiser:    RaiserFunc(func(a alert.Alert) { raised = append(raised, a) }),
		Logger:    zerolog.Nop(),
		Threshold: ThresholdMedium,
	})

	alerts := eng.InspectResponse(newTx(t))
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}
	if len(raised) != 2 {
		t.Fatalf("raiser saw %d alerts, want 2", len(raised))
	}
	if raised[0].RuleID != 1 || raised[1].RuleID != 2 {
		t.Errorf("registration order not preserved: %d, %d", raised[0].RuleID, raised[1].RuleID)
	}
}

func TestEnginePanickingRuleDoesNotAbortSiblings(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterPassive(&stubPassive{
		meta:     alert.Metadata{ID: 1},
		response: func(*httpmsg.Transaction) []alert.Alert { panic("boom") },
	})
	reg.RegisterPassive(&stubPassive{
		meta:     alert.Metadata{ID: 2},
		response: func(*httpmsg.Transaction) []alert.Alert { return oneAlert(2) },
	})

	eng := NewEngine(EngineConfig{Registry: reg, Logger: zerolog.Nop(), Threshold: ThresholdMedium})

	alerts := eng.InspectResponse(newTx(t))
	if len(alerts) != 1 || alerts[0].RuleID != 2 {
		t.Fatalf("sibling rule result lost: %+v", alerts)
	}
}

func TestEngineThresholdOffDisablesAlerting(t *testing.T) {
	reg := NewRegistry()
	called := false
	reg.RegisterPassive(&stubPassive{
		meta: alert.Metadata{ID: 1},
		response: func(*httpmsg.Transaction) []alert.Alert {
			called = true
			return oneAlert(1)
		},
	})

	eng := NewEngine(EngineConfig{Registry: reg, Logger: zerolog.Nop(), Threshold: ThresholdOff})
	if alerts := eng.InspectResponse(newTx(t)); len(alerts) != 0 {
		t.Errorf("threshold off must yield zero alerts, got %d", len(alerts))
	}
	if called {
		t.Error("rules must not run at threshold off")
	}
}

func TestEngineSkipsRulesForUndeclaredTechnology(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterPassive(&stubPassive{
		meta:     alert.Metadata{ID: 1, Technologies: []string{TechPHP}},
		response: func(*httpmsg.Transaction) []alert.Alert { return oneAlert(1) },
	})

	eng := NewEngine(EngineConfig{
		Registry:  reg,
		Logger:    zerolog.Nop(),
		Techs:     NewTechSet(TechJava),
		Threshold: ThresholdMedium,
	})
	if alerts := eng.InspectResponse(newTx(t)); len(alerts) != 0 {
		t.Errorf("php rule must be skipped for a java-only target, got %d alerts", len(alerts))
	}

	// An unfingerprinted target runs everything.
	eng = NewEngine(EngineConfig{Registry: reg, Logger: zerolog.Nop(), Threshold: ThresholdMedium})
	if alerts := eng.InspectResponse(newTx(t)); len(alerts) != 1 {
		t.Errorf("expected 1 alert with no declared technologies, got %d", len(alerts))
	}
}

func TestEngineActiveRuleErrorYieldsNoAlerts(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterActive(&stubActive{
		meta:    alert.Metadata{ID: 1},
		applies: true,
		scan: func(context.Context, *httpmsg.Transaction, Sender) ([]alert.Alert, error) {
			return nil, errors.New("connect refused")
		},
	})
	reg.RegisterActive(&stubActive{
		meta:    alert.Metadata{ID: 2},
		applies: true,
		scan: func(context.Context, *httpmsg.Transaction, Sender) ([]alert.Alert, error) {
			return oneAlert(2), nil
		},
	})

	eng := NewEngine(EngineConfig{Registry: reg, Logger: zerolog.Nop(), Threshold: ThresholdMedium})

	alerts := eng.ScanActive(context.Background(), newTx(t), nil)
	if len(alerts) != 1 || alerts[0].RuleID != 2 {
		t.Fatalf("expected only the healthy rule's alert, got %+v", alerts)
	}
}

func TestEngineActiveRuleSkippedWhenNotApplicable(t *testing.T) {
	reg := NewRegistry()
	ran := false
	reg.RegisterActive(&stubActive{
		meta:    alert.Metadata{ID: 1},
		applies: false,
		scan: func(context.Context, *httpmsg.Transaction, Sender) ([]alert.Alert, error) {
			ran = true
			return nil, nil
		},
	})

	eng := NewEngine(EngineConfig{Registry: reg, Logger: zerolog.Nop(), Threshold: ThresholdMedium})
	eng.ScanActive(context.Background(), newTx(t), nil)
	if ran {
		t.Error("inapplicable rule must not run")
	}
}

func TestEngineActiveScanStopsOnCancelledContext(t *testing.T) {
	reg := NewRegistry()
	ran := false
	reg.RegisterActive(&stubActive{
		meta:    alert.Metadata{ID: 1},
		applies: true,
		scan: func(context.Context, *httpmsg.Transaction, Sender) ([]alert.Alert, error) {
			ran = true
			return nil, nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := NewEngine(EngineConfig{Registry: reg, Logger: zerolog.Nop(), Threshold: ThresholdMedium})
	if alerts := eng.ScanActive(ctx, newTx(t), nil); len(alerts) != 0 {
		t.Errorf("cancelled scan produced alerts: %+v", alerts)
	}
	if ran {
		t.Error("no rule should run after cancellation")
	}
}

func TestRegistryReplacesKeepsOrder(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterPassive(&stubPassive{meta: alert.Metadata{ID: 1}})
	reg.RegisterPassive(&stubPassive{meta: alert.Metadata{ID: 2}})
	replacement := &stubPassive{meta: alert.Metadata{ID: 1, Name: "v2"}}
	reg.RegisterPassive(replacement)

	passive := reg.Passive()
	if len(passive) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(passive))
	}
	if passive[0].Meta().Name != "v2" {
		t.Error("replacement must keep original position")
	}
	if reg.Count() != 2 {
		t.Errorf("Count() = %d, want 2", reg.Count())
	}
	if reg.PassiveByID(2) == nil || reg.PassiveByID(99) != nil {
		t.Error("PassiveByID lookup wrong")
	}
}
