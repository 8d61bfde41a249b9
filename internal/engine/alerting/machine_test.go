package alerting

import (
	"testing"
	"time"

	"RSIPulse/internal/domain/models"
)

var machinePair = models.Pair{Symbol: "BTC-USD", Timeframe: models.TF1h}

func rule() models.AlertRule {
	return models.AlertRule{Overbought: 70, Oversold: 30, Hysteresis: 2, Debounce: 0}
}

func pt(ts int, v float64) *models.RSIPoint {
	return &models.RSIPoint{Timestamp: time.Unix(int64(ts)*3600, 0), Value: v}
}

func TestClassify(t *testing.T) {
	r := rule()
	cases := []struct {
		value float64
		want  models.Zone
	}{
		{75, models.ZoneOverbought},
		{70, models.ZoneOverbought},
		{69.9, models.ZoneNeutral},
		{50, models.ZoneNeutral},
		{30.1, models.ZoneNeutral},
		{30, models.ZoneOversold},
		{12, models.ZoneOversold},
	}
	for _, tc := range cases {
		if got := Classify(r, tc.value); got != tc.want {
			t.Fatalf("classify(%v) = %s, want %s", tc.value, got, tc.want)
		}
	}
}

func TestFirstPointSetsBaselineWithoutEvent(t *testing.T) {
	state := &models.AlertState{}
	if ev := Transition(rule(), state, machinePair, pt(0, 82)); ev != nil {
		t.Fatalf("baseline point must not emit, got %+v", ev)
	}
	if state.Zone != models.ZoneOverbought || !state.Primed {
		t.Fatalf("baseline not established: %+v", state)
	}
	if !state.LastTransition.IsZero() {
		t.Fatalf("baseline must not count as a transition")
	}
}

func TestHysteresisHoldsUntilMarginCleared(t *testing.T) {
	state := &models.AlertState{}
	r := rule()

	// 65 primes neutral, 71 enters overbought, 69 is inside the margin,
	// 68 clears it and exits.
	Transition(r, state, machinePair, pt(0, 65))

	ev := Transition(r, state, machinePair, pt(1, 71))
	if ev == nil || ev.From != models.ZoneNeutral || ev.To != models.ZoneOverbought {
		t.Fatalf("expected neutral->overbought, got %+v", ev)
	}
	if ev.RSI != 71 {
		t.Fatalf("event should carry the triggering value, got %v", ev.RSI)
	}

	if ev := Transition(r, state, machinePair, pt(2, 69)); ev != nil {
		t.Fatalf("69 is within hysteresis margin, got %+v", ev)
	}
	if state.Zone != models.ZoneOverbought {
		t.Fatalf("zone must hold inside the margin, got %s", state.Zone)
	}

	ev = Transition(r, state, machinePair, pt(3, 68))
	if ev == nil || ev.From != models.ZoneOverbought || ev.To != models.ZoneNeutral {
		t.Fatalf("68 clears the margin, expected overbought->neutral, got %+v", ev)
	}
}

func TestOversoldSymmetric(t *testing.T) {
	state := &models.AlertState{}
	r := rule()
	Transition(r, state, machinePair, pt(0, 45))

	ev := Transition(r, state, machinePair, pt(1, 28))
	if ev == nil || ev.To != models.ZoneOversold {
		t.Fatalf("expected entry into oversold, got %+v", ev)
	}
	if ev := Transition(r, state, machinePair, pt(2, 31)); ev != nil {
		t.Fatalf("31 is within the exit margin, got %+v", ev)
	}
	ev = Transition(r, state, machinePair, pt(3, 32))
	if ev == nil || ev.From != models.ZoneOversold || ev.To != models.ZoneNeutral {
		t.Fatalf("32 clears the margin, got %+v", ev)
	}
}

func TestDirectExtremeToExtremeCross(t *testing.T) {
	state := &models.AlertState{}
	r := rule()
	Transition(r, state, machinePair, pt(0, 75))

	ev := Transition(r, state, machinePair, pt(1, 20))
	if ev == nil || ev.From != models.ZoneOverbought || ev.To != models.ZoneOversold {
		t.Fatalf("expected overbought->oversold, got %+v", ev)
	}
}

func TestDebounceSuppressesAndHoldsState(t *testing.T) {
	state := &models.AlertState{}
	r := rule()
	r.Debounce = 2 * time.Hour
	Transition(r, state, machinePair, pt(0, 50))

	if ev := Transition(r, state, machinePair, pt(1, 75)); ev == nil {
		t.Fatalf("first transition must fire regardless of debounce")
	}

	// One bar later the exit is suppressed and the zone does not move.
	if ev := Transition(r, state, machinePair, pt(2, 60)); ev != nil {
		t.Fatalf("transition within debounce window must be suppressed, got %+v", ev)
	}
	if state.Zone != models.ZoneOverbought {
		t.Fatalf("suppressed transition must leave state unchanged, got %s", state.Zone)
	}

	// Past the window the exit goes through.
	ev := Transition(r, state, machinePair, pt(4, 60))
	if ev == nil || ev.To != models.ZoneNeutral {
		t.Fatalf("expected exit after debounce window, got %+v", ev)
	}
}

func TestRuleSwapTakesEffectNextPoint(t *testing.T) {
	state := &models.AlertState{}
	r := rule()
	Transition(r, state, machinePair, pt(0, 50))

	if ev := Transition(r, state, machinePair, pt(1, 66)); ev != nil {
		t.Fatalf("66 is neutral under the default rule, got %+v", ev)
	}

	tighter := r
	tighter.Overbought = 65
	ev := Transition(tighter, state, machinePair, pt(2, 66))
	if ev == nil || ev.To != models.ZoneOverbought {
		t.Fatalf("tightened rule should classify 66 as overbought, got %+v", ev)
	}
}
