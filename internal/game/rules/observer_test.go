package rules

import "testing"

func TestObserverCollectFiltersByTrigger(t *testing.T) {
	or := NewObserverRegistry()
	or.Register(Registration{Owner: "p1", CardID: "totem", SourceID: "r1", Trigger: TriggerOnTurnEnd})
	or.Register(Registration{Owner: "p1", CardID: "obelisk", SourceID: "r2", Trigger: TriggerOnTurnStart})

	out := or.Collect(TriggerOnTurnEnd, nil)
	if len(out) != 1 {
		t.Fatalf("collected %d wrappers, want 1", len(out))
	}
	w := out[0]
	if w.Kind != EffectTriggered || w.CardID != "totem" || w.SourceID != "r1" || w.Trigger != TriggerOnTurnEnd {
		t.Errorf("unexpected wrapper %+v", w)
	}
}

func TestObserverConditionGate(t *testing.T) {
	or := NewObserverRegistry()
	or.Register(Registration{
		Owner: "p1", CardID: "totem", SourceID: "r1", Trigger: TriggerOnTurnEnd,
		Condition: func(ctx map[string]string) bool { return ctx["player"] == "p1" },
	})

	if got := or.Collect(TriggerOnTurnEnd, map[string]string{"player": "p2"}); len(got) != 0 {
		t.Fatalf("condition should gate out the registration, got %d", len(got))
	}
	if got := or.Collect(TriggerOnTurnEnd, map[string]string{"player": "p1"}); len(got) != 1 {
		t.Fatalf("condition should match, got %d", len(got))
	}
}

func TestObserverUnregisterBySource(t *testing.T) {
	or := NewObserverRegistry()
	// Two rituals sharing a card id register independently.
	or.Register(Registration{Owner: "p1", CardID: "totem", SourceID: "r1", Trigger: TriggerOnTurnEnd})
	or.Register(Registration{Owner: "p1", CardID: "totem", SourceID: "r2", Trigger: TriggerOnTurnEnd})

	or.UnregisterBySource("r1")

	out := or.Collect(TriggerOnTurnEnd, nil)
	if len(out) != 1 {
		t.Fatalf("collected %d wrappers, want 1", len(out))
	}
	if out[0].SourceID != "r2" {
		t.Errorf("surviving registration belongs to %s, want r2", out[0].SourceID)
	}
}

func TestObserverUnregisterByCard(t *testing.T) {
	or := NewObserverRegistry()
	or.Register(Registration{Owner: "p1", CardID: "totem", SourceID: "r1", Trigger: TriggerOnTurnEnd})
	or.Register(Registration{Owner: "p1", CardID: "totem", SourceID: "r2", Trigger: TriggerOnDestroy})
	or.Register(Registration{Owner: "p2", CardID: "obelisk", SourceID: "r3", Trigger: TriggerOnTurnStart})

	or.UnregisterByCard("totem")
	if or.Len() != 1 {
		t.Fatalf("registry holds %d entries, want 1", or.Len())
	}
}

func TestTargetInvert(t *testing.T) {
	cases := []struct {
		in, want Target
	}{
		{TargetSelf, TargetEnemy},
		{TargetEnemy, TargetSelf},
		{TargetNearEnemy, TargetNearEnemy},
	}
	for _, tc := range cases {
		if got := tc.in.Invert(); got != tc.want {
			t.Errorf("%s.Invert() = %s, want %s", tc.in, got, tc.want)
		}
	}
}
