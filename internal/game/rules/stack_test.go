package rules

import "testing"

func TestStackLIFO(t *testing.T) {
	es := NewEffectStack()
	es.Push(Effect{Kind: EffectDamage})
	es.Push(Effect{Kind: EffectHeal})

	eff, ok := es.Pop()
	if !ok || eff.Kind != EffectHeal {
		t.Fatalf("expected heal on top, got %v ok=%v", eff.Kind, ok)
	}
	eff, ok = es.Pop()
	if !ok || eff.Kind != EffectDamage {
		t.Fatalf("expected damage next, got %v ok=%v", eff.Kind, ok)
	}
	if _, ok := es.Pop(); ok {
		t.Fatal("pop on empty stack should report empty")
	}
}

func TestStackPushBatchPreservesOrder(t *testing.T) {
	es := NewEffectStack()
	es.PushBatch([]Effect{
		{Kind: EffectManaPay},
		{Kind: EffectCastExecute},
		{Kind: EffectFlushResolve},
	})

	want := []EffectKind{EffectManaPay, EffectCastExecute, EffectFlushResolve}
	for i, kind := range want {
		eff, ok := es.Pop()
		if !ok {
			t.Fatalf("stack exhausted at %d", i)
		}
		if eff.Kind != kind {
			t.Errorf("pop %d: got %v, want %v", i, eff.Kind, kind)
		}
	}
}

func TestStackBatchAboveExisting(t *testing.T) {
	es := NewEffectStack()
	es.Push(Effect{Kind: EffectTurnEnd})
	es.PushBatch([]Effect{{Kind: EffectDamage}, {Kind: EffectHeal}})

	// The batch resolves in order, ahead of anything already queued.
	order := []EffectKind{EffectDamage, EffectHeal, EffectTurnEnd}
	for i, kind := range order {
		eff, _ := es.Pop()
		if eff.Kind != kind {
			t.Errorf("pop %d: got %v, want %v", i, eff.Kind, kind)
		}
	}
}

func TestStackClear(t *testing.T) {
	es := NewEffectStack()
	es.PushBatch([]Effect{{Kind: EffectDamage}, {Kind: EffectHeal}})
	if es.Len() != 2 {
		t.Fatalf("len = %d, want 2", es.Len())
	}
	es.Clear()
	if !es.IsEmpty() {
		t.Fatal("stack should be empty after clear")
	}
}
