package server

import (
	"encoding/json"
	"testing"

	"github.com/gridspell/gridspell-server/internal/game"
)

func TestResultDataSelectsPayload(t *testing.T) {
	patch := &game.StatePatch{}
	input := &game.InputRequest{Kind: game.InputMapSelection}
	over := &game.GameOverInfo{Winner: "p1"}

	cases := []struct {
		res  game.Result
		want any
	}{
		{game.Result{Kind: game.ResultStatePatch, Patch: patch}, any(patch)},
		{game.Result{Kind: game.ResultRequestInput, Input: input}, any(input)},
		{game.Result{Kind: game.ResultGameOver, GameOver: over}, any(over)},
		{game.Result{Kind: "mystery"}, nil},
	}
	for _, tc := range cases {
		if got := resultData(tc.res); got != tc.want {
			t.Errorf("resultData(%s) = %v, want %v", tc.res.Kind, got, tc.want)
		}
	}
}

func TestClientMessageEnvelope(t *testing.T) {
	raw := []byte(`{"type":"action","data":{"type":"cast","instanceId":"i-1"}}`)
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != "action" {
		t.Errorf("type = %s", msg.Type)
	}
	var action game.Action
	if err := json.Unmarshal(msg.Data, &action); err != nil {
		t.Fatalf("unmarshal action: %v", err)
	}
	if action.Type != game.ActionCast || action.InstanceID != "i-1" {
		t.Errorf("action = %+v", action)
	}
}
