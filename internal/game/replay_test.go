package game

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderSaveLoad(t *testing.T) {
	decks := map[string]DeckList{
		"p1": deckOf("vanilla", 10),
		"p2": deckOf("vanilla", 10),
	}
	rec := NewRecorder("match-1", 42, DefaultConfig(), []string{"p1", "p2"}, decks, nil)
	rec.Record(Command{Kind: CommandReady, Player: "p1"})
	rec.Record(Command{Kind: CommandMulligan, Player: "p1", Indices: []int{0, 2}})
	rec.Record(Command{Kind: CommandAction, Player: "p1", Action: &Action{Type: ActionEndTurn}})
	require.Equal(t, 3, rec.Size())

	dir := t.TempDir()
	require.NoError(t, rec.SaveToFile(dir))

	loaded, err := LoadRecord(dir, "match-1")
	require.NoError(t, err)
	assert.Equal(t, "match-1", loaded.MatchID)
	assert.Equal(t, int64(42), loaded.Seed)
	assert.Equal(t, []string{"p1", "p2"}, loaded.Seats)
	assert.Equal(t, DeckList{{CardID: "vanilla", Count: 10}}, loaded.Decks["p2"])
	assert.Equal(t, rec.Snapshot().Commands, loaded.Commands)
	assert.Equal(t, DefaultConfig(), loaded.Cfg)
}

func TestLoadRecordMissing(t *testing.T) {
	_, err := LoadRecord(t.TempDir(), "no-such-match")
	require.Error(t, err)
}

// A recorded match replayed from its seed and command log lands in the
// same state: same zones, same instance ids, same board.
func TestReplayReproducesMatch(t *testing.T) {
	decks := map[string]DeckList{
		"p1": deckOf("fire_bolt", 10),
		"p2": deckOf("surge", 10),
	}
	rec := NewRecorder("match-2", 7, DefaultConfig(), []string{"p1", "p2"}, decks, nil)
	s := NewSession("match-2", DefaultConfig(), testProvider(t), decks, nil,
		[]string{"p1", "p2"}, rand.New(rand.NewSource(7)), nil)
	s.AttachRecorder(rec)
	startMatch(t, s)

	ctx := context.Background()
	p1 := s.players["p1"]
	p2 := s.players["p2"]

	_, err := s.SubmitAction(ctx, "p1", Action{Type: ActionCast, InstanceID: p1.Hand[0].InstanceID})
	require.NoError(t, err)
	require.Equal(t, 8, p2.HP)
	_, err = s.SubmitAction(ctx, "p1", Action{Type: ActionEndTurn})
	require.NoError(t, err)

	_, err = s.SubmitAction(ctx, "p2", Action{Type: ActionCast, InstanceID: p2.Hand[0].InstanceID})
	require.NoError(t, err)
	_, err = s.SubmitAction(ctx, "p2", Action{Type: ActionEndTurn})
	require.NoError(t, err)

	_, err = s.SubmitAction(ctx, "p1", Action{Type: ActionCast, InstanceID: p1.Hand[0].InstanceID})
	require.NoError(t, err)
	require.Equal(t, 6, p2.HP)

	replayed, err := ReplayMatch(ctx, rec.Snapshot(), testProvider(t), nil)
	require.NoError(t, err)

	assert.Equal(t, s.turn, replayed.turn)
	assert.Equal(t, s.activePlayer, replayed.activePlayer)
	assert.Equal(t, s.phase, replayed.phase)
	assert.Equal(t, s.wizards, replayed.wizards)
	for _, pid := range []string{"p1", "p2"} {
		orig := s.players[pid]
		got := replayed.players[pid]
		assert.Equal(t, orig.HP, got.HP, pid)
		assert.Equal(t, orig.Mana, got.Mana, pid)
		assert.Equal(t, orig.MaxMana, got.MaxMana, pid)
		assert.Equal(t, instanceIDs(orig.Hand), instanceIDs(got.Hand), pid)
		assert.Equal(t, instanceIDs(orig.Deck), instanceIDs(got.Deck), pid)
		assert.Equal(t, instanceIDs(orig.Grave), instanceIDs(got.Grave), pid)
	}
}

// Rejected commands are part of the log and replay as rejections, leaving
// the replayed state identical to the live one.
func TestReplayCarriesRejectedCommands(t *testing.T) {
	decks := map[string]DeckList{
		"p1": deckOf("vanilla", 10),
		"p2": deckOf("vanilla", 10),
	}
	rec := NewRecorder("match-3", 11, DefaultConfig(), []string{"p1", "p2"}, decks, nil)
	s := NewSession("match-3", DefaultConfig(), testProvider(t), decks, nil,
		[]string{"p1", "p2"}, rand.New(rand.NewSource(11)), nil)
	s.AttachRecorder(rec)
	startMatch(t, s)

	ctx := context.Background()
	results, err := s.SubmitAction(ctx, "p2", Action{Type: ActionEndTurn})
	require.NoError(t, err)
	requireInvalid(t, results, ReasonNotYourTurn)
	_, err = s.SubmitAction(ctx, "p1", Action{Type: ActionEndTurn})
	require.NoError(t, err)

	replayed, err := ReplayMatch(ctx, rec.Snapshot(), testProvider(t), nil)
	require.NoError(t, err)
	assert.Equal(t, s.turn, replayed.turn)
	assert.Equal(t, s.activePlayer, replayed.activePlayer)
	assert.Equal(t, instanceIDs(s.players["p2"].Hand), instanceIDs(replayed.players["p2"].Hand))
}
