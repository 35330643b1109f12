package game

import (
	"compress/gzip"
	"context"
	"encoding/gob"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/gridspell/gridspell-server/internal/cards"
)

// CommandKind identifies one of the four client-originated session calls.
type CommandKind string

const (
	CommandReady    CommandKind = "ready"
	CommandMulligan CommandKind = "mulligan"
	CommandAction   CommandKind = "action"
	CommandInput    CommandKind = "input"
)

// Command is a single recorded session call. Only the field matching the
// kind is set; the others stay nil.
type Command struct {
	Kind    CommandKind
	Player  string
	Indices []int
	Action  *Action
	Answer  *InputAnswer
}

// MatchRecord holds everything needed to reproduce a match: the RNG seed,
// the seating order, the deck lists, and the full command log in submission
// order. Because the session draws all randomness from its seeded RNG and
// assigns sequential instance ids, feeding the same record through
// ReplayMatch rebuilds the same states.
type MatchRecord struct {
	MatchID   string
	Seed      int64
	Seats     []string
	Decks     map[string]DeckList
	Cata      DeckList
	Cfg       Config
	Commands  []Command
	StartedAt time.Time
	Version   int
}

const recordVersion = 1

// Recorder accumulates the command log for one match. The session calls
// Record under its own mutex, so the recorder needs no locking of its own.
type Recorder struct {
	rec MatchRecord
}

// NewRecorder starts a record for a match that is about to begin.
func NewRecorder(matchID string, seed int64, cfg Config, seats []string, decks map[string]DeckList, cata DeckList) *Recorder {
	seatsCopy := append([]string(nil), seats...)
	decksCopy := make(map[string]DeckList, len(decks))
	for pid, d := range decks {
		decksCopy[pid] = append(DeckList(nil), d...)
	}
	return &Recorder{
		rec: MatchRecord{
			MatchID:   matchID,
			Seed:      seed,
			Seats:     seatsCopy,
			Decks:     decksCopy,
			Cata:      append(DeckList(nil), cata...),
			Cfg:       cfg,
			StartedAt: time.Now(),
			Version:   recordVersion,
		},
	}
}

// Record appends one command to the log.
func (r *Recorder) Record(cmd Command) {
	r.rec.Commands = append(r.rec.Commands, cmd)
}

// Snapshot returns a copy of the record as accumulated so far.
func (r *Recorder) Snapshot() MatchRecord {
	out := r.rec
	out.Seats = append([]string(nil), r.rec.Seats...)
	out.Commands = append([]Command(nil), r.rec.Commands...)
	return out
}

// Size returns the number of recorded commands.
func (r *Recorder) Size() int {
	return len(r.rec.Commands)
}

// SaveToFile writes the record to <directory>/<matchID>.replay as
// gzipped gob.
func (r *Recorder) SaveToFile(directory string) error {
	return SaveRecord(directory, r.Snapshot())
}

// SaveRecord persists a match record to disk.
func SaveRecord(directory string, rec MatchRecord) error {
	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", rec.MatchID))
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	defer gz.Close()

	if err := gob.NewEncoder(gz).Encode(&rec); err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	return nil
}

// LoadRecord reads a match record previously written by SaveRecord.
func LoadRecord(directory, matchID string) (MatchRecord, error) {
	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", matchID))

	file, err := os.Open(filename)
	if err != nil {
		return MatchRecord{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return MatchRecord{}, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	var rec MatchRecord
	if err := gob.NewDecoder(gz).Decode(&rec); err != nil {
		return MatchRecord{}, fmt.Errorf("failed to decode record: %w", err)
	}
	if rec.Version != recordVersion {
		return MatchRecord{}, fmt.Errorf("unsupported record version: %d", rec.Version)
	}
	return rec, nil
}

// ReplayMatch rebuilds a session from a record and feeds the command log
// back through it. The card provider must resolve the same definitions the
// original match used. Per-command results are discarded; callers inspect
// the returned session's state.
func ReplayMatch(ctx context.Context, rec MatchRecord, provider cards.Provider, logger *zap.Logger) (*Session, error) {
	rng := rand.New(rand.NewSource(rec.Seed))
	s := NewSession(rec.MatchID, rec.Cfg, provider, rec.Decks, rec.Cata, rec.Seats, rng, logger)

	for i, cmd := range rec.Commands {
		var err error
		switch cmd.Kind {
		case CommandReady:
			_, err = s.MarkReady(ctx, cmd.Player)
		case CommandMulligan:
			_, err = s.SubmitMulligan(ctx, cmd.Player, cmd.Indices)
		case CommandAction:
			if cmd.Action == nil {
				return nil, fmt.Errorf("command %d: action kind with nil action", i)
			}
			_, err = s.SubmitAction(ctx, cmd.Player, *cmd.Action)
		case CommandInput:
			if cmd.Answer == nil {
				return nil, fmt.Errorf("command %d: input kind with nil answer", i)
			}
			_, err = s.SubmitInput(ctx, cmd.Player, *cmd.Answer)
		default:
			return nil, fmt.Errorf("command %d: unknown kind %q", i, cmd.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("command %d (%s by %s): %w", i, cmd.Kind, cmd.Player, err)
		}
	}
	return s, nil
}
