package battle

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Phase is the battle state machine's coarse state.
type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseResolving Phase = "resolving"
	PhaseFinished  Phase = "finished"
)

// StateVersion tags the serialized BattleState schema.
const StateVersion = 1

var (
	// ErrBattleFinished rejects turn resolution against a terminal battle.
	ErrBattleFinished = errors.New("battle already finished")
	// ErrStateVersion rejects a serialized state this build cannot resume.
	ErrStateVersion = errors.New("unsupported battle state version")
)

// EventKind enumerates the typed entries of a TurnLog.
type EventKind string

const (
	EventDamage     EventKind = "damage"
	EventSelfHit    EventKind = "self_hit"
	EventMiss       EventKind = "miss"
	EventSkip       EventKind = "skip"
	EventStatus     EventKind = "status"
	EventStatusEnd  EventKind = "status_end"
	EventStatusTick EventKind = "status_tick"
	EventStage      EventKind = "stage"
	EventHeal       EventKind = "heal"
	EventEndure     EventKind = "endure"
	EventFaint      EventKind = "faint"
	EventTimeout    EventKind = "timeout"
	EventForfeit    EventKind = "forfeit"
	EventBattleEnd  EventKind = "battle_end"
)

// TurnEvent is one typed entry in a TurnLog. Side refers to the combatant the
// event happened to (0 or 1).
type TurnEvent struct {
	Kind          EventKind `json:"kind"`
	Side          int       `json:"side"`
	MoveID        string    `json:"move_id,omitempty"`
	Damage        int       `json:"damage,omitempty"`
	Critical      bool      `json:"critical,omitempty"`
	Effectiveness float64   `json:"effectiveness,omitempty"`
	Status        Status    `json:"status,omitempty"`
	Stat          StatKind  `json:"stat,omitempty"`
	Delta         int       `json:"delta,omitempty"`
	Message       string    `json:"message,omitempty"`
}

// TurnLog is the immutable record of one resolved turn. Created once,
// appended to BattleState.Logs, never mutated afterwards.
type TurnLog struct {
	Turn    int         `json:"turn"`
	MoveIDs [2]string   `json:"move_ids"` // "" when that side skipped
	Events  []TurnEvent `json:"events"`
	HPAfter [2]int      `json:"hp_after"`
}

// MatchupCache holds the effectiveness multipliers precomputed at battle
// creation so turn resolution never touches the global table.
type MatchupCache struct {
	// Offensive[side][moveType] is the multiplier for side attacking its
	// opponent with a move of that type.
	Offensive [2][NumTypes]float64 `json:"offensive"`
	// Defensive[side][incomingType] is the multiplier applied to damage that
	// side takes from a move of that type.
	Defensive [2][NumTypes]float64 `json:"defensive"`
}

func buildMatchupCache(a, b *CombatantSnapshot) MatchupCache {
	var mc MatchupCache
	types := [2]ElementType{a.Type, b.Type}
	for side := 0; side < 2; side++ {
		opp := types[1-side]
		own := types[side]
		for t := 0; t < NumTypes; t++ {
			mc.Offensive[side][t] = BaseEffectiveness(ElementType(t), opp)
			mc.Defensive[side][t] = BaseEffectiveness(ElementType(t), own)
		}
	}
	return mc
}

// BattleState owns both snapshots exclusively. Invariant: once Phase is
// finished, WinnerID is set (or Draw is true) and no further turns append.
type BattleState struct {
	Version  int                   `json:"version"`
	BattleID string                `json:"battle_id"`
	Turn     int                   `json:"turn"`
	Phase    Phase                 `json:"phase"`
	WinnerID int64                 `json:"winner_id,omitempty"` // 0 until finished
	Draw     bool                  `json:"draw,omitempty"`
	Sides    [2]*CombatantSnapshot `json:"sides"`
	Matchups MatchupCache          `json:"matchups"`
	Logs     []TurnLog             `json:"logs"`
	// Timeouts counts consecutive missed action deadlines per side; reset on
	// an on-time submission.
	Timeouts [2]int `json:"timeouts"`
}

// NewBattleState builds a fresh battle from two records. Both snapshots are
// rebuilt from scratch; nothing is shared with any other battle.
func NewBattleState(battleID string, recA, recB CombatantRecord) *BattleState {
	a := BuildSnapshot(recA)
	b := BuildSnapshot(recB)
	return &BattleState{
		Version:  StateVersion,
		BattleID: battleID,
		Phase:    PhaseWaiting,
		Sides:    [2]*CombatantSnapshot{a, b},
		Matchups: buildMatchupCache(a, b),
		Logs:     []TurnLog{},
	}
}

// SideOf returns the side index for a combatant id, or -1.
func (st *BattleState) SideOf(combatantID int64) int {
	for i, s := range st.Sides {
		if s != nil && s.ID == combatantID {
			return i
		}
	}
	return -1
}

// Finished reports whether the battle reached a terminal state.
func (st *BattleState) Finished() bool {
	return st.Phase == PhaseFinished
}

// finish records the terminal condition. winnerSide -1 marks a draw.
func (st *BattleState) finish(winnerSide int) {
	st.Phase = PhaseFinished
	if winnerSide < 0 {
		st.Draw = true
		return
	}
	st.WinnerID = st.Sides[winnerSide].ID
}

// LoserID returns the non-winning combatant id, 0 for draws or live battles.
func (st *BattleState) LoserID() int64 {
	if !st.Finished() || st.Draw || st.WinnerID == 0 {
		return 0
	}
	for _, s := range st.Sides {
		if s.ID != st.WinnerID {
			return s.ID
		}
	}
	return 0
}

// Marshal serializes the state as a versioned JSON document.
func (st *BattleState) Marshal() ([]byte, error) {
	st.Version = StateVersion
	return json.Marshal(st)
}

// UnmarshalState restores a state for resumed resolution. Round-tripping is
// lossless: a freshly unmarshalled state resolves identically.
func UnmarshalState(data []byte) (*BattleState, error) {
	var st BattleState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("battle state: %w", err)
	}
	if st.Version != StateVersion {
		return nil, fmt.Errorf("%w: %d", ErrStateVersion, st.Version)
	}
	if st.Sides[0] == nil || st.Sides[1] == nil {
		return nil, errors.New("battle state: missing combatant snapshot")
	}
	return &st, nil
}
