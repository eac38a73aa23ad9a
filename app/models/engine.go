package models

type UCIScore struct {
	// Exactly one of these will be set:
	CP   *int   `json:"cp,omitempty"`   // centipawns, positive means advantage for side to move
	Mate *int   `json:"mate,omitempty"` // in N, sign indicates who is mating (+ means side to move mates)
	Best string `json:"bestmove"`       // engine best move in UCI, e.g. "e2e4"
}

// EngineSettings drives how we query a UCI engine for a position.
type EngineSettings struct {
	Depth      int  `json:"depth"`
	MoveTimeMS int  `json:"move_time_ms"`
	UseDepth   bool `json:"use_depth"` // if false, use movetime
}

const (
	EvalCentipawns = "cp"
	EvalMate       = "mate"
)

// Evaluation is always from white's point of view.
type Evaluation struct {
	Type  string `json:"type"`
	Value int    `json:"value"`
}

type TopMove struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Notation string `json:"notation"`
}

type Analysis struct {
	Evaluation Evaluation `json:"evaluation"`
	BestMove   *string    `json:"best_move"`
	TopMoves   []TopMove  `json:"top_moves"`
}

// NewAnalysis packages an evaluation and a best move in UCI notation. An
// empty move means there was none and yields no top moves.
func NewAnalysis(eval Evaluation, best string) Analysis {
	a := Analysis{Evaluation: eval, BestMove: MovePtr(best), TopMoves: []TopMove{}}
	if len(best) >= 4 {
		a.TopMoves = append(a.TopMoves, TopMove{
			From:     best[:2],
			To:       best[2:4],
			Notation: best,
		})
	}
	return a
}

// MovePtr maps the empty no-move value to nil so it serializes as null.
func MovePtr(move string) *string {
	if move == "" {
		return nil
	}
	return &move
}
