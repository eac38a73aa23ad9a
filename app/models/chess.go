package models

const (
	JudgementSuboptimal = "suboptimal"
	JudgementInaccuracy = "inaccuracy"
	JudgementMistake    = "mistake"
	JudgementBlunder    = "blunder"
)

// PositionReport is one line of batch output.
type PositionReport struct {
	Index      int       `json:"index"`
	MoveNumber int       `json:"move_number"` // fullmove number from FEN
	SideToMove string    `json:"side_to_move"`
	FEN        string    `json:"fen"`
	Played     string    `json:"played,omitempty"` // move played from this position, when read from a game
	Engine     string    `json:"engine"`
	Analysis   *Analysis `json:"analysis,omitempty"`
	Error      string    `json:"error,omitempty"`
	TookMS     int64     `json:"took_ms"`

	// set only for positions read from a game, once the next position is analyzed too
	CPLoss    int    `json:"cp_loss,omitempty"`
	Judgement string `json:"judgement,omitempty"`
}
