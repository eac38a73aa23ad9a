package models

// PositionRequest is the body of both /api/move and /api/analyze.
type PositionRequest struct {
	FEN string `json:"fen" binding:"required"`
}

type MoveResponse struct {
	BestMove *string `json:"best_move"`
}

type AnalysisResponse = Analysis

type ErrorResponse struct {
	Detail string `json:"detail"`
}
