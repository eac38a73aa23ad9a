package models

// JobRequest is the body of POST /api/jobs. Either FENs or PGN is required.
type JobRequest struct {
	FENs []string `json:"fens"`
	PGN  string   `json:"pgn"`
}

// JobMessage is what travels over the queue.
type JobMessage struct {
	JobID string   `json:"job_id"`
	FENs  []string `json:"fens,omitempty"`
	PGN   string   `json:"pgn,omitempty"`
}

type JobResponse struct {
	JobID     string `json:"job_id"`
	Positions int    `json:"positions"`
}

const (
	JobQueued    = "queued"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// JobStatus summarizes a batch analysis job.
type JobStatus struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Positions int    `json:"positions"`
	Analyzed  int    `json:"analyzed"`
}
