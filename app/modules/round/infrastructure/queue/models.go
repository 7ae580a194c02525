package roundqueue

// ExpireRoundJob abandons a round that is still active when it runs.
type ExpireRoundJob struct {
	RoundID string `json:"round_id"`
}

// Kind returns the job type identifier for River
func (ExpireRoundJob) Kind() string { return KindExpireRound }

// KindExpireRound is the River kind of ExpireRoundJob.
const KindExpireRound = "round_expire"

// QueueRound is the dedicated River queue for round jobs.
const QueueRound = "round"

// JobInfo represents information about a scheduled job (for debugging/monitoring)
type JobInfo struct {
	ID          int64  `json:"id"`
	Kind        string `json:"kind"`
	RoundID     string `json:"round_id"`
	State       string `json:"state"`
	ScheduledAt string `json:"scheduled_at"`
	CreatedAt   string `json:"created_at"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
}
