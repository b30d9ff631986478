package session

// Status is the position of a session in the detection state machine.
type Status string

const (
	StatusIdle                  Status = "idle"
	StatusAwaitingChallengeScan Status = "awaiting_challenge_scan"
	StatusDetecting             Status = "detecting"
	StatusFetching              Status = "fetching"
	StatusVerified              Status = "verified"
	StatusFailed                Status = "failed"
)

// Terminal reports whether no further transition can happen.
func (s Status) Terminal() bool {
	return s == StatusVerified || s == StatusFailed
}

// Snapshot is a point-in-time copy of a session's observable state.
type Snapshot struct {
	SessionID     string `json:"sessionId"`
	WalletAddress string `json:"walletAddress"`
	Status        Status `json:"status"`
	AttemptCount  int    `json:"attemptCount"`
	LastError     string `json:"lastError,omitempty"`
	// DetectedBy names the signal that moved the session to Detecting.
	DetectedBy string `json:"detectedBy,omitempty"`
}
