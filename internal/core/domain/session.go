package domain

import "time"

type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
)

// Turn is one question/answer exchange. Turns are appended to the
// transcript and never edited.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Session is one interrogation run. It is mutated exactly once per turn and
// becomes immutable once terminated with a conclusion.
type Session struct {
	ID               string        `json:"id"`
	UserQuery        string        `json:"user_query"`
	UserContext      string        `json:"user_context,omitempty"`
	UserInstructions string        `json:"user_instructions,omitempty"`
	TurnBudget       int           `json:"turn_budget"`
	TurnsUsed        int           `json:"turns_used"`
	Transcript       []Turn        `json:"transcript"`
	Report           string        `json:"report,omitempty"`
	Conclusion       string        `json:"conclusion,omitempty"`
	Interrogation    string        `json:"interrogation,omitempty"`
	Status           SessionStatus `json:"status"`
	Error            string        `json:"error,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// InterrogationRequest starts a session.
type InterrogationRequest struct {
	UserQuery        string `json:"user_query"`
	UserContext      string `json:"user_context,omitempty"`
	UserInstructions string `json:"user_instructions,omitempty"`
	TurnBudget       int    `json:"turn_budget,omitempty"`
}

// InterrogationResult is what callers receive once a session terminates.
type InterrogationResult struct {
	SessionID  string `json:"session_id"`
	Report     string `json:"report"`
	Conclusion string `json:"conclusion"`
	Transcript string `json:"transcript"`
	TurnsUsed  int    `json:"turns_used"`
}
