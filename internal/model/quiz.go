package model

import "time"

// Kind is the question category governing the required answer shape.
type Kind string

const (
	KindSingle     Kind = "single"
	KindMultiple   Kind = "multiple"
	KindJudgement  Kind = "judgement"
	KindCompletion Kind = "completion"
	KindUnknown    Kind = ""
)

// ParseKind normalizes a raw type string from a request into a Kind.
// Unrecognized values map to KindUnknown, which accepts any non-empty answer.
func ParseKind(s string) Kind {
	switch Kind(s) {
	case KindSingle, KindMultiple, KindJudgement, KindCompletion:
		return Kind(s)
	default:
		return KindUnknown
	}
}

// IsChoice reports whether the kind presents lettered options. Choice kinds
// include their option block in the search query during escalation.
func (k Kind) IsChoice() bool {
	return k == KindSingle || k == KindMultiple
}

// Question is a single incoming question. It is immutable once received and
// lives only for the duration of one request.
type Question struct {
	Title   string `json:"title"`
	Options string `json:"options,omitempty"`
	Kind    Kind   `json:"type,omitempty"`
}

// Attempt records one model interaction for observability. Attempts are
// ephemeral and never persisted.
type Attempt struct {
	Stage    string        `json:"stage"`
	Prompt   string        `json:"prompt,omitempty"`
	Response string        `json:"response"`
	Valid    bool          `json:"valid"`
	Elapsed  time.Duration `json:"elapsed"`
	Err      string        `json:"err,omitempty"`
}

// CacheEntry is a validated answer stored in the answer cache. Entries are
// overwritten last-write-wins, never merged.
type CacheEntry struct {
	Key       string    `json:"key"`
	Title     string    `json:"title"`
	Options   string    `json:"options,omitempty"`
	Kind      Kind      `json:"type,omitempty"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
