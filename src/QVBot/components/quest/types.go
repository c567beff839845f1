package quest

import "time"

// SubmissionKind is the closed set of submission payload shapes the
// review flow understands. Anything the platform adds later lands on
// KindUnsupported instead of failing ingestion.
type SubmissionKind int8

const (
	KindNone SubmissionKind = iota
	KindURL
	KindText
	KindImage
	KindUnsupported
)

func (k SubmissionKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindURL:
		return "url"
	case KindText:
		return "text"
	case KindImage:
		return "image"
	case KindUnsupported:
		return "unsupported"
	}
	return "unknown"
}

type Submission struct {
	Kind  SubmissionKind
	Value string
}

// ClaimRecord is the normalized form of a pending claim. Immutable
// after creation.
type ClaimRecord struct {
	Community     string
	ID            string
	QuestID       string
	Name          string
	SubmitterID   string
	SubmitterName string
	Points        int
	Submission    Submission
	UpdatedAt     time.Time
}

// UserRef identifies a platform user resolved from a chat handle.
type UserRef struct {
	ID   string
	Name string
}

type ReviewStatus string

const (
	ReviewSuccess ReviewStatus = "success"
	ReviewFail    ReviewStatus = "fail"
)

// Wire shapes of the claimed-quests API.
type rawClaim struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	QuestID    string        `json:"questId"`
	UpdatedAt  time.Time     `json:"updatedAt"`
	User       rawUser       `json:"user"`
	Reward     []rawReward   `json:"reward"`
	Submission rawSubmission `json:"submission"`
	Status     string        `json:"status"`
}

type rawUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type rawReward struct {
	Type  string `json:"type"`
	Value int    `json:"value"`
}

type rawSubmission struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type claimsPage struct {
	Data []rawClaim `json:"data"`
}
