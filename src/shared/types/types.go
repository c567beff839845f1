package types

import "time"

// Per-guild review configuration. Created on first interaction with a
// guild and mutated only through typed config updates.
type GroupConfig struct {
	GuildID          string `gorm:"primaryKey;size:64"`
	Emoji            string `gorm:"size:16;not null;default:'📜'"`
	AdminEmoji       string `gorm:"size:16;not null;default:'🔑'"`
	CheckEmoji       bool   `gorm:"default:true"`
	VotesToApprove   int    `gorm:"default:10"`
	AutoApprove      bool   `gorm:"default:true"`
	ShowWhoVotes     bool   `gorm:"default:true"`
	ShowApprovedMess bool   `gorm:"default:true"`
	Admins           string `gorm:"size:1024"` // comma separated @handles
	BindQuestID      string `gorm:"size:64"`
	LastCheck        time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Moderator subscribed to admin-only claims for a guild.
type ModeratorSub struct {
	GuildID  string `gorm:"primaryKey;size:64"`
	UserID   string `gorm:"primaryKey;size:64"`
	Username string `gorm:"size:64"`
}

// Link between a quest community and a guild. The request token is a
// one-time correlation id handed to the operator during !qinit; the
// API key arrives later via !qbind.
type CommunityBinding struct {
	Community     string `gorm:"primaryKey;size:64"`
	GuildID       string `gorm:"size:64;not null"`
	ChannelID     string `gorm:"size:64;not null"`
	RequestToken  string `gorm:"size:64"`
	APIKey        string `gorm:"size:256"`
	InitiatorID   string `gorm:"size:64"`
	InitiatorName string `gorm:"size:64"`
	CreatedAt     time.Time
}

// One pending claim under review. A row exists exactly while the claim
// is unresolved; resolution deletes it.
type LedgerEntry struct {
	ClaimID       string `gorm:"primaryKey;size:64"`
	GuildID       string `gorm:"index;size:64;not null"`
	Community     string `gorm:"size:64;not null"`
	Route         int8   `gorm:"not null"`
	ClaimName     string `gorm:"size:255"`
	SubmitterID   string `gorm:"size:64"`
	SubmitterName string `gorm:"size:64"`
	ChannelID     string `gorm:"size:64"`
	MessageID     string `gorm:"size:64"`
	CreatedAt     time.Time
}

// A single voter's current vote on a claim. A voter has at most one
// row per claim; toggling flips or deletes it.
type LedgerVote struct {
	ClaimID   string `gorm:"primaryKey;size:64"`
	VoterID   string `gorm:"primaryKey;size:64"`
	VoterName string `gorm:"size:64"`
	Like      bool   `gorm:"not null"`
	CreatedAt time.Time
}

// Copy of a moderator-routed claim message, one per moderator DM, kept
// so every copy can be finalized when one moderator decides.
type ModeratorCopy struct {
	ClaimID   string `gorm:"primaryKey;size:64"`
	UserID    string `gorm:"primaryKey;size:64"`
	ChannelID string `gorm:"size:64;not null"`
	MessageID string `gorm:"size:64;not null"`
}

// Settings
type Setting struct {
	ID    uint8  `gorm:"primaryKey"`
	Name  string `gorm:"size:32;not null"`
	Value string `gorm:"size:256;not null"`
}
