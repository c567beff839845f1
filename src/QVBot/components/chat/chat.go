// Package chat is the narrow surface the review core needs from the
// chat platform. The Discord implementation lives in the discord
// component; the core only ever sees these types.
package chat

import (
	"fmt"
	"strings"

	"github.com/stake-plus/questcomms/src/QVBot/components/quest"
)

// ClaimView is the display payload for a claim message. The messenger
// owns formatting and escaping.
type ClaimView struct {
	ClaimID       string
	Name          string
	SubmitterName string
	Points        int
	Submission    quest.Submission
}

type Counts struct {
	Likes    int
	Dislikes int
}

// Messenger sends and edits the interactive claim messages.
type Messenger interface {
	// SendVoteMessage posts a claim with a like/dislike control pair
	// and returns the message handle. moderator selects the admin vote
	// action set.
	SendVoteMessage(channelID string, view ClaimView, moderator bool) (messageID string, err error)

	// UpdateVoteCounts refreshes the live counts on the control pair.
	UpdateVoteCounts(channelID, messageID, claimID string, counts Counts) error

	// FinalizeVoteMessage swaps the control pair for a terminal
	// accepted/denied control; no further voting is possible.
	FinalizeVoteMessage(channelID, messageID, claimID string, approved bool, counts Counts) error

	// FinalizeModeratorMessage marks a moderator copy with the final
	// outcome and the deciding moderator's name.
	FinalizeModeratorMessage(channelID, messageID, claimID string, approved bool, decidedBy string) error

	// Post sends a plain message to a channel.
	Post(channelID, text string) error

	// DirectChannel resolves a user id to a private channel id.
	DirectChannel(userID string) (string, error)
}

// VoteAction enumerates the callback actions a claim message control
// can deliver.
type VoteAction int8

const (
	ActionLike VoteAction = iota + 1
	ActionDislike
	ActionModeratorApprove
	ActionModeratorDeny
)

var actionNames = map[VoteAction]string{
	ActionLike:             "vote_like",
	ActionDislike:          "vote_dislike",
	ActionModeratorApprove: "admin_vote_like",
	ActionModeratorDeny:    "admin_vote_deny",
}

// CustomID encodes an action and claim id into a component custom id.
func CustomID(action VoteAction, claimID string) string {
	return fmt.Sprintf("%s:%s", actionNames[action], claimID)
}

// ParseCustomID decodes a component custom id back into action and
// claim id. ok is false for custom ids that are not vote actions
// (e.g. the terminal controls).
func ParseCustomID(customID string) (VoteAction, string, bool) {
	idx := strings.LastIndex(customID, ":")
	if idx < 0 {
		return 0, "", false
	}
	name, claimID := customID[:idx], customID[idx+1:]
	if claimID == "" {
		return 0, "", false
	}
	for action, n := range actionNames {
		if n == name {
			return action, claimID, true
		}
	}
	return 0, "", false
}
