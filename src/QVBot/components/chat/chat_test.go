package chat

import "testing"

func TestCustomIDRoundTrip(t *testing.T) {
	actions := []VoteAction{ActionLike, ActionDislike, ActionModeratorApprove, ActionModeratorDeny}
	for _, action := range actions {
		id := CustomID(action, "claim-42")
		gotAction, claimID, ok := ParseCustomID(id)
		if !ok {
			t.Errorf("ParseCustomID(%q) not ok", id)
			continue
		}
		if gotAction != action || claimID != "claim-42" {
			t.Errorf("ParseCustomID(%q) = %v, %q", id, gotAction, claimID)
		}
	}
}

func TestParseCustomIDRejectsNonVoteIDs(t *testing.T) {
	for _, id := range []string{
		"",
		"vote_like",
		"vote_like:",
		"resolved:claim-42",
		"something_else:claim-42",
	} {
		if _, _, ok := ParseCustomID(id); ok {
			t.Errorf("ParseCustomID(%q) should reject", id)
		}
	}
}

func TestParseCustomIDUUIDClaim(t *testing.T) {
	id := CustomID(ActionDislike, "8d6f2c1a-93c4-4f6e-9a6e-0f0b9a6a1f00")
	action, claimID, ok := ParseCustomID(id)
	if !ok || action != ActionDislike || claimID != "8d6f2c1a-93c4-4f6e-9a6e-0f0b9a6a1f00" {
		t.Fatalf("got %v %q ok=%v", action, claimID, ok)
	}
}
