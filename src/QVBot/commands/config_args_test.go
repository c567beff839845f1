package commands

import (
	"strings"
	"testing"

	"github.com/stake-plus/questcomms/src/shared/types"
)

func TestParseUpdateAllKeys(t *testing.T) {
	u, err := parseUpdate([]string{
		"emoji:🏴",
		"adminEmoji:⚔️",
		"checkEmoji:false",
		"likesToApprove:5",
		"autoApprove:true",
		"showWhoVotes:false",
		"showApprovedMess:true",
		"admins:@alice,@bob",
		"bindQuestId:quest-99",
	})
	if err != nil {
		t.Fatalf("parseUpdate: %v", err)
	}

	if u.Emoji == nil || *u.Emoji != "🏴" {
		t.Errorf("emoji = %v", u.Emoji)
	}
	if u.AdminEmoji == nil || *u.AdminEmoji != "⚔️" {
		t.Errorf("adminEmoji = %v", u.AdminEmoji)
	}
	if u.CheckEmoji == nil || *u.CheckEmoji {
		t.Errorf("checkEmoji = %v", u.CheckEmoji)
	}
	if u.VotesToApprove == nil || *u.VotesToApprove != 5 {
		t.Errorf("likesToApprove = %v", u.VotesToApprove)
	}
	if u.AutoApprove == nil || !*u.AutoApprove {
		t.Errorf("autoApprove = %v", u.AutoApprove)
	}
	if u.Admins == nil || len(*u.Admins) != 2 || (*u.Admins)[0] != "@alice" || (*u.Admins)[1] != "@bob" {
		t.Errorf("admins = %v", u.Admins)
	}
	if u.BindQuestID == nil || *u.BindQuestID != "quest-99" {
		t.Errorf("bindQuestId = %v", u.BindQuestID)
	}
}

func TestParseUpdateLeavesUnsetFieldsNil(t *testing.T) {
	u, err := parseUpdate([]string{"likesToApprove:3"})
	if err != nil {
		t.Fatalf("parseUpdate: %v", err)
	}
	if u.Emoji != nil || u.AdminEmoji != nil || u.AutoApprove != nil {
		t.Error("fields not named in the command must stay nil")
	}
}

func TestParseUpdateRejects(t *testing.T) {
	cases := []struct {
		name string
		args []string
	}{
		{"unknown key", []string{"volume:11"}},
		{"missing colon", []string{"emoji"}},
		{"non-numeric threshold", []string{"likesToApprove:many"}},
		{"non-boolean flag", []string{"autoApprove:maybe"}},
	}
	for _, tc := range cases {
		if _, err := parseUpdate(tc.args); err == nil {
			t.Errorf("%s: expected error for %v", tc.name, tc.args)
		}
	}
}

func TestParseUpdateSkipsEmptyTokens(t *testing.T) {
	u, err := parseUpdate([]string{"", "  ", "emoji:🏴"})
	if err != nil {
		t.Fatalf("parseUpdate: %v", err)
	}
	if u.Emoji == nil {
		t.Error("non-empty token should still apply")
	}
}

func TestConfigText(t *testing.T) {
	text := configText(types.GroupConfig{
		Emoji:          "📜",
		AdminEmoji:     "🔑",
		CheckEmoji:     true,
		VotesToApprove: 10,
		Admins:         "@alice",
		BindQuestID:    "quest-99",
	})
	for _, want := range []string{"emoji: 📜", "likesToApprove: 10", "admins: @alice", "bindQuestId: quest-99"} {
		if !strings.Contains(text, want) {
			t.Errorf("config text missing %q:\n%s", want, text)
		}
	}
}
