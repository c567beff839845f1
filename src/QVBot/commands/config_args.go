package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stake-plus/questcomms/src/QVBot/components/groups"
	"github.com/stake-plus/questcomms/src/shared/types"
)

// parseUpdate translates the free-form "key:value" tokens of the
// config command into the typed update the store accepts. The core
// never sees raw tokens.
func parseUpdate(args []string) (groups.Update, error) {
	var u groups.Update
	for _, arg := range args {
		arg = strings.Trim(strings.TrimSpace(arg), `"`)
		if arg == "" {
			continue
		}
		key, value, found := strings.Cut(arg, ":")
		if !found {
			return groups.Update{}, fmt.Errorf("expected key:value, got %q", arg)
		}

		switch strings.ToLower(key) {
		case "emoji":
			u.Emoji = &value
		case "adminemoji":
			u.AdminEmoji = &value
		case "checkemoji":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return groups.Update{}, fmt.Errorf("checkemoji wants true/false, got %q", value)
			}
			u.CheckEmoji = &b
		case "likestoapprove":
			n, err := strconv.Atoi(value)
			if err != nil {
				return groups.Update{}, fmt.Errorf("likestoapprove wants a number, got %q", value)
			}
			u.VotesToApprove = &n
		case "autoapprove":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return groups.Update{}, fmt.Errorf("autoapprove wants true/false, got %q", value)
			}
			u.AutoApprove = &b
		case "showwhovotes":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return groups.Update{}, fmt.Errorf("showwhovotes wants true/false, got %q", value)
			}
			u.ShowWhoVotes = &b
		case "showapprovedmess":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return groups.Update{}, fmt.Errorf("showapprovedmess wants true/false, got %q", value)
			}
			u.ShowApprovedMess = &b
		case "admins":
			handles := strings.Split(value, ",")
			for i := range handles {
				handles[i] = strings.TrimSpace(handles[i])
			}
			u.Admins = &handles
		case "bindquestid":
			u.BindQuestID = &value
		default:
			return groups.Update{}, fmt.Errorf("unknown config key %q", key)
		}
	}
	return u, nil
}

func configText(cfg types.GroupConfig) string {
	var b strings.Builder
	b.WriteString("Configuration:\n")
	fmt.Fprintf(&b, "emoji: %s\n", cfg.Emoji)
	fmt.Fprintf(&b, "adminEmoji: %s\n", cfg.AdminEmoji)
	fmt.Fprintf(&b, "checkEmoji: %t\n", cfg.CheckEmoji)
	fmt.Fprintf(&b, "likesToApprove: %d\n", cfg.VotesToApprove)
	fmt.Fprintf(&b, "autoApprove: %t\n", cfg.AutoApprove)
	fmt.Fprintf(&b, "showWhoVotes: %t\n", cfg.ShowWhoVotes)
	fmt.Fprintf(&b, "showApprovedMess: %t\n", cfg.ShowApprovedMess)
	fmt.Fprintf(&b, "admins: %s\n", cfg.Admins)
	fmt.Fprintf(&b, "bindQuestId: %s", cfg.BindQuestID)
	return b.String()
}
