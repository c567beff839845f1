package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/microcosm-cc/bluemonday"
	"github.com/stake-plus/questcomms/src/QVBot/components/chat"
	"github.com/stake-plus/questcomms/src/QVBot/components/quest"
)

// Messenger implements chat.Messenger on a Discord session.
type Messenger struct {
	session   *discordgo.Session
	sanitizer *bluemonday.Policy
}

func NewMessenger(session *discordgo.Session) *Messenger {
	return &Messenger{
		session:   session,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func (m *Messenger) clean(s string) string {
	return strings.TrimSpace(m.sanitizer.Sanitize(s))
}

func (m *Messenger) formatClaim(view chat.ClaimView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** — `%d` XP\n", m.clean(view.Name), view.Points)

	switch view.Submission.Kind {
	case quest.KindURL:
		fmt.Fprintf(&b, "Url:\n%s\n", m.clean(view.Submission.Value))
	case quest.KindText:
		fmt.Fprintf(&b, "Answer:\n%s\n", m.clean(view.Submission.Value))
	case quest.KindImage:
		fmt.Fprintf(&b, "Image:\n%s\n", m.clean(view.Submission.Value))
	case quest.KindNone, quest.KindUnsupported:
	}

	fmt.Fprintf(&b, "Submitted by %s", m.clean(view.SubmitterName))
	return b.String()
}

func voteRow(claimID string, counts chat.Counts, moderator bool) []discordgo.MessageComponent {
	likeAction, dislikeAction := chat.ActionLike, chat.ActionDislike
	likeLabel := fmt.Sprintf("%d 👍 like", counts.Likes)
	dislikeLabel := fmt.Sprintf("%d 👎 dislike", counts.Dislikes)
	if moderator {
		likeAction, dislikeAction = chat.ActionModeratorApprove, chat.ActionModeratorDeny
		likeLabel = "✅ accept"
		dislikeLabel = "❎ deny"
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    likeLabel,
					Style:    discordgo.SuccessButton,
					CustomID: chat.CustomID(likeAction, claimID),
				},
				discordgo.Button{
					Label:    dislikeLabel,
					Style:    discordgo.DangerButton,
					CustomID: chat.CustomID(dislikeAction, claimID),
				},
			},
		},
	}
}

func terminalRow(claimID, label string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    label,
					Style:    discordgo.SecondaryButton,
					CustomID: "resolved:" + claimID,
					Disabled: true,
				},
			},
		},
	}
}

func (m *Messenger) SendVoteMessage(channelID string, view chat.ClaimView, moderator bool) (string, error) {
	msg, err := m.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    m.formatClaim(view),
		Components: voteRow(view.ClaimID, chat.Counts{}, moderator),
	})
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (m *Messenger) UpdateVoteCounts(channelID, messageID, claimID string, counts chat.Counts) error {
	components := voteRow(claimID, counts, false)
	_, err := m.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Components: &components,
	})
	return err
}

func (m *Messenger) FinalizeVoteMessage(channelID, messageID, claimID string, approved bool, counts chat.Counts) error {
	label := fmt.Sprintf("(%d/%d) ❎ Denied", counts.Likes, counts.Dislikes)
	if approved {
		label = fmt.Sprintf("(%d/%d) ✅ Accepted", counts.Likes, counts.Dislikes)
	}
	components := terminalRow(claimID, label)
	_, err := m.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Components: &components,
	})
	return err
}

func (m *Messenger) FinalizeModeratorMessage(channelID, messageID, claimID string, approved bool, decidedBy string) error {
	label := fmt.Sprintf("❎ Denied by @%s", decidedBy)
	if approved {
		label = fmt.Sprintf("✅ Accepted by @%s", decidedBy)
	}
	components := terminalRow(claimID, label)
	_, err := m.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Components: &components,
	})
	return err
}

func (m *Messenger) Post(channelID, text string) error {
	_, err := m.session.ChannelMessageSend(channelID, text)
	return err
}

func (m *Messenger) DirectChannel(userID string) (string, error) {
	ch, err := m.session.UserChannelCreate(userID)
	if err != nil {
		return "", err
	}
	return ch.ID, nil
}
