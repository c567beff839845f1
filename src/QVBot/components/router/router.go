package router

import (
	"fmt"
	"log"
	"strings"

	"github.com/stake-plus/questcomms/src/QVBot/components/chat"
	"github.com/stake-plus/questcomms/src/QVBot/components/groups"
	"github.com/stake-plus/questcomms/src/QVBot/components/ledger"
	"github.com/stake-plus/questcomms/src/QVBot/components/quest"
	"github.com/stake-plus/questcomms/src/shared/types"
)

// Router decides, once per newly discovered claim, whether it goes to
// community voting, to the subscribed moderators, or nowhere.
type Router struct {
	ledger *ledger.Service
	groups *groups.Store
	msgr   chat.Messenger
}

func New(ledgerSvc *ledger.Service, groupStore *groups.Store, msgr chat.Messenger) *Router {
	return &Router{ledger: ledgerSvc, groups: groupStore, msgr: msgr}
}

// Ingest routes one claim. A non-nil error aborts the current poll
// batch so the checkpoint does not advance and the batch is retried;
// the re-ingestion guard absorbs the resulting duplicates.
func (r *Router) Ingest(binding types.CommunityBinding, claim quest.ClaimRecord) error {
	if _, exists := r.ledger.Get(claim.ID); exists {
		log.Printf("[%s] claim %s already routed, skipping", binding.Community, claim.ID)
		return nil
	}

	switch claim.Submission.Kind {
	case quest.KindImage, quest.KindUnsupported:
		log.Printf("[%s] dropping claim %s: %s submissions are not reviewable here",
			binding.Community, claim.ID, claim.Submission.Kind)
		return nil
	case quest.KindURL, quest.KindText, quest.KindNone:
	}

	cfg := r.groups.Get(binding.GuildID)

	if cfg.AdminEmoji != "" && strings.Contains(claim.Name, cfg.AdminEmoji) {
		return r.routeToModerators(binding, claim)
	}

	if !cfg.CheckEmoji || strings.Contains(claim.Name, cfg.Emoji) {
		return r.routeToCommunity(binding, claim)
	}

	// No trigger emoji while one is required: not for this group.
	return nil
}

func (r *Router) routeToCommunity(binding types.CommunityBinding, claim quest.ClaimRecord) error {
	msgID, err := r.msgr.SendVoteMessage(binding.ChannelID, claimView(claim), false)
	if err != nil {
		return fmt.Errorf("post claim %s to channel %s: %w", claim.ID, binding.ChannelID, err)
	}

	added := r.ledger.Add(ledger.Entry{
		ClaimID:       claim.ID,
		GuildID:       binding.GuildID,
		Community:     binding.Community,
		Route:         ledger.RouteCommunity,
		ClaimName:     claim.Name,
		SubmitterID:   claim.SubmitterID,
		SubmitterName: claim.SubmitterName,
		ChannelID:     binding.ChannelID,
		MessageID:     msgID,
	})
	if !added {
		log.Printf("[%s] claim %s raced into the ledger twice", binding.Community, claim.ID)
	}
	return nil
}

// routeToModerators fans the claim out as one private message per
// subscribed moderator. Partial delivery is fine; a moderator whose
// send failed simply never sees the claim.
func (r *Router) routeToModerators(binding types.CommunityBinding, claim quest.ClaimRecord) error {
	var copies []ledger.ModeratorCopy
	for _, mod := range r.groups.Subscribers(binding.GuildID) {
		channelID, err := r.msgr.DirectChannel(mod.UserID)
		if err != nil {
			log.Printf("[%s] no direct channel for moderator %s: %v", binding.Community, mod.Username, err)
			continue
		}
		msgID, err := r.msgr.SendVoteMessage(channelID, claimView(claim), true)
		if err != nil {
			log.Printf("[%s] failed to send claim %s to moderator %s: %v",
				binding.Community, claim.ID, mod.Username, err)
			continue
		}
		copies = append(copies, ledger.ModeratorCopy{
			UserID:    mod.UserID,
			ChannelID: channelID,
			MessageID: msgID,
		})
	}

	added := r.ledger.Add(ledger.Entry{
		ClaimID:       claim.ID,
		GuildID:       binding.GuildID,
		Community:     binding.Community,
		Route:         ledger.RouteModerators,
		ClaimName:     claim.Name,
		SubmitterID:   claim.SubmitterID,
		SubmitterName: claim.SubmitterName,
		Copies:        copies,
	})
	if !added {
		log.Printf("[%s] claim %s raced into the ledger twice", binding.Community, claim.ID)
	}
	return nil
}

func claimView(claim quest.ClaimRecord) chat.ClaimView {
	return chat.ClaimView{
		ClaimID:       claim.ID,
		Name:          claim.Name,
		SubmitterName: claim.SubmitterName,
		Points:        claim.Points,
		Submission:    claim.Submission,
	}
}
