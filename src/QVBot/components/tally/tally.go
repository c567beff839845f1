package tally

import (
	"context"
	"log"

	"github.com/stake-plus/questcomms/src/QVBot/components/chat"
	"github.com/stake-plus/questcomms/src/QVBot/components/groups"
	"github.com/stake-plus/questcomms/src/QVBot/components/ledger"
	"github.com/stake-plus/questcomms/src/QVBot/components/resolver"
)

// Applier applies a terminal resolution exactly once. Satisfied by
// *resolver.Resolver.
type Applier interface {
	Apply(ctx context.Context, res resolver.Resolution) bool
}

// Engine turns vote-toggle callbacks into ledger mutations and, when
// the threshold is crossed, into resolutions.
type Engine struct {
	ledger  *ledger.Service
	groups  *groups.Store
	msgr    chat.Messenger
	applier Applier
}

func New(ledgerSvc *ledger.Service, groupStore *groups.Store, msgr chat.Messenger, applier Applier) *Engine {
	return &Engine{ledger: ledgerSvc, groups: groupStore, msgr: msgr, applier: applier}
}

// HandleVote processes one community like/dislike toggle.
func (e *Engine) HandleVote(ctx context.Context, claimID, voterID, voterName string, like bool) {
	entry, counts, ok := e.ledger.Toggle(claimID, voterID, voterName, like)
	if !ok {
		log.Printf("Stale vote by %s on %s, claim already resolved or never routed", voterID, claimID)
		return
	}
	if entry.Route != ledger.RouteCommunity {
		// Community buttons on a moderator-routed claim; ignore.
		return
	}

	cfg := e.groups.Get(entry.GuildID)

	if counts.Score() >= cfg.VotesToApprove && cfg.AutoApprove {
		applied := e.applier.Apply(ctx, resolver.Resolution{
			ClaimID:  claimID,
			Approved: true,
			Actor:    resolver.ActorAuto,
		})
		if applied {
			err := e.msgr.FinalizeVoteMessage(entry.ChannelID, entry.MessageID, claimID, true,
				chat.Counts{Likes: counts.Likes, Dislikes: counts.Dislikes})
			if err != nil {
				log.Printf("Failed to finalize message for %s: %v", claimID, err)
			}
		}
		return
	}

	// Threshold reached without auto-approve only refreshes counts.
	err := e.msgr.UpdateVoteCounts(entry.ChannelID, entry.MessageID, claimID,
		chat.Counts{Likes: counts.Likes, Dislikes: counts.Dislikes})
	if err != nil {
		log.Printf("Failed to update vote counts for %s: %v", claimID, err)
	}
}

// HandleModeratorVote processes a moderator's accept/deny click. One
// click is a binding decision; every copy of the fan-out is finalized
// with the deciding moderator's name so a later click finds the claim
// gone.
func (e *Engine) HandleModeratorVote(ctx context.Context, claimID, modID, modName string, approve bool) {
	entry, ok := e.ledger.Get(claimID)
	if !ok {
		log.Printf("Stale moderator vote by %s on %s", modID, claimID)
		return
	}
	if entry.Route != ledger.RouteModerators {
		return
	}
	if !entry.HasModeratorCopy(modID) {
		log.Printf("User %s clicked moderator controls for %s without a copy", modID, claimID)
		return
	}

	applied := e.applier.Apply(ctx, resolver.Resolution{
		ClaimID:  claimID,
		Approved: approve,
		Actor:    modID,
	})
	if !applied {
		return
	}

	for _, c := range entry.Copies {
		if err := e.msgr.FinalizeModeratorMessage(c.ChannelID, c.MessageID, claimID, approve, modName); err != nil {
			log.Printf("Failed to finalize moderator copy %s/%s: %v", claimID, c.UserID, err)
		}
	}
}
