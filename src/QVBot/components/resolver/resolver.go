package resolver

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/stake-plus/questcomms/src/QVBot/components/chat"
	"github.com/stake-plus/questcomms/src/QVBot/components/groups"
	"github.com/stake-plus/questcomms/src/QVBot/components/ledger"
	"github.com/stake-plus/questcomms/src/QVBot/components/quest"
	"github.com/stake-plus/questcomms/src/shared/data"
)

// ActorAuto marks resolutions triggered by the vote threshold rather
// than a moderator.
const ActorAuto = "auto-threshold"

// Resolution is the terminal transition for a claim. Transient: it
// only exists as the argument to Apply.
type Resolution struct {
	ClaimID  string
	Approved bool
	Actor    string
}

// ReviewSubmitter is the slice of the quest adapter the resolver needs.
type ReviewSubmitter interface {
	SubmitReview(ctx context.Context, claimID string, status quest.ReviewStatus, comment string) error
}

// SourceProvider resolves a community name to its review client.
type SourceProvider interface {
	ReviewerFor(community string) (ReviewSubmitter, bool)
}

// Resolver is the only writer of terminal claim state. Applications
// are serialized so the ledger guard and the terminal effects cannot
// interleave between two racing resolutions.
type Resolver struct {
	mu      sync.Mutex
	ledger  *ledger.Service
	groups  *groups.Store
	msgr    chat.Messenger
	sources SourceProvider
	rdb     *redis.Client
}

func New(ledgerSvc *ledger.Service, groupStore *groups.Store, msgr chat.Messenger, sources SourceProvider, rdb *redis.Client) *Resolver {
	return &Resolver{
		ledger:  ledgerSvc,
		groups:  groupStore,
		msgr:    msgr,
		sources: sources,
		rdb:     rdb,
	}
}

// Apply performs the resolution exactly once. The ledger lookup under
// the resolver lock is the linchpin: a claim id absent from the ledger
// was already resolved by a concurrent path, so Apply is a no-op and
// returns false. An upstream review failure does not undo the local
// decision; it is logged for manual reconciliation and the entry is
// removed regardless.
func (r *Resolver) Apply(ctx context.Context, res Resolution) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.ledger.Get(res.ClaimID)
	if !ok {
		log.Printf("Resolution for %s is stale, claim already resolved", res.ClaimID)
		return false
	}

	status := quest.ReviewFail
	if res.Approved {
		status = quest.ReviewSuccess
	}

	if reviewer, found := r.sources.ReviewerFor(entry.Community); found {
		if err := reviewer.SubmitReview(ctx, res.ClaimID, status, r.comment(res)); err != nil {
			log.Printf("Upstream review for %s failed, resolution kept locally, reconcile by hand: %v",
				res.ClaimID, err)
		}
	} else {
		log.Printf("No review client for community %s, claim %s resolved locally only",
			entry.Community, res.ClaimID)
	}

	final, _ := r.ledger.Remove(res.ClaimID)

	r.publish(ctx, final, res)
	r.postSummary(final, res)
	return true
}

func (r *Resolver) comment(res Resolution) string {
	if res.Actor == ActorAuto {
		return "Approved by community vote via QuestComms"
	}
	outcome := "Denied"
	if res.Approved {
		outcome = "Accepted"
	}
	return fmt.Sprintf("%s by moderator via QuestComms", outcome)
}

func (r *Resolver) publish(ctx context.Context, entry ledger.Entry, res Resolution) {
	if r.rdb == nil {
		return
	}
	outcome := "rejected"
	if res.Approved {
		outcome = "approved"
	}
	err := data.PublishResolution(ctx, r.rdb, map[string]interface{}{
		"claim":     res.ClaimID,
		"name":      entry.ClaimName,
		"outcome":   outcome,
		"actor":     res.Actor,
		"community": entry.Community,
		"guild":     entry.GuildID,
		"likes":     len(entry.Likes),
		"dislikes":  len(entry.Dislikes),
	})
	if err != nil {
		log.Printf("Failed to publish resolution for %s: %v", res.ClaimID, err)
	}
}

// postSummary posts the configured approval summary for community
// resolutions, optionally listing who voted.
func (r *Resolver) postSummary(entry ledger.Entry, res Resolution) {
	if entry.Route != ledger.RouteCommunity || !res.Approved || entry.ChannelID == "" {
		return
	}
	cfg := r.groups.Get(entry.GuildID)
	if !cfg.ShowApprovedMess {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Quest approved: %d👍 / %d👎\nClaim: %s\nSubmitted by: %s",
		len(entry.Likes), len(entry.Dislikes), entry.ClaimName, entry.SubmitterName)
	if cfg.ShowWhoVotes {
		fmt.Fprintf(&b, "\nLikes: %s", voterList(entry.Likes))
		fmt.Fprintf(&b, "\nDislikes: %s", voterList(entry.Dislikes))
	}

	if err := r.msgr.Post(entry.ChannelID, b.String()); err != nil {
		log.Printf("Failed to post approval summary for %s: %v", res.ClaimID, err)
	}
}

func voterList(voters map[string]string) string {
	if len(voters) == 0 {
		return "none"
	}
	names := make([]string, 0, len(voters))
	for _, name := range voters {
		names = append(names, "@"+name)
	}
	sort.Strings(names)
	return strings.Join(names, " ")
}
