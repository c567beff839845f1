package watcher

import (
	"context"
	"log"
	"time"

	"github.com/stake-plus/questcomms/src/QVBot/components/quest"
	"github.com/stake-plus/questcomms/src/shared/types"
)

// DefaultInterval matches the upstream platform's tolerated poll rate.
const DefaultInterval = 21 * time.Second

// ClaimSource lists pending claims updated after a checkpoint.
type ClaimSource interface {
	PendingClaims(ctx context.Context, since time.Time) ([]quest.ClaimRecord, error)
}

// Ingester routes one discovered claim.
type Ingester interface {
	Ingest(binding types.CommunityBinding, claim quest.ClaimRecord) error
}

// Checkpoints reads and advances a group's poll checkpoint.
type Checkpoints interface {
	Get(guildID string) types.GroupConfig
	SetLastCheck(guildID string, t time.Time)
}

// Watcher drives claim discovery for one bound group.
type Watcher struct {
	binding  types.CommunityBinding
	source   ClaimSource
	ingester Ingester
	groups   Checkpoints
	interval time.Duration
}

func New(binding types.CommunityBinding, source ClaimSource, ingester Ingester, groups Checkpoints, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{
		binding:  binding,
		source:   source,
		ingester: ingester,
		groups:   groups,
		interval: interval,
	}
}

// Start runs the poll loop until ctx is cancelled. Each tick is
// isolated: a failed fetch or an aborted batch leaves the checkpoint
// untouched and the next tick retries.
func (w *Watcher) Start(ctx context.Context) {
	log.Printf("[%s] starting claim watcher for guild %s", w.binding.Community, w.binding.GuildID)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[%s] stopping claim watcher", w.binding.Community)
			return
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick performs one discovery pass. The new checkpoint is captured
// before the fetch so claims updated during processing are seen again
// next tick; the re-ingestion guard absorbs the overlap.
func (w *Watcher) Tick(ctx context.Context) {
	cfg := w.groups.Get(w.binding.GuildID)
	now := time.Now().UTC()

	claims, err := w.source.PendingClaims(ctx, cfg.LastCheck)
	if err != nil {
		log.Printf("[%s] fetch failed, no claims this tick: %v", w.binding.Community, err)
		return
	}

	for i := range claims {
		if err := w.ingester.Ingest(w.binding, claims[i]); err != nil {
			log.Printf("[%s] batch aborted at claim %s, will retry: %v",
				w.binding.Community, claims[i].ID, err)
			return
		}
	}

	w.groups.SetLastCheck(w.binding.GuildID, now)
}
