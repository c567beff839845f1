package watcher

import (
	"context"
	"log"
	"sync"

	"github.com/stake-plus/questcomms/src/QVBot/components/quest"
	"github.com/stake-plus/questcomms/src/QVBot/components/resolver"
)

type running struct {
	community string
	cancel    context.CancelFunc
}

// Registry owns the active watchers, one per bound guild, and doubles
// as the resolver's review-client lookup. It replaces what would
// otherwise be ambient global maps.
type Registry struct {
	mu        sync.Mutex
	byGuild   map[string]*running
	reviewers map[string]*quest.Client
	wg        sync.WaitGroup
}

func NewRegistry() *Registry {
	return &Registry{
		byGuild:   make(map[string]*running),
		reviewers: make(map[string]*quest.Client),
	}
}

// Register starts a watcher for a guild, replacing any previous one
// for the same guild (e.g. a re-bind with a fresh API key).
func (r *Registry) Register(ctx context.Context, guildID string, client *quest.Client, w *Watcher) {
	r.mu.Lock()
	if prev, ok := r.byGuild[guildID]; ok {
		log.Printf("Replacing watcher for guild %s (community %s)", guildID, prev.community)
		prev.cancel()
		delete(r.reviewers, prev.community)
	}
	wctx, cancel := context.WithCancel(ctx)
	r.byGuild[guildID] = &running{community: client.Community(), cancel: cancel}
	r.reviewers[client.Community()] = client
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		w.Start(wctx)
	}()
}

// Active reports whether a guild has a running watcher.
func (r *Registry) Active(guildID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byGuild[guildID]
	return ok
}

// ReviewerFor implements resolver.SourceProvider.
func (r *Registry) ReviewerFor(community string) (resolver.ReviewSubmitter, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	client, ok := r.reviewers[community]
	if !ok {
		return nil, false
	}
	return client, true
}

// ClientFor returns the full quest client for a community, used by the
// points commands.
func (r *Registry) ClientFor(community string) (*quest.Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	client, ok := r.reviewers[community]
	return client, ok
}

// Stop cancels the watcher for one guild.
func (r *Registry) Stop(guildID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run, ok := r.byGuild[guildID]; ok {
		run.cancel()
		delete(r.reviewers, run.community)
		delete(r.byGuild, guildID)
	}
}

// StopAll cancels every watcher and waits for in-flight ticks to
// finish, so a resolution applied locally is persisted before exit.
func (r *Registry) StopAll() {
	r.mu.Lock()
	for guildID, run := range r.byGuild {
		run.cancel()
		delete(r.reviewers, run.community)
		delete(r.byGuild, guildID)
	}
	r.mu.Unlock()
	r.wg.Wait()
}
