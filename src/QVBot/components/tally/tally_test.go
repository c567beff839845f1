package tally

import (
	"context"
	"sync"
	"testing"

	"github.com/stake-plus/questcomms/src/QVBot/components/chat"
	"github.com/stake-plus/questcomms/src/QVBot/components/groups"
	"github.com/stake-plus/questcomms/src/QVBot/components/ledger"
	"github.com/stake-plus/questcomms/src/QVBot/components/resolver"
)

type fakeMessenger struct {
	mu           sync.Mutex
	updates      int
	finalized    []string
	modFinalized []string
	lastCounts   chat.Counts
}

func (f *fakeMessenger) SendVoteMessage(channelID string, view chat.ClaimView, moderator bool) (string, error) {
	return "m1", nil
}

func (f *fakeMessenger) UpdateVoteCounts(channelID, messageID, claimID string, counts chat.Counts) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	f.lastCounts = counts
	return nil
}

func (f *fakeMessenger) FinalizeVoteMessage(channelID, messageID, claimID string, approved bool, counts chat.Counts) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finalized = append(f.finalized, claimID)
	return nil
}

func (f *fakeMessenger) FinalizeModeratorMessage(channelID, messageID, claimID string, approved bool, decidedBy string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modFinalized = append(f.modFinalized, messageID)
	return nil
}

func (f *fakeMessenger) Post(channelID, text string) error { return nil }

func (f *fakeMessenger) DirectChannel(userID string) (string, error) { return "dm-" + userID, nil }

// fakeApplier mimics the resolver's ledger-guarded exactly-once
// behavior: the first Apply for a live claim removes it, later ones
// report false.
type fakeApplier struct {
	ledger  *ledger.Service
	mu      sync.Mutex
	applied []resolver.Resolution
}

func (f *fakeApplier) Apply(ctx context.Context, res resolver.Resolution) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.ledger.Remove(res.ClaimID); !ok {
		return false
	}
	f.applied = append(f.applied, res)
	return true
}

func setup(t *testing.T, votesToApprove int, autoApprove bool) (*Engine, *ledger.Service, *groups.Store, *fakeMessenger, *fakeApplier) {
	t.Helper()
	ledgerSvc, err := ledger.NewService(nil)
	if err != nil {
		t.Fatalf("ledger.NewService: %v", err)
	}
	groupStore, err := groups.NewStore(nil)
	if err != nil {
		t.Fatalf("groups.NewStore: %v", err)
	}
	if _, err := groupStore.Apply("g1", groups.Update{
		VotesToApprove: &votesToApprove,
		AutoApprove:    &autoApprove,
	}); err != nil {
		t.Fatalf("groups.Apply: %v", err)
	}
	msgr := &fakeMessenger{}
	applier := &fakeApplier{ledger: ledgerSvc}
	return New(ledgerSvc, groupStore, msgr, applier), ledgerSvc, groupStore, msgr, applier
}

func communityEntry(claimID string) ledger.Entry {
	return ledger.Entry{
		ClaimID:   claimID,
		GuildID:   "g1",
		Community: "testers",
		Route:     ledger.RouteCommunity,
		ClaimName: "📜 quest",
		ChannelID: "c1",
		MessageID: "m1",
	}
}

func TestVoteBelowThresholdUpdatesCounts(t *testing.T) {
	engine, ledgerSvc, _, msgr, applier := setup(t, 2, true)
	ledgerSvc.Add(communityEntry("claim-1"))

	engine.HandleVote(context.Background(), "claim-1", "u1", "alice", true)

	if len(applier.applied) != 0 {
		t.Fatalf("one like should not resolve with threshold 2, applied %d", len(applier.applied))
	}
	if msgr.updates != 1 {
		t.Errorf("expected 1 count update, got %d", msgr.updates)
	}
	if msgr.lastCounts.Likes != 1 {
		t.Errorf("expected 1 like in update, got %d", msgr.lastCounts.Likes)
	}
}

func TestThresholdCrossTriggersAutoApprove(t *testing.T) {
	engine, ledgerSvc, _, msgr, applier := setup(t, 2, true)
	ledgerSvc.Add(communityEntry("claim-1"))

	engine.HandleVote(context.Background(), "claim-1", "u1", "alice", true)
	engine.HandleVote(context.Background(), "claim-1", "u2", "bob", true)

	if len(applier.applied) != 1 {
		t.Fatalf("expected exactly 1 resolution, got %d", len(applier.applied))
	}
	res := applier.applied[0]
	if !res.Approved || res.Actor != resolver.ActorAuto {
		t.Errorf("resolution should be approved by %s, got %+v", resolver.ActorAuto, res)
	}
	if len(msgr.finalized) != 1 {
		t.Errorf("vote message should be finalized once, got %d", len(msgr.finalized))
	}
	if ledgerSvc.Len() != 0 {
		t.Errorf("resolved claim should leave the ledger, %d remain", ledgerSvc.Len())
	}
}

func TestThresholdWithoutAutoApproveOnlyUpdates(t *testing.T) {
	engine, ledgerSvc, _, msgr, applier := setup(t, 2, false)
	ledgerSvc.Add(communityEntry("claim-1"))

	engine.HandleVote(context.Background(), "claim-1", "u1", "alice", true)
	engine.HandleVote(context.Background(), "claim-1", "u2", "bob", true)
	engine.HandleVote(context.Background(), "claim-1", "u3", "carol", true)

	if len(applier.applied) != 0 {
		t.Fatalf("auto-approve off must never resolve, applied %d", len(applier.applied))
	}
	if msgr.updates != 3 {
		t.Errorf("expected 3 count updates, got %d", msgr.updates)
	}
	if ledgerSvc.Len() != 1 {
		t.Errorf("claim should stay pending, ledger has %d", ledgerSvc.Len())
	}
}

func TestDislikesOffsetLikes(t *testing.T) {
	engine, ledgerSvc, _, _, applier := setup(t, 2, true)
	ledgerSvc.Add(communityEntry("claim-1"))

	engine.HandleVote(context.Background(), "claim-1", "u1", "alice", true)
	engine.HandleVote(context.Background(), "claim-1", "u2", "bob", false)
	engine.HandleVote(context.Background(), "claim-1", "u3", "carol", true)

	// Score is 2-1=1, below the threshold of 2.
	if len(applier.applied) != 0 {
		t.Fatalf("net score 1 must not resolve at threshold 2, applied %d", len(applier.applied))
	}

	// Bob switches sides: score becomes 3-0=3.
	engine.HandleVote(context.Background(), "claim-1", "u2", "bob", true)
	if len(applier.applied) != 1 {
		t.Fatalf("expected resolution after side switch, applied %d", len(applier.applied))
	}
}

func TestStaleVoteIsIgnored(t *testing.T) {
	engine, _, _, msgr, applier := setup(t, 2, true)

	engine.HandleVote(context.Background(), "gone", "u1", "alice", true)

	if len(applier.applied) != 0 || msgr.updates != 0 {
		t.Error("vote on an untracked claim must be a no-op")
	}
}

func TestCommunityVoteOnModeratorClaimIgnored(t *testing.T) {
	engine, ledgerSvc, _, msgr, applier := setup(t, 1, true)
	entry := communityEntry("claim-1")
	entry.Route = ledger.RouteModerators
	entry.Copies = []ledger.ModeratorCopy{{UserID: "mod1", ChannelID: "dm1", MessageID: "mm1"}}
	ledgerSvc.Add(entry)

	engine.HandleVote(context.Background(), "claim-1", "u1", "alice", true)

	if len(applier.applied) != 0 || msgr.updates != 0 {
		t.Error("community vote on a moderator-routed claim must not resolve or edit")
	}
}

func TestModeratorDecisionFinalizesAllCopies(t *testing.T) {
	engine, ledgerSvc, _, msgr, applier := setup(t, 10, true)
	entry := communityEntry("claim-1")
	entry.Route = ledger.RouteModerators
	entry.ChannelID = ""
	entry.MessageID = ""
	entry.Copies = []ledger.ModeratorCopy{
		{UserID: "mod1", ChannelID: "dm1", MessageID: "mm1"},
		{UserID: "mod2", ChannelID: "dm2", MessageID: "mm2"},
	}
	ledgerSvc.Add(entry)

	engine.HandleModeratorVote(context.Background(), "claim-1", "mod1", "alice", false)

	if len(applier.applied) != 1 {
		t.Fatalf("expected 1 resolution, got %d", len(applier.applied))
	}
	res := applier.applied[0]
	if res.Approved || res.Actor != "mod1" {
		t.Errorf("expected rejection by mod1, got %+v", res)
	}
	if len(msgr.modFinalized) != 2 {
		t.Errorf("both fan-out copies should be finalized, got %d", len(msgr.modFinalized))
	}
}

func TestSecondModeratorClickIsStale(t *testing.T) {
	engine, ledgerSvc, _, msgr, applier := setup(t, 10, true)
	entry := communityEntry("claim-1")
	entry.Route = ledger.RouteModerators
	entry.Copies = []ledger.ModeratorCopy{
		{UserID: "mod1", ChannelID: "dm1", MessageID: "mm1"},
		{UserID: "mod2", ChannelID: "dm2", MessageID: "mm2"},
	}
	ledgerSvc.Add(entry)

	engine.HandleModeratorVote(context.Background(), "claim-1", "mod1", "alice", true)
	engine.HandleModeratorVote(context.Background(), "claim-1", "mod2", "bob", false)

	if len(applier.applied) != 1 {
		t.Fatalf("first click decides, got %d resolutions", len(applier.applied))
	}
	if !applier.applied[0].Approved {
		t.Error("the surviving decision should be mod1's approval")
	}
	if len(msgr.modFinalized) != 2 {
		t.Errorf("finalization should run once over both copies, got %d edits", len(msgr.modFinalized))
	}
}

func TestModeratorClickWithoutCopyIgnored(t *testing.T) {
	engine, ledgerSvc, _, _, applier := setup(t, 10, true)
	entry := communityEntry("claim-1")
	entry.Route = ledger.RouteModerators
	entry.Copies = []ledger.ModeratorCopy{{UserID: "mod1", ChannelID: "dm1", MessageID: "mm1"}}
	ledgerSvc.Add(entry)

	engine.HandleModeratorVote(context.Background(), "claim-1", "intruder", "eve", true)

	if len(applier.applied) != 0 {
		t.Error("users without a fan-out copy must not decide claims")
	}
}
