package ledger

import (
	"sync"
	"testing"
)

func newEntry(claimID string) Entry {
	return Entry{
		ClaimID:   claimID,
		GuildID:   "g1",
		Community: "testers",
		Route:     RouteCommunity,
		ClaimName: "📜 test quest",
		ChannelID: "c1",
		MessageID: "m1",
	}
}

func TestAddGuardsAgainstReingestion(t *testing.T) {
	s, err := NewService(nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if !s.Add(newEntry("claim-1")) {
		t.Error("first Add should succeed")
	}
	if s.Add(newEntry("claim-1")) {
		t.Error("second Add for the same claim should be rejected")
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", s.Len())
	}
}

func TestToggleSemantics(t *testing.T) {
	s, _ := NewService(nil)
	s.Add(newEntry("claim-1"))

	// U likes: likes={U}
	_, counts, ok := s.Toggle("claim-1", "u1", "alice", true)
	if !ok {
		t.Fatal("toggle on tracked claim should succeed")
	}
	if counts.Likes != 1 || counts.Dislikes != 0 {
		t.Errorf("after like: got %d/%d, want 1/0", counts.Likes, counts.Dislikes)
	}

	// U likes again: un-vote
	_, counts, _ = s.Toggle("claim-1", "u1", "alice", true)
	if counts.Likes != 0 || counts.Dislikes != 0 {
		t.Errorf("after repeated like: got %d/%d, want 0/0", counts.Likes, counts.Dislikes)
	}

	// U dislikes: dislikes={U}
	entry, counts, _ := s.Toggle("claim-1", "u1", "alice", false)
	if counts.Likes != 0 || counts.Dislikes != 1 {
		t.Errorf("after dislike: got %d/%d, want 0/1", counts.Likes, counts.Dislikes)
	}

	// U likes: moved across, no stale membership in both sets
	entry, counts, _ = s.Toggle("claim-1", "u1", "alice", true)
	if counts.Likes != 1 || counts.Dislikes != 0 {
		t.Errorf("after switching sides: got %d/%d, want 1/0", counts.Likes, counts.Dislikes)
	}
	if _, inLikes := entry.Likes["u1"]; !inLikes {
		t.Error("voter missing from likes after switching")
	}
	if _, inDislikes := entry.Dislikes["u1"]; inDislikes {
		t.Error("voter still present in dislikes after switching")
	}
}

func TestToggleOnUnknownClaim(t *testing.T) {
	s, _ := NewService(nil)
	if _, _, ok := s.Toggle("nope", "u1", "alice", true); ok {
		t.Error("toggle on unknown claim should report ok=false")
	}
}

func TestScore(t *testing.T) {
	s, _ := NewService(nil)
	s.Add(newEntry("claim-1"))
	s.Toggle("claim-1", "u1", "alice", true)
	s.Toggle("claim-1", "u2", "bob", true)
	_, counts, _ := s.Toggle("claim-1", "u3", "carol", false)
	if counts.Score() != 1 {
		t.Errorf("score: got %d, want 1", counts.Score())
	}
}

func TestRemoveFirstCallerWins(t *testing.T) {
	s, _ := NewService(nil)
	s.Add(newEntry("claim-1"))

	var wg sync.WaitGroup
	wins := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.Remove("claim-1"); ok {
				wins <- true
			}
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for range wins {
		won++
	}
	if won != 1 {
		t.Errorf("expected exactly one successful Remove, got %d", won)
	}
	if s.Len() != 0 {
		t.Errorf("entry should be gone, ledger has %d", s.Len())
	}
}

func TestHasModeratorCopy(t *testing.T) {
	e := Entry{Copies: []ModeratorCopy{{UserID: "mod1", ChannelID: "d1", MessageID: "m1"}}}
	if !e.HasModeratorCopy("mod1") {
		t.Error("mod1 holds a copy")
	}
	if e.HasModeratorCopy("mod2") {
		t.Error("mod2 holds no copy")
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s, _ := NewService(nil)
	s.Add(newEntry("claim-1"))
	snap, _, _ := s.Toggle("claim-1", "u1", "alice", true)

	// Mutating the snapshot must not leak into the service.
	snap.Likes["u2"] = "bob"
	_, counts, _ := s.Toggle("claim-1", "u3", "carol", true)
	if counts.Likes != 2 {
		t.Errorf("snapshot mutation leaked: got %d likes, want 2", counts.Likes)
	}
}
