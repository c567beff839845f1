package quest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func claimsServer(t *testing.T, page claimsPage) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "key123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(page)
	}))
}

func TestPendingClaimsFiltersAndOrders(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	srv := claimsServer(t, claimsPage{Data: []rawClaim{
		{ID: "old", Name: "📜 old", UpdatedAt: base.Add(-time.Hour)},
		{ID: "c", Name: "📜 third", UpdatedAt: base.Add(3 * time.Minute)},
		{ID: "a", Name: "📜 first", UpdatedAt: base.Add(1 * time.Minute)},
		{ID: "b", Name: "📜 second", UpdatedAt: base.Add(2 * time.Minute)},
	}})
	defer srv.Close()

	c := NewClient("testers", "key123", srv.URL)
	claims, err := c.PendingClaims(context.Background(), base)
	if err != nil {
		t.Fatalf("PendingClaims: %v", err)
	}

	if len(claims) != 3 {
		t.Fatalf("expected 3 claims after the checkpoint, got %d", len(claims))
	}
	for i, want := range []string{"a", "b", "c"} {
		if claims[i].ID != want {
			t.Errorf("claims[%d] = %s, want %s", i, claims[i].ID, want)
		}
	}
}

func TestNormalizeSubmissionKinds(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	srv := claimsServer(t, claimsPage{Data: []rawClaim{
		{ID: "u1", UpdatedAt: base, Submission: rawSubmission{Type: "url", Value: "https://x"}},
		{ID: "t1", UpdatedAt: base, Submission: rawSubmission{Type: "text", Value: "did it"}},
		{ID: "i1", UpdatedAt: base, Submission: rawSubmission{Type: "image", Value: "https://img"}},
		{ID: "n1", UpdatedAt: base},
		{ID: "f1", UpdatedAt: base, Submission: rawSubmission{Type: "video", Value: "https://v"}},
	}})
	defer srv.Close()

	c := NewClient("testers", "key123", srv.URL)
	claims, err := c.PendingClaims(context.Background(), base.Add(-time.Second))
	if err != nil {
		t.Fatalf("PendingClaims: %v", err)
	}

	kinds := map[string]SubmissionKind{}
	for _, cl := range claims {
		kinds[cl.ID] = cl.Submission.Kind
	}
	want := map[string]SubmissionKind{
		"u1": KindURL, "t1": KindText, "i1": KindImage, "n1": KindNone, "f1": KindUnsupported,
	}
	for id, k := range want {
		if kinds[id] != k {
			t.Errorf("claim %s: kind %v, want %v", id, kinds[id], k)
		}
	}
}

func TestNormalizeRewards(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	srv := claimsServer(t, claimsPage{Data: []rawClaim{
		{ID: "xp", UpdatedAt: base, Reward: []rawReward{{Type: "xp", Value: 150}}},
		{ID: "odd", UpdatedAt: base, Reward: []rawReward{{Type: "nft", Value: 1}}},
		{ID: "bare", UpdatedAt: base},
	}})
	defer srv.Close()

	c := NewClient("testers", "key123", srv.URL)
	claims, err := c.PendingClaims(context.Background(), base.Add(-time.Second))
	if err != nil {
		t.Fatalf("PendingClaims: %v", err)
	}

	points := map[string]int{}
	for _, cl := range claims {
		points[cl.ID] = cl.Points
	}
	if points["xp"] != 150 {
		t.Errorf("xp reward: got %d, want 150", points["xp"])
	}
	if points["odd"] != 0 || points["bare"] != 0 {
		t.Errorf("unknown or missing rewards degrade to 0 points, got %v", points)
	}
}

func TestSubmitReviewPayload(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/testers/claimed-quests/review" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient("testers", "key123", srv.URL)
	if err := c.SubmitReview(context.Background(), "claim-1", ReviewSuccess, "approved"); err != nil {
		t.Fatalf("SubmitReview: %v", err)
	}

	if got["status"] != "success" {
		t.Errorf("status = %v, want success", got["status"])
	}
	ids, ok := got["claimedQuestIds"].([]interface{})
	if !ok || len(ids) != 1 || ids[0] != "claim-1" {
		t.Errorf("claimedQuestIds = %v", got["claimedQuestIds"])
	}
}

func TestRemovePointsInsufficientBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "xp cannot go negative", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient("testers", "key123", srv.URL)
	err := c.RemovePoints(context.Background(), "u1", 100, "tip", "")
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("4xx debit refusal must map to ErrInsufficientBalance, got %v", err)
	}
}

func TestRemovePointsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient("testers", "key123", srv.URL)
	err := c.RemovePoints(context.Background(), "u1", 100, "tip", "")
	if err == nil || errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("5xx must stay a transport error, got %v", err)
	}
}

func TestUsersByHandle(t *testing.T) {
	srv := claimsServer(t, claimsPage{Data: []rawClaim{
		{ID: "b1", User: rawUser{ID: "u1", Name: "alice"}, Submission: rawSubmission{Type: "text", Value: " @alice "}},
		{ID: "b2", User: rawUser{ID: "u2", Name: "bob"}, Submission: rawSubmission{Type: "text", Value: "@bob"}},
		{ID: "b3", User: rawUser{ID: "u3", Name: "carol"}, Submission: rawSubmission{Type: "text", Value: "   "}},
	}})
	defer srv.Close()

	c := NewClient("testers", "key123", srv.URL)
	users, err := c.UsersByHandle(context.Background(), "quest-bind")
	if err != nil {
		t.Fatalf("UsersByHandle: %v", err)
	}

	if len(users) != 2 {
		t.Fatalf("expected 2 bound users, got %d", len(users))
	}
	if ref := users["@alice"]; ref.ID != "u1" {
		t.Errorf("handles are trimmed before mapping, got %+v", users)
	}
	if ref := users["@bob"]; ref.ID != "u2" || ref.Name != "bob" {
		t.Errorf("@bob = %+v", ref)
	}
}

func TestBadAPIKey(t *testing.T) {
	srv := claimsServer(t, claimsPage{})
	defer srv.Close()

	c := NewClient("testers", "wrong", srv.URL)
	if _, err := c.PendingClaims(context.Background(), time.Time{}); err == nil {
		t.Error("rejected API key must surface as an error")
	}
}
