package quest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.zealy.io/communities/"

// ErrInsufficientBalance is returned by RemovePoints when the debit
// would take the user below zero. It is a business outcome, not a
// transport failure.
var ErrInsufficientBalance = errors.New("insufficient point balance")

// Client talks to one quest community with its API key.
type Client struct {
	community string
	apiKey    string
	baseURL   string
	client    *http.Client
}

func NewClient(community, apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		community: community,
		apiKey:    apiKey,
		baseURL:   baseURL + community + "/",
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *Client) Community() string { return c.community }

// PendingClaims returns pending claims updated strictly after since,
// ordered by update time ascending.
func (c *Client) PendingClaims(ctx context.Context, since time.Time) ([]ClaimRecord, error) {
	var page claimsPage
	if err := c.get(ctx, "claimed-quests?status=pending&sortBy=updatedAt", &page); err != nil {
		return nil, fmt.Errorf("list pending claims: %w", err)
	}

	var claims []ClaimRecord
	for i := range page.Data {
		raw := &page.Data[i]
		if !raw.UpdatedAt.After(since) {
			continue
		}
		log.Printf("[%s] Found new claim %s (quest %s): %s", c.community, raw.ID, raw.QuestID, raw.Name)
		claims = append(claims, c.normalize(raw))
	}
	sort.Slice(claims, func(i, j int) bool { return claims[i].UpdatedAt.Before(claims[j].UpdatedAt) })
	return claims, nil
}

// normalize maps a raw claim to a ClaimRecord. Unknown reward or
// submission types degrade to zero points / KindUnsupported with a
// warning so new platform features cannot break ingestion.
func (c *Client) normalize(raw *rawClaim) ClaimRecord {
	rec := ClaimRecord{
		Community:     c.community,
		ID:            raw.ID,
		QuestID:       raw.QuestID,
		Name:          raw.Name,
		SubmitterID:   raw.User.ID,
		SubmitterName: raw.User.Name,
		UpdatedAt:     raw.UpdatedAt,
	}

	if len(raw.Reward) > 1 {
		log.Printf("[%s] claim %s carries %d rewards, using the first", c.community, raw.ID, len(raw.Reward))
	}
	if len(raw.Reward) > 0 {
		switch raw.Reward[0].Type {
		case "xp":
			rec.Points = raw.Reward[0].Value
		default:
			log.Printf("[%s] unknown reward type %q on claim %s", c.community, raw.Reward[0].Type, raw.ID)
		}
	}

	switch raw.Submission.Type {
	case "url":
		rec.Submission = Submission{Kind: KindURL, Value: raw.Submission.Value}
	case "text":
		rec.Submission = Submission{Kind: KindText, Value: raw.Submission.Value}
	case "image":
		rec.Submission = Submission{Kind: KindImage, Value: raw.Submission.Value}
	case "none", "":
		rec.Submission = Submission{Kind: KindNone}
	default:
		log.Printf("[%s] unknown submission type %q on claim %s", c.community, raw.Submission.Type, raw.ID)
		rec.Submission = Submission{Kind: KindUnsupported, Value: raw.Submission.Value}
	}

	return rec
}

// SubmitReview applies a review decision to a claim. The core calls
// this at most once per claim; a duplicate call for an already
// resolved claim comes back as an error from the platform.
func (c *Client) SubmitReview(ctx context.Context, claimID string, status ReviewStatus, comment string) error {
	payload := map[string]interface{}{
		"status":          string(status),
		"claimedQuestIds": []string{claimID},
		"comment":         comment,
	}
	if err := c.post(ctx, http.MethodPost, "claimed-quests/review", payload, nil); err != nil {
		return fmt.Errorf("review claim %s: %w", claimID, err)
	}
	log.Printf("[%s] review submitted for claim %s: %s", c.community, claimID, status)
	return nil
}

// GivePoints credits amount points to a platform user.
func (c *Client) GivePoints(ctx context.Context, userID string, amount int, label, description string) error {
	payload := map[string]interface{}{"label": label, "xp": amount, "description": description}
	if err := c.post(ctx, http.MethodPost, "users/"+url.PathEscape(userID)+"/xp", payload, nil); err != nil {
		return fmt.Errorf("give %d points to %s: %w", amount, userID, err)
	}
	log.Printf("[%s] gave %d points to %s", c.community, amount, userID)
	return nil
}

// RemovePoints debits amount points from a platform user. A debit the
// platform refuses (balance would go negative) is reported as
// ErrInsufficientBalance.
func (c *Client) RemovePoints(ctx context.Context, userID string, amount int, label, description string) error {
	payload := map[string]interface{}{"label": label, "xp": amount, "description": description}
	err := c.post(ctx, http.MethodDelete, "users/"+url.PathEscape(userID)+"/xp", payload, nil)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code >= 400 && se.code < 500 {
			return ErrInsufficientBalance
		}
		return fmt.Errorf("remove %d points from %s: %w", amount, userID, err)
	}
	log.Printf("[%s] removed %d points from %s", c.community, amount, userID)
	return nil
}

// UsersByHandle builds the chat-handle to platform-user mapping by
// scanning successful claims of the designated binding quest.
func (c *Client) UsersByHandle(ctx context.Context, bindQuestID string) (map[string]UserRef, error) {
	path := fmt.Sprintf("claimed-quests?quest_id=%s&status=success", url.QueryEscape(bindQuestID))
	var page claimsPage
	if err := c.get(ctx, path, &page); err != nil {
		return nil, fmt.Errorf("scan binding quest %s: %w", bindQuestID, err)
	}

	users := make(map[string]UserRef, len(page.Data))
	for i := range page.Data {
		raw := &page.Data[i]
		handle := strings.TrimSpace(raw.Submission.Value)
		if handle == "" {
			continue
		}
		users[handle] = UserRef{ID: raw.User.ID, Name: raw.User.Name}
	}
	return users, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.code, e.body)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, method, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(snippet))}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
