package ledger

import (
	"fmt"
	"log"
	"sync"

	"github.com/stake-plus/questcomms/src/shared/types"
	"gorm.io/gorm"
)

// Route is the explicit claim lifecycle state after ingestion. A claim
// id present in the service is routed and unresolved; absence means
// not yet seen or already resolved.
type Route int8

const (
	RouteCommunity Route = iota + 1
	RouteModerators
)

type ModeratorCopy struct {
	UserID    string
	ChannelID string
	MessageID string
}

// Entry is the mutable voting/routing record tracked per claim until
// resolution.
type Entry struct {
	ClaimID       string
	GuildID       string
	Community     string
	Route         Route
	ClaimName     string
	SubmitterID   string
	SubmitterName string
	ChannelID     string
	MessageID     string
	Likes         map[string]string // voter id -> display name
	Dislikes      map[string]string
	Copies        []ModeratorCopy
}

type Counts struct {
	Likes    int
	Dislikes int
}

func (c Counts) Score() int { return c.Likes - c.Dislikes }

func (e *Entry) counts() Counts {
	return Counts{Likes: len(e.Likes), Dislikes: len(e.Dislikes)}
}

// HasModeratorCopy reports whether a moderator received a copy of the
// claim, which is what entitles them to decide it.
func (e *Entry) HasModeratorCopy(userID string) bool {
	for _, c := range e.Copies {
		if c.UserID == userID {
			return true
		}
	}
	return false
}

// Service is the single source of truth for unresolved claims. All
// read-modify-write cycles run under one mutex; contention is low
// enough that a store-wide lock is fine. A nil db keeps the ledger in
// memory only.
type Service struct {
	db      *gorm.DB
	mu      sync.Mutex
	entries map[string]*Entry
}

func NewService(db *gorm.DB) (*Service, error) {
	s := &Service{db: db, entries: make(map[string]*Entry)}
	if db == nil {
		return s, nil
	}

	var rows []types.LedgerEntry
	if err := db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load ledger entries: %w", err)
	}
	for _, row := range rows {
		s.entries[row.ClaimID] = &Entry{
			ClaimID:       row.ClaimID,
			GuildID:       row.GuildID,
			Community:     row.Community,
			Route:         Route(row.Route),
			ClaimName:     row.ClaimName,
			SubmitterID:   row.SubmitterID,
			SubmitterName: row.SubmitterName,
			ChannelID:     row.ChannelID,
			MessageID:     row.MessageID,
			Likes:         make(map[string]string),
			Dislikes:      make(map[string]string),
		}
	}

	var votes []types.LedgerVote
	if err := db.Find(&votes).Error; err != nil {
		return nil, fmt.Errorf("load ledger votes: %w", err)
	}
	for _, v := range votes {
		entry, ok := s.entries[v.ClaimID]
		if !ok {
			continue
		}
		if v.Like {
			entry.Likes[v.VoterID] = v.VoterName
		} else {
			entry.Dislikes[v.VoterID] = v.VoterName
		}
	}

	var copies []types.ModeratorCopy
	if err := db.Find(&copies).Error; err != nil {
		return nil, fmt.Errorf("load moderator copies: %w", err)
	}
	for _, c := range copies {
		entry, ok := s.entries[c.ClaimID]
		if !ok {
			continue
		}
		entry.Copies = append(entry.Copies, ModeratorCopy{
			UserID:    c.UserID,
			ChannelID: c.ChannelID,
			MessageID: c.MessageID,
		})
	}

	log.Printf("Loaded %d unresolved ledger entries", len(s.entries))
	return s, nil
}

// Add inserts a fresh entry. Returns false without touching anything
// when the claim id is already tracked; this is the re-ingestion guard
// that absorbs checkpoint overlap.
func (s *Service) Add(e Entry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[e.ClaimID]; ok {
		return false
	}
	if e.Likes == nil {
		e.Likes = make(map[string]string)
	}
	if e.Dislikes == nil {
		e.Dislikes = make(map[string]string)
	}
	s.entries[e.ClaimID] = &e

	if s.db != nil {
		row := types.LedgerEntry{
			ClaimID:       e.ClaimID,
			GuildID:       e.GuildID,
			Community:     e.Community,
			Route:         int8(e.Route),
			ClaimName:     e.ClaimName,
			SubmitterID:   e.SubmitterID,
			SubmitterName: e.SubmitterName,
			ChannelID:     e.ChannelID,
			MessageID:     e.MessageID,
		}
		if err := s.db.Create(&row).Error; err != nil {
			log.Printf("Failed to persist ledger entry %s: %v", e.ClaimID, err)
		}
		for _, c := range e.Copies {
			copyRow := types.ModeratorCopy{
				ClaimID:   e.ClaimID,
				UserID:    c.UserID,
				ChannelID: c.ChannelID,
				MessageID: c.MessageID,
			}
			if err := s.db.Create(&copyRow).Error; err != nil {
				log.Printf("Failed to persist moderator copy %s/%s: %v", e.ClaimID, c.UserID, err)
			}
		}
	}
	return true
}

// Get returns a snapshot of the entry for a claim.
func (s *Service) Get(claimID string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[claimID]
	if !ok {
		return Entry{}, false
	}
	return entry.snapshot(), true
}

// Toggle applies one voter's like/dislike toggle: voting the side the
// voter is already on removes the vote, voting the other side moves
// it. Returns the post-toggle snapshot and counts. ok is false when
// the claim is not tracked (stale vote).
func (s *Service) Toggle(claimID, voterID, voterName string, like bool) (Entry, Counts, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[claimID]
	if !ok {
		return Entry{}, Counts{}, false
	}

	chosen, opposite := entry.Likes, entry.Dislikes
	if !like {
		chosen, opposite = entry.Dislikes, entry.Likes
	}

	if _, voted := chosen[voterID]; voted {
		delete(chosen, voterID)
		s.deleteVote(claimID, voterID)
	} else {
		delete(opposite, voterID)
		chosen[voterID] = voterName
		s.saveVote(claimID, voterID, voterName, like)
	}

	return entry.snapshot(), entry.counts(), true
}

// Remove deletes the entry for a claim and returns its final state.
// The first caller wins; later callers see ok=false. Resolution is the
// only caller.
func (s *Service) Remove(claimID string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[claimID]
	if !ok {
		return Entry{}, false
	}
	delete(s.entries, claimID)

	if s.db != nil {
		if err := s.db.Delete(&types.LedgerEntry{}, "claim_id = ?", claimID).Error; err != nil {
			log.Printf("Failed to delete ledger entry %s: %v", claimID, err)
		}
		if err := s.db.Delete(&types.LedgerVote{}, "claim_id = ?", claimID).Error; err != nil {
			log.Printf("Failed to delete ledger votes %s: %v", claimID, err)
		}
		if err := s.db.Delete(&types.ModeratorCopy{}, "claim_id = ?", claimID).Error; err != nil {
			log.Printf("Failed to delete moderator copies %s: %v", claimID, err)
		}
	}
	return entry.snapshot(), true
}

// Len reports the number of unresolved claims.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (e *Entry) snapshot() Entry {
	out := *e
	out.Likes = make(map[string]string, len(e.Likes))
	for k, v := range e.Likes {
		out.Likes[k] = v
	}
	out.Dislikes = make(map[string]string, len(e.Dislikes))
	for k, v := range e.Dislikes {
		out.Dislikes[k] = v
	}
	out.Copies = make([]ModeratorCopy, len(e.Copies))
	copy(out.Copies, e.Copies)
	return out
}

func (s *Service) saveVote(claimID, voterID, voterName string, like bool) {
	if s.db == nil {
		return
	}
	// Upsert: the voter may be switching sides.
	s.db.Delete(&types.LedgerVote{}, "claim_id = ? AND voter_id = ?", claimID, voterID)
	row := types.LedgerVote{ClaimID: claimID, VoterID: voterID, VoterName: voterName, Like: like}
	if err := s.db.Create(&row).Error; err != nil {
		log.Printf("Failed to persist vote %s/%s: %v", claimID, voterID, err)
	}
}

func (s *Service) deleteVote(claimID, voterID string) {
	if s.db == nil {
		return
	}
	if err := s.db.Delete(&types.LedgerVote{}, "claim_id = ? AND voter_id = ?", claimID, voterID).Error; err != nil {
		log.Printf("Failed to delete vote %s/%s: %v", claimID, voterID, err)
	}
}
