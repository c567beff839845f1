package bindings

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stake-plus/questcomms/src/shared/types"
	"gorm.io/gorm"
)

// Store keeps community-to-guild bindings, keyed by community name.
type Store struct {
	db     *gorm.DB
	mu     sync.RWMutex
	byName map[string]*types.CommunityBinding
}

func NewStore(db *gorm.DB) (*Store, error) {
	s := &Store{db: db, byName: make(map[string]*types.CommunityBinding)}
	if db == nil {
		return s, nil
	}

	var rows []types.CommunityBinding
	if err := db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load community bindings: %w", err)
	}
	for i := range rows {
		row := rows[i]
		s.byName[row.Community] = &row
	}
	log.Printf("Loaded %d community bindings", len(rows))
	return s, nil
}

// Create registers a new binding request and returns its one-time
// token. Fails if the community is already bound or pending.
func (s *Store) Create(community, guildID, channelID, initiatorID, initiatorName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[community]; ok {
		return "", fmt.Errorf("community %s is already connected", community)
	}

	binding := &types.CommunityBinding{
		Community:     community,
		GuildID:       guildID,
		ChannelID:     channelID,
		RequestToken:  uuid.NewString(),
		InitiatorID:   initiatorID,
		InitiatorName: initiatorName,
		CreatedAt:     time.Now().UTC(),
	}
	s.byName[community] = binding
	s.persist(binding)
	return binding.RequestToken, nil
}

// Authorize checks the one-time token and stores the API credential.
func (s *Store) Authorize(community, token, apiKey string) (types.CommunityBinding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	binding, ok := s.byName[community]
	if !ok {
		return types.CommunityBinding{}, fmt.Errorf("unknown community %s, run the init command first", community)
	}
	if token == "" || token != binding.RequestToken {
		return types.CommunityBinding{}, fmt.Errorf("incorrect token for %s", community)
	}
	binding.APIKey = apiKey
	s.persist(binding)
	return *binding, nil
}

// Get returns the binding for a community.
func (s *Store) Get(community string) (types.CommunityBinding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	binding, ok := s.byName[community]
	if !ok {
		return types.CommunityBinding{}, false
	}
	return *binding, true
}

// ByGuild returns the binding attached to a guild.
func (s *Store) ByGuild(guildID string) (types.CommunityBinding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, binding := range s.byName {
		if binding.GuildID == guildID {
			return *binding, true
		}
	}
	return types.CommunityBinding{}, false
}

// Authorized returns every binding that already holds a credential,
// used to resume watchers after a restart.
func (s *Store) Authorized() []types.CommunityBinding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.CommunityBinding
	for _, binding := range s.byName {
		if binding.APIKey != "" {
			out = append(out, *binding)
		}
	}
	return out
}

func (s *Store) persist(binding *types.CommunityBinding) {
	if s.db == nil {
		return
	}
	if err := s.db.Save(binding).Error; err != nil {
		log.Printf("Failed to persist binding %s: %v", binding.Community, err)
	}
}
