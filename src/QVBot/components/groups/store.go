package groups

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/stake-plus/questcomms/src/shared/types"
	"gorm.io/gorm"
)

// Store keeps per-guild configuration and moderator subscriptions in
// memory with write-through persistence. A nil db keeps everything in
// memory only.
type Store struct {
	db      *gorm.DB
	mu      sync.RWMutex
	configs map[string]*types.GroupConfig
	mods    map[string][]types.ModeratorSub
}

func NewStore(db *gorm.DB) (*Store, error) {
	s := &Store{
		db:      db,
		configs: make(map[string]*types.GroupConfig),
		mods:    make(map[string][]types.ModeratorSub),
	}
	if db == nil {
		return s, nil
	}

	var configs []types.GroupConfig
	if err := db.Find(&configs).Error; err != nil {
		return nil, fmt.Errorf("load group configs: %w", err)
	}
	for i := range configs {
		cfg := configs[i]
		s.configs[cfg.GuildID] = &cfg
	}

	var subs []types.ModeratorSub
	if err := db.Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("load moderator subs: %w", err)
	}
	for _, sub := range subs {
		s.mods[sub.GuildID] = append(s.mods[sub.GuildID], sub)
	}

	log.Printf("Loaded %d group configs, %d moderator subscriptions", len(s.configs), len(subs))
	return s, nil
}

func defaultConfig(guildID string) *types.GroupConfig {
	return &types.GroupConfig{
		GuildID:          guildID,
		Emoji:            "📜",
		AdminEmoji:       "🔑",
		CheckEmoji:       true,
		VotesToApprove:   10,
		AutoApprove:      true,
		ShowWhoVotes:     true,
		ShowApprovedMess: true,
		LastCheck:        time.Now().UTC().AddDate(0, 0, -7),
	}
}

// Get returns the config for a guild, creating the default record on
// first interaction.
func (s *Store) Get(guildID string) types.GroupConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.configs[guildID]
	if !ok {
		cfg = defaultConfig(guildID)
		s.configs[guildID] = cfg
		s.persist(cfg)
	}
	return *cfg
}

// Exists reports whether a guild has a stored configuration without
// creating one.
func (s *Store) Exists(guildID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.configs[guildID]
	return ok
}

// Update is the typed configuration mutation path. Only non-nil fields
// are applied; validation failures reject the whole update.
type Update struct {
	Emoji            *string
	AdminEmoji       *string
	CheckEmoji       *bool
	VotesToApprove   *int
	AutoApprove      *bool
	ShowWhoVotes     *bool
	ShowApprovedMess *bool
	Admins           *[]string
	BindQuestID      *string
}

func (u Update) validate() error {
	if u.VotesToApprove != nil && *u.VotesToApprove < 1 {
		return fmt.Errorf("votes to approve must be at least 1, got %d", *u.VotesToApprove)
	}
	if u.Emoji != nil && *u.Emoji == "" {
		return fmt.Errorf("emoji must not be empty")
	}
	if u.AdminEmoji != nil && *u.AdminEmoji == "" {
		return fmt.Errorf("admin emoji must not be empty")
	}
	return nil
}

func (s *Store) Apply(guildID string, u Update) (types.GroupConfig, error) {
	if err := u.validate(); err != nil {
		return types.GroupConfig{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.configs[guildID]
	if !ok {
		cfg = defaultConfig(guildID)
		s.configs[guildID] = cfg
	}

	if u.Emoji != nil {
		cfg.Emoji = *u.Emoji
	}
	if u.AdminEmoji != nil {
		cfg.AdminEmoji = *u.AdminEmoji
	}
	if u.CheckEmoji != nil {
		cfg.CheckEmoji = *u.CheckEmoji
	}
	if u.VotesToApprove != nil {
		cfg.VotesToApprove = *u.VotesToApprove
	}
	if u.AutoApprove != nil {
		cfg.AutoApprove = *u.AutoApprove
	}
	if u.ShowWhoVotes != nil {
		cfg.ShowWhoVotes = *u.ShowWhoVotes
	}
	if u.ShowApprovedMess != nil {
		cfg.ShowApprovedMess = *u.ShowApprovedMess
	}
	if u.Admins != nil {
		cfg.Admins = strings.Join(*u.Admins, ",")
	}
	if u.BindQuestID != nil {
		cfg.BindQuestID = *u.BindQuestID
	}

	s.persist(cfg)
	return *cfg, nil
}

// SetLastCheck advances the poll checkpoint for a guild.
func (s *Store) SetLastCheck(guildID string, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.configs[guildID]
	if !ok {
		cfg = defaultConfig(guildID)
		s.configs[guildID] = cfg
	}
	cfg.LastCheck = t
	s.persist(cfg)
}

// AdminHandles returns the configured admin @handles of a guild.
func (s *Store) AdminHandles(guildID string) []string {
	cfg := s.Get(guildID)
	if cfg.Admins == "" {
		return nil
	}
	parts := strings.Split(cfg.Admins, ",")
	handles := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			handles = append(handles, p)
		}
	}
	return handles
}

func (s *Store) IsAdminHandle(guildID, handle string) bool {
	for _, h := range s.AdminHandles(guildID) {
		if strings.EqualFold(h, handle) {
			return true
		}
	}
	return false
}

// Subscribe adds a moderator to the admin-claim fan-out for a guild.
// Returns false if the moderator was already subscribed.
func (s *Store) Subscribe(guildID, userID, username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.mods[guildID] {
		if sub.UserID == userID {
			return false
		}
	}
	sub := types.ModeratorSub{GuildID: guildID, UserID: userID, Username: username}
	s.mods[guildID] = append(s.mods[guildID], sub)
	if s.db != nil {
		if err := s.db.Save(&sub).Error; err != nil {
			log.Printf("Failed to persist moderator sub %s/%s: %v", guildID, userID, err)
		}
	}
	return true
}

// Subscribers returns the moderators subscribed for a guild.
func (s *Store) Subscribers(guildID string) []types.ModeratorSub {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.ModeratorSub, len(s.mods[guildID]))
	copy(out, s.mods[guildID])
	return out
}

func (s *Store) persist(cfg *types.GroupConfig) {
	if s.db == nil {
		return
	}
	if err := s.db.Save(cfg).Error; err != nil {
		log.Printf("Failed to persist group config %s: %v", cfg.GuildID, err)
	}
}
