package commands

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/questcomms/src/QVBot/components/bindings"
	"github.com/stake-plus/questcomms/src/QVBot/components/groups"
	"github.com/stake-plus/questcomms/src/QVBot/components/quest"
	"github.com/stake-plus/questcomms/src/QVBot/components/router"
	"github.com/stake-plus/questcomms/src/QVBot/components/watcher"
)

const prefix = "!q"

type Config struct {
	Groups       *groups.Store
	Bindings     *bindings.Store
	Registry     *watcher.Registry
	Router       *router.Router
	QuestBaseURL string
	PollInterval time.Duration
	Ctx          context.Context
}

// Handler owns the chat command surface. Command errors are direct
// replies; they never touch the ledger or the schedulers.
type Handler struct {
	cfg  Config
	rate *RateLimiter
}

func NewHandler(cfg Config) *Handler {
	if cfg.Ctx == nil {
		cfg.Ctx = context.Background()
	}
	return &Handler{cfg: cfg, rate: NewRateLimiter(30 * time.Second)}
}

func (h *Handler) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}
	if !strings.HasPrefix(m.Content, prefix) {
		return
	}

	fields := strings.Fields(m.Content)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "!qhelp":
		h.reply(s, m, helpText)
	case "!qinit":
		h.handleInit(s, m, args)
	case "!qbind":
		h.handleBind(s, m, args)
	case "!qconfig":
		h.handleConfig(s, m, args)
	case "!qsubscribe":
		h.handleSubscribe(s, m)
	case "!qgive":
		h.handlePoints(s, m, args, pointsGive)
	case "!qtake":
		h.handlePoints(s, m, args, pointsTake)
	case "!qtip":
		h.handlePoints(s, m, args, pointsTip)
	}
}

const helpText = "Commands:\n" +
	"!qinit <community> — connect this channel to a quest community (admins)\n" +
	"!qbind <community> <token> <apiKey> — finish the connection (see your DM)\n" +
	"!qconfig [key:value …] — show or change the review settings (admins)\n" +
	"  keys: emoji adminEmoji checkEmoji likesToApprove autoApprove showWhoVotes showApprovedMess admins bindQuestId\n" +
	"!qsubscribe — receive admin-marked claims in private (listed admins)\n" +
	"!qgive <points> @handle — credit points (admins)\n" +
	"!qtake <points> @handle — debit points (admins)\n" +
	"!qtip <points> @handle — transfer your own points\n" +
	"!qhelp — this text"

func (h *Handler) reply(s *discordgo.Session, m *discordgo.MessageCreate, text string) {
	if _, err := s.ChannelMessageSend(m.ChannelID, text); err != nil {
		log.Printf("Failed to reply in %s: %v", m.ChannelID, err)
	}
}

// isAdmin accepts the guild owner, anyone with Manage Server, and the
// handles listed in the group config.
func (h *Handler) isAdmin(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	if guild, err := s.State.Guild(m.GuildID); err == nil && guild.OwnerID == m.Author.ID {
		return true
	}
	if perms, err := s.UserChannelPermissions(m.Author.ID, m.ChannelID); err == nil {
		if perms&discordgo.PermissionManageServer != 0 {
			return true
		}
	}
	return h.cfg.Groups.IsAdminHandle(m.GuildID, "@"+m.Author.Username)
}

func (h *Handler) handleInit(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if !h.isAdmin(s, m) {
		h.reply(s, m, "You are not an admin of this server.")
		return
	}
	if len(args) != 1 {
		h.reply(s, m, "Usage: !qinit <communityName> (the subdomain in the community URL)")
		return
	}

	community := strings.Trim(args[0], `"`)
	token, err := h.cfg.Bindings.Create(community, m.GuildID, m.ChannelID, m.Author.ID, m.Author.Username)
	if err != nil {
		h.reply(s, m, err.Error())
		return
	}

	h.reply(s, m, fmt.Sprintf("Connecting to community %s. Check your DM for the API key request.", community))

	dm, err := s.UserChannelCreate(m.Author.ID)
	if err != nil {
		h.reply(s, m, "Could not open a DM with you; enable direct messages and retry.")
		return
	}
	_, err = s.ChannelMessageSend(dm.ID, fmt.Sprintf(
		"Enter the API key to bind this server to community %s:\n!qbind %s %s <insertApiKeyHere>",
		community, community, token))
	if err != nil {
		log.Printf("Failed to DM bind instructions to %s: %v", m.Author.ID, err)
	}
}

func (h *Handler) handleBind(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if len(args) != 3 {
		h.reply(s, m, "Usage: !qbind <communityName> <token> <apiKey>")
		return
	}

	community := strings.Trim(args[0], `"`)
	binding, err := h.cfg.Bindings.Authorize(community, args[1], args[2])
	if err != nil {
		h.reply(s, m, err.Error())
		return
	}

	client := quest.NewClient(binding.Community, binding.APIKey, h.cfg.QuestBaseURL)
	w := watcher.New(binding, client, h.cfg.Router, h.cfg.Groups, h.cfg.PollInterval)
	h.cfg.Registry.Register(h.cfg.Ctx, binding.GuildID, client, w)

	h.reply(s, m, fmt.Sprintf("All set, the claim watcher is running for %s.", community))
}

func (h *Handler) handleConfig(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if !h.isAdmin(s, m) {
		h.reply(s, m, "You are not an admin of this server.")
		return
	}

	if len(args) == 0 {
		if !h.cfg.Groups.Exists(m.GuildID) {
			h.reply(s, m, "No configuration for this server yet.")
			return
		}
		h.reply(s, m, configText(h.cfg.Groups.Get(m.GuildID)))
		return
	}

	update, err := parseUpdate(args)
	if err != nil {
		h.reply(s, m, err.Error())
		return
	}
	cfg, err := h.cfg.Groups.Apply(m.GuildID, update)
	if err != nil {
		h.reply(s, m, err.Error())
		return
	}
	h.reply(s, m, configText(cfg))
}

func (h *Handler) handleSubscribe(s *discordgo.Session, m *discordgo.MessageCreate) {
	if !h.cfg.Groups.Exists(m.GuildID) {
		h.reply(s, m, "No configuration for this server yet.")
		return
	}
	if !h.cfg.Registry.Active(m.GuildID) {
		h.reply(s, m, "The claim watcher is not running; bind the community first.")
		return
	}
	if !h.cfg.Groups.IsAdminHandle(m.GuildID, "@"+m.Author.Username) {
		h.reply(s, m, "You are not a listed admin; ask for admins:@you in !qconfig.")
		return
	}

	cfg := h.cfg.Groups.Get(m.GuildID)
	if h.cfg.Groups.Subscribe(m.GuildID, m.Author.ID, m.Author.Username) {
		h.reply(s, m, fmt.Sprintf("You are subscribed to claims marked %s.", cfg.AdminEmoji))
	} else {
		h.reply(s, m, fmt.Sprintf("You are already subscribed to %s.", cfg.AdminEmoji))
	}
}
