package bot

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"
	"github.com/stake-plus/questcomms/src/QVBot/commands"
	"github.com/stake-plus/questcomms/src/QVBot/components/bindings"
	"github.com/stake-plus/questcomms/src/QVBot/components/chat"
	qdiscord "github.com/stake-plus/questcomms/src/QVBot/components/discord"
	"github.com/stake-plus/questcomms/src/QVBot/components/groups"
	"github.com/stake-plus/questcomms/src/QVBot/components/ledger"
	"github.com/stake-plus/questcomms/src/QVBot/components/quest"
	"github.com/stake-plus/questcomms/src/QVBot/components/resolver"
	"github.com/stake-plus/questcomms/src/QVBot/components/router"
	"github.com/stake-plus/questcomms/src/QVBot/components/tally"
	"github.com/stake-plus/questcomms/src/QVBot/components/watcher"
	"github.com/stake-plus/questcomms/src/shared/data"
	"gorm.io/gorm"
)

type Config struct {
	Token        string
	DB           *gorm.DB
	Redis        *redis.Client
	QuestBaseURL string
	PollInterval time.Duration
}

type Bot struct {
	session  *discordgo.Session
	config   Config
	groups   *groups.Store
	bindings *bindings.Store
	ledger   *ledger.Service
	registry *watcher.Registry
	router   *router.Router
	tally    *tally.Engine
	commands *commands.Handler
	ctx      context.Context
	cancel   context.CancelFunc
}

func New(config Config) (*Bot, error) {
	if err := data.LoadSettings(config.DB); err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	b := &Bot{
		session: dg,
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
	}

	if err := b.initializeComponents(); err != nil {
		cancel()
		return nil, err
	}

	dg.AddHandler(b.handleReady)
	dg.AddHandler(b.commands.HandleMessage)
	dg.AddHandler(b.handleInteraction)

	dg.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuilds |
		discordgo.IntentsDirectMessages

	return b, nil
}

func (b *Bot) initializeComponents() error {
	groupStore, err := groups.NewStore(b.config.DB)
	if err != nil {
		return fmt.Errorf("create group store: %w", err)
	}
	b.groups = groupStore

	bindingStore, err := bindings.NewStore(b.config.DB)
	if err != nil {
		return fmt.Errorf("create binding store: %w", err)
	}
	b.bindings = bindingStore

	ledgerSvc, err := ledger.NewService(b.config.DB)
	if err != nil {
		return fmt.Errorf("create ledger: %w", err)
	}
	b.ledger = ledgerSvc

	b.registry = watcher.NewRegistry()
	msgr := qdiscord.NewMessenger(b.session)

	applier := resolver.New(b.ledger, b.groups, msgr, b.registry, b.config.Redis)
	b.tally = tally.New(b.ledger, b.groups, msgr, applier)
	b.router = router.New(b.ledger, b.groups, msgr)

	b.commands = commands.NewHandler(commands.Config{
		Groups:       b.groups,
		Bindings:     b.bindings,
		Registry:     b.registry,
		Router:       b.router,
		QuestBaseURL: b.config.QuestBaseURL,
		PollInterval: b.config.PollInterval,
		Ctx:          b.ctx,
	})

	return nil
}

func (b *Bot) Start() error {
	return b.session.Open()
}

// Stop cancels the watchers, waits for in-flight ticks and
// resolutions, then closes the session.
func (b *Bot) Stop() {
	b.cancel()
	b.registry.StopAll()
	b.session.Close()
}

func (b *Bot) handleReady(s *discordgo.Session, event *discordgo.Ready) {
	log.Printf("Discord bot logged in as %s", event.User.Username)
	b.resumeWatchers()
}

// resumeWatchers restarts a watcher for every binding that already
// holds a credential. Checkpoints come from the stored configs, so a
// restart picks up where the previous process stopped.
func (b *Bot) resumeWatchers() {
	for _, binding := range b.bindings.Authorized() {
		client := quest.NewClient(binding.Community, binding.APIKey, b.config.QuestBaseURL)
		w := watcher.New(binding, client, b.router, b.groups, b.config.PollInterval)
		b.registry.Register(b.ctx, binding.GuildID, client, w)
		log.Printf("Resumed watcher for community %s (guild %s)", binding.Community, binding.GuildID)
	}
}

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}

	action, claimID, ok := chat.ParseCustomID(i.MessageComponentData().CustomID)
	if !ok {
		return
	}

	// Ack immediately; the edits below carry the visible result.
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		log.Printf("Failed to ack interaction for %s: %v", claimID, err)
	}

	user := i.User
	if i.Member != nil {
		user = i.Member.User
	}
	if user == nil || user.Bot {
		return
	}

	switch action {
	case chat.ActionLike:
		b.tally.HandleVote(b.ctx, claimID, user.ID, user.Username, true)
	case chat.ActionDislike:
		b.tally.HandleVote(b.ctx, claimID, user.ID, user.Username, false)
	case chat.ActionModeratorApprove:
		b.tally.HandleModeratorVote(b.ctx, claimID, user.ID, user.Username, true)
	case chat.ActionModeratorDeny:
		b.tally.HandleModeratorVote(b.ctx, claimID, user.ID, user.Username, false)
	}
}
