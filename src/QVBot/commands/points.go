package commands

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/questcomms/src/QVBot/components/quest"
)

type pointsOp int8

const (
	pointsGive pointsOp = iota + 1
	pointsTake
	pointsTip
)

func (op pointsOp) hint() string {
	switch op {
	case pointsGive:
		return "Hint: !qgive 15 @userNick"
	case pointsTake:
		return "Hint: !qtake 15 @userNick"
	default:
		return "Hint: !qtip 15 @userNick"
	}
}

func (h *Handler) handlePoints(s *discordgo.Session, m *discordgo.MessageCreate, args []string, op pointsOp) {
	if op != pointsTip && !h.isAdmin(s, m) {
		h.reply(s, m, "You are not an admin of this server.")
		return
	}

	if len(args) != 2 {
		h.reply(s, m, op.hint())
		return
	}
	amount, err := strconv.Atoi(strings.Trim(args[0], `"`))
	if err != nil || amount <= 0 {
		h.reply(s, m, op.hint())
		return
	}
	target := strings.Trim(args[1], `"`)

	if !h.rate.CanUse(m.Author.ID) {
		wait := h.rate.TimeUntilNext(m.Author.ID)
		h.reply(s, m, fmt.Sprintf("Please wait %d seconds before the next points command.", int(wait.Seconds())+1))
		return
	}

	binding, ok := h.cfg.Bindings.ByGuild(m.GuildID)
	if !ok {
		h.reply(s, m, "This server is not bound to a community.")
		return
	}
	client, ok := h.cfg.Registry.ClientFor(binding.Community)
	if !ok {
		h.reply(s, m, "The claim watcher is not running; bind the community first.")
		return
	}

	cfg := h.cfg.Groups.Get(m.GuildID)
	if cfg.BindQuestID == "" {
		h.reply(s, m, "No bindQuestId configured; an admin must set it via !qconfig.")
		return
	}

	users, err := client.UsersByHandle(h.cfg.Ctx, cfg.BindQuestID)
	if err != nil {
		log.Printf("Failed to resolve handles for %s: %v", binding.Community, err)
		h.reply(s, m, "Could not reach the quest platform, try again later.")
		return
	}

	recipient, ok := users[target]
	if !ok {
		h.reply(s, m, fmt.Sprintf("Handle %s is not linked; the user must complete quest %s first.", target, cfg.BindQuestID))
		return
	}

	actor := "@" + m.Author.Username

	switch op {
	case pointsGive:
		err := client.GivePoints(h.cfg.Ctx, recipient.ID, amount, "Points from Discord", "Given by admin "+actor)
		if err != nil {
			log.Printf("Give points failed: %v", err)
			h.reply(s, m, "Could not credit the points, try again later.")
			return
		}
		h.reply(s, m, fmt.Sprintf("Gave %d points to %s.", amount, target))

	case pointsTake:
		err := client.RemovePoints(h.cfg.Ctx, recipient.ID, amount, "Points to Discord", "Removed by admin "+actor)
		if errors.Is(err, quest.ErrInsufficientBalance) {
			h.reply(s, m, fmt.Sprintf("%s does not have %d points to remove.", target, amount))
			return
		}
		if err != nil {
			log.Printf("Remove points failed: %v", err)
			h.reply(s, m, "Could not remove the points, try again later.")
			return
		}
		h.reply(s, m, fmt.Sprintf("Removed %d points from %s.", amount, target))

	case pointsTip:
		h.transfer(s, m, client, users, actor, target, amount)
	}
}

// transfer debits the donor first, then credits the recipient. If the
// credit fails the donor is re-credited; losing points entirely needs
// both the credit and the compensation to fail.
func (h *Handler) transfer(s *discordgo.Session, m *discordgo.MessageCreate, client *quest.Client, users map[string]quest.UserRef, donorHandle, target string, amount int) {
	donor, ok := users[donorHandle]
	if !ok {
		h.reply(s, m, fmt.Sprintf("Your handle %s is not linked; complete the binding quest first.", donorHandle))
		return
	}

	err := client.RemovePoints(h.cfg.Ctx, donor.ID, amount, "Points to Discord", "Tip to "+target)
	if errors.Is(err, quest.ErrInsufficientBalance) {
		h.reply(s, m, fmt.Sprintf("Cannot transfer %d points: not enough balance.", amount))
		return
	}
	if err != nil {
		log.Printf("Transfer debit failed: %v", err)
		h.reply(s, m, "Could not start the transfer, try again later.")
		return
	}

	recipient := users[target]
	if err := client.GivePoints(h.cfg.Ctx, recipient.ID, amount, "Points from Discord", "Tip from "+donorHandle); err != nil {
		log.Printf("Transfer credit failed, compensating donor %s: %v", donorHandle, err)
		if compErr := client.GivePoints(h.cfg.Ctx, donor.ID, amount, "Points from Discord", "Refund of failed tip"); compErr != nil {
			log.Printf("Compensation for %s failed, %d points lost upstream: %v", donorHandle, amount, compErr)
		}
		h.reply(s, m, "The transfer failed and was rolled back.")
		return
	}

	h.reply(s, m, fmt.Sprintf("Transferred %d points from %s to %s.", amount, donorHandle, target))
}
