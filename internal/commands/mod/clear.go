package mod

import (
	"time"

	"github.com/PancyStudios/PancyModGo/internal/auditlog"
	"github.com/PancyStudios/PancyModGo/internal/commands/cmdutil"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/i18n"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/bwmarrin/discordgo"
)

// bulkDeleteWindow is how old a message may be for Discord's bulk delete
const bulkDeleteWindow = 14 * 24 * time.Hour

func (h *handlers) createClearCommand() *discord.Command {
	return discord.NewCommand(
		"clear",
		"Elimina mensajes recientes del canal",
		"moderation",
		h.clearHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "amount",
			Description: "Cantidad de mensajes (1-100)",
			Required:    true,
			MinValue:    func() *float64 { v := 1.0; return &v }(),
			MaxValue:    100,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "Eliminar solo los mensajes de este usuario",
		},
	).WithUserPermissions(discordgo.PermissionManageMessages).
		WithBotPermissions(discordgo.PermissionManageMessages | discordgo.PermissionReadMessageHistory)
}

// selectForClear picks up to amount messages from msgs (newest first) that
// bulk delete accepts: younger than 14 days, not pinned and, when userID is
// set, written by that user
func selectForClear(msgs []*discordgo.Message, amount int, userID string, now time.Time) []*discordgo.Message {
	picked := make([]*discordgo.Message, 0, amount)
	for _, m := range msgs {
		if len(picked) == amount {
			break
		}
		if m.Pinned || now.Sub(m.Timestamp) >= bulkDeleteWindow {
			continue
		}
		if userID != "" && (m.Author == nil || m.Author.ID != userID) {
			continue
		}
		picked = append(picked, m)
	}
	return picked
}

func (h *handlers) clearHandler(ctx *discord.CommandContext) error {
	if err := ctx.DeferEphemeral(); err != nil {
		return err
	}

	amount := int(ctx.GetIntOption("amount"))
	if amount < 1 || amount > 100 {
		amount = 100
	}
	userID := ""
	user := ctx.GetUserOption("user")
	if user != nil {
		userID = user.ID
	}

	channelID := ctx.Interaction.ChannelID
	msgs, err := ctx.Session.ChannelMessages(channelID, 100, "", "", "", discordgo.WithContext(ctx.Context()))
	if err != nil {
		return cmdutil.Fail(ctx, "clear", err)
	}

	picked := selectForClear(msgs, amount, userID, time.Now())
	if len(picked) == 0 {
		return cmdutil.FailKey(ctx, "commands.clear.none_found", nil)
	}

	ids := make([]string, len(picked))
	for i, m := range picked {
		ids[i] = m.ID
	}
	if len(ids) == 1 {
		err = ctx.Session.ChannelMessageDelete(channelID, ids[0], discordgo.WithContext(ctx.Context()))
	} else {
		err = ctx.Session.ChannelMessagesBulkDelete(channelID, ids, discordgo.WithContext(ctx.Context()))
	}
	if err != nil {
		return cmdutil.Fail(ctx, "clear", err)
	}

	h.logTranscript(ctx, channelID, picked)

	vars := i18n.Vars{"count": len(picked)}
	key := "commands.clear.success"
	if user != nil {
		key = "commands.clear.success_user"
		vars["user"] = cmdutil.Mention(user.ID)
	}
	return ctx.EditReplyEmbed(cmdutil.Success(ctx, "commands.clear.title", ctx.T(key, vars)))
}

func (h *handlers) logTranscript(ctx *discord.CommandContext, channelID string, picked []*discordgo.Message) {
	if h.deps.Audit == nil {
		return
	}
	transcript := auditlog.Transcript(picked)
	_ = h.deps.Audit.Log(ctx.Context(), ctx.GuildID(), models.LogMessage, func(lang string) *discordgo.MessageSend {
		content := i18n.T(lang, "commands.clear.transcript", i18n.Vars{
			"count":     len(picked),
			"channel":   "<#" + channelID + ">",
			"moderator": cmdutil.Mention(moderatorID(ctx)),
		})
		return auditlog.TranscriptMessage(content, transcript)
	})
}
