package mod

import (
	"context"

	"github.com/PancyStudios/PancyModGo/internal/commands/cmdutil"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/i18n"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

type voiceFunc func(ctx context.Context, req moderation.VoiceRequest) (*moderation.VoiceResult, error)

func voiceCommand(name, description, successKey string, action voiceFunc) *discord.Command {
	return discord.NewCommand(
		name,
		description,
		"moderation",
		func(ctx *discord.CommandContext) error {
			if err := ctx.Defer(); err != nil {
				return err
			}
			user := target(ctx)
			if user == nil {
				return nil
			}
			res, err := action(ctx.Context(), moderation.VoiceRequest{
				GuildID:     ctx.GuildID(),
				UserID:      user.ID,
				ModeratorID: moderatorID(ctx),
				Reason:      cmdutil.Reason(ctx),
			})
			if err != nil {
				return cmdutil.Fail(ctx, "voice "+name, err)
			}
			return ctx.EditReplyEmbed(cmdutil.Success(ctx, "commands.voice.title",
				ctx.T(successKey, i18n.Vars{"user": cmdutil.Mention(user.ID), "count": res.Channels})))
		},
	).WithOptions(
		cmdutil.UserOption("Miembro"),
		cmdutil.ReasonOption(),
	).WithUserPermissions(discordgo.PermissionVoiceMoveMembers).
		WithBotPermissions(discordgo.PermissionVoiceMoveMembers | discordgo.PermissionManageChannels).
		RequiresDatabase()
}

func (h *handlers) createVoiceKickCommand() *discord.Command {
	return voiceCommand("kick", "Desconecta a un miembro de voz", "commands.voice.kick_success", h.deps.Moderation.VoiceKick)
}

func (h *handlers) createVoiceBanCommand() *discord.Command {
	return voiceCommand("ban", "Impide a un miembro entrar en los canales de voz", "commands.voice.ban_success", h.deps.Moderation.VoiceBan)
}

func (h *handlers) createVoiceUnbanCommand() *discord.Command {
	return voiceCommand("unban", "Permite de nuevo a un miembro entrar en voz", "commands.voice.unban_success", h.deps.Moderation.VoiceUnban)
}
