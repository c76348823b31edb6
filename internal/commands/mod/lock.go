package mod

import (
	"github.com/PancyStudios/PancyModGo/internal/commands/cmdutil"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/i18n"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

func channelOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionChannel,
		Name:        "channel",
		Description: description,
		ChannelTypes: []discordgo.ChannelType{
			discordgo.ChannelTypeGuildText,
			discordgo.ChannelTypeGuildNews,
			discordgo.ChannelTypeGuildVoice,
			discordgo.ChannelTypeGuildStageVoice,
			discordgo.ChannelTypeGuildForum,
			discordgo.ChannelTypeGuildPublicThread,
			discordgo.ChannelTypeGuildPrivateThread,
		},
	}
}

// lockTarget returns the channel option or the channel the command ran in
func lockTarget(ctx *discord.CommandContext) string {
	if ch := ctx.GetChannelOption("channel"); ch != nil {
		return ch.ID
	}
	return ctx.Interaction.ChannelID
}

func (h *handlers) createLockCommand() *discord.Command {
	return discord.NewCommand(
		"lock",
		"Bloquea un canal para @everyone",
		"moderation",
		h.lockHandler,
	).WithOptions(
		channelOption("Canal a bloquear (el actual por defecto)"),
		cmdutil.ReasonOption(),
	).WithUserPermissions(discordgo.PermissionManageChannels).
		WithBotPermissions(discordgo.PermissionManageChannels | discordgo.PermissionManageRoles)
}

func (h *handlers) lockHandler(ctx *discord.CommandContext) error {
	if err := ctx.Defer(); err != nil {
		return err
	}
	channelID := lockTarget(ctx)
	res, err := h.deps.Moderation.Lock(ctx.Context(), moderation.LockRequest{
		GuildID:     ctx.GuildID(),
		ChannelID:   channelID,
		ModeratorID: moderatorID(ctx),
		Reason:      cmdutil.Reason(ctx),
	})
	if err != nil {
		return cmdutil.Fail(ctx, "lock", err)
	}

	desc := ctx.T("commands.lock.success", i18n.Vars{"channel": "<#" + channelID + ">"})
	if len(res.Swept) > 0 {
		desc += "\n" + ctx.T("commands.lock.swept", i18n.Vars{"count": len(res.Swept)})
	}
	if res.MemberOverride != "" {
		desc += "\n" + ctx.T("commands.lock.member_override", i18n.Vars{"user": cmdutil.Mention(res.MemberOverride)})
	}
	embed := cmdutil.Success(ctx, "commands.lock.title", desc)
	embed.Color = cmdutil.ColorWarning
	return ctx.EditReplyEmbed(embed)
}

func (h *handlers) createUnlockCommand() *discord.Command {
	return discord.NewCommand(
		"unlock",
		"Desbloquea un canal",
		"moderation",
		h.unlockHandler,
	).WithOptions(
		channelOption("Canal a desbloquear (el actual por defecto)"),
		cmdutil.ReasonOption(),
	).WithUserPermissions(discordgo.PermissionManageChannels).
		WithBotPermissions(discordgo.PermissionManageChannels | discordgo.PermissionManageRoles)
}

func (h *handlers) unlockHandler(ctx *discord.CommandContext) error {
	if err := ctx.Defer(); err != nil {
		return err
	}
	channelID := lockTarget(ctx)
	if _, err := h.deps.Moderation.Unlock(ctx.Context(), moderation.LockRequest{
		GuildID:     ctx.GuildID(),
		ChannelID:   channelID,
		ModeratorID: moderatorID(ctx),
		Reason:      cmdutil.Reason(ctx),
	}); err != nil {
		return cmdutil.Fail(ctx, "unlock", err)
	}
	return ctx.EditReplyEmbed(cmdutil.Success(ctx, "commands.unlock.title",
		ctx.T("commands.unlock.success", i18n.Vars{"channel": "<#" + channelID + ">"})))
}

func (h *handlers) createSetupMuteCommand() *discord.Command {
	return discord.NewCommand(
		"setupmute",
		"Crea o configura el rol de mute en todos los canales",
		"moderation",
		h.setupMuteHandler,
	).WithUserPermissions(discordgo.PermissionManageRoles | discordgo.PermissionManageChannels).
		WithBotPermissions(discordgo.PermissionManageRoles | discordgo.PermissionManageChannels).
		RequiresDatabase()
}

func (h *handlers) setupMuteHandler(ctx *discord.CommandContext) error {
	if err := ctx.Defer(); err != nil {
		return err
	}
	res, err := h.deps.Moderation.SetupMute(ctx.Context(), ctx.GuildID(), moderatorID(ctx), "Mute role setup")
	if err != nil {
		return cmdutil.Fail(ctx, "setupmute", err)
	}

	key := "commands.setupmute.success"
	if res.Created {
		key = "commands.setupmute.created"
	}
	return ctx.EditReplyEmbed(cmdutil.Success(ctx, "commands.setupmute.title",
		ctx.T(key, i18n.Vars{"role": "<@&" + res.RoleID + ">"})))
}
