package mod

import (
	"github.com/PancyStudios/PancyModGo/internal/commands/cmdutil"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/i18n"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

func (h *handlers) createMuteCommand() *discord.Command {
	return discord.NewCommand(
		"mute",
		"Silencia a un miembro",
		"moderation",
		h.muteHandler,
	).WithOptions(
		cmdutil.UserOption("Miembro a silenciar"),
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "duration",
			Description: "Duración (10m, 2h, 1d). Vacío para un mute permanente",
		},
		cmdutil.ReasonOption(),
	).WithUserPermissions(discordgo.PermissionModerateMembers).
		WithBotPermissions(discordgo.PermissionModerateMembers | discordgo.PermissionManageRoles).
		RequiresDatabase()
}

func (h *handlers) muteHandler(ctx *discord.CommandContext) error {
	if err := ctx.Defer(); err != nil {
		return err
	}
	user := target(ctx)
	if user == nil {
		return nil
	}

	reason := cmdutil.Reason(ctx)
	res, err := h.deps.Moderation.Mute(ctx.Context(), moderation.MuteRequest{
		GuildID:     ctx.GuildID(),
		UserID:      user.ID,
		ModeratorID: moderatorID(ctx),
		ChannelID:   ctx.Interaction.ChannelID,
		Duration:    ctx.GetStringOption("duration"),
		Reason:      reason,
	})
	if err != nil {
		return cmdutil.Fail(ctx, "mute", err)
	}

	duration := res.Label
	if res.Permanent {
		duration = ctx.T("common.permanent", nil)
	}
	desc := ctx.T("commands.mute.success", i18n.Vars{"user": cmdutil.Mention(user.ID), "duration": duration})
	if res.Escalated {
		desc += "\n" + ctx.T("commands.mute.escalated", nil)
	}
	if res.ChannelOverride {
		desc += "\n" + ctx.T("commands.mute.channel_override", nil)
	}

	embed := cmdutil.Success(ctx, "commands.mute.title", desc)
	cmdutil.Field(embed, ctx.T("common.fields.reason", nil), reason)
	if res.Until != nil {
		cmdutil.Field(embed, ctx.T("common.fields.expires", nil), cmdutil.Relative(*res.Until))
	}
	return ctx.EditReplyEmbed(embed)
}

func (h *handlers) createUnmuteCommand() *discord.Command {
	return discord.NewCommand(
		"unmute",
		"Quita el silencio a un miembro",
		"moderation",
		h.unmuteHandler,
	).WithOptions(
		cmdutil.UserOption("Miembro a desilenciar"),
		cmdutil.ReasonOption(),
	).WithUserPermissions(discordgo.PermissionModerateMembers).
		WithBotPermissions(discordgo.PermissionModerateMembers | discordgo.PermissionManageRoles).
		RequiresDatabase()
}

func (h *handlers) unmuteHandler(ctx *discord.CommandContext) error {
	if err := ctx.Defer(); err != nil {
		return err
	}
	user := target(ctx)
	if user == nil {
		return nil
	}

	res, err := h.deps.Moderation.Unmute(ctx.Context(), moderation.UnmuteRequest{
		GuildID:     ctx.GuildID(),
		UserID:      user.ID,
		ModeratorID: moderatorID(ctx),
		Reason:      cmdutil.Reason(ctx),
	})
	if err != nil {
		return cmdutil.Fail(ctx, "unmute", err)
	}

	desc := ctx.T("commands.unmute.success", i18n.Vars{"user": cmdutil.Mention(user.ID)})
	switch {
	case res.MemberGone:
		desc = ctx.T("commands.unmute.member_gone", nil)
	case res.RoleLingering:
		desc += "\n" + ctx.T("commands.unmute.role_lingering", nil)
	}
	return ctx.EditReplyEmbed(cmdutil.Success(ctx, "commands.unmute.title", desc))
}
