package mod

import (
	"github.com/PancyStudios/PancyModGo/internal/commands/cmdutil"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/i18n"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

func (h *handlers) createKickCommand() *discord.Command {
	return discord.NewCommand(
		"kick",
		"Expulsa a un miembro del servidor",
		"moderation",
		h.kickHandler,
	).WithOptions(
		cmdutil.UserOption("Miembro a expulsar"),
		cmdutil.ReasonOption(),
	).WithUserPermissions(discordgo.PermissionKickMembers).
		WithBotPermissions(discordgo.PermissionKickMembers)
}

func (h *handlers) kickHandler(ctx *discord.CommandContext) error {
	if err := ctx.Defer(); err != nil {
		return err
	}
	user := target(ctx)
	if user == nil {
		return nil
	}

	reason := cmdutil.Reason(ctx)
	err := h.deps.Moderation.Kick(ctx.Context(), moderation.SanctionRequest{
		GuildID:     ctx.GuildID(),
		UserID:      user.ID,
		ModeratorID: moderatorID(ctx),
		Reason:      reason,
	})
	if err != nil {
		return cmdutil.Fail(ctx, "kick", err)
	}
	return ctx.EditReplyEmbed(h.sanctionEmbed(ctx, "kick", user, reason))
}

func (h *handlers) createBanCommand() *discord.Command {
	return discord.NewCommand(
		"ban",
		"Banea a un usuario del servidor",
		"moderation",
		h.banHandler,
	).WithOptions(
		cmdutil.UserOption("Usuario a banear"),
		cmdutil.ReasonOption(),
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "delete_days",
			Description: "Días de mensajes a eliminar (0-7)",
			MinValue:    func() *float64 { v := 0.0; return &v }(),
			MaxValue:    moderation.MaxBanDeleteDays,
		},
	).WithUserPermissions(discordgo.PermissionBanMembers).
		WithBotPermissions(discordgo.PermissionBanMembers)
}

func (h *handlers) banHandler(ctx *discord.CommandContext) error {
	if err := ctx.Defer(); err != nil {
		return err
	}
	user := target(ctx)
	if user == nil {
		return nil
	}

	reason := cmdutil.Reason(ctx)
	err := h.deps.Moderation.Ban(ctx.Context(), moderation.SanctionRequest{
		GuildID:     ctx.GuildID(),
		UserID:      user.ID,
		ModeratorID: moderatorID(ctx),
		Reason:      reason,
		DeleteDays:  int(ctx.GetIntOption("delete_days")),
	})
	if err != nil {
		return cmdutil.Fail(ctx, "ban", err)
	}
	return ctx.EditReplyEmbed(h.sanctionEmbed(ctx, "ban", user, reason))
}

func (h *handlers) createUnbanCommand() *discord.Command {
	return discord.NewCommand(
		"unban",
		"Revoca el baneo de un usuario",
		"moderation",
		h.unbanHandler,
	).WithOptions(
		cmdutil.UserOption("Usuario a desbanear (ID)"),
		cmdutil.ReasonOption(),
	).WithUserPermissions(discordgo.PermissionBanMembers).
		WithBotPermissions(discordgo.PermissionBanMembers)
}

func (h *handlers) unbanHandler(ctx *discord.CommandContext) error {
	if err := ctx.Defer(); err != nil {
		return err
	}
	user := target(ctx)
	if user == nil {
		return nil
	}

	reason := cmdutil.Reason(ctx)
	err := h.deps.Moderation.Unban(ctx.Context(), moderation.SanctionRequest{
		GuildID:     ctx.GuildID(),
		UserID:      user.ID,
		ModeratorID: moderatorID(ctx),
		Reason:      reason,
	})
	if err != nil {
		return cmdutil.Fail(ctx, "unban", err)
	}
	return ctx.EditReplyEmbed(h.sanctionEmbed(ctx, "unban", user, reason))
}

func (h *handlers) sanctionEmbed(ctx *discord.CommandContext, command string, user *discordgo.User, reason string) *discordgo.MessageEmbed {
	embed := cmdutil.Success(ctx, "commands."+command+".title",
		ctx.T("commands."+command+".success", i18n.Vars{"user": cmdutil.Mention(user.ID)}))
	if command != "unban" {
		embed.Color = cmdutil.ColorError
	}
	if user.Avatar != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: user.AvatarURL("")}
	}
	cmdutil.Field(embed, ctx.T("common.fields.user", nil), user.Username+" ("+user.ID+")")
	if mod := ctx.User(); mod != nil {
		cmdutil.Field(embed, ctx.T("common.fields.moderator", nil), mod.Username)
	}
	cmdutil.Field(embed, ctx.T("common.fields.reason", nil), reason)
	return embed
}
