package utils

import (
	"strconv"
	"strings"
	"time"

	"github.com/PancyStudios/PancyModGo/internal/commands/cmdutil"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/i18n"
	"github.com/bwmarrin/discordgo"
)

// createServerInfoCommand creates the /serverinfo command
func createServerInfoCommand() *discord.Command {
	return discord.NewCommand(
		"serverinfo",
		"Muestra información del servidor",
		"public",
		serverInfoHandler,
	).InGuild()
}

func serverInfoHandler(ctx *discord.CommandContext) error {
	guild := ctx.Guild()
	if guild == nil {
		g, err := ctx.Session.Guild(ctx.GuildID(), discordgo.WithContext(ctx.Context()))
		if err != nil {
			return ctx.ReplyEphemeral("❌ " + ctx.T("errors.generic", nil))
		}
		guild = g
	}

	embed := cmdutil.NewEmbed(ctx, ctx.T("commands.serverinfo.title", i18n.Vars{"guild": guild.Name}), cmdutil.ColorInfo)
	if guild.Icon != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: guild.IconURL("256")}
	}
	cmdutil.Field(embed, ctx.T("commands.serverinfo.owner", nil), cmdutil.Mention(guild.OwnerID))
	cmdutil.Field(embed, ctx.T("commands.serverinfo.members", nil), strconv.Itoa(guild.MemberCount))
	cmdutil.Field(embed, ctx.T("commands.serverinfo.channels", nil), strconv.Itoa(len(guild.Channels)))
	cmdutil.Field(embed, ctx.T("commands.serverinfo.roles", nil), strconv.Itoa(len(guild.Roles)))
	cmdutil.Field(embed, ctx.T("commands.serverinfo.boosts", nil), strconv.Itoa(guild.PremiumSubscriptionCount))
	if created, err := discordgo.SnowflakeTimestamp(guild.ID); err == nil {
		cmdutil.Field(embed, ctx.T("commands.serverinfo.created", nil), cmdutil.Date(created))
	}
	cmdutil.Field(embed, ctx.T("commands.serverinfo.id", nil), guild.ID)
	return ctx.ReplyEmbed(embed)
}

// createUserInfoCommand creates the /userinfo command
func (h *handlers) createUserInfoCommand() *discord.Command {
	return discord.NewCommand(
		"userinfo",
		"Muestra información de un miembro",
		"public",
		h.userInfoHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "Miembro (tú por defecto)",
		},
	).InGuild()
}

// roleMentions lists the member's roles, skipping @everyone
func roleMentions(member *discordgo.Member, guildID string) string {
	if member == nil {
		return ""
	}
	mentions := make([]string, 0, len(member.Roles))
	for _, r := range member.Roles {
		if r == guildID {
			continue
		}
		mentions = append(mentions, "<@&"+r+">")
	}
	return strings.Join(mentions, " ")
}

func (h *handlers) userInfoHandler(ctx *discord.CommandContext) error {
	user := ctx.GetUserOption("user")
	if user == nil {
		user = ctx.User()
	}
	var member *discordgo.Member
	if r := ctx.Interaction.ApplicationCommandData().Resolved; r != nil && r.Members[user.ID] != nil {
		member = r.Members[user.ID]
	} else if m := ctx.Member(); m != nil && m.User != nil && m.User.ID == user.ID {
		member = m
	}

	embed := cmdutil.NewEmbed(ctx, ctx.T("commands.userinfo.title", i18n.Vars{"user": user.Username}), cmdutil.ColorInfo)
	embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: user.AvatarURL("256")}
	cmdutil.Field(embed, ctx.T("commands.userinfo.id", nil), user.ID)
	if created, err := discordgo.SnowflakeTimestamp(user.ID); err == nil {
		cmdutil.Field(embed, ctx.T("commands.userinfo.created", nil), cmdutil.Date(created))
	}
	if member != nil && !member.JoinedAt.IsZero() {
		cmdutil.Field(embed, ctx.T("commands.userinfo.joined", nil), cmdutil.Date(member.JoinedAt))
	}

	if h.deps != nil && h.deps.Store != nil {
		if cfg, err := h.deps.Store.FindGuildConfig(ctx.Context(), ctx.GuildID()); err == nil && cfg != nil {
			warnings, muted := 0, ctx.T("common.no", nil)
			if rec := cfg.Users.Get(user.ID); rec != nil {
				warnings = len(rec.Warnings)
				if rec.Muted {
					muted = ctx.T("common.yes", nil)
					if rec.MutedUntil != nil {
						muted += " (" + cmdutil.Relative(*rec.MutedUntil) + ")"
					}
				}
			}
			if member != nil && member.CommunicationDisabledUntil != nil && member.CommunicationDisabledUntil.After(time.Now()) {
				muted = ctx.T("common.yes", nil) + " (" + cmdutil.Relative(*member.CommunicationDisabledUntil) + ")"
			}
			cmdutil.Field(embed, ctx.T("commands.userinfo.warnings", nil), strconv.Itoa(warnings))
			cmdutil.Field(embed, ctx.T("commands.userinfo.muted", nil), muted)
		}
	}

	roles := roleMentions(member, ctx.GuildID())
	if roles == "" {
		roles = ctx.T("commands.userinfo.no_roles", nil)
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  ctx.T("commands.userinfo.roles", nil),
		Value: cmdutil.Truncate(roles, 1024),
	})
	return ctx.ReplyEmbed(embed)
}
