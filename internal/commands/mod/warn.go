package mod

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PancyStudios/PancyModGo/internal/commands/cmdutil"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/i18n"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

// maxListed caps the lines of /warnlist and /warnings embeds
const maxListed = 20

func (h *handlers) createWarnCommand() *discord.Command {
	return discord.NewCommand(
		"warn",
		"Advierte a un miembro",
		"moderation",
		h.warnHandler,
	).WithOptions(
		cmdutil.UserOption("Miembro a advertir"),
		cmdutil.ReasonOption(),
	).WithUserPermissions(discordgo.PermissionModerateMembers).
		RequiresDatabase()
}

func (h *handlers) warnHandler(ctx *discord.CommandContext) error {
	if err := ctx.Defer(); err != nil {
		return err
	}
	user := target(ctx)
	if user == nil {
		return nil
	}

	reason := cmdutil.Reason(ctx)
	res, err := h.deps.Moderation.Warn(ctx.Context(), moderation.WarnRequest{
		GuildID:     ctx.GuildID(),
		UserID:      user.ID,
		ModeratorID: moderatorID(ctx),
		Reason:      reason,
	})
	if err != nil {
		return cmdutil.Fail(ctx, "warn", err)
	}

	vars := i18n.Vars{"user": cmdutil.Mention(user.ID), "count": res.Count, "minutes": res.TimeoutMinutes}
	desc := ctx.T("commands.warn.success", vars)
	if res.TimedOut {
		desc += "\n" + ctx.T("commands.warn.auto_timeout", vars)
	}
	embed := cmdutil.Success(ctx, "commands.warn.title", desc)
	embed.Color = cmdutil.ColorWarning
	cmdutil.Field(embed, ctx.T("common.fields.reason", nil), reason)
	return ctx.EditReplyEmbed(embed)
}

func (h *handlers) createUnwarnCommand() *discord.Command {
	return discord.NewCommand(
		"unwarn",
		"Elimina una advertencia de un miembro",
		"moderation",
		h.unwarnHandler,
	).WithOptions(
		cmdutil.UserOption("Miembro"),
		&discordgo.ApplicationCommandOption{
			Type:         discordgo.ApplicationCommandOptionInteger,
			Name:         "index",
			Description:  "Número de la advertencia (la última si se omite)",
			MinValue:     func() *float64 { v := 1.0; return &v }(),
			Autocomplete: true,
		},
	).WithUserPermissions(discordgo.PermissionModerateMembers).
		RequiresDatabase().
		WithAutoComplete(h.unwarnAutocomplete)
}

func (h *handlers) unwarnHandler(ctx *discord.CommandContext) error {
	if err := ctx.Defer(); err != nil {
		return err
	}
	user := target(ctx)
	if user == nil {
		return nil
	}

	res, err := h.deps.Moderation.Unwarn(ctx.Context(), moderation.UnwarnRequest{
		GuildID:     ctx.GuildID(),
		UserID:      user.ID,
		ModeratorID: moderatorID(ctx),
		Index:       int(ctx.GetIntOption("index")),
	})
	if err != nil {
		return cmdutil.Fail(ctx, "unwarn", err)
	}

	desc := ctx.T("commands.unwarn.success", i18n.Vars{
		"index":     res.Index,
		"user":      cmdutil.Mention(user.ID),
		"remaining": res.Remaining,
	})
	embed := cmdutil.Success(ctx, "commands.unwarn.title", desc)
	cmdutil.Field(embed, ctx.T("common.fields.reason", nil), res.Removed.Reason)
	return ctx.EditReplyEmbed(embed)
}

func (h *handlers) unwarnAutocomplete(ctx *discord.CommandContext) {
	var choices []*discordgo.ApplicationCommandOptionChoice
	if user := ctx.GetUserOption("user"); user != nil && user.ID != "" {
		warnings, err := h.deps.Moderation.Warnings(ctx.Context(), ctx.GuildID(), user.ID)
		if err != nil {
			logger.Debug("Autocompletado de /unwarn sin datos: "+err.Error(), "Commands")
		}
		typed := ""
		if f := ctx.FocusedOption(); f != nil {
			typed = fmt.Sprint(f.Value)
		}
		choices = warningChoices(ctx.Lang(), warnings, typed)
	}
	if err := ctx.Autocomplete(choices); err != nil {
		logger.Debug("Error respondiendo autocompletado: "+err.Error(), "Commands")
	}
}

// warningChoices lists the warnings whose 1-based index starts with typed,
// newest first
func warningChoices(lang string, warnings []models.Warning, typed string) []*discordgo.ApplicationCommandOptionChoice {
	typed = strings.TrimSpace(typed)
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(warnings))
	for i := len(warnings) - 1; i >= 0; i-- {
		idx := strconv.Itoa(i + 1)
		if typed != "" && !strings.HasPrefix(idx, typed) {
			continue
		}
		w := warnings[i]
		name := i18n.T(lang, "commands.unwarn.choice", i18n.Vars{
			"index":  idx,
			"reason": w.Reason,
			"date":   w.Date.Format("2006-01-02"),
		})
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  cmdutil.Truncate(name, 100),
			Value: i + 1,
		})
	}
	return choices
}

func (h *handlers) createWarnListCommand() *discord.Command {
	return discord.NewCommand(
		"warnlist",
		"Lista los miembros con advertencias",
		"moderation",
		h.warnListHandler,
	).WithUserPermissions(discordgo.PermissionModerateMembers).
		RequiresDatabase()
}

func (h *handlers) warnListHandler(ctx *discord.CommandContext) error {
	if err := ctx.DeferEphemeral(); err != nil {
		return err
	}
	records, err := h.deps.Moderation.WarnList(ctx.Context(), ctx.GuildID())
	if err != nil {
		return cmdutil.Fail(ctx, "warnlist", err)
	}

	embed := cmdutil.NewEmbed(ctx, ctx.T("commands.warnlist.title", nil), cmdutil.ColorWarning)
	if len(records) == 0 {
		embed.Description = ctx.T("commands.warnlist.empty", nil)
		return ctx.EditReplyEmbed(embed)
	}

	lines := make([]string, 0, maxListed)
	for _, rec := range records {
		if len(lines) == maxListed {
			break
		}
		last := rec.Warnings[len(rec.Warnings)-1]
		lines = append(lines, ctx.T("commands.warnlist.entry", i18n.Vars{
			"user":  cmdutil.Mention(rec.UserID),
			"count": len(rec.Warnings),
			"date":  cmdutil.Date(last.Date),
		}))
	}
	embed.Description = cmdutil.Truncate(strings.Join(lines, "\n"), 4096)
	return ctx.EditReplyEmbed(embed)
}

func (h *handlers) createWarningsCommand() *discord.Command {
	return discord.NewCommand(
		"warnings",
		"Muestra las advertencias de un miembro",
		"moderation",
		h.warningsHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "Miembro (tú por defecto)",
		},
	).InGuild().
		RequiresDatabase()
}

func (h *handlers) warningsHandler(ctx *discord.CommandContext) error {
	if err := ctx.DeferEphemeral(); err != nil {
		return err
	}
	me := ctx.User()
	user := ctx.GetUserOption("user")
	if user == nil {
		user = me
	}

	if me != nil && user.ID != me.ID {
		cfg, err := h.deps.Store.FindGuildConfig(ctx.Context(), ctx.GuildID())
		if err != nil {
			return cmdutil.Fail(ctx, "warnings", err)
		}
		if !isStaffMember(ctx.Member(), cfg) {
			return cmdutil.FailKey(ctx, "commands.warnings.forbidden", nil)
		}
	}

	warnings, err := h.deps.Moderation.Warnings(ctx.Context(), ctx.GuildID(), user.ID)
	if err != nil {
		return cmdutil.Fail(ctx, "warnings", err)
	}

	mention := cmdutil.Mention(user.ID)
	embed := cmdutil.NewEmbed(ctx, ctx.T("commands.warnings.title", i18n.Vars{"user": user.Username}), cmdutil.ColorWarning)
	if len(warnings) == 0 {
		embed.Description = ctx.T("commands.warnings.empty", i18n.Vars{"user": mention})
		return ctx.EditReplyEmbed(embed)
	}

	var b strings.Builder
	start := 0
	if len(warnings) > maxListed {
		start = len(warnings) - maxListed
	}
	for i := start; i < len(warnings); i++ {
		w := warnings[i]
		b.WriteString(ctx.T("commands.warnings.entry", i18n.Vars{
			"index":     i + 1,
			"reason":    cmdutil.Truncate(w.Reason, 150),
			"moderator": cmdutil.Mention(w.Moderator),
			"date":      cmdutil.Date(w.Date),
		}))
		b.WriteByte('\n')
	}
	embed.Description = cmdutil.Truncate(b.String(), 4096)
	cmdutil.Field(embed, ctx.T("common.fields.count", nil), strconv.Itoa(len(warnings)))
	return ctx.EditReplyEmbed(embed)
}

// isStaffMember reports whether member may act on other members: moderators,
// administrators and holders of a configured staff role
func isStaffMember(member *discordgo.Member, cfg *models.GuildConfig) bool {
	if member == nil {
		return false
	}
	if member.Permissions&(discordgo.PermissionAdministrator|discordgo.PermissionModerateMembers) != 0 {
		return true
	}
	if cfg == nil {
		return false
	}
	for _, r := range member.Roles {
		if cfg.IsStaffRole(r) {
			return true
		}
	}
	return false
}
