package mod

import (
	"strings"

	"github.com/PancyStudios/PancyModGo/internal/commands/cmdutil"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/i18n"
	"github.com/bwmarrin/discordgo"
)

func roleOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionRole,
		Name:        "role",
		Description: "Rol",
		Required:    true,
	}
}

func (h *handlers) createStaffRolesAddCommand() *discord.Command {
	return discord.NewCommand("add", "Marca un rol como staff", "config", func(ctx *discord.CommandContext) error {
		return h.editStaffRole(ctx, true)
	}).WithOptions(roleOption()).
		WithUserPermissions(discordgo.PermissionManageGuild).
		RequiresDatabase()
}

func (h *handlers) createStaffRolesRemoveCommand() *discord.Command {
	return discord.NewCommand("remove", "Quita un rol del staff", "config", func(ctx *discord.CommandContext) error {
		return h.editStaffRole(ctx, false)
	}).WithOptions(roleOption()).
		WithUserPermissions(discordgo.PermissionManageGuild).
		RequiresDatabase()
}

func (h *handlers) editStaffRole(ctx *discord.CommandContext, add bool) error {
	if err := ctx.DeferEphemeral(); err != nil {
		return err
	}
	role := ctx.GetRoleOption("role")
	if role == nil {
		return cmdutil.FailKey(ctx, "errors.generic", nil)
	}

	cfg, err := h.deps.Store.GetOrCreate(ctx.Context(), ctx.GuildID())
	if err != nil {
		return cmdutil.Fail(ctx, "staffroles", err)
	}

	vars := i18n.Vars{"role": "<@&" + role.ID + ">"}
	var changed bool
	key := "commands.staffroles.added"
	if add {
		changed = cfg.AddStaffRole(role.ID)
		if !changed {
			key = "commands.staffroles.already"
		}
	} else {
		key = "commands.staffroles.removed"
		changed = cfg.RemoveStaffRole(role.ID)
		if !changed {
			key = "commands.staffroles.missing"
		}
	}
	if !changed {
		return cmdutil.FailKey(ctx, key, vars)
	}

	if err := h.deps.Store.Save(ctx.Context(), cfg); err != nil {
		return cmdutil.Fail(ctx, "staffroles", err)
	}
	return ctx.EditReplyEmbed(cmdutil.Success(ctx, "commands.staffroles.title", ctx.T(key, vars)))
}

func (h *handlers) createStaffRolesListCommand() *discord.Command {
	return discord.NewCommand("list", "Lista los roles de staff", "config", h.listStaffRoles).
		WithUserPermissions(discordgo.PermissionManageGuild).
		RequiresDatabase()
}

func (h *handlers) listStaffRoles(ctx *discord.CommandContext) error {
	if err := ctx.DeferEphemeral(); err != nil {
		return err
	}
	cfg, err := h.deps.Store.FindGuildConfig(ctx.Context(), ctx.GuildID())
	if err != nil {
		return cmdutil.Fail(ctx, "staffroles", err)
	}

	embed := cmdutil.NewEmbed(ctx, ctx.T("commands.staffroles.title", nil), cmdutil.ColorInfo)
	if cfg == nil || len(cfg.StaffRoles) == 0 {
		embed.Description = ctx.T("commands.staffroles.empty", nil)
		return ctx.EditReplyEmbed(embed)
	}
	mentions := make([]string, len(cfg.StaffRoles))
	for i, id := range cfg.StaffRoles {
		mentions[i] = "<@&" + id + ">"
	}
	embed.Description = strings.Join(mentions, "\n")
	return ctx.EditReplyEmbed(embed)
}
