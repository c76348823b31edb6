// Package cmdutil holds what every command package shares: the injected
// services, reply embeds and the mapping of errors onto localised messages.
package cmdutil

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PancyStudios/PancyModGo/internal/auditlog"
	"github.com/PancyStudios/PancyModGo/pkg/database"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/i18n"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

// Deps are the services commands run against
type Deps struct {
	Moderation *moderation.Service
	Store      *database.GuildStore
	Audit      *auditlog.Poster
	Scheduler  *moderation.Scheduler
}

// Embed colours
const (
	ColorError   = 0xED4245
	ColorSuccess = 0x57F287
	ColorWarning = 0xFEE75C
	ColorInfo    = 0x5865F2
)

var sentinelKeys = []struct {
	err error
	key string
}{
	{moderation.ErrAlreadyMuted, "errors.already_muted"},
	{moderation.ErrNotMuted, "errors.not_muted"},
	{moderation.ErrInvalidDuration, "errors.invalid_duration"},
	{moderation.ErrDurationTooLong, "errors.duration_too_long"},
	{moderation.ErrMemberNotFound, "errors.member_not_found"},
	{moderation.ErrNoMuteRole, "errors.no_mute_role"},
	{moderation.ErrAlreadyLocked, "errors.already_locked"},
	{moderation.ErrNotLocked, "errors.not_locked"},
	{moderation.ErrUnsupportedChannel, "errors.unsupported_channel"},
	{moderation.ErrNoWarnings, "errors.no_warnings"},
	{moderation.ErrWarningIndex, "errors.warning_index"},
	{moderation.ErrStaffProtected, "errors.staff_protected"},
	{moderation.ErrNotInVoice, "errors.not_in_voice"},
	{moderation.ErrNotVoiceBanned, "errors.not_voice_banned"},
	{moderation.ErrNotBanned, "commands.unban.not_banned"},
	{database.ErrNotConnected, "errors.database"},
}

// ErrorKey returns the i18n key of the message shown for err
func ErrorKey(err error) string {
	for _, s := range sentinelKeys {
		if errors.Is(err, s.err) {
			return s.key
		}
	}
	switch moderation.Classify(err) {
	case moderation.KindHierarchy:
		return "errors.hierarchy"
	case moderation.KindUser:
		return "errors.member_not_found"
	}
	return "errors.generic"
}

// NewEmbed returns an embed with the bot footer
func NewEmbed(ctx *discord.CommandContext, title string, color int) *discordgo.MessageEmbed {
	footer := &discordgo.MessageEmbedFooter{Text: "💫 - Developed by PancyStudios"}
	if ctx.Session != nil && ctx.Session.State != nil && ctx.Session.State.User != nil {
		footer.IconURL = ctx.Session.State.User.AvatarURL("")
	}
	return &discordgo.MessageEmbed{
		Title:     title,
		Color:     color,
		Footer:    footer,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// Field appends an inline field
func Field(embed *discordgo.MessageEmbed, name, value string) *discordgo.MessageEmbed {
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: name, Value: value, Inline: true})
	return embed
}

// Success builds the reply of a completed command
func Success(ctx *discord.CommandContext, titleKey, description string) *discordgo.MessageEmbed {
	e := NewEmbed(ctx, ctx.T(titleKey, nil), ColorSuccess)
	e.Description = description
	return e
}

// Fail replaces the deferred reply with the message for err. Faults are
// logged; rejections are not.
func Fail(ctx *discord.CommandContext, command string, err error) error {
	if !moderation.IsUserError(err) {
		logger.Error(fmt.Sprintf("Error en /%s (servidor %s): %v", command, ctx.GuildID(), err), "Commands")
	}
	return FailKey(ctx, ErrorKey(err), nil)
}

// FailKey replaces the deferred reply with the message for key
func FailKey(ctx *discord.CommandContext, key string, vars i18n.Vars) error {
	e := NewEmbed(ctx, ctx.T("common.error_title", nil), ColorError)
	e.Description = ctx.T(key, vars)
	return ctx.EditReplyEmbed(e)
}

// Reason returns the reason option or the localised "no reason"
func Reason(ctx *discord.CommandContext) string {
	if r := strings.TrimSpace(ctx.GetStringOption("reason")); r != "" {
		return r
	}
	return ctx.T("common.no_reason", nil)
}

// Mention formats a user mention
func Mention(userID string) string {
	return "<@" + userID + ">"
}

// Truncate cuts s to at most n runes, marking the cut with an ellipsis
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// Date formats t for embeds
func Date(t time.Time) string {
	return fmt.Sprintf("<t:%d:d>", t.Unix())
}

// UserOption is the shared required "user" option
func UserOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "user",
		Description: description,
		Required:    true,
	}
}

// ReasonOption is the shared optional "reason" option
func ReasonOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "reason",
		Description: "Reason",
		MaxLength:   400,
	}
}

// Relative formats t as a relative timestamp ("in 2 hours")
func Relative(t time.Time) string {
	return fmt.Sprintf("<t:%d:R>", t.Unix())
}
