// Package auditlog posts moderation and gateway events to the log channels
// configured per guild.
package auditlog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/i18n"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/PancyStudios/PancyModGo/pkg/webhook"
	"github.com/bwmarrin/discordgo"
)

// Embed colours
const (
	ColorDanger  = 0xED4245
	ColorWarning = 0xFEE75C
	ColorSuccess = 0x57F287
	ColorInfo    = 0x5865F2
)

// ConfigSource reads guild documents. *database.GuildStore satisfies it.
type ConfigSource interface {
	FindGuildConfig(ctx context.Context, guildID string) (*models.GuildConfig, error)
}

// Messenger is the part of *discordgo.Session the poster needs
type Messenger interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
}

// BuildFunc renders a log message in the guild language
type BuildFunc func(lang string) *discordgo.MessageSend

// Poster routes log messages to channels and implements moderation.EventSink
type Poster struct {
	configs         ConfigSource
	msg             Messenger
	defaultLanguage string
}

// New creates a Poster
func New(configs ConfigSource, msg Messenger, defaultLanguage string) *Poster {
	return &Poster{configs: configs, msg: msg, defaultLanguage: defaultLanguage}
}

// LogTypeOf returns the log type a moderation event is routed under
func LogTypeOf(kind moderation.EventKind) models.LogType {
	switch kind {
	case moderation.EventLock, moderation.EventUnlock, moderation.EventSetupMute:
		return models.LogChannels
	case moderation.EventVoiceKick, moderation.EventVoiceBan, moderation.EventVoiceUnban:
		return models.LogVoice
	default:
		return models.LogServer
	}
}

func colorOf(kind moderation.EventKind) int {
	switch kind {
	case moderation.EventBan, moderation.EventKick, moderation.EventMute, moderation.EventLock,
		moderation.EventVoiceBan, moderation.EventMuteEvasion:
		return ColorDanger
	case moderation.EventWarn, moderation.EventWarnTimeout, moderation.EventVoiceKick:
		return ColorWarning
	case moderation.EventUnmute, moderation.EventAutoUnmute, moderation.EventUnban, moderation.EventUnlock,
		moderation.EventUnwarn, moderation.EventVoiceUnban:
		return ColorSuccess
	}
	return ColorInfo
}

// Route resolves the channel and language for a log of type t in guildID
func (p *Poster) Route(ctx context.Context, guildID string, t models.LogType) (channelID, lang string, ok bool) {
	cfg, err := p.configs.FindGuildConfig(ctx, guildID)
	if err != nil {
		logger.Warn(fmt.Sprintf("No se pudo leer la configuración de logs de %s: %v", guildID, err), "AuditLog")
		return "", "", false
	}
	if cfg == nil {
		return "", "", false
	}
	channelID, ok = cfg.Logs.ChannelFor(t)
	return channelID, p.language(cfg), ok
}

func (p *Poster) language(cfg *models.GuildConfig) string {
	if cfg == nil || cfg.Language == "" {
		return p.defaultLanguage
	}
	return cfg.Language
}

// Log sends a message to the channel routed for t. Unrouted types are
// silently dropped.
func (p *Poster) Log(ctx context.Context, guildID string, t models.LogType, build BuildFunc) error {
	channelID, lang, ok := p.Route(ctx, guildID, t)
	if !ok {
		return nil
	}
	data := build(lang)
	if data == nil {
		return nil
	}
	if _, err := p.msg.ChannelMessageSendComplex(channelID, data, discordgo.WithContext(ctx)); err != nil {
		logger.Warn(fmt.Sprintf("Error enviando log %s al canal %s: %v", t, channelID, err), "AuditLog")
		return err
	}
	return nil
}

// LogEmbed is Log for a single embed
func (p *Poster) LogEmbed(ctx context.Context, guildID string, t models.LogType, build func(lang string) *discordgo.MessageEmbed) error {
	return p.Log(ctx, guildID, t, func(lang string) *discordgo.MessageSend {
		embed := build(lang)
		if embed == nil {
			return nil
		}
		return &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}
	})
}

// Publish posts a moderation event. Auto-unmutes also notify the member.
func (p *Poster) Publish(ctx context.Context, e moderation.Event) {
	if e.Kind == moderation.EventAutoUnmute {
		p.notifyExpired(ctx, e)
	}
	_ = p.LogEmbed(ctx, e.GuildID, LogTypeOf(e.Kind), func(lang string) *discordgo.MessageEmbed {
		return EventEmbed(lang, e)
	})
}

func (p *Poster) notifyExpired(ctx context.Context, e moderation.Event) {
	name := e.GuildID
	if g, err := p.msg.Guild(e.GuildID, discordgo.WithContext(ctx)); err == nil && g != nil {
		name = g.Name
	}
	lang := p.defaultLanguage
	if cfg, err := p.configs.FindGuildConfig(ctx, e.GuildID); err == nil && cfg != nil {
		lang = p.language(cfg)
	}

	dm, err := p.msg.UserChannelCreate(e.UserID, discordgo.WithContext(ctx))
	if err == nil {
		_, err = p.msg.ChannelMessageSendComplex(dm.ID, &discordgo.MessageSend{
			Content: i18n.T(lang, "events.auto_unmute_dm", i18n.Vars{"guild": name}),
		}, discordgo.WithContext(ctx))
	}
	if err != nil {
		logger.Debug(fmt.Sprintf("No se pudo avisar a %s por DM: %v", e.UserID, err), "AuditLog")
	}
}

// NewEmbed returns an embed with the standard footer and timestamp
func NewEmbed(title string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:     title,
		Color:     color,
		Timestamp: time.Now().Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: webhook.Footer},
	}
}

// AddField appends an inline field when value is not empty
func AddField(embed *discordgo.MessageEmbed, name, value string) {
	if value == "" {
		return
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: name, Value: value, Inline: true})
}

// EventEmbed renders a moderation event
func EventEmbed(lang string, e moderation.Event) *discordgo.MessageEmbed {
	embed := NewEmbed(i18n.T(lang, "logs."+string(e.Kind), nil), colorOf(e.Kind))
	if !e.At.IsZero() {
		embed.Timestamp = e.At.Format(time.RFC3339)
	}

	field := func(key, value string) {
		AddField(embed, i18n.T(lang, "common.fields."+key, nil), value)
	}
	if e.UserID != "" {
		field("user", fmt.Sprintf("<@%s> (`%s`)", e.UserID, e.UserID))
	}
	if e.ModeratorID != "" {
		field("moderator", "<@"+e.ModeratorID+">")
	}
	if e.ChannelID != "" {
		field("channel", "<#"+e.ChannelID+">")
	}
	if e.Duration != "" {
		field("duration", e.Duration)
	}
	if e.Until != nil {
		field("expires", fmt.Sprintf("<t:%d:R>", e.Until.Unix()))
	}
	if e.Count > 0 {
		field("count", fmt.Sprint(e.Count))
	}
	if e.Reason != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  i18n.T(lang, "common.fields.reason", nil),
			Value: e.Reason,
		})
	}
	return embed
}

// Transcript renders messages oldest first, one per line
func Transcript(msgs []*discordgo.Message) string {
	sorted := make([]*discordgo.Message, len(msgs))
	copy(sorted, msgs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	var b strings.Builder
	for _, m := range sorted {
		author := "unknown"
		if m.Author != nil {
			author = fmt.Sprintf("%s (%s)", m.Author.Username, m.Author.ID)
		}
		fmt.Fprintf(&b, "[%s] %s: %s", m.Timestamp.UTC().Format("2006-01-02 15:04:05"), author, m.Content)
		for _, a := range m.Attachments {
			fmt.Fprintf(&b, " [%s]", a.URL)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// TranscriptMessage wraps a transcript as a .txt attachment
func TranscriptMessage(content string, transcript string) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Content: content,
		Files: []*discordgo.File{{
			Name:        fmt.Sprintf("transcript-%d.txt", time.Now().Unix()),
			ContentType: "text/plain",
			Reader:      strings.NewReader(transcript),
		}},
	}
}
