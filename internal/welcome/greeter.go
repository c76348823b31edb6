package welcome

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/PancyStudios/PancyModGo/pkg/i18n"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

const subtextPrefix = "-# "

// Messenger is the part of *discordgo.Session the greeter needs
type Messenger interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEdit(channelID, messageID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
}

// Greeter posts greetings and rewrites them on reactions
type Greeter struct {
	tracker *Tracker
	msg     Messenger
}

// NewGreeter creates a Greeter
func NewGreeter(tracker *Tracker, msg Messenger) *Greeter {
	return &Greeter{tracker: tracker, msg: msg}
}

// Tracker returns the greeting tracker
func (g *Greeter) Tracker() *Tracker {
	return g.tracker
}

// TargetChannel picks where to greet: the configured channel if it still
// exists, then the system channel, then the first text channel (by
// position) the bot can write in.
func TargetChannel(guild *discordgo.Guild, channels []*discordgo.Channel, configured string, canSend func(*discordgo.Channel) bool) string {
	exists := func(id string) bool {
		for _, ch := range channels {
			if ch.ID == id {
				return true
			}
		}
		return false
	}
	if configured != "" && exists(configured) {
		return configured
	}
	if guild != nil && guild.SystemChannelID != "" && exists(guild.SystemChannelID) {
		return guild.SystemChannelID
	}

	text := make([]*discordgo.Channel, 0, len(channels))
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildText {
			text = append(text, ch)
		}
	}
	sort.SliceStable(text, func(i, j int) bool { return text[i].Position < text[j].Position })
	for _, ch := range text {
		if canSend == nil || canSend(ch) {
			return ch.ID
		}
	}
	return ""
}

// Greet welcomes memberID in channelID and starts tracking the message
func (g *Greeter) Greet(ctx context.Context, guild *discordgo.Guild, channelID, memberID, lang string) (*discordgo.Message, error) {
	guildID, name := "", ""
	if guild != nil {
		guildID, name = guild.ID, guild.Name
	}
	content := i18n.T(lang, "events.welcome.message", i18n.Vars{"user": "<@" + memberID + ">", "guild": name})

	m, err := g.msg.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}

	emoji := i18n.T(lang, "events.welcome.reaction_emoji", nil)
	if err := g.msg.MessageReactionAdd(channelID, m.ID, emoji, discordgo.WithContext(ctx)); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo reaccionar a la bienvenida %s: %v", m.ID, err), "Welcome")
	}

	g.tracker.Register(m.ID, Entry{
		GuildID:   guildID,
		ChannelID: channelID,
		MemberID:  memberID,
		Content:   content,
		Lang:      lang,
	})
	return m, nil
}

// HandleReaction records a reaction on a tracked greeting and rewrites the
// message. It reports whether the message was edited.
func (g *Greeter) HandleReaction(ctx context.Context, r *discordgo.MessageReaction, isBot bool) (bool, error) {
	if isBot {
		return false, nil
	}
	entry, ok := g.tracker.Get(r.MessageID)
	if !ok || r.Emoji.Name != i18n.T(entry.Lang, "events.welcome.reaction_emoji", nil) {
		return false, nil
	}
	entry, ok = g.tracker.AddReactor(r.MessageID, r.UserID)
	if !ok {
		return false, nil
	}

	content := RewriteContent(entry.Content, entry.Reactors,
		i18n.T(entry.Lang, "events.welcome.react_appended_sg", nil),
		i18n.T(entry.Lang, "events.welcome.react_appended_pl", nil))
	if _, err := g.msg.ChannelMessageEdit(r.ChannelID, r.MessageID, content, discordgo.WithContext(ctx)); err != nil {
		return false, err
	}
	return true, nil
}

// RewriteContent drops existing subtext lines and appends one listing the
// reactors, with the singular or plural suffix
func RewriteContent(content string, reactors []string, singular, plural string) string {
	lines := strings.Split(content, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if !strings.HasPrefix(l, subtextPrefix) {
			kept = append(kept, l)
		}
	}
	out := strings.Join(kept, "\n")
	if len(reactors) == 0 {
		return out
	}

	mentions := make([]string, len(reactors))
	for i, id := range reactors {
		mentions[i] = "<@" + id + ">"
	}
	suffix := singular
	if len(reactors) > 1 {
		suffix = plural
	}
	return out + "\n" + subtextPrefix + strings.Join(mentions, ", ") + " " + suffix
}
