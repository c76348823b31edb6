package events

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/PancyStudios/PancyModGo/internal/auditlog"
	"github.com/PancyStudios/PancyModGo/pkg/i18n"
	"github.com/bwmarrin/discordgo"
)

const maxFieldLength = 1024

func field(lang, key string) string {
	return i18n.T(lang, key, nil)
}

func userLabel(u *discordgo.User) string {
	if u == nil {
		return ""
	}
	return fmt.Sprintf("<@%s> (`%s`)", u.ID, u.Username)
}

func quote(content string) string {
	if content == "" {
		return ""
	}
	return truncate(content, maxFieldLength)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func wideField(embed *discordgo.MessageEmbed, name, value string) {
	if value == "" {
		return
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: name, Value: value})
}

// messageDeleteEmbed renders a deleted message; before is the cached copy
// and may be nil
func messageDeleteEmbed(lang string, before *discordgo.Message, channelID string) *discordgo.MessageEmbed {
	embed := auditlog.NewEmbed(field(lang, "logs.message_delete"), auditlog.ColorDanger)
	auditlog.AddField(embed, field(lang, "common.fields.channel"), "<#"+channelID+">")
	if before == nil {
		return embed
	}
	auditlog.AddField(embed, field(lang, "common.fields.user"), userLabel(before.Author))
	wideField(embed, field(lang, "logs.fields.content"), quote(before.Content))
	for _, a := range before.Attachments {
		wideField(embed, "📎", a.URL)
	}
	return embed
}

// messageEditEmbed returns nil when the text did not change (embeds
// unfurling also fire updates)
func messageEditEmbed(lang string, before, after *discordgo.Message) *discordgo.MessageEmbed {
	if before == nil || after == nil || before.Content == after.Content {
		return nil
	}
	embed := auditlog.NewEmbed(field(lang, "logs.message_edit"), auditlog.ColorWarning)
	embed.URL = fmt.Sprintf("https://discord.com/channels/%s/%s/%s", after.GuildID, after.ChannelID, after.ID)
	auditlog.AddField(embed, field(lang, "common.fields.user"), userLabel(after.Author))
	auditlog.AddField(embed, field(lang, "common.fields.channel"), "<#"+after.ChannelID+">")
	wideField(embed, field(lang, "logs.fields.before"), quote(before.Content))
	wideField(embed, field(lang, "logs.fields.after"), quote(after.Content))
	return embed
}

func bulkDeleteEmbed(lang, channelID string, count int) *discordgo.MessageEmbed {
	embed := auditlog.NewEmbed(field(lang, "logs.message_bulk"), auditlog.ColorDanger)
	auditlog.AddField(embed, field(lang, "common.fields.channel"), "<#"+channelID+">")
	auditlog.AddField(embed, field(lang, "common.fields.count"), strconv.Itoa(count))
	return embed
}

func channelEmbed(lang, key string, ch *discordgo.Channel, color int) *discordgo.MessageEmbed {
	embed := auditlog.NewEmbed(field(lang, key), color)
	auditlog.AddField(embed, field(lang, "logs.fields.name"), "#"+ch.Name)
	auditlog.AddField(embed, field(lang, "common.fields.channel"), "<#"+ch.ID+">")
	return embed
}

// channelUpdateEmbed reports name and topic changes. Permission overwrite
// changes are left to the lock and unlock events.
func channelUpdateEmbed(lang string, before, after *discordgo.Channel) *discordgo.MessageEmbed {
	if before == nil || after == nil {
		return nil
	}
	nameChanged := before.Name != after.Name
	topicChanged := before.Topic != after.Topic
	if !nameChanged && !topicChanged {
		return nil
	}
	embed := channelEmbed(lang, "logs.channel_update", after, auditlog.ColorWarning)
	if nameChanged {
		wideField(embed, field(lang, "logs.fields.before"), "#"+before.Name)
		wideField(embed, field(lang, "logs.fields.after"), "#"+after.Name)
	}
	if topicChanged {
		wideField(embed, field(lang, "logs.fields.before")+" (topic)", quote(before.Topic))
		wideField(embed, field(lang, "logs.fields.after")+" (topic)", quote(after.Topic))
	}
	return embed
}

func roleEmbed(lang, key string, role *discordgo.Role, color int) *discordgo.MessageEmbed {
	if role == nil {
		return nil
	}
	embed := auditlog.NewEmbed(field(lang, key), color)
	if role.Color != 0 {
		embed.Color = role.Color
	}
	auditlog.AddField(embed, field(lang, "logs.fields.name"), role.Name)
	auditlog.AddField(embed, "ID", role.ID)
	return embed
}

func roleDeleteEmbed(lang, roleID string) *discordgo.MessageEmbed {
	embed := auditlog.NewEmbed(field(lang, "logs.role_delete"), auditlog.ColorDanger)
	auditlog.AddField(embed, "ID", roleID)
	return embed
}

// diffRoles returns the roles only in after and only in before, sorted
func diffRoles(before, after []string) (added, removed []string) {
	had := make(map[string]bool, len(before))
	for _, r := range before {
		had[r] = true
	}
	has := make(map[string]bool, len(after))
	for _, r := range after {
		has[r] = true
		if !had[r] {
			added = append(added, r)
		}
	}
	for _, r := range before {
		if !has[r] {
			removed = append(removed, r)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

func roleList(ids []string) string {
	mentions := make([]string, len(ids))
	for i, id := range ids {
		mentions[i] = "<@&" + id + ">"
	}
	return truncate(strings.Join(mentions, " "), maxFieldLength)
}

// memberRolesEmbed returns nil when the role set did not change
func memberRolesEmbed(lang string, user *discordgo.User, before, after []string) *discordgo.MessageEmbed {
	added, removed := diffRoles(before, after)
	if len(added) == 0 && len(removed) == 0 {
		return nil
	}
	embed := auditlog.NewEmbed(field(lang, "logs.member_roles"), auditlog.ColorInfo)
	auditlog.AddField(embed, field(lang, "common.fields.user"), userLabel(user))
	if len(added) > 0 {
		wideField(embed, field(lang, "logs.fields.added"), roleList(added))
	}
	if len(removed) > 0 {
		wideField(embed, field(lang, "logs.fields.removed"), roleList(removed))
	}
	return embed
}

func memberEmbed(lang, key string, user *discordgo.User, color, memberCount int) *discordgo.MessageEmbed {
	embed := auditlog.NewEmbed(field(lang, key), color)
	if user == nil {
		return embed
	}
	embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: user.AvatarURL("128")}
	auditlog.AddField(embed, field(lang, "common.fields.user"), userLabel(user))
	if created, err := discordgo.SnowflakeTimestamp(user.ID); err == nil {
		auditlog.AddField(embed, field(lang, "logs.fields.account_created"), fmt.Sprintf("<t:%d:R>", created.Unix()))
	}
	if memberCount > 0 {
		auditlog.AddField(embed, field(lang, "logs.fields.member_count"), strconv.Itoa(memberCount))
	}
	return embed
}

func guildUpdateEmbed(lang string, g *discordgo.Guild) *discordgo.MessageEmbed {
	embed := auditlog.NewEmbed(field(lang, "logs.guild_update"), auditlog.ColorInfo)
	auditlog.AddField(embed, field(lang, "logs.fields.name"), g.Name)
	if g.Icon != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: g.IconURL("128")}
	}
	return embed
}

// voiceTransition names a voice state change: join, leave, move, or ""
// for mute/deafen toggles
func voiceTransition(before, after string) string {
	switch {
	case before == "" && after != "":
		return "voice_join"
	case before != "" && after == "":
		return "voice_leave"
	case before != "" && after != "" && before != after:
		return "voice_move"
	}
	return ""
}

func voiceEmbed(lang, kind, userID, before, after string) *discordgo.MessageEmbed {
	color := auditlog.ColorInfo
	switch kind {
	case "voice_join":
		color = auditlog.ColorSuccess
	case "voice_leave":
		color = auditlog.ColorDanger
	}
	embed := auditlog.NewEmbed(field(lang, "logs."+kind), color)
	auditlog.AddField(embed, field(lang, "common.fields.user"), "<@"+userID+">")
	if before != "" {
		auditlog.AddField(embed, field(lang, "logs.fields.before"), "<#"+before+">")
	}
	if after != "" {
		auditlog.AddField(embed, field(lang, "logs.fields.after"), "<#"+after+">")
	}
	return embed
}
