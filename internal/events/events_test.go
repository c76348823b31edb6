package events

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffRoles(t *testing.T) {
	added, removed := diffRoles([]string{"a", "b", "c"}, []string{"c", "d", "a"})
	assert.Equal(t, []string{"d"}, added)
	assert.Equal(t, []string{"b"}, removed)

	added, removed = diffRoles([]string{"a"}, []string{"a"})
	assert.Empty(t, added)
	assert.Empty(t, removed)
}

func TestMemberRolesEmbed(t *testing.T) {
	user := &discordgo.User{ID: "1", Username: "pancy"}
	assert.Nil(t, memberRolesEmbed("en", user, []string{"a"}, []string{"a"}))

	embed := memberRolesEmbed("en", user, []string{"a"}, []string{"b"})
	require.NotNil(t, embed)
	assert.Equal(t, "🎭 Roles updated", embed.Title)
	require.Len(t, embed.Fields, 3)
	assert.Equal(t, "<@&b>", embed.Fields[1].Value)
	assert.Equal(t, "<@&a>", embed.Fields[2].Value)
}

func TestVoiceTransition(t *testing.T) {
	tests := []struct {
		before, after, want string
	}{
		{"", "c1", "voice_join"},
		{"c1", "", "voice_leave"},
		{"c1", "c2", "voice_move"},
		{"c1", "c1", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, voiceTransition(tt.before, tt.after), tt.before+"->"+tt.after)
	}
}

func TestMessageEditEmbed(t *testing.T) {
	before := &discordgo.Message{ID: "m", ChannelID: "c", GuildID: "g", Content: "hola"}
	same := &discordgo.Message{ID: "m", ChannelID: "c", GuildID: "g", Content: "hola"}
	after := &discordgo.Message{ID: "m", ChannelID: "c", GuildID: "g", Content: "adiós", Author: &discordgo.User{ID: "1", Username: "pancy"}}

	assert.Nil(t, messageEditEmbed("en", nil, after))
	assert.Nil(t, messageEditEmbed("en", before, same))

	embed := messageEditEmbed("en", before, after)
	require.NotNil(t, embed)
	assert.Equal(t, "https://discord.com/channels/g/c/m", embed.URL)
	assert.Equal(t, "hola", embed.Fields[2].Value)
	assert.Equal(t, "adiós", embed.Fields[3].Value)
}

func TestMessageDeleteEmbedWithoutCache(t *testing.T) {
	embed := messageDeleteEmbed("en", nil, "c1")
	require.Len(t, embed.Fields, 1)
	assert.Equal(t, "<#c1>", embed.Fields[0].Value)
}

func TestChannelUpdateEmbed(t *testing.T) {
	before := &discordgo.Channel{ID: "c", Name: "general"}
	assert.Nil(t, channelUpdateEmbed("en", before, &discordgo.Channel{ID: "c", Name: "general"}))
	assert.Nil(t, channelUpdateEmbed("en", nil, before))

	embed := channelUpdateEmbed("en", before, &discordgo.Channel{ID: "c", Name: "chat"})
	require.NotNil(t, embed)
	assert.Equal(t, "#chat", embed.Fields[0].Value)
	assert.Equal(t, "#general", embed.Fields[2].Value)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab…", truncate("abcd", 3))
}
