package mod

import (
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/internal/commands/cmdutil"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterModCommands(t *testing.T) {
	client, err := discord.NewClient("test-token")
	require.NoError(t, err)

	RegisterModCommands(client, &cmdutil.Deps{Moderation: &moderation.Service{}})

	for _, name := range []string{
		"mute", "unmute", "warn", "unwarn", "warnlist", "warnings",
		"kick", "ban", "unban", "clear", "lock", "unlock", "setupmute",
		"voice.kick", "voice.ban", "voice.unban",
		"staffroles.add", "staffroles.remove", "staffroles.list",
	} {
		_, ok := client.Commands.Get(name)
		assert.True(t, ok, name)
	}
	assert.Len(t, client.CommandHandler.ApplicationCommands(), 15)

	mute, _ := client.Commands.Get("mute")
	assert.Equal(t, int64(discordgo.PermissionModerateMembers), mute.UserPermissions)
	assert.True(t, mute.RequiresDB)
	assert.True(t, mute.GuildOnly)

	unwarn, _ := client.Commands.Get("unwarn")
	assert.NotNil(t, unwarn.AutoComplete)

	ban, _ := client.Commands.Get("ban")
	assert.False(t, ban.RequiresDB)
}

func TestSelectForClear(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	msg := func(id, author string, age time.Duration, pinned bool) *discordgo.Message {
		return &discordgo.Message{ID: id, Author: &discordgo.User{ID: author}, Timestamp: now.Add(-age), Pinned: pinned}
	}
	msgs := []*discordgo.Message{
		msg("1", "a", time.Minute, false),
		msg("2", "b", time.Hour, true),
		msg("3", "b", 2*time.Hour, false),
		msg("4", "a", 3*time.Hour, false),
		msg("5", "a", 15*24*time.Hour, false),
	}
	ids := func(ms []*discordgo.Message) []string {
		out := make([]string, len(ms))
		for i, m := range ms {
			out[i] = m.ID
		}
		return out
	}

	tests := []struct {
		name   string
		amount int
		user   string
		want   []string
	}{
		{"skips pinned and old", 10, "", []string{"1", "3", "4"}},
		{"respects amount", 2, "", []string{"1", "3"}},
		{"filters by author", 10, "a", []string{"1", "4"}},
		{"no match", 10, "c", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(selectForClear(msgs, tt.amount, tt.user, now)))
		})
	}
}

func TestWarningChoices(t *testing.T) {
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	warnings := make([]models.Warning, 12)
	for i := range warnings {
		warnings[i] = models.Warning{Reason: "spam", Date: date}
	}

	all := warningChoices("en", warnings, "")
	require.Len(t, all, 12)
	assert.Equal(t, "#12 · spam · 2024-03-05", all[0].Name)
	assert.Equal(t, 12, all[0].Value)
	assert.Equal(t, 1, all[11].Value)

	filtered := warningChoices("en", warnings, "1")
	values := make([]interface{}, len(filtered))
	for i, c := range filtered {
		values[i] = c.Value
	}
	assert.Equal(t, []interface{}{12, 11, 10, 1}, values)

	assert.Empty(t, warningChoices("en", nil, ""))
}

func TestIsStaffMember(t *testing.T) {
	cfg := &models.GuildConfig{StaffRoles: []string{"staff"}}

	assert.False(t, isStaffMember(nil, cfg))
	assert.True(t, isStaffMember(&discordgo.Member{Permissions: discordgo.PermissionModerateMembers}, nil))
	assert.True(t, isStaffMember(&discordgo.Member{Permissions: discordgo.PermissionAdministrator}, cfg))
	assert.True(t, isStaffMember(&discordgo.Member{Roles: []string{"x", "staff"}}, cfg))
	assert.False(t, isStaffMember(&discordgo.Member{Roles: []string{"x"}}, cfg))
}
