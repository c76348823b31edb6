package moderation

import (
	"context"
	"testing"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inVoiceFixture(userIDs ...string) *fixture {
	f := newFixture()
	for _, id := range userIDs {
		f.dir.guild.VoiceStates = append(f.dir.guild.VoiceStates, &discordgo.VoiceState{GuildID: testGuild, UserID: id, ChannelID: "voice"})
	}
	f.store.update(testGuild, func(cfg *models.GuildConfig) { cfg.AddStaffRole("staff") })
	return f
}

func TestVoiceKick(t *testing.T) {
	f := inVoiceFixture("u1")

	res, err := f.svc.VoiceKick(context.Background(), VoiceRequest{GuildID: testGuild, UserID: "u1", ModeratorID: "mod1"})
	require.NoError(t, err)
	assert.True(t, res.Disconnected)
	assert.Contains(t, f.dir.mutations(), "disconnect:u1")

	_, err = f.svc.VoiceKick(context.Background(), VoiceRequest{GuildID: testGuild, UserID: "u1"})
	assert.ErrorIs(t, err, ErrNotInVoice)
	assert.Equal(t, []EventKind{EventVoiceKick}, f.sink.kinds())
}

func TestVoiceActionsProtectStaff(t *testing.T) {
	f := inVoiceFixture("staffUser")
	req := VoiceRequest{GuildID: testGuild, UserID: "staffUser"}

	_, err := f.svc.VoiceKick(context.Background(), req)
	assert.ErrorIs(t, err, ErrStaffProtected)
	_, err = f.svc.VoiceBan(context.Background(), req)
	assert.ErrorIs(t, err, ErrStaffProtected)
	assert.Empty(t, f.dir.mutations())
}

func TestVoiceBanThenUnban(t *testing.T) {
	f := inVoiceFixture("u1")
	ctx := context.Background()
	req := VoiceRequest{GuildID: testGuild, UserID: "u1", Reason: "screaming"}

	res, err := f.svc.VoiceBan(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Channels)
	assert.True(t, res.Disconnected)
	for _, ch := range []string{"voice", "stage"} {
		ow := f.dir.overwrite(ch, "u1")
		require.NotNil(t, ow, ch)
		assert.Equal(t, discordgo.PermissionOverwriteTypeMember, ow.Type)
		assert.NotZero(t, ow.Deny&discordgo.PermissionVoiceConnect)
	}
	assert.Nil(t, f.dir.overwrite("text", "u1"))

	res, err = f.svc.VoiceUnban(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Channels)
	assert.Zero(t, f.dir.overwrite("voice", "u1").Deny)

	_, err = f.svc.VoiceUnban(ctx, req)
	assert.ErrorIs(t, err, ErrNotVoiceBanned)

	assert.Equal(t, []EventKind{EventVoiceBan, EventVoiceUnban}, f.sink.kinds())
}

func TestVoiceBanMemberNotInVoice(t *testing.T) {
	f := inVoiceFixture()
	res, err := f.svc.VoiceBan(context.Background(), VoiceRequest{GuildID: testGuild, UserID: "u2"})
	require.NoError(t, err)
	assert.False(t, res.Disconnected)
	assert.NotContains(t, f.dir.mutations(), "disconnect:u2")
}
