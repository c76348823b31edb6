package moderation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupMuteThenPermanentMuteThenUnmute(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	setup, err := f.svc.SetupMute(ctx, testGuild, "mod1", "setup")
	require.NoError(t, err)
	assert.True(t, setup.Created)

	role := roleByID(f.dir.guild, setup.RoleID)
	require.NotNil(t, role)
	assert.Equal(t, "Muted", role.Name)
	assert.Zero(t, role.Permissions)
	assert.Equal(t, MuteRoleColor, role.Color)

	assert.Equal(t, MuteTextSet, f.dir.overwrite("text", setup.RoleID).Deny)
	assert.Equal(t, MuteVoiceSet, f.dir.overwrite("voice", setup.RoleID).Deny)
	assert.Equal(t, MuteVoiceSet, f.dir.overwrite("stage", setup.RoleID).Deny)
	assert.Equal(t, MuteTextSet|MuteVoiceSet, f.dir.overwrite("cat", setup.RoleID).Deny)

	cfg, _ := f.store.FindGuildConfig(ctx, testGuild)
	assert.Equal(t, setup.RoleID, cfg.MuteRole)

	res, err := f.svc.Mute(ctx, MuteRequest{GuildID: testGuild, UserID: "u1", ModeratorID: "mod1", ChannelID: "text", Reason: "spam"})
	require.NoError(t, err)
	assert.True(t, res.Permanent)
	assert.Equal(t, "Permanent", res.Label)
	assert.Equal(t, MechanismRole, res.Mechanism)
	assert.False(t, res.ChannelOverride)
	assert.False(t, res.Escalated)

	assert.True(t, hasRole(f.dir.member("u1"), setup.RoleID))
	rec := f.store.record(testGuild, "u1")
	require.NotNil(t, rec)
	assert.True(t, rec.Muted)
	assert.Nil(t, rec.MutedUntil)

	_, err = f.svc.Unmute(ctx, UnmuteRequest{GuildID: testGuild, UserID: "u1", ModeratorID: "mod1"})
	require.NoError(t, err)
	assert.False(t, hasRole(f.dir.member("u1"), setup.RoleID))
	rec = f.store.record(testGuild, "u1")
	assert.False(t, rec.Muted)
	assert.Nil(t, rec.MutedUntil)

	assert.Equal(t, []EventKind{EventSetupMute, EventMute, EventUnmute}, f.sink.kinds())
}

func TestSetupMuteReusesExistingRole(t *testing.T) {
	f := newFixture()
	f.dir.guild.Roles = append(f.dir.guild.Roles, &discordgo.Role{ID: "old", Name: "muted", Permissions: discordgo.PermissionSendMessages})

	res, err := f.svc.SetupMute(context.Background(), testGuild, "mod1", "")
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, "old", res.RoleID)
	assert.Contains(t, f.dir.mutations(), "editRole:old")
	assert.Zero(t, roleByID(f.dir.guild, "old").Permissions)
}

func TestSetupMuteKeepsRecordsWrittenDuringSweep(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.dir.onOverwrite = func() {
		require.NoError(t, f.store.UpsertUserRecord(ctx, testGuild, "u1", models.UserPatch{AddWarning: &models.Warning{Reason: "spam", Moderator: "mod1"}}))
	}

	res, err := f.svc.SetupMute(ctx, testGuild, "mod1", "")
	require.NoError(t, err)

	cfg, err := f.store.FindGuildConfig(ctx, testGuild)
	require.NoError(t, err)
	assert.Equal(t, res.RoleID, cfg.MuteRole)
	rec := cfg.Users.Get("u1")
	require.NotNil(t, rec, "the warning stored mid-sweep survives")
	assert.Len(t, rec.Warnings, 1)
}

func TestTimedMuteExpires(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	res, err := f.svc.Mute(ctx, MuteRequest{GuildID: testGuild, UserID: "u1", Duration: "10m", Reason: "flood"})
	require.NoError(t, err)
	assert.Equal(t, MechanismTimeout, res.Mechanism)
	assert.Equal(t, "10m", res.Label)

	until := f.now.Add(600000 * time.Millisecond)
	require.NotNil(t, res.Until)
	assert.True(t, res.Until.Equal(until))
	assert.True(t, f.dir.member("u1").CommunicationDisabledUntil.Equal(until))

	rec := f.store.record(testGuild, "u1")
	assert.True(t, rec.Muted)
	assert.True(t, rec.MutedUntil.Equal(until))

	armed, ok := f.armer.get(testGuild, "u1")
	require.True(t, ok)
	assert.True(t, armed.Equal(until))

	f.now = f.now.Add(10 * time.Minute)
	require.NoError(t, f.svc.Expire(ctx, testGuild, "u1"))

	assert.Contains(t, f.dir.mutations(), "clearTimeout:u1")
	assert.Nil(t, f.dir.member("u1").CommunicationDisabledUntil)
	rec = f.store.record(testGuild, "u1")
	assert.False(t, rec.Muted)
	assert.Nil(t, rec.MutedUntil)
	assert.Equal(t, []EventKind{EventMute, EventAutoUnmute}, f.sink.kinds())
}

func TestMuteRejectsWhenEitherSourceSaysMuted(t *testing.T) {
	t.Run("persisted flag without role", func(t *testing.T) {
		f := newFixture()
		f.withMuteRole("muted")
		require.NoError(t, f.store.UpsertUserRecord(context.Background(), testGuild, "u1", models.MutedUntil(nil)))

		_, err := f.svc.Mute(context.Background(), MuteRequest{GuildID: testGuild, UserID: "u1"})
		assert.ErrorIs(t, err, ErrAlreadyMuted)
		assert.Empty(t, f.dir.mutations())

		_, err = f.svc.Unmute(context.Background(), UnmuteRequest{GuildID: testGuild, UserID: "u1"})
		require.NoError(t, err)
		assert.False(t, f.store.record(testGuild, "u1").Muted)
	})

	t.Run("role without persisted flag", func(t *testing.T) {
		f := newFixture()
		f.withMuteRole("muted")
		f.dir.members["u1"].Roles = []string{"muted"}

		_, err := f.svc.Mute(context.Background(), MuteRequest{GuildID: testGuild, UserID: "u1", Duration: "1h"})
		assert.ErrorIs(t, err, ErrAlreadyMuted)
		assert.Empty(t, f.dir.mutations())

		_, err = f.svc.Unmute(context.Background(), UnmuteRequest{GuildID: testGuild, UserID: "u1"})
		require.NoError(t, err)
		assert.False(t, hasRole(f.dir.member("u1"), "muted"))
		assert.False(t, f.store.record(testGuild, "u1").Muted)
	})
}

func TestMuteDurationValidation(t *testing.T) {
	tests := []struct {
		duration string
		want     error
	}{
		{"29d", ErrDurationTooLong},
		{"5w", ErrDurationTooLong},
		{"abc", ErrInvalidDuration},
		{"0", ErrInvalidDuration},
		{"-5m", ErrInvalidDuration},
	}

	for _, tt := range tests {
		t.Run(tt.duration, func(t *testing.T) {
			f := newFixture()
			f.withMuteRole("muted")

			_, err := f.svc.Mute(context.Background(), MuteRequest{GuildID: testGuild, UserID: "u1", Duration: tt.duration})
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, f.dir.mutations(), "no live mutation before validation")
			assert.Zero(t, f.store.upserts)
		})
	}
}

func TestMuteAtCeilingIsAccepted(t *testing.T) {
	f := newFixture()
	res, err := f.svc.Mute(context.Background(), MuteRequest{GuildID: testGuild, UserID: "u1", Duration: "28d"})
	require.NoError(t, err)
	assert.True(t, res.Until.Equal(f.now.Add(MaxTimeout)))
}

func TestTimedMuteFallsBackToRole(t *testing.T) {
	f := newFixture()
	f.withMuteRole("muted")
	f.dir.fail["timeout:u1"] = errors.New("missing permissions")

	res, err := f.svc.Mute(context.Background(), MuteRequest{GuildID: testGuild, UserID: "u1", Duration: "2h"})
	require.NoError(t, err)
	assert.Equal(t, MechanismRole, res.Mechanism)
	assert.True(t, hasRole(f.dir.member("u1"), "muted"))

	_, ok := f.armer.get(testGuild, "u1")
	assert.True(t, ok, "role fallback still expires")
}

func TestTimedMuteFailsWithoutFallback(t *testing.T) {
	f := newFixture()
	f.dir.fail["timeout:u1"] = errors.New("missing permissions")

	_, err := f.svc.Mute(context.Background(), MuteRequest{GuildID: testGuild, UserID: "u1", Duration: "2h"})
	assert.Error(t, err)
	assert.Nil(t, f.store.record(testGuild, "u1"))
}

func TestPermanentMuteNeedsRole(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Mute(context.Background(), MuteRequest{GuildID: testGuild, UserID: "u1"})
	assert.ErrorIs(t, err, ErrNoMuteRole)
}

func TestPermanentMuteOfAdministratorEscalates(t *testing.T) {
	f := newFixture()
	f.withMuteRole("muted")

	res, err := f.svc.Mute(context.Background(), MuteRequest{GuildID: testGuild, UserID: "adminUser", ChannelID: "text"})
	require.NoError(t, err)
	assert.True(t, res.Escalated)
	assert.True(t, res.ChannelOverride)
	assert.Contains(t, f.dir.mutations(), "timeout:adminUser")
	assert.True(t, f.dir.member("adminUser").CommunicationDisabledUntil.Equal(f.now.Add(MaxTimeout)))

	ow := f.dir.overwrite("text", "muted")
	require.NotNil(t, ow)
	assert.Equal(t, MuteTextSet, ow.Deny)
}

func TestPermanentMuteDeniesInvokingChannelWhenStillAllowed(t *testing.T) {
	f := newFixture()
	f.withMuteRole("muted")

	res, err := f.svc.Mute(context.Background(), MuteRequest{GuildID: testGuild, UserID: "u2", ChannelID: "text"})
	require.NoError(t, err)
	assert.True(t, res.ChannelOverride, "vip allow still lets u2 write")
	assert.True(t, res.Escalated)
	assert.NotNil(t, f.dir.overwrite("text", "muted"))
}

func TestMuteIgnoresLiveTimeoutWithoutFlag(t *testing.T) {
	f := newFixture()
	live := f.now.Add(time.Hour)
	f.dir.members["u1"].CommunicationDisabledUntil = &live

	res, err := f.svc.Mute(context.Background(), MuteRequest{GuildID: testGuild, UserID: "u1", Duration: "2h"})
	require.NoError(t, err)
	assert.Equal(t, MechanismTimeout, res.Mechanism)
	assert.True(t, f.dir.member("u1").CommunicationDisabledUntil.Equal(f.now.Add(2*time.Hour)))
}

func TestPermanentMuteChannelDenyAvoidsEscalation(t *testing.T) {
	f := newFixture()
	f.withMuteRole("muted")

	res, err := f.svc.Mute(context.Background(), MuteRequest{GuildID: testGuild, UserID: "u1", ChannelID: "text"})
	require.NoError(t, err)
	assert.True(t, res.ChannelOverride)
	assert.False(t, res.Escalated, "the channel deny alone silences u1")
	assert.NotContains(t, f.dir.mutations(), "timeout:u1")
	assert.Nil(t, f.dir.member("u1").CommunicationDisabledUntil)
}

func TestMuteEscalationFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.withMuteRole("muted")
	f.dir.fail["timeout:adminUser"] = errors.New("cannot timeout administrators")

	res, err := f.svc.Mute(context.Background(), MuteRequest{GuildID: testGuild, UserID: "adminUser"})
	require.NoError(t, err)
	assert.False(t, res.Escalated)
	assert.True(t, f.store.record(testGuild, "adminUser").Muted)
}

func TestMuteUnknownMember(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Mute(context.Background(), MuteRequest{GuildID: testGuild, UserID: "ghost", Duration: "1h"})
	assert.ErrorIs(t, err, ErrMemberNotFound)
	assert.True(t, IsUserError(err))
}

func TestMutePersistFailureIsLoggedOnly(t *testing.T) {
	f := newFixture()
	f.store.upsertErr = errors.New("db down")

	res, err := f.svc.Mute(context.Background(), MuteRequest{GuildID: testGuild, UserID: "u1", Duration: "5m"})
	require.NoError(t, err)
	assert.Equal(t, MechanismTimeout, res.Mechanism)
}

func TestUnmuteNotMuted(t *testing.T) {
	f := newFixture()
	f.withMuteRole("muted")

	_, err := f.svc.Unmute(context.Background(), UnmuteRequest{GuildID: testGuild, UserID: "u1"})
	assert.ErrorIs(t, err, ErrNotMuted)
	assert.Empty(t, f.dir.mutations())
}

func TestUnmuteClearsFlagWhenRoleRemovalFails(t *testing.T) {
	f := newFixture()
	f.withMuteRole("muted")
	_, err := f.svc.Mute(context.Background(), MuteRequest{GuildID: testGuild, UserID: "u1"})
	require.NoError(t, err)
	f.dir.fail["removeRole:u1:muted"] = errors.New("hierarchy")

	res, err := f.svc.Unmute(context.Background(), UnmuteRequest{GuildID: testGuild, UserID: "u1"})
	require.NoError(t, err)
	assert.True(t, res.RoleLingering)
	assert.False(t, f.store.record(testGuild, "u1").Muted)
}

func TestUnmuteMemberWhoLeft(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.store.UpsertUserRecord(context.Background(), testGuild, "ghost", models.MutedUntil(nil)))

	res, err := f.svc.Unmute(context.Background(), UnmuteRequest{GuildID: testGuild, UserID: "ghost"})
	require.NoError(t, err)
	assert.True(t, res.MemberGone)
	assert.False(t, f.store.record(testGuild, "ghost").Muted)
}

func TestExpireAfterManualUnmuteIsNoop(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Mute(ctx, MuteRequest{GuildID: testGuild, UserID: "u1", Duration: "10m"})
	require.NoError(t, err)
	_, err = f.svc.Unmute(ctx, UnmuteRequest{GuildID: testGuild, UserID: "u1"})
	require.NoError(t, err)
	before := len(f.dir.mutations())

	f.now = f.now.Add(time.Hour)
	require.NoError(t, f.svc.Expire(ctx, testGuild, "u1"))

	assert.Len(t, f.dir.mutations(), before)
	assert.NotContains(t, f.sink.kinds(), EventAutoUnmute)
}

func TestExpireRearmsWhenExpiryMovedLater(t *testing.T) {
	f := newFixture()
	later := f.now.Add(2 * time.Hour)
	require.NoError(t, f.store.UpsertUserRecord(context.Background(), testGuild, "u1", models.MutedUntil(&later)))

	require.NoError(t, f.svc.Expire(context.Background(), testGuild, "u1"))

	armed, ok := f.armer.get(testGuild, "u1")
	require.True(t, ok)
	assert.True(t, armed.Equal(later))
	assert.Empty(t, f.dir.mutations())
	assert.True(t, f.store.record(testGuild, "u1").Muted)
}

func TestExpireIgnoresPermanentMute(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.store.UpsertUserRecord(context.Background(), testGuild, "u1", models.MutedUntil(nil)))

	require.NoError(t, f.svc.Expire(context.Background(), testGuild, "u1"))
	assert.True(t, f.store.record(testGuild, "u1").Muted)
}

func TestRestoreMuteOnRejoin(t *testing.T) {
	f := newFixture()
	f.withMuteRole("muted")
	require.NoError(t, f.store.UpsertUserRecord(context.Background(), testGuild, "u1", models.MutedUntil(nil)))

	applied, err := f.svc.RestoreMuteOnRejoin(context.Background(), testGuild, "u1")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.True(t, hasRole(f.dir.member("u1"), "muted"))

	applied, err = f.svc.RestoreMuteOnRejoin(context.Background(), testGuild, "u2")
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestApplyMuteRoleToNewChannel(t *testing.T) {
	f := newFixture()
	f.withMuteRole("muted")
	f.dir.addChannel(&discordgo.Channel{ID: "fresh", Type: discordgo.ChannelTypeGuildText})

	ch, _ := f.dir.Channel(context.Background(), "fresh")
	require.NoError(t, f.svc.ApplyMuteRoleToNewChannel(context.Background(), ch))
	assert.Equal(t, MuteTextSet, f.dir.overwrite("fresh", "muted").Deny)
}
