package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockTextDeniesEveryoneAndSweepsAllows(t *testing.T) {
	f := newFixture()
	r := f.svc.Reconciler()

	res, err := r.Lock(context.Background(), "text", "raid")
	require.NoError(t, err)

	everyone := f.dir.overwrite("text", testGuild)
	require.NotNil(t, everyone)
	assert.Equal(t, TextLockSet, everyone.Deny&TextLockSet)
	assert.Zero(t, everyone.Allow&TextLockSet)

	vip := f.dir.overwrite("text", "vip")
	assert.Zero(t, vip.Allow&discordgo.PermissionSendMessages, "explicit allow must be removed")
	assert.NotZero(t, vip.Deny&discordgo.PermissionSendMessages)
	assert.Equal(t, []string{"vip"}, res.Swept)
	assert.Empty(t, res.MemberOverride, "the sampled member is already denied through @everyone")
}

func TestLockIsIdempotent(t *testing.T) {
	f := newFixture()
	r := f.svc.Reconciler()

	_, err := r.Lock(context.Background(), "text", "")
	require.NoError(t, err)
	before := len(f.dir.mutations())

	_, err = r.Lock(context.Background(), "text", "")
	assert.ErrorIs(t, err, ErrAlreadyLocked)
	assert.Len(t, f.dir.mutations(), before, "second lock must not mutate")
}

func TestUnlockKeepsSweptDenies(t *testing.T) {
	f := newFixture()
	r := f.svc.Reconciler()

	_, err := r.Lock(context.Background(), "text", "")
	require.NoError(t, err)
	_, err = r.Unlock(context.Background(), "text", "")
	require.NoError(t, err)

	everyone := f.dir.overwrite("text", testGuild)
	assert.Zero(t, everyone.Deny&TextLockSet, "@everyone is back to inherited")
	assert.Zero(t, everyone.Allow&TextLockSet, "unlock clears, it does not allow")

	vip := f.dir.overwrite("text", "vip")
	assert.NotZero(t, vip.Deny&discordgo.PermissionSendMessages, "sweep denials survive unlock")
}

func TestUnlockWhenNotLocked(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Reconciler().Unlock(context.Background(), "text", "")
	assert.ErrorIs(t, err, ErrNotLocked)
	assert.Empty(t, f.dir.mutations())
}

func TestLockVoiceClasses(t *testing.T) {
	tests := []struct {
		channel string
		want    int64
	}{
		{"voice", discordgo.PermissionVoiceConnect},
		{"stage", discordgo.PermissionVoiceConnect | discordgo.PermissionVoiceSpeak},
	}

	for _, tt := range tests {
		t.Run(tt.channel, func(t *testing.T) {
			f := newFixture()
			_, err := f.svc.Reconciler().Lock(context.Background(), tt.channel, "")
			require.NoError(t, err)

			everyone := f.dir.overwrite(tt.channel, testGuild)
			assert.Equal(t, tt.want, everyone.Deny)
		})
	}
}

func TestLockThreadUsesLockedFlag(t *testing.T) {
	f := newFixture()
	r := f.svc.Reconciler()

	res, err := r.Lock(context.Background(), "thread", "")
	require.NoError(t, err)
	assert.Equal(t, ClassThread, res.Class)
	assert.Contains(t, f.dir.mutations(), "thread:thread:true")

	_, err = r.Lock(context.Background(), "thread", "")
	assert.ErrorIs(t, err, ErrAlreadyLocked)

	_, err = r.Unlock(context.Background(), "thread", "")
	require.NoError(t, err)
	assert.Contains(t, f.dir.mutations(), "thread:thread:false")
}

func TestLockPrimaryFailureIsFatal(t *testing.T) {
	f := newFixture()
	f.dir.fail["overwrite:text:"+testGuild] = errors.New("boom")

	_, err := f.svc.Reconciler().Lock(context.Background(), "text", "")
	assert.Error(t, err)
	assert.Nil(t, f.dir.overwrite("text", testGuild))
}

func TestLockSweepFailureIsSkipped(t *testing.T) {
	f := newFixture()
	f.dir.fail["overwrite:text:vip"] = errors.New("hierarchy")

	res, err := f.svc.Reconciler().Lock(context.Background(), "text", "")
	require.NoError(t, err)
	assert.Empty(t, res.Swept)
}

func TestLockAddsMemberDenyWhenSampleCanStillSend(t *testing.T) {
	f := newFixture()
	delete(f.dir.members, "u1")
	delete(f.dir.members, "staffUser")
	f.dir.fail["overwrite:text:vip"] = errors.New("hierarchy")

	res, err := f.svc.Reconciler().Lock(context.Background(), "text", "")
	require.NoError(t, err)
	assert.Equal(t, "u2", res.MemberOverride)

	ow := f.dir.overwrite("text", "u2")
	require.NotNil(t, ow)
	assert.Equal(t, discordgo.PermissionOverwriteTypeMember, ow.Type)
	assert.NotZero(t, ow.Deny&discordgo.PermissionSendMessages)
}

func TestLockUnsupportedChannel(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Reconciler().Lock(context.Background(), "cat", "")
	assert.ErrorIs(t, err, ErrUnsupportedChannel)
}

func TestApplyMuteRoleAcrossGuild(t *testing.T) {
	f := newFixture()
	f.dir.fail["overwrite:stage:muted"] = errors.New("missing access")

	require.NoError(t, f.svc.Reconciler().ApplyMuteRoleAcrossGuild(context.Background(), testGuild, "muted", ""))

	assert.Equal(t, MuteTextSet, f.dir.overwrite("text", "muted").Deny)
	assert.Equal(t, MuteVoiceSet, f.dir.overwrite("voice", "muted").Deny)
	assert.Zero(t, f.dir.overwrite("voice", "muted").Deny&discordgo.PermissionVoiceConnect, "mute role keeps connect")
	assert.Equal(t, MuteTextSet|MuteVoiceSet, f.dir.overwrite("cat", "muted").Deny)
	assert.Nil(t, f.dir.overwrite("stage", "muted"), "failed channel is skipped")
	assert.Nil(t, f.dir.overwrite("thread", "muted"), "threads inherit from their parent")
}
