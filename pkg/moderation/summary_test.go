package moderation

import (
	"context"
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryUnconfiguredGuild(t *testing.T) {
	f := newFixture()
	sum, err := f.svc.Summary(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.False(t, sum.Configured)
	assert.Empty(t, sum.Mutes)
	assert.NotNil(t, sum.Mutes)
}

func TestSummaryAndActiveMutes(t *testing.T) {
	f := newFixture()
	soon := f.now.Add(time.Hour)
	later := f.now.Add(48 * time.Hour)
	day := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	f.store.update(testGuild, func(cfg *models.GuildConfig) {
		cfg.MuteRole = "muted"
		cfg.StaffRoles = []string{"staff"}
		cfg.Users.Ensure("perm").Muted = true
		late := cfg.Users.Ensure("late")
		late.Muted, late.MutedUntil = true, &later
		early := cfg.Users.Ensure("early")
		early.Muted, early.MutedUntil = true, &soon
		w := cfg.Users.Ensure("warned")
		w.Warnings = []models.Warning{{Reason: "a", Date: day}, {Reason: "b", Date: day.Add(time.Hour)}}
	})

	mutes, err := f.svc.ActiveMutes(context.Background(), testGuild)
	require.NoError(t, err)
	require.Len(t, mutes, 3)
	assert.Equal(t, "early", mutes[0].UserID)
	assert.Equal(t, "late", mutes[1].UserID)
	assert.Equal(t, "perm", mutes[2].UserID)
	assert.True(t, mutes[2].Permanent)

	sum, err := f.svc.Summary(context.Background(), testGuild)
	require.NoError(t, err)
	assert.True(t, sum.Configured)
	assert.Equal(t, "muted", sum.MuteRole)
	assert.Equal(t, []string{"staff"}, sum.StaffRoles)
	assert.Equal(t, 2, sum.TotalWarnings)
	require.Len(t, sum.Warned, 1)
	assert.Equal(t, day.Add(time.Hour), sum.Warned[0].Last)
}
