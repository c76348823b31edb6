package moderation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/bwmarrin/discordgo"
)

// WarnRequest is the input of Warn
type WarnRequest struct {
	GuildID     string
	UserID      string
	ModeratorID string
	Reason      string
}

// WarnResult reports the new warning count and whether the automatic
// timeout kicked in
type WarnResult struct {
	Count          int
	TimedOut       bool
	TimeoutMinutes int
}

// Warn records a warning and applies the guild's auto-timeout policy
func (s *Service) Warn(ctx context.Context, req WarnRequest) (*WarnResult, error) {
	cfg, err := s.store.GetOrCreate(ctx, req.GuildID)
	if err != nil {
		return nil, err
	}
	if _, err := s.dir.Member(ctx, req.GuildID, req.UserID); err != nil {
		return nil, err
	}

	w := models.Warning{Reason: req.Reason, Moderator: req.ModeratorID, Date: s.now()}
	if err := s.store.UpsertUserRecord(ctx, req.GuildID, req.UserID, models.UserPatch{AddWarning: &w}); err != nil {
		return nil, err
	}

	res := &WarnResult{Count: 1}
	if rec := cfg.Users.Get(req.UserID); rec != nil {
		res.Count = len(rec.Warnings) + 1
	}

	s.sink.Publish(ctx, Event{
		Kind:        EventWarn,
		GuildID:     req.GuildID,
		UserID:      req.UserID,
		ModeratorID: req.ModeratorID,
		Reason:      req.Reason,
		Count:       res.Count,
		At:          w.Date,
	})

	policy := cfg.WarnPolicy(s.opts.WarnTimeoutAfter, s.opts.WarnTimeoutMinutes)
	if res.Count < policy.TimeoutAfter || !s.botCan(ctx, req.GuildID, discordgo.PermissionModerateMembers) {
		return res, nil
	}

	until := s.now().Add(time.Duration(policy.TimeoutDurationMinutes) * time.Minute)
	reason := fmt.Sprintf("Auto-timeout tras %d advertencias", res.Count)
	if err := s.dir.Timeout(ctx, req.GuildID, req.UserID, &until, reason); err != nil {
		logger.Warn(fmt.Sprintf("Auto-timeout fallido para %s: %v", req.UserID, err), "Warn")
		return res, nil
	}
	res.TimedOut = true
	res.TimeoutMinutes = policy.TimeoutDurationMinutes

	s.sink.Publish(ctx, Event{
		Kind:     EventWarnTimeout,
		GuildID:  req.GuildID,
		UserID:   req.UserID,
		Reason:   reason,
		Duration: fmt.Sprintf("%dm", policy.TimeoutDurationMinutes),
		Until:    &until,
		Count:    res.Count,
		At:       s.now(),
	})
	return res, nil
}

func (s *Service) botCan(ctx context.Context, guildID string, perm int64) bool {
	botID := s.dir.BotUserID()
	if botID == "" {
		return false
	}
	guild, err := s.dir.Guild(ctx, guildID)
	if err != nil {
		return false
	}
	bot, err := s.dir.Member(ctx, guildID, botID)
	if err != nil {
		return false
	}
	return BasePermissions(guild, bot)&perm != 0
}

// UnwarnRequest is the input of Unwarn. Index is 1-based; 0 removes the
// most recent warning.
type UnwarnRequest struct {
	GuildID     string
	UserID      string
	ModeratorID string
	Index       int
}

// UnwarnResult reports the removed warning
type UnwarnResult struct {
	Removed   models.Warning
	Index     int
	Remaining int
}

// Unwarn removes one warning, keeping the order of the others
func (s *Service) Unwarn(ctx context.Context, req UnwarnRequest) (*UnwarnResult, error) {
	cfg, err := s.store.FindGuildConfig(ctx, req.GuildID)
	if err != nil {
		return nil, err
	}
	var warnings []models.Warning
	if cfg != nil {
		if rec := cfg.Users.Get(req.UserID); rec != nil {
			warnings = rec.Warnings
		}
	}
	if len(warnings) == 0 {
		return nil, ErrNoWarnings
	}

	idx := req.Index
	if idx == 0 {
		idx = len(warnings)
	}
	if idx < 1 || idx > len(warnings) {
		return nil, fmt.Errorf("%w: %d of %d", ErrWarningIndex, idx, len(warnings))
	}

	removed := warnings[idx-1]
	remaining := make([]models.Warning, 0, len(warnings)-1)
	remaining = append(remaining, warnings[:idx-1]...)
	remaining = append(remaining, warnings[idx:]...)

	if err := s.store.UpsertUserRecord(ctx, req.GuildID, req.UserID, models.UserPatch{Warnings: remaining}); err != nil {
		return nil, err
	}

	s.sink.Publish(ctx, Event{
		Kind:        EventUnwarn,
		GuildID:     req.GuildID,
		UserID:      req.UserID,
		ModeratorID: req.ModeratorID,
		Reason:      removed.Reason,
		Count:       len(remaining),
		At:          s.now(),
	})
	return &UnwarnResult{Removed: removed, Index: idx, Remaining: len(remaining)}, nil
}

// Warnings returns the warnings of one member, oldest first
func (s *Service) Warnings(ctx context.Context, guildID, userID string) ([]models.Warning, error) {
	cfg, err := s.store.FindGuildConfig(ctx, guildID)
	if err != nil || cfg == nil {
		return nil, err
	}
	if rec := cfg.Users.Get(userID); rec != nil {
		return rec.Warnings, nil
	}
	return nil, nil
}

// WarnList returns the members with at least one warning, most warned first
func (s *Service) WarnList(ctx context.Context, guildID string) ([]*models.UserRecord, error) {
	cfg, err := s.store.FindGuildConfig(ctx, guildID)
	if err != nil || cfg == nil {
		return nil, err
	}
	var out []*models.UserRecord
	for _, rec := range cfg.Users.Sorted() {
		if len(rec.Warnings) > 0 {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i].Warnings) > len(out[j].Warnings) })
	return out, nil
}
