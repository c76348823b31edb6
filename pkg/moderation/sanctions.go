package moderation

import (
	"context"
)

// MaxBanDeleteDays is the longest message history Discord deletes on ban
const MaxBanDeleteDays = 7

// SanctionRequest is the input of Kick, Ban and Unban
type SanctionRequest struct {
	GuildID     string
	UserID      string
	ModeratorID string
	Reason      string
	// DeleteDays is the message history to delete on ban, 0 to 7
	DeleteDays int
}

func (s *Service) publishSanction(ctx context.Context, kind EventKind, req SanctionRequest) {
	s.sink.Publish(ctx, Event{
		Kind:        kind,
		GuildID:     req.GuildID,
		UserID:      req.UserID,
		ModeratorID: req.ModeratorID,
		Reason:      req.Reason,
		At:          s.now(),
	})
}

// Kick removes a member from the guild
func (s *Service) Kick(ctx context.Context, req SanctionRequest) error {
	if _, err := s.dir.Member(ctx, req.GuildID, req.UserID); err != nil {
		return err
	}
	if err := s.dir.Kick(ctx, req.GuildID, req.UserID, req.Reason); err != nil {
		return err
	}
	s.publishSanction(ctx, EventKick, req)
	return nil
}

// Ban bans a user, member or not. DeleteDays is clamped to 0..7.
func (s *Service) Ban(ctx context.Context, req SanctionRequest) error {
	if req.DeleteDays < 0 {
		req.DeleteDays = 0
	}
	if req.DeleteDays > MaxBanDeleteDays {
		req.DeleteDays = MaxBanDeleteDays
	}
	if err := s.dir.Ban(ctx, req.GuildID, req.UserID, req.DeleteDays, req.Reason); err != nil {
		return err
	}
	s.publishSanction(ctx, EventBan, req)
	return nil
}

// Unban lifts a ban
func (s *Service) Unban(ctx context.Context, req SanctionRequest) error {
	if err := s.dir.Unban(ctx, req.GuildID, req.UserID, req.Reason); err != nil {
		return err
	}
	s.publishSanction(ctx, EventUnban, req)
	return nil
}
