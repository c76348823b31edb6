package moderation

import (
	"context"
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/bwmarrin/discordgo"
)

// VoiceRequest is the input of the voice moderation actions
type VoiceRequest struct {
	GuildID     string
	UserID      string
	ModeratorID string
	Reason      string
}

// VoiceResult reports how many channels were touched
type VoiceResult struct {
	Channels     int
	Disconnected bool
}

func isStaff(cfg *models.GuildConfig, member *discordgo.Member) bool {
	for _, r := range member.Roles {
		if cfg.IsStaffRole(r) {
			return true
		}
	}
	return false
}

func (s *Service) voiceTarget(ctx context.Context, req VoiceRequest) (*models.GuildConfig, *discordgo.Member, error) {
	cfg, err := s.store.GetOrCreate(ctx, req.GuildID)
	if err != nil {
		return nil, nil, err
	}
	member, err := s.dir.Member(ctx, req.GuildID, req.UserID)
	if err != nil {
		return nil, nil, err
	}
	if isStaff(cfg, member) {
		return nil, nil, ErrStaffProtected
	}
	return cfg, member, nil
}

func inVoice(guild *discordgo.Guild, userID string) bool {
	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID && vs.ChannelID != "" {
			return true
		}
	}
	return false
}

// VoiceKick disconnects a member from voice
func (s *Service) VoiceKick(ctx context.Context, req VoiceRequest) (*VoiceResult, error) {
	if _, _, err := s.voiceTarget(ctx, req); err != nil {
		return nil, err
	}
	guild, err := s.dir.Guild(ctx, req.GuildID)
	if err != nil {
		return nil, err
	}
	if !inVoice(guild, req.UserID) {
		return nil, ErrNotInVoice
	}
	if err := s.dir.DisconnectVoice(ctx, req.GuildID, req.UserID, req.Reason); err != nil {
		return nil, err
	}
	s.publishVoice(ctx, EventVoiceKick, req, 0)
	return &VoiceResult{Disconnected: true}, nil
}

// VoiceBan denies Connect to the member on every voice and stage channel
// and disconnects them
func (s *Service) VoiceBan(ctx context.Context, req VoiceRequest) (*VoiceResult, error) {
	if _, _, err := s.voiceTarget(ctx, req); err != nil {
		return nil, err
	}
	channels, err := s.dir.Channels(ctx, req.GuildID)
	if err != nil {
		return nil, err
	}

	res := &VoiceResult{}
	for _, ch := range channels {
		if c := ClassOf(ch); c != ClassVoice && c != ClassStage {
			continue
		}
		ow := denyBits(findOverwrite(ch, req.UserID), req.UserID, discordgo.PermissionOverwriteTypeMember, discordgo.PermissionVoiceConnect)
		if err := s.dir.EditOverwrite(ctx, ch.ID, ow, req.Reason); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo vetar a %s en %s: %v", req.UserID, ch.ID, err), "Voice")
			continue
		}
		res.Channels++
	}

	if guild, err := s.dir.Guild(ctx, req.GuildID); err == nil && inVoice(guild, req.UserID) {
		if err := s.dir.DisconnectVoice(ctx, req.GuildID, req.UserID, req.Reason); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo desconectar a %s: %v", req.UserID, err), "Voice")
		} else {
			res.Disconnected = true
		}
	}

	s.publishVoice(ctx, EventVoiceBan, req, res.Channels)
	return res, nil
}

// VoiceUnban clears the Connect deny placed by VoiceBan
func (s *Service) VoiceUnban(ctx context.Context, req VoiceRequest) (*VoiceResult, error) {
	if _, _, err := s.voiceTarget(ctx, req); err != nil {
		return nil, err
	}
	channels, err := s.dir.Channels(ctx, req.GuildID)
	if err != nil {
		return nil, err
	}

	res := &VoiceResult{}
	for _, ch := range channels {
		existing := findOverwrite(ch, req.UserID)
		if existing == nil || existing.Deny&discordgo.PermissionVoiceConnect == 0 {
			continue
		}
		ow := clearBits(existing, req.UserID, discordgo.PermissionOverwriteTypeMember, discordgo.PermissionVoiceConnect)
		if err := s.dir.EditOverwrite(ctx, ch.ID, ow, req.Reason); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo restaurar a %s en %s: %v", req.UserID, ch.ID, err), "Voice")
			continue
		}
		res.Channels++
	}
	if res.Channels == 0 {
		return nil, ErrNotVoiceBanned
	}

	s.publishVoice(ctx, EventVoiceUnban, req, res.Channels)
	return res, nil
}

func (s *Service) publishVoice(ctx context.Context, kind EventKind, req VoiceRequest, count int) {
	s.sink.Publish(ctx, Event{
		Kind:        kind,
		GuildID:     req.GuildID,
		UserID:      req.UserID,
		ModeratorID: req.ModeratorID,
		Reason:      req.Reason,
		Count:       count,
		At:          s.now(),
	})
}
