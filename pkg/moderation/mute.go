package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/bwmarrin/discordgo"
)

// Armer schedules an expiry; implemented by Scheduler
type Armer interface {
	Arm(guildID, userID string, at time.Time)
}

// Options tunes the service
type Options struct {
	WarnTimeoutAfter   int
	WarnTimeoutMinutes int
	MuteRoleName       string
}

// Service owns the mute, warn and voice moderation lifecycles
type Service struct {
	store      ConfigStore
	dir        GuildDirectory
	reconciler *Reconciler
	armer      Armer
	sink       EventSink
	opts       Options
	now        func() time.Time
}

// NewService wires the moderation core. sink may be nil.
func NewService(store ConfigStore, dir GuildDirectory, armer Armer, sink EventSink, opts Options) *Service {
	if sink == nil {
		sink = nopSink{}
	}
	if opts.WarnTimeoutAfter <= 0 {
		opts.WarnTimeoutAfter = 3
	}
	if opts.WarnTimeoutMinutes <= 0 {
		opts.WarnTimeoutMinutes = 60
	}
	if opts.MuteRoleName == "" {
		opts.MuteRoleName = "Muted"
	}
	return &Service{
		store:      store,
		dir:        dir,
		reconciler: NewReconciler(dir),
		armer:      armer,
		sink:       sink,
		opts:       opts,
		now:        time.Now,
	}
}

// Reconciler returns the channel reconciler used by the service
func (s *Service) Reconciler() *Reconciler {
	return s.reconciler
}

// Store returns the config store used by the service
func (s *Service) Store() ConfigStore {
	return s.store
}

// Mechanism is how a mute is enforced
type Mechanism string

const (
	MechanismTimeout Mechanism = "timeout"
	MechanismRole    Mechanism = "role"
)

// MuteRequest is the input of Mute. An empty Duration means permanent.
type MuteRequest struct {
	GuildID     string
	UserID      string
	ModeratorID string
	// ChannelID is the channel the command was run in
	ChannelID string
	Duration  string
	Reason    string
}

// MuteResult describes an applied mute
type MuteResult struct {
	Label     string
	Permanent bool
	Mechanism Mechanism
	Until     *time.Time
	// ChannelOverride is set when the invoking channel needed a role deny
	ChannelOverride bool
	// Escalated is set when a 28 day timeout was added on top of the role
	Escalated bool
}

// Mute silences a member, by native timeout when a duration is given and
// by the mute role otherwise
func (s *Service) Mute(ctx context.Context, req MuteRequest) (*MuteResult, error) {
	var (
		d   time.Duration
		err error
	)
	if req.Duration != "" {
		if d, err = ParseMuteDuration(req.Duration); err != nil {
			return nil, err
		}
	}

	cfg, err := s.store.GetOrCreate(ctx, req.GuildID)
	if err != nil {
		return nil, err
	}
	member, err := s.dir.Member(ctx, req.GuildID, req.UserID)
	if err != nil {
		return nil, err
	}

	rec := cfg.Users.Get(req.UserID)
	if hasRole(member, cfg.MuteRole) || (rec != nil && rec.Muted) {
		return nil, ErrAlreadyMuted
	}

	res := &MuteResult{Label: "Permanent", Permanent: true}
	if req.Duration != "" {
		until := s.now().Add(d)
		res.Label = req.Duration
		res.Permanent = false
		res.Until = &until
		if err := s.muteTimed(ctx, cfg, req, until, res); err != nil {
			return nil, err
		}
	} else {
		if err := s.mutePermanent(ctx, cfg, member, req, res); err != nil {
			return nil, err
		}
	}

	if err := s.store.UpsertUserRecord(ctx, req.GuildID, req.UserID, models.MutedUntil(res.Until)); err != nil {
		logger.Error(fmt.Sprintf("Mute aplicado pero no guardado (%s en %s): %v", req.UserID, req.GuildID, err), "Mute")
	}

	if res.Until != nil && s.armer != nil {
		s.armer.Arm(req.GuildID, req.UserID, *res.Until)
	}

	s.sink.Publish(ctx, Event{
		Kind:        EventMute,
		GuildID:     req.GuildID,
		UserID:      req.UserID,
		ModeratorID: req.ModeratorID,
		ChannelID:   req.ChannelID,
		Reason:      req.Reason,
		Duration:    res.Label,
		Until:       res.Until,
		At:          s.now(),
	})
	logger.Info(fmt.Sprintf("%s silenciado en %s (%s, %s)", req.UserID, req.GuildID, res.Label, res.Mechanism), "Mute")
	return res, nil
}

func (s *Service) muteTimed(ctx context.Context, cfg *models.GuildConfig, req MuteRequest, until time.Time, res *MuteResult) error {
	err := s.dir.Timeout(ctx, req.GuildID, req.UserID, &until, req.Reason)
	if err == nil {
		res.Mechanism = MechanismTimeout
		return nil
	}

	logger.Warn(fmt.Sprintf("Timeout rechazado para %s, usando el rol mute: %v", req.UserID, err), "Mute")
	if cfg.MuteRole == "" {
		return err
	}
	if err := s.dir.AddRole(ctx, req.GuildID, req.UserID, cfg.MuteRole, req.Reason); err != nil {
		return err
	}
	res.Mechanism = MechanismRole
	return nil
}

func (s *Service) mutePermanent(ctx context.Context, cfg *models.GuildConfig, member *discordgo.Member, req MuteRequest, res *MuteResult) error {
	if cfg.MuteRole == "" {
		return ErrNoMuteRole
	}
	if err := s.dir.AddRole(ctx, req.GuildID, req.UserID, cfg.MuteRole, req.Reason); err != nil {
		return err
	}
	res.Mechanism = MechanismRole

	guild, err := s.dir.Guild(ctx, req.GuildID)
	if err != nil {
		logger.Warn(fmt.Sprintf("No se pudo verificar el mute de %s: %v", req.UserID, err), "Mute")
		return nil
	}

	muted := *member
	muted.Roles = append(append([]string(nil), member.Roles...), cfg.MuteRole)
	admin := IsAdministrator(guild, &muted)

	stillCanSend := false
	if req.ChannelID != "" {
		res.ChannelOverride, stillCanSend = s.enforceInChannel(ctx, guild, &muted, cfg.MuteRole, req)
	}

	if admin || stillCanSend {
		until := s.now().Add(MaxTimeout)
		if err := s.dir.Timeout(ctx, req.GuildID, req.UserID, &until, req.Reason); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo escalar a timeout de 28 días para %s: %v", req.UserID, err), "Mute")
		} else {
			res.Escalated = true
		}
	}
	return nil
}

// enforceInChannel denies the mute role in the invoking channel when the
// muted member can still write there. It reports whether the deny was
// applied and whether the member can still write afterwards.
func (s *Service) enforceInChannel(ctx context.Context, guild *discordgo.Guild, member *discordgo.Member, roleID string, req MuteRequest) (applied, stillCanSend bool) {
	ch, err := s.dir.Channel(ctx, req.ChannelID)
	if err != nil {
		logger.Debug(fmt.Sprintf("Canal %s ilegible: %v", req.ChannelID, err), "Mute")
		return false, false
	}

	sendBit := int64(discordgo.PermissionSendMessages)
	if ClassOf(ch) == ClassThread && ch.ParentID != "" {
		sendBit = discordgo.PermissionSendMessagesInThreads
		if parent, err := s.dir.Channel(ctx, ch.ParentID); err == nil {
			ch = parent
		}
	}
	if EffectivePermissions(guild, ch, member, s.now())&sendBit == 0 {
		return false, false
	}

	ow := denyBits(findOverwrite(ch, roleID), roleID, discordgo.PermissionOverwriteTypeRole, MuteTextSet)
	if err := s.dir.EditOverwrite(ctx, ch.ID, ow, req.Reason); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo denegar el rol mute en %s: %v", ch.ID, err), "Mute")
		return false, true
	}

	denied := *ch
	denied.PermissionOverwrites = replaceOverwrite(ch.PermissionOverwrites, ow)
	return true, EffectivePermissions(guild, &denied, member, s.now())&sendBit != 0
}

// UnmuteRequest is the input of Unmute
type UnmuteRequest struct {
	GuildID     string
	UserID      string
	ModeratorID string
	Reason      string
	// Automatic marks the expiry path, which also notifies the member
	Automatic bool
}

// UnmuteResult describes an unmute
type UnmuteResult struct {
	// RoleLingering is set when the mute role could not be removed
	RoleLingering bool
	// MemberGone is set when the member left the guild
	MemberGone bool
}

// Unmute lifts a mute. The persisted flag is cleared even when the role
// removal fails.
func (s *Service) Unmute(ctx context.Context, req UnmuteRequest) (*UnmuteResult, error) {
	cfg, err := s.store.FindGuildConfig(ctx, req.GuildID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = models.NewGuildConfig(req.GuildID, "")
	}
	rec := cfg.Users.Get(req.UserID)
	flagged := rec != nil && rec.Muted

	res := &UnmuteResult{}
	member, err := s.dir.Member(ctx, req.GuildID, req.UserID)
	switch {
	case err != nil && isUnknownMember(err) && flagged:
		res.MemberGone = true
	case err != nil:
		return nil, err
	}

	if member != nil {
		roled := hasRole(member, cfg.MuteRole)
		timedOut := member.CommunicationDisabledUntil != nil && member.CommunicationDisabledUntil.After(s.now())
		if !roled && !flagged && !timedOut {
			return nil, ErrNotMuted
		}

		if err := s.dir.Timeout(ctx, req.GuildID, req.UserID, nil, req.Reason); err != nil {
			logger.Debug(fmt.Sprintf("No se pudo limpiar el timeout de %s: %v", req.UserID, err), "Mute")
		}

		if roled {
			if err := s.dir.RemoveRole(ctx, req.GuildID, req.UserID, cfg.MuteRole, req.Reason); err != nil {
				logger.Warn(fmt.Sprintf("No se pudo quitar el rol mute a %s: %v", req.UserID, err), "Mute")
				res.RoleLingering = true
			}
		}
	}

	if err := s.store.UpsertUserRecord(ctx, req.GuildID, req.UserID, models.Unmuted()); err != nil {
		logger.Error(fmt.Sprintf("Unmute aplicado pero no guardado (%s en %s): %v", req.UserID, req.GuildID, err), "Mute")
	}

	kind := EventUnmute
	if req.Automatic {
		kind = EventAutoUnmute
	}
	s.sink.Publish(ctx, Event{
		Kind:        kind,
		GuildID:     req.GuildID,
		UserID:      req.UserID,
		ModeratorID: req.ModeratorID,
		Reason:      req.Reason,
		At:          s.now(),
	})
	logger.Info(fmt.Sprintf("%s desilenciado en %s (automático: %t)", req.UserID, req.GuildID, req.Automatic), "Mute")
	return res, nil
}

// Expire is the scheduler callback. It re-reads the record and only unmutes
// when the member is still muted and the persisted expiry has passed.
func (s *Service) Expire(ctx context.Context, guildID, userID string) error {
	cfg, err := s.store.FindGuildConfig(ctx, guildID)
	if err != nil {
		return err
	}
	if cfg == nil {
		return nil
	}
	rec := cfg.Users.Get(userID)
	if rec == nil || !rec.Muted || rec.MutedUntil == nil {
		logger.Debug(fmt.Sprintf("Expiración ignorada para %s en %s: ya no está silenciado", userID, guildID), "Scheduler")
		return nil
	}
	if rec.MutedUntil.After(s.now()) {
		if s.armer != nil {
			s.armer.Arm(guildID, userID, *rec.MutedUntil)
		}
		return nil
	}

	_, err = s.Unmute(ctx, UnmuteRequest{
		GuildID:   guildID,
		UserID:    userID,
		Reason:    "Fin del mute automático",
		Automatic: true,
	})
	return err
}
