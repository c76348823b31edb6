package moderation

import (
	"context"
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
)

// SweepReport counts the corrections made by Reconcile
type SweepReport struct {
	Guilds  int
	Cleared int
	Marked  int
	Expired int
}

// Reconcile re-derives the persisted mute flags from the live role and
// timeout state. Stale flags are cleared, members holding the mute role
// without a record are marked as permanently muted, and overdue timed
// mutes are expired.
func (s *Service) Reconcile(ctx context.Context) (*SweepReport, error) {
	configs, err := s.store.ListGuildConfigs(ctx, bson.M{"$or": bson.A{
		bson.M{"users.muted": true},
		bson.M{"muteRole": bson.M{"$exists": true, "$ne": ""}},
	}})
	if err != nil {
		return nil, err
	}

	report := &SweepReport{}
	for _, cfg := range configs {
		if ctx.Err() != nil {
			break
		}
		report.Guilds++
		s.reconcileGuild(ctx, cfg, report)
	}

	if report.Cleared+report.Marked+report.Expired > 0 {
		logger.Info(fmt.Sprintf("Barrido: %d servidores, %d flags limpiados, %d marcados, %d expirados",
			report.Guilds, report.Cleared, report.Marked, report.Expired), "Sweep")
	}
	return report, nil
}

func (s *Service) reconcileGuild(ctx context.Context, cfg *models.GuildConfig, report *SweepReport) {
	now := s.now()

	for _, rec := range cfg.Users.Sorted() {
		if !rec.Muted {
			continue
		}
		if rec.MutedUntil != nil && !rec.MutedUntil.After(now) {
			if err := s.Expire(ctx, cfg.GuildID, rec.UserID); err != nil {
				logger.Warn(fmt.Sprintf("No se pudo expirar %s en %s: %v", rec.UserID, cfg.GuildID, err), "Sweep")
				continue
			}
			report.Expired++
			continue
		}

		member, err := s.dir.Member(ctx, cfg.GuildID, rec.UserID)
		if err != nil {
			// Members who left keep their flag so a rejoin restores the mute
			continue
		}
		roled := hasRole(member, cfg.MuteRole)
		timedOut := member.CommunicationDisabledUntil != nil && member.CommunicationDisabledUntil.After(now)
		if roled || timedOut {
			continue
		}
		if err := s.store.UpsertUserRecord(ctx, cfg.GuildID, rec.UserID, models.Unmuted()); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo limpiar el flag de %s: %v", rec.UserID, err), "Sweep")
			continue
		}
		report.Cleared++
	}

	if cfg.MuteRole == "" {
		return
	}
	members, err := s.dir.Members(ctx, cfg.GuildID)
	if err != nil {
		return
	}
	for _, m := range members {
		id := memberID(m)
		if id == "" || !hasRole(m, cfg.MuteRole) {
			continue
		}
		if rec := cfg.Users.Get(id); rec != nil && rec.Muted {
			continue
		}
		if err := s.store.UpsertUserRecord(ctx, cfg.GuildID, id, models.MutedUntil(nil)); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo marcar a %s como silenciado: %v", id, err), "Sweep")
			continue
		}
		report.Marked++
	}
}
