package database

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
)

// GuildCollection is the collection holding one document per guild
const GuildCollection = "guilds"

// GuildStore persists GuildConfig documents on top of a DataManager
type GuildStore struct {
	dm              *DataManager[models.GuildConfig]
	defaultLanguage string
}

// NewGuildStore creates the store for the "guilds" collection
func NewGuildStore(db *Database, defaultLanguage string) *GuildStore {
	return &GuildStore{
		dm:              NewDataManager[models.GuildConfig](GuildCollection, db),
		defaultLanguage: defaultLanguage,
	}
}

func guildQuery(guildID string) bson.M {
	return bson.M{"guildId": guildID}
}

// FindGuildConfig returns a private copy of the guild document, or nil when
// the guild has none yet.
func (s *GuildStore) FindGuildConfig(ctx context.Context, guildID string) (*models.GuildConfig, error) {
	cfg, err := s.dm.Get(ctx, guildQuery(guildID))
	if err != nil || cfg == nil {
		return nil, err
	}
	c := cfg.Clone()
	c.Normalize(s.defaultLanguage)
	return c, nil
}

// GetOrCreate returns the guild document, creating the default one if needed
func (s *GuildStore) GetOrCreate(ctx context.Context, guildID string) (*models.GuildConfig, error) {
	cfg, err := s.FindGuildConfig(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		return cfg, nil
	}

	cfg = models.NewGuildConfig(guildID, s.defaultLanguage)
	if err := s.Save(ctx, cfg); err != nil {
		return nil, err
	}
	logger.Info(fmt.Sprintf("Configuración creada para el servidor %s", guildID), "GuildStore")
	return cfg, nil
}

// Save writes the whole document
func (s *GuildStore) Save(ctx context.Context, cfg *models.GuildConfig) error {
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = time.Now()
	}
	_, err := s.dm.Set(ctx, guildQuery(cfg.GuildID), cfg)
	return err
}

// SetMuteRole stores the mute role without rewriting the rest of the
// document
func (s *GuildStore) SetMuteRole(ctx context.Context, guildID, roleID string) error {
	q := guildQuery(guildID)
	_, err := s.dm.Update(ctx, q, q, muteRoleUpdate(roleID, s.defaultLanguage), true)
	return err
}

// UpsertUserRecord patches users[userId]. The matching array entry is
// updated in place; when there is none a new record is pushed, creating the
// guild document if it does not exist.
func (s *GuildStore) UpsertUserRecord(ctx context.Context, guildID, userID string, patch models.UserPatch) error {
	q := guildQuery(guildID)
	return upsertUser(func(filter, update bson.M, upsert bool) (int64, error) {
		return s.dm.Update(ctx, q, filter, update, upsert)
	}, guildID, userID, patch, s.defaultLanguage)
}

// updateFunc runs one UpdateOne and reports matched plus upserted documents
type updateFunc func(filter, update bson.M, upsert bool) (int64, error)

// upsertUser updates the entry in place or pushes a new one. The push only
// matches while the array lacks userID, so a writer that lost the race falls
// back to the in-place update on the next attempt.
func upsertUser(update updateFunc, guildID, userID string, patch models.UserPatch, language string) error {
	inPlace := positionalUpdate(patch)
	if len(inPlace) == 0 {
		inPlace = bson.M{"$set": bson.M{"users.$.userId": userID}}
	}
	rec := &models.UserRecord{UserID: userID}
	patch.Apply(rec)
	push := pushUserUpdate(rec)

	for attempt := 0; attempt < 2; attempt++ {
		matched, err := update(userFilter(guildID, userID), inPlace, false)
		if err != nil || matched > 0 {
			return err
		}
		matched, err = update(pushUserFilter(guildID, userID), push, false)
		if err != nil || matched > 0 {
			return err
		}
		if attempt == 0 {
			if _, err := update(guildQuery(guildID), guildDefaults(language), true); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("usuario %s no guardado en %s", userID, guildID)
}

func userFilter(guildID, userID string) bson.M {
	return bson.M{"guildId": guildID, "users.userId": userID}
}

func pushUserFilter(guildID, userID string) bson.M {
	return bson.M{"guildId": guildID, "users.userId": bson.M{"$ne": userID}}
}

// ListGuildConfigs returns every document matching filter, for example
// {"users.muted": true}
func (s *GuildStore) ListGuildConfigs(ctx context.Context, filter bson.M) ([]*models.GuildConfig, error) {
	if filter == nil {
		filter = bson.M{}
	}
	docs, err := s.dm.GetAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		d.Normalize(s.defaultLanguage)
	}
	return docs, nil
}

// positionalUpdate builds the users.$ update for an existing entry
func positionalUpdate(p models.UserPatch) bson.M {
	set := bson.M{}
	if p.Mute != nil {
		set["users.$.muted"] = p.Mute.Muted
		if p.Mute.Muted && p.Mute.Until != nil {
			set["users.$.mutedUntil"] = *p.Mute.Until
		} else {
			set["users.$.mutedUntil"] = nil
		}
	}
	if p.Warnings != nil {
		set["users.$.warnings"] = p.Warnings
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if p.AddWarning != nil {
		update["$push"] = bson.M{"users.$.warnings": *p.AddWarning}
	}
	return update
}

// pushUserUpdate appends a new record
func pushUserUpdate(rec *models.UserRecord) bson.M {
	return bson.M{"$push": bson.M{"users": rec}}
}

// guildDefaults creates a fresh guild document when none exists and leaves
// an existing one untouched
func guildDefaults(language string) bson.M {
	defaults := models.NewGuildConfig("", language)
	return bson.M{
		"$setOnInsert": bson.M{
			"language":  defaults.Language,
			"logs":      defaults.Logs,
			"welcome":   defaults.Welcome,
			"createdAt": defaults.CreatedAt,
		},
	}
}

func muteRoleUpdate(roleID, language string) bson.M {
	update := guildDefaults(language)
	update["$set"] = bson.M{"muteRole": roleID}
	return update
}

// Evict drops the cached copy of a guild document. The stored document is
// kept so settings survive the bot being re-added.
func (s *GuildStore) Evict(guildID string) {
	s.dm.Invalidate(guildQuery(guildID))
}

// CacheSize returns the number of cached documents
func (s *GuildStore) CacheSize() int {
	return s.dm.CacheSize()
}
