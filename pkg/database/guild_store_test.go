package database

import (
	"container/list"
	"errors"
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestPositionalUpdateMute(t *testing.T) {
	until := time.Now().Add(10 * time.Minute)

	update := positionalUpdate(models.MutedUntil(&until))
	set := update["$set"].(bson.M)
	assert.Equal(t, true, set["users.$.muted"])
	assert.Equal(t, until, set["users.$.mutedUntil"])
	assert.NotContains(t, update, "$push")

	update = positionalUpdate(models.Unmuted())
	set = update["$set"].(bson.M)
	assert.Equal(t, false, set["users.$.muted"])
	assert.Nil(t, set["users.$.mutedUntil"])
}

func TestPositionalUpdateWarnings(t *testing.T) {
	w := models.Warning{Reason: "spam", Moderator: "m1", Date: time.Now()}

	update := positionalUpdate(models.UserPatch{AddWarning: &w})
	assert.NotContains(t, update, "$set")
	push := update["$push"].(bson.M)
	assert.Equal(t, w, push["users.$.warnings"])

	update = positionalUpdate(models.UserPatch{Warnings: []models.Warning{}})
	set := update["$set"].(bson.M)
	assert.Equal(t, []models.Warning{}, set["users.$.warnings"])
}

func TestPushUserUpdate(t *testing.T) {
	rec := &models.UserRecord{UserID: "u1"}
	models.MutedUntil(nil).Apply(rec)

	update := pushUserUpdate(rec)
	push := update["$push"].(bson.M)
	assert.Equal(t, rec, push["users"])
	assert.NotContains(t, update, "$setOnInsert")

	onInsert := guildDefaults("es")["$setOnInsert"].(bson.M)
	assert.Equal(t, "es", onInsert["language"])
	assert.NotContains(t, onInsert, "users")

	filter := pushUserFilter("g1", "u1")
	assert.Equal(t, bson.M{"$ne": "u1"}, filter["users.userId"])
	_, err := bson.Marshal(filter)
	require.NoError(t, err)
}

// guildDoc mimics UpdateOne against a single guild document
type guildDoc struct {
	exists  bool
	users   map[string]int
	calls   []string
	onPush  func(d *guildDoc)
	inserts int
}

func (d *guildDoc) update(filter, update bson.M, upsert bool) (int64, error) {
	switch uf := filter["users.userId"].(type) {
	case string:
		d.calls = append(d.calls, "set")
		if !d.exists || d.users[uf] == 0 {
			return 0, nil
		}
		return 1, nil
	case bson.M:
		d.calls = append(d.calls, "push")
		if d.onPush != nil {
			hook := d.onPush
			d.onPush = nil
			hook(d)
		}
		id := uf["$ne"].(string)
		if !d.exists || d.users[id] > 0 {
			return 0, nil
		}
		d.users[id]++
		return 1, nil
	default:
		d.calls = append(d.calls, "create")
		if d.exists {
			return 1, nil
		}
		if !upsert {
			return 0, nil
		}
		d.exists = true
		d.inserts++
		return 1, nil
	}
}

func TestUpsertUserUpdatesExistingEntry(t *testing.T) {
	doc := &guildDoc{exists: true, users: map[string]int{"u1": 1}}
	require.NoError(t, upsertUser(doc.update, "g1", "u1", models.Unmuted(), "es"))
	assert.Equal(t, []string{"set"}, doc.calls)
	assert.Equal(t, 1, doc.users["u1"])
}

func TestUpsertUserPushesNewEntry(t *testing.T) {
	doc := &guildDoc{exists: true, users: map[string]int{}}
	require.NoError(t, upsertUser(doc.update, "g1", "u1", models.Unmuted(), "es"))
	assert.Equal(t, []string{"set", "push"}, doc.calls)
	assert.Equal(t, 1, doc.users["u1"])
}

func TestUpsertUserConcurrentFirstWriteKeepsOneEntry(t *testing.T) {
	doc := &guildDoc{exists: true, users: map[string]int{}}
	// another writer pushes u1 between our in-place miss and our push
	doc.onPush = func(d *guildDoc) { d.users["u1"]++ }

	require.NoError(t, upsertUser(doc.update, "g1", "u1", models.MutedUntil(nil), "es"))
	assert.Equal(t, 1, doc.users["u1"], "u1 must not be pushed twice")
	assert.Equal(t, []string{"set", "push", "create", "set"}, doc.calls)
	assert.Zero(t, doc.inserts)
}

func TestUpsertUserCreatesMissingGuild(t *testing.T) {
	doc := &guildDoc{users: map[string]int{}}
	require.NoError(t, upsertUser(doc.update, "g1", "u1", models.UserPatch{}, "es"))
	assert.True(t, doc.exists)
	assert.Equal(t, 1, doc.inserts)
	assert.Equal(t, 1, doc.users["u1"])
	assert.Equal(t, []string{"set", "push", "create", "set", "push"}, doc.calls)
}

func TestUpsertUserStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := upsertUser(func(bson.M, bson.M, bool) (int64, error) {
		calls++
		return 0, boom
	}, "g1", "u1", models.Unmuted(), "es")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestGenerateCacheKeyIsDeterministic(t *testing.T) {
	dm := NewDataManager[models.GuildConfig](GuildCollection, nil)
	a := dm.generateCacheKey(bson.M{"guildId": "1", "x": 2})
	b := dm.generateCacheKey(bson.M{"x": 2, "guildId": "1"})
	assert.Equal(t, a, b)
	assert.Equal(t, "guilds:{guildId=1,x=2}", a)
}

func TestCacheManagerEvictsOldest(t *testing.T) {
	c := &CacheManager{cache: map[string]*list.Element{}, cacheList: list.New()}
	c.put("a", 1, 2)
	c.put("b", 2, 2)
	c.get("a")
	c.put("c", 3, 2)

	_, okA := c.get("a")
	_, okB := c.get("b")
	_, okC := c.get("c")
	assert.True(t, okA)
	assert.False(t, okB, "b was the least recently used")
	assert.True(t, okC)
}

func TestOfflineReadsFail(t *testing.T) {
	db := NewDatabase()
	store := NewGuildStore(db, "fr")
	_, err := store.FindGuildConfig(t.Context(), "g1")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestOfflineSaveIsQueued(t *testing.T) {
	db := NewDatabase()
	store := NewGuildStore(db, "fr")
	require.NoError(t, store.Save(t.Context(), models.NewGuildConfig("g1", "fr")))
	assert.Equal(t, 1, db.PendingWrites())

	err := store.UpsertUserRecord(t.Context(), "g1", "u1", models.Unmuted())
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Equal(t, 2, db.PendingWrites())
}
