package moderation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/bwmarrin/discordgo"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	testGuild = "g1"
	everyoneP = discordgo.PermissionViewChannel |
		discordgo.PermissionReadMessageHistory |
		discordgo.PermissionSendMessages |
		discordgo.PermissionAddReactions |
		discordgo.PermissionCreatePublicThreads |
		discordgo.PermissionSendMessagesInThreads |
		discordgo.PermissionVoiceConnect |
		discordgo.PermissionVoiceSpeak |
		discordgo.PermissionVoiceStreamVideo
)

// fakeStore is an in-memory ConfigStore
type fakeStore struct {
	mu        sync.Mutex
	configs   map[string]*models.GuildConfig
	upsertErr error
	upserts   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{configs: map[string]*models.GuildConfig{}}
}

func (f *fakeStore) FindGuildConfig(_ context.Context, guildID string) (*models.GuildConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.configs[guildID].Clone(), nil
}

func (f *fakeStore) GetOrCreate(_ context.Context, guildID string) (*models.GuildConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.configs[guildID]; !ok {
		f.configs[guildID] = models.NewGuildConfig(guildID, "fr")
	}
	return f.configs[guildID].Clone(), nil
}

func (f *fakeStore) UpsertUserRecord(_ context.Context, guildID, userID string, patch models.UserPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts++
	cfg, ok := f.configs[guildID]
	if !ok {
		cfg = models.NewGuildConfig(guildID, "fr")
		f.configs[guildID] = cfg
	}
	patch.Apply(cfg.Users.Ensure(userID))
	return nil
}

func (f *fakeStore) SetMuteRole(_ context.Context, guildID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, ok := f.configs[guildID]
	if !ok {
		cfg = models.NewGuildConfig(guildID, "fr")
		f.configs[guildID] = cfg
	}
	cfg.MuteRole = roleID
	return nil
}

func (f *fakeStore) ListGuildConfigs(context.Context, bson.M) ([]*models.GuildConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.GuildConfig
	for _, cfg := range f.configs {
		out = append(out, cfg.Clone())
	}
	return out, nil
}

func (f *fakeStore) record(guildID, userID string) *models.UserRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, ok := f.configs[guildID]
	if !ok {
		return nil
	}
	return cfg.Users.Get(userID)
}

func (f *fakeStore) update(guildID string, fn func(cfg *models.GuildConfig)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, ok := f.configs[guildID]
	if !ok {
		cfg = models.NewGuildConfig(guildID, "fr")
		f.configs[guildID] = cfg
	}
	fn(cfg)
}

// fakeDirectory is an in-memory GuildDirectory that records every mutation
type fakeDirectory struct {
	mu       sync.Mutex
	guild    *discordgo.Guild
	channels map[string]*discordgo.Channel
	members  map[string]*discordgo.Member
	botID    string
	calls    []string
	fail     map[string]error
	nextRole int
	banned   map[string]bool
	// onOverwrite runs once, after the next successful EditOverwrite
	onOverwrite func()
}

func newFakeDirectory() *fakeDirectory {
	d := &fakeDirectory{
		guild: &discordgo.Guild{
			ID:      testGuild,
			OwnerID: "owner",
			Roles: []*discordgo.Role{
				{ID: testGuild, Name: "@everyone", Permissions: everyoneP},
				{ID: "admin", Name: "Admin", Permissions: discordgo.PermissionAdministrator},
				{ID: "mod", Name: "Mod", Permissions: discordgo.PermissionModerateMembers},
				{ID: "vip", Name: "VIP"},
				{ID: "staff", Name: "Staff"},
			},
		},
		channels: map[string]*discordgo.Channel{},
		members:  map[string]*discordgo.Member{},
		botID:    "bot",
		fail:     map[string]error{},
		banned:   map[string]bool{},
	}

	d.addChannel(&discordgo.Channel{ID: "text", Type: discordgo.ChannelTypeGuildText, PermissionOverwrites: []*discordgo.PermissionOverwrite{
		{ID: "vip", Type: discordgo.PermissionOverwriteTypeRole, Allow: discordgo.PermissionSendMessages},
	}})
	d.addChannel(&discordgo.Channel{ID: "voice", Type: discordgo.ChannelTypeGuildVoice})
	d.addChannel(&discordgo.Channel{ID: "stage", Type: discordgo.ChannelTypeGuildStageVoice})
	d.addChannel(&discordgo.Channel{ID: "cat", Type: discordgo.ChannelTypeGuildCategory})
	d.addChannel(&discordgo.Channel{ID: "thread", Type: discordgo.ChannelTypeGuildPublicThread, ParentID: "text", ThreadMetadata: &discordgo.ThreadMetadata{}})

	d.addMember("u1")
	d.addMember("u2", "vip")
	d.addMember("adminUser", "admin")
	d.addMember("staffUser", "staff")
	d.addMember("owner")
	d.addMember("bot", "mod").User.Bot = true
	return d
}

func (d *fakeDirectory) addChannel(ch *discordgo.Channel) {
	ch.GuildID = testGuild
	d.channels[ch.ID] = ch
}

func (d *fakeDirectory) addMember(id string, roles ...string) *discordgo.Member {
	m := &discordgo.Member{GuildID: testGuild, User: &discordgo.User{ID: id}, Roles: roles}
	d.members[id] = m
	return m
}

func copyChannel(ch *discordgo.Channel) *discordgo.Channel {
	c := *ch
	c.PermissionOverwrites = nil
	for _, ow := range ch.PermissionOverwrites {
		o := *ow
		c.PermissionOverwrites = append(c.PermissionOverwrites, &o)
	}
	if ch.ThreadMetadata != nil {
		tm := *ch.ThreadMetadata
		c.ThreadMetadata = &tm
	}
	return &c
}

func copyMember(m *discordgo.Member) *discordgo.Member {
	c := *m
	c.Roles = append([]string(nil), m.Roles...)
	if m.User != nil {
		u := *m.User
		c.User = &u
	}
	return &c
}

func (d *fakeDirectory) record(call string) error {
	d.calls = append(d.calls, call)
	return d.fail[call]
}

func (d *fakeDirectory) mutations() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *fakeDirectory) overwrite(channelID, targetID string) *discordgo.PermissionOverwrite {
	d.mu.Lock()
	defer d.mu.Unlock()
	return findOverwrite(d.channels[channelID], targetID)
}

func (d *fakeDirectory) member(id string) *discordgo.Member {
	d.mu.Lock()
	defer d.mu.Unlock()
	return copyMember(d.members[id])
}

func (d *fakeDirectory) Guild(context.Context, string) (*discordgo.Guild, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	g := *d.guild
	g.Roles = append([]*discordgo.Role(nil), d.guild.Roles...)
	g.VoiceStates = append([]*discordgo.VoiceState(nil), d.guild.VoiceStates...)
	return &g, nil
}

func (d *fakeDirectory) Channel(_ context.Context, channelID string) (*discordgo.Channel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ch, ok := d.channels[channelID]
	if !ok {
		return nil, fmt.Errorf("unknown channel %s", channelID)
	}
	return copyChannel(ch), nil
}

func (d *fakeDirectory) Channels(context.Context, string) ([]*discordgo.Channel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]string, 0, len(d.channels))
	for id := range d.channels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*discordgo.Channel, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyChannel(d.channels[id]))
	}
	return out, nil
}

func (d *fakeDirectory) Member(_ context.Context, _ string, userID string) (*discordgo.Member, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.members[userID]
	if !ok {
		return nil, fmt.Errorf("member: %w", ErrMemberNotFound)
	}
	return copyMember(m), nil
}

func (d *fakeDirectory) Members(context.Context, string) ([]*discordgo.Member, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]string, 0, len(d.members))
	for id := range d.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*discordgo.Member, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyMember(d.members[id]))
	}
	return out, nil
}

func (d *fakeDirectory) BotUserID() string { return d.botID }

func (d *fakeDirectory) EditOverwrite(_ context.Context, channelID string, ow *discordgo.PermissionOverwrite, _ string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record("overwrite:" + channelID + ":" + ow.ID); err != nil {
		return err
	}
	ch := d.channels[channelID]
	o := *ow
	ch.PermissionOverwrites = replaceOverwrite(ch.PermissionOverwrites, &o)
	if hook := d.onOverwrite; hook != nil {
		d.onOverwrite = nil
		hook()
	}
	return nil
}

func (d *fakeDirectory) SetThreadLocked(_ context.Context, channelID string, locked bool, _ string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record(fmt.Sprintf("thread:%s:%t", channelID, locked)); err != nil {
		return err
	}
	d.channels[channelID].ThreadMetadata.Locked = locked
	return nil
}

func (d *fakeDirectory) CreateRole(_ context.Context, _ string, params *discordgo.RoleParams, _ string) (*discordgo.Role, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record("createRole:" + params.Name); err != nil {
		return nil, err
	}
	d.nextRole++
	r := &discordgo.Role{ID: fmt.Sprintf("role%d", d.nextRole), Name: params.Name}
	if params.Permissions != nil {
		r.Permissions = *params.Permissions
	}
	if params.Color != nil {
		r.Color = *params.Color
	}
	d.guild.Roles = append(d.guild.Roles, r)
	return r, nil
}

func (d *fakeDirectory) EditRole(_ context.Context, _ string, roleID string, params *discordgo.RoleParams, _ string) (*discordgo.Role, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record("editRole:" + roleID); err != nil {
		return nil, err
	}
	r := roleByID(d.guild, roleID)
	if params.Permissions != nil {
		r.Permissions = *params.Permissions
	}
	return r, nil
}

func (d *fakeDirectory) AddRole(_ context.Context, _ string, userID, roleID, _ string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record("addRole:" + userID + ":" + roleID); err != nil {
		return err
	}
	m := d.members[userID]
	if !hasRole(m, roleID) {
		m.Roles = append(m.Roles, roleID)
	}
	return nil
}

func (d *fakeDirectory) RemoveRole(_ context.Context, _ string, userID, roleID, _ string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record("removeRole:" + userID + ":" + roleID); err != nil {
		return err
	}
	m := d.members[userID]
	roles := m.Roles[:0]
	for _, r := range m.Roles {
		if r != roleID {
			roles = append(roles, r)
		}
	}
	m.Roles = roles
	return nil
}

func (d *fakeDirectory) Timeout(_ context.Context, _ string, userID string, until *time.Time, _ string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	call := "timeout:" + userID
	if until == nil {
		call = "clearTimeout:" + userID
	}
	if err := d.record(call); err != nil {
		return err
	}
	if m, ok := d.members[userID]; ok {
		m.CommunicationDisabledUntil = until
	}
	return nil
}

func (d *fakeDirectory) DisconnectVoice(_ context.Context, _ string, userID, _ string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record("disconnect:" + userID); err != nil {
		return err
	}
	states := d.guild.VoiceStates[:0]
	for _, vs := range d.guild.VoiceStates {
		if vs.UserID != userID {
			states = append(states, vs)
		}
	}
	d.guild.VoiceStates = states
	return nil
}

func (d *fakeDirectory) Kick(_ context.Context, _ string, userID, _ string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record("kick:" + userID); err != nil {
		return err
	}
	delete(d.members, userID)
	return nil
}

func (d *fakeDirectory) Ban(_ context.Context, _ string, userID string, deleteDays int, _ string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record(fmt.Sprintf("ban:%s:%d", userID, deleteDays)); err != nil {
		return err
	}
	delete(d.members, userID)
	d.banned[userID] = true
	return nil
}

func (d *fakeDirectory) Unban(_ context.Context, _ string, userID, _ string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record("unban:" + userID); err != nil {
		return err
	}
	if !d.banned[userID] {
		return fmt.Errorf("unban: %w", ErrNotBanned)
	}
	delete(d.banned, userID)
	return nil
}

// fakeArmer records every Arm call
type fakeArmer struct {
	mu   sync.Mutex
	arms map[ExpiryKey]time.Time
}

func newFakeArmer() *fakeArmer {
	return &fakeArmer{arms: map[ExpiryKey]time.Time{}}
}

func (a *fakeArmer) Arm(guildID, userID string, at time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.arms[ExpiryKey{GuildID: guildID, UserID: userID}] = at
}

func (a *fakeArmer) get(guildID, userID string) (time.Time, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	at, ok := a.arms[ExpiryKey{GuildID: guildID, UserID: userID}]
	return at, ok
}

// recordingSink keeps the published events
type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSink) Publish(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingSink) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []EventKind
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

type fixture struct {
	store *fakeStore
	dir   *fakeDirectory
	armer *fakeArmer
	sink  *recordingSink
	svc   *Service
	now   time.Time
}

func newFixture() *fixture {
	f := &fixture{
		store: newFakeStore(),
		dir:   newFakeDirectory(),
		armer: newFakeArmer(),
		sink:  &recordingSink{},
		now:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.store, f.dir, f.armer, f.sink, Options{})
	f.svc.now = func() time.Time { return f.now }
	f.svc.reconciler.now = f.svc.now
	return f
}

func (f *fixture) withMuteRole(roleID string) {
	f.dir.guild.Roles = append(f.dir.guild.Roles, &discordgo.Role{ID: roleID, Name: "Muted"})
	f.store.update(testGuild, func(cfg *models.GuildConfig) { cfg.MuteRole = roleID })
}
