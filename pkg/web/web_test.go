package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const guildID = "123456789012345678"

type fakeBot struct{ ready bool }

func (b fakeBot) IsReady() bool  { return b.ready }
func (fakeBot) GuildCount() int  { return 3 }
func (fakeBot) MemberCount() int { return 42 }
func (fakeBot) User() *discordgo.User {
	return &discordgo.User{ID: "bot", Username: "PancyMod"}
}

type fakeDB struct{}

func (fakeDB) GetStatus() (string, bool) { return "🟢 | En linea", true }
func (fakeDB) PendingWrites() int        { return 2 }

type fakeModeration struct{ err error }

func (m fakeModeration) Summary(_ context.Context, id string) (*moderation.Summary, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &moderation.Summary{GuildID: id, Configured: true, TotalWarnings: 4}, nil
}

func (m fakeModeration) ActiveMutes(context.Context, string) ([]moderation.MuteEntry, error) {
	return []moderation.MuteEntry{{UserID: "u1", Permanent: true}}, m.err
}

type fakeScheduler int

func (s fakeScheduler) Pending() int { return int(s) }

func newTestServer(t *testing.T, api *API) *Server {
	t.Helper()
	s, err := NewServer(Options{AllowedHosts: `^localhost(:\d+)?$`})
	require.NoError(t, err)
	SetupAPIRoutes(s, api)
	return s
}

func get(s *Server, path, host string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Host = host
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestInvalidAllowedHosts(t *testing.T) {
	_, err := NewServer(Options{AllowedHosts: "("})
	assert.Error(t, err)
}

func TestUnknownHostIsForbidden(t *testing.T) {
	s := newTestServer(t, &API{})
	assert.Equal(t, http.StatusForbidden, get(s, "/api/health", "evil.example").Code)
	assert.Equal(t, http.StatusOK, get(s, "/api/health", "localhost:3000").Code)
}

func TestStatus(t *testing.T) {
	s := newTestServer(t, &API{Bot: fakeBot{ready: true}, Database: fakeDB{}, Scheduler: fakeScheduler(5)})
	rec := get(s, "/api/status", "localhost")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["bot"].(map[string]any)["isOnline"])
	assert.Equal(t, float64(2), body["database"].(map[string]any)["pendingWrites"])
	assert.Equal(t, float64(5), body["scheduler"].(map[string]any)["pending"])
}

func TestBotInfo(t *testing.T) {
	offline := newTestServer(t, &API{Bot: fakeBot{}})
	assert.Equal(t, http.StatusServiceUnavailable, get(offline, "/api/bot", "localhost").Code)

	online := newTestServer(t, &API{Bot: fakeBot{ready: true}})
	rec := get(online, "/api/bot", "localhost")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "PancyMod", body["username"])
	assert.Equal(t, float64(42), body["members"])
}

func TestGuildRoutes(t *testing.T) {
	s := newTestServer(t, &API{Moderation: fakeModeration{}})

	rec := get(s, "/api/guilds/"+guildID+"/moderation", "localhost")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, guildID, body["guildId"])
	assert.Equal(t, float64(4), body["totalWarnings"])

	rec = get(s, "/api/guilds/"+guildID+"/mutes", "localhost")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["mutes"], 1)

	assert.Equal(t, http.StatusBadRequest, get(s, "/api/guilds/abc/mutes", "localhost").Code)
}

func TestGuildRoutesUnavailable(t *testing.T) {
	none := newTestServer(t, &API{})
	assert.Equal(t, http.StatusServiceUnavailable, get(none, "/api/guilds/"+guildID+"/moderation", "localhost").Code)

	failing := newTestServer(t, &API{Moderation: fakeModeration{err: errors.New("offline")}})
	assert.Equal(t, http.StatusServiceUnavailable, get(failing, "/api/guilds/"+guildID+"/mutes", "localhost").Code)
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t, &API{})
	rec := get(s, "/nope", "localhost")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	s, err := NewServer(Options{AllowedHosts: "localhost", RateLimit: RateLimitConfig{Window: time.Minute, MaxRequests: 2}})
	require.NoError(t, err)
	SetupAPIRoutes(s, &API{})

	assert.Equal(t, http.StatusOK, get(s, "/api/health", "localhost").Code)
	assert.Equal(t, http.StatusOK, get(s, "/api/health", "localhost").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(s, "/api/health", "localhost").Code)
}
