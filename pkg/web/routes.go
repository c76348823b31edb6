package web

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
	"github.com/gin-gonic/gin"
)

// Bot is the view of the Discord client the API reports on
type Bot interface {
	IsReady() bool
	GuildCount() int
	MemberCount() int
	User() *discordgo.User
}

// Database reports the store's connection
type Database interface {
	GetStatus() (string, bool)
	PendingWrites() int
}

// Moderation answers guild moderation queries
type Moderation interface {
	Summary(ctx context.Context, guildID string) (*moderation.Summary, error)
	ActiveMutes(ctx context.Context, guildID string) ([]moderation.MuteEntry, error)
}

// Scheduler reports queued expiries
type Scheduler interface {
	Pending() int
}

// API holds what the routes read from. Nil members report as offline.
type API struct {
	Bot        Bot
	Database   Database
	Moderation Moderation
	Scheduler  Scheduler
	StartTime  time.Time
}

var snowflake = regexp.MustCompile(`^\d{17,20}$`)

// SetupAPIRoutes sets up the API routes
func SetupAPIRoutes(s *Server, api *API) {
	r := s.Group("/api")
	{
		r.GET("/status", api.statusHandler)
		r.GET("/health", api.healthHandler)
		r.GET("/bot", api.botInfoHandler)

		guilds := r.Group("/guilds/:guildId", api.requireModeration, validGuildID)
		guilds.GET("/moderation", api.moderationHandler)
		guilds.GET("/mutes", api.mutesHandler)
	}
}

func (api *API) botOnline() bool {
	return api.Bot != nil && api.Bot.IsReady()
}

// statusHandler returns the bot and database status
func (api *API) statusHandler(c *gin.Context) {
	dbStatus, dbOnline := "🔴 | Desconectado", false
	pendingWrites := 0
	if api.Database != nil {
		dbStatus, dbOnline = api.Database.GetStatus()
		pendingWrites = api.Database.PendingWrites()
	}
	pendingExpiries := 0
	if api.Scheduler != nil {
		pendingExpiries = api.Scheduler.Pending()
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"database": gin.H{
			"status":        dbStatus,
			"isOnline":      dbOnline,
			"pendingWrites": pendingWrites,
		},
		"bot": gin.H{
			"isOnline": api.botOnline(),
		},
		"scheduler": gin.H{
			"pending": pendingExpiries,
		},
	})
}

// healthHandler returns a simple health check response
func (api *API) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "PancyMod Go is running",
	})
}

// botInfoHandler returns information about the bot
func (api *API) botInfoHandler(c *gin.Context) {
	if !api.botOnline() || api.Bot.User() == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Bot Offline",
			"message": "El bot no está disponible en este momento.",
		})
		return
	}

	user := api.Bot.User()
	uptime := 0.0
	if !api.StartTime.IsZero() {
		uptime = time.Since(api.StartTime).Seconds()
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"avatar":   user.Avatar,
		"guilds":   api.Bot.GuildCount(),
		"members":  api.Bot.MemberCount(),
		"uptime":   uptime,
		"isReady":  true,
	})
}

func (api *API) requireModeration(c *gin.Context) {
	if api.Moderation == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Service Unavailable",
			"message": "La moderación no está disponible.",
		})
		return
	}
	c.Next()
}

func validGuildID(c *gin.Context) {
	if !snowflake.MatchString(c.Param("guildId")) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": "ID de servidor inválido.",
		})
		return
	}
	c.Next()
}

// queryFailed maps a store failure to 503 and logs it
func queryFailed(c *gin.Context, err error) {
	logger.Error(fmt.Sprintf("Error consultando %s: %v", c.Request.URL.Path, err), "WebServer")
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"error":   "Service Unavailable",
		"message": "La base de datos no está disponible.",
	})
}

// moderationHandler returns the moderation summary of a guild
func (api *API) moderationHandler(c *gin.Context) {
	sum, err := api.Moderation.Summary(c.Request.Context(), c.Param("guildId"))
	if err != nil {
		queryFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// mutesHandler returns the active mutes of a guild
func (api *API) mutesHandler(c *gin.Context) {
	mutes, err := api.Moderation.ActiveMutes(c.Request.Context(), c.Param("guildId"))
	if err != nil {
		queryFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"guildId": c.Param("guildId"), "mutes": mutes})
}
