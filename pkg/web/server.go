// Package web serves the bot's HTTP API with gin.
package web

import (
	"fmt"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/webhook"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

// Options configure the server
type Options struct {
	// WebhookURL receives one embed per request; empty disables it
	WebhookURL string
	// AllowedHosts matches the Host header of accepted requests
	AllowedHosts string
	RateLimit    RateLimitConfig
}

// Server represents the web server
type Server struct {
	engine           *gin.Engine
	webhookURL       string
	webhook          *webhook.Client
	allowedHostRegex *regexp.Regexp
}

var (
	server *Server
)

// Init initializes the global web server
func Init(opts Options) (*Server, error) {
	s, err := NewServer(opts)
	if err != nil {
		return nil, err
	}
	server = s
	return server, nil
}

// Get returns the global web server
func Get() *Server {
	return server
}

// NewServer creates a new web server
func NewServer(opts Options) (*Server, error) {
	hosts, err := regexp.Compile(opts.AllowedHosts)
	if err != nil {
		return nil, fmt.Errorf("apiAllowedHosts inválido: %w", err)
	}
	if opts.RateLimit.MaxRequests <= 0 {
		opts.RateLimit = DefaultRateLimit()
	}

	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:           engine,
		webhookURL:       opts.WebhookURL,
		webhook:          webhook.New(5 * time.Second),
		allowedHostRegex: hosts,
	}

	s.engine.Use(s.logsMiddleware())
	s.engine.Use(rateLimitMiddleware(opts.RateLimit))

	s.setupErrorHandlers()

	return s, nil
}

// Engine returns the underlying Gin engine
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// logsMiddleware logs incoming requests and rejects unknown hosts
func (s *Server) logsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.allowedHostRegex.MatchString(c.Request.Host) {
			logger.Info(fmt.Sprintf("[LOG] Nueva solicitud: %s %s", c.Request.Method, c.Request.URL.Path), "WebServer")
			go s.sendLogToWebhook(requestEmbed(c.Request, c.ClientIP(), false))
			c.Next()
			return
		}

		logger.Warn(fmt.Sprintf("[LOG] Solicitud Sospechosa: %s %s | %s", c.Request.Method, c.Request.URL.Path, c.ClientIP()), "WebServer")
		go s.sendLogToWebhook(requestEmbed(c.Request, c.ClientIP(), true))
		c.AbortWithStatus(http.StatusForbidden)
	}
}

// requestEmbed describes a request for the web server log channel. It is
// built before the handler runs so the goroutine never touches the context.
func requestEmbed(r *http.Request, ip string, suspicious bool) *webhook.Embed {
	title := fmt.Sprintf("💫 | Nueva solicitud al servidor web de tipo %s", r.Method)
	color := 0x00AE86
	if suspicious {
		title = fmt.Sprintf("💫 | Solicitud Sospechosa Rechazada: %s %s", r.Method, r.URL.Path)
		color = 0xFFA500
	}

	headers, _ := json.Marshal(r.Header)
	query := r.URL.RawQuery
	if query == "" {
		query = "{}"
	}

	return &webhook.Embed{
		Title: title,
		Description: fmt.Sprintf(
			"> **Ruta:** `%s`\n> **IP:** `%s`\n> **Headers:** ```%s``` \n> **Query:** ```%s```",
			r.URL.Path, ip, string(headers), query,
		),
		Color:  color,
		Footer: &webhook.EmbedFooter{Text: webhook.Footer},
	}
}

func (s *Server) sendLogToWebhook(e *webhook.Embed) {
	if s.webhookURL == "" {
		return
	}
	if _, err := s.webhook.Send(s.webhookURL, e); err != nil {
		logger.Debug(fmt.Sprintf("No se pudo enviar el log web: %v", err), "WebServer")
	}
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Window      time.Duration
	MaxRequests int
}

// DefaultRateLimit allows 100 requests per minute and IP
func DefaultRateLimit() RateLimitConfig {
	return RateLimitConfig{Window: 60 * time.Second, MaxRequests: 100}
}

// rateLimitMiddleware implements a fixed window limiter per client IP
func rateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	type clientInfo struct {
		count   int
		resetAt time.Time
	}
	var mu sync.Mutex
	clients := make(map[string]*clientInfo)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		info, exists := clients[ip]
		if !exists || now.After(info.resetAt) {
			info = &clientInfo{resetAt: now.Add(config.Window)}
			clients[ip] = info
		}
		info.count++
		count := info.count
		mu.Unlock()

		if count > config.MaxRequests {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Demasiadas solicitudes, por favor intente de nuevo más tarde.",
			})
			return
		}

		c.Next()
	}
}

// setupErrorHandlers sets up error handling routes
func (s *Server) setupErrorHandlers() {
	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not Found",
			"message": "La ruta solicitada no existe.",
			"status":  404,
		})
	})

	s.engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error":   "Method Not Allowed",
			"message": "El método HTTP no está permitido para esta ruta.",
			"status":  405,
		})
	})
}

// Start starts the web server
func (s *Server) Start(port string) error {
	logger.Info(fmt.Sprintf("🚀 Servidor escuchando en http://localhost:%s", port), "WebServer")
	return s.engine.Run(":" + port)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync(port string) {
	go func() {
		if err := s.Start(port); err != nil {
			logger.Error(fmt.Sprintf("Error starting web server: %v", err), "WebServer")
		}
	}()
}

// Group creates a new router group
func (s *Server) Group(path string, handlers ...gin.HandlerFunc) *gin.RouterGroup {
	return s.engine.Group(path, handlers...)
}
