// Package main is the entry point for PancyMod Go.
// It initializes all systems and starts the Discord bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PancyStudios/PancyModGo/internal/auditlog"
	"github.com/PancyStudios/PancyModGo/internal/commands"
	"github.com/PancyStudios/PancyModGo/internal/commands/cmdutil"
	"github.com/PancyStudios/PancyModGo/internal/events"
	"github.com/PancyStudios/PancyModGo/internal/welcome"
	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/database"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/i18n"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/PancyStudios/PancyModGo/pkg/mqtt"
	"github.com/PancyStudios/PancyModGo/pkg/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(cfg.ErrorWebhook, cfg.LogsWebhook)
	defer log.Close()

	logger.System("Iniciando PancyMod Go...", "Main")
	logger.Info(fmt.Sprintf("Directorio de trabajo: %s", getCurrentDir()), "Main")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var discordClient *discord.ExtendedClient
	errors.Init(cfg.ErrorWebhook, func() {
		cancel()
		if discordClient != nil {
			_ = discordClient.Stop()
		}
	})

	i18n.Init(cfg.DefaultLanguage)

	db, err := database.Init(cfg.MongoDBURL, cfg.DBName)
	if err != nil {
		logger.Error(fmt.Sprintf("Error connecting to database: %v", err), "Main")
		// Continue without database, it will attempt to reconnect
	}
	defer func() {
		_ = db.Disconnect()
	}()
	store := database.NewGuildStore(db, cfg.DefaultLanguage)

	discordClient, err = discord.Init(cfg.BotToken)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating Discord client: %v", err), "Main")
		os.Exit(1)
	}
	discordClient.SetLanguageResolver(languageResolver(store, cfg.DefaultLanguage))

	mqttClientID := "pancymod"
	if !cfg.IsProd() {
		mqttClientID = "pancymod_canary"
	}
	mqttClient := mqtt.Init(mqtt.Options{
		Host:     cfg.MQTTHost,
		Port:     cfg.MQTTPort,
		Username: cfg.MQTTUser,
		Password: cfg.MQTTPassword,
		ClientID: mqttClientID,
		Prefix:   cfg.MQTTPrefix,
	})
	defer mqttClient.Destroy()

	// Moderation core
	audit := auditlog.New(store, discordClient.Session, cfg.DefaultLanguage)
	scheduler := moderation.NewScheduler()
	svc := moderation.NewService(
		store,
		moderation.NewSessionDirectory(discordClient.Session),
		scheduler,
		moderation.Sinks{audit, mqtt.NewEventPublisher(mqttClient, mqttClient.Prefix())},
		moderation.Options{
			WarnTimeoutAfter:   cfg.WarnTimeoutAfter,
			WarnTimeoutMinutes: cfg.WarnTimeoutMinutes,
			MuteRoleName:       cfg.MuteRoleName,
		},
	)
	scheduler.Start(ctx, svc.Expire)
	defer scheduler.Stop()
	mqtt.RegisterHandlers(mqttClient, svc)

	tracker := welcome.NewTracker(welcome.DefaultTTL)
	go tracker.Run(ctx, time.Hour)

	events.RegisterAll(discordClient, &events.Deps{
		Moderation: svc,
		Store:      store,
		Audit:      audit,
		Greeter:    welcome.NewGreeter(tracker, discordClient.Session),
	})
	commands.RegisterAll(discordClient, &cmdutil.Deps{
		Moderation: svc,
		Store:      store,
		Audit:      audit,
		Scheduler:  scheduler,
	})

	webServer, err := web.Init(web.Options{
		WebhookURL:   cfg.LogsWebServerHook,
		AllowedHosts: cfg.APIAllowedHosts,
	})
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating web server: %v", err), "Main")
		os.Exit(1)
	}
	web.SetupAPIRoutes(webServer, &web.API{
		Bot:        discordClient,
		Database:   db,
		Moderation: svc,
		Scheduler:  scheduler,
		StartTime:  time.Now(),
	})
	webServer.StartAsync(cfg.Port)

	if err := discordClient.Start(); err != nil {
		logger.Critical(fmt.Sprintf("Error starting Discord client: %v", err), "Main")
		os.Exit(1)
	}
	defer func() {
		_ = discordClient.Stop()
	}()

	// Mutes that expired while offline fire as soon as they are re-armed
	if n, err := scheduler.Rebuild(ctx, store); err != nil {
		logger.Warn(fmt.Sprintf("No se pudieron recuperar los muteos pendientes: %v", err), "Main")
	} else {
		logger.Info(fmt.Sprintf("%d muteos temporales programados", n), "Main")
	}
	go runSweep(ctx, svc, cfg.SweepInterval)

	logger.Success("PancyMod Go iniciado correctamente!", "Main")

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	logger.System("Apagando PancyMod Go...", "Main")
}

// languageResolver reads the guild language from the stored config
func languageResolver(store *database.GuildStore, fallback string) discord.LanguageResolver {
	return func(guildID string) string {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		cfg, err := store.FindGuildConfig(ctx, guildID)
		if err != nil || cfg == nil || cfg.Language == "" {
			return fallback
		}
		return cfg.Language
	}
}

// runSweep reconciles mute flags every interval. Zero disables it.
func runSweep(ctx context.Context, svc *moderation.Service, interval time.Duration) {
	if interval <= 0 {
		logger.Info("Barrido de muteos desactivado", "Sweep")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.Reconcile(ctx); err != nil {
				logger.Warn(fmt.Sprintf("Error en el barrido de muteos: %v", err), "Sweep")
			}
		}
	}
}

// getCurrentDir returns the current working directory
func getCurrentDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "unknown"
	}
	return dir
}
