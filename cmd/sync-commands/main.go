// Package main maintains the application commands registered with Discord.
//
// Usage:
//
//	go run ./cmd/sync-commands [options]
//
// Options:
//
//	-list           List the registered commands
//	-clean          Remove every command without registering new ones
//	-guild <id>     Target one guild instead of the global scope
//	-sync           Replace the registered commands with the current ones (default)
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/PancyStudios/PancyModGo/internal/commands"
	"github.com/PancyStudios/PancyModGo/internal/commands/cmdutil"
	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/i18n"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
)

const prefix = "SyncCommands"

func main() {
	listCmd := flag.Bool("list", false, "List the registered commands")
	cleanCmd := flag.Bool("clean", false, "Remove every command without registering new ones")
	guildID := flag.String("guild", "", "Target one guild (empty for global)")
	flag.Bool("sync", true, "Replace the registered commands with the current ones")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(cfg.ErrorWebhook, cfg.LogsWebhook)
	defer log.Close()

	logger.System("Iniciando utilidad de sincronización de comandos...", prefix)

	client, err := discord.NewClient(cfg.BotToken)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating Discord client: %v", err), prefix)
		os.Exit(1)
	}
	if err := client.Session.Open(); err != nil {
		logger.Critical(fmt.Sprintf("Error connecting to Discord: %v", err), prefix)
		os.Exit(1)
	}
	defer client.Session.Close()

	// Only the definitions are needed; handlers never run here
	i18n.Init(cfg.DefaultLanguage)
	commands.RegisterAll(client, &cmdutil.Deps{})

	logger.Info("Ámbito: "+scope(*guildID), prefix)

	switch {
	case *listCmd:
		err = listCommands(client, *guildID)
	case *cleanCmd:
		err = client.CommandHandler.UnregisterGuildCommands(*guildID)
	default:
		err = syncCommands(client, *guildID)
	}
	if err != nil {
		logger.Error(fmt.Sprintf("La operación falló: %v", err), prefix)
		os.Exit(1)
	}
	logger.Success("Operación completada exitosamente", prefix)
}

func scope(guildID string) string {
	if guildID == "" {
		return "global"
	}
	return "servidor " + guildID
}

// listCommands prints the commands Discord knows about
func listCommands(client *discord.ExtendedClient, guildID string) error {
	cmds, err := client.CommandHandler.ListGuildCommands(guildID)
	if err != nil {
		return err
	}
	if len(cmds) == 0 {
		logger.Info("No hay comandos registrados", prefix)
		return nil
	}

	logger.Info(fmt.Sprintf("📋 %d comandos registrados:", len(cmds)), prefix)
	for i, cmd := range cmds {
		logger.Info(fmt.Sprintf("  %d. /%s - %s (ID: %s)", i+1, cmd.Name, cmd.Description, cmd.ID), prefix)
	}
	return nil
}

// syncCommands replaces the registered commands with the current ones.
// Discord drops the stale ones.
func syncCommands(client *discord.ExtendedClient, guildID string) error {
	local := len(client.CommandHandler.ApplicationCommands())
	logger.Info(fmt.Sprintf("🔄 Sincronizando %d comandos...", local), prefix)

	cmds, err := client.CommandHandler.SyncCommands(guildID)
	if err != nil {
		return err
	}
	logger.Success(fmt.Sprintf("✅ %d comandos sincronizados", len(cmds)), prefix)
	return nil
}
