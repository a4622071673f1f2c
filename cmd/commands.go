package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	discordout "github.com/tipsbot/internal/provider_output/discord"
)

// CommandsCommand manages the bot's slash command registration.
func CommandsCommand() *cli.Command {
	return &cli.Command{
		Name:  "commands",
		Usage: "Manage slash commands",
		Subcommands: []*cli.Command{
			{
				Name:   "register",
				Usage:  "Register the slash command with the platform",
				Action: runCommandsRegister,
			},
		},
	}
}

func runCommandsRegister(c *cli.Context) error {
	cfg, logger, err := loadRuntime(c)
	if err != nil {
		return err
	}
	if cfg.Discord.ApplicationID == "" || cfg.Discord.ClientSecret == "" {
		return fmt.Errorf("discord.application_id and discord.client_secret are required to register commands")
	}

	client := discordout.NewCommandsClient(cfg.Discord.ApplicationID, cfg.Discord.ClientSecret, logger).
		WithBaseURL(cfg.Discord.APIURL)
	if err := client.Register(c.Context, []discordout.CommandDefinition{discordout.TipsCommand(cfg.Discord.CommandName)}); err != nil {
		return err
	}

	fmt.Printf("Registered /%s\n", cfg.Discord.CommandName)
	return nil
}
