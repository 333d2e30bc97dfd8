package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/flemzord/voxscribe/internal/config"
)

var botTokenPattern = regexp.MustCompile(`^\d+:[A-Za-z0-9_-]+$`)

// setupAnswers is what the init wizard collects.
type setupAnswers struct {
	// InlineSecrets writes the token and key into the file instead of
	// ${VAR} references.
	InlineSecrets bool
	BotToken      string
	Mode          string
	WebhookURL    string
	AuthData      string
	Scope         string
	Port          int
	History       bool
	StoreText     bool
}

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("output")
			force, _ := cmd.Flags().GetBool("force")
			if path == "" {
				path = defaultConfigPath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			answers := setupAnswers{Mode: "polling", Scope: "SALUTE_SPEECH_PERS", Port: 8080, History: true}
			if err := askSetup(&answers); err != nil {
				return err
			}

			raw, err := renderConfig(answers)
			if err != nil {
				return err
			}
			if err := writeConfigFile(path, raw); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
			if !answers.InlineSecrets {
				fmt.Fprintln(cmd.OutOrStdout(), "Export BOT_TOKEN, SALUTE_SPEECH_AUTHDATA and SALUTE_SPEECH_SCOPE (or put them in .env) before starting.")
			}
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Where to write the configuration")
	cmd.Flags().Bool("force", false, "Overwrite an existing file")
	return cmd
}

func defaultConfigPath() string {
	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && xdg != "" {
		return filepath.Join(xdg, "voxscribe", config.FileName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "voxscribe", config.FileName)
	}
	return config.FileName
}

func askSetup(a *setupAnswers) error {
	port := strconv.Itoa(a.Port)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Store secrets in the file?").
				Description("No keeps ${BOT_TOKEN} style references resolved from the environment.").
				Value(&a.InlineSecrets),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Telegram bot token").
				EchoMode(huh.EchoModePassword).
				Value(&a.BotToken).
				Validate(func(s string) error {
					if !botTokenPattern.MatchString(s) {
						return errors.New("expected <digits>:<hash>")
					}
					return nil
				}),
			huh.NewInput().
				Title("SaluteSpeech authorization key").
				EchoMode(huh.EchoModePassword).
				Value(&a.AuthData).
				Validate(huh.ValidateNotEmpty()),
		).WithHideFunc(func() bool { return !a.InlineSecrets }),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("SaluteSpeech scope").
				Options(
					huh.NewOption("Personal (SALUTE_SPEECH_PERS)", "SALUTE_SPEECH_PERS"),
					huh.NewOption("Corporate (SALUTE_SPEECH_CORP)", "SALUTE_SPEECH_CORP"),
				).
				Value(&a.Scope),
			huh.NewSelect[string]().
				Title("How should Telegram deliver updates?").
				Options(
					huh.NewOption("Long polling", "polling"),
					huh.NewOption("Webhook", "webhook"),
				).
				Value(&a.Mode),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Public webhook URL").
				Placeholder("https://bot.example.com/webhooks/telegram").
				Value(&a.WebhookURL).
				Validate(huh.ValidateNotEmpty()),
		).WithHideFunc(func() bool { return a.Mode != "webhook" }),
		huh.NewGroup(
			huh.NewInput().
				Title("HTTP port").
				Value(&port).
				Validate(func(s string) error {
					n, err := strconv.Atoi(s)
					if err != nil || n < 1 || n > 65535 {
						return errors.New("port must be 1-65535")
					}
					return nil
				}),
			huh.NewConfirm().
				Title("Keep a history of handled messages?").
				Value(&a.History),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Store transcript text in the history?").
				Value(&a.StoreText),
		).WithHideFunc(func() bool { return !a.History }),
	)
	if err := form.Run(); err != nil {
		return err
	}
	a.Port, _ = strconv.Atoi(port)
	return nil
}

type renderedConfig struct {
	Version string         `yaml:"version"`
	Log     map[string]any `yaml:"log"`
	Modules map[string]any `yaml:"modules"`
}

// renderConfig turns the answers into a configuration file.
func renderConfig(a setupAnswers) ([]byte, error) {
	token, authData, scope := "${BOT_TOKEN}", "${SALUTE_SPEECH_AUTHDATA}", "${SALUTE_SPEECH_SCOPE:-"+a.Scope+"}"
	if a.InlineSecrets {
		token, authData, scope = a.BotToken, a.AuthData, a.Scope
	}

	telegram := map[string]any{"token": token, "mode": a.Mode}
	if a.Mode == "webhook" {
		telegram["webhook_url"] = a.WebhookURL
		telegram["webhook_secret"] = "${TELEGRAM_WEBHOOK_SECRET:-}"
	}

	modules := map[string]any{
		"channel.telegram": telegram,
		"stt.salute":       map[string]any{"auth_data": authData, "scope": scope},
		"gateway.http":     map[string]any{"bind": fmt.Sprintf("0.0.0.0:${PORT:-%d}", a.Port)},
	}
	if a.History {
		modules["history.sqlite"] = map[string]any{"store_text": a.StoreText}
	}

	out, err := yaml.Marshal(renderedConfig{
		Version: "1",
		Log:     map[string]any{"level": "info", "format": "text"},
		Modules: modules,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering config: %w", err)
	}
	return out, nil
}

func writeConfigFile(path string, raw []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	// The file may hold secrets.
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
