package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultAPIBase = "https://discord.com/api/v10"

// CommandDefinition is the registration shape of an application command.
type CommandDefinition struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Type        int                `json:"type,omitempty"`
	Options     []CommandOptionDef `json:"options,omitempty"`
}

type CommandOptionDef struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Type        int                `json:"type"`
	Required    bool               `json:"required,omitempty"`
	Options     []CommandOptionDef `json:"options,omitempty"`
}

// TipsCommand is the single slash command the bot exposes, with its
// search and add sub-commands.
func TipsCommand(name string) CommandDefinition {
	return CommandDefinition{
		Name:        name,
		Description: "Browse and add tips",
		Type:        1,
		Options: []CommandOptionDef{
			{
				Name:        "search",
				Description: "Search tips by title or tag",
				Type:        1,
				Options: []CommandOptionDef{
					{Name: "term", Description: "Text to look for", Type: 3, Required: true},
				},
			},
			{
				Name:        "add",
				Description: "Add a new tip",
				Type:        1,
				Options: []CommandOptionDef{
					{Name: "title", Description: "Title of the tip", Type: 3, Required: true},
				},
			},
		},
	}
}

// CommandsClient registers application commands with the platform.
type CommandsClient struct {
	httpClient    *http.Client
	baseURL       string
	applicationID string
	clientSecret  string
	logger        zerolog.Logger
}

// NewCommandsClient uses the application's client credentials.
func NewCommandsClient(applicationID, clientSecret string, logger zerolog.Logger) *CommandsClient {
	return &CommandsClient{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		baseURL:       defaultAPIBase,
		applicationID: applicationID,
		clientSecret:  clientSecret,
		logger:        logger,
	}
}

// WithBaseURL points the client at another API root.
func (c *CommandsClient) WithBaseURL(base string) *CommandsClient {
	c.baseURL = strings.TrimSuffix(base, "/")
	return c
}

// Register overwrites the application's global commands with defs.
func (c *CommandsClient) Register(ctx context.Context, defs []CommandDefinition) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(defs)
	if err != nil {
		return fmt.Errorf("failed to marshal commands: %w", err)
	}

	apiURL := fmt.Sprintf("%s/applications/%s/commands", c.baseURL, c.applicationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("command registration failed with status %d: %s", resp.StatusCode, string(body))
	}

	for _, def := range defs {
		c.logger.Info().Str("command", def.Name).Msg("Registered command")
	}
	return nil
}

func (c *CommandsClient) accessToken(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type": {"client_credentials"},
		"scope":      {"applications.commands.update"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(c.applicationID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token response did not include an access token")
	}
	return tok.AccessToken, nil
}
