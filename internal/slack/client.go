package slack

import (
	"context"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	slackapi "github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/hpungsan/mimic/internal/errors"
)

// DefaultAPIURL is the Slack Web API base URL.
const DefaultAPIURL = "https://slack.com/api"

// nameCacheSize bounds the display-name cache.
const nameCacheSize = 1024

// Client wraps the slack-go Web API client with the two calls the bot
// needs. It implements bot.Notifier and bot.Profiles.
type Client struct {
	api    *slackapi.Client
	names  *lru.Cache[string, string]
	logger *zap.Logger
}

// NewClient creates a client. A nil httpClient gets a 10 second timeout.
func NewClient(baseURL, token string, httpClient *http.Client, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	names, _ := lru.New[string, string](nameCacheSize)
	return &Client{
		api: slackapi.New(token,
			slackapi.OptionHTTPClient(httpClient),
			slackapi.OptionAPIURL(strings.TrimRight(baseURL, "/")+"/"),
		),
		names:  names,
		logger: logger,
	}
}

// Notify posts text to channel with chat.postMessage.
func (c *Client) Notify(ctx context.Context, channel, text string) error {
	if _, _, err := c.api.PostMessageContext(ctx, channel, slackapi.MsgOptionText(text, false)); err != nil {
		return c.upstream("chat.postMessage", err)
	}
	return nil
}

// DisplayName returns the user's display name, falling back to the real
// name and then the handle. Resolved names are cached.
func (c *Client) DisplayName(ctx context.Context, userID string) (string, error) {
	if name, ok := c.names.Get(userID); ok {
		return name, nil
	}

	user, err := c.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return "", c.upstream("users.info", err)
	}

	var name string
	for _, candidate := range []string{user.Profile.DisplayName, user.Profile.RealName, user.RealName, user.Name} {
		if strings.TrimSpace(candidate) != "" {
			name = candidate
			break
		}
	}
	if name == "" {
		return "", errors.NewNotFound(userID)
	}

	c.names.Add(userID, name)
	return name, nil
}

func (c *Client) upstream(method string, err error) error {
	c.logger.Warn("slack API error", zap.String("method", method), zap.Error(err))
	return errors.NewUpstream("slack "+method, err)
}
