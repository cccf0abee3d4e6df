package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hpungsan/mimic/internal/bot"
	"github.com/hpungsan/mimic/internal/cache"
	"github.com/hpungsan/mimic/internal/config"
	"github.com/hpungsan/mimic/internal/db"
	"github.com/hpungsan/mimic/internal/mcp"
	"github.com/hpungsan/mimic/internal/ops"
	"github.com/hpungsan/mimic/internal/pipeline"
	"github.com/hpungsan/mimic/internal/slack"
	"github.com/hpungsan/mimic/internal/web"
)

// slackTimeout bounds each outbound Web API call.
const slackTimeout = 10 * time.Second

// runtime holds the long-lived components shared by every command.
type runtime struct {
	db     *sql.DB
	cfg    *config.Config
	logger *zap.Logger
	models *cache.ModelCache
	gen    *pipeline.Pipeline
}

func newRuntime(database *sql.DB, cfg *config.Config, logger *zap.Logger) *runtime {
	if logger == nil {
		logger = zap.NewNop()
	}
	models := cache.New(db.NewMessageStore(database), logger)
	gen := pipeline.New(models, pipeline.Options{
		MaxLineTokens: cfg.MaxLineTokens,
		YearMin:       cfg.HaikuYearMin,
		YearMax:       cfg.HaikuYearMax,
	}, logger)
	return &runtime{db: database, cfg: cfg, logger: logger, models: models, gen: gen}
}

// newLogger builds a JSON logger on stderr at the given level.
func newLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return zcfg.Build()
}

// newServer wires the Slack client, bot and webhook handler into the HTTP
// server. The returned handler must be drained on shutdown.
func (rt *runtime) newServer(bind string, port int) (*http.Server, *slack.EventsHandler) {
	cfg := rt.cfg
	if cfg.BotUserID == "" {
		rt.logger.Warn("bot_user_id is not set; mentions will be ignored")
	}
	if cfg.SlackSigningSecret == "" {
		rt.logger.Warn("slack signing secret is not set; webhook requests are not verified")
	}

	client := slack.NewClient(cfg.SlackAPIURL, cfg.SlackBotToken, &http.Client{Timeout: slackTimeout}, rt.logger)
	b := bot.New(rt.gen, client, client, ops.MessageStorer{DB: rt.db}, bot.Options{
		SelfID: cfg.BotUserID,
		Ingest: !cfg.DisableIngest,
	}, rt.logger)
	events := slack.NewEventsHandler(b, cfg.SlackSigningSecret, slack.NewDedup(cfg.DedupCapacity), rt.logger)

	srv := web.NewServer(web.Deps{
		DB:        rt.db,
		Generator: rt.gen,
		Events:    events,
	}, Version, bind, port, rt.logger)
	return srv, events
}

// mcpDeps returns the dependencies for the MCP tool handlers.
func (rt *runtime) mcpDeps() mcp.Deps {
	return mcp.Deps{DB: rt.db, Generator: rt.gen, Models: rt.models}
}

// runMCP serves MCP over stdio until stdin closes.
func (rt *runtime) runMCP() error {
	if unknown := mcp.ValidateDisabledTools(rt.cfg.DisabledTools); len(unknown) > 0 {
		rt.logger.Warn("unknown tools in disabled_tools", zap.Strings("tools", unknown))
	}
	if unknown := mcp.ValidateDisabledTypes(rt.cfg.DisabledTypes); len(unknown) > 0 {
		rt.logger.Warn("unknown types in disabled_types", zap.Strings("types", unknown))
	}
	return mcp.Run(rt.mcpDeps(), rt.cfg, Version, rt.logger)
}
