// Package bot answers mentions with imitated text and records ordinary
// channel messages into the corpus.
package bot

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hpungsan/mimic/internal/errors"
	"github.com/hpungsan/mimic/internal/markov"
	"github.com/hpungsan/mimic/internal/mention"
	"github.com/hpungsan/mimic/internal/message"
	"github.com/hpungsan/mimic/internal/ops"
	"github.com/hpungsan/mimic/internal/pipeline"
)

// EveryoneName is the attribution used for the all-authors scope.
const EveryoneName = "Everyone"

// Event is a decoded chat message delivered by the transport.
type Event struct {
	Channel string
	User    string
	Text    string
	TS      string
	BotID   string
	Subtype string
}

// Notifier posts a message to a channel.
type Notifier interface {
	Notify(ctx context.Context, channel, text string) error
}

// Profiles resolves a user ID to a display name.
type Profiles interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

// Ingester appends a message to the corpus. A repeated author and ts must
// fail with a CONFLICT error. *ops.MessageStorer implements it.
type Ingester interface {
	Store(ctx context.Context, input ops.StoreInput) (*ops.StoreOutput, error)
}

// Options configures a Bot.
type Options struct {
	// SelfID is the bot's own user ID; mentions of it trigger generation
	SelfID string

	// Ingest stores ordinary channel messages through HandleMessage
	Ingest bool
}

// Bot routes chat events to the generation pipeline and the message store.
type Bot struct {
	gen      ops.Generator
	notifier Notifier
	profiles Profiles
	ingester Ingester
	opts     Options
	logger   *zap.Logger
}

// New creates a Bot. profiles and ingester may be nil: names then fall
// back to user IDs and ingestion is disabled.
func New(gen ops.Generator, notifier Notifier, profiles Profiles, ingester Ingester, opts Options, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ingester == nil {
		opts.Ingest = false
	}
	return &Bot{
		gen:      gen,
		notifier: notifier,
		profiles: profiles,
		ingester: ingester,
		opts:     opts,
		logger:   logger,
	}
}

// HandleMention answers an event that mentions the bot followed by a target.
// Events without a self mention or without a target are ignored. Otherwise
// exactly one message is sent to ev.Channel: the generated reply, or a short
// notice when the target has no stored messages.
func (b *Bot) HandleMention(ctx context.Context, ev Event) error {
	log := b.logger.With(zap.String("channel", ev.Channel), zap.String("user", ev.User))

	res := mention.Resolve(mention.Extract(ev.Text), b.opts.SelfID)
	if !res.Addressed() {
		log.Debug("ignoring event without self mention")
		return nil
	}
	if res.Target == nil {
		log.Debug("ignoring mention without target")
		return nil
	}

	split := mention.SplitContext(ev.Text, *res.Self, *res.Target)
	scope := message.ScopeFor(res.Target.TargetID)
	seed := markov.NewSeed(split.Before, split.After)
	author := b.displayName(ctx, scope)

	resp, err := b.gen.Run(ctx, pipeline.Request{
		Scope:  scope,
		Seed:   seed,
		Author: author,
	})
	var reply string
	switch {
	case errors.Is(err, errors.ErrNotFound):
		reply = fmt.Sprintf("I don't have any messages from %s yet.", author)
	case err != nil:
		return fmt.Errorf("generate for %s: %w", scope, err)
	default:
		reply = resp.Text
	}

	log.Info("replying to mention",
		zap.String("scope", scope.String()),
		zap.String("seed", seed.Kind.String()),
		zap.Bool("haiku", resp != nil && resp.Haiku))

	if err := b.notifier.Notify(ctx, ev.Channel, reply); err != nil {
		return fmt.Errorf("notify %s: %w", ev.Channel, err)
	}
	return nil
}

// HandleMessage stores an ordinary channel message. Bot messages, subtyped
// messages (joins, edits, deletions), blank text and messages addressed to
// the bot are skipped. It reports whether the message was stored.
func (b *Bot) HandleMessage(ctx context.Context, ev Event) (bool, error) {
	if !b.opts.Ingest {
		return false, nil
	}
	if ev.BotID != "" || ev.Subtype != "" || ev.User == "" || ev.User == b.opts.SelfID {
		return false, nil
	}
	if strings.TrimSpace(ev.Text) == "" {
		return false, nil
	}
	if b.opts.SelfID != "" && mention.Resolve(mention.Extract(ev.Text), b.opts.SelfID).Addressed() {
		return false, nil
	}

	var ts *string
	if ev.TS != "" {
		ts = &ev.TS
	}
	_, err := b.ingester.Store(ctx, ops.StoreInput{AuthorID: ev.User, Text: ev.Text, TS: ts})
	if errors.Is(err, errors.ErrConflict) {
		// Redelivered event.
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// displayName returns the attribution name for scope, falling back to the
// raw ID when no profile is available.
func (b *Bot) displayName(ctx context.Context, scope message.Scope) string {
	if scope.IsAll() {
		return EveryoneName
	}
	if b.profiles == nil {
		return scope.String()
	}
	name, err := b.profiles.DisplayName(ctx, scope.String())
	if err != nil || strings.TrimSpace(name) == "" {
		b.logger.Warn("profile lookup failed", zap.String("user", scope.String()), zap.Error(err))
		return scope.String()
	}
	return name
}
