package slack

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/slack-go/slack/slackevents"
	"go.uber.org/zap"

	"github.com/hpungsan/mimic/internal/bot"
	"github.com/hpungsan/mimic/internal/errors"
)

// MaxBodyBytes bounds a webhook request body.
const MaxBodyBytes = 1 << 20

// DefaultProcessTimeout bounds the handling of one event after it is acked.
const DefaultProcessTimeout = 30 * time.Second

// Dispatcher handles decoded events. *bot.Bot implements it.
type Dispatcher interface {
	HandleMention(ctx context.Context, ev bot.Event) error
	HandleMessage(ctx context.Context, ev bot.Event) (bool, error)
}

// envelopeHead is checked before parsing; slack-go assumes a callback
// always carries an inner event.
type envelopeHead struct {
	Type  string          `json:"type"`
	Event json.RawMessage `json:"event"`
}

// EventsHandler serves POST /slack/events.
type EventsHandler struct {
	dispatcher Dispatcher
	secret     string
	dedup      *Dedup
	timeout    time.Duration
	logger     *zap.Logger

	wg sync.WaitGroup
}

// NewEventsHandler creates the webhook handler. An empty secret disables
// signature verification.
func NewEventsHandler(dispatcher Dispatcher, secret string, dedup *Dedup, logger *zap.Logger) *EventsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dedup == nil {
		dedup = NewDedup(DefaultDedupCapacity)
	}
	return &EventsHandler{
		dispatcher: dispatcher,
		secret:     secret,
		dedup:      dedup,
		timeout:    DefaultProcessTimeout,
		logger:     logger,
	}
}

// ServeHTTP verifies and acks the request, then processes the event in the
// background.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeError(w, errors.NewInvalidRequest("request body too large"))
			return
		}
		writeError(w, errors.NewInvalidRequest("failed to read request body"))
		return
	}

	if h.secret != "" {
		if err := Verify(h.secret, r.Header, body); err != nil {
			h.logger.Warn("rejected webhook request", zap.Error(err))
			writeError(w, err)
			return
		}
	}

	var head envelopeHead
	if err := json.Unmarshal(body, &head); err != nil {
		writeError(w, errors.NewInvalidRequest("invalid JSON payload"))
		return
	}
	if head.Type == slackevents.CallbackEvent && len(head.Event) == 0 {
		writeError(w, errors.NewInvalidRequest("event_callback without event"))
		return
	}

	// Requests are authenticated by signature, not by the legacy token.
	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		// Well-formed but unsupported; a non-2xx would only make Slack retry.
		h.logger.Debug("ignoring unparsed event", zap.Error(err))
		w.WriteHeader(http.StatusOK)
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		challenge, ok := event.Data.(*slackevents.EventsAPIURLVerificationEvent)
		if !ok {
			writeError(w, errors.NewInvalidRequest("malformed url_verification"))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"challenge": challenge.Challenge})
		return
	case slackevents.CallbackEvent:
	default:
		h.logger.Debug("ignoring envelope", zap.String("type", event.Type))
		w.WriteHeader(http.StatusOK)
		return
	}

	callback, ok := event.Data.(*slackevents.EventsAPICallbackEvent)
	if !ok {
		writeError(w, errors.NewInvalidRequest("malformed event_callback"))
		return
	}
	if callback.EventID != "" && h.dedup.Seen(callback.EventID) {
		h.logger.Debug("dropping redelivered event",
			zap.String("event_id", callback.EventID),
			zap.String("retry_num", r.Header.Get("X-Slack-Retry-Num")))
		w.WriteHeader(http.StatusOK)
		return
	}

	w.WriteHeader(http.StatusOK)

	inner := event.InnerEvent
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.timeout)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer cancel()
		h.process(ctx, callback.EventID, inner)
	}()
}

// Wait blocks until every in-flight event has been processed.
func (h *EventsHandler) Wait() {
	h.wg.Wait()
}

func (h *EventsHandler) process(ctx context.Context, eventID string, inner slackevents.EventsAPIInnerEvent) {
	log := h.logger.With(zap.String("event_id", eventID), zap.String("event_type", inner.Type))

	switch ev := inner.Data.(type) {
	case *slackevents.AppMentionEvent:
		err := h.dispatcher.HandleMention(ctx, bot.Event{
			Channel: ev.Channel,
			User:    ev.User,
			Text:    ev.Text,
			TS:      ev.TimeStamp,
			BotID:   ev.BotID,
		})
		if err != nil {
			log.Error("mention handling failed", zap.Error(err))
		}
	case *slackevents.MessageEvent:
		stored, err := h.dispatcher.HandleMessage(ctx, bot.Event{
			Channel: ev.Channel,
			User:    ev.User,
			Text:    ev.Text,
			TS:      ev.TimeStamp,
			BotID:   ev.BotID,
			Subtype: ev.SubType,
		})
		if err != nil {
			log.Error("message ingestion failed", zap.Error(err))
			return
		}
		if stored {
			log.Debug("stored message", zap.String("user", ev.User))
		}
	default:
		log.Debug("ignoring event")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	mErr := errors.As(err)
	writeJSON(w, mErr.Status, map[string]any{
		"error": map[string]any{
			"code":    string(mErr.Code),
			"message": mErr.Message,
			"status":  mErr.Status,
		},
	})
}
