package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hpungsan/mimic/internal/bot"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingDispatcher struct {
	mu       sync.Mutex
	mentions []bot.Event
	messages []bot.Event
	deadline bool
}

func (d *recordingDispatcher) HandleMention(ctx context.Context, ev bot.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, d.deadline = ctx.Deadline()
	d.mentions = append(d.mentions, ev)
	return nil
}

func (d *recordingDispatcher) HandleMessage(_ context.Context, ev bot.Event) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = append(d.messages, ev)
	return true, nil
}

func newTestHandler(d Dispatcher, secret string) *EventsHandler {
	return NewEventsHandler(d, secret, NewDedup(16), nil)
}

func post(t *testing.T, h http.Handler, secret string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/slack/events", bytes.NewReader(body))
	if secret != "" {
		ts := strconv.FormatInt(time.Now().Unix(), 10)
		req.Header.Set(HeaderTimestamp, ts)
		req.Header.Set(HeaderSignature, sign(secret, ts, body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func mentionPayload(id string) map[string]any {
	return map[string]any{
		"type":     "event_callback",
		"event_id": id,
		"event": map[string]any{
			"type":    "app_mention",
			"user":    "U2",
			"text":    "<@UBOT> <@U1>",
			"channel": "C1",
			"ts":      "1700000000.000100",
		},
	}
}

func TestEvents_URLVerification(t *testing.T) {
	h := newTestHandler(&recordingDispatcher{}, "s3cret")

	rec := post(t, h, "s3cret", map[string]any{"type": "url_verification", "challenge": "abc123"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "abc123", resp["challenge"])
}

func TestEvents_DispatchesMention(t *testing.T) {
	d := &recordingDispatcher{}
	h := newTestHandler(d, "s3cret")

	rec := post(t, h, "s3cret", mentionPayload("Ev1"))
	h.Wait()

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, d.mentions, 1)
	require.Equal(t, bot.Event{Channel: "C1", User: "U2", Text: "<@UBOT> <@U1>", TS: "1700000000.000100"}, d.mentions[0])
	require.True(t, d.deadline, "processing runs under a timeout")
}

func TestEvents_DispatchesMessage(t *testing.T) {
	d := &recordingDispatcher{}
	h := newTestHandler(d, "")

	rec := post(t, h, "", map[string]any{
		"type":     "event_callback",
		"event_id": "Ev2",
		"event":    map[string]any{"type": "message", "user": "U1", "text": "hi", "channel": "C1", "ts": "1700000000.000200", "subtype": "channel_join"},
	})
	h.Wait()

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, d.messages, 1)
	require.Equal(t, "channel_join", d.messages[0].Subtype)
	require.Empty(t, d.mentions)
}

func TestEvents_DedupsRedelivery(t *testing.T) {
	d := &recordingDispatcher{}
	h := newTestHandler(d, "s3cret")

	for i := 0; i < 3; i++ {
		rec := post(t, h, "s3cret", mentionPayload("EvSame"))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	h.Wait()

	require.Len(t, d.mentions, 1)
}

func TestEvents_RejectsBadSignature(t *testing.T) {
	d := &recordingDispatcher{}
	h := newTestHandler(d, "s3cret")

	rec := post(t, h, "wrong", mentionPayload("Ev3"))
	h.Wait()

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "UNAUTHORIZED")
	require.Empty(t, d.mentions)

	// A rejected delivery does not poison the dedup gate.
	rec = post(t, h, "s3cret", mentionPayload("Ev3"))
	h.Wait()
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, d.mentions, 1)
}

func TestEvents_RejectsUnsigned(t *testing.T) {
	h := newTestHandler(&recordingDispatcher{}, "s3cret")

	rec := post(t, h, "", mentionPayload("Ev4"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEvents_InvalidJSON(t *testing.T) {
	h := newTestHandler(&recordingDispatcher{}, "")

	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader("{nope"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEvents_BodyTooLarge(t *testing.T) {
	h := newTestHandler(&recordingDispatcher{}, "")

	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(strings.Repeat("x", MaxBodyBytes+1)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEvents_IgnoresOtherEnvelopes(t *testing.T) {
	d := &recordingDispatcher{}
	h := newTestHandler(d, "")

	rec := post(t, h, "", map[string]any{"type": "app_rate_limited"})
	h.Wait()

	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, d.mentions)
	require.Empty(t, d.messages)
}

func TestEvents_CallbackWithoutEvent(t *testing.T) {
	d := &recordingDispatcher{}
	h := newTestHandler(d, "")

	rec := post(t, h, "", map[string]any{"type": "event_callback", "event_id": "Ev5"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, d.mentions)
}

func TestEvents_UnknownInnerEventAcked(t *testing.T) {
	d := &recordingDispatcher{}
	h := newTestHandler(d, "")

	rec := post(t, h, "", map[string]any{
		"type":     "event_callback",
		"event_id": "Ev6",
		"event":    map[string]any{"type": "no_such_event"},
	})
	h.Wait()

	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, d.mentions)
	require.Empty(t, d.messages)
}

func TestEvents_BotMessageKeepsBotID(t *testing.T) {
	d := &recordingDispatcher{}
	h := newTestHandler(d, "")

	rec := post(t, h, "", map[string]any{
		"type":     "event_callback",
		"event_id": "Ev7",
		"event":    map[string]any{"type": "message", "bot_id": "B1", "text": "beep", "channel": "C1", "ts": "1700000000.000300"},
	})
	h.Wait()

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, d.messages, 1)
	require.Equal(t, "B1", d.messages[0].BotID)
}
