package web

import (
	"database/sql"
	"encoding/json"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hpungsan/mimic/internal/errors"
	"github.com/hpungsan/mimic/internal/ops"
)

// maxRequestBytes bounds JSON and form request bodies.
const maxRequestBytes = 64 << 10

// Handlers contains HTTP route handlers for the API.
type Handlers struct {
	db      *sql.DB
	gen     ops.Generator
	version string
	logger  *zap.Logger
}

// storeRequest is the POST /api/message body.
type storeRequest struct {
	UserID  string  `json:"user_id"`
	Message string  `json:"message"`
	TS      *string `json:"ts"`
}

// haikuRequest is the POST /api/haiku body.
type haikuRequest struct {
	Text   string `json:"text"`
	Author string `json:"author"`
	Year   int    `json:"year"`
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, map[string]any{"status": "ok", "version": h.version})
}

// HandleStore handles POST /api/message and stores a message for a user.
// Accepts a JSON body or a urlencoded form with user_id and message.
func (h *Handlers) HandleStore(w http.ResponseWriter, r *http.Request) {
	var req storeRequest
	if err := decodeBody(w, r, &req, func(form map[string][]string) {
		req.UserID = first(form["user_id"])
		req.Message = first(form["message"])
		req.TS = ptrString(first(form["ts"]))
	}); err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	out, err := ops.Store(r.Context(), h.db, ops.StoreInput{
		AuthorID: req.UserID,
		Text:     req.Message,
		TS:       req.TS,
	})
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	renderJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Message stored",
		"id":      out.ID,
	})
}

// HandleGenerate handles GET /api/messages by generating text that imitates user_id.
func (h *Handlers) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := ops.Generate(r.Context(), h.gen, ops.GenerateInput{
		AuthorID: q.Get("user_id"),
		All:      parseBoolParam(r, "all"),
		Before:   q.Get("before"),
		After:    q.Get("after"),
		Author:   q.Get("author"),
	})
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	if wantsHTML(r) {
		renderPage(w, http.StatusOK, PageData{
			Title:   "mimic: " + out.Scope,
			Body:    renderMarkdown(out.Text),
			Version: h.version,
		})
		return
	}

	renderJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    out.Text,
		"result":  out,
	})
}

// HandleAuthors handles GET /api/authors with per-author message counts.
func (h *Handlers) HandleAuthors(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Authors(r.Context(), h.db)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleHaiku handles POST /api/haiku by checking arbitrary text for 5-7-5.
func (h *Handlers) HandleHaiku(w http.ResponseWriter, r *http.Request) {
	var req haikuRequest
	if err := decodeBody(w, r, &req, func(form map[string][]string) {
		req.Text = first(form["text"])
		req.Author = first(form["author"])
		req.Year, _ = strconv.Atoi(strings.TrimSpace(first(form["year"])))
	}); err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	out, err := ops.Haiku(ops.HaikuInput{Text: req.Text, Author: req.Author, Year: req.Year})
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// decodeBody reads a JSON body into dst, or hands a urlencoded form to
// fromForm, matching what the request's Content-Type declares.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, fromForm func(map[string][]string)) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return errors.NewInvalidRequest("invalid form body")
		}
		fromForm(r.PostForm)
		return nil
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.NewInvalidRequest("invalid JSON body: " + err.Error())
	}
	return nil
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}

// ptrString returns a pointer to s if non-empty, nil otherwise.
func ptrString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}
