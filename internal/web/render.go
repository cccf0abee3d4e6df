package web

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"github.com/hpungsan/mimic/internal/errors"
)

var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>body{font-family:Georgia,serif;max-width:40em;margin:3em auto;line-height:1.5}blockquote{border-left:3px solid #ccc;margin:0;padding-left:1em}</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{.Body}}
<footer><small>mimic {{.Version}}</small></footer>
</body>
</html>
`))

// PageData is the template data for an HTML rendering of generated text.
type PageData struct {
	Title   string
	Body    template.HTML
	Version string
}

// wantsHTML reports whether the client prefers an HTML page.
func wantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}

// renderPage renders markdown body inside the page layout.
func renderPage(w http.ResponseWriter, status int, data PageData) {
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError writes a JSON error. INTERNAL details are logged, never sent.
func renderError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	mErr := errors.As(err)
	if mErr.Code == errors.ErrInternal {
		logger.Error("request failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.Any("details", mErr.Details),
			zap.Error(err))
	}

	renderJSON(w, mErr.Status, map[string]any{
		"success": false,
		"error": map[string]any{
			"code":    string(mErr.Code),
			"message": mErr.Message,
			"status":  mErr.Status,
		},
	})
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderMarkdown converts markdown text to HTML using goldmark.
// goldmark drops raw HTML by default, so message text cannot inject markup.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}
