package views

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"
)

func head(w io.Writer, meta PageMeta, jsonLD string) {
	fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`+
		`<meta name="viewport" content="width=device-width, initial-scale=1">`+
		`<title>%s</title>`, html.EscapeString(meta.Title))
	if meta.Description != "" {
		fmt.Fprintf(w, `<meta name="description" content="%s">`, html.EscapeString(meta.Description))
	}
	if meta.URL != "" {
		fmt.Fprintf(w, `<link rel="canonical" href="%s">`, html.EscapeString(meta.URL))
	}
	if jsonLD != "" {
		// JSON-LD must not be HTML-escaped; json.Marshal already escapes <, > and &.
		fmt.Fprintf(w, `<script type="application/ld+json">%s</script>`, jsonLD)
	}
	io.WriteString(w, `<style>body{font-family:system-ui,sans-serif;max-width:40rem;margin:4rem auto;padding:0 1rem;color:#222}a{color:#0a58ca}</style></head><body>`)
}

func foot(w io.Writer) {
	io.WriteString(w, `</body></html>`)
}

// Landing is the page served at "/".
func Landing(cfg SiteConfig, stats Stats) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		head(&b, PageMeta{Title: cfg.Name, Description: cfg.Description, URL: buildURL(cfg.URL)}, WebsiteJsonLD(cfg))
		fmt.Fprintf(&b, `<h1>%s</h1><p>The service is running.</p>`, html.EscapeString(cfg.Name))
		fmt.Fprintf(&b, `<p>%d sites hosted.</p>`, stats.Sites)
		if link := BotLink(cfg); link != "" {
			fmt.Fprintf(&b, `<p>Send an HTML file to <a href="%s">@%s</a> to publish it.</p>`,
				html.EscapeString(link), html.EscapeString(strings.TrimPrefix(cfg.BotUsername, "@")))
		}
		foot(&b)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ErrorPage renders a minimal page for status codes the server returns itself.
func ErrorPage(cfg SiteConfig, code int, message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		title := fmt.Sprintf("%d · %s", code, cfg.Name)
		head(&b, PageMeta{Title: title}, "")
		fmt.Fprintf(&b, `<h1>%d</h1><p>%s</p><p><a href="/">%s</a></p>`,
			code, html.EscapeString(message), html.EscapeString(cfg.Name))
		foot(&b)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
