package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"slices"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/Strob0t/TripCrew/internal/domain/run"
	"github.com/Strob0t/TripCrew/internal/domain/trip"
)

//go:embed templates/*.html static/*
var assets embed.FS

// SuccessBanner is shown above every completed plan.
const SuccessBanner = "✅ Trip planning completed! Enjoy your journey!"

// Pages renders the form and plan pages. Agent output is markdown and is
// converted to HTML with raw HTML and dangerous links stripped.
type Pages struct {
	tmpl *template.Template
	md   goldmark.Markdown
}

// NewPages parses the embedded templates.
func NewPages() (*Pages, error) {
	tmpl, err := template.New("").ParseFS(assets, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Pages{
		tmpl: tmpl,
		md:   goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}, nil
}

// Static serves the embedded script and style assets.
func Static() http.Handler {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err) // embedded path is fixed at build time
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

type option struct {
	Value    string
	Selected bool
}

type formView struct {
	RunID       string
	TravelTypes []option
	Seasons     []option
	Budgets     []option
	Interests   []option
	Duration    int
	MinDuration int
	MaxDuration int
}

type sectionView struct {
	Key   string
	Title string
	HTML  template.HTML
}

type pageView struct {
	Form     formView
	Record   *run.Record
	Sections []sectionView
	Banner   string
	Error    string
	Recent   []run.Record
}

func newForm(prefs trip.Preferences) formView { //nolint:gocritic // hugeParam
	return formView{
		RunID:       uuid.NewString(),
		TravelTypes: options(trip.TravelTypes, func(v trip.TravelType) bool { return v == prefs.TravelType }),
		Seasons:     options(trip.Seasons, func(v trip.Season) bool { return v == prefs.Season }),
		Budgets:     options(trip.Budgets, func(v trip.Budget) bool { return v == prefs.Budget }),
		Interests:   options(trip.Interests, prefs.HasInterest),
		Duration:    prefs.Duration,
		MinDuration: trip.MinDuration,
		MaxDuration: trip.MaxDuration,
	}
}

func options[T ~string](values []T, selected func(T) bool) []option {
	out := make([]option, 0, len(values))
	for _, v := range values {
		out = append(out, option{Value: string(v), Selected: selected(v)})
	}
	return out
}

// sections converts each section body to HTML. Bodies are shown verbatim; a
// body goldmark cannot convert is shown as escaped text.
func (p *Pages) sections(res *run.Result) []sectionView {
	src := res.Sections()
	out := make([]sectionView, 0, len(src))
	for _, s := range src {
		var buf bytes.Buffer
		body := template.HTML("<pre>" + template.HTMLEscapeString(s.Body) + "</pre>") //nolint:gosec // escaped above
		if err := p.md.Convert([]byte(s.Body), &buf); err == nil {
			body = template.HTML(buf.String()) //nolint:gosec // goldmark output without WithUnsafe
		}
		out = append(out, sectionView{Key: s.Key, Title: s.Title, HTML: body})
	}
	return out
}

// RenderForm draws the preference form, prefilled with prefs, and the most
// recent runs.
func (p *Pages) RenderForm(w http.ResponseWriter, prefs trip.Preferences, recent []run.Record) { //nolint:gocritic // hugeParam
	p.write(w, http.StatusOK, &pageView{Form: newForm(prefs), Recent: recent})
}

// Render draws the four plan sections of a run and the success banner.
// A failed run draws the generic error notice instead.
func (p *Pages) Render(w http.ResponseWriter, rec *run.Record) {
	if rec.Result == nil {
		p.RenderError(w, http.StatusOK, GenericFailure, rec.Preferences)
		return
	}
	p.write(w, http.StatusOK, &pageView{
		Form:     newForm(rec.Preferences),
		Record:   rec,
		Sections: p.sections(rec.Result),
		Banner:   SuccessBanner,
	})
}

// RenderError draws the form with exactly one error notice.
func (p *Pages) RenderError(w http.ResponseWriter, status int, msg string, prefs trip.Preferences) { //nolint:gocritic // hugeParam
	if prefs.Duration == 0 {
		prefs = trip.Defaults()
	}
	p.write(w, status, &pageView{Form: newForm(prefs), Error: msg})
}

// write executes into a buffer first so a template failure never leaves a
// half-written page.
func (p *Pages) write(w http.ResponseWriter, status int, view *pageView) {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, "page.html", view); err != nil {
		slog.Error("render page failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// selectedInterests keeps form checkbox values in display order.
func selectedInterests(values []string) []string {
	out := make([]string, 0, len(values))
	for _, in := range trip.Interests {
		if slices.Contains(values, in) {
			out = append(out, in)
		}
	}
	for _, v := range values {
		if !slices.Contains(trip.Interests, v) {
			out = append(out, v)
		}
	}
	return out
}
