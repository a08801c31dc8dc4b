package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/polarcraft/polarstudio/internal/bench"
	"github.com/polarcraft/polarstudio/internal/codec"
	"github.com/polarcraft/polarstudio/internal/logging"
	"github.com/polarcraft/polarstudio/internal/optics"
	"github.com/polarcraft/polarstudio/internal/registry"
	"github.com/polarcraft/polarstudio/internal/share"
)

// studioView is everything the studio page shows.
type studioView struct {
	Lang     language.Tag
	Token    codec.Token
	Bench    bench.State
	Readings []optics.Reading
	Error    string
	ShareURL string
	Preview  share.Preview
}

// HandleStudio renders the page a share link opens. A token that fails to
// decode leaves the bench empty and shows the error in the request
// language.
func (s *Server) HandleStudio(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	view := studioView{
		Lang:  requestLanguage(r),
		Bench: bench.State{},
	}

	status := http.StatusOK
	if module := query.Get("module"); module == "" || module == share.Module {
		view.Token = codec.Token(query.Get(share.SetupParam))
	}

	if view.Token != "" {
		state, err := s.decoder.Decode(view.Token)
		s.metrics.TokenDecoded(err)
		if err != nil {
			s.logger.Warn(r.Context(), err, "Shared bench rejected",
				"token", logging.SanitizeForLog(string(view.Token)))
			status = StatusFor(err)
			view.Error = errorBody(err, view.Lang).Message
		} else {
			view.Bench = state
			view.Readings = optics.Trace(state).Readings
			view.ShareURL = s.builder.URL(state)
			view.Preview = s.builder.Preview(state)
		}
	}

	templ.Handler(studioPage(view), templ.WithStatus(status)).ServeHTTP(w, r)
}

func studioPage(v studioView) templ.Component {
	title := "Polarization Studio"
	if len(v.Bench) > 0 {
		title = fmt.Sprintf("%s (%d components)", title, len(v.Bench))
	}

	return layout(v.Lang, title, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if v.Error != "" {
			if err := errorBanner(v.Error).Render(ctx, w); err != nil {
				return err
			}
		}
		if err := benchTable(v.Bench, v.Lang).Render(ctx, w); err != nil {
			return err
		}
		if err := readingsTable(v.Readings).Render(ctx, w); err != nil {
			return err
		}
		return shareBox(v.ShareURL, v.Preview).Render(ctx, w)
	}))
}

func layout(lang language.Tag, title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		pw := &pageWriter{w: w}
		pw.raw(`<!DOCTYPE html><html lang="`)
		pw.text(lang.String())
		pw.raw(`"><head><meta charset="utf-8"><title>`)
		pw.text(title)
		pw.raw(`</title><style>` + pageStyle + `</style></head><body><main><h1>`)
		pw.text(title)
		pw.raw(`</h1>`)
		if pw.err != nil {
			return pw.err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		pw.raw(`</main></body></html>`)
		return pw.err
	})
}

func errorBanner(message string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		pw := &pageWriter{w: w}
		pw.raw(`<div class="error" role="alert" id="decode-error">`)
		pw.text(message)
		pw.raw(`</div>`)
		return pw.err
	})
}

func benchTable(s bench.State, lang language.Tag) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		pw := &pageWriter{w: w}
		pw.raw(`<section id="bench"><h2>Bench</h2>`)
		if len(s) == 0 {
			pw.raw(`<p class="empty">The bench is empty.</p></section>`)
			return pw.err
		}

		title := cases.Title(lang)
		pw.raw(`<table><thead><tr><th>#</th><th>ID</th><th>Component</th><th>X</th><th>Y</th><th>Rotation</th><th>Parameters</th></tr></thead><tbody>`)
		for i, c := range s {
			pw.raw(`<tr class="component" data-tag="`)
			pw.text(c.Kind.Tag)
			pw.raw(`">`)
			pw.cell(fmt.Sprint(i + 1))
			pw.cell(c.ID)
			pw.cell(title.String(c.Kind.Name))
			pw.cell(registry.FormatNumber(c.Position.X, 3))
			pw.cell(registry.FormatNumber(c.Position.Y, 3))
			pw.cell(registry.FormatNumber(c.Rotation, 3) + "°")
			pw.cell(paramSummary(c))
			pw.raw(`</tr>`)
		}
		pw.raw(`</tbody></table></section>`)
		return pw.err
	})
}

func readingsTable(readings []optics.Reading) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if len(readings) == 0 {
			return nil
		}
		pw := &pageWriter{w: w}
		pw.raw(`<section id="readings"><h2>Detectors</h2><table><thead><tr><th>Detector</th><th>Intensity</th><th>Signal</th><th>Orientation</th><th>Ellipticity</th></tr></thead><tbody>`)
		for _, rd := range readings {
			pw.raw(`<tr class="reading">`)
			pw.cell(rd.ID)
			pw.cell(fmt.Sprintf("%.3f", rd.Intensity))
			pw.cell(fmt.Sprintf("%.3f", rd.Signal))
			pw.cell(fmt.Sprintf("%.1f°", rd.Orientation))
			pw.cell(fmt.Sprintf("%.1f°", rd.Ellipticity))
			pw.raw(`</tr>`)
		}
		pw.raw(`</tbody></table></section>`)
		return pw.err
	})
}

func shareBox(url string, p share.Preview) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if url == "" {
			return nil
		}
		pw := &pageWriter{w: w}
		pw.raw(`<section id="share"><h2>Share</h2><input id="share-url" readonly value="`)
		pw.text(url)
		pw.raw(`">`)
		if !p.WithinLimit {
			pw.raw(`<p class="warn">This link may be too long for some browsers.</p>`)
		}
		pw.raw(`</section>`)
		return pw.err
	})
}

func paramSummary(c bench.Component) string {
	names := make([]string, 0, len(c.Kind.Params))
	units := make(map[string]string, len(c.Kind.Params))
	for _, p := range c.Kind.Params {
		names = append(names, p.Name)
		units[p.Name] = p.Unit
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		v := registry.FormatNumber(c.Param(name), 3)
		if u := units[name]; u != "" {
			v += " " + u
		}
		parts = append(parts, name+"="+v)
	}
	return strings.Join(parts, ", ")
}

// pageWriter keeps the first write error so components can write a run
// of fragments and check once.
type pageWriter struct {
	w   io.Writer
	err error
}

func (p *pageWriter) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *pageWriter) text(s string) {
	p.raw(html.EscapeString(s))
}

func (p *pageWriter) cell(s string) {
	p.raw(`<td>`)
	p.text(s)
	p.raw(`</td>`)
}

const pageStyle = `body{font-family:system-ui,sans-serif;margin:2rem;color:#1d2330}` +
	`table{border-collapse:collapse;margin:1rem 0}td,th{border:1px solid #c8ccd4;padding:.3rem .6rem;text-align:left}` +
	`.error{background:#fdecea;border:1px solid #e0a39b;padding:.8rem;border-radius:4px}` +
	`.warn{color:#8a5a00}#share-url{width:100%;font-family:monospace}`
