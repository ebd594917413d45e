// Package renderer turns a highlights snapshot into the Markdown payload of the region.
package renderer

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"text/template"

	"github.com/dustin/go-humanize"
	"github.com/nikogura/profile-highlights/pkg/snapshot"
	"github.com/pkg/errors"
)

const (
	// Placeholder stands in for every value of a pending snapshot.
	Placeholder = "--"
	// PendingNotice is the line a pending payload carries instead of a timestamp.
	PendingNotice = "_Pending first update._"
	// TimeLayout formats the generation timestamp.
	TimeLayout = "2006-01-02 15:04 UTC"
)

//go:embed templates/highlights.md.tmpl
var templates embed.FS

// View is the data handed to the payload template.
type View struct {
	Pending          bool
	Placeholder      string
	GeneratedAt      string
	Contributions30d string
	Contributions90d string
	Original         string
	Forked           string
	Active           string
	Archived         string
	PublicRepos      string
	PrivateRepos     string
	Stars            string
	Followers        string
	Languages        []LanguageView
	Snapshot         snapshot.Snapshot
}

// LanguageView is one formatted entry of the language mix.
type LanguageView struct {
	Label      string
	Percentage string
}

// Render renders the snapshot with the template at templatePath, or the
// built-in template when templatePath is empty.
func Render(s snapshot.Snapshot, templatePath string) (payload string, err error) {
	err = s.Validate()
	if err != nil {
		err = errors.Wrap(err, "cannot render invalid snapshot")
		return payload, err
	}

	var tmpl *template.Template
	tmpl, err = loadTemplate(templatePath)
	if err != nil {
		return payload, err
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, NewView(s))
	if err != nil {
		err = errors.Wrap(err, "failed to execute highlights template")
		return payload, err
	}

	payload = buf.String()
	return payload, err
}

// NewView formats a snapshot for templating. Every field of a pending
// snapshot becomes the placeholder.
func NewView(s snapshot.Snapshot) (v View) {
	v = View{
		Pending:     s.IsPending(),
		Placeholder: Placeholder,
		Snapshot:    s,
		Languages:   make([]LanguageView, 0, len(s.LanguageMix)),
	}

	if v.Pending {
		v.GeneratedAt = Placeholder
		v.Contributions30d = Placeholder
		v.Contributions90d = Placeholder
		v.Original = Placeholder
		v.Forked = Placeholder
		v.Active = Placeholder
		v.Archived = Placeholder
		v.PublicRepos = Placeholder
		v.PrivateRepos = Placeholder
		v.Stars = Placeholder
		v.Followers = Placeholder
		return v
	}

	v.GeneratedAt = s.GeneratedAt.UTC().Format(TimeLayout)
	v.Contributions30d = Comma(s.Contributions30d)
	v.Contributions90d = Comma(s.Contributions90d)
	v.Original = Comma(s.OriginalVsForked.Original)
	v.Forked = Comma(s.OriginalVsForked.Forked)
	v.Active = Comma(s.ActiveVsArchived.Active)
	v.Archived = Comma(s.ActiveVsArchived.Archived)
	v.PublicRepos = Comma(s.PublicRepoCount)
	v.PrivateRepos = Comma(s.PrivateRepoCount)
	v.Stars = Comma(s.StarCount)
	v.Followers = Comma(s.FollowerCount)

	for _, share := range s.LanguageMix {
		v.Languages = append(v.Languages, LanguageView{
			Label:      share.Label,
			Percentage: Percent(share.Percentage),
		})
	}

	return v
}

// Comma formats a counter with thousands separators.
func Comma(n int) (s string) {
	s = humanize.Comma(int64(n))
	return s
}

// Percent formats a percentage with one decimal.
func Percent(p float64) (s string) {
	s = fmt.Sprintf("%.1f%%", p)
	return s
}

func placeholder() (s string) {
	s = Placeholder
	return s
}

func loadTemplate(templatePath string) (tmpl *template.Template, err error) {
	funcs := template.FuncMap{
		"comma":       Comma,
		"pct":         Percent,
		"percent":     Percent,
		"placeholder": placeholder,
	}

	if templatePath == "" {
		tmpl, err = template.New("highlights.md.tmpl").Funcs(funcs).ParseFS(templates, "templates/highlights.md.tmpl")
		if err != nil {
			err = errors.Wrap(err, "failed to parse built-in highlights template")
			return tmpl, err
		}
		return tmpl, err
	}

	var data []byte
	data, err = os.ReadFile(templatePath)
	if err != nil {
		err = errors.Wrapf(err, "failed to read template: %s", templatePath)
		return tmpl, err
	}

	tmpl, err = template.New(templatePath).Funcs(funcs).Parse(string(data))
	if err != nil {
		err = errors.Wrapf(err, "failed to parse template: %s", templatePath)
		return tmpl, err
	}

	return tmpl, err
}
