// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package views renders the HTML pages of the voting site.
package views

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"

	"codeberg.org/oliverandrich/electobot/internal/i18n"
	"github.com/a-h/templ"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = map[string]*template.Template{}

func init() {
	for _, name := range []string{"welcome", "message", "register", "polls", "ballot"} {
		pages[name] = template.Must(template.New(name).
			Funcs(funcs(context.Background())).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
	}
}

// funcs binds the translation helpers to the locale of ctx.
func funcs(ctx context.Context) template.FuncMap {
	return template.FuncMap{
		"t": func(id string) string {
			return i18n.T(ctx, id)
		},
		"tdata": func(id string, pairs ...any) (string, error) {
			if len(pairs)%2 != 0 {
				return "", fmt.Errorf("tdata %s: odd number of arguments", id)
			}
			data := make(map[string]any, len(pairs)/2)
			for i := 0; i < len(pairs); i += 2 {
				key, ok := pairs[i].(string)
				if !ok {
					return "", fmt.Errorf("tdata %s: key %v is not a string", id, pairs[i])
				}
				data[key] = pairs[i+1]
			}
			return i18n.TData(ctx, id, data), nil
		},
		"tplural": func(id string, count int) string {
			return i18n.TPlural(ctx, id, count)
		},
		"locale": func() string {
			return i18n.GetLocale(ctx)
		},
	}
}

// page renders the named page with translations for the request's locale.
func page(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		t, err := pages[name].Clone()
		if err != nil {
			return err
		}
		t = t.Funcs(funcs(ctx)).Lookup("layout")
		return templ.FromGoHTML(t, data).Render(ctx, w)
	})
}

// MessageData is a single notice or error with an optional link back.
type MessageData struct {
	Title   string
	Message string
	BackURL string
	IsError bool
}

// RegisterData fills the registration form of an event.
type RegisterData struct {
	EventName  string
	EventToken string
	Email      string
	CSRF       string
	Error      string
}

// PollLink is an entry in the list of open polls.
type PollLink struct {
	Name string
	URL  string
}

// PollsData lists the polls a voter can vote in.
type PollsData struct {
	EventName string
	Polls     []PollLink
}

// BallotField is one number input of the ballot form.
type BallotField struct {
	Name  string
	Label string
	Value int
}

// BallotData fills the ballot form of a poll.
type BallotData struct { //nolint:govet // fieldalignment: readability over optimization
	PollName    string
	ActionURL   string
	BackURL     string
	CSRF        string
	Error       string
	Entitlement int
	Proxies     []string
	Options     []BallotField
	Abstain     BallotField
}

// Welcome renders the landing page.
func Welcome() templ.Component {
	return page("welcome", nil)
}

// Message renders a notice or an error.
func Message(data MessageData) templ.Component {
	return page("message", data)
}

// Register renders the registration form.
func Register(data RegisterData) templ.Component {
	return page("register", data)
}

// Polls renders the list of open polls.
func Polls(data PollsData) templ.Component {
	return page("polls", data)
}

// Ballot renders the ballot form.
func Ballot(data BallotData) templ.Component {
	return page("ballot", data)
}
