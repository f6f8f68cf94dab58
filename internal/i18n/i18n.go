// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package i18n translates user-facing messages into the voter's language.
package i18n

import (
	"context"
	"embed"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed translations/*.toml
var translationFS embed.FS

// Supported lists the languages with a translation file, the default first.
var Supported = []language.Tag{
	language.English,
	language.German,
}

var (
	bundle  *i18n.Bundle
	matcher = language.NewMatcher(Supported)
	load    = sync.OnceValue(loadBundle)
)

type localizerContextKey struct{}

type localized struct {
	localizer *i18n.Localizer
	locale    string
}

// Init loads the embedded translations. It is safe to call more than once.
func Init() error {
	return load()
}

func loadBundle() error {
	b := i18n.NewBundle(language.English)
	b.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, tag := range Supported {
		if _, err := b.LoadMessageFileFS(translationFS, "translations/active."+tag.String()+".toml"); err != nil {
			return err
		}
	}

	bundle = b
	return nil
}

// WithLocale adds a localizer for lang to the context.
func WithLocale(ctx context.Context, lang language.Tag) context.Context {
	base, _ := lang.Base()
	locale := base.String()
	return context.WithValue(ctx, localizerContextKey{}, &localized{
		localizer: i18n.NewLocalizer(bundle, locale),
		locale:    locale,
	})
}

// GetLocale returns the current locale from context.
func GetLocale(ctx context.Context) string {
	if l, ok := ctx.Value(localizerContextKey{}).(*localized); ok {
		return l.locale
	}
	return "en"
}

// T translates a message by ID. Unknown IDs are returned unchanged.
func T(ctx context.Context, messageID string) string {
	return localize(ctx, &i18n.LocalizeConfig{MessageID: messageID})
}

// TData translates a message with template data.
func TData(ctx context.Context, messageID string, data map[string]any) string {
	return localize(ctx, &i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
}

// TPlural translates a message with plural support. The count is available
// to the message as {{.Count}}.
func TPlural(ctx context.Context, messageID string, count int) string {
	return localize(ctx, &i18n.LocalizeConfig{
		MessageID:    messageID,
		PluralCount:  count,
		TemplateData: map[string]any{"Count": count},
	})
}

// MatchLanguage matches the best language from Accept-Language header.
func MatchLanguage(acceptLanguage string) language.Tag {
	tag, _ := language.MatchStrings(matcher, acceptLanguage)
	return tag
}

func localize(ctx context.Context, cfg *i18n.LocalizeConfig) string {
	msg, err := getLocalizer(ctx).Localize(cfg)
	if err != nil {
		return cfg.MessageID
	}
	return msg
}

func getLocalizer(ctx context.Context) *i18n.Localizer {
	if l, ok := ctx.Value(localizerContextKey{}).(*localized); ok {
		return l.localizer
	}
	return i18n.NewLocalizer(bundle, "en")
}
