package render

import (
	"fmt"
	"net/http"

	"git.home.luguber.info/inful/deckbuilder/internal/slides"
)

// ErrorTheme is the theme of generated error decks.
const ErrorTheme = "night"

// ErrorDeck builds a one-slide deck reporting an HTTP status and its detail.
func ErrorDeck(code int, detail string) *slides.Config {
	title := fmt.Sprintf("%d %s", code, http.StatusText(code))
	deck, err := slides.Build(map[string]any{
		"title":   title,
		"theme":   ErrorTheme,
		"outline": 0,
		"nav": []any{map[string]any{
			"title": title,
			"doc":   "```sh\n" + detail + "\n```",
		}},
	})
	if err != nil {
		// The document above is constant apart from strings.
		panic(err)
	}
	return deck
}
