// Package narrative builds play-habit commentary prompts and streams
// completions for them.
package narrative

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"steamlens/internal/db"
)

// SystemPrompt sets the persona and style rules for the commentary.
const SystemPrompt = `You are a witty gaming companion who comments on a player's Steam library.
You will receive a list of games with total playtime in hours.

Guidelines:
- Write a short, entertaining commentary about the player's habits and taste.
- Call out the most-played games and any patterns you notice (genres, binges, abandoned titles).
- Be playful and a little teasing, but never mean-spirited.
- Plain text only, no markdown.
- Keep the whole response under 6 short paragraphs.`

const (
	// minSignificantHours is the playtime floor below which a game is
	// left out of the prompt.
	minSignificantHours = 0.1

	noGamesMessage       = "The user has no games in their library."
	noSignificantMessage = "The user owns games but none have been played for a significant amount of time."
	gameListHeader       = "Here is the user's game library with playtime:\n\n"
)

// BuildGameList renders the prompt block for a game list: games with
// playtime above the significance floor, most-played first, capped at
// maxGames entries. Empty inputs produce fixed fallback messages.
func BuildGameList(games []db.FormattedGame, maxGames int) string {
	if len(games) == 0 {
		return noGamesMessage
	}

	type played struct {
		name  string
		label string
		hours float64
	}

	significant := make([]played, 0, len(games))
	for _, g := range games {
		hours := parseHours(g.PlaytimeHours)
		if hours <= minSignificantHours {
			continue
		}
		significant = append(significant, played{name: g.Name, label: g.PlaytimeHours, hours: hours})
	}

	if len(significant) == 0 {
		return noSignificantMessage
	}

	sort.SliceStable(significant, func(i, j int) bool {
		return significant[i].hours > significant[j].hours
	})

	if len(significant) > maxGames {
		significant = significant[:maxGames]
	}

	var b strings.Builder
	b.WriteString(gameListHeader)
	for _, g := range significant {
		fmt.Fprintf(&b, "- %s: %s\n", g.name, g.label)
	}
	return b.String()
}

// parseHours extracts the numeric value from a "X.Y hours" label.
// Unparseable labels count as zero.
func parseHours(label string) float64 {
	value := strings.TrimSuffix(label, " hours")
	hours, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return hours
}
