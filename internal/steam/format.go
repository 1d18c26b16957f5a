package steam

import (
	"fmt"
	"regexp"
	"time"

	"steamlens/internal/db"
)

const (
	// NoIconSentinel is stored when a game has no icon hash.
	NoIconSentinel = "No Icon URL Available"

	// NeverPlayedSentinel is stored when a game has never been launched.
	NeverPlayedSentinel = "Never"

	iconURLTemplate = "http://media.steampowered.com/steamcommunity/public/images/apps/%d/%s.jpg"
)

var steamIDPattern = regexp.MustCompile(`^[0-9]{17}$`)

// ValidSteamID reports whether s is a well-formed 64-bit SteamID:
// exactly 17 decimal digits.
func ValidSteamID(s string) bool {
	return steamIDPattern.MatchString(s)
}

// FormatGames projects raw owned games into display-ready records.
// Pure transform; output preserves input order.
func FormatGames(games []OwnedGame) []db.FormattedGame {
	formatted := make([]db.FormattedGame, 0, len(games))
	for _, g := range games {
		formatted = append(formatted, FormatGame(g))
	}
	return formatted
}

// FormatGame projects a single raw record.
func FormatGame(g OwnedGame) db.FormattedGame {
	lastPlayed := NeverPlayedSentinel
	if g.RtimeLastPlayed > 0 {
		lastPlayed = time.Unix(g.RtimeLastPlayed, 0).UTC().Format("January 2, 2006")
	}

	iconURL := NoIconSentinel
	if g.ImgIconURL != "" {
		iconURL = fmt.Sprintf(iconURLTemplate, g.AppID, g.ImgIconURL)
	}

	return db.FormattedGame{
		AppID:         g.AppID,
		Name:          g.Name,
		PlaytimeHours: fmt.Sprintf("%.1f hours", float64(g.PlaytimeForever)/60),
		LastPlayed:    lastPlayed,
		IconURL:       iconURL,
	}
}
