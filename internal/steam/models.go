// Package steam provides a client for the Steam Web API.
package steam

// OwnedGame is a raw owned-game record as returned by
// IPlayerService/GetOwnedGames.
type OwnedGame struct {
	AppID                   int    `json:"appid"`
	Name                    string `json:"name"`
	PlaytimeForever         int    `json:"playtime_forever"` // minutes
	PlaytimeWindowsForever  int    `json:"playtime_windows_forever"`
	PlaytimeMacForever      int    `json:"playtime_mac_forever"`
	PlaytimeLinuxForever    int    `json:"playtime_linux_forever"`
	RtimeLastPlayed         int64  `json:"rtime_last_played"` // unix, 0 = never
	ImgIconURL              string `json:"img_icon_url"`
	HasCommunityVisibleStat bool   `json:"has_community_visible_stats"`
}

type ownedGamesResponse struct {
	GameCount int         `json:"game_count"`
	Games     []OwnedGame `json:"games"`
}

type ownedGamesEnvelope struct {
	Response *ownedGamesResponse `json:"response"`
}

// playerSummary is a raw player record from ISteamUser/GetPlayerSummaries.
type playerSummary struct {
	SteamID                  string `json:"steamid"`
	PersonaName              string `json:"personaname"`
	ProfileURL               string `json:"profileurl"`
	Avatar                   string `json:"avatar"`
	AvatarMedium             string `json:"avatarmedium"`
	AvatarFull               string `json:"avatarfull"`
	PersonaState             int    `json:"personastate"`
	CommunityVisibilityState int    `json:"communityvisibilitystate"`
	RealName                 string `json:"realname"`
	TimeCreated              int64  `json:"timecreated"`
	LastLogoff               int64  `json:"lastlogoff"`
}

type playerSummariesEnvelope struct {
	Response *struct {
		Players []playerSummary `json:"players"`
	} `json:"response"`
}

// Profile is the display-ready projection of a player summary.
// Never cached; fetched fresh on every request.
type Profile struct {
	SteamID                  string `json:"steamId"`
	PersonaName              string `json:"personaName"`
	ProfileURL               string `json:"profileUrl"`
	Avatar                   string `json:"avatar"`
	AvatarMedium             string `json:"avatarMedium"`
	AvatarFull               string `json:"avatarFull"`
	PersonaState             int    `json:"personaState"`
	CommunityVisibilityState int    `json:"communityVisibilityState"`
	RealName                 string `json:"realName,omitempty"`
	TimeCreated              string `json:"timeCreated,omitempty"`
	LastLogoff               string `json:"lastLogoff,omitempty"`
}
