package config

import "github.com/kelseyhightower/envconfig"

type Config struct {
	Discord  Discord
	Scryfall Scryfall
	Storage  Storage
	Reports  Reports
}

type Discord struct {
	Token     string `envconfig:"DISCORD_TOKEN" required:"true"`
	GuildID   string `envconfig:"GUILD_ID" required:"true"`
	ChannelID string `envconfig:"CHANNEL_ID" required:"true"`
}

type Scryfall struct {
	BaseURL    string `envconfig:"SCRYFALL_BASE_URL" default:"https://api.scryfall.com"`
	MaxResults int    `envconfig:"SCRYFALL_MAX_RESULTS" default:"25"`
}

type Storage struct {
	DatabasePath string `envconfig:"LEAGUE_DB_PATH" default:"league.db"`
}

type Reports struct {
	// Standard cron expression for the scheduled leaderboard post.
	LeaderboardCron string `envconfig:"LEADERBOARD_CRON" default:"30 9 * * MON"`
	Timezone        string `envconfig:"REPORT_TIMEZONE" default:"America/Chicago"`
}

func New() (*Config, error) {
	var c Config
	err := envconfig.Process("", &c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
