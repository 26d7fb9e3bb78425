package configuration

import (
	"os"
	"strconv"
	"strings"

	"streamclips/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App           App           `json:"app"`
	Database      Database      `json:"database"`
	RedisClient   RedisClient   `json:"redisClient"`
	Monitor       Monitor       `json:"monitor"`
	Clip          Clip          `json:"clip"`
	RP            RP            `json:"rp"`
	Publish       Publish       `json:"publish"`
	Queue         Queue         `json:"queue"`
	Twitch        Twitch        `json:"twitch"`
	YouTube       YouTube       `json:"youtube"`
	Transcription Transcription `json:"transcription"`
	Discord       Discord       `json:"discord"`
}

type App struct {
	Port int `json:"port"`
}

type Database struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
	SSLMode  string `json:"sslMode"`
}

type RedisClient struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type Monitor struct {
	IntervalSeconds int    `json:"intervalSeconds"`
	ClipTrigger     string `json:"clipTrigger"`
}

type Clip struct {
	DurationSeconds int    `json:"durationSeconds"`
	StoragePath     string `json:"storagePath"`
}

type RP struct {
	AllowedGames     []string `json:"allowedGames"`
	BannedCategories []string `json:"bannedCategories"`
	RequiredKeywords []string `json:"requiredKeywords"`
}

type Publish struct {
	AutoPublishThreshold int `json:"autoPublishThreshold"`
	ReviewThreshold      int `json:"reviewThreshold"`
}

type Queue struct {
	StalledIntervalSeconds int `json:"stalledIntervalSeconds"`
	MaxStalledCount        int `json:"maxStalledCount"`
}

type Twitch struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

type YouTube struct {
	APIKey string `json:"apiKey"`
}

type Transcription struct {
	DeepgramAPIKey string `json:"deepgramApiKey"`
	Language       string `json:"language"`
}

type Discord struct {
	NotificationsWebhookURL string `json:"notificationsWebhookUrl"`
	ClipsWebhookURL         string `json:"clipsWebhookUrl"`
}

var C Config

func init() {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	if err := viper.ReadInConfig(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("No config file found; relying on environment variables and defaults")
	} else if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Failed to unmarshal configuration")
	}

	initApp(&C)
	initDatabase(&C)
	initRedis(&C)
	initMonitor(&C)
	initClip(&C)
	initRP(&C)
	initPublish(&C)
	initQueue(&C)
	initPlatforms(&C)
}

func initApp(c *Config) {
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.App.Port = p
		}
	}
	if c.App.Port == 0 {
		c.App.Port = 10010
	}
}

func initDatabase(c *Config) {
	envOr(&c.Database.Host, "DB_HOST", "localhost")
	envOr(&c.Database.Port, "DB_PORT", "5432")
	envOr(&c.Database.User, "DB_USER", "postgres")
	envOr(&c.Database.Password, "DB_PASSWORD", "")
	envOr(&c.Database.Name, "DB_NAME", "streamclips")
	envOr(&c.Database.SSLMode, "DB_SSLMODE", "disable")
}

func initRedis(c *Config) {
	envOr(&c.RedisClient.Host, "REDIS_HOST", "localhost")
	envOr(&c.RedisClient.Port, "REDIS_PORT", "6379")
	envOr(&c.RedisClient.Username, "REDIS_USERNAME", "")
	envOr(&c.RedisClient.Password, "REDIS_PASSWORD", "")
}

func initMonitor(c *Config) {
	if v := os.Getenv("MONITOR_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Monitor.IntervalSeconds = n
		}
	}
	if c.Monitor.IntervalSeconds == 0 {
		c.Monitor.IntervalSeconds = 60
	}
	envOr(&c.Monitor.ClipTrigger, "MONITOR_CLIP_TRIGGER", "stream_start")
}

func initClip(c *Config) {
	if v := os.Getenv("CLIP_DEFAULT_DURATION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Clip.DurationSeconds = n
		}
	}
	if c.Clip.DurationSeconds == 0 {
		c.Clip.DurationSeconds = 30
	}
	envOr(&c.Clip.StoragePath, "CLIP_STORAGE_PATH", "/tmp/clips")
}

func initRP(c *Config) {
	if v := os.Getenv("RP_ALLOWED_GAMES"); v != "" {
		c.RP.AllowedGames = splitList(v)
	}
	if len(c.RP.AllowedGames) == 0 {
		c.RP.AllowedGames = []string{"Grand Theft Auto V", "GTA V"}
	}
	if v := os.Getenv("RP_BANNED_CATEGORIES"); v != "" {
		c.RP.BannedCategories = splitList(v)
	}
	if len(c.RP.BannedCategories) == 0 {
		c.RP.BannedCategories = []string{"Just Chatting"}
	}
	if v, ok := os.LookupEnv("RP_REQUIRED_KEYWORDS"); ok {
		// An explicitly empty list disables the keyword gate.
		c.RP.RequiredKeywords = splitList(v)
	} else if c.RP.RequiredKeywords == nil {
		c.RP.RequiredKeywords = []string{"El Patio", "Patio RP"}
	}
}

func initPublish(c *Config) {
	if v := os.Getenv("VIRAL_SCORE_AUTO_PUBLISH_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Publish.AutoPublishThreshold = n
		}
	}
	if c.Publish.AutoPublishThreshold == 0 {
		c.Publish.AutoPublishThreshold = 80
	}
	if c.Publish.ReviewThreshold == 0 {
		c.Publish.ReviewThreshold = 50
	}
}

func initQueue(c *Config) {
	if c.Queue.StalledIntervalSeconds == 0 {
		c.Queue.StalledIntervalSeconds = 30
	}
	if c.Queue.MaxStalledCount == 0 {
		c.Queue.MaxStalledCount = 3
	}
}

func initPlatforms(c *Config) {
	envOr(&c.Twitch.ClientID, "TWITCH_CLIENT_ID", "")
	envOr(&c.Twitch.ClientSecret, "TWITCH_CLIENT_SECRET", "")
	envOr(&c.YouTube.APIKey, "YOUTUBE_API_KEY", "")
	envOr(&c.Transcription.DeepgramAPIKey, "DEEPGRAM_API_KEY", "")
	envOr(&c.Transcription.Language, "TRANSCRIPTION_LANGUAGE", "es")
	envOr(&c.Discord.NotificationsWebhookURL, "DISCORD_NOTIFICATIONS_WEBHOOK_URL", "")
	envOr(&c.Discord.ClipsWebhookURL, "DISCORD_CLIPS_WEBHOOK_URL", "")
}

func envOr(target *string, key, fallback string) {
	if *target != "" {
		return
	}
	if v := os.Getenv(key); v != "" {
		*target = v
		return
	}
	*target = fallback
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
