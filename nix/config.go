//nolint:lll // struct tags can't be split
package nix

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sashabaranov/go-openai"
)

const (
	DefaultDatabase              = "nix.sqlite3"
	DefaultDatabaseSlowThreshold = 200 * time.Millisecond
	DefaultDatabaseLogLevel      = slog.LevelInfo
	DefaultLogLevel              = slog.LevelInfo
	DefaultStartupTimeout        = 30 * time.Second
	DefaultShutdownTimeout       = 60 * time.Second

	DefaultDiscordLogLevel      = slog.LevelWarn
	DefaultDiscordgoLogLevel    = slog.LevelWarn
	DefaultDiscordGatewayIntent = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentMessageContent
	DefaultDiscordCustomStatus = "/trivia with me!"
	DefaultDiscordErrorMessage = "sorry, something went wrong!"

	DefaultTriviaURL            = "https://the-trivia-api.com/v2/questions"
	DefaultTriviaDifficulty     = "easy"
	DefaultTriviaSessionTimeout = 300 * time.Second

	// TriviaWinThreshold is the score required to win a game of trivia.
	TriviaWinThreshold = 5

	DefaultFactsURL               = "https://api.api-ninjas.com/v1/facts"
	DefaultFactBroadcastInterval  = 24 * time.Hour
	DefaultFactBroadcastPerSecond = 2

	DefaultQuotesURL = "https://inspirobot.me/api?generate=true"

	DefaultChatModel        = openai.GPT4oMini
	DefaultChatMaxTokens    = 256
	DefaultChatSystemPrompt = "You are Nix, a friendly phoenix made of " +
		"flames who lives in a volcano and loves the server they watch " +
		"over. Reply conversationally, in one or two short sentences."

	DefaultRedditPostLimit = 100
	DefaultRedditUserAgent = "discord:nix:dev"

	DefaultAPIListen         = "127.0.0.1:5000"
	DefaultAPILogLevel       = slog.LevelInfo
	DefaultAPIReadTimeout    = 5 * time.Second
	DefaultAPIWriteTimeout   = 10 * time.Second
	DefaultAPIIdleTimeout    = 30 * time.Second
	defaultHTTPClientTimeout = 30 * time.Second
	discordMaxMessageLength  = 2000
	DefaultEnvPrefix         = "NIX"
)

// Config is the main configuration struct for the bot. Values are
// populated by viper in the cmd package, from config files and
// NIX_-prefixed environment variables.
type Config struct {
	// Database is the path to the sqlite database file
	Database string `yaml:"database" mapstructure:"database" json:"database"`

	// DatabaseLogLevel sets the log level for database operations
	DatabaseLogLevel *slog.LevelVar `yaml:"database_log_level" mapstructure:"database_log_level" json:"database_log_level"`

	// DatabaseSlowThreshold is the duration threshold for identifying slow database queries
	DatabaseSlowThreshold time.Duration `yaml:"database_slow_threshold" mapstructure:"database_slow_threshold" json:"database_slow_threshold"`

	// LogLevel is the base log level, for the default logger
	LogLevel *slog.LevelVar `yaml:"log_level" mapstructure:"log_level" json:"log_level"`

	// StartupTimeout sets a limit on the amount of time the bot has to
	// initialize. If this is passed, the bot will abort startup.
	StartupTimeout time.Duration `yaml:"startup_timeout" mapstructure:"startup_timeout" json:"startup_timeout"`

	// ShutdownTimeout is the time to allow for a graceful shutdown. After this
	// elapses, the bot will force close all connections and exit.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" json:"shutdown_timeout"`

	// Discord configures the Discord bot itself
	Discord *DiscordConfig `yaml:"discord" mapstructure:"discord" json:"discord"`

	// Trivia configures the trivia question provider and game sessions
	Trivia *TriviaConfig `yaml:"trivia" mapstructure:"trivia" json:"trivia"`

	// Facts configures the random fact provider and the daily fact broadcast
	Facts *FactsConfig `yaml:"facts" mapstructure:"facts" json:"facts"`

	// Quotes configures the inspirational quote provider
	Quotes *QuotesConfig `yaml:"quotes" mapstructure:"quotes" json:"quotes"`

	// Chat configures the OpenAI-backed replies to messages that
	// mention the bot
	Chat *ChatConfig `yaml:"chat" mapstructure:"chat" json:"chat"`

	// Reddit configures the (read-only) Reddit client
	Reddit *RedditConfig `yaml:"reddit" mapstructure:"reddit" json:"reddit"`

	// API configures the backend status API server
	API *APIConfig `yaml:"api" mapstructure:"api" json:"api"`
}

// DiscordConfig holds Discord-specific configuration.
type DiscordConfig struct {
	// Token is the Discord bot token
	Token string `yaml:"token" mapstructure:"token" json:"-"`

	// ApplicationID is the Discord application ID
	ApplicationID string `yaml:"application_id" mapstructure:"application_id" json:"application_id"`

	// GuildID, if set, registers slash commands against a single guild
	// rather than globally (global registration can take up to an hour
	// to propagate, guild registration is immediate)
	GuildID string `yaml:"guild_id" mapstructure:"guild_id" json:"guild_id"`

	// GatewayIntents are the discordgo gateway intents to identify with
	GatewayIntents discordgo.Intent `yaml:"gateway_intents" mapstructure:"gateway_intents" json:"gateway_intents"`

	// CustomStatus is the bot's custom status message
	CustomStatus string `yaml:"custom_status" mapstructure:"custom_status" json:"custom_status"`

	// LogLevel sets the log level for the bot's own discord integration
	LogLevel *slog.LevelVar `yaml:"log_level" mapstructure:"log_level" json:"log_level"`

	// DiscordGoLogLevel sets the log level for the discordgo library
	DiscordGoLogLevel *slog.LevelVar `yaml:"discordgo_log_level" mapstructure:"discordgo_log_level" json:"discordgo_log_level"`

	httpClient *http.Client
}

// TriviaConfig configures the trivia question provider and sessions.
type TriviaConfig struct {
	// URL is the base URL of the trivia question provider
	URL string `yaml:"url" mapstructure:"url" json:"url"`

	// Difficulty is passed to the provider as the `difficulties` query param
	Difficulty string `yaml:"difficulty" mapstructure:"difficulty" json:"difficulty"`

	// SessionTimeout is how long a game session lives before being
	// timed out. The timeout is absolute from session creation - it is
	// not reset by activity.
	SessionTimeout time.Duration `yaml:"session_timeout" mapstructure:"session_timeout" json:"session_timeout"`

	// WinThreshold is the score required to win a game
	WinThreshold int `yaml:"win_threshold" mapstructure:"win_threshold" json:"win_threshold"`

	httpClient *http.Client
}

// FactsConfig configures the api-ninjas fact client and the
// daily fact broadcast loop.
type FactsConfig struct {
	// URL is the base URL of the fact provider
	URL string `yaml:"url" mapstructure:"url" json:"url"`

	// APIKey is sent as the X-Api-Key header
	APIKey string `yaml:"api_key" mapstructure:"api_key" json:"-"`

	// BroadcastInterval is the interval between daily fact broadcasts
	BroadcastInterval time.Duration `yaml:"broadcast_interval" mapstructure:"broadcast_interval" json:"broadcast_interval"`

	// BroadcastPerSecond limits how many channel messages per second the
	// broadcast loop will send
	BroadcastPerSecond float64 `yaml:"broadcast_per_second" mapstructure:"broadcast_per_second" json:"broadcast_per_second"`

	httpClient *http.Client
}

// QuotesConfig configures the inspirobot quote client.
type QuotesConfig struct {
	// URL is the quote generation endpoint
	URL string `yaml:"url" mapstructure:"url" json:"url"`

	httpClient *http.Client
}

// ChatConfig configures the OpenAI client behind mention replies.
type ChatConfig struct {
	// Token is the OpenAI API key. Mention replies are disabled when
	// this is empty.
	Token string `yaml:"token" mapstructure:"token" json:"-"`

	// Model is the chat completion model to use
	Model string `yaml:"model" mapstructure:"model" json:"model"`

	// SystemPrompt sets the bot's reply persona
	SystemPrompt string `yaml:"system_prompt" mapstructure:"system_prompt" json:"system_prompt"`

	// MaxTokens caps the length of a generated reply
	MaxTokens int `yaml:"max_tokens" mapstructure:"max_tokens" json:"max_tokens"`

	httpClient *http.Client
}

// RedditConfig configures the read-only Reddit client.
type RedditConfig struct {
	// UserAgent identifies the bot to the Reddit API
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent" json:"user_agent"`

	// PostLimit is the number of top posts to fetch when choosing a
	// random one
	PostLimit int `yaml:"post_limit" mapstructure:"post_limit" json:"post_limit"`
}

// APIConfig configures the backend status API server.
type APIConfig struct {
	// Listen address (ex: `127.0.0.1:5000`)
	Listen string `yaml:"listen" mapstructure:"listen" json:"listen"`

	// LogLevel sets the log level for the API server
	LogLevel *slog.LevelVar `yaml:"log_level" mapstructure:"log_level" json:"log_level"`

	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" json:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout" json:"idle_timeout"`

	// CORSAllowOrigins is the list of origins allowed by the CORS middleware
	CORSAllowOrigins []string `yaml:"cors_allow_origins" mapstructure:"cors_allow_origins" json:"cors_allow_origins"`
}

// DefaultConfig returns a Config with default values set.
func DefaultConfig() *Config {
	logLevel := &slog.LevelVar{}
	logLevel.Set(DefaultLogLevel)

	dbLogLevel := &slog.LevelVar{}
	dbLogLevel.Set(DefaultDatabaseLogLevel)

	discordLogLevel := &slog.LevelVar{}
	discordLogLevel.Set(DefaultDiscordLogLevel)

	discordgoLogLevel := &slog.LevelVar{}
	discordgoLogLevel.Set(DefaultDiscordgoLogLevel)

	apiLogLevel := &slog.LevelVar{}
	apiLogLevel.Set(DefaultAPILogLevel)

	return &Config{
		Database:              DefaultDatabase,
		DatabaseLogLevel:      dbLogLevel,
		DatabaseSlowThreshold: DefaultDatabaseSlowThreshold,
		LogLevel:              logLevel,
		StartupTimeout:        DefaultStartupTimeout,
		ShutdownTimeout:       DefaultShutdownTimeout,
		Discord: &DiscordConfig{
			GatewayIntents:    DefaultDiscordGatewayIntent,
			CustomStatus:      DefaultDiscordCustomStatus,
			LogLevel:          discordLogLevel,
			DiscordGoLogLevel: discordgoLogLevel,
		},
		Trivia: &TriviaConfig{
			URL:            DefaultTriviaURL,
			Difficulty:     DefaultTriviaDifficulty,
			SessionTimeout: DefaultTriviaSessionTimeout,
			WinThreshold:   TriviaWinThreshold,
		},
		Facts: &FactsConfig{
			URL:                DefaultFactsURL,
			BroadcastInterval:  DefaultFactBroadcastInterval,
			BroadcastPerSecond: DefaultFactBroadcastPerSecond,
		},
		Quotes: &QuotesConfig{
			URL: DefaultQuotesURL,
		},
		Chat: &ChatConfig{
			Model:        DefaultChatModel,
			SystemPrompt: DefaultChatSystemPrompt,
			MaxTokens:    DefaultChatMaxTokens,
		},
		Reddit: &RedditConfig{
			UserAgent: DefaultRedditUserAgent,
			PostLimit: DefaultRedditPostLimit,
		},
		API: &APIConfig{
			Listen:       DefaultAPIListen,
			LogLevel:     apiLogLevel,
			ReadTimeout:  DefaultAPIReadTimeout,
			WriteTimeout: DefaultAPIWriteTimeout,
			IdleTimeout:  DefaultAPIIdleTimeout,
		},
	}
}
