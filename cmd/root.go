package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"syscall"

	"github.com/StanleyRoberts/WatchingRaccoonsBot/nix"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfg        = nix.DefaultConfig()
	configFile string
)

var rootCmd = &cobra.Command{
	Use: "nix [flags]",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		err := viper.Unmarshal(
			cfg,
			viper.DecodeHook(
				mapstructure.ComposeDecodeHookFunc(
					mapstructure.StringToTimeDurationHookFunc(),
					LevelToStringHookFunc(),
				),
			),
		)
		if err != nil {
			log.Fatalln(err)
		}
	},
}

func getLogLevel(level string) (slog.Level, error) {
	switch level {
	case slog.LevelDebug.String():
		return slog.LevelDebug, nil
	case slog.LevelInfo.String():
		return slog.LevelInfo, nil
	case slog.LevelWarn.String():
		return slog.LevelWarn, nil
	case slog.LevelError.String():
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}

// LevelToStringHookFunc decodes log level names into *slog.LevelVar
// config fields.
func LevelToStringHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data any,
	) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		if t.Kind() != reflect.Ptr {
			return data, nil
		}

		typ := t.Elem()

		if typ != reflect.TypeOf(slog.LevelVar{}) {
			return data, nil
		}
		lvl, err := getLogLevel(data.(string))
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %s", data)
		}
		lvlVar := &slog.LevelVar{}
		lvlVar.Set(lvl)
		return lvlVar, nil
	}
}

func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	rootCmd.SetContext(ctx)
	signals := make(chan os.Signal, 1)
	signal.Notify(
		signals,
		os.Interrupt,
		syscall.SIGHUP,
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer func() {
		signal.Stop(signals)
		cancel()
	}()
	go func() {
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
			//
		}
	}()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func initConfig() {
	if configFile == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found")
		}
	} else {
		fmt.Println("loading env from file", configFile)
		if err := godotenv.Load(configFile); err != nil {
			log.Println("No .env file found")
		}
	}

	viper.SetDefault("database", nix.DefaultDatabase)
	viper.SetDefault(
		"database_slow_threshold",
		nix.DefaultDatabaseSlowThreshold,
	)
	viper.SetDefault(
		"database_log_level",
		nix.DefaultDatabaseLogLevel.String(),
	)
	viper.SetDefault("log_level", nix.DefaultLogLevel.String())
	viper.SetDefault("startup_timeout", nix.DefaultStartupTimeout)
	viper.SetDefault("shutdown_timeout", nix.DefaultShutdownTimeout)

	// Discord config
	viper.SetDefault("discord.token", "")
	viper.SetDefault("discord.application_id", "")
	viper.SetDefault("discord.guild_id", "")
	viper.SetDefault("discord.custom_status", nix.DefaultDiscordCustomStatus)
	viper.SetDefault(
		"discord.gateway_intents",
		nix.DefaultDiscordGatewayIntent,
	)
	viper.SetDefault(
		"discord.log_level",
		nix.DefaultDiscordLogLevel.String(),
	)
	viper.SetDefault(
		"discord.discordgo_log_level",
		nix.DefaultDiscordgoLogLevel.String(),
	)

	// Trivia config
	viper.SetDefault("trivia.url", nix.DefaultTriviaURL)
	viper.SetDefault("trivia.difficulty", nix.DefaultTriviaDifficulty)
	viper.SetDefault(
		"trivia.session_timeout",
		nix.DefaultTriviaSessionTimeout,
	)
	viper.SetDefault("trivia.win_threshold", nix.TriviaWinThreshold)

	// Facts config
	viper.SetDefault("facts.url", nix.DefaultFactsURL)
	viper.SetDefault("facts.api_key", "")
	viper.SetDefault(
		"facts.broadcast_interval",
		nix.DefaultFactBroadcastInterval,
	)
	viper.SetDefault(
		"facts.broadcast_per_second",
		nix.DefaultFactBroadcastPerSecond,
	)

	// Quotes config
	viper.SetDefault("quotes.url", nix.DefaultQuotesURL)

	// Chat config
	viper.SetDefault("chat.token", "")
	viper.SetDefault("chat.model", nix.DefaultChatModel)
	viper.SetDefault("chat.system_prompt", nix.DefaultChatSystemPrompt)
	viper.SetDefault("chat.max_tokens", nix.DefaultChatMaxTokens)

	// Reddit config
	viper.SetDefault("reddit.user_agent", nix.DefaultRedditUserAgent)
	viper.SetDefault("reddit.post_limit", nix.DefaultRedditPostLimit)

	// API config
	viper.SetDefault("api.listen", nix.DefaultAPIListen)
	viper.SetDefault("api.log_level", nix.DefaultAPILogLevel.String())
	viper.SetDefault("api.read_timeout", nix.DefaultAPIReadTimeout)
	viper.SetDefault("api.write_timeout", nix.DefaultAPIWriteTimeout)
	viper.SetDefault("api.idle_timeout", nix.DefaultAPIIdleTimeout)

	viper.SetEnvPrefix(nix.DefaultEnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

//nolint:gochecknoinits
func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(
		&configFile,
		"env-file",
		"",
		"env file to load",
	)
}
