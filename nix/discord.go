package nix

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
)

const (
	DiscordSlashCommandTrivia         = "trivia"
	DiscordSlashCommandTriviaStop     = "trivia_stop"
	DiscordSlashCommandFact           = "fact"
	DiscordSlashCommandQuote          = "quote"
	DiscordSlashCommandReddit         = "reddit"
	DiscordSlashCommandSetFactChannel = "set_fact_channel"
	DiscordSlashCommandStopFacts      = "stop_facts"
	DiscordSlashCommandHelp           = "help"

	triviaCategoryOption = "category"
	redditSubredditOpt   = "subreddit"
	redditTimeOption     = "time"
	factChannelOption    = "channel"

	// triviaSkipCustomID is the component custom ID for the skip
	// button attached to question messages.
	triviaSkipCustomID = "trivia_skip"

	colourPrimary = 0xE67E22
)

// Reaction/flavor emoji. The original bot used custom guild emotes;
// these are the closest unicode stand-ins.
const (
	emojiCorrect    = "😮"
	emojiIncorrect  = "🙄"
	emojiHappy      = "😄"
	emojiSneaky     = "😏"
	emojiSunglasses = "😎"
	emojiStare      = "😑"
	emojiDrinking   = "🍹"
	emojiNoEmotion  = "😐"
	emojiTeehee     = "😝"
)

// triviaCategories are the categories offered by the trivia provider.
var triviaCategories = []string{
	"arts_and_literature",
	"film_and_tv",
	"food_and_drink",
	"general_knowledge",
	"geography",
	"history",
	"music",
	"science",
	"society_and_culture",
	"sport_and_leisure",
}

// redditTimePeriods are the accepted values for the reddit command's
// time option.
var redditTimePeriods = []string{"hour", "day", "week", "month", "year", "all"}

// DiscordSessionHandler is the subset of discordgo.Session used by the
// bot, behind an interface so tests can stub the gateway.
type DiscordSessionHandler interface {
	Open() error
	Close() error
	AddHandler(handler any) func()
	ApplicationCommandBulkOverwrite(
		appID string,
		guildID string,
		commands []*discordgo.ApplicationCommand,
		options ...discordgo.RequestOption,
	) ([]*discordgo.ApplicationCommand, error)
	InteractionRespond(
		interaction *discordgo.Interaction,
		resp *discordgo.InteractionResponse,
		options ...discordgo.RequestOption,
	) error
	ChannelMessageSend(
		channelID string,
		content string,
		options ...discordgo.RequestOption,
	) (*discordgo.Message, error)
	ChannelMessageSendComplex(
		channelID string,
		data *discordgo.MessageSend,
		options ...discordgo.RequestOption,
	) (*discordgo.Message, error)
	MessageReactionAdd(
		channelID string,
		messageID string,
		emojiID string,
		options ...discordgo.RequestOption,
	) error
	UpdateCustomStatus(
		status string,
		options ...discordgo.RequestOption,
	) error
}

// DiscordSession wraps a discordgo.Session to satisfy
// DiscordSessionHandler.
type DiscordSession struct {
	session *discordgo.Session
}

func (d DiscordSession) Open() error {
	return d.session.Open()
}

func (d DiscordSession) Close() error {
	return d.session.Close()
}

func (d DiscordSession) AddHandler(handler any) func() {
	return d.session.AddHandler(handler)
}

func (d DiscordSession) ApplicationCommandBulkOverwrite(
	appID string,
	guildID string,
	commands []*discordgo.ApplicationCommand,
	options ...discordgo.RequestOption,
) ([]*discordgo.ApplicationCommand, error) {
	return d.session.ApplicationCommandBulkOverwrite(
		appID,
		guildID,
		commands,
		options...,
	)
}

func (d DiscordSession) InteractionRespond(
	interaction *discordgo.Interaction,
	resp *discordgo.InteractionResponse,
	options ...discordgo.RequestOption,
) error {
	return d.session.InteractionRespond(interaction, resp, options...)
}

func (d DiscordSession) ChannelMessageSend(
	channelID string,
	content string,
	options ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	return d.session.ChannelMessageSend(channelID, content, options...)
}

func (d DiscordSession) ChannelMessageSendComplex(
	channelID string,
	data *discordgo.MessageSend,
	options ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	return d.session.ChannelMessageSendComplex(channelID, data, options...)
}

func (d DiscordSession) MessageReactionAdd(
	channelID string,
	messageID string,
	emojiID string,
	options ...discordgo.RequestOption,
) error {
	return d.session.MessageReactionAdd(
		channelID,
		messageID,
		emojiID,
		options...,
	)
}

func (d DiscordSession) UpdateCustomStatus(
	status string,
	options ...discordgo.RequestOption,
) error {
	return d.session.UpdateCustomStatus(status)
}

// Discord handles the bot's Discord integration: the gateway session,
// slash command registration and interaction/message dispatch. It also
// implements TriviaNotifier, rendering trivia session events into
// channel messages.
type Discord struct {
	session                     DiscordSessionHandler
	config                      *DiscordConfig
	logger                      *slog.Logger
	nix                         *Nix
	botUserID                   string
	connected                   atomic.Bool
	metricConnects              atomic.Int64
	metricDisconnects           atomic.Int64
	discordgoRemoveHandlerFuncs []func()
}

func newDiscord(config *DiscordConfig, logger *slog.Logger) *Discord {
	return &Discord{
		config:                      config,
		logger:                      logger.With(loggerNameKey, "discord"),
		discordgoRemoveHandlerFuncs: []func(){},
	}
}

// newSession initializes a discordgo session with the configured
// token, intents and log bridging.
func (d *Discord) newSession(handler slog.Handler) (
	DiscordSessionHandler,
	error,
) {
	session, err := discordgo.New("Bot " + d.config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	session.SyncEvents = true
	session.StateEnabled = false
	session.Identify.Intents = d.config.GatewayIntents
	session.LogLevel = discordgoLevel(d.config.DiscordGoLogLevel.Level())
	if d.config.httpClient != nil {
		session.Client = d.config.httpClient
	}
	discordgo.Logger = discordgoLoggerFunc(context.Background(), handler)
	return DiscordSession{session: session}, nil
}

func discordgoLevel(level slog.Level) int {
	switch {
	case level <= slog.LevelDebug:
		return discordgo.LogDebug
	case level <= slog.LevelInfo:
		return discordgo.LogInformational
	case level <= slog.LevelWarn:
		return discordgo.LogWarning
	default:
		return discordgo.LogError
	}
}

// appCommands returns the full set of slash commands the bot
// registers.
func (d *Discord) appCommands() []*discordgo.ApplicationCommand {
	manageGuild := int64(discordgo.PermissionManageServer)

	categoryChoices := make(
		[]*discordgo.ApplicationCommandOptionChoice,
		0,
		len(triviaCategories),
	)
	for _, c := range triviaCategories {
		categoryChoices = append(
			categoryChoices,
			&discordgo.ApplicationCommandOptionChoice{Name: c, Value: c},
		)
	}

	timeChoices := make(
		[]*discordgo.ApplicationCommandOptionChoice,
		0,
		len(redditTimePeriods),
	)
	for _, p := range redditTimePeriods {
		timeChoices = append(
			timeChoices,
			&discordgo.ApplicationCommandOptionChoice{Name: p, Value: p},
		)
	}

	return []*discordgo.ApplicationCommand{
		{
			Name: DiscordSlashCommandTrivia,
			Description: "Start a game of Trivia where the first " +
				"person to get 5 points wins",
			Type: discordgo.ChatApplicationCommand,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        triviaCategoryOption,
					Description: "Question category",
					Required:    false,
					Choices:     categoryChoices,
				},
			},
		},
		{
			Name:        DiscordSlashCommandTriviaStop,
			Description: "Stop the trivia game in this channel",
			Type:        discordgo.ChatApplicationCommand,
		},
		{
			Name:        DiscordSlashCommandFact,
			Description: "Displays a random fact",
			Type:        discordgo.ChatApplicationCommand,
		},
		{
			Name: DiscordSlashCommandQuote,
			Description: "Displays an AI-generated quote over an " +
				"inspirational image",
			Type: discordgo.ChatApplicationCommand,
		},
		{
			Name: DiscordSlashCommandReddit,
			Description: "Displays a random top reddit post from " +
				"the given subreddit",
			Type: discordgo.ChatApplicationCommand,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        redditSubredditOpt,
					Description: "Subreddit to search",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        redditTimeOption,
					Description: "Time period to search for top posts",
					Required:    false,
					Choices:     timeChoices,
				},
			},
		},
		{
			Name:                     DiscordSlashCommandSetFactChannel,
			Description:              "Sets the channel for daily facts",
			Type:                     discordgo.ChatApplicationCommand,
			DefaultMemberPermissions: &manageGuild,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        factChannelOption,
					Description: "Channel to post daily facts to",
					Required:    false,
				},
			},
		},
		{
			Name: DiscordSlashCommandStopFacts,
			Description: "Disables daily facts " +
				"(run set_fact_channel to enable again)",
			Type:                     discordgo.ChatApplicationCommand,
			DefaultMemberPermissions: &manageGuild,
		},
		{
			Name:        DiscordSlashCommandHelp,
			Description: "Displays all of Nix's commands",
			Type:        discordgo.ChatApplicationCommand,
		},
	}
}

// registerCommands bulk-overwrites the bot's slash commands. If a
// guild ID is configured, commands are registered against that guild
// only (global registration can take up to an hour to propagate).
func (d *Discord) registerCommands(ctx context.Context) error {
	commands, err := d.session.ApplicationCommandBulkOverwrite(
		d.config.ApplicationID,
		d.config.GuildID,
		d.appCommands(),
	)
	if err != nil {
		return fmt.Errorf("error registering commands: %w", err)
	}
	for _, c := range commands {
		d.logger.InfoContext(ctx, "registered command", "name", c.Name)
	}
	return nil
}

func (d *Discord) handlerReady(ctx context.Context) func(
	s *discordgo.Session,
	r *discordgo.Ready,
) {
	return func(_ *discordgo.Session, r *discordgo.Ready) {
		d.botUserID = r.User.ID
		d.logger.InfoContext(
			ctx,
			"discord ready",
			"username", r.User.Username,
		)
		if d.config.CustomStatus != "" {
			if err := d.session.UpdateCustomStatus(
				d.config.CustomStatus,
			); err != nil {
				d.logger.WarnContext(
					ctx,
					"error setting custom status",
					tint.Err(err),
				)
			}
		}
	}
}

func (d *Discord) handlerConnect(ctx context.Context) func(
	s *discordgo.Session,
	c *discordgo.Connect,
) {
	return func(_ *discordgo.Session, _ *discordgo.Connect) {
		d.metricConnects.Add(1)
		d.connected.Store(true)
		d.logger.InfoContext(ctx, "discord connected")
	}
}

func (d *Discord) handlerDisconnect(ctx context.Context) func(
	s *discordgo.Session,
	c *discordgo.Disconnect,
) {
	return func(_ *discordgo.Session, _ *discordgo.Disconnect) {
		d.metricDisconnects.Add(1)
		d.connected.Store(false)
		d.logger.WarnContext(ctx, "discord disconnected")
	}
}

// handlerInteractionCreate dispatches slash commands and message
// component (button) interactions.
func (d *Discord) handlerInteractionCreate(ctx context.Context) func(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
) {
	return func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			d.handleCommand(ctx, i)
		case discordgo.InteractionMessageComponent:
			if i.MessageComponentData().CustomID == triviaSkipCustomID {
				d.handleTriviaSkip(ctx, i)
			}
		default:
			d.logger.DebugContext(
				ctx,
				"ignoring interaction",
				"type", i.Type,
			)
		}
	}
}

func (d *Discord) handleCommand(
	ctx context.Context,
	i *discordgo.InteractionCreate,
) {
	name := i.ApplicationCommandData().Name
	user := interactionUser(i)
	if user == nil {
		d.logger.WarnContext(
			ctx,
			"couldn't find user for interaction",
			"command", name,
		)
		return
	}
	logger := d.logger.With(
		"command", name,
		"user_id", user.ID,
		"channel_id", i.ChannelID,
	)
	ctx = WithLogger(ctx, logger)
	logger.InfoContext(ctx, "handling slash command")

	switch name {
	case DiscordSlashCommandTrivia:
		d.handleTriviaStart(ctx, i, user)
	case DiscordSlashCommandTriviaStop:
		d.handleTriviaStop(ctx, i)
	case DiscordSlashCommandFact:
		d.handleFact(ctx, i)
	case DiscordSlashCommandQuote:
		d.handleQuote(ctx, i)
	case DiscordSlashCommandReddit:
		d.handleReddit(ctx, i)
	case DiscordSlashCommandSetFactChannel:
		d.handleSetFactChannel(ctx, i)
	case DiscordSlashCommandStopFacts:
		d.handleStopFacts(ctx, i)
	case DiscordSlashCommandHelp:
		d.handleHelp(ctx, i)
	default:
		logger.WarnContext(ctx, "unknown command")
	}
}

func (d *Discord) handleTriviaStart(
	ctx context.Context,
	i *discordgo.InteractionCreate,
	user *discordgo.User,
) {
	category := ""
	if opt, ok := discordInteractionOptions(i)[triviaCategoryOption]; ok {
		category = opt.StringValue()
	}

	if d.nix.trivia.Get(i.ChannelID) != nil {
		d.respondMessage(
			ctx,
			i,
			fmt.Sprintf(
				"Uh oh! %s There is already an active trivia game "+
					"in this channel",
				emojiStare,
			),
			false,
		)
		return
	}

	description := "Category: random"
	if category != "" {
		description = fmt.Sprintf("Category: %s", category)
	}
	d.respondEmbed(
		ctx,
		i,
		&discordgo.MessageEmbed{
			Title:       "You have started a game of Trivia",
			Description: description,
			Color:       colourPrimary,
		},
	)

	_, err := d.nix.trivia.Start(
		ctx,
		i.ChannelID,
		i.GuildID,
		user.ID,
		category,
	)
	switch {
	case err == nil:
	case errors.Is(err, ErrTriviaAlreadyActive):
		d.channelMessageSend(
			ctx,
			i.ChannelID,
			fmt.Sprintf(
				"Uh oh! %s There is already an active trivia game "+
					"in this channel",
				emojiStare,
			),
		)
	case errors.Is(err, ErrNoQuestionAvailable):
		d.channelMessageSend(
			ctx,
			i.ChannelID,
			fmt.Sprintf(
				"I couldn't find any trivia questions right now %s "+
					"Try again in a bit!",
				emojiNoEmotion,
			),
		)
	default:
		d.logger.ErrorContext(ctx, "error starting trivia", tint.Err(err))
		d.channelMessageSend(ctx, i.ChannelID, DefaultDiscordErrorMessage)
	}
}

func (d *Discord) handleTriviaStop(
	ctx context.Context,
	i *discordgo.InteractionCreate,
) {
	session := d.nix.trivia.Get(i.ChannelID)
	if session == nil {
		d.respondMessage(
			ctx,
			i,
			fmt.Sprintf(
				"There's no trivia game running in this channel %s",
				emojiNoEmotion,
			),
			true,
		)
		return
	}
	d.respondMessage(
		ctx,
		i,
		fmt.Sprintf("Stopping the trivia game %s", emojiNoEmotion),
		true,
	)
	if err := session.Stop(ctx); err != nil {
		d.logger.WarnContext(ctx, "error stopping trivia", tint.Err(err))
	}
}

// handleTriviaSkip handles the skip button on question messages. The
// session announces the revealed answer and the replacement question
// itself; a rejected skip gets an ephemeral explanation.
func (d *Discord) handleTriviaSkip(
	ctx context.Context,
	i *discordgo.InteractionCreate,
) {
	user := interactionUser(i)
	if user == nil {
		return
	}
	session := d.nix.trivia.Get(i.ChannelID)
	if session == nil {
		d.respondMessage(
			ctx,
			i,
			fmt.Sprintf(
				"There's no trivia game running in this channel %s",
				emojiNoEmotion,
			),
			true,
		)
		return
	}

	result, err := session.Skip(ctx, user.ID)
	if err != nil {
		d.logger.WarnContext(ctx, "error skipping question", tint.Err(err))
		d.ackComponent(ctx, i)
		return
	}
	if result == nil {
		d.respondMessage(
			ctx,
			i,
			fmt.Sprintf(
				"Only players can skip a question in a multiplayer "+
					"game %s",
				emojiStare,
			),
			true,
		)
		return
	}
	d.ackComponent(ctx, i)
}

func (d *Discord) handleFact(
	ctx context.Context,
	i *discordgo.InteractionCreate,
) {
	fact, err := d.nix.facts.Fact(ctx)
	if err != nil {
		d.logger.ErrorContext(ctx, "error fetching fact", tint.Err(err))
		d.respondMessage(ctx, i, DefaultDiscordErrorMessage, false)
		return
	}
	d.respondMessage(ctx, i, fact, false)
}

func (d *Discord) handleQuote(
	ctx context.Context,
	i *discordgo.InteractionCreate,
) {
	quote, err := d.nix.quotes.Quote(ctx)
	if err != nil {
		d.logger.ErrorContext(ctx, "error fetching quote", tint.Err(err))
		d.respondMessage(ctx, i, DefaultDiscordErrorMessage, false)
		return
	}
	d.respondMessage(ctx, i, quote, false)
}

func (d *Discord) handleReddit(
	ctx context.Context,
	i *discordgo.InteractionCreate,
) {
	options := discordInteractionOptions(i)
	subredditOpt, ok := options[redditSubredditOpt]
	if !ok {
		d.respondMessage(ctx, i, DefaultDiscordErrorMessage, true)
		return
	}
	subreddit := subredditOpt.StringValue()
	period := "day"
	if opt, k := options[redditTimeOption]; k {
		period = opt.StringValue()
	}

	post, err := d.nix.reddit.RandomTopPost(ctx, subreddit, period)
	switch {
	case err == nil:
		d.respondMessage(
			ctx,
			i,
			truncate(
				fmt.Sprintf("***%s***\n%s", post.Title, post.Link),
				discordMaxMessageLength,
			),
			false,
		)
	case errors.Is(err, ErrSubredditNotFound):
		d.respondMessage(
			ctx,
			i,
			fmt.Sprintf("Subreddit '%s' not found", subreddit),
			false,
		)
	case errors.Is(err, ErrSubredditForbidden):
		d.respondMessage(
			ctx,
			i,
			fmt.Sprintf("Subreddit '%s' private or banned", subreddit),
			false,
		)
	case errors.Is(err, ErrSubredditEmpty):
		d.respondMessage(
			ctx,
			i,
			fmt.Sprintf("No top posts found for '%s'", subreddit),
			false,
		)
	default:
		d.logger.ErrorContext(
			ctx,
			"error fetching reddit post",
			tint.Err(err),
		)
		d.respondMessage(ctx, i, DefaultDiscordErrorMessage, false)
	}
}

func (d *Discord) handleSetFactChannel(
	ctx context.Context,
	i *discordgo.InteractionCreate,
) {
	channelID := i.ChannelID
	if opt, ok := discordInteractionOptions(i)[factChannelOption]; ok {
		channelID = opt.ChannelValue(nil).ID
	}
	if err := d.nix.writeDB.SetFactChannel(
		ctx,
		i.GuildID,
		channelID,
	); err != nil {
		d.logger.ErrorContext(
			ctx,
			"error setting fact channel",
			tint.Err(err),
		)
		d.respondMessage(ctx, i, DefaultDiscordErrorMessage, true)
		return
	}
	d.respondMessage(
		ctx,
		i,
		fmt.Sprintf("Facts channel set to <#%s> %s", channelID, emojiDrinking),
		true,
	)
}

func (d *Discord) handleStopFacts(
	ctx context.Context,
	i *discordgo.InteractionCreate,
) {
	if err := d.nix.writeDB.ClearFactChannel(ctx, i.GuildID); err != nil {
		d.logger.ErrorContext(
			ctx,
			"error clearing fact channel",
			tint.Err(err),
		)
		d.respondMessage(ctx, i, DefaultDiscordErrorMessage, true)
		return
	}
	d.respondMessage(
		ctx,
		i,
		fmt.Sprintf("Stopping daily facts %s", emojiNoEmotion),
		true,
	)
}

func (d *Discord) handleHelp(
	ctx context.Context,
	i *discordgo.InteractionCreate,
) {
	commands := d.appCommands()
	lines := make([]string, 0, len(commands))
	for _, c := range commands {
		lines = append(
			lines,
			fmt.Sprintf("`/%s` : %s", c.Name, c.Description),
		)
	}
	sort.Strings(lines)
	d.respondEmbed(
		ctx,
		i,
		&discordgo.MessageEmbed{
			Title: "Help Page",
			Description: "Note: depending on your server settings and " +
				"role permissions, some of these commands may be " +
				"hidden or disabled\n\n" + strings.Join(lines, "\n"),
			Color: colourPrimary,
		},
	)
}

// handlerMessageCreate routes free-text messages in channels with an
// active trivia session to that session's guess handler. Messages
// elsewhere that mention the bot get a generated conversational reply.
func (d *Discord) handlerMessageCreate(ctx context.Context) func(
	s *discordgo.Session,
	m *discordgo.MessageCreate,
) {
	return func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot {
			return
		}
		session := d.nix.trivia.Get(m.ChannelID)
		if session == nil {
			d.handleMention(ctx, m)
			return
		}
		d.nix.messagesHandled.Add(1)

		outcome, err := session.SubmitGuess(ctx, m.Author.ID, m.Content)
		if err != nil {
			switch {
			case errors.Is(err, ErrSessionEnded):
				// the game ended between lookup and submission
				d.logger.DebugContext(
					ctx,
					"guess arrived after game ended",
					"channel_id", m.ChannelID,
				)
			default:
				d.logger.ErrorContext(
					ctx,
					"error handling guess",
					tint.Err(err),
					"channel_id", m.ChannelID,
				)
			}
			return
		}

		reaction := emojiIncorrect
		if outcome != GuessIncorrect {
			reaction = emojiCorrect
		}
		if err = d.session.MessageReactionAdd(
			m.ChannelID,
			m.ID,
			reaction,
		); err != nil {
			d.logger.WarnContext(
				ctx,
				"error adding reaction",
				tint.Err(err),
			)
		}
	}
}

// handleMention replies to a message that mentions the bot with a
// generated response. Replies to other messages are ignored, like the
// original on_message listener, so the bot doesn't butt into threads
// it was only tangentially mentioned in.
func (d *Discord) handleMention(
	ctx context.Context,
	m *discordgo.MessageCreate,
) {
	if d.nix.chat == nil || m.MessageReference != nil {
		return
	}
	if !mentionsUser(m.Mentions, d.botUserID) {
		return
	}
	prompt := stripMention(m.Content, d.botUserID)
	if prompt == "" {
		return
	}
	d.nix.messagesHandled.Add(1)
	d.logger.InfoContext(
		ctx,
		"generating mention reply",
		"channel_id", m.ChannelID,
		"user_id", m.Author.ID,
	)

	reply, err := d.nix.chat.Reply(ctx, prompt)
	if err != nil {
		d.logger.ErrorContext(
			ctx,
			"error generating mention reply",
			tint.Err(err),
		)
		return
	}
	d.channelMessageSend(
		ctx,
		m.ChannelID,
		truncate(reply, discordMaxMessageLength),
	)
}

// SendQuestion implements TriviaNotifier: posts a new question with a
// skip button attached.
func (d *Discord) SendQuestion(
	ctx context.Context,
	channelID string,
	question Question,
) {
	content := fmt.Sprintf(
		"**New Question** %s\nQuestion: %s\nHint: %s",
		emojiSneaky,
		question.Text,
		question.Category,
	)
	_, err := d.session.ChannelMessageSendComplex(
		channelID,
		&discordgo.MessageSend{
			Content: content,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.Button{
							Label:    "Skip",
							Style:    discordgo.SecondaryButton,
							CustomID: triviaSkipCustomID,
							Emoji: &discordgo.ComponentEmoji{
								Name: "⏩",
							},
						},
					},
				},
			},
		},
	)
	if err != nil {
		d.logger.ErrorContext(
			ctx,
			"error sending question",
			tint.Err(err),
			"channel_id", channelID,
		)
	}
}

// SendCorrect implements TriviaNotifier.
func (d *Discord) SendCorrect(
	ctx context.Context,
	channelID string,
	playerID string,
	answer string,
	score int,
) {
	d.channelMessageSend(
		ctx,
		channelID,
		fmt.Sprintf(
			"You got the answer! (%s) <@%s> is now at %d points %s",
			answer,
			playerID,
			score,
			emojiHappy,
		),
	)
}

// SendAnswer implements TriviaNotifier.
func (d *Discord) SendAnswer(
	ctx context.Context,
	channelID string,
	answer string,
) {
	d.channelMessageSend(
		ctx,
		channelID,
		fmt.Sprintf("The answer was: %s %s", answer, emojiSunglasses),
	)
}

// SendGameOver implements TriviaNotifier.
func (d *Discord) SendGameOver(
	ctx context.Context,
	channelID string,
	result TriviaResult,
) {
	var content string
	switch result.Reason {
	case TriviaEndWon:
		content = fmt.Sprintf(
			"Congratulations! <@%s> has won with %d points! %s",
			result.WinnerID,
			result.WinnerScore,
			emojiTeehee,
		)
	case TriviaEndTimedOut:
		content = fmt.Sprintf(
			"Time's up! %s The trivia game has ended.%s",
			emojiNoEmotion,
			formatScores(result.Scores),
		)
	case TriviaEndStopped:
		content = fmt.Sprintf(
			"The trivia game has been stopped %s%s",
			emojiNoEmotion,
			formatScores(result.Scores),
		)
	case TriviaEndExhausted:
		content = fmt.Sprintf(
			"I'm all out of questions! %s Ending the game.%s",
			emojiNoEmotion,
			formatScores(result.Scores),
		)
	default:
		content = fmt.Sprintf("The trivia game has ended %s", emojiNoEmotion)
	}
	d.channelMessageSend(ctx, channelID, content)
}

// formatScores renders a final score table as message lines, highest
// score first.
func formatScores(scores map[string]int) string {
	if len(scores) == 0 {
		return ""
	}
	players := make([]string, 0, len(scores))
	for id := range scores {
		players = append(players, id)
	}
	sort.Slice(
		players,
		func(a, b int) bool {
			if scores[players[a]] != scores[players[b]] {
				return scores[players[a]] > scores[players[b]]
			}
			return players[a] < players[b]
		},
	)
	var sb strings.Builder
	sb.WriteString("\nFinal scores:")
	for _, id := range players {
		sb.WriteString(fmt.Sprintf("\n<@%s>: %d", id, scores[id]))
	}
	return sb.String()
}

func (d *Discord) channelMessageSend(
	ctx context.Context,
	channelID string,
	content string,
) {
	if _, err := d.session.ChannelMessageSend(channelID, content); err != nil {
		d.logger.ErrorContext(
			ctx,
			"error sending channel message",
			tint.Err(err),
			"channel_id", channelID,
		)
	}
}

func (d *Discord) respondMessage(
	ctx context.Context,
	i *discordgo.InteractionCreate,
	content string,
	ephemeral bool,
) {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := d.session.InteractionRespond(
		i.Interaction,
		&discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: content,
				Flags:   flags,
			},
		},
	)
	if err != nil {
		d.logger.ErrorContext(
			ctx,
			"error responding to interaction",
			tint.Err(err),
		)
	}
}

func (d *Discord) respondEmbed(
	ctx context.Context,
	i *discordgo.InteractionCreate,
	embed *discordgo.MessageEmbed,
) {
	err := d.session.InteractionRespond(
		i.Interaction,
		&discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Embeds: []*discordgo.MessageEmbed{embed},
			},
		},
	)
	if err != nil {
		d.logger.ErrorContext(
			ctx,
			"error responding to interaction",
			tint.Err(err),
		)
	}
}

// ackComponent acknowledges a component interaction without sending a
// visible response.
func (d *Discord) ackComponent(
	ctx context.Context,
	i *discordgo.InteractionCreate,
) {
	err := d.session.InteractionRespond(
		i.Interaction,
		&discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredMessageUpdate,
		},
	)
	if err != nil {
		d.logger.DebugContext(
			ctx,
			"error acknowledging component",
			tint.Err(err),
		)
	}
}
