package api

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/abelzeko/tank-monitor/internal/entities"
	"github.com/abelzeko/tank-monitor/internal/usecases"
)

const (
	defaultHistoryRows = 10
	maxHistoryRows     = 25

	// Telegram rejects messages longer than this many UTF-16 code units
	maxMessageLength = 4096
)

// LiveSource exposes the pipeline's in-memory state
type LiveSource interface {
	Latest() (entities.Reading, bool)
	Window() []entities.WindowedReading
}

// TelegramBot handles interactions with the Telegram API
type TelegramBot struct {
	bot     *tgbotapi.BotAPI
	live    LiveSource
	history *usecases.HistoryUseCase
}

// NewTelegramBot creates a new Telegram bot handler
func NewTelegramBot(botToken string, live LiveSource, history *usecases.HistoryUseCase) (*TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %v", err)
	}

	return &TelegramBot{
		bot:     bot,
		live:    live,
		history: history,
	}, nil
}

// Start begins listening for and handling Telegram messages until ctx is cancelled
func (t *TelegramBot) Start(ctx context.Context) {
	log.Printf("Authorized on Telegram account %s", t.bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.bot.GetUpdatesChan(u)
	log.Println("Bot is now listening for messages...")

	go func() {
		<-ctx.Done()
		t.bot.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message == nil {
			continue
		}

		log.Printf("Received message from %s (ID: %d): %s",
			update.Message.From.UserName,
			update.Message.From.ID,
			update.Message.Text)

		t.handleMessage(ctx, update)
	}
}

// handleMessage processes a Telegram message update
func (t *TelegramBot) handleMessage(ctx context.Context, update tgbotapi.Update) {
	msg := tgbotapi.NewMessage(update.Message.Chat.ID, "")

	if update.Message.IsCommand() {
		t.handleCommand(ctx, update.Message, &msg)
	} else {
		msg.Text = "I don't understand. Use /help to see available commands."
	}

	log.Printf("Sending response to user %s", update.Message.From.UserName)
	if _, err := t.bot.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

// handleCommand processes commands like /start, /help, etc.
func (t *TelegramBot) handleCommand(ctx context.Context, message *tgbotapi.Message, msg *tgbotapi.MessageConfig) {
	switch message.Command() {
	case "start":
		msg.Text = "Welcome to the Tank Monitor! Use /status for the latest reading or /help for more information."

	case "help":
		msg.Text = "Available commands:\n" +
			"/start - Start the bot\n" +
			"/status - Show the latest tank reading\n" +
			"/window - Show the most recent levels\n" +
			"/history [n] - Show the last n saved readings and statistics\n" +
			"/help - Show this help message"

	case "status":
		t.handleStatusCommand(msg)

	case "window":
		t.handleWindowCommand(msg)

	case "history":
		t.handleHistoryCommand(ctx, message.CommandArguments(), msg)

	default:
		log.Printf("Received unknown command /%s", message.Command())
		msg.Text = "Unknown command. Use /help to see available commands."
	}
}

// handleStatusCommand processes the /status command
func (t *TelegramBot) handleStatusCommand(msg *tgbotapi.MessageConfig) {
	reading, ok := t.live.Latest()
	if !ok {
		msg.Text = "No reading has been received from the sensor yet."
		return
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("💧 Tank level: %.1f cm\n", reading.WaterLevelCM))
	result.WriteString(fmt.Sprintf("📊 Fill percentage: %.1f%%\n", reading.TankPercentage))
	result.WriteString(fmt.Sprintf("🚰 Tank status: %s\n", reading.TankStatus))
	result.WriteString(fmt.Sprintf("🌧️ Leak sensor: %s (%s)\n", reading.LeakStatus, reading.RainHumidity))
	if reading.SensorStatus != "" {
		result.WriteString(fmt.Sprintf("📟 Sensor says: %s\n", reading.SensorStatus))
	}
	result.WriteString(fmt.Sprintf("🕒 Last update: %s", reading.Timestamp.Format("2006-01-02 15:04:05")))
	msg.Text = result.String()
}

// handleWindowCommand processes the /window command
func (t *TelegramBot) handleWindowCommand(msg *tgbotapi.MessageConfig) {
	window := t.live.Window()
	if len(window) == 0 {
		msg.Text = "No recent levels yet."
		return
	}

	var result strings.Builder
	result.WriteString("Recent levels:\n\n")
	for _, entry := range window {
		result.WriteString(fmt.Sprintf("• %s  %.1f cm\n", entry.TimeLabel, entry.WaterLevelCM))
	}
	msg.Text = strings.TrimRight(result.String(), "\n")
}

// handleHistoryCommand processes the /history [n] command
func (t *TelegramBot) handleHistoryCommand(ctx context.Context, args string, msg *tgbotapi.MessageConfig) {
	if t.history == nil {
		msg.Text = "History is not available."
		return
	}

	limit := defaultHistoryRows
	if args = strings.TrimSpace(args); args != "" {
		n, err := strconv.Atoi(args)
		if err != nil || n <= 0 {
			msg.Text = "Please specify a positive number of readings. Example: /history 5"
			return
		}
		limit = n
	}

	var note string
	if limit > maxHistoryRows {
		limit = maxHistoryRows
		note = fmt.Sprintf("Showing at most %d readings.\n\n", maxHistoryRows)
	}

	rows, summary, err := t.history.Report(ctx)
	if err != nil {
		msg.Text = "Error fetching saved readings. Please try again later."
		log.Printf("Error fetching history: %v", err)
		return
	}
	text := note + usecases.FormatHistory(rows, summary, limit)
	for limit > 1 && messageLength(text) > maxMessageLength {
		limit--
		text = note + usecases.FormatHistory(rows, summary, limit)
	}
	msg.Text = text
}

func messageLength(text string) int {
	return len(utf16.Encode([]rune(text)))
}
