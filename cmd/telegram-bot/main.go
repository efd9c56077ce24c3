package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/sbc2026/companion/internal/assistant"
	"github.com/sbc2026/companion/internal/pkg/config"
	"github.com/sbc2026/companion/internal/pkg/logging"
)

const defaultConfigPath = "configs/config.yaml"

type botFlags struct {
	configPath   string
	token        string
	allowedUsers string
}

func main() {
	if err := run(); err != nil {
		slog.Error("Telegram bot failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	flags := parseFlags()

	slog.Info("Loading config", "path", flags.configPath)
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if _, err := logging.SetupLogger(&cfg.Logging, "telegram-bot"); err != nil {
		slog.Warn("Failed to setup logging, continuing with default logger", "error", err)
	}

	token := flags.token
	if token == "" {
		token = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
	if token == "" {
		token = cfg.Telegram.Token
	}
	if token == "" {
		return fmt.Errorf("telegram bot token is required: use -token, TELEGRAM_BOT_TOKEN env or telegram.token in config")
	}

	allowed := cfg.Telegram.AllowedUserIDs
	if flags.allowedUsers != "" {
		allowed = parseUserIDs(flags.allowedUsers)
	}

	if baseURL := os.Getenv("BACKEND_BASE_URL"); baseURL != "" {
		cfg.Backend.BaseURL = baseURL
	}
	if cfg.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url must be specified in config or BACKEND_BASE_URL env")
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}
	bot.Debug = false
	slog.Info("Authorized on Telegram", "account", bot.Self.UserName)

	src := assistant.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)
	dispatcher := assistant.NewDispatcher(src, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(ctx, cancel)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = cfg.Telegram.UpdateTimeout
	updates := bot.GetUpdatesChan(u)

	h := &botHandler{
		bot:        bot,
		dispatcher: dispatcher,
		allowed:    allowed,
		sessions:   make(map[int64]*assistant.Session),
	}

	slog.Info("Telegram bot started")
	for {
		select {
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			slog.Info("Telegram bot stopped")
			return nil
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			h.handle(ctx, update.Message)
		}
	}
}

// botHandler routes Telegram messages through per-chat assistant sessions.
type botHandler struct {
	bot        *tgbotapi.BotAPI
	dispatcher *assistant.Dispatcher
	allowed    []int64

	mu       sync.Mutex
	sessions map[int64]*assistant.Session
}

func (h *botHandler) handle(ctx context.Context, message *tgbotapi.Message) {
	if !h.userAllowed(message.From) {
		h.send(message.Chat.ID, "Access denied. You are not authorized to use this bot.")
		return
	}

	text := strings.TrimSpace(message.Text)
	if text == "" {
		return
	}

	if strings.HasPrefix(text, "/") {
		h.handleCommand(ctx, message.Chat.ID, text)
		return
	}

	h.query(ctx, message.Chat.ID, text)
}

func (h *botHandler) handleCommand(ctx context.Context, chatID int64, text string) {
	command := strings.ToLower(strings.Fields(text)[0])
	switch command {
	case "/start":
		h.mu.Lock()
		h.sessions[chatID] = assistant.NewSession(h.dispatcher)
		h.mu.Unlock()
		h.send(chatID, assistant.GreetingText)
	case "/help":
		h.query(ctx, chatID, "help")
	default:
		h.send(chatID, "Unknown command. Use /help to see what I can do.")
	}
}

// query runs one assistant query for the chat. The session swallows queries
// while a previous one is still dispatching, so concurrent messages from the
// same chat cannot interleave replies.
func (h *botHandler) query(ctx context.Context, chatID int64, text string) {
	session := h.session(chatID)
	if session.Busy() {
		return
	}

	typing := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	if _, err := h.bot.Request(typing); err != nil {
		slog.Warn("Failed to send typing action", "chat_id", chatID, "error", err)
	}

	session.Submit(ctx, text)
	if reply := session.LastReply(); reply != "" {
		h.send(chatID, reply)
	}
}

func (h *botHandler) session(chatID int64) *assistant.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[chatID]
	if !ok {
		s = assistant.NewSession(h.dispatcher)
		h.sessions[chatID] = s
	}
	return s
}

func (h *botHandler) userAllowed(from *tgbotapi.User) bool {
	if len(h.allowed) == 0 {
		return true
	}
	if from == nil {
		return false
	}
	for _, id := range h.allowed {
		if from.ID == id {
			return true
		}
	}
	return false
}

func (h *botHandler) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		slog.Error("Failed to send message", "chat_id", chatID, "error", err)
	}
}

func parseFlags() botFlags {
	var flags botFlags
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}
	flag.StringVar(&flags.configPath, "config", defaultConfig, "Path to config file")
	flag.StringVar(&flags.token, "token", "", "Telegram bot token (or set TELEGRAM_BOT_TOKEN env var)")
	flag.StringVar(&flags.allowedUsers, "allowed-users", "", "Comma-separated list of allowed user IDs (optional)")
	flag.Parse()
	return flags
}

func parseUserIDs(s string) []int64 {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func setupSignalHandler(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("Received shutdown signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
			signal.Stop(sigChan)
		}
	}()
}
