package notify

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Min interval between two Telegram messages to the same chat, to stay
// under the ~30 messages/minute API limit.
const sendInterval = 2 * time.Second

const queueSize = 100

// Pick is one alert-worthy scan result.
type Pick struct {
	Match         string
	League        string
	Kickoff       string
	Rating        int
	Reasons       []string
	FavoritePrice float64
	Over25Price   float64
	Gold          bool
}

// TelegramNotifier pushes picks and batch-level warnings to a chat. All
// sends go through a buffered queue drained by one background worker, so
// a slow Telegram API never stalls a scan. A nil notifier is valid and
// drops everything.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64

	queue chan string
	wg    sync.WaitGroup
	once  sync.Once
	done  chan struct{}
}

// NewTelegramNotifier returns nil (and logs) when the bot cannot be
// reached; callers treat nil as "notifications disabled".
func NewTelegramNotifier(token string, chatID int64) *TelegramNotifier {
	if token == "" || chatID == 0 {
		return nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		slog.Error("Failed to create telegram bot", "error", err)
		return nil
	}
	bot.Debug = false

	if _, err := bot.GetMe(); err != nil {
		slog.Error("Failed to get telegram bot info", "error", err)
		return nil
	}

	n := &TelegramNotifier{
		bot:    bot,
		chatID: chatID,
		queue:  make(chan string, queueSize),
		done:   make(chan struct{}),
	}
	n.wg.Add(1)
	go n.sender()

	slog.Info("Telegram notifier initialized", "chat_id", chatID)
	return n
}

// NotifyPick queues an alert for one high-rating fixture.
func (n *TelegramNotifier) NotifyPick(p Pick) {
	if n == nil {
		return
	}
	marker := "🎯"
	if p.Gold {
		marker = "🥇"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (%s)\n", marker, p.Match, p.League)
	fmt.Fprintf(&b, "⏰ %s | Rating %d/100\n", p.Kickoff, p.Rating)
	if p.FavoritePrice > 0 {
		fmt.Fprintf(&b, "Fav %.2f", p.FavoritePrice)
		if p.Over25Price > 0 {
			fmt.Fprintf(&b, " | O2.5 %.2f", p.Over25Price)
		}
		b.WriteString("\n")
	}
	if len(p.Reasons) > 0 {
		fmt.Fprintf(&b, "Tags: %s", strings.Join(p.Reasons, ", "))
	}
	n.enqueue(b.String())
}

// NotifyWarning queues a batch-level operator warning (provider error,
// snapshot write failure).
func (n *TelegramNotifier) NotifyWarning(text string) {
	if n == nil {
		return
	}
	n.enqueue("⚠️ " + text)
}

func (n *TelegramNotifier) enqueue(text string) {
	select {
	case n.queue <- text:
	default:
		slog.Warn("Telegram queue full, dropping message")
	}
}

func (n *TelegramNotifier) sender() {
	defer n.wg.Done()
	for {
		select {
		case <-n.done:
			// Drain what is already queued, then stop.
			for {
				select {
				case text := <-n.queue:
					n.send(text)
				default:
					return
				}
			}
		case text := <-n.queue:
			n.send(text)
			time.Sleep(sendInterval)
		}
	}
}

func (n *TelegramNotifier) send(text string) {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		slog.Warn("Failed to send telegram message", "error", err)
	}
}

// Close flushes queued messages and stops the sender. Safe on nil.
func (n *TelegramNotifier) Close() {
	if n == nil {
		return
	}
	n.once.Do(func() { close(n.done) })
	n.wg.Wait()
}
