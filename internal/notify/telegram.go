// Package notify sends admin Telegram notifications for booking lifecycle
// events.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bungalow/internal/events"
	"bungalow/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Telegram caps bots around 30 messages/second; stay well under it.
const (
	messagesPerSecond = 20
	burst             = 30
)

var retryDelays = []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}

// GroupLookup loads a booking group for message formatting.
type GroupLookup interface {
	GetGroup(ctx context.Context, groupID string) (*models.BookingGroup, error)
}

// Notifier pushes booking events to the configured admin chats.
type Notifier struct {
	bot     *tgbotapi.BotAPI
	chatIDs []int64
	groups  GroupLookup
	limiter *rate.Limiter
	logger  zerolog.Logger
}

func New(token string, chatIDs []int64, debug bool, groups GroupLookup, logger zerolog.Logger) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	bot.Debug = debug

	return &Notifier{
		bot:     bot,
		chatIDs: chatIDs,
		groups:  groups,
		limiter: rate.NewLimiter(rate.Limit(messagesPerSecond), burst),
		logger:  logger.With().Str("component", "notify").Logger(),
	}, nil
}

// Register subscribes the notifier to booking events. Sending happens in a
// goroutine so slow Telegram calls never block the lifecycle.
func (n *Notifier) Register(bus *events.Bus) {
	handler := func(event events.Event) {
		go n.handle(event)
	}
	bus.Subscribe(events.TypeBookingCreated, handler)
	bus.Subscribe(events.TypeBookingApproved, handler)
	bus.Subscribe(events.TypeBookingRejected, handler)
	bus.Subscribe(events.TypePaymentAttached, handler)
}

func (n *Notifier) handle(event events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	group, err := n.groups.GetGroup(ctx, event.GroupID)
	if err != nil {
		n.logger.Error().Err(err).Str("group_id", event.GroupID).Msg("load group for notification failed")
		return
	}

	var text string
	switch event.Type {
	case events.TypeBookingCreated:
		text = FormatCreated(group)
	case events.TypeBookingApproved:
		text = FormatDecided(group, "approved", "")
	case events.TypeBookingRejected:
		text = FormatDecided(group, "rejected", event.Detail)
	case events.TypePaymentAttached:
		text = FormatPaymentAttached(group)
	default:
		return
	}

	n.Broadcast(ctx, text)
}

// Broadcast sends a message to every admin chat, rate limited with retries.
func (n *Notifier) Broadcast(ctx context.Context, text string) {
	for _, chatID := range n.chatIDs {
		if err := n.send(ctx, chatID, text); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Msg("telegram send failed")
		}
	}
}

func (n *Notifier) send(ctx context.Context, chatID int64, text string) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	var lastErr error
	for attempt := 0; attempt <= len(retryDelays); attempt++ {
		if _, err := n.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		if attempt < len(retryDelays) {
			select {
			case <-time.After(retryDelays[attempt]):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}

// FormatCreated renders the admin notification for a new pending group.
func FormatCreated(group *models.BookingGroup) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🆕 *New booking request*\n\n")
	fmt.Fprintf(&b, "Group: `%s`\n", group.GroupID)
	fmt.Fprintf(&b, "Stay: %s → %s, check-in %s\n", group.CheckInDate, group.CheckOutDate, group.CheckInTime)
	for _, row := range group.Rows {
		fmt.Fprintf(&b, "• room type %d: %d unit(s), %d guest(s)\n", row.RoomTypeID, row.Units, row.Guests)
	}
	if group.Purpose != "" {
		fmt.Fprintf(&b, "Purpose: %s\n", group.Purpose)
	}
	b.WriteString("\nAwaiting decision.")
	return b.String()
}

// FormatDecided renders the notification for an approve/reject decision.
func FormatDecided(group *models.BookingGroup, decision, reason string) string {
	icon := "✅"
	if decision == "rejected" {
		icon = "❌"
	}
	text := fmt.Sprintf("%s *Booking %s*\n\nGroup: `%s`\nStay: %s → %s",
		icon, decision, group.GroupID, group.CheckInDate, group.CheckOutDate)
	if reason != "" {
		text += fmt.Sprintf("\nReason: %s", reason)
	}
	return text
}

// FormatPaymentAttached renders the notification for an uploaded slip.
func FormatPaymentAttached(group *models.BookingGroup) string {
	return fmt.Sprintf("💳 *Payment proof uploaded*\n\nGroup: `%s`\nStatus: %s",
		group.GroupID, group.Status)
}
