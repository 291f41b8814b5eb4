// Package discordbot wires Discord gateway events to the reply service.
package discordbot

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	backoff "github.com/cenkalti/backoff/v4"

	"github.com/fairyhunter13/discord-ai-bot/internal/adapter/observability"
)

// GreetingMessage is sent when the bot is mentioned with no question.
const GreetingMessage = "Hey there! 🤖 What can I help you with?"

// connectMaxElapsed bounds the initial gateway connection retries.
const connectMaxElapsed = 2 * time.Minute

// typingInterval refreshes the typing indicator, which Discord expires after
// roughly ten seconds, so it stays visible for the whole dispatch.
const typingInterval = 8 * time.Second

// Responder handles the text of one mention end to end.
type Responder interface {
	HandleUserText(ctx context.Context, userText string) string
}

// Bot owns the Discord session and its event handlers.
type Bot struct {
	session   *discordgo.Session
	responder Responder
	botName   string

	typing    func(channelID string) error
	sendReply func(channelID, content string, ref *discordgo.MessageReference) error
}

// New builds a gateway session with message-content intent and registers the
// ready and message handlers.
func New(token, botName string, responder Responder) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	b := &Bot{session: s, responder: responder, botName: botName}
	b.typing = func(channelID string) error { return s.ChannelTyping(channelID) }
	b.sendReply = func(channelID, content string, ref *discordgo.MessageReference) error {
		_, err := s.ChannelMessageSendReply(channelID, content, ref)
		return err
	}
	s.AddHandler(b.onReady)
	s.AddHandler(b.onMessageCreate)
	return b, nil
}

// Open connects to the gateway, retrying transient failures with exponential
// backoff. Once connected, discordgo manages reconnects itself.
func (b *Bot) Open(ctx context.Context) error {
	expo := backoff.NewExponentialBackOff()
	expo.MaxElapsedTime = connectMaxElapsed
	return backoff.Retry(func() error {
		if err := b.session.Open(); err != nil {
			slog.Warn("discord gateway connect failed, retrying", slog.Any("error", err))
			return err
		}
		return nil
	}, backoff.WithContext(expo, ctx))
}

// Close shuts the gateway session down.
func (b *Bot) Close() error { return b.session.Close() }

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	slog.Info("✅ bot logged in",
		slog.String("bot", b.botName),
		slog.String("user", r.User.Username))
}

// onMessageCreate replies to messages that mention the bot. Each mention is
// handled independently; discordgo invokes handlers on separate goroutines so
// concurrent dispatches share only the immutable configuration.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if s.State.User == nil || m.Author == nil {
		return
	}
	// Ignore own messages to prevent reply loops.
	if m.Author.ID == s.State.User.ID {
		return
	}
	if !mentionsUser(m.Mentions, s.State.User.ID) {
		return
	}

	question := StripMentions(m.Content, s.State.User.ID)
	if question == "" {
		observability.MessagesHandledTotal.WithLabelValues("greeting").Inc()
		b.reply(m, GreetingMessage)
		return
	}

	observability.MessagesHandledTotal.WithLabelValues("question").Inc()
	stopTyping := b.keepTyping(m.ChannelID)
	reply := b.responder.HandleUserText(context.Background(), question)
	stopTyping()
	b.reply(m, reply)
}

// keepTyping fires the typing indicator immediately and keeps refreshing it
// until the returned stop function is called.
func (b *Bot) keepTyping(channelID string) (stop func()) {
	fire := func() {
		if err := b.typing(channelID); err != nil {
			slog.Debug("typing indicator failed", slog.Any("error", err))
		}
	}
	fire()

	done := make(chan struct{})
	go func() {
		t := time.NewTicker(typingInterval)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				fire()
			}
		}
	}()
	return func() { close(done) }
}

func (b *Bot) reply(m *discordgo.MessageCreate, content string) {
	if err := b.sendReply(m.ChannelID, content, m.Reference()); err != nil {
		slog.Error("failed to send reply",
			slog.String("channel_id", m.ChannelID),
			slog.Any("error", err))
	}
}

func mentionsUser(mentions []*discordgo.User, userID string) bool {
	for _, u := range mentions {
		if u != nil && u.ID == userID {
			return true
		}
	}
	return false
}

// StripMentions removes direct and nickname mentions of the bot user and
// trims the remainder.
func StripMentions(content, botID string) string {
	content = strings.ReplaceAll(content, "<@"+botID+">", "")
	content = strings.ReplaceAll(content, "<@!"+botID+">", "")
	return strings.TrimSpace(content)
}
