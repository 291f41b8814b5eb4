// Package usecase contains the application services between the chat surface
// and the LLM dispatch core.
package usecase

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/fairyhunter13/discord-ai-bot/internal/domain"
)

const (
	// emptyReplyPlaceholder substitutes a blank model reply.
	emptyReplyPlaceholder = "I could not generate a response, please try again."
	// blankReplyPlaceholder covers the degenerate case where truncation
	// itself produced a blank reply.
	blankReplyPlaceholder = "I'm having trouble responding right now."
)

// ReplyService turns one user message into one chat-surface reply.
type ReplyService struct {
	dispatcher domain.Dispatcher
	botName    string
	maxLength  int
}

// NewReplyService constructs the reply service.
func NewReplyService(d domain.Dispatcher, botName string, maxLength int) *ReplyService {
	return &ReplyService{dispatcher: d, botName: botName, maxLength: maxLength}
}

// ErrorMessage is the single user-visible failure reply. Provider and failure
// details stay in the logs, never in the channel.
func (s *ReplyService) ErrorMessage() string {
	return fmt.Sprintf("⚠️ %s had a hiccup, try again!", s.botName)
}

// HandleUserText runs one dispatch and post-processes the reply for sending.
func (s *ReplyService) HandleUserText(ctx domain.Context, userText string) string {
	text, err := s.dispatcher.Dispatch(ctx, userText)
	if err != nil {
		slog.Error("dispatch failed",
			slog.String("reason", string(domain.ReasonOf(err))),
			slog.Any("error", err))
		return s.ErrorMessage()
	}
	return Postprocess(text, s.maxLength)
}

// Postprocess substitutes a placeholder for blank replies and truncates to
// maxLength runes so multi-byte glyphs are never split. Pure, never fails.
func Postprocess(text string, maxLength int) string {
	if strings.TrimSpace(text) == "" {
		text = emptyReplyPlaceholder
	}
	if r := []rune(text); maxLength >= 0 && len(r) > maxLength {
		text = string(r[:maxLength])
	}
	if strings.TrimSpace(text) == "" {
		return blankReplyPlaceholder
	}
	return text
}
