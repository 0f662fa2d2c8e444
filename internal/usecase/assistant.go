package usecase

import (
	"fmt"
	"strings"

	"github.com/fairyhunter13/ai-interview-coach/internal/config"
	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
	"github.com/fairyhunter13/ai-interview-coach/internal/service/ratelimiter"
)

// AssistantHistoryLimit caps the conversations returned by History.
const AssistantHistoryLimit = 20

// AssistantService answers study questions grounded on a subject textbook.
type AssistantService struct {
	Chats   domain.ChatRepository
	AI      domain.AIClient
	Limiter domain.RateLimiter
	Catalog *config.Catalog
	Policy  HistoryPolicy
}

// NewAssistantService constructs an AssistantService.
func NewAssistantService(repo domain.ChatRepository, ai domain.AIClient, lim domain.RateLimiter, catalog *config.Catalog, history HistoryPolicy) *AssistantService {
	return &AssistantService{Chats: repo, AI: ai, Limiter: lim, Catalog: catalog, Policy: history}
}

// ChatInput is one study question. An empty SessionID opens a new conversation.
type ChatInput struct {
	Query     string
	Subject   string
	SessionID string
}

// ChatResult is the assistant's reply.
type ChatResult struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Subject   string `json:"subject"`
}

// Chat answers the query in the context of the conversation so far.
func (s *AssistantService) Chat(ctx domain.Context, user domain.User, in ChatInput) (ChatResult, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return ChatResult{}, fmt.Errorf("op=assistant.chat: %w: query required", domain.ErrInvalidArgument)
	}

	var sess domain.ChatSession
	if in.SessionID != "" {
		if err := parseSessionID(in.SessionID); err != nil {
			return ChatResult{}, fmt.Errorf("op=assistant.chat: %w", err)
		}
		var err error
		if sess, err = s.owned(ctx, "assistant.chat", user.ID, in.SessionID); err != nil {
			return ChatResult{}, err
		}
	} else {
		sess = domain.ChatSession{UserID: user.ID, Subject: strings.TrimSpace(in.Subject)}
	}
	if sess.Subject == "" {
		return ChatResult{}, fmt.Errorf("op=assistant.chat: %w: subject required", domain.ErrInvalidArgument)
	}
	if err := throttle(ctx, s.Limiter, ratelimiter.FamilyAssistant, user.ID); err != nil {
		return ChatResult{}, fmt.Errorf("op=assistant.chat: %w", err)
	}

	history := s.Policy.render(renderChatHistory(sess.Recent(s.Policy.Turns)))
	msgs := []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: studyPrompt(sess.Subject, s.Catalog.Textbook(sess.Subject), history)},
		{Role: domain.RoleUser, Content: query},
	}
	out, err := s.AI.Chat(ctx, msgs)
	if err != nil {
		return ChatResult{}, fmt.Errorf("op=assistant.chat: %w", err)
	}
	reply, err := completionText("assistant.chat", out)
	if err != nil {
		return ChatResult{}, err
	}

	turn := domain.ChatTurn{UserQuery: query, Reply: reply, CreatedAt: nowUTC()}
	if sess.ID == "" {
		sess.Turns = []domain.ChatTurn{turn}
		id, err := s.Chats.Create(ctx, sess)
		if err != nil {
			return ChatResult{}, fmt.Errorf("op=assistant.chat: %w", err)
		}
		sess.ID = id
	} else {
		_, err := s.Chats.Update(ctx, sess.ID, func(cur *domain.ChatSession) error {
			cur.Turns = append(cur.Turns, turn)
			return nil
		})
		if err != nil {
			return ChatResult{}, fmt.Errorf("op=assistant.chat: %w", err)
		}
	}
	return ChatResult{SessionID: sess.ID, Reply: reply, Subject: sess.Subject}, nil
}

// History lists the caller's conversations, most recently active first.
func (s *AssistantService) History(ctx domain.Context, user domain.User) ([]domain.ChatSession, error) {
	out, err := s.Chats.ListByUser(ctx, user.ID, AssistantHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("op=assistant.history: %w", err)
	}
	return out, nil
}

// Session returns one of the caller's conversations.
func (s *AssistantService) Session(ctx domain.Context, user domain.User, id string) (domain.ChatSession, error) {
	if err := parseSessionID(id); err != nil {
		return domain.ChatSession{}, fmt.Errorf("op=assistant.session: %w", err)
	}
	return s.owned(ctx, "assistant.session", user.ID, id)
}

// Delete removes one of the caller's conversations.
func (s *AssistantService) Delete(ctx domain.Context, user domain.User, id string) error {
	if _, err := s.Session(ctx, user, id); err != nil {
		return err
	}
	if err := s.Chats.Delete(ctx, id); err != nil {
		return fmt.Errorf("op=assistant.delete: %w", err)
	}
	return nil
}

func (s *AssistantService) owned(ctx domain.Context, op, userID, id string) (domain.ChatSession, error) {
	sess, err := s.Chats.Get(ctx, id)
	if err != nil {
		return domain.ChatSession{}, fmt.Errorf("op=%s: %w", op, err)
	}
	if err := notOwned(op, sess.UserID, userID); err != nil {
		return domain.ChatSession{}, err
	}
	return sess, nil
}
