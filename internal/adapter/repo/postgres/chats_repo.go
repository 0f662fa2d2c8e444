package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

// ChatRepo persists study-assistant conversations.
type ChatRepo struct{ Pool PgxPool }

var _ domain.ChatRepository = (*ChatRepo)(nil)

// NewChatRepo constructs a ChatRepo with the given pool.
func NewChatRepo(p PgxPool) *ChatRepo { return &ChatRepo{Pool: p} }

const chatColumns = `id, user_id, subject, turns, created_at, updated_at`

// Create inserts a conversation and returns its id.
func (r *ChatRepo) Create(ctx domain.Context, s domain.ChatSession) (string, error) {
	ctx, span := startSpan(ctx, "chat_sessions", "Create", "INSERT")
	defer span.End()
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	turns, err := encodeChatTurns(s.Turns)
	if err != nil {
		return "", fmt.Errorf("op=chat.create: %w", err)
	}
	q := `INSERT INTO chat_sessions (id, user_id, subject, schema_version, turns, created_at, updated_at) VALUES ($1,$2,$3,$4,$5,$6,$6)`
	if _, err := r.Pool.Exec(ctx, q, s.ID, s.UserID, s.Subject, domain.SchemaVersion, turns, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("op=chat.create: %w", err)
	}
	return s.ID, nil
}

// Get loads a conversation by id.
func (r *ChatRepo) Get(ctx domain.Context, id string) (domain.ChatSession, error) {
	ctx, span := startSpan(ctx, "chat_sessions", "Get", "SELECT")
	defer span.End()
	s, err := scanChat(r.Pool.QueryRow(ctx, `SELECT `+chatColumns+` FROM chat_sessions WHERE id=$1`, id))
	if err != nil {
		return domain.ChatSession{}, fmt.Errorf("op=chat.get: %w", err)
	}
	return s, nil
}

// Update applies fn to the row-locked conversation and persists the turns.
func (r *ChatRepo) Update(ctx domain.Context, id string, fn func(*domain.ChatSession) error) (domain.ChatSession, error) {
	ctx, span := startSpan(ctx, "chat_sessions", "Update", "UPDATE")
	defer span.End()

	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.ChatSession{}, fmt.Errorf("op=chat.update: begin: %w", err)
	}
	defer rollback(ctx, tx)

	s, err := scanChat(tx.QueryRow(ctx, `SELECT `+chatColumns+` FROM chat_sessions WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return domain.ChatSession{}, fmt.Errorf("op=chat.update: %w", err)
	}
	if err := fn(&s); err != nil {
		return domain.ChatSession{}, err
	}
	s.UpdatedAt = time.Now().UTC()
	turns, err := encodeChatTurns(s.Turns)
	if err != nil {
		return domain.ChatSession{}, fmt.Errorf("op=chat.update: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE chat_sessions SET turns=$2, updated_at=$3, schema_version=$4 WHERE id=$1`, s.ID, turns, s.UpdatedAt, domain.SchemaVersion); err != nil {
		return domain.ChatSession{}, fmt.Errorf("op=chat.update: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.ChatSession{}, fmt.Errorf("op=chat.update: commit: %w", err)
	}
	return s, nil
}

// ListByUser returns a user's conversations, most recently active first.
func (r *ChatRepo) ListByUser(ctx domain.Context, userID string, limit int) ([]domain.ChatSession, error) {
	ctx, span := startSpan(ctx, "chat_sessions", "ListByUser", "SELECT")
	defer span.End()
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.Pool.Query(ctx, `SELECT `+chatColumns+` FROM chat_sessions WHERE user_id=$1 ORDER BY updated_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("op=chat.list: %w", err)
	}
	defer rows.Close()
	var out []domain.ChatSession
	for rows.Next() {
		s, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("op=chat.list: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=chat.list: %w", err)
	}
	return out, nil
}

// Delete removes a conversation.
func (r *ChatRepo) Delete(ctx domain.Context, id string) error {
	ctx, span := startSpan(ctx, "chat_sessions", "Delete", "DELETE")
	defer span.End()
	tag, err := r.Pool.Exec(ctx, `DELETE FROM chat_sessions WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("op=chat.delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=chat.delete: %w", domain.ErrNotFound)
	}
	return nil
}

func encodeChatTurns(turns []domain.ChatTurn) ([]byte, error) {
	if turns == nil {
		turns = []domain.ChatTurn{}
	}
	return json.Marshal(turns)
}

func scanChat(row pgx.Row) (domain.ChatSession, error) {
	var s domain.ChatSession
	var turns []byte
	if err := row.Scan(&s.ID, &s.UserID, &s.Subject, &turns, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if isNoRows(err) {
			return domain.ChatSession{}, domain.ErrNotFound
		}
		return domain.ChatSession{}, err
	}
	if len(turns) > 0 {
		if err := json.Unmarshal(turns, &s.Turns); err != nil {
			return domain.ChatSession{}, fmt.Errorf("decode turns: %w", err)
		}
	}
	return s, nil
}
