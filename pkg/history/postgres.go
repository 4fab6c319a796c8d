package history

import (
	"context"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ekaya-inc/ekaya-assist/pkg/models"
)

// PostgresStore keeps threads in the chat_messages table (see migrations/).
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var _ Store = (*PostgresStore)(nil)

func (s *PostgresStore) Append(ctx context.Context, threadID, tenantID string, role models.ChatRole, content string) error {
	if err := validateKey(threadID, tenantID); err != nil {
		return err
	}

	query := `
		INSERT INTO chat_messages (thread_id, tenant_id, role, content)
		VALUES ($1, $2, $3, $4)`
	if _, err := s.pool.Exec(ctx, query, threadID, tenantID, string(role), content); err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

func (s *PostgresStore) Fetch(ctx context.Context, threadID, tenantID string, limit int) ([]models.ChatMessage, error) {
	if err := validateKey(threadID, tenantID); err != nil {
		return nil, err
	}

	query := `
		SELECT role, content, created_at
		FROM chat_messages
		WHERE thread_id = $1 AND tenant_id = $2
		ORDER BY id DESC`
	args := []any{threadID, tenantID}
	if limit > 0 {
		query += " LIMIT $3"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}
	defer rows.Close()

	var msgs []models.ChatMessage
	for rows.Next() {
		var msg models.ChatMessage
		var role string
		if err := rows.Scan(&role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		msg.Role = models.ChatRole(role)
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}

	// newest first from the query; callers want chronological order
	slices.Reverse(msgs)
	return msgs, nil
}
