//go:build integration

package history

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-assist/pkg/models"
	"github.com/ekaya-inc/ekaya-assist/pkg/testhelpers"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	thread := uuid.NewString()

	require.NoError(t, s.Append(ctx, thread, "acme", models.ChatRoleUser, "¿proyectos activos?"))
	require.NoError(t, s.Append(ctx, thread, "acme", models.ChatRoleAssistant, "Torre A"))
	require.NoError(t, s.Append(ctx, thread, "acme", models.ChatRoleUser, "¿y la asistencia?"))

	msgs, err := s.Fetch(ctx, thread, "acme", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Torre A", msgs[0].Content)
	assert.Equal(t, models.ChatRoleUser, msgs[1].Role)

	other, err := s.Fetch(ctx, thread, "globex", 10)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestPostgresStore(t *testing.T) {
	db := testhelpers.GetAssistDB(t)
	exerciseStore(t, NewPostgresStore(db.Pool))
}

func TestRedisStore(t *testing.T) {
	srv := testhelpers.GetRedis(t)
	s := NewRedisStore(srv.Client, time.Minute, 50)
	exerciseStore(t, s)

	ttl, err := srv.Client.TTL(context.Background(), redisKey("acme", "missing")).Result()
	require.NoError(t, err)
	assert.Less(t, ttl, time.Duration(0), "no key, no ttl")
}
