package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-assist/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-assist/pkg/models"
)

func TestMemoryStore_AppendFetch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	require.NoError(t, s.Append(ctx, "t1", "acme", models.ChatRoleUser, "hola"))
	require.NoError(t, s.Append(ctx, "t1", "acme", models.ChatRoleAssistant, "¿en qué te ayudo?"))
	require.NoError(t, s.Append(ctx, "t1", "acme", models.ChatRoleUser, "proyectos activos"))

	msgs, err := s.Fetch(ctx, "t1", "acme", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "¿en qué te ayudo?", msgs[0].Content)
	assert.Equal(t, models.ChatRoleUser, msgs[1].Role)
	assert.False(t, msgs[1].CreatedAt.IsZero())

	all, err := s.Fetch(ctx, "t1", "acme", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryStore_TenantIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	require.NoError(t, s.Append(ctx, "shared-thread", "acme", models.ChatRoleUser, "secreto"))

	msgs, err := s.Fetch(ctx, "shared-thread", "globex", 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestMemoryStore_MaxPerThread(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(3)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(ctx, "t", "acme", models.ChatRoleUser, fmt.Sprint(i)))
	}
	msgs, err := s.Fetch(ctx, "t", "acme", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "2", msgs[0].Content)
}

func TestMemoryStore_RequiresKeys(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	err := s.Append(ctx, "", "acme", models.ChatRoleUser, "x")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	_, err = s.Fetch(ctx, "t", " ", 1)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestMemoryStore_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Append(ctx, "t", "acme", models.ChatRoleUser, "m")
		}()
	}
	wg.Wait()

	msgs, err := s.Fetch(ctx, "t", "acme", 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 20)
}
