package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/pkg/cache"
)

func TestProfileService_InitialProfile(t *testing.T) {
	e := newEnv(t)
	c := cache.New[string, *models.Profile](time.Minute, time.Minute)
	t.Cleanup(c.Close)
	profiles := NewProfileService(e.profileRepo, c)

	identity := models.Identity{UserID: "user_1", Name: "alice", Email: "alice@example.com"}
	first, err := profiles.InitialProfile(e.ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	cached, err := profiles.InitialProfile(e.ctx, identity)
	require.NoError(t, err)
	assert.Same(t, first, cached, "unchanged claims are served from the cache")

	identity.Name = "Alice Liddell"
	renamed, err := profiles.InitialProfile(e.ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, first.ID, renamed.ID)
	assert.Equal(t, "Alice Liddell", renamed.Name)

	stored, err := profiles.GetByID(e.ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", stored.Name)
}

func TestProfileService_WithoutCache(t *testing.T) {
	e := newEnv(t)
	profiles := NewProfileService(e.profileRepo, nil)

	identity := models.Identity{UserID: "user_1", Name: "alice"}
	a, err := profiles.InitialProfile(e.ctx, identity)
	require.NoError(t, err)
	b, err := profiles.InitialProfile(e.ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
}
