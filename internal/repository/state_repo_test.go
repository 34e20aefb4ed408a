package repository_test

import (
	"context"
	"testing"

	"github.com/ebisa/bunamatch/internal/db"
	"github.com/ebisa/bunamatch/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateLifecycle(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewStateRepository(gdb)

	state, data, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, state)
	assert.Nil(t, data)

	require.NoError(t, repo.Set(ctx, 1, "reg_age", map[string]string{"first_name": "Abel"}))

	state, data, err = repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "reg_age", state)
	assert.Equal(t, "Abel", data["first_name"])

	// setting again replaces state and data
	require.NoError(t, repo.Set(ctx, 1, "reg_gender", map[string]string{"first_name": "Abel", "age": "30"}))
	state, data, err = repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "reg_gender", state)
	assert.Equal(t, "30", data["age"])

	require.NoError(t, repo.Clear(ctx, 1))
	state, _, err = repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, state)
}

func TestStateCorruptDataIgnored(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewStateRepository(gdb)

	require.NoError(t, gdb.Create(&db.UserState{UserID: 1, State: "reg_age", Data: "{not json"}).Error)

	state, data, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, state)
	assert.Nil(t, data)
}
