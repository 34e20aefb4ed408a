package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/ebisa/bunamatch/internal/db"
	"github.com/ebisa/bunamatch/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueDequeue(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewQueueRepository(gdb)

	entry := queued(1, db.GenderMale, 30, 9.03, 38.74, time.Now())
	require.NoError(t, repo.Enqueue(ctx, entry))

	in, err := repo.InQueue(ctx, 1)
	require.NoError(t, err)
	assert.True(t, in)

	// one entry per user
	assert.Error(t, repo.Enqueue(ctx, queued(1, db.GenderMale, 30, 9.03, 38.74, time.Now())))

	removed, err := repo.Dequeue(ctx, 1)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Dequeue(ctx, 1)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestCandidatesFilters(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewQueueRepository(gdb)
	now := time.Now()

	// searcher: male, 30, wants females aged 22..46
	require.NoError(t, repo.Enqueue(ctx, queued(1, db.GenderMale, 30, 9.03, 38.74, now)))

	// eligible
	require.NoError(t, repo.Enqueue(ctx, queued(2, db.GenderFemale, 26, 9.04, 38.75, now.Add(-2*time.Minute))))
	// wrong gender
	require.NoError(t, repo.Enqueue(ctx, queued(3, db.GenderMale, 26, 9.04, 38.75, now)))
	// outside age window
	require.NoError(t, repo.Enqueue(ctx, queued(4, db.GenderFemale, 19, 9.04, 38.75, now)))
	// no coordinates
	noCoords := &db.QueueEntry{UserID: 5, Gender: db.GenderFemale, Age: 26}
	require.NoError(t, repo.Enqueue(ctx, noCoords))
	// banned
	require.NoError(t, repo.Enqueue(ctx, queued(6, db.GenderFemale, 27, 9.04, 38.75, now)))
	require.NoError(t, gdb.Create(&db.BannedUser{UserID: 6, BannedBy: db.SystemActorID}).Error)
	// previously matched, stored in reverse pair order
	require.NoError(t, repo.Enqueue(ctx, queued(7, db.GenderFemale, 28, 9.04, 38.75, now)))
	require.NoError(t, gdb.Create(&db.MatchHistory{User1ID: 1, User2ID: 7}).Error)

	candidates, err := repo.Candidates(ctx, 1, db.GenderFemale, 22, 46)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.EqualValues(t, 2, candidates[0].UserID)
}

func TestCandidatesOrdering(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewQueueRepository(gdb)
	now := time.Now()

	require.NoError(t, repo.Enqueue(ctx, queued(2, db.GenderFemale, 26, 9.04, 38.75, now.Add(-1*time.Minute))))
	require.NoError(t, repo.Enqueue(ctx, queued(3, db.GenderFemale, 27, 9.04, 38.75, now.Add(-10*time.Minute))))
	prio := queued(4, db.GenderFemale, 28, 9.04, 38.75, now)
	prio.HasPriority = true
	require.NoError(t, repo.Enqueue(ctx, prio))

	candidates, err := repo.Candidates(ctx, 1, db.GenderFemale, 22, 46)
	require.NoError(t, err)
	require.Len(t, candidates, 3)
	// priority first, then longest waiting
	assert.EqualValues(t, 4, candidates[0].UserID)
	assert.EqualValues(t, 3, candidates[1].UserID)
	assert.EqualValues(t, 2, candidates[2].UserID)
}
