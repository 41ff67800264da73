// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package stats

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/conditional/pkg/condition"
	"github.com/tombee/conditional/pkg/errors"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(Config{
		Path: filepath.Join(t.TempDir(), "nested", "stats.db"),
		WAL:  true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_RecordAndSnapshot(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, "run-1", "DQ1", condition.StageStatistics{Input: 100, Output: 95, Error: 5}))
	require.NoError(t, store.Record(ctx, "run-1", "DQ2", condition.StageStatistics{Input: 50, Output: 41, Error: 9}))
	require.NoError(t, store.Record(ctx, "run-2", "DQ1", condition.StageStatistics{Input: 1}))

	snap, err := store.Snapshot(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]condition.StageStatistics{
		"DQ1": {Input: 100, Output: 95, Error: 5},
		"DQ2": {Input: 50, Output: 41, Error: 9},
	}, snap)
}

func TestStore_RecordReplaces(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, "run-1", "DQ1", condition.StageStatistics{Input: 10, Error: 1}))
	require.NoError(t, store.Record(ctx, "run-1", "DQ1", condition.StageStatistics{Input: 20, Error: 2}))

	snap, err := store.Snapshot(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, condition.StageStatistics{Input: 20, Error: 2}, snap["DQ1"])
}

func TestStore_Add(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "run-1", "DQ1", condition.StageStatistics{Input: 10, Output: 9, Error: 1}))
	require.NoError(t, store.Add(ctx, "run-1", "DQ1", condition.StageStatistics{Input: 5, Output: 3, Error: 2}))

	snap, err := store.Snapshot(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, condition.StageStatistics{Input: 15, Output: 12, Error: 3}, snap["DQ1"])
}

func TestStore_RecordValidation(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	assert.Error(t, store.Record(ctx, "", "DQ1", condition.StageStatistics{}))
	assert.Error(t, store.Record(ctx, "run-1", "", condition.StageStatistics{}))
	assert.Error(t, store.Record(ctx, "run-1", "DQ1", condition.StageStatistics{Error: -1}))
	assert.Error(t, store.Add(ctx, "", "DQ1", condition.StageStatistics{}))
}

func TestStore_SnapshotUnknownRun(t *testing.T) {
	store := createTestStore(t)

	_, err := store.Snapshot(context.Background(), "missing")
	var notFound *errors.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "run", notFound.Resource)
	assert.Equal(t, "missing", notFound.ID)
}

func TestStore_RunsAndStages(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	runs, err := store.Runs(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)

	require.NoError(t, store.Record(ctx, "run-1", "B", condition.StageStatistics{Input: 2}))
	require.NoError(t, store.Record(ctx, "run-1", "A", condition.StageStatistics{Input: 1}))
	require.NoError(t, store.Record(ctx, "run-2", "A", condition.StageStatistics{Input: 3}))

	runs, err = store.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	byID := map[string]int{}
	for _, r := range runs {
		byID[r.RunID] = r.Stages
		assert.False(t, r.UpdatedAt.IsZero())
	}
	assert.Equal(t, map[string]int{"run-1": 2, "run-2": 1}, byID)

	stages, err := store.Stages(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, stages, 2)
	assert.Equal(t, "A", stages[0].Stage)
	assert.Equal(t, "B", stages[1].Stage)
}

func TestStore_Delete(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, "run-1", "A", condition.StageStatistics{Input: 1}))
	require.NoError(t, store.Delete(ctx, "run-1"))

	var notFound *errors.NotFoundError
	_, err := store.Snapshot(ctx, "run-1")
	assert.ErrorAs(t, err, &notFound)
	assert.ErrorAs(t, store.Delete(ctx, "run-1"), &notFound)
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.db")
	ctx := context.Background()

	store, err := Open(Config{Path: path})
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, "run-1", "A", condition.StageStatistics{Output: 7}))
	require.NoError(t, store.Close())

	store, err = Open(Config{Path: path})
	require.NoError(t, err)
	defer store.Close()

	snap, err := store.Snapshot(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), snap["A"].Output)
}
