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
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/conditional/internal/commands/shared"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	cmd := NewCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestStats_RecordShowDelete(t *testing.T) {
	db := filepath.Join(t.TempDir(), "stats.db")

	_, err := execute(t, "record", "run-1", "DQ1", "--input", "100", "--output", "95", "--error", "5", "--stats-db", db)
	require.NoError(t, err)
	_, err = execute(t, "record", "run-1", "DQ2", "--input", "10", "--stats-db", db)
	require.NoError(t, err)
	_, err = execute(t, "record", "run-1", "DQ2", "--input", "5", "--error", "1", "--add", "--stats-db", db)
	require.NoError(t, err)

	out, err := execute(t, "show", "run-1", "--stats-db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "STAGE")
	assert.Contains(t, out, "DQ1")

	shared.SetJSONForTest(true)
	t.Cleanup(func() { shared.SetJSONForTest(false) })

	out, err = execute(t, "show", "run-1", "--stats-db", db)
	require.NoError(t, err)
	var resp showResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Stages, 2)
	assert.Equal(t, "DQ2", resp.Stages[1].Stage)
	assert.Equal(t, int64(15), resp.Stages[1].Input)
	assert.Equal(t, int64(1), resp.Stages[1].Error)

	out, err = execute(t, "list", "--stats-db", db)
	require.NoError(t, err)
	var list listResponse
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list.Runs, 1)
	assert.Equal(t, "run-1", list.Runs[0].RunID)
	assert.Equal(t, 2, list.Runs[0].Stages)

	_, err = execute(t, "delete", "run-1", "--stats-db", db)
	require.NoError(t, err)

	_, err = execute(t, "show", "run-1", "--stats-db", db)
	assert.Equal(t, shared.ExitInvalidInput, shared.ExitCodeFor(err))
	_, err = execute(t, "delete", "run-1", "--stats-db", db)
	assert.Equal(t, shared.ExitInvalidInput, shared.ExitCodeFor(err))
}

func TestStats_RecordRejectsNegativeCounts(t *testing.T) {
	db := filepath.Join(t.TempDir(), "stats.db")

	_, err := execute(t, "record", "run-1", "DQ1", "--error=-1", "--stats-db", db)
	assert.Equal(t, shared.ExitInvalidInput, shared.ExitCodeFor(err))
}

func TestStats_ListEmpty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "stats.db")

	out, err := execute(t, "list", "--stats-db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "no runs recorded")
}
