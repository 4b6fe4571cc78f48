// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package journal

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/smartplayer/internal/persistence/sqlite"
	"github.com/ManuGH/smartplayer/internal/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*Journal, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.sqlite")
	j, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j, path
}

func TestDeliverAndRecent(t *testing.T) {
	j, _ := openTemp(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	events := []string{"VideoStart", "firstQuartile", "midpoint", "pause"}
	for i, ev := range events {
		require.NoError(t, j.Deliver(ctx, tracking.Record{
			PlayerID: "p1",
			Event:    ev,
			Payload:  map[string]any{"currentTime": float64(i * 10), "duration": 40.0},
			At:       base.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, j.Deliver(ctx, tracking.Record{PlayerID: "p2", Event: "mute", At: base}))

	recs, err := j.Recent(ctx, "p1", 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "midpoint", recs[0].Event)
	assert.Equal(t, "pause", recs[1].Event)
	assert.Equal(t, 30.0, recs[1].Payload["currentTime"])
	assert.Equal(t, base.Add(3*time.Second), recs[1].At)

	n, err := j.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	recs, err = j.Recent(ctx, "missing", 10)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestDeliverSanitizesUnknownDuration(t *testing.T) {
	j, _ := openTemp(t)
	ctx := context.Background()
	require.NoError(t, j.Deliver(ctx, tracking.Record{
		PlayerID: "p",
		Event:    "VideoStart",
		Payload:  map[string]any{"value": 0, "currentTime": 0.0, "duration": math.NaN()},
		At:       time.Now(),
	}))

	recs, err := j.Recent(ctx, "p", 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Nil(t, recs[0].Payload["duration"])
	assert.Equal(t, 0.0, recs[0].Payload["value"])
}

func TestReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.sqlite")
	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Deliver(context.Background(), tracking.Record{PlayerID: "p", Event: "replay", At: time.Now()}))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()
	n, err := j.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	issues, err := j.Verify(context.Background(), sqlite.VerifyQuick)
	require.NoError(t, err)
	assert.Nil(t, issues)

	rep, err := Inspect(context.Background(), path, sqlite.VerifyFull)
	require.NoError(t, err)
	assert.Empty(t, rep.Problems)
	assert.Equal(t, 1, rep.Events)
}

func TestInspectMissingFile(t *testing.T) {
	_, err := Inspect(context.Background(), filepath.Join(t.TempDir(), "none.db"), sqlite.VerifyQuick)
	require.Error(t, err)
}
