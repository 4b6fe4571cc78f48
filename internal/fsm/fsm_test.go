// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package fsm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type state string
type event string

func TestFireFollowsTable(t *testing.T) {
	m, err := New[state, event]("idle", []Transition[state, event]{
		{From: "idle", Event: "play", To: "playing"},
		{From: "playing", Event: "pause", To: "paused"},
	})
	require.NoError(t, err)

	assert.True(t, m.Can("play"))
	to, err := m.Fire(context.Background(), "play")
	require.NoError(t, err)
	assert.Equal(t, state("playing"), to)

	_, err = m.Fire(context.Background(), "play")
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, state("playing"), m.State())
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New[state, event]("idle", []Transition[state, event]{
		{From: "idle", Event: "play", To: "playing"},
		{From: "idle", Event: "play", To: "paused"},
	})
	require.Error(t, err)
	assert.Panics(t, func() {
		MustNew[state, event]("idle", []Transition[state, event]{
			{From: "idle", Event: "play", To: "playing"},
			{From: "idle", Event: "play", To: "paused"},
		})
	})
}

func TestGuardRejects(t *testing.T) {
	denied := errors.New("denied")
	actions := 0
	m := MustNew[state, event]("idle", []Transition[state, event]{
		{
			From: "idle", Event: "play", To: "playing",
			Guard:  func(context.Context, state, event) error { return denied },
			Action: func(context.Context, state, state, event) error { actions++; return nil },
		},
	})

	_, err := m.Fire(context.Background(), "play")
	require.ErrorIs(t, err, denied)
	assert.Zero(t, actions)
	assert.Equal(t, state("idle"), m.State())
}
