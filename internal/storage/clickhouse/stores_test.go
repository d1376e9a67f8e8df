package clickhouse_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rugs-bot/internal/domain"
	"rugs-bot/internal/storage"
	"rugs-bot/internal/storage/clickhouse"
)

func TestTickStore(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := clickhouse.NewTickStore(conn)

	batch := []*domain.Tick{
		{RoundID: "round-1", Tick: 0, Price: 1.0, TimestampMs: 1000, Phase: "active"},
		{RoundID: "round-1", Tick: 1, Price: 1.1, TimestampMs: 1250, Phase: "active"},
		{RoundID: "round-1", Tick: 2, Price: 0.00005, TimestampMs: 1500, Phase: "ended"},
		{RoundID: "round-2", Tick: 0, Price: 1.0, TimestampMs: 2000, Phase: "presale"},
	}
	require.NoError(t, store.InsertBulk(ctx, batch))

	t.Run("get by round ordered by tick", func(t *testing.T) {
		ticks, err := store.GetByRound(ctx, "round-1")
		require.NoError(t, err)
		require.Len(t, ticks, 3)
		assert.Equal(t, int64(0), ticks[0].Tick)
		assert.Equal(t, int64(2), ticks[2].Tick)
		assert.Equal(t, 0.00005, ticks[2].Price)
		assert.Equal(t, "ended", ticks[2].Phase)
	})

	t.Run("other round isolated", func(t *testing.T) {
		ticks, err := store.GetByRound(ctx, "round-2")
		require.NoError(t, err)
		require.Len(t, ticks, 1)
		assert.Equal(t, "presale", ticks[0].Phase)
	})

	t.Run("duplicate against existing rows rejected", func(t *testing.T) {
		dup := []*domain.Tick{{RoundID: "round-1", Tick: 1, Price: 9.9, TimestampMs: 9000}}
		err := store.InsertBulk(ctx, dup)
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	})

	t.Run("intra-batch duplicate rejected", func(t *testing.T) {
		dup := []*domain.Tick{
			{RoundID: "round-3", Tick: 0, Price: 1.0},
			{RoundID: "round-3", Tick: 0, Price: 1.1},
		}
		err := store.InsertBulk(ctx, dup)
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		assert.NoError(t, store.InsertBulk(ctx, nil))
	})
}

func TestCandleStore(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := clickhouse.NewCandleStore(conn)

	batch := []*domain.Candle{
		{RoundID: "round-1", Index: 1, Open: 1.08, High: 1.30, Low: 1.05, Close: 1.30, FirstTick: 5, LastTick: 9},
		{RoundID: "round-1", Index: 0, Open: 1.00, High: 1.10, Low: 1.00, Close: 1.08, FirstTick: 0, LastTick: 4},
	}
	require.NoError(t, store.InsertBulk(ctx, batch))

	t.Run("get by round ordered by index", func(t *testing.T) {
		candles, err := store.GetByRound(ctx, "round-1")
		require.NoError(t, err)
		require.Len(t, candles, 2)
		assert.Equal(t, int64(0), candles[0].Index)
		assert.Equal(t, 1.00, candles[0].Open)
		assert.Equal(t, 1.08, candles[0].Close)
		assert.Equal(t, int64(4), candles[0].LastTick)
		assert.Equal(t, 1.30, candles[1].High)
	})

	t.Run("duplicate index rejected", func(t *testing.T) {
		dup := []*domain.Candle{{RoundID: "round-1", Index: 0, Open: 5.0}}
		err := store.InsertBulk(ctx, dup)
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	})

	t.Run("unknown round is empty", func(t *testing.T) {
		candles, err := store.GetByRound(ctx, "missing")
		require.NoError(t, err)
		assert.Empty(t, candles)
	})
}
