package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMainQueue_RunExecutesJobsInOrder(t *testing.T) {
	q := NewMainQueue(4)
	ctx, cancel := context.WithCancel(context.Background())

	var order []int
	done := make(chan struct{})
	require.True(t, q.Async(func() { order = append(order, 1) }))
	require.True(t, q.Async(func() { order = append(order, 2) }))
	require.True(t, q.Async(func() { close(done) }))

	errCh := make(chan error, 1)
	go func() { errCh <- q.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("jobs were not executed")
	}
	cancel()

	require.ErrorIs(t, <-errCh, context.Canceled)
	require.Equal(t, []int{1, 2}, order)
}

func TestMainQueue_AsyncAfterCloseDoesNotBlock(t *testing.T) {
	q := NewMainQueue(1)
	require.True(t, q.Async(func() {}))

	// Буфер полон: Async ждёт места, пока очередь не закроют
	blocked := make(chan bool, 1)
	go func() { blocked <- q.Async(func() {}) }()

	q.Close()
	q.Close()

	select {
	case ok := <-blocked:
		require.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("Async blocked after Close")
	}
	require.False(t, q.Async(func() {}))
}

func TestMainQueue_RunClosesQueue(t *testing.T) {
	q := NewMainQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, q.Run(ctx), context.Canceled)
	require.False(t, q.Async(func() {}))
}
