package workers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestChannelCapacityWorker_Sample(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given a queue filled to 3 of 4 slots and a value that is not a channel
	queue := make(chan int, 4)
	queue <- 1
	queue <- 2
	queue <- 3
	w := NewChannelCapacityWorker(log, []NamedChannel{
		{Name: "shard-0", Channel: queue},
		{Name: "not-a-channel", Channel: 42},
	}, time.Hour)

	// When sampling once
	w.Sample()

	// Then only the channel is reported with its fill level
	snapshot := w.Snapshot()
	req.Len(snapshot, 1)
	req.Equal(ChannelCapacity{Capacity: 4, Length: 3}, snapshot["shard-0"])
}

func TestChannelCapacityWorker_Run_Stops_On_Cancel(t *testing.T) {
	req := require.New(t)
	queue := make(chan int, 2)
	queue <- 1
	w := NewChannelCapacityWorker(slog.Default(), []NamedChannel{{Name: "shard-0", Channel: queue}}, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Given the ticker had time to fire
	req.Eventually(func() bool {
		_, ok := w.Snapshot()["shard-0"]
		return ok
	}, time.Second, 5*time.Millisecond)

	// When the context is cancelled
	cancel()

	// Then the worker returns nil and the supervisor will not restart it
	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
	req.Equal(1, w.Snapshot()["shard-0"].Length)
}
