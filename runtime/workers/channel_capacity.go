package workers

import (
	"context"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// saturationRatio is the fill level from which a queue is reported as saturated.
const saturationRatio = 0.8

type NamedChannel struct {
	Name    string
	Channel any
}

type ChannelCapacity struct {
	Capacity int
	Length   int
}

// ChannelCapacityWorker periodically samples the length and capacity of the
// fan-out queues. Reading len(channel) and cap(channel) is non-blocking, so
// sampling never interferes with publishers or consumers.
type ChannelCapacityWorker struct {
	log            *slog.Logger
	channels       []NamedChannel
	metricInterval time.Duration

	mu     sync.RWMutex
	latest map[string]ChannelCapacity
}

func NewChannelCapacityWorker(log *slog.Logger, channels []NamedChannel, metricInterval time.Duration) *ChannelCapacityWorker {
	return &ChannelCapacityWorker{
		log:            log,
		channels:       channels,
		metricInterval: metricInterval,
		latest:         make(map[string]ChannelCapacity, len(channels)),
	}
}

func (w *ChannelCapacityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping channel sampling")
			return nil
		case <-ticker.C:
			w.Sample()
		}
	}
}

// Sample reads every channel once and records the result.
func (w *ChannelCapacityWorker) Sample() {
	for _, nc := range w.channels {
		v := reflect.ValueOf(nc.Channel)
		if v.Kind() != reflect.Chan {
			w.log.Error("Provided object is not a channel", "name", nc.Name)
			continue
		}
		c := ChannelCapacity{Capacity: v.Cap(), Length: v.Len()}
		if c.Capacity > 0 && float64(c.Length) >= saturationRatio*float64(c.Capacity) {
			w.log.Warn("Fan-out queue close to saturation", "name", nc.Name, "length", c.Length, "capacity", c.Capacity)
		}
		w.mu.Lock()
		w.latest[nc.Name] = c
		w.mu.Unlock()
	}
}

// Snapshot returns the last sample of every channel, keyed by name.
func (w *ChannelCapacityWorker) Snapshot() map[string]ChannelCapacity {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make(map[string]ChannelCapacity, len(w.latest))
	for k, v := range w.latest {
		out[k] = v
	}
	return out
}
