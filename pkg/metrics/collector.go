package metrics

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time view of bridge state
type Snapshot struct {
	DirectBindings     int
	SubscriberBindings int
	CacheEntries       int
	WorkerQueueDepth   int
	LooperQueueDepth   int
}

// Source provides snapshots to the Collector
type Source interface {
	Snapshot() Snapshot
}

// Collector periodically copies a Source's snapshot into the gauges
type Collector struct {
	source   Source
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewCollector creates a new metrics collector
func NewCollector(source Source, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Collector{
		source:   source,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(c.interval)
	go func() {
		// Collect immediately on start
		c.Collect()

		for {
			select {
			case <-ticker.C:
				c.Collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// Collect updates the gauges once
func (c *Collector) Collect() {
	s := c.source.Snapshot()

	DirectBindings.Set(float64(s.DirectBindings))
	SubscriberBindings.Set(float64(s.SubscriberBindings))
	CacheEntries.Set(float64(s.CacheEntries))
	WorkerQueueDepth.Set(float64(s.WorkerQueueDepth))
	LooperQueueDepth.Set(float64(s.LooperQueueDepth))
}
