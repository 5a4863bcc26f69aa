package ppg

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Source is the minimal raw-sample collaborator contract: one reading per
// call, in device counts.
type Source interface {
	Read() (uint16, error)
}

// Poller enforces a constant sample period around a Source. Pacing comes
// from a ticker rather than measured sleeps, so a slow pipeline pass delays
// its own tick without ever bursting to catch up.
type Poller struct {
	src    Source
	period time.Duration

	samples   chan RawSample
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
}

// Ensure Poller implements Device.
var _ Device = (*Poller)(nil)

// NewPoller creates a Poller reading src every period.
func NewPoller(src Source, period time.Duration, bufSize int) *Poller {
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Poller{
		src:     src,
		period:  period,
		samples: make(chan RawSample, bufSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Connect starts the polling loop.
func (p *Poller) Connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.connected {
		return fmt.Errorf("already connected")
	}

	p.connected = true
	go p.poll()

	return nil
}

// Close stops polling.
func (p *Poller) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected {
		return nil
	}

	p.cancel()
	p.connected = false
	close(p.samples)

	return nil
}

// Samples returns the channel for reading samples.
func (p *Poller) Samples() <-chan RawSample {
	return p.samples
}

// IsConnected returns whether the poller is running.
func (p *Poller) IsConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected
}

func (p *Poller) poll() {
	ticker := time.NewTicker(p.period)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case now := <-ticker.C:
			reading, err := p.src.Read()
			if err != nil {
				log.Printf("Source read failed: %v", err)
				continue
			}

			select {
			case p.samples <- RawSample{Timestamp: now, Reading: reading}:
			case <-p.ctx.Done():
				return
			default:
				// Channel full, skip
			}
		}
	}
}
