package server

import (
	"log"
	"os"
	"path/filepath"
	"time"
)

// Sweeper deletes downloaded files older than maxAge. Downloads are
// otherwise never removed, so without a sweeper the directory grows
// without bound.
type Sweeper struct {
	dir      string
	maxAge   time.Duration
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewSweeper creates a sweeper for dir. maxAge must be positive.
func NewSweeper(dir string, maxAge, interval time.Duration) *Sweeper {
	return &Sweeper{
		dir:      dir,
		maxAge:   maxAge,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the sweep loop in the background until Stop is called.
func (sw *Sweeper) Start() {
	go func() {
		defer close(sw.done)
		ticker := time.NewTicker(sw.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sw.Sweep()
			case <-sw.stop:
				return
			}
		}
	}()
}

// Stop terminates the sweep loop and waits for it to finish.
func (sw *Sweeper) Stop() {
	close(sw.stop)
	<-sw.done
}

// Sweep removes files in the download directory whose modification time
// is older than maxAge.
func (sw *Sweeper) Sweep() {
	cutoff := time.Now().Add(-sw.maxAge)

	entries, err := os.ReadDir(sw.dir)
	if err != nil {
		log.Printf("retention sweep failed: %v", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(sw.dir, entry.Name())
			if err := os.Remove(path); err != nil {
				log.Printf("retention sweep: failed to remove %s: %v", path, err)
			}
		}
	}
}
