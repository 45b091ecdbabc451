package library

import (
	"context"
	"log"
	"time"
)

// RunExpirySweeper expires lapsed notifications on a fixed interval until
// ctx is cancelled.  Run it in its own goroutine from main.
func (s *Service) RunExpirySweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				log.Printf("library-sweeper: sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("library-sweeper: expired %d notification(s)", n)
			}
		}
	}
}
