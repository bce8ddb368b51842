package service

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/hamas2/hamak/events"
)

// ProgressUpdate is the payload of an upload_progress event. The
// percentage is synthetic: it creeps up to 90 while the upload runs and
// jumps to 100 once it returns. It says nothing about bytes sent.
type ProgressUpdate struct {
	UploadID string `json:"uploadId"`
	Percent  int    `json:"percent"`
	Done     bool   `json:"done"`
}

const progressCap = 90

func nextProgress(pct, step int) int {
	return min(pct+step, progressCap)
}

// trackProgress starts emitting progress for uploadID to userID. The
// returned func stops it and, when ok, reports 100.
func (s *Service) trackProgress(ctx context.Context, userID, uploadID string) func(ok bool) {
	report := func(pct int, done bool) {
		s.emit(ctx, events.Event{
			Type:      events.UploadProgress,
			UserID:    userID,
			Recipient: userID,
			Payload:   ProgressUpdate{UploadID: uploadID, Percent: pct, Done: done},
		})
	}

	stop := make(chan struct{})
	stopped := make(chan struct{})
	report(0, false)

	go func() {
		defer close(stopped)
		ticker := time.NewTicker(s.progressInterval)
		defer ticker.Stop()

		pct := 0
		for {
			select {
			case <-ticker.C:
				if next := nextProgress(pct, rand.IntN(16)); next != pct {
					pct = next
					report(pct, false)
				}
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return func(ok bool) {
		close(stop)
		<-stopped
		if ok {
			report(100, true)
		}
	}
}
