package service

import (
	"context"
	"log"
	"time"

	"campus-hostel-backend/internal/repository"
)

// SessionCleanupWorker deletes revoked and expired refresh tokens on a fixed interval
type SessionCleanupWorker struct {
	userRepo *repository.UserRepository
	interval time.Duration
}

func NewSessionCleanupWorker(userRepo *repository.UserRepository, interval time.Duration) *SessionCleanupWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &SessionCleanupWorker{
		userRepo: userRepo,
		interval: interval,
	}
}

// Start runs the cleanup until ctx is cancelled
func (w *SessionCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.Printf("Session cleanup worker started - running every %s", w.interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("Session cleanup worker stopped")
			return
		case <-ticker.C:
			if _, err := w.RunOnce(time.Now()); err != nil {
				log.Printf("Error cleaning up refresh tokens: %v", err)
			}
		}
	}
}

// RunOnce deletes tokens that are revoked or expired at now and returns how many went
func (w *SessionCleanupWorker) RunOnce(now time.Time) (int64, error) {
	removed, err := w.userRepo.DeleteStaleRefreshTokens(now)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		log.Printf("Removed %d stale refresh tokens", removed)
	}
	return removed, nil
}
