package service

import (
	"log"

	"campus-hostel-backend/internal/repository"
)

// recordAudit writes an audit row after the operation has committed. A failure is logged
// and does not fail the operation.
func recordAudit(repo *repository.AuditRepository, actorID *uint, action, entity string, entityID uint, details string) {
	if err := repo.CreateAuditLog(actorID, action, entity, entityID, details); err != nil {
		log.Printf("Warning: failed to record %s audit for %s %d: %v", action, entity, entityID, err)
	}
}
