package repository

import (
	"campus-hostel-backend/internal/models"

	"gorm.io/gorm"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepo(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// CreateAuditLog records one action performed by userID on an entity
func (r *AuditRepository) CreateAuditLog(userID *uint, action, entity string, entityID uint, details string) error {
	entry := &models.AuditLog{
		UserID:   userID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Details:  details,
	}
	return r.db.Create(entry).Error
}

// ListByEntity returns the audit trail of one entity, oldest first
func (r *AuditRepository) ListByEntity(entity string, entityID uint) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := r.db.Where("entity = ? AND entity_id = ?", entity, entityID).
		Order("id ASC").
		Find(&logs).Error
	return logs, err
}
