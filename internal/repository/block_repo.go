package repository

import (
	"errors"

	"campus-hostel-backend/internal/models"

	"gorm.io/gorm"
)

type BlockRepository struct {
	db *gorm.DB
}

func NewBlockRepo(db *gorm.DB) *BlockRepository {
	return &BlockRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *BlockRepository) WithTx(tx *gorm.DB) *BlockRepository {
	return &BlockRepository{db: tx}
}

// GetAllBlocks retrieves every block ordered by name
func (r *BlockRepository) GetAllBlocks() ([]models.HostelBlock, error) {
	var blocks []models.HostelBlock
	err := r.db.Order("name ASC").Find(&blocks).Error
	return blocks, err
}

// GetBlockByID retrieves a block by ID
func (r *BlockRepository) GetBlockByID(id uint) (*models.HostelBlock, error) {
	var block models.HostelBlock
	err := r.db.First(&block, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBlockNotFound
		}
		return nil, err
	}
	return &block, nil
}

// NameTaken reports whether another block already uses name
func (r *BlockRepository) NameTaken(name string, excludeID uint) (bool, error) {
	return r.taken("name = ?", name, excludeID)
}

// CodeTaken reports whether another block already uses code
func (r *BlockRepository) CodeTaken(code string, excludeID uint) (bool, error) {
	return r.taken("code = ?", code, excludeID)
}

func (r *BlockRepository) taken(cond string, value string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.Model(&models.HostelBlock{}).Where(cond, value)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountBlocks returns the number of blocks
func (r *BlockRepository) CountBlocks() (int64, error) {
	var count int64
	err := r.db.Model(&models.HostelBlock{}).Count(&count).Error
	return count, err
}

// CreateBlock creates a new block
func (r *BlockRepository) CreateBlock(block *models.HostelBlock) error {
	return r.db.Create(block).Error
}

// UpdateBlock writes every column of an existing block
func (r *BlockRepository) UpdateBlock(block *models.HostelBlock) error {
	return r.db.Save(block).Error
}

// DeleteBlock removes a block permanently
func (r *BlockRepository) DeleteBlock(id uint) error {
	res := r.db.Delete(&models.HostelBlock{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrBlockNotFound
	}
	return nil
}
