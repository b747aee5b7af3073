package service

import (
	"errors"
	"fmt"
	"strings"

	"campus-hostel-backend/internal/models"
	"campus-hostel-backend/internal/repository"

	"gorm.io/gorm"
)

type BlockService struct {
	db        *gorm.DB
	blockRepo *repository.BlockRepository
	roomRepo  *repository.RoomRepository
	userRepo  *repository.UserRepository
	auditRepo *repository.AuditRepository
	reports   *ReportCache
}

func NewBlockService(
	db *gorm.DB,
	blockRepo *repository.BlockRepository,
	roomRepo *repository.RoomRepository,
	userRepo *repository.UserRepository,
	auditRepo *repository.AuditRepository,
	reports *ReportCache,
) *BlockService {
	return &BlockService{
		db:        db,
		blockRepo: blockRepo,
		roomRepo:  roomRepo,
		userRepo:  userRepo,
		auditRepo: auditRepo,
		reports:   reports,
	}
}

// CreateBlockInput is the payload for a new block
type CreateBlockInput struct {
	Name          string               `json:"name" binding:"required"`
	Code          string               `json:"code" binding:"required"`
	Category      models.BlockCategory `json:"type"`
	Floors        int                  `json:"floors"`
	RoomsPerFloor int                  `json:"rooms_per_floor"`
	WardenID      *uint                `json:"warden_id"`
	Facilities    []string             `json:"facilities"`
}

// UpdateBlockInput carries a partial block edit. Nil fields are left unchanged.
// ClearWarden removes the warden and resets the display snapshot.
type UpdateBlockInput struct {
	Name          *string               `json:"name"`
	Code          *string               `json:"code"`
	Category      *models.BlockCategory `json:"type"`
	Floors        *int                  `json:"floors"`
	RoomsPerFloor *int                  `json:"rooms_per_floor"`
	WardenID      *uint                 `json:"warden_id"`
	ClearWarden   bool                  `json:"clear_warden"`
	Facilities    *[]string             `json:"facilities"`
	IsActive      *bool                 `json:"is_active"`
}

// ListBlocks retrieves every block ordered by name
func (s *BlockService) ListBlocks() ([]models.HostelBlock, error) {
	return s.blockRepo.GetAllBlocks()
}

// GetBlock retrieves one block
func (s *BlockService) GetBlock(id uint) (*models.HostelBlock, error) {
	block, err := s.blockRepo.GetBlockByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrBlockNotFound) {
			return nil, notFound("hostel block %d not found", id)
		}
		return nil, err
	}
	return block, nil
}

// CreateBlock registers a new block and snapshots its warden's display fields
func (s *BlockService) CreateBlock(input CreateBlockInput, actorID uint) (*models.HostelBlock, error) {
	block := &models.HostelBlock{
		Name:          strings.TrimSpace(input.Name),
		Code:          normalizeCode(input.Code),
		Category:      input.Category,
		Floors:        input.Floors,
		RoomsPerFloor: input.RoomsPerFloor,
		Facilities:    cleanFacilities(input.Facilities),
		WardenName:    models.WardenUnassigned,
		IsActive:      true,
	}
	if err := validateBlock(block); err != nil {
		return nil, err
	}
	if err := s.checkUnique(block); err != nil {
		return nil, err
	}
	if input.WardenID != nil {
		if err := s.assignWarden(block, *input.WardenID); err != nil {
			return nil, err
		}
	}

	if err := s.blockRepo.CreateBlock(block); err != nil {
		if isDuplicate(err) {
			return nil, conflict("hostel block name or code already exists")
		}
		return nil, fmt.Errorf("failed to create hostel block: %w", err)
	}
	s.reports.Invalidate()

	details := fmt.Sprintf("Created hostel block: %s (code: %s, rooms: %d)", block.Name, block.Code, block.TotalRooms)
	recordAudit(s.auditRepo, &actorID, "block_create", "hostel_block", block.ID, details)

	return block, nil
}

// UpdateBlock applies a partial edit; the room total follows the floors and rooms-per-floor
func (s *BlockService) UpdateBlock(id uint, input UpdateBlockInput, actorID uint) (*models.HostelBlock, error) {
	block, err := s.GetBlock(id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		block.Name = strings.TrimSpace(*input.Name)
	}
	if input.Code != nil {
		block.Code = normalizeCode(*input.Code)
	}
	if input.Category != nil {
		block.Category = *input.Category
	}
	if input.Floors != nil {
		block.Floors = *input.Floors
	}
	if input.RoomsPerFloor != nil {
		block.RoomsPerFloor = *input.RoomsPerFloor
	}
	if input.Facilities != nil {
		block.Facilities = cleanFacilities(*input.Facilities)
	}
	if input.IsActive != nil {
		block.IsActive = *input.IsActive
	}
	block.TotalRooms = models.TotalRooms(block.Floors, block.RoomsPerFloor)

	if err := validateBlock(block); err != nil {
		return nil, err
	}
	if err := s.checkUnique(block); err != nil {
		return nil, err
	}

	switch {
	case input.ClearWarden:
		block.WardenID = nil
		block.WardenName = models.WardenUnassigned
		block.WardenContact = ""
	case input.WardenID != nil:
		if err := s.assignWarden(block, *input.WardenID); err != nil {
			return nil, err
		}
	}

	if err := s.blockRepo.UpdateBlock(block); err != nil {
		if isDuplicate(err) {
			return nil, conflict("hostel block name or code already exists")
		}
		return nil, fmt.Errorf("failed to update hostel block: %w", err)
	}
	s.reports.Invalidate()

	details := fmt.Sprintf("Updated hostel block: %s (code: %s)", block.Name, block.Code)
	recordAudit(s.auditRepo, &actorID, "block_update", "hostel_block", block.ID, details)

	return block, nil
}

// DeleteBlock removes a block that no room references
func (s *BlockService) DeleteBlock(id uint, actorID uint) error {
	var name string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		blocks := s.blockRepo.WithTx(tx)
		block, err := blocks.GetBlockByID(id)
		if err != nil {
			if errors.Is(err, repository.ErrBlockNotFound) {
				return notFound("hostel block %d not found", id)
			}
			return err
		}
		name = block.Name

		rooms, err := s.roomRepo.WithTx(tx).CountRoomsByBlock(id)
		if err != nil {
			return err
		}
		if rooms > 0 {
			return conflict("hostel block %s still has %d rooms", block.Name, rooms)
		}
		return blocks.DeleteBlock(id)
	})
	if err != nil {
		if KindOf(err) != "" {
			return err
		}
		return fmt.Errorf("failed to delete hostel block: %w", err)
	}
	s.reports.Invalidate()

	recordAudit(s.auditRepo, &actorID, "block_delete", "hostel_block", id, fmt.Sprintf("Deleted hostel block: %s", name))
	return nil
}

func (s *BlockService) checkUnique(block *models.HostelBlock) error {
	taken, err := s.blockRepo.NameTaken(block.Name, block.ID)
	if err != nil {
		return err
	}
	if taken {
		return conflict("hostel block name %q already exists", block.Name)
	}
	taken, err = s.blockRepo.CodeTaken(block.Code, block.ID)
	if err != nil {
		return err
	}
	if taken {
		return conflict("hostel block code %q already exists", block.Code)
	}
	return nil
}

// assignWarden points the block at a user and copies the user's display fields
func (s *BlockService) assignWarden(block *models.HostelBlock, wardenID uint) error {
	warden, err := s.userRepo.FindUserByID(wardenID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return notFound("warden user %d not found", wardenID)
		}
		return err
	}
	block.WardenID = &warden.ID
	block.WardenName = warden.Name
	if block.WardenName == "" {
		block.WardenName = warden.Username
	}
	block.WardenContact = warden.Phone
	return nil
}

func validateBlock(b *models.HostelBlock) error {
	switch {
	case b.Name == "":
		return invalid("block name is required")
	case b.Code == "":
		return invalid("block code is required")
	case !b.Category.Valid():
		return invalid("block type must be Boys, Girls or Co-ed")
	case b.Floors < 1:
		return invalid("floors must be at least 1")
	case b.RoomsPerFloor < 1:
		return invalid("rooms per floor must be at least 1")
	}
	return nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func cleanFacilities(in []string) []string {
	out := make([]string, 0, len(in))
	for _, f := range in {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
