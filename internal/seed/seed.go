// Package seed fills a database with demo hostel blocks, rooms, staff, students and allocations.
// Everything goes through the services so occupancy and audit rows stay consistent.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log"

	"campus-hostel-backend/internal/models"
	"campus-hostel-backend/internal/repository"
	"campus-hostel-backend/internal/service"

	"gorm.io/gorm"
)

// BlockTemplate describes one demo block; its rooms are laid out floor by floor
type BlockTemplate struct {
	Name          string
	Code          string
	Category      models.BlockCategory
	Floors        int
	RoomsPerFloor int
	Facilities    []string
}

var DefaultBlocks = []BlockTemplate{
	{Name: "Block A - Boys", Code: "BLK-A", Category: models.BlockBoys, Floors: 4, RoomsPerFloor: 20, Facilities: []string{"WiFi", "Common Room", "Laundry", "Gym"}},
	{Name: "Block B - Boys", Code: "BLK-B", Category: models.BlockBoys, Floors: 3, RoomsPerFloor: 15, Facilities: []string{"WiFi", "Common Room", "Laundry"}},
	{Name: "Block C - Girls", Code: "BLK-C", Category: models.BlockGirls, Floors: 4, RoomsPerFloor: 25, Facilities: []string{"WiFi", "Common Room", "Laundry", "Gym", "Reading Room"}},
	{Name: "Block D - Girls", Code: "BLK-D", Category: models.BlockGirls, Floors: 3, RoomsPerFloor: 18, Facilities: []string{"WiFi", "Common Room", "Laundry"}},
}

var roomFacilities = []string{"Bed", "Study Table", "Wardrobe", "Fan"}

// Options controls what Seed creates
type Options struct {
	Blocks         []BlockTemplate
	SampleStudents int
	Password       string
	AcademicYear   string
	Semester       string
	FeesAmount     float64
}

// Summary reports what Seed created
type Summary struct {
	Blocks      int
	Rooms       int
	Students    int
	Allocations int
}

type Seeder struct {
	db          *gorm.DB
	userRepo    *repository.UserRepository
	auth        *service.AuthService
	blocks      *service.BlockService
	rooms       *service.RoomService
	allocations *service.AllocationService
}

func NewSeeder(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	auth *service.AuthService,
	blocks *service.BlockService,
	rooms *service.RoomService,
	allocations *service.AllocationService,
) *Seeder {
	return &Seeder{
		db:          db,
		userRepo:    userRepo,
		auth:        auth,
		blocks:      blocks,
		rooms:       rooms,
		allocations: allocations,
	}
}

// Seed replaces all hostel data with the demo data set
func (s *Seeder) Seed(ctx context.Context, opts Options) (*Summary, error) {
	if opts.Password == "" {
		opts.Password = "password123"
	}
	if opts.AcademicYear == "" {
		opts.AcademicYear = "2024-25"
	}
	if opts.Semester == "" {
		opts.Semester = "Odd"
	}

	if err := s.Clear(); err != nil {
		return nil, err
	}

	admin, err := s.ensureUser(service.RegisterInput{Username: "admin", Password: opts.Password, Name: "Hostel Administrator", Role: models.RoleAdmin})
	if err != nil {
		return nil, err
	}
	warden, err := s.ensureUser(service.RegisterInput{Username: "warden", Password: opts.Password, Name: "Chief Warden", Phone: "9000000001", Role: models.RoleWarden})
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	var firstRooms []*models.Room
	for _, tpl := range opts.Blocks {
		block, err := s.blocks.CreateBlock(service.CreateBlockInput{
			Name:          tpl.Name,
			Code:          tpl.Code,
			Category:      tpl.Category,
			Floors:        tpl.Floors,
			RoomsPerFloor: tpl.RoomsPerFloor,
			WardenID:      &warden.ID,
			Facilities:    tpl.Facilities,
		}, admin.ID)
		if err != nil {
			return nil, fmt.Errorf("seed block %s: %w", tpl.Code, err)
		}
		summary.Blocks++

		i := 0
		for floor := 1; floor <= block.Floors; floor++ {
			for n := 1; n <= block.RoomsPerFloor; n++ {
				capacity, category := RoomLayout(i)
				room, err := s.rooms.CreateRoom(service.CreateRoomInput{
					BlockID:    block.ID,
					RoomNumber: RoomNumber(floor, n),
					Floor:      floor,
					Capacity:   capacity,
					Category:   category,
					Facilities: roomFacilities,
				}, admin.ID)
				if err != nil {
					return nil, fmt.Errorf("seed room %s/%s: %w", tpl.Code, RoomNumber(floor, n), err)
				}
				if len(firstRooms) < opts.SampleStudents {
					firstRooms = append(firstRooms, room)
				}
				summary.Rooms++
				i++
			}
		}
	}

	for i := 0; i < opts.SampleStudents && i < len(firstRooms); i++ {
		student, err := s.ensureUser(service.RegisterInput{
			Username: fmt.Sprintf("student%02d", i+1),
			Password: opts.Password,
			Name:     fmt.Sprintf("Student %02d", i+1),
			UserCode: fmt.Sprintf("STU2022%03d", i+1),
			Role:     models.RoleStudent,
		})
		if err != nil {
			return nil, err
		}
		summary.Students++

		room := firstRooms[i]
		bed := 1
		fees := opts.FeesAmount
		_, err = s.allocations.Assign(ctx, service.AssignInput{
			StudentID:    student.ID,
			BlockID:      room.BlockID,
			RoomID:       room.ID,
			BedNumber:    &bed,
			AcademicYear: opts.AcademicYear,
			Semester:     opts.Semester,
			FeesAmount:   &fees,
			FeesPaid:     i%3 == 0,
		}, warden.ID)
		if err != nil {
			return nil, fmt.Errorf("seed allocation for %s: %w", student.Username, err)
		}
		summary.Allocations++
	}

	log.Printf("Seeded %d blocks, %d rooms, %d students, %d allocations",
		summary.Blocks, summary.Rooms, summary.Students, summary.Allocations)
	return summary, nil
}

// Clear removes every allocation, room and block. Users are kept.
func (s *Seeder) Clear() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&models.RoomAllocation{}).Error; err != nil {
			return fmt.Errorf("clear allocations: %w", err)
		}
		if err := all.Delete(&models.Room{}).Error; err != nil {
			return fmt.Errorf("clear rooms: %w", err)
		}
		if err := all.Delete(&models.HostelBlock{}).Error; err != nil {
			return fmt.Errorf("clear blocks: %w", err)
		}
		return nil
	})
}

// ensureUser returns the existing account with this username or creates it
func (s *Seeder) ensureUser(input service.RegisterInput) (*models.User, error) {
	user, err := s.userRepo.FindUserByUsername(input.Username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}
	user, err = s.auth.CreateUser(input)
	if err != nil {
		return nil, fmt.Errorf("seed user %s: %w", input.Username, err)
	}
	return user, nil
}

// RoomNumber formats the n-th room of a floor, e.g. floor 2 room 7 is "207"
func RoomNumber(floor, n int) string {
	return fmt.Sprintf("%d%02d", floor, n)
}

// RoomLayout cycles room sizes: three doubles, four triples and three four-bed rooms per ten
func RoomLayout(i int) (int, models.RoomCategory) {
	switch i % 10 {
	case 0, 1, 2:
		return 2, models.RoomDouble
	case 3, 4, 5, 6:
		return 3, models.RoomTriple
	default:
		return 4, models.RoomFourBed
	}
}
