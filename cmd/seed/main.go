package main

import (
	"context"
	"flag"
	"log"

	"campus-hostel-backend/internal/config"
	"campus-hostel-backend/internal/database"
	"campus-hostel-backend/internal/repository"
	"campus-hostel-backend/internal/seed"
	"campus-hostel-backend/internal/service"
	"campus-hostel-backend/pkg/utils"
)

func main() {
	clearOnly := flag.Bool("d", false, "delete all hostel data and exit")
	students := flag.Int("students", 10, "number of sample students to allocate")
	password := flag.String("password", "password123", "password for seeded accounts")
	flag.Parse()

	cfg := config.LoadConfig()
	utils.InitJWT(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry)
	db := database.Connect(cfg)

	userRepo := repository.NewUserRepo(db)
	auditRepo := repository.NewAuditRepo(db)
	blockRepo := repository.NewBlockRepo(db)
	roomRepo := repository.NewRoomRepo(db)
	allocationRepo := repository.NewAllocationRepo(db)

	reports := service.NewReportCache(0)
	roomService := service.NewRoomService(db, roomRepo, blockRepo, allocationRepo, auditRepo, reports)
	seeder := seed.NewSeeder(
		db,
		userRepo,
		service.NewAuthService(userRepo, auditRepo),
		service.NewBlockService(db, blockRepo, roomRepo, userRepo, auditRepo, reports),
		roomService,
		service.NewAllocationService(db, allocationRepo, roomRepo, roomService, blockRepo, userRepo, auditRepo, nil, reports),
	)

	if *clearOnly {
		if err := seeder.Clear(); err != nil {
			log.Fatalf("Failed to delete hostel data: %v", err)
		}
		log.Println("Hostel data deleted successfully")
		return
	}

	summary, err := seeder.Seed(context.Background(), seed.Options{
		Blocks:         seed.DefaultBlocks,
		SampleStudents: *students,
		Password:       *password,
		FeesAmount:     15000,
	})
	if err != nil {
		log.Fatalf("Failed to seed hostel data: %v", err)
	}
	log.Printf("Hostel data seeded successfully: %d blocks, %d rooms", summary.Blocks, summary.Rooms)
}
