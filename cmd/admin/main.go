package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"seogaeum/backend/internal/api/handler"
	"seogaeum/backend/internal/config"
	"seogaeum/backend/internal/models"
	"seogaeum/backend/internal/storage"
	"strconv"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const usage = `Usage: admin <command> [args]

Commands:
  rooms <user_id>                       list trade rooms of a user
  room <room_id>                        show a room with its pending requests
  token <user_id>                       issue an API token for a user
  library-add <code> <name> <lat> <lon> register a library branch`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Only token issuing works without a database.
	if os.Args[1] == "token" {
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin token <user_id>")
			os.Exit(1)
		}
		token, err := handler.GenerateToken(cfg.JWTSecret, os.Args[2], config.TokenTTL)
		if err != nil {
			logger.Fatal("failed to issue token", zap.Error(err))
		}
		fmt.Println(token)
		return
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}
	store := storage.NewStorageService(db, nil) // No redis needed for admin CLI
	ctx := context.Background()

	switch os.Args[1] {
	case "rooms":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin rooms <user_id>")
			os.Exit(1)
		}
		if err := listRooms(ctx, store, os.Args[2]); err != nil {
			logger.Fatal("failed to list rooms", zap.Error(err))
		}
	case "room":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin room <room_id>")
			os.Exit(1)
		}
		if err := showRoom(ctx, store, os.Args[2]); err != nil {
			logger.Fatal("failed to show room", zap.Error(err))
		}
	case "library-add":
		if len(os.Args) != 6 {
			fmt.Println("Usage: admin library-add <code> <name> <lat> <lon>")
			os.Exit(1)
		}
		lat, errLat := strconv.ParseFloat(os.Args[4], 64)
		lon, errLon := strconv.ParseFloat(os.Args[5], 64)
		if errLat != nil || errLon != nil {
			fmt.Println("Invalid coordinates. Please provide decimal degrees.")
			os.Exit(1)
		}
		lib := &models.LibraryRecord{Code: os.Args[2], Name: os.Args[3], Latitude: &lat, Longitude: &lon}
		if err := store.SaveLibrary(ctx, lib); err != nil {
			logger.Fatal("failed to save library", zap.Error(err))
		}
		fmt.Printf("Library %s saved.\n", lib.Code)
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
}

func listRooms(ctx context.Context, s storage.Storage, userID string) error {
	rooms, err := s.ListRoomsForUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, r := range rooms {
		fmt.Printf("%s\tbook=%d\tseller=%s\tbuyer=%s\t%s\t%s\n",
			r.ID, r.BookID, r.SellerID, r.BuyerID, r.Status, r.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func showRoom(ctx context.Context, s storage.Storage, roomID string) error {
	room, err := s.GetRoomByID(ctx, roomID)
	if err != nil {
		return fmt.Errorf("load room %s: %w", roomID, err)
	}
	pending, err := s.ListPendingRequests(ctx, roomID)
	if err != nil {
		return fmt.Errorf("load pending requests: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Room    *models.TradeRoom            `json:"room"`
		Pending []models.StatusChangeRequest `json:"pending_requests"`
	}{room, pending})
}
