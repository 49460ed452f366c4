package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/yourusername/song-request-board/internal/backup"
	"github.com/yourusername/song-request-board/internal/database"
	"github.com/yourusername/song-request-board/internal/models"
	"github.com/yourusername/song-request-board/internal/songs"
	"github.com/yourusername/song-request-board/internal/stagedisplay"
)

type Handler struct {
	songs         *songs.Service
	db            *database.DB
	backupManager *backup.Manager
	stage         *stagedisplay.Client
}

func New(svc *songs.Service, db *database.DB, backupManager *backup.Manager, stage *stagedisplay.Client) *Handler {
	return &Handler{
		songs:         svc,
		db:            db,
		backupManager: backupManager,
		stage:         stage,
	}
}

// CreateSongRequest stores a new song request
func (h *Handler) CreateSongRequest(c *fiber.Ctx) error {
	var req models.CreateSongRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	song, err := h.songs.Submit(c.UserContext(), req)
	if err != nil {
		var verr *songs.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Name and song/artist are required"})
		}
		log.Printf("Error creating song request: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to submit song"})
	}

	return c.Status(fiber.StatusCreated).JSON(song)
}

// GetAllSongRequests lists every song request, most recent first
func (h *Handler) GetAllSongRequests(c *fiber.Ctx) error {
	requests, err := h.songs.List(c.UserContext())
	if err != nil {
		log.Printf("Error fetching song requests: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch songs"})
	}

	return c.JSON(requests)
}

// HealthCheck returns server health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	timestamp := fiber.Map{"unix": c.Context().Time().Unix()}

	if err := h.db.PingContext(c.UserContext()); err != nil {
		log.Printf("Health check failed: %v", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":    "unhealthy",
			"error":     "Database unavailable",
			"timestamp": timestamp,
		})
	}

	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": timestamp,
	})
}

// GetBackups lists all snapshots
func (h *Handler) GetBackups(c *fiber.Ctx) error {
	backups, err := h.backupManager.ListBackups()
	if err != nil {
		log.Printf("Error listing backups: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list backups"})
	}

	return c.JSON(backups)
}

// CreateBackup manually triggers a snapshot
func (h *Handler) CreateBackup(c *fiber.Ctx) error {
	meta, err := h.backupManager.CreateBackup(c.UserContext(), "manual")
	if err != nil {
		log.Printf("Error creating backup: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create backup"})
	}

	return c.Status(fiber.StatusCreated).JSON(meta)
}

// StageStatus returns the ProPresenter connection status
func (h *Handler) StageStatus(c *fiber.Ctx) error {
	return c.JSON(h.stage.Status(c.UserContext()))
}
