package apps

import (
	"github.com/gofiber/fiber/v2"
	"github.com/skcgolf/skc-api/internal/config"
	"gorm.io/gorm"
)

// Plugin defines the interface every domain module must implement.
type Plugin interface {
	// ID returns the unique plugin identifier. Routes are mounted under /api/<ID>.
	ID() string

	// Models returns the list of GORM model pointers for AutoMigrate.
	Models() []interface{}

	// RegisterRoutes mounts plugin routes on the given Fiber group.
	// The group is already prefixed with /api/<ID> and has JWT middleware applied.
	RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config)
}
