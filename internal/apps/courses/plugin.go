package courses

import (
	"github.com/gofiber/fiber/v2"
	"github.com/skcgolf/skc-api/internal/config"
	"gorm.io/gorm"
)

type CoursesPlugin struct{}

func New() *CoursesPlugin {
	return &CoursesPlugin{}
}

func (p *CoursesPlugin) ID() string { return "courses" }

func (p *CoursesPlugin) Models() []interface{} {
	return []interface{}{
		&Address{},
		&Course{},
	}
}

func (p *CoursesPlugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	svc := NewCourseService(db)
	handler := NewCourseHandler(svc)

	router.Post("/", handler.Create)
	router.Put("/", handler.Update)
	router.Get("/", handler.List)
	router.Get("/count", handler.Count)
	router.Get("/:id", handler.Get)
	router.Delete("/:id", handler.Delete)
}
