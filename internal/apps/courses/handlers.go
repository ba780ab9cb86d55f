package courses

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/skcgolf/skc-api/internal/handlers"
	"github.com/skcgolf/skc-api/internal/pagination"
)

var courseSortColumns = map[string]string{
	"id":          "courses.id",
	"name":        "courses.name",
	"description": "courses.description",
}

type CourseHandler struct {
	service *CourseService
}

func NewCourseHandler(service *CourseService) *CourseHandler {
	return &CourseHandler{service: service}
}

func (h *CourseHandler) Create(c *fiber.Ctx) error {
	var course Course
	if err := handlers.Bind(c, &course); err != nil {
		return err
	}
	if course.ID != 0 {
		return handlers.BadRequestAlert("A new course cannot already have an ID", EntityName, "idexists")
	}

	if err := h.service.Create(c.UserContext(), &course); err != nil {
		return err
	}

	id := strconv.FormatInt(course.ID, 10)
	c.Location("/api/courses/" + id)
	handlers.EntityAlert(c, EntityName, "created", id)
	return c.Status(fiber.StatusCreated).JSON(course)
}

func (h *CourseHandler) Update(c *fiber.Ctx) error {
	var course Course
	if err := handlers.Bind(c, &course); err != nil {
		return err
	}
	if course.ID == 0 {
		return handlers.BadRequestAlert("Invalid id", EntityName, "idnull")
	}

	if err := h.service.Update(c.UserContext(), &course); err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			return handlers.BadRequestAlert("Entity not found", EntityName, "idnotfound")
		}
		return err
	}

	handlers.EntityAlert(c, EntityName, "updated", strconv.FormatInt(course.ID, 10))
	return c.JSON(course)
}

func (h *CourseHandler) List(c *fiber.Ctx) error {
	criteria, err := criteriaFrom(c)
	if err != nil {
		return err
	}
	page, err := pagination.Parse(c, courseSortColumns)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	courses, total, err := h.service.FindByCriteria(c.UserContext(), criteria, page)
	if err != nil {
		return err
	}
	pagination.SetHeaders(c, page, total)
	return c.JSON(courses)
}

func (h *CourseHandler) Count(c *fiber.Ctx) error {
	criteria, err := criteriaFrom(c)
	if err != nil {
		return err
	}
	total, err := h.service.CountByCriteria(c.UserContext(), criteria)
	if err != nil {
		return err
	}
	return c.JSON(total)
}

func (h *CourseHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.ErrNotFound
	}

	course, err := h.service.FindOne(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			return fiber.ErrNotFound
		}
		return err
	}
	return c.JSON(course)
}

func (h *CourseHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.ErrNotFound
	}

	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return err
	}
	handlers.EntityAlert(c, EntityName, "deleted", c.Params("id"))
	return c.SendStatus(fiber.StatusOK)
}

func criteriaFrom(c *fiber.Ctx) (CourseCriteria, error) {
	values := url.Values{}
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		values.Add(string(key), string(value))
	})
	criteria, err := ParseCriteria(values)
	if err != nil {
		return CourseCriteria{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return criteria, nil
}
