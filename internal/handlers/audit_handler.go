package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/skcgolf/skc-api/internal/pagination"
	"github.com/skcgolf/skc-api/internal/services"
)

const dateLayout = "2006-01-02"

var auditSortColumns = map[string]string{
	"id":             "id",
	"principal":      "principal",
	"auditEventDate": "event_date",
	"auditEventType": "event_type",
}

type AuditHandler struct {
	audits *services.AuditService
}

func NewAuditHandler(audits *services.AuditService) *AuditHandler {
	return &AuditHandler{audits: audits}
}

// List handles GET /management/audits, optionally bounded by fromDate and
// toDate (both inclusive, YYYY-MM-DD).
func (h *AuditHandler) List(c *fiber.Ctx) error {
	page, err := pagination.Parse(c, auditSortColumns)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	from, to := c.Query("fromDate"), c.Query("toDate")
	if from == "" && to == "" {
		events, total, err := h.audits.FindAll(c.UserContext(), page)
		if err != nil {
			return err
		}
		pagination.SetHeaders(c, page, total)
		return c.JSON(events)
	}

	fromDate, err := parseDate(from, time.Time{})
	if err != nil {
		return err
	}
	toDate, err := parseDate(to, time.Now().UTC())
	if err != nil {
		return err
	}

	events, total, err := h.audits.FindByDates(c.UserContext(), fromDate, toDate, page)
	if err != nil {
		return err
	}
	pagination.SetHeaders(c, page, total)
	return c.JSON(events)
}

func (h *AuditHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.ErrNotFound
	}

	event, err := h.audits.FindByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, services.ErrAuditEventNotFound) {
			return fiber.ErrNotFound
		}
		return err
	}
	return c.JSON(event)
}

func parseDate(s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return fallback.Truncate(24 * time.Hour), nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "Invalid date "+s)
	}
	return t, nil
}
