package audit

import (
	"strconv"

	"github.com/IamMattHenry/hris-sub000/internal/response"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	sink *Sink
}

func NewHandler(sink *Sink) *Handler {
	return &Handler{sink: sink}
}

func (h *Handler) ListHandler(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit < 1 || limit > 500 {
		limit = 50
	}

	entries, err := h.sink.Recent(limit)
	if err != nil {
		return response.InternalError(c, "Failed to load audit log")
	}

	return response.Success(c, entries, "")
}
