package server

import (
	"talenthub/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// crudHandler exposes list, get and delete for any Store. Routes decide who
// may call which operation.
type crudHandler[T any] struct {
	store    repository.Store[T]
	resource string
}

func newCRUDHandler[T any](store repository.Store[T], resource string) *crudHandler[T] {
	return &crudHandler[T]{store: store, resource: resource}
}

// List handles GET on a collection with limit/offset paging.
func (h *crudHandler[T]) List(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPageSize)
	items, err := h.store.List(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

// Get handles GET on /:id.
func (h *crudHandler[T]) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	item, err := h.store.GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// Delete handles DELETE on /:id.
func (h *crudHandler[T]) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := h.store.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": h.resource + " deleted successfully"})
}
