package handler

import (
	"net/http"

	"github.com/albionflip/flipperd/internal/domain"
)

// BookReader defines the snapshot access the book handler requires.
type BookReader interface {
	Snapshot(kind domain.BookKind) []domain.Order
	Count(kind domain.BookKind) int
}

// BookHandler serves read-only order book snapshots.
type BookHandler struct {
	books BookReader
}

// NewBookHandler creates a BookHandler over the given reader.
func NewBookHandler(books BookReader) *BookHandler {
	return &BookHandler{books: books}
}

// bookResponse wraps one book snapshot.
type bookResponse struct {
	Book   domain.BookKind `json:"book"`
	Total  int             `json:"total"`
	Orders []domain.Order  `json:"orders"`
}

// GetBook returns a snapshot of one order book, optionally truncated.
// GET /api/books/{kind}?limit=100
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	kind := domain.BookKind(r.PathValue("kind"))
	if !kind.Valid() {
		writeError(w, http.StatusNotFound, "unknown book: use offers or requests")
		return
	}

	orders := h.books.Snapshot(kind)
	total := len(orders)

	if limit := queryInt(r, "limit", 0); limit > 0 && limit < len(orders) {
		orders = orders[:limit]
	}

	writeJSON(w, http.StatusOK, bookResponse{
		Book:   kind,
		Total:  total,
		Orders: orders,
	})
}
