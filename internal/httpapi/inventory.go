package httpapi

import (
	"net/http"

	"github.com/quartermasterhq/quartermaster/internal/domain"
	"github.com/quartermasterhq/quartermaster/internal/service"
	"github.com/quartermasterhq/quartermaster/pkg/httpx"
)

// InventoryHandler exposes the inventory operations. Authentication is
// enforced by the router; role checks happen in the service against the
// stored role.
type InventoryHandler struct {
	InventoryService *service.InventoryService
}

type itemRequest struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Quantity    int64   `json:"quantity"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

type itemResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Quantity    int64   `json:"quantity"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

func toItemResponse(it domain.Item) itemResponse {
	return itemResponse{
		ID:          it.ID,
		Name:        it.Name,
		Category:    it.Category,
		Quantity:    it.Quantity,
		Price:       it.Price,
		Description: it.Description,
	}
}

func (req itemRequest) toInput() service.ItemInput {
	return service.ItemInput{
		Name:        req.Name,
		Category:    req.Category,
		Quantity:    req.Quantity,
		Price:       req.Price,
		Description: req.Description,
	}
}

// HandleList handles GET /v1/inventory.
func (h *InventoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.InventoryService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]itemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toItemResponse(it))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleCreate handles POST /v1/inventory.
func (h *InventoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromCtx(r.Context())

	var req itemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	it, err := h.InventoryService.Create(r.Context(), sess.Username, req.toInput())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toItemResponse(it))
}

// HandleUpdate handles PUT /v1/inventory/{id}.
func (h *InventoryHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromCtx(r.Context())
	id := r.PathValue("id")

	var req itemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	it, err := h.InventoryService.Update(r.Context(), sess.Username, id, req.toInput())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toItemResponse(it))
}

// HandleDelete handles DELETE /v1/inventory/{id}.
func (h *InventoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromCtx(r.Context())
	id := r.PathValue("id")

	if err := h.InventoryService.Delete(r.Context(), sess.Username, id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
