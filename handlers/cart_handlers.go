package handlers

import (
	"errors"
	"net/http"

	"github.com/giygas/rxcomposer/cart"
	"github.com/giygas/rxcomposer/entities"
	"github.com/giygas/rxcomposer/logging"
	"github.com/go-chi/chi/v5"
)

// CartResponse carries the cart after a command. Entry and Draft are set by
// the commands that produce them.
type CartResponse struct {
	Cart    []entities.CartEntry `json:"cart"`
	Entry   *entities.CartEntry  `json:"entry,omitempty"`
	Draft   *entities.Draft      `json:"draft,omitempty"`
	Notices []string             `json:"notices,omitempty"`
}

// MoveRequest is the body of POST /api/cart/move
type MoveRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (h *HTTPHandlerImpl) cartResponse() CartResponse {
	return CartResponse{
		Cart:    h.session.Cart.Snapshot(),
		Notices: h.session.DrainNotices(),
	}
}

// respondCartError maps the cart errors onto status codes
func (h *HTTPHandlerImpl) respondCartError(w http.ResponseWriter, err error, c *confirmation) {
	switch {
	case errors.Is(err, cart.ErrEmptyName):
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, cart.ErrOutOfRange), errors.Is(err, cart.ErrNotFound):
		h.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, cart.ErrNotConfirmed):
		h.respondNotConfirmed(w, c)
	default:
		logging.Error("Unexpected cart error", "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "cart command failed")
	}
}

// GetCart returns the cart in order
func (h *HTTPHandlerImpl) GetCart(w http.ResponseWriter, r *http.Request) {
	h.RespondWithJSON(w, http.StatusOK, h.cartResponse())
}

// AddToCart appends a line built from the draft in the body
func (h *HTTPHandlerImpl) AddToCart(w http.ResponseWriter, r *http.Request) {
	var d entities.Draft
	if err := decodeBody(r, &d); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validator.ValidateDraft(&d); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.session.Cart.Add(r.Context(), d)
	if err != nil {
		h.respondCartError(w, err, nil)
		return
	}

	resp := h.cartResponse()
	resp.Entry = &entry
	h.RespondWithJSON(w, http.StatusCreated, resp)
}

// UpdateCartEntry edits the line with the given id in place
func (h *HTTPHandlerImpl) UpdateCartEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var d entities.Draft
	if err := decodeBody(r, &d); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validator.ValidateDraft(&d); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.session.Cart.Update(r.Context(), id, d)
	if err != nil {
		h.respondCartError(w, err, nil)
		return
	}

	resp := h.cartResponse()
	resp.Entry = &entry
	h.RespondWithJSON(w, http.StatusOK, resp)
}

// EditCartEntry removes the line at {index} and returns its fields for re-entry
func (h *HTTPHandlerImpl) EditCartEntry(w http.ResponseWriter, r *http.Request) {
	index, err := h.validator.ValidateIndex(chi.URLParam(r, "index"))
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	draft, ok := h.session.Cart.BeginEdit(r.Context(), index)
	if !ok {
		h.RespondWithError(w, http.StatusNotFound, cart.ErrOutOfRange.Error())
		return
	}

	resp := h.cartResponse()
	resp.Draft = &draft
	h.RespondWithJSON(w, http.StatusOK, resp)
}

// DeleteCartEntry removes the line at {index} after confirmation
func (h *HTTPHandlerImpl) DeleteCartEntry(w http.ResponseWriter, r *http.Request) {
	index, err := h.validator.ValidateIndex(chi.URLParam(r, "index"))
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	c := newConfirmation(r)
	if err := h.session.Cart.Delete(r.Context(), index, c.ask); err != nil {
		h.respondCartError(w, err, c)
		return
	}
	h.RespondWithJSON(w, http.StatusOK, h.cartResponse())
}

// MoveCartEntry moves a line to a new position
func (h *HTTPHandlerImpl) MoveCartEntry(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := decodeBody(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.session.Cart.Move(r.Context(), req.From, req.To); err != nil {
		if errors.Is(err, cart.ErrOutOfRange) {
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.respondCartError(w, err, nil)
		return
	}
	h.RespondWithJSON(w, http.StatusOK, h.cartResponse())
}

// ClearCart empties the cart after confirmation
func (h *HTTPHandlerImpl) ClearCart(w http.ResponseWriter, r *http.Request) {
	c := newConfirmation(r)
	if err := h.session.Cart.Clear(r.Context(), c.ask); err != nil {
		h.respondCartError(w, err, c)
		return
	}
	h.RespondWithJSON(w, http.StatusOK, h.cartResponse())
}
