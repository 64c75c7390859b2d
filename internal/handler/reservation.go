// Package handler renders the reservation store over HTTP.  Handlers only
// forward intents to the store and serialise the snapshots it returns.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/train-seat-reservation/internal/model"
	"github.com/iliyamo/train-seat-reservation/internal/reservation"
)

// ReservationHandler exposes one reservation.Store.
type ReservationHandler struct {
	Store *reservation.Store
	Log   *zap.Logger
}

// NewReservationHandler panics if store is nil.
func NewReservationHandler(store *reservation.Store, log *zap.Logger) *ReservationHandler {
	if store == nil {
		panic("nil store passed to NewReservationHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ReservationHandler{Store: store, Log: log}
}

type countRequest struct {
	Count *int `json:"count"`
}

// GetSeats handles GET /v1/seats.
func (h *ReservationHandler) GetSeats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Store.Snapshot())
}

// Load handles POST /v1/seats/load.
func (h *ReservationHandler) Load(c echo.Context) error {
	op, err := h.Store.Load(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return h.respondOperation(c, op)
}

// Reset handles POST /v1/seats/reset.
func (h *ReservationHandler) Reset(c echo.Context) error {
	op, err := h.Store.Reset(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return h.respondOperation(c, op)
}

// ToggleSeat handles POST /v1/seats/:number/toggle.
func (h *ReservationHandler) ToggleSeat(c echo.Context) error {
	n, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_seat_number", "message": "seat number must be an integer"})
	}
	snap, err := h.Store.ToggleSelection(n)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

// SetCount handles PUT /v1/booking/count with body {"count": n}.  The value
// is stored as given; it is validated when a booking is requested.
func (h *ReservationHandler) SetCount(c echo.Context) error {
	var req countRequest
	if err := c.Bind(&req); err != nil || req.Count == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_body", "message": "count is required"})
	}
	return c.JSON(http.StatusOK, h.Store.SetRequestedCount(*req.Count))
}

// Book handles POST /v1/bookings.  The body is optional; without a count
// the stored requested count is used.
func (h *ReservationHandler) Book(c echo.Context) error {
	var req countRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_body", "message": "count must be an integer"})
	}
	n := h.Store.Snapshot().RequestedCount
	if req.Count != nil {
		n = h.Store.SetRequestedCount(*req.Count).RequestedCount
	}
	op, err := h.Store.RequestBooking(c.Request().Context(), n)
	if err != nil {
		return h.fail(c, err)
	}
	return h.respondOperation(c, op)
}

// Events handles GET /v1/events.  Every state change is written as an SSE
// "snapshot" event until the client goes away.
func (h *ReservationHandler) Events(c echo.Context) error {
	updates := make(chan model.Snapshot, 1)
	push := func(s model.Snapshot) {
		for {
			select {
			case updates <- s:
				return
			default:
			}
			// Keep only the newest snapshot for slow readers.
			select {
			case <-updates:
			default:
			}
		}
	}
	cancel := h.Store.Subscribe(push)
	defer cancel()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	first := h.Store.Snapshot()
	if err := writeEvent(res, first); err != nil {
		return nil
	}
	last := first.Version
	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-updates:
			if s.Version <= last {
				continue
			}
			if err := writeEvent(res, s); err != nil {
				h.Log.Debug("sse client gone", zap.Error(err))
				return nil
			}
			last = s.Version
		}
	}
}

func writeEvent(res *echo.Response, s model.Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(res, "event: snapshot\nid: %d\ndata: %s\n\n", s.Version, data); err != nil {
		return err
	}
	res.Flush()
	return nil
}

// respondOperation answers 202 with the operation id, or with ?wait=true
// blocks until it resolves and answers with its outcome.
func (h *ReservationHandler) respondOperation(c echo.Context, op *reservation.Operation) error {
	wait, _ := strconv.ParseBool(c.QueryParam("wait"))
	if !wait {
		return c.JSON(http.StatusAccepted, echo.Map{
			"operation_id": op.ID(),
			"kind":         op.Kind(),
			"snapshot":     h.Store.Snapshot(),
		})
	}

	out, err := op.Wait(c.Request().Context())
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		// Client stopped waiting; the operation still completes.
		return c.JSON(http.StatusAccepted, echo.Map{"operation_id": op.ID(), "kind": op.Kind()})
	}
	if err != nil {
		return h.fail(c, err)
	}
	body := echo.Map{
		"operation_id": op.ID(),
		"kind":         out.Kind,
		"message":      out.Message,
		"snapshot":     out.Snapshot,
	}
	if out.Kind == reservation.KindBooking {
		body["booked_seats"] = out.BookedSeats
	}
	return c.JSON(http.StatusOK, body)
}

func (h *ReservationHandler) fail(c echo.Context, err error) error {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		h.Log.Warn("reservation operation failed", zap.String("code", code), zap.Error(err))
	}
	return c.JSON(status, echo.Map{"error": code, "message": h.Store.Snapshot().LastMessage})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, reservation.ErrInvalidRequestSize):
		return http.StatusUnprocessableEntity, "invalid_request_size"
	case errors.Is(err, reservation.ErrInsufficientAvailability):
		return http.StatusConflict, "insufficient_availability"
	case errors.Is(err, reservation.ErrPending):
		return http.StatusConflict, "operation_pending"
	case errors.Is(err, reservation.ErrSeatNotFound):
		return http.StatusNotFound, "seat_not_found"
	case errors.Is(err, reservation.ErrSeatBooked):
		return http.StatusConflict, "seat_booked"
	case errors.Is(err, reservation.ErrSelectionLocked):
		return http.StatusConflict, "selection_locked"
	case errors.Is(err, reservation.ErrLoadFailed):
		return http.StatusServiceUnavailable, "load_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
