package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/train-seat-reservation/internal/handler"
	"github.com/iliyamo/train-seat-reservation/internal/reservation"
)

func TestRegisterReservation_LimitsOnlyMutatingRoutes(t *testing.T) {
	store := reservation.New(reservation.FixedSource{}, reservation.WithSleeper(func(time.Duration) {}))
	limited := 0
	limiter := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			limited++
			return c.NoContent(http.StatusTooManyRequests)
		}
	}

	e := echo.New()
	RegisterRoutes(e)
	RegisterReservation(e, handler.NewReservationHandler(store, nil), limiter)

	cases := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/v1/seats", http.StatusOK},
		{http.MethodPost, "/v1/seats/load", http.StatusTooManyRequests},
		{http.MethodPost, "/v1/seats/reset", http.StatusTooManyRequests},
		{http.MethodPost, "/v1/seats/3/toggle", http.StatusTooManyRequests},
		{http.MethodPut, "/v1/booking/count", http.StatusTooManyRequests},
		{http.MethodPost, "/v1/bookings", http.StatusTooManyRequests},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, tc.want, rec.Code, "%s %s", tc.method, tc.path)
	}
	assert.Equal(t, 5, limited)
}
