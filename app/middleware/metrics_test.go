package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	app := fiber.New()
	app.Use(Metrics("/metrics"))
	app.Get("/campaigns/:id", func(c fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/metrics", func(c fiber.Ctx) error { return c.SendString("scrape") })

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "/campaigns/:id", "200")
	before := testutil.ToFloat64(counter)

	for _, path := range []string{"/campaigns/1", "/campaigns/2"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	assert.Equal(t, before+2, testutil.ToFloat64(counter))

	scrape := httpRequestsTotal.WithLabelValues(http.MethodGet, "/metrics", "200")
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, testutil.ToFloat64(scrape))
	assert.Zero(t, testutil.ToFloat64(httpInFlight))
}
