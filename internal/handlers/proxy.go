package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	nominatimBase      = "https://nominatim.openstreetmap.org"
	nominatimUserAgent = "ListyGo/1.0 (listings marketplace)"
)

var geocodeClient = &http.Client{Timeout: 10 * time.Second}

// GeocodeSearch proxies forward geocoding so the frontend never hits
// Nominatim directly (its usage policy requires a stable User-Agent).
func GeocodeSearch() gin.HandlerFunc {
	return func(c *gin.Context) {
		query := strings.TrimSpace(c.Query("q"))
		if query == "" {
			respondError(c, http.StatusBadRequest, "q required")
			return
		}

		params := url.Values{}
		params.Set("q", query)
		params.Set("format", "json")
		params.Set("limit", "5")

		proxyNominatim(c, nominatimBase+"/search?"+params.Encode())
	}
}

// GeocodeReverse proxies reverse geocoding (coordinates to address).
func GeocodeReverse() gin.HandlerFunc {
	return func(c *gin.Context) {
		lat := strings.TrimSpace(c.Query("lat"))
		lon := strings.TrimSpace(c.Query("lon"))
		if lat == "" || lon == "" {
			respondError(c, http.StatusBadRequest, "lat and lon required")
			return
		}

		params := url.Values{}
		params.Set("lat", lat)
		params.Set("lon", lon)
		params.Set("format", "json")

		proxyNominatim(c, nominatimBase+"/reverse?"+params.Encode())
	}
}

func proxyNominatim(c *gin.Context, target string) {
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, target, nil)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "geocoding request failed")
		return
	}
	req.Header.Set("User-Agent", nominatimUserAgent)

	resp, err := geocodeClient.Do(req)
	if err != nil {
		zap.S().Warnw("geocode proxy request failed", "error", err)
		respondError(c, http.StatusBadGateway, "geocoding service unavailable")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		zap.S().Warnw("geocode proxy upstream error", "status", resp.StatusCode)
		respondError(c, http.StatusBadGateway, "geocoding service error")
		return
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		respondError(c, http.StatusBadGateway, "geocoding service error")
		return
	}

	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		respondError(c, http.StatusBadGateway, "geocoding service returned invalid data")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}
