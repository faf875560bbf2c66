package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mustafadnc15/ezan-saati-pro/internal/app"
	"github.com/mustafadnc15/ezan-saati-pro/internal/geo"
	"github.com/mustafadnc15/ezan-saati-pro/internal/prayer"
	"github.com/mustafadnc15/ezan-saati-pro/internal/qibla"
	"github.com/mustafadnc15/ezan-saati-pro/internal/timetable"
)

// DaySource resolves locations and fetches timetables. timetable.Service
// implements it.
type DaySource interface {
	Resolve(ctx context.Context, lat, lon float64, city, country string) (timetable.Location, error)
	Day(ctx context.Context, date time.Time, loc timetable.Location, method, school int) (*timetable.Day, error)
}

var errNoLocation = errors.New("lat and lon (or city and country) are required")

// Handler handles HTTP requests.
type Handler struct {
	src   DaySource
	state *app.State
	opts  Options
}

// NewHandler creates a new HTTP handler.
func NewHandler(src DaySource, state *app.State, opts Options) *Handler {
	return &Handler{src: src, state: state, opts: opts}
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	body := gin.H{
		"status": "ok",
		"time":   h.opts.Now().UTC().Format(time.RFC3339),
	}
	if h.state != nil {
		body["phase"] = h.state.Engine().Phase().String()
		body["refreshing"] = h.opts.Refresh != nil && h.opts.Refresh.Running()
		if err := h.state.Err(); err != nil {
			body["last_error"] = err.Error()
		}
	}
	c.JSON(http.StatusOK, body)
}

// coordinateFromQuery reads lat/lon. ok is false when neither is present.
func coordinateFromQuery(c *gin.Context) (coord geo.Coordinate, ok bool, err error) {
	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr == "" && lonStr == "" {
		return geo.Coordinate{}, false, nil
	}
	if latStr == "" || lonStr == "" {
		return geo.Coordinate{}, false, errors.New("lat and lon must be given together")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return geo.Coordinate{}, false, fmt.Errorf("invalid latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return geo.Coordinate{}, false, fmt.Errorf("invalid longitude: %w", err)
	}
	coord = geo.Coordinate{Latitude: lat, Longitude: lon}
	if err := coord.Validate(); err != nil {
		return geo.Coordinate{}, false, err
	}
	return coord, true, nil
}

// GetQibla handles GET /v1/qibla.
func (h *Handler) GetQibla(c *gin.Context) {
	coord, ok, err := coordinateFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !ok && h.state != nil {
		if loc, found := h.state.Location(); found {
			coord, ok = loc.Coordinate(), true
		}
	}
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon are required"})
		return
	}

	bearing := qibla.Bearing(coord)
	body := gin.H{
		"latitude":  coord.Latitude,
		"longitude": coord.Longitude,
		"bearing":   bearing,
		"compass":   qibla.Normalize(bearing),
		"direction": qibla.CompassPoint(bearing),
	}

	if hs := c.Query("heading"); hs != "" {
		heading, err := strconv.Atoi(hs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid heading: %v", err)})
			return
		}
		body["heading"] = qibla.Normalize(heading)
		body["needle"] = qibla.Needle(bearing, heading)
	}

	c.JSON(http.StatusOK, body)
}

// resolve turns the request into a location, falling back to the state's.
// isDefault reports the fallback.
func (h *Handler) resolve(c *gin.Context) (loc timetable.Location, isDefault bool, err error) {
	coord, ok, err := coordinateFromQuery(c)
	if err != nil {
		return timetable.Location{}, false, err
	}
	city, country := c.Query("city"), c.Query("country")
	if ok || city != "" {
		loc, err = h.src.Resolve(c.Request.Context(), coord.Latitude, coord.Longitude, city, country)
		return loc, false, err
	}
	if h.state != nil {
		if loc, found := h.state.Location(); found {
			return timetable.Location{
				Mode:      timetable.ModeCoordinates,
				Latitude:  loc.Latitude,
				Longitude: loc.Longitude,
				City:      loc.City,
				Country:   loc.Country,
				Timezone:  loc.Timezone,
			}, true, nil
		}
	}
	return timetable.Location{}, false, errNoLocation
}

// fetch loads the timetable for date (or today when date is zero) in the
// location's timezone and returns it with the current instant in that zone.
// Only fetches for the default location update the shared state's error.
func (h *Handler) fetch(c *gin.Context, loc timetable.Location, isDefault bool, date time.Time) (*timetable.Day, time.Time, bool) {
	now := h.opts.Now()
	if loc.Timezone != "" {
		if tz, err := time.LoadLocation(loc.Timezone); err == nil {
			now = now.In(tz)
		}
	}
	if date.IsZero() {
		date = now
	}

	day, err := h.src.Day(c.Request.Context(), date, loc, h.opts.Method, h.opts.School)
	if h.state != nil && isDefault {
		h.state.SetError(err)
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return nil, time.Time{}, false
	}

	if loc.Timezone == "" {
		if tz, err := day.TimeZone(""); err == nil {
			now = now.In(tz)
		}
	}
	return day, now, true
}

type timetableResponse struct {
	Date     string            `json:"date"`
	Hijri    string            `json:"hijri,omitempty"`
	Timezone string            `json:"timezone"`
	Timings  map[string]string `json:"timings"`
}

// GetTimetable handles GET /v1/timetable.
func (h *Handler) GetTimetable(c *gin.Context) {
	loc, isDefault, err := h.resolve(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var date time.Time
	if ds := c.Query("date"); ds != "" {
		date, err = time.Parse("2006-01-02", ds)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid date (expected YYYY-MM-DD): %v", err)})
			return
		}
	}

	day, _, ok := h.fetch(c, loc, isDefault, date)
	if !ok {
		return
	}

	tt := day.Timetable()
	resp := timetableResponse{
		Date:     day.Date.Format("2006-01-02"),
		Hijri:    tt.Hijri,
		Timezone: day.Data.Meta.Timezone,
		Timings:  make(map[string]string, len(prayer.Canonical)),
	}
	for _, n := range prayer.Canonical {
		if clock, ok := tt.Clock(n); ok {
			resp.Timings[strings.ToLower(string(n))] = clock.Format(h.opts.TimeLayout)
		}
	}
	c.JSON(http.StatusOK, resp)
}

type nextResponse struct {
	Name             string `json:"name"`
	DisplayName      string `json:"display_name"`
	Time             string `json:"time"`
	RemainingSeconds int    `json:"remaining_seconds"`
	Remaining        string `json:"remaining"`
	Tomorrow         bool   `json:"tomorrow"`
}

// GetNext handles GET /v1/next.
func (h *Handler) GetNext(c *gin.Context) {
	loc, isDefault, err := h.resolve(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	day, now, ok := h.fetch(c, loc, isDefault, time.Time{})
	if !ok {
		return
	}

	state, ok := prayer.SelectNext(day.Timetable(), now)
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no usable prayer times for today"})
		return
	}

	c.JSON(http.StatusOK, nextResponse{
		Name:             string(state.Name),
		DisplayName:      prayer.DisplayName(state.Name, h.opts.Lang),
		Time:             state.Time.Format(h.opts.TimeLayout),
		RemainingSeconds: state.Remaining,
		Remaining:        state.RemainingString(),
		Tomorrow:         state.Tomorrow,
	})
}
