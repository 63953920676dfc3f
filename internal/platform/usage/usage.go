// Package usage counts API traffic per route and per user and serves the
// totals to administrators.
package usage

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/frontdesk/internal/platform/auth"
)

// Request is one served API call.
type Request struct {
	Method   string
	Route    string
	Status   int
	Duration time.Duration
	UserID   string
}

type routeStats struct {
	requests      int64
	errors        int64
	totalDuration time.Duration
	maxDuration   time.Duration
	statusCounts  map[int]int64
}

type userStats struct {
	requests int64
	errors   int64
	lastSeen time.Time
}

// RouteSummary aggregates the requests for one "METHOD /route" key.
type RouteSummary struct {
	Route           string        `json:"route"`
	Resource        string        `json:"resource"`
	TotalRequests   int64         `json:"totalRequests"`
	ErrorRate       float64       `json:"errorRate"`
	AvgLatencyMs    float64       `json:"avgLatencyMs"`
	MaxLatencyMs    float64       `json:"maxLatencyMs"`
	StatusBreakdown map[int]int64 `json:"statusBreakdown"`
}

// UserSummary aggregates the requests made by one authenticated user.
type UserSummary struct {
	UserID        string    `json:"userId"`
	TotalRequests int64     `json:"totalRequests"`
	ErrorRate     float64   `json:"errorRate"`
	LastSeen      time.Time `json:"lastSeen"`
}

type Overview struct {
	Since         time.Time        `json:"since"`
	TotalRequests int64            `json:"totalRequests"`
	TotalErrors   int64            `json:"totalErrors"`
	ErrorRate     float64          `json:"errorRate"`
	AvgLatencyMs  float64          `json:"avgLatencyMs"`
	ByResource    map[string]int64 `json:"byResource"`
	TopRoutes     []*RouteSummary  `json:"topRoutes"`
	TopUsers      []*UserSummary   `json:"topUsers"`
}

// Tracker is safe for concurrent use. It keeps counters only, never
// individual requests, so memory is bounded by the number of routes and users.
type Tracker struct {
	mu            sync.RWMutex
	since         time.Time
	routes        map[string]*routeStats
	users         map[string]*userStats
	totalRequests int64
	totalErrors   int64
	totalDuration time.Duration
	now           func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		since:  time.Now(),
		routes: make(map[string]*routeStats),
		users:  make(map[string]*userStats),
		now:    time.Now,
	}
}

// Record adds r to the counters. Status 400 and above counts as an error.
func (t *Tracker) Record(r Request) {
	isError := r.Status >= 400
	key := r.Method + " " + r.Route

	t.mu.Lock()
	defer t.mu.Unlock()

	t.totalRequests++
	t.totalDuration += r.Duration
	if isError {
		t.totalErrors++
	}

	rs, ok := t.routes[key]
	if !ok {
		rs = &routeStats{statusCounts: make(map[int]int64)}
		t.routes[key] = rs
	}
	rs.requests++
	rs.totalDuration += r.Duration
	if r.Duration > rs.maxDuration {
		rs.maxDuration = r.Duration
	}
	rs.statusCounts[r.Status]++
	if isError {
		rs.errors++
	}

	if r.UserID == "" {
		return
	}
	us, ok := t.users[r.UserID]
	if !ok {
		us = &userStats{}
		t.users[r.UserID] = us
	}
	us.requests++
	us.lastSeen = t.now()
	if isError {
		us.errors++
	}
}

// Routes returns the busiest routes first, at most limit of them (all when
// limit <= 0).
func (t *Tracker) Routes(limit int) []*RouteSummary {
	t.mu.RLock()
	out := make([]*RouteSummary, 0, len(t.routes))
	for key, rs := range t.routes {
		statuses := make(map[int]int64, len(rs.statusCounts))
		for code, n := range rs.statusCounts {
			statuses[code] = n
		}
		out = append(out, &RouteSummary{
			Route:           key,
			Resource:        Resource(key),
			TotalRequests:   rs.requests,
			ErrorRate:       ratio(rs.errors, rs.requests),
			AvgLatencyMs:    avgMs(rs.totalDuration, rs.requests),
			MaxLatencyMs:    ms(rs.maxDuration),
			StatusBreakdown: statuses,
		})
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalRequests != out[j].TotalRequests {
			return out[i].TotalRequests > out[j].TotalRequests
		}
		return out[i].Route < out[j].Route
	})
	return truncate(out, limit)
}

// Users returns the most active users first.
func (t *Tracker) Users(limit int) []*UserSummary {
	t.mu.RLock()
	out := make([]*UserSummary, 0, len(t.users))
	for id, us := range t.users {
		out = append(out, &UserSummary{
			UserID:        id,
			TotalRequests: us.requests,
			ErrorRate:     ratio(us.errors, us.requests),
			LastSeen:      us.lastSeen,
		})
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalRequests != out[j].TotalRequests {
			return out[i].TotalRequests > out[j].TotalRequests
		}
		return out[i].UserID < out[j].UserID
	})
	return truncate(out, limit)
}

func (t *Tracker) Overview(top int) *Overview {
	routes := t.Routes(0)
	byResource := make(map[string]int64)
	for _, r := range routes {
		byResource[r.Resource] += r.TotalRequests
	}

	t.mu.RLock()
	o := &Overview{
		Since:         t.since,
		TotalRequests: t.totalRequests,
		TotalErrors:   t.totalErrors,
		ErrorRate:     ratio(t.totalErrors, t.totalRequests),
		AvgLatencyMs:  avgMs(t.totalDuration, t.totalRequests),
		ByResource:    byResource,
	}
	t.mu.RUnlock()

	o.TopRoutes = truncate(routes, top)
	o.TopUsers = t.Users(top)
	return o
}

// Resource names the record kind a route key addresses: the first path
// segment after the API version, e.g. "GET /api/v1/patients/:id" is "patients".
func Resource(key string) string {
	_, path, _ := strings.Cut(key, " ")
	path = strings.TrimPrefix(path, "/api/v1")
	seg, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if seg == "" {
		return "other"
	}
	return seg
}

// Middleware records every request that reaches a route. It sits after the
// auth middleware so the user ID is known.
func Middleware(tracker *Tracker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}
			route := c.Path()
			if route == "" {
				route = c.Request().URL.Path
			}

			tracker.Record(Request{
				Method:   c.Request().Method,
				Route:    route,
				Status:   status,
				Duration: time.Since(start),
				UserID:   auth.UserIDFromContext(c.Request().Context()),
			})
			return err
		}
	}
}

type Handler struct {
	tracker *Tracker
}

func NewHandler(tracker *Tracker) *Handler {
	return &Handler{tracker: tracker}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/admin/usage", auth.RequireRole(auth.RoleAdmin))
	g.GET("", h.Overview)
	g.GET("/routes", h.Routes)
	g.GET("/users", h.Users)
}

func (h *Handler) Overview(c echo.Context) error {
	return c.JSON(http.StatusOK, h.tracker.Overview(limitParam(c, 10)))
}

func (h *Handler) Routes(c echo.Context) error {
	return c.JSON(http.StatusOK, h.tracker.Routes(limitParam(c, 20)))
}

func (h *Handler) Users(c echo.Context) error {
	return c.JSON(http.StatusOK, h.tracker.Users(limitParam(c, 20)))
}

func limitParam(c echo.Context, def int) int {
	if l := c.QueryParam("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func ratio(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func avgMs(total time.Duration, n int64) float64 {
	if n == 0 {
		return 0
	}
	return ms(total) / float64(n)
}
