// Package api exposes the search engine over HTTP: a route-finding
// endpoint, a facility-count update endpoint, and a health check,
// following the JSON response shapes and fiber.Map error style of
// this codebase's original handlers.
package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/passbi/subway-access/internal/coordination"
	"github.com/passbi/subway-access/internal/db"
	"github.com/passbi/subway-access/internal/facility"
	"github.com/passbi/subway-access/internal/itinerary"
	"github.com/passbi/subway-access/internal/network"
	"github.com/passbi/subway-access/internal/search"
	"github.com/passbi/subway-access/internal/subway"
	"github.com/passbi/subway-access/internal/weighting"
)

// Server wires the search engine and its dependencies into fiber handlers.
type Server struct {
	engine          *search.Engine
	store           *network.Store
	fac             *facility.Service
	locker          *coordination.Locker
	defaultProfile  subway.Profile
	maxSearchRounds int
}

// NewServer returns a Server ready to be registered with a fiber.App.
// defaultProfile and maxSearchRounds come from config.Config and are
// used whenever a request omits the corresponding field.
func NewServer(store *network.Store, fac *facility.Service, locker *coordination.Locker, defaultProfile subway.Profile, maxSearchRounds int) *Server {
	return &Server{
		engine:          search.New(store, fac),
		store:           store,
		fac:             fac,
		locker:          locker,
		defaultProfile:  defaultProfile,
		maxSearchRounds: maxSearchRounds,
	}
}

// routeSearchRequest is the JSON body of POST /v2/routes. MaxRounds is
// a pointer so an explicit 0 is distinguishable from an omitted field.
type routeSearchRequest struct {
	OriginCode            string   `json:"origin_code"`
	DestinationCodes      []string `json:"destination_codes"`
	DepartureEpochSeconds int64    `json:"departure_epoch_seconds"`
	Profile               string   `json:"profile"`
	MaxRounds             *int     `json:"max_rounds"`
}

// RouteSearch handles POST /v2/routes.
func (s *Server) RouteSearch(c *fiber.Ctx) error {
	var req routeSearchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid_request_body",
			"message": err.Error(),
		})
	}
	if req.OriginCode == "" || len(req.DestinationCodes) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "missing_required_fields",
			"message": "origin_code and destination_codes are required",
		})
	}

	profile := subway.Profile(req.Profile)
	if profile == "" {
		profile = s.defaultProfile
	}

	maxRounds := req.MaxRounds
	if maxRounds == nil {
		maxRounds = &s.maxSearchRounds
	}

	engineReq := search.Request{
		OriginCode:            req.OriginCode,
		DestinationCodes:      req.DestinationCodes,
		DepartureEpochSeconds: req.DepartureEpochSeconds,
		Profile:               profile,
		MaxRounds:             maxRounds,
	}

	ctx := c.Context()
	result, err := s.engine.FindRoutes(ctx, engineReq)
	if err != nil {
		return mapEngineError(c, err)
	}

	w, err := weighting.For(profile)
	if err != nil {
		return mapEngineError(c, err)
	}

	ranked := itinerary.Rank(result.Pool, s.store, result.Labels, w, 3)
	return c.JSON(fiber.Map{"itineraries": toResponses(ranked)})
}

type itineraryResponse struct {
	Rank                  int                    `json:"rank"`
	RouteSequence         []string               `json:"route_sequence"`
	RouteLines            []string               `json:"route_lines"`
	TransferInfo          []transferInfoResponse `json:"transfer_info"`
	TotalTimeMinutes      float64                `json:"total_time_minutes"`
	Transfers             int                    `json:"transfers"`
	AvgConvenience        float64                `json:"avg_convenience"`
	AvgCongestion         float64                `json:"avg_congestion"`
	MaxTransferDifficulty float64                `json:"max_transfer_difficulty"`
	Score                 float64                `json:"score"`
}

type transferInfoResponse struct {
	StationCode string `json:"station_code"`
	FromLine    string `json:"from_line"`
	ToLine      string `json:"to_line"`
}

func toResponses(ranked []itinerary.Ranked) []itineraryResponse {
	out := make([]itineraryResponse, len(ranked))
	for i, r := range ranked {
		transfers := make([]transferInfoResponse, len(r.TransferInfo))
		for j, t := range r.TransferInfo {
			transfers[j] = transferInfoResponse{StationCode: t.StationCode, FromLine: t.FromLine, ToLine: t.ToLine}
		}
		out[i] = itineraryResponse{
			Rank:                  r.Rank,
			RouteSequence:         r.RouteSequence,
			RouteLines:            r.RouteLines,
			TransferInfo:          transfers,
			TotalTimeMinutes:      r.TotalTimeMinutes,
			Transfers:             r.Transfers,
			AvgConvenience:        r.AvgConvenience,
			AvgCongestion:         r.AvgCongestion,
			MaxTransferDifficulty: r.MaxTransferDifficulty,
			Score:                 r.Score,
		}
	}
	return out
}

// facilityUpdateRequest is the JSON body of POST /v2/facility-counts.
type facilityUpdateRequest struct {
	Rows []facilityUpdateRow `json:"rows"`
}

type facilityUpdateRow struct {
	StationCodes []string `json:"station_codes"`
	Charger      float64  `json:"charger"`
	Elevator     float64  `json:"elevator"`
	Escalator    float64  `json:"escalator"`
	Lift         float64  `json:"lift"`
	MovingWalk   float64  `json:"moving_walk"`
	SafePlatform float64  `json:"safe_platform"`
	SignPhone    float64  `json:"sign_phone"`
	Toilet       float64  `json:"toilet"`
	Helper       float64  `json:"helper"`
}

// UpdateFacilityCounts handles POST /v2/facility-counts. Concurrent
// writers are serialized through the Redis lock: a writer that finds
// it taken waits for it to clear and tries to take it again, so two
// overlapping updates never write at the same time.
func (s *Server) UpdateFacilityCounts(c *fiber.Ctx) error {
	var req facilityUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid_request_body",
			"message": err.Error(),
		})
	}

	ctx := c.Context()
	acquired, err := s.locker.AcquireFacilityWriteLock(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "lock_unavailable",
			"message": err.Error(),
		})
	}
	for !acquired {
		if err := s.locker.WaitForFacilityWriteLock(ctx, 0); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error":   "facility_writer_busy",
				"message": "another facility count update is in progress",
			})
		}
		acquired, err = s.locker.AcquireFacilityWriteLock(ctx)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "lock_unavailable",
				"message": err.Error(),
			})
		}
	}
	defer s.locker.ReleaseFacilityWriteLock(ctx)

	rows := make([]facility.UpdateRow, len(req.Rows))
	for i, row := range req.Rows {
		rows[i] = facility.UpdateRow{
			StationCodes: row.StationCodes,
			Counts: facility.Counts{
				Charger:      row.Charger,
				Elevator:     row.Elevator,
				Escalator:    row.Escalator,
				Lift:         row.Lift,
				MovingWalk:   row.MovingWalk,
				SafePlatform: row.SafePlatform,
				SignPhone:    row.SignPhone,
				Toilet:       row.Toilet,
				Helper:       row.Helper,
			},
		}
	}

	s.fac.UpdateFacilityCounts(rows, func(code string) (network.StationID, bool) {
		id, err := s.store.StationID(code)
		if err != nil {
			return 0, false
		}
		return id, true
	})

	return c.JSON(fiber.Map{"status": "updated", "rows": len(rows)})
}

// Health handles GET /health.
func (s *Server) Health(c *fiber.Ctx) error {
	ctx := c.Context()

	dbErr := db.HealthCheck(ctx)
	dbStatus := "ok"
	if dbErr != nil {
		dbStatus = dbErr.Error()
	}

	redisErr := s.locker.Ping(ctx)
	redisStatus := "ok"
	if redisErr != nil {
		redisStatus = redisErr.Error()
	}

	status := "healthy"
	httpStatus := fiber.StatusOK
	if dbErr != nil || redisErr != nil {
		status = "degraded"
		httpStatus = fiber.StatusServiceUnavailable
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":   status,
		"database": dbStatus,
		"redis":    redisStatus,
	})
}

// mapEngineError maps the core error kinds from spec.md §7 onto HTTP
// status codes.
func mapEngineError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, subway.ErrUnknownStation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "unknown_station",
			"message": err.Error(),
		})
	case errors.Is(err, subway.ErrInvalidProfile):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid_profile",
			"message": err.Error(),
		})
	case errors.Is(err, subway.ErrInconsistentNetwork):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "inconsistent_network",
			"message": err.Error(),
		})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return c.Status(fiber.StatusRequestTimeout).JSON(fiber.Map{
			"error":   "search_cancelled",
			"message": err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_error",
			"message": fmt.Sprintf("%v", err),
		})
	}
}
