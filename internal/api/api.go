// Package api implements the HTTP handlers for the Visitly daemon.
package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/visitly-dev/visitly/internal/clock"
	"github.com/visitly-dev/visitly/internal/query"
	"github.com/visitly-dev/visitly/internal/store"
	"github.com/visitly-dev/visitly/internal/tracker"
	"github.com/visitly-dev/visitly/pkg/schema"
)

// Handler holds the components the endpoints dispatch to. The request
// boundary here is the single place where storage failures become
// responses; detail goes to the log, callers get a generic message.
type Handler struct {
	Tracker *tracker.Tracker
	Store   *store.Store
	Clock   clock.Clock
	Log     *slog.Logger
}

// Ping records a visit for the calling address. The throttle decision is
// the response body; only a missing address or a storage failure changes
// the status code.
func (h *Handler) Ping(c *gin.Context) {
	addr := clientAddress(c)
	if addr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not determine client address"})
		return
	}

	res, err := h.Tracker.Ping(c.Request.Context(), addr)
	if err != nil {
		h.serverError(c, "record ping", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Summary answers the aggregate counts. The three sub-queries are
// independent, so they run concurrently and join before responding.
func (h *Handler) Summary(c *gin.Context) {
	var (
		total  int64
		unique int64
		top    *schema.ActiveUser
	)

	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) {
		total, err = h.Store.TotalPings(ctx)
		return err
	})
	g.Go(func() (err error) {
		unique, err = h.Store.TotalVisitors(ctx)
		return err
	})
	g.Go(func() (err error) {
		top, err = h.Store.MostActiveVisitor(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		h.serverError(c, "load summary", err)
		return
	}

	c.JSON(http.StatusOK, schema.Summary{
		TotalPings:       total,
		TotalUniqueUsers: unique,
		MostActiveUser:   top,
	})
}

// Grouped answers the day-bucketed series. Invalid params are silently
// replaced by defaults before any query is built.
func (h *Handler) Grouped(c *gin.Context) {
	period := query.ParsePeriod(c.Query("period"))
	mode := query.ParseCountMode(c.Query("countType"))

	buckets, err := h.Store.PingsByDay(c.Request.Context(), period, mode, h.Clock.Now())
	if err != nil {
		h.serverError(c, "load grouped pings", err)
		return
	}
	c.JSON(http.StatusOK, buckets)
}

// UniqueActivity answers the paginated per-visitor rollup. Invalid params
// are clamped or defaulted, never rejected.
func (h *Handler) UniqueActivity(c *gin.Context) {
	params := query.ResolveActivityParams(
		c.Query("page"),
		c.Query("pageSize"),
		c.Query("sortBy"),
		c.Query("sortOrder"),
	)

	page, err := h.Store.VisitorActivity(c.Request.Context(), params)
	if err != nil {
		h.serverError(c, "load visitor activity", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Health reports liveness, including reachability of the database.
func (h *Handler) Health(c *gin.Context) {
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		h.Log.Error("health check", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) serverError(c *gin.Context, op string, err error) {
	h.Log.Error(op, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// clientAddress pulls the caller's network address from the trusted proxy
// header, falling back to the socket peer.
func clientAddress(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		// First hop only; later entries are appended by intermediaries.
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	return c.ClientIP()
}
