package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/theirongolddev/copilotpulse/internal/model"
	"github.com/theirongolddev/copilotpulse/internal/pipeline"
)

// Router builds the HTTP handler.
func (s *Service) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.metrics.middleware())

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok\n") })
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))

	v1 := r.Group("/v1")
	v1.GET("/status", func(c *gin.Context) { c.JSON(http.StatusOK, s.snapshotStatus()) })
	v1.GET("/events", s.handleEvents)
	v1.GET("/stream", s.handleStream)
	v1.POST("/reload", s.handleReload)

	v1.GET("/stats", s.view(func(ds model.Dataset, _ *gin.Context) (any, error) {
		return pipeline.Stats(ds), nil
	}))
	v1.GET("/summary", s.view(func(ds model.Dataset, _ *gin.Context) (any, error) {
		return pipeline.Summarize(ds), nil
	}))
	v1.GET("/daily", s.view(func(ds model.Dataset, _ *gin.Context) (any, error) {
		days := pipeline.AggregateDays(ds)
		return gin.H{"days": days, "active_users": pipeline.ActiveUserTrend(days)}, nil
	}))
	v1.GET("/users", s.view(func(ds model.Dataset, c *gin.Context) (any, error) {
		n, err := intQuery(c, "limit", pipeline.DefaultTopUsers)
		return pipeline.AggregateUsers(ds, n), err
	}))
	v1.GET("/heatmap", s.view(func(ds model.Dataset, c *gin.Context) (any, error) {
		n, err := intQuery(c, "limit", pipeline.DefaultHeatmapUsers)
		return pipeline.AggregateHeatmap(ds, n), err
	}))
	v1.GET("/languages", s.view(func(ds model.Dataset, c *gin.Context) (any, error) {
		n, err := intQuery(c, "limit", pipeline.DefaultTopLanguages)
		return pipeline.TopLanguagesByUsage(ds, n), err
	}))
	v1.GET("/languages/acceptance", s.view(func(ds model.Dataset, c *gin.Context) (any, error) {
		n, err := intQuery(c, "limit", pipeline.DefaultTopLanguages)
		if err != nil {
			return nil, err
		}
		floor, err := intQuery(c, "min_generations", pipeline.MinLanguageGenerations)
		return pipeline.TopLanguagesByRate(ds, int64(floor), n), err
	}))
	v1.GET("/features", s.view(func(ds model.Dataset, _ *gin.Context) (any, error) {
		return pipeline.AggregateFeatures(ds), nil
	}))
	v1.GET("/features/users", s.view(func(ds model.Dataset, c *gin.Context) (any, error) {
		n, err := intQuery(c, "limit", pipeline.DefaultFeatureUsers)
		return pipeline.AggregateFeaturesByUser(ds, n), err
	}))
	v1.GET("/ides", s.view(func(ds model.Dataset, _ *gin.Context) (any, error) {
		return pipeline.AggregateIDEs(ds), nil
	}))
	v1.GET("/models", s.view(func(ds model.Dataset, c *gin.Context) (any, error) {
		n, err := intQuery(c, "limit", pipeline.DefaultTopModels)
		return pipeline.AggregateModels(ds, n), err
	}))
	v1.GET("/adoption", s.view(func(ds model.Dataset, _ *gin.Context) (any, error) {
		return pipeline.AggregateAdoption(ds), nil
	}))
	v1.GET("/detail", s.handleDetail)

	return r
}

// view wraps an aggregation over the filtered snapshot.
func (s *Service) view(fn func(model.Dataset, *gin.Context) (any, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := fn(s.filtered(c, true), c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// filtered applies ?users= and, when withDays is set, ?from= and ?to=.
func (s *Service) filtered(c *gin.Context, withDays bool) model.Dataset {
	ds := s.store.Snapshot().Dataset
	if users := splitList(c.Query("users")); len(users) > 0 {
		ds = pipeline.FilterUsers(ds, users)
	}
	if withDays {
		if from, to := c.Query("from"), c.Query("to"); from != "" || to != "" {
			ds = pipeline.FilterDays(ds, from, to)
		}
	}
	return ds
}

func (s *Service) handleDetail(c *gin.Context) {
	raw := c.DefaultQuery("sort", string(model.SortDate))
	sort, ok := model.ParseDetailSort(raw)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid sort %q", raw)})
		return
	}
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Date bounds go through the query so the unfiltered cap applies.
	q := model.DetailQuery{From: c.Query("from"), To: c.Query("to"), Sort: sort, Limit: limit}
	c.JSON(http.StatusOK, pipeline.DetailRows(s.filtered(c, false), q))
}

func (s *Service) handleReload(c *gin.Context) {
	if err := s.Reload(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleEvents(c *gin.Context) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	c.JSON(http.StatusOK, events)
}

func (s *Service) handleStream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	writeSSE(c.Writer, Event{
		Type:      "snapshot",
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case ev := <-ch:
			writeSSE(w, ev)
			return true
		}
	})
}

func writeSSE(w io.Writer, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
