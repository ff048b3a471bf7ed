package server

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/aep/videolib/api"
	"github.com/aep/videolib/query"
	"github.com/labstack/echo/v4"
)

const (
	createdAtLayout = "2006-01-02T15:04:05.000Z"
	defaultDuration = 300
	thumbnailURL    = "https://picsum.photos/seed/%s/300/200"
)

var errMissingId = &apiError{Code: http.StatusBadRequest, Kind: "Video ID is required"}

func ok[T any](v T, message string) api.Response[T] {
	return api.Response[T]{Success: true, Data: &v, Message: message}
}

func (s *server) load(ctx context.Context) ([]api.Video, error) {
	start := time.Now()
	videos, err := s.store.LoadAll(ctx)
	observeStore("load", start, err)
	return videos, err
}

func (s *server) save(ctx context.Context, videos []api.Video) error {
	start := time.Now()
	err := s.store.SaveAll(ctx, videos)
	observeStore("save", start, err)
	return err
}

func observeStore(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	storeOperationDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
}

func (s *server) handleListVideos(c echo.Context) error {
	params, details := bindListParams(c)
	if len(details) > 0 {
		return errInvalidQuery(details)
	}

	spec, details := toSpec(params, s.config.DateFilter)
	if len(details) > 0 {
		return errInvalidQuery(details)
	}

	videos, err := s.load(c.Request().Context())
	if err != nil {
		return errInternal("Failed to fetch videos", err)
	}

	return c.JSON(http.StatusOK, ok(query.Query(videos, spec), ""))
}

func (s *server) handleGetVideo(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return errMissingId
	}

	videos, err := s.load(c.Request().Context())
	if err != nil {
		return errInternal("Failed to fetch video", err)
	}

	i := indexOf(videos, id)
	if i < 0 {
		return errVideoNotFound
	}
	return c.JSON(http.StatusOK, ok(videos[i], ""))
}

func (s *server) handleCreateVideo(c echo.Context) error {
	var req api.CreateVideoRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()

	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	videos, err := s.load(ctx)
	if err != nil {
		return errInternal("Failed to create video", err)
	}

	id := nextId(videos)
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	video := api.Video{
		Id:           id,
		Title:        req.Title,
		ThumbnailUrl: fmt.Sprintf(thumbnailURL, id),
		CreatedAt:    s.now().UTC().Format(createdAtLayout),
		Duration:     defaultDuration,
		Views:        0,
		Tags:         tags,
	}

	if err := s.save(ctx, append(videos, video)); err != nil {
		return errInternal("Failed to create video", err)
	}

	videoMutationsTotal.WithLabelValues("create").Inc()
	s.publish(api.EventVideoCreated, id, &video)

	return c.JSON(http.StatusCreated, ok(video, "Video created successfully"))
}

func (s *server) handleUpdateVideo(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return errMissingId
	}

	var req api.UpdateVideoRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()

	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	videos, err := s.load(ctx)
	if err != nil {
		return errInternal("Failed to update video", err)
	}

	i := indexOf(videos, id)
	if i < 0 {
		return errVideoNotFound
	}

	if req.Title != nil {
		videos[i].Title = *req.Title
	}
	if req.Tags != nil {
		videos[i].Tags = *req.Tags
		if videos[i].Tags == nil {
			videos[i].Tags = []string{}
		}
	}
	video := videos[i]

	if err := s.save(ctx, videos); err != nil {
		return errInternal("Failed to update video", err)
	}

	videoMutationsTotal.WithLabelValues("update").Inc()
	s.publish(api.EventVideoUpdated, id, &video)

	return c.JSON(http.StatusOK, ok(video, "Video updated successfully"))
}

func (s *server) handleDeleteVideo(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return errMissingId
	}

	ctx := c.Request().Context()

	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	videos, err := s.load(ctx)
	if err != nil {
		return errInternal("Failed to delete video", err)
	}

	i := indexOf(videos, id)
	if i < 0 {
		return errVideoNotFound
	}

	if err := s.save(ctx, slices.Delete(videos, i, i+1)); err != nil {
		return errInternal("Failed to delete video", err)
	}

	videoMutationsTotal.WithLabelValues("delete").Inc()
	s.publish(api.EventVideoDeleted, id, nil)

	return c.JSON(http.StatusOK, api.Response[any]{Success: true, Message: "Video deleted successfully"})
}

func (s *server) handleVideoStats(c echo.Context) error {
	videos, err := s.load(c.Request().Context())
	if err != nil {
		return errInternal("Failed to fetch video statistics", err)
	}
	return c.JSON(http.StatusOK, ok(query.Stats(videos), ""))
}

func (s *server) handleTags(c echo.Context) error {
	videos, err := s.load(c.Request().Context())
	if err != nil {
		return errInternal("Failed to fetch tags", err)
	}
	return c.JSON(http.StatusOK, ok(query.Tags(videos), ""))
}

func indexOf(videos []api.Video, id string) int {
	return slices.IndexFunc(videos, func(v api.Video) bool { return v.Id == id })
}

// nextId is one past the highest numeric v-NNN suffix.
func nextId(videos []api.Video) string {
	n := 0
	for _, v := range videos {
		suffix, found := strings.CutPrefix(v.Id, "v-")
		if !found {
			continue
		}
		if i, err := strconv.Atoi(suffix); err == nil && i > n {
			n = i
		}
	}
	return fmt.Sprintf("v-%03d", n+1)
}
