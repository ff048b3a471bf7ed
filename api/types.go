package api

import (
	"time"
)

type Video struct {
	Id           string   `json:"id"`
	Title        string   `json:"title"`
	ThumbnailUrl string   `json:"thumbnail_url"`
	CreatedAt    string   `json:"created_at"`
	Duration     float64  `json:"duration"`
	Views        int64    `json:"views"`
	Tags         []string `json:"tags"`
}

// CreateVideoRequest is the body of POST /api/videos.
type CreateVideoRequest struct {
	Title string   `json:"title"`
	Tags  []string `json:"tags,omitempty"`
}

// UpdateVideoRequest is the body of PUT /api/videos/:id. Absent fields are left untouched.
type UpdateVideoRequest struct {
	Title *string   `json:"title,omitempty"`
	Tags  *[]string `json:"tags,omitempty"`
}

type VideoList struct {
	Videos []Video `json:"videos"`
	Total  int     `json:"total"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

type Stats struct {
	Total           int     `json:"total"`
	TotalViews      int64   `json:"totalViews"`
	AverageDuration float64 `json:"averageDuration"`
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// ListParams are the query parameters of GET /api/videos.
type ListParams struct {
	Sort     *string `json:"sort,omitempty"`
	Order    *string `json:"order,omitempty"`
	Search   *string `json:"search,omitempty"`
	Tags     *string `json:"tags,omitempty"`
	DateFrom *string `json:"dateFrom,omitempty"`
	DateTo   *string `json:"dateTo,omitempty"`
	Limit    *int    `json:"limit,omitempty"`
	Offset   *int    `json:"offset,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Response[T any] struct {
	Success bool         `json:"success"`
	Data    *T           `json:"data,omitempty"`
	Error   string       `json:"error,omitempty"`
	Message string       `json:"message,omitempty"`
	Details []FieldError `json:"details,omitempty"`
	Stack   string       `json:"stack,omitempty"`
}

type Health struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Uptime      float64   `json:"uptime"`
	Environment string    `json:"environment"`
	Version     string    `json:"version"`
}

type MemoryStats struct {
	Alloc      uint64 `json:"alloc"`
	TotalAlloc uint64 `json:"totalAlloc"`
	Sys        uint64 `json:"sys"`
	HeapInuse  uint64 `json:"heapInuse"`
	NumGC      uint32 `json:"numGC"`
}

type DetailedHealth struct {
	Health
	Memory     MemoryStats `json:"memory"`
	Goroutines int         `json:"goroutines"`
	Platform   string      `json:"platform"`
	GoVersion  string      `json:"goVersion"`
	Store      string      `json:"store"`
}

const (
	EventVideoCreated = "video.created"
	EventVideoUpdated = "video.updated"
	EventVideoDeleted = "video.deleted"
)

// Event is published on the bus after every successful mutation.
type Event struct {
	Type  string    `json:"type"`
	Id    string    `json:"id"`
	Video *Video    `json:"video,omitempty"`
	At    time.Time `json:"at"`
}
