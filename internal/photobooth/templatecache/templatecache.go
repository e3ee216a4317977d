// Package templatecache caches the photo template catalog in Redis.
// The catalog changes rarely and is read on every templates request,
// so a short TTL keeps the database out of the hot path.
package templatecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"event_leads_backend/internal/photobooth/repository"
	"event_leads_backend/platform/logger"
)

const cacheKey = "photobooth:templates"

// Source loads templates from the backing store on a cache miss.
type Source interface {
	ListTemplates(ctx context.Context) ([]repository.Template, error)
}

// Cache is a read-through Redis cache for the template catalog.
// A nil Redis client degrades to straight reads from the source.
type Cache struct {
	rdb *redis.Client
	src Source
	ttl time.Duration
	log *logger.Logger
}

// New creates a template cache. rdb may be nil when Redis is not
// configured.
func New(rdb *redis.Client, src Source, ttl time.Duration, log *logger.Logger) *Cache {
	return &Cache{rdb: rdb, src: src, ttl: ttl, log: log}
}

// cachedTemplate mirrors repository.Template without its JSON tags, so
// the cache round-trips every field the catalog carries.
type cachedTemplate struct {
	Slug       string    `json:"slug"`
	Name       string    `json:"name"`
	Prompt     string    `json:"prompt"`
	PreviewURL string    `json:"previewUrl"`
	Active     bool      `json:"active"`
	SortOrder  int       `json:"sortOrder"`
	CreatedAt  time.Time `json:"createdAt"`
}

// List returns the active templates, served from Redis when possible.
// Cache failures fall back to the source and are logged, never surfaced.
func (c *Cache) List(ctx context.Context) ([]repository.Template, error) {
	if c.rdb == nil {
		return c.src.ListTemplates(ctx)
	}

	payload, err := c.rdb.Get(ctx, cacheKey).Bytes()
	if err == nil {
		var cached []cachedTemplate
		if err := json.Unmarshal(payload, &cached); err == nil {
			return fromCached(cached), nil
		}
		// A corrupt entry is dropped and rebuilt from the source.
		c.rdb.Del(ctx, cacheKey)
	} else if !errors.Is(err, redis.Nil) {
		c.log.Warn("template cache read failed", "error", err)
	}

	templates, err := c.src.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(toCached(templates)); err == nil {
		if err := c.rdb.Set(ctx, cacheKey, payload, c.ttl).Err(); err != nil {
			c.log.Warn("template cache write failed", "error", err)
		}
	}

	return templates, nil
}

// Invalidate drops the cached catalog.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	if err := c.rdb.Del(ctx, cacheKey).Err(); err != nil {
		return fmt.Errorf("invalidate template cache: %w", err)
	}
	return nil
}

func toCached(templates []repository.Template) []cachedTemplate {
	out := make([]cachedTemplate, len(templates))
	for i, t := range templates {
		out[i] = cachedTemplate{
			Slug:       t.Slug,
			Name:       t.Name,
			Prompt:     t.Prompt,
			PreviewURL: t.PreviewURL,
			Active:     t.Active,
			SortOrder:  t.SortOrder,
			CreatedAt:  t.CreatedAt,
		}
	}
	return out
}

func fromCached(cached []cachedTemplate) []repository.Template {
	out := make([]repository.Template, len(cached))
	for i, t := range cached {
		out[i] = repository.Template{
			Slug:       t.Slug,
			Name:       t.Name,
			Prompt:     t.Prompt,
			PreviewURL: t.PreviewURL,
			Active:     t.Active,
			SortOrder:  t.SortOrder,
			CreatedAt:  t.CreatedAt,
		}
	}
	return out
}
