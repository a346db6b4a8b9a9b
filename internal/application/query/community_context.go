// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/compass-cohort/compass-engagement/internal/domain/content"
	"github.com/compass-cohort/compass-engagement/internal/domain/engagement"
	"github.com/compass-cohort/compass-engagement/internal/domain/program"
	"github.com/compass-cohort/compass-engagement/internal/domain/shared"
	"github.com/compass-cohort/compass-engagement/pkg/dayclock"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMMUNITY CONTEXT QUERY
// Assembles the point-in-time community context for content generation and
// the admin dashboard. Independent reads run concurrently; the result carries
// one AsOf timestamp for the whole object.
// ══════════════════════════════════════════════════════════════════════════════

// ContextCache caches assembled contexts between requests.
type ContextCache interface {
	// Get loads a cached value into dest; returns false on miss.
	Get(ctx context.Context, key string, dest any) (bool, error)

	// Set stores a value with a TTL.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// CommunityContextQuery contains parameters for context assembly.
type CommunityContextQuery struct {
	// BypassCache forces a fresh assembly.
	BypassCache bool
}

// CommunityContextConfig bounds the assembly windows.
type CommunityContextConfig struct {
	DiscussionWindow  time.Duration
	DiscussionLimit   int
	ActiveUserDays    int
	UpcomingEventsMax int
	CacheTTL          time.Duration
}

// DefaultCommunityContextConfig returns default configuration.
func DefaultCommunityContextConfig() CommunityContextConfig {
	return CommunityContextConfig{
		DiscussionWindow:  48 * time.Hour,
		DiscussionLimit:   10,
		ActiveUserDays:    7,
		UpcomingEventsMax: 5,
		CacheTTL:          5 * time.Minute,
	}
}

const contextCacheKey = "community_context"

// CommunityContextHandler assembles the community context.
type CommunityContextHandler struct {
	snapshots engagement.Repository
	programs  program.Repository
	cache     ContextCache
	clock     dayclock.Clock
	config    CommunityContextConfig
	logger    *slog.Logger
}

// NewCommunityContextHandler creates a new CommunityContextHandler. cache may
// be nil to disable caching.
func NewCommunityContextHandler(
	snapshots engagement.Repository,
	programs program.Repository,
	cache ContextCache,
	clock dayclock.Clock,
	config CommunityContextConfig,
	logger *slog.Logger,
) *CommunityContextHandler {
	if config.DiscussionLimit == 0 {
		config = DefaultCommunityContextConfig()
	}
	return &CommunityContextHandler{
		snapshots: snapshots,
		programs:  programs,
		cache:     cache,
		clock:     clock,
		config:    config,
		logger:    logger.With("handler", "community_context"),
	}
}

// Handle assembles the context. Each section degrades independently: a failed
// read is logged and replaced with its documented default, because content
// generation downstream has its own static fallback and an admin dashboard
// with partial data beats no dashboard. Only the error itself is lost, never
// the single-AsOf property.
func (h *CommunityContextHandler) Handle(ctx context.Context, q CommunityContextQuery) (*content.CommunityContext, error) {
	if h.cache != nil && !q.BypassCache {
		var cached content.CommunityContext
		hit, err := h.cache.Get(ctx, contextCacheKey, &cached)
		if err != nil {
			h.logger.Warn("context cache read failed", "error", err)
		} else if hit {
			return &cached, nil
		}
	}

	asOf := h.clock.Now()
	cc := &content.CommunityContext{
		AsOf: asOf,
		Program: content.ProgramState{
			WeekNumber:  content.DefaultWeekNumber,
			ModuleTitle: content.DefaultModuleTitle,
		},
		Discussions:    []content.DiscussionSummary{},
		UpcomingEvents: []content.EventSummary{},
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	// Program state: missing settings fall back to defaults.
	wg.Add(1)
	go func() {
		defer wg.Done()
		week, err := h.programs.GetSetting(ctx, program.SettingCurrentWeek)
		if err != nil {
			if !shared.IsNotFound(err) {
				h.logger.Warn("failed to read current week", "error", err)
			}
		} else if n, convErr := strconv.Atoi(week); convErr == nil && n > 0 {
			mu.Lock()
			cc.Program.WeekNumber = n
			mu.Unlock()
		}

		module, err := h.programs.GetSetting(ctx, program.SettingCurrentModule)
		if err != nil {
			if !shared.IsNotFound(err) {
				h.logger.Warn("failed to read current module", "error", err)
			}
			return
		}
		mu.Lock()
		cc.Program.ModuleTitle = module
		mu.Unlock()
	}()

	// Recent discussions.
	wg.Add(1)
	go func() {
		defer wg.Done()
		since := asOf.Add(-h.config.DiscussionWindow)
		discussions, err := h.programs.RecentDiscussions(ctx, since, h.config.DiscussionLimit)
		if err != nil {
			h.logger.Warn("failed to read recent discussions", "error", err)
			return
		}
		mu.Lock()
		cc.Discussions = discussions
		mu.Unlock()
	}()

	// Active and total user counts.
	wg.Add(1)
	go func() {
		defer wg.Done()
		activeSince := h.clock.Today().AddDays(-h.config.ActiveUserDays + 1)
		active, err := h.snapshots.CountActiveUsersSince(ctx, activeSince)
		if err != nil {
			h.logger.Warn("failed to count active users", "error", err)
		} else {
			mu.Lock()
			cc.ActiveUsers = active
			mu.Unlock()
		}

		total, err := h.snapshots.CountUsers(ctx)
		if err != nil {
			h.logger.Warn("failed to count users", "error", err)
			return
		}
		mu.Lock()
		cc.TotalUsers = total
		mu.Unlock()
	}()

	// Upcoming events.
	wg.Add(1)
	go func() {
		defer wg.Done()
		events, err := h.programs.UpcomingEvents(ctx, asOf, h.config.UpcomingEventsMax)
		if err != nil {
			h.logger.Warn("failed to read upcoming events", "error", err)
			return
		}
		mu.Lock()
		cc.UpcomingEvents = events
		mu.Unlock()
	}()

	wg.Wait()

	if h.cache != nil && h.config.CacheTTL > 0 {
		if err := h.cache.Set(ctx, contextCacheKey, cc, h.config.CacheTTL); err != nil {
			h.logger.Warn("context cache write failed", "error", err)
		}
	}

	return cc, nil
}
