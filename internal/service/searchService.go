package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gatherhub/gatherhub/config"
	repository "github.com/gatherhub/gatherhub/internal/database/postgres"
	"github.com/gatherhub/gatherhub/internal/entity"
	"github.com/gatherhub/gatherhub/pkg/embedding"

	"github.com/sirupsen/logrus"
)

// candidate pool for in-process similarity ranking
const semanticCandidateLimit = 500

// Embedder turns text into a vector. Satisfied by the embedding client.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

type SearchMode string

const (
	SearchModeSemantic SearchMode = "semantic"
	SearchModeText     SearchMode = "text"
)

// SearchResult carries the matched events and the mode that produced them,
// so callers can tell a degraded text search from a semantic one.
type SearchResult struct {
	Events []*entity.EventWithAttendance `json:"events"`
	Mode   SearchMode                    `json:"mode"`
}

type searchService struct {
	eventRepo repository.EventRepository
	rsvpRepo  repository.RSVPRepository
	embedder  Embedder
	eventCfg  config.EventConfig
}

// NewSearchService creates a new instance of SearchService. A nil embedder
// pins the service to text mode.
func NewSearchService(
	eventRepo repository.EventRepository,
	rsvpRepo repository.RSVPRepository,
	embedder Embedder,
	eventCfg config.EventConfig,
) SearchService {
	return &searchService{
		eventRepo: eventRepo,
		rsvpRepo:  rsvpRepo,
		embedder:  embedder,
		eventCfg:  eventCfg,
	}
}

func (s *searchService) SearchEvents(ctx context.Context, query string, limit int) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", entity.ErrValidation)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	if s.embedder != nil {
		events, err := s.searchSemantic(ctx, query, limit)
		if err == nil {
			return s.buildResult(ctx, events, SearchModeSemantic)
		}
		// Embedding dependency down: degrade to text search rather than fail
		logrus.Warnf("Semantic search unavailable, falling back to text search: %v", err)
	}

	events, err := s.eventRepo.SearchByText(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search events: %w", err)
	}

	return s.buildResult(ctx, events, SearchModeText)
}

func (s *searchService) searchSemantic(ctx context.Context, query string, limit int) ([]*entity.Event, error) {
	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrDependencyUnavailable, err)
	}

	candidates, err := s.eventRepo.GetWithEmbedding(ctx, semanticCandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get embedded events: %w", err)
	}

	type scored struct {
		event *entity.Event
		score float64
	}

	ranked := make([]scored, 0, len(candidates))
	for _, event := range candidates {
		score := embedding.CosineSimilarity(queryVector, event.Embedding)
		ranked = append(ranked, scored{event: event, score: score})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].event.ID < ranked[j].event.ID
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	events := make([]*entity.Event, 0, len(ranked))
	for _, r := range ranked {
		events = append(events, r.event)
	}

	return events, nil
}

func (s *searchService) buildResult(ctx context.Context, events []*entity.Event, mode SearchMode) (*SearchResult, error) {
	now := time.Now()

	result := &SearchResult{
		Events: make([]*entity.EventWithAttendance, 0, len(events)),
		Mode:   mode,
	}
	for _, event := range events {
		goingCount, err := s.rsvpRepo.CountGoing(ctx, event.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count going rsvps: %w", err)
		}

		result.Events = append(result.Events, &entity.EventWithAttendance{
			Event:      *event,
			Status:     event.Status(now, s.eventCfg.DefaultDuration),
			GoingCount: goingCount,
		})
	}

	return result, nil
}
