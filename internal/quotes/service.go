// Package quotes orchestrates the task repository and the mapping engine
// behind the operations the dashboard UI calls.
package quotes

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/marcus/quote-desk/internal/mapping"
	"github.com/marcus/quote-desk/internal/models"
	"github.com/marcus/quote-desk/internal/upstream"
)

// TaskRepository is the slice of the upstream client this service needs.
type TaskRepository interface {
	GetTask(ctx context.Context, id string) (upstream.Task, error)
	LoadSeries(ctx context.Context, seriesIDs []string) ([]upstream.Task, error)
	GetPortalMeta(ctx context.Context) (upstream.PortalMeta, error)
	CreateTask(ctx context.Context, formID string, fields map[string]any) (upstream.Task, error)
	PatchTask(ctx context.Context, id string, fields map[string]any) (upstream.Task, error)
}

type Service struct {
	repo      TaskRepository
	mapper    *mapping.Mapper
	formID    string
	seriesIDs []string
}

func NewService(repo TaskRepository, mapper *mapping.Mapper, formID string, seriesIDs []string) *Service {
	return &Service{repo: repo, mapper: mapper, formID: formID, seriesIDs: seriesIDs}
}

// List fetches and maps every quote task. A single record that fails to map
// is substituted with a minimal fallback built from what the repository
// already saw, or skipped when not even an identity survived; one bad record
// never aborts the whole listing.
func (s *Service) List(ctx context.Context) ([]models.QuoteRequest, error) {
	tasks, err := s.repo.LoadSeries(ctx, s.seriesIDs)
	if err != nil {
		return nil, err
	}

	quotes := make([]models.QuoteRequest, 0, len(tasks))
	for _, task := range tasks {
		q, err := s.mapper.MapTask(task)
		if err != nil {
			if task.ID == 0 {
				log.Printf("[quotes] skipping unmappable record: %v", err)
				continue
			}
			log.Printf("[quotes] mapping task %d failed, using fallback: %v", task.ID, err)
			q = s.mapper.FallbackQuote(task)
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

// Get fetches and maps one quote.
func (s *Service) Get(ctx context.Context, id string) (models.QuoteRequest, error) {
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return models.QuoteRequest{}, err
	}
	return s.mapper.MapTask(task)
}

// Create validates the draft, reverse-maps it, creates the upstream task,
// and returns the draft re-wrapped under the upstream-assigned identifier.
func (s *Service) Create(ctx context.Context, draft models.QuoteDraft) (models.QuoteRequest, error) {
	if err := mapping.ValidateDraft(draft); err != nil {
		return models.QuoteRequest{}, err
	}

	created, err := s.repo.CreateTask(ctx, s.formID, s.mapper.DraftFields(draft))
	if err != nil {
		return models.QuoteRequest{}, err
	}
	if created.ID == 0 {
		return models.QuoteRequest{}, fmt.Errorf("upstream returned a task with no id")
	}

	q := s.mapper.FallbackQuote(created)
	q.ClientName = strings.TrimSpace(draft.ClientName)
	q.ClientEmail = strings.TrimSpace(draft.ClientEmail)
	q.ClientPhone = strings.TrimSpace(draft.ClientPhone)
	q.ProjectType = strings.TrimSpace(draft.ProjectType)
	q.ProjectDescription = strings.TrimSpace(draft.ProjectDescription)
	q.Budget = strings.TrimSpace(draft.Budget)
	q.Timeline = strings.TrimSpace(draft.Timeline)
	q.Location = strings.TrimSpace(draft.Location)
	q.Notes = strings.TrimSpace(draft.Notes)
	q.EstimatedCost = draft.EstimatedCost
	return q, nil
}

// Update reverse-maps a partial update and patches the task. The patched
// echo is remapped; when the echo is unusable the task is re-fetched, since
// a quote only ever mutates by re-fetch-and-remap.
func (s *Service) Update(ctx context.Context, id string, update models.QuoteUpdate) (models.QuoteRequest, error) {
	fields, err := s.mapper.UpdateFields(update)
	if err != nil {
		return models.QuoteRequest{}, err
	}

	patched, err := s.repo.PatchTask(ctx, id, fields)
	if err != nil {
		return models.QuoteRequest{}, err
	}
	if q, mapErr := s.mapper.MapTask(patched); mapErr == nil {
		return q, nil
	}
	return s.Get(ctx, id)
}

// UpdateStatus flips a quote's status. A failed upstream patch is logged and
// the locally-updated value is still returned: losing a visible status flip
// over a transient upstream hiccup is worse than a brief divergence.
func (s *Service) UpdateStatus(ctx context.Context, id string, status models.Status) (models.QuoteRequest, error) {
	if !status.Valid() {
		return models.QuoteRequest{}, fmt.Errorf("unknown status %q", status)
	}

	q, err := s.Get(ctx, id)
	if err != nil {
		return models.QuoteRequest{}, err
	}

	patched, err := s.repo.PatchTask(ctx, id, s.mapper.StatusFields(status))
	if err != nil {
		log.Printf("[quotes] status patch for %s failed, keeping local value: %v", id, err)
		q.Status = status
		return q, nil
	}

	mapped, mapErr := s.mapper.MapTask(patched)
	if mapErr != nil {
		q.Status = status
		return q, nil
	}
	mapped.Status = status
	return mapped, nil
}

// AddComment appends one entry to the quote's comment log and writes the
// whole serialized log back upstream. The append is local-first: a failed
// upstream write is logged and the updated quote is still returned.
func (s *Service) AddComment(ctx context.Context, id, message, author, authorType string) (models.QuoteRequest, error) {
	if strings.TrimSpace(message) == "" {
		return models.QuoteRequest{}, fmt.Errorf("comment message is required")
	}

	q, err := s.Get(ctx, id)
	if err != nil {
		return models.QuoteRequest{}, err
	}

	comment := s.mapper.NewLogComment(author, authorType, message)
	q.Comments = append(q.Comments, comment)

	fields, err := s.mapper.CommentLogFields(q.Comments)
	if err != nil {
		return models.QuoteRequest{}, err
	}
	if _, err := s.repo.PatchTask(ctx, id, fields); err != nil {
		log.Printf("[quotes] comment write-back for %s failed, keeping local value: %v", id, err)
	}
	return q, nil
}

// Search filters the full listing by case-insensitive substring across
// client name, email, project description, and project type.
func (s *Service) Search(ctx context.Context, query string) ([]models.QuoteRequest, error) {
	quotes, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return quotes, nil
	}

	matched := make([]models.QuoteRequest, 0, len(quotes))
	for _, q := range quotes {
		haystack := strings.ToLower(strings.Join([]string{
			q.ClientName, q.ClientEmail, q.ProjectDescription, q.ProjectType,
		}, "\n"))
		if strings.Contains(haystack, needle) {
			matched = append(matched, q)
		}
	}
	return matched, nil
}

// Stats aggregates per-status counts and the estimated-cost sum.
func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	quotes, err := s.List(ctx)
	if err != nil {
		return models.Stats{}, err
	}

	var stats models.Stats
	stats.Total = len(quotes)
	for _, q := range quotes {
		switch q.Status {
		case models.StatusPending:
			stats.Pending++
		case models.StatusProcessing:
			stats.Processing++
		case models.StatusApproved:
			stats.Approved++
		case models.StatusDenied:
			stats.Denied++
		}
		if q.EstimatedCost != nil {
			stats.TotalEstimatedCost += *q.EstimatedCost
		}
	}
	return stats, nil
}

// TestConnection verifies the upstream is reachable and authorized by
// fetching portal metadata.
func (s *Service) TestConnection(ctx context.Context) (upstream.PortalMeta, error) {
	return s.repo.GetPortalMeta(ctx)
}
