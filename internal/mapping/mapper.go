package mapping

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/marcus/quote-desk/internal/models"
	"github.com/marcus/quote-desk/internal/upstream"
)

// PlaceholderEmail fills clientEmail when no candidate resolves; the model
// never delivers a null or empty email.
const PlaceholderEmail = "unknown@example.com"

// ErrNoTaskID means the upstream record carried no identifier at all; such a
// record cannot become a QuoteRequest and is skipped by bulk listings.
var ErrNoTaskID = errors.New("task has no id")

// Mapper converts upstream tasks to QuoteRequests and back. One instance per
// process; now is injectable for tests.
type Mapper struct {
	fields FieldMap
	now    func() time.Time
}

func NewMapper(fields FieldMap) *Mapper {
	return &Mapper{fields: fields, now: time.Now}
}

// MapTask normalizes a raw task into the canonical model. It is deliberately
// non-throwing for bad data: missing fields get placeholders or empty
// strings, unparsable dates fall back to now, unknown statuses become
// pending. The only hard failure is a record with no identifier.
func (m *Mapper) MapTask(task upstream.Task) (models.QuoteRequest, error) {
	if task.ID == 0 {
		return models.QuoteRequest{}, ErrNoTaskID
	}

	now := m.now()
	id := upstream.TaskID(task)
	fields := task.Fields

	q := models.QuoteRequest{
		ID:          id,
		ClientName:  ResolveString(fields, m.fields.ClientName, "Job #"+id),
		ClientEmail: ResolveString(fields, m.fields.ClientEmail, PlaceholderEmail),
		ClientPhone: ResolveString(fields, m.fields.ClientPhone, ""),
		ProjectType: ResolveString(fields, m.fields.ProjectType, ""),
		Budget:      ResolveString(fields, m.fields.Budget, ""),
		Timeline:    ResolveString(fields, m.fields.Timeline, ""),
		Location:    ResolveString(fields, m.fields.Location, ""),
		Status:      ResolveStatus(task, m.fields.Status),
		Notes:       m.synthesizeNotes(fields),
		Comments:    m.extractComments(fields, now),
	}

	q.ProjectDescription = m.resolveDescription(fields)
	q.EstimatedCost = Number(Resolve(fields, m.fields.EstimatedCost))

	q.SubmittedAt = m.resolveDate(fields, m.fields.SubmittedAt, task.CreatedAt, now)
	q.UpdatedAt = m.resolveDate(fields, m.fields.UpdatedAt, task.UpdatedAt, now)

	return q, nil
}

// FallbackQuote builds a minimal record from nothing but the task identity,
// used when a fuller mapping attempt failed mid-listing.
func (m *Mapper) FallbackQuote(task upstream.Task) models.QuoteRequest {
	now := m.now()
	id := upstream.TaskID(task)
	return models.QuoteRequest{
		ID:          id,
		ClientName:  "Job #" + id,
		ClientEmail: PlaceholderEmail,
		Status:      models.StatusPending,
		SubmittedAt: now,
		UpdatedAt:   now,
		Comments:    []models.Comment{},
	}
}

func (m *Mapper) resolveDate(fields map[string]any, candidates []string, rootValue string, now time.Time) time.Time {
	if v := Resolve(fields, candidates); v != nil {
		return Date(v, now)
	}
	if rootValue != "" {
		return Date(rootValue, now)
	}
	return now
}

// resolveDescription prefers a single descriptive field and otherwise
// synthesizes one from item name, size, and quantity. A distinct extended
// detail field is appended as an "Additional Details" section; identical text
// is not duplicated.
func (m *Mapper) resolveDescription(fields map[string]any) string {
	desc := HTMLToText(ResolveString(fields, m.fields.Description, ""))

	if desc == "" {
		item := ResolveString(fields, m.fields.ItemName, "")
		if item != "" {
			desc = item
			if size := ResolveString(fields, m.fields.ItemSize, ""); size != "" {
				desc += " (" + size + ")"
			}
			if qty := ResolveString(fields, m.fields.ItemQuantity, ""); qty != "" {
				desc += " x" + qty
			}
		}
	}

	extended := HTMLToText(ResolveString(fields, m.fields.ExtendedDetail, ""))
	if extended != "" && !strings.EqualFold(strings.TrimSpace(extended), strings.TrimSpace(desc)) {
		if desc == "" {
			desc = extended
		} else {
			desc += "\n\nAdditional Details: " + extended
		}
	}

	return desc
}

// synthesizeNotes joins every populated notes source, not just the first:
// deployments scatter operator notes across several fields and losing any of
// them is worse than a little concatenation.
func (m *Mapper) synthesizeNotes(fields map[string]any) string {
	var parts []string
	seen := map[string]struct{}{}
	for _, candidate := range m.fields.Notes {
		s := HTMLToText(String(lookupPath(fields, candidate)))
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		parts = append(parts, s)
	}
	return strings.Join(parts, " | ")
}

// extractComments scans the comment-source candidates and takes the first
// populated one. Append order as stored is preserved; the engine never
// reorders or deduplicates a log.
func (m *Mapper) extractComments(fields map[string]any, now time.Time) []models.Comment {
	for _, candidate := range m.fields.CommentLog {
		value := String(lookupPath(fields, candidate))
		if value == "" {
			continue
		}
		if comments := ParseCommentLog(value, now); len(comments) > 0 {
			return comments
		}
	}
	return []models.Comment{}
}

// NewLogComment builds a sanitized comment stamped with the mapper's clock.
func (m *Mapper) NewLogComment(author, authorType, message string) models.Comment {
	return NewComment(author, authorType, message, m.now())
}

// CommentLogKey is the field the serialized comment log writes back under.
func (m *Mapper) CommentLogKey() string {
	return m.fields.CommentLog[0]
}

// RichTextValue wraps plain text in the {value, format, operation} envelope
// upstream rich-text fields expect on write.
func RichTextValue(text string) map[string]any {
	return map[string]any{
		"value":     text,
		"format":    "plain",
		"operation": "replace",
	}
}

// DraftFields reverse-maps a creation draft to an upstream field map. Each
// property writes under its FIRST candidate key only, so a value round-trips
// through this engine's configuration but not necessarily through a
// differently configured reader. That is the compatibility boundary: reader
// and writer must share a field map.
func (m *Mapper) DraftFields(d models.QuoteDraft) map[string]any {
	fields := map[string]any{}
	put := func(candidates []string, value string) {
		if value != "" {
			fields[candidates[0]] = value
		}
	}

	put(m.fields.ClientName, strings.TrimSpace(d.ClientName))
	put(m.fields.ClientEmail, strings.TrimSpace(d.ClientEmail))
	put(m.fields.ClientPhone, strings.TrimSpace(d.ClientPhone))
	put(m.fields.ProjectType, strings.TrimSpace(d.ProjectType))
	put(m.fields.Description, strings.TrimSpace(d.ProjectDescription))
	put(m.fields.Budget, strings.TrimSpace(d.Budget))
	put(m.fields.Timeline, strings.TrimSpace(d.Timeline))
	put(m.fields.Location, strings.TrimSpace(d.Location))
	put(m.fields.Notes, strings.TrimSpace(d.Notes))
	if d.EstimatedCost != nil {
		fields[m.fields.EstimatedCost[0]] = *d.EstimatedCost
	}
	fields[m.fields.Status[0]] = StatusFieldValue(models.StatusPending)
	fields[m.fields.SubmittedAt[0]] = m.now().UTC().Format(time.RFC3339)

	return fields
}

// UpdateFields reverse-maps a partial update; nil properties stay absent.
func (m *Mapper) UpdateFields(u models.QuoteUpdate) (map[string]any, error) {
	fields := map[string]any{}
	put := func(candidates []string, value *string) {
		if value != nil {
			fields[candidates[0]] = strings.TrimSpace(*value)
		}
	}

	put(m.fields.ClientName, u.ClientName)
	put(m.fields.ClientEmail, u.ClientEmail)
	put(m.fields.ClientPhone, u.ClientPhone)
	put(m.fields.ProjectType, u.ProjectType)
	put(m.fields.Description, u.ProjectDescription)
	put(m.fields.Budget, u.Budget)
	put(m.fields.Timeline, u.Timeline)
	put(m.fields.Location, u.Location)
	put(m.fields.Notes, u.Notes)
	if u.EstimatedCost != nil {
		fields[m.fields.EstimatedCost[0]] = *u.EstimatedCost
	}
	if u.Status != nil {
		if !u.Status.Valid() {
			return nil, fmt.Errorf("unknown status %q", *u.Status)
		}
		fields[m.fields.Status[0]] = StatusFieldValue(*u.Status)
	}
	fields[m.fields.UpdatedAt[0]] = m.now().UTC().Format(time.RFC3339)

	return fields, nil
}

// StatusFields is the patch payload for a bare status flip.
func (m *Mapper) StatusFields(status models.Status) map[string]any {
	return map[string]any{
		m.fields.Status[0]:    StatusFieldValue(status),
		m.fields.UpdatedAt[0]: m.now().UTC().Format(time.RFC3339),
	}
}

// CommentLogFields is the patch payload writing back a full comment log.
func (m *Mapper) CommentLogFields(comments []models.Comment) (map[string]any, error) {
	serialized, err := SerializeCommentLog(comments)
	if err != nil {
		return nil, fmt.Errorf("serializing comment log: %w", err)
	}
	return map[string]any{
		m.CommentLogKey():     RichTextValue(serialized),
		m.fields.UpdatedAt[0]: m.now().UTC().Format(time.RFC3339),
	}, nil
}
