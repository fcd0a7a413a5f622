package upstream

import (
	"context"
	"fmt"
	"strings"
)

// Task is the raw upstream work record. Fields is a deployment-specific
// property bag whose key set and value shapes vary per field: a status may
// arrive as a bare string or as {id, name, type}, an owner as one object or
// an array of objects. The mapping layer deals with the shapes; nothing in
// this package inspects Fields.
type Task struct {
	ID        int64          `json:"id"`
	Status    any            `json:"status,omitempty"`
	Fields    map[string]any `json:"fields"`
	CreatedAt string         `json:"created_at,omitempty"`
	UpdatedAt string         `json:"updated_at,omitempty"`
}

// PortalSeries is one dashboard data source with its tasks.
type PortalSeries struct {
	ID    string `json:"id"`
	Tasks []Task `json:"tasks"`
}

// PortalMeta describes the portal and its task-creation forms.
type PortalMeta struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Forms []PortalForm `json:"forms"`
}

type PortalForm struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Repository is the thin typed client over the Gateway. Each method is a
// single-purpose translation to one upstream endpoint; no business logic.
type Repository struct {
	gw *Gateway
}

func NewRepository(gw *Gateway) *Repository {
	return &Repository{gw: gw}
}

// GetTask fetches a single task by id.
func (r *Repository) GetTask(ctx context.Context, id string) (Task, error) {
	var task Task
	if err := r.gw.do(ctx, "GET", "task/"+id, nil, &task); err != nil {
		return Task{}, err
	}
	return task, nil
}

// LoadSeries bulk-lists tasks via the portal/load dashboard endpoint.
func (r *Repository) LoadSeries(ctx context.Context, seriesIDs []string) ([]Task, error) {
	path := "portal/load"
	if len(seriesIDs) > 0 {
		path += "?series=" + strings.Join(seriesIDs, ",")
	}

	var resp struct {
		Series []PortalSeries `json:"series"`
	}
	if err := r.gw.do(ctx, "GET", path, nil, &resp); err != nil {
		return nil, err
	}

	var tasks []Task
	for _, series := range resp.Series {
		tasks = append(tasks, series.Tasks...)
	}
	return tasks, nil
}

// GetPortalMeta fetches portal metadata (name and available forms).
func (r *Repository) GetPortalMeta(ctx context.Context) (PortalMeta, error) {
	var meta PortalMeta
	if err := r.gw.do(ctx, "GET", "portal", nil, &meta); err != nil {
		return PortalMeta{}, err
	}
	return meta, nil
}

// CreateTask creates a task through the given form. fields must already be
// upstream-shaped; producing structured values (status objects, rich-text
// envelopes) is the mapper's job, not this layer's.
func (r *Repository) CreateTask(ctx context.Context, formID string, fields map[string]any) (Task, error) {
	body := map[string]any{
		"form_id": formID,
		"fields":  fields,
	}
	var task Task
	if err := r.gw.do(ctx, "POST", "task", body, &task); err != nil {
		return Task{}, err
	}
	return task, nil
}

// PatchTask updates a subset of a task's fields.
func (r *Repository) PatchTask(ctx context.Context, id string, fields map[string]any) (Task, error) {
	body := map[string]any{"fields": fields}
	var task Task
	if err := r.gw.do(ctx, "PATCH", "task/"+id, body, &task); err != nil {
		return Task{}, err
	}
	return task, nil
}

// TaskID renders the upstream numeric id as the opaque identifier used in
// the canonical model.
func TaskID(t Task) string {
	return fmt.Sprintf("%d", t.ID)
}
