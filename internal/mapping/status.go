package mapping

import (
	"strings"

	"github.com/marcus/quote-desk/internal/models"
	"github.com/marcus/quote-desk/internal/upstream"
)

// statusNames maps upstream status names onto the canonical set. Matching is
// case-insensitive on the trimmed name. Anything not listed resolves to
// pending — an unknown upstream stage is a quote nobody has acted on yet, as
// far as the dashboard is concerned.
var statusNames = map[string]models.Status{
	"pending":          models.StatusPending,
	"new":              models.StatusPending,
	"open":             models.StatusPending,
	"submitted":        models.StatusPending,
	"to do":            models.StatusPending,
	"backlog":          models.StatusPending,
	"not started":      models.StatusPending,
	"awaiting review":  models.StatusPending,
	"processing":       models.StatusProcessing,
	"in progress":      models.StatusProcessing,
	"work in progress": models.StatusProcessing,
	"inprogress":       models.StatusProcessing,
	"in review":        models.StatusProcessing,
	"reviewing":        models.StatusProcessing,
	"quoting":          models.StatusProcessing,
	"active":           models.StatusProcessing,
	"approved":         models.StatusApproved,
	"accepted":         models.StatusApproved,
	"won":              models.StatusApproved,
	"done":             models.StatusApproved,
	"complete":         models.StatusApproved,
	"completed":        models.StatusApproved,
	"denied":           models.StatusDenied,
	"rejected":         models.StatusDenied,
	"declined":         models.StatusDenied,
	"lost":             models.StatusDenied,
	"cancelled":        models.StatusDenied,
	"canceled":         models.StatusDenied,
}

// canonicalStatusName is what we write back when patching status upstream.
var canonicalStatusName = map[models.Status]string{
	models.StatusPending:    "Pending",
	models.StatusProcessing: "In Progress",
	models.StatusApproved:   "Approved",
	models.StatusDenied:     "Denied",
}

// canonicalStatusType feeds the {name, type} structured status shape some
// deployments require on write.
var canonicalStatusType = map[models.Status]string{
	models.StatusPending:    "Open",
	models.StatusProcessing: "InProgress",
	models.StatusApproved:   "Done",
	models.StatusDenied:     "Done",
}

// ResolveStatus finds the task's status, checking the fields-level value
// (structured object or bare string) before the record root, then maps the
// name through the fixed table. Unknown or absent names default to pending.
func ResolveStatus(task upstream.Task, candidates []string) models.Status {
	if name := statusName(Resolve(task.Fields, candidates)); name != "" {
		return lookupStatus(name)
	}
	if name := statusName(task.Status); name != "" {
		return lookupStatus(name)
	}
	return models.StatusPending
}

// statusName extracts the status name from either shape: {id, name, type}
// objects resolve through their name, strings pass through.
func statusName(v any) string {
	return String(v)
}

func lookupStatus(name string) models.Status {
	if status, ok := statusNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return status
	}
	return models.StatusPending
}

// StatusFieldValue renders a canonical status as the structured value the
// upstream patch endpoint expects.
func StatusFieldValue(status models.Status) map[string]any {
	return map[string]any{
		"name": canonicalStatusName[status],
		"type": canonicalStatusType[status],
	}
}
