package mapping

import (
	"testing"

	"github.com/marcus/quote-desk/internal/models"
	"github.com/marcus/quote-desk/internal/upstream"
)

func TestLookupStatusTable(t *testing.T) {
	tests := []struct {
		name string
		want models.Status
	}{
		{"Pending", models.StatusPending},
		{"new", models.StatusPending},
		{"Submitted", models.StatusPending},
		{"In Progress", models.StatusProcessing},
		{"work in progress", models.StatusProcessing},
		{"Quoting", models.StatusProcessing},
		{"Approved", models.StatusApproved},
		{"accepted", models.StatusApproved},
		{"Won", models.StatusApproved},
		{"Denied", models.StatusDenied},
		{"Rejected", models.StatusDenied},
		{"cancelled", models.StatusDenied},
		{"Some Future Stage", models.StatusPending}, // unknown defaults
		{"", models.StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lookupStatus(tt.name); got != tt.want {
				t.Errorf("lookupStatus(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestResolveStatusShapes(t *testing.T) {
	candidates := DefaultFieldMap().Status

	tests := []struct {
		name string
		task upstream.Task
		want models.Status
	}{
		{
			name: "structured status object in fields",
			task: upstream.Task{
				ID: 1,
				Fields: map[string]any{
					"Status": map[string]any{"id": float64(2), "name": "Work in Progress", "type": "InProgress"},
				},
			},
			want: models.StatusProcessing,
		},
		{
			name: "bare string status in fields",
			task: upstream.Task{
				ID:     1,
				Fields: map[string]any{"Status": "approved"},
			},
			want: models.StatusApproved,
		},
		{
			name: "structured status at record root",
			task: upstream.Task{
				ID:     1,
				Status: map[string]any{"id": float64(5), "name": "Rejected", "type": "Done"},
			},
			want: models.StatusDenied,
		},
		{
			name: "string status at record root",
			task: upstream.Task{ID: 1, Status: "in review"},
			want: models.StatusProcessing,
		},
		{
			name: "fields-level status wins over root",
			task: upstream.Task{
				ID:     1,
				Status: "approved",
				Fields: map[string]any{"Status": "denied"},
			},
			want: models.StatusDenied,
		},
		{
			name: "secondary candidate name",
			task: upstream.Task{
				ID:     1,
				Fields: map[string]any{"Stage": "won"},
			},
			want: models.StatusApproved,
		},
		{
			name: "no status anywhere",
			task: upstream.Task{ID: 1, Fields: map[string]any{}},
			want: models.StatusPending,
		},
		{
			name: "unknown status name",
			task: upstream.Task{
				ID:     1,
				Fields: map[string]any{"Status": map[string]any{"name": "Waiting On Permits"}},
			},
			want: models.StatusPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveStatus(tt.task, candidates); got != tt.want {
				t.Errorf("ResolveStatus = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatusFieldValue(t *testing.T) {
	v := StatusFieldValue(models.StatusProcessing)
	if v["name"] != "In Progress" || v["type"] != "InProgress" {
		t.Errorf("StatusFieldValue = %v", v)
	}

	// Writing and re-reading a status must land on the same canonical value.
	for _, status := range []models.Status{
		models.StatusPending, models.StatusProcessing, models.StatusApproved, models.StatusDenied,
	} {
		name := StatusFieldValue(status)["name"].(string)
		if got := lookupStatus(name); got != status {
			t.Errorf("status %q round-trips to %q", status, got)
		}
	}
}
