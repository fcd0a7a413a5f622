package mapping

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FieldMap holds the ordered candidate key lists for each logical field.
// Order is a priority system: newer or more specific upstream names come
// before generic fallbacks, and resolution returns the first candidate with a
// non-empty value. The lists are deployment configuration, not a contract —
// a YAML override file can replace any of them.
//
// Candidates may use dotted paths for nested lookup (e.g. "Customer.name").
type FieldMap struct {
	ClientName     []string `yaml:"clientName"`
	ClientEmail    []string `yaml:"clientEmail"`
	ClientPhone    []string `yaml:"clientPhone"`
	ProjectType    []string `yaml:"projectType"`
	Description    []string `yaml:"projectDescription"`
	ItemName       []string `yaml:"itemName"`
	ItemSize       []string `yaml:"itemSize"`
	ItemQuantity   []string `yaml:"itemQuantity"`
	ExtendedDetail []string `yaml:"extendedDetail"`
	Budget         []string `yaml:"budget"`
	Timeline       []string `yaml:"timeline"`
	Location       []string `yaml:"location"`
	EstimatedCost  []string `yaml:"estimatedCost"`
	SubmittedAt    []string `yaml:"submittedAt"`
	UpdatedAt      []string `yaml:"updatedAt"`
	Notes          []string `yaml:"notes"`
	Status         []string `yaml:"status"`
	CommentLog     []string `yaml:"commentLog"`
}

// DefaultFieldMap is the candidate table observed across known deployments.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		ClientName:     []string{"Client Name", "Customer.name", "Contact Name", "Requested By", "Name"},
		ClientEmail:    []string{"Client Email", "Customer.email", "Contact Email", "Email"},
		ClientPhone:    []string{"Client Phone", "Customer.phone", "Contact Phone", "Phone"},
		ProjectType:    []string{"Project Type", "Service Type", "Category", "Type"},
		Description:    []string{"Project Description", "Description", "Details"},
		ItemName:       []string{"Item Name", "Item", "Product"},
		ItemSize:       []string{"Size", "Dimensions"},
		ItemQuantity:   []string{"Quantity", "Qty"},
		ExtendedDetail: []string{"Additional Details", "Extended Description", "Long Description"},
		Budget:         []string{"Budget", "Price Range"},
		Timeline:       []string{"Timeline", "Timeframe", "Due"},
		Location:       []string{"Location", "Job Site", "Address"},
		EstimatedCost:  []string{"Estimated Cost", "Estimate", "Quote Amount", "Cost"},
		SubmittedAt:    []string{"Submitted At", "Date Submitted", "Created"},
		UpdatedAt:      []string{"Updated At", "Last Modified", "Modified"},
		Notes:          []string{"Notes", "Internal Notes", "Special Requirements"},
		Status:         []string{"Status", "Stage", "State"},
		CommentLog:     []string{"Comment Log", "Comments", "Discussion"},
	}
}

// LoadFieldMap returns the defaults overlaid with any lists present in the
// YAML file at path. An empty path returns the defaults unchanged.
func LoadFieldMap(path string) (FieldMap, error) {
	fm := DefaultFieldMap()
	if path == "" {
		return fm, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return FieldMap{}, fmt.Errorf("reading field map %s: %w", path, err)
	}

	var override FieldMap
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return FieldMap{}, fmt.Errorf("parsing field map %s: %w", path, err)
	}

	merge := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = src
		}
	}
	merge(&fm.ClientName, override.ClientName)
	merge(&fm.ClientEmail, override.ClientEmail)
	merge(&fm.ClientPhone, override.ClientPhone)
	merge(&fm.ProjectType, override.ProjectType)
	merge(&fm.Description, override.Description)
	merge(&fm.ItemName, override.ItemName)
	merge(&fm.ItemSize, override.ItemSize)
	merge(&fm.ItemQuantity, override.ItemQuantity)
	merge(&fm.ExtendedDetail, override.ExtendedDetail)
	merge(&fm.Budget, override.Budget)
	merge(&fm.Timeline, override.Timeline)
	merge(&fm.Location, override.Location)
	merge(&fm.EstimatedCost, override.EstimatedCost)
	merge(&fm.SubmittedAt, override.SubmittedAt)
	merge(&fm.UpdatedAt, override.UpdatedAt)
	merge(&fm.Notes, override.Notes)
	merge(&fm.Status, override.Status)
	merge(&fm.CommentLog, override.CommentLog)

	return fm, nil
}

// Resolve tries each candidate key in order against the fields bag and
// returns the first non-empty value. Dotted candidates descend into nested
// objects. A candidate whose value coerces to "" is skipped, so an upstream
// deployment that carries the key but leaves it blank falls through to the
// next name.
func Resolve(fields map[string]any, candidates []string) any {
	if fields == nil {
		return nil
	}
	for _, candidate := range candidates {
		v := lookupPath(fields, candidate)
		if v == nil {
			continue
		}
		if String(v) == "" {
			continue
		}
		return v
	}
	return nil
}

// ResolveString is Resolve followed by string coercion, with a default for
// the no-candidate-matched case.
func ResolveString(fields map[string]any, candidates []string, fallback string) string {
	if s := String(Resolve(fields, candidates)); s != "" {
		return s
	}
	return fallback
}

func lookupPath(fields map[string]any, path string) any {
	if !strings.Contains(path, ".") {
		return fields[path]
	}

	var current any = fields
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = obj[part]
		if !ok {
			return nil
		}
	}
	return current
}
