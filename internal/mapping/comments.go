package mapping

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/marcus/quote-desk/internal/models"
)

// DefaultCommentAuthor is the sentinel author for entries whose author was
// never recorded (legacy free-text history, partial JSON entries).
const DefaultCommentAuthor = "Unknown"

// stripTags removes all markup from comment text before it is serialized
// back into the upstream rich-text field.
var stripTags = bluemonday.StrictPolicy()

// rawComment tolerates the field-name drift seen in stored logs: message may
// live under "message" or "text", and any field may be missing.
type rawComment struct {
	ID         string `json:"id"`
	Author     string `json:"author"`
	AuthorType string `json:"authorType"`
	Message    string `json:"message"`
	Text       string `json:"text"`
	Timestamp  string `json:"timestamp"`
}

// ParseCommentLog reads one comment-source field value. A parseable JSON
// array yields structured comments with per-field fallbacks; anything else
// non-empty is legacy free-text history and comes back wrapped as a single
// synthesized comment. Order is preserved as stored; nothing is deduplicated.
func ParseCommentLog(value string, now time.Time) []models.Comment {
	if value == "" {
		return nil
	}

	var raws []rawComment
	if err := json.Unmarshal([]byte(value), &raws); err != nil {
		return []models.Comment{{
			ID:         uuid.NewString(),
			Author:     DefaultCommentAuthor,
			AuthorType: models.AuthorContractor,
			Message:    HTMLToText(value),
			Timestamp:  now,
		}}
	}

	comments := make([]models.Comment, 0, len(raws))
	for _, raw := range raws {
		c := models.Comment{
			ID:         raw.ID,
			Author:     raw.Author,
			AuthorType: raw.AuthorType,
			Message:    raw.Message,
			Timestamp:  Date(raw.Timestamp, now),
		}
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if c.Author == "" {
			c.Author = DefaultCommentAuthor
		}
		if c.AuthorType != models.AuthorClient && c.AuthorType != models.AuthorContractor {
			c.AuthorType = models.AuthorContractor
		}
		if c.Message == "" {
			c.Message = raw.Text
		}
		comments = append(comments, c)
	}
	return comments
}

// SerializeCommentLog renders the full comment list as the JSON array stored
// in the upstream text field. This serialization IS the comment store; the
// upstream system has no native comment primitive.
func SerializeCommentLog(comments []models.Comment) (string, error) {
	if comments == nil {
		comments = []models.Comment{}
	}
	b, err := json.Marshal(comments)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// NewComment builds a sanitized comment entry ready to append to a log.
func NewComment(author, authorType, message string, now time.Time) models.Comment {
	if author == "" {
		author = DefaultCommentAuthor
	}
	if authorType != models.AuthorClient && authorType != models.AuthorContractor {
		authorType = models.AuthorContractor
	}
	return models.Comment{
		ID:         uuid.NewString(),
		Author:     stripTags.Sanitize(author),
		AuthorType: authorType,
		Message:    stripTags.Sanitize(message),
		Timestamp:  now,
	}
}
