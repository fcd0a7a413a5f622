package mapping

import (
	"testing"
	"time"

	"github.com/marcus/quote-desk/internal/models"
)

func TestCommentLogRoundTrip(t *testing.T) {
	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		comments []models.Comment
	}{
		{"empty log", []models.Comment{}},
		{
			"one comment",
			[]models.Comment{
				{ID: "c1", Author: "Jane", AuthorType: models.AuthorClient, Message: "Looks good", Timestamp: now},
			},
		},
		{
			"several comments keep order",
			[]models.Comment{
				{ID: "c1", Author: "Jane", AuthorType: models.AuthorClient, Message: "First", Timestamp: now.Add(-2 * time.Hour)},
				{ID: "c2", Author: "Mike", AuthorType: models.AuthorContractor, Message: "Second", Timestamp: now.Add(-time.Hour)},
				{ID: "c3", Author: "Jane", AuthorType: models.AuthorClient, Message: "Third", Timestamp: now},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serialized, err := SerializeCommentLog(tt.comments)
			if err != nil {
				t.Fatalf("serialize: %v", err)
			}

			parsed := ParseCommentLog(serialized, now)
			if len(parsed) != len(tt.comments) {
				t.Fatalf("parsed %d comments, want %d", len(parsed), len(tt.comments))
			}
			for i, want := range tt.comments {
				got := parsed[i]
				if got.Author != want.Author || got.AuthorType != want.AuthorType || got.Message != want.Message {
					t.Errorf("comment %d = %+v, want %+v", i, got, want)
				}
				if !got.Timestamp.Equal(want.Timestamp) {
					t.Errorf("comment %d timestamp = %v, want %v", i, got.Timestamp, want.Timestamp)
				}
			}
		})
	}
}

func TestParseCommentLogLegacyFreeText(t *testing.T) {
	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

	comments := ParseCommentLog("called the client, will call back Tuesday", now)
	if len(comments) != 1 {
		t.Fatalf("got %d comments, want 1", len(comments))
	}
	c := comments[0]
	if c.Message != "called the client, will call back Tuesday" {
		t.Errorf("message = %q", c.Message)
	}
	if c.Author != DefaultCommentAuthor {
		t.Errorf("author = %q, want sentinel", c.Author)
	}
	if c.AuthorType != models.AuthorContractor {
		t.Errorf("authorType = %q", c.AuthorType)
	}
	if !c.Timestamp.Equal(now) {
		t.Errorf("timestamp = %v, want now", c.Timestamp)
	}
	if c.ID == "" {
		t.Error("synthesized comment has no id")
	}
}

func TestParseCommentLogFieldFallbacks(t *testing.T) {
	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

	log := `[
		{"text": "message under text key"},
		{"author": "Sal", "authorType": "client", "message": "complete entry", "timestamp": "2026-01-15T10:00:00Z"},
		{"message": "bad timestamp", "timestamp": "sometime last week"},
		{"message": "bogus author type", "authorType": "robot"}
	]`

	comments := ParseCommentLog(log, now)
	if len(comments) != 4 {
		t.Fatalf("got %d comments, want 4", len(comments))
	}

	if comments[0].Message != "message under text key" {
		t.Errorf("text fallback: message = %q", comments[0].Message)
	}
	if comments[0].Author != DefaultCommentAuthor || comments[0].AuthorType != models.AuthorContractor {
		t.Errorf("defaults not applied: %+v", comments[0])
	}

	if comments[1].Author != "Sal" || comments[1].AuthorType != models.AuthorClient {
		t.Errorf("complete entry mangled: %+v", comments[1])
	}
	want := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	if !comments[1].Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", comments[1].Timestamp, want)
	}

	if !comments[2].Timestamp.Equal(now) {
		t.Errorf("unparsable timestamp should default to now, got %v", comments[2].Timestamp)
	}
	if comments[3].AuthorType != models.AuthorContractor {
		t.Errorf("unknown author type should default to contractor, got %q", comments[3].AuthorType)
	}
}

func TestParseCommentLogEmpty(t *testing.T) {
	if got := ParseCommentLog("", time.Now()); got != nil {
		t.Errorf("empty source should yield nil, got %v", got)
	}
}

func TestNewCommentSanitizesMarkup(t *testing.T) {
	now := time.Now()
	c := NewComment("Jane", "client", "<script>alert(1)</script>Looks good", now)
	if c.Message != "Looks good" {
		t.Errorf("message = %q", c.Message)
	}
	if c.Author != "Jane" || c.AuthorType != models.AuthorClient {
		t.Errorf("comment = %+v", c)
	}

	c = NewComment("", "unknown-type", "hi", now)
	if c.Author != DefaultCommentAuthor || c.AuthorType != models.AuthorContractor {
		t.Errorf("defaults not applied: %+v", c)
	}
}
