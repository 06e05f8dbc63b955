package models

import (
	"testing"
	"time"
)

func TestDraftClass(t *testing.T) {
	tests := []struct {
		status PostStatus
		want   bool
	}{
		{StatusDraft, true},
		{StatusPending, true},
		{StatusAutoDraft, true},
		{StatusPublish, false},
		{StatusFuture, false},
		{PostStatus("custom"), false},
	}

	for _, tt := range tests {
		if got := tt.status.DraftClass(); got != tt.want {
			t.Errorf("DraftClass(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestIsDeleted(t *testing.T) {
	p := &Post{}
	if p.IsDeleted() {
		t.Error("zero Deleted time should not count as deleted")
	}

	p.Deleted = time.Date(2019, 6, 1, 12, 0, 0, 0, time.UTC)
	if !p.IsDeleted() {
		t.Error("non-zero Deleted time should count as deleted")
	}
}

func TestPostFieldMap(t *testing.T) {
	date := time.Date(2019, 3, 15, 10, 30, 0, 0, time.UTC)
	p := &Post{
		ID:            7,
		Author:        3,
		Date:          date,
		Title:         "Hello World",
		Status:        StatusPublish,
		CommentStatus: CommentsOpen,
		Name:          "hello-world",
		Modified:      date,
		Parent:        0,
		Type:          "post",
	}

	fields := p.FieldMap()

	if _, ok := fields["post_id"]; ok {
		t.Error("FieldMap must not expose the primary key")
	}
	if fields["post_author"] != "3" {
		t.Errorf("post_author = %q, want 3", fields["post_author"])
	}
	if fields["post_date"] != "2019-03-15 10:30:00" {
		t.Errorf("post_date = %q, want formatted timestamp", fields["post_date"])
	}
	if fields["post_status"] != "publish" {
		t.Errorf("post_status = %q, want publish", fields["post_status"])
	}
	if fields["post_deleted"] != FormatTime(DeletedSentinel) {
		t.Errorf("post_deleted = %q, want sentinel", fields["post_deleted"])
	}
}

func TestTermFieldMap(t *testing.T) {
	term := &Term{
		ID:          5,
		Name:        "News",
		Slug:        "news",
		Taxonomy:    "category",
		Description: "News items",
		Parent:      0,
		Count:       12,
	}

	fields := term.FieldMap()

	if _, ok := fields["term_id"]; ok {
		t.Error("FieldMap must not expose the primary key")
	}
	if fields["name"] != "News" || fields["slug"] != "news" {
		t.Errorf("unexpected name/slug: %q/%q", fields["name"], fields["slug"])
	}
	if fields["count"] != "12" {
		t.Errorf("count = %q, want 12", fields["count"])
	}
}
