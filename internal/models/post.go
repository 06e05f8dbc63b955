// Copyright (c) 2019 SygaTechnology Foundation
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"strconv"
	"time"
)

// TimeLayout is the datetime wire format used in API payloads and in the
// argument pipeline's merged field maps. Status transitions compare these
// values as strings, which stays correct for this fixed-width layout.
const TimeLayout = "2006-01-02 15:04:05"

// DeletedSentinel marks a post as not deleted. It is stored instead of NULL
// so the soft-delete filter is a plain equality check.
var DeletedSentinel = time.Time{}

// FormatTime renders a timestamp in the pipeline's wire format.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// PostStatus represents the publishing state of a post. It is an open enum:
// unrecognized values pass through the pipeline unchanged.
type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusPending   PostStatus = "pending"
	StatusPublish   PostStatus = "publish"
	StatusFuture    PostStatus = "future"
	StatusAutoDraft PostStatus = "auto-draft"
)

// DraftClass reports whether posts with this status may hold an empty slug
// and are exempt from slug uniqueness.
func (s PostStatus) DraftClass() bool {
	return s == StatusDraft || s == StatusPending || s == StatusAutoDraft
}

// CommentStatus values for posts.
const (
	CommentsOpen   = "open"
	CommentsClosed = "closed"
)

// Post is a content item. Its Type field keys into the object type registry.
type Post struct {
	ID              int64      `json:"post_id"`
	Author          int64      `json:"post_author"`
	Date            time.Time  `json:"post_date"`
	Content         string     `json:"post_content"`
	ContentFiltered string     `json:"post_content_filtered"`
	Title           string     `json:"post_title"`
	Excerpt         string     `json:"post_excerpt"`
	Status          PostStatus `json:"post_status"`
	CommentStatus   string     `json:"comment_status"`
	Name            string     `json:"post_name"`
	Modified        time.Time  `json:"post_modified"`
	Parent          int64      `json:"post_parent"`
	Type            string     `json:"post_type"`
	CommentCount    int64      `json:"comment_count"`
	Deleted         time.Time  `json:"-"`

	// Terms is populated by store reads, never written directly.
	Terms []Term `json:"terms,omitempty"`
}

// IsDeleted reports whether the post has been soft-deleted.
func (p *Post) IsDeleted() bool {
	return !p.Deleted.Equal(DeletedSentinel)
}

// FieldMap returns the post's writable columns keyed and formatted the way
// the argument pipeline merges them. The primary key is excluded: merged
// request parameters must never override it.
func (p *Post) FieldMap() map[string]string {
	return map[string]string{
		"post_author":           strconv.FormatInt(p.Author, 10),
		"post_date":             FormatTime(p.Date),
		"post_content":          p.Content,
		"post_content_filtered": p.ContentFiltered,
		"post_title":            p.Title,
		"post_excerpt":          p.Excerpt,
		"post_status":           string(p.Status),
		"comment_status":        p.CommentStatus,
		"post_name":             p.Name,
		"post_modified":         FormatTime(p.Modified),
		"post_parent":           strconv.FormatInt(p.Parent, 10),
		"post_type":             p.Type,
		"comment_count":         strconv.FormatInt(p.CommentCount, 10),
		"post_deleted":          FormatTime(p.Deleted),
	}
}
