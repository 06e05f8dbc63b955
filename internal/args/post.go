// Copyright (c) 2019 SygaTechnology Foundation
// All rights reserved. See LICENSE for details.

package args

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sygacms/internal/models"
	"sygacms/internal/registry"
	"sygacms/internal/slug"
)

// postFieldOrder is the exact projection the persistence layer receives.
// Merged keys outside this list are dropped.
var postFieldOrder = []string{
	"post_author",
	"post_date",
	"post_content",
	"post_content_filtered",
	"post_title",
	"post_excerpt",
	"post_status",
	"post_type",
	"comment_status",
	"post_name",
	"post_modified",
	"post_parent",
}

// PostArgs resolves untrusted post parameters into a validated, ordered
// field set plus meta, file, and term attachments. Fill must complete
// successfully before any result accessor is read.
type PostArgs struct {
	registry *registry.Registry
	posts    PostFinder
	slugs    slug.Lookup
	terms    TermLookup
	user     User
	now      func() time.Time

	errors []string
	kind   ErrorKind
	filled bool

	isNew   bool
	id      int64
	fields  FieldSet
	meta    map[string]any
	files   map[string]FileRef
	termIDs []int64
}

// NewPostArgs wires a post resolver with its collaborators: the object type
// and taxonomy registries, the prior-record reader, the posts slug lookup,
// the term lookup, and the current user.
func NewPostArgs(reg *registry.Registry, posts PostFinder, slugs slug.Lookup, terms TermLookup, user User) *PostArgs {
	return &PostArgs{
		registry: reg,
		posts:    posts,
		slugs:    slugs,
		terms:    terms,
		user:     user,
		now:      time.Now,
	}
}

// Fill resolves the request. A postID of 0 means create; a positive postID
// means update. Validation failures are recorded on the resolver (check
// Valid, then Errors); the returned error reports collaborator failures
// only.
func (a *PostArgs) Fill(req *Request, postID int64) error {
	a.errors = nil
	a.kind = NoError
	a.filled = false

	update := postID > 0
	if update && req.Empty() {
		a.fail(EmptyPayload, "post data empty")
		return nil
	}

	if !update {
		if _, ok := req.Params["post_type"]; !ok {
			a.fail(MissingRequiredField, "post_type param required")
			return nil
		}
	}
	if typ, ok := req.Params["post_type"]; ok && !a.registry.ObjectTypeExists(typ) {
		a.fail(UnknownType, fmt.Sprintf("post type %s does not exist", typ))
		return nil
	}

	return a.resolve(req, postID)
}

func (a *PostArgs) resolve(req *Request, postID int64) error {
	update := postID > 0
	nowStr := a.now().Format(models.TimeLayout)

	defaults := map[string]string{
		"post_author":           strconv.FormatInt(a.user.ID(), 10),
		"post_content":          "",
		"post_excerpt":          "",
		"post_content_filtered": "",
		"post_title":            "",
		"post_status":           string(models.StatusDraft),
		"comment_status":        "",
		"post_parent":           "0",
	}
	merged := mergeOver(req.Params, defaults)
	merged["post_modified"] = nowStr

	var prior map[string]string
	if update {
		var err error
		prior, err = a.posts.FindFields(postID)
		if err != nil {
			return fmt.Errorf("load prior post: %w", err)
		}
		if prior == nil {
			a.fail(NotFound, "post not found")
			return nil
		}
		// Omitted fields inherit the prior record's values.
		merged = mergeOver(req.Params, prior)
		// An explicitly supplied status always wins over the merge result.
		if s, ok := req.Params["post_status"]; ok && s != merged["post_status"] {
			merged["post_status"] = s
		}
		delete(merged, "post_deleted")
		// Postgres has no ON UPDATE timestamp default; stamp it here.
		merged["post_modified"] = nowStr
	} else {
		if _, ok := merged["post_date"]; !ok {
			merged["post_date"] = nowStr
		}
		merged["post_deleted"] = models.FormatTime(models.DeletedSentinel)
	}
	delete(merged, "post_id")

	if !validDate(merged["post_date"]) {
		a.fail(InvalidDate, "invalid date")
		return nil
	}

	// Status transition. The date comparison is a string comparison on
	// purpose: it stays well-defined for out-of-range years.
	status := merged["post_status"]
	if status == "" {
		status = string(models.StatusDraft)
	}
	if status == string(models.StatusPublish) && merged["post_date"] > nowStr {
		status = string(models.StatusFuture)
	} else if status == string(models.StatusFuture) && merged["post_date"] <= nowStr {
		status = string(models.StatusPublish)
	}
	merged["post_status"] = status

	objectType, err := a.registry.ObjectType(merged["post_type"])
	if err != nil {
		// A prior record may carry a type that is no longer registered.
		a.fail(UnknownType, fmt.Sprintf("post type %s does not exist", merged["post_type"]))
		return nil
	}

	// Contributors may not pick the slug of a pending-review post.
	if status == string(models.StatusPending) && !a.user.IsAuthorized(objectType.Cap.PublishPosts) {
		merged["post_name"] = ""
	}

	// Slug derivation. Draft-class posts are allowed an empty slug.
	name := merged["post_name"]
	if name == "" {
		if !models.PostStatus(status).DraftClass() {
			name = slug.Generate(merged["post_title"])
		}
	} else if update {
		// If the supplied slug matches a freshly computed one and the stored
		// slug does too, adopt the canonical form: it may have been generated
		// under an older normalization rule.
		check := slug.Generate(merged["post_title"])
		if strings.ToLower(url.QueryEscape(name)) == check && prior["post_name"] == check {
			name = check
		}
	}

	if merged["comment_status"] == "" {
		if update {
			merged["comment_status"] = models.CommentsClosed
		} else {
			merged["comment_status"] = objectType.DefaultCommentStatus
		}
	}

	if name != "" && !models.PostStatus(status).DraftClass() {
		name, err = slug.Unique(name, postID, a.slugs)
		if err != nil {
			return fmt.Errorf("resolve post slug: %w", err)
		}
	}
	merged["post_name"] = name

	termIDs, kind, msg, err := validateTermInput(a.registry, a.terms, req.Terms)
	if err != nil {
		return err
	}
	if kind != NoError {
		a.fail(kind, msg)
		return nil
	}

	a.fields = newFieldSet(postFieldOrder, merged)
	a.meta = req.Meta
	a.files = metaFiles(req.Files)
	a.termIDs = termIDs
	a.isNew = !update
	a.id = postID
	a.filled = true
	return nil
}

func (a *PostArgs) fail(kind ErrorKind, msg string) {
	a.kind = kind
	a.errors = append(a.errors, msg)
}

// Valid reports whether the last Fill succeeded.
func (a *PostArgs) Valid() bool { return a.kind == NoError && a.filled }

// Kind returns the classification of the recorded failure, if any.
func (a *PostArgs) Kind() ErrorKind { return a.kind }

// Errors returns the human-readable failure messages from the last Fill.
func (a *PostArgs) Errors() []string { return a.errors }

func (a *PostArgs) mustBeFilled() {
	if !a.filled {
		panic("args: PostArgs.Fill must complete successfully before reading results")
	}
}

// IsNew reports whether the resolution targets a create rather than an
// update. Panics if called before a successful Fill.
func (a *PostArgs) IsNew() bool {
	a.mustBeFilled()
	return a.isNew
}

// ID returns the update target id, or 0 for a create.
func (a *PostArgs) ID() int64 {
	a.mustBeFilled()
	return a.id
}

// Fields returns the ordered, validated field projection.
func (a *PostArgs) Fields() FieldSet {
	a.mustBeFilled()
	return a.fields
}

// Meta returns the resolved meta key/value map.
func (a *PostArgs) Meta() map[string]any {
	a.mustBeFilled()
	return a.meta
}

// Files returns the meta file attachments, keyed by their meta key.
func (a *PostArgs) Files() map[string]FileRef {
	a.mustBeFilled()
	return a.files
}

// TermIDs returns the deduplicated term ids to link, in request order.
func (a *PostArgs) TermIDs() []int64 {
	a.mustBeFilled()
	return a.termIDs
}
