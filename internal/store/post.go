// Copyright (c) 2019 SygaTechnology Foundation
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"sygacms/internal/args"
	"sygacms/internal/models"
)

// PostStore handles all post-related database operations, including the
// attached meta rows and term links.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

const postColumns = `post_id, post_author, post_date, post_content, post_content_filtered,
	       post_title, post_excerpt, post_status, comment_status, post_name,
	       post_modified, post_parent, post_type, comment_count, post_deleted`

// scanPost scans a row into a Post struct.
func scanPost(scanner interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	err := scanner.Scan(
		&p.ID, &p.Author, &p.Date, &p.Content, &p.ContentFiltered,
		&p.Title, &p.Excerpt, &p.Status, &p.CommentStatus, &p.Name,
		&p.Modified, &p.Parent, &p.Type, &p.CommentCount, &p.Deleted,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByID retrieves a post by id, regardless of deletion state. Returns nil
// if not found.
func (s *PostStore) FindByID(id int64) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRow(`SELECT `+postColumns+` FROM posts WHERE post_id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by id: %w", err)
	}

	terms, err := s.termsFor(p.ID)
	if err != nil {
		return nil, err
	}
	p.Terms = terms
	return p, nil
}

// FindFields returns the prior record's field map for the argument pipeline.
// Implements args.PostFinder.
func (s *PostStore) FindFields(id int64) (map[string]string, error) {
	p, err := s.FindByID(id)
	if err != nil || p == nil {
		return nil, err
	}
	return p.FieldMap(), nil
}

// SlugsLike returns every post slug beginning with the given prefix,
// excluding the post with excludeID. Implements slug.Lookup for the posts
// collection.
func (s *PostStore) SlugsLike(prefix string, excludeID int64) ([]string, error) {
	query := `SELECT post_name FROM posts WHERE post_name LIKE $1 || '%'`
	params := []any{escapeLike(prefix)}
	if excludeID > 0 {
		query += ` AND post_id <> $2`
		params = append(params, excludeID)
	}

	rows, err := s.db.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("post slugs like: %w", err)
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan post slug: %w", err)
		}
		slugs = append(slugs, name)
	}
	return slugs, rows.Err()
}

// Create inserts a post with its meta rows and term links in one
// transaction. Returns the new post id, or ErrSlugConflict if a concurrent
// write claimed the slug.
func (s *PostStore) Create(fields args.FieldSet, meta map[string]any, termIDs []int64) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("create post: %w", err)
	}
	defer tx.Rollback()

	cols := fields.Keys()
	vals := make([]any, len(cols))
	for i, k := range cols {
		vals[i] = fields.Get(k)
	}
	var id int64
	err = tx.QueryRow(
		`INSERT INTO posts (`+strings.Join(cols, ", ")+`) VALUES (`+placeholders(1, len(cols))+`) RETURNING post_id`,
		vals...,
	).Scan(&id)
	if isUniqueViolation(err) {
		return 0, ErrSlugConflict
	}
	if err != nil {
		return 0, fmt.Errorf("insert post: %w", err)
	}

	if err := replacePostMeta(tx, id, meta); err != nil {
		return 0, err
	}
	if err := replacePostTerms(tx, id, termIDs); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("create post: %w", err)
	}
	return id, nil
}

// Update writes a post's resolved fields, meta rows, and term links.
// Meta and term links are only touched when the request carried them.
func (s *PostStore) Update(id int64, fields args.FieldSet, meta map[string]any, termIDs []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	defer tx.Rollback()

	cols := fields.Keys()
	sets := make([]string, len(cols))
	vals := make([]any, 0, len(cols)+1)
	for i, k := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", k, i+1)
		vals = append(vals, fields.Get(k))
	}
	vals = append(vals, id)

	res, err := tx.Exec(
		`UPDATE posts SET `+strings.Join(sets, ", ")+fmt.Sprintf(` WHERE post_id = $%d`, len(cols)+1),
		vals...,
	)
	if isUniqueViolation(err) {
		return ErrSlugConflict
	}
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}

	if len(meta) > 0 {
		if err := replacePostMeta(tx, id, meta); err != nil {
			return err
		}
	}
	if len(termIDs) > 0 {
		if err := deletePostTerms(tx, id); err != nil {
			return err
		}
		if err := replacePostTerms(tx, id, termIDs); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

// replacePostMeta upserts the given meta keys for a post. Structured values
// are flattened to their stored string form.
func replacePostMeta(tx *sql.Tx, postID int64, meta map[string]any) error {
	for key, raw := range meta {
		value, err := metaValue(raw)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM postmeta WHERE post_id = $1 AND meta_key = $2`, postID, key); err != nil {
			return fmt.Errorf("replace post meta: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO postmeta (post_id, meta_key, meta_value) VALUES ($1, $2, $3)`,
			postID, key, value,
		); err != nil {
			return fmt.Errorf("insert post meta: %w", err)
		}
	}
	return nil
}

func replacePostTerms(tx *sql.Tx, postID int64, termIDs []int64) error {
	for _, termID := range termIDs {
		if _, err := tx.Exec(
			`INSERT INTO term_relationships (object_id, term_id) VALUES ($1, $2)`,
			postID, termID,
		); err != nil {
			return fmt.Errorf("link post term: %w", err)
		}
		if _, err := tx.Exec(`UPDATE terms SET count = count + 1 WHERE term_id = $1`, termID); err != nil {
			return fmt.Errorf("bump term count: %w", err)
		}
	}
	return nil
}

func deletePostTerms(tx *sql.Tx, postID int64) error {
	if _, err := tx.Exec(
		`UPDATE terms SET count = count - 1
		 WHERE count > 0 AND term_id IN (SELECT term_id FROM term_relationships WHERE object_id = $1)`,
		postID,
	); err != nil {
		return fmt.Errorf("drop term counts: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM term_relationships WHERE object_id = $1`, postID); err != nil {
		return fmt.Errorf("unlink post terms: %w", err)
	}
	return nil
}

// Delete soft-deletes a post: its meta rows and term links are removed and
// the deletion timestamp is set. Returns sql.ErrNoRows for an unknown id.
func (s *PostStore) Delete(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM postmeta WHERE post_id = $1`, id); err != nil {
		return fmt.Errorf("delete post meta: %w", err)
	}
	if err := deletePostTerms(tx, id); err != nil {
		return err
	}
	res, err := tx.Exec(`UPDATE posts SET post_deleted = $1 WHERE post_id = $2`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

// Purge hard-deletes every soft-deleted post along with any leftover meta
// rows and term links. Returns the number of purged posts.
func (s *PostStore) Purge() (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("purge posts: %w", err)
	}
	defer tx.Rollback()

	deletedFilter := `SELECT post_id FROM posts WHERE post_deleted <> $1`
	sentinel := models.DeletedSentinel

	if _, err := tx.Exec(`DELETE FROM postmeta WHERE post_id IN (`+deletedFilter+`)`, sentinel); err != nil {
		return 0, fmt.Errorf("purge post meta: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM term_relationships WHERE object_id IN (`+deletedFilter+`)`, sentinel); err != nil {
		return 0, fmt.Errorf("purge post terms: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM posts WHERE post_deleted <> $1`, sentinel)
	if err != nil {
		return 0, fmt.Errorf("purge posts: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), tx.Commit()
}

// PostListOptions filter and paginate post listings. Page is 1-based.
type PostListOptions struct {
	Status      string // empty or "all" disables the status filter
	Page        int
	Limit       int
	Order       string // whitelisted column, default post_date
	Descending  bool
	WithDeleted bool
	DeletedOnly bool
}

// postOrderColumns whitelists sortable columns.
var postOrderColumns = map[string]bool{
	"post_id":       true,
	"post_date":     true,
	"post_modified": true,
	"post_title":    true,
	"post_name":     true,
}

// List returns a page of posts plus the total row count for the filter.
func (s *PostStore) List(opts PostListOptions) ([]models.Post, int, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 {
		opts.Limit = 10
	}

	where := []string{}
	params := []any{}
	switch {
	case opts.DeletedOnly:
		params = append(params, models.DeletedSentinel)
		where = append(where, fmt.Sprintf("post_deleted <> $%d", len(params)))
	case !opts.WithDeleted:
		params = append(params, models.DeletedSentinel)
		where = append(where, fmt.Sprintf("post_deleted = $%d", len(params)))
	}
	if opts.Status != "" && opts.Status != "all" {
		params = append(params, opts.Status)
		where = append(where, fmt.Sprintf("post_status = $%d", len(params)))
	}
	filter := ""
	if len(where) > 0 {
		filter = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM posts`+filter, params...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	order := opts.Order
	if !postOrderColumns[order] {
		order = "post_date"
	}
	dir := "ASC"
	if opts.Descending {
		dir = "DESC"
	}

	params = append(params, opts.Limit, (opts.Page-1)*opts.Limit)
	rows, err := s.db.Query(
		`SELECT `+postColumns+` FROM posts`+filter+
			fmt.Sprintf(` ORDER BY %s %s LIMIT $%d OFFSET $%d`, order, dir, len(params)-1, len(params)),
		params...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := s.attachTerms(posts); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// termsFor returns the terms linked to a single post.
func (s *PostStore) termsFor(postID int64) ([]models.Term, error) {
	rows, err := s.db.Query(
		`SELECT t.term_id, t.name, t.slug, t.taxonomy, t.description, t.parent, t.count
		 FROM terms t
		 JOIN term_relationships tr ON tr.term_id = t.term_id
		 WHERE tr.object_id = $1
		 ORDER BY t.taxonomy, t.name`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("post terms: %w", err)
	}
	defer rows.Close()

	var terms []models.Term
	for rows.Next() {
		var t models.Term
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.Taxonomy, &t.Description, &t.Parent, &t.Count); err != nil {
			return nil, fmt.Errorf("scan post term: %w", err)
		}
		terms = append(terms, t)
	}
	return terms, rows.Err()
}

// attachTerms populates Terms for a listed page of posts.
func (s *PostStore) attachTerms(posts []models.Post) error {
	for i := range posts {
		terms, err := s.termsFor(posts[i].ID)
		if err != nil {
			return err
		}
		posts[i].Terms = terms
	}
	return nil
}
