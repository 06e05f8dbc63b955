// Copyright (c) 2019 SygaTechnology Foundation
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"strings"

	"sygacms/internal/args"
	"sygacms/internal/models"
)

// TermStore handles all term-related database operations.
type TermStore struct {
	db *sql.DB
}

// NewTermStore creates a new TermStore with the given database connection.
func NewTermStore(db *sql.DB) *TermStore {
	return &TermStore{db: db}
}

const termColumns = `term_id, name, slug, taxonomy, description, parent, count`

func scanTerm(scanner interface{ Scan(...any) error }) (*models.Term, error) {
	var t models.Term
	err := scanner.Scan(&t.ID, &t.Name, &t.Slug, &t.Taxonomy, &t.Description, &t.Parent, &t.Count)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FindByID retrieves a term by id. Returns nil if not found.
func (s *TermStore) FindByID(id int64) (*models.Term, error) {
	t, err := scanTerm(s.db.QueryRow(`SELECT `+termColumns+` FROM terms WHERE term_id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find term by id: %w", err)
	}
	return t, nil
}

// FindFields returns the prior record's field map for the argument pipeline.
// Implements args.TermFinder.
func (s *TermStore) FindFields(id int64) (map[string]string, error) {
	t, err := s.FindByID(id)
	if err != nil || t == nil {
		return nil, err
	}
	return t.FieldMap(), nil
}

// FindByTaxonomyAndIDs returns the terms with the given ids that belong to
// the taxonomy. Implements args.TermLookup for the taxonomy/term validator.
func (s *TermStore) FindByTaxonomyAndIDs(taxonomy string, ids []int64) ([]models.Term, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	params := []any{taxonomy}
	for _, id := range ids {
		params = append(params, id)
	}
	rows, err := s.db.Query(
		`SELECT `+termColumns+` FROM terms WHERE taxonomy = $1 AND term_id IN (`+placeholders(2, len(ids))+`)`,
		params...,
	)
	if err != nil {
		return nil, fmt.Errorf("find terms by taxonomy: %w", err)
	}
	defer rows.Close()

	var terms []models.Term
	for rows.Next() {
		t, err := scanTerm(rows)
		if err != nil {
			return nil, fmt.Errorf("scan term: %w", err)
		}
		terms = append(terms, *t)
	}
	return terms, rows.Err()
}

// SlugsLike returns every term slug beginning with the given prefix,
// excluding the term with excludeID. Implements slug.Lookup for the terms
// collection.
func (s *TermStore) SlugsLike(prefix string, excludeID int64) ([]string, error) {
	query := `SELECT slug FROM terms WHERE slug LIKE $1 || '%'`
	params := []any{escapeLike(prefix)}
	if excludeID > 0 {
		query += ` AND term_id <> $2`
		params = append(params, excludeID)
	}

	rows, err := s.db.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("term slugs like: %w", err)
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("scan term slug: %w", err)
		}
		slugs = append(slugs, slug)
	}
	return slugs, rows.Err()
}

// Create inserts a term with its meta rows. Returns the new term id, or
// ErrSlugConflict when the unique index rejects the slug.
func (s *TermStore) Create(fields args.FieldSet, meta map[string]any) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("create term: %w", err)
	}
	defer tx.Rollback()

	cols := fields.Keys()
	vals := make([]any, len(cols))
	for i, k := range cols {
		vals[i] = fields.Get(k)
	}
	var id int64
	err = tx.QueryRow(
		`INSERT INTO terms (`+strings.Join(cols, ", ")+`) VALUES (`+placeholders(1, len(cols))+`) RETURNING term_id`,
		vals...,
	).Scan(&id)
	if isUniqueViolation(err) {
		return 0, ErrSlugConflict
	}
	if err != nil {
		return 0, fmt.Errorf("insert term: %w", err)
	}

	if err := replaceTermMeta(tx, id, meta); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("create term: %w", err)
	}
	return id, nil
}

// Update writes a term's resolved fields and meta rows.
func (s *TermStore) Update(id int64, fields args.FieldSet, meta map[string]any) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("update term: %w", err)
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
		`UPDATE terms SET `+strings.Join(sets, ", ")+fmt.Sprintf(` WHERE term_id = $%d`, len(cols)+1),
		vals...,
	)
	if isUniqueViolation(err) {
		return ErrSlugConflict
	}
	if err != nil {
		return fmt.Errorf("update term: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}

	if len(meta) > 0 {
		if err := replaceTermMeta(tx, id, meta); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func replaceTermMeta(tx *sql.Tx, termID int64, meta map[string]any) error {
	for key, raw := range meta {
		value, err := metaValue(raw)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM termmeta WHERE term_id = $1 AND meta_key = $2`, termID, key); err != nil {
			return fmt.Errorf("replace term meta: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO termmeta (term_id, meta_key, meta_value) VALUES ($1, $2, $3)`,
			termID, key, value,
		); err != nil {
			return fmt.Errorf("insert term meta: %w", err)
		}
	}
	return nil
}

// Delete hard-deletes a term, cascading to its post links and meta rows.
// Returns sql.ErrNoRows for an unknown id.
func (s *TermStore) Delete(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete term: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM term_relationships WHERE term_id = $1`, id); err != nil {
		return fmt.Errorf("delete term links: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM termmeta WHERE term_id = $1`, id); err != nil {
		return fmt.Errorf("delete term meta: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM terms WHERE term_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete term: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

// TermListOptions filter and paginate term listings. Page is 1-based.
type TermListOptions struct {
	Taxonomy   string // empty or "*" disables the taxonomy filter
	Page       int
	Limit      int
	Order      string // whitelisted column, default name
	Descending bool
}

var termOrderColumns = map[string]bool{
	"term_id":  true,
	"name":     true,
	"slug":     true,
	"taxonomy": true,
	"count":    true,
}

// List returns a page of terms plus the total row count for the filter.
func (s *TermStore) List(opts TermListOptions) ([]models.Term, int, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 {
		opts.Limit = 10
	}

	filter := ""
	params := []any{}
	if opts.Taxonomy != "" && opts.Taxonomy != "*" {
		params = append(params, opts.Taxonomy)
		filter = " WHERE taxonomy = $1"
	}

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM terms`+filter, params...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count terms: %w", err)
	}

	order := opts.Order
	if !termOrderColumns[order] {
		order = "name"
	}
	dir := "ASC"
	if opts.Descending {
		dir = "DESC"
	}

	params = append(params, opts.Limit, (opts.Page-1)*opts.Limit)
	rows, err := s.db.Query(
		`SELECT `+termColumns+` FROM terms`+filter+
			fmt.Sprintf(` ORDER BY %s %s LIMIT $%d OFFSET $%d`, order, dir, len(params)-1, len(params)),
		params...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list terms: %w", err)
	}
	defer rows.Close()

	var terms []models.Term
	for rows.Next() {
		t, err := scanTerm(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan term: %w", err)
		}
		terms = append(terms, *t)
	}
	return terms, total, rows.Err()
}
