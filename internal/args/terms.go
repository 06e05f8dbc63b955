// Copyright (c) 2019 SygaTechnology Foundation
// All rights reserved. See LICENSE for details.

package args

import (
	"fmt"

	"sygacms/internal/models"
	"sygacms/internal/registry"
)

// TermLookup resolves term rows within a taxonomy. Used by the taxonomy/term
// validator to confirm every requested id belongs to the stated taxonomy.
type TermLookup interface {
	FindByTaxonomyAndIDs(taxonomy string, ids []int64) ([]models.Term, error)
}

// validateTermInput checks each taxonomy's term ids against the registry and
// the terms collection, returning the deduplicated id list in request order.
// The first failing taxonomy stops processing; its kind and message are
// returned without aggregating later failures. A non-nil error is an
// infrastructure failure, not a validation outcome.
func validateTermInput(reg *registry.Registry, lookup TermLookup, input []TaxonomyTerms) ([]int64, ErrorKind, string, error) {
	termIDs := []int64{}
	seen := make(map[int64]bool)

	for _, tt := range input {
		if !reg.TaxonomyExists(tt.Taxonomy) {
			return nil, UnknownTaxonomy, fmt.Sprintf("invalid taxonomy: %s", tt.Taxonomy), nil
		}
		rows, err := lookup.FindByTaxonomyAndIDs(tt.Taxonomy, tt.TermIDs)
		if err != nil {
			return nil, NoError, "", fmt.Errorf("term lookup: %w", err)
		}
		if len(rows) != len(tt.TermIDs) {
			return nil, TermMismatch, fmt.Sprintf("invalid %s terms: %v", tt.Taxonomy, tt.TermIDs), nil
		}
		for _, id := range tt.TermIDs {
			if !seen[id] {
				seen[id] = true
				termIDs = append(termIDs, id)
			}
		}
	}
	return termIDs, NoError, "", nil
}
