// Copyright (c) 2019 SygaTechnology Foundation
// All rights reserved. See LICENSE for details.

package args

import (
	"fmt"

	"sygacms/internal/registry"
	"sygacms/internal/slug"
)

// termFieldOrder is the exact projection the persistence layer receives for
// terms.
var termFieldOrder = []string{
	"name",
	"slug",
	"taxonomy",
	"description",
	"parent",
	"count",
}

// TermArgs resolves untrusted term parameters into a validated, ordered
// field set plus meta and file attachments. Same contract as PostArgs,
// without the status and date machinery.
type TermArgs struct {
	registry *registry.Registry
	terms    TermFinder
	slugs    slug.Lookup

	errors []string
	kind   ErrorKind
	filled bool

	isNew  bool
	id     int64
	fields FieldSet
	meta   map[string]any
	files  map[string]FileRef
}

// NewTermArgs wires a term resolver with the taxonomy registry, the
// prior-record reader, and the terms slug lookup.
func NewTermArgs(reg *registry.Registry, terms TermFinder, slugs slug.Lookup) *TermArgs {
	return &TermArgs{
		registry: reg,
		terms:    terms,
		slugs:    slugs,
	}
}

// Fill resolves the request. A termID of 0 means create; a positive termID
// means update. Validation failures are recorded on the resolver; the
// returned error reports collaborator failures only.
func (a *TermArgs) Fill(req *Request, termID int64) error {
	a.errors = nil
	a.kind = NoError
	a.filled = false

	update := termID > 0
	if update && req.Empty() {
		a.fail(EmptyPayload, "term data empty")
		return nil
	}

	if !update {
		_, hasName := req.Params["name"]
		_, hasTaxonomy := req.Params["taxonomy"]
		if !hasName || !hasTaxonomy {
			a.fail(MissingRequiredField, "term taxonomy and term name params required")
			return nil
		}
	}
	if tax, ok := req.Params["taxonomy"]; ok && !a.registry.TaxonomyExists(tax) {
		a.fail(UnknownTaxonomy, fmt.Sprintf("term taxonomy %s does not exist", tax))
		return nil
	}

	return a.resolve(req, termID)
}

func (a *TermArgs) resolve(req *Request, termID int64) error {
	update := termID > 0

	defaults := map[string]string{
		"name":        "",
		"slug":        "",
		"taxonomy":    "",
		"description": "",
		"parent":      "0",
		"count":       "0",
	}
	merged := mergeOver(req.Params, defaults)

	if update {
		prior, err := a.terms.FindFields(termID)
		if err != nil {
			return fmt.Errorf("load prior term: %w", err)
		}
		if prior == nil {
			a.fail(NotFound, "term not found")
			return nil
		}
		merged = mergeOver(req.Params, prior)
		// The usage count is never client-settable.
		merged["count"] = prior["count"]
		// Taxonomy may be overridden explicitly, otherwise it is inherited.
		if tax, ok := req.Params["taxonomy"]; ok && tax != merged["taxonomy"] {
			merged["taxonomy"] = tax
		}
	} else if merged["slug"] == "" {
		merged["slug"] = slug.Generate(merged["name"])
	}
	delete(merged, "term_id")

	if merged["slug"] != "" {
		resolved, err := slug.Unique(merged["slug"], termID, a.slugs)
		if err != nil {
			return fmt.Errorf("resolve term slug: %w", err)
		}
		merged["slug"] = resolved
	}

	a.fields = newFieldSet(termFieldOrder, merged)
	a.meta = req.Meta
	a.files = metaFiles(req.Files)
	a.isNew = !update
	a.id = termID
	a.filled = true
	return nil
}

func (a *TermArgs) fail(kind ErrorKind, msg string) {
	a.kind = kind
	a.errors = append(a.errors, msg)
}

// Valid reports whether the last Fill succeeded.
func (a *TermArgs) Valid() bool { return a.kind == NoError && a.filled }

// Kind returns the classification of the recorded failure, if any.
func (a *TermArgs) Kind() ErrorKind { return a.kind }

// Errors returns the human-readable failure messages from the last Fill.
func (a *TermArgs) Errors() []string { return a.errors }

func (a *TermArgs) mustBeFilled() {
	if !a.filled {
		panic("args: TermArgs.Fill must complete successfully before reading results")
	}
}

// IsNew reports whether the resolution targets a create rather than an
// update. Panics if called before a successful Fill.
func (a *TermArgs) IsNew() bool {
	a.mustBeFilled()
	return a.isNew
}

// ID returns the update target id, or 0 for a create.
func (a *TermArgs) ID() int64 {
	a.mustBeFilled()
	return a.id
}

// Fields returns the ordered, validated field projection.
func (a *TermArgs) Fields() FieldSet {
	a.mustBeFilled()
	return a.fields
}

// Meta returns the resolved meta key/value map.
func (a *TermArgs) Meta() map[string]any {
	a.mustBeFilled()
	return a.meta
}

// Files returns the meta file attachments, keyed by their meta key.
func (a *TermArgs) Files() map[string]FileRef {
	a.mustBeFilled()
	return a.files
}
