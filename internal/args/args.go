// Copyright (c) 2019 SygaTechnology Foundation
// All rights reserved. See LICENSE for details.

// Package args implements the argument resolution pipeline: it turns an
// untrusted, partially-specified parameter set from a client request into a
// fully validated, normalized field set ready to be persisted.
//
// Resolvers report expected validation failures as data: callers must check
// Valid() before reading results. Result accessors called before a
// successful Fill panic: that is a caller bug, not user input error.
package args

import (
	"strconv"
	"strings"
)

// ErrorKind classifies a validation failure.
type ErrorKind int

const (
	NoError ErrorKind = iota
	MissingRequiredField
	UnknownType
	UnknownTaxonomy
	NotFound
	InvalidDate
	TermMismatch
	EmptyPayload
)

// Request is the flattened, untrusted parameter set extracted from an API
// request body by the controller layer.
type Request struct {
	// Params holds the scalar body parameters.
	Params map[string]string
	// Meta is the meta_input map of free-form key/value side data.
	Meta map[string]any
	// Terms is the tax_input taxonomy/term-id mapping, in request order.
	Terms []TaxonomyTerms
	// Files maps file parameter names to uploaded file handles.
	Files map[string]FileRef
}

// Empty reports whether the request carries no data at all.
func (r *Request) Empty() bool {
	return len(r.Params) == 0 && len(r.Meta) == 0 && len(r.Terms) == 0 && len(r.Files) == 0
}

// TaxonomyTerms is one taxonomy's term-id list from the request.
type TaxonomyTerms struct {
	Taxonomy string
	TermIDs  []int64
}

// FileRef is a handle to an uploaded file. The storage key is assigned by
// the upload layer before resolution; the pipeline only routes the handle.
type FileRef struct {
	Param       string // original request parameter name
	Filename    string
	Size        int64
	ContentType string
	StorageKey  string
}

// User is the authenticated caller, consulted for field defaults and
// capability checks.
type User interface {
	ID() int64
	IsAuthorized(capability string) bool
}

// PostFinder loads the prior record's field map for post updates. A nil map
// with a nil error means the post does not exist.
type PostFinder interface {
	FindFields(id int64) (map[string]string, error)
}

// TermFinder loads the prior record's field map for term updates.
type TermFinder interface {
	FindFields(id int64) (map[string]string, error)
}

// FieldSet is an ordered projection of writable columns, ready for the
// persistence layer. Keys not named in the projection order are dropped.
type FieldSet struct {
	keys   []string
	values map[string]string
}

func newFieldSet(order []string, merged map[string]string) FieldSet {
	fs := FieldSet{
		keys:   make([]string, 0, len(order)),
		values: make(map[string]string, len(order)),
	}
	for _, k := range order {
		fs.keys = append(fs.keys, k)
		fs.values[k] = merged[k]
	}
	return fs
}

// Keys returns the projection's column names in order.
func (f FieldSet) Keys() []string { return f.keys }

// Get returns the value for a projected column.
func (f FieldSet) Get(key string) string { return f.values[key] }

// Len returns the number of projected columns.
func (f FieldSet) Len() int { return len(f.keys) }

// mergeOver overlays request parameters on a base field set: every base key
// is present in the result, request keys win.
func mergeOver(params, base map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(params))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}
	return merged
}

// metaFilePrefix marks file parameters carrying meta attachments. A file
// uploaded as "metafile-<key>" is stored under the meta key "_<key>".
const metaFilePrefix = "metafile-"

// metaFiles extracts the meta file attachments from the raw file map.
func metaFiles(files map[string]FileRef) map[string]FileRef {
	out := make(map[string]FileRef, len(files))
	for name, f := range files {
		if rest, ok := strings.CutPrefix(name, metaFilePrefix); ok && rest != "" {
			out["_"+rest] = f
		}
	}
	return out
}

// validDate checks the calendar components of a "2006-01-02 15:04:05" value,
// reading the year, month, and day at their fixed positions.
func validDate(datetime string) bool {
	if len(datetime) < 10 {
		return false
	}
	year, errY := strconv.Atoi(datetime[0:4])
	month, errM := strconv.Atoi(datetime[5:7])
	day, errD := strconv.Atoi(datetime[8:10])
	if errY != nil || errM != nil || errD != nil {
		return false
	}
	return checkDate(month, day, year)
}

// checkDate validates calendar bounds, accounting for leap years.
func checkDate(month, day, year int) bool {
	if year < 1 || month < 1 || month > 12 || day < 1 {
		return false
	}
	return day <= daysInMonth(month, year)
}

func daysInMonth(month, year int) int {
	switch month {
	case 4, 6, 9, 11:
		return 30
	case 2:
		if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
			return 29
		}
		return 28
	default:
		return 31
	}
}
