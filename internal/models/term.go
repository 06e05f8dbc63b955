// Copyright (c) 2019 SygaTechnology Foundation
// All rights reserved. See LICENSE for details.

package models

import "strconv"

// Term is a single classification value within a taxonomy. Count is the
// denormalized number of posts linked to the term; it is maintained by the
// store and never client-settable.
type Term struct {
	ID          int64  `json:"term_id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Taxonomy    string `json:"taxonomy"`
	Description string `json:"description"`
	Parent      int64  `json:"parent"`
	Count       int64  `json:"count"`
}

// FieldMap returns the term's writable columns keyed the way the argument
// pipeline merges them. The primary key is excluded.
func (t *Term) FieldMap() map[string]string {
	return map[string]string{
		"name":        t.Name,
		"slug":        t.Slug,
		"taxonomy":    t.Taxonomy,
		"description": t.Description,
		"parent":      strconv.FormatInt(t.Parent, 10),
		"count":       strconv.FormatInt(t.Count, 10),
	}
}
