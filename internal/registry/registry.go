// Copyright (c) 2019 SygaTechnology Foundation
// All rights reserved. See LICENSE for details.

// Package registry holds the process-wide object type and taxonomy
// configuration. A Registry is populated once at startup and treated as
// read-only by the request path.
package registry

import (
	"fmt"
	"regexp"
	"strings"
)

// keyPattern strips everything a registry key may not contain.
var keyPattern = regexp.MustCompile(`[^a-z0-9_-]`)

// sanitizeKey lower-cases a registry key and removes unsafe characters.
func sanitizeKey(key string) string {
	return keyPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(key)), "")
}

// Capabilities is the capability set derived from an object type's
// capability base string.
type Capabilities struct {
	// Meta capabilities, checked against a single record.
	EditPost   string
	ReadPost   string
	DeletePost string

	// Primitive capabilities, checked against the collection.
	EditPosts        string
	EditOthersPosts  string
	PublishPosts     string
	ReadPrivatePosts string
}

// deriveCapabilities builds the capability set from the capability base:
// meta capabilities from the singular form, primitive ones from the plural.
func deriveCapabilities(capabilityType string) Capabilities {
	singular := capabilityType
	plural := capabilityType + "s"
	return Capabilities{
		EditPost:         "edit_" + singular,
		ReadPost:         "read_" + singular,
		DeletePost:       "delete_" + singular,
		EditPosts:        "edit_" + plural,
		EditOthersPosts:  "edit_others_" + plural,
		PublishPosts:     "publish_" + plural,
		ReadPrivatePosts: "read_private_" + plural,
	}
}

// ObjectType is a registered content kind.
type ObjectType struct {
	Name                 string
	Hierarchical         bool
	CapabilityType       string
	Cap                  Capabilities
	Supports             map[string]bool
	Taxonomies           []string
	DefaultCommentStatus string
}

// Taxonomy is a registered classification axis containing terms.
type Taxonomy struct {
	Name         string
	Hierarchical bool
	ObjectTypes  []string
}

// Registry maps object type and taxonomy names to their metadata.
type Registry struct {
	objectTypes map[string]*ObjectType
	taxonomies  map[string]*Taxonomy
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		objectTypes: make(map[string]*ObjectType),
		taxonomies:  make(map[string]*Taxonomy),
	}
}

// ObjectTypeOptions configures an object type registration.
type ObjectTypeOptions struct {
	Hierarchical         bool
	CapabilityType       string // defaults to "post"
	Supports             map[string]bool
	Taxonomies           []string
	DefaultCommentStatus string // defaults to "open"
}

// RegisterObjectType adds an object type to the registry. The name is
// sanitized and must be between 1 and 20 characters.
func (r *Registry) RegisterObjectType(name string, opts ObjectTypeOptions) error {
	name = sanitizeKey(name)
	if name == "" || len(name) > 20 {
		return fmt.Errorf("object type names must be between 1 and 20 characters in length")
	}

	capType := opts.CapabilityType
	if capType == "" {
		capType = "post"
	}
	commentStatus := opts.DefaultCommentStatus
	if commentStatus == "" {
		commentStatus = "open"
	}

	ot := &ObjectType{
		Name:                 name,
		Hierarchical:         opts.Hierarchical,
		CapabilityType:       capType,
		Cap:                  deriveCapabilities(capType),
		Supports:             opts.Supports,
		DefaultCommentStatus: commentStatus,
	}
	r.objectTypes[name] = ot

	// Attach any already-registered taxonomies named in the options.
	for _, taxName := range opts.Taxonomies {
		if tax, ok := r.taxonomies[taxName]; ok {
			ot.Taxonomies = append(ot.Taxonomies, taxName)
			tax.ObjectTypes = append(tax.ObjectTypes, name)
		}
	}
	return nil
}

// TaxonomyOptions configures a taxonomy registration.
type TaxonomyOptions struct {
	Hierarchical bool
}

// RegisterTaxonomy adds a taxonomy applying to the given object types. The
// name is sanitized and must be between 1 and 32 characters.
func (r *Registry) RegisterTaxonomy(name string, objectTypes []string, opts TaxonomyOptions) error {
	name = sanitizeKey(name)
	if name == "" || len(name) > 32 {
		return fmt.Errorf("taxonomy names must be between 1 and 32 characters in length")
	}

	tax := &Taxonomy{
		Name:         name,
		Hierarchical: opts.Hierarchical,
		ObjectTypes:  append([]string(nil), objectTypes...),
	}
	r.taxonomies[name] = tax

	for _, otName := range objectTypes {
		if ot, ok := r.objectTypes[otName]; ok {
			ot.Taxonomies = append(ot.Taxonomies, name)
		}
	}
	return nil
}

// ObjectTypeExists reports whether an object type is registered.
func (r *Registry) ObjectTypeExists(name string) bool {
	_, ok := r.objectTypes[name]
	return ok
}

// ObjectType returns a registered object type's metadata.
func (r *Registry) ObjectType(name string) (*ObjectType, error) {
	ot, ok := r.objectTypes[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("object type %s does not exist", name)
	}
	return ot, nil
}

// TaxonomyExists reports whether a taxonomy is registered.
func (r *Registry) TaxonomyExists(name string) bool {
	_, ok := r.taxonomies[name]
	return ok
}

// Taxonomy returns a registered taxonomy's metadata.
func (r *Registry) Taxonomy(name string) (*Taxonomy, error) {
	tax, ok := r.taxonomies[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("taxonomy %s does not exist", name)
	}
	return tax, nil
}

// ObjectTaxonomies returns the names of the taxonomies registered for the
// given object type.
func (r *Registry) ObjectTaxonomies(objectType string) []string {
	var names []string
	for name, tax := range r.taxonomies {
		for _, ot := range tax.ObjectTypes {
			if ot == objectType {
				names = append(names, name)
				break
			}
		}
	}
	return names
}

// Default returns a registry with the stock object types and taxonomies:
// the category and tag taxonomies and the post and page object types.
func Default() *Registry {
	r := New()

	r.RegisterTaxonomy("category", []string{"post"}, TaxonomyOptions{Hierarchical: true})
	r.RegisterTaxonomy("tag", []string{"post"}, TaxonomyOptions{Hierarchical: false})

	r.RegisterObjectType("post", ObjectTypeOptions{
		Hierarchical: false,
		Supports: map[string]bool{
			"title":    true,
			"editor":   true,
			"category": true,
			"tag":      false,
		},
		CapabilityType:       "post",
		Taxonomies:           []string{"category", "tag"},
		DefaultCommentStatus: "open",
	})
	r.RegisterObjectType("page", ObjectTypeOptions{
		Hierarchical:         true,
		CapabilityType:       "page",
		DefaultCommentStatus: "closed",
	})

	return r
}
