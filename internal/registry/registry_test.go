package registry

import (
	"strings"
	"testing"
)

func TestDeriveCapabilities(t *testing.T) {
	tests := []struct {
		name    string
		capType string
		want    Capabilities
	}{
		{
			name:    "post type",
			capType: "post",
			want: Capabilities{
				EditPost:         "edit_post",
				ReadPost:         "read_post",
				DeletePost:       "delete_post",
				EditPosts:        "edit_posts",
				EditOthersPosts:  "edit_others_posts",
				PublishPosts:     "publish_posts",
				ReadPrivatePosts: "read_private_posts",
			},
		},
		{
			name:    "page type",
			capType: "page",
			want: Capabilities{
				EditPost:         "edit_page",
				ReadPost:         "read_page",
				DeletePost:       "delete_page",
				EditPosts:        "edit_pages",
				EditOthersPosts:  "edit_others_pages",
				PublishPosts:     "publish_pages",
				ReadPrivatePosts: "read_private_pages",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deriveCapabilities(tt.capType); got != tt.want {
				t.Errorf("deriveCapabilities(%q) = %+v, want %+v", tt.capType, got, tt.want)
			}
		})
	}
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"post", "post"},
		{"My Type", "mytype"},
		{"custom_type", "custom_type"},
		{"custom-type", "custom-type"},
		{"weird!@#chars", "weirdchars"},
		{"MIXED_Case-9", "mixed_case-9"},
	}

	for _, tt := range tests {
		if got := sanitizeKey(tt.input); got != tt.want {
			t.Errorf("sanitizeKey(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestRegisterObjectType(t *testing.T) {
	r := New()

	if err := r.RegisterObjectType("book", ObjectTypeOptions{Hierarchical: false}); err != nil {
		t.Fatalf("RegisterObjectType: %v", err)
	}
	if !r.ObjectTypeExists("book") {
		t.Fatal("book should be registered")
	}

	ot, err := r.ObjectType("book")
	if err != nil {
		t.Fatalf("ObjectType: %v", err)
	}
	if ot.CapabilityType != "post" {
		t.Errorf("default capability type = %q, want post", ot.CapabilityType)
	}
	if ot.DefaultCommentStatus != "open" {
		t.Errorf("default comment status = %q, want open", ot.DefaultCommentStatus)
	}
	if ot.Cap.EditPost != "edit_post" {
		t.Errorf("Cap.EditPost = %q, want edit_post", ot.Cap.EditPost)
	}
}

func TestRegisterObjectTypeNameLimits(t *testing.T) {
	r := New()

	if err := r.RegisterObjectType("", ObjectTypeOptions{}); err == nil {
		t.Error("empty name should be rejected")
	}
	if err := r.RegisterObjectType(strings.Repeat("a", 21), ObjectTypeOptions{}); err == nil {
		t.Error("21 character name should be rejected")
	}
	if err := r.RegisterObjectType(strings.Repeat("a", 20), ObjectTypeOptions{}); err != nil {
		t.Errorf("20 character name should be accepted: %v", err)
	}
	// Sanitization can empty a name entirely.
	if err := r.RegisterObjectType("!!!", ObjectTypeOptions{}); err == nil {
		t.Error("name that sanitizes to empty should be rejected")
	}
}

func TestRegisterTaxonomyNameLimits(t *testing.T) {
	r := New()

	if err := r.RegisterTaxonomy(strings.Repeat("a", 33), nil, TaxonomyOptions{}); err == nil {
		t.Error("33 character name should be rejected")
	}
	if err := r.RegisterTaxonomy(strings.Repeat("a", 32), nil, TaxonomyOptions{}); err != nil {
		t.Errorf("32 character name should be accepted: %v", err)
	}
}

func TestTaxonomyObjectTypeWiring(t *testing.T) {
	r := New()

	if err := r.RegisterObjectType("article", ObjectTypeOptions{}); err != nil {
		t.Fatalf("RegisterObjectType: %v", err)
	}
	if err := r.RegisterTaxonomy("topic", []string{"article"}, TaxonomyOptions{Hierarchical: true}); err != nil {
		t.Fatalf("RegisterTaxonomy: %v", err)
	}

	tax, err := r.Taxonomy("topic")
	if err != nil {
		t.Fatalf("Taxonomy: %v", err)
	}
	if len(tax.ObjectTypes) != 1 || tax.ObjectTypes[0] != "article" {
		t.Errorf("taxonomy object types = %v, want [article]", tax.ObjectTypes)
	}

	got := r.ObjectTaxonomies("article")
	if len(got) != 1 || got[0] != "topic" {
		t.Errorf("ObjectTaxonomies(article) = %v, want [topic]", got)
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := Default()

	for _, name := range []string{"post", "page"} {
		if !r.ObjectTypeExists(name) {
			t.Errorf("default registry missing object type %q", name)
		}
	}
	for _, name := range []string{"category", "tag"} {
		if !r.TaxonomyExists(name) {
			t.Errorf("default registry missing taxonomy %q", name)
		}
	}

	page, err := r.ObjectType("page")
	if err != nil {
		t.Fatalf("ObjectType(page): %v", err)
	}
	if !page.Hierarchical {
		t.Error("page should be hierarchical")
	}
	if page.Cap.PublishPosts != "publish_pages" {
		t.Errorf("page publish capability = %q, want publish_pages", page.Cap.PublishPosts)
	}
	if page.DefaultCommentStatus != "closed" {
		t.Errorf("page default comment status = %q, want closed", page.DefaultCommentStatus)
	}

	post, err := r.ObjectType("post")
	if err != nil {
		t.Fatalf("ObjectType(post): %v", err)
	}
	if post.DefaultCommentStatus != "open" {
		t.Errorf("post default comment status = %q, want open", post.DefaultCommentStatus)
	}

	cats := r.ObjectTaxonomies("post")
	if len(cats) != 2 {
		t.Errorf("ObjectTaxonomies(post) = %v, want category and tag", cats)
	}

	if _, err := r.ObjectType("missing"); err == nil {
		t.Error("unknown object type should return an error")
	}
	if _, err := r.Taxonomy("missing"); err == nil {
		t.Error("unknown taxonomy should return an error")
	}
}
