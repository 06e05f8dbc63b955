package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sygacms/internal/args"
)

func TestParseRequestJSON(t *testing.T) {
	body := `{
		"post_type": "post",
		"post_title": "Hello World",
		"post_parent": 7,
		"sticky": true,
		"meta_input": {"color": "blue", "weights": [1, 2]},
		"tax_input": {"tag": [3], "category": [1, 2]}
	}`
	r := httptest.NewRequest("POST", "/posts", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	req, headers, err := parseRequest(r)
	if err != nil {
		t.Fatalf("parseRequest: %v", err)
	}
	if headers != nil {
		t.Error("JSON requests carry no file headers")
	}

	if got := req.Params["post_title"]; got != "Hello World" {
		t.Errorf("post_title = %q", got)
	}
	if got := req.Params["post_parent"]; got != "7" {
		t.Errorf("numbers must stringify exactly, got %q", got)
	}
	if got := req.Params["sticky"]; got != "1" {
		t.Errorf("booleans must stringify as 1/0, got %q", got)
	}
	if _, ok := req.Params["meta_input"]; ok {
		t.Error("meta_input must not leak into params")
	}

	if got := req.Meta["color"]; got != "blue" {
		t.Errorf("meta color = %v", got)
	}
	if _, ok := req.Meta["weights"]; !ok {
		t.Error("structured meta values must pass through")
	}

	// tax_input groups arrive sorted by taxonomy name.
	if len(req.Terms) != 2 {
		t.Fatalf("terms groups = %d, want 2", len(req.Terms))
	}
	if req.Terms[0].Taxonomy != "category" || req.Terms[1].Taxonomy != "tag" {
		t.Errorf("taxonomy order = %s, %s; want category, tag", req.Terms[0].Taxonomy, req.Terms[1].Taxonomy)
	}
	if len(req.Terms[0].TermIDs) != 2 || req.Terms[0].TermIDs[0] != 1 {
		t.Errorf("category term ids = %v", req.Terms[0].TermIDs)
	}
}

func TestParseRequestJSONRejectsNonScalar(t *testing.T) {
	body := `{"post_title": {"nested": "object"}}`
	r := httptest.NewRequest("POST", "/posts", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	if _, _, err := parseRequest(r); err == nil {
		t.Error("nested objects outside meta_input/tax_input must be rejected")
	}
}

func TestParseRequestJSONRejectsBadTaxInput(t *testing.T) {
	body := `{"tax_input": {"category": ["one"]}}`
	r := httptest.NewRequest("POST", "/posts", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	if _, _, err := parseRequest(r); err == nil {
		t.Error("non-numeric term ids must be rejected")
	}
}

func TestParseRequestMultipart(t *testing.T) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	w.WriteField("post_type", "post")
	w.WriteField("post_title", "With Attachment")
	w.WriteField("meta_input", `{"color": "red"}`)
	w.WriteField("tax_input", `{"category": [4]}`)
	part, err := w.CreateFormFile("metafile-brochure", "brochure.pdf")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	part.Write([]byte("%PDF-1.4 test"))
	w.Close()

	r := httptest.NewRequest("POST", "/posts", &buf)
	r.Header.Set("Content-Type", w.FormDataContentType())

	req, headers, err := parseRequest(r)
	if err != nil {
		t.Fatalf("parseRequest: %v", err)
	}

	if got := req.Params["post_title"]; got != "With Attachment" {
		t.Errorf("post_title = %q", got)
	}
	if got := req.Meta["color"]; got != "red" {
		t.Errorf("meta color = %v", got)
	}
	if len(req.Terms) != 1 || req.Terms[0].Taxonomy != "category" || req.Terms[0].TermIDs[0] != 4 {
		t.Errorf("terms = %+v", req.Terms)
	}

	ref, ok := req.Files["metafile-brochure"]
	if !ok {
		t.Fatal("file part missing from request")
	}
	if ref.Filename != "brochure.pdf" {
		t.Errorf("Filename = %q", ref.Filename)
	}
	if !strings.HasSuffix(ref.StorageKey, ".pdf") {
		t.Errorf("StorageKey = %q, want a .pdf key", ref.StorageKey)
	}
	if ref.StorageKey == "brochure.pdf" {
		t.Error("StorageKey must not reuse the client filename")
	}
	if headers["metafile-brochure"] == nil {
		t.Error("file header missing for the uploaded part")
	}
}

func TestStoreUploads(t *testing.T) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	w.WriteField("name", "Category With Icon")
	part, err := w.CreateFormFile("metafile-icon", "icon.png")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	part.Write([]byte("png bytes"))
	w.Close()

	r := httptest.NewRequest("POST", "/terms", &buf)
	r.Header.Set("Content-Type", w.FormDataContentType())

	req, headers, err := parseRequest(r)
	if err != nil {
		t.Fatalf("parseRequest: %v", err)
	}
	ref := req.Files["metafile-icon"]

	// Resolvers hand storeUploads the attachments keyed by meta key.
	dir := t.TempDir()
	meta := map[string]any{}
	files := map[string]args.FileRef{"_icon": ref}
	if err := storeUploads(dir, files, headers, meta); err != nil {
		t.Fatalf("storeUploads: %v", err)
	}

	if got := meta["_icon"]; got != ref.StorageKey {
		t.Errorf("meta _icon = %v, want storage key %q", got, ref.StorageKey)
	}
	data, err := os.ReadFile(filepath.Join(dir, ref.StorageKey))
	if err != nil {
		t.Fatalf("read stored upload: %v", err)
	}
	if string(data) != "png bytes" {
		t.Errorf("stored content = %q", data)
	}
}
