// Copyright (c) 2019 SygaTechnology Foundation
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"sygacms/internal/args"
)

// maxUploadSize caps multipart request bodies at 32 MB.
const maxUploadSize = 32 << 20

// parseRequest converts an incoming HTTP request into a resolver request.
// JSON bodies carry fields, meta_input and tax_input directly; multipart
// bodies carry fields as form values and attachments as file parts. The
// returned header map holds the multipart file headers keyed by parameter
// name so the handler can persist them after resolution succeeds.
func parseRequest(r *http.Request) (*args.Request, map[string]*multipart.FileHeader, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		return parseMultipart(r)
	}
	req, err := parseJSON(r)
	return req, nil, err
}

// parseJSON decodes a JSON object body. Scalar fields become string
// parameters, meta_input becomes the meta map, and tax_input becomes
// the taxonomy term input sorted by taxonomy name.
func parseJSON(r *http.Request) (*args.Request, error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}

	req := &args.Request{
		Params: make(map[string]string),
		Meta:   make(map[string]any),
	}

	for key, value := range body {
		switch key {
		case "meta_input":
			meta, ok := value.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("meta_input must be an object")
			}
			for k, v := range meta {
				req.Meta[k] = v
			}
		case "tax_input":
			input, ok := value.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("tax_input must be an object")
			}
			terms, err := parseTaxInput(input)
			if err != nil {
				return nil, err
			}
			req.Terms = terms
		default:
			s, err := stringify(value)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", key, err)
			}
			req.Params[key] = s
		}
	}

	return req, nil
}

// parseTaxInput converts a tax_input object into taxonomy term groups,
// sorted by taxonomy name so resolution order is deterministic.
func parseTaxInput(input map[string]any) ([]args.TaxonomyTerms, error) {
	taxonomies := make([]string, 0, len(input))
	for taxonomy := range input {
		taxonomies = append(taxonomies, taxonomy)
	}
	sort.Strings(taxonomies)

	var terms []args.TaxonomyTerms
	for _, taxonomy := range taxonomies {
		raw, ok := input[taxonomy].([]any)
		if !ok {
			return nil, fmt.Errorf("tax_input %s: must be an array of term ids", taxonomy)
		}
		group := args.TaxonomyTerms{Taxonomy: taxonomy}
		for _, item := range raw {
			num, ok := item.(json.Number)
			if !ok {
				return nil, fmt.Errorf("tax_input %s: term ids must be numbers", taxonomy)
			}
			id, err := num.Int64()
			if err != nil {
				return nil, fmt.Errorf("tax_input %s: %w", taxonomy, err)
			}
			group.TermIDs = append(group.TermIDs, id)
		}
		terms = append(terms, group)
	}
	return terms, nil
}

// stringify converts a JSON scalar to its parameter string form.
func stringify(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		if v {
			return "1", nil
		}
		return "0", nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("must be a scalar value")
	}
}

// parseMultipart reads a multipart form. Form values become parameters
// (meta_input and tax_input may be sent as JSON-encoded form fields),
// and each file part becomes a file reference with a generated storage key.
func parseMultipart(r *http.Request) (*args.Request, map[string]*multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, nil, fmt.Errorf("parse multipart form: %w", err)
	}

	req := &args.Request{
		Params: make(map[string]string),
		Meta:   make(map[string]any),
	}

	for key, values := range r.MultipartForm.Value {
		if len(values) == 0 {
			continue
		}
		switch key {
		case "meta_input":
			if err := json.Unmarshal([]byte(values[0]), &req.Meta); err != nil {
				return nil, nil, fmt.Errorf("meta_input: %w", err)
			}
		case "tax_input":
			var input map[string]any
			dec := json.NewDecoder(strings.NewReader(values[0]))
			dec.UseNumber()
			if err := dec.Decode(&input); err != nil {
				return nil, nil, fmt.Errorf("tax_input: %w", err)
			}
			terms, err := parseTaxInput(input)
			if err != nil {
				return nil, nil, err
			}
			req.Terms = terms
		default:
			req.Params[key] = values[0]
		}
	}

	headers := make(map[string]*multipart.FileHeader)
	for param, files := range r.MultipartForm.File {
		if len(files) == 0 {
			continue
		}
		header := files[0]
		key := uuid.NewString() + strings.ToLower(filepath.Ext(header.Filename))
		if req.Files == nil {
			req.Files = make(map[string]args.FileRef)
		}
		req.Files[param] = args.FileRef{
			Param:       param,
			Filename:    header.Filename,
			Size:        header.Size,
			ContentType: header.Header.Get("Content-Type"),
			StorageKey:  key,
		}
		headers[param] = header
	}

	return req, headers, nil
}
