package model

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
)

// DomainRecord separates record digests from any other hash computed over the
// same canonical bytes.
const DomainRecord = "rconsole/record/v1"

// ResourceRecord is the normalized form of one backend entity.
type ResourceRecord struct {
	Ref     string          `json:"ref"`
	Section Section         `json:"section"`
	Name    string          `json:"name,omitempty"`
	Payload json.RawMessage `json:"payload"`
	Digest  string          `json:"digest"`
}

// Normalize converts one raw API item into a ResourceRecord for section.
// Items without usable metadata are kept; their Ref and Name are empty.
// Only invalid JSON is rejected.
func Normalize(item json.RawMessage, section Section) (ResourceRecord, error) {
	ref, name, _ := metadataOf(item)

	canonical, err := CanonicalizeJSON(item)
	if err != nil {
		return ResourceRecord{}, fmt.Errorf("normalize item %q: %w", ref, err)
	}

	payload := make(json.RawMessage, len(item))
	copy(payload, item)

	return ResourceRecord{
		Ref:     ref,
		Section: section,
		Name:    name,
		Payload: payload,
		Digest:  hashWithDomain(DomainRecord, canonical),
	}, nil
}

// NormalizeAll converts the data array of a collection response into records,
// preserving input order. Absent or null data yields an empty, non-nil slice.
func NormalizeAll(data json.RawMessage, section Section) ([]ResourceRecord, error) {
	d := bytes.TrimSpace(data)
	if len(d) == 0 || bytes.Equal(d, []byte("null")) {
		return []ResourceRecord{}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(d, &items); err != nil {
		return nil, fmt.Errorf("collection data is not an array: %w", err)
	}

	records := make([]ResourceRecord, 0, len(items))
	for i, item := range items {
		rec, err := Normalize(item, section)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// DocumentRef extracts metadata.ref from a raw resource document.
// Returns an error if the document is not a JSON object or has no reference.
func DocumentRef(raw []byte) (string, error) {
	ref, _, isObject := metadataOf(raw)
	if !isObject {
		return "", fmt.Errorf("parse document: not a JSON object")
	}
	if ref == "" {
		return "", fmt.Errorf("document has no metadata.ref")
	}
	return ref, nil
}

// metadataOf reads metadata.ref and metadata.name from a raw item. Scalar
// values are rendered as text; anything else reads as empty. isObject
// reports whether the item itself is a JSON object.
func metadataOf(item []byte) (ref, name string, isObject bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
		return "", "", false
	}
	var meta map[string]json.RawMessage
	if err := json.Unmarshal(fields["metadata"], &meta); err != nil {
		return "", "", true
	}
	return scalarText(meta["ref"]), scalarText(meta["name"]), true
}

// scalarText renders a JSON string, number or boolean as text.
func scalarText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
