// Package vip holds the VIP marker and the pure reconciliation that brings a
// helpdesk record's tags and custom fields into the VIP state.
package vip

import "strings"

// Marker is the canonical VIP tag. Its presence in a record's tags is the only
// indicator of VIP status.
const Marker = "⭐⭐VIP ⭐⭐"

// Reconciliation is the computed write for one contact.
type Reconciliation struct {
	Tags   []string
	Fields map[string]interface{}

	TagsChanged  bool
	FieldChanged bool

	// RequiresWrite is true when the record must be written back. The custom
	// field is rewritten on every sync, so this is true whenever a field is
	// configured even if its value already matches.
	RequiresWrite bool
}

// Changed reports whether the reconciled state differs from the input.
func (r Reconciliation) Changed() bool {
	return r.TagsChanged || r.FieldChanged
}

// HasMarker reports whether tags contain the VIP marker exactly.
func HasMarker(tags []string) bool {
	for _, tag := range tags {
		if tag == Marker {
			return true
		}
	}
	return false
}

// NormalizeTags trims each tag and drops empty and repeated entries, keeping
// the first occurrence so the remote ordering survives the write.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// ReconcileTags returns tags with the marker appended if absent. changed is
// false when the marker was already present.
func ReconcileTags(tags []string) ([]string, bool) {
	normalized := NormalizeTags(tags)
	if HasMarker(normalized) {
		return normalized, false
	}
	return append(normalized, Marker), true
}

// ReconcileContact computes the contact write. fields is never mutated; unrelated
// keys are carried over to the result. customField may be empty, in which case
// only tags are reconciled.
func ReconcileContact(tags []string, fields map[string]interface{}, customField string) Reconciliation {
	newTags, tagsChanged := ReconcileTags(tags)

	newFields := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		newFields[k] = v
	}

	fieldChanged := false
	if customField != "" {
		current, ok := fields[customField]
		fieldChanged = !ok || current != Marker
		newFields[customField] = Marker
	}

	return Reconciliation{
		Tags:          newTags,
		Fields:        newFields,
		TagsChanged:   tagsChanged,
		FieldChanged:  fieldChanged,
		RequiresWrite: tagsChanged || customField != "",
	}
}
