// Package frontmatter reads and rewrites the YAML metadata header of
// vault notes.
//
// Reads go through yaml.v3. Writes do not: re-encoding a whole document
// changes the appearance of values the caller never touched (a
// [[wikilink]] value can come back quoted differently, or a scalar can
// change shape). A field write therefore replaces only the single header
// line holding that key and carries every other byte through verbatim.
package frontmatter

import (
	"bytes"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/raido/internal/checksum"
	"github.com/starford/raido/internal/models"
)

// Frontmatter fields recognised by the lifecycle core. Anything else is
// opaque and passes through untouched.
const (
	FieldStatus        = "status"
	FieldType          = "type"
	FieldQualityScore  = "quality_score"
	FieldAIProcessed   = "ai_processed"
	FieldProcessedDate = "processed_date"
	FieldTags          = "tags"
)

const delim = "---"

var (
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
)

// Doc is one note split into header and body. The original bytes of
// every untouched region are retained for reassembly.
type Doc struct {
	lead   string // blank lines before the opening delimiter
	block  string // raw YAML between the delimiters
	tail   string // everything after the closing delimiter, verbatim
	raw    string // entire content when no header is present
	hasFM  bool
	fields map[string]any
}

// Parse splits data into header and body. A missing, unterminated, or
// syntactically invalid header yields a Doc with body only.
func Parse(data []byte) *Doc {
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return &Doc{raw: string(data)}
	}
	lead := string(data[:len(data)-len(trimmed)])
	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return &Doc{raw: string(data)}
	}
	block := string(rest[:idx])
	tail := string(rest[idx+1+len(delim):])

	var fields map[string]any
	if err := yaml.Unmarshal([]byte(block), &fields); err != nil {
		// Invalid YAML: treat the whole file as opaque body.
		return &Doc{raw: string(data)}
	}
	return &Doc{lead: lead, block: block, tail: tail, hasFM: true, fields: fields}
}

// HasFrontmatter reports whether a parseable header was found.
func (d *Doc) HasFrontmatter() bool { return d.hasFM }

// Bytes reassembles the note. Untouched header lines and the body come
// back byte for byte.
func (d *Doc) Bytes() []byte {
	if !d.hasFM {
		return []byte(d.raw)
	}
	return []byte(d.lead + delim + d.block + "\n" + delim + d.tail)
}

// Body returns the Markdown content after the header.
func (d *Doc) Body() string {
	if !d.hasFM {
		return d.raw
	}
	return strings.TrimLeft(d.tail, "\n\r")
}

// Get returns the raw decoded value for key.
func (d *Doc) Get(key string) (any, bool) {
	v, ok := d.fields[key]
	return v, ok
}

// String returns the string value for key, or "" when absent or not a
// string.
func (d *Doc) String(key string) string {
	if s, ok := d.fields[key].(string); ok {
		return s
	}
	return ""
}

// Float returns the numeric value for key. YAML decodes whole numbers as
// int, so both shapes are accepted.
func (d *Doc) Float(key string) (float64, bool) {
	switch v := d.fields[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Bool returns the boolean value for key, false when absent.
func (d *Doc) Bool(key string) bool {
	b, _ := d.fields[key].(bool)
	return b
}

// Time returns the timestamp value for key. Accepts native YAML
// timestamps and RFC 3339 strings.
func (d *Doc) Time(key string) (time.Time, bool) {
	switch v := d.fields[key].(type) {
	case time.Time:
		return v, true
	case string:
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// StringList returns the list value for key, tolerating a single scalar.
func (d *Doc) StringList(key string) []string {
	var out []string
	switch v := d.fields[key].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case string:
		if strings.TrimSpace(v) != "" {
			out = append(out, strings.TrimSpace(v))
		}
	}
	return out
}

// Set writes key to a scalar value on its own header line. Only that
// line changes; all other header bytes and the body are preserved. A
// note without a header gets one created around its content.
func (d *Doc) Set(key string, value any) {
	line := key + ": " + encodeScalar(value)

	if !d.hasFM {
		d.block = "\n" + line
		d.tail = "\n" + d.raw
		d.raw = ""
		d.hasFM = true
		d.fields = map[string]any{}
	} else {
		lines := strings.Split(d.block, "\n")
		replaced := false
		for i, l := range lines {
			if topLevelKey(l) == key {
				lines[i] = line
				replaced = true
				break
			}
		}
		if !replaced {
			lines = append(lines, line)
		}
		d.block = strings.Join(lines, "\n")
	}
	if d.fields == nil {
		d.fields = map[string]any{}
	}
	d.fields[key] = value
}

// topLevelKey returns the mapping key a header line defines, or "" for
// continuation lines, list items, and comments.
func topLevelKey(line string) string {
	if line == "" || line[0] == ' ' || line[0] == '\t' || line[0] == '#' || line[0] == '-' {
		return ""
	}
	i := strings.Index(line, ":")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(line[:i])
}

// encodeScalar renders a value as a single-line YAML scalar, quoting
// whatever needs quoting.
func encodeScalar(value any) string {
	if t, ok := value.(time.Time); ok {
		return `"` + t.Format(time.RFC3339) + `"`
	}
	b, err := yaml.Marshal(value)
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(b), "\n")
}

// ReadNote builds the domain projection of one note from its raw bytes.
// The projection is short-lived; callers re-read before mutating.
func ReadNote(path string, data []byte) (*models.Note, *Doc) {
	d := Parse(data)

	n := &models.Note{
		Path:     path,
		Status:   models.StatusInbox,
		Checksum: checksum.Sum(data),
	}
	if s := d.String(FieldStatus); s != "" {
		n.Status = models.Status(s)
	}
	if t := d.String(FieldType); t != "" {
		n.Type = models.NoteType(t)
	}
	if score, ok := d.Float(FieldQualityScore); ok {
		n.QualityScore = &score
	}
	n.AIProcessed = d.Bool(FieldAIProcessed)
	if ts, ok := d.Time(FieldProcessedDate); ok {
		n.ProcessedDate = ts
	}
	n.Tags = mergeTags(d.StringList(FieldTags), d.Body())
	n.Links = extractLinks(d.Body())
	return n, d
}

// extractLinks returns deduplicated wikilink targets, normalising aliases.
func extractLinks(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		target := m[1]
		// [[Target|Alias]] → Target.
		if i := strings.Index(target, "|"); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// mergeTags combines frontmatter tags with inline #tags from the body,
// preserving first-seen order.
func mergeTags(fmTags []string, body string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(t string) {
		if _, dup := seen[t]; !dup {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	for _, t := range fmTags {
		add(t)
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}
