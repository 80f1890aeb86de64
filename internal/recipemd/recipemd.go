// Package recipemd parses and rewrites the metadata conventions embedded in
// recipe Markdown: the leading "Tags:" line and photo references.
package recipemd

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	tagLineRe   = regexp.MustCompile(`(?m)^Tags:[ \t]*(.*)$`)
	imageLineRe = regexp.MustCompile(`\n!\[.*?\]\(.*?\)\n?`)
)

// ExtractTags returns the normalized tags from the first "Tags:" line in md.
// Returns nil when no such line exists.
func ExtractTags(md string) []string {
	m := tagLineRe.FindStringSubmatch(md)
	if m == nil {
		return nil
	}
	return Normalize(m[1])
}

// Normalize splits a comma- and/or whitespace-separated tag string into
// lowercase tokens, dropping empties and duplicates while preserving the
// first-seen order.
func Normalize(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	seen := make(map[string]struct{}, len(fields))
	var out []string
	for _, f := range fields {
		t := strings.ToLower(strings.TrimSpace(f))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ReplaceTagLine removes any leading "Tags:" line from md and, when tags is
// non-empty, prepends a fresh one followed by a blank line. Applying it twice
// with the same tag set yields the same text as applying it once.
func ReplaceTagLine(md string, tags []string) string {
	body := stripLeadingTagLine(md)
	if len(tags) == 0 {
		return body
	}
	return "Tags: " + strings.Join(tags, " ") + "\n\n" + body
}

// stripLeadingTagLine drops a "Tags:" line at the top of the document plus
// any blank lines that follow it. Leading whitespace is trimmed either way.
// A "Tags:" line further down the body is left alone.
func stripLeadingTagLine(md string) string {
	body := strings.TrimLeftFunc(md, unicode.IsSpace)
	if !strings.HasPrefix(body, "Tags:") {
		return body
	}
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = ""
	}
	return strings.TrimLeftFunc(body, unicode.IsSpace)
}

// StripImageLines removes embedded Markdown image references so a replacement
// photo can be re-embedded without accumulating stale links.
func StripImageLines(md string) string {
	cleaned := imageLineRe.ReplaceAllString("\n"+md, "\n")
	return strings.TrimSpace(cleaned) + "\n"
}

// AppendImageRef appends a single image reference for filename, separated
// from the body by one blank line.
func AppendImageRef(md, filename string) string {
	body := strings.TrimRightFunc(md, unicode.IsSpace)
	return body + "\n\n![" + filename + "](" + filename + ")\n"
}
