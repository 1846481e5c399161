package intake

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// File is an attachment extracted from a multipart submission.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Content     []byte
}

// Flatten merges the two shapes a multipart layer can deliver, a flat
// list and a mapping of field name to files, into one list. Map entries
// are appended in sorted field order so the result is deterministic.
func Flatten(files []File, grouped map[string][]File) []File {
	all := make([]File, 0, len(files))
	all = append(all, files...)

	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		all = append(all, grouped[name]...)
	}

	return all
}

// RenderDocument serializes a submission to plain text: header lines with
// the form identifier and timestamp, one "key: value" line per field in
// sorted key order, and a trailing attachment section when files are
// present listing name, size in kilobytes, and MIME type.
func RenderDocument(formID string, submittedAt time.Time, fields map[string]string, files []File) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Formulario: %s\n", formID)
	fmt.Fprintf(&b, "Fecha: %s\n\n", submittedAt.UTC().Format(time.RFC3339))

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", k, fields[k]))
	}

	b.WriteString(strings.Join(lines, "\n"))

	if len(files) > 0 {
		b.WriteString("\n\nArchivos adjuntos:\n")

		entries := make([]string, 0, len(files))
		for _, f := range files {
			kb := float64(f.Size) / 1024
			entries = append(entries, fmt.Sprintf("  - %s (%.2f KB, tipo: %s)", f.Name, kb, f.ContentType))
		}

		b.WriteString(strings.Join(entries, "\n"))
	}

	b.WriteString("\n")

	return b.String()
}
