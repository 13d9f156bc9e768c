package control

import (
	"strings"
)

// Parse reads the fields of a Debian control file.
//
// Folded values are joined without a separator and comment lines
// are ignored, even between a field and its continuation lines.
// The last field is committed at the end of input, so a trailing
// blank line is not required.
//
// https://www.debian.org/doc/debian-policy/ch-controlfields.html#syntax-of-control-files
func Parse(text string) (*Document, error) {
	doc := newDocument()

	var name string
	var content strings.Builder
	open := false

	commit := func() {
		if open {
			doc.set(name, strings.TrimSpace(content.String()))
		}
		open = false
		name = ""
		content.Reset()
	}

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.HasPrefix(line, "#") {
			continue
		}
		// continuation of the previous field
		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			if !open {
				return nil, &MalformedControlFileError{Line: i + 1}
			}
			content.WriteString(strings.TrimLeft(line, " \t"))
			continue
		}
		commit()
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, &MalformedControlFileError{Line: i + 1}
		}
		name = strings.TrimSpace(key)
		content.WriteString(value)
		open = true
	}
	commit()

	return doc, nil
}
