package checks

import "strings"

// NameIndex maps a resource base name to its path inside the package.
type NameIndex map[string]string

// NewNameIndex builds the index from archive member hrefs. When two members
// share a base name the later one wins.
func NewNameIndex(hrefs []string) NameIndex {
	idx := make(NameIndex, len(hrefs))
	for _, h := range hrefs {
		h = strings.TrimPrefix(strings.ReplaceAll(h, `\`, "/"), "./")
		if h == "" || strings.HasSuffix(h, "/") {
			continue
		}
		idx[baseName(h)] = h
	}
	return idx
}

// Resolve returns the archive-relative path for name, or UnknownPath.
func (n NameIndex) Resolve(name string) string {
	if name == "" {
		return UnknownPath
	}
	if p, ok := n[name]; ok {
		return p
	}
	return UnknownPath
}
