package corpus

import (
	"fmt"
	"strings"
)

// CorpusPath is an absolute path of the form "namespace:/folder/.../name",
// or a bare "/folder/.../name" that is resolved against a registry's
// default namespace. Paths are compared case-insensitively wherever they
// key a lookup index.
type CorpusPath string

// rejectedFragments matches spec section 6: any "../" or "..\", any "/./"
// or "\.\". A leading "./" or ".\" is rejected separately by ValidateFormat.
var rejectedFragments = []string{"../", "..\\", "/./", "\\.\\"}

// ValidateFormat returns ErrPathFormat if p contains any of the rejected
// relative-path fragments.
func ValidateFormat(p string) error {
	if strings.HasPrefix(p, "./") || strings.HasPrefix(p, ".\\") {
		return fmt.Errorf("%w: %q starts with a relative fragment", ErrPathFormat, p)
	}
	for _, frag := range rejectedFragments {
		if strings.Contains(p, frag) {
			return fmt.Errorf("%w: %q contains %q", ErrPathFormat, p, frag)
		}
	}
	return nil
}

// lower returns the lowercase form used to key case-insensitive lookup
// indices (the document library).
func lower(p CorpusPath) string { return strings.ToLower(string(p)) }

// splitDeclPath splits a corpus path into the document path (up to and
// including the document's own path segment) and the declared path inside
// the document. Documents are identified by a trailing filename segment
// that contains a '.'; folders never do. This mirrors how mb0-daql's
// dotted schema.model keys nest one level deeper than the schema itself,
// generalized to an arbitrary-depth declared path within a document.
func splitDeclPath(full CorpusPath) (docPath CorpusPath, declPath string) {
	s := string(full)
	segs := strings.Split(s, "/")
	for i, seg := range segs {
		if strings.Contains(seg, ".") {
			docPath = CorpusPath(strings.Join(segs[:i+1], "/"))
			declPath = strings.Join(segs[i+1:], "/")
			return docPath, declPath
		}
	}
	return full, ""
}

// Rebase resolves a relative path fragment against an anchor's namespace
// and in-document folder. A path is considered relative when it does not
// start with the given default namespace prefix pattern "ns:/" and does
// not itself start with '/'.
func Rebase(anchorFolder CorpusPath, anchorNamespace, rel string) (CorpusPath, error) {
	if err := ValidateFormat(rel); err != nil {
		return "", err
	}
	if strings.Contains(rel, ":") {
		// already namespace-qualified and therefore absolute
		return CorpusPath(rel), nil
	}
	if strings.HasPrefix(rel, "/") {
		return CorpusPath(anchorNamespace + ":" + rel), nil
	}
	base := strings.TrimSuffix(string(anchorFolder), "/")
	return CorpusPath(anchorNamespace + ":" + base + "/" + rel), nil
}

// join concatenates folder segments with a single '/'.
func join(a, b string) string {
	a = strings.TrimSuffix(a, "/")
	b = strings.TrimPrefix(b, "/")
	if a == "" {
		return "/" + b
	}
	return a + "/" + b
}
