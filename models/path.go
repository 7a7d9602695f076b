package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Path is a normalized relative path inside the storage base: forward-slash
// separated, no leading or trailing slash, no "." or ".." segments. The zero
// value is the root path.
type Path struct {
	raw string
}

// RootPath is the empty path, parent of every top-level directory.
var RootPath = Path{}

// NewPath normalizes raw into a Path. Duplicate separators are collapsed and
// a leading slash is stripped; anything else invalid is rejected.
func NewPath(raw string) (Path, error) {
	if raw == "" {
		return Path{}, fmt.Errorf("path cannot be empty")
	}

	raw = strings.ReplaceAll(raw, "\\", "/")
	var parts []string
	for _, seg := range strings.Split(raw, "/") {
		if seg == "" {
			continue // collapsed duplicate or leading/trailing slash
		}
		if err := ValidateSegment(seg); err != nil {
			return Path{}, fmt.Errorf("invalid path segment %q: %w", seg, err)
		}
		parts = append(parts, seg)
	}
	if len(parts) == 0 {
		return Path{}, fmt.Errorf("path cannot be empty")
	}

	return Path{raw: strings.Join(parts, "/")}, nil
}

// ValidateSegment checks a single path segment against the directory and file
// naming rules: 1..255 characters, valid UTF-8, none of / \ : * ? " < > |,
// and not "." or "..".
func ValidateSegment(seg string) error {
	if seg == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(seg) > 255 {
		return fmt.Errorf("name too long (max 255 characters)")
	}
	if !utf8.ValidString(seg) {
		return fmt.Errorf("name contains invalid UTF-8")
	}
	if seg == "." || seg == ".." {
		return fmt.Errorf("name cannot be a relative reference")
	}
	for _, ch := range []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|", "\x00"} {
		if strings.Contains(seg, ch) {
			return fmt.Errorf("name contains invalid character %q", ch)
		}
	}
	return nil
}

func (p Path) String() string { return p.raw }

func (p Path) IsRoot() bool { return p.raw == "" }

// Parts returns the path segments, nil for the root path.
func (p Path) Parts() []string {
	if p.raw == "" {
		return nil
	}
	return strings.Split(p.raw, "/")
}

func (p Path) Depth() int { return len(p.Parts()) }

// Name returns the last segment, "" for the root path.
func (p Path) Name() string {
	if i := strings.LastIndex(p.raw, "/"); i >= 0 {
		return p.raw[i+1:]
	}
	return p.raw
}

// Parent returns the path with the last segment removed.
func (p Path) Parent() Path {
	if i := strings.LastIndex(p.raw, "/"); i >= 0 {
		return Path{raw: p.raw[:i]}
	}
	return Path{}
}

// Join appends one segment, validating it first.
func (p Path) Join(seg string) (Path, error) {
	if err := ValidateSegment(seg); err != nil {
		return Path{}, err
	}
	if p.raw == "" {
		return Path{raw: seg}, nil
	}
	return Path{raw: p.raw + "/" + seg}, nil
}

// IsChildOf reports strict ancestry: the root path is an ancestor of every
// non-root path, and no path is a child of itself.
func (p Path) IsChildOf(other Path) bool {
	if p.raw == "" {
		return false
	}
	if other.raw == "" {
		return true
	}
	return strings.HasPrefix(p.raw, other.raw+"/")
}

// PathFromStored rebuilds a Path from an already-normalized stored string.
// Records persisted by this service always hold normalized paths, so no
// re-validation happens here.
func PathFromStored(s string) Path { return Path{raw: s} }
