package corpus

import (
	"strconv"
	"strings"
)

// Span selects a character range of a resolved string value.
// Start and end are byte offsets with start ≤ end ≤ len.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// SnapshotPointer addresses a location inside a stored snapshot: the whole
// document, a value at a restricted JSON path, or a character span of a
// string value.
type SnapshotPointer struct {
	StoreID string `json:"store_id"`
	Version string `json:"version"`
	Path    string `json:"path,omitempty"`
	Span    *Span  `json:"span,omitempty"`
}

// Key renders the pointer as "store:version[:path]". The round-trip through
// ParsePointerKey holds for every pointer whose path contains no colon.
func (p SnapshotPointer) Key() string {
	if p.Path != "" {
		return p.StoreID + ":" + p.Version + ":" + p.Path
	}
	return p.StoreID + ":" + p.Version
}

// ParsePointerKey parses a key produced by SnapshotPointer.Key.
func ParsePointerKey(key string) (SnapshotPointer, error) {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return SnapshotPointer{}, Errorf(KindValidation, "pointer.parse", "malformed pointer key %q", key)
	}
	p := SnapshotPointer{StoreID: parts[0], Version: parts[1]}
	if len(parts) == 3 {
		p.Path = parts[2]
	}
	return p, nil
}

// pathSegment is one step of a parsed path: a property name or an index.
type pathSegment struct {
	key     string
	index   int
	isIndex bool
}

// parsePath parses the restricted JSON-path grammar: an optional "$" root,
// dot property access, and bracketed non-negative integer indexes.
// "$", "$.a.b[0]", "a.b[0]" and "" are all valid; "" and "$" select the root.
func parsePath(expr string) ([]pathSegment, error) {
	s := expr
	if strings.HasPrefix(s, "$") {
		s = strings.TrimPrefix(s[1:], ".")
	}
	if s == "" {
		return nil, nil
	}

	var segs []pathSegment
	i := 0
	for i < len(s) {
		switch s[i] {
		case '.':
			i++
			if len(segs) == 0 || i >= len(s) || s[i] == '.' || s[i] == '[' {
				return nil, Errorf(KindValidation, "pointer.path", "empty segment in %q", expr)
			}
		case '[':
			j := strings.IndexByte(s[i:], ']')
			if j < 0 {
				return nil, Errorf(KindValidation, "pointer.path", "unterminated index in %q", expr)
			}
			digits := s[i+1 : i+j]
			n, err := strconv.Atoi(digits)
			if err != nil || n < 0 || digits == "" {
				return nil, Errorf(KindValidation, "pointer.path", "bad index %q in %q", digits, expr)
			}
			segs = append(segs, pathSegment{index: n, isIndex: true})
			i += j + 1
		default:
			j := i
			for j < len(s) && s[j] != '.' && s[j] != '[' {
				j++
			}
			name := s[i:j]
			if name == "" {
				return nil, Errorf(KindValidation, "pointer.path", "empty segment in %q", expr)
			}
			segs = append(segs, pathSegment{key: name})
			i = j
		}
	}
	return segs, nil
}

// ResolvePath walks a decoded JSON value (map[string]any / []any shapes)
// along path. A missing property or out-of-range index resolves to
// (nil, false, nil): absent, but not an error. Traversing through a nil or
// non-container value is a not_found error, as is a property access on an
// array or an index into an object.
func ResolvePath(value any, path string) (any, bool, error) {
	segs, err := parsePath(path)
	if err != nil {
		return nil, false, err
	}
	cur := value
	for _, seg := range segs {
		switch node := cur.(type) {
		case map[string]any:
			if seg.isIndex {
				return nil, false, Errorf(KindNotFound, "pointer.resolve", "index %d into object at %q", seg.index, path)
			}
			next, ok := node[seg.key]
			if !ok {
				return nil, false, nil
			}
			cur = next
		case []any:
			if !seg.isIndex {
				return nil, false, Errorf(KindNotFound, "pointer.resolve", "property %q on array at %q", seg.key, path)
			}
			if seg.index >= len(node) {
				return nil, false, nil
			}
			cur = node[seg.index]
		default:
			return nil, false, Errorf(KindNotFound, "pointer.resolve", "cannot traverse %T at %q", cur, path)
		}
	}
	return cur, true, nil
}

// ApplySpan slices s to span. Bounds are validated: start and end must be
// non-negative, end ≤ len(s), start ≤ end.
func ApplySpan(s string, span Span) (string, error) {
	if span.Start < 0 || span.End < 0 {
		return "", Errorf(KindValidation, "pointer.span", "negative span {%d,%d}", span.Start, span.End)
	}
	if span.End > len(s) {
		return "", Errorf(KindValidation, "pointer.span", "span end %d past length %d", span.End, len(s))
	}
	if span.Start > span.End {
		return "", Errorf(KindValidation, "pointer.span", "span start %d after end %d", span.Start, span.End)
	}
	return s[span.Start:span.End], nil
}
