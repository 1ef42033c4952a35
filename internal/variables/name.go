package variables

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	// LocalPrefix marks a local variable name.
	LocalPrefix = "_"
	// ListSeparator separates the segments of a list variable name.
	ListSeparator = "::"
	// ListAll is the suffix that selects every entry of a list.
	ListAll = ListSeparator + "*"
)

// NameError reports an invalid variable name.
type NameError struct {
	Name   string
	Reason string
}

func (e *NameError) Error() string {
	return fmt.Sprintf("invalid variable name %q: %s", e.Name, e.Reason)
}

// Name is a validated variable reference.
type Name struct {
	// Key is the lookup key with the local prefix removed, NFC-normalized.
	Key string
	// Local selects the per-context scope.
	Local bool
	// List is true when Key ends in "::*".
	List bool
}

// ParseName validates a raw variable name.
func ParseName(raw string) (Name, error) {
	name := strings.TrimSpace(raw)
	local := strings.HasPrefix(name, LocalPrefix)
	if local {
		name = strings.TrimSpace(strings.TrimPrefix(name, LocalPrefix))
	}
	name = norm.NFC.String(name)

	switch {
	case name == "":
		return Name{}, &NameError{Name: raw, Reason: "name is empty"}
	case strings.HasPrefix(name, ListSeparator) || strings.HasSuffix(name, ListSeparator):
		return Name{}, &NameError{Name: raw, Reason: "a name cannot start or end with the list separator " + ListSeparator}
	case strings.Contains(name, "*") && (strings.Index(name, "*") != len(name)-1 || !strings.HasSuffix(name, ListAll)):
		return Name{}, &NameError{Name: raw, Reason: "an asterisk is only allowed in a trailing " + ListAll}
	case strings.Contains(name, ListSeparator+ListSeparator):
		return Name{}, &NameError{Name: raw, Reason: "a name cannot contain two list separators in a row"}
	}

	return Name{Key: name, Local: local, List: strings.HasSuffix(name, ListAll)}, nil
}

// MustParseName is ParseName for names known to be valid.
func MustParseName(raw string) Name {
	n, err := ParseName(raw)
	if err != nil {
		panic(err)
	}
	return n
}

// Segments splits the key into its list path, without the "*" of a list
// name.
func (n Name) Segments() []string {
	return splitKey(n.Key)
}

// Parent returns the enclosing list key, e.g. "a::b" for "a::b::c", or ""
// for a top-level name.
func (n Name) Parent() string {
	segs := n.Segments()
	if n.List {
		segs = append(segs, "*")
	}
	if len(segs) < 2 {
		return ""
	}
	return strings.Join(segs[:len(segs)-1], ListSeparator)
}

func (n Name) String() string {
	if n.Local {
		return LocalPrefix + n.Key
	}
	return n.Key
}

func splitKey(key string) []string {
	key = strings.TrimSuffix(key, ListAll)
	return strings.Split(key, ListSeparator)
}
