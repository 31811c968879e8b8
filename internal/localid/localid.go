package localid

import "strings"

// String prefixes shared with stored metadata and UI consumers. An id
// carrying one of these prefixes is served from local storage instead of
// the network.
const (
	LocalPrefix     = "local:"
	LocalViewPrefix = "localview:"

	// TopLevelView is the id of the synthetic "Downloads" folder.
	TopLevelView = "localview"
)

// Kind classifies an identifier at the API boundary.
type Kind int

const (
	// Remote identifies an item that lives on the server.
	Remote Kind = iota
	// Local identifies an item mirrored into local storage.
	Local
	// LocalView identifies a synthesized virtual folder.
	LocalView
	// TopLevel identifies the synthetic top-level Downloads folder.
	TopLevel
)

// ID is an identifier tagged with where it resolves. Construct it once
// with Parse instead of scattering prefix checks through every caller.
type ID struct {
	kind Kind
	// value is the raw identifier with any routing prefix removed.
	value string
}

// Parse classifies a raw identifier string.
func Parse(s string) ID {
	switch {
	case s == TopLevelView:
		return ID{kind: TopLevel, value: s}
	case strings.HasPrefix(s, LocalViewPrefix):
		return ID{kind: LocalView, value: strings.TrimPrefix(s, LocalViewPrefix)}
	case strings.HasPrefix(s, LocalPrefix):
		return ID{kind: Local, value: strings.TrimPrefix(s, LocalPrefix)}
	default:
		return ID{kind: Remote, value: s}
	}
}

// Kind returns the identifier classification.
func (id ID) Kind() Kind { return id.kind }

// Value returns the identifier without any routing prefix.
func (id ID) Value() string { return id.value }

// IsLocal reports whether the id resolves against local storage,
// including virtual folders.
func (id ID) IsLocal() bool { return id.kind != Remote }

// String renders the id back into its prefixed wire form.
func (id ID) String() string {
	switch id.kind {
	case Local:
		return LocalPrefix + id.value
	case LocalView:
		return LocalViewPrefix + id.value
	default:
		return id.value
	}
}

// ToLocal rewrites a raw id into its local-prefixed form. Idempotent:
// an already-prefixed id passes through unchanged. Empty ids stay empty.
func ToLocal(id string) string {
	if id == "" {
		return ""
	}
	if strings.HasPrefix(id, LocalPrefix) {
		return id
	}
	return LocalPrefix + id
}

// ToLocalView rewrites a view name into its localview-prefixed form.
func ToLocalView(name string) string {
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, LocalViewPrefix) {
		return name
	}
	return LocalViewPrefix + name
}

// Strip removes any local or localview prefix from an id.
func Strip(id string) string {
	id = strings.TrimPrefix(id, LocalViewPrefix)
	id = strings.TrimPrefix(id, LocalPrefix)
	return id
}

// IsLocalID reports whether a raw string carries the local prefix.
func IsLocalID(id string) bool { return strings.HasPrefix(id, LocalPrefix) }

// IsLocalViewID reports whether a raw string carries the localview prefix.
func IsLocalViewID(id string) bool { return strings.HasPrefix(id, LocalViewPrefix) }
