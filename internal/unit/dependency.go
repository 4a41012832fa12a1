// Package unit edits the systemd units produced by `podman generate systemd`.
package unit

import "fmt"

// Kind is the systemd directive a dependency is rendered as.
type Kind int

const (
	Wants    Kind = iota // soft activation hint
	Requires             // hard activation dependency
	After                // ordering only
)

func (k Kind) String() string {
	switch k {
	case Wants:
		return "Wants"
	case Requires:
		return "Requires"
	case After:
		return "After"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Dependency references another unit by name. Names are passed to systemd
// as written; existence and cycles are systemd's concern.
type Dependency struct {
	Kind Kind
	Name string
}

// NewDependency creates a Dependency.
func NewDependency(kind Kind, name string) Dependency {
	return Dependency{Kind: kind, Name: name}
}

// Directive renders the dependency as a unit line without newline.
func (d Dependency) Directive() string {
	return d.Kind.String() + "=" + d.Name
}

// Dependencies builds the dependency list of a service: every after entry,
// then every requires entry, then every wants entry, each group in the
// order given.
func Dependencies(after, requires, wants []string) []Dependency {
	deps := make([]Dependency, 0, len(after)+len(requires)+len(wants))
	for _, name := range after {
		deps = append(deps, NewDependency(After, name))
	}
	for _, name := range requires {
		deps = append(deps, NewDependency(Requires, name))
	}
	for _, name := range wants {
		deps = append(deps, NewDependency(Wants, name))
	}
	return deps
}
