package unit

import (
	"errors"
	"fmt"
	"strings"
)

// Tokens the postprocessor relies on in podman's generated units. They are
// part of podman's output format; a fixture test pins them.
const (
	DocumentationAnchor = "Documentation"
	SectionHeader       = "[Unit]"
)

// ErrProtocol matches every *ProtocolError.
var ErrProtocol = errors.New("unexpected unit generator output")

// ProtocolError reports generator output lacking a token the postprocessor
// anchors on, which means podman's output format changed.
type ProtocolError struct {
	Step  string
	Token string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %q not found in generated unit", e.Step, e.Token)
}

func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}

// InjectDependencies inserts one directive line per dependency right before
// the first Documentation field. An empty list leaves text unchanged.
func InjectDependencies(text string, deps []Dependency) (string, error) {
	at := strings.Index(text, DocumentationAnchor)
	if at < 0 {
		return "", &ProtocolError{Step: "inject dependencies", Token: DocumentationAnchor}
	}

	var block strings.Builder
	for _, d := range deps {
		block.WriteString(d.Directive())
		block.WriteByte('\n')
	}
	return text[:at] + block.String() + text[at:], nil
}

// StripComments drops everything before the first [Unit] header.
func StripComments(text string) (string, error) {
	at := strings.Index(text, SectionHeader)
	if at < 0 {
		return "", &ProtocolError{Step: "strip comments", Token: SectionHeader}
	}
	return text[at:], nil
}

