package unit

import (
	"fmt"
	"strings"

	systemdunit "github.com/coreos/go-systemd/v22/unit"
)

// Parse deserializes unit text with go-systemd's unit parser and checks
// that it has a Unit section.
func Parse(text string) ([]*systemdunit.UnitSection, error) {
	sections, err := systemdunit.DeserializeSections(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("failed to parse unit: %w", err)
	}
	for _, section := range sections {
		if section.Section == strings.Trim(SectionHeader, "[]") {
			return sections, nil
		}
	}
	return nil, &ProtocolError{Step: "parse unit", Token: SectionHeader}
}

// Values returns every value of name in section, in file order.
func Values(sections []*systemdunit.UnitSection, section, name string) []string {
	var values []string
	for _, s := range sections {
		if s.Section != section {
			continue
		}
		for _, entry := range s.Entries {
			if entry.Name == name {
				values = append(values, entry.Value)
			}
		}
	}
	return values
}
