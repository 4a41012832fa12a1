// Package mapping validates the raw volume and port pairings of a service
// configuration.
package mapping

import (
	"errors"
	"fmt"
	"strings"
)

// Kind names the category of a mapping in error messages.
type Kind string

const (
	KindVolume Kind = "volume"
	KindPort   Kind = "port"
)

const separator = ":"

// ErrMalformed matches every *MalformedError.
var ErrMalformed = errors.New("malformed mapping")

// MalformedError reports a mapping string without a ':' separator.
type MalformedError struct {
	Kind  Kind
	Value string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("missing '%s' separator in %s definition: %s", separator, e.Kind, e.Value)
}

func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}

// Volume is a validated `source:destination[:options]` volume pairing.
type Volume struct {
	pair string
}

// NewVolume validates pair. Path existence is left to the runtime.
func NewVolume(pair string) (Volume, error) {
	if !strings.Contains(pair, separator) {
		return Volume{}, &MalformedError{Kind: KindVolume, Value: pair}
	}
	return Volume{pair: pair}, nil
}

func (v Volume) String() string {
	return v.pair
}

// Port is a validated `host:container[/proto]` port pairing.
type Port struct {
	pair string
}

// NewPort validates pair. Port ranges are left to the runtime.
func NewPort(pair string) (Port, error) {
	if !strings.Contains(pair, separator) {
		return Port{}, &MalformedError{Kind: KindPort, Value: pair}
	}
	return Port{pair: pair}, nil
}

func (p Port) String() string {
	return p.pair
}

// Volumes validates every entry of raw, stopping at the first malformed one.
func Volumes(raw []string) ([]Volume, error) {
	volumes := make([]Volume, 0, len(raw))
	for _, pair := range raw {
		v, err := NewVolume(pair)
		if err != nil {
			return nil, err
		}
		volumes = append(volumes, v)
	}
	return volumes, nil
}

// Ports validates every entry of raw, stopping at the first malformed one.
func Ports(raw []string) ([]Port, error) {
	ports := make([]Port, 0, len(raw))
	for _, pair := range raw {
		p, err := NewPort(pair)
		if err != nil {
			return nil, err
		}
		ports = append(ports, p)
	}
	return ports, nil
}
