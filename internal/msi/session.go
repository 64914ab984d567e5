// Package msi models the boundary between a custom action and the
// installer host session that invoked it: named property access and
// the CustomActionData record format deferred actions receive their
// input through.
package msi

import (
	"fmt"
	"unicode/utf16"
)

// Session grants a single custom action read access to the properties
// of the installer transaction that invoked it. Implementations are
// single-use; nothing read through a Session outlives the invocation.
type Session interface {
	// Property returns the value of a named session property. A
	// property that was never set resolves to the empty string, the
	// same way the host resolves undefined properties.
	Property(name string) (string, error)
}

// PropertySession is a Session backed by a plain property map. The EXE
// shim builds one from its command line; tests build them directly.
type PropertySession map[string]string

func (s PropertySession) Property(name string) (string, error) {
	return s[name], nil
}

// BoundedProperty reads a property value truncated to at most maxUnits
// UTF-16 code units, mirroring hosts that hand out property values
// through fixed-size wide-character buffers.
func BoundedProperty(s Session, name string, maxUnits int) (string, error) {
	value, err := s.Property(name)
	if err != nil {
		return "", fmt.Errorf("read property %s: %w", name, err)
	}
	units := utf16.Encode([]rune(value))
	if len(units) > maxUnits {
		units = units[:maxUnits]
	}
	return string(utf16.Decode(units)), nil
}
