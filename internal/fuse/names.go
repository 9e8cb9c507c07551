package fuse

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// CompanionPrefix is prepended to a record name to address its AppleDouble companion
const CompanionPrefix = "._"

// swapSeparators exchanges ':' and '/'. Applying it twice is the identity.
func swapSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ':':
			return '/'
		case '/':
			return ':'
		}
		return r
	}, s)
}

// DecodeName converts a Mac Roman string to UTF-8. Decoders are created
// per call and never shared.
func DecodeName(native string) (string, error) {
	s, err := charmap.Macintosh.NewDecoder().String(native)
	if err != nil {
		return "", fmt.Errorf("decode %q: %w", native, err)
	}
	return s, nil
}

// ToPresentation converts a native name component to UTF-8 with ':' and
// '/' swapped.
func ToPresentation(native string) (string, error) {
	s, err := DecodeName(native)
	if err != nil {
		return "", err
	}
	return swapSeparators(s), nil
}

// ToNative is the inverse of ToPresentation. Names holding characters with
// no Mac Roman equivalent fail; callers treat that as a missing entry.
func ToNative(name string) (string, error) {
	s, err := charmap.Macintosh.NewEncoder().String(swapSeparators(name))
	if err != nil {
		return "", fmt.Errorf("encode %q: %w", name, err)
	}
	return s, nil
}

// splitPath returns the parent components and final component of an absolute
// POSIX path. The root has no components.
func splitPath(path string) ([]string, string) {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" && p != "." {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return nil, ""
	}
	return parts[:len(parts)-1], parts[len(parts)-1]
}

// nativePath encodes each presentation component and joins them with the
// volume's ':' separator, producing the form the path classifier expects.
func nativePath(dir []string, name string) (string, error) {
	var b strings.Builder
	for _, p := range dir {
		n, err := ToNative(p)
		if err != nil {
			return "", err
		}
		b.WriteString(":")
		b.WriteString(n)
	}
	b.WriteString(":")
	b.WriteString(name)
	return b.String(), nil
}
