package mapping

import (
	"fmt"
	"go/token"
	"strings"
)

// DefaultTagKey is the struct tag key read for field metadata.
const DefaultTagKey = "domain"

const optOrdinal = "ordinal"

// TagOptions is the parsed form of a `domain:"..."` struct tag.
type TagOptions struct {
	// Rename is the domain-side field name, empty when absent.
	Rename string
	// Ordinal is the raw enum type reference of an ordinal-encoded field.
	Ordinal string
}

// ParseTag parses a tag value of the form "name,ordinal=Ref". Every part is
// optional.
func ParseTag(value string) (TagOptions, error) {
	var opts TagOptions

	if value == "" {
		return opts, nil
	}

	parts := strings.Split(value, ",")

	opts.Rename = strings.TrimSpace(parts[0])
	if opts.Rename != "" && !token.IsIdentifier(opts.Rename) {
		return opts, fmt.Errorf("rename %q is not a Go identifier", opts.Rename)
	}

	for _, part := range parts[1:] {
		key, val, _ := strings.Cut(strings.TrimSpace(part), "=")

		switch key {
		case optOrdinal:
			if val == "" {
				return opts, fmt.Errorf("option %q needs an enum type", optOrdinal)
			}

			opts.Ordinal = val
		case "":
			// tolerate "name," and ",,"
		default:
			return opts, fmt.Errorf("unknown tag option %q", key)
		}
	}

	return opts, nil
}
