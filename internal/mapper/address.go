package mapper

import (
	"strings"

	"github.com/craftyard/shopsync-worker/internal/quickbooks"
)

// FormatAddress collapses a structured QuickBooks address into the single
// text line the shop schema stores: "line, city, region, postal, country".
// Empty fields are dropped.
func FormatAddress(addr *quickbooks.PhysicalAddress) string {
	if addr == nil {
		return ""
	}
	parts := []string{}
	for _, field := range []string{
		addr.Line1,
		addr.City,
		addr.CountrySubDivisionCode,
		addr.PostalCode,
		addr.Country,
	} {
		if field != "" {
			parts = append(parts, field)
		}
	}
	return strings.Join(parts, ", ")
}

// ParseAddress re-expands a formatted line by splitting on commas and
// assigning the pieces positionally. This is the inverse of FormatAddress
// only when no field itself contains a comma; a street like
// "12 Main St, Suite 4" will bleed into the city slot. Known lossy
// transform, kept until the schema carries structured addresses.
func ParseAddress(line string) *quickbooks.PhysicalAddress {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	addr := &quickbooks.PhysicalAddress{}
	fields := []*string{
		&addr.Line1,
		&addr.City,
		&addr.CountrySubDivisionCode,
		&addr.PostalCode,
		&addr.Country,
	}
	for i, part := range parts {
		if i >= len(fields) {
			break
		}
		*fields[i] = part
	}
	return addr
}
