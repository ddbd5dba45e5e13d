package probe

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSelectorSyntax is wrapped by every ParseSelector failure.
var ErrSelectorSyntax = errors.New("malformed selector")

// Selector identifies one debug probe among the attached USB devices.
// Serial is optional; an empty Serial matches any serial number.
type Selector struct {
	VendorID  uint16
	ProductID uint16
	Serial    string
}

// ParseSelector parses the textual selector grammar
//
//	<vendor_id>:<product_id>[:<serial>]
//
// Vendor and product IDs are 1 to 4 hex digits with an optional 0x prefix.
// The serial is everything after the second colon and may contain colons.
func ParseSelector(s string) (Selector, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 3)
	if len(parts) < 2 {
		return Selector{}, fmt.Errorf("%w: expected <vendor_id>:<product_id>[:<serial>]", ErrSelectorSyntax)
	}
	vid, err := parseID(parts[0])
	if err != nil {
		return Selector{}, fmt.Errorf("%w: vendor id: %v", ErrSelectorSyntax, err)
	}
	pid, err := parseID(parts[1])
	if err != nil {
		return Selector{}, fmt.Errorf("%w: product id: %v", ErrSelectorSyntax, err)
	}
	sel := Selector{VendorID: vid, ProductID: pid}
	if len(parts) == 3 {
		if parts[2] == "" {
			return Selector{}, fmt.Errorf("%w: empty serial number", ErrSelectorSyntax)
		}
		sel.Serial = parts[2]
	}
	return sel, nil
}

func parseID(s string) (uint16, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" || len(s) > 4 {
		return 0, fmt.Errorf("%q is not a 16-bit hex number", s)
	}
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("%q is not a 16-bit hex number", s)
	}
	return uint16(v), nil
}

// String renders the selector in canonical form, e.g. "1366:1015:000683".
func (s Selector) String() string {
	if s.Serial == "" {
		return fmt.Sprintf("%04x:%04x", s.VendorID, s.ProductID)
	}
	return fmt.Sprintf("%04x:%04x:%s", s.VendorID, s.ProductID, s.Serial)
}

// Matches reports whether an enumerated device satisfies the selector.
func (s Selector) Matches(d DeviceInfo) bool {
	if s.VendorID != d.VendorID || s.ProductID != d.ProductID {
		return false
	}
	return s.Serial == "" || s.Serial == d.Serial
}

// Grammar is the default selector grammar. Its zero value is ready to use.
type Grammar struct{}

// ParseSelector implements the selector grammar; see the package-level ParseSelector.
func (Grammar) ParseSelector(s string) (Selector, error) {
	return ParseSelector(s)
}
