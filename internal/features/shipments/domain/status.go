package domain

import (
	"regexp"
	"strings"
)

const (
	// LabelBooked is written when a packet is booked or exists upstream without a status.
	LabelBooked = "Booked (Pickup Request not Send)"
	// LabelCancelled is force-written on confirmed cancellation, bypassing rank.
	LabelCancelled = "Cancelled (CN)"

	// defaultRank places unknown codes mid-lifecycle.
	defaultRank = 50
)

// statusRanks orders courier status codes by lifecycle progress.
var statusRanks = map[string]int{
	"RC":                      10,
	"SP":                      15,
	"AR":                      20,
	"DP":                      30,
	"AC":                      40,
	"PN1":                     45,
	"PN2":                     46,
	"RO":                      60,
	"RN1":                     65,
	"RN2":                     66,
	"NR":                      70,
	"RW":                      80,
	"DW":                      85,
	"RS":                      90,
	"DR":                      90,
	"CN":                      95,
	"CL":                      95,
	"CANCELLED":               95,
	"CANCELED":                95,
	"DV":                      100,
	"PICKUP REQUEST NOT SEND": 10,
	"BOOKED":                  10,
}

var statusNames = map[string]string{
	"RC":        "Consignment Booked",
	"AC":        "Out For Delivery",
	"DV":        "Delivered",
	"PN1":       "First Attempt",
	"PN2":       "Second Attempt",
	"RO":        "Being Return",
	"RN1":       "First Return Attempt",
	"RN2":       "Second Return Attempt",
	"RW":        "Returned to Warehouse",
	"DW":        "Delivered to Warehouse",
	"RS":        "Returned to Shipper",
	"DR":        "Delivered to Vendor",
	"AR":        "Arrived At Station",
	"DP":        "Dispatched",
	"NR":        "Ready for Return",
	"SP":        "Shipment Picked",
	"CN":        "Cancelled",
	"CL":        "Cancelled",
	"CANCELLED": "Cancelled",
	"CANCELED":  "Cancelled",
}

// TerminalLabels are the labels after which a shipment is no longer polled.
var TerminalLabels = []string{
	"Delivered (DV)",
	"Returned to Shipper (RS)",
	"Delivered to Vendor (DR)",
	LabelCancelled,
}

var trailingCode = regexp.MustCompile(`\(([^()]*)\)\s*$`)

// Rank returns the lifecycle rank of a status code. Lookup is case-insensitive.
func Rank(code string) int {
	if r, ok := statusRanks[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return r
	}
	return defaultRank
}

// StatusName returns the display name of a code, or the code itself when unknown.
func StatusName(code string) string {
	code = strings.TrimSpace(code)
	if name, ok := statusNames[strings.ToUpper(code)]; ok {
		return name
	}
	return code
}

// IsCancelCode reports whether code means the courier cancelled the packet.
func IsCancelCode(code string) bool {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "CN", "CL", "CANCELLED", "CANCELED":
		return true
	}
	return false
}

// ExtractCode recovers the status code from a stored label such as "Delivered (DV)".
// A label without a trailing parenthesised group is treated as a bare code.
func ExtractCode(label string) string {
	text := strings.TrimSpace(label)
	if text == "" {
		return ""
	}
	if m := trailingCode.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(strings.TrimSpace(m[1]))
	}
	return strings.ToUpper(text)
}

// FormatLabel renders "<name> (<CODE>)", falling back to the code for a blank name.
func FormatLabel(code, name string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	name = strings.TrimSpace(name)
	if name == "" {
		name = code
	}
	return name + " (" + code + ")"
}

// ApplyStatus computes the label after receiving code, refusing to move to a lower rank.
// It never fails: a blank code or a regression returns current unchanged.
func ApplyStatus(current, code, name string) (string, bool) {
	if strings.TrimSpace(code) == "" {
		return current, false
	}

	if currentCode := ExtractCode(current); currentCode != "" && Rank(code) < Rank(currentCode) {
		return current, false
	}

	next := FormatLabel(code, name)
	if next == current {
		return current, false
	}
	return next, true
}

// IsRegression reports whether code would move current to a lower rank.
func IsRegression(current, code string) bool {
	currentCode := ExtractCode(current)
	return currentCode != "" && strings.TrimSpace(code) != "" && Rank(code) < Rank(currentCode)
}

// IsTerminal reports whether the label is one after which polling stops.
func IsTerminal(label string) bool {
	for _, l := range TerminalLabels {
		if l == label {
			return true
		}
	}
	return false
}
