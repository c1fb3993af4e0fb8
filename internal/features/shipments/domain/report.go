package domain

import "strings"

// StatusFields is the priority order in which a packet's status is read.
var StatusFields = []string{
	"booked_packet_status",
	"consignment_status",
	"current_status",
	"status",
	"status_code",
	"Status",
}

// activityStatusFields is the priority order for a single activity entry.
var activityStatusFields = []string{"status", "status_code", "Status"}

// timelineKeys name the nested lists that may carry a packet's scan history.
var timelineKeys = []string{"activities", "history", "tracking_history", "tracking_details", "scans"}

// Activity is one scan or history entry with its values rendered as strings.
type Activity map[string]string

// PacketStatus is one packet entry from a track response.
type PacketStatus struct {
	// Fields holds the scalar fields of the packet.
	Fields map[string]string `json:"fields"`
	// Nested holds list-valued fields such as activities or history.
	Nested map[string][]Activity `json:"nested,omitempty"`
}

// TrackResult is the parsed outcome of a track call.
type TrackResult struct {
	// Packets are the packet entries, in response order.
	Packets []PacketStatus `json:"packets"`
	// Cancelled is set when a packet status is a cancellation code.
	Cancelled bool `json:"cancelled"`
	// CancelHint is set when the API error text mentions a cancellation. It is not authoritative.
	CancelHint bool `json:"cancel_hint"`
	// Error is the API error text, if any.
	Error string `json:"error,omitempty"`
}

// firstField returns the first non-blank value among keys.
func firstField(m map[string]string, keys []string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(m[k]); v != "" {
			return v
		}
	}
	return ""
}

// StatusCode returns the packet's status by field priority, or "".
func (p PacketStatus) StatusCode() string {
	return firstField(p.Fields, StatusFields)
}

// LastActivityCode returns the status of the latest entry in activities or history.
func (p PacketStatus) LastActivityCode() string {
	acts := p.Nested["activities"]
	if len(acts) == 0 {
		acts = p.Nested["history"]
	}
	if len(acts) == 0 {
		return ""
	}
	return firstField(acts[len(acts)-1], activityStatusFields)
}

// Timeline returns the first non-empty nested history list.
func (p PacketStatus) Timeline() []Activity {
	for _, k := range timelineKeys {
		if acts := p.Nested[k]; len(acts) > 0 {
			return acts
		}
	}
	return nil
}

// HasCancelCode reports whether any status field holds a cancellation code.
func (p PacketStatus) HasCancelCode() bool {
	for _, k := range StatusFields {
		if IsCancelCode(p.Fields[k]) {
			return true
		}
	}
	return false
}

// cancelKeywords mark an API error text as describing a cancelled packet.
var cancelKeywords = []string{"cancel", "cancelled", "canceled", "cn cancelled", "packet cancelled", "shipment cancelled"}

// MentionsCancellation reports whether an API error text looks like a cancellation notice.
func MentionsCancellation(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range cancelKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Outcome classifies what a reconciliation did.
type Outcome string

const (
	// OutcomeUpdated means the label advanced.
	OutcomeUpdated Outcome = "updated"
	// OutcomeUnchanged means the incoming status equals the stored one.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeRegressionRejected means the incoming status ranked lower and was dropped.
	OutcomeRegressionRejected Outcome = "regression_rejected"
	// OutcomeNoStatus means the response had no usable status.
	OutcomeNoStatus Outcome = "no_status"
	// OutcomeBooked means the packet exists without a status and the empty label became LabelBooked.
	OutcomeBooked Outcome = "booked"
	// OutcomeCancelled means the label was forced to LabelCancelled.
	OutcomeCancelled Outcome = "cancelled"
)

// Resolution is the result of reconciling a stored label against a track result.
type Resolution struct {
	Label   string
	Code    string
	Outcome Outcome
}

// Changed reports whether the label must be written.
func (r Resolution) Changed() bool {
	return r.Outcome == OutcomeUpdated || r.Outcome == OutcomeBooked || r.Outcome == OutcomeCancelled
}

// Reconcile decides the next label for current given the packets of a track response.
// Only the first packet is consulted. Cancellation is handled by the caller.
func Reconcile(current string, packets []PacketStatus) Resolution {
	if len(packets) == 0 {
		return Resolution{Label: current, Outcome: OutcomeNoStatus}
	}

	pkt := packets[0]
	code := pkt.StatusCode()
	if code == "" {
		code = pkt.LastActivityCode()
	}

	if code == "" {
		if strings.TrimSpace(current) == "" {
			return Resolution{Label: LabelBooked, Outcome: OutcomeBooked}
		}
		return Resolution{Label: current, Outcome: OutcomeNoStatus}
	}

	if IsRegression(current, code) {
		return Resolution{Label: current, Code: strings.ToUpper(code), Outcome: OutcomeRegressionRejected}
	}

	next, changed := ApplyStatus(current, code, StatusName(code))
	if !changed {
		return Resolution{Label: current, Code: strings.ToUpper(code), Outcome: OutcomeUnchanged}
	}
	return Resolution{Label: next, Code: strings.ToUpper(code), Outcome: OutcomeUpdated}
}

// CancelledResolution forces the cancelled label.
func CancelledResolution(current string) Resolution {
	if current == LabelCancelled {
		return Resolution{Label: current, Code: "CN", Outcome: OutcomeUnchanged}
	}
	return Resolution{Label: LabelCancelled, Code: "CN", Outcome: OutcomeCancelled}
}
