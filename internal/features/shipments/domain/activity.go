package domain

import (
	"sort"
	"strings"
)

// rawKey holds a non-object activity rendered as text.
const rawKey = "_raw"

var (
	activityDateFields     = []string{"activity_date", "date", "ActivityDate", "activityDate", "datetime", "created_at"}
	activityReasonFields   = []string{"reason", "Reason", "description", "remarks"}
	activityLocationFields = []string{"location", "Location", "city", "hub"}

	packetFieldLabels = map[string]string{
		"booked_packet_id":       "Packet ID",
		"booking_date":           "Booking Date",
		"track_number_short":     "CN",
		"booked_packet_weight":   "Weight (g)",
		"arival_dispatch_weight": "Dispatch Weight",
		"consignment_status":     "Status",
		"current_status":         "Current Status",
		"origin_city":            "Origin",
		"destination_city":       "Destination",
	}
	packetFieldOrder = []string{
		"booking_date", "consignment_status", "current_status", "track_number_short",
		"booked_packet_weight", "origin_city", "destination_city", "booked_packet_id",
		"arival_dispatch_weight",
	}
	hiddenFields = map[string]bool{"api_key": true, "api_password": true}
)

// RawActivity wraps a non-object history entry.
func RawActivity(text string) Activity {
	return Activity{rawKey: text}
}

// fieldLabel turns snake_case keys into title-cased labels.
func fieldLabel(key string) string {
	if l, ok := packetFieldLabels[key]; ok {
		return l
	}
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// FormatActivity renders one activity. Scan entries become "status — date — location — reason";
// packet metadata becomes up to ten "Label: value" items joined by " | ".
func FormatActivity(act Activity) string {
	if raw := act[rawKey]; raw != "" {
		return raw
	}

	if status := firstField(act, activityStatusFields); status != "" {
		parts := []string{StatusName(status)}
		for _, group := range [][]string{activityDateFields, activityLocationFields, activityReasonFields} {
			if v := firstField(act, group); v != "" {
				parts = append(parts, v)
			}
		}
		return strings.Join(parts, " — ")
	}

	seen := map[string]bool{}
	var items []string
	for _, k := range packetFieldOrder {
		if v := strings.TrimSpace(act[k]); v != "" {
			items = append(items, fieldLabel(k)+": "+act[k])
			seen[k] = true
		}
	}

	rest := make([]string, 0, len(act))
	for k := range act {
		if !seen[k] && !hiddenFields[k] && strings.TrimSpace(act[k]) != "" {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		items = append(items, fieldLabel(k)+": "+act[k])
	}

	if len(items) == 0 {
		return "Tracking info received"
	}
	if len(items) > 10 {
		items = items[:10]
	}
	return strings.Join(items, " | ")
}

// TrackingSummary builds the timeline note posted after a manual refresh.
func TrackingSummary(label string, packets []PacketStatus) string {
	lines := []string{"Leopards Tracking (from API):", ""}
	if label != "" {
		lines = append(lines, "Current Status: "+label)
	} else {
		lines = append(lines, "For live status, open the Leopards tracking page.")
	}
	lines = append(lines, "")

	var acts []Activity
	for _, pkt := range packets {
		if tl := pkt.Timeline(); len(tl) > 0 {
			acts = append(acts, tl...)
		} else {
			acts = append(acts, Activity(pkt.Fields))
		}
	}

	for _, act := range acts {
		line := FormatActivity(act)
		if line == "" {
			continue
		}
		if strings.Contains(line, " | ") && (strings.Contains(line, "Booking Date") || strings.Contains(line, "Packet ID")) {
			for _, part := range strings.Split(line, " | ") {
				if part = strings.TrimSpace(part); part != "" {
					lines = append(lines, "• "+part)
				}
			}
			continue
		}
		lines = append(lines, "• "+line)
	}

	return strings.Join(lines, "\n")
}
