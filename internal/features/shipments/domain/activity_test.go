package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestFormatActivity verifies the scan and metadata renderings.
func TestFormatActivity(t *testing.T) {
	t.Run("Scan", func(t *testing.T) {
		line := FormatActivity(Activity{
			"status":        "AC",
			"activity_date": "2024-03-01 10:00",
			"location":      "Lahore",
			"reason":        "Rider assigned",
		})
		assert.Equal(t, "Out For Delivery — 2024-03-01 10:00 — Lahore — Rider assigned", line)
	})

	t.Run("ScanWithoutExtras", func(t *testing.T) {
		assert.Equal(t, "XY", FormatActivity(Activity{"Status": "XY"}))
	})

	t.Run("Raw", func(t *testing.T) {
		assert.Equal(t, "plain text", FormatActivity(RawActivity("plain text")))
	})

	t.Run("Metadata", func(t *testing.T) {
		line := FormatActivity(Activity{
			"booked_packet_id":   "99",
			"booking_date":       "2024-03-01",
			"track_number_short": "LE1",
			"api_key":            "secret",
			"zone_name":          "North",
		})
		assert.Equal(t, "Booking Date: 2024-03-01 | CN: LE1 | Packet ID: 99 | Zone Name: North", line)
		assert.NotContains(t, line, "secret")
	})

	t.Run("MetadataCappedAtTen", func(t *testing.T) {
		act := Activity{}
		for _, k := range []string{"a1", "a2", "a3", "a4", "a5", "a6", "a7", "a8", "a9", "b1", "b2"} {
			act[k] = "x"
		}
		assert.Len(t, strings.Split(FormatActivity(act), " | "), 10)
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Equal(t, "Tracking info received", FormatActivity(Activity{}))
	})
}

// TestTrackingSummary verifies the refresh note layout.
func TestTrackingSummary(t *testing.T) {
	packets := []PacketStatus{
		{
			Fields: map[string]string{"booked_packet_status": "AC"},
			Nested: map[string][]Activity{"activities": {
				{"status": "RC", "date": "2024-03-01"},
				{"status": "AC", "date": "2024-03-02"},
			}},
		},
		{Fields: map[string]string{"booking_date": "2024-03-01", "booked_packet_id": "7"}},
	}

	summary := TrackingSummary("Out For Delivery (AC)", packets)

	assert.Equal(t, strings.Join([]string{
		"Leopards Tracking (from API):",
		"",
		"Current Status: Out For Delivery (AC)",
		"",
		"• Consignment Booked — 2024-03-01",
		"• Out For Delivery — 2024-03-02",
		"• Booking Date: 2024-03-01",
		"• Packet ID: 7",
	}, "\n"), summary)
}

// TestTrackingSummary_NoLabel verifies the hint shown before any status is known.
func TestTrackingSummary_NoLabel(t *testing.T) {
	summary := TrackingSummary("", nil)
	assert.Contains(t, summary, "open the Leopards tracking page")
}
