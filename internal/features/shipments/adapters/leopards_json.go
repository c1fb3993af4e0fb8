package adapters

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"leopards-connector/internal/features/shipments/domain"

	"github.com/shopspring/decimal"
)

// apiStatus accepts the 1, "1" and true spellings of success.
type apiStatus bool

func (s *apiStatus) UnmarshalJSON(b []byte) error {
	switch strings.Trim(string(bytes.TrimSpace(b)), `"`) {
	case "1", "true":
		*s = true
	default:
		*s = false
	}
	return nil
}

// flexDecimal accepts numbers, numeric strings, empty strings and null.
type flexDecimal struct {
	decimal.Decimal
}

func (d *flexDecimal) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		d.Decimal = decimal.Zero
		return nil
	}
	v, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		d.Decimal = decimal.Zero
		return nil
	}
	d.Decimal = v
	return nil
}

// flexString accepts strings, numbers and null.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	*s = flexString(scalarString(b))
	return nil
}

// scalarString renders a JSON scalar as text; objects and arrays keep their compact JSON form.
func scalarString(b []byte) string {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return ""
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			return s
		}
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, b); err == nil {
			return buf.String()
		}
	case 't', 'f':
		return string(b)
	default:
		if f, err := strconv.ParseFloat(string(b), 64); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	return string(b)
}

// errorText extracts the API error message. A map is keyed by CN.
func errorText(raw json.RawMessage, cn string) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" || string(raw) == `""` || string(raw) == "0" {
		return ""
	}
	if raw[0] == '{' {
		var m map[string]json.RawMessage
		if err := json.Unmarshal(raw, &m); err == nil {
			if v, ok := m[cn]; ok {
				return scalarString(v)
			}
			return "Unknown error"
		}
	}
	return scalarString(raw)
}

type tariffResponse struct {
	Status        apiStatus       `json:"status"`
	Error         json.RawMessage `json:"error"`
	PacketCharges struct {
		ShipmentCharges flexDecimal `json:"shipment_charges"`
		CashHandling    flexDecimal `json:"cash_handling"`
		Insurance       flexDecimal `json:"insurance_charges"`
		GST             flexDecimal `json:"gst_amount"`
		FuelSurcharge   flexDecimal `json:"fuel_surcharge_amount"`
	} `json:"packet_charges"`
}

func (r tariffResponse) tariff() domain.Tariff {
	c := r.PacketCharges
	return domain.Tariff{
		ShipmentCharges: c.ShipmentCharges.Decimal,
		CashHandling:    c.CashHandling.Decimal,
		Insurance:       c.Insurance.Decimal,
		GST:             c.GST.Decimal,
		FuelSurcharge:   c.FuelSurcharge.Decimal,
	}
}

type bookRequest struct {
	APIKey              string `json:"api_key"`
	APIPassword         string `json:"api_password"`
	WeightGrams         int    `json:"booked_packet_weight"`
	Pieces              int    `json:"booked_packet_no_piece"`
	CollectAmount       int64  `json:"booked_packet_collect_amount"`
	OrderID             string `json:"booked_packet_order_id"`
	OriginCity          string `json:"origin_city"`
	DestinationCity     string `json:"destination_city"`
	ShipmentName        string `json:"shipment_name_eng"`
	ShipmentEmail       string `json:"shipment_email"`
	ShipmentPhone       string `json:"shipment_phone"`
	ShipmentAddress     string `json:"shipment_address"`
	ConsigneeName       string `json:"consignment_name_eng"`
	ConsigneeEmail      string `json:"consignment_email"`
	ConsigneePhone      string `json:"consignment_phone"`
	ConsigneePhoneTwo   string `json:"consignment_phone_two"`
	ConsigneePhoneThree string `json:"consignment_phone_three"`
	ConsigneeAddress    string `json:"consignment_address"`
	SpecialInstructions string `json:"special_instructions"`
	ShipmentID          string `json:"shipment_id,omitempty"`
	ShipmentType        string `json:"shipment_type"`
}

type bookResponse struct {
	Status      apiStatus       `json:"status"`
	Error       json.RawMessage `json:"error"`
	TrackNumber flexString      `json:"track_number"`
	CNNumber    flexString      `json:"cn_number"`
	SlipLink    flexString      `json:"slip_link"`
	LabelURL    flexString      `json:"label_url"`
}

type cancelRequest struct {
	APIKey      string `json:"api_key"`
	APIPassword string `json:"api_password"`
	CNNumbers   string `json:"cn_numbers"`
}

type cancelResponse struct {
	Status apiStatus       `json:"status"`
	Error  json.RawMessage `json:"error"`
}

type trackResponse struct {
	Status     apiStatus       `json:"status"`
	Error      json.RawMessage `json:"error"`
	PacketList json.RawMessage `json:"packet_list"`
	Packets    json.RawMessage `json:"packets"`
	Tracking   json.RawMessage `json:"tracking"`
}

// packets decodes the first non-empty packet collection. A map is read as its values.
func (r trackResponse) packets() []domain.PacketStatus {
	for _, raw := range []json.RawMessage{r.PacketList, r.Packets, r.Tracking} {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || string(raw) == "null" {
			continue
		}

		var entries []json.RawMessage
		switch raw[0] {
		case '[':
			if err := json.Unmarshal(raw, &entries); err != nil {
				continue
			}
		case '{':
			var m map[string]json.RawMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				continue
			}
			keys := make([]string, 0, len(m))
			for k := range m {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				entries = append(entries, m[k])
			}
		default:
			continue
		}

		if len(entries) == 0 {
			continue
		}

		out := make([]domain.PacketStatus, 0, len(entries))
		for _, e := range entries {
			if p, ok := decodePacket(e); ok {
				out = append(out, p)
			}
		}
		return out
	}
	return nil
}

// decodePacket splits a packet object into scalar fields and nested activity lists.
func decodePacket(raw json.RawMessage) (domain.PacketStatus, bool) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return domain.PacketStatus{}, false
	}

	p := domain.PacketStatus{Fields: map[string]string{}}
	for k, v := range m {
		v = bytes.TrimSpace(v)
		if len(v) > 0 && v[0] == '[' {
			var items []json.RawMessage
			if err := json.Unmarshal(v, &items); err == nil {
				if p.Nested == nil {
					p.Nested = map[string][]domain.Activity{}
				}
				p.Nested[k] = decodeActivities(items)
				continue
			}
		}
		p.Fields[k] = scalarString(v)
	}
	return p, true
}

func decodeActivities(items []json.RawMessage) []domain.Activity {
	acts := make([]domain.Activity, 0, len(items))
	for _, item := range items {
		var m map[string]json.RawMessage
		if err := json.Unmarshal(item, &m); err != nil {
			acts = append(acts, domain.RawActivity(scalarString(item)))
			continue
		}
		act := domain.Activity{}
		for k, v := range m {
			act[k] = scalarString(v)
		}
		acts = append(acts, act)
	}
	return acts
}
