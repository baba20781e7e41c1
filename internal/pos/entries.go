package pos

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Entry is one venue revenue row after normalisation.
type Entry struct {
	VenueID int64
	Amount  float64
}

// rawEntry accepts the field spellings seen across endpoint variants.
type rawEntry struct {
	VenueID flexNumber `json:"venueId"`
	FirmID  flexNumber `json:"firmId"`
	Revenue flexNumber `json:"revenue"`
	Total   flexNumber `json:"total"`
	Amount  flexNumber `json:"amount"`
}

type envelope struct {
	Entries  []json.RawMessage `json:"entries"`
	Location []json.RawMessage `json:"location"`
}

// decodeEntries folds the vendor response variants (bare array,
// {"entries": [...]}, {"location": [...]}) into one list.
func decodeEntries(body []byte) ([]Entry, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}
	var raw []json.RawMessage
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("pos: decode entry list: %w", err)
		}
	case '{':
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("pos: decode envelope: %w", err)
		}
		raw = env.Entries
		if raw == nil {
			raw = env.Location
		}
	default:
		return nil, fmt.Errorf("pos: unexpected response shape starting with %q", trimmed[0])
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var r rawEntry
		if err := json.Unmarshal(item, &r); err != nil {
			// Not an object; it cannot belong to any venue.
			continue
		}
		entries = append(entries, r.normalise())
	}
	return entries, nil
}

func (r rawEntry) normalise() Entry {
	venue := r.VenueID
	if !venue.set {
		venue = r.FirmID
	}
	amount := r.Revenue
	if !amount.set {
		amount = r.Total
	}
	if !amount.set {
		amount = r.Amount
	}
	return Entry{VenueID: int64(venue.value), Amount: amount.value}
}

// flexNumber decodes a JSON number or numeric string. Anything unparseable or
// non-finite becomes 0 instead of failing the whole response.
type flexNumber struct {
	value float64
	set   bool
}

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	n.set = true
	n.value = 0
	text := strings.TrimSpace(string(data))
	if text == "null" || text == "" {
		n.set = false
		return nil
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		text = strings.TrimSpace(s)
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	n.value = v
	return nil
}
