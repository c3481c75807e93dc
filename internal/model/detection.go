package model

import "encoding/json"

// Detection is one entry of the recognizer's results array.
// Only the fields the server needs are decoded; the original JSON object is kept
// so the proxy can hand the entry back to clients byte for byte.
type Detection struct {
	Plate string  `json:"plate"`
	Score float64 `json:"score"`

	raw json.RawMessage
}

// detectionFields avoids recursing into Detection's own (un)marshalers.
type detectionFields struct {
	Plate string  `json:"plate"`
	Score float64 `json:"score"`
}

// UnmarshalJSON decodes the known fields and retains the raw object.
func (d *Detection) UnmarshalJSON(b []byte) error {
	var f detectionFields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	d.Plate = f.Plate
	d.Score = f.Score
	d.raw = append(json.RawMessage(nil), b...)
	return nil
}

// MarshalJSON returns the retained upstream object when present.
func (d Detection) MarshalJSON() ([]byte, error) {
	if len(d.raw) > 0 {
		return d.raw, nil
	}
	return json.Marshal(detectionFields{Plate: d.Plate, Score: d.Score})
}
