package mqtt

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
)

var (
	ErrEmptyPayload     = errors.New("empty payload")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrNoDirective      = errors.New("payload carries neither moisture nor pump")
)

// PumpCommand is published by the monitor on the cmd topic
type PumpCommand struct {
	Pump int `json:"pump"`
}

// MoistureData is published by the feeder on the data topic (retained)
type MoistureData struct {
	Moisture int `json:"moisture"`
	Pump     int `json:"pump"`
}

// DataUpdate is a decoded data message. Fields which were absent, not
// numeric or out of range in the payload are flagged as missing instead of defaulting to zero.
type DataUpdate struct {
	Moisture    int
	HasMoisture bool

	PumpOn  bool
	HasPump bool
}

// PumpValue converts a pump state into its wire representation.
func PumpValue(on bool) int {
	if on {
		return 1
	}

	return 0
}

// DecodePumpCommand extracts the pump directive from a cmd payload.
// ok is false if the payload is valid JSON but does not contain a usable
// directive; err is only set if the payload could not be decoded at all.
func DecodePumpCommand(payload []byte) (on bool, ok bool, err error) {
	fields, err := decodeObject(payload)
	if err != nil {
		return false, false, err
	}

	on, ok = pumpField(fields)

	return on, ok, nil
}

// DecodeMoistureData extracts moisture and pump from a data payload.
func DecodeMoistureData(payload []byte) (DataUpdate, error) {
	fields, err := decodeObject(payload)
	if err != nil {
		return DataUpdate{}, err
	}

	update := DataUpdate{}
	update.PumpOn, update.HasPump = pumpField(fields)
	update.Moisture, update.HasMoisture = percentageField(fields, "moisture")

	if !update.HasMoisture && !update.HasPump {
		return DataUpdate{}, ErrNoDirective
	}

	return update, nil
}

func decodeObject(payload []byte) (map[string]json.RawMessage, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, ErrEmptyPayload
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, errors.Join(ErrMalformedPayload, err)
	}

	// `null` unmarshals into a nil map without an error
	if fields == nil {
		return nil, ErrMalformedPayload
	}

	return fields, nil
}

func numberField(fields map[string]json.RawMessage, key string) (float64, bool) {
	raw, ok := fields[key]
	if !ok {
		return 0, false
	}

	// Quoted numbers such as "1" would otherwise decode into a json.Number
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '"' {
		return 0, false
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}

	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	return f, true
}

// percentageField only accepts whole numbers in [0, 100]
func percentageField(fields map[string]json.RawMessage, key string) (int, bool) {
	f, ok := numberField(fields, key)
	if !ok || f != math.Trunc(f) || f < 0 || f > 100 {
		return 0, false
	}

	return int(f), true
}

func pumpField(fields map[string]json.RawMessage) (bool, bool) {
	f, ok := numberField(fields, "pump")
	if !ok {
		return false, false
	}

	switch f {
	case 1:
		return true, true
	case 0:
		return false, true
	default:
		return false, false
	}
}
