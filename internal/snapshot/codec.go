// Package snapshot encodes the booking collection for the store and for
// export files, and decodes both back, migrating older record shapes.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"labcal/internal/model"
)

// Version is written into every export file.
const Version = "1.0"

// ErrFormat marks input that is not an export file or booking list.
var ErrFormat = errors.New("snapshot: invalid format")

// Envelope is the export file layout.
type Envelope struct {
	ExportDate string   `json:"exportDate"`
	Version    string   `json:"version"`
	Bookings   []Record `json:"bookings"`
}

// Encode renders an export file for bookings, stamped with now.
func Encode(bookings []model.Booking, now time.Time) ([]byte, error) {
	env := Envelope{
		ExportDate: now.UTC().Format("2006-01-02T15:04:05.000Z"),
		Version:    Version,
		Bookings:   ToRecords(bookings),
	}
	return json.MarshalIndent(env, "", "  ")
}

// Decode parses an export file. The top level must be an object whose
// "bookings" member is an array; every entry must carry a readable day.
func Decode(data []byte, loc *time.Location) ([]model.Booking, error) {
	var env struct {
		Bookings json.RawMessage `json:"bookings"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if !isArray(env.Bookings) {
		return nil, fmt.Errorf("%w: bookings must be an array", ErrFormat)
	}
	return DecodeList(env.Bookings, loc)
}

// EncodeList renders the bare array kept under the bookings key.
func EncodeList(bookings []model.Booking) ([]byte, error) {
	return json.Marshal(ToRecords(bookings))
}

// DecodeList parses a bare array of records of any known shape.
func DecodeList(data []byte, loc *time.Location) ([]model.Booking, error) {
	if !isArray(data) {
		return nil, fmt.Errorf("%w: expected an array", ErrFormat)
	}

	var raws []rawRecord
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	out := make([]model.Booking, 0, len(raws))
	for i, r := range raws {
		b, err := r.toBooking(loc, i)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		out = append(out, b)
	}
	return out, nil
}

// FileName is the suggested name of an export or backup taken at now.
func FileName(now time.Time) string {
	return "bitacora-laboratorio-" + now.Format(model.DayLayout) + ".json"
}

func isArray(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}
