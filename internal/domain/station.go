package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Station is the decoded view of one raw RIS-Stations record. Every field is
// decoded on its own, so a malformed or unexpectedly typed field only makes
// that field absent; the rest of the record is still usable.
type Station struct {
	Names             map[string]localizedName
	Name              string
	Position          *position
	GeoCoordinates    *geoCoordinates
	StationID         Identifier
	EvaNr             Identifier
	EvaNumber         Identifier
	RIL100Identifiers []rilIdentifier
	RL100Code         Identifier
}

type localizedName struct {
	Name string `json:"name"`
}

type position struct {
	Latitude  *flexFloat `json:"latitude"`
	Longitude *flexFloat `json:"longitude"`
}

type geoCoordinates struct {
	X *flexFloat `json:"x"`
	Y *flexFloat `json:"y"`
}

type rilIdentifier struct {
	RILIdentifier Identifier `json:"rilIdentifier"`
}

// flexFloat accepts a JSON number or a numeric string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return err
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64
	Lon float64
}

// DecodeStation decodes a raw record. It never fails: a record that is not a
// JSON object yields a Station with every field absent.
func DecodeStation(raw json.RawMessage) Station {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Station{}
	}

	var st Station
	decodeField(fields, "names", &st.Names)
	decodeField(fields, "name", &st.Name)
	decodeField(fields, "position", &st.Position)
	decodeField(fields, "geocoordinates", &st.GeoCoordinates)
	decodeField(fields, "ril100Identifiers", &st.RIL100Identifiers)

	st.StationID = NewIdentifier(fields["stationID"])
	st.EvaNr = NewIdentifier(fields["evaNr"])
	st.EvaNumber = NewIdentifier(fields["evaNumber"])
	st.RL100Code = NewIdentifier(fields["rl100Code"])
	return st
}

// decodeField unmarshals fields[key] into dst, resetting dst to its zero
// value when the field is missing or does not fit.
func decodeField[T any](fields map[string]json.RawMessage, key string, dst *T) {
	raw, ok := fields[key]
	if !ok {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return
	}
	*dst = v
}

// DisplayName returns the German localized name, falling back to the flat
// name. The second result is false when neither is present.
func (s Station) DisplayName() (string, bool) {
	if de, ok := s.Names["DE"]; ok && de.Name != "" {
		return de.Name, true
	}
	if s.Name != "" {
		return s.Name, true
	}
	return "", false
}

// Coordinates resolves the station position. The current position schema
// wins over the legacy geocoordinates schema. Legacy pairs are swapped when
// the direct x=lat, y=lon reading is out of range.
func (s Station) Coordinates() (Coordinates, bool) {
	if p := s.Position; p != nil && p.Latitude != nil && p.Longitude != nil {
		return Coordinates{Lat: float64(*p.Latitude), Lon: float64(*p.Longitude)}, true
	}
	if g := s.GeoCoordinates; g != nil && g.X != nil && g.Y != nil {
		lat, lon := float64(*g.X), float64(*g.Y)
		if math.Abs(lat) > 90 || math.Abs(lon) > 180 {
			lat, lon = lon, lat
		}
		return Coordinates{Lat: lat, Lon: lon}, true
	}
	return Coordinates{}, false
}

// RIL100 returns the operating point code. A non-empty ril100Identifiers list
// is authoritative even if its first element carries no code.
func (s Station) RIL100() Identifier {
	if len(s.RIL100Identifiers) > 0 {
		return s.RIL100Identifiers[0].RILIdentifier
	}
	return s.RL100Code
}

// EVA returns evaNr, falling back to evaNumber.
func (s Station) EVA() Identifier {
	if !s.EvaNr.IsZero() {
		return s.EvaNr
	}
	return s.EvaNumber
}
