package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func decode(t *testing.T, s string) Station {
	t.Helper()
	return DecodeStation(json.RawMessage(s))
}

func TestDisplayName_PrefersLocalizedGerman(t *testing.T) {
	st := decode(t, `{"names":{"DE":{"name":"Berlin Hbf"},"EN":{"name":"Berlin Central"}},"name":"Berlin"}`)
	name, ok := st.DisplayName()
	assert.True(t, ok)
	assert.Equal(t, "Berlin Hbf", name)
}

func TestDisplayName_FallsBackToFlatName(t *testing.T) {
	cases := map[string]string{
		"no names":       `{"name":"Köln Hbf"}`,
		"no DE entry":    `{"names":{"EN":{"name":"Cologne"}},"name":"Köln Hbf"}`,
		"empty DE name":  `{"names":{"DE":{"name":""}},"name":"Köln Hbf"}`,
		"names not obj":  `{"names":"oops","name":"Köln Hbf"}`,
		"DE name number": `{"names":{"DE":{"name":5}},"name":"Köln Hbf"}`,
	}
	for label, rec := range cases {
		t.Run(label, func(t *testing.T) {
			name, ok := decode(t, rec).DisplayName()
			assert.True(t, ok)
			assert.Equal(t, "Köln Hbf", name)
		})
	}
}

func TestDisplayName_Absent(t *testing.T) {
	for _, rec := range []string{`{}`, `{"name":""}`, `{"names":{}}`, `[1,2]`, `null`, `"Berlin"`} {
		_, ok := decode(t, rec).DisplayName()
		assert.False(t, ok, rec)
	}
}

func TestCoordinates_CurrentSchema(t *testing.T) {
	c, ok := decode(t, `{"position":{"latitude":52.525,"longitude":13.369}}`).Coordinates()
	assert.True(t, ok)
	assert.Equal(t, Coordinates{Lat: 52.525, Lon: 13.369}, c)
}

func TestCoordinates_CurrentSchemaWinsOverLegacy(t *testing.T) {
	c, ok := decode(t, `{"position":{"latitude":50.1,"longitude":8.6},"geocoordinates":{"x":1,"y":2}}`).Coordinates()
	assert.True(t, ok)
	assert.Equal(t, Coordinates{Lat: 50.1, Lon: 8.6}, c)
}

func TestCoordinates_LegacyInRange(t *testing.T) {
	c, ok := decode(t, `{"geocoordinates":{"x":48.14,"y":11.56}}`).Coordinates()
	assert.True(t, ok)
	assert.Equal(t, Coordinates{Lat: 48.14, Lon: 11.56}, c)
}

func TestCoordinates_LegacySwappedWhenOutOfRange(t *testing.T) {
	c, ok := decode(t, `{"geocoordinates":{"x":13.4,"y":52.5}}`).Coordinates()
	assert.True(t, ok)
	// 13.4/52.5 is in range as lat/lon, so no swap happens here.
	assert.Equal(t, Coordinates{Lat: 13.4, Lon: 52.5}, c)

	c, ok = decode(t, `{"geocoordinates":{"x":181.0,"y":52.5}}`).Coordinates()
	assert.True(t, ok)
	assert.Equal(t, Coordinates{Lat: 52.5, Lon: 181.0}, c)

	c, ok = decode(t, `{"geocoordinates":{"x":-95.5,"y":40}}`).Coordinates()
	assert.True(t, ok)
	assert.Equal(t, Coordinates{Lat: 40, Lon: -95.5}, c)
}

func TestCoordinates_NumericStrings(t *testing.T) {
	c, ok := decode(t, `{"position":{"latitude":"52.5","longitude":" 13.4 "}}`).Coordinates()
	assert.True(t, ok)
	assert.Equal(t, Coordinates{Lat: 52.5, Lon: 13.4}, c)
}

func TestCoordinates_Unresolved(t *testing.T) {
	for _, rec := range []string{
		`{}`,
		`{"position":{"latitude":52.5}}`,
		`{"position":{"latitude":52.5,"longitude":null}}`,
		`{"position":"52.5,13.4"}`,
		`{"geocoordinates":{"x":13.4}}`,
		`{"geocoordinates":{"x":"north","y":1}}`,
	} {
		_, ok := decode(t, rec).Coordinates()
		assert.False(t, ok, rec)
	}
}

func TestCoordinates_FallsBackToLegacyWhenPositionIncomplete(t *testing.T) {
	c, ok := decode(t, `{"position":{"latitude":52.5},"geocoordinates":{"x":53.55,"y":10.0}}`).Coordinates()
	assert.True(t, ok)
	assert.Equal(t, Coordinates{Lat: 53.55, Lon: 10.0}, c)
}

func TestRIL100(t *testing.T) {
	cases := []struct {
		name string
		rec  string
		want string
	}{
		{"first identifier", `{"ril100Identifiers":[{"rilIdentifier":"BLS"},{"rilIdentifier":"BL"}],"rl100Code":"XX"}`, "BLS"},
		{"flat fallback", `{"rl100Code":"FF"}`, "FF"},
		{"empty list falls back", `{"ril100Identifiers":[],"rl100Code":"FF"}`, "FF"},
		{"list without code does not fall back", `{"ril100Identifiers":[{"main":true}],"rl100Code":"FF"}`, ""},
		{"absent", `{}`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, decode(t, tc.rec).RIL100().String())
		})
	}
}

func TestEVA(t *testing.T) {
	assert.Equal(t, "8011160", decode(t, `{"evaNr":"8011160","evaNumber":"1"}`).EVA().String())
	assert.Equal(t, "8000105", decode(t, `{"evaNumber":8000105}`).EVA().String())
	assert.Equal(t, "8000105", decode(t, `{"evaNr":"","evaNumber":8000105}`).EVA().String())
	assert.Equal(t, "8000105", decode(t, `{"evaNr":0,"evaNumber":"8000105"}`).EVA().String())
	assert.True(t, decode(t, `{}`).EVA().IsZero())
}

func TestIdentifier_KeepsJSONType(t *testing.T) {
	num := NewIdentifier(json.RawMessage(`1071`))
	str := NewIdentifier(json.RawMessage(`"1071"`))

	b, err := json.Marshal(num)
	assert.NoError(t, err)
	assert.Equal(t, `1071`, string(b))

	b, err = json.Marshal(str)
	assert.NoError(t, err)
	assert.Equal(t, `"1071"`, string(b))

	assert.Equal(t, "1071", num.String())
	assert.Equal(t, "1071", str.String())

	b, err = json.Marshal(Identifier{})
	assert.NoError(t, err)
	assert.Equal(t, `null`, string(b))
}

func TestIdentifier_FalsyValuesAreAbsent(t *testing.T) {
	for _, raw := range []string{``, `null`, `""`, `0`, `0.0`, `false`, `true`, `{}`, `[]`} {
		assert.True(t, NewIdentifier(json.RawMessage(raw)).IsZero(), raw)
	}
}
