// Package domain models Deutsche Bahn station directory records and the
// name-keyed coordinate index derived from them.
//
// # Data Source
//
// Station records come from the DB API Marketplace RIS-Stations service
// (GET /stations, offset/limit paginated). The service has changed its
// schema over time, so a single response may mix record shapes.
//
// # Field Conventions
//
// Display name:
//
//	names.DE.name   localized German name (preferred)
//	name            flat name (older records)
//
// Records with neither are skipped entirely.
//
// Coordinates:
//
//	position:       {"latitude": 52.52, "longitude": 13.36}   (current schema)
//	geocoordinates: {"x": 52.52, "y": 13.36}                  (legacy schema)
//
// The legacy x/y pair is read as lat/lon; when that reading lands outside
// |lat| <= 90, |lon| <= 180 the pair is swapped. Nothing is validated after
// the swap. See [Station.Coordinates].
//
// RIL100 code:
//
//	ril100Identifiers: [{"rilIdentifier": "BLS", ...}, ...]   (first element wins)
//	rl100Code:         "BLS"                                   (flat, legacy)
//
// EVA number:
//
//	evaNr or evaNumber, either a JSON string or a number.
//
// Identifiers keep their JSON type on output. Null, empty strings and zero
// count as absent. See [Identifier].
//
// # Index
//
// [BuildIndex] rebuilds the index from scratch on every run. Entries are keyed
// by display name with last-write-wins on collision. Each record with a name
// lands in exactly one of the index or the miss-list.
package domain
