package domain

import (
	"encoding/json"
	"sort"
)

// ProgressInterval is how many records BuildIndex processes between progress callbacks.
const ProgressInterval = 200

// IndexEntry is a station with a resolved position.
type IndexEntry struct {
	StationID Identifier `json:"stationID"`
	EvaNr     Identifier `json:"evaNr"`
	RL100Code Identifier `json:"rl100Code"`
	Lat       float64    `json:"lat"`
	Lon       float64    `json:"lon"`
}

// Miss is a named station without a resolvable position.
type Miss struct {
	Name      string     `json:"name"`
	StationID Identifier `json:"stationID"`
	EvaNr     Identifier `json:"evaNr"`
	RL100Code Identifier `json:"rl100Code"`
}

// Index is the result of classifying a station directory.
type Index struct {
	Entries map[string]IndexEntry
	Misses  []Miss
	// Skipped counts records without any usable name.
	Skipped int
}

// BuildIndex classifies raw station records in order. Records with a name and
// coordinates go to Entries (later records replace earlier ones with the same
// name), records with a name only go to Misses, and nameless records are
// counted in Skipped. progress, when non-nil, is called every
// ProgressInterval records with the running count and the total.
func BuildIndex(records []json.RawMessage, progress func(done, total int)) Index {
	idx := Index{Entries: make(map[string]IndexEntry)}

	for i, raw := range records {
		classify(&idx, DecodeStation(raw))

		if progress != nil && (i+1)%ProgressInterval == 0 {
			progress(i+1, len(records))
		}
	}
	return idx
}

func classify(idx *Index, st Station) {
	name, ok := st.DisplayName()
	if !ok {
		idx.Skipped++
		return
	}

	eva := st.EVA()
	ril := st.RIL100()

	if c, ok := st.Coordinates(); ok {
		idx.Entries[name] = IndexEntry{
			StationID: st.StationID,
			EvaNr:     eva,
			RL100Code: ril,
			Lat:       c.Lat,
			Lon:       c.Lon,
		}
		return
	}
	idx.Misses = append(idx.Misses, Miss{
		Name:      name,
		StationID: st.StationID,
		EvaNr:     eva,
		RL100Code: ril,
	})
}

// SortedNames returns the index keys in byte order.
func (idx Index) SortedNames() []string {
	names := make([]string, 0, len(idx.Entries))
	for name := range idx.Entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
