package artifacts

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/ris-station-index/internal/domain"
)

// Artifact file names inside the output directory.
const (
	RawFile       = "stations_directory_raw.json"
	IndexJSONFile = "stations_index.json"
	IndexCSVFile  = "stations_index.csv"
	MissesFile    = "stations_misses.json"
)

var csvHeader = []string{"name", "stationID", "evaNr", "rl100Code", "lat", "lon"}

// Paths lists the files written by a run. Misses is empty when there were none.
type Paths struct {
	Raw       string
	IndexJSON string
	IndexCSV  string
	Misses    string
}

// Writer persists run outputs to a directory.
// It implements pipeline.ArtifactWriter.
type Writer struct {
	dir string
}

// NewWriter creates a Writer for dir. The directory is created on first write.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// WriteAll writes the raw dump, the index as JSON and CSV, and the misses
// when there are any. Each file is replaced atomically.
func (w *Writer) WriteAll(raw []json.RawMessage, idx domain.Index) (Paths, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create output dir: %w", err)
	}

	if raw == nil {
		raw = []json.RawMessage{}
	}
	entries := idx.Entries
	if entries == nil {
		entries = map[string]domain.IndexEntry{}
	}

	p := Paths{
		Raw:       filepath.Join(w.dir, RawFile),
		IndexJSON: filepath.Join(w.dir, IndexJSONFile),
		IndexCSV:  filepath.Join(w.dir, IndexCSVFile),
	}

	if err := writeJSONFile(p.Raw, raw); err != nil {
		return Paths{}, err
	}
	if err := writeJSONFile(p.IndexJSON, entries); err != nil {
		return Paths{}, err
	}
	csvData, err := encodeIndexCSV(idx)
	if err != nil {
		return Paths{}, err
	}
	if err := writeFileAtomic(p.IndexCSV, csvData); err != nil {
		return Paths{}, err
	}

	if len(idx.Misses) > 0 {
		p.Misses = filepath.Join(w.dir, MissesFile)
		if err := writeJSONFile(p.Misses, idx.Misses); err != nil {
			return Paths{}, err
		}
	}
	return p, nil
}

// encodeJSON renders v with two-space indentation. Non-ASCII text and
// HTML-significant characters are written as-is.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSONFile(path string, v any) error {
	data, err := encodeJSON(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return writeFileAtomic(path, data)
}

func encodeIndexCSV(idx domain.Index) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("encode %s: %w", IndexCSVFile, err)
	}
	for _, name := range idx.SortedNames() {
		e := idx.Entries[name]
		row := []string{
			name,
			e.StationID.String(),
			e.EvaNr.String(),
			e.RL100Code.String(),
			strconv.FormatFloat(e.Lat, 'f', -1, 64),
			strconv.FormatFloat(e.Lon, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return nil, fmt.Errorf("encode %s: %w", IndexCSVFile, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("encode %s: %w", IndexCSVFile, err)
	}
	return buf.Bytes(), nil
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", filepath.Base(path), err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
