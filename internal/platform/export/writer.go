package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/tcg/scenario-sheets/internal/extract"
)

// ManifestFile is the index the game loads before any scenario.
const ManifestFile = "ScenariosConfig.json"

// scenarioPrefix and the numeric suffix form the file names the game loader
// parses, e.g. Scenario12.json.
const scenarioPrefix = "Scenario"

// Manifest lists the scenario files in a directory.
type Manifest struct {
	Description   string   `json:"description"`
	ScenarioCount int      `json:"scenarioCount"`
	ScenarioFiles []string `json:"scenarioFiles"`
}

// Writer places encoded scenarios in Dir.
type Writer struct {
	Dir    string
	Format Format
}

func NewWriter(dir string, format Format) *Writer {
	return &Writer{Dir: dir, Format: format}
}

// FileName picks the output name for a scenario. A positive number gives
// Scenario<N>; otherwise the scenario name is slugged.
func FileName(scenarioName string, number int, format Format) string {
	if number > 0 {
		return fmt.Sprintf("%s%d.%s", scenarioPrefix, number, format.Ext())
	}
	return slug(scenarioName) + "." + format.Ext()
}

// Write encodes doc and replaces the target file atomically. It returns the
// path written.
func (w *Writer) Write(doc *extract.Document, number int) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("export: nil document")
	}
	var buf bytes.Buffer
	if err := Encode(&buf, doc, w.Format); err != nil {
		return "", fmt.Errorf("encode scenario: %w", err)
	}
	path := filepath.Join(w.Dir, FileName(doc.Metadata.ScenarioName, number, w.Format))
	if err := writeFile(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}

// Manifest rebuilds ScenariosConfig.json from the Scenario<N>.json files in
// Dir, ordered by scenario number.
func (w *Writer) Manifest(description string) (*Manifest, error) {
	entries, err := os.ReadDir(w.Dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read output dir: %w", err)
	}

	type numbered struct {
		name string
		n    int
	}
	var files []numbered
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if n, ok := ScenarioNumber(e.Name()); ok {
			files = append(files, numbered{e.Name(), n})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].n < files[j].n })

	m := &Manifest{Description: description, ScenarioFiles: []string{}}
	for _, f := range files {
		m.ScenarioFiles = append(m.ScenarioFiles, f.name)
	}
	m.ScenarioCount = len(m.ScenarioFiles)

	var buf bytes.Buffer
	if err := Encode(&buf, m, FormatJSON); err != nil {
		return nil, err
	}
	if err := writeFile(filepath.Join(w.Dir, ManifestFile), buf.Bytes()); err != nil {
		return nil, err
	}
	return m, nil
}

// ScenarioNumber extracts N from a file named Scenario<N>.json.
func ScenarioNumber(fileName string) (int, bool) {
	if !strings.HasPrefix(fileName, scenarioPrefix) || !strings.HasSuffix(fileName, ".json") {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(fileName, scenarioPrefix), ".json")
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 || digits != strconv.Itoa(n) {
		return 0, false
	}
	return n, true
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "scenario"
	}
	return s
}
