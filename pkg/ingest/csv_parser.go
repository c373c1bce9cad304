package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"capec-chatbot-be/pkg/utils"
)

// Passage is one chunk of dataset text ready for embedding.
type Passage struct {
	SourceFile string `json:"source_file"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
}

// CsvParser converts CAPEC CSV exports into passages. Each row becomes a
// "Field: value" block which is then chunked for embedding.
type CsvParser struct {
	dataDir      string
	chunkSize    int
	chunkOverlap int
}

func NewCsvParser(dataDir string, chunkSize, chunkOverlap int) *CsvParser {
	if chunkSize <= 0 {
		chunkSize = 1200
	}
	if chunkOverlap < 0 {
		chunkOverlap = 200
	}
	return &CsvParser{
		dataDir:      dataDir,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// ParseDir processes every CSV file in the data directory.
func (p *CsvParser) ParseDir() ([]Passage, error) {
	entries, err := os.ReadDir(p.dataDir)
	if err != nil {
		return nil, fmt.Errorf("read data dir %s: %w", p.dataDir, err)
	}

	var passages []Passage
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		filePassages, err := p.ParseFile(filepath.Join(p.dataDir, entry.Name()))
		if err != nil {
			return nil, err
		}
		passages = append(passages, filePassages...)
	}
	return passages, nil
}

// ParseNamed processes one file by name, resolved against the data
// directory. Only the base name is honored so callers cannot escape it.
func (p *CsvParser) ParseNamed(name string) ([]Passage, error) {
	return p.ParseFile(filepath.Join(p.dataDir, filepath.Base(name)))
}

// ParseFile processes a single CSV file.
func (p *CsvParser) ParseFile(path string) ([]Passage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // CAPEC exports are not perfectly rectangular

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	header := records[0]
	sourceFile := filepath.Base(path)

	var passages []Passage
	chunkIndex := 0
	for _, row := range records[1:] {
		text := rowText(header, row)
		if text == "" {
			continue
		}
		for _, chunk := range utils.SplitText(text, p.chunkSize, p.chunkOverlap) {
			passages = append(passages, Passage{
				SourceFile: sourceFile,
				ChunkIndex: chunkIndex,
				Text:       chunk,
			})
			chunkIndex++
		}
	}
	return passages, nil
}

// rowText renders a CSV row as "Field: value" lines, skipping blanks.
func rowText(header, row []string) string {
	var b strings.Builder
	for i, value := range row {
		if i >= len(header) {
			break
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", strings.TrimSpace(header[i]), value)
	}
	return strings.TrimSpace(b.String())
}
