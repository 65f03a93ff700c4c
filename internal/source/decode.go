package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/couchcryptid/observed-deaths-etl/internal/domain"
)

// ErrEmptyCSV is returned for input without a header row.
var ErrEmptyCSV = errors.New("csv has no header row")

// DecodeCSV reads a CSV document, dropping a leading byte-order mark. Rows
// must all have as many cells as the header.
func DecodeCSV(r io.Reader) (header []string, rows [][]string, err error) {
	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, ErrEmptyCSV
	}
	return records[0], records[1:], nil
}

// DecodeObservations parses the downloaded dataset.
func DecodeObservations(body []byte) ([]domain.ObservationRecord, error) {
	header, rows, err := DecodeCSV(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return domain.DecodeObservations(header, rows)
}

// ReadCensusFile loads the census table from a CSV file.
func ReadCensusFile(path string) (domain.Census, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open census: %w", err)
	}
	defer f.Close()

	header, rows, err := DecodeCSV(f)
	if err != nil {
		return nil, fmt.Errorf("decode census %s: %w", path, err)
	}
	return domain.DecodeCensus(header, rows)
}
