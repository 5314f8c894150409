// Package records reads and writes the delimited key,value record files
// used by the index's bulk-load and export commands. It is a command-layer
// collaborator, not part of the B-tree engine core.
package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// ErrExists is returned by Extract when the target output path already
// exists.
var ErrExists = errors.New("records: output file already exists")

// ErrMalformed is returned by Load when a record does not parse as two
// nonnegative 64-bit integers.
var ErrMalformed = errors.New("records: malformed record")

// Load reads all (key, value) pairs from a comma-delimited record file.
// Each successfully parsed record is reported to visit in file order; a
// malformed record is reported as an error without stopping the scan of
// the remaining records, mirroring the source tool's bulk-load behavior
// of not rolling back records already processed before a bad one.
func Load(path string, visit func(key, value uint64) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("records: load %q: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var firstErr error
	for {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("records: load %q: %w", path, err)
		}
		if len(row) < 2 {
			if firstErr == nil {
				firstErr = fmt.Errorf("records: row %v: %w", row, ErrMalformed)
			}
			continue
		}

		key, kerr := strconv.ParseUint(row[0], 10, 64)
		value, verr := strconv.ParseUint(row[1], 10, 64)
		if kerr != nil || verr != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("records: row %v: %w", row, ErrMalformed)
			}
			continue
		}

		if err := visit(key, value); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Extract writes pairs, in the order given, to a newly created
// comma-delimited record file at path. It refuses to overwrite an
// existing file.
func Extract(path string, seq func(yield func(uint64, uint64) bool)) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("records: extract %q: %w", path, ErrExists)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("records: extract %q: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("records: extract %q: %w", path, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	var writeErr error
	seq(func(key, value uint64) bool {
		row := []string{strconv.FormatUint(key, 10), strconv.FormatUint(value, 10)}
		if err := writer.Write(row); err != nil {
			writeErr = err
			return false
		}
		return true
	})
	if writeErr != nil {
		return fmt.Errorf("records: extract %q: %w", path, writeErr)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("records: extract %q: %w", path, err)
	}
	return nil
}
