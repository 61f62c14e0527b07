package store

import (
	"context"
	"fmt"
	"io"

	"github.com/jszwec/csvutil"
)

// ExportCSV writes the whole operator table as CSV. Column headers come
// from the record's csv tags and match the table's column names.
func (s *Store) ExportCSV(ctx context.Context, w io.Writer) (int, error) {
	records, err := s.All(ctx)
	if err != nil {
		return 0, err
	}

	data, err := csvutil.Marshal(records)
	if err != nil {
		return 0, fmt.Errorf("store: encode csv: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return 0, fmt.Errorf("store: write csv: %w", err)
	}
	return len(records), nil
}
