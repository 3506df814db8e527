package fetcher

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the streaming CSV parser. Italian open-data
// exports commonly use semicolon delimiters with comma decimals, so the
// delimiter is explicit and decimal handling lives in ParseDecimal.
type CSVOptions struct {
	Delimiter  rune // default ','
	Comment    rune // comment character (0 = none)
	LazyQuotes bool
	TrimSpace  bool
}

// StreamCSV reads CSV rows into a channel. The caller must consume the
// row channel; both channels are closed when processing completes.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		if opts.Comment != 0 {
			reader.Comment = opts.Comment
		}
		reader.LazyQuotes = opts.LazyQuotes
		reader.FieldsPerRecord = -1 // allow variable fields

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "fetcher: csv context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "fetcher: csv read row")
				return
			}

			if opts.TrimSpace {
				for i, field := range record {
					record[i] = strings.TrimSpace(field)
				}
			}

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "fetcher: csv context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// ReadCSV collects all rows of a CSV stream. The first row is returned
// as the header.
func ReadCSV(ctx context.Context, r io.Reader, opts CSVOptions) (header []string, rows [][]string, err error) {
	rowCh, errCh := StreamCSV(ctx, r, opts)
	for row := range rowCh {
		if header == nil {
			header = row
			continue
		}
		rows = append(rows, row)
	}
	if err := <-errCh; err != nil {
		return nil, nil, err
	}
	if header == nil {
		return nil, nil, eris.New("fetcher: csv is empty")
	}
	return header, rows, nil
}

// ParseDecimal parses a number that may use a comma as the decimal
// separator.
func ParseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	normalized := strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "fetcher: parse decimal %q", s)
	}
	return v, nil
}
