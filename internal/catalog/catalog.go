package catalog

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"carviz/pkg/contracts/domain"
)

// priceNoise matches the currency symbol, grouping separators and padding
// found in price cells such as "$36,945 ".
var priceNoise = regexp.MustCompile(`[$,\s]`)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Catalog is the immutable, ordered set of listings loaded from a dataset.
// It is safe for concurrent readers.
type Catalog struct {
	columns  []string
	listings []domain.Listing
	source   string
	loadedAt time.Time
}

// New builds a catalog from already-normalized listings. Inputs are copied.
func New(columns []string, listings []domain.Listing) *Catalog {
	cols := append([]string(nil), columns...)
	if len(cols) == 0 {
		cols = append(cols, domain.RequiredColumns...)
	}
	rows := make([]domain.Listing, len(listings))
	copy(rows, listings)
	return &Catalog{
		columns:  cols,
		listings: rows,
		loadedAt: time.Now(),
	}
}

// Len returns the number of listings.
func (c *Catalog) Len() int {
	return len(c.listings)
}

// Columns returns the source header in file order.
func (c *Catalog) Columns() []string {
	return append([]string(nil), c.columns...)
}

// Listings returns a copy of the rows.
func (c *Catalog) Listings() []domain.Listing {
	rows := make([]domain.Listing, len(c.listings))
	copy(rows, c.listings)
	return rows
}

// Source is the path the catalog was read from, if any.
func (c *Catalog) Source() string {
	return c.source
}

// LoadedAt is when the catalog was built.
func (c *Catalog) LoadedAt() time.Time {
	return c.loadedAt
}

// View returns the whole catalog as a FilteredView. The slice is capped so
// appends by callers never write into the catalog.
func (c *Catalog) View() domain.FilteredView {
	return domain.FilteredView{
		Columns:  c.columns,
		Listings: c.listings[:len(c.listings):len(c.listings)],
	}
}

// NormalizePrice strips currency formatting and parses the remainder as a
// non-negative whole number of dollars.
func NormalizePrice(raw string) (int64, error) {
	cleaned := priceNoise.ReplaceAllString(raw, "")
	if cleaned == "" {
		return 0, fmt.Errorf("%w: empty value %q", ErrInvalidPrice, raw)
	}
	v, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidPrice, raw, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: negative value %q", ErrInvalidPrice, raw)
	}
	return v, nil
}

// Parse reads a CSV dataset. Any failure is returned as a *LoadError.
func Parse(r io.Reader) (*Catalog, error) {
	return parse(r, "")
}

func parse(r io.Reader, source string) (*Catalog, error) {
	reader, columns, index, err := readHeader(r, source)
	if err != nil {
		return nil, err
	}

	listings := make([]domain.Listing, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			le := &LoadError{Source: source, Err: err}
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				le.Line = pe.Line
			}
			return nil, le
		}
		line, _ := reader.FieldPos(0)

		listing, col, err := toListing(record, columns, index)
		if err != nil {
			return nil, &LoadError{Source: source, Line: line, Column: col, Err: err}
		}
		listings = append(listings, listing)
	}

	return &Catalog{
		columns:  columns,
		listings: listings,
		source:   source,
		loadedAt: time.Now(),
	}, nil
}

// ParseHeader reads and checks only the header row of a dataset. Failures
// are the same *LoadError values Parse would return for that header.
func ParseHeader(r io.Reader, source string) ([]string, error) {
	_, columns, _, err := readHeader(r, source)
	return columns, err
}

func readHeader(r io.Reader, source string) (*csv.Reader, []string, map[string]int, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil, &LoadError{Source: source, Err: ErrEmptySource}
	}
	if err != nil {
		return nil, nil, nil, &LoadError{Source: source, Line: 1, Err: err}
	}

	columns := make([]string, len(header))
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := index[name]; dup {
			return nil, nil, nil, &LoadError{Source: source, Line: 1, Column: name, Err: ErrDuplicateColumn}
		}
		columns[i] = name
		index[name] = i
	}
	for _, required := range domain.RequiredColumns {
		if _, ok := index[required]; !ok {
			return nil, nil, nil, &LoadError{Source: source, Line: 1, Column: required, Err: ErrMissingColumn}
		}
	}
	return reader, columns, index, nil
}

func toListing(record, columns []string, index map[string]int) (domain.Listing, string, error) {
	msrp, err := NormalizePrice(record[index[domain.ColumnMSRP]])
	if err != nil {
		return domain.Listing{}, domain.ColumnMSRP, err
	}
	invoice, err := NormalizePrice(record[index[domain.ColumnInvoice]])
	if err != nil {
		return domain.Listing{}, domain.ColumnInvoice, err
	}

	listing := domain.Listing{
		Type:    record[index[domain.ColumnType]],
		Make:    record[index[domain.ColumnMake]],
		Model:   record[index[domain.ColumnModel]],
		MSRP:    msrp,
		Invoice: invoice,
	}

	extras := len(columns) - len(domain.RequiredColumns)
	if extras > 0 {
		listing.Extra = make(map[string]string, extras)
		for i, col := range columns {
			if isRequired(col) {
				continue
			}
			listing.Extra[col] = record[i]
		}
	}
	return listing, "", nil
}

func isRequired(col string) bool {
	for _, required := range domain.RequiredColumns {
		if col == required {
			return true
		}
	}
	return false
}
