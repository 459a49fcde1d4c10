package tablecodec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"viflac/internal/logging"
	"viflac/internal/registry"
)

const (
	// IDColumn names the column carrying record ids.
	IDColumn = "__id"
	// PathColumn names the column carrying each record's path template.
	PathColumn = "__filename"
	// Separator joins cells within a row.
	Separator = "|"
)

var (
	// ErrMalformedHeader reports a header whose first cell is not IDColumn.
	ErrMalformedHeader = errors.New("malformed table header")
	// ErrInvalidRowID reports a row whose first cell is not a record id.
	ErrInvalidRowID = errors.New("invalid row id")
	// ErrTooManyCells reports a row with more cells than the header.
	ErrTooManyCells = errors.New("row has more cells than header")
	// ErrEmptyTable reports input with no header line.
	ErrEmptyTable = errors.New("table is empty")
	// ErrUnsafeColumn reports a tag key that cannot be carried in the header.
	ErrUnsafeColumn = errors.New("tag key cannot be used as a column")
	// ErrUnsafeCell reports a value that would be split when parsed back.
	ErrUnsafeCell = errors.New("value cannot be rendered as a cell")
)

// unsafeChars split a cell on parse-back.
const unsafeChars = Separator + "\n\r"

// Option configures a Codec.
type Option func(*Codec)

// WithStrictHeader makes Parse fail on a malformed header instead of logging it.
func WithStrictHeader(strict bool) Option {
	return func(c *Codec) {
		c.strictHeader = strict
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Codec) {
		c.logger = logging.NewComponentLogger(logger, "tablecodec")
	}
}

// Codec converts between a registry and its table text.
type Codec struct {
	strictHeader bool
	logger       *slog.Logger
}

// New constructs a Codec.
func New(opts ...Option) *Codec {
	c := &Codec{logger: logging.NewComponentLogger(nil, "tablecodec")}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Columns returns the full column list rendered for reg.
func Columns(reg *registry.Registry) []string {
	return append([]string{IDColumn, PathColumn}, reg.Columns()...)
}

// Validate reports the first column name or cell of reg that would not come
// back unchanged from Parse. Column names must be non-empty, free of the
// separator and line breaks, carry no surrounding whitespace and not shadow a
// fixed column. Cells must be free of the separator and line breaks.
func Validate(reg *registry.Registry) error {
	for _, col := range reg.Columns() {
		switch {
		case col == "":
			return fmt.Errorf("%w: empty tag key", ErrUnsafeColumn)
		case strings.TrimSpace(col) != col:
			return fmt.Errorf("%w: %q has surrounding whitespace", ErrUnsafeColumn, col)
		case strings.ContainsAny(col, unsafeChars):
			return fmt.Errorf("%w: %q contains %q or a line break", ErrUnsafeColumn, col, Separator)
		case col == IDColumn || col == PathColumn:
			return fmt.Errorf("%w: %q is reserved", ErrUnsafeColumn, col)
		}
	}
	for _, rec := range reg.Records() {
		if strings.ContainsAny(rec.PathTemplate, unsafeChars) {
			return fmt.Errorf("%w: record %d column %s: %q", ErrUnsafeCell, rec.ID, PathColumn, rec.PathTemplate)
		}
		var err error
		rec.Tags.Each(func(key string, value registry.Value) bool {
			if strings.ContainsAny(value.Text, unsafeChars) {
				err = fmt.Errorf("%w: record %d column %s: %q", ErrUnsafeCell, rec.ID, key, value.Text)
				return false
			}
			return true
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Render writes the header row and one row per record in ascending id order.
// It writes nothing when Validate rejects reg.
func (c *Codec) Render(w io.Writer, reg *registry.Registry) error {
	if err := Validate(reg); err != nil {
		return err
	}
	columns := Columns(reg)
	rows := make([][]string, 0, reg.Len()+1)
	rows = append(rows, c.cells(registry.HeaderRecord(PathColumn, reg.Columns()), columns))
	for _, rec := range reg.Records() {
		rows = append(rows, c.cells(rec, columns))
	}

	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = utf8.RuneCountInString(col)
	}
	for _, row := range rows {
		for i, cell := range row {
			if n := utf8.RuneCountInString(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	bw := bufio.NewWriter(w)
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				bw.WriteString(Separator)
			}
			bw.WriteString(cell)
			if pad := widths[i] - utf8.RuneCountInString(cell); pad > 0 {
				bw.WriteString(strings.Repeat(" ", pad))
			}
		}
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}

func (c *Codec) cells(rec *registry.Record, columns []string) []string {
	out := make([]string, len(columns))
	for i, col := range columns {
		switch {
		case col == IDColumn && rec.IsHeader():
			out[i] = IDColumn
		case col == IDColumn:
			out[i] = strconv.Itoa(rec.ID)
		case col == PathColumn:
			out[i] = rec.PathTemplate
		default:
			out[i] = rec.TagText(col)
		}
	}
	return out
}

// Cell is one parsed value and the column it belongs to.
type Cell struct {
	Column string
	Value  registry.Value
}

// Row is one parsed record row. Cells exclude the id column and
// empty header positions.
type Row struct {
	ID    int
	Cells []Cell
}

// Edit is a parsed table.
type Edit struct {
	Header []string
	Rows   []Row
}

// Parse reads table text produced by Render, possibly edited.
func (c *Codec) Parse(r io.Reader) (*Edit, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, ErrEmptyTable
	}
	lines := strings.Split(text, "\n")

	header := splitCells(lines[0])
	if header[0] != IDColumn {
		if c.strictHeader {
			return nil, fmt.Errorf("%w: first column is %q, want %q", ErrMalformedHeader, header[0], IDColumn)
		}
		logging.ErrorWithContext(c.logger, "id not in first column", "table_malformed_header",
			logging.String("first_column", header[0]),
			logging.String(logging.FieldErrorHint, "restore the __id header cell"),
		)
	}

	edit := &Edit{Header: header}
	for n, line := range lines[1:] {
		lineNo := n + 2
		if strings.TrimSpace(line) == "" {
			continue
		}
		cells := splitCells(line)
		if len(cells) > len(header) {
			return nil, fmt.Errorf("line %d: %w (%d > %d)", lineNo, ErrTooManyCells, len(cells), len(header))
		}
		id, err := strconv.Atoi(cells[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w %q", lineNo, ErrInvalidRowID, cells[0])
		}
		row := Row{ID: id}
		for i := 1; i < len(cells); i++ {
			col := header[i]
			if col == IDColumn || col == "" {
				continue
			}
			row.Cells = append(row.Cells, Cell{Column: col, Value: registry.ParseValue(cells[i])})
		}
		edit.Rows = append(edit.Rows, row)
	}
	c.logger.Debug("parsed table", logging.Strings("header", header), logging.Int("rows", len(edit.Rows)))
	return edit, nil
}

func splitCells(line string) []string {
	cells := strings.Split(line, Separator)
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}
