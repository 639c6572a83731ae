package iss

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Alias1177/VolumeAnomaly/models"
)

var columnOrder = []string{"SECID", "SHORTNAME", "VOLUME", "VALUE", "NUMTRADES"}

var requestedColumns = strings.Join(columnOrder, ",")

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeRetryable
	outcomeFatal
)

func (o outcome) String() string {
	switch o {
	case outcomeSuccess:
		return "success"
	case outcomeRetryable:
		return "retryable"
	default:
		return "fatal"
	}
}

// attemptResult is what one full multi-page pass over a date produced.
type attemptResult struct {
	outcome outcome
	rows    []models.RawRow
	err     error
}

// schemaError marks a response the client cannot interpret. Retrying would
// get the same answer.
type schemaError struct {
	msg string
	err error
}

func (e *schemaError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *schemaError) Unwrap() error { return e.err }

func classify(ctx context.Context, err error) attemptResult {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return attemptResult{outcome: outcomeFatal, err: ctxErr}
	}

	var se *schemaError
	if errors.As(err, &se) {
		return attemptResult{outcome: outcomeFatal, err: err}
	}

	// Transport errors, timeouts, non-2xx statuses and bodies cut off
	// mid-stream are all worth another go.
	return attemptResult{outcome: outcomeRetryable, err: err}
}

type historyResponse struct {
	History *historyBlock `json:"history"`
}

type historyBlock struct {
	Columns []string            `json:"columns"`
	Data    [][]json.RawMessage `json:"data"`
}

// historyPage is one decoded upstream page. returned counts the rows the
// upstream sent, including those later dropped for a missing identifier.
type historyPage struct {
	rows     []models.RawRow
	returned int
}

func (r historyResponse) decodePage() (historyPage, error) {
	if r.History == nil {
		return historyPage{}, &schemaError{msg: "response has no history block"}
	}

	idx, err := r.History.columnIndex()
	if err != nil {
		return historyPage{}, err
	}

	rows := make([]models.RawRow, 0, len(r.History.Data))
	for i, cells := range r.History.Data {
		row, err := decodeRow(cells, idx)
		if err != nil {
			return historyPage{}, &schemaError{msg: fmt.Sprintf("row %d", i), err: err}
		}
		if row.SecID == "" {
			continue
		}
		rows = append(rows, row)
	}
	return historyPage{rows: rows, returned: len(r.History.Data)}, nil
}

// columnIndex maps column names to cell positions. Without a columns header
// the cells are assumed to follow the requested order.
func (b *historyBlock) columnIndex() (map[string]int, error) {
	idx := make(map[string]int, len(columnOrder))
	if len(b.Columns) == 0 {
		for i, name := range columnOrder {
			idx[name] = i
		}
		return idx, nil
	}

	for i, name := range b.Columns {
		idx[strings.ToUpper(name)] = i
	}
	if _, ok := idx["SECID"]; !ok {
		return nil, &schemaError{msg: "history block has no SECID column"}
	}
	return idx, nil
}

func decodeRow(cells []json.RawMessage, idx map[string]int) (models.RawRow, error) {
	cell := func(name string) json.RawMessage {
		i, ok := idx[name]
		if !ok || i >= len(cells) {
			return nil
		}
		return cells[i]
	}

	var row models.RawRow
	var err error

	if row.SecID, err = decodeString(cell("SECID")); err != nil {
		return row, fmt.Errorf("SECID: %w", err)
	}
	if row.ShortName, err = decodeString(cell("SHORTNAME")); err != nil {
		return row, fmt.Errorf("SHORTNAME: %w", err)
	}
	if row.Value, err = decodeDecimal(cell("VALUE")); err != nil {
		return row, fmt.Errorf("VALUE: %w", err)
	}

	volume, err := decodeDecimal(cell("VOLUME"))
	if err != nil {
		return row, fmt.Errorf("VOLUME: %w", err)
	}
	trades, err := decodeDecimal(cell("NUMTRADES"))
	if err != nil {
		return row, fmt.Errorf("NUMTRADES: %w", err)
	}
	row.Volume = volume.IntPart()
	row.NumTrades = trades.IntPart()

	return row, nil
}

func decodeString(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", err
	}
	if s == nil {
		return "", nil
	}
	return strings.TrimSpace(*s), nil
}

// decodeDecimal accepts numbers, quoted numbers and null (zero).
func decodeDecimal(raw json.RawMessage) (decimal.Decimal, error) {
	var d decimal.Decimal
	if len(raw) == 0 {
		return d, nil
	}
	if err := d.UnmarshalJSON(raw); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}
