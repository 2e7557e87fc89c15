package journal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/toff/ledger"
)

var csvHeader = []string{"trade_id", "symbol", "side", "quantity", "price", "fee", "date", "note"}

// Record is one CSV row: a trade plus the symbol of its ticker. The ticker
// ID is resolved by whoever imports the rows.
type Record struct {
	Symbol string
	Trade  ledger.Trade
}

// WriteCSV writes trades with a header row. symbols maps ticker IDs to
// symbols; trades without a known ticker get an empty symbol.
func WriteCSV(w io.Writer, trades []ledger.Trade, symbols map[string]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range trades {
		err := cw.Write([]string{
			t.ID,
			symbols[t.TickerID],
			t.Side.String(),
			f(t.Quantity),
			f(t.Price),
			f(t.Fee),
			t.Date.UTC().Format(time.RFC3339Nano),
			t.Note,
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses rows written by WriteCSV. trade_id may be empty for new
// trades; price, fee and note may be empty too.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv: missing header")
		}
		return nil, err
	}
	for i, col := range csvHeader {
		if strings.TrimSpace(strings.ToLower(header[i])) != col {
			return nil, fmt.Errorf("csv: column %d is %q, want %q", i+1, header[i], col)
		}
	}

	var out []Record
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseRow(row []string) (Record, error) {
	side, err := ledger.ParseSide(row[2])
	if err != nil {
		return Record{}, err
	}
	qty, err := parseNumber("quantity", row[3])
	if err != nil {
		return Record{}, err
	}
	price, err := parseNumber("price", row[4])
	if err != nil {
		return Record{}, err
	}
	fee, err := parseNumber("fee", row[5])
	if err != nil {
		return Record{}, err
	}
	date, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(row[6]))
	if err != nil {
		return Record{}, fmt.Errorf("date: %w", err)
	}

	return Record{
		Symbol: strings.ToUpper(strings.TrimSpace(row[1])),
		Trade: ledger.Trade{
			ID:       strings.TrimSpace(row[0]),
			Side:     side,
			Quantity: qty,
			Price:    price,
			Fee:      fee,
			Date:     date,
			Note:     row[7],
		},
	}, nil
}

func parseNumber(name, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return d.InexactFloat64(), nil
}

func f(x float64) string {
	return decimal.NewFromFloat(x).String()
}
