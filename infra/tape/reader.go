// Package tape reads LOBSTER message files into book events. One CSV
// row per event: time, type, order id, size, price, direction. This is
// the external event source for the core; the book itself never touches
// files.
package tape

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"tapebook/domain/book"
)

// ParseRow converts one message row. Time arrives as decimal seconds
// after midnight and is carried as integer nanoseconds.
func ParseRow(row []string) (book.Event, error) {
	var ev book.Event
	if len(row) != 6 {
		return ev, fmt.Errorf("tape: want 6 fields, got %d", len(row))
	}

	secs, err := strconv.ParseFloat(row[0], 64)
	if err != nil {
		return ev, fmt.Errorf("tape: time %q: %w", row[0], err)
	}
	typ, err := strconv.ParseUint(row[1], 10, 8)
	if err != nil {
		return ev, fmt.Errorf("tape: type %q: %w", row[1], err)
	}
	id, err := strconv.ParseUint(row[2], 10, 64)
	if err != nil {
		return ev, fmt.Errorf("tape: order id %q: %w", row[2], err)
	}
	shares, err := strconv.ParseInt(row[3], 10, 64)
	if err != nil {
		return ev, fmt.Errorf("tape: size %q: %w", row[3], err)
	}
	price, err := strconv.ParseInt(row[4], 10, 64)
	if err != nil {
		return ev, fmt.Errorf("tape: price %q: %w", row[4], err)
	}
	dir, err := strconv.ParseInt(row[5], 10, 8)
	if err != nil {
		return ev, fmt.Errorf("tape: direction %q: %w", row[5], err)
	}
	if dir != 1 && dir != -1 {
		return ev, fmt.Errorf("tape: direction %d out of range", dir)
	}

	ev.Time = int64(math.Round(secs * 1e9))
	ev.Type = book.EventType(typ)
	ev.OrderID = id
	ev.Shares = shares
	ev.Price = price
	ev.Side = book.Side(dir)
	return ev, nil
}

// ForEach streams every event in a message file, in file order.
func ForEach(path string, fn func(book.Event) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 6
	r.TrimLeadingSpace = true

	for {
		row, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		ev, err := ParseRow(row)
		if err != nil {
			return err
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
}
