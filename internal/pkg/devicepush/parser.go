// Package devicepush decodes the tab-separated attendance rows pushed by
// biometric terminals.
package devicepush

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultSerial     = "UNKNOWN_SN"
	DefaultVerifyMode = "0"

	// DeviceTimeLayout is the wall-clock layout terminals use, in their configured zone.
	DeviceTimeLayout = "2006-01-02 15:04:05"
)

var (
	ErrMalformedRow = errors.New("row has fewer than 2 tab-separated fields")
	ErrInvalidTime  = errors.New("unrecognized punch time")
)

// Punch is one decoded row.
type Punch struct {
	UserID     string
	Time       time.Time
	VerifyMode int
}

// Row is the outcome of decoding one non-blank line. Err is set when the
// line could not be decoded; Punch is then zero.
type Row struct {
	Line  int
	Raw   string
	Punch Punch
	Err   error
}

// Parser carries the fallbacks applied to every push.
type Parser struct {
	DefaultSerial     string
	DefaultVerifyMode string
	Location          *time.Location
}

func NewParser(defaultSerial, defaultVerifyMode string, loc *time.Location) Parser {
	if defaultSerial == "" {
		defaultSerial = DefaultSerial
	}
	if defaultVerifyMode == "" {
		defaultVerifyMode = DefaultVerifyMode
	}
	if loc == nil {
		loc = time.Local
	}
	return Parser{
		DefaultSerial:     defaultSerial,
		DefaultVerifyMode: defaultVerifyMode,
		Location:          loc,
	}
}

// Serial returns sn, or the default serial when the device sent none.
func (p Parser) Serial(sn string) string {
	sn = strings.TrimSpace(sn)
	if sn == "" {
		return p.DefaultSerial
	}
	return sn
}

// ParseBatch splits body into rows. Blank lines are skipped; every other line
// yields a Row, so one bad line never hides the rest of the batch.
func (p Parser) ParseBatch(body io.Reader) ([]Row, error) {
	var rows []Row

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(raw) == "" {
			continue
		}
		punch, err := p.ParseRow(raw)
		rows = append(rows, Row{Line: line, Raw: raw, Punch: punch, Err: err})
	}
	if err := scanner.Err(); err != nil {
		return rows, fmt.Errorf("read device push body: %w", err)
	}

	return rows, nil
}

// ParseRow decodes "<UserID>\t<Time>[\t<VerifyMode>...]". Extra fields are ignored.
func (p Parser) ParseRow(raw string) (Punch, error) {
	fields := strings.Split(raw, "\t")
	if len(fields) < 2 {
		return Punch{}, ErrMalformedRow
	}

	userID := strings.TrimSpace(fields[0])
	if userID == "" {
		return Punch{}, ErrMalformedRow
	}

	ts, err := p.parseTime(strings.TrimSpace(fields[1]))
	if err != nil {
		return Punch{}, err
	}

	verifyMode := p.DefaultVerifyMode
	if len(fields) > 2 && strings.TrimSpace(fields[2]) != "" {
		verifyMode = strings.TrimSpace(fields[2])
	}
	mode, err := strconv.Atoi(verifyMode)
	if err != nil {
		mode, _ = strconv.Atoi(p.DefaultVerifyMode)
	}

	return Punch{UserID: userID, Time: ts, VerifyMode: mode}, nil
}

func (p Parser) parseTime(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(DeviceTimeLayout, s, p.Location); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
}
