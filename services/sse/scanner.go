// Package sse reads Server-Sent Events (the EventSource wire format).
package sse

import (
	"bufio"
	"io"
	"strings"
)

// Event is a single Server-Sent Event.
type Event struct {
	// Type comes from the "event:" field; empty means the default "message" type.
	Type string
	// Data joins the event's "data:" lines with newlines.
	Data string
	ID   string
}

// Scanner reads events from r:
//
//	scanner := sse.NewScanner(body)
//	for scanner.Next() {
//	    ev := scanner.Event()
//	}
//	if err := scanner.Err(); err != nil { ... }
//
// Events end on a blank line. Comment lines (":keepalive") and unknown fields are skipped.
type Scanner struct {
	reader  *bufio.Reader
	current Event
	err     error
}

func NewScanner(r io.Reader) *Scanner {
	return &Scanner{reader: bufio.NewReaderSize(r, 64*1024)}
}

// Next advances to the next event. It returns false at EOF or on error; see Err.
func (s *Scanner) Next() bool {
	if s.err != nil {
		return false
	}
	s.current = Event{}

	var (
		dataLines []string
		eventType string
		eventID   string
		hasData   bool
	)
	emit := func() {
		s.current = Event{Type: eventType, Data: strings.Join(dataLines, "\n"), ID: eventID}
	}

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF && hasData {
				// unterminated last event
				emit()
				s.err = io.EOF
				return true
			}
			s.err = err
			return false
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if hasData {
				emit()
				return true
			}
			eventType = ""
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, hasColon := strings.Cut(line, ":")
		if !hasColon {
			field, value = line, ""
		} else {
			value = strings.TrimPrefix(value, " ")
		}

		switch field {
		case "data":
			dataLines = append(dataLines, value)
			hasData = true
		case "event":
			eventType = value
		case "id":
			eventID = value
		}
	}
}

// Event returns the event read by the last successful Next.
func (s *Scanner) Event() Event {
	return s.current
}

// Err returns the error that stopped the scanner, or nil on a clean EOF.
func (s *Scanner) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}
