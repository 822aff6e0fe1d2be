package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-logfmt/logfmt"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Attr is one key=value pair of a log line.
type Attr struct {
	Key   string
	Value string
}

// Line is a parsed slog text handler record.
type Line struct {
	Time    string
	Level   string
	Message string
	Attrs   []Attr
	Raw     string
}

// Parsed reports whether the line looked like a structured record.
func (l Line) Parsed() bool {
	return l.Level != "" || l.Message != ""
}

// ParseLine decodes a logfmt record written by slog.TextHandler. Lines the
// decoder rejects, and records without a level or message, come back with
// only Raw set.
func ParseLine(raw string) Line {
	line := Line{Raw: raw}
	dec := logfmt.NewDecoder(strings.NewReader(raw))
	if !dec.ScanRecord() {
		return line
	}
	for dec.ScanKeyval() {
		attr := Attr{Key: string(dec.Key()), Value: string(dec.Value())}
		switch attr.Key {
		case "time":
			line.Time = attr.Value
		case "level":
			line.Level = attr.Value
		case "msg":
			line.Message = attr.Value
		default:
			line.Attrs = append(line.Attrs, attr)
		}
	}
	if dec.Err() != nil || !line.Parsed() {
		return Line{Raw: raw}
	}
	return line
}
