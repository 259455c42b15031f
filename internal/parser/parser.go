// Package parser extracts the tagged header block from UltraStar song files.
package parser

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrUnparseable is wrapped by every error Parse returns.
var ErrUnparseable = errors.New("parser: unparseable header")

// SyntaxError reports a malformed header line.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("parser: line %d: %s", e.Line, e.Msg)
}

// Unwrap lets errors.Is match ErrUnparseable.
func (e *SyntaxError) Unwrap() error { return ErrUnparseable }

// Header holds the metadata tags found at the top of a song file.
type Header struct {
	Title      string
	Artist     string
	Genre      *string
	MP3        string
	BPM        *float64
	Gap        *float64
	Cover      string
	Background string
	Video      string
	VideoGap   *float64
	Edition    string
	Language   string
	Year       *int
	Relative   *bool
	// Extra holds tags this parser does not know, keyed by upper-case tag name.
	Extra map[string]string
}

var bom = []byte{0xEF, 0xBB, 0xBF}

// Parse reads the header of an UltraStar txt document. The header is the run
// of #TAG:VALUE lines before the first note line. TITLE and ARTIST are
// required; a tag that is present with an empty value is not an error.
func Parse(data []byte) (*Header, error) {
	data = bytes.TrimPrefix(data, bom)
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrUnparseable)
	}

	h := &Header{}
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "#") {
			break
		}

		tag, value, ok := strings.Cut(line[1:], ":")
		if !ok {
			return nil, &SyntaxError{Line: lineNo, Msg: "header line has no ':'"}
		}
		tag = strings.ToUpper(strings.TrimSpace(tag))
		if tag == "" {
			return nil, &SyntaxError{Line: lineNo, Msg: "empty tag name"}
		}
		if _, dup := seen[tag]; dup {
			return nil, &SyntaxError{Line: lineNo, Msg: "duplicate tag #" + tag}
		}
		seen[tag] = struct{}{}

		if err := h.set(tag, strings.TrimSpace(value)); err != nil {
			return nil, &SyntaxError{Line: lineNo, Msg: err.Error()}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	for _, req := range []string{"TITLE", "ARTIST"} {
		if _, ok := seen[req]; !ok {
			return nil, fmt.Errorf("%w: missing #%s", ErrUnparseable, req)
		}
	}
	return h, nil
}

func (h *Header) set(tag, value string) error {
	var err error
	switch tag {
	case "TITLE":
		h.Title = value
	case "ARTIST":
		h.Artist = value
	case "GENRE":
		h.Genre = &value
	case "MP3":
		h.MP3 = value
	case "BPM":
		h.BPM, err = parseFloat(tag, value)
	case "GAP":
		h.Gap, err = parseFloat(tag, value)
	case "VIDEOGAP":
		h.VideoGap, err = parseFloat(tag, value)
	case "COVER":
		h.Cover = value
	case "BACKGROUND":
		h.Background = value
	case "VIDEO":
		h.Video = value
	case "EDITION":
		h.Edition = value
	case "LANGUAGE":
		h.Language = value
	case "YEAR":
		var y int
		y, err = strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("#YEAR: %q is not an integer", value)
		}
		h.Year = &y
	case "RELATIVE":
		var rel bool
		switch strings.ToLower(value) {
		case "yes":
			rel = true
		case "no":
			rel = false
		default:
			return fmt.Errorf("#RELATIVE: %q is not yes or no", value)
		}
		h.Relative = &rel
	default:
		if h.Extra == nil {
			h.Extra = make(map[string]string)
		}
		h.Extra[tag] = value
	}
	return err
}

// parseFloat accepts both '.' and ',' as the decimal separator.
func parseFloat(tag, value string) (*float64, error) {
	f, err := strconv.ParseFloat(strings.Replace(value, ",", ".", 1), 64)
	if err != nil {
		return nil, fmt.Errorf("#%s: %q is not a number", tag, value)
	}
	return &f, nil
}
