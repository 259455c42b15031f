package parser

import (
	"errors"
	"testing"
)

func TestParse_FullHeader(t *testing.T) {
	input := []byte("#TITLE:Bohemian Rhapsody\n#ARTIST:Queen\n#MP3:queen.mp3\n#BPM:286,5\n#GAP:1200\n" +
		"#GENRE:Rock\n#LANGUAGE:English\n#YEAR:1975\n#RELATIVE:no\n#CREATOR:someone\n" +
		": 0 4 60 Is\n: 4 4 60  this\nE\n")
	h, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Title != "Bohemian Rhapsody" {
		t.Errorf("title = %q, want %q", h.Title, "Bohemian Rhapsody")
	}
	if h.Artist != "Queen" {
		t.Errorf("artist = %q, want %q", h.Artist, "Queen")
	}
	if h.Genre == nil || *h.Genre != "Rock" {
		t.Errorf("genre = %v, want Rock", h.Genre)
	}
	if h.MP3 != "queen.mp3" {
		t.Errorf("mp3 = %q", h.MP3)
	}
	if h.BPM == nil || *h.BPM != 286.5 {
		t.Errorf("bpm = %v, want 286.5", h.BPM)
	}
	if h.Gap == nil || *h.Gap != 1200 {
		t.Errorf("gap = %v, want 1200", h.Gap)
	}
	if h.Year == nil || *h.Year != 1975 {
		t.Errorf("year = %v, want 1975", h.Year)
	}
	if h.Relative == nil || *h.Relative {
		t.Errorf("relative = %v, want false", h.Relative)
	}
	if h.Extra["CREATOR"] != "someone" {
		t.Errorf("extra = %v", h.Extra)
	}
}

func TestParse_GenreAbsentIsNil(t *testing.T) {
	h, err := Parse([]byte("#TITLE:Imagine\n#ARTIST:John Lennon\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Genre != nil {
		t.Errorf("genre = %q, want nil", *h.Genre)
	}
}

func TestParse_EmptyValuesAreParsed(t *testing.T) {
	h, err := Parse([]byte("#TITLE:\n#ARTIST:\n#GENRE:\n"))
	if err != nil {
		t.Fatalf("present-but-empty fields should parse: %v", err)
	}
	if h.Title != "" || h.Artist != "" {
		t.Errorf("title/artist = %q/%q, want empty", h.Title, h.Artist)
	}
	if h.Genre == nil || *h.Genre != "" {
		t.Errorf("genre = %v, want pointer to empty string", h.Genre)
	}
}

func TestParse_TagsCaseInsensitiveAndTrimmed(t *testing.T) {
	h, err := Parse([]byte("\xEF\xBB\xBF#title: Song \r\n#Artist :  Band\r\n\r\n: 0 1 2 la\r\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Title != "Song" || h.Artist != "Band" {
		t.Errorf("title/artist = %q/%q, want Song/Band", h.Title, h.Artist)
	}
}

func TestParse_ValueMayContainColon(t *testing.T) {
	h, err := Parse([]byte("#TITLE:Live: Wembley\n#ARTIST:Queen\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Title != "Live: Wembley" {
		t.Errorf("title = %q", h.Title)
	}
}

func TestParse_HeaderStopsAtBody(t *testing.T) {
	// #ARTIST after the first note line is body, not header.
	_, err := Parse([]byte("#TITLE:Song\n: 0 1 2 la\n#ARTIST:Late\n"))
	if !errors.Is(err, ErrUnparseable) {
		t.Fatalf("err = %v, want ErrUnparseable", err)
	}
}

func TestParse_Unparseable(t *testing.T) {
	cases := map[string][]byte{
		"missing title":  []byte("#ARTIST:Queen\n"),
		"missing artist": []byte("#TITLE:Song\n"),
		"empty":          {},
		"binary":         {0xff, 0xfe, 0x00, 0x81, 0x9f},
		"no colon":       []byte("#TITLE Song\n#ARTIST:Queen\n"),
		"duplicate":      []byte("#TITLE:a\n#TITLE:b\n#ARTIST:Queen\n"),
		"bad bpm":        []byte("#TITLE:a\n#ARTIST:b\n#BPM:fast\n"),
		"bad year":       []byte("#TITLE:a\n#ARTIST:b\n#YEAR:seventies\n"),
		"bad relative":   []byte("#TITLE:a\n#ARTIST:b\n#RELATIVE:maybe\n"),
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			h, err := Parse(input)
			if err == nil {
				t.Fatalf("expected error, got header %+v", h)
			}
			if !errors.Is(err, ErrUnparseable) {
				t.Errorf("err = %v, want wrapping ErrUnparseable", err)
			}
		})
	}
}

func TestParse_SyntaxErrorLine(t *testing.T) {
	_, err := Parse([]byte("#TITLE:a\n\n#ARTIST\n"))
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *SyntaxError", err)
	}
	if se.Line != 3 {
		t.Errorf("line = %d, want 3", se.Line)
	}
}
