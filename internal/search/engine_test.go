package search

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/starford/ascii-star/internal/models"
	"github.com/starford/ascii-star/internal/storage"
	"github.com/starford/ascii-star/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// scenarioEngine builds the two-song library used by most tests.
func scenarioEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	dir, lib := testutil.TestLibrary(t)
	testutil.WriteSong(t, dir, "a.txt", "Bohemian Rhapsody", "Queen", "Rock")
	testutil.WriteSong(t, dir, "b.txt", "Imagine", "John Lennon", "")
	return NewEngine(lib, quietLogger()), dir
}

func paths(results []models.SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Path
	}
	sort.Strings(out)
	return out
}

func TestSearch_SingleArtistToken(t *testing.T) {
	e, _ := scenarioEngine(t)
	got := e.Search(context.Background(), "queen")
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1: %+v", len(got), got)
	}
	r := got[0]
	if r.Path != "song/a.txt" || r.Title != "Bohemian Rhapsody" || r.Artist != "Queen" {
		t.Errorf("result = %+v", r)
	}
	if r.Genre == nil || *r.Genre != "Rock" {
		t.Errorf("genre = %v, want Rock", r.Genre)
	}
}

func TestSearch_Conjunction(t *testing.T) {
	e, _ := scenarioEngine(t)
	if got := e.Search(context.Background(), "rock imagine"); len(got) != 0 {
		t.Errorf("rock imagine = %+v, want none", got)
	}
}

func TestSearch_MultiTokenSameDocument(t *testing.T) {
	e, _ := scenarioEngine(t)
	got := e.Search(context.Background(), "lennon imagine")
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Path != "song/b.txt" || got[0].Title != "Imagine" || got[0].Artist != "John Lennon" {
		t.Errorf("result = %+v", got[0])
	}
	if got[0].Genre != nil {
		t.Errorf("genre = %q, want nil", *got[0].Genre)
	}
}

func TestSearch_EmptyAndWhitespaceQueryMatchAll(t *testing.T) {
	e, _ := scenarioEngine(t)
	for _, q := range []string{"", "   ", "\t\n "} {
		got := paths(e.Search(context.Background(), q))
		if len(got) != 2 || got[0] != "song/a.txt" || got[1] != "song/b.txt" {
			t.Errorf("query %q = %v, want both songs exactly once", q, got)
		}
	}
}

func TestSearch_CaseInsensitive(t *testing.T) {
	e, _ := scenarioEngine(t)
	for _, q := range []string{"QUEEN", "qUeEn", "bohemian RHAPSODY", "rOcK"} {
		if got := e.Search(context.Background(), q); len(got) != 1 || got[0].Path != "song/a.txt" {
			t.Errorf("query %q = %+v, want a.txt", q, got)
		}
	}
}

func TestSearch_SubstringNotWordBoundary(t *testing.T) {
	dir, lib := testutil.TestLibrary(t)
	testutil.WriteSong(t, dir, "c.txt", "Theme", "Cartoon", "")
	e := NewEngine(lib, quietLogger())
	if got := e.Search(context.Background(), "art"); len(got) != 1 {
		t.Errorf("art should match Cartoon, got %+v", got)
	}
}

func TestSearch_EverySubstringMatches(t *testing.T) {
	e, _ := scenarioEngine(t)
	for _, field := range []string{"bohemian rhapsody", "queen", "rock"} {
		for i := 0; i < len(field); i++ {
			for j := i + 1; j <= len(field); j++ {
				sub := field[i:j]
				if len(Tokenize(sub)) != 1 {
					continue
				}
				got := e.Search(context.Background(), sub)
				found := false
				for _, r := range got {
					if r.Path == "song/a.txt" {
						found = true
					}
				}
				if !found {
					t.Errorf("substring %q of %q did not match a.txt", sub, field)
				}
			}
		}
	}
}

func TestSearch_SkipsUnparseableAndUnreadable(t *testing.T) {
	e, dir := scenarioEngine(t)
	testutil.WriteFile(t, dir, "garbage.bin", []byte{0xff, 0x00, 0xfe, 0x81})
	testutil.WriteFile(t, dir, "notitle.txt", []byte("#ARTIST:Queen\n: 0 1 2 la\n"))
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0o755); err != nil {
		t.Fatal(err)
	}
	testutil.WriteSong(t, filepath.Join(dir, "subdir"), "nested.txt", "Nested", "Queen", "")

	got := paths(e.Search(context.Background(), ""))
	if len(got) != 2 || got[0] != "song/a.txt" || got[1] != "song/b.txt" {
		t.Errorf("results = %v, want only a.txt and b.txt", got)
	}

	// The artist-only document must not show up even for a matching token.
	got = paths(e.Search(context.Background(), "queen"))
	if len(got) != 1 || got[0] != "song/a.txt" {
		t.Errorf("queen = %v, want only a.txt", got)
	}
}

func TestSearch_MissingDirectory(t *testing.T) {
	lib, err := storage.NewLibrary(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatal(err)
	}
	got := NewEngine(lib, quietLogger()).Search(context.Background(), "")
	if got == nil {
		t.Fatal("results should be an empty slice, not nil")
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestSearch_OriginalCasingPreserved(t *testing.T) {
	dir, lib := testutil.TestLibrary(t)
	testutil.WriteSong(t, dir, "x.txt", "HeLLo World", "MiXeD CaSe", "SynthPop")
	got := NewEngine(lib, quietLogger()).Search(context.Background(), "hello")
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Title != "HeLLo World" || got[0].Artist != "MiXeD CaSe" || *got[0].Genre != "SynthPop" {
		t.Errorf("result = %+v, want original casing", got[0])
	}
}

func TestSearch_CancelledContext(t *testing.T) {
	e, _ := scenarioEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := e.Search(ctx, ""); got == nil || len(got) != 0 {
		t.Errorf("cancelled search = %+v, want empty", got)
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("  Lennon\tIMAGINE \n ")
	if len(got) != 2 || got[0] != "lennon" || got[1] != "imagine" {
		t.Errorf("tokens = %q", got)
	}
	if got := Tokenize(" \t "); len(got) != 0 {
		t.Errorf("whitespace tokens = %q, want none", got)
	}
}
