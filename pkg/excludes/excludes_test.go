package excludes

import (
	"strconv"
	"strings"
	"testing"
)

func TestParseDirectoryAndFilePatterns(t *testing.T) {
	input := "node_modules/\n*.tmp\n\n.git/\n"
	f, err := parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !f.Excludes("node_modules") {
		t.Fatalf("expected node_modules excluded")
	}
	if !f.Excludes(".git") {
		t.Fatalf("expected .git excluded")
	}
	if f.Excludes("*.tmp") {
		t.Fatalf("file patterns must not be treated as directory excludes")
	}
	if f.Excludes("src") {
		t.Fatalf("unrelated name should not be excluded")
	}
}

func TestParseTooManyExcludes(t *testing.T) {
	var b strings.Builder
	for i := 0; i < MaxDirectoryPatterns+1; i++ {
		b.WriteString("d")
		b.WriteString(strconv.Itoa(i))
		b.WriteString("/\n")
	}
	if _, err := parse(strings.NewReader(b.String())); err != ErrTooManyExcludes {
		t.Fatalf("expected ErrTooManyExcludes, got %v", err)
	}
}

func TestExactByteMatch(t *testing.T) {
	f, _ := parse(strings.NewReader("Data/\n"))
	if f.Excludes("data") {
		t.Fatalf("match must be byte-for-byte, case-sensitive")
	}
	if !f.Excludes("Data") {
		t.Fatalf("expected exact match to exclude")
	}
}

func TestEmptyFilterExcludesNothing(t *testing.T) {
	if Empty.Excludes("anything") {
		t.Fatalf("empty filter should exclude nothing")
	}
	var nilFilter *Filter
	if nilFilter.Excludes("anything") {
		t.Fatalf("nil filter should exclude nothing")
	}
}
