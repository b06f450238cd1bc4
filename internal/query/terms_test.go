package query

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTerms(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "empty",
			query: "",
			want:  []string{},
		},
		{
			name:  "plain words",
			query: "golang tutorial",
			want:  []string{"golang", "tutorial"},
		},
		{
			name:  "phrase then its words then standalone words",
			query: `tutorial "machine learning"`,
			want:  []string{"machine learning", "machine", "learning", "tutorial"},
		},
		{
			name:  "punctuation inside terms is preserved",
			query: "node.js react.js",
			want:  []string{"node.js", "react.js"},
		},
		{
			name:  "duplicates collapsed",
			query: "machine machine learning",
			want:  []string{"machine", "learning"},
		},
		{
			name:  "case-insensitive dedup keeps first casing",
			query: "Go go GO golang",
			want:  []string{"Go", "golang"},
		},
		{
			name:  "phrase word repeated outside phrase",
			query: `"deep learning" learning`,
			want:  []string{"deep learning", "deep", "learning"},
		},
		{
			name:  "operators excluded",
			query: "cats AND dogs OR birds",
			want:  []string{"cats", "dogs", "birds"},
		},
		{
			name:  "lowercase and is a term",
			query: "salt and pepper",
			want:  []string{"salt", "and", "pepper"},
		},
		{
			name:  "short terms dropped",
			query: "a I go x",
			want:  []string{"go"},
		},
		{
			name:  "phrase whitespace collapsed",
			query: `"  big   data "`,
			want:  []string{"big data", "big", "data"},
		},
		{
			name:  "unterminated quote stripped from word",
			query: `"hello world`,
			want:  []string{"hello", "world"},
		},
		{
			name:  "folding handles non-ascii",
			query: "Straße STRAẞE Ωmega ωMEGA",
			want:  []string{"Straße", "Ωmega"},
		},
		{
			name:  "sharp s does not fold to ss",
			query: "Straße STRASSE",
			want:  []string{"Straße", "STRASSE"},
		},
		{
			name:  "decomposed and composed spellings collapse",
			query: "cafe\u0301 caf\u00e9",
			want:  []string{"caf\u00e9"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractTerms(tt.query)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFoldKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"GoLang", "golang"},
		{"STRAẞE", "straße"},
		{"STRASSE", "strasse"},
		{"ſ", "s"},
		{"ΣΟΦΟΣ", "σοφοσ"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := FoldKey(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, utf8.RuneCountInString(tt.in), utf8.RuneCountInString(got))
		})
	}
}

func TestExtractTerms_Capped(t *testing.T) {
	words := make([]string, 0, MaxTerms*2)
	for i := 0; i < MaxTerms*2; i++ {
		words = append(words, fmt.Sprintf("term%02d", i))
	}

	got := ExtractTerms(strings.Join(words, " "))

	require.Len(t, got, MaxTerms)
	assert.Equal(t, "term00", got[0])
	assert.Equal(t, fmt.Sprintf("term%02d", MaxTerms-1), got[MaxTerms-1])
}

func TestExtractTerms_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				got := ExtractTerms(`"Machine Learning" machine python`)
				assert.Equal(t, []string{"Machine Learning", "Machine", "Learning", "python"}, got)
			}
		}()
	}
	wg.Wait()
}
