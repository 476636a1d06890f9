package components

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/aldema/pipeboard/internal/config"
	"github.com/aldema/pipeboard/internal/models"
)

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "$0"},
		{9900, "$99"},
		{125000, "$1,250"},
		{123456789, "$1,234,567"},
		{-50000, "-$500"},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.cents); got != tc.want {
			t.Errorf("FormatAmount(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate(short, 10) = %q", got)
	}
	got := Truncate("a very long deal title", 8)
	if !strings.HasSuffix(got, "…") {
		t.Errorf("Truncate did not append ellipsis: %q", got)
	}
	if Truncate("anything", 0) != "" {
		t.Error("Truncate with zero width should be empty")
	}

	// Cuts land on rune boundaries, never mid-byte.
	got = Truncate("● réunion à Genève", 9)
	if !utf8.ValidString(got) {
		t.Errorf("Truncate produced invalid UTF-8: %q", got)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("Truncate did not append ellipsis to multibyte text: %q", got)
	}
}

func TestRenderStage_ShowsHeaderAndCount(t *testing.T) {
	InitStyles(config.DefaultColorScheme())

	stage := &models.Stage{ID: "lead", Name: "Lead", DisplayOrder: 1}
	deals := []*models.Deal{
		{ID: "d-1", Title: "Acme rollout", Amount: 125000},
		{ID: "d-2", Title: "Globex renewal", Amount: 50000},
	}

	out := RenderStage(stage, deals, StageProps{
		Selected:  true,
		CursorIdx: 0,
		Width:     30,
		Height:    30,
	})

	if !strings.Contains(out, "Lead (2)") {
		t.Errorf("stage header missing from output:\n%s", out)
	}
	if !strings.Contains(out, "$1,750") {
		t.Errorf("stage total missing from output:\n%s", out)
	}
}

func TestRenderStage_EmptyShowsPlaceholder(t *testing.T) {
	InitStyles(config.DefaultColorScheme())

	stage := &models.Stage{ID: "won", Name: "Won", DisplayOrder: 3}
	out := RenderStage(stage, nil, StageProps{Width: 30, Height: 20})

	if !strings.Contains(out, "No deals") {
		t.Errorf("empty stage placeholder missing:\n%s", out)
	}
}
