package mapview_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/moxalise/aidmap/internal/mapview"
)

func TestRestFillOpacityStops(t *testing.T) {
	expected := []any{
		"interpolate", []any{"linear"}, []any{"zoom"},
		5.0, 0.01,
		8.0, 0.3,
		11.0, 0.8,
		13.0, 0.3,
		15.0, 0.08,
	}
	if diff := cmp.Diff(expected, mapview.RestFillOpacity()); diff != "" {
		t.Errorf("rest fill opacity mismatch (-expected +actual):\n%s", diff)
	}
}

func TestHighlightFillOpacityElevatesMatchAtEveryStop(t *testing.T) {
	match := func(elevated, rest float64) []any {
		return []any{"case", []any{"==", []any{"get", "id"}, "rec-7"}, elevated, rest}
	}
	expected := []any{
		"interpolate", []any{"linear"}, []any{"zoom"},
		5.0, match(0.9, 0.01),
		8.0, match(0.9, 0.3),
		11.0, match(0.9, 0.8),
		13.0, match(0.9, 0.3),
		15.0, match(0.9, 0.08),
	}
	if diff := cmp.Diff(expected, mapview.HighlightFillOpacity("rec-7")); diff != "" {
		t.Errorf("highlight fill opacity mismatch (-expected +actual):\n%s", diff)
	}
}

func TestHighlightOutlineExpressions(t *testing.T) {
	expectedColor := []any{
		"case", []any{"==", []any{"get", "id"}, "rec-7"},
		"#000000", []any{"get", "strokeColor"},
	}
	if diff := cmp.Diff(expectedColor, mapview.HighlightLineColor("rec-7")); diff != "" {
		t.Errorf("highlight line color mismatch (-expected +actual):\n%s", diff)
	}

	expectedWidth := []any{
		"case", []any{"==", []any{"get", "id"}, "rec-7"},
		8.0, 2.0,
	}
	if diff := cmp.Diff(expectedWidth, mapview.HighlightLineWidth("rec-7")); diff != "" {
		t.Errorf("highlight line width mismatch (-expected +actual):\n%s", diff)
	}
}
