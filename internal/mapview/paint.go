package mapview

// Opacity stops: features fade in toward zoom 11 and back out as individual
// hexagons start dominating the viewport.
var opacityStops = []struct {
	zoom    float64
	opacity float64
}{
	{5, 0.01},
	{8, 0.3},
	{11, 0.8},
	{13, 0.3},
	{15, 0.08},
}

const (
	highlightOpacity   = 0.9
	highlightLineColor = "#000000"
	highlightLineWidth = 8.0
	restLineWidth      = 2.0
)

// RestFillOpacity is the zoom-interpolated opacity with nothing highlighted.
func RestFillOpacity() Expression {
	expr := []any{"interpolate", []any{"linear"}, []any{"zoom"}}
	for _, stop := range opacityStops {
		expr = append(expr, stop.zoom, stop.opacity)
	}
	return expr
}

// RestLineColor reads each feature's own stroke color.
func RestLineColor() Expression {
	return []any{"get", "strokeColor"}
}

// RestLineWidth is the outline width with nothing highlighted.
func RestLineWidth() Expression {
	return restLineWidth
}

// HighlightFillOpacity elevates the matching feature to the shared highlight
// opacity at every stop while the rest keep their zoom-dependent value.
func HighlightFillOpacity(id string) Expression {
	expr := []any{"interpolate", []any{"linear"}, []any{"zoom"}}
	for _, stop := range opacityStops {
		expr = append(expr, stop.zoom, caseOnID(id, highlightOpacity, stop.opacity))
	}
	return expr
}

// HighlightLineColor paints the matching feature's outline black.
func HighlightLineColor(id string) Expression {
	return caseOnID(id, highlightLineColor, RestLineColor())
}

// HighlightLineWidth widens the matching feature's outline.
func HighlightLineWidth(id string) Expression {
	return caseOnID(id, highlightLineWidth, restLineWidth)
}

func caseOnID(id string, matched, rest any) Expression {
	return []any{"case", []any{"==", []any{"get", "id"}, id}, matched, rest}
}
