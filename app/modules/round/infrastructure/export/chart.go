package roundexport

import (
	"bytes"
	"fmt"

	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Palette colours the score chart.
type Palette struct {
	Background drawing.Color
	Strokes    drawing.Color
	Par        drawing.Color
	Text       drawing.Color
}

// DefaultPalette is a fairway green on white.
var DefaultPalette = Palette{
	Background: drawing.ColorWhite,
	Strokes:    drawing.ColorFromHex("2e7d32"),
	Par:        drawing.ColorFromHex("9e9e9e"),
	Text:       drawing.ColorFromHex("212121"),
}

// ScoreChartPNG plots strokes against par for every played hole.
func ScoreChartPNG(card rounddomain.Scorecard, palette Palette) ([]byte, error) {
	var holes, strokes, pars []float64
	top := 0.0
	for _, row := range card.Rows {
		if row.Strokes == 0 {
			continue
		}
		holes = append(holes, float64(row.CourseHole))
		strokes = append(strokes, float64(row.Strokes))
		pars = append(pars, float64(row.Par))
		top = max(top, float64(row.Strokes), float64(row.Par))
	}
	if len(holes) == 0 {
		return renderNoDataPlaceholder(palette)
	}
	// A single point has no extent to draw a line through.
	if len(holes) == 1 {
		holes = append(holes, holes[0]+1)
		strokes = append(strokes, strokes[0])
		pars = append(pars, pars[0])
	}

	strokeSeries := chart.ContinuousSeries{
		Name:    "Strokes",
		XValues: holes,
		YValues: strokes,
		Style: chart.Style{
			StrokeColor: palette.Strokes,
			StrokeWidth: 2,
			DotWidth:    4,
			DotColor:    palette.Strokes,
		},
	}
	parSeries := chart.ContinuousSeries{
		Name:    "Par",
		XValues: holes,
		YValues: pars,
		Style: chart.Style{
			StrokeColor:     palette.Par,
			StrokeWidth:     1,
			StrokeDashArray: []float64{5, 3},
		},
	}

	graph := chart.Chart{
		Title:  card.CourseName,
		Width:  800,
		Height: 400,
		Background: chart.Style{
			FillColor: palette.Background,
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		XAxis: chart.XAxis{
			Name: "Hole",
			ValueFormatter: func(v any) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
			Style: chart.Style{FontColor: palette.Text},
		},
		YAxis: chart.YAxis{
			Name:  "Strokes",
			Style: chart.Style{FontColor: palette.Text},
			Range: &chart.ContinuousRange{Min: 0, Max: top + 1},
		},
		Series: []chart.Series{strokeSeries, parSeries},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render score chart: %w", err)
	}
	return buffer.Bytes(), nil
}

func renderNoDataPlaceholder(palette Palette) ([]byte, error) {
	const (
		width  = 400
		height = 200
		msg    = "No holes played yet"
	)

	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, err
	}
	r, err := chart.PNG(width, height)
	if err != nil {
		return nil, err
	}

	r.SetFillColor(palette.Background)
	r.MoveTo(0, 0)
	r.LineTo(width, 0)
	r.LineTo(width, height)
	r.LineTo(0, height)
	r.Close()
	r.Fill()

	r.SetFont(font)
	r.SetFontColor(palette.Text)
	r.SetFontSize(12.0)
	tb := r.MeasureText(msg)
	r.Text(msg, (width-tb.Width())/2, (height+tb.Height())/2)

	buffer := bytes.NewBuffer([]byte{})
	if err := r.Save(buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
