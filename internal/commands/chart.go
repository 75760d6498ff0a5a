package commands

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"ratewatch-telegram-bot/internal/rates"
	"ratewatch-telegram-bot/lib/helpers"
)

const (
	defaultChartDays = 30
	maxChartDays     = 365
	chartCacheTTL    = 30 * time.Minute
)

var seriesColor = drawing.Color{R: 0, G: 122, B: 255, A: 255}

// CommandChart renders the rate history of one currency as a PNG and
// returns it with a MarkdownV2 caption.
func CommandChart(ctx context.Context, client *rates.Client, code string, days int) ([]byte, string, error) {
	log.Debugf("processing command /chart with argument: %s %d", code, days)

	if days <= 0 {
		days = defaultChartDays
	}
	if days > maxChartDays {
		days = maxChartDays
	}
	if !rates.IsSupported(code) {
		return nil, "", errors.Errorf("unsupported currency: %s", code)
	}

	cacheKey := fmt.Sprintf("%s:%d", code, days)
	if item, found := cacheGet(cacheKey); found {
		log.Debugf("returning cached chart for %s", cacheKey)
		return item.ChartData, item.Caption, nil
	}

	points, err := client.Dynamics(ctx, code, days)
	if err != nil {
		return nil, "", errors.Wrap(err, "command /chart")
	}

	png, err := renderChart(code, days, points)
	if err != nil {
		return nil, "", errors.Wrap(err, "could not render chart")
	}

	last := points[len(points)-1]
	caption := fmt.Sprintf("*%s/RUB*, last %d days\nLatest: `%s` \\(%s\\)",
		code, days,
		helpers.FormatRate(last.Value),
		helpers.EscapeMarkdownV2(last.Date.Format("02.01.2006")),
	)

	cacheSet(cacheKey, png, caption, chartCacheTTL)
	return png, caption, nil
}

func renderChart(code string, days int, points []rates.RatePoint) ([]byte, error) {
	if len(points) < 2 {
		return nil, errors.New("not enough data points to chart")
	}

	xValues := make([]time.Time, len(points))
	yValues := make([]float64, len(points))
	for i, p := range points {
		xValues[i] = p.Date
		yValues[i] = p.Value
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s/RUB, last %d days", code, days),
		Width:  1200,
		Height: 500,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return helpers.FormatPriceUS(f, false)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    code,
				XValues: xValues,
				YValues: yValues,
				Style: chart.Style{
					StrokeColor: seriesColor,
					FillColor:   seriesColor.WithAlpha(35),
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
