package report

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/accident.report/internal/analysis"
	"github.com/banshee-data/accident.report/internal/dataset"
)

// DefaultAssetsHost serves the echarts javascript.
const DefaultAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// HTMLOptions configures WriteHTML.
type HTMLOptions struct {
	Title      string
	AssetsHost string
	// MaxPoints caps the scatter points across all states; zero means no
	// cap.
	MaxPoints int
}

// coolwarm approximates the diverging palette of the PNG heatmap.
var coolwarm = []string{"#3b4cc0", "#6788ee", "#9abbff", "#c9d7f0", "#edd1c2", "#f7a889", "#e26952", "#b40426"}

// viridis is the sequential palette used for ranked bars.
var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// WriteHTML renders one page with an interactive chart per available figure.
func WriteHTML(w io.Writer, s *analysis.Summary, o HTMLOptions) error {
	if s == nil {
		return fmt.Errorf("nothing to report")
	}
	if o.AssetsHost == "" {
		o.AssetsHost = DefaultAssetsHost
	}
	if o.Title == "" {
		o.Title = "Traffic Accident Analysis"
	}
	initOpts := opts.Initialization{Width: "100%", Height: "560px", AssetsHost: o.AssetsHost}

	page := components.NewPage()
	page.SetPageTitle(o.Title)
	page.SetAssetsHost(o.AssetsHost)

	if s.Correlation != nil {
		page.AddCharts(correlationChart(initOpts, s))
	}
	if len(s.TopCities) > 0 {
		page.AddCharts(topCitiesChart(initOpts, s.TopCities))
	}
	if len(s.Severity) > 0 {
		page.AddCharts(pieChart(initOpts, "Severity Count", s.Severity))
	}
	if len(s.RoadCondition) > 0 {
		page.AddCharts(pieChart(initOpts, "Accidents by Road Condition", s.RoadCondition))
	}
	if len(s.Weather) > 0 {
		page.AddCharts(countBarChart(initOpts, "Accidents by Weather Conditions", "Weather Condition", s.Weather, "#ff7f50"))
	}
	if len(s.Hours) > 0 {
		page.AddCharts(hoursChart(initOpts, s))
	}
	if s.Locations != nil && s.Locations.Points() > 0 {
		page.AddCharts(locationsChart(initOpts, s.Locations, o.MaxPoints))
	}
	if len(s.TemperatureBySeverity) > 0 {
		page.AddCharts(boxChart(initOpts, s.TemperatureBySeverity))
	}
	if s.WindBySeverity != nil && len(s.WindBySeverity.Groups) > 0 {
		page.AddCharts(windChart(initOpts, s.WindBySeverity))
	}
	if s.TemperatureDensity != nil {
		page.AddCharts(densityChart(initOpts, s))
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

func correlationChart(initOpts opts.Initialization, s *analysis.Summary) *charts.HeatMap {
	names := s.NumericFeatures
	n := len(names)
	data := make([]opts.HeatMapData, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := s.Correlation.At(i, j)
			var value interface{} = "-"
			if !math.IsNaN(v) {
				value = math.Round(v*100) / 100
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{j, n - 1 - i, value}})
		}
	}
	rev := make([]string, n)
	for i, name := range names {
		rev[n-1-i] = name
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: "Correlation Heatmap"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: names}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: rev}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        -1,
			Max:        1,
			InRange:    &opts.VisualMapInRange{Color: coolwarm},
		}),
	)
	hm.SetXAxis(names).AddSeries("correlation", data,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true)}),
	)
	return hm
}

func topCitiesChart(initOpts opts.Initialization, counts []dataset.Count) *charts.Bar {
	n := len(counts)
	names := make([]string, n)
	data := make([]opts.BarData, n)
	for i, c := range counts {
		pos := n - 1 - i
		names[pos] = c.Label
		data[pos] = opts.BarData{
			Value:     c.Count,
			ItemStyle: &opts.ItemStyle{Color: viridis[i*(len(viridis)-1)/max(n-1, 1)]},
		}
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: "Top 10 Accident Hotspots by City"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Number of Accidents", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: names, Name: "City"}),
	)
	bar.AddSeries("accidents", data)
	return bar
}

func countBarChart(initOpts opts.Initialization, title, axis string, counts []dataset.Count, color string) *charts.Bar {
	names := make([]string, len(counts))
	data := make([]opts.BarData, len(counts))
	for i, c := range counts {
		names[i] = c.Label
		data[i] = opts.BarData{Value: c.Count}
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: axis, NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Number of Accidents"}),
	)
	bar.SetXAxis(names).AddSeries("accidents", data,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
	)
	return bar
}

func pieChart(initOpts opts.Initialization, title string, counts []dataset.Count) *charts.Pie {
	data := make([]opts.PieData, len(counts))
	for i, c := range counts {
		data[i] = opts.PieData{Name: c.Label, Value: c.Count}
	}
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	pie.AddSeries(title, data,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {d}%"}),
		charts.WithPieChartOpts(opts.PieChart{Radius: "60%"}),
	)
	return pie
}

func hoursChart(initOpts opts.Initialization, s *analysis.Summary) *charts.Bar {
	names := make([]string, len(s.Hours))
	data := make([]opts.BarData, len(s.Hours))
	for i, b := range s.Hours {
		names[i] = fmt.Sprintf("%.2f-%.2f", b.Min, b.Max)
		data[i] = opts.BarData{Value: b.Count}
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: "Accidents by Time of Day"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time of Day", NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Number of Accidents"}),
	)
	bar.SetXAxis(names).AddSeries("accidents", data,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#0000ff"}),
		charts.WithBarChartOpts(opts.BarChart{BarCategoryGap: "0%"}),
	)
	return bar
}

func locationsChart(initOpts opts.Initialization, l *analysis.Locations, maxPoints int) *charts.Scatter {
	sc := charts.NewScatter()
	sc.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: "Accidents Location"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Longitude", Scale: opts.Bool(true), NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "Latitude", Scale: opts.Bool(true)}),
	)
	// The stride runs across states so the total stays within maxPoints.
	stride := 1
	if total := l.Points(); maxPoints > 0 && total > maxPoints {
		stride = (total + maxPoints - 1) / maxPoints
	}
	k := 0
	for _, st := range l.States {
		data := make([]opts.ScatterData, 0, len(st.Lng)/stride+1)
		for i := range st.Lng {
			if k%stride == 0 {
				data = append(data, opts.ScatterData{Value: []interface{}{st.Lng[i], st.Lat[i]}})
			}
			k++
		}
		sc.AddSeries(st.State, data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	}
	return sc
}

func boxChart(initOpts opts.Initialization, boxes []analysis.SeverityBox) *charts.BoxPlot {
	names := make([]string, len(boxes))
	data := make([]opts.BoxPlotData, len(boxes))
	for i, b := range boxes {
		names[i] = b.Severity
		data[i] = opts.BoxPlotData{
			Name:  b.Severity,
			Value: []float64{b.Box.WhiskerLow, b.Box.Q1, b.Box.Median, b.Box.Q3, b.Box.WhiskerHigh},
		}
	}
	bp := charts.NewBoxPlot()
	bp.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: "Boxplot of Temperature by Accident Severity"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Severity"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Temperature (F)", Scale: opts.Bool(true)}),
	)
	bp.SetXAxis(names).AddSeries("temperature", data)
	return bp
}

// windChart shows each severity's wind speed density as its own line; the
// mirrored violin shape only exists in the PNG.
func windChart(initOpts opts.Initialization, v *analysis.Violins) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: "Wind Speed Density by Accident Severity"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Wind Speed (mph)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "Density"}),
	)
	for _, g := range v.Groups {
		if !g.HasDensity {
			continue
		}
		data := make([]opts.LineData, len(g.Density.X))
		for i := range g.Density.X {
			data[i] = opts.LineData{Value: []interface{}{g.Density.X[i], g.Density.Y[i]}}
		}
		line.AddSeries("severity "+g.Severity, data,
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), ShowSymbol: opts.Bool(false)}),
		)
	}
	return line
}

func densityChart(initOpts opts.Initialization, s *analysis.Summary) *charts.Line {
	d := s.TemperatureDensity
	data := make([]opts.LineData, len(d.X))
	for i := range d.X {
		data[i] = opts.LineData{Value: []interface{}{d.X[i], d.Y[i]}}
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: "Density of Temperature by Accident Temperature"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Temperature (F)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "Density"}),
	)
	line.AddSeries("temperature", data,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), ShowSymbol: opts.Bool(false)}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "green"}),
		charts.WithAreaStyleOpts(opts.AreaStyle{Color: "green", Opacity: opts.Float(0.25)}),
	)
	return line
}
