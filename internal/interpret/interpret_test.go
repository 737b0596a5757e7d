package interpret

import "testing"

func TestInterpretPieChart(t *testing.T) {
	res := Interpret(`{"labels":["A","B"],"values":[1,2],"chart_type":"pie"}`)
	if !res.IsChart() {
		t.Fatalf("expected chart, got text %q", res.RawText)
	}
	c := res.Chart
	if c.ChartType != Pie || len(c.Labels) != 2 || len(c.Values) != 2 {
		t.Fatalf("unexpected chart %+v", c)
	}
	if c.Labels[0] != "A" || c.Values[1] != 2 {
		t.Fatalf("unexpected chart data %+v", c)
	}
	if c.Title() != "Pie Chart" {
		t.Fatalf("unexpected title %q", c.Title())
	}
}

func TestInterpretMarkdownTableIsRawText(t *testing.T) {
	raw := "| A | B |\n|---|---|\n|1|2|"
	res := Interpret(raw)
	if res.IsChart() || res.RawText != raw {
		t.Fatalf("expected raw text, got %+v", res)
	}
}

func TestInterpretChartTypeDefaults(t *testing.T) {
	cases := map[string]string{
		"absent":       `{"labels":["x"],"values":[3]}`,
		"unrecognized": `{"labels":["x"],"values":[3],"chart_type":"line"}`,
		"wrong type":   `{"labels":["x"],"values":[3],"chart_type":7}`,
		"bar":          ` {"labels":["x"],"values":[3.5],"chart_type":"bar"} `,
	}
	for name, raw := range cases {
		res := Interpret(raw)
		if !res.IsChart() || res.Chart.ChartType != Bar {
			t.Errorf("%s: expected bar chart, got %+v", name, res)
		}
	}
}

func TestInterpretFallbacks(t *testing.T) {
	cases := map[string]string{
		"missing values":    `{"labels":["a"]}`,
		"missing labels":    `{"values":[1]}`,
		"length mismatch":   `{"labels":["a","b"],"values":[1]}`,
		"non-numeric value": `{"labels":["a"],"values":["1"]}`,
		"array":             `[1,2,3]`,
		"fenced":            "```json\n{\"labels\":[\"a\"],\"values\":[1]}\n```",
		"prose":             "Here is your chart: none",
		"empty":             "",
	}
	for name, raw := range cases {
		res := Interpret(raw)
		if res.IsChart() || res.RawText != raw {
			t.Errorf("%s: expected raw text fallback, got %+v", name, res)
		}
	}
}

func TestInterpretEmptyArraysIsEmptyChart(t *testing.T) {
	res := Interpret(`{"labels":[],"values":[]}`)
	if !res.IsChart() || len(res.Chart.Labels) != 0 {
		t.Fatalf("expected empty chart, got %+v", res)
	}
}

func TestInterpretNumericLabels(t *testing.T) {
	res := Interpret(`{"labels":[2021, 2022.5],"values":[1,2]}`)
	if !res.IsChart() || res.Chart.Labels[0] != "2021" || res.Chart.Labels[1] != "2022.5" {
		t.Fatalf("unexpected labels %+v", res)
	}
}
