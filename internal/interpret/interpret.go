// Package interpret decides whether a model reply is chart data or text to
// show verbatim.
package interpret

import (
	"encoding/json"
	"strconv"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

type ChartType string

const (
	Pie ChartType = "pie"
	Bar ChartType = "bar"
)

// ChartSpec holds equal-length labels and values.
type ChartSpec struct {
	Labels    []string  `json:"labels"`
	Values    []float64 `json:"values"`
	ChartType ChartType `json:"chart_type"`
}

func (c ChartSpec) Title() string {
	if c.ChartType == Pie {
		return "Pie Chart"
	}
	return "Bar Chart"
}

// Result is either a Chart or RawText, never both.
type Result struct {
	Chart   *ChartSpec
	RawText string
}

func (r Result) IsChart() bool { return r.Chart != nil }

// chartSchema requires labels and values; chart_type is free-form and
// normalized afterwards.
const chartSchema = `{
	"type": "object",
	"required": ["labels", "values"],
	"properties": {
		"labels": {"type": "array", "items": {"type": ["string", "number"]}},
		"values": {"type": "array", "items": {"type": "number"}}
	}
}`

var schema = jsonschema.MustCompileString("chart.json", chartSchema)

// Interpret attempts one strict JSON decode of raw. Anything that is not a
// chart object with equal-length labels and values comes back as RawText equal
// to raw.
func Interpret(raw string) Result {
	text := Result{RawText: raw}

	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return text
	}
	if err := schema.Validate(doc); err != nil {
		return text
	}
	m := doc.(map[string]any)
	labels := m["labels"].([]any)
	values := m["values"].([]any)
	if len(labels) != len(values) {
		return text
	}

	spec := &ChartSpec{
		Labels:    make([]string, len(labels)),
		Values:    make([]float64, len(values)),
		ChartType: Bar,
	}
	for i, l := range labels {
		switch v := l.(type) {
		case string:
			spec.Labels[i] = v
		case float64:
			spec.Labels[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	for i, v := range values {
		spec.Values[i] = v.(float64)
	}
	if ct, ok := m["chart_type"].(string); ok && ChartType(ct) == Pie {
		spec.ChartType = Pie
	}
	return Result{Chart: spec}
}
