package commands

import (
	"fmt"
	"sort"
	"strings"

	"acoustic-listener/config"
	"acoustic-listener/listener"
	"acoustic-listener/matcher"
	"acoustic-listener/spectrogram"
	"acoustic-listener/template"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-yaml"
)

var (
	colorPrimary = lipgloss.Color("#00ff9f")
	colorFail    = lipgloss.Color("#ff5f5f")
	colorDim     = lipgloss.Color("#6e7681")
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Padding(0, 1)
	labelStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	matchedStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	unmatchedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorFail)
	dimStyle       = lipgloss.NewStyle().Foreground(colorDim)
)

func verdictStyle(v matcher.Verdict) lipgloss.Style {
	switch v {
	case matcher.Matched:
		return matchedStyle
	case matcher.Unmatched:
		return unmatchedStyle
	default:
		return dimStyle
	}
}

// renderResult draws a verdict headline followed by one row per check.
func renderResult(title string, r matcher.Result) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(title))
	sb.WriteString(" ")
	sb.WriteString(verdictStyle(r.Verdict).Render(r.Verdict.String()))
	sb.WriteString("\n")

	for _, c := range r.Checks {
		var mark string
		switch {
		case c.Skipped:
			mark = dimStyle.Render("skip")
		case c.Pass:
			mark = matchedStyle.Render(" ok ")
		default:
			mark = unmatchedStyle.Render("fail")
		}

		fmt.Fprintf(&sb, "  %s %-20s %s <= %g <= %s\n",
			mark, c.Param, boundText(c.Bound.Min), c.Value, boundText(c.Bound.Max))
	}

	return sb.String()
}

func boundText(s string) string {
	if strings.TrimSpace(s) == "" {
		return "_"
	}
	return s
}

// renderDevices lists the capture devices, highlighting the preferred ones.
func renderDevices(all []listener.Device, prefs []string) string {
	preferred := map[int]bool{}
	for _, d := range listener.Preferred(all, prefs) {
		preferred[d.Index] = true
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Input devices"))
	sb.WriteString("\n")

	for _, d := range all {
		if !d.IsInput() {
			continue
		}

		line := fmt.Sprintf("%3d  %s  (%d ch, %g Hz)", d.Index, d.Name, d.MaxInputChannels, d.DefaultSampleRate)
		if preferred[d.Index] {
			sb.WriteString(labelStyle.Render(line + "  *"))
		} else {
			sb.WriteString(line)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// templateView is the printable form of a template.
type templateView struct {
	SampleRate int                     `yaml:"sample_rate"`
	Sources    []string                `yaml:"sources"`
	Values     map[string]float64      `yaml:"values"`
	Bounds     map[string]config.Range `yaml:"bounds"`
	Trace      []float64               `yaml:"com_trace"`
	Energy     float64                 `yaml:"image_energy"`
	Image      map[string]int          `yaml:"image"`
}

func newTemplateView(t *template.Template) templateView {
	v := templateView{
		SampleRate: t.SampleRate,
		Sources:    t.Sources,
		Values:     map[string]float64{},
		Bounds:     map[string]config.Range{},
		Trace:      t.CoMTrace,
		Energy:     t.Energy,
		Image:      map[string]int{"columns": len(t.Image), "rows": t.Image.Rows()},
	}

	for _, p := range spectrogram.Scalars {
		if val, ok := t.Values.Value(p); ok {
			v.Values[string(p)] = val
		}
	}

	for p, r := range t.Bounds {
		v.Bounds[string(p)] = r
	}

	return v
}

func renderTemplate(t *template.Template) (string, error) {
	out, err := yaml.Marshal(newTemplateView(t))
	if err != nil {
		return "", fmt.Errorf("marshal template: %w", err)
	}
	return string(out), nil
}

// renderBounds prints the bound table in a stable order.
func renderBounds(table matcher.Table) string {
	names := make([]string, 0, len(table))
	for p := range table {
		names = append(names, string(p))
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		b := table[spectrogram.Param(name)]
		fmt.Fprintf(&sb, "  %-20s [%s, %s]\n", name, boundText(b.Min), boundText(b.Max))
	}
	return sb.String()
}
