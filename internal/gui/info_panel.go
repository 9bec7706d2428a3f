// Right panel: measurement table, clinical report and vessel-map diagnostics
package gui

import (
	"fmt"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"retinal-vessel-caliber/internal/core"
)

const (
	emptyMetrics = "Measurements will appear here after analysis."
	emptyReport  = "The clinical report will appear here after analysis."
)

// InfoPanel shows the outcome of one analysis
type InfoPanel struct {
	container *fyne.Container

	metricsText     *widget.RichText
	reportText      *widget.RichText
	diagnosticsText *widget.Label
	histogram       *canvas.Image
	histogramCard   *widget.Card
}

func NewInfoPanel() *InfoPanel {
	panel := &InfoPanel{}
	panel.initializeUI()
	return panel
}

func (ip *InfoPanel) initializeUI() {
	ip.metricsText = widget.NewRichTextFromMarkdown(emptyMetrics)
	ip.metricsText.Wrapping = fyne.TextWrapWord

	ip.reportText = widget.NewRichTextFromMarkdown(emptyReport)
	ip.reportText.Wrapping = fyne.TextWrapWord

	ip.diagnosticsText = widget.NewLabel("")
	ip.diagnosticsText.Wrapping = fyne.TextWrapWord

	ip.histogram = canvas.NewImageFromResource(nil)
	ip.histogram.FillMode = canvas.ImageFillContain
	ip.histogram.SetMinSize(fyne.NewSize(360, 240))
	ip.histogramCard = widget.NewCard("Width Samples", "", ip.histogram)
	ip.histogramCard.Hide()

	ip.container = container.NewVBox(
		widget.NewCard("Vessel Measurements", "", ip.metricsText),
		widget.NewCard("Clinical Report", "", ip.reportText),
		widget.NewCard("Vessel Map", "", ip.diagnosticsText),
		ip.histogramCard,
	)
}

func (ip *InfoPanel) GetContainer() fyne.CanvasObject {
	return ip.container
}

// Update replaces every section with the contents of analysis.
func (ip *InfoPanel) Update(analysis *core.Analysis) {
	ip.metricsText.ParseMarkdown(analysis.MetricsMarkdown())
	ip.reportText.ParseMarkdown(analysis.ReportMarkdown())
	ip.diagnosticsText.SetText(diagnosticsText(analysis.Result))
}

// SetHistogram shows an encoded histogram image. Nil or empty data hides it.
func (ip *InfoPanel) SetHistogram(png []byte) {
	if len(png) == 0 {
		ip.histogram.Resource = nil
		ip.histogramCard.Hide()
		return
	}
	ip.histogram.Resource = fyne.NewStaticResource("width-histogram.png", png)
	ip.histogram.Refresh()
	ip.histogramCard.Show()
}

func (ip *InfoPanel) Clear() {
	ip.metricsText.ParseMarkdown(emptyMetrics)
	ip.reportText.ParseMarkdown(emptyReport)
	ip.diagnosticsText.SetText("")
	ip.SetHistogram(nil)
}

func diagnosticsText(res *core.Result) string {
	if res == nil || res.Skeleton == nil {
		return "No image analyzed."
	}

	d := res.Diagnostics
	var b strings.Builder
	fmt.Fprintf(&b, "Vessel density: %.1f%%\n", d.VesselDensity*100)
	fmt.Fprintf(&b, "Skeleton length: %d px\n", d.SkeletonPixels)
	fmt.Fprintf(&b, "Endpoints: %d, junctions: %d\n", d.Endpoints, d.Junctions)
	fmt.Fprintf(&b, "Width samples: %d (narrow %d, wide %d)\n", res.SampleCount, res.NarrowCount, res.WideCount)
	if res.Measurable() {
		fmt.Fprintf(&b, "Raw widths: %.2f px / %.2f px\n", res.RawArteriolePx, res.RawVenulePx)
	} else {
		b.WriteString("No measurable vessels.\n")
	}
	fmt.Fprintf(&b, "Run %s in %s", shortID(res.RunID), res.Duration.Round(time.Millisecond))
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
