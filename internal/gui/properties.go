// Read-only view of the fixed pipeline parameters
package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"retinal-vessel-caliber/internal/algorithms"
	"retinal-vessel-caliber/internal/core"
)

// PropertiesPanel lists every stage with its parameters
type PropertiesPanel struct {
	vbox *fyne.Container
}

func NewPropertiesPanel(pipeline *core.Pipeline) *PropertiesPanel {
	panel := &PropertiesPanel{}
	panel.initializeUI(pipeline)
	return panel
}

func (pp *PropertiesPanel) initializeUI(pipeline *core.Pipeline) {
	pp.vbox = container.NewVBox(
		widget.NewCard("Normalization", "",
			widget.NewLabel(fmt.Sprintf("Resize to %d px wide, aspect preserved", pipeline.TargetWidth()))),
	)

	for _, stage := range pipeline.Stages() {
		pp.vbox.Add(stageCard(stage))
	}

	params := pipeline.CalibrationParams()
	pp.vbox.Add(widget.NewCard("Width Estimator", "", container.NewVBox(
		parameterRow(algorithms.ParameterInfo{Name: "min_width_px", Value: params.MinWidthPx,
			Description: "Samples at or below this width are discarded"}),
		parameterRow(algorithms.ParameterInfo{Name: "narrow_percent", Value: params.NarrowPercent,
			Description: "Narrowest share of samples treated as arterioles"}),
		parameterRow(algorithms.ParameterInfo{Name: "wide_percent", Value: params.WidePercent,
			Description: "Widest share of samples treated as venules"}),
		parameterRow(algorithms.ParameterInfo{Name: "calibration_factor", Value: params.CalibrationFactor,
			Description: "Micrometers per pixel at the analysis width"}),
	)))
}

func stageCard(stage algorithms.Stage) *widget.Card {
	rows := container.NewVBox()
	params := stage.GetParameterInfo()
	if len(params) == 0 {
		rows.Add(widget.NewLabel("No parameters"))
	}
	for _, p := range params {
		rows.Add(parameterRow(p))
	}
	return widget.NewCard(stage.GetName(), stage.GetDescription(), rows)
}

func parameterRow(p algorithms.ParameterInfo) fyne.CanvasObject {
	value := widget.NewLabelWithStyle(fmt.Sprint(p.Value), fyne.TextAlignTrailing, fyne.TextStyle{Monospace: true})
	name := widget.NewLabel(p.Name)
	row := container.NewBorder(nil, nil, name, value)
	if p.Description == "" {
		return row
	}
	hint := widget.NewLabelWithStyle(p.Description, fyne.TextAlignLeading, fyne.TextStyle{Italic: true})
	hint.Wrapping = fyne.TextWrapWord
	return container.NewVBox(row, hint)
}

func (pp *PropertiesPanel) GetContainer() fyne.CanvasObject {
	return pp.vbox
}
