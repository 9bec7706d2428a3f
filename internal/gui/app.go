// Main application window: open a fundus image, analyze it, show the results
package gui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"retinal-vessel-caliber/internal/core"
	"retinal-vessel-caliber/internal/io"
	"retinal-vessel-caliber/internal/visualization"
)

// Application represents the main window and its analysis state
type Application struct {
	app    fyne.App
	window fyne.Window
	logger logrus.FieldLogger

	// Core components
	analyzer *core.Analyzer
	loader   *io.ImageLoader

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	image     *core.RawImage
	imageName string
	analysis  *core.Analysis
	running   bool

	// GUI components
	centerPanel *CenterPanel
	infoPanel   *InfoPanel
	properties  *PropertiesPanel
	menuHandler *MenuHandler

	analyzeButton *widget.Button
	progress      *widget.ProgressBarInfinite
	statusCard    *widget.Card
}

func NewApplication(app fyne.App, analyzer *core.Analyzer, loader *io.ImageLoader, logger logrus.FieldLogger) *Application {
	window := app.NewWindow("Retinal Vessel Caliber")
	window.Resize(fyne.NewSize(1400, 900))
	window.CenterOnScreen()

	ctx, cancel := context.WithCancel(context.Background())

	a := &Application{
		app:      app,
		window:   window,
		logger:   logger,
		analyzer: analyzer,
		loader:   loader,
		ctx:      ctx,
		cancel:   cancel,
	}

	a.initializeGUI()
	a.setupLayout()
	a.setupCallbacks()

	return a
}

func (a *Application) initializeGUI() {
	a.centerPanel = NewCenterPanel()
	a.infoPanel = NewInfoPanel()
	a.properties = NewPropertiesPanel(a.analyzer.Pipeline())
	a.menuHandler = NewMenuHandler(a.window, a.logger)

	a.analyzeButton = widget.NewButton("Analyze", a.Analyze)
	a.analyzeButton.Importance = widget.HighImportance
	a.analyzeButton.Disable()

	a.progress = widget.NewProgressBarInfinite()
	a.progress.Stop()
	a.progress.Hide()

	a.statusCard = widget.NewCard("Status", "", widget.NewLabel("Open a fundus image to begin"))
}

func (a *Application) setupLayout() {
	toolbar := container.NewHBox(
		widget.NewButton("Open Image...", a.menuHandler.openImage),
		a.analyzeButton,
		a.progress,
	)

	center := container.NewBorder(toolbar, nil, nil, nil, container.NewPadded(a.centerPanel.GetContainer()))

	left := container.NewVSplit(
		a.statusCard,
		container.NewScroll(a.properties.GetContainer()),
	)
	left.SetOffset(0.2)

	right := container.NewScroll(a.infoPanel.GetContainer())

	centerAndRight := container.NewHSplit(center, right)
	centerAndRight.SetOffset(0.65)

	content := container.NewHSplit(left, centerAndRight)
	content.SetOffset(0.2)

	a.window.SetMainMenu(a.menuHandler.GetMainMenu())
	a.window.SetContent(content)
}

func (a *Application) setupCallbacks() {
	a.menuHandler.SetCallbacks(
		// onOpen
		func(name string, data []byte) {
			if err := a.LoadImage(name, data); err != nil {
				fyne.Do(func() {
					a.showError("Failed to Load Image", err)
				})
			}
		},
		// onSaveSkeleton
		func(path string) {
			if err := a.SaveSkeleton(path); err != nil {
				a.showError("Failed to Save Skeleton", err)
				return
			}
			a.updateStatusMessage(fmt.Sprintf("Saved skeleton: %s", filepath.Base(path)))
		},
	)
}

// LoadImage decodes an encoded image and resets any previous analysis.
func (a *Application) LoadImage(name string, data []byte) error {
	img, err := a.loader.DecodeRawImage(data)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}

	display, err := displayImage(img)
	if err != nil {
		return fmt.Errorf("failed to display image: %w", err)
	}

	a.mu.Lock()
	a.image = img
	a.imageName = name
	a.analysis = nil
	running := a.running
	a.mu.Unlock()

	fyne.Do(func() {
		a.centerPanel.SetOriginal(display)
		a.centerPanel.ClearSkeleton()
		a.infoPanel.Clear()
		a.menuHandler.SetSkeletonAvailable(false)
		if !running {
			a.analyzeButton.Enable()
		}
		a.updateStatusMessage(fmt.Sprintf("Loaded: %s (%dx%d, %d channels)",
			name, img.Width, img.Height, img.Channels))
	})

	a.logger.WithField("filename", name).Info("GUI: Image loaded")
	return nil
}

// Analyze runs the pipeline and report request off the UI goroutine.
func (a *Application) Analyze() {
	a.mu.Lock()
	if a.running || a.image == nil {
		a.mu.Unlock()
		return
	}
	a.running = true
	img, name := a.image, a.imageName
	a.mu.Unlock()

	a.analyzeButton.Disable()
	a.progress.Show()
	a.progress.Start()
	a.updateStatusMessage(fmt.Sprintf("Analyzing %s...", name))

	go func() {
		analysis, err := a.analyzer.Analyze(a.ctx, img)
		var histogram []byte
		if err == nil {
			histogram = a.renderHistogram(analysis)
		}
		a.finishAnalysis(img, analysis, histogram, err)
	}()
}

// finishAnalysis publishes the outcome of an analysis of img. Outcomes for an
// image that has since been replaced are dropped, errors included.
func (a *Application) finishAnalysis(img *core.RawImage, analysis *core.Analysis, histogram []byte, err error) {
	a.mu.Lock()
	a.running = false
	stale := a.image != img
	if err == nil && !stale {
		a.analysis = analysis
	}
	a.mu.Unlock()

	if stale {
		a.logger.WithError(err).Debug("GUI: Dropping result for a replaced image")
	}

	fyne.Do(func() {
		a.progress.Stop()
		a.progress.Hide()
		a.analyzeButton.Enable()

		if stale {
			return
		}
		if err != nil {
			a.showError("Analysis Failed", err)
			return
		}
		a.showAnalysis(analysis)
		a.infoPanel.SetHistogram(histogram)
	})
}

// renderHistogram encodes the width-sample histogram as PNG. It returns nil
// when there is nothing to plot.
func (a *Application) renderHistogram(analysis *core.Analysis) []byte {
	params := a.analyzer.Pipeline().CalibrationParams()
	var buf bytes.Buffer
	err := visualization.WriteWidthHistogram(&buf, "png", analysis.Samples, params.NarrowPercent, params.WidePercent)
	switch {
	case errors.Is(err, visualization.ErrNoSamples):
		return nil
	case err != nil:
		a.logger.WithError(err).Warn("GUI: Failed to render histogram")
		return nil
	}
	return buf.Bytes()
}

func (a *Application) showAnalysis(analysis *core.Analysis) {
	if analysis.Skeleton != nil {
		a.centerPanel.SetSkeleton(analysis.Skeleton.ToImage())
	}
	a.infoPanel.Update(analysis)
	a.menuHandler.SetSkeletonAvailable(analysis.Skeleton != nil)
	a.updateStatusMessage(fmt.Sprintf("CRAE %.2f µm, CRVE %.2f µm (report: %s)",
		analysis.ArterioleWidth, analysis.VenuleWidth, analysis.Report.Status))
}

// SaveSkeleton writes the last analysis skeleton to path.
func (a *Application) SaveSkeleton(path string) error {
	a.mu.Lock()
	analysis := a.analysis
	a.mu.Unlock()

	if analysis == nil || analysis.Skeleton == nil {
		return fmt.Errorf("no skeleton to save, run an analysis first")
	}
	return a.loader.SaveMask(analysis.Skeleton, path)
}

func (a *Application) updateStatusMessage(message string) {
	if a.statusCard != nil {
		a.statusCard.SetContent(widget.NewLabel(message))
	}
}

func (a *Application) ShowAndRun() {
	a.logger.Info("GUI: Showing main window")

	a.window.SetCloseIntercept(func() {
		a.cleanup()
		a.app.Quit()
	})

	a.window.ShowAndRun()
}

func (a *Application) cleanup() {
	a.logger.Info("GUI: Cancelling outstanding requests")
	a.cancel()
	a.analyzer.Pipeline().Stats().Log(a.logger)
}

func (a *Application) showError(title string, err error) {
	a.logger.WithError(err).Error("GUI: " + title)
	dialog.ShowError(err, a.window)
	a.updateStatusMessage(fmt.Sprintf("Error: %s", err.Error()))
}
