// Menu handler for application actions
package gui

import (
	"fmt"
	stdio "io"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"retinal-vessel-caliber/internal/io"
)

// MenuHandler handles menu actions
type MenuHandler struct {
	window fyne.Window
	logger logrus.FieldLogger

	mainMenu *fyne.MainMenu
	saveItem *fyne.MenuItem

	onOpen         func(name string, data []byte)
	onSaveSkeleton func(string)
}

func NewMenuHandler(window fyne.Window, logger logrus.FieldLogger) *MenuHandler {
	mh := &MenuHandler{
		window: window,
		logger: logger,
	}
	mh.saveItem = fyne.NewMenuItem("Save Skeleton...", mh.saveSkeleton)
	mh.saveItem.Disabled = true
	return mh
}

func (mh *MenuHandler) GetMainMenu() *fyne.MainMenu {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", mh.openImage),
		mh.saveItem,
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mh.showAbout),
	)

	mh.mainMenu = fyne.NewMainMenu(fileMenu, helpMenu)
	return mh.mainMenu
}

// SetSkeletonAvailable toggles the save entry once an analysis produced a skeleton.
func (mh *MenuHandler) SetSkeletonAvailable(ok bool) {
	if mh.saveItem.Disabled == !ok {
		return
	}
	mh.saveItem.Disabled = !ok
	if mh.mainMenu != nil {
		mh.mainMenu.Refresh()
	}
}

func (mh *MenuHandler) openImage() {
	mh.logger.Debug("GUI: Opening file dialog for image selection")

	fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			mh.showError("File Dialog Error", err)
			return
		}
		if reader == nil {
			return
		}
		name := reader.URI().Name()
		mh.logger.WithField("filename", name).Info("GUI: Loading selected image")

		// Reading and decoding can take a while on large fundus photographs
		go func() {
			defer reader.Close()
			data, err := stdio.ReadAll(reader)
			if err != nil {
				fyne.Do(func() {
					mh.showError("Failed to Read Image", err)
				})
				return
			}
			if mh.onOpen != nil {
				mh.onOpen(name, data)
			}
		}()
	}, mh.window)

	fileDialog.SetFilter(storage.NewExtensionFileFilter(io.SupportedExtensions()))
	fileDialog.Show()
}

func (mh *MenuHandler) saveSkeleton() {
	fileDialog := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			mh.showError("File Dialog Error", err)
			return
		}
		if writer == nil {
			return
		}
		path := writer.URI().Path()
		// The loader writes through OpenCV, not through the fyne writer
		writer.Close()

		if mh.onSaveSkeleton != nil {
			mh.onSaveSkeleton(path)
		}
	}, mh.window)

	fileDialog.SetFileName("skeleton.png")
	fileDialog.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".tif", ".tiff", ".bmp"}))
	fileDialog.Show()
}

func (mh *MenuHandler) showAbout() {
	content := container.NewVBox(
		widget.NewLabel("Retinal Vessel Caliber"),
		widget.NewSeparator(),
		widget.NewLabel("Estimates central retinal arteriolar (CRAE) and"),
		widget.NewLabel("venular (CRVE) equivalents from a fundus photograph."),
		widget.NewSeparator(),
		widget.NewLabel("Research use only. Not a diagnostic device."),
	)

	aboutDialog := dialog.NewCustom("About", "Close", content, mh.window)
	aboutDialog.Resize(fyne.NewSize(400, 240))
	aboutDialog.Show()
}

func (mh *MenuHandler) showError(title string, err error) {
	mh.logger.WithError(err).Error("GUI: " + title)
	dialog.ShowError(fmt.Errorf("%s: %w", title, err), mh.window)
}

func (mh *MenuHandler) SetCallbacks(onOpen func(name string, data []byte), onSaveSkeleton func(string)) {
	mh.onOpen = onOpen
	mh.onSaveSkeleton = onSaveSkeleton
}
