package fyne

import (
	"errors"
	"log/slog"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

var errEmptyURL = errors.New("enter a URL")

// audioExtensions are the file types offered by the open dialog.
var audioExtensions = []string{".wav", ".wave", ".aif", ".aiff", ".mp3", ".ogg"}

// FileDialog is a helper for creating file open dialogs.
type FileDialog struct {
	window   fyne.Window
	callback func(string)
	logger   *slog.Logger
}

// NewFileDialog creates a new file dialog.
func NewFileDialog(window fyne.Window, callback func(string), logger *slog.Logger) *FileDialog {
	return &FileDialog{
		window:   window,
		callback: callback,
		logger:   logger,
	}
}

// Show displays the file dialog.
func (d *FileDialog) Show() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			d.logger.Error("file dialog error", slog.Any("error", err))
			return
		}
		if reader == nil {
			return // User cancelled
		}
		defer reader.Close()

		if d.callback != nil {
			d.callback(reader.URI().Path())
		}
	}, d.window)
	fd.SetFilter(storage.NewExtensionFileFilter(audioExtensions))
	fd.Show()
}

// URLDialog asks for a remote asset URL.
type URLDialog struct {
	window   fyne.Window
	initial  string
	callback func(string)
}

// NewURLDialog creates a new URL dialog pre-filled with initial.
func NewURLDialog(window fyne.Window, initial string, callback func(string)) *URLDialog {
	return &URLDialog{
		window:   window,
		initial:  initial,
		callback: callback,
	}
}

// Show displays the URL dialog.
func (d *URLDialog) Show() {
	entry := widget.NewEntry()
	entry.SetPlaceHolder("https://cdn.example.com/preview.mp3")
	entry.SetText(d.initial)
	entry.Validator = func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errEmptyURL
		}
		return nil
	}

	items := []*widget.FormItem{widget.NewFormItem("URL", entry)}
	dialog.ShowForm("Open URL", "Load", "Cancel", items, func(ok bool) {
		if !ok || d.callback == nil {
			return
		}
		d.callback(strings.TrimSpace(entry.Text))
	}, d.window)
}
