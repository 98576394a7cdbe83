package fyne

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/wavesync/internal/adapter/ui/fyne/widgets"
	"github.com/tejashwikalptaru/wavesync/internal/domain"
	"github.com/tejashwikalptaru/wavesync/internal/ports"
)

// AppName is the window title.
const AppName = "WaveSync"

// MainWindow is the main UI window implementing ports.WaveformView.
//
// The MainWindow follows the MVP pattern:
// - It's a "dumb view" that just displays data
// - All business logic is in the Presenter
// - User interactions are forwarded to the Presenter
//
// View methods may be called from any goroutine; they marshal onto the
// Fyne thread with fyne.Do.
type MainWindow struct {
	app    fyneapp.App
	window fyneapp.Window
	logger *slog.Logger

	// UI components
	urlEntry       *widget.Entry
	loadButton     *widget.Button
	backButton     *widget.Button
	playButton     *widget.Button
	stopButton     *widget.Button
	forwardButton  *widget.Button
	muteButton     *widget.Button
	modeSelect     *widget.Select
	title          *widget.Label
	status         *widget.Label
	currentTime    *widget.Label
	endTime        *widget.Label
	progressSlider *widget.Slider
	volumeSlider   *widget.Slider
	waveform       *widgets.Waveform

	// State
	syncing      bool // set while the presenter drives a widget
	recentWindow *RecentWindow

	// Lifecycle management
	closeOnce     sync.Once
	onBeforeClose func()

	// Presenter (set after construction)
	presenter *Presenter
}

// NewMainWindow creates a new main window with a waveform of width x height pixels.
func NewMainWindow(app fyneapp.App, logger *slog.Logger, width, height int) *MainWindow {
	w := &MainWindow{
		app:    app,
		logger: logger,
	}

	w.window = app.NewWindow(AppName)
	w.waveform = widgets.NewWaveform(width, height)
	w.buildUI()

	w.window.Resize(fyneapp.NewSize(float32(width), float32(height)+140))
	w.window.SetCloseIntercept(func() {
		if w.onBeforeClose != nil {
			w.onBeforeClose()
		}
		w.Close()
	})

	return w
}

// SetPresenter connects the presenter to this view.
// This must be called before showing the window.
func (w *MainWindow) SetPresenter(presenter *Presenter) {
	w.presenter = presenter
	w.wirePresenterHandlers()
	w.addShortcuts()
}

// SetOnBeforeClose registers a callback that runs before the window closes.
func (w *MainWindow) SetOnBeforeClose(fn func()) {
	w.onBeforeClose = fn
}

// buildUI constructs the UI components.
func (w *MainWindow) buildUI() {
	// Source row
	w.urlEntry = widget.NewEntry()
	w.urlEntry.SetPlaceHolder("https://... or /path/to/audio.wav")
	w.loadButton = widget.NewButtonWithIcon("Load", theme.DownloadIcon(), nil)
	sourceRow := container.NewBorder(nil, nil, nil, w.loadButton, w.urlEntry)

	// Control buttons
	w.backButton = widget.NewButtonWithIcon("", theme.MediaFastRewindIcon(), nil)
	w.playButton = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), nil)
	w.stopButton = widget.NewButtonWithIcon("", theme.MediaStopIcon(), nil)
	w.forwardButton = widget.NewButtonWithIcon("", theme.MediaFastForwardIcon(), nil)
	w.muteButton = widget.NewButtonWithIcon("", theme.VolumeUpIcon(), nil)

	options := make([]string, 0, len(domain.VisualizationModes()))
	for _, mode := range domain.VisualizationModes() {
		options = append(options, mode.Title())
	}
	w.modeSelect = widget.NewSelect(options, nil)

	w.title = widget.NewLabel("No asset loaded")
	w.title.Truncation = fyneapp.TextTruncateEllipsis
	w.title.TextStyle = fyneapp.TextStyle{Bold: true}
	w.status = widget.NewLabel(domain.StateIdle.String())

	// Volume slider
	w.volumeSlider = widget.NewSlider(0, 100)
	w.volumeSlider.Value = 100
	volumeHolder := container.NewBorder(nil, nil, w.muteButton, nil, w.volumeSlider)

	buttons := container.NewHBox(
		w.backButton, w.playButton, w.stopButton, w.forwardButton, w.modeSelect,
	)
	buttonsHolder := container.NewBorder(nil, nil, buttons, container.NewGridWrap(fyneapp.NewSize(160, 36), volumeHolder), w.title)

	// Progress slider
	w.progressSlider = widget.NewSlider(0, 1)
	w.progressSlider.Step = 0.001
	w.currentTime = widget.NewLabel(domain.FormatTime(0))
	w.endTime = widget.NewLabel("-:--")
	sliderHolder := container.NewBorder(nil, nil, w.currentTime, w.endTime, w.progressSlider)

	controls := container.NewVBox(sliderHolder, buttonsHolder, w.status)
	w.window.SetContent(container.NewPadded(container.NewBorder(sourceRow, controls, nil, nil, w.waveform)))
	w.window.SetMainMenu(fyneapp.NewMainMenu(w.createMenu()...))
}

// wirePresenterHandlers connects UI events to presenter handlers.
func (w *MainWindow) wirePresenterHandlers() {
	if w.presenter == nil {
		return
	}

	load := func() { w.presenter.OnLoadRequested(w.urlEntry.Text) }
	w.loadButton.OnTapped = load
	w.urlEntry.OnSubmitted = func(string) { load() }

	w.playButton.OnTapped = w.presenter.OnPlayClicked
	w.stopButton.OnTapped = w.presenter.OnStopClicked
	w.backButton.OnTapped = w.presenter.OnSkipBackClicked
	w.forwardButton.OnTapped = w.presenter.OnSkipForwardClicked
	w.muteButton.OnTapped = w.presenter.OnMuteClicked

	w.volumeSlider.OnChanged = func(value float64) {
		if w.syncing {
			return
		}
		w.presenter.OnVolumeChanged(value / 100)
	}

	w.progressSlider.OnChangeEnded = func(value float64) {
		if w.syncing {
			return
		}
		w.presenter.OnSeekRequested(value)
	}

	w.modeSelect.OnChanged = func(title string) {
		if w.syncing {
			return
		}
		for _, mode := range domain.VisualizationModes() {
			if mode.Title() == title {
				w.presenter.OnModeSelected(mode)
				return
			}
		}
	}

	w.waveform.SetOnSeek(w.presenter.OnSeekRequested)
	w.waveform.SetOnSecondaryTap(w.showModeMenu)
}

// showModeMenu pops up the visualization modes at the tapped position.
func (w *MainWindow) showModeMenu(pe *fyneapp.PointEvent) {
	items := make([]*fyneapp.MenuItem, 0, len(domain.VisualizationModes()))
	current := w.modeSelect.Selected
	for _, mode := range domain.VisualizationModes() {
		item := fyneapp.NewMenuItem(mode.Title(), func() { w.presenter.OnModeSelected(mode) })
		item.Checked = mode.Title() == current
		items = append(items, item)
	}
	widget.ShowPopUpMenuAtPosition(fyneapp.NewMenu("Mode", items...), w.window.Canvas(), pe.AbsolutePosition)
}

// createMenu creates the application menu.
func (w *MainWindow) createMenu() []*fyneapp.Menu {
	separator := fyneapp.NewMenuItemSeparator()

	openFile := fyneapp.NewMenuItem("Open File", w.handleOpenFile)
	openURL := fyneapp.NewMenuItem("Open URL", w.handleOpenURL)
	recent := fyneapp.NewMenuItem("Recent", w.ShowRecentWindow)
	reset := fyneapp.NewMenuItem("Reset Preferences", func() {
		if w.presenter != nil {
			w.presenter.OnResetPreferences()
		}
	})
	exitMenu := fyneapp.NewMenuItem("Exit", w.Close)

	fileMenu := fyneapp.NewMenu("File", openFile, openURL, separator, recent, reset, separator, exitMenu)
	return []*fyneapp.Menu{fileMenu}
}

// handleOpenFile handles the "Open File" menu action.
func (w *MainWindow) handleOpenFile() {
	if w.presenter == nil {
		return
	}
	NewFileDialog(w.window, func(path string) {
		w.urlEntry.SetText(path)
		w.presenter.OnLoadRequested(path)
	}, w.logger).Show()
}

// handleOpenURL handles the "Open URL" menu action.
func (w *MainWindow) handleOpenURL() {
	if w.presenter == nil {
		return
	}
	NewURLDialog(w.window, w.urlEntry.Text, func(url string) {
		w.urlEntry.SetText(url)
		w.presenter.OnLoadRequested(url)
	}).Show()
}

// addShortcuts adds keyboard shortcuts.
func (w *MainWindow) addShortcuts() {
	c := w.window.Canvas()
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyneapp.KeySpace, Modifier: fyneapp.KeyModifierAlt}, func(fyneapp.Shortcut) {
		w.presenter.OnPlayClicked()
	})
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyneapp.KeyLeft, Modifier: fyneapp.KeyModifierAlt}, func(fyneapp.Shortcut) {
		w.presenter.OnSkipBackClicked()
	})
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyneapp.KeyRight, Modifier: fyneapp.KeyModifierAlt}, func(fyneapp.Shortcut) {
		w.presenter.OnSkipForwardClicked()
	})
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyneapp.KeyUp, Modifier: fyneapp.KeyModifierAlt}, func(fyneapp.Shortcut) {
		w.volumeSlider.SetValue(min(w.volumeSlider.Value+5, 100))
	})
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyneapp.KeyDown, Modifier: fyneapp.KeyModifierAlt}, func(fyneapp.Shortcut) {
		w.volumeSlider.SetValue(max(w.volumeSlider.Value-5, 0))
	})
}

// ShowRecentWindow opens the recent assets window, or focuses it if open.
func (w *MainWindow) ShowRecentWindow() {
	if w.presenter == nil {
		return
	}
	if w.recentWindow != nil && w.recentWindow.IsVisible() {
		w.recentWindow.window.RequestFocus()
		return
	}
	w.recentWindow = NewRecentWindow(w.app, w.presenter)
	w.recentWindow.SetOnWindowClosed(func() { w.recentWindow = nil })
	w.recentWindow.Show()
}

// ShowAndRun shows the window and runs the application.
func (w *MainWindow) ShowAndRun() {
	w.window.ShowAndRun()
}

// Close closes the window.
// It's safe to call multiple times (idempotent).
func (w *MainWindow) Close() {
	w.closeOnce.Do(func() {
		if w.recentWindow != nil {
			w.recentWindow.Close()
		}
		w.window.Close()
	})
}

// GetWindow returns the underlying Fyne window.
func (w *MainWindow) GetWindow() fyneapp.Window {
	return w.window
}

// Waveform returns the waveform widget.
func (w *MainWindow) Waveform() *widgets.Waveform {
	return w.waveform
}

// ports.WaveformView implementation

// SetTitle updates the displayed asset name.
func (w *MainWindow) SetTitle(title string) {
	fyneapp.Do(func() {
		if title == "" {
			title = "No asset loaded"
		}
		w.title.SetText(title)
		w.window.SetTitle(fmt.Sprintf("%s - %s", AppName, title))
	})
}

// SetPlayState updates the play/pause button state.
func (w *MainWindow) SetPlayState(playing bool) {
	fyneapp.Do(func() {
		if playing {
			w.playButton.SetIcon(theme.MediaPauseIcon())
		} else {
			w.playButton.SetIcon(theme.MediaPlayIcon())
		}
	})
}

// SetTime updates the position label and the progress slider.
func (w *MainWindow) SetTime(current, duration time.Duration) {
	fyneapp.Do(func() {
		w.currentTime.SetText(domain.FormatTime(current))
		if duration <= 0 {
			return
		}
		w.syncing = true
		w.progressSlider.SetValue(float64(current) / float64(duration))
		w.syncing = false
	})
}

// SetDuration updates the total time label.
func (w *MainWindow) SetDuration(duration time.Duration) {
	fyneapp.Do(func() {
		if duration == domain.UnknownDuration {
			w.endTime.SetText("-:--")
			w.currentTime.SetText(domain.FormatTime(0))
			w.syncing = true
			w.progressSlider.SetValue(0)
			w.syncing = false
			return
		}
		w.endTime.SetText(domain.FormatTime(duration))
	})
}

// SetVolume updates the volume slider.
func (w *MainWindow) SetVolume(volume float64) {
	fyneapp.Do(func() {
		w.syncing = true
		w.volumeSlider.SetValue(volume * 100)
		w.syncing = false
	})
}

// SetMuteState updates the mute button state.
func (w *MainWindow) SetMuteState(muted bool) {
	fyneapp.Do(func() {
		if muted {
			w.muteButton.SetIcon(theme.VolumeMuteIcon())
		} else {
			w.muteButton.SetIcon(theme.VolumeUpIcon())
		}
	})
}

// SetMode updates the mode selector.
func (w *MainWindow) SetMode(mode domain.VisualizationMode) {
	fyneapp.Do(func() {
		w.syncing = true
		w.modeSelect.SetSelected(mode.Title())
		w.syncing = false
	})
}

// SetStatus shows the scheduler state.
func (w *MainWindow) SetStatus(state domain.SchedulerState) {
	fyneapp.Do(func() {
		w.status.SetText(state.String())
		w.progressSlider.Disable()
		if state != domain.StateIdle && state != domain.StateLoading {
			w.progressSlider.Enable()
		}
	})
}

// ShowError displays a failure. Retryable failures offer to load the asset again.
func (w *MainWindow) ShowError(reason domain.ErrorReason, message string, retryable bool) {
	fyneapp.Do(func() {
		title := string(reason)
		if !retryable || w.presenter == nil {
			dialog.ShowInformation(title, message, w.window)
			return
		}
		dialog.ShowConfirm(title, message+"\n\nTry again?", func(retry bool) {
			if retry {
				w.presenter.OnRetry()
			}
		}, w.window)
	})
}

// Surface returns the waveform's render target.
func (w *MainWindow) Surface() ports.RenderSurface {
	return w.waveform.Surface()
}

var _ ports.WaveformView = (*MainWindow)(nil)
