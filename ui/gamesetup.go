package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"chs/config"
	"chs/engine"
)

// Settings are the choices made before a game starts.
type Settings struct {
	Level     int
	PlayBlack bool
}

// GameSetupUI provides a form for configuring a new game.
type GameSetupUI struct {
	form     *tview.Form
	flex     *tview.Flex
	settings Settings
}

// NewGameSetup creates a new game setup form starting from defaults.
func NewGameSetup(defaults Settings, onStart func(Settings), onCancel func(), onColors func()) *GameSetupUI {
	setup := &GameSetupUI{settings: defaults}
	setup.settings.Level = engine.ClampLevel(defaults.Level)

	colors := []string{"White (play first)", "Black (play second)"}
	levels := levelOptions()

	colorIndex := 0
	if defaults.PlayBlack {
		colorIndex = 1
	}

	form := tview.NewForm()

	form.AddDropDown("Your Color", colors, colorIndex, func(option string, index int) {
		setup.settings.PlayBlack = index == 1
	})

	form.AddDropDown("Stockfish Level", levels, setup.settings.Level-engine.MinLevel, func(option string, index int) {
		setup.settings.Level = index + engine.MinLevel
	})

	form.AddButton("Start Game", func() {
		onStart(setup.settings)
	})

	form.AddButton("Board Colors", func() {
		if onColors != nil {
			onColors()
		}
	})

	form.AddButton("Quit", func() {
		onCancel()
	})

	form.SetBorder(true)
	form.SetTitle(" New Game ")
	form.SetTitleAlign(tview.AlignCenter)
	form.SetButtonBackgroundColor(tcell.ColorDarkCyan)
	form.SetButtonTextColor(tcell.ColorWhite)

	// Create help text
	helpText := tview.NewTextView().
		SetText("Tab/Shift+Tab: navigate fields  |  Arrow keys: change dropdown  |  Enter: confirm").
		SetTextAlign(tview.AlignCenter)
	helpText.SetTextColor(tcell.ColorGray)

	// Create flex layout with form and help text
	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(form, 0, 1, true).
		AddItem(helpText, 1, 0, false)

	setup.form = form
	setup.flex = flex
	return setup
}

// levelOptions labels the engine levels for the dropdown.
func levelOptions() []string {
	var levels []string
	for lvl := engine.MinLevel; lvl <= engine.MaxLevel; lvl++ {
		label := fmt.Sprintf("%d", lvl)
		switch lvl {
		case engine.MinLevel:
			label += " (easiest)"
		case engine.MaxLevel:
			label += " (hardest)"
		}
		levels = append(levels, label)
	}
	return levels
}

// Form returns the flex container with form and help text.
func (s *GameSetupUI) Form() *tview.Flex {
	return s.flex
}

// Settings returns the current choices.
func (s *GameSetupUI) Settings() Settings {
	return s.settings
}

// RunSetup shows the setup form and the board color screen. It returns the
// chosen settings, or false if the player quit instead of starting a game.
func RunSetup(defaults Settings, cfg *config.Config) (Settings, bool, error) {
	app := tview.NewApplication()
	pages := tview.NewPages()
	started := false

	setup := NewGameSetup(defaults, func(Settings) {
		started = true
		app.Stop()
	}, func() {
		app.Stop()
	}, func() {
		pages.SwitchToPage("colors")
	})

	colorConfig := NewColorConfig(cfg, func() {
		pages.SwitchToPage("setup")
	})
	colorConfig.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEsc || (event.Key() == tcell.KeyRune && event.Rune() == 'q') {
			pages.SwitchToPage("setup")
			return nil
		}
		if event.Key() == tcell.KeyTab {
			colorConfig.ToggleMode()
			return nil
		}
		return event
	})

	setupPage := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(CreateCenteredForm(setup.Form(), 60), 11, 0, true).
		AddItem(nil, 0, 1, false)
	setupPage.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEsc {
			app.Stop()
			return nil
		}
		return event
	})

	pages.AddPage("setup", setupPage, true, true)
	pages.AddPage("colors", colorConfig.Flex(), true, false)
	pages.SetBorder(true).SetTitle(" ♞ chs ")

	if err := app.SetRoot(pages, true).Run(); err != nil {
		return defaults, false, err
	}
	return setup.Settings(), started, nil
}
