package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"chs/config"
)

// ColorConfigUI provides a square colour configuration screen with live preview.
type ColorConfigUI struct {
	flex      *tview.Flex
	colorList *tview.List
	preview   *tview.Box
	cfg       *config.Config
	onDone    func()

	// Current selection
	selectedLight int
	selectedDark  int
	editingDark   bool // true = editing dark squares, false = editing light squares
}

type namedColor struct {
	code int
	name string
}

// Light square colors to choose from
var lightColors = []namedColor{
	{230, "Light Cream"},
	{229, "Pale Yellow"},
	{223, "Peach"},
	{222, "Gold"},
	{215, "Sand"},
	{188, "Light Beige"},
	{252, "Light Gray"},
	{250, "Gray"},
	{194, "Mint"},
	{153, "Sky"},
}

// Dark square colors (contrast with the light ones)
var darkColors = []namedColor{
	{172, "Brown"},
	{136, "Dark Brown"},
	{94, "Saddle Brown"},
	{130, "Dark Orange"},
	{65, "Moss"},
	{22, "Dark Green"},
	{24, "Dark Cyan"},
	{60, "Slate"},
	{244, "Medium Gray"},
	{240, "Gray"},
}

// previewPieces is the corner of the board drawn in the preview.
var previewPieces = [4][4]string{
	{"r", "n", "b", "q"},
	{"p", "p", "p", "p"},
	{"", "", "", ""},
	{"P", "P", "", "P"},
}

// NewColorConfig creates a new color configuration screen.
func NewColorConfig(cfg *config.Config, onDone func()) *ColorConfigUI {
	cc := &ColorConfigUI{
		cfg:           cfg,
		onDone:        onDone,
		selectedLight: cfg.Theme.Colors.LightSquare,
		selectedDark:  cfg.Theme.Colors.DarkSquare,
	}

	cc.colorList = tview.NewList()
	cc.colorList.SetBorder(true)
	cc.colorList.ShowSecondaryText(false)
	cc.populateColorList()

	// Handle selection change (preview)
	cc.colorList.SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		if code, ok := cc.colorAt(index); ok {
			if cc.editingDark {
				cc.selectedDark = code
			} else {
				cc.selectedLight = code
			}
		}
	})

	// Handle selection confirm (apply)
	cc.colorList.SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		cc.Apply(index)
	})

	cc.preview = tview.NewBox()
	cc.preview.SetBorder(true)
	cc.preview.SetTitle(" Board Preview ")
	cc.preview.SetDrawFunc(cc.drawPreview)

	// Layout: list on left, preview on right
	cc.flex = tview.NewFlex().
		AddItem(cc.colorList, 30, 0, true).
		AddItem(cc.preview, 0, 1, false)

	return cc
}

func (cc *ColorConfigUI) colors() []namedColor {
	if cc.editingDark {
		return darkColors
	}
	return lightColors
}

func (cc *ColorConfigUI) colorAt(index int) (int, bool) {
	colors := cc.colors()
	if index < 0 || index >= len(colors) {
		return 0, false
	}
	return colors[index].code, true
}

// Apply stores the color at index. Choosing a light square color moves on
// to the dark squares; choosing a dark one saves the theme and finishes.
func (cc *ColorConfigUI) Apply(index int) {
	code, ok := cc.colorAt(index)
	if !ok {
		return
	}
	if !cc.editingDark {
		cc.selectedLight = code
		cc.cfg.Theme.Colors.LightSquare = code
		cc.editingDark = true
		cc.populateColorList()
		return
	}
	cc.selectedDark = code
	cc.cfg.Theme.Colors.DarkSquare = code
	cc.cfg.Save()
	cc.editingDark = false
	cc.populateColorList()
	if cc.onDone != nil {
		cc.onDone()
	}
}

// populateColorList fills the list with appropriate colors based on editing mode.
func (cc *ColorConfigUI) populateColorList() {
	cc.colorList.Clear()

	current := cc.selectedLight
	cc.colorList.SetTitle(" Light Squares (Tab: dark) ")
	if cc.editingDark {
		current = cc.selectedDark
		cc.colorList.SetTitle(" Dark Squares (Tab: light) ")
	}

	for i, c := range cc.colors() {
		cc.colorList.AddItem(fmt.Sprintf("[#%06x]████[-] %s (%d)",
			tcell.PaletteColor(c.code).Hex(), c.name, c.code),
			"", rune('a'+i), nil)
		if c.code == current {
			cc.colorList.SetCurrentItem(i)
		}
	}
}

func (cc *ColorConfigUI) drawPreview(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
	if width < 20 || height < 8 {
		return x, y, width, height
	}
	colors := cc.cfg.Theme.Colors
	startX := x + 2
	startY := y + 1

	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			bg := cc.selectedLight
			if (row+col)%2 == 1 {
				bg = cc.selectedDark
			}
			piece := previewPieces[row][col]
			fg := colors.BlackPiece
			if isWhitePiece(piece) {
				fg = colors.WhitePiece
			}
			style := tcell.StyleDefault.Background(tcell.PaletteColor(bg)).Foreground(tcell.PaletteColor(fg))
			left := startX + col*cellWidth
			screen.SetContent(left, startY+row, ' ', nil, style)
			screen.SetContent(left+1, startY+row, pieceRune(piece, cc.cfg.Theme.UnicodePieces), nil, style)
			screen.SetContent(left+2, startY+row, ' ', nil, style)
		}
	}

	info := fmt.Sprintf("Light: %d  Dark: %d", cc.selectedLight, cc.selectedDark)
	for i, ch := range info {
		if startX+i < x+width-1 {
			screen.SetContent(startX+i, startY+5, ch, nil, tcell.StyleDefault)
		}
	}

	return x, y, width, height
}

// Flex returns the flex container for this UI.
func (cc *ColorConfigUI) Flex() *tview.Flex {
	return cc.flex
}

// SetInputCapture sets the input capture for the color list.
func (cc *ColorConfigUI) SetInputCapture(capture func(event *tcell.EventKey) *tcell.EventKey) {
	cc.colorList.SetInputCapture(capture)
}

// ToggleMode switches between light and dark square editing.
func (cc *ColorConfigUI) ToggleMode() {
	cc.editingDark = !cc.editingDark
	cc.populateColorList()
}
