package display

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// TextView renders the time into a tview text view
type TextView struct {
	app  *tview.Application
	view *tview.TextView
}

// NewTextView wraps view. When app is non-nil, updates are queued onto the
// application's event loop; otherwise the view is updated directly.
func NewTextView(app *tview.Application, view *tview.TextView) *TextView {
	return &TextView{app: app, view: view}
}

// SetText replaces the text shown in the view
func (t *TextView) SetText(text string) error {
	if t.app == nil {
		t.view.SetText(text)
		return nil
	}
	t.app.QueueUpdateDraw(func() {
		t.view.SetText(text)
	})
	return nil
}

// NewTimeScreen builds a minimal full-screen layout with a centered time view
// and a status line under it. Pressing q or Escape stops the application.
func NewTimeScreen(title string) (*tview.Application, *TextView, *TextView) {
	view := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(false).
		SetWrap(false)
	view.SetBorder(true).SetTitle(" " + title + " ")

	status := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetTextColor(tcell.ColorRed).
		SetWrap(false)

	footer := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetText("q to quit")

	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(view, 3, 0, false).
		AddItem(status, 1, 0, false).
		AddItem(footer, 1, 0, false).
		AddItem(nil, 0, 1, false)

	app := tview.NewApplication().SetRoot(root, true)
	app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if ev.Key() == tcell.KeyEscape || ev.Rune() == 'q' {
			app.Stop()
			return nil
		}
		return ev
	})

	return app, NewTextView(app, view), NewTextView(app, status)
}
