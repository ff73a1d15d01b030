package ui

// UiEvent is something the user did to the tray. The set of variants is
// closed: TrayIconClick, ContextMenuClick and Heartbeat.
type UiEvent interface {
	isUiEvent()
}

// TrayIconClick is a click on the indicator itself.
type TrayIconClick struct{}

// ContextMenuClick is a click on a context menu entry.
type ContextMenuClick struct {
	ID string
}

// Heartbeat is emitted periodically while the loop runs, so the handler
// can do housekeeping on the UI thread.
type Heartbeat struct{}

func (TrayIconClick) isUiEvent()    {}
func (ContextMenuClick) isUiEvent() {}
func (Heartbeat) isUiEvent()        {}

// Menu entry ids understood by the daemon.
const (
	MenuToggle = "toggle"
	MenuQuit   = "quit"
)

// MenuItem is a context menu entry.
type MenuItem struct {
	ID      string
	Title   string
	Tooltip string
}

// DefaultMenu is the menu shown when Options.Menu is empty.
func DefaultMenu() []MenuItem {
	return []MenuItem{
		{ID: MenuToggle, Title: "Enable / Disable", Tooltip: "Toggle snippet expansion"},
		{ID: MenuQuit, Title: "Quit", Tooltip: "Quit snipd"},
	}
}
