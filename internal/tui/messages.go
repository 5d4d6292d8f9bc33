package tui

// OutputMsg carries one resolved definition path.
type OutputMsg struct {
	Line string
}

// StatusMsg updates the status bar text
type StatusMsg struct {
	Text string
}

// DoneMsg signals that the operation has completed
type DoneMsg struct {
	Message string
	Error   error
}

// CloseMsg hides the panel without a final status.
type CloseMsg struct{}

type abortMsg struct{}
