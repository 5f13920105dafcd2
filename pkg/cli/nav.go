package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// terminalNavigator stands in for view routing on the command line: being
// sent to the login view means telling the user to sign in again.
type terminalNavigator struct {
	mu       sync.Mutex
	out      io.Writer
	location string
}

func (n *terminalNavigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

func (n *terminalNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.location == path {
		return
	}
	n.location = path
	if strings.HasPrefix(path, "/login") {
		fmt.Fprintln(n.out, warnStyle.Render("Your session has ended. Run `steady login` to sign in again."))
	}
}
