package web

import (
	"os/exec"
	"runtime"

	"github.com/pterm/pterm"
)

// openBrowser tries to open the default browser with the given URL
func openBrowser(url string) {
	var err error

	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	}

	if err != nil {
		pterm.Debug.Printf("Could not open browser: %v\n", err)
	}
}
