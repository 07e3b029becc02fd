package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

var openers = map[string][]string{
	"darwin":  {"open"},
	"linux":   {"xdg-open"},
	"windows": {"cmd", "/c", "start"},
}

// OpenBrowser hands url to the platform's default opener (browser, or whatever handles JSON).
func OpenBrowser(url string) error {
	rt := getRuntime()
	opener, ok := openers[rt]
	if !ok {
		return fmt.Errorf("%w: cannot open a browser on %s", ErrServiceUnavailable, rt)
	}

	args := append(opener[1:len(opener):len(opener)], url)
	if err := exec.Command(opener[0], args...).Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
