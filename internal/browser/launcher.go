// Package browser opens URLs with the platform's default handler.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"

	"github.com/pders01/ytsweep/internal/config"
	"github.com/pders01/ytsweep/internal/debuglog"
)

const watchBase = "https://www.youtube.com/watch"

type Launcher struct {
	opener string
	// start launches the prepared command; replaced in tests.
	start func(*exec.Cmd) error
}

func NewLauncher(cfg config.BrowserConfig) *Launcher {
	opener := cfg.Opener
	if opener == "" {
		opener = platformOpener()
	}
	return &Launcher{opener: opener, start: startDetached}
}

func platformOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "windows":
		return "start"
	default:
		return findCommand("xdg-open", "sensible-browser", "x-www-browser", "open")
	}
}

// Open hands rawURL to the configured opener without waiting for it to exit.
// Only http and https URLs are accepted.
func (l *Launcher) Open(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("refusing to open %q: not an http(s) URL", rawURL)
	}
	if l.opener == "" {
		return fmt.Errorf("no application found to open URL")
	}

	cmd := l.command(rawURL)
	debuglog.Debugf("opening %s with %s", rawURL, l.opener)
	if err := l.start(cmd); err != nil {
		return fmt.Errorf("failed to start %s: %w", l.opener, err)
	}
	return nil
}

func (l *Launcher) command(rawURL string) *exec.Cmd {
	switch l.opener {
	case "start":
		return exec.Command("cmd", "/c", "start", "", rawURL)
	case "rundll32":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		return exec.Command(l.opener, rawURL)
	}
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

func findCommand(commands ...string) string {
	for _, cmd := range commands {
		if _, err := exec.LookPath(cmd); err == nil {
			return cmd
		}
	}
	return ""
}

// VideoURL is the watch page of a video.
func VideoURL(videoID string) string {
	return watchBase + "?" + url.Values{"v": {videoID}}.Encode()
}

// CommentURL links straight to a comment or reply under its video.
func CommentURL(videoID, commentID string) string {
	return watchBase + "?" + url.Values{"v": {videoID}, "lc": {commentID}}.Encode()
}
