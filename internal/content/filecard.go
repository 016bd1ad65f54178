package content

import (
	"context"
	"errors"
	"fmt"
	"html"
	"os"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
	"sync"
)

var whitespace = regexp.MustCompile(`\s+`)

// FileCard is the typed payload of one rendered file attachment.
type FileCard struct {
	Path string
	Name string
	Ext  string
}

// ParseFileCard derives the display name (the tail after sep) and the
// lower-cased extension of path.
func ParseFileCard(path, sep string) FileCard {
	if sep == "" {
		sep = string(os.PathSeparator)
	}
	name := path
	if i := strings.LastIndex(path, sep); i >= 0 {
		name = path[i+len(sep):]
	}
	ext := ""
	if i := strings.LastIndex(name, "."); i >= 0 {
		ext = strings.ToLower(name[i+1:])
	}
	return FileCard{Path: path, Name: name, Ext: ext}
}

// Badge is the extension shown on the card: at most three upper-case characters.
func (c FileCard) Badge() string {
	ext := []rune(c.Ext)
	if len(ext) > 3 {
		ext = ext[:3]
	}
	return strings.ToUpper(string(ext))
}

// HTML renders the card as a single line with whitespace collapsed.
func (c FileCard) HTML() string {
	card := fmt.Sprintf(`
        <div class="file-card"
            data-filepath="%s"
            data-ext="%s">
            <div class="file-ext-card">
                %s
            </div>
            %s
        </div>
    `, html.EscapeString(c.Path), html.EscapeString(c.Ext), html.EscapeString(c.Badge()), html.EscapeString(c.Name))
	return strings.TrimSpace(whitespace.ReplaceAllString(card, " "))
}

// RenderFileCard is ParseFileCard(path, sep).HTML().
func RenderFileCard(path, sep string) string {
	return ParseFileCard(path, sep).HTML()
}

// Opener opens a path with the host's native handler.
type Opener interface {
	Open(ctx context.Context, path string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, path string) error

func (f OpenerFunc) Open(ctx context.Context, path string) error { return f(ctx, path) }

// SystemOpener opens paths with the desktop's default application.
type SystemOpener struct{}

func (SystemOpener) Open(ctx context.Context, path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", path)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", path)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	go cmd.Wait()
	return nil
}

// ErrNotAttached is returned by Click before the delegate is attached.
var ErrNotAttached = errors.New("file card delegate not attached")

// FileCardDelegate routes clicks on rendered file cards to an Opener. The host
// attaches it once at startup.
type FileCardDelegate struct {
	mu     sync.RWMutex
	opener Opener
}

// Attach installs opener. Only the first call has an effect; it reports
// whether this call installed the delegate.
func (d *FileCardDelegate) Attach(opener Opener) bool {
	if opener == nil {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opener != nil {
		return false
	}
	d.opener = opener
	return true
}

// Attached reports whether Attach has run.
func (d *FileCardDelegate) Attached() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.opener != nil
}

// Click opens the card's path. Cards without a path are ignored.
func (d *FileCardDelegate) Click(ctx context.Context, card FileCard) error {
	if card.Path == "" {
		return nil
	}
	d.mu.RLock()
	opener := d.opener
	d.mu.RUnlock()
	if opener == nil {
		return ErrNotAttached
	}
	return opener.Open(ctx, card.Path)
}
