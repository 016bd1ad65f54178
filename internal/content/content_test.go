package content

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestUserFrom(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    User
		wantErr bool
	}{
		{
			name: "json string",
			in:   `{"text":"hi","images":["/a.png"],"files":["/d/r.pdf"]}`,
			want: User{Text: "hi", Images: []string{"/a.png"}, Files: []string{"/d/r.pdf"}},
		},
		{
			name: "missing lists",
			in:   []byte(`{"text":"hi"}`),
			want: User{Text: "hi", Images: []string{}, Files: []string{}},
		},
		{
			name: "structured map",
			in:   map[string]any{"text": "x", "images": []any{"p.png"}},
			want: User{Text: "x", Images: []string{"p.png"}, Files: []string{}},
		},
		{
			name: "struct passthrough",
			in:   User{Text: "s"},
			want: User{Text: "s", Images: []string{}, Files: []string{}},
		},
		{name: "broken json", in: `{"text":`, wantErr: true},
		{name: "empty string", in: "", wantErr: true},
		{name: "wrong field type", in: `{"text":3}`, wantErr: true},
		{name: "unsupported", in: 42, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UserFrom(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPayload) {
					t.Fatalf("UserFrom() error = %v, want ErrInvalidPayload", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("UserFrom() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("UserFrom() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUser_IsEmpty(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{`{"text":"hi","images":[],"files":[]}`, false},
		{`{"text":"  ","images":[],"files":[]}`, true},
		{`{"text":"","images":["a.png"],"files":[]}`, false},
		{`{"text":"\n","images":[],"files":["f"]}`, false},
	}

	for _, tt := range tests {
		u, err := UserFrom(tt.in)
		if err != nil {
			t.Fatalf("UserFrom(%s) error = %v", tt.in, err)
		}
		if got := u.IsEmpty(); got != tt.want {
			t.Errorf("UserFrom(%s).IsEmpty() = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestUser_ToMd(t *testing.T) {
	u := User{
		Text:   "see attached",
		Images: []string{"/tmp/a b.png", "/tmp/c.png"},
		Files:  []string{"/home/u/Report.PDF"},
	}
	got := u.ToMd(AssetOrigin{Origin: "http://asset.localhost"}, "/")

	want := "see attached" +
		"![image](http://asset.localhost/%2Ftmp%2Fa%20b.png)\n![image](http://asset.localhost/%2Ftmp%2Fc.png)" +
		`<div class="file-card" data-filepath="/home/u/Report.PDF" data-ext="pdf"> <div class="file-ext-card"> PDF </div> Report.PDF </div>`
	if got != want {
		t.Errorf("ToMd() =\n%s\nwant\n%s", got, want)
	}

	if got := (User{Text: "only"}).ToMd(AssetOrigin{}, "/"); got != "only" {
		t.Errorf("ToMd() text only = %q", got)
	}
}

func TestParseFileCard(t *testing.T) {
	tests := []struct {
		path, sep string
		want      FileCard
		badge     string
	}{
		{"/a/b/notes.Markdown", "/", FileCard{Path: "/a/b/notes.Markdown", Name: "notes.Markdown", Ext: "markdown"}, "MAR"},
		{`C:\docs\x.tar.GZ`, `\`, FileCard{Path: `C:\docs\x.tar.GZ`, Name: "x.tar.GZ", Ext: "gz"}, "GZ"},
		{"/a/README", "/", FileCard{Path: "/a/README", Name: "README", Ext: ""}, ""},
		{"plain.txt", "/", FileCard{Path: "plain.txt", Name: "plain.txt", Ext: "txt"}, "TXT"},
	}

	for _, tt := range tests {
		got := ParseFileCard(tt.path, tt.sep)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("ParseFileCard(%q) mismatch (-want +got):\n%s", tt.path, diff)
		}
		if got.Badge() != tt.badge {
			t.Errorf("Badge() = %q, want %q", got.Badge(), tt.badge)
		}
	}
}

func TestRenderFileCard_Escapes(t *testing.T) {
	got := RenderFileCard(`/x/"q"<b>.txt`, "/")
	if strings.Contains(got, `"q"`) || strings.Contains(got, "<b>") {
		t.Errorf("RenderFileCard() did not escape: %s", got)
	}
	if strings.Contains(got, "\n") || strings.Contains(got, "  ") {
		t.Errorf("RenderFileCard() whitespace not collapsed: %q", got)
	}
}

func TestAssistantFrom(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"relative image", "![a](pic.png)", "![a](http://asset.localhost/pic.png)"},
		{"leading slash stripped once", "![](/tmp/p.png)", "![](http://asset.localhost/tmp/p.png)"},
		{"remote untouched", "![r](https://x.io/p.png) ![s](http://y/p.png)", "![r](https://x.io/p.png) ![s](http://y/p.png)"},
		{"math trimmed", "$ x+1 $", "$x+1$"},
		{"inner spacing kept", "cost $  a + b  $ total", "cost $a + b$ total"},
		{"plain text", "no markup here", "no markup here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AssistantFrom(tt.in, "").ToMd(); got != tt.want {
				t.Errorf("AssistantFrom(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRewriteImages_CustomOrigin(t *testing.T) {
	got := RewriteImages("![a](img/x.png)", "http://127.0.0.1:8898")
	if got != "![a](http://127.0.0.1:8898/img/x.png)" {
		t.Errorf("RewriteImages() = %q", got)
	}
}

func TestFileCardDelegate_AttachedMeansClickable(t *testing.T) {
	var d FileCardDelegate
	ctx := context.Background()
	noop := OpenerFunc(func(context.Context, string) error { return nil })

	var wg sync.WaitGroup
	var failures atomic.Int32
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.Attach(noop)
	}()
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if d.Attached() {
					if err := d.Click(ctx, FileCard{Path: "/x"}); err != nil {
						failures.Add(1)
					}
				}
			}
		}()
	}
	wg.Wait()

	if n := failures.Load(); n != 0 {
		t.Errorf("Click() failed %d times after Attached() reported true", n)
	}
}

func TestFileCardDelegate(t *testing.T) {
	var d FileCardDelegate
	ctx := context.Background()

	if err := d.Click(ctx, FileCard{Path: "/x"}); !errors.Is(err, ErrNotAttached) {
		t.Errorf("Click() before Attach error = %v", err)
	}

	var opened []string
	var mu sync.Mutex
	first := OpenerFunc(func(_ context.Context, path string) error {
		mu.Lock()
		defer mu.Unlock()
		opened = append(opened, path)
		return nil
	})

	var installs atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d.Attach(first) {
				installs.Add(1)
			}
		}()
	}
	wg.Wait()

	if installs.Load() != 1 {
		t.Fatalf("Attach() installed %d times, want 1", installs.Load())
	}
	if !d.Attached() {
		t.Error("Attached() = false")
	}
	if d.Attach(OpenerFunc(func(context.Context, string) error { return errors.New("second") })) {
		t.Error("second Attach() replaced the opener")
	}

	if d.Attach(nil) {
		t.Error("Attach(nil) reported an install")
	}

	card := ParseFileCard("/docs/a.pdf", "/")
	if err := d.Click(ctx, card); err != nil {
		t.Fatalf("Click() error = %v", err)
	}
	if err := d.Click(ctx, FileCard{}); err != nil {
		t.Errorf("Click() without path error = %v", err)
	}
	if diff := cmp.Diff([]string{"/docs/a.pdf"}, opened); diff != "" {
		t.Errorf("opened mismatch (-want +got):\n%s", diff)
	}
}
