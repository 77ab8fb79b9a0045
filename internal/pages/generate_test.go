package pages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"svddoc/internal/sysdec"
)

// stubRenderer records what it was asked to render.
type stubRenderer struct {
	mu    sync.Mutex
	calls []string
	fail  string //page name to fail on
}

func (s *stubRenderer) Render(w io.Writer, name string, data any) error {
	var title string
	switch page := data.(type) {
	case IndexPage:
		title = page.Name
	case *PeripheralPage:
		title = page.Name
	default:
		return fmt.Errorf("unexpected context %T", data)
	}
	s.mu.Lock()
	s.calls = append(s.calls, name+":"+title)
	s.mu.Unlock()
	if title == s.fail {
		return errors.New("stub failure")
	}
	_, err := fmt.Fprintf(w, "%s %s", name, title)
	return err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestGenerateWritesAllPages(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "output")
	stub := &stubRenderer{}
	g := NewGenerator(stub, WithJobs(2))
	if err := g.Generate(context.Background(), testDevice(), dir); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, filepath.Join(dir, "index.html")); got != "index EXS32F1" {
		t.Errorf("index.html: %q", got)
	}
	if got := readFile(t, filepath.Join(dir, "TIMER0.html")); got != "peripheral TIMER0" {
		t.Errorf("TIMER0.html: %q", got)
	}
	if got := readFile(t, filepath.Join(dir, "UART0.html")); got != "peripheral UART0" {
		t.Errorf("UART0.html: %q", got)
	}
	sort.Strings(stub.calls)
	if strings.Join(stub.calls, ",") != "index:EXS32F1,peripheral:TIMER0,peripheral:UART0" {
		t.Errorf("unexpected render calls %v", stub.calls)
	}
}

func TestGenerateRenderFailure(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(&stubRenderer{fail: "UART0"}, WithJobs(1))
	err := g.Generate(context.Background(), testDevice(), dir)
	if err == nil || !strings.Contains(err.Error(), "stub failure") {
		t.Fatalf("expected the stub failure, got %v", err)
	}
	//earlier pages stay
	if _, err := os.Stat(filepath.Join(dir, "index.html")); err != nil {
		t.Errorf("index.html should remain: %v", err)
	}
}

func TestGenerateStrictWritesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	dev, _ := overlapping()
	g := NewGenerator(&stubRenderer{}, Strict(true))
	if err := g.Generate(context.Background(), dev, dir); err == nil {
		t.Fatalf("expected a strict failure")
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("output directory should not exist: %v", err)
	}
}

func TestGeneratePageCollision(t *testing.T) {
	for _, clash := range [][]string{{"Index"}, {"A/B", "A_B"}, {"uart", "UART"}} {
		dir := filepath.Join(t.TempDir(), "out")
		dev := testDevice()
		for _, name := range clash {
			dev.Peripheral = append(dev.Peripheral, &sysdec.PeripheralDef{Name: name})
		}
		err := NewGenerator(&stubRenderer{}).Generate(context.Background(), dev, dir)
		if !errors.Is(err, ErrPageCollision) {
			t.Errorf("%q: expected ErrPageCollision, got %v", clash, err)
		}
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Errorf("%q: nothing should be written", clash)
		}
	}
}

func TestGenerateBadDirectory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	g := NewGenerator(&stubRenderer{})
	err := g.Generate(context.Background(), testDevice(), filepath.Join(blocker, "out"))
	if err == nil || !strings.Contains(err.Error(), "create output directory") {
		t.Errorf("expected a directory error, got %v", err)
	}
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := NewGenerator(&stubRenderer{})
	err := g.Generate(ctx, testDevice(), t.TempDir())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestTemplateRenderer(t *testing.T) {
	r, err := NewTemplateRenderer()
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	g := NewGenerator(r, WithPlaceholder("x"))
	if err := g.Generate(context.Background(), testDevice(), dir); err != nil {
		t.Fatal(err)
	}
	index := readFile(t, filepath.Join(dir, "index.html"))
	for _, want := range []string{"<h1>EXS32F1</h1>", `<a href="TIMER0.html">TIMER0</a>`, "0x40003000"} {
		if !strings.Contains(index, want) {
			t.Errorf("index.html lacks %q", want)
		}
	}
	timer := readFile(t, filepath.Join(dir, "TIMER0.html"))
	for _, want := range []string{
		"<h1>TIMER0 (Base 0x40001000)</h1>",
		"CTRL (Offset 0x0004 Absolute 0x40001004)",
		"CH&lt;0..4&gt;_CTRL",
		`<td colspan="24" class="reserved">31 - 8</td>`,
		`<td colspan="4">7 - 4</td>`,
		`<td class="header">MODE</td>`,
		"<b>TIMER0</b> <i>12</i> Timer 0 global interrupt",
		"<i>RW</i>",
	} {
		if !strings.Contains(timer, want) {
			t.Errorf("TIMER0.html lacks %q", want)
		}
	}
	uart := readFile(t, filepath.Join(dir, "UART0.html"))
	if !strings.Contains(uart, `Derived from <a href="UART_BASE.html">UART_BASE</a>`) {
		t.Errorf("UART0.html lacks the derived from link")
	}
}

func TestTemplateRendererUnknownPage(t *testing.T) {
	r, err := NewTemplateRenderer()
	if err != nil {
		t.Fatal(err)
	}
	var b strings.Builder
	if err := r.Render(&b, "nope", nil); err == nil {
		t.Errorf("expected an error for an unknown template")
	}
}
