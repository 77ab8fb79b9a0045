package pages

import (
	"bufio"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"svddoc/internal/sysdec"
)

// ErrPageCollision means two pages would be written to the same file.
var ErrPageCollision = errors.New("shares the page file")

// Renderer turns a page context into markup.  The name selects the page
// kind: "index" or "peripheral".
type Renderer interface {
	Render(w io.Writer, name string, data any) error
}

//go:embed templates/*.html
var templateFiles embed.FS

// TemplateRenderer renders the embedded html templates.
type TemplateRenderer struct {
	group *template.Template
}

func NewTemplateRenderer() (*TemplateRenderer, error) {
	group := template.New("pages").Funcs(template.FuncMap{
		"pageFile": PageFile,
	})
	group, err := group.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	for _, name := range []string{"index", "peripheral"} {
		if group.Lookup(name) == nil {
			return nil, fmt.Errorf("template %q is missing", name)
		}
	}
	return &TemplateRenderer{group: group}, nil
}

func (t *TemplateRenderer) Render(w io.Writer, name string, data any) error {
	if err := t.group.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("failed to execute the %s template: %w", name, err)
	}
	return nil
}

// Generator assembles the pages of a device and hands them to a Renderer.
type Generator struct {
	renderer    Renderer
	placeholder string
	jobs        int
	strict      bool
	verbose     bool
	logger      *log.Logger
}

type Option func(*Generator)

// WithPlaceholder sets the token that marks the index in array register
// names.
func WithPlaceholder(p string) Option {
	return func(g *Generator) { g.placeholder = p }
}

// WithJobs bounds the number of pages rendered at the same time.
func WithJobs(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.jobs = n
		}
	}
}

// Strict makes overlapping or out of range fields fatal.
func Strict(on bool) Option {
	return func(g *Generator) { g.strict = on }
}

func Verbose(on bool) Option {
	return func(g *Generator) { g.verbose = on }
}

func WithLogger(l *log.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

func NewGenerator(r Renderer, opts ...Option) *Generator {
	g := &Generator{
		renderer:    r,
		placeholder: DefaultPlaceholder,
		jobs:        runtime.NumCPU(),
		logger:      log.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate writes index.html and one page per peripheral into dir,
// creating it if needed.  All page contexts are built before anything is
// written, so a strict mode failure leaves dir untouched.  Pages that
// were written before a rendering or i/o failure stay on disk.
func (g *Generator) Generate(ctx context.Context, dev *sysdec.DeviceDef, dir string) error {
	pages := make([]PeripheralPage, 0, len(dev.Peripheral))
	//lower case, since names differing only in case collide on some file systems
	files := map[string]string{"index.html": "the index"}
	for _, p := range dev.Peripheral {
		file := strings.ToLower(PageFile(p.Name))
		if owner, ok := files[file]; ok {
			return fmt.Errorf("peripheral %s: %w %s with %s", p.Name, ErrPageCollision, file, owner)
		}
		files[file] = "peripheral " + p.Name
		page, err := g.PeripheralContext(dev, p)
		if err != nil {
			return err
		}
		pages = append(pages, page)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := g.writePage(dir, "index.html", "index", g.IndexContext(dev)); err != nil {
		return err
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.jobs)
	for i := range pages {
		page := &pages[i]
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return g.writePage(dir, PageFile(page.Name), "peripheral", page)
		})
	}
	return eg.Wait()
}

func (g *Generator) writePage(dir string, file string, kind string, data any) error {
	path := filepath.Join(dir, file)
	fp, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create page: %w", err)
	}
	w := bufio.NewWriter(fp)
	if err := g.renderer.Render(w, kind, data); err != nil {
		fp.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		fp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := fp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if g.verbose {
		g.logger.Printf("wrote %s", path)
	}
	return nil
}
