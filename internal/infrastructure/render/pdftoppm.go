package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/kirillkom/document-classifier/internal/core/ports"
	"github.com/kirillkom/document-classifier/internal/infrastructure/command"
	"github.com/kirillkom/document-classifier/internal/infrastructure/storage/localfs"
)

const DefaultDPI = 300

const inputName = "input.pdf"

var ErrNoScratch = errors.New("render: scratch storage is required")

type Config struct {
	Binary string
	DPI    int
}

// Pdftoppm rasterises PDF pages into PNG bytes. Each opened document is
// written to its own scratch workspace once and rendered page by page.
type Pdftoppm struct {
	cfg     Config
	scratch *localfs.Scratch
	runner  command.Runner
	logger  *slog.Logger
}

func NewPdftoppm(cfg Config, scratch *localfs.Scratch, runner command.Runner, logger *slog.Logger) (*Pdftoppm, error) {
	if scratch == nil {
		return nil, ErrNoScratch
	}
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = DefaultDPI
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pdftoppm{cfg: cfg, scratch: scratch, runner: runner, logger: logger}, nil
}

func (p *Pdftoppm) Open(_ context.Context, pdf []byte) (ports.PageRenderer, error) {
	ws, err := p.scratch.Workspace("classify-pdf")
	if err != nil {
		return nil, fmt.Errorf("rasterize: %w", err)
	}
	input, err := ws.Save(inputName, pdf)
	if err != nil {
		if cerr := ws.Close(); cerr != nil {
			p.logger.Warn("scratch_cleanup_failed", "error", cerr)
		}
		return nil, fmt.Errorf("rasterize: %w", err)
	}
	return &document{p: p, ws: ws, input: input}, nil
}

type document struct {
	p     *Pdftoppm
	ws    *localfs.Workspace
	input string
}

// Rasterize renders page (1-based) of the opened document.
func (d *document) Rasterize(ctx context.Context, page int) ([]byte, error) {
	if page < 1 {
		return nil, fmt.Errorf("rasterize: invalid page %d", page)
	}

	// pdftoppm -singlefile appends .png to the output root.
	root := "page-" + strconv.Itoa(page)
	if _, err := d.p.runner.Run(ctx, nil, d.p.cfg.Binary, d.p.args(d.input, d.ws.Path(root), page)...); err != nil {
		return nil, fmt.Errorf("rasterize page %d: %w", page, err)
	}

	name := root + ".png"
	out, err := d.ws.Read(name)
	if err != nil {
		return nil, fmt.Errorf("rasterize page %d: %w", page, err)
	}
	if err := d.ws.Remove(name); err != nil {
		d.p.logger.Warn("scratch_cleanup_failed", "page", page, "error", err)
	}
	return out, nil
}

func (d *document) Close() error {
	return d.ws.Close()
}

func (p *Pdftoppm) args(input, root string, page int) []string {
	n := strconv.Itoa(page)
	return []string{
		"-r", strconv.Itoa(p.cfg.DPI),
		"-png",
		"-f", n,
		"-l", n,
		"-singlefile",
		input,
		root,
	}
}
