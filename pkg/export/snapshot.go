// Package export renders one-shot snapshots of a query's graph: the force
// layout is settled synchronously and drawn to SVG or PNG, with a summary
// block naming the query and the same stats line the interactive view shows.
package export

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/graphpane/pkg/graphview"
	"github.com/vanderheijden86/graphpane/pkg/layout"
	"github.com/vanderheijden86/graphpane/pkg/metrics"
)

// SnapshotOptions controls snapshot export behaviour.
type SnapshotOptions struct {
	Path    string          // Output path; format inferred from extension when Format empty
	Format  string          // "svg" or "png" (case-insensitive). If empty, inferred from Path.
	Title   string          // Rendered in the summary block
	Query   string          // The query that produced the graph
	Graph   *graphview.Graph
	Physics layout.Config // Zero value means defaults
	Width   int           // Canvas size; sensible defaults when zero
	Height  int

	// SettleTicks and SettleThreshold bound the synchronous layout run.
	SettleTicks     int
	SettleThreshold float64
}

// SaveSnapshot settles the layout and writes the rendered graph to disk.
func SaveSnapshot(ctx context.Context, opts SnapshotOptions) error {
	defer metrics.Timer(metrics.SnapshotExport)()

	if opts.Graph == nil || len(opts.Graph.Nodes) == 0 {
		return fmt.Errorf("no vertices to export")
	}

	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".svg":
			format = "svg"
		case ".png":
			format = "png"
		default:
			format = "svg" // safe default
			if opts.Path != "" && filepath.Ext(opts.Path) == "" {
				opts.Path = opts.Path + ".svg"
			}
		}
	}
	if format != "svg" && format != "png" {
		return fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	scene := buildScene(ctx, opts)

	switch format {
	case "svg":
		return renderSVG(opts.Path, scene)
	case "png":
		return renderPNG(opts.Path, scene)
	default:
		return fmt.Errorf("unhandled format %q", format)
	}
}

// --- scene computation -----------------------------------------------------

type sceneNode struct {
	Label string
	X, Y  float64
}

type sceneEdge struct {
	X1, Y1 float64
	X2, Y2 float64
}

type scene struct {
	Nodes   []sceneNode
	Edges   []sceneEdge
	Width   int
	Height  int
	Header  float64
	Summary summaryInfo
}

type summaryInfo struct {
	Title string
	Query string
	Stats string
}

func buildScene(ctx context.Context, opts SnapshotOptions) scene {
	const (
		padding      = 48.0
		headerHeight = 96.0
	)

	width := opts.Width
	if width < 640 {
		width = 960
	}
	height := opts.Height
	if height < 480 {
		height = 720
	}

	ticks := opts.SettleTicks
	if ticks <= 0 {
		ticks = 2000
	}
	threshold := opts.SettleThreshold
	if threshold <= 0 {
		threshold = 0.5
	}

	physics := opts.Physics
	if physics == (layout.Config{}) {
		physics = layout.DefaultConfig()
	}
	r := graphview.NewRenderer(physics)
	positions := r.Layout(ctx, opts.Graph, ticks, threshold)

	// Fit the settled layout into the drawable area below the header.
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range positions {
		minX = math.Min(minX, n.X)
		minY = math.Min(minY, n.Y)
		maxX = math.Max(maxX, n.X)
		maxY = math.Max(maxY, n.Y)
	}
	spanX := maxX - minX
	spanY := maxY - minY
	if spanX < 1 {
		spanX = 1
	}
	if spanY < 1 {
		spanY = 1
	}
	drawW := float64(width) - 2*padding
	drawH := float64(height) - headerHeight - 2*padding
	scale := math.Min(drawW/spanX, drawH/spanY)

	place := func(n layout.Node) (float64, float64) {
		x := padding + (n.X-minX)*scale + (drawW-spanX*scale)/2
		y := padding + headerHeight + (n.Y-minY)*scale + (drawH-spanY*scale)/2
		return x, y
	}

	sc := scene{
		Width:  width,
		Height: height,
		Header: headerHeight,
		Summary: summaryInfo{
			Title: strings.TrimSpace(opts.Title),
			Query: truncate(opts.Query, 80),
			Stats: opts.Graph.Stats.String(),
		},
	}
	if sc.Summary.Title == "" {
		sc.Summary.Title = "Graph Snapshot"
	}

	sc.Nodes = make([]sceneNode, len(opts.Graph.Nodes))
	for i, gn := range opts.Graph.Nodes {
		x, y := place(positions[i])
		sc.Nodes[i] = sceneNode{Label: truncate(gn.Vertex.Label(), 24), X: x, Y: y}
	}
	for _, l := range opts.Graph.Links {
		sc.Edges = append(sc.Edges, sceneEdge{
			X1: sc.Nodes[l.Source].X, Y1: sc.Nodes[l.Source].Y,
			X2: sc.Nodes[l.Target].X, Y2: sc.Nodes[l.Target].Y,
		})
	}
	return sc
}

// --- rendering -------------------------------------------------------------

var (
	colorVertex   = color.RGBA{0x90, 0xca, 0xf9, 0xff}
	colorStroke   = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorEdge     = color.RGBA{0x6b, 0x80, 0xbf, 0xff}
	colorText     = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle   = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorBackdrop = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
)

const nodeRadius = 8.0

func renderPNG(path string, sc scene) error {
	dc := gg.NewContext(sc.Width, sc.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(16, 16, float64(sc.Width)-32, sc.Header-24, 10)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)
	drawSummaryBlock(dc, sc)

	dc.SetColor(colorEdge)
	dc.SetLineWidth(1.5)
	for _, e := range sc.Edges {
		dc.DrawLine(e.X1, e.Y1, e.X2, e.Y2)
		dc.Stroke()
	}

	for _, n := range sc.Nodes {
		dc.SetColor(colorVertex)
		dc.DrawCircle(n.X, n.Y, nodeRadius)
		dc.Fill()
		dc.SetColor(colorStroke)
		dc.SetLineWidth(1.2)
		dc.DrawCircle(n.X, n.Y, nodeRadius)
		dc.Stroke()
		dc.SetColor(colorText)
		dc.DrawStringAnchored(n.Label, n.X+nodeRadius+4, n.Y, 0, 0.5)
	}

	return dc.SavePNG(path)
}

func renderSVG(path string, sc scene) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return renderSVGToWriter(file, sc)
}

func renderSVGToWriter(w io.Writer, sc scene) error {
	canvas := svg.New(w)
	canvas.Start(sc.Width, sc.Height)
	canvas.Rect(0, 0, sc.Width, sc.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Roundrect(16, 16, sc.Width-32, int(sc.Header-24), 10, 10, fmt.Sprintf("fill:%s", css(colorHeaderBG)))

	drawSummaryBlockSVG(canvas, sc)

	for _, e := range sc.Edges {
		canvas.Line(int(e.X1), int(e.Y1), int(e.X2), int(e.Y2),
			fmt.Sprintf("stroke:%s;stroke-width:1.5", css(colorEdge)))
	}

	for _, n := range sc.Nodes {
		canvas.Circle(int(n.X), int(n.Y), int(nodeRadius),
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1.2", css(colorVertex), css(colorStroke)))
		canvas.Text(int(n.X+nodeRadius+4), int(n.Y+4), n.Label,
			fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorText)))
	}

	canvas.End()
	return nil
}

func drawSummaryBlock(dc *gg.Context, sc scene) {
	dc.SetColor(colorText)
	dc.DrawStringAnchored(sc.Summary.Title, 32, 40, 0, 0.5)
	dc.SetColor(colorSubtle)
	if sc.Summary.Query != "" {
		dc.DrawStringAnchored(fmt.Sprintf("query: %s", sc.Summary.Query), 32, 58, 0, 0.5)
	}
	dc.DrawStringAnchored(sc.Summary.Stats, 32, 76, 0, 0.5)
}

func drawSummaryBlockSVG(canvas *svg.SVG, sc scene) {
	canvas.Text(32, 44, sc.Summary.Title,
		fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	if sc.Summary.Query != "" {
		canvas.Text(32, 62, fmt.Sprintf("query: %s", sc.Summary.Query),
			fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
	}
	canvas.Text(32, 80, sc.Summary.Stats,
		fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
}

// --- helpers ---------------------------------------------------------------

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
