package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chrisuehlinger/stylecore/layout"
	"github.com/chrisuehlinger/stylecore/render"
)

type rectReport struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

func newRectReport(r layout.Rect) rectReport {
	return rectReport{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

type boxReport struct {
	Node       int               `json:"node" yaml:"node"`
	Tag        string            `json:"tag,omitempty" yaml:"tag,omitempty"`
	Text       string            `json:"text,omitempty" yaml:"text,omitempty"`
	Display    string            `json:"display,omitempty" yaml:"display,omitempty"`
	ZIndex     int               `json:"z_index,omitempty" yaml:"z_index,omitempty"`
	Border     rectReport        `json:"border" yaml:"border"`
	Content    rectReport        `json:"content" yaml:"content"`
	Properties map[string]string `json:"properties,omitempty" yaml:"properties,omitempty"`
}

type statsReport struct {
	Elements int    `json:"elements" yaml:"elements"`
	Boxes    int    `json:"boxes" yaml:"boxes"`
	Pseudo   int    `json:"pseudo" yaml:"pseudo"`
	Duration string `json:"duration" yaml:"duration"`
}

type layoutReport struct {
	Title    string      `json:"title,omitempty" yaml:"title,omitempty"`
	Viewport rectReport  `json:"viewport" yaml:"viewport"`
	Links    []string    `json:"links,omitempty" yaml:"links,omitempty"`
	Stats    statsReport `json:"stats" yaml:"stats"`
	Boxes    []boxReport `json:"boxes" yaml:"boxes"`
}

func newLayoutCmd(a *app) *cobra.Command {
	var withStyles bool
	cmd := &cobra.Command{
		Use:   "layout <file.html>",
		Short: "Style and lay out an HTML document and print every box in paint order",
		Long: `Parses the document, cascades its <style> blocks, synthesizes ::before and
::after content and runs layout. Use "-" to read the document from stdin.
Linked stylesheets are reported but not fetched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			if err := p.Navigate(cmd.Context(), source); err != nil {
				return err
			}
			report := buildLayoutReport(p, withStyles)
			a.log.Debug("Layout complete", zap.String("file", args[0]), zap.Int("boxes", len(report.Boxes)))
			return a.write(cmd, report)
		},
	}
	cmd.Flags().BoolVar(&withStyles, "styles", false, "include cascaded properties for each element")
	return cmd
}

func buildLayoutReport(p *render.Pipeline, withStyles bool) layoutReport {
	vp := p.Layout().Viewport()
	stats := p.Stats()
	report := layoutReport{
		Title:    p.Title(),
		Viewport: rectReport{Width: vp.Width, Height: vp.Height},
		Links:    p.Links(),
		Stats: statsReport{
			Elements: stats.Elements,
			Boxes:    stats.Boxes,
			Pseudo:   stats.Pseudo,
			Duration: stats.Duration.String(),
		},
	}

	for _, info := range p.RenderList() {
		box := boxReport{
			Node:    int(info.NodeID),
			Tag:     info.Tag,
			Text:    info.Text,
			ZIndex:  info.ZIndex,
			Border:  newRectReport(info.Layout.BorderBox()),
			Content: newRectReport(info.Layout.Content),
		}
		if info.Style != nil {
			box.Display = info.Style.Display.String()
		}
		if withStyles && info.Tag != "" {
			if props, ok := p.ComputedStyle(info.NodeID); ok && len(props) > 0 {
				box.Properties = props
			}
		}
		report.Boxes = append(report.Boxes, box)
	}
	return report
}
