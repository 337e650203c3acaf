package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const samplePage = `<!DOCTYPE html>
<html><head><title>Sample</title>
<link rel="stylesheet" href="/site.css">
<style>
div.box { height: 50px; z-index: 3 }
@media (max-width: 600px) { div.box { height: 20px } }
p::before { content: "Note: " }
</style></head>
<body><div class="box"></div><p>Hello</p></body></html>`

// execute runs a fresh root command from an empty working directory so no
// stray stylecore.yaml is picked up.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	chdir(t, t.TempDir())
	t.Setenv("STYLECORE_LOGGING_LEVEL", "error")

	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func findBox(t *testing.T, boxes []boxReport, tag string) boxReport {
	t.Helper()
	for _, b := range boxes {
		if b.Tag == tag {
			return b
		}
	}
	t.Fatalf("no %s box", tag)
	return boxReport{}
}

func TestRootVersion(t *testing.T) {
	out, err := execute(t, "", "--version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)
}

func TestRootHelp(t *testing.T) {
	out, err := execute(t, "")
	require.NoError(t, err)
	assert.Contains(t, out, "Stylecore cascades CSS")
	assert.Contains(t, out, "layout")
	assert.Contains(t, out, "css")
}

func TestLayoutJSON(t *testing.T) {
	page := writeFile(t, "page.html", samplePage)
	out, err := execute(t, "", "layout", page)
	require.NoError(t, err)

	var report layoutReport
	require.NoError(t, jsonAPI.Unmarshal([]byte(out), &report))
	assert.Equal(t, "Sample", report.Title)
	assert.Equal(t, []string{"/site.css"}, report.Links)
	assert.Equal(t, rectReport{Width: 1024, Height: 768}, report.Viewport)
	assert.Equal(t, 1, report.Stats.Pseudo)
	assert.Equal(t, report.Stats.Boxes, len(report.Boxes))

	div := findBox(t, report.Boxes, "div")
	assert.Equal(t, rectReport{Width: 1024, Height: 50}, div.Border)
	assert.Equal(t, "block", div.Display)
	assert.Equal(t, 3, div.ZIndex)
	assert.Nil(t, div.Properties)
	assert.Equal(t, div, report.Boxes[len(report.Boxes)-1], "z-index sorts the div last")

	var texts []string
	for _, b := range report.Boxes {
		if b.Text != "" {
			texts = append(texts, b.Text)
		}
	}
	assert.Equal(t, []string{"Note: ", "Hello"}, texts)
}

func TestLayoutYAMLWithFlags(t *testing.T) {
	page := writeFile(t, "page.html", samplePage)
	out, err := execute(t, "", "layout", "--width", "500", "--height", "400", "--styles", "-o", "yaml", page)
	require.NoError(t, err)

	var report layoutReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	assert.Equal(t, rectReport{Width: 500, Height: 400}, report.Viewport)

	div := findBox(t, report.Boxes, "div")
	assert.Equal(t, 20.0, div.Border.Height, "the narrow viewport matches the media block")
	assert.Equal(t, 500.0, div.Border.Width)
	assert.Equal(t, "20px", div.Properties["height"])
}

func TestLayoutYogaSolver(t *testing.T) {
	page := writeFile(t, "page.html", samplePage)
	out, err := execute(t, "", "layout", "--solver", "yoga", page)
	require.NoError(t, err)

	var report layoutReport
	require.NoError(t, jsonAPI.Unmarshal([]byte(out), &report))
	div := findBox(t, report.Boxes, "div")
	assert.Equal(t, rectReport{Width: 1024, Height: 50}, div.Border)

	_, err = execute(t, "", "layout", "--solver", "grid", page)
	assert.ErrorContains(t, err, `layout.solver "grid" must be flex or yoga`)
}

func TestLayoutStdin(t *testing.T) {
	out, err := execute(t, `<html><body><section style="height: 7px"></section></body></html>`, "layout", "-")
	require.NoError(t, err)

	var report layoutReport
	require.NoError(t, jsonAPI.Unmarshal([]byte(out), &report))
	assert.Equal(t, 7.0, findBox(t, report.Boxes, "section").Border.Height)
}

func TestLayoutErrors(t *testing.T) {
	_, err := execute(t, "", "layout", filepath.Join(t.TempDir(), "missing.html"))
	assert.Error(t, err)

	_, err = execute(t, "", "layout")
	assert.Error(t, err, "a file argument is required")

	page := writeFile(t, "page.html", samplePage)
	_, err = execute(t, "", "layout", "-o", "xml", page)
	assert.ErrorContains(t, err, `unknown output format "xml"`)

	_, err = execute(t, "", "layout", "--media", "tv", page)
	assert.ErrorContains(t, err, "viewport.media_type")

	_, err = execute(t, "", "layout", "--width", "0", page)
	assert.ErrorContains(t, err, "viewport.width must be positive")
}

const sampleSheet = `
@import url("base.css");
h1 { color: red; margin: 1px 2px }
p >> a { color: blue }
@media (min-width: 800px) { .wide { width: 50% } }
@media print { body { color: black } }
@keyframes fade { from { opacity: 0 } to { opacity: 1 } }
@font-face { font-family: Body; src: url(body.woff2) format("woff2"); font-weight: 700 }
`

func TestCSSReport(t *testing.T) {
	sheet := writeFile(t, "site.css", sampleSheet)
	out, err := execute(t, "", "css", sheet)
	require.NoError(t, err)

	var report cssReport
	require.NoError(t, jsonAPI.Unmarshal([]byte(out), &report))

	require.Len(t, report.Rules, 1)
	assert.Equal(t, "h1", report.Rules[0].Selector)
	assert.Equal(t, []string{
		"color: rgba(255, 0, 0, 1)",
		"margin-top: 1px",
		"margin-right: 2px",
		"margin-bottom: 1px",
		"margin-left: 2px",
	}, report.Rules[0].Declarations)
	assert.Equal(t, []string{"base.css"}, report.Imports)
	assert.Len(t, report.Errors, 1)

	require.Len(t, report.Media, 2)
	assert.True(t, report.Media[0].Matches)
	assert.Equal(t, ".wide", report.Media[0].Rules[0].Selector)
	assert.False(t, report.Media[1].Matches, "print blocks do not match a screen viewport")

	require.Len(t, report.Keyframes, 1)
	assert.Equal(t, "fade", report.Keyframes[0].Name)
	require.Len(t, report.Keyframes[0].Steps, 2)
	assert.Equal(t, "0%", report.Keyframes[0].Steps[0].Offset)
	assert.Equal(t, "100%", report.Keyframes[0].Steps[1].Offset)

	require.Len(t, report.FontFaces, 1)
	face := report.FontFaces[0]
	assert.Equal(t, "Body", face.Family)
	assert.Equal(t, 700, face.Weight)
	assert.Equal(t, "normal", face.Style)
	assert.Len(t, face.Sources, 1)
}

func TestCSSMediaFlag(t *testing.T) {
	sheet := writeFile(t, "site.css", sampleSheet)
	out, err := execute(t, "", "css", "--media", "print", "--width", "640", sheet)
	require.NoError(t, err)

	var report cssReport
	require.NoError(t, jsonAPI.Unmarshal([]byte(out), &report))
	require.Len(t, report.Media, 2)
	assert.False(t, report.Media[0].Matches)
	assert.True(t, report.Media[1].Matches)
}

func TestCSSFailFast(t *testing.T) {
	t.Setenv("STYLECORE_CSS_RECOVER_FROM_ERRORS", "false")
	sheet := writeFile(t, "site.css", sampleSheet)
	_, err := execute(t, "", "css", sheet)
	assert.Error(t, err)
}

func TestConfigCommand(t *testing.T) {
	file := writeFile(t, "custom.yaml", "viewport:\n  width: 300\ncascade:\n  workers: 2\n")
	t.Setenv("STYLECORE_VIEWPORT_MEDIA_TYPE", "print")

	out, err := execute(t, "", "config", "--config", file, "--height", "200")
	require.NoError(t, err)

	var dumped struct {
		Viewport struct {
			Width     float64 `yaml:"width"`
			Height    float64 `yaml:"height"`
			MediaType string  `yaml:"media_type"`
		} `yaml:"viewport"`
		Cascade struct {
			Workers int `yaml:"workers"`
		} `yaml:"cascade"`
		Logging struct {
			Level string `yaml:"level"`
		} `yaml:"logging"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &dumped))
	assert.Equal(t, 300.0, dumped.Viewport.Width)
	assert.Equal(t, 200.0, dumped.Viewport.Height)
	assert.Equal(t, "print", dumped.Viewport.MediaType)
	assert.Equal(t, 2, dumped.Cascade.Workers)
	assert.Equal(t, "error", dumped.Logging.Level)

	_, err = execute(t, "", "config", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "read config")
}
