package cmd

import (
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chrisuehlinger/stylecore/css"
)

type ruleReport struct {
	Selector     string   `json:"selector" yaml:"selector"`
	Declarations []string `json:"declarations" yaml:"declarations"`
}

type mediaReport struct {
	Query   string       `json:"query" yaml:"query"`
	Matches bool         `json:"matches" yaml:"matches"`
	Rules   []ruleReport `json:"rules" yaml:"rules"`
}

type stepReport struct {
	Offset       string   `json:"offset" yaml:"offset"`
	Declarations []string `json:"declarations" yaml:"declarations"`
}

type keyframesReport struct {
	Name  string       `json:"name" yaml:"name"`
	Steps []stepReport `json:"steps" yaml:"steps"`
}

type fontFaceReport struct {
	Family        string   `json:"family" yaml:"family"`
	Weight        int      `json:"weight" yaml:"weight"`
	Style         string   `json:"style" yaml:"style"`
	Sources       []string `json:"sources,omitempty" yaml:"sources,omitempty"`
	UnicodeRanges []string `json:"unicode_ranges,omitempty" yaml:"unicode_ranges,omitempty"`
}

type cssReport struct {
	Rules     []ruleReport      `json:"rules" yaml:"rules"`
	Media     []mediaReport     `json:"media,omitempty" yaml:"media,omitempty"`
	Keyframes []keyframesReport `json:"keyframes,omitempty" yaml:"keyframes,omitempty"`
	FontFaces []fontFaceReport  `json:"font_faces,omitempty" yaml:"font_faces,omitempty"`
	Imports   []string          `json:"imports,omitempty" yaml:"imports,omitempty"`
	Errors    []string          `json:"errors,omitempty" yaml:"errors,omitempty"`
	Dropped   []string          `json:"dropped,omitempty" yaml:"dropped,omitempty"`
}

func newCSSCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "css <file.css>",
		Short: "Parse a stylesheet and print its rules, at-rules and recovered errors",
		Long: `Parses the stylesheet with the configured error policy and reports which
@media blocks match the configured viewport. Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			engine, err := a.cascade()
			if err != nil {
				return err
			}
			sheet, err := engine.ParseStylesheet(text)
			if err != nil {
				return err
			}
			if len(sheet.Errors) > 0 {
				a.log.Warn("Recovered from stylesheet errors", zap.String("file", args[0]), zap.Int("errors", len(sheet.Errors)))
			}
			return a.write(cmd, buildCSSReport(sheet, engine.Viewport()))
		},
	}
}

func buildCSSReport(sheet *css.Stylesheet, vp css.Viewport) cssReport {
	report := cssReport{
		Rules:   newRuleReports(sheet.Rules),
		Imports: sheet.Imports,
		Errors:  errorStrings(sheet.Errors),
		Dropped: errorStrings(sheet.Dropped),
	}
	for _, mr := range sheet.MediaRules {
		report.Media = append(report.Media, mediaReport{
			Query:   mr.Query.String(),
			Matches: mr.Query.Matches(vp.Width, vp.Height, vp.Media),
			Rules:   newRuleReports(mr.Rules),
		})
	}
	for _, kf := range sheet.Keyframes {
		kr := keyframesReport{Name: kf.Name}
		for _, step := range kf.Steps {
			kr.Steps = append(kr.Steps, stepReport{
				Offset:       strconv.FormatFloat(step.Offset*100, 'f', -1, 64) + "%",
				Declarations: declarationStrings(step.Declarations),
			})
		}
		report.Keyframes = append(report.Keyframes, kr)
	}
	for _, ff := range sheet.FontFaces {
		fr := fontFaceReport{
			Family: ff.Family,
			Weight: int(ff.Weight),
			Style:  ff.Style.String(),
		}
		for _, src := range ff.Sources {
			fr.Sources = append(fr.Sources, src.String())
		}
		for _, ur := range ff.UnicodeRanges {
			fr.UnicodeRanges = append(fr.UnicodeRanges, ur.String())
		}
		report.FontFaces = append(report.FontFaces, fr)
	}
	return report
}

func newRuleReports(rules []*css.Rule) []ruleReport {
	out := make([]ruleReport, 0, len(rules))
	for _, r := range rules {
		out = append(out, ruleReport{Selector: r.Selector, Declarations: declarationStrings(r.Declarations)})
	}
	return out
}

func declarationStrings(decls []css.Declaration) []string {
	out := make([]string, len(decls))
	for i, d := range decls {
		out[i] = d.String()
	}
	return out
}

func errorStrings(errs []error) []string {
	var out []string
	for _, err := range errs {
		out = append(out, err.Error())
	}
	return out
}
