package css

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	csslex "github.com/tdewolff/parse/v2/css"
)

// KeyframeStep is one offset of a @keyframes block with its declarations.
type KeyframeStep struct {
	Offset       float64 // 0..1
	Declarations []Declaration
}

// NewKeyframeStep clamps offset into 0..1.
func NewKeyframeStep(offset float64) KeyframeStep {
	if !math.IsNaN(offset) {
		offset = math.Max(0, math.Min(1, offset))
	}
	return KeyframeStep{Offset: offset}
}

// ParseKeyframeOffset parses "from", "to" or a percentage.
func ParseKeyframeOffset(s string) (float64, error) {
	toks := trimWhitespace(tokenize(s))
	if len(toks) != 1 {
		return 0, fmt.Errorf("invalid keyframe offset %q", s)
	}
	return keyframeOffset(toks[0])
}

func keyframeOffset(t Token) (float64, error) {
	switch {
	case t.isIdent("from"):
		return 0, nil
	case t.isIdent("to"):
		return 1, nil
	case t.Type == csslex.PercentageToken:
		v, _, ok := t.number()
		if ok {
			return math.Max(0, math.Min(1, v/100)), nil
		}
	}
	return 0, fmt.Errorf("invalid keyframe offset %q", t.Data)
}

// KeyframesDefinition is a named @keyframes rule. Steps stay sorted by
// offset.
type KeyframesDefinition struct {
	Name  string
	Steps []KeyframeStep
}

// AddStep inserts step keeping Steps ordered by offset. NaN offsets compare
// equal to everything and never panic; equal offsets keep insertion order.
func (k *KeyframesDefinition) AddStep(step KeyframeStep) {
	k.Steps = append(k.Steps, step)
	sort.SliceStable(k.Steps, func(i, j int) bool {
		return k.Steps[i].Offset < k.Steps[j].Offset
	})
}

// InterpolationRange locates progress between two steps and returns them
// with the local 0..1 progress. It reports false with fewer than two steps
// or when progress lies outside every pair.
func (k *KeyframesDefinition) InterpolationRange(progress float64) (from, to KeyframeStep, local float64, ok bool) {
	if len(k.Steps) < 2 {
		return from, to, 0, false
	}
	for i := 0; i < len(k.Steps)-1; i++ {
		cur, next := k.Steps[i], k.Steps[i+1]
		if progress >= cur.Offset && progress <= next.Offset {
			if span := next.Offset - cur.Offset; span > 0 {
				local = (progress - cur.Offset) / span
			}
			return cur, next, local, true
		}
	}
	return from, to, 0, false
}

// TimingKind identifies an easing function.
type TimingKind int

const (
	TimingEase TimingKind = iota
	TimingLinear
	TimingEaseIn
	TimingEaseOut
	TimingEaseInOut
	TimingCubicBezier
	TimingSteps
)

// TimingFunction maps animation progress to eased progress.
type TimingFunction struct {
	Kind TimingKind

	X1, Y1, X2, Y2 float64 // cubic-bezier control points

	Steps     int
	JumpStart bool
}

// Ease is the default timing function.
var Ease = TimingFunction{Kind: TimingEase}

func (f TimingFunction) String() string {
	switch f.Kind {
	case TimingLinear:
		return "linear"
	case TimingEaseIn:
		return "ease-in"
	case TimingEaseOut:
		return "ease-out"
	case TimingEaseInOut:
		return "ease-in-out"
	case TimingCubicBezier:
		return fmt.Sprintf("cubic-bezier(%s, %s, %s, %s)",
			FormatFloat(f.X1), FormatFloat(f.Y1), FormatFloat(f.X2), FormatFloat(f.Y2))
	case TimingSteps:
		pos := "end"
		if f.JumpStart {
			pos = "start"
		}
		return fmt.Sprintf("steps(%d, %s)", f.Steps, pos)
	}
	return "ease"
}

// Apply eases progress, clamped to 0..1.
//
// The bezier curves are evaluated as y(t) directly, treating the input as
// the curve parameter; x1 and x2 do not influence the result.
func (f TimingFunction) Apply(progress float64) float64 {
	t := math.Max(0, math.Min(1, progress))
	switch f.Kind {
	case TimingLinear:
		return t
	case TimingEase:
		return bezierY(t, 0.1, 1) // cubic-bezier(0.25, 0.1, 0.25, 1)
	case TimingEaseIn, TimingEaseOut, TimingEaseInOut:
		// ease-in (0.42,0,1,1), ease-out (0,0,0.58,1) and ease-in-out
		// (0.42,0,0.58,1) share y1=0, y2=1.
		return bezierY(t, 0, 1)
	case TimingCubicBezier:
		return bezierY(t, f.Y1, f.Y2)
	case TimingSteps:
		if f.Steps <= 0 {
			return t
		}
		n := float64(f.Steps)
		if f.JumpStart {
			return math.Min(math.Ceil(t*n)/n, 1)
		}
		return math.Max(math.Floor(t*n)/n, 0)
	}
	return t
}

// bezierY evaluates the y component of a cubic Bernstein curve with
// endpoints (0,0) and (1,1).
func bezierY(t, y1, y2 float64) float64 {
	mt := 1 - t
	return 3*mt*mt*t*y1 + 3*mt*t*t*y2 + t*t*t
}

// ParseTimingFunction parses a timing keyword, cubic-bezier() or steps().
func ParseTimingFunction(s string) (TimingFunction, error) {
	return parseTimingTokens(trimWhitespace(tokenize(s)))
}

func parseTimingTokens(toks []Token) (TimingFunction, error) {
	if len(toks) == 0 {
		return TimingFunction{}, fmt.Errorf("empty timing function")
	}
	if len(toks) == 1 && toks[0].Type == csslex.IdentToken {
		if tf, ok := timingKeyword(toks[0].Data); ok {
			return tf, nil
		}
		return TimingFunction{}, fmt.Errorf("unknown timing function %q", toks[0].Data)
	}
	if toks[0].Type != csslex.FunctionToken || toks[len(toks)-1].Type != csslex.RightParenthesisToken {
		return TimingFunction{}, fmt.Errorf("invalid timing function %q", joinTokens(toks))
	}

	var args []Token
	for _, g := range splitCommas(toks[1 : len(toks)-1]) {
		if len(g) != 1 {
			return TimingFunction{}, fmt.Errorf("invalid timing function %q", joinTokens(toks))
		}
		args = append(args, g[0])
	}

	switch toks[0].functionName() {
	case "cubic-bezier":
		if len(args) != 4 {
			return TimingFunction{}, fmt.Errorf("cubic-bezier needs 4 arguments, got %d", len(args))
		}
		var v [4]float64
		for i, a := range args {
			n, unit, ok := a.number()
			if !ok || unit != "" || a.Type != csslex.NumberToken {
				return TimingFunction{}, fmt.Errorf("cubic-bezier: invalid number %q", a.Data)
			}
			v[i] = n
		}
		return TimingFunction{Kind: TimingCubicBezier, X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}, nil
	case "steps":
		if len(args) < 1 || len(args) > 2 {
			return TimingFunction{}, fmt.Errorf("steps needs 1 or 2 arguments, got %d", len(args))
		}
		n, err := strconv.Atoi(args[0].Data)
		if err != nil || n <= 0 {
			return TimingFunction{}, fmt.Errorf("steps: invalid count %q", args[0].Data)
		}
		tf := TimingFunction{Kind: TimingSteps, Steps: n}
		if len(args) == 2 {
			switch {
			case args[1].isIdent("start"), args[1].isIdent("jump-start"):
				tf.JumpStart = true
			case args[1].isIdent("end"), args[1].isIdent("jump-end"):
			default:
				return TimingFunction{}, fmt.Errorf("steps: invalid position %q", args[1].Data)
			}
		}
		return tf, nil
	}
	return TimingFunction{}, fmt.Errorf("unknown timing function %q", toks[0].Data)
}

func timingKeyword(s string) (TimingFunction, bool) {
	switch strings.ToLower(s) {
	case "linear":
		return TimingFunction{Kind: TimingLinear}, true
	case "ease":
		return TimingFunction{Kind: TimingEase}, true
	case "ease-in":
		return TimingFunction{Kind: TimingEaseIn}, true
	case "ease-out":
		return TimingFunction{Kind: TimingEaseOut}, true
	case "ease-in-out":
		return TimingFunction{Kind: TimingEaseInOut}, true
	case "step-start":
		return TimingFunction{Kind: TimingSteps, Steps: 1, JumpStart: true}, true
	case "step-end":
		return TimingFunction{Kind: TimingSteps, Steps: 1}, true
	}
	return TimingFunction{}, false
}

// AnimationDirection controls playback direction across iterations.
type AnimationDirection int

const (
	DirectionNormal AnimationDirection = iota
	DirectionReverse
	DirectionAlternate
	DirectionAlternateReverse
)

// AnimationFillMode controls styles outside the active interval.
type AnimationFillMode int

const (
	FillNone AnimationFillMode = iota
	FillForwards
	FillBackwards
	FillBoth
)

// AnimationConfig mirrors one entry of the animation-* properties.
type AnimationConfig struct {
	Name           string
	Duration       float64 // seconds
	TimingFunction TimingFunction
	Delay          float64 // seconds
	IterationCount float64 // math.Inf(1) for infinite
	Direction      AnimationDirection
	FillMode       AnimationFillMode
}

// NewAnimationConfig returns a config with CSS initial values.
func NewAnimationConfig(name string, duration float64) AnimationConfig {
	return AnimationConfig{
		Name:           name,
		Duration:       duration,
		TimingFunction: Ease,
		IterationCount: 1,
	}
}

// ParseAnimation parses the animation shorthand. Comma-separated layers
// yield one config each. The first time value is the duration and the
// second the delay.
func ParseAnimation(value string) ([]AnimationConfig, error) {
	toks := trimWhitespace(tokenize(value))
	if len(toks) == 0 {
		return nil, &PropertyError{Kind: ErrKindEmptyValue, Property: "animation"}
	}
	var out []AnimationConfig
	for _, layer := range splitCommas(toks) {
		cfg, err := parseAnimationLayer(layer)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, nil
}

func parseAnimationLayer(toks []Token) (AnimationConfig, error) {
	cfg := NewAnimationConfig("", 0)
	timeSeen := 0
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch t.Type {
		case csslex.WhitespaceToken:
			continue
		case csslex.FunctionToken:
			end := i + 1
			for end < len(toks) && toks[end].Type != csslex.RightParenthesisToken {
				end++
			}
			if end >= len(toks) {
				return cfg, fmt.Errorf("animation: unterminated %s", t.Data)
			}
			tf, err := parseTimingTokens(toks[i : end+1])
			if err != nil {
				return cfg, err
			}
			cfg.TimingFunction = tf
			i = end
		case csslex.DimensionToken:
			secs, err := parseTime(t)
			if err != nil {
				return cfg, err
			}
			if timeSeen == 0 {
				cfg.Duration = secs
			} else {
				cfg.Delay = secs
			}
			timeSeen++
		case csslex.NumberToken:
			n, _, _ := t.number()
			if n < 0 {
				return cfg, fmt.Errorf("animation: negative iteration count %q", t.Data)
			}
			cfg.IterationCount = n
		case csslex.IdentToken, csslex.StringToken:
			if t.Type == csslex.StringToken {
				cfg.Name = unquote(t.Data)
				continue
			}
			if tf, ok := timingKeyword(t.Data); ok {
				cfg.TimingFunction = tf
				continue
			}
			switch strings.ToLower(t.Data) {
			case "infinite":
				cfg.IterationCount = math.Inf(1)
			case "normal":
				cfg.Direction = DirectionNormal
			case "reverse":
				cfg.Direction = DirectionReverse
			case "alternate":
				cfg.Direction = DirectionAlternate
			case "alternate-reverse":
				cfg.Direction = DirectionAlternateReverse
			case "forwards":
				cfg.FillMode = FillForwards
			case "backwards":
				cfg.FillMode = FillBackwards
			case "both":
				cfg.FillMode = FillBoth
			case "running", "paused":
			default:
				cfg.Name = t.Data
			}
		default:
			return cfg, fmt.Errorf("animation: unexpected %q", t.Data)
		}
	}
	return cfg, nil
}

func parseTime(t Token) (float64, error) {
	v, unit, ok := t.number()
	if !ok {
		return 0, fmt.Errorf("invalid time %q", t.Data)
	}
	switch unit {
	case "s":
		return v, nil
	case "ms":
		return v / 1000, nil
	}
	return 0, &PropertyError{Kind: ErrKindUnsupportedUnit, Property: "animation", Value: unit}
}
