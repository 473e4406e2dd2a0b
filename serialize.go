package canvas

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.jetify.com/typeid/v2"
	"seehuhn.de/go/geom/vec"
)

// IDPrefix is the typeid prefix of generated record IDs.
const IDPrefix = "shape"

// NewID returns a fresh record ID ("shape_01h...").
func NewID() string {
	return typeid.MustGenerate(IDPrefix).String()
}

// ValidateID reports whether id is a well-formed record ID.
func ValidateID(id string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", id, err)
	}
	if parsed.Prefix() != IDPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", IDPrefix, parsed.Prefix(), id)
	}
	return nil
}

// Record is the host exchange form of a shape subtree.
type Record struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Name       string          `json:"name,omitempty"`
	Attributes map[string]any  `json:"attributes,omitempty"`
	Transform  TransformRecord `json:"transform"`
	Children   []Record        `json:"children,omitempty"`
}

// TransformRecord holds a node's local transform properties.
type TransformRecord struct {
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	ScaleX   *float64 `json:"sx,omitempty"` // nil reads as 1
	ScaleY   *float64 `json:"sy,omitempty"`
	Rotation float64  `json:"r"`
	SkewX    float64  `json:"kx,omitempty"`
	SkewY    float64  `json:"ky,omitempty"`
	PivotX   float64  `json:"px,omitempty"`
	PivotY   float64  `json:"py,omitempty"`
}

// DecodeOptions configures Deserialize.
type DecodeOptions struct {
	// Glyphs is assigned to every decoded text shape.
	Glyphs GlyphSupplier
	// KeepIDs keeps record IDs that are not typeids instead of rejecting
	// the record.
	KeepIDs bool
}

// --- Serialize ---

// Serialize converts n and its subtree to records. Nodes without an ID are
// assigned a fresh one, so serializing twice yields the same IDs.
func Serialize(n *Node) Record {
	if n.id == "" {
		n.id = NewID()
	}
	rec := Record{
		ID:         n.id,
		Type:       n.kind.String(),
		Name:       n.Name,
		Attributes: make(map[string]any),
		Transform: TransformRecord{
			X: n.tf.x, Y: n.tf.y,
			ScaleX: ptr(n.tf.scaleX), ScaleY: ptr(n.tf.scaleY),
			Rotation: n.tf.rotation,
			SkewX:    n.tf.skewX, SkewY: n.tf.skewY,
			PivotX: n.tf.pivotX, PivotY: n.tf.pivotY,
		},
	}
	encodeCommon(n, rec.Attributes)
	encodeGeometry(n.geom, rec.Attributes)
	if len(n.children) > 0 {
		rec.Children = make([]Record, len(n.children))
		for i, c := range n.children {
			rec.Children[i] = Serialize(c)
		}
	}
	return rec
}

func encodeCommon(n *Node, m map[string]any) {
	if !n.visible {
		m["visible"] = false
	}
	if !n.renderable {
		m["renderable"] = false
	}
	if n.zIndex != 0 {
		m["zIndex"] = n.zIndex
	}
	if n.kind == KindGroup {
		if n.attrs.Opacity != 1 {
			m["opacity"] = n.attrs.Opacity
		}
		if n.attrs.PointerEvents != PointerEventsAuto {
			m["pointerEvents"] = n.attrs.PointerEvents.String()
		}
		return
	}
	a := &n.attrs
	m["fill"] = FormatColor(a.Fill)
	m["stroke"] = FormatColor(a.Stroke)
	m["strokeWidth"] = a.StrokeWidth
	m["strokeAlignment"] = strokeAlignNames[a.StrokeAlignment]
	m["strokeLinecap"] = lineCapNames[a.StrokeCap]
	m["strokeLinejoin"] = lineJoinNames[a.StrokeJoin]
	m["miterLimit"] = a.MiterLimit
	m["opacity"] = a.Opacity
	m["fillOpacity"] = a.FillOpacity
	m["strokeOpacity"] = a.StrokeOpacity
	m["pointerEvents"] = a.PointerEvents.String()
	encodeShadow(m, "shadow", a.DropShadow)
	encodeShadow(m, "innerShadow", a.InnerShadow)
}

func encodeShadow(m map[string]any, prefix string, s Shadow) {
	if s.Color.IsNone() {
		return
	}
	m[prefix+"Color"] = FormatColor(s.Color)
	m[prefix+"OffsetX"] = s.OffsetX
	m[prefix+"OffsetY"] = s.OffsetY
	m[prefix+"Blur"] = s.Blur
}

func encodeGeometry(g Geometry, m map[string]any) {
	switch g := g.(type) {
	case *CircleGeometry:
		m["cx"], m["cy"], m["r"] = g.CX, g.CY, g.R
	case *EllipseGeometry:
		m["cx"], m["cy"], m["rx"], m["ry"] = g.CX, g.CY, g.RX, g.RY
	case *RectGeometry:
		m["x"], m["y"] = g.X, g.Y
		m["width"], m["height"] = g.Width, g.Height
		m["cornerRadius"] = g.CornerRadius
	case *PathGeometry:
		m["d"] = FormatPathData(g.Data)
		if g.FillRule == FillEvenOdd {
			m["fillRule"] = "evenodd"
		} else {
			m["fillRule"] = "nonzero"
		}
	case *PolylineGeometry:
		m["points"] = formatPoints(g.Points)
	case *TextGeometry:
		m["content"] = g.Content
		m["fontSize"] = g.FontSize
		if g.LineHeight != 0 {
			m["lineHeight"] = g.LineHeight
		}
		if g.LetterSpacing != 0 {
			m["letterSpacing"] = g.LetterSpacing
		}
		if g.WrapWidth != 0 {
			m["wrapWidth"] = g.WrapWidth
		}
		m["textAlign"] = textAlignNames[g.Align]
	}
}

// --- Deserialize ---

// Deserialize builds a detached subtree from rec. A corrupt root record
// fails with an error wrapping ErrCorruptRecord. A corrupt descendant is
// skipped along with its subtree: the returned node is valid and the error
// joins one ErrCorruptRecord-wrapping error per skipped record.
func Deserialize(rec Record, opts DecodeOptions) (*Node, error) {
	var errs []error
	n, err := deserialize(&rec, &opts, &errs)
	if err != nil {
		return nil, err
	}
	return n, errors.Join(errs...)
}

func deserialize(rec *Record, opts *DecodeOptions, errs *[]error) (*Node, error) {
	n, err := decodeNode(rec, opts)
	if err != nil {
		return nil, err
	}
	for i := range rec.Children {
		c, err := deserialize(&rec.Children[i], opts, errs)
		if err != nil {
			Logger().Warn("canvas: skipping corrupt record", "id", rec.Children[i].ID, "err", err)
			*errs = append(*errs, err)
			continue
		}
		_ = n.AddChild(c) // fresh nodes never cycle
	}
	return n, nil
}

func decodeNode(rec *Record, opts *DecodeOptions) (*Node, error) {
	corrupt := func(format string, args ...any) error {
		return fmt.Errorf("%w: record %q: %s", ErrCorruptRecord, rec.ID, fmt.Sprintf(format, args...))
	}
	kind, err := ParseShapeKind(rec.Type)
	if err != nil {
		return nil, corrupt("%v %q", err, rec.Type)
	}
	if rec.ID != "" && !opts.KeepIDs {
		if err := ValidateID(rec.ID); err != nil {
			return nil, corrupt("%v", err)
		}
	}
	a := attrReader{m: rec.Attributes}
	g, err := decodeGeometry(kind, &a, opts)
	if err != nil {
		return nil, corrupt("%v", err)
	}
	n, err := NewShape(rec.Name, kind, g)
	if err != nil {
		return nil, corrupt("%v", err)
	}
	n.id = rec.ID

	t := rec.Transform
	sx, sy := valueOr(t.ScaleX, 1), valueOr(t.ScaleY, 1)
	for _, v := range [...]float64{t.X, t.Y, sx, sy, t.Rotation, t.SkewX, t.SkewY, t.PivotX, t.PivotY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, corrupt("non-finite transform")
		}
	}
	n.SetPosition(t.X, t.Y)
	n.SetScale(sx, sy)
	n.SetRotation(t.Rotation)
	n.SetSkew(t.SkewX, t.SkewY)
	n.SetPivot(t.PivotX, t.PivotY)

	attrs := DefaultAttributes()
	decodeCommon(&a, &attrs)
	n.SetAttributes(attrs)
	n.SetVisible(a.bool("visible", true))
	n.SetRenderable(a.bool("renderable", true))
	n.zIndex = int(a.num("zIndex", 0))
	if a.err != nil {
		return nil, corrupt("%v", a.err)
	}
	return n, nil
}

func decodeCommon(a *attrReader, attrs *RenderAttributes) {
	attrs.Fill = a.color("fill", attrs.Fill)
	attrs.Stroke = a.color("stroke", attrs.Stroke)
	attrs.StrokeWidth = a.num("strokeWidth", attrs.StrokeWidth)
	attrs.StrokeAlignment = StrokeAlignment(a.enum("strokeAlignment", strokeAlignNames[:], int(attrs.StrokeAlignment)))
	attrs.StrokeCap = LineCap(a.enum("strokeLinecap", lineCapNames[:], int(attrs.StrokeCap)))
	attrs.StrokeJoin = LineJoin(a.enum("strokeLinejoin", lineJoinNames[:], int(attrs.StrokeJoin)))
	attrs.MiterLimit = a.num("miterLimit", attrs.MiterLimit)
	attrs.Opacity = clamp01(a.num("opacity", attrs.Opacity))
	attrs.FillOpacity = clamp01(a.num("fillOpacity", attrs.FillOpacity))
	attrs.StrokeOpacity = clamp01(a.num("strokeOpacity", attrs.StrokeOpacity))
	attrs.PointerEvents = ParsePointerEvents(a.str("pointerEvents", "auto"))
	attrs.DropShadow = a.shadow("shadow")
	attrs.InnerShadow = a.shadow("innerShadow")
}

func decodeGeometry(kind ShapeKind, a *attrReader, opts *DecodeOptions) (Geometry, error) {
	var g Geometry
	switch kind {
	case KindGroup:
		return nil, nil
	case KindCircle:
		g = &CircleGeometry{CX: a.num("cx", 0), CY: a.num("cy", 0), R: a.num("r", 0)}
	case KindEllipse:
		g = &EllipseGeometry{CX: a.num("cx", 0), CY: a.num("cy", 0), RX: a.num("rx", 0), RY: a.num("ry", 0)}
	case KindRect:
		g = &RectGeometry{
			X: a.num("x", 0), Y: a.num("y", 0),
			Width: a.num("width", 0), Height: a.num("height", 0),
			CornerRadius: a.num("cornerRadius", 0),
		}
	case KindPath:
		pg := &PathGeometry{}
		if d := a.str("d", ""); d != "" {
			data, err := ParsePathData(d)
			if err != nil {
				return nil, err
			}
			pg.Data = data
		}
		if a.str("fillRule", "nonzero") == "evenodd" {
			pg.FillRule = FillEvenOdd
		}
		g = pg
	case KindPolyline:
		pts, err := parsePoints(a.str("points", ""))
		if err != nil {
			return nil, err
		}
		g = &PolylineGeometry{Points: pts}
	case KindText:
		g = &TextGeometry{
			Content:       a.str("content", ""),
			FontSize:      a.num("fontSize", 16),
			LineHeight:    a.num("lineHeight", 0),
			LetterSpacing: a.num("letterSpacing", 0),
			WrapWidth:     a.num("wrapWidth", 0),
			Align:         TextAlign(a.enum("textAlign", textAlignNames[:], 0)),
			Supplier:      opts.Glyphs,
		}
	}
	return g, a.err
}

// --- JSON ---

// MarshalJSON encodes n's subtree as indented JSON records.
func MarshalJSON(n *Node) ([]byte, error) {
	return json.MarshalIndent(Serialize(n), "", "  ")
}

// UnmarshalJSON decodes a JSON record tree. The error semantics are those
// of Deserialize.
func UnmarshalJSON(data []byte, opts DecodeOptions) (*Node, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return Deserialize(rec, opts)
}

// --- Attribute values ---

var (
	strokeAlignNames = [...]string{"center", "inner", "outer"}
	lineCapNames     = [...]string{"butt", "round", "square"}
	lineJoinNames    = [...]string{"miter", "bevel", "round"}
	textAlignNames   = [...]string{"left", "center", "right"}
)

// attrReader reads typed attribute values and keeps the first error.
type attrReader struct {
	m   map[string]any
	err error
}

func (a *attrReader) fail(key string, v any, want string) {
	if a.err == nil {
		a.err = fmt.Errorf("attribute %q: %v is not a %s", key, v, want)
	}
}

func (a *attrReader) num(key string, def float64) float64 {
	v, ok := a.m[key]
	if !ok || v == nil {
		return def
	}
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		p, err := x.Float64()
		if err != nil {
			a.fail(key, v, "number")
			return def
		}
		f = p
	default:
		a.fail(key, v, "number")
		return def
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		a.fail(key, v, "finite number")
		return def
	}
	return f
}

func (a *attrReader) str(key, def string) string {
	v, ok := a.m[key]
	if !ok || v == nil {
		return def
	}
	s, ok := v.(string)
	if !ok {
		a.fail(key, v, "string")
		return def
	}
	return s
}

func (a *attrReader) bool(key string, def bool) bool {
	v, ok := a.m[key]
	if !ok || v == nil {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		a.fail(key, v, "bool")
		return def
	}
	return b
}

func (a *attrReader) enum(key string, names []string, def int) int {
	s := a.str(key, "")
	if s == "" {
		return def
	}
	for i, name := range names {
		if name == s {
			return i
		}
	}
	a.fail(key, s, "one of "+strings.Join(names, ", "))
	return def
}

func (a *attrReader) color(key string, def Color) Color {
	s := a.str(key, "")
	if s == "" {
		return def
	}
	c, err := ParseColor(s)
	if err != nil {
		a.fail(key, s, "color")
		return def
	}
	return c
}

func (a *attrReader) shadow(prefix string) Shadow {
	return Shadow{
		Color:   a.color(prefix+"Color", ColorNone),
		OffsetX: a.num(prefix+"OffsetX", 0),
		OffsetY: a.num(prefix+"OffsetY", 0),
		Blur:    a.num(prefix+"Blur", 0),
	}
}

// FormatColor writes c as "#rrggbb", "#rrggbbaa" when translucent, or
// "none".
func FormatColor(c Color) string {
	if c.IsNone() {
		return "none"
	}
	b := func(v float64) byte { return byte(math.Round(clamp01(v) * 255)) }
	if c.A >= 1 {
		return fmt.Sprintf("#%02x%02x%02x", b(c.R), b(c.G), b(c.B))
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", b(c.R), b(c.G), b(c.B), b(c.A))
}

// ParseColor parses "none", "#rgb", "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (Color, error) {
	switch s {
	case "none", "transparent":
		return ColorNone, nil
	case "black":
		return ColorBlack, nil
	case "white":
		return ColorWhite, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return ColorNone, fmt.Errorf("invalid color %q", s)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return ColorNone, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return ColorNone, fmt.Errorf("invalid color %q", s)
	}
	return Color{
		R: float64(v>>24&0xff) / 255,
		G: float64(v>>16&0xff) / 255,
		B: float64(v>>8&0xff) / 255,
		A: float64(v&0xff) / 255,
	}, nil
}

func formatPoints(pts []Vec2) string {
	var sb strings.Builder
	for i, p := range pts {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.FormatFloat(p.X, 'g', -1, 64))
		sb.WriteByte(',')
		sb.WriteString(strconv.FormatFloat(p.Y, 'g', -1, 64))
	}
	return sb.String()
}

// parsePoints parses an SVG points list ("0,0 10,0 10 10").
func parsePoints(s string) ([]Vec2, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields)%2 != 0 {
		return nil, fmt.Errorf("points: odd number of coordinates")
	}
	pts := make([]Vec2, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		x, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, fmt.Errorf("points: %w", err)
		}
		y, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("points: %w", err)
		}
		pts = append(pts, vec.Vec2{X: x, Y: y})
	}
	return pts, nil
}

func ptr(v float64) *float64 { return &v }

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
