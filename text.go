package canvas

// GlyphMetrics describes one glyph cluster at a given font size.
type GlyphMetrics struct {
	// Advance is the horizontal pen advance.
	Advance float64
	// Quad is the glyph box relative to the pen position on the baseline
	// (Y negative above the baseline).
	Quad Rect
	// Atlas is the glyph's pixel rectangle in the supplier's atlas.
	Atlas Rect
}

// GlyphSupplier provides pre-rasterized glyphs and their metrics. The canvas
// only positions and draws quads; rasterization and shaping belong to the
// supplier.
type GlyphSupplier interface {
	// Glyph returns metrics for a grapheme cluster, or false if the cluster
	// has no glyph.
	Glyph(cluster string, size float64) (GlyphMetrics, bool)
	// Kerning returns the pen adjustment between two adjacent clusters.
	Kerning(left, right string, size float64) float64
	// LineMetrics returns the ascent and descent (both positive) for a size.
	LineMetrics(size float64) (ascent, descent float64)
	// Atlas returns the RGBA8 atlas pixels, their dimensions, and a version
	// that changes whenever the pixels do.
	Atlas() (pixels []byte, width, height int, version uint64)
}

// TextGeometry is laid-out text anchored with its first line's top at the
// local origin.
type TextGeometry struct {
	Content       string
	FontSize      float64
	LineHeight    float64 // 0 = 1.2 * FontSize
	LetterSpacing float64
	WrapWidth     float64 // 0 = no wrapping
	Align         TextAlign
	Supplier      GlyphSupplier
}

// Kind implements Geometry.
func (*TextGeometry) Kind() ShapeKind { return KindText }

func (g *TextGeometry) lineHeight() float64 {
	if g.LineHeight > 0 {
		return g.LineHeight
	}
	return g.FontSize * 1.2
}

// GlyphQuad is one positioned glyph in local space with normalized atlas
// coordinates.
type GlyphQuad struct {
	X, Y, W, H     float64
	U0, V0, U1, V1 float64
}

// TextLine is one laid-out line.
type TextLine struct {
	X, Y, Width, Height float64
	First, Count        int // range in TextLayout.Glyphs
}

// TextLayout is the cached result of laying out a TextGeometry.
type TextLayout struct {
	Glyphs []GlyphQuad
	Lines  []TextLine
	Bounds AABB
}

// contains reports whether (x, y) falls inside any line box.
func (l *TextLayout) contains(x, y float64) bool {
	for _, ln := range l.Lines {
		if x >= ln.X && x <= ln.X+ln.Width && y >= ln.Y && y <= ln.Y+ln.Height {
			return true
		}
	}
	return false
}

// TextLayout returns the node's laid-out glyphs, cached until the geometry
// changes. Returns nil for non-text nodes or text without a supplier.
func (n *Node) TextLayout() *TextLayout {
	g, ok := n.geom.(*TextGeometry)
	if !ok || g.Supplier == nil {
		return nil
	}
	if n.text != nil && n.textSeen == n.geomVersion {
		return n.text
	}
	split := DefaultGraphemeSplitter
	if n.scene != nil && n.scene.platform.Graphemes != nil {
		split = n.scene.platform.Graphemes
	}
	n.text = layoutText(g, split, n.text)
	n.textSeen = n.geomVersion
	return n.text
}

// layoutText positions glyph quads line by line, wrapping at spaces when
// WrapWidth is set, then applies alignment within the widest line (or
// WrapWidth when wrapping). Line widths exclude trailing spaces.
func layoutText(g *TextGeometry, split GraphemeSplitter, reuse *TextLayout) *TextLayout {
	l := reuse
	if l == nil {
		l = &TextLayout{}
	}
	l.Glyphs = l.Glyphs[:0]
	l.Lines = l.Lines[:0]
	l.Bounds = EmptyAABB()

	size := g.FontSize
	lh := g.lineHeight()
	ascent, _ := g.Supplier.LineMetrics(size)
	_, aw, ah, _ := g.Supplier.Atlas()
	atlasW, atlasH := float64(aw), float64(ah)
	if atlasW <= 0 {
		atlasW = 1
	}
	if atlasH <= 0 {
		atlasH = 1
	}

	var (
		lineStart  = 0
		cursorX    float64
		prev       string
		wordStart  = 0 // glyph index where the current word begins
		wordStartX float64
		inWord     bool
		inkX       float64 // end of the last non-space cluster on the line
		wordInkX   float64
	)
	baseline := func() float64 { return float64(len(l.Lines))*lh + ascent }
	flush := func(width float64) {
		y := float64(len(l.Lines)) * lh
		l.Lines = append(l.Lines, TextLine{
			Y: y, Width: width, Height: lh,
			First: lineStart, Count: len(l.Glyphs) - lineStart,
		})
		lineStart = len(l.Glyphs)
		cursorX = 0
		prev = ""
		inWord = false
		inkX = 0
	}

	for _, cluster := range split(g.Content) {
		if cluster == "\n" || cluster == "\r\n" {
			flush(inkX)
			continue
		}
		m, ok := g.Supplier.Glyph(cluster, size)
		if !ok {
			m, ok = g.Supplier.Glyph("�", size)
			if !ok {
				m = GlyphMetrics{Advance: size / 2}
			}
		}
		if prev != "" {
			cursorX += g.Supplier.Kerning(prev, cluster, size)
		}
		space := cluster == " " || cluster == "\t"
		if space {
			inWord = false
		} else if !inWord {
			inWord = true
			wordStart = len(l.Glyphs)
			wordStartX = cursorX
			wordInkX = inkX
		}

		if !space && g.WrapWidth > 0 && cursorX+m.Advance > g.WrapWidth && wordStart > lineStart {
			// Move the current word to a new line.
			moved := append([]GlyphQuad(nil), l.Glyphs[wordStart:]...)
			l.Glyphs = l.Glyphs[:wordStart]
			x := cursorX
			flush(wordInkX)
			for _, q := range moved {
				q.X -= wordStartX
				q.Y += lh
				l.Glyphs = append(l.Glyphs, q)
			}
			cursorX = x - wordStartX
			inkX = cursorX
			wordStart = lineStart
			wordStartX = 0
			inWord = true
		}

		if m.Quad.Width > 0 && m.Quad.Height > 0 {
			l.Glyphs = append(l.Glyphs, GlyphQuad{
				X:  cursorX + m.Quad.X,
				Y:  baseline() + m.Quad.Y,
				W:  m.Quad.Width,
				H:  m.Quad.Height,
				U0: m.Atlas.X / atlasW,
				V0: m.Atlas.Y / atlasH,
				U1: (m.Atlas.X + m.Atlas.Width) / atlasW,
				V1: (m.Atlas.Y + m.Atlas.Height) / atlasH,
			})
		}
		cursorX += m.Advance + g.LetterSpacing
		if !space {
			inkX = cursorX
		}
		prev = cluster
	}
	if cursorX > 0 || len(l.Glyphs) > lineStart || len(l.Lines) == 0 {
		flush(inkX)
	}

	var maxW float64
	for _, ln := range l.Lines {
		if ln.Width > maxW {
			maxW = ln.Width
		}
	}
	alignW := maxW
	if g.WrapWidth > 0 {
		alignW = g.WrapWidth
	}
	for li := range l.Lines {
		ln := &l.Lines[li]
		var offsetX float64
		switch g.Align {
		case TextAlignCenter:
			offsetX = (alignW - ln.Width) / 2
		case TextAlignRight:
			offsetX = alignW - ln.Width
		}
		ln.X = offsetX
		for gi := ln.First; gi < ln.First+ln.Count; gi++ {
			l.Glyphs[gi].X += offsetX
		}
		if ln.Width > 0 {
			l.Bounds.AddPoint(ln.X, ln.Y)
			l.Bounds.AddPoint(ln.X+ln.Width, ln.Y+ln.Height)
		}
	}
	for _, q := range l.Glyphs {
		l.Bounds.AddPoint(q.X, q.Y)
		l.Bounds.AddPoint(q.X+q.W, q.Y+q.H)
	}
	return l
}
