package canvas

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"
)

// ParsePathData parses SVG path data ("M0 0 L10 0 Z") into a path. All
// commands are supported in absolute and relative form; elliptical arcs are
// converted to cubic curves.
func ParsePathData(d string) (*path.Data, error) {
	p := pathParser{src: d}
	return p.parse()
}

type pathParser struct {
	src string
	pos int

	out     *path.Data
	cur     vec.Vec2
	start   vec.Vec2
	lastCtl vec.Vec2 // reflected control point for S and T
	lastCmd byte
}

func (p *pathParser) parse() (*path.Data, error) {
	p.out = &path.Data{}
	var cmd byte
	for {
		p.skipSeparators()
		if p.pos >= len(p.src) {
			break
		}
		c := p.src[p.pos]
		if isPathCommand(c) {
			cmd = c
			p.pos++
		} else if cmd == 0 {
			return nil, fmt.Errorf("path data: expected command at offset %d", p.pos)
		} else if cmd == 'Z' || cmd == 'z' {
			return nil, fmt.Errorf("path data: unexpected %q after close at offset %d", c, p.pos)
		}
		if err := p.command(cmd); err != nil {
			return nil, err
		}
		// Coordinates following a moveto are implicit linetos.
		switch cmd {
		case 'M':
			cmd = 'L'
		case 'm':
			cmd = 'l'
		}
	}
	return p.out, nil
}

func isPathCommand(c byte) bool {
	return strings.IndexByte("MmLlHhVvCcSsQqTtAaZz", c) >= 0
}

func (p *pathParser) command(cmd byte) error {
	rel := cmd >= 'a'
	var origin vec.Vec2
	if rel {
		origin = p.cur
	}
	pt := func() (vec.Vec2, error) {
		x, err := p.number()
		if err != nil {
			return vec.Vec2{}, err
		}
		y, err := p.number()
		if err != nil {
			return vec.Vec2{}, err
		}
		return vec.Vec2{X: origin.X + x, Y: origin.Y + y}, nil
	}

	switch cmd {
	case 'M', 'm':
		v, err := pt()
		if err != nil {
			return err
		}
		p.out.MoveTo(v)
		p.cur, p.start, p.lastCtl = v, v, v
	case 'L', 'l':
		v, err := pt()
		if err != nil {
			return err
		}
		p.lineTo(v)
	case 'H', 'h':
		x, err := p.number()
		if err != nil {
			return err
		}
		if rel {
			x += p.cur.X
		}
		p.lineTo(vec.Vec2{X: x, Y: p.cur.Y})
	case 'V', 'v':
		y, err := p.number()
		if err != nil {
			return err
		}
		if rel {
			y += p.cur.Y
		}
		p.lineTo(vec.Vec2{X: p.cur.X, Y: y})
	case 'Q', 'q':
		c, err := pt()
		if err != nil {
			return err
		}
		v, err := pt()
		if err != nil {
			return err
		}
		p.quadTo(c, v)
	case 'T', 't':
		v, err := pt()
		if err != nil {
			return err
		}
		c := p.cur
		if p.lastCmd == 'Q' || p.lastCmd == 'T' {
			c = p.cur.Mul(2).Sub(p.lastCtl)
		}
		p.quadTo(c, v)
		p.lastCmd = 'T'
	case 'C', 'c':
		c1, err := pt()
		if err != nil {
			return err
		}
		c2, err := pt()
		if err != nil {
			return err
		}
		v, err := pt()
		if err != nil {
			return err
		}
		p.cubeTo(c1, c2, v)
	case 'S', 's':
		c2, err := pt()
		if err != nil {
			return err
		}
		v, err := pt()
		if err != nil {
			return err
		}
		c1 := p.cur
		if p.lastCmd == 'C' || p.lastCmd == 'S' {
			c1 = p.cur.Mul(2).Sub(p.lastCtl)
		}
		p.cubeTo(c1, c2, v)
		p.lastCmd = 'S'
	case 'A', 'a':
		var r [3]float64
		for i := range r {
			f, err := p.number()
			if err != nil {
				return err
			}
			r[i] = f
		}
		large, err := p.flag()
		if err != nil {
			return err
		}
		sweep, err := p.flag()
		if err != nil {
			return err
		}
		v, err := pt()
		if err != nil {
			return err
		}
		p.arcTo(r[0], r[1], r[2]*math.Pi/180, large, sweep, v)
	case 'Z', 'z':
		p.out.Close()
		p.cur, p.lastCtl = p.start, p.start
		p.lastCmd = 'Z'
		return nil
	}
	if up := cmd &^ 0x20; up != 'S' && up != 'T' {
		p.lastCmd = up
	}
	return nil
}

func (p *pathParser) lineTo(v vec.Vec2) {
	p.out.LineTo(v)
	p.cur, p.lastCtl = v, v
}

func (p *pathParser) quadTo(c, v vec.Vec2) {
	p.out.QuadTo(c, v)
	p.cur, p.lastCtl = v, c
}

func (p *pathParser) cubeTo(c1, c2, v vec.Vec2) {
	p.out.CubeTo(c1, c2, v)
	p.cur, p.lastCtl = v, c2
}

// arcTo appends an elliptical arc as cubic segments of at most 90 degrees,
// using the endpoint-to-center conversion of the SVG implementation notes.
func (p *pathParser) arcTo(rx, ry, phi float64, large, sweep bool, end vec.Vec2) {
	start := p.cur
	rx, ry = math.Abs(rx), math.Abs(ry)
	if start == end {
		return
	}
	if nearZero(rx) || nearZero(ry) {
		p.lineTo(end)
		return
	}
	sinPhi, cosPhi := math.Sincos(phi)
	dx, dy := (start.X-end.X)/2, (start.Y-end.Y)/2
	x1 := cosPhi*dx + sinPhi*dy
	y1 := -sinPhi*dx + cosPhi*dy

	// Scale radii up when the endpoints are too far apart.
	if l := x1*x1/(rx*rx) + y1*y1/(ry*ry); l > 1 {
		s := math.Sqrt(l)
		rx, ry = rx*s, ry*s
	}
	num := rx*rx*ry*ry - rx*rx*y1*y1 - ry*ry*x1*x1
	den := rx*rx*y1*y1 + ry*ry*x1*x1
	coef := math.Sqrt(math.Max(num/den, 0))
	if large == sweep {
		coef = -coef
	}
	cx1 := coef * rx * y1 / ry
	cy1 := -coef * ry * x1 / rx
	cx := cosPhi*cx1 - sinPhi*cy1 + (start.X+end.X)/2
	cy := sinPhi*cx1 + cosPhi*cy1 + (start.Y+end.Y)/2

	angle := func(ux, uy, vx, vy float64) float64 {
		return math.Atan2(ux*vy-uy*vx, ux*vx+uy*vy)
	}
	theta1 := angle(1, 0, (x1-cx1)/rx, (y1-cy1)/ry)
	delta := angle((x1-cx1)/rx, (y1-cy1)/ry, (-x1-cx1)/rx, (-y1-cy1)/ry)
	if !sweep && delta > 0 {
		delta -= 2 * math.Pi
	} else if sweep && delta < 0 {
		delta += 2 * math.Pi
	}

	segs := int(math.Ceil(math.Abs(delta) / (math.Pi / 2)))
	step := delta / float64(segs)
	k := 4.0 / 3.0 * math.Tan(step/4)
	onEllipse := func(t float64) (vec.Vec2, vec.Vec2) {
		st, ct := math.Sincos(t)
		px := cx + rx*ct*cosPhi - ry*st*sinPhi
		py := cy + rx*ct*sinPhi + ry*st*cosPhi
		// derivative
		tx := -rx*st*cosPhi - ry*ct*sinPhi
		ty := -rx*st*sinPhi + ry*ct*cosPhi
		return vec.Vec2{X: px, Y: py}, vec.Vec2{X: tx, Y: ty}
	}
	t := theta1
	from, dFrom := onEllipse(t)
	for i := 0; i < segs; i++ {
		t += step
		to, dTo := onEllipse(t)
		if i == segs-1 {
			to = end
		}
		p.out.CubeTo(from.Add(dFrom.Mul(k)), to.Sub(dTo.Mul(k)), to)
		from, dFrom = to, dTo
	}
	p.cur, p.lastCtl = end, end
}

func (p *pathParser) skipSeparators() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r', ',':
			p.pos++
		default:
			return
		}
	}
}

func (p *pathParser) number() (float64, error) {
	p.skipSeparators()
	start := p.pos
	i := p.pos
	if i < len(p.src) && (p.src[i] == '+' || p.src[i] == '-') {
		i++
	}
	digits, dot := false, false
	for ; i < len(p.src); i++ {
		c := p.src[i]
		if c >= '0' && c <= '9' {
			digits = true
			continue
		}
		if c == '.' && !dot {
			dot = true
			continue
		}
		break
	}
	if digits && i < len(p.src) && (p.src[i] == 'e' || p.src[i] == 'E') {
		j := i + 1
		if j < len(p.src) && (p.src[j] == '+' || p.src[j] == '-') {
			j++
		}
		if j < len(p.src) && p.src[j] >= '0' && p.src[j] <= '9' {
			for j < len(p.src) && p.src[j] >= '0' && p.src[j] <= '9' {
				j++
			}
			i = j
		}
	}
	if !digits {
		return 0, fmt.Errorf("path data: expected number at offset %d", start)
	}
	f, err := strconv.ParseFloat(p.src[start:i], 64)
	if err != nil {
		return 0, fmt.Errorf("path data: %w", err)
	}
	p.pos = i
	return f, nil
}

// flag reads an arc flag, which may be packed without separators ("a1 1 0 11 5 5").
func (p *pathParser) flag() (bool, error) {
	p.skipSeparators()
	if p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '0':
			p.pos++
			return false, nil
		case '1':
			p.pos++
			return true, nil
		}
	}
	return false, fmt.Errorf("path data: expected arc flag at offset %d", p.pos)
}

// FormatPathData writes a path as absolute SVG path data. ParsePathData of
// the result reproduces the same commands and coordinates.
func FormatPathData(d *path.Data) string {
	if d == nil {
		return ""
	}
	var sb strings.Builder
	ci := 0
	point := func() {
		v := d.Coords[ci]
		ci++
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatFloat(v.X, 'g', -1, 64))
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatFloat(v.Y, 'g', -1, 64))
	}
	for i, cmd := range d.Cmds {
		if i > 0 {
			sb.WriteByte(' ')
		}
		switch cmd {
		case path.CmdMoveTo:
			sb.WriteByte('M')
			point()
		case path.CmdLineTo:
			sb.WriteByte('L')
			point()
		case path.CmdQuadTo:
			sb.WriteByte('Q')
			point()
			point()
		case path.CmdCubeTo:
			sb.WriteByte('C')
			point()
			point()
			point()
		case path.CmdClose:
			sb.WriteByte('Z')
		}
	}
	return sb.String()
}
