package tui

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/revolute/internal/experiment"
	"github.com/san-kum/revolute/internal/multibody"
	"github.com/san-kum/revolute/internal/scalar"
)

type pose struct {
	origin mgl64.Vec3
	rot    mgl64.Mat3
}

type segment struct {
	from, to mgl64.Vec3
	joint    int
}

// chainSegments places every frame in world coordinates, each link one unit
// long along its own x axis, and returns one segment per joint.
func chainSegments(m *experiment.Model[scalar.Real]) []segment {
	poses := map[string]pose{multibody.WorldFrameName: {rot: mgl64.Ident3()}}
	segs := make([]segment, 0, len(m.Joints))

	pending := make([]int, len(m.Joints))
	for i := range pending {
		pending[i] = i
	}
	for len(pending) > 0 {
		next := pending[:0]
		for _, i := range pending {
			j := m.Joints[i]
			parent, ok := poses[j.FrameOnParent().Name()]
			if !ok {
				next = append(next, i)
				continue
			}
			r, err := j.CalcRotation(m.Context)
			if err != nil {
				continue
			}
			rot := parent.rot.Mul3(r.Values())
			end := parent.origin.Add(rot.Mul3x1(mgl64.Vec3{1, 0, 0}))
			poses[j.FrameOnChild().Name()] = pose{origin: end, rot: rot}
			segs = append(segs, segment{from: parent.origin, to: end, joint: i})
		}
		if len(next) == len(pending) {
			break
		}
		pending = next
	}
	return segs
}

// drawChain renders a top view (x right, y up) of the chain.
func drawChain(canvas [][]rune, w, h int, segs []segment, selected int) {
	if len(segs) == 0 {
		return
	}
	reach := 1.0
	for _, s := range segs {
		reach = math.Max(reach, math.Max(math.Abs(s.to.X()), math.Abs(s.to.Y())))
	}
	sx := float64(w/2-2) / reach
	sy := float64(h/2-1) / reach
	cx, cy := w/2, h/2
	px := func(v mgl64.Vec3) (int, int) {
		return cx + int(math.Round(v.X()*sx)), cy - int(math.Round(v.Y()*sy))
	}

	for _, s := range segs {
		x1, y1 := px(s.from)
		x2, y2 := px(s.to)
		c := '·'
		if s.joint == selected {
			c = '█'
		}
		drawLine(canvas, w, h, x1, y1, x2, y2, c)
		set(canvas, x2, y2, '◉', w, h)
	}
	set(canvas, cx, cy, '╋', w, h)
}

func set(canvas [][]rune, x, y int, c rune, w, h int) {
	if x >= 0 && x < w && y >= 0 && y < h {
		canvas[y][x] = c
	}
}

func drawLine(canvas [][]rune, w, h, x1, y1, x2, y2 int, c rune) {
	dx := intAbs(x2 - x1)
	dy := intAbs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		set(canvas, x1, y1, c, w, h)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func intAbs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
