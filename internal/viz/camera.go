package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	defaultFOV      = 45.0
	defaultDistance = 3.0
	minZoom         = 0.05
	maxZoom         = 50.0
)

// Camera projects world positions onto the canvas. World coordinates are
// first normalised by Extent around Center so a fitted universe spans [-1, 1],
// then rotated by Pitch (about x) and Yaw (about z). The default looks down
// the z axis onto the orbital plane.
type Camera struct {
	Center     r3.Vec
	Extent     float64
	Yaw, Pitch float64
	Zoom       float64
	FOV        float64
	Distance   float64
}

func NewCamera() *Camera {
	return &Camera{Extent: 1, Zoom: 1, FOV: defaultFOV, Distance: defaultDistance}
}

// Fit centres the view on the positions and scales it so the farthest one
// lands inside the frame.
func (c *Camera) Fit(positions []r3.Vec) {
	if len(positions) == 0 {
		return
	}
	var sum r3.Vec
	for _, p := range positions {
		sum = r3.Add(sum, p)
	}
	c.Center = r3.Scale(1/float64(len(positions)), sum)

	extent := 0.0
	for _, p := range positions {
		extent = math.Max(extent, r3.Norm(r3.Sub(p, c.Center)))
	}
	if extent == 0 {
		extent = 1
	}
	c.Extent = 1.1 * extent
}

func (c *Camera) Rotate(dyaw, dpitch float64) {
	c.Yaw += dyaw
	c.Pitch = math.Max(-math.Pi/2, math.Min(math.Pi/2, c.Pitch+dpitch))
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(maxZoom, c.Zoom*1.25) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(minZoom, c.Zoom/1.25) }

func (c *Camera) Reset() {
	c.Yaw, c.Pitch, c.Zoom = 0, 0, 1
}

func (c *Camera) modelView() mgl64.Mat4 {
	view := mgl64.LookAtV(
		mgl64.Vec3{0, 0, c.Distance},
		mgl64.Vec3{0, 0, 0},
		mgl64.Vec3{0, 1, 0},
	)
	model := mgl64.HomogRotate3DX(-c.Pitch).
		Mul4(mgl64.HomogRotate3DZ(c.Yaw)).
		Mul4(mgl64.Scale3D(c.Zoom, c.Zoom, c.Zoom))
	return view.Mul4(model)
}

// Project maps p to canvas sub-pixel coordinates for a w×h pixel canvas.
// depth grows away from the camera; ok is false when p falls outside the
// view.
func (c *Camera) Project(p r3.Vec, w, h int) (x, y int, depth float64, ok bool) {
	rel := r3.Scale(1/c.Extent, r3.Sub(p, c.Center))
	proj := mgl64.Perspective(mgl64.DegToRad(c.FOV), float64(w)/float64(h), 0.01, 100)
	win := mgl64.Project(mgl64.Vec3{rel.X, rel.Y, rel.Z}, c.modelView(), proj, 0, 0, w, h)
	if win.Z() < 0 || win.Z() > 1 {
		return 0, 0, 0, false
	}
	x = int(math.Floor(win.X()))
	y = int(math.Floor(float64(h) - win.Y()))
	return x, y, win.Z(), x >= 0 && x < w && y >= 0 && y < h
}
