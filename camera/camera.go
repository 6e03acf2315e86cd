// Package camera provides a damped orbit camera with perspective projection.
package camera

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/stellar/config"
)

// Pitch is kept away from the poles so the basis stays defined.
const poleEpsilon = 1e-4

var worldUp = r3.Vec{X: 0, Y: 1, Z: 0}

// Orbit circles a target point. Input accumulates into angular and zoom
// velocities that Update bleeds off by the damping factor each frame.
type Orbit struct {
	Target r3.Vec

	// Spherical coordinates around Target (theta around Y, phi from +Y)
	Distance float64
	Theta    float64
	Phi      float64

	// Pending deltas, consumed by Update
	dTheta, dPhi float64
	zoomScale    float64

	Damping          float64
	FOV              float64 // Vertical, degrees
	Near, Far        float64
	MinDist, MaxDist float64

	// Viewport dimensions in pixels
	ViewportW, ViewportH float64

	home      r3.Vec
	eye       r3.Vec
	right, up r3.Vec
	forward   r3.Vec
	focal     float64
}

// New creates an orbit camera looking at the origin from cfg.Position.
func New(cfg config.CameraConfig, viewportW, viewportH float64) *Orbit {
	o := &Orbit{
		Damping:   cfg.Damping,
		FOV:       cfg.FOV,
		Near:      cfg.Near,
		Far:       cfg.Far,
		MinDist:   cfg.MinDist,
		MaxDist:   cfg.MaxDist,
		ViewportW: viewportW,
		ViewportH: viewportH,
		home:      r3.Vec{X: cfg.Position[0], Y: cfg.Position[1], Z: cfg.Position[2]},
		zoomScale: 1,
	}
	if o.FOV <= 0 {
		o.FOV = 40
	}
	if o.Near <= 0 {
		o.Near = 1
	}
	if o.Far <= o.Near {
		o.Far = 10000
	}
	o.Reset()
	return o
}

// Reset returns the camera to its starting placement and drops pending motion.
func (o *Orbit) Reset() {
	o.Target = r3.Vec{}
	offset := r3.Sub(o.home, o.Target)
	o.Distance = r3.Norm(offset)
	if o.Distance == 0 {
		o.Distance = 1
		offset = r3.Vec{Z: 1}
	}
	o.Theta = math.Atan2(offset.X, offset.Z)
	o.Phi = math.Acos(clamp(offset.Y/o.Distance, -1, 1))
	o.dTheta, o.dPhi, o.zoomScale = 0, 0, 1
	o.updateBasis()
}

// Rotate queues an orbit by the given angles in radians.
func (o *Orbit) Rotate(dTheta, dPhi float64) {
	o.dTheta += dTheta
	o.dPhi += dPhi
}

// Zoom queues a dolly; factors below 1 move closer.
func (o *Orbit) Zoom(factor float64) {
	if factor > 0 {
		o.zoomScale *= factor
	}
}

// Update applies pending motion with damping and refreshes the view basis.
func (o *Orbit) Update() {
	d := o.Damping
	if d <= 0 || d > 1 {
		d = 1
	}

	o.Theta += o.dTheta * d
	o.Phi = clamp(o.Phi+o.dPhi*d, poleEpsilon, math.Pi-poleEpsilon)
	o.dTheta *= 1 - d
	o.dPhi *= 1 - d

	o.Distance *= math.Pow(o.zoomScale, d)
	o.zoomScale = math.Pow(o.zoomScale, 1-d)
	if o.MaxDist > o.MinDist && o.MinDist > 0 {
		o.Distance = clamp(o.Distance, o.MinDist, o.MaxDist)
	}

	o.updateBasis()
}

// Resize updates the viewport dimensions.
func (o *Orbit) Resize(viewportW, viewportH float64) {
	if viewportW == o.ViewportW && viewportH == o.ViewportH {
		return
	}
	o.ViewportW = viewportW
	o.ViewportH = viewportH
	o.updateBasis()
}

func (o *Orbit) updateBasis() {
	sinPhi := math.Sin(o.Phi)
	offset := r3.Vec{
		X: o.Distance * sinPhi * math.Sin(o.Theta),
		Y: o.Distance * math.Cos(o.Phi),
		Z: o.Distance * sinPhi * math.Cos(o.Theta),
	}
	o.eye = r3.Add(o.Target, offset)
	o.forward = r3.Unit(r3.Sub(o.Target, o.eye))
	o.right = r3.Unit(r3.Cross(o.forward, worldUp))
	o.up = r3.Cross(o.right, o.forward)
	o.focal = (o.ViewportH / 2) / math.Tan(o.FOV*math.Pi/360)
}

// Eye returns the camera position.
func (o *Orbit) Eye() r3.Vec { return o.eye }

// Focal returns the projection scale in pixels per unit at depth 1.
func (o *Orbit) Focal() float64 { return o.focal }

// Project maps a world point to screen pixels. depth is the view-space
// distance along the viewing direction; ok is false outside the clip range.
func (o *Orbit) Project(p r3.Vec) (sx, sy, depth float64, ok bool) {
	v := r3.Sub(p, o.eye)
	depth = r3.Dot(v, o.forward)
	if depth < o.Near || depth > o.Far {
		return 0, 0, depth, false
	}
	k := o.focal / depth
	sx = o.ViewportW/2 + r3.Dot(v, o.right)*k
	sy = o.ViewportH/2 - r3.Dot(v, o.up)*k
	return sx, sy, depth, true
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
