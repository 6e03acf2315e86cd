package camera

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/stellar/config"
)

func testCamera(t *testing.T) *Orbit {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	return New(cfg.Camera, 1280, 720)
}

func near(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

func TestNew(t *testing.T) {
	cam := testCamera(t)

	eye := cam.Eye()
	if !near(eye.X, 0, 1e-9) || !near(eye.Y, 30, 1e-9) || !near(eye.Z, 130, 1e-9) {
		t.Errorf("expected eye at (0, 30, 130), got %v", eye)
	}
	if !near(cam.Distance, math.Hypot(30, 130), 1e-9) {
		t.Errorf("expected distance %f, got %f", math.Hypot(30, 130), cam.Distance)
	}
}

func TestProjectTargetCentered(t *testing.T) {
	cam := testCamera(t)

	// Target should map to screen center
	sx, sy, depth, ok := cam.Project(r3.Vec{})
	if !ok {
		t.Fatal("target not visible")
	}
	if !near(sx, 640, 0.01) || !near(sy, 360, 0.01) {
		t.Errorf("expected screen center (640, 360), got (%f, %f)", sx, sy)
	}
	if !near(depth, cam.Distance, 1e-9) {
		t.Errorf("expected depth %f, got %f", cam.Distance, depth)
	}
}

func TestProjectOrientation(t *testing.T) {
	cam := testCamera(t)

	testCases := []struct {
		name   string
		p      r3.Vec
		checkX func(float64) bool
		checkY func(float64) bool
	}{
		{"right", r3.Vec{X: 10}, func(x float64) bool { return x > 640 }, func(y float64) bool { return near(y, 360, 0.01) }},
		{"left", r3.Vec{X: -10}, func(x float64) bool { return x < 640 }, func(y float64) bool { return near(y, 360, 0.01) }},
		{"up", r3.Vec{Y: 10}, func(x float64) bool { return near(x, 640, 0.01) }, func(y float64) bool { return y < 360 }},
		{"down", r3.Vec{Y: -10}, func(x float64) bool { return near(x, 640, 0.01) }, func(y float64) bool { return y > 360 }},
	}

	for _, tc := range testCases {
		sx, sy, _, ok := cam.Project(tc.p)
		if !ok || !tc.checkX(sx) || !tc.checkY(sy) {
			t.Errorf("%s: projected to (%f, %f) ok=%v", tc.name, sx, sy, ok)
		}
	}
}

func TestProjectBehindCamera(t *testing.T) {
	cam := testCamera(t)
	if _, _, _, ok := cam.Project(r3.Vec{Y: 30, Z: 200}); ok {
		t.Error("point behind the camera should not project")
	}
}

func TestDampedRotation(t *testing.T) {
	cam := testCamera(t)
	cam.Rotate(1, 0)

	cam.Update()
	first := cam.Theta
	if !near(first, cam.Damping, 1e-9) {
		t.Errorf("expected first step %f, got %f", cam.Damping, first)
	}

	for i := 0; i < 2000; i++ {
		cam.Update()
	}
	// Geometric series converges on the full input
	if !near(cam.Theta, 1, 1e-6) {
		t.Errorf("expected theta to converge to 1, got %f", cam.Theta)
	}
}

func TestZoomClamped(t *testing.T) {
	cam := testCamera(t)
	cam.Zoom(1e-6)
	for i := 0; i < 500; i++ {
		cam.Update()
	}
	if cam.Distance < cam.MinDist-1e-9 {
		t.Errorf("distance %f below minimum %f", cam.Distance, cam.MinDist)
	}

	cam.Reset()
	if !near(cam.Distance, math.Hypot(30, 130), 1e-9) {
		t.Errorf("Reset distance = %f", cam.Distance)
	}
}

func TestPhiClamped(t *testing.T) {
	cam := testCamera(t)
	cam.Rotate(0, -10)
	for i := 0; i < 500; i++ {
		cam.Update()
	}
	if cam.Phi <= 0 || math.IsNaN(cam.Eye().X) {
		t.Errorf("phi = %f eye = %v", cam.Phi, cam.Eye())
	}
}
