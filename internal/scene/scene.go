package scene

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"

	"anypose/internal/render"
)

const (
	// Camera framing for a standing humanoid about 1.7 units tall.
	cameraFovy    = 75
	minDistance   = 0.3
	maxDistance   = 50
	zoomStep      = 0.1
	orbitSpeed    = 0.005
	maxPitch      = 1.5
	groundOpacity = 0.8
)

var (
	defaultCameraPosition = rl.NewVector3(0, 0.85, 2)
	defaultCameraTarget   = rl.NewVector3(0, 1, 0)

	groundColor    = rl.NewColor(0x44, 0x44, 0x44, uint8(groundOpacity*255))
	gridMajorColor = rl.NewColor(0x66, 0x66, 0x66, 255)
	gridMinorColor = rl.NewColor(0x33, 0x33, 0x33, 255)

	// Ambient 0x404040 at intensity 0.6.
	ambientLevel = float32(0x40) / 255 * 0.6
	keyLightPos  = [3]float32{5, 10, 5}
	fillLightPos = [3]float32{-5, 5, -5}
)

// Scene is the viewer stage: an orbiting perspective camera, the light rig, a translucent
// ground plane and the floor grid. Models are drawn by the caller inside Draw.
type Scene struct {
	Camera        rl.Camera3D
	GridVisible   bool
	Size          float32
	GridDivisions int

	yaw      float32
	pitch    float32
	distance float32
}

// New returns a stage of the given ground size and grid divisions, camera at its start pose.
func New(size float32, divisions int) *Scene {
	if size <= 0 {
		size = 10
	}
	if divisions <= 0 {
		divisions = 20
	}
	s := &Scene{Size: size, GridDivisions: divisions, GridVisible: true}
	s.Camera.Up = rl.NewVector3(0, 1, 0)
	s.Camera.Fovy = cameraFovy
	s.Camera.Projection = rl.CameraPerspective
	s.ResetCamera()
	return s
}

// ResetCamera returns the camera to its start position and target.
func (s *Scene) ResetCamera() {
	s.Camera.Target = defaultCameraTarget
	s.yaw, s.pitch, s.distance = sphericalFrom(defaultCameraTarget, defaultCameraPosition)
	s.Camera.Position = orbitPosition(s.Camera.Target, s.yaw, s.pitch, s.distance)
}

// SetGridVisible sets whether the floor grid is drawn.
func (s *Scene) SetGridVisible(visible bool) {
	s.GridVisible = visible
}

// Lights returns the light rig as directions towards each light.
func (s *Scene) Lights() render.Lights {
	return render.Lights{
		Ambient:       [3]float32{ambientLevel, ambientLevel, ambientLevel},
		KeyDir:        normalize(keyLightPos),
		KeyIntensity:  1,
		FillDir:       normalize(fillLightPos),
		FillIntensity: 0.3,
	}
}

// Update orbits the camera with the left mouse button and zooms with the wheel.
// Input is ignored while captured is true (e.g. terminal open).
func (s *Scene) Update(captured bool) {
	if captured {
		return
	}
	if rl.IsMouseButtonDown(rl.MouseButtonLeft) {
		d := rl.GetMouseDelta()
		s.Orbit(-d.X*orbitSpeed, d.Y*orbitSpeed)
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		s.Zoom(wheel)
	}
	if rl.IsKeyPressed(rl.KeyR) {
		s.ResetCamera()
	}
}

// Orbit rotates the camera around its target. Pitch is clamped short of the poles.
func (s *Scene) Orbit(dYaw, dPitch float32) {
	s.yaw += dYaw
	s.pitch = clamp(s.pitch+dPitch, -maxPitch, maxPitch)
	s.Camera.Position = orbitPosition(s.Camera.Target, s.yaw, s.pitch, s.distance)
}

// Zoom moves the camera towards (positive) or away from the target.
func (s *Scene) Zoom(amount float32) {
	s.distance = clamp(s.distance*(1-amount*zoomStep), minDistance, maxDistance)
	s.Camera.Position = orbitPosition(s.Camera.Target, s.yaw, s.pitch, s.distance)
}

// Draw renders the ground and grid, then calls drawModels, all inside one 3D pass.
func (s *Scene) Draw(drawModels func(camera rl.Camera3D)) {
	rl.BeginMode3D(s.Camera)
	rl.DrawPlane(rl.NewVector3(0, 0, 0), rl.NewVector2(s.Size, s.Size), groundColor)
	if s.GridVisible {
		// Lift slightly so the lines do not z-fight with the ground.
		drawGrid(s.Size, s.GridDivisions, 0.001)
	}
	if drawModels != nil {
		drawModels(s.Camera)
	}
	rl.EndMode3D()
}

// drawGrid draws divisions×divisions cells over a size×size square on the XZ plane.
// The centre lines use the major color.
func drawGrid(size float32, divisions int, y float32) {
	half := size / 2
	step := size / float32(divisions)
	var start, end rl.Vector3
	for i := 0; i <= divisions; i++ {
		c := gridMinorColor
		if i*2 == divisions {
			c = gridMajorColor
		}
		p := -half + float32(i)*step
		start.X, start.Y, start.Z = p, y, -half
		end.X, end.Y, end.Z = p, y, half
		rl.DrawLine3D(start, end, c)
		start.X, start.Y, start.Z = -half, y, p
		end.X, end.Y, end.Z = half, y, p
		rl.DrawLine3D(start, end, c)
	}
}

// orbitPosition places the camera at distance from target along yaw (around Y) and pitch.
func orbitPosition(target rl.Vector3, yaw, pitch, distance float32) rl.Vector3 {
	cp := math32.Cos(pitch)
	return rl.NewVector3(
		target.X+distance*cp*math32.Sin(yaw),
		target.Y+distance*math32.Sin(pitch),
		target.Z+distance*cp*math32.Cos(yaw),
	)
}

// sphericalFrom is the inverse of orbitPosition.
func sphericalFrom(target, pos rl.Vector3) (yaw, pitch, distance float32) {
	dx, dy, dz := pos.X-target.X, pos.Y-target.Y, pos.Z-target.Z
	distance = math32.Sqrt(dx*dx + dy*dy + dz*dz)
	if distance == 0 {
		return 0, 0, minDistance
	}
	yaw = math32.Atan2(dx, dz)
	pitch = math32.Asin(clamp(dy/distance, -1, 1))
	return yaw, pitch, distance
}

func normalize(v [3]float32) [3]float32 {
	l := math32.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if l == 0 {
		return v
	}
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}

func clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}
