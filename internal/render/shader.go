package render

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Lights is the stage light rig: ambient term, a key light and a fill light.
// Directions point from the surface towards the light.
type Lights struct {
	Ambient       [3]float32
	KeyDir        [3]float32
	KeyIntensity  float32
	FillDir       [3]float32
	FillIntensity float32
}

// loadLitShader returns a shader that does ambient + key + fill directional lighting.
// Same vertex attributes as raylib meshes: vertexPosition, vertexTexCoord, vertexNormal.
func loadLitShader() rl.Shader {
	return rl.LoadShaderFromMemory(litVS, litFS)
}

const (
	litVS = `#version 330
in vec3 vertexPosition;
in vec2 vertexTexCoord;
in vec3 vertexNormal;
uniform mat4 matProjection;
uniform mat4 matView;
uniform mat4 matModel;
out vec3 fragPosition;
out vec3 fragNormal;
void main() {
  vec4 worldPos = matModel * vec4(vertexPosition, 1.0);
  fragPosition = worldPos.xyz;
  fragNormal = mat3(matModel) * vertexNormal;
  gl_Position = matProjection * matView * worldPos;
}
`
	litFS = `#version 330
in vec3 fragPosition;
in vec3 fragNormal;
uniform vec4 colDiffuse;
uniform vec3 viewPos;
uniform vec3 ambient;
uniform vec3 keyDir;
uniform float keyIntensity;
uniform vec3 fillDir;
uniform float fillIntensity;
uniform float specularPower;
uniform float specularStrength;
out vec4 finalColor;
void main() {
  vec4 tint = colDiffuse;
  vec3 N = normalize(fragNormal);
  if (length(fragNormal) < 0.001) {
    N = vec3(0.0, 1.0, 0.0);
  }
  vec3 V = normalize(viewPos - fragPosition);
  vec3 K = normalize(keyDir);
  vec3 F = normalize(fillDir);
  float key = max(dot(N, K), 0.0) * keyIntensity;
  float fill = max(dot(N, F), 0.0) * fillIntensity;
  vec3 H = normalize(K + V);
  float spec = pow(max(dot(N, H), 0.0), specularPower) * specularStrength * (key > 0.0 ? 1.0 : 0.0);
  vec3 lit = tint.rgb * (ambient + key + fill) + vec3(spec);
  finalColor = vec4(lit, tint.a);
}
`
)

// defaultSpecularPower controls highlight tightness (higher = smaller, sharper highlight).
const defaultSpecularPower = float32(32.0)

// defaultSpecularStrength scales specular contribution (0 to 1).
const defaultSpecularStrength = float32(0.15)

// setLitShaderUniforms sets camera position and the light rig on shader (cgo-safe: local arrays).
func setLitShaderUniforms(shader rl.Shader, viewPos [3]float32, l Lights) {
	if !rl.IsShaderValid(shader) {
		return
	}
	vp := [3]float32{viewPos[0], viewPos[1], viewPos[2]}
	amb := [3]float32{l.Ambient[0], l.Ambient[1], l.Ambient[2]}
	key := [3]float32{l.KeyDir[0], l.KeyDir[1], l.KeyDir[2]}
	fill := [3]float32{l.FillDir[0], l.FillDir[1], l.FillDir[2]}
	if loc := rl.GetShaderLocation(shader, "viewPos"); loc >= 0 {
		rl.SetShaderValueV(shader, loc, vp[:], rl.ShaderUniformVec3, 1)
	}
	if loc := rl.GetShaderLocation(shader, "ambient"); loc >= 0 {
		rl.SetShaderValueV(shader, loc, amb[:], rl.ShaderUniformVec3, 1)
	}
	if loc := rl.GetShaderLocation(shader, "keyDir"); loc >= 0 {
		rl.SetShaderValueV(shader, loc, key[:], rl.ShaderUniformVec3, 1)
	}
	if loc := rl.GetShaderLocation(shader, "keyIntensity"); loc >= 0 {
		rl.SetShaderValue(shader, loc, []float32{l.KeyIntensity}, rl.ShaderUniformFloat)
	}
	if loc := rl.GetShaderLocation(shader, "fillDir"); loc >= 0 {
		rl.SetShaderValueV(shader, loc, fill[:], rl.ShaderUniformVec3, 1)
	}
	if loc := rl.GetShaderLocation(shader, "fillIntensity"); loc >= 0 {
		rl.SetShaderValue(shader, loc, []float32{l.FillIntensity}, rl.ShaderUniformFloat)
	}
	if loc := rl.GetShaderLocation(shader, "specularPower"); loc >= 0 {
		rl.SetShaderValue(shader, loc, []float32{defaultSpecularPower}, rl.ShaderUniformFloat)
	}
	if loc := rl.GetShaderLocation(shader, "specularStrength"); loc >= 0 {
		rl.SetShaderValue(shader, loc, []float32{defaultSpecularStrength}, rl.ShaderUniformFloat)
	}
}
