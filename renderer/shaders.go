package renderer

// bloomFragSrc composites a glow over the uploaded framebuffer. Pixels above
// threshold are gathered over a 9x9 gaussian footprint whose reach grows
// with radius.
const bloomFragSrc = `#version 330

in vec2 fragTexCoord;
in vec4 fragColor;

uniform sampler2D texture0;
uniform vec4 colDiffuse;

uniform vec2 texel;
uniform float threshold;
uniform float strength;
uniform float radius;

out vec4 finalColor;

vec3 bright(vec2 uv) {
    vec3 c = texture(texture0, uv).rgb;
    float l = dot(c, vec3(0.2126, 0.7152, 0.0722));
    return c * smoothstep(threshold, threshold + 0.1, l);
}

void main() {
    vec3 base = texture(texture0, fragTexCoord).rgb;
    float reach = 1.0 + radius * 8.0;

    vec3 glow = vec3(0.0);
    float total = 0.0;
    for (int x = -4; x <= 4; x++) {
        for (int y = -4; y <= 4; y++) {
            vec2 o = vec2(float(x), float(y));
            float w = exp(-dot(o, o) / 8.0);
            glow += bright(fragTexCoord + o * texel * reach) * w;
            total += w;
        }
    }

    finalColor = vec4(base + glow / total * strength, 1.0) * colDiffuse * fragColor;
}
`
