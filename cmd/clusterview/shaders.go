package main

// Fullscreen triangle, no vertex buffers.
const vertexShader = `#version 410 core
void main() {
    vec2 p = vec2((gl_VertexID << 1) & 2, gl_VertexID & 2);
    gl_Position = vec4(p * 2.0 - 1.0, 0.0, 1.0);
}
`

// Colors every pixel by the cluster it maps to: light count as a heat ramp,
// or the summed color of the cluster's lights.
const fragmentShader = `#version 410 core
layout(std140) uniform ClusterUniforms {
    uint dimX;
    uint dimY;
    uint dimZ;
    uint lightCount;
    float cellWidth;
    float cellHeight;
    float cellDepth;
    float far;
};

uniform usamplerBuffer u_ranges;
uniform usamplerBuffer u_indices;
uniform samplerBuffer u_lights;

uniform int u_slice;      // depth slice to show, -1 for all
uniform int u_mode;       // 0 heat, 1 light color
uniform float u_capacity; // max lights per cluster

out vec4 fragColor;

vec3 heat(float t) {
    t = clamp(t, 0.0, 1.0);
    vec3 cold = vec3(0.02, 0.02, 0.12);
    vec3 warm = vec3(0.9, 0.25, 0.05);
    vec3 hot = vec3(1.0, 0.95, 0.6);
    return t < 0.5 ? mix(cold, warm, t * 2.0) : mix(warm, hot, t * 2.0 - 1.0);
}

vec3 clusterColor(int idx) {
    uvec2 r = texelFetch(u_ranges, idx).xy;
    vec3 sum = vec3(0.0);
    for (uint n = 0u; n < r.y; n++) {
        int light = int(texelFetch(u_indices, int(r.x + n)).r);
        sum += texelFetch(u_lights, light * 2 + 1).rgb;
    }
    return sum;
}

void main() {
    float py = cellHeight * float(dimY) - gl_FragCoord.y;
    int i = min(int(gl_FragCoord.x / cellWidth), int(dimX) - 1);
    int j = clamp(int(py / cellHeight), 0, int(dimY) - 1);
    int plane = int(dimX * dimY);

    int k0 = u_slice < 0 ? 0 : min(u_slice, int(dimZ) - 1);
    int k1 = u_slice < 0 ? int(dimZ) : k0 + 1;

    float count = 0.0;
    vec3 color = vec3(0.0);
    for (int k = k0; k < k1; k++) {
        int idx = i + j * int(dimX) + k * plane;
        count = max(count, float(texelFetch(u_ranges, idx).y));
        if (u_mode == 1) {
            color += clusterColor(idx);
        }
    }

    vec3 c = u_mode == 1 ? color / float(k1 - k0) : heat(count / u_capacity);

    // Tile borders
    vec2 cell = vec2(cellWidth, cellHeight);
    vec2 f = mod(vec2(gl_FragCoord.x, py), cell);
    if (f.x < 1.0 || f.y < 1.0) {
        c = mix(c, vec3(0.3), 0.5);
    }
    fragColor = vec4(c, 1.0);
}
`

// Cluster box overlay. Vertices arrive in the culling view's space.
const lineVertexShader = `#version 410 core
layout(location = 0) in vec3 a_position;
uniform mat4 u_toClip;
void main() {
    gl_Position = u_toClip * vec4(a_position, 1.0);
}
`

const lineFragmentShader = `#version 410 core
uniform vec3 u_color;
out vec4 fragColor;
void main() {
    fragColor = vec4(u_color, 1.0);
}
`
