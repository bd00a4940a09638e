package preview

import (
	"image/color"
	"math"
)

type knot struct{ at, v float64 }

// Bone channel ramps, a blue-tinted grayscale.
var (
	boneRed   = []knot{{0, 0}, {0.746032, 0.652778}, {1, 1}}
	boneGreen = []knot{{0, 0}, {0.365079, 0.319444}, {0.746032, 0.777778}, {1, 1}}
	boneBlue  = []knot{{0, 0}, {0.365079, 0.444444}, {1, 1}}
)

// Bone maps t in [0, 1] to the bone colormap. Values outside are clamped.
func Bone(t float64) color.RGBA {
	if math.IsNaN(t) {
		t = 0
	}
	t = math.Max(0, math.Min(1, t))
	return color.RGBA{
		R: channel(boneRed, t),
		G: channel(boneGreen, t),
		B: channel(boneBlue, t),
		A: 255,
	}
}

func channel(ramp []knot, t float64) uint8 {
	for i := 1; i < len(ramp); i++ {
		a, b := ramp[i-1], ramp[i]
		if t <= b.at {
			v := a.v + (t-a.at)/(b.at-a.at)*(b.v-a.v)
			return uint8(math.Round(v * 255))
		}
	}
	return 255
}
