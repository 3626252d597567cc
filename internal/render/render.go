// Package render produces the dim overlay pixels.
package render

// BytesPerPixel is the ARGB8888 pixel size used by every buffer gloam
// creates.
const BytesPerPixel = 4

// Buffer fills a width x height ARGB8888 (little-endian, premultiplied)
// buffer with translucent black at the given alpha. Pixels falling outside
// the rounded-corner arc but inside a radius-sized corner box are forced
// fully opaque, which carves an approximate rounded-rectangle cutout into
// the screen. Single pass, no anti-aliasing; the viewport scales the result
// so cheapness matters more than edge quality.
func Buffer(alpha float64, radius, width, height int) []byte {
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	if radius < 0 {
		radius = 0
	}

	a := byte(alpha * 255)
	buf := make([]byte, width*height*BytesPerPixel)
	for y := 0; y < height; y++ {
		row := buf[y*width*BytesPerPixel : (y+1)*width*BytesPerPixel]
		for x := 0; x < width; x++ {
			px := a
			if inCorner(x, y, width, height, radius) {
				px = 0xff
			}
			// Premultiplied black: color channels stay zero, only A is set.
			row[x*BytesPerPixel+3] = px
		}
	}
	return buf
}

// inCorner reports whether (x, y) lies in one of the four radius-sized
// corner boxes and farther than radius from that corner's rounding origin.
func inCorner(x, y, width, height, radius int) bool {
	if radius <= 0 {
		return false
	}

	var cx, cy int
	switch {
	case x < radius && y < radius:
		cx, cy = radius, radius
	case x >= width-radius && y < radius:
		cx, cy = width-radius-1, radius
	case x < radius && y >= height-radius:
		cx, cy = radius, height-radius-1
	case x >= width-radius && y >= height-radius:
		cx, cy = width-radius-1, height-radius-1
	default:
		return false
	}

	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy > radius*radius
}
