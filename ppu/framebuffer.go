package ppu

// ScreenWidth and ScreenHeight are the DMG LCD's fixed dimensions.
const (
	ScreenWidth  = 160
	ScreenHeight = 144
)

// FrameBuffer holds one rendered frame as 2-bit shade indices (0 = lightest,
// 3 = darkest), one byte per pixel for simplicity of indexing and testing.
type FrameBuffer struct {
	pixels [ScreenWidth * ScreenHeight]uint8
}

// NewFrameBuffer returns a cleared (all-white) framebuffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

// At returns the shade index at (x, y).
func (f *FrameBuffer) At(x, y int) uint8 {
	return f.pixels[y*ScreenWidth+x]
}

func (f *FrameBuffer) set(x, y int, shade uint8) {
	f.pixels[y*ScreenWidth+x] = shade
}

// Pixels returns the raw shade-index slice, row-major, for comparison in
// tests or consumption by a host renderer.
func (f *FrameBuffer) Pixels() []uint8 {
	return f.pixels[:]
}
