package ui

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
)

// BytesPerPixel is the size of one pixel in every Frame and raw stream.
const BytesPerPixel = 4

// Frame is a captured pixel buffer, non-premultiplied RGBA, rows packed
// without padding.
type Frame struct {
	Width  int
	Height int
	Pix    []byte
}

// NewFrame allocates a transparent frame.
func NewFrame(width, height int) *Frame {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*BytesPerPixel),
	}
}

// FrameFromImage copies img into a new frame.
func FrameFromImage(img image.Image) *Frame {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return &Frame{Width: b.Dx(), Height: b.Dy(), Pix: dst.Pix}
}

// Image returns an image view sharing the frame's pixels.
func (f *Frame) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    f.Pix,
		Stride: f.Width * BytesPerPixel,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}

// Size returns the number of bytes in the pixel buffer.
func (f *Frame) Size() int {
	return f.Width * f.Height * BytesPerPixel
}

// WritePNG encodes the frame as PNG.
func (f *Frame) WritePNG(w io.Writer) error {
	if f.Width == 0 || f.Height == 0 {
		return fmt.Errorf("encode png: empty frame %dx%d", f.Width, f.Height)
	}
	return png.Encode(w, f.Image())
}

// BGRA returns the pixels in B, G, R, A byte order, the layout encoders
// expect for rawvideo input with pixel format bgra.
func (f *Frame) BGRA() []byte {
	out := make([]byte, len(f.Pix))
	for i := 0; i+3 < len(f.Pix); i += BytesPerPixel {
		out[i] = f.Pix[i+2]
		out[i+1] = f.Pix[i+1]
		out[i+2] = f.Pix[i]
		out[i+3] = f.Pix[i+3]
	}
	return out
}

// Fit returns a frame of exactly width x height: larger frames are cropped
// from the top-left corner, smaller ones padded with transparent pixels.
// The receiver is returned unchanged when it already has that size.
func (f *Frame) Fit(width, height int) *Frame {
	if f.Width == width && f.Height == height {
		return f
	}
	out := NewFrame(width, height)
	rows := min(height, f.Height)
	rowBytes := min(width, f.Width) * BytesPerPixel
	for y := 0; y < rows; y++ {
		src := f.Pix[y*f.Width*BytesPerPixel:]
		dst := out.Pix[y*width*BytesPerPixel:]
		copy(dst[:rowBytes], src[:rowBytes])
	}
	return out
}

// Crop returns the part of the frame inside r, clipped to the frame.
func (f *Frame) Crop(r image.Rectangle) *Frame {
	r = r.Intersect(image.Rect(0, 0, f.Width, f.Height))
	out := NewFrame(r.Dx(), r.Dy())
	rowBytes := r.Dx() * BytesPerPixel
	for y := 0; y < r.Dy(); y++ {
		src := f.Pix[((r.Min.Y+y)*f.Width+r.Min.X)*BytesPerPixel:]
		copy(out.Pix[y*rowBytes:(y+1)*rowBytes], src[:rowBytes])
	}
	return out
}
