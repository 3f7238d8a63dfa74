package preprocess

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/swdee/go-zonecount/postprocess"
)

// Resizer defines the struct used for handling image resizing
type Resizer struct {
	// destWidth is the width to scale to
	destWidth int
	// destHeight is the height to scale to
	destHeight int
	// tempMat is a Mat used during the resize process
	tempMat gocv.Mat
	// letterbox parameters used in scaling
	lb postprocess.Letterbox
	// resize dimensions
	resizeW int
	resizeH int
}

// NewResizer returns a resizer used for scaling an image to the needed
// dimensions for input tensor size
func NewResizer(srcWidth, srcHeight, destWidth, destHeight int) *Resizer {
	r := &Resizer{
		destWidth:  destWidth,
		destHeight: destHeight,
		tempMat:    gocv.NewMat(),
	}

	// precalculate scaling dimensions
	r.lb, r.resizeW, r.resizeH = Letterbox(srcWidth, srcHeight, destWidth, destHeight)

	return r
}

// Close frees memory allocated during resize process
func (r *Resizer) Close() error {
	return r.tempMat.Close()
}

// LetterBoxResize resizes the input image to the dimensions needed for the input
// tensor size whilst maintaining image aspect.  Color is that used for letter
// box padding.
func (r *Resizer) LetterBoxResize(src gocv.Mat, dest *gocv.Mat, color color.RGBA) {

	xPad, yPad := int(r.lb.XPad), int(r.lb.YPad)

	gocv.Resize(src, &r.tempMat, image.Pt(r.resizeW, r.resizeH),
		0, 0, gocv.InterpolationArea)

	gocv.CopyMakeBorder(r.tempMat, dest, yPad, r.destHeight-r.resizeH-yPad,
		xPad, r.destWidth-r.resizeW-xPad, gocv.BorderConstant, color)
}

// Letterbox returns the scale and padding used so detections can be mapped
// back to the source image
func (r *Resizer) Letterbox() postprocess.Letterbox {
	return r.lb
}

// Matches reports whether the resizer was created for a source of this size
func (r *Resizer) Matches(srcWidth, srcHeight int) bool {
	return r.lb.SrcWidth == srcWidth && r.lb.SrcHeight == srcHeight
}
