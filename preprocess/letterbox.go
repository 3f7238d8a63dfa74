package preprocess

import (
	"math"

	"github.com/swdee/go-zonecount/postprocess"
)

// Letterbox calculates the scale and padding needed to fit a source image
// into the destination size whilst maintaining image aspect
func Letterbox(srcWidth, srcHeight, destWidth, destHeight int) (lb postprocess.Letterbox, resizeW, resizeH int) {

	resizeW = destWidth
	resizeH = destHeight

	scaleW := float64(destWidth) / float64(srcWidth)
	scaleH := float64(destHeight) / float64(srcHeight)
	scale := scaleH

	if scaleW < scaleH {
		scale = scaleW
		resizeH = int(math.Round(float64(srcHeight) * scale))
	} else {
		resizeW = int(math.Round(float64(srcWidth) * scale))
	}

	lb = postprocess.Letterbox{
		Scale:     scale,
		XPad:      float64((destWidth - resizeW) / 2),
		YPad:      float64((destHeight - resizeH) / 2),
		SrcWidth:  srcWidth,
		SrcHeight: srcHeight,
	}

	return lb, resizeW, resizeH
}
