//go:build gocv

package vision

import (
	"image"

	"gocv.io/x/gocv"
)

// findRects runs Canny and contour extraction through OpenCV. The Canny
// thresholds use EdgeThreshold as the low bound and twice it as the high bound.
func findRects(img *image.NRGBA, cfg DetectionConfig) []image.Rectangle {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, float32(cfg.EdgeThreshold), float32(cfg.EdgeThreshold*2))

	if cfg.DilateIterations > 0 {
		kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
		defer kernel.Close()
		for i := 0; i < cfg.DilateIterations; i++ {
			gocv.Dilate(edges, &edges, kernel)
		}
	}

	contours := gocv.FindContours(edges, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer contours.Close()

	rects := make([]image.Rectangle, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		rects = append(rects, gocv.BoundingRect(contours.At(i)))
	}
	return rects
}
