package ai

import (
	"fmt"
	"image"
	"os"

	"faceoverlay/internal/models"

	"gocv.io/x/gocv"
)

// yunetColumns is the row width of FaceDetectorYN output: box (4),
// five landmarks (10), score (1).
const yunetColumns = 15

// localizer finds face boxes with OpenCV's YuNet detector.
type localizer struct {
	modelPath      string
	scoreThreshold float32
	nmsThreshold   float32
	topK           int

	detector  gocv.FaceDetectorYN
	inputSize image.Point
	loaded    bool
}

func newLocalizer(modelPath string, scoreThreshold, nmsThreshold float32) *localizer {
	return &localizer{
		modelPath:      modelPath,
		scoreThreshold: scoreThreshold,
		nmsThreshold:   nmsThreshold,
		topK:           5000,
	}
}

func (l *localizer) load() error {
	if _, err := os.Stat(l.modelPath); err != nil {
		return fmt.Errorf("face detector model: %w", err)
	}

	l.inputSize = image.Pt(320, 320)
	l.detector = gocv.NewFaceDetectorYNWithParams(
		l.modelPath, "", l.inputSize,
		l.scoreThreshold, l.nmsThreshold, l.topK,
		int(gocv.NetBackendDefault), int(gocv.NetTargetCPU),
	)
	l.loaded = true
	return nil
}

// detect returns face boxes in img pixel space.
func (l *localizer) detect(img gocv.Mat) ([]models.Box, error) {
	if !l.loaded {
		return nil, fmt.Errorf("face detector not loaded")
	}

	size := image.Pt(img.Cols(), img.Rows())
	if size != l.inputSize {
		l.detector.SetInputSize(size)
		l.inputSize = size
	}

	faces := gocv.NewMat()
	defer faces.Close()

	l.detector.Detect(img, &faces)

	if faces.Empty() || faces.Cols() < yunetColumns {
		return nil, nil
	}

	boxes := make([]models.Box, 0, faces.Rows())
	for r := 0; r < faces.Rows(); r++ {
		boxes = append(boxes, models.Box{
			X:      float64(faces.GetFloatAt(r, 0)),
			Y:      float64(faces.GetFloatAt(r, 1)),
			Width:  float64(faces.GetFloatAt(r, 2)),
			Height: float64(faces.GetFloatAt(r, 3)),
		})
	}
	return boxes, nil
}

func (l *localizer) close() {
	if l.loaded {
		l.detector.Close()
		l.loaded = false
	}
}
