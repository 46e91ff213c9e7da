package ai

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"faceoverlay/internal/logger"
	"faceoverlay/internal/models"
	"faceoverlay/internal/services/readiness"

	"gocv.io/x/gocv"
)

// ErrUnsupportedFrame is returned when a frame does not carry a gocv image.
var ErrUnsupportedFrame = errors.New("frame has no image data")

// MatFrame is a frame backed by a BGR gocv.Mat.
type MatFrame interface {
	models.Frame
	Mat() gocv.Mat
}

type Options struct {
	DetectorModelPath   string
	AgeGenderModelPath  string
	ExpressionModelPath string
	ONNXRuntimeLibPath  string
	DetectionWidth      int
	ScoreThreshold      float64
	NMSThreshold        float64
}

// FaceAnalyzer localizes faces and estimates age, gender and expression for
// each of them.
type FaceAnalyzer struct {
	opts   Options
	logger *logger.Logger

	localizer  *localizer
	genderAge  *genderAgeModel
	expression *expressionModel

	mu sync.Mutex // jedna inferencja naraz
}

func NewFaceAnalyzer(opts Options, logger *logger.Logger) *FaceAnalyzer {
	return &FaceAnalyzer{
		opts:       opts,
		logger:     logger,
		localizer:  newLocalizer(opts.DetectorModelPath, float32(opts.ScoreThreshold), float32(opts.NMSThreshold)),
		genderAge:  &genderAgeModel{modelPath: opts.AgeGenderModelPath},
		expression: &expressionModel{modelPath: opts.ExpressionModelPath},
	}
}

// Loaders returns one loader per sub-model, for the readiness gate.
func (a *FaceAnalyzer) Loaders() []readiness.Loader {
	return []readiness.Loader{
		readiness.LoaderFunc{ID: "face_localization", Fn: func(context.Context) error {
			return a.localizer.load()
		}},
		readiness.LoaderFunc{ID: "age_gender", Fn: func(context.Context) error {
			return a.genderAge.load(a.opts.ONNXRuntimeLibPath)
		}},
		readiness.LoaderFunc{ID: "expression", Fn: func(context.Context) error {
			return a.expression.load(a.opts.ONNXRuntimeLibPath)
		}},
	}
}

// Detect runs the full analysis on frame. Boxes are expressed in the
// reduced working geometry reported by the result set.
func (a *FaceAnalyzer) Detect(ctx context.Context, frame models.Frame) (models.ResultSet, error) {
	mf, ok := frame.(MatFrame)
	if !ok {
		return models.ResultSet{}, ErrUnsupportedFrame
	}
	src := mf.Mat()
	if src.Empty() {
		return models.ResultSet{}, fmt.Errorf("decoded image is empty")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	geometry := models.Geometry{Width: src.Cols(), Height: src.Rows()}
	working := workingGeometry(geometry, a.opts.DetectionWidth)

	img := src
	if working != geometry {
		resized := gocv.NewMat()
		defer resized.Close()
		if err := gocv.Resize(src, &resized, image.Pt(working.Width, working.Height), 0, 0, gocv.InterpolationArea); err != nil {
			return models.ResultSet{}, fmt.Errorf("failed to resize frame: %w", err)
		}
		img = resized
	}

	boxes, err := a.localizer.detect(img)
	if err != nil {
		return models.ResultSet{}, err
	}

	results := models.ResultSet{Geometry: working, Detections: make([]models.Detection, 0, len(boxes))}
	for _, box := range boxes {
		if err := ctx.Err(); err != nil {
			return models.ResultSet{}, err
		}

		rect := cropRect(box, working)
		if rect.Empty() {
			continue
		}

		d, err := a.analyze(img, rect)
		if err != nil {
			return models.ResultSet{}, err
		}
		d.Box = box
		results.Detections = append(results.Detections, d)
	}

	return results, nil
}

func (a *FaceAnalyzer) analyze(img gocv.Mat, rect image.Rectangle) (models.Detection, error) {
	face := img.Region(rect)
	defer face.Close()

	gender, confidence, age, err := a.genderAge.predict(face)
	if err != nil {
		return models.Detection{}, fmt.Errorf("age/gender: %w", err)
	}
	expressions, err := a.expression.predict(face)
	if err != nil {
		return models.Detection{}, fmt.Errorf("expression: %w", err)
	}

	return models.Detection{
		Age:              age,
		Gender:           gender,
		GenderConfidence: confidence,
		Expressions:      expressions,
	}, nil
}

// Close releases every model and the ONNX Runtime environment.
func (a *FaceAnalyzer) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.localizer.close()
	errs := []error{a.genderAge.session.destroy(), a.expression.session.destroy()}
	a.genderAge.session, a.expression.session = nil, nil
	if err := errors.Join(errs...); err != nil {
		a.logger.Warning("Failed to release inference sessions: %v", err)
		return err
	}
	return ShutdownRuntime()
}
