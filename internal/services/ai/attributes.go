package ai

import (
	"fmt"
	"image"

	"faceoverlay/internal/models"

	ort "github.com/yalue/onnxruntime_go"
	"gocv.io/x/gocv"
)

const (
	genderAgeInput = 96
	expressionSize = 64
)

// genderAgeModel estimates gender and age from a face crop
// (InsightFace genderage, 96x96 RGB).
type genderAgeModel struct {
	modelPath string
	session   *session
}

func (m *genderAgeModel) load(libPath string) error {
	if err := InitializeRuntime(libPath); err != nil {
		return err
	}
	s, err := newSession(m.modelPath, "data", "fc1",
		ort.NewShape(1, 3, genderAgeInput, genderAgeInput), 3)
	if err != nil {
		return err
	}
	m.session = s
	return nil
}

func (m *genderAgeModel) predict(face gocv.Mat) (gender string, confidence, age float64, err error) {
	if m.session == nil {
		return "", 0, 0, fmt.Errorf("gender/age model not loaded")
	}

	blob := gocv.BlobFromImage(face, 1.0, image.Pt(genderAgeInput, genderAgeInput),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	out, err := m.session.run(bytesToFloat32(blob.ToBytes()))
	if err != nil {
		return "", 0, 0, err
	}
	return decodeGenderAge(out)
}

// expressionModel scores facial expressions (FER+, 64x64 grayscale).
type expressionModel struct {
	modelPath string
	session   *session
}

func (m *expressionModel) load(libPath string) error {
	if err := InitializeRuntime(libPath); err != nil {
		return err
	}
	s, err := newSession(m.modelPath, "Input3", "Plus692_Output_0",
		ort.NewShape(1, 1, expressionSize, expressionSize), ferPlusOutputs)
	if err != nil {
		return err
	}
	m.session = s
	return nil
}

func (m *expressionModel) predict(face gocv.Mat) (models.Expressions, error) {
	if m.session == nil {
		return models.Expressions{}, fmt.Errorf("expression model not loaded")
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if err := gocv.CvtColor(face, &gray, gocv.ColorBGRToGray); err != nil {
		return models.Expressions{}, fmt.Errorf("failed to convert face to grayscale: %w", err)
	}

	blob := gocv.BlobFromImage(gray, 1.0, image.Pt(expressionSize, expressionSize),
		gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	out, err := m.session.run(bytesToFloat32(blob.ToBytes()))
	if err != nil {
		return models.Expressions{}, err
	}
	return decodeExpressions(out)
}
