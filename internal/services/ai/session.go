package ai

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	initialized bool
	initMu      sync.Mutex
)

// InitializeRuntime sets up the ONNX Runtime environment. Safe to call from
// several loaders at once; only the first call does any work.
func InitializeRuntime(libPath string) error {
	initMu.Lock()
	defer initMu.Unlock()

	if initialized {
		return nil
	}

	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX Runtime: %w", err)
	}

	initialized = true
	return nil
}

// ShutdownRuntime cleans up the ONNX Runtime environment
func ShutdownRuntime() error {
	initMu.Lock()
	defer initMu.Unlock()

	if !initialized {
		return nil
	}

	if err := ort.DestroyEnvironment(); err != nil {
		return err
	}

	initialized = false
	return nil
}

// session wraps an ONNX Runtime inference session with one input and one
// output.
type session struct {
	session    *ort.DynamicAdvancedSession
	modelPath  string
	inputShape ort.Shape
	outputLen  int
}

func newSession(modelPath, inputName, outputName string, inputShape ort.Shape, outputLen int) (*session, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()

	s, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputName},
		[]string{outputName},
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session for %s: %w", modelPath, err)
	}

	return &session{
		session:    s,
		modelPath:  modelPath,
		inputShape: inputShape,
		outputLen:  outputLen,
	}, nil
}

// run feeds data through the model and returns a copy of the output.
func (s *session) run(data []float32) ([]float32, error) {
	input, err := ort.NewTensor(s.inputShape, data)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(s.outputLen)))
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer output.Destroy()

	if err := s.session.Run([]ort.Value{input}, []ort.Value{output}); err != nil {
		return nil, fmt.Errorf("inference failed for %s: %w", s.modelPath, err)
	}

	return append([]float32(nil), output.GetData()...), nil
}

func (s *session) destroy() error {
	if s == nil || s.session == nil {
		return nil
	}
	return s.session.Destroy()
}
