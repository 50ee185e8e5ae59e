package inference

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
	ort "github.com/yalue/onnxruntime_go"

	"phishguard/internal/features"
)

const (
	ModelFile        = "phishing_classifier.onnx"
	FeatureNamesFile = "feature_names.txt"
)

type Predictor struct {
	session      *ort.DynamicAdvancedSession
	featureOrder []string
}

func InitONNX(libraryPath string) error {
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize onnx environment: %w", err)
	}
	return nil
}

func CleanupONNX() {
	if err := ort.DestroyEnvironment(); err != nil {
		log.Warn().Err(err).Msg("onnx environment teardown failed")
	}
}

// NewPredictor loads the phishing classifier from modelDir. The column order
// comes from feature_names.txt when present, otherwise the canonical order.
func NewPredictor(modelDir string) (*Predictor, error) {
	p := &Predictor{}

	order, err := loadFeatureOrder(filepath.Join(modelDir, FeatureNamesFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
		p.featureOrder = append([]string(nil), features.FeatureOrder...)
	case err != nil:
		return nil, err
	default:
		p.featureOrder = order
	}

	known := make(map[string]bool, len(features.FeatureOrder))
	for _, name := range features.FeatureOrder {
		known[name] = true
	}
	for _, name := range p.featureOrder {
		if !known[name] {
			log.Warn().Str("feature", name).Msg("model expects a feature the extractor does not produce, feeding 0")
		}
	}

	// only "output_label" is read, the probability map is skipped
	p.session, err = ort.NewDynamicAdvancedSession(
		filepath.Join(modelDir, ModelFile),
		[]string{"float_input"},
		[]string{"output_label"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load phishing model: %w", err)
	}

	return p, nil
}

func loadFeatureOrder(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var order []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if name := strings.TrimSpace(scanner.Text()); name != "" {
			order = append(order, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("%s lists no features", path)
	}
	return order, nil
}

// Predict runs the classifier on one row laid out in GetFeatureOrder order.
// A label of 1 means phishing.
func (p *Predictor) Predict(row []float32) (bool, error) {
	if len(row) != len(p.featureOrder) {
		return false, fmt.Errorf("feature row has %d columns, model expects %d", len(row), len(p.featureOrder))
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	inputTensor, err := ort.NewTensor(ort.NewShape(1, int64(len(row))), row)
	if err != nil {
		return false, fmt.Errorf("input tensor creation failed: %w", err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[int64](ort.NewShape(1))
	if err != nil {
		return false, fmt.Errorf("output tensor creation failed: %w", err)
	}
	defer outputTensor.Destroy()

	if err := p.session.Run([]ort.Value{inputTensor}, []ort.Value{outputTensor}); err != nil {
		return false, fmt.Errorf("phishing inference failed: %w", err)
	}

	return outputTensor.GetData()[0] == 1, nil
}

func (p *Predictor) GetFeatureOrder() []string {
	return p.featureOrder
}

func (p *Predictor) Close() {
	if p.session != nil {
		p.session.Destroy()
	}
}
