// Package onnx provides segment.Predictor implementations backed by ONNX
// Runtime sessions: a semantic scene-parsing model and a promptable
// point-driven segmentation model.
//
// The runtime environment is process-global and initialized lazily on the
// first model construction. Construction fails cleanly when the shared
// library or a model file is missing, which the segmentation engine treats
// as "model unavailable" rather than a fatal error.
package onnx

import (
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	runtimeOnce sync.Once
	runtimeErr  error
)

// initRuntime initializes the ONNX Runtime environment exactly once.
// libraryPath may be empty when the runtime shared library is already on
// the loader path.
func initRuntime(libraryPath string) error {
	runtimeOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		runtimeErr = ort.InitializeEnvironment()
	})
	return runtimeErr
}

// openSession checks the model file and opens a dynamic session for it.
func openSession(modelPath string, inputs, outputs []string) (*ort.DynamicAdvancedSession, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file %s: %w", modelPath, err)
	}
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("creating session options: %w", err)
	}
	defer opts.Destroy()

	session, err := ort.NewDynamicAdvancedSession(modelPath, inputs, outputs, opts)
	if err != nil {
		return nil, fmt.Errorf("opening session for %s: %w", modelPath, err)
	}
	return session, nil
}
