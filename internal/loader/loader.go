package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pb33f/libopenapi"
	"github.com/pb33f/libopenapi/datamodel"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
)

type Result struct {
	Source   libopenapi.Document
	Document *libopenapi.DocumentModel[v3.Document]
	Version  string
	Warnings []string
}

func LoadFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading spec file: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	config := newConfig()
	config.BasePath = filepath.Dir(absPath)
	config.AllowFileReferences = true

	return loadWithConfig(data, config)
}

// LoadBytes parses an in-memory OpenAPI document. File references are not followed.
func LoadBytes(data []byte) (*Result, error) {
	return loadWithConfig(data, newConfig())
}

// Self-referencing component schemas are legal in API descriptions; they are
// resolved lazily by the input schema synthesizer.
func newConfig() *datamodel.DocumentConfiguration {
	return &datamodel.DocumentConfiguration{
		IgnorePolymorphicCircularReferences: true,
		IgnoreArrayCircularReferences:       true,
	}
}

func loadWithConfig(data []byte, config *datamodel.DocumentConfiguration) (*Result, error) {
	doc, err := libopenapi.NewDocumentWithConfiguration(data, config)
	if err != nil {
		return nil, fmt.Errorf("parsing OpenAPI document: %w", err)
	}

	version := doc.GetVersion()
	if !strings.HasPrefix(version, "3.") {
		return nil, fmt.Errorf("unsupported OpenAPI version: %s (only 3.x supported)", version)
	}

	model, err := doc.BuildV3Model()
	if err != nil {
		return nil, fmt.Errorf("building OpenAPI model: %w", err)
	}

	result := &Result{
		Source:   doc,
		Document: model,
		Version:  version,
	}

	if strings.HasPrefix(version, "3.2") {
		result.Warnings = append(result.Warnings, "OpenAPI 3.2 detected; QUERY operations cannot be invoked")
	}

	return result, nil
}
