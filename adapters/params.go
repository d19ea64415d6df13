package adapters

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/SC-Dawoony/ad-network-hub-sub000/errortypes"
	"github.com/xeipuuv/gojsonschema"
)

// ParamsValidator checks create payloads against each network's JSON
// schema before anything is transmitted. Only wire-format shape is
// enforced; business rules stay the upstream's problem.
type ParamsValidator interface {
	Validate(network string, payload []byte) error
	// Schema returns the raw JSON schema used for a network, for the
	// discovery endpoint.
	Schema(network string) string
}

// NewParamsValidator loads every "<network>.json" schema in the directory.
// Networks without a schema file fail here, at startup, not at call time.
func NewParamsValidator(schemaDirectory string, networks []string) (ParamsValidator, error) {
	fileInfos, err := os.ReadDir(schemaDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON schemas from directory %s: %v", schemaDirectory, err)
	}

	known := make(map[string]struct{}, len(networks))
	for _, network := range networks {
		known[network] = struct{}{}
	}

	filesystem := http.Dir(schemaDirectory)
	schemaContents := make(map[string]string, len(networks))
	schemas := make(map[string]*gojsonschema.Schema, len(networks))

	for _, fileInfo := range fileInfos {
		network := strings.TrimSuffix(fileInfo.Name(), ".json")
		if _, ok := known[network]; !ok {
			return nil, fmt.Errorf("file %s/%s does not match a known network", schemaDirectory, fileInfo.Name())
		}

		schemaLoader := gojsonschema.NewReferenceLoaderFileSystem(fmt.Sprintf("file:///%s", fileInfo.Name()), filesystem)
		loadedSchema, err := gojsonschema.NewSchema(schemaLoader)
		if err != nil {
			return nil, fmt.Errorf("failed to load json schema at %s/%s: %v", schemaDirectory, fileInfo.Name(), err)
		}

		fileBytes, err := os.ReadFile(fmt.Sprintf("%s/%s", schemaDirectory, fileInfo.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s/%s: %v", schemaDirectory, fileInfo.Name(), err)
		}

		schemas[network] = loadedSchema
		schemaContents[network] = string(fileBytes)
	}

	for _, network := range networks {
		if _, ok := schemas[network]; !ok {
			return nil, fmt.Errorf("network %s has no schema in %s", network, schemaDirectory)
		}
	}

	return &paramsValidator{
		schemaContents: schemaContents,
		parsedSchemas:  schemas,
	}, nil
}

type paramsValidator struct {
	schemaContents map[string]string
	parsedSchemas  map[string]*gojsonschema.Schema
}

func (v *paramsValidator) Validate(network string, payload []byte) error {
	schema, ok := v.parsedSchemas[network]
	if !ok {
		return &errortypes.UnknownNetwork{Message: fmt.Sprintf("no payload schema for network %s", network)}
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return &errortypes.BadInput{Message: fmt.Sprintf("%s: payload is not valid JSON: %v", network, err)}
	}
	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, validationErr := range result.Errors() {
			messages = append(messages, validationErr.String())
		}
		return &errortypes.BadInput{Message: fmt.Sprintf("%s: %s", network, strings.Join(messages, "; "))}
	}
	return nil
}

func (v *paramsValidator) Schema(network string) string {
	return v.schemaContents[network]
}

// NopParamsValidator accepts everything. Tests use it where payload shape
// is not the subject.
type NopParamsValidator struct{}

func (NopParamsValidator) Validate(network string, payload []byte) error { return nil }

func (NopParamsValidator) Schema(network string) string { return "" }
