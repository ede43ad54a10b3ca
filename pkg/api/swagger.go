package api

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/swaggo/swag"
	"gopkg.in/yaml.v3"
)

//go:embed swagger.yaml
var swaggerYAML []byte

// SwaggerInfo is the document registered with swag.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Title:            "Jirai API",
	Description:      "Workspace graph, timeline, UI mode and chat sessions.",
	BasePath:         "/api/v1",
	InfoInstanceName: swag.Name,
	LeftDelim:        "{%",
	RightDelim:       "%}",
}

func init() {
	doc, err := GetSwaggerSpecAsJSON()
	if err != nil {
		panic(fmt.Sprintf("swagger.yaml: %v", err))
	}
	SwaggerInfo.SwaggerTemplate = string(doc)
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// GetSwaggerSpec returns the embedded swagger specification as bytes
func GetSwaggerSpec() []byte {
	return swaggerYAML
}

// GetSwaggerSpecAsJSON returns the swagger specification converted to JSON
func GetSwaggerSpecAsJSON() ([]byte, error) {
	var spec interface{}
	if err := yaml.Unmarshal(swaggerYAML, &spec); err != nil {
		return nil, err
	}
	return json.Marshal(spec)
}

// SwaggerHandler serves the registered document, as JSON when asked for it
// and as the embedded YAML otherwise.
func SwaggerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") == "application/json" {
			doc, err := swag.ReadDoc()
			if err != nil {
				http.Error(w, "swagger document unavailable", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(doc))
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(swaggerYAML)
	}
}
