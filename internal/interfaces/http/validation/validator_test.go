package validation

import (
	"testing"

	appErrors "jirai-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name   string `json:"name" validate:"required,max=5"`
	Type   string `json:"type" validate:"omitempty,nodetype"`
	Layout string `json:"layout" validate:"omitempty,layout"`
	Zoom   string `json:"zoom" validate:"omitempty,zoom"`
}

func TestValidate(t *testing.T) {
	v := GetValidator()
	tests := []struct {
		name    string
		in      sample
		wantErr string
	}{
		{"valid", sample{Name: "ok", Type: "task", Layout: "vertical", Zoom: "week"}, ""},
		{"missing name", sample{}, "name is required"},
		{"long name", sample{Name: "toolong"}, "name must be at most 5"},
		{"reserved type", sample{Name: "a", Type: "image"}, `type "image" is not a creatable node type`},
		{"bad layout", sample{Name: "a", Layout: "diagonal"}, "not a valid layout"},
		{"bad zoom", sample{Name: "a", Zoom: "decade"}, "not a valid zoom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.in)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, appErrors.IsValidation(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
