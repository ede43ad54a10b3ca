package edge

import (
	"strings"
	"testing"
)

func TestFromConnection(t *testing.T) {
	c := Connection{Source: "a", Target: "b", SourceHandle: "right"}
	e := FromConnection(c)

	if !strings.HasPrefix(e.ID, "e-") {
		t.Errorf("ID = %q, want e- prefix", e.ID)
	}
	if e.Type != DefaultType {
		t.Errorf("Type = %q, want %q", e.Type, DefaultType)
	}
	if e.Style == nil || e.Style.Stroke != DefaultStroke || e.Style.StrokeWidth != DefaultStrokeWidth {
		t.Errorf("Style = %+v, want default style", e.Style)
	}
	if !e.SameEndpoints(c) {
		t.Error("edge should match the connection it was built from")
	}
	if other := FromConnection(c); other.ID == e.ID {
		t.Error("ids must be unique")
	}
}

func TestEdge_SameEndpoints(t *testing.T) {
	e := Edge{ID: "e1", Source: "a", Target: "b", SourceHandle: "top", TargetHandle: "left"}

	tests := []struct {
		name string
		conn Connection
		want bool
	}{
		{"identical", Connection{Source: "a", Target: "b", SourceHandle: "top", TargetHandle: "left"}, true},
		{"different source handle", Connection{Source: "a", Target: "b", SourceHandle: "bottom", TargetHandle: "left"}, false},
		{"different target handle", Connection{Source: "a", Target: "b", SourceHandle: "top"}, false},
		{"reversed", Connection{Source: "b", Target: "a", SourceHandle: "top", TargetHandle: "left"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.SameEndpoints(tt.conn); got != tt.want {
				t.Errorf("SameEndpoints() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEdge_Touches(t *testing.T) {
	e := Edge{Source: "a", Target: "b"}
	if !e.Touches("a") || !e.Touches("b") || e.Touches("c") {
		t.Errorf("Touches gave wrong answers for %+v", e)
	}
}
