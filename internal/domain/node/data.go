package node

import (
	"encoding/json"
	"fmt"
	"time"
)

// baseKeys are the data keys every kind shares.
var baseKeys = map[string]struct{}{
	"id":        {},
	"label":     {},
	"type":      {},
	"color":     {},
	"icon":      {},
	"collapsed": {},
	"createdAt": {},
	"updatedAt": {},
}

// Data is the payload carried by a node. Its kind is the kind of Payload;
// Extra holds keys that neither the shared fields nor the payload define.
type Data struct {
	Label     string
	Color     string
	Icon      string
	Collapsed bool
	CreatedAt time.Time
	UpdatedAt time.Time
	Payload   Payload
	Extra     map[string]any
}

// Kind is the type of the payload, or "" when no payload is set.
func (d Data) Kind() Type {
	if d.Payload == nil {
		return ""
	}
	return d.Payload.Kind()
}

// Clone returns a copy of d that shares no slices, maps or pointers with it.
func (d Data) Clone() Data {
	out := d
	out.Payload = clonePayload(d.Payload)
	if d.Extra != nil {
		out.Extra = make(map[string]any, len(d.Extra))
		for k, v := range d.Extra {
			out.Extra[k] = cloneValue(v)
		}
	}
	return out
}

// cloneValue copies the containers produced by decoding JSON into any.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case []any:
		l := make([]any, len(t))
		for i, e := range t {
			l[i] = cloneValue(e)
		}
		return l
	}
	return v
}

// fields flattens d into a single JSON object. Shared fields win over payload
// fields, which win over Extra.
func (d Data) fields() (map[string]json.RawMessage, error) {
	if d.Payload == nil {
		return nil, fmt.Errorf("node data has no payload")
	}
	out := make(map[string]json.RawMessage, len(d.Extra)+12)
	for k, v := range d.Extra {
		if _, reserved := baseKeys[k]; reserved {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode extra key %q: %w", k, err)
		}
		out[k] = raw
	}

	payload, err := json.Marshal(d.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", d.Kind(), err)
	}
	var payloadFields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &payloadFields); err != nil {
		return nil, err
	}
	for k, v := range payloadFields {
		out[k] = v
	}

	put := func(key string, v any) {
		raw, _ := json.Marshal(v)
		out[key] = raw
	}
	put("label", d.Label)
	put("type", d.Kind())
	put("color", d.Color)
	if d.Icon != "" {
		put("icon", d.Icon)
	}
	if d.Collapsed {
		put("collapsed", true)
	}
	put("createdAt", d.CreatedAt)
	put("updatedAt", d.UpdatedAt)
	return out, nil
}

// MarshalJSON writes the flat data object without an id.
func (d Data) MarshalJSON() ([]byte, error) {
	fields, err := d.fields()
	if err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

// UnmarshalJSON reads a flat data object whose "type" key selects the payload.
func (d *Data) UnmarshalJSON(raw []byte) error {
	decoded, err := DecodeData(raw, "")
	if err != nil {
		return err
	}
	*d = decoded
	return nil
}

// DecodeData parses a flat data object. When hint is set and the object
// carries its own "type", the two must agree; when the object has no "type",
// hint is used.
func DecodeData(raw []byte, hint Type) (Data, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Data{}, fmt.Errorf("decode node data: %w", err)
	}
	return decodeFields(fields, hint)
}

func decodeFields(fields map[string]json.RawMessage, hint Type) (Data, error) {
	var kind Type
	if rawType, ok := fields["type"]; ok {
		if err := json.Unmarshal(rawType, &kind); err != nil {
			return Data{}, fmt.Errorf("decode node data type: %w", err)
		}
	}
	switch {
	case kind == "":
		kind = hint
	case hint != "" && kind != hint:
		return Data{}, fmt.Errorf("data.type %q does not match node type %q", kind, hint)
	}
	if err := kind.Check(); err != nil {
		return Data{}, err
	}

	var base struct {
		Label     string    `json:"label"`
		Color     string    `json:"color"`
		Icon      string    `json:"icon"`
		Collapsed bool      `json:"collapsed"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}
	whole, err := json.Marshal(fields)
	if err != nil {
		return Data{}, err
	}
	if err := json.Unmarshal(whole, &base); err != nil {
		return Data{}, fmt.Errorf("decode node data: %w", err)
	}
	payload, err := decodePayload(kind, whole)
	if err != nil {
		return Data{}, err
	}

	owned := keysOf(kind)
	var extra map[string]any
	for k, v := range fields {
		if _, ok := baseKeys[k]; ok {
			continue
		}
		if _, ok := owned[k]; ok {
			continue
		}
		var value any
		if err := json.Unmarshal(v, &value); err != nil {
			return Data{}, fmt.Errorf("decode extra key %q: %w", k, err)
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = value
	}

	return Data{
		Label:     base.Label,
		Color:     base.Color,
		Icon:      base.Icon,
		Collapsed: base.Collapsed,
		CreatedAt: base.CreatedAt,
		UpdatedAt: base.UpdatedAt,
		Payload:   payload,
		Extra:     extra,
	}, nil
}

// Merge shallow-merges patch into d. The keys "id" and "type" are ignored so
// a patch can never change a node's identity or kind. UpdatedAt is set to now
// unless the patch supplies it.
func (d Data) Merge(patch map[string]any, now time.Time) (Data, error) {
	fields, err := d.fields()
	if err != nil {
		return Data{}, err
	}
	for k, v := range patch {
		if k == "id" || k == "type" {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return Data{}, fmt.Errorf("encode patch key %q: %w", k, err)
		}
		fields[k] = raw
	}
	if _, ok := patch["updatedAt"]; !ok {
		raw, _ := json.Marshal(now)
		fields["updatedAt"] = raw
	}
	return decodeFields(fields, d.Kind())
}

// ExtraValue looks up a key in the extension bag.
func (d Data) ExtraValue(key string) (any, bool) {
	v, ok := d.Extra[key]
	return v, ok
}
