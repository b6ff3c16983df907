package config

import (
	"encoding/json"
	"fmt"
	"github.com/tidwall/gjson"
)

// unmarshalTyped reads the Type of a configuration document and decodes its Config stanza into the
// structure registered for that type. A missing Config stanza leaves the defaults in place.
func unmarshalTyped(data []byte, kind string, types map[string]func() any) (string, any, error) {
	result := gjson.GetBytes(data, "Type")
	if !result.Exists() {
		return "", nil, fmt.Errorf("failed to find %s type information", kind)
	}

	typ := result.String()

	constructor, found := types[typ]
	if !found {
		return typ, nil, fmt.Errorf("unknown %s configuration type: %s", kind, typ)
	}

	cfg := constructor()

	if result := gjson.GetBytes(data, "Config"); result.Exists() {
		if err := json.Unmarshal([]byte(result.Raw), cfg); err != nil {
			return typ, nil, fmt.Errorf("failed to parse %s Config stanza: %w", typ, err)
		}
	}

	return typ, cfg, nil
}
