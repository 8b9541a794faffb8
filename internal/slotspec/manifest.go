package slotspec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

var errManifestShape = errors.New("slotspec: manifest must be a list of 0x-hex slots or a mapping of label to 0x-hex slot")

// LoadManifest reads a slot manifest file: JSON, either an array of hex
// strings or an object mapping label to hex string. Comments and trailing
// commas are tolerated. Object entries keep their document order.
func LoadManifest(path string) ([]Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("slotspec: read manifest: %w", err)
	}
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("slotspec: manifest is not valid JSON: %w", err)
	}
	return parseManifest(std)
}

func parseManifest(data []byte) ([]Spec, error) {
	// Token-level decode so object keys come out in document order instead
	// of map order.
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("slotspec: manifest is not valid JSON: %w", err)
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return nil, errManifestShape
	}

	switch delim {
	case '[':
		return parseManifestList(dec)
	case '{':
		return parseManifestMap(dec)
	}
	return nil, errManifestShape
}

func parseManifestList(dec *json.Decoder) ([]Spec, error) {
	var specs []Spec
	for dec.More() {
		var raw string
		if err := dec.Decode(&raw); err != nil {
			return nil, errManifestShape
		}
		idx, err := ParseHex(raw)
		if err != nil {
			return nil, err
		}
		specs = append(specs, Spec{Label: raw, Index: idx})
	}
	return specs, nil
}

func parseManifestMap(dec *json.Decoder) ([]Spec, error) {
	var specs []Spec
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errManifestShape
		}
		label, ok := tok.(string)
		if !ok {
			return nil, errManifestShape
		}
		var raw string
		if err := dec.Decode(&raw); err != nil {
			return nil, errManifestShape
		}
		idx, err := ParseHex(raw)
		if err != nil {
			return nil, err
		}
		specs = append(specs, Spec{Label: label, Index: idx})
	}
	return specs, nil
}
