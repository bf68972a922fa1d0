package runtime

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// decodeParams converts a resolved parameter map into a typed per-kind
// parameter struct. Weak typing is deliberate: expressions produce float64 or
// int depending on their shape, and condition tables produce strings for
// anything they could not coerce.
func decodeParams(m map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "param",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(m); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}

	return nil
}
