package transform

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Decode converts a canonical payload map into a typed struct using json
// tags, with time.Duration and RFC3339 time conversions. Callers use this
// after FromWire when they want a typed view of a response.
func Decode(m map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: "json",
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(m); err != nil {
		return fmt.Errorf("failed to decode map to struct: %w", err)
	}

	return nil
}
