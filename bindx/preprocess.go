package bindx

import (
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
)

// Preprocessor transforms raw input before decoding begins.
type Preprocessor func(any) (any, error)

// PreprocessMerge overlays the given sources onto the input. Sources
// can be maps or structs; later sources override earlier ones, nested
// maps merge key by key.
func PreprocessMerge(sources ...any) Preprocessor {
	return func(input any) (any, error) {
		base, err := toMap(input)
		if err != nil {
			return nil, err
		}
		for i, src := range sources {
			if src == nil {
				continue
			}
			overlay, err := toMap(src)
			if err != nil {
				return nil, fmt.Errorf("bindx: merge source %d: %w", i, err)
			}
			mergeMaps(base, overlay)
		}
		return base, nil
	}
}

func toMap(input any) (map[string]any, error) {
	if input == nil {
		return map[string]any{}, nil
	}
	if m, ok := input.(map[string]any); ok {
		return cloneMap(m), nil
	}

	val := reflect.ValueOf(input)
	if val.Kind() == reflect.Map {
		result := map[string]any{}
		iter := val.MapRange()
		for iter.Next() {
			key, ok := iter.Key().Interface().(string)
			if !ok {
				return nil, fmt.Errorf("bindx: map key %T is not a string", iter.Key().Interface())
			}
			result[key] = iter.Value().Interface()
		}
		return result, nil
	}

	// structs flatten through mapstructure so tag names line up
	result := map[string]any{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "conf",
		Result:           &result,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(input); err != nil {
		return nil, err
	}
	return result, nil
}

func cloneMap(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		if nested, ok := v.(map[string]any); ok {
			dst[k] = cloneMap(nested)
			continue
		}
		dst[k] = v
	}
	return dst
}

func mergeMaps(dst, src map[string]any) {
	for key, val := range src {
		if existing, ok := dst[key].(map[string]any); ok {
			if incoming, ok := val.(map[string]any); ok {
				mergeMaps(existing, incoming)
				continue
			}
		}
		dst[key] = val
	}
}
