package bindx

import (
	"encoding"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
)

// DefaultDecodeHooks returns the built-in hook set: duration strings
// and encoding.TextUnmarshaler targets.
func DefaultDecodeHooks() []mapstructure.DecodeHookFunc {
	return []mapstructure.DecodeHookFunc{
		DurationHook(),
		TextUnmarshalerHook(),
	}
}

// DurationHook converts strings like "5s" into time.Duration.
func DurationHook() mapstructure.DecodeHookFunc {
	return mapstructure.StringToTimeDurationHookFunc()
}

// TextUnmarshalerHook decodes strings into any target implementing
// encoding.TextUnmarshaler.
func TextUnmarshalerHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to.Kind() == reflect.String {
			return data, nil
		}
		target := reflect.New(to).Interface()
		unmarshaler, ok := target.(encoding.TextUnmarshaler)
		if !ok {
			return data, nil
		}
		if err := unmarshaler.UnmarshalText([]byte(data.(string))); err != nil {
			return nil, err
		}
		return reflect.ValueOf(target).Elem().Interface(), nil
	}
}
