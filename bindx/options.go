package bindx

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Option tweaks the builder before decoding.
type Option[T any] func(*builder[T])

// WithDefaults seeds the decode with a default instance. It is deep
// cloned before decoding so the caller's value is never mutated.
func WithDefaults[T any](value T) Option[T] {
	return WithDefaultFunc(func() (T, error) { return value, nil })
}

// WithDefaultFunc produces the default instance lazily.
func WithDefaultFunc[T any](fn func() (T, error)) Option[T] {
	return func(b *builder[T]) {
		b.defaults = fn
	}
}

// WithTagName overrides the struct tag key used while decoding.
func WithTagName[T any](tag string) Option[T] {
	return func(b *builder[T]) {
		if tag != "" {
			b.decoderCfg.TagName = tag
		}
	}
}

// WithDecodeHooks appends custom decode hooks after the default set.
func WithDecodeHooks[T any](hooks ...mapstructure.DecodeHookFunc) Option[T] {
	return func(b *builder[T]) {
		for _, hook := range hooks {
			if hook != nil {
				b.hooks = append(b.hooks, hook)
			}
		}
	}
}

// WithoutDefaultHooks disables the built-in duration and text
// unmarshaler hooks.
func WithoutDefaultHooks[T any]() Option[T] {
	return func(b *builder[T]) {
		b.defaultHooks = false
	}
}

// WithStrictKeys makes unknown input keys a decode error and zeroes
// fields before overwriting.
func WithStrictKeys[T any]() Option[T] {
	return func(b *builder[T]) {
		b.decoderCfg.ErrorUnused = true
		b.decoderCfg.ZeroFields = true
	}
}

// WithWeakTyping toggles lenient scalar coercion (on by default).
func WithWeakTyping[T any](enabled bool) Option[T] {
	return func(b *builder[T]) {
		b.decoderCfg.WeaklyTypedInput = enabled
	}
}

// WithDecoder mutates the underlying mapstructure DecoderConfig for
// anything the dedicated options do not cover.
func WithDecoder[T any](fn func(*mapstructure.DecoderConfig)) Option[T] {
	return func(b *builder[T]) {
		if fn != nil {
			fn(&b.decoderCfg)
		}
	}
}

// WithPreprocess registers input transforms run in order before decode.
func WithPreprocess[T any](pre ...Preprocessor) Option[T] {
	return func(b *builder[T]) {
		b.preprocess = append(b.preprocess, pre...)
	}
}

// WithMerge overlays the given sources onto the input map before
// decoding. Later sources win.
func WithMerge[T any](sources ...any) Option[T] {
	return WithPreprocess[T](PreprocessMerge(sources...))
}

// WithValidatorFunc registers a validation hook invoked after decode.
// Only one validator is allowed.
func WithValidatorFunc[T any](validator func(T) error) Option[T] {
	return func(b *builder[T]) {
		if validator == nil {
			return
		}
		if b.validator != nil {
			if b.optionErr == nil {
				b.optionErr = fmt.Errorf("%w: validator already registered", ErrOption)
			}
			return
		}
		b.validator = func(cfg *T) error {
			if cfg == nil {
				var zero T
				return validator(zero)
			}
			return validator(*cfg)
		}
	}
}
