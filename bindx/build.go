// Package bindx decodes merged config documents into structs leniently:
// weak typing, decode hooks, defaults, and a validation hook. It is the
// forgiving counterpart to strict record reconstruction, for callers
// that want overlay-style binding instead of exhaustive field checking.
package bindx

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/mitchellh/copystructure"
)

const (
	stageDefaults   = "defaults"
	stagePreprocess = "preprocess"
	stageDecode     = "decode"
	stageValidate   = "validate"
)

var (
	// ErrDefaults wraps failures while producing or cloning the default instance.
	ErrDefaults = errors.New("bindx: defaults stage failed")
	// ErrPreprocess wraps failures while transforming input before decoding.
	ErrPreprocess = errors.New("bindx: preprocess stage failed")
	// ErrDecode wraps mapstructure decode failures.
	ErrDecode = errors.New("bindx: decode stage failed")
	// ErrValidate wraps validator-reported errors.
	ErrValidate = errors.New("bindx: validate stage failed")
	// ErrOption indicates a misconfigured option.
	ErrOption = errors.New("bindx: option configuration failed")
)

// StageError reports a failure in a specific build stage.
type StageError struct {
	Stage string
	Base  error
	Err   error
	Meta  map[string]any
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches either the stage sentinel or the wrapped error.
func (e *StageError) Is(target error) bool {
	if e == nil {
		return target == nil
	}
	return errors.Is(e.Base, target) || errors.Is(e.Err, target)
}

func stageError(stage string, base, err error, meta map[string]any) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Base: base, Err: err, Meta: meta}
}

type builder[T any] struct {
	input        any
	defaults     func() (T, error)
	preprocess   []Preprocessor
	hooks        []mapstructure.DecodeHookFunc
	decoderCfg   mapstructure.DecoderConfig
	validator    func(*T) error
	defaultHooks bool
	optionErr    error
}

// Build decodes input into a fresh T: defaults first, then
// preprocessors, then a mapstructure decode, then validation. Stage
// failures wrap the matching sentinel so callers can branch with
// errors.Is and inspect details through errors.As on *StageError.
func Build[T any](input any, opts ...Option[T]) (T, error) {
	b := &builder[T]{
		input: input,
		decoderCfg: mapstructure.DecoderConfig{
			TagName:          "conf",
			WeaklyTypedInput: true,
		},
		defaultHooks: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	if b.optionErr != nil {
		var zero T
		return zero, b.optionErr
	}
	return b.run()
}

func (b *builder[T]) run() (T, error) {
	var zero T

	result, err := b.seedDefaults()
	if err != nil {
		return zero, err
	}

	input := b.input
	for i, pre := range b.preprocess {
		if pre == nil {
			continue
		}
		next, err := pre(input)
		if err != nil {
			return zero, stageError(stagePreprocess, ErrPreprocess, err, map[string]any{
				"preprocessor_index": i,
			})
		}
		input = next
	}

	if err := b.decode(input, &result); err != nil {
		return zero, err
	}

	if b.validator != nil {
		if err := b.validator(&result); err != nil {
			return zero, stageError(stageValidate, ErrValidate, err, nil)
		}
	}
	return result, nil
}

func (b *builder[T]) seedDefaults() (T, error) {
	var zero T
	if b.defaults == nil {
		return zero, nil
	}
	val, err := b.defaults()
	if err != nil {
		return zero, stageError(stageDefaults, ErrDefaults, err, nil)
	}
	cloned, err := copystructure.Copy(val)
	if err != nil {
		return zero, stageError(stageDefaults, ErrDefaults, err, map[string]any{"reason": "clone"})
	}
	cast, ok := cloned.(T)
	if !ok {
		return zero, stageError(stageDefaults, ErrDefaults,
			fmt.Errorf("bindx: cloned default is %T, not the target type", cloned), nil)
	}
	return cast, nil
}

func (b *builder[T]) decode(input any, result *T) error {
	cfg := b.decoderCfg
	cfg.Result = decodeTarget(result)
	cfg.DecodeHook = b.composeHooks()

	decoder, err := mapstructure.NewDecoder(&cfg)
	if err != nil {
		return stageError(stageDecode, ErrDecode, err, map[string]any{"reason": "decoder_config"})
	}
	if err := decoder.Decode(input); err != nil {
		return stageError(stageDecode, ErrDecode, err, nil)
	}
	return nil
}

func (b *builder[T]) composeHooks() mapstructure.DecodeHookFunc {
	var hooks []mapstructure.DecodeHookFunc
	if b.defaultHooks {
		hooks = append(hooks, DefaultDecodeHooks()...)
	}
	hooks = append(hooks, b.hooks...)
	switch len(hooks) {
	case 0:
		return nil
	case 1:
		return hooks[0]
	default:
		return mapstructure.ComposeDecodeHookFunc(hooks...)
	}
}

func decodeTarget[T any](result *T) any {
	val := reflect.ValueOf(result).Elem()
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			val.Set(reflect.New(val.Type().Elem()))
		}
		return val.Interface()
	}
	return val.Addr().Interface()
}
