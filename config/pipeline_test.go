package config

import (
	"testing"

	"github.com/confweave/confweave/schema"
)

type optimizerConfig struct {
	Name string  `conf:"name"`
	LR   float64 `conf:"lr"`
}

type trainConfig struct {
	NSteps    int             `conf:"n_steps"`
	Optimizer optimizerConfig `conf:"optimizer"`
}

func TestParse(t *testing.T) {
	cfg, err := Parse[trainConfig]([]string{
		"n_steps=2",
		`--set-json=optimizer={"name": "adam", "lr": 0.1}`,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.NSteps != 2 {
		t.Fatalf("n_steps = %d", cfg.NSteps)
	}
	if cfg.Optimizer.Name != "adam" || cfg.Optimizer.LR != 0.1 {
		t.Fatalf("optimizer = %#v", cfg.Optimizer)
	}
}

func TestParseFieldOverride(t *testing.T) {
	cfg, err := Parse[trainConfig]([]string{
		`--set-json=optimizer={"name": "adam", "lr": 0.1}`,
		"optimizer.lr=0.5",
		"n_steps=2",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Optimizer.LR != 0.5 {
		t.Fatalf("later directive should win, lr = %v", cfg.Optimizer.LR)
	}
}

func TestParseMissingField(t *testing.T) {
	_, err := Parse[trainConfig]([]string{"n_steps=2"})
	if got := schema.ErrorCode(err); got != schema.TextCodeMissingField {
		t.Fatalf("error code = %q (err: %v)", got, err)
	}
}

func TestParseUnknownField(t *testing.T) {
	_, err := Parse[trainConfig]([]string{
		"n_steps=2",
		`--set-json=optimizer={"name": "adam", "lr": 0.1, "beta": 0.9}`,
	})
	if got := schema.ErrorCode(err); got != schema.TextCodeUnknownField {
		t.Fatalf("error code = %q (err: %v)", got, err)
	}
}
