package expand

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExprPass(t *testing.T) {
	doc := docFrom(t, map[string]any{
		"replicas": 3,
		"workers":  "{{ replicas * 2 }}",
		"plain":    "no expression here",
	})

	out := NewExprPass("", "").Expand(doc)

	assert.EqualValues(t, 6, out.Get("workers"))
	assert.Equal(t, "no expression here", out.Get("plain"))
}

func TestExprPass_partial_match_ignored(t *testing.T) {
	doc := docFrom(t, map[string]any{
		"replicas": 3,
		"mixed":    "count is {{ replicas }}",
	})

	out := NewExprPass("", "").Expand(doc)

	assert.Equal(t, "count is {{ replicas }}", out.Get("mixed"))
}

func TestExprPass_error_keeps_value(t *testing.T) {
	doc := docFrom(t, map[string]any{
		"broken": "{{ 1 +* 2 }}",
	})

	out := NewExprPass("", "").Expand(doc)

	assert.Equal(t, "{{ 1 +* 2 }}", out.Get("broken"))
}

func TestExprPass_error_remove(t *testing.T) {
	doc := docFrom(t, map[string]any{
		"broken": "{{ 1 +* 2 }}",
		"kept":   "fine",
	})

	out := NewExprPassWith("", "", nil, OnExprErrorRemove()).Expand(doc)

	assert.False(t, out.Exists("broken"))
	assert.Equal(t, "fine", out.Get("kept"))
}
