package config

import (
	"fmt"
	"testing"
	"testing/fstest"

	"github.com/confweave/confweave/value"
)

func docFrom(t *testing.T, raw map[string]any) value.Value {
	t.Helper()
	v, err := value.FromAny(raw)
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
	return v
}

func TestResolveAssignments(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		want     map[string]any
		wantCode string
	}{
		{
			name: "set string",
			args: []string{"--set=name=hello"},
			want: map[string]any{"name": "hello"},
		},
		{
			name: "set number",
			args: []string{"--set=port=8080"},
			want: map[string]any{"port": 8080},
		},
		{
			name: "bare assignment",
			args: []string{"n_steps=2"},
			want: map[string]any{"n_steps": 2},
		},
		{
			name: "bare string fallback",
			args: []string{"greeting=hello world"},
			want: map[string]any{"greeting": "hello world"},
		},
		{
			name: "nested path",
			args: []string{"a.b=true"},
			want: map[string]any{"a": map[string]any{"b": true}},
		},
		{
			name: "null literal",
			args: []string{"--set=flag=null"},
			want: map[string]any{"flag": nil},
		},
		{
			name: "value keeps later equals",
			args: []string{"--set=dsn=key=value"},
			want: map[string]any{"dsn": "key=value"},
		},
		{
			name: "set json mapping",
			args: []string{`--set-json=optimizer={"name": "adam", "lr": 0.1}`},
			want: map[string]any{"optimizer": map[string]any{"name": "adam", "lr": 0.1}},
		},
		{
			name: "set json sequence",
			args: []string{`--set-json=layers=[1, 2, 3]`},
			want: map[string]any{"layers": []any{1, 2, 3}},
		},
		{
			name:     "set json invalid",
			args:     []string{"--set-json=x=not json"},
			wantCode: TextCodeValueParse,
		},
		{
			name:     "braces force json parse",
			args:     []string{"--set=bad={oops"},
			wantCode: TextCodeValueParse,
		},
		{
			name:     "unknown directive",
			args:     []string{"--bogus=1"},
			wantCode: TextCodeUnknownDirective,
		},
		{
			name:     "no equals sign",
			args:     []string{"justtext"},
			wantCode: TextCodeUnknownDirective,
		},
		{
			name:     "set body without equals",
			args:     []string{"--set=noequals"},
			wantCode: TextCodeUnknownDirective,
		},
		{
			name: "dash key via set",
			args: []string{"--set=-key=1"},
			want: map[string]any{"-key": 1},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root, err := ParseArgs(tc.args)
			if tc.wantCode != "" {
				if err == nil {
					t.Fatalf("expected error, got document %v", root.Raw())
				}
				if got := ErrorCode(err); got != tc.wantCode {
					t.Fatalf("error code = %q, want %q (err: %v)", got, tc.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if want := docFrom(t, tc.want); !value.Equal(value.Map(root), want) {
				t.Fatalf("document = %v, want %v", root.Raw(), tc.want)
			}
		})
	}
}

func TestResolveFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"base.yaml": &fstest.MapFile{Data: []byte("server:\n  host: localhost\n  port: 8080\n")},
		"db.json":   &fstest.MapFile{Data: []byte(`{"dsn": "postgres://db/app"}`)},
		"bad.toml":  &fstest.MapFile{Data: []byte("not toml [[")},
		"list.json": &fstest.MapFile{Data: []byte(`[1, 2]`)},
	}
	r := &Resolver{FS: fsys}

	t.Run("from file merges at root", func(t *testing.T) {
		root, err := ParseArgsWith(r, []string{"--from-file=base.yaml", "--set=server.port=9000"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := docFrom(t, map[string]any{
			"server": map[string]any{"host": "localhost", "port": 9000},
		})
		if !value.Equal(value.Map(root), want) {
			t.Fatalf("document = %v", root.Raw())
		}
	})

	t.Run("set from file merges at path", func(t *testing.T) {
		root, err := ParseArgsWith(r, []string{"--set-from-file=database=db.json"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := docFrom(t, map[string]any{
			"database": map[string]any{"dsn": "postgres://db/app"},
		})
		if !value.Equal(value.Map(root), want) {
			t.Fatalf("document = %v", root.Raw())
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ParseArgsWith(r, []string{"--from-file=nowhere.yaml"})
		if got := ErrorCode(err); got != TextCodeFileDecode {
			t.Fatalf("error code = %q (err: %v)", got, err)
		}
	})

	t.Run("undecodable file", func(t *testing.T) {
		_, err := ParseArgsWith(r, []string{"--from-file=bad.toml"})
		if got := ErrorCode(err); got != TextCodeFileDecode {
			t.Fatalf("error code = %q (err: %v)", got, err)
		}
	})

	t.Run("top level sequence rejected", func(t *testing.T) {
		_, err := ParseArgsWith(r, []string{"--from-file=list.json"})
		if got := ErrorCode(err); got != TextCodeFileDecode {
			t.Fatalf("error code = %q (err: %v)", got, err)
		}
	})
}

func TestResolveFns(t *testing.T) {
	fns := NewFnRegistry()
	fns.Register("tests:base", func() (any, error) {
		return map[string]any{"host": "localhost", "port": 8080}, nil
	})
	fns.Register("tests:boom", func() (any, error) {
		return nil, fmt.Errorf("kaput")
	})
	fns.Register("tests:panics", func() (any, error) {
		panic("no")
	})
	fns.Register("tests:scalar", func() (any, error) {
		return 42, nil
	})
	r := &Resolver{Fns: fns}

	t.Run("from fn merges at root", func(t *testing.T) {
		root, err := ParseArgsWith(r, []string{"--from-fn=tests:base", "--set=port=9000"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := docFrom(t, map[string]any{"host": "localhost", "port": 9000})
		if !value.Equal(value.Map(root), want) {
			t.Fatalf("document = %v", root.Raw())
		}
	})

	t.Run("py fn alias accepted", func(t *testing.T) {
		root, err := ParseArgsWith(r, []string{"--from-py-fn=tests:base"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := root.Get("host"); !ok {
			t.Fatalf("document = %v", root.Raw())
		}
	})

	t.Run("set from fn merges at path", func(t *testing.T) {
		root, err := ParseArgsWith(r, []string{"--set-from-fn=server=tests:base"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := docFrom(t, map[string]any{
			"server": map[string]any{"host": "localhost", "port": 8080},
		})
		if !value.Equal(value.Map(root), want) {
			t.Fatalf("document = %v", root.Raw())
		}
	})

	t.Run("unknown callable", func(t *testing.T) {
		_, err := ParseArgsWith(r, []string{"--from-fn=tests:missing"})
		if got := ErrorCode(err); got != TextCodeCallableLoad {
			t.Fatalf("error code = %q (err: %v)", got, err)
		}
	})

	t.Run("callable error", func(t *testing.T) {
		_, err := ParseArgsWith(r, []string{"--from-fn=tests:boom"})
		if got := ErrorCode(err); got != TextCodeCallableInvocation {
			t.Fatalf("error code = %q (err: %v)", got, err)
		}
	})

	t.Run("callable panic recovered", func(t *testing.T) {
		_, err := ParseArgsWith(r, []string{"--from-fn=tests:panics"})
		if got := ErrorCode(err); got != TextCodeCallableInvocation {
			t.Fatalf("error code = %q (err: %v)", got, err)
		}
	})

	t.Run("scalar result rejected", func(t *testing.T) {
		_, err := ParseArgsWith(r, []string{"--from-fn=tests:scalar"})
		if got := ErrorCode(err); got != TextCodeCallableInvocation {
			t.Fatalf("error code = %q (err: %v)", got, err)
		}
	})
}

func TestParseScalar(t *testing.T) {
	tests := []struct {
		raw     string
		strict  bool
		want    any
		wantErr bool
	}{
		{raw: "5", want: 5},
		{raw: "0.25", want: 0.25},
		{raw: "true", want: true},
		{raw: "null", want: nil},
		{raw: `"quoted"`, want: "quoted"},
		{raw: "plain text", want: "plain text"},
		{raw: "plain text", strict: true, wantErr: true},
		{raw: `{"a": 1}`, want: map[string]any{"a": 1}},
		{raw: "{broken", wantErr: true},
		{raw: "[broken", wantErr: true},
		{raw: `has "quotes" inside`, wantErr: true},
	}

	for _, tc := range tests {
		name := tc.raw
		if tc.strict {
			name += " (strict)"
		}
		t.Run(name, func(t *testing.T) {
			got, err := ParseScalar(tc.raw, tc.strict)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got.Interface())
				}
				if code := ErrorCode(err); code != TextCodeValueParse {
					t.Fatalf("error code = %q", code)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			want, err := value.FromAny(tc.want)
			if err != nil {
				t.Fatalf("fixture: %v", err)
			}
			if !value.Equal(got, want) {
				t.Fatalf("ParseScalar(%q) = %v, want %v", tc.raw, got.Interface(), tc.want)
			}
		})
	}
}
