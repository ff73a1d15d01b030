package extension

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapScope map[string]Result

func (m mapScope) Lookup(name string) (Result, bool) {
	r, ok := m[name]
	return r, ok
}

func (m mapScope) Each(fn func(string, Result)) {
	for k, v := range m {
		fn(k, v)
	}
}

func TestRegistry(t *testing.T) {
	r, err := NewRegistry(NewRandom(nil), NewEcho(nil))
	require.NoError(t, err)

	ext, ok := r.Lookup("random")
	require.True(t, ok)
	assert.Equal(t, "random", ext.Name())

	_, ok = r.Lookup("clipboard")
	assert.False(t, ok)

	err = r.Register(NewRandom(nil))
	assert.ErrorIs(t, err, ErrDuplicate)

	assert.Equal(t, []string{"echo", "random"}, r.Names())
}

func TestBuiltin(t *testing.T) {
	r := Builtin(BuiltinOptions{})
	assert.Equal(t, []string{"date", "echo", "random", "shell"}, r.Names())
}

func TestMultipleResult(t *testing.T) {
	m := Multiple{Main: "main", Values: map[string]string{"k": "v"}}
	assert.Equal(t, "main", m.String())

	v, ok := m.Field("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestEcho(t *testing.T) {
	ext := NewEcho(nil)

	out, err := ext.Calculate(Params{"echo": "hi $0$"}, []string{"there"}, nil)
	require.NoError(t, err)
	assert.Equal(t, Single{"hi there"}, out)

	log, buf := captureLogger()
	out, err = NewEcho(log).Calculate(Params{}, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Contains(t, buf.String(), "echo")
}

func TestDate(t *testing.T) {
	fixed := time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)
	ext := NewDate(nil)
	ext.now = func() time.Time { return fixed }

	out, err := ext.Calculate(Params{"format": "%Y-%m-%d %H:%M:%S"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05 14:07:09", out.String())

	out, err = ext.Calculate(Params{"format": "%H:%M", "offset": 3600}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "15:07", out.String())

	out, err = ext.Calculate(Params{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, fixed.Format(time.RFC1123Z), out.String())
}

func TestStrftime(t *testing.T) {
	ts := time.Date(2023, time.December, 31, 9, 5, 0, 0, time.UTC)

	tests := map[string]string{
		"%d/%m/%y":  "31/12/23",
		"%A, %B %e": "Sunday, December 31",
		"%I:%M %p":  "09:05 AM",
		"%j":        "365",
		"100%%":     "100%",
		"%Q":        "%Q",
		"trailing%": "trailing%",
	}
	for format, want := range tests {
		assert.Equal(t, want, Strftime(ts, format), format)
	}
}

func TestShell(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	ext := NewShell(nil, time.Second)

	out, err := ext.Calculate(Params{"cmd": "echo $0$"}, []string{"hello"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", out.String())

	scope := mapScope{"greeting": Single{"hey"}}
	out, err = ext.Calculate(Params{"cmd": "printf %s \"$SNIPD_GREETING\""}, nil, scope)
	require.NoError(t, err)
	assert.Equal(t, "hey", out.String())

	out, err = ext.Calculate(Params{"cmd": "echo keep; exit 3", "trim": false}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "keep\n", out.String())
}

func TestShellMissingCmd(t *testing.T) {
	out, err := NewShell(nil, 0).Calculate(Params{}, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestShellTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	_, err := NewShell(nil, 50*time.Millisecond).Calculate(Params{"cmd": "sleep 2"}, nil, nil)
	assert.ErrorIs(t, err, ErrInternal)
}

func TestShellUnsupported(t *testing.T) {
	_, err := NewShell(nil, 0).Calculate(Params{"cmd": "x", "shell": "fish"}, nil, nil)
	assert.ErrorIs(t, err, ErrInternal)
}
