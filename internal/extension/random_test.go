package extension

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snipd/internal/logging"
)

func captureLogger() (*logging.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logging.NewWithWriter(&buf, logging.DefaultConfig()), &buf
}

func TestRandomBasic(t *testing.T) {
	choices := []any{"first", "second", "third"}
	ext := NewRandom(nil)

	out, err := ext.Calculate(Params{"choices": choices}, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Contains(t, []Result{Single{"first"}, Single{"second"}, Single{"third"}}, out)
}

func TestRandomWithArgs(t *testing.T) {
	choices := []any{"first $0$", "second $0$", "$0$ third"}
	ext := NewRandom(nil)

	out, err := ext.Calculate(Params{"choices": choices}, []string{"test"}, nil)
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Contains(t, []string{"first test", "second test", "test third"}, out.String())
}

func TestRandomMissingChoicesIsEmptyNotError(t *testing.T) {
	log, buf := captureLogger()
	ext := NewRandom(log)

	out, err := ext.Calculate(Params{}, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "choices")
}

func TestRandomEmptyChoicesIsInternalError(t *testing.T) {
	log, _ := captureLogger()
	ext := NewRandom(log)

	out, err := ext.Calculate(Params{"choices": []any{}}, nil, nil)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrInternal)
}

func TestRandomChoicesNotASequence(t *testing.T) {
	log, _ := captureLogger()
	ext := NewRandom(log)

	_, err := ext.Calculate(Params{"choices": "just one"}, nil, nil)
	assert.ErrorIs(t, err, ErrInternal)
}

func TestRandomNonStringChoicesRenderEmpty(t *testing.T) {
	ext := NewRandom(nil)
	ext.pick = func(int) int { return 1 }

	out, err := ext.Calculate(Params{"choices": []any{"a", 42, "c"}}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, Single{Value: ""}, out)
}

func TestRandomOutputAlwaysFromChoiceSet(t *testing.T) {
	choices := []any{"x $0$ $1$", "$1$-$0$", "plain"}
	args := []string{"a", "b"}
	allowed := map[string]bool{"x a b": true, "b-a": true, "plain": true}

	ext := NewRandom(nil)
	for i := 0; i < 500; i++ {
		out, err := ext.Calculate(Params{"choices": choices}, args, nil)
		require.NoError(t, err)
		require.Truef(t, allowed[out.String()], "unexpected output %q", out.String())
	}
}

func TestRandomDistributionIsRoughlyUniform(t *testing.T) {
	const trials = 30000
	choices := []any{"a", "b", "c", "d", "e"}
	ext := NewRandom(nil)

	counts := make(map[string]int)
	for i := 0; i < trials; i++ {
		out, err := ext.Calculate(Params{"choices": choices}, nil, nil)
		require.NoError(t, err)
		counts[out.String()]++
	}

	expected := trials / len(choices)
	for _, c := range choices {
		n := counts[c.(string)]
		// 6000 expected per bucket; a 15% band is far outside random noise.
		assert.InDeltaf(t, expected, n, float64(expected)*0.15, "choice %v selected %d times", c, n)
	}
}

func TestRandomDoesNotMutateParams(t *testing.T) {
	choices := []any{"one $0$", "two $0$"}
	params := Params{"choices": choices}

	_, err := NewRandom(nil).Calculate(params, []string{"x"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []any{"one $0$", "two $0$"}, params["choices"])
	assert.Len(t, params, 1)
}

func TestRandomFromStringSlice(t *testing.T) {
	out, err := NewRandom(nil).Calculate(Params{"choices": []string{"only"}}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "only", out.String())
	assert.False(t, strings.Contains(out.String(), "$"))
}
