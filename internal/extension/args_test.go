package extension

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderArgs(t *testing.T) {
	tests := []struct {
		name string
		text string
		args []string
		want string
	}{
		{"no args", "first", nil, "first"},
		{"single", "first $0$", []string{"test"}, "first test"},
		{"repeated", "$0$ and $0$", []string{"x"}, "x and x"},
		{"ordered", "$1$ $0$", []string{"a", "b"}, "b a"},
		{"short args keep literal", "$0$ $1$", []string{"a"}, "a $1$"},
		{"no args keep literal", "hello $0$", []string{}, "hello $0$"},
		{"arg text is not re-expanded", "$0$ $1$", []string{"$1$", "b"}, "$1$ b"},
		{"not a placeholder", "cost $5 $a$", []string{"x"}, "cost $5 $a$"},
		{"multi digit", "$10$", []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "ten"}, "ten"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderArgs(tt.text, tt.args))
		})
	}
}
