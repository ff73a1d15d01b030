package extension

import (
	"fmt"
	"math/rand"

	"snipd/internal/logging"
)

// Random picks one of its choices uniformly at random.
//
// Parameters:
//
//	choices: sequence of strings; non-string entries count as ""
type Random struct {
	log  *logging.Logger
	pick func(n int) int
}

// NewRandom creates the random extension. A nil logger uses the default.
func NewRandom(log *logging.Logger) *Random {
	if log == nil {
		log = logging.Component("extension")
	}
	return &Random{log: log, pick: rand.Intn}
}

func (r *Random) Name() string { return "random" }

func (r *Random) Calculate(params Params, args []string, _ Scope) (Result, error) {
	raw, ok := params["choices"]
	if !ok {
		r.log.Warn("no 'choices' parameter specified for random variable", "error", ErrMissingData)
		return nil, nil
	}

	choices, ok := stringSequence(raw)
	if !ok {
		r.log.Error("choices parameter has an invalid format", "type", fmt.Sprintf("%T", raw))
		return nil, fmt.Errorf("%w: choices is not a sequence", ErrInternal)
	}
	if len(choices) == 0 {
		r.log.Error("could not select a random choice")
		return nil, fmt.Errorf("%w: no choices to select from", ErrInternal)
	}

	chosen := choices[r.pick(len(choices))]
	return Single{Value: RenderArgs(chosen, args)}, nil
}

// stringSequence converts a decoded YAML sequence into strings. Elements
// that are not strings become "".
func stringSequence(v any) ([]string, bool) {
	switch seq := v.(type) {
	case []string:
		return seq, true
	case []any:
		out := make([]string, len(seq))
		for i, item := range seq {
			if s, ok := item.(string); ok {
				out[i] = s
			}
		}
		return out, true
	default:
		return nil, false
	}
}
