package extension

import "snipd/internal/logging"

// Echo returns its echo parameter with positional arguments applied.
type Echo struct {
	log *logging.Logger
}

// NewEcho creates the echo extension. A nil logger uses the default.
func NewEcho(log *logging.Logger) *Echo {
	if log == nil {
		log = logging.Component("extension")
	}
	return &Echo{log: log}
}

func (e *Echo) Name() string { return "echo" }

func (e *Echo) Calculate(params Params, args []string, _ Scope) (Result, error) {
	var p struct {
		Echo *string `yaml:"echo"`
	}
	if err := params.Decode(&p); err != nil {
		e.log.Warn("invalid echo parameters", "error", err)
		return nil, nil
	}
	if p.Echo == nil {
		e.log.Warn("no 'echo' parameter specified for echo variable", "error", ErrMissingData)
		return nil, nil
	}
	return Single{Value: RenderArgs(*p.Echo, args)}, nil
}
