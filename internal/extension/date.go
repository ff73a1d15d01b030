package extension

import (
	"strconv"
	"strings"
	"time"

	"snipd/internal/logging"
)

// Date renders the current time.
//
// Parameters:
//
//	format: strftime-style layout ("%Y-%m-%d"); RFC 1123 when absent
//	offset: seconds added to the current time (may be negative)
type Date struct {
	log *logging.Logger
	now func() time.Time
}

// NewDate creates the date extension. A nil logger uses the default.
func NewDate(log *logging.Logger) *Date {
	if log == nil {
		log = logging.Component("extension")
	}
	return &Date{log: log, now: time.Now}
}

func (d *Date) Name() string { return "date" }

func (d *Date) Calculate(params Params, args []string, _ Scope) (Result, error) {
	var p struct {
		Format string `yaml:"format"`
		Offset int64  `yaml:"offset"`
	}
	if err := params.Decode(&p); err != nil {
		d.log.Warn("invalid date parameters", "error", err)
		return nil, nil
	}

	now := d.now().Add(time.Duration(p.Offset) * time.Second)
	if p.Format == "" {
		return Single{Value: now.Format(time.RFC1123Z)}, nil
	}
	return Single{Value: RenderArgs(Strftime(now, p.Format), args)}, nil
}

// Strftime formats t using the common strftime directives. Unknown
// directives are copied through unchanged.
func Strftime(t time.Time, format string) string {
	var b strings.Builder
	b.Grow(len(format) + 16)

	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i == len(format)-1 {
			b.WriteByte(c)
			continue
		}
		i++
		switch format[i] {
		case 'Y':
			b.WriteString(strconv.Itoa(t.Year()))
		case 'y':
			b.WriteString(t.Format("06"))
		case 'm':
			b.WriteString(t.Format("01"))
		case 'd':
			b.WriteString(t.Format("02"))
		case 'e':
			b.WriteString(t.Format("_2"))
		case 'H':
			b.WriteString(t.Format("15"))
		case 'I':
			b.WriteString(t.Format("03"))
		case 'M':
			b.WriteString(t.Format("04"))
		case 'S':
			b.WriteString(t.Format("05"))
		case 'p':
			b.WriteString(t.Format("PM"))
		case 'a':
			b.WriteString(t.Format("Mon"))
		case 'A':
			b.WriteString(t.Format("Monday"))
		case 'b', 'h':
			b.WriteString(t.Format("Jan"))
		case 'B':
			b.WriteString(t.Format("January"))
		case 'j':
			b.WriteString(t.Format("002"))
		case 'Z':
			b.WriteString(t.Format("MST"))
		case 'z':
			b.WriteString(t.Format("-0700"))
		case 's':
			b.WriteString(strconv.FormatInt(t.Unix(), 10))
		case 'D':
			b.WriteString(t.Format("01/02/06"))
		case 'F':
			b.WriteString(t.Format("2006-01-02"))
		case 'T':
			b.WriteString(t.Format("15:04:05"))
		case 'R':
			b.WriteString(t.Format("15:04"))
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteByte(format[i])
		}
	}
	return b.String()
}
