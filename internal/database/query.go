package database

import (
	"fmt"
	"strings"

	"github.com/koustreak/dbpool/internal/errs"
)

// Query is a script plus everything needed to run it once: the parameters
// to bind and the consumer of its results.
type Query interface {
	Script() string
	Bind(c *Cursor) error
	Consumer() Consumer
}

// ParamQuery is a Query with a fixed, ordered list of typed parameters.
// Parameters are bound left to right at positions 1..n.
//
// A ParamQuery is built for one call and is not reused.
type ParamQuery struct {
	script   string
	params   []Value
	consumer Consumer
}

// NewQuery builds a query. The number of parameters must match the number of
// placeholders in script.
func NewQuery(script string, consumer Consumer, params ...Value) (*ParamQuery, error) {
	if consumer == nil {
		return nil, errs.New(errs.ErrKindInvalidInput, "query needs a consumer")
	}
	if n := CountPlaceholders(script); n != len(params) {
		return nil, errs.New(errs.ErrKindInvalidInput,
			fmt.Sprintf("script has %d placeholders but %d parameters were given", n, len(params)))
	}
	for i, v := range params {
		if _, ok := v.Kind().NativeType(); !ok {
			return nil, errs.New(errs.ErrKindInvalidInput,
				fmt.Sprintf("parameter %d has no bindable kind", i+1))
		}
	}

	return &ParamQuery{
		script:   script,
		params:   append([]Value(nil), params...),
		consumer: consumer,
	}, nil
}

func (q *ParamQuery) Script() string     { return q.script }
func (q *ParamQuery) Consumer() Consumer { return q.consumer }

// Params returns a copy of the parameters in binding order.
func (q *ParamQuery) Params() []Value {
	return append([]Value(nil), q.params...)
}

// Bind binds every parameter in declared order.
func (q *ParamQuery) Bind(c *Cursor) error {
	for _, v := range q.params {
		if err := c.BindParam(v); err != nil {
			return err
		}
	}
	return nil
}

// Template declares a named script once, with the kinds of its parameters
// and a constructor for its consumer. New produces a ParamQuery per call.
//
//	var DailyAchievement = database.Template{
//	    Name:        "P_GAME_DAILY_ACHIEVEMENT_R",
//	    Script:      "{ call P_GAME_DAILY_ACHIEVEMENT_R(?, ?) }",
//	    Kinds:       []database.Kind{database.KindInt64, database.KindVarChar},
//	    NewConsumer: func() database.Consumer { return &achievementReader{} },
//	}
type Template struct {
	Name        string
	Script      string
	Kinds       []Kind
	NewConsumer func() Consumer
}

// New checks values against the declared kinds and builds the query.
func (t Template) New(values ...Value) (*ParamQuery, error) {
	if len(values) != len(t.Kinds) {
		return nil, errs.New(errs.ErrKindInvalidInput,
			fmt.Sprintf("%s takes %d parameters, got %d", t.Name, len(t.Kinds), len(values)))
	}
	for i, v := range values {
		if v.Kind() != t.Kinds[i] {
			return nil, errs.New(errs.ErrKindInvalidInput,
				fmt.Sprintf("%s parameter %d must be %s, got %s", t.Name, i+1, t.Kinds[i], v.Kind()))
		}
	}
	if t.NewConsumer == nil {
		return nil, errs.New(errs.ErrKindInvalidInput, t.Name+" has no consumer")
	}
	return NewQuery(t.Script, t.NewConsumer(), values...)
}

// CountPlaceholders returns the number of parameters script expects. It
// understands "?" markers, numbered "$N" markers and "@pN" markers, and
// ignores anything inside quoted literals, dollar-quoted bodies and
// comments.
func CountPlaceholders(script string) int {
	var question, dollar, at int

	for i := 0; i < len(script); i++ {
		ch := script[i]
		switch {
		case ch == '\'' || ch == '"' || ch == '`':
			i = skipQuoted(script, i, ch)
		case ch == '-' && i+1 < len(script) && script[i+1] == '-':
			for i < len(script) && script[i] != '\n' {
				i++
			}
		case ch == '/' && i+1 < len(script) && script[i+1] == '*':
			end := strings.Index(script[i+2:], "*/")
			if end < 0 {
				return question + dollar + at
			}
			i += end + 3
		case ch == '?':
			question++
		case ch == '$':
			if tag := dollarTag(script, i); tag != "" {
				end := strings.Index(script[i+len(tag):], tag)
				if end < 0 {
					return question + dollar + at
				}
				i += len(tag) + end + len(tag) - 1
				continue
			}
			n, next := readNumber(script, i+1)
			if n > dollar {
				dollar = n
			}
			i = next - 1
		case ch == '@' && i+1 < len(script) && (script[i+1] == 'p' || script[i+1] == 'P'):
			n, next := readNumber(script, i+2)
			if n > at {
				at = n
			}
			if next > i+2 {
				i = next - 1
			}
		}
	}
	return question + dollar + at
}

// skipQuoted returns the index of the quote closing the literal opened at
// start. A doubled quote inside the literal is an escaped quote.
func skipQuoted(s string, start int, quote byte) int {
	for i := start + 1; i < len(s); i++ {
		if s[i] != quote {
			continue
		}
		if i+1 < len(s) && s[i+1] == quote {
			i++
			continue
		}
		return i
	}
	return len(s)
}

// dollarTag returns the "$$" or "$tag$" delimiter opening a dollar-quoted
// body at start, or "" when there is none. A tag cannot start with a digit,
// which keeps "$1" a parameter.
func dollarTag(s string, start int) string {
	for i := start + 1; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '$':
			return s[start : i+1]
		case ch == '_' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z':
		case ch >= '0' && ch <= '9' && i > start+1:
		default:
			return ""
		}
	}
	return ""
}

func readNumber(s string, start int) (n, next int) {
	i := start
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		n = n*10 + int(s[i]-'0')
		i++
	}
	return n, i
}
