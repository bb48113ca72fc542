// filename: internal/builder/helpers/parse.go
package helpers

import (
	"unicode/utf8"

	"github.com/novasec/engine/internal/builder/syntax"
	"github.com/novasec/engine/internal/expression"
	"github.com/novasec/engine/internal/hlp"
	"github.com/novasec/engine/internal/models"
)

// parserFactory строит парсер из параметров после источника.
// Вызывается один раз при сборке терма.
type parserFactory func(h *helper, options []syntax.Parameter) (hlp.Parser, error)

// specificParser строит хелпер parse_*: первый параметр источник (значение
// или ссылка), результат пишется в целевое поле. При ошибке поле не меняется.
func specificParser(minArity, maxArity int, factory parserFactory) func(def syntax.Definition) (*expression.Expression, error) {
	return func(def syntax.Definition) (*expression.Expression, error) {
		h, err := newHelper(def)
		if err != nil {
			return nil, err
		}
		if minArity == maxArity {
			err = h.checkArity(minArity)
		} else if maxArity < 0 {
			err = h.checkMinArity(minArity)
		} else {
			err = h.checkArityRange(minArity, maxArity)
		}
		if err != nil {
			return nil, err
		}

		options := h.parameters[1:]
		for i := range options {
			if err := h.requireKind(i+1, syntax.ParameterValue); err != nil {
				return nil, err
			}
		}

		parse, err := factory(h, options)
		if err != nil {
			return nil, err
		}

		source := h.parameters[0]
		precomputed, precomputedErr := "", error(nil)
		if !source.IsReference() {
			precomputed, precomputedErr = parse(source.Value)
		}

		return h.term(func(event *models.Event) expression.Result {
			raw, parseErr := precomputed, precomputedErr
			if source.IsReference() {
				input, ok := event.GetString(source.Value)
				if !ok {
					return h.failure(event, traceReferenceNotFound, source.Value)
				}
				raw, parseErr = parse(input)
			}
			if parseErr != nil {
				return h.failure(event, "%v", parseErr)
			}

			if err := event.SetRaw(h.target, raw); err != nil {
				return h.failure(event, "%v", err)
			}
			return h.success(event)
		}), nil
	}
}

// fixed оборачивает парсер без опций
func fixed(parser hlp.Parser) parserFactory {
	return func(*helper, []syntax.Parameter) (hlp.Parser, error) {
		return parser, nil
	}
}

// dateParser: parse_date(source, format, [locale])
func dateParser(h *helper, options []syntax.Parameter) (hlp.Parser, error) {
	locale := ""
	if len(options) > 1 {
		locale = options[1].Value
	}
	parser, err := hlp.NewDateParser(options[0].Value, locale)
	if err != nil {
		return nil, h.invalidLiteral("%v", err)
	}
	return parser, nil
}

// xmlParser: parse_xml(source, [mode])
func xmlParser(h *helper, options []syntax.Parameter) (hlp.Parser, error) {
	mode := hlp.XMLDefault
	if len(options) > 0 {
		mode = hlp.XMLMode(options[0].Value)
	}
	parser, err := hlp.NewXMLParser(mode)
	if err != nil {
		return nil, h.invalidLiteral("%v", err)
	}
	return parser, nil
}

// csvParser: parse_csv(source, field...)
func csvParser(h *helper, options []syntax.Parameter) (hlp.Parser, error) {
	fields := make([]string, 0, len(options))
	for _, option := range options {
		fields = append(fields, option.Value)
	}
	parser, err := hlp.NewCSVParser(fields)
	if err != nil {
		return nil, h.invalidLiteral("%v", err)
	}
	return parser, nil
}

// keyValueParser: parse_key_value(source, key_sep, pair_sep, quote, escape)
func keyValueParser(h *helper, options []syntax.Parameter) (hlp.Parser, error) {
	var chars [4]rune
	for i, option := range options {
		r, err := singleRune(h, option.Value)
		if err != nil {
			return nil, err
		}
		chars[i] = r
	}

	parser, err := hlp.NewKeyValueParser(hlp.KeyValueOptions{
		KeySeparator:  chars[0],
		PairSeparator: chars[1],
		Quote:         chars[2],
		Escape:        chars[3],
	})
	if err != nil {
		return nil, h.invalidLiteral("%v", err)
	}
	return parser, nil
}

// quotedParser: parse_quoted(source, [quote], [escape])
func quotedParser(h *helper, options []syntax.Parameter) (hlp.Parser, error) {
	quote, escape := '"', '\\'
	var err error
	if len(options) > 0 {
		if quote, err = singleRune(h, options[0].Value); err != nil {
			return nil, err
		}
	}
	if len(options) > 1 {
		if escape, err = singleRune(h, options[1].Value); err != nil {
			return nil, err
		}
	}
	return func(input string) (string, error) {
		return hlp.ParseQuoted(input, quote, escape)
	}, nil
}

// betweenParser: parse_between(source, start, end)
func betweenParser(h *helper, options []syntax.Parameter) (hlp.Parser, error) {
	start, end := options[0].Value, options[1].Value
	if start == "" || end == "" {
		return nil, h.invalidLiteral("start and end delimiters must not be empty")
	}
	return func(input string) (string, error) {
		return hlp.ParseBetween(input, start, end)
	}, nil
}

func singleRune(h *helper, value string) (rune, error) {
	if utf8.RuneCountInString(value) != 1 {
		return 0, h.invalidLiteral("'%s' must be a single character", value)
	}
	r, _ := utf8.DecodeRuneInString(value)
	return r, nil
}
