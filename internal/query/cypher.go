package query

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/systemshift/biograph/internal/model"
)

// Kind names the statement shape.
type Kind string

const (
	KindNode    Kind = "node"
	KindPath    Kind = "path"
	KindNetwork Kind = "network"
	KindVariant Kind = "variant"
)

// Statement is compiled Cypher text plus the columns it returns.
type Statement struct {
	Kind    Kind     `json:"kind"`
	Text    string   `json:"statement"`
	Columns []string `json:"columns"`
}

func (s Statement) String() string { return s.Text }

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// property renders variable.name, backtick-quoting names that are not plain identifiers.
func property(variable, name string) string {
	if identifier.MatchString(name) {
		return variable + "." + name
	}
	return variable + ".`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// quote renders s as a double-quoted Cypher string literal.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// literal renders a Go value as a Cypher literal. Text is quoted, numbers are not.
func literal(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "null", nil
	case string:
		return quote(t), nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int32:
		return strconv.FormatInt(int64(t), 10), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float32:
		return formatFloat(float64(t)), nil
	case float64:
		return formatFloat(t), nil
	case json.Number:
		return t.String(), nil
	case []string:
		return stringList(t), nil
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			s, err := literal(e)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	}
	return "", fmt.Errorf("unsupported value type %T", v)
}

func stringList(values []string) string {
	parts := make([]string, len(values))
	for i, s := range values {
		parts[i] = quote(s)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Comparison operators recognized at the start of a filter value, longest first.
var comparisonPrefixes = []struct {
	prefix string
	cypher string
}{
	{">=", ">="},
	{"<=", "<="},
	{"!=", "<>"},
	{"=", "="},
	{">", ">"},
	{"<", "<"},
	{"!", "<>"},
}

func hasComparisonPrefix(s string) bool {
	for _, op := range comparisonPrefixes {
		if strings.HasPrefix(s, op.prefix) {
			return true
		}
	}
	return false
}

// condition renders "prop <op> literal" for a filter value. Strings that start
// with a comparison operator keep it; the operand is unquoted when numeric.
// Lists become IN tests.
func condition(prop, key string, value any) (string, error) {
	switch t := value.(type) {
	case string:
		for _, op := range comparisonPrefixes {
			if !strings.HasPrefix(t, op.prefix) {
				continue
			}
			operand := strings.TrimSpace(t[len(op.prefix):])
			if operand == "" {
				return "", invalidExpr(key, t, "missing operand after %q", op.prefix)
			}
			if _, err := strconv.ParseFloat(operand, 64); err == nil {
				return prop + " " + op.cypher + " " + operand, nil
			}
			return prop + " " + op.cypher + " " + quote(operand), nil
		}
	case []string, []any:
		lit, err := literal(t)
		if err != nil {
			return "", invalidExpr(key, fmt.Sprint(value), "%v", err)
		}
		return prop + " IN " + lit, nil
	case *Query:
		return "", invalidExpr(key, "{...}", "nested filters are not allowed here")
	}
	lit, err := literal(value)
	if err != nil {
		return "", invalidExpr(key, fmt.Sprint(value), "%v", err)
	}
	return prop + " = " + lit, nil
}

// node renders a labelled node pattern.
func node(variable string, typ model.NodeType) string {
	return "(" + variable + ":" + string(typ) + ")"
}

// pattern joins node patterns with undirected relationships. Elements must
// alternate node string, model.RelationType, node string, ...
func pattern(elems ...any) string {
	var b strings.Builder
	for _, e := range elems {
		switch t := e.(type) {
		case string:
			b.WriteString(t)
		case model.RelationType:
			b.WriteString("-[:" + string(t) + "]-")
		}
	}
	return b.String()
}

// Fragment is one MATCH clause with its ANDed WHERE conditions.
type Fragment struct {
	Match string
	Where []string
}

// Render writes the fragment as MATCH/WHERE lines.
func (f Fragment) Render() string {
	if len(f.Where) == 0 {
		return "MATCH " + f.Match
	}
	return "MATCH " + f.Match + "\nWHERE " + strings.Join(f.Where, " AND ")
}

// chain joins fragments, carrying variable forward between them, and appends tail.
func chain(variable string, fragments []Fragment, tail string) string {
	var b strings.Builder
	for i, f := range fragments {
		if i > 0 {
			b.WriteString("\nWITH DISTINCT " + variable + "\n")
		}
		b.WriteString(f.Render())
	}
	b.WriteString("\n" + tail)
	return b.String()
}

// union joins statements that return the same columns.
func union(parts []string) string {
	return strings.Join(parts, "\nUNION\n")
}
