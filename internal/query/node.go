package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/systemshift/biograph/internal/model"
)

// Pseudo-attributes need a dedicated expansion and never reach the generic
// attribute pass.
var pseudoAttributes = map[string]bool{
	KeyPanel:                  true,
	KeyGene:                   true,
	KeyConsequenceType:        true,
	KeyBiotype:                true,
	KeyGenotype:               true,
	KeyPopulationFrequencyAlt: true,
	"so":                      true,
	"ontology":                true,
	"population":              true,
}

// anchor builds the node pattern and WHERE conditions for one filterable node.
func anchor(variable string, q *Query, kind Kind) (string, []string, error) {
	label := ""
	var where []string

	for _, key := range q.Keys() {
		value, _ := q.Get(key)
		switch key {
		case KeyNodeType:
			typ, err := model.ParseNodeType(q.String(key))
			if err != nil {
				return "", nil, invalidExpr(key, q.String(key), "%v", err)
			}
			label = ":" + string(typ)
			continue
		case KeyNodeUID:
			if s, ok := value.(string); ok && !hasComparisonPrefix(s) {
				uid, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
				if err != nil {
					return "", nil, invalidExpr(key, s, "uid must be an integer")
				}
				value = uid
			}
		}

		if pseudoAttributes[key] {
			return "", nil, &UnsupportedFilterError{Key: key, Kind: kind}
		}
		if key == KeySrcNode || key == KeyDestNode {
			return "", nil, &UnsupportedFilterError{Key: key, Kind: kind}
		}

		attr := strings.TrimPrefix(key, "node.")
		cond, err := condition(property(variable, attr), key, value)
		if err != nil {
			return "", nil, err
		}
		where = append(where, cond)
	}

	return "(" + variable + label + ")", where, nil
}

// returnClause renders the RETURN line. With OptInclude the listed attributes
// of variable are projected as columns; otherwise def is returned as is.
func returnClause(variable string, def []string, opts *QueryOptions, distinct bool) (string, []string, error) {
	ret := "RETURN "
	if distinct {
		ret = "RETURN DISTINCT "
	}

	columns := def
	body := strings.Join(def, ", ")
	if include := opts.List(OptInclude); len(include) > 0 {
		columns = make([]string, 0, len(include))
		parts := make([]string, 0, len(include))
		for _, attr := range include {
			col := attr
			if !identifier.MatchString(col) {
				col = "`" + strings.ReplaceAll(col, "`", "``") + "`"
			}
			parts = append(parts, property(variable, attr)+" AS "+col)
			columns = append(columns, attr)
		}
		body = strings.Join(parts, ", ")
	}

	limit, err := opts.Int(OptLimit, 0)
	if err != nil {
		return "", nil, invalidOption(OptLimit, err)
	}
	if limit < 0 {
		return "", nil, invalidOption(OptLimit, fmt.Errorf("must not be negative, got %d", limit))
	}
	clause := ret + body
	if limit > 0 {
		clause += "\nLIMIT " + strconv.Itoa(limit)
	}
	return clause, columns, nil
}

// CompileNode compiles a single-anchor node query.
//
//	MATCH (n:GENE)
//	WHERE n.name = "BRCA2" AND n.start > 32315474
//	RETURN n
func CompileNode(q *Query, opts *QueryOptions) (Statement, error) {
	match, where, err := anchor("n", q, KindNode)
	if err != nil {
		return Statement{}, err
	}
	if out := opts.String(OptOutput); out != "" && out != OutputNode && out != OutputTable {
		return Statement{}, invalidOption(OptOutput, fmt.Errorf("unknown output shape %q", out))
	}
	ret, columns, err := returnClause("n", []string{"n"}, opts, false)
	if err != nil {
		return Statement{}, err
	}
	text := chain("n", []Fragment{{Match: match, Where: where}}, ret)
	return Statement{Kind: KindNode, Text: text, Columns: columns}, nil
}
