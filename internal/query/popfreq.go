package query

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/systemshift/biograph/internal/model"
)

// Population frequency node properties.
const (
	PopulationProperty    = "population"
	StudyProperty         = "study"
	AltAlleleFreqProperty = "altAlleleFreq"
)

// One clause: [study:]population, comparator, numeric threshold.
var popFreqClause = regexp.MustCompile(`^\s*([A-Za-z0-9_.\-]+(?::[A-Za-z0-9_.\-]+)?)\s*(<=|>=|!=|<|>|=)\s*([-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?)\s*$`)

var comparators = map[string]string{
	"<":  "<",
	"<=": "<=",
	">":  ">",
	">=": ">=",
	"=":  "=",
	"!=": "<>",
}

// PopulationClause is one parsed population alternate-frequency comparison.
type PopulationClause struct {
	Study      string
	Population string
	Comparator string
	Threshold  float64
}

// PopulationFilter is a set of clauses joined by one logical operator.
type PopulationFilter struct {
	Operator string // "OR" or "AND"
	Clauses  []PopulationClause
}

// ParsePopulationFrequency parses expressions such as "AFR<0.01,EUR>0.5"
// (any clause) or "gnomad:AFR<0.01;EUR>=0.2" (every clause). Mixing "," and
// ";" in one expression is rejected.
func ParsePopulationFrequency(expr string) (PopulationFilter, error) {
	hasOr := strings.Contains(expr, ",")
	hasAnd := strings.Contains(expr, ";")
	if hasOr && hasAnd {
		return PopulationFilter{}, invalidExpr(KeyPopulationFrequencyAlt, expr, `cannot mix "," and ";"`)
	}

	filter := PopulationFilter{Operator: "AND"}
	sep := ";"
	if hasOr {
		filter.Operator = "OR"
		sep = ","
	}

	for _, raw := range strings.Split(expr, sep) {
		m := popFreqClause.FindStringSubmatch(raw)
		if m == nil {
			return PopulationFilter{}, invalidExpr(KeyPopulationFrequencyAlt, expr, "clause %q is not {population}{comparator}{threshold}", strings.TrimSpace(raw))
		}
		threshold, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			return PopulationFilter{}, invalidExpr(KeyPopulationFrequencyAlt, expr, "threshold %q: %v", m[3], err)
		}
		clause := PopulationClause{Population: m[1], Comparator: m[2], Threshold: threshold}
		if study, pop, ok := strings.Cut(m[1], ":"); ok {
			clause.Study, clause.Population = study, pop
		}
		filter.Clauses = append(filter.Clauses, clause)
	}
	return filter, nil
}

// condition renders one clause as an existential subquery on v.
func (c PopulationClause) condition() string {
	conds := []string{property("pf", PopulationProperty) + " = " + quote(c.Population)}
	if c.Study != "" {
		conds = append([]string{property("pf", StudyProperty) + " = " + quote(c.Study)}, conds...)
	}
	conds = append(conds, "toFloat("+property("pf", AltAlleleFreqProperty)+") "+comparators[c.Comparator]+" "+formatFloat(c.Threshold))

	return "EXISTS { MATCH " +
		pattern("(v)", model.RelVariantPopulationFreq, node("pf", model.PopulationFrequency)) +
		" WHERE " + strings.Join(conds, " AND ") + " }"
}

func populationFrequencyFragments(value any) ([]Fragment, error) {
	expr, ok := value.(string)
	if !ok {
		return nil, invalidExpr(KeyPopulationFrequencyAlt, "", "expected a string, got %T", value)
	}
	filter, err := ParsePopulationFrequency(expr)
	if err != nil {
		return nil, err
	}
	conds := make([]string, len(filter.Clauses))
	for i, c := range filter.Clauses {
		conds[i] = c.condition()
	}
	return []Fragment{{
		Match: node("v", model.Variant),
		Where: []string{"(" + strings.Join(conds, " "+filter.Operator+" ") + ")"},
	}}, nil
}
