package query

import (
	"fmt"
	"strconv"

	"github.com/systemshift/biograph/internal/model"
)

// DefaultMaxJumps bounds path traversals when OptMaxJumps is not set.
const DefaultMaxJumps = 2

func maxJumps(opts *QueryOptions) (int, error) {
	jumps, err := opts.Int(OptMaxJumps, DefaultMaxJumps)
	if err != nil {
		return 0, invalidOption(OptMaxJumps, err)
	}
	if jumps < 1 {
		return 0, invalidOption(OptMaxJumps, fmt.Errorf("must be at least 1, got %d", jumps))
	}
	return jumps, nil
}

// pathPart renders one MATCH path = ... RETURN path statement.
func pathPart(src, dest *Query, jumps int, limit string) (string, error) {
	srcPattern, srcWhere, err := anchor("n1", src, KindPath)
	if err != nil {
		return "", fmt.Errorf("source node: %w", err)
	}
	destPattern, destWhere, err := anchor("n2", dest, KindPath)
	if err != nil {
		return "", fmt.Errorf("destination node: %w", err)
	}

	f := Fragment{
		Match: "path = " + srcPattern + "-[*1.." + strconv.Itoa(jumps) + "]-" + destPattern,
		Where: append(srcWhere, destWhere...),
	}
	return f.Render() + "\nRETURN path" + limit, nil
}

func limitSuffix(opts *QueryOptions) (string, error) {
	limit, err := opts.Int(OptLimit, 0)
	if err != nil {
		return "", invalidOption(OptLimit, err)
	}
	if limit < 0 {
		return "", invalidOption(OptLimit, fmt.Errorf("must not be negative, got %d", limit))
	}
	if limit == 0 {
		return "", nil
	}
	return "\nLIMIT " + strconv.Itoa(limit), nil
}

// CompilePath compiles a variable-length path between two filtered anchors.
//
//	MATCH path = (n1:GENE)-[*1..2]-(n2:PROTEIN)
//	WHERE n1.name = "BRCA2"
//	RETURN path
func CompilePath(src, dest *Query, opts *QueryOptions) (Statement, error) {
	jumps, err := maxJumps(opts)
	if err != nil {
		return Statement{}, err
	}
	limit, err := limitSuffix(opts)
	if err != nil {
		return Statement{}, err
	}
	text, err := pathPart(src, dest, jumps, limit)
	if err != nil {
		return Statement{}, err
	}
	return Statement{Kind: KindPath, Text: text, Columns: []string{"path"}}, nil
}

// PathFromQuery splits a query holding src-node and dest-node into the two
// anchor queries. Each value is either a nested Query or a node type name.
func PathFromQuery(q *Query) (src, dest *Query, err error) {
	src, err = endpoint(q, KeySrcNode)
	if err != nil {
		return nil, nil, err
	}
	dest, err = endpoint(q, KeyDestNode)
	if err != nil {
		return nil, nil, err
	}
	for _, key := range q.Keys() {
		if key != KeySrcNode && key != KeyDestNode {
			return nil, nil, &UnsupportedFilterError{Key: key, Kind: KindPath}
		}
	}
	return src, dest, nil
}

func endpoint(q *Query, key string) (*Query, error) {
	v, ok := q.Get(key)
	if !ok {
		return &Query{}, nil
	}
	switch t := v.(type) {
	case *Query:
		return t, nil
	case string:
		if t == "" {
			return &Query{}, nil
		}
		return New(KeyNodeType, t), nil
	}
	return nil, invalidExpr(key, fmt.Sprint(v), "expected a node type or nested filter, got %T", v)
}

// CompileNetwork unions one path pattern per unordered pair of node types,
// in input order, so K types produce K*(K-1)/2 patterns.
func CompileNetwork(types []model.NodeType, opts *QueryOptions) (Statement, error) {
	if len(types) < 2 {
		return Statement{}, invalidOption("types", fmt.Errorf("need at least two node types, got %d", len(types)))
	}
	for _, t := range types {
		if !t.Valid() {
			return Statement{}, invalidExpr(KeyNodeType, string(t), "%v", model.ErrUnknownNodeType)
		}
	}
	jumps, err := maxJumps(opts)
	if err != nil {
		return Statement{}, err
	}
	limit, err := limitSuffix(opts)
	if err != nil {
		return Statement{}, err
	}

	var parts []string
	for i := 0; i < len(types); i++ {
		for j := i + 1; j < len(types); j++ {
			part, err := pathPart(New(KeyNodeType, string(types[i])), New(KeyNodeType, string(types[j])), jumps, limit)
			if err != nil {
				return Statement{}, err
			}
			parts = append(parts, part)
		}
	}
	return Statement{Kind: KindNetwork, Text: union(parts), Columns: []string{"path"}}, nil
}
