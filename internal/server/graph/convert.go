package graph

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/systemshift/biograph/internal/model"
)

// Property names written by Load and read back by the converters.
const (
	propUID     = "uid"
	propID      = "id"
	propName    = "name"
	propOrigUID = "origUid"
	propDestUID = "destUid"
)

// ConvertValue maps driver values onto model types. Lists and maps are
// converted element by element; other values pass through.
func ConvertValue(v any) any {
	switch t := v.(type) {
	case neo4j.Node:
		return NodeFromNeo4j(t)
	case neo4j.Relationship:
		return RelationFromNeo4j(t)
	case neo4j.Path:
		return NetworkFromPath(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = ConvertValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = ConvertValue(item)
		}
		return out
	}
	return v
}

// NodeFromNeo4j converts a driver node. The most specific known label
// becomes the node type and every label becomes a tag.
func NodeFromNeo4j(n neo4j.Node) *model.Node {
	node := &model.Node{
		UID:        int64Prop(n.Props, propUID),
		ID:         stringProp(n.Props, propID),
		Name:       stringProp(n.Props, propName),
		Type:       primaryType(n.Labels),
		Tags:       append([]string(nil), n.Labels...),
		Attributes: make(map[string]any),
	}
	for k, v := range n.Props {
		switch k {
		case propUID, propID, propName:
			continue
		}
		node.Attributes[k] = ConvertValue(v)
	}
	return node
}

// RelationFromNeo4j converts a driver relationship. Endpoints come from the
// stored origUid and destUid properties.
func RelationFromNeo4j(r neo4j.Relationship) *model.Relation {
	rel := &model.Relation{
		UID:        int64Prop(r.Props, propUID),
		Name:       stringProp(r.Props, propName),
		OrigUID:    int64Prop(r.Props, propOrigUID),
		DestUID:    int64Prop(r.Props, propDestUID),
		Type:       model.RelationType(r.Type),
		Attributes: make(map[string]any),
	}
	if rel.Name == "" {
		rel.Name = r.Type
	}
	for k, v := range r.Props {
		switch k {
		case propUID, propName, propOrigUID, propDestUID:
			continue
		}
		rel.Attributes[k] = ConvertValue(v)
	}
	return rel
}

// NetworkFromPath converts a path into a network holding its nodes and
// relations in traversal order. Relations without stored endpoints get them
// from the path.
func NetworkFromPath(p neo4j.Path) *model.Network {
	net := model.NewNetwork("", "path", "")
	uids := make(map[string]int64, len(p.Nodes))
	for _, n := range p.Nodes {
		node := NodeFromNeo4j(n)
		uids[n.ElementId] = node.UID
		net.Nodes = append(net.Nodes, node)
	}
	for _, r := range p.Relationships {
		rel := RelationFromNeo4j(r)
		if _, ok := r.Props[propOrigUID]; !ok {
			rel.OrigUID = uids[r.StartElementId]
		}
		if _, ok := r.Props[propDestUID]; !ok {
			rel.DestUID = uids[r.EndElementId]
		}
		net.Relations = append(net.Relations, rel)
	}
	return net
}

// primaryType picks the label that is not a parent of another label.
func primaryType(labels []string) model.NodeType {
	known := make([]model.NodeType, 0, len(labels))
	for _, l := range labels {
		if t, err := model.ParseNodeType(l); err == nil {
			known = append(known, t)
		}
	}
	isParent := make(map[model.NodeType]bool)
	for _, t := range known {
		for _, p := range t.Parents() {
			isParent[p] = true
		}
	}
	for _, t := range known {
		if !isParent[t] {
			return t
		}
	}
	return model.Undefined
}

func int64Prop(props map[string]any, key string) int64 {
	switch v := props[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func stringProp(props map[string]any, key string) string {
	s, _ := props[key].(string)
	return s
}
