package model

// Node is a biological entity in the property graph.
//
// UID is the caller-assigned identity. ID is the external identifier and may
// repeat across nodes (an Ensembl and a RefSeq record for the same gene).
type Node struct {
	UID        int64          `json:"uid"`
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Type       NodeType       `json:"type"`
	Tags       []string       `json:"tags"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// NewNode creates a node tagged with its type labels.
func NewNode(uid int64, typ NodeType, id, name string) *Node {
	return &Node{
		UID:        uid,
		ID:         id,
		Name:       name,
		Type:       typ,
		Tags:       typ.Labels(),
		Attributes: make(map[string]any),
	}
}

// AddTag appends tag unless it is already present.
func (n *Node) AddTag(tag string) {
	for _, t := range n.Tags {
		if t == tag {
			return
		}
	}
	n.Tags = append(n.Tags, tag)
}

// HasTag reports whether the node carries tag.
func (n *Node) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// SetAttr sets an attribute, allocating the map on first use.
func (n *Node) SetAttr(key string, value any) {
	if n.Attributes == nil {
		n.Attributes = make(map[string]any)
	}
	n.Attributes[key] = value
}

// Attr returns the attribute stored under key.
func (n *Node) Attr(key string) (any, bool) {
	v, ok := n.Attributes[key]
	return v, ok
}

// AttrString returns the attribute under key when it is a string.
func (n *Node) AttrString(key string) string {
	s, _ := n.Attributes[key].(string)
	return s
}

// Relation is a directed, labelled edge between two node uids.
type Relation struct {
	UID        int64          `json:"uid"`
	Name       string         `json:"name"`
	OrigUID    int64          `json:"origUid"`
	DestUID    int64          `json:"destUid"`
	Type       RelationType   `json:"type"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// NewRelation creates a relation between orig and dest.
func NewRelation(uid int64, typ RelationType, orig, dest int64) *Relation {
	return &Relation{
		UID:        uid,
		Name:       string(typ),
		OrigUID:    orig,
		DestUID:    dest,
		Type:       typ,
		Attributes: make(map[string]any),
	}
}

// SetAttr sets an attribute, allocating the map on first use.
func (r *Relation) SetAttr(key string, value any) {
	if r.Attributes == nil {
		r.Attributes = make(map[string]any)
	}
	r.Attributes[key] = value
}

// Network is an ordered collection of nodes and relations. It is the unit of
// bulk loading and the shape of a materialized path.
type Network struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Nodes       []*Node        `json:"nodes"`
	Relations   []*Relation    `json:"relations"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// NewNetwork creates an empty network.
func NewNetwork(id, name, description string) *Network {
	return &Network{
		ID:          id,
		Name:        name,
		Description: description,
		Attributes:  make(map[string]any),
	}
}
