package model

import (
	"fmt"
	"sort"
)

// NetworkManager owns a Network and keeps its lookup indices current.
//
// Uids are global: a node and a relation cannot share one. The manager is not
// safe for concurrent mutation; confine it to one goroutine or guard it.
type NetworkManager struct {
	network *Network

	nodeIndex     map[int64]int      // uid -> position in network.Nodes
	relationIndex map[int64]int      // uid -> position in network.Relations
	idIndex       map[string][]int64 // external id -> node uids, insertion order

	nextUID int64
}

// NewNetworkManager wraps network, indexing any nodes and relations it holds.
// A nil network starts empty.
func NewNetworkManager(network *Network) (*NetworkManager, error) {
	m := &NetworkManager{nextUID: 1}
	if network == nil {
		network = NewNetwork("", "", "")
	}
	if err := m.SetNetwork(network); err != nil {
		return nil, err
	}
	return m, nil
}

// Network returns the managed network.
func (m *NetworkManager) Network() *Network {
	return m.network
}

// SetNetwork replaces the managed network and rebuilds every index.
// On error the previous network and indices are kept.
func (m *NetworkManager) SetNetwork(network *Network) error {
	nodeIndex := make(map[int64]int, len(network.Nodes))
	relationIndex := make(map[int64]int, len(network.Relations))
	idIndex := make(map[string][]int64)
	maxUID := int64(0)

	for i, n := range network.Nodes {
		if _, ok := nodeIndex[n.UID]; ok {
			return &DuplicateUIDError{UID: n.UID, Kind: "node"}
		}
		nodeIndex[n.UID] = i
		idIndex[n.ID] = append(idIndex[n.ID], n.UID)
		maxUID = max(maxUID, n.UID)
	}
	for i, r := range network.Relations {
		if _, ok := nodeIndex[r.UID]; ok {
			return &DuplicateUIDError{UID: r.UID, Kind: "relation"}
		}
		if _, ok := relationIndex[r.UID]; ok {
			return &DuplicateUIDError{UID: r.UID, Kind: "relation"}
		}
		if err := checkEndpoints(r, nodeIndex); err != nil {
			return err
		}
		relationIndex[r.UID] = i
		maxUID = max(maxUID, r.UID)
	}

	m.network = network
	m.nodeIndex = nodeIndex
	m.relationIndex = relationIndex
	m.idIndex = idIndex
	m.nextUID = max(m.nextUID, maxUID+1)
	return nil
}

// SetUIDBase moves the creation counter so NewNode/NewRelation start at base.
// Lowering it below an indexed uid is allowed; collisions then fail on insert.
func (m *NetworkManager) SetUIDBase(base int64) {
	m.nextUID = base
}

// NextUID reserves and returns the next uid from the creation counter.
func (m *NetworkManager) NextUID() int64 {
	uid := m.nextUID
	m.nextUID++
	return uid
}

func (m *NetworkManager) hasUID(uid int64) bool {
	if _, ok := m.nodeIndex[uid]; ok {
		return true
	}
	_, ok := m.relationIndex[uid]
	return ok
}

// AddNode appends a node. The network is left unchanged on error.
func (m *NetworkManager) AddNode(n *Node) error {
	if m.hasUID(n.UID) {
		return &DuplicateUIDError{UID: n.UID, Kind: "node"}
	}
	m.nodeIndex[n.UID] = len(m.network.Nodes)
	m.network.Nodes = append(m.network.Nodes, n)
	m.idIndex[n.ID] = append(m.idIndex[n.ID], n.UID)
	if n.UID >= m.nextUID {
		m.nextUID = n.UID + 1
	}
	return nil
}

// NewNode creates a node with the next uid and adds it.
func (m *NetworkManager) NewNode(typ NodeType, id, name string) (*Node, error) {
	n := NewNode(m.NextUID(), typ, id, name)
	if err := m.AddNode(n); err != nil {
		return nil, err
	}
	return n, nil
}

// AddRelation appends a relation whose endpoints must already be indexed.
func (m *NetworkManager) AddRelation(r *Relation) error {
	if m.hasUID(r.UID) {
		return &DuplicateUIDError{UID: r.UID, Kind: "relation"}
	}
	if err := checkEndpoints(r, m.nodeIndex); err != nil {
		return err
	}
	m.relationIndex[r.UID] = len(m.network.Relations)
	m.network.Relations = append(m.network.Relations, r)
	if r.UID >= m.nextUID {
		m.nextUID = r.UID + 1
	}
	return nil
}

func checkEndpoints(r *Relation, nodes map[int64]int) error {
	if _, ok := nodes[r.OrigUID]; !ok {
		return fmt.Errorf("%w: origin %d of relation %d", ErrUnknownEndpoint, r.OrigUID, r.UID)
	}
	if _, ok := nodes[r.DestUID]; !ok {
		return fmt.Errorf("%w: destination %d of relation %d", ErrUnknownEndpoint, r.DestUID, r.UID)
	}
	return nil
}

// NewRelation creates a relation with the next uid and adds it.
func (m *NetworkManager) NewRelation(typ RelationType, orig, dest int64) (*Relation, error) {
	r := NewRelation(m.NextUID(), typ, orig, dest)
	if err := m.AddRelation(r); err != nil {
		return nil, err
	}
	return r, nil
}

// GetNode returns the node with uid, or nil.
func (m *NetworkManager) GetNode(uid int64) *Node {
	i, ok := m.nodeIndex[uid]
	if !ok {
		return nil
	}
	return m.network.Nodes[i]
}

// GetNodes returns every node sharing the external id, in insertion order.
func (m *NetworkManager) GetNodes(id string) []*Node {
	uids := m.idIndex[id]
	out := make([]*Node, 0, len(uids))
	for _, uid := range uids {
		out = append(out, m.network.Nodes[m.nodeIndex[uid]])
	}
	return out
}

// GetRelation returns the relation with uid, or nil.
func (m *NetworkManager) GetRelation(uid int64) *Relation {
	i, ok := m.relationIndex[uid]
	if !ok {
		return nil
	}
	return m.network.Relations[i]
}

// ReplaceUID renames a node or relation uid. For nodes every relation
// endpoint referencing oldUID is rewritten too.
func (m *NetworkManager) ReplaceUID(oldUID, newUID int64) error {
	if oldUID == newUID {
		if !m.hasUID(oldUID) {
			return fmt.Errorf("%w: %d", ErrUIDNotFound, oldUID)
		}
		return nil
	}
	if _, ok := m.nodeIndex[newUID]; ok {
		return &DuplicateUIDError{UID: newUID, Kind: "node"}
	}
	if _, ok := m.relationIndex[newUID]; ok {
		return &DuplicateUIDError{UID: newUID, Kind: "relation"}
	}
	if !m.hasUID(oldUID) {
		return fmt.Errorf("%w: %d", ErrUIDNotFound, oldUID)
	}
	m.nextUID = max(m.nextUID, newUID+1)

	if i, ok := m.nodeIndex[oldUID]; ok {
		n := m.network.Nodes[i]
		n.UID = newUID
		delete(m.nodeIndex, oldUID)
		m.nodeIndex[newUID] = i

		uids := m.idIndex[n.ID]
		for j, uid := range uids {
			if uid == oldUID {
				uids[j] = newUID
			}
		}
		m.ReplaceRelationEndpoints(map[int64]int64{oldUID: newUID})
		return nil
	}

	i := m.relationIndex[oldUID]
	m.network.Relations[i].UID = newUID
	delete(m.relationIndex, oldUID)
	m.relationIndex[newUID] = i
	return nil
}

// ReplaceRelationEndpoints rewrites relation origins and destinations found in
// mapping. Targets are not validated; they may be store-assigned uids.
func (m *NetworkManager) ReplaceRelationEndpoints(mapping map[int64]int64) int {
	changed := 0
	for _, r := range m.network.Relations {
		if uid, ok := mapping[r.OrigUID]; ok {
			r.OrigUID = uid
			changed++
		}
		if uid, ok := mapping[r.DestUID]; ok {
			r.DestUID = uid
			changed++
		}
	}
	return changed
}

// Merge copies other's nodes and relations into the managed network. Nodes
// whose uid is already present are skipped; any other collision or a
// dangling relation endpoint fails the whole merge and leaves the network
// unchanged.
func (m *NetworkManager) Merge(other *Network) error {
	nodes := make([]*Node, 0, len(other.Nodes))
	pending := make(map[int64]int)
	for _, n := range other.Nodes {
		if _, ok := m.nodeIndex[n.UID]; ok {
			continue
		}
		if _, ok := pending[n.UID]; ok || m.hasUID(n.UID) {
			return &DuplicateUIDError{UID: n.UID, Kind: "node"}
		}
		pending[n.UID] = len(nodes)
		nodes = append(nodes, n)
	}

	known := func(uid int64) bool {
		_, inNet := m.nodeIndex[uid]
		_, inBatch := pending[uid]
		return inNet || inBatch
	}
	seen := make(map[int64]bool, len(other.Relations))
	for _, r := range other.Relations {
		if _, ok := pending[r.UID]; ok || seen[r.UID] || m.hasUID(r.UID) {
			return &DuplicateUIDError{UID: r.UID, Kind: "relation"}
		}
		if !known(r.OrigUID) {
			return fmt.Errorf("%w: origin %d of relation %d", ErrUnknownEndpoint, r.OrigUID, r.UID)
		}
		if !known(r.DestUID) {
			return fmt.Errorf("%w: destination %d of relation %d", ErrUnknownEndpoint, r.DestUID, r.UID)
		}
		seen[r.UID] = true
	}

	// Validated above; the inserts cannot fail.
	for _, n := range nodes {
		if err := m.AddNode(n); err != nil {
			return err
		}
	}
	for _, r := range other.Relations {
		if err := m.AddRelation(r); err != nil {
			return err
		}
	}
	return nil
}

// TypeCount is a per-type tally.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Stats summarises the network by node and relation type, sorted by type.
func (m *NetworkManager) Stats() (nodes, relations []TypeCount) {
	nc := make(map[string]int)
	for _, n := range m.network.Nodes {
		nc[string(n.Type)]++
	}
	rc := make(map[string]int)
	for _, r := range m.network.Relations {
		rc[string(r.Type)]++
	}
	return sortedCounts(nc), sortedCounts(rc)
}

func sortedCounts(c map[string]int) []TypeCount {
	out := make([]TypeCount, 0, len(c))
	for t, n := range c {
		out = append(out, TypeCount{Type: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}
