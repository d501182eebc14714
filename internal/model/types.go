package model

import (
	"fmt"
	"sort"
	"strings"
)

// NodeType is a graph label from the closed node vocabulary.
type NodeType string

// Node types. Parent labels for each type live in nodeTypeParents.
const (
	Undefined           NodeType = "UNDEFINED"
	PhysicalEntity      NodeType = "PHYSICAL_ENTITY"
	Protein             NodeType = "PROTEIN"
	Gene                NodeType = "GENE"
	Transcript          NodeType = "TRANSCRIPT"
	Complex             NodeType = "COMPLEX"
	RNA                 NodeType = "RNA"
	SmallMolecule       NodeType = "SMALL_MOLECULE"
	DNA                 NodeType = "DNA"
	CellularLocation    NodeType = "CELLULAR_LOCATION"
	Pathway             NodeType = "PATHWAY"
	Reaction            NodeType = "REACTION"
	Catalysis           NodeType = "CATALYSIS"
	Regulation          NodeType = "REGULATION"
	Xref                NodeType = "XREF"
	Variant             NodeType = "VARIANT"
	VariantCall         NodeType = "VARIANT_CALL"
	Sample              NodeType = "SAMPLE"
	ConsequenceType     NodeType = "CONSEQUENCE_TYPE"
	SequenceOntology    NodeType = "SO"
	PopulationFrequency NodeType = "POPULATION_FREQUENCY"
	PanelGene           NodeType = "PANEL_GENE"
	Chromosome          NodeType = "CHROMOSOME"
	Ontology            NodeType = "ONTOLOGY"
)

var nodeTypeParents = map[NodeType][]NodeType{
	Undefined:           nil,
	PhysicalEntity:      nil,
	Protein:             {PhysicalEntity},
	Gene:                nil,
	Transcript:          nil,
	Complex:             {PhysicalEntity},
	RNA:                 {PhysicalEntity},
	SmallMolecule:       {PhysicalEntity},
	DNA:                 {PhysicalEntity},
	CellularLocation:    nil,
	Pathway:             nil,
	Reaction:            nil,
	Catalysis:           {Regulation},
	Regulation:          nil,
	Xref:                nil,
	Variant:             nil,
	VariantCall:         nil,
	Sample:              nil,
	ConsequenceType:     nil,
	SequenceOntology:    {Ontology},
	PopulationFrequency: nil,
	PanelGene:           nil,
	Chromosome:          nil,
	Ontology:            nil,
}

// ParseNodeType resolves a label to a NodeType. Matching is case-insensitive.
func ParseNodeType(s string) (NodeType, error) {
	t := NodeType(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := nodeTypeParents[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownNodeType, s)
	}
	return t, nil
}

// Valid reports whether t belongs to the vocabulary.
func (t NodeType) Valid() bool {
	_, ok := nodeTypeParents[t]
	return ok
}

// Parents returns the inherited labels of t, nearest first.
func (t NodeType) Parents() []NodeType {
	var out []NodeType
	for _, p := range nodeTypeParents[t] {
		out = append(out, p)
		out = append(out, p.Parents()...)
	}
	return out
}

// Labels returns t followed by every inherited label.
func (t NodeType) Labels() []string {
	labels := []string{string(t)}
	for _, p := range t.Parents() {
		labels = append(labels, string(p))
	}
	return labels
}

func (t NodeType) String() string { return string(t) }

// NodeTypes returns the vocabulary sorted by name.
func NodeTypes() []NodeType {
	out := make([]NodeType, 0, len(nodeTypeParents))
	for t := range nodeTypeParents {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RelationType is a relationship label from the closed relation vocabulary.
type RelationType string

// Relation types.
const (
	RelGeneTranscript            RelationType = "GENE__TRANSCRIPT"
	RelTranscriptProtein         RelationType = "TRANSCRIPT__PROTEIN"
	RelConsequenceTypeTranscript RelationType = "CONSEQUENCE_TYPE__TRANSCRIPT"
	RelVariantConsequenceType    RelationType = "VARIANT__CONSEQUENCE_TYPE"
	RelConsequenceTypeSO         RelationType = "CONSEQUENCE_TYPE__SO"
	RelVariantPopulationFreq     RelationType = "VARIANT__POPULATION_FREQUENCY"
	RelSampleVariantCall         RelationType = "SAMPLE__VARIANT_CALL"
	RelVariantVariantCall        RelationType = "VARIANT__VARIANT_CALL"
	RelPanelGeneGene             RelationType = "PANEL_GENE__GENE"
	RelComponentOfComplex        RelationType = "COMPONENT_OF_COMPLEX"
	RelComponentOfPathway        RelationType = "COMPONENT_OF_PATHWAY"
	RelCellularLocation          RelationType = "CELLULAR_LOCATION"
	RelXref                      RelationType = "XREF"
	RelControlled                RelationType = "CONTROLLED"
	RelController                RelationType = "CONTROLLER"
	RelReactant                  RelationType = "REACTANT"
	RelProduct                   RelationType = "PRODUCT"
	RelAnnotation                RelationType = "ANNOTATION"
)

var relationTypes = map[RelationType]struct{}{
	RelGeneTranscript:            {},
	RelTranscriptProtein:         {},
	RelConsequenceTypeTranscript: {},
	RelVariantConsequenceType:    {},
	RelConsequenceTypeSO:         {},
	RelVariantPopulationFreq:     {},
	RelSampleVariantCall:         {},
	RelVariantVariantCall:        {},
	RelPanelGeneGene:             {},
	RelComponentOfComplex:        {},
	RelComponentOfPathway:        {},
	RelCellularLocation:          {},
	RelXref:                      {},
	RelControlled:                {},
	RelController:                {},
	RelReactant:                  {},
	RelProduct:                   {},
	RelAnnotation:                {},
}

// ParseRelationType resolves a relationship label. Matching is case-insensitive.
func ParseRelationType(s string) (RelationType, error) {
	t := RelationType(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := relationTypes[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRelationType, s)
	}
	return t, nil
}

// Valid reports whether t belongs to the vocabulary.
func (t RelationType) Valid() bool {
	_, ok := relationTypes[t]
	return ok
}

func (t RelationType) String() string { return string(t) }
