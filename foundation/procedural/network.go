package procedural

import "fmt"

// Tier represents how close a network node is to the core of the archive.
type Tier int

// Set of node tiers.
const (
	TierCore     Tier = 1
	TierSector   Tier = 2
	TierFrontier Tier = 3
)

// String implements the fmt.Stringer interface.
func (t Tier) String() string {
	switch t {
	case TierCore:
		return "core"
	case TierSector:
		return "sector"
	case TierFrontier:
		return "frontier"
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// Name pools used to build node names.
var (
	SectorPrefixes = []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon", "Zeta", "Eta", "Theta"}
	StationTypes   = []string{"Archive", "Relay", "Hub", "Outpost", "Citadel"}
	CelestialNames = []string{
		"Proxima", "Sirius", "Vega", "Altair", "Deneb", "Rigel", "Betelgeuse",
		"Antares", "Arcturus", "Capella", "Pollux", "Aldebaran", "Spica",
		"Regulus", "Canopus", "Achernar", "Bellatrix", "Mintaka", "Alnilam",
		"Alnitak", "Saiph", "Alnair", "Alioth", "Alkaid", "Mizar", "Dubhe",
	}
)

// Node represents a station in the archive network.
type Node struct {
	Index int64  `json:"index"`
	Name  string `json:"name"`
	Tier  Tier   `json:"tier"`
}

// GenerateNode produces the network node at the specified index.
func (c *Chain) GenerateNode(index int64) (Node, error) {
	if index < 0 {
		return Node{}, fmt.Errorf("%w: negative node index %d", ErrInvalidArgument, index)
	}

	name, err := GenerateNodeName(index, NewRandom(c.seed(index)))
	if err != nil {
		return Node{}, err
	}

	n := Node{
		Index: index,
		Name:  name,
		Tier:  NodeTier(index),
	}

	return n, nil
}

// GenerateNodeName draws a station name like "Delta Aldebaran Citadel-3". The
// sector is fixed by the index, the rest comes from the source.
func GenerateNodeName(index int64, rng *Random) (string, error) {
	if index < 0 {
		return "", fmt.Errorf("%w: negative node index %d", ErrInvalidArgument, index)
	}

	sector := SectorPrefixes[index%int64(len(SectorPrefixes))]

	celestial, err := Choice(rng, CelestialNames)
	if err != nil {
		return "", err
	}

	station, err := Choice(rng, StationTypes)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s %s %s-%d", sector, celestial, station, rng.NextInt(1, 99)), nil
}

// NodeTier returns the tier for the node at the specified index.
func NodeTier(index int64) Tier {
	switch {
	case index < 5:
		return TierCore
	case index < 15:
		return TierSector
	}
	return TierFrontier
}
