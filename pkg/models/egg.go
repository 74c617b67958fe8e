// Package models contains domain models for devconsole.
package models

import "time"

// Egg is a discovered achievement. An egg is recorded at most once per ID.
type Egg struct {
	ID        string `json:"id"`
	Points    int    `json:"points"`
	Timestamp int64  `json:"timestamp"` // unix millis of first discovery
}

// NewEgg creates a freshly discovered egg stamped with the current time.
func NewEgg(id string, points int) Egg {
	return Egg{
		ID:        id,
		Points:    points,
		Timestamp: time.Now().UnixMilli(),
	}
}

// DiscoveredAt returns the discovery time.
func (e Egg) DiscoveredAt() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// EggDefinition is a catalog entry describing an egg that can be discovered.
type EggDefinition struct {
	ID     string `yaml:"id" json:"id"`
	Label  string `yaml:"label" json:"label"`
	Points int    `yaml:"points" json:"points"`
}

// EggProgress pairs a catalog entry with its discovery state.
type EggProgress struct {
	EggDefinition
	Collected    bool  `json:"collected"`
	DiscoveredAt int64 `json:"discovered_at,omitempty"`
}

// SumPoints returns the total point value of the given eggs.
func SumPoints(eggs []Egg) int {
	total := 0
	for _, egg := range eggs {
		total += egg.Points
	}
	return total
}
