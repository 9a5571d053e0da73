// Package models defines the core scheduling records for Floorline.
package models

import (
	"sort"
	"strings"
	"time"
)

// Equipment is a physical resource lane on the board.
type Equipment struct {
	// ID is the unique identifier for the equipment record.
	ID string `json:"id"`

	// Tag is the short plant-floor tag (e.g. "FV-03").
	Tag string `json:"tag"`

	// Description is the display label.
	Description string `json:"description"`

	// Order defines the visual row sequence, ascending. Rows with equal
	// order keep their fetch order.
	Order int `json:"order"`
}

// SortEquipment orders equipment by Order ascending, preserving the
// original slice order for ties. The input is not modified.
func SortEquipment(list []Equipment) []Equipment {
	out := append([]Equipment(nil), list...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Order < out[j-1].Order; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Renumber assigns dense 0..N-1 order values matching the slice sequence.
func Renumber(list []Equipment) {
	for i := range list {
		list[i].Order = i
	}
}

// Reorder removes the equipment with draggedID and reinserts it at the
// position of targetID, then renumbers densely. Returns false when either
// id is unknown or the ids are equal; the slice is left untouched.
func Reorder(list []Equipment, draggedID, targetID string) bool {
	if draggedID == "" || draggedID == targetID {
		return false
	}
	from, to := -1, -1
	for i := range list {
		switch list[i].ID {
		case draggedID:
			from = i
		case targetID:
			to = i
		}
	}
	if from == -1 || to == -1 {
		return false
	}
	moved := list[from]
	copy(list[from:], list[from+1:])
	list[len(list)-1] = moved
	copy(list[to+1:], list[to:len(list)-1])
	list[to] = moved
	Renumber(list)
	return true
}

// Batch groups operations belonging to one production run.
type Batch struct {
	// ID is the unique identifier for the batch record.
	ID string `json:"id"`

	// Number is the human-assigned batch number (e.g. "25-HTS-30"). It is
	// the practical unique key; editors must reject collisions.
	Number string `json:"number"`

	// Notes holds free-text annotations.
	Notes string `json:"notes,omitempty"`

	CreatedOn  time.Time `json:"created_on"`
	ModifiedOn time.Time `json:"modified_on"`
}

// BatchKey returns the lookup key for a batch: the number when set, the id
// otherwise.
func BatchKey(b Batch) string {
	if b.Number != "" {
		return b.Number
	}
	return b.ID
}

// SortBatches orders batches case-insensitively by number, in place.
func SortBatches(list []Batch) {
	sort.SliceStable(list, func(a, b int) bool {
		return strings.ToLower(list[a].Number) < strings.ToLower(list[b].Number)
	})
}
