package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClassifyType(t *testing.T) {
	cases := []struct {
		raw  string
		want OperationType
	}{
		{"Maintenance", TypeMaintenance},
		{"scheduled maintenance window", TypeMaintenance},
		{"ENGINEERING", TypeEngineering},
		{"Miscellaneous", TypeMiscellaneous},
		{"Production", TypeProduction},
		{"566210000", TypeProduction},
		{"566210001", TypeMaintenance},
		{"566210002", TypeEngineering},
		{"566210003", TypeMiscellaneous},
		{" 566210001 ", TypeMaintenance},
		{"", TypeProduction},
		{"whatever", TypeProduction},
		{"12345", TypeProduction},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ClassifyType(tc.raw), "raw=%q", tc.raw)
	}
}

func TestOperationValidate(t *testing.T) {
	now := time.Now()

	require.ErrorIs(t, Operation{}.Validate(), ErrMissingEquipment)
	require.ErrorIs(t, Operation{EquipmentID: "  "}.Validate(), ErrMissingEquipment)

	inverted := Operation{EquipmentID: "e1", Start: now, End: now.Add(-time.Hour)}
	require.ErrorIs(t, inverted.Validate(), ErrInvertedSpan)

	ok := Operation{EquipmentID: "e1", Start: now, End: now.Add(time.Hour)}
	require.NoError(t, ok.Validate())

	// Zero bounds are permitted; the span check only applies when both set.
	require.NoError(t, Operation{EquipmentID: "e1"}.Validate())
}

func TestShiftMovesBothBounds(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	op := Operation{EquipmentID: "e1", Start: start, End: start.Add(4 * time.Hour)}

	shifted := op.Shift(90 * time.Minute)
	require.Equal(t, start.Add(90*time.Minute), shifted.Start)
	require.Equal(t, start.Add(4*time.Hour+90*time.Minute), shifted.End)
	// Original untouched.
	require.Equal(t, start, op.Start)
}

func TestCloneDoesNotAlias(t *testing.T) {
	ops := []Operation{{ID: "a", Description: "one"}}
	cloned := Clone(ops)
	cloned[0].Description = "changed"
	require.Equal(t, "one", ops[0].Description)
}

func TestOperationsByIDSkipsMissingIDs(t *testing.T) {
	ops := []Operation{
		{ID: "a"},
		{ID: ""},
		{ID: "  "},
		{ID: "b"},
	}
	byID, skipped := OperationsByID(ops)
	require.Len(t, byID, 2)
	require.Contains(t, byID, "a")
	require.Contains(t, byID, "b")
	require.Len(t, skipped, 2)
}
