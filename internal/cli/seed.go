package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mbakke/floorline/internal/models"
)

// newSeedCmd creates demo scheduling data so the board has something to show
// on a fresh install.
func newSeedCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Populate the store with demo equipment, batches and operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()
			return seed(cmd.Context(), app)
		},
	}
}

func seed(ctx context.Context, app *app) error {
	existing, err := app.gateway.ListEquipment(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return fmt.Errorf("store already has %d equipment records, refusing to seed", len(existing))
	}

	equipmentSpecs := []models.Equipment{
		{Tag: "FV-01", Description: "Fermenter 1", Order: 0},
		{Tag: "FV-02", Description: "Fermenter 2", Order: 1},
		{Tag: "FV-03", Description: "Fermenter 3", Order: 2},
		{Tag: "BT-01", Description: "Brite tank 1", Order: 3},
		{Tag: "CF-01", Description: "Centrifuge", Order: 4},
		{Tag: "PK-01", Description: "Packaging line", Order: 5},
	}
	equipment := make([]models.Equipment, 0, len(equipmentSpecs))
	for _, e := range equipmentSpecs {
		saved, err := app.gateway.SaveEquipment(ctx, e)
		if err != nil {
			return fmt.Errorf("seed equipment %s: %w", e.Tag, err)
		}
		equipment = append(equipment, saved)
	}

	year := time.Now().Year() % 100
	batchSpecs := []models.Batch{
		{Number: fmt.Sprintf("%02d-HTS-01", year), Notes: "pilot run"},
		{Number: fmt.Sprintf("%02d-HTS-02", year)},
		{Number: fmt.Sprintf("%02d-CIQ-01", year)},
		{Number: fmt.Sprintf("%02d-MIA-01", year), Notes: "contract batch"},
	}
	batches := make([]models.Batch, 0, len(batchSpecs))
	for _, b := range batchSpecs {
		saved, err := app.gateway.SaveBatch(ctx, b)
		if err != nil {
			return fmt.Errorf("seed batch %s: %w", b.Number, err)
		}
		batches = append(batches, saved)
	}

	day := 24 * time.Hour
	base := time.Now().Truncate(day)
	operationSpecs := []models.Operation{
		{EquipmentID: equipment[0].ID, BatchID: batches[0].ID, Start: base.Add(-2 * day), End: base.Add(3 * day), Type: string(models.TypeProduction), Description: "primary fermentation"},
		{EquipmentID: equipment[1].ID, BatchID: batches[1].ID, Start: base, End: base.Add(5 * day), Type: string(models.TypeProduction), Description: "primary fermentation"},
		{EquipmentID: equipment[2].ID, Start: base.Add(day), End: base.Add(2 * day), Type: string(models.TypeMaintenance), Description: "CIP and gasket swap"},
		{EquipmentID: equipment[3].ID, BatchID: batches[0].ID, Start: base.Add(3 * day), End: base.Add(5 * day), Type: string(models.TypeProduction), Description: "conditioning"},
		{EquipmentID: equipment[4].ID, BatchID: batches[2].ID, Start: base.Add(4 * day), End: base.Add(4*day + 6*time.Hour), Type: string(models.TypeProduction), Description: "clarification"},
		{EquipmentID: equipment[5].ID, Start: base.Add(6 * day), End: base.Add(7 * day), Type: string(models.TypeEngineering), Description: "filler upgrade trial"},
		{EquipmentID: equipment[5].ID, BatchID: batches[3].ID, Start: base.Add(8 * day), End: base.Add(9 * day), Type: string(models.TypeProduction), Description: "canning"},
	}
	for _, op := range operationSpecs {
		if _, err := app.gateway.SaveOperation(ctx, op); err != nil {
			return fmt.Errorf("seed operation %q: %w", op.Description, err)
		}
	}

	app.logger.Info().
		Int("equipment", len(equipment)).
		Int("batches", len(batches)).
		Int("operations", len(operationSpecs)).
		Msg("seeded demo data")
	return nil
}
