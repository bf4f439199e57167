package migrations

import (
	"os"
	"strconv"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"

	"raffle-system/models"
)

// Creates the tickets collection and seeds the full number pool as
// available. The pool is fixed for the lifetime of a draw; rows only ever
// change status after this point.
func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("tickets")

		collection.Fields.Add(
			&core.NumberField{
				Name:     "number",
				Required: true,
				OnlyInt:  true,
			},
			&core.SelectField{
				Name:      "status",
				Required:  true,
				MaxSelect: 1,
				Values: []string{
					models.StatusAvailable,
					models.StatusReserved,
					models.StatusPaid,
				},
			},
			&core.TextField{Name: "buyer_name"},
			&core.TextField{Name: "buyer_contact"},
			&core.TextField{Name: "order_id"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		collection.AddIndex("idx_tickets_number", true, "number", "")
		collection.AddIndex("idx_tickets_status", false, "status", "")

		if err := app.Save(collection); err != nil {
			return err
		}

		total := 1000
		if v, err := strconv.Atoi(os.Getenv("TOTAL_TICKETS")); err == nil && v > 0 {
			total = v
		}

		for n := 1; n <= total; n++ {
			record := core.NewRecord(collection)
			record.Set("number", n)
			record.Set("status", models.StatusAvailable)
			if err := app.Save(record); err != nil {
				return err
			}
		}

		return nil
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("tickets")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
