// Package workflow sequences one export-duty calculation: fetch vehicle data
// by plate, compute the age band, combine API figures with manually entered
// ones, write them into the fixed workbook layout and read back the duty the
// spreadsheet's own formulas compute.
package workflow

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"exporttax/internal/config"
	"exporttax/internal/dmr"
	"exporttax/internal/emission"
	"exporttax/internal/prompt"
	"exporttax/internal/valuation"
	"exporttax/internal/workbook"
)

// Fixed layout of the tax workbook. The coordinates are a contract with the
// pre-existing template; its formulas compute the duty from these cells.
const (
	co2ToolSheet      = "Værktøj til CO2"
	co2EfficiencyCell = "C25"
	co2MethodCell     = "C26"
	co2FuelTypeCell   = "C27"
	co2ResultCell     = "C30"

	usedCarsSheet   = "Brugte personvogne"
	usedCarsCO2Cell = "L23"

	priceSheet     = "Brugte Personbiler"
	tradePriceCell = "L21"
	newPriceCell   = "L22"

	dutySheet = "Brugte personbiler"
	dutyCell  = "G32"
)

// VehicleAPI is the slice of the DMR client the workflow depends on.
type VehicleAPI interface {
	FetchVehicle(ctx context.Context, plate string) (dmr.Vehicle, error)
	FetchEmissions(ctx context.Context, plate string) (*float64, error)
	FetchFuel(ctx context.Context, plate string) (dmr.Fuel, error)
	FetchNewPrice(ctx context.Context, plate string) (float64, error)
}

// Runner executes the calculation sequence. Every step blocks on network,
// console or file I/O; a failing step aborts the remainder with no rollback
// of cells already written.
type Runner struct {
	Config   *config.Config
	Client   VehicleAPI
	Prompter prompt.Prompter
	Out      io.Writer        // user-facing output; defaults to os.Stdout
	Log      *zap.Logger      // diagnostics; defaults to a nop logger
	Now      func() time.Time // defaults to time.Now
}

func (r *Runner) out() io.Writer {
	if r.Out == nil {
		return os.Stdout
	}
	return r.Out
}

func (r *Runner) log() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// Run performs one calculation. An empty plate is prompted for.
func (r *Runner) Run(ctx context.Context, plate string) error {
	out := r.out()

	if plate == "" {
		var err error
		plate, err = r.Prompter.String("Indtast nummerplade")
		if err != nil {
			return err
		}
	}

	fmt.Fprintln(out, "Henter køretøjsdata...")
	vehicle, err := r.Client.FetchVehicle(ctx, plate)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Køretøjsdata hentet succesfuldt.")

	fmt.Fprintln(out, "Henter emissionsdata...")
	co2, err := r.Client.FetchEmissions(ctx, plate)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Emissionsdata hentet: CO2: %s\n", formatOptional(co2))

	age := valuation.AgeYears(vehicle.RegistrationDate, r.now())
	fmt.Fprintf(out, "Bilens alder: %d år\n", age)
	r.log().Debug("vehicle record",
		zap.String("plate", plate),
		zap.Time("registration_date", vehicle.RegistrationDate),
		zap.Int("age_years", age))

	// Fuel data is only fetched when the emissions endpoint reported nothing.
	var fuel dmr.Fuel
	if co2 == nil {
		fmt.Fprintln(out, "CO2 ikke tilgængeligt, henter fuel_type og fuel_efficiency...")
		fuel, err = r.Client.FetchFuel(ctx, plate)
		if err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "Fuel type: %s, Fuel efficiency: %s\n", fuel.Type, fuel.Efficiency)

	tradePriceInput, err := r.Prompter.Float("Indtast handelsprisen")
	if err != nil {
		return err
	}
	normKm, err := r.Prompter.Float("Indtast norm km")
	if err != nil {
		return err
	}
	currentKm, err := r.Prompter.Float("Indtast bilens kørte kilometer")
	if err != nil {
		return err
	}

	if err := r.writeKmData(tradePriceInput, normKm, currentKm); err != nil {
		return err
	}
	fmt.Fprintf(out, "Handelspris (%v), Norm km (%v) og Kørte km (%v) er opdateret i %q.\n",
		tradePriceInput, normKm, currentKm, r.Config.Files.KmWorkbook)

	tradePrice, band, err := r.readTradePrice(age)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Handelspris fra regnearket: %v kr. for aldersgruppen %s.\n", tradePrice, band.Label)

	newPrice, err := r.fetchNewPriceWithFallback(ctx, plate)
	if err != nil {
		return err
	}

	if err := r.writeEmissionData(co2, fuel); err != nil {
		return err
	}
	if err := r.writePrices(newPrice, tradePrice); err != nil {
		return err
	}
	fmt.Fprintf(out, "Nypris (%v) og Handelspris (%v) er opdateret i %q.\n",
		newPrice, tradePrice, r.Config.Files.TaxWorkbook)

	fmt.Fprintln(out, "\nProcessen er færdig!")
	return r.printDuty()
}

// writeKmData writes the manually entered figures into Ark1; the sheet's
// formulas compute the per-band trade prices on row 19 from them.
func (r *Runner) writeKmData(tradePrice, normKm, currentKm float64) error {
	return workbook.Update(r.Config.Files.KmWorkbook, func(b *workbook.Batch) error {
		if err := b.Set(valuation.InputSheet, valuation.TradePriceCell, tradePrice); err != nil {
			return err
		}
		if err := b.Set(valuation.InputSheet, valuation.NormKmCell, normKm); err != nil {
			return err
		}
		return b.Set(valuation.InputSheet, valuation.CurrentKmCell, currentKm)
	})
}

// readTradePrice opens a fresh snapshot so the row-19 formulas see the
// figures writeKmData just saved.
func (r *Runner) readTradePrice(age int) (float64, valuation.AgeBand, error) {
	snap, err := workbook.Open(r.Config.Files.KmWorkbook)
	if err != nil {
		return 0, valuation.AgeBand{}, err
	}
	defer snap.Close()
	return valuation.TradePrice(snap, age)
}

// fetchNewPriceWithFallback is the single designed recovery path: on any
// failure fetching the computed new price the user supplies it manually.
// Nothing else in the sequence is retried.
func (r *Runner) fetchNewPriceWithFallback(ctx context.Context, plate string) (float64, error) {
	out := r.out()
	newPrice, err := r.Client.FetchNewPrice(ctx, plate)
	if err == nil {
		fmt.Fprintf(out, "Nypris for køretøjet: %v kr.\n", newPrice)
		return newPrice, nil
	}
	r.log().Warn("new price fetch failed, falling back to manual entry", zap.Error(err))
	fmt.Fprintf(out, "Fejl ved hentning af nypris: %v\n", err)
	newPrice, err = r.Prompter.Float("Indtast nyprisen manuelt")
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(out, "Nypris indtastet manuelt: %v kr.\n", newPrice)
	return newPrice, nil
}

// writeEmissionData fills the CO2 tool sheet and propagates the resulting
// CO2 figure to the used-cars sheet, all in one save cycle. With a reported
// CO2 value the fuel cells stay untouched; without one the value is derived
// from the fuel efficiency.
func (r *Runner) writeEmissionData(co2 *float64, fuel dmr.Fuel) error {
	var result float64
	if co2 == nil {
		efficiency, err := emission.ParseEfficiency(fuel.Efficiency)
		if err != nil {
			return err
		}
		result, err = emission.NewDeriver(r.Config.Emission.DeriveExpression).Derive(efficiency)
		if err != nil {
			return err
		}
	} else {
		result = *co2
	}

	err := workbook.Update(r.Config.Files.TaxWorkbook, func(b *workbook.Batch) error {
		if err := b.Set(co2ToolSheet, co2MethodCell, "NEDC"); err != nil {
			return err
		}
		if co2 == nil {
			if err := b.Set(co2ToolSheet, co2FuelTypeCell, fuel.Type); err != nil {
				return err
			}
			if err := b.Set(co2ToolSheet, co2EfficiencyCell, fuel.Efficiency); err != nil {
				return err
			}
		}
		if err := b.Set(co2ToolSheet, co2ResultCell, result); err != nil {
			return err
		}
		return b.Set(usedCarsSheet, usedCarsCO2Cell, result)
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out(), "CO2 og fuel type er opdateret. CO2: %v, Fuel type: %s, Fuel efficiency: %s.\n",
		result, fuel.Type, fuel.Efficiency)
	return nil
}

// writePrices writes the new price and the band trade price into the sheet
// whose formulas compute the export duty.
func (r *Runner) writePrices(newPrice, tradePrice float64) error {
	return workbook.Update(r.Config.Files.TaxWorkbook, func(b *workbook.Batch) error {
		if err := b.Set(priceSheet, newPriceCell, newPrice); err != nil {
			return err
		}
		return b.Set(priceSheet, tradePriceCell, tradePrice)
	})
}

// printDuty reads back the duty cell from a fresh snapshot, after all prior
// writes have been saved.
func (r *Runner) printDuty() error {
	snap, err := workbook.Open(r.Config.Files.TaxWorkbook)
	if err != nil {
		return err
	}
	defer snap.Close()

	duty, err := snap.Value(dutySheet, dutyCell)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out(), "Eksportafgift: %s\n", duty)
	return nil
}

func formatOptional(v *float64) string {
	if v == nil {
		return "ikke tilgængelig"
	}
	return fmt.Sprintf("%v", *v)
}
