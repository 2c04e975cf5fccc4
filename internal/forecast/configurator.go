package forecast

import "github.com/pythia-analytics/pythia-forecast/internal/forecast/model"

// Seasonality gates. A component is only registered once the history is long
// enough to justify it; below the gate the extra harmonics would fit noise.
const (
	YearlySeasonalityMinDays   = 300
	MonthlySeasonalityMinDays  = 60
	QuarterlySeasonalityMinDays = 120
	BiannualSeasonalityMinDays = 180

	monthlyPeriodDays   = 30.5
	quarterlyPeriodDays = 91.25
	biannualPeriodDays  = 182.5
)

// Production model priors.
const (
	changepointPriorScale = 0.08
	seasonalityPriorScale = 15.0
	productionIntervalWidth = 0.90
)

// Validation model priors. Deliberately less aggressive than production: a
// validation model tuned identically to the production model overstates
// backtest accuracy.
const (
	validationSeasonalityPriorScale = 12.0
	validationIntervalWidth         = 0.80
)

// Configure derives the production model hyperparameters from the available
// history length. Pure function: same length in, same config out.
func Configure(seriesLength int) model.Config {
	cfg := model.Config{
		WeeklySeasonality:     true,
		YearlySeasonality:     seriesLength > YearlySeasonalityMinDays,
		ChangepointPriorScale: changepointPriorScale,
		SeasonalityPriorScale: seasonalityPriorScale,
		IntervalWidth:         productionIntervalWidth,
	}

	if seriesLength > MonthlySeasonalityMinDays {
		cfg.ExtraSeasonalities = append(cfg.ExtraSeasonalities, model.Seasonality{
			Name: "monthly", PeriodDays: monthlyPeriodDays, FourierOrder: 6,
		})
	}
	if seriesLength > QuarterlySeasonalityMinDays {
		cfg.ExtraSeasonalities = append(cfg.ExtraSeasonalities, model.Seasonality{
			Name: "quarterly", PeriodDays: quarterlyPeriodDays, FourierOrder: 4,
		})
	}
	if seriesLength > BiannualSeasonalityMinDays {
		cfg.ExtraSeasonalities = append(cfg.ExtraSeasonalities,
			model.Seasonality{Name: "biannual", PeriodDays: biannualPeriodDays, FourierOrder: 3},
			model.Seasonality{Name: "weekly_detailed", PeriodDays: 7, FourierOrder: 4},
		)
	}

	return cfg
}

// ConfigureValidation derives the hyperparameters for backtest validation
// fits. Same seasonality gates as production but lower seasonality prior,
// tighter interval, and reduced harmonic resolution.
func ConfigureValidation(seriesLength int) model.Config {
	cfg := model.Config{
		WeeklySeasonality:     true,
		YearlySeasonality:     seriesLength > YearlySeasonalityMinDays,
		ChangepointPriorScale: changepointPriorScale,
		SeasonalityPriorScale: validationSeasonalityPriorScale,
		IntervalWidth:         validationIntervalWidth,
	}

	if seriesLength > MonthlySeasonalityMinDays {
		cfg.ExtraSeasonalities = append(cfg.ExtraSeasonalities, model.Seasonality{
			Name: "monthly", PeriodDays: monthlyPeriodDays, FourierOrder: 5,
		})
	}
	if seriesLength > QuarterlySeasonalityMinDays {
		cfg.ExtraSeasonalities = append(cfg.ExtraSeasonalities, model.Seasonality{
			Name: "quarterly", PeriodDays: quarterlyPeriodDays, FourierOrder: 3,
		})
	}

	return cfg
}
