// Package domain models per-location COVID-19 time series and the pure
// transforms that turn them into model features.
//
// # Data Source
//
// Case and fatality counts come from the Kaggle "COVID19 Global Forecasting
// (Week 1)" competition: train.csv carries cumulative ConfirmedCases and
// Fatalities per (Country/Region, Province/State, Date) and test.csv lists the
// future location-days to forecast. Static country covariates come from World
// Bank indicator CSVs (land area, smoking prevalence, health expenditure per
// capita PPP) and from the UN World Population Prospects 2019 population by
// age and sex.
//
// # Conventions
//
// Location key:
//
//	(Region, SubRegion), e.g. ("China", "Hubei") or ("Italy", "").
//	A missing Province/State is the empty string, never dropped, so grouping
//	is stable across sources.
//
// Missing values:
//
//	Every float column uses math.NaN() for "undefined": future cumulative
//	counts, the first increment of a location, lags without enough history,
//	thresholds never reached, covariates without a matching country.
//
// Targets:
//
//	LogNewX = log1p(X[t] - X[t-1]) for X in {ConfirmedCases, Fatalities},
//	computed per location after sorting by date. A location whose increment
//	goes negative for either field is not a cumulative series and is removed
//	from the working set entirely.
//
// Lags:
//
//	LogNewX_prev_day_k (k = 1..HistoryDays) holds the target k rows earlier
//	within the same location.
//
// Thresholds:
//
//	Days_since_X=T is Day minus the first Day with X >= T, or -1 before that
//	day. Locations that never reach T keep NaN.
//
// # Country Names
//
// Covariate sources name countries differently from the case data ("United
// States" vs "US", "Iran, Islamic Rep." vs "Iran"). Each source has an
// immutable [Reconciler] that maps its names onto the case-data convention;
// names absent from the table pass through with diacritics folded.
package domain
