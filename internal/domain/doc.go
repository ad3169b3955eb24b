// Package domain models the JHU CSSE COVID-19 daily report data.
//
// # Data Source
//
// Daily reports live in the CSSEGISandData/COVID-19 repository under
// csse_covid_19_data/csse_covid_19_daily_reports. Each file is named after
// the report date, e.g. "03-22-2020.csv", and holds one row per reporting
// jurisdiction for that day.
//
// # Column Layouts
//
// The upstream files went through four layouts over the life of the dataset:
//
//	6 columns:  Province/State, Country/Region, Last Update, Confirmed, Deaths, Recovered
//	8 columns:  the 6-column layout plus Latitude, Longitude
//	12 columns: FIPS, Admin2, Province_State, Country_Region, Last_Update, Lat, Long_,
//	            Confirmed, Deaths, Recovered, Active, Combined_Key
//	14 columns: the 12-column layout plus Incident_Rate, Case_Fatality_Ratio
//
// Each layout is a [Schema]. Anything else is format drift and is rejected
// with [ErrUnsupportedLayout] rather than guessed at.
//
// # Canonical Rows
//
// Every matching row is written as a 15-field [Row] (see [FullHeader]): the
// report date in MM-DD-YYYY form followed by the 14 modern columns. Fields an
// older layout does not carry are written as empty strings. The minimal
// output schema keeps only Date, Country_Region, Confirmed, Deaths,
// Recovered, and Active.
//
// # Target Jurisdictions
//
// [Targets] is a small matcher tree: country, then optionally province or
// state, then optionally county. Matches are exact and case-sensitive
// against the upstream text.
package domain
