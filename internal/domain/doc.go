// Package domain models the CDC weekly mortality dataset and the cleaning and
// aggregation applied to it.
//
// # Data Source
//
// Rows come from the CDC "Excess Deaths Associated with COVID-19" dataset
// (xkkf-xrst), downloaded as CSV from data.cdc.gov. The file starts with a
// UTF-8 byte-order mark that ends up glued to the first column name unless it
// is stripped, see [ParseHeader].
//
// # CDC Data Conventions
//
// Row kinds ("Type" column):
//
//	"Unweighted"            observed counts as certified so far
//	"Predicted (weighted)"  model-adjusted counts, discarded by [BuildSeries]
//
// Outcome ("Outcome" column, optional):
//
//	"All causes"                      kept
//	"All causes, excluding COVID-19"  dropped, it would duplicate every week
//
// Counts:
//
//	Suppressed counts are published as empty cells and decode as 0. Zero
//	counts are dropped before plotting.
//
// Regions:
//
//	The dataset reports New York City separately from New York state and adds
//	a "United States" national total. Alias rules fold the former back into
//	one region; the latter is kept out of rank lists and reported as a total.
//
// # Reporting Lag
//
// Death certificates arrive weeks after the death. The most recent weeks
// therefore undercount; [TrimReportingLag] cuts an implausible downward tail
// and [ReportingCutoff] marks everything newer than six weeks as incomplete.
package domain
