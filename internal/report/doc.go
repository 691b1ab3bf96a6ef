// Package report builds the plain-text summaries printed by the report
// binaries. Analyses assemble a Document from banners, section headings,
// lines and tables; Render writes it out with fixed-width rules.
//
// Number formatting lives here too so that every figure in a report uses the
// same conventions: fixed decimals, a leading "$" for currency, a trailing "%"
// for percentages and "n/a" for undefined values.
package report
