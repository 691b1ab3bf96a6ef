// Package listings analyses a short-term rental listings export: price
// cleaning, market composition, pricing breakdowns, reviews, hosts,
// availability and correlations with price.
//
// Analyze computes every result once; the Analysis then renders the text
// report (Document) and the figures (Charts) from the same values.
package listings
