// Package app runs a report binary from configuration to exit status.
// It wires configuration, logging and telemetry together and drives one Job
// through its stages.
//
// # Run Flow
//
// The sequence of one run:
//
//  1. Load configuration from defaults, the YAML file and the environment
//  2. Initialize logging and OpenTelemetry
//  3. load: check and read the input file against the job's schema
//  4. clean: derive numeric fields and drop unparsable and outlying records
//  5. analyze: compute the job's results
//  6. chart: render the figures into the output directory
//  7. report: print the text report to stdout
//  8. Write the metrics file and shut the providers down
//
// Every stage runs inside a span and is logged with the run id. A failing
// load, clean or analyze stage ends the run. A failing chart is logged and
// reported as failed in the text; the run still prints the report and then
// returns an error so the binary exits 1.
//
// # Error Handling
//
// Errors are returned to the caller. The app does not call os.Exit(),
// allowing the main function to control the exit process.
package app
