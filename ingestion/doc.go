// Package ingestion runs uploaded files through the ingestion pipeline.
//
// A Pipeline owns the lifecycle of one job per upload:
//   - validating the uploaded file
//   - extracting its text
//   - handing the text to the content engine while translating engine
//     stages into job progress
//   - recording the document and marking the job ready
//
// Runs execute in the background on an ants worker pool and never return
// errors to the submitter. Every outcome, including unexpected panics, is
// reported through the job store. The temporary upload is removed when a
// run ends, whatever the outcome.
package ingestion
