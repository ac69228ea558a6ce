// Package preflight provides readiness checks for the external tools,
// directories and credentials meetscribe depends on.
//
// These checks run in two contexts:
//   - The pipeline calls RunAll before a batch so a missing tool or an
//     unwritable output directory fails fast instead of after an hour of
//     transcription.
//   - The CLI "meetscribe status" command renders every result.
package preflight
