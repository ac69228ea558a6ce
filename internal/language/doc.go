// Package language normalizes the spoken-language setting handed to the
// speech engine.
//
// Accepted inputs are BCP 47 tags ("en", "en-US"), ISO 639-2 codes ("eng",
// "ger") and English language names ("english"). Everything is reduced to the
// ISO 639-1 base code WhisperX expects.
package language
