// Package textutil provides filename sanitization for artifact names derived
// from recording titles.
package textutil
