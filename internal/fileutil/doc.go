// Package fileutil holds small filesystem helpers shared by the pipeline and CLI.
package fileutil
