// Package report folds probe outcomes into a compatibility report and
// renders it as text, JSON or YAML.
package report
