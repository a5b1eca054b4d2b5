// Package catalog loads the platform and action catalog that drives feature selection,
// dependency resolution and workflow step precedence.
package catalog
