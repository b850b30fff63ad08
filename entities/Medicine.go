// Package entities holds the records shared by the composer packages.
package entities

// Medicine is a read-only row of the reference dataset used for suggestions.
type Medicine struct {
	Name     string `json:"name" yaml:"name"`
	Strength string `json:"strength" yaml:"strength"`
	Form     string `json:"form" yaml:"form"`
}
