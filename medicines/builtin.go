// Package medicines loads the medicine reference dataset from a file, a URL,
// or the built-in fallback list.
package medicines

import "github.com/giygas/rxcomposer/entities"

// SourceBuiltin names the fallback dataset.
const SourceBuiltin = "builtin"

var builtin = []entities.Medicine{
	{Name: "Amoxicillin", Strength: "500 mg", Form: "tab"},
	{Name: "Paracetamol", Strength: "500 mg", Form: "tab"},
	{Name: "Cetirizine", Strength: "10 mg", Form: "tab"},
	{Name: "Metformin", Strength: "500 mg", Form: "tab"},
	{Name: "Amlodipine", Strength: "5 mg", Form: "tab"},
	{Name: "Omeprazole", Strength: "20 mg", Form: "cap"},
	{Name: "Azithromycin", Strength: "250 mg", Form: "tab"},
	{Name: "Salbutamol", Strength: "2 mg", Form: "inh"},
	{Name: "Ibuprofen", Strength: "400 mg", Form: "tab"},
	{Name: "Ranitidine", Strength: "150 mg", Form: "tab"},
}

// Builtin returns a copy of the fallback list.
func Builtin() []entities.Medicine {
	out := make([]entities.Medicine, len(builtin))
	copy(out, builtin)
	return out
}
