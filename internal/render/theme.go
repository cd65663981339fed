package render

import "strings"

// Theme holds colors for DOT rendering.
type Theme struct {
	Background string
	NodeFill   string
	NodeBorder string
	TextColor  string

	// Edge colors.
	EdgeTaken    string // conditional branch taken
	EdgeFall     string // conditional branch not taken
	EdgeDirect   string // unconditional transfer or fall-through into a split
	EdgeIndirect string // indirect call sites in call graphs

	// Node accents.
	EntryBorder  string // root blocks
	TermFill     string // blocks ending in a return
	ExternalText string // callees outside the symbol table
}

// NASA is the NASA/Bauhaus theme: geometric, monochrome, sparse color.
var NASA = Theme{
	Background: "#F5F5F5",
	NodeFill:   "white",
	NodeBorder: "#1A1A1A",
	TextColor:  "#1A1A1A",

	EdgeTaken:    "#0B3D91", // NASA blue
	EdgeFall:     "#FC3D21", // NASA red
	EdgeDirect:   "#424242", // dark gray
	EdgeIndirect: "#9E9E9E", // gray

	EntryBorder:  "#0B3D91",
	TermFill:     "#ECEFF1", // blue-gray 50
	ExternalText: "#9E9E9E",
}

// Dark is a low-glare theme for dark viewers.
var Dark = Theme{
	Background: "#1E1E1E",
	NodeFill:   "#2D2D2D",
	NodeBorder: "#808080",
	TextColor:  "#D4D4D4",

	EdgeTaken:    "#4FC1FF",
	EdgeFall:     "#F48771",
	EdgeDirect:   "#C8C8C8",
	EdgeIndirect: "#6A6A6A",

	EntryBorder:  "#4FC1FF",
	TermFill:     "#3A3D41",
	ExternalText: "#808080",
}

// ThemeNames lists the names accepted by ThemeByName.
var ThemeNames = []string{"nasa", "dark"}

// ThemeByName returns the named theme. Lookup is case-insensitive.
func ThemeByName(name string) (Theme, bool) {
	switch strings.ToLower(name) {
	case "nasa", "":
		return NASA, true
	case "dark":
		return Dark, true
	}
	return Theme{}, false
}
