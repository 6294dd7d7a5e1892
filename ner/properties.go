package ner

// Token patterns for matching physicochemical property descriptors and
// their formula shorthands. Each pattern tags a PROP or FORMULA span with
// a sub-type id used by the relation stage's unit-compatibility guard.

// PropertyToUnits maps a property sub-type id to the quantity labels its
// values may carry. An empty set means any unit is accepted; a sub-type
// missing from the map is unconstrained.
var PropertyToUnits = map[string][]string{
	"absorptivity":   {"ABSORPTIVITY"},
	"vaccum":         {},
	"enthalpy":       {"ENTHALPY", "ENERGY"},
	"energy":         {"ENERGY", "ENTHALPY"},
	"temperature":    {"TEMPERATURE"},
	"pressure":       {"PRESSURE"},
	"density":        {"SOLUBILITY", "DENSITY"},
	"heat capacity":  {"HEAT CAPACITY", "ENERGY"},
	"toxicity":       {},
	"viscosity":      {"DYNAMIC VISCOSITY"},
	"thermal":        {"THERMAL CONDUCTIVITY", "TEMPERATURE", "TIME"},
	"velocity":       {"VELOCITY"},
	"formula weight": {"MASS", "MOLAR VOLUME"},
	"sensibility":    {"ENERGY", "MASS"},
}

// TokenMatcher matches one document token. Exactly one of Text or Lower
// is set: Text requires an exact match, Lower a case-insensitive match
// against any of its alternatives. Optional tokens may be skipped.
type TokenMatcher struct {
	Text     string
	Lower    []string
	Optional bool
}

// Pattern is an ordered token pattern producing a labelled span.
type Pattern struct {
	Label   string
	SubType string
	Tokens  []TokenMatcher
}

func text(s string) TokenMatcher           { return TokenMatcher{Text: s} }
func lower(alts ...string) TokenMatcher    { return TokenMatcher{Lower: alts} }
func optional(m TokenMatcher) TokenMatcher { m.Optional = true; return m }

var enthalpyKinds = []string{"combustion", "formation", "explosion", "sublimation", "detonation", "decomposition"}
var energyKinds = []string{"combustion", "formation", "explosion", "dissociation", "activation"}

var absorptivityPatterns = []Pattern{
	{Label: "PROP", SubType: "absorptivity", Tokens: []TokenMatcher{lower("absorptivity")}},
	{Label: "PROP", SubType: "absorptivity", Tokens: []TokenMatcher{lower("molar"), lower("absorption", "absorptivity")}},
	{Label: "FORMULA", SubType: "absorptivity", Tokens: []TokenMatcher{text("A"), lower("=")}},
	{Label: "FORMULA", SubType: "absorptivity", Tokens: []TokenMatcher{text("A=")}},
}

var vacuumPatterns = []Pattern{
	{Label: "PROP", SubType: "vaccum", Tokens: []TokenMatcher{lower("vacuum"), lower("stability", "decay")}},
}

var enthalpyPatterns = []Pattern{
	{Label: "PROP", SubType: "enthalpy", Tokens: []TokenMatcher{optional(lower("molar")), lower("enthalpy"), lower("of"), lower(enthalpyKinds...)}},
	{Label: "PROP", SubType: "enthalpy", Tokens: []TokenMatcher{optional(lower("molar")), lower(enthalpyKinds...), lower("enthalpy")}},
	{Label: "PROP", SubType: "enthalpy", Tokens: []TokenMatcher{optional(lower("molar")), lower("heat"), lower("of"), lower(enthalpyKinds...)}},
	{Label: "PROP", SubType: "enthalpy", Tokens: []TokenMatcher{optional(lower("molar")), lower(enthalpyKinds...), lower("heat")}},
	{Label: "FORMULA", SubType: "enthalpy", Tokens: []TokenMatcher{
		text("Δ"), text("H"),
		optional(lower("sub")), optional(lower("fus")), optional(lower("vap")),
		optional(lower("f")), optional(lower("exp")), optional(lower("d")), optional(lower("dec")),
	}},
	{Label: "FORMULA", SubType: "enthalpy", Tokens: []TokenMatcher{
		text("ΔH"),
		optional(lower("sub")), optional(lower("fus")), optional(lower("vap")),
		optional(lower("f")), optional(lower("exp")), optional(lower("d")), optional(lower("dec")),
	}},
}

var energyPatterns = []Pattern{
	{Label: "PROP", SubType: "energy", Tokens: []TokenMatcher{lower("energy"), lower("of"), lower(energyKinds...)}},
	{Label: "PROP", SubType: "energy", Tokens: []TokenMatcher{optional(lower("molar")), optional(lower("bond")), lower(energyKinds...), lower("energy")}},
	{Label: "FORMULA", SubType: "energy", Tokens: []TokenMatcher{text("Δ"), text("G")}},
	{Label: "FORMULA", SubType: "energy", Tokens: []TokenMatcher{text("ΔG")}},
	{Label: "FORMULA", SubType: "energy", Tokens: []TokenMatcher{lower("bde")}},
}

var pointPatterns = []Pattern{
	{Label: "PROP", SubType: "temperature", Tokens: []TokenMatcher{
		lower("flash", "boiling", "boil", "melting", "melt", "heating", "heat", "freezing", "freeze", "decomposition", "sublimation", "dec."),
		lower("point", "points"),
	}},
	{Label: "PROP", SubType: "temperature", Tokens: []TokenMatcher{lower("decomposes", "decompose", "decomposed"), lower("at")}},
	{Label: "PROP", SubType: "temperature", Tokens: []TokenMatcher{lower("is", "are", "be"), lower("stable"), lower("at")}},
	{Label: "PROP", SubType: "temperature", Tokens: []TokenMatcher{lower("explodes", "explode", "exploded"), lower("at")}},
	{Label: "PROP", SubType: "temperature", Tokens: []TokenMatcher{lower("is", "are", "be"), lower("stable"), lower("up"), lower("to")}},
	{Label: "PROP", SubType: "temperature", Tokens: []TokenMatcher{
		lower("heating", "heat", "boiling", "boil", "melting", "melt", "freezing", "freeze", "calorific", "sublimation", "decomposition"),
		lower("value", "values"),
	}},
}

var pressurePatterns = []Pattern{
	{Label: "PROP", SubType: "pressure", Tokens: []TokenMatcher{
		lower("critical", "vapor", "vapour", "heat", "freezing", "calorific", "detonation"),
		lower("pressure", "pressures"),
	}},
}

var temperaturePatterns = []Pattern{
	{Label: "PROP", SubType: "temperature", Tokens: []TokenMatcher{
		lower("critical", "ignition", "decomposition", "detonation"),
		lower("temperature", "temperatures"),
	}},
	{Label: "FORMULA", SubType: "temperature", Tokens: []TokenMatcher{text("T"), text("c"), text("=")}},
	{Label: "FORMULA", SubType: "temperature", Tokens: []TokenMatcher{text("Tc"), text("=")}},
	{Label: "FORMULA", SubType: "temperature", Tokens: []TokenMatcher{text("T"), text("c=")}},
	{Label: "FORMULA", SubType: "temperature", Tokens: []TokenMatcher{text("Tc=")}},
	{Label: "FORMULA", SubType: "temperature", Tokens: []TokenMatcher{text("T"), text("dec"), text("=")}},
	{Label: "FORMULA", SubType: "temperature", Tokens: []TokenMatcher{text("Tdec"), text("=")}},
	{Label: "FORMULA", SubType: "temperature", Tokens: []TokenMatcher{text("T"), text("dec=")}},
	{Label: "FORMULA", SubType: "temperature", Tokens: []TokenMatcher{text("Tdec=")}},
}

var densityPatterns = []Pattern{
	{Label: "PROP", SubType: "density", Tokens: []TokenMatcher{lower("density", "densities", "solubility")}},
	{Label: "FORMULA", SubType: "density", Tokens: []TokenMatcher{text("ρ")}},
}

var otherPatterns = []Pattern{
	{Label: "PROP", SubType: "heat capacity", Tokens: []TokenMatcher{lower("heat"), lower("capacity", "capacities")}},
	{Label: "PROP", SubType: "toxicity", Tokens: []TokenMatcher{lower("toxicity")}},
	{Label: "PROP", SubType: "viscosity", Tokens: []TokenMatcher{lower("viscosity")}},
	{Label: "FORMULA", SubType: "viscosity", Tokens: []TokenMatcher{text("η"), text("=")}},
	{Label: "FORMULA", SubType: "viscosity", Tokens: []TokenMatcher{text("η=")}},
	{Label: "PROP", SubType: "thermal", Tokens: []TokenMatcher{lower("thermal"), lower("stability", "conductivity", "diffusivity")}},
	{Label: "FORMULA", SubType: "thermal", Tokens: []TokenMatcher{lower("t1/2"), optional(text("="))}},
	{Label: "PROP", SubType: "velocity", Tokens: []TokenMatcher{lower("detonation"), lower("velocity", "velocities")}},
	{Label: "PROP", SubType: "formula weight", Tokens: []TokenMatcher{lower("formula"), lower("weight", "weights")}},
	{Label: "PROP", SubType: "sensibility", Tokens: []TokenMatcher{
		lower("impact", "friction", "esd", "electrostatic"),
		lower("sensibility", "sensitivity"),
	}},
	{Label: "PROP", SubType: "sensibility", Tokens: []TokenMatcher{
		lower("electrostatic"), lower("discharge"), lower("sensibility", "sensitivity"),
	}},
	{Label: "PROP", SubType: "sensibility", Tokens: []TokenMatcher{
		lower("sensitive"), lower("to"), lower("impact", "friction", "esd", "electrostatic"),
	}},
}

// PropertyPatterns is the full rule table applied by the property ruler
// stage, in match-priority order.
func PropertyPatterns() []Pattern {
	var patterns []Pattern
	patterns = append(patterns, absorptivityPatterns...)
	patterns = append(patterns, vacuumPatterns...)
	patterns = append(patterns, enthalpyPatterns...)
	patterns = append(patterns, energyPatterns...)
	patterns = append(patterns, pointPatterns...)
	patterns = append(patterns, pressurePatterns...)
	patterns = append(patterns, temperaturePatterns...)
	patterns = append(patterns, densityPatterns...)
	patterns = append(patterns, otherPatterns...)
	return patterns
}
