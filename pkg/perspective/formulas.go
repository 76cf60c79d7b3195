package perspective

import "github.com/matzehuels/megamini/pkg/expr"

// Registered formula names.
const (
	// FormulaScale drives Place scale X from the focus distance.
	FormulaScale = "megamini.fp_scale"
	// FormulaLocation drives one axis of Place location.
	FormulaLocation = "megamini.place_location"
	// FormulaCopy passes VarValue through. Used for Place scale Y/Z and
	// for the Euler rotation channels.
	FormulaCopy = "megamini.copy"
	// FormulaInverse yields 1/VarScale, the ProxyObserver constraint influence.
	FormulaInverse = "megamini.inverse_scale"
)

// Variable names read by the formulas.
const (
	VarProxyDist     = "proxy_dist"
	VarScale         = "mega_mini_scl"
	VarPower         = "mega_mini_fp_pow"
	VarMinDist       = "mega_mini_fp_min_dist"
	VarMinScale      = "mega_mini_fp_min_scale"
	VarScaleMult     = "self_bone_scale"
	VarProxyPlace    = "proxy_place"
	VarProxyObserver = "proxy_obs"
	VarPlaceScale    = "place_scale"
	VarValue         = "value"
)

func init() {
	expr.MustRegister(FormulaScale, scaleFormula)
	expr.MustRegister(FormulaLocation, locationFormula)
	expr.MustRegister(FormulaCopy, func(v expr.Vars) float64 { return v[VarValue] })
	expr.MustRegister(FormulaInverse, func(v expr.Vars) float64 { return ObserverInfluence(v[VarScale]) })
}

func scaleFormula(v expr.Vars) float64 {
	p := Params{
		Scale:    v[VarScale],
		Power:    v[VarPower],
		MinDist:  v[VarMinDist],
		MinScale: v[VarMinScale],
	}
	return ScaleFactor(p, v[VarProxyDist], v[VarScaleMult])
}

func locationFormula(v expr.Vars) float64 {
	return AxisLocation(v[VarProxyPlace], v[VarProxyObserver], v[VarScale], v[VarPlaceScale])
}
