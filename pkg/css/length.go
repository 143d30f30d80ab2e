package css

import (
	"fmt"
	"strconv"
	"strings"
)

// Unit is the unit of a CSS length.
type Unit uint8

const (
	UnitPx Unit = iota

	// Absolute
	UnitCm
	UnitMm
	UnitQ
	UnitIn
	UnitPt
	UnitPc

	// Font-relative
	UnitEm
	UnitRem
	UnitEx
	UnitRex
	UnitCap
	UnitRcap
	UnitCh
	UnitRch
	UnitIc
	UnitRic
	UnitLh
	UnitRlh

	// Viewport-relative
	UnitVw
	UnitSvw
	UnitLvw
	UnitDvw
	UnitVh
	UnitSvh
	UnitLvh
	UnitDvh
	UnitVi
	UnitSvi
	UnitLvi
	UnitDvi
	UnitVb
	UnitSvb
	UnitLvb
	UnitDvb
	UnitVmin
	UnitSvmin
	UnitLvmin
	UnitDvmin
	UnitVmax
	UnitSvmax
	UnitLvmax
	UnitDvmax

	unitCount
)

var unitNames = [unitCount]string{
	"px",
	"cm", "mm", "q", "in", "pt", "pc",
	"em", "rem", "ex", "rex", "cap", "rcap", "ch", "rch", "ic", "ric", "lh", "rlh",
	"vw", "svw", "lvw", "dvw",
	"vh", "svh", "lvh", "dvh",
	"vi", "svi", "lvi", "dvi",
	"vb", "svb", "lvb", "dvb",
	"vmin", "svmin", "lvmin", "dvmin",
	"vmax", "svmax", "lvmax", "dvmax",
}

func (u Unit) String() string {
	if u < unitCount {
		return unitNames[u]
	}
	return fmt.Sprintf("unit(%d)", uint8(u))
}

// ParseUnit maps a unit suffix (case-insensitive) to its Unit.
func ParseUnit(s string) (Unit, bool) {
	s = strings.ToLower(s)
	for i, name := range unitNames {
		if name == s {
			return Unit(i), true
		}
	}
	return 0, false
}

func (u Unit) IsFontRelative() bool {
	return u >= UnitEm && u <= UnitRlh
}

func (u Unit) IsViewportRelative() bool {
	return u >= UnitVw && u <= UnitDvmax
}

func (u Unit) IsAbsolute() bool {
	return u <= UnitPc
}

// Length is a dimension with a unit, e.g. 12px or 1.5em.
type Length struct {
	Val  float64
	Unit Unit
}

func Px(v float64) Length { return Length{Val: v, Unit: UnitPx} }

func Em(v float64) Length { return Length{Val: v, Unit: UnitEm} }

func (l Length) IsZero() bool { return l.Val == 0 }

func (l Length) String() string {
	return strconv.FormatFloat(l.Val, 'f', -1, 64) + l.Unit.String()
}

// ParseLength parses a length value (e.g., "100px", "2em" or "100").
// A bare number is read as pixels, like the legacy HTML attribute parser does.
func ParseLength(val string) (Length, bool) {
	val = strings.TrimSpace(val)
	if val == "" {
		return Length{}, false
	}
	i := len(val)
	for i > 0 {
		c := val[i-1]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			i--
			continue
		}
		break
	}
	num, err := strconv.ParseFloat(val[:i], 64)
	if err != nil {
		return Length{}, false
	}
	if i == len(val) {
		return Px(num), true
	}
	unit, ok := ParseUnit(val[i:])
	if !ok {
		return Length{}, false
	}
	return Length{Val: num, Unit: unit}, true
}
