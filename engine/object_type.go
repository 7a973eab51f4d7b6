package engine

var objectTypeNames = map[uint8]string{
	0:  "bipd",
	1:  "vehi",
	2:  "weap",
	3:  "eqip",
	4:  "garb",
	5:  "proj",
	6:  "scen",
	7:  "mach",
	8:  "ctrl",
	9:  "lifi",
	11: "ssce",
}

// ObjectTypeName maps an object pool data type to its tag class
func ObjectTypeName(dataType uint8) string {
	if name, ok := objectTypeNames[dataType]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsUnit reports whether the type is a biped or vehicle
func IsUnit(dataType uint8) bool {
	return dataType <= 1
}
