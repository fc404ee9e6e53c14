package domain

import (
	"fmt"
	"strings"
)

type VehicleType string

const (
	VehicleTypeCar        VehicleType = "car"
	VehicleTypeMotorcycle VehicleType = "motorcycle"
	VehicleTypeTruck      VehicleType = "truck"
	VehicleTypeEV         VehicleType = "ev"
)

const (
	UnknownPlateNumber = "Unknown"
	DefaultVehicleType = VehicleTypeCar
)

func ParseVehicleType(s string) (VehicleType, error) {
	switch vt := VehicleType(strings.ToLower(strings.TrimSpace(s))); vt {
	case VehicleTypeCar, VehicleTypeMotorcycle, VehicleTypeTruck, VehicleTypeEV:
		return vt, nil
	}
	return "", fmt.Errorf("%w: unknown vehicle type %q", ErrValidation, s)
}

func ParseVehicleTypes(values []string) ([]VehicleType, error) {
	out := make([]VehicleType, 0, len(values))
	for _, v := range values {
		vt, err := ParseVehicleType(v)
		if err != nil {
			return nil, err
		}
		out = append(out, vt)
	}
	return out, nil
}

// Vehicle is the single stored shape of a reservation's vehicle details.
type Vehicle struct {
	PlateNumber string      `json:"plate_number"`
	VehicleType VehicleType `json:"vehicle_type"`
}

// NormalizeVehicle turns any of the vehicle-detail shapes clients have sent
// over time into a Vehicle:
//
//	{"plateNumber": "KA01", "vehicleType": "car"}
//	{"number": "KA01", "type": "car"}
//	{"type": {"plateNumber": "KA01", "vehicleType": "car"}}
//	{"vehicleNumber": "KA01", "vehicleType": "car"}   (flattened on the request)
//
// Missing values default to UnknownPlateNumber and DefaultVehicleType. A
// vehicle type outside the known set is a validation error.
func NormalizeVehicle(raw map[string]any) (Vehicle, error) {
	v := Vehicle{PlateNumber: UnknownPlateNumber, VehicleType: DefaultVehicleType}

	nested, _ := raw["type"].(map[string]any)

	switch {
	case stringField(raw, "plateNumber") != "":
		v.PlateNumber = stringField(raw, "plateNumber")
	case stringField(raw, "number") != "":
		v.PlateNumber = stringField(raw, "number")
	case stringField(nested, "plateNumber") != "":
		v.PlateNumber = stringField(nested, "plateNumber")
	case stringField(raw, "vehicleNumber") != "":
		v.PlateNumber = stringField(raw, "vehicleNumber")
	}

	var typeName string
	switch {
	case stringField(raw, "vehicleType") != "":
		typeName = stringField(raw, "vehicleType")
	case stringField(raw, "type") != "":
		typeName = stringField(raw, "type")
	case stringField(nested, "vehicleType") != "":
		typeName = stringField(nested, "vehicleType")
	}
	if typeName != "" {
		vt, err := ParseVehicleType(typeName)
		if err != nil {
			return Vehicle{}, err
		}
		v.VehicleType = vt
	}
	return v, nil
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}
