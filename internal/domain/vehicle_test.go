package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeVehicle(t *testing.T) {
	tests := []struct {
		name     string
		raw      map[string]any
		expected Vehicle
	}{
		{
			name:     "current shape",
			raw:      map[string]any{"plateNumber": "KA01AB1234", "vehicleType": "ev"},
			expected: Vehicle{PlateNumber: "KA01AB1234", VehicleType: VehicleTypeEV},
		},
		{
			name:     "number and string type",
			raw:      map[string]any{"number": "MH12", "type": "truck"},
			expected: Vehicle{PlateNumber: "MH12", VehicleType: VehicleTypeTruck},
		},
		{
			name:     "nested type object",
			raw:      map[string]any{"type": map[string]any{"plateNumber": "DL3C", "vehicleType": "motorcycle"}},
			expected: Vehicle{PlateNumber: "DL3C", VehicleType: VehicleTypeMotorcycle},
		},
		{
			name:     "flattened request fields",
			raw:      map[string]any{"vehicleNumber": "TN09", "vehicleType": "CAR"},
			expected: Vehicle{PlateNumber: "TN09", VehicleType: VehicleTypeCar},
		},
		{
			name:     "empty uses defaults",
			raw:      map[string]any{},
			expected: Vehicle{PlateNumber: UnknownPlateNumber, VehicleType: DefaultVehicleType},
		},
		{
			name:     "nil map uses defaults",
			raw:      nil,
			expected: Vehicle{PlateNumber: UnknownPlateNumber, VehicleType: DefaultVehicleType},
		},
		{
			name:     "plateNumber wins over number",
			raw:      map[string]any{"plateNumber": "A1", "number": "B2"},
			expected: Vehicle{PlateNumber: "A1", VehicleType: DefaultVehicleType},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NormalizeVehicle(tt.raw)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}

	t.Run("unknown vehicle type", func(t *testing.T) {
		_, err := NormalizeVehicle(map[string]any{"vehicleType": "bicycle"})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestParseFeatures(t *testing.T) {
	t.Run("legacy spellings", func(t *testing.T) {
		fs, err := ParseFeatures([]string{"security", "charging", "disabled", "24/7", "covered"})
		assert.NoError(t, err)
		assert.Equal(t, []Feature{FeatureSecured, FeatureEVCharging, FeatureAccessible, Feature24x7, FeatureCovered}, fs)
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		fs, err := ParseFeatures([]string{"covered", " Covered ", ""})
		assert.NoError(t, err)
		assert.Equal(t, []Feature{FeatureCovered}, fs)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := ParseFeatures([]string{"valet"})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("user")
	assert.NoError(t, err)
	assert.Equal(t, RoleDriver, r)

	r, err = ParseRole("Operator")
	assert.NoError(t, err)
	assert.Equal(t, RoleOperator, r)

	_, err = ParseRole("admin")
	assert.ErrorIs(t, err, ErrValidation)
}
