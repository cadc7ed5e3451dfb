package usda

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fittrack/backend/internal/domain"
)

func TestMapFood(t *testing.T) {
	f := &food{
		FdcID:       2262074,
		Description: "Greek Yogurt",
		DataType:    "Branded",
		BrandOwner:  "Chobani",
		GtinUpc:     "00894700010045",
		Nutrients: []nutrient{
			{NutrientName: "Energy", UnitName: "KCAL", Value: 60},
			{NutrientName: "Protein", UnitName: "G", Value: 10},
			{NutrientName: "Fiber, total dietary", UnitName: "G", Value: 0},
			{NutrientName: "Sugars, total including NLEA", UnitName: "G", Value: 3.5},
			{NutrientName: "Vitamin C, total ascorbic acid", UnitName: "MG", Value: 9},
		},
	}

	item := mapFood(f)

	require.NotNil(t, item)
	assert.Equal(t, domain.SourceUSDA, item.Source)
	assert.Equal(t, "2262074", *item.ExternalID)
	require.NotNil(t, item.BrandName)
	assert.Equal(t, "Chobani", *item.BrandName)
	require.NotNil(t, item.Barcode)
	assert.Equal(t, "00894700010045", *item.Barcode)
	assert.Equal(t, 60.0, item.Calories)
	assert.Equal(t, 10.0, item.ProteinG)
	assert.Equal(t, 3.5, item.SugarG)
	assert.Equal(t, 0.0, item.CarbsG, "absent nutrients default to zero")
	require.NotNil(t, item.ServingWeightG)
	assert.Equal(t, 100.0, *item.ServingWeightG)
}

func TestMapFood_InvalidRecords(t *testing.T) {
	assert.Nil(t, mapFood(&food{FdcID: 0, Description: "No id"}))
	assert.Nil(t, mapFood(&food{FdcID: 42, Description: ""}))
}

func TestMapFood_NegativeValuesIgnored(t *testing.T) {
	f := &food{
		FdcID:       7,
		Description: "Odd record",
		Nutrients: []nutrient{
			{NutrientName: "Protein", UnitName: "G", Value: -4},
		},
	}

	item := mapFood(f)

	require.NotNil(t, item)
	assert.Equal(t, 0.0, item.ProteinG)
}
