package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/dealership/internal/apperr"
	"github.com/erazemk/dealership/internal/db"
	"github.com/erazemk/dealership/internal/model"
)

func newDealer(t *testing.T, database *sql.DB, username string) int64 {
	t.Helper()
	accounts := &Accounts{DB: database}
	account, err := accounts.Insert(context.Background(), username, "hash")
	require.NoError(t, err)
	return account.ID
}

func newCars(t *testing.T) (*Cars, int64, int64) {
	t.Helper()
	database := db.NewTestDB(t)
	return &Cars{DB: database}, newDealer(t, database, "dealer-a"), newDealer(t, database, "dealer-b")
}

func TestDealerScenario(t *testing.T) {
	cars, dealerA, dealerB := newCars(t)
	ctx := context.Background()

	car, err := cars.Create(ctx, model.Car{Make: "Toyota", Model: "Corolla", Year: 2020, StockLevel: 5}, dealerA)
	require.NoError(t, err)
	assert.Equal(t, int64(1), car.ID)
	assert.Equal(t, dealerA, car.DealerID)

	foreign, err := cars.GetByID(ctx, car.ID, dealerB)
	require.NoError(t, err)
	assert.Nil(t, foreign)

	changed, err := cars.UpdateStock(ctx, car.ID, 10, dealerA)
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := cars.GetByID(ctx, car.ID, dealerA)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 10, got.StockLevel)
}

func TestCreateIgnoresClientOwnerAndID(t *testing.T) {
	cars, dealerA, dealerB := newCars(t)
	ctx := context.Background()

	car, err := cars.Create(ctx, model.Car{ID: 77, Make: "VW", Model: "Golf", Year: 2018, DealerID: dealerB}, dealerA)
	require.NoError(t, err)
	assert.NotEqual(t, int64(77), car.ID)
	assert.Equal(t, dealerA, car.DealerID)

	list, err := cars.ListAll(ctx, dealerB)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateValidation(t *testing.T) {
	cars, dealerA, _ := newCars(t)
	cars.Now = func() time.Time { return time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	_, err := cars.Create(ctx, model.Car{Make: "Ford", Model: "T", Year: 1}, dealerA)
	assert.NoError(t, err)

	_, err = cars.Create(ctx, model.Car{Make: "Ford", Model: "Focus", Year: 2026}, dealerA)
	assert.NoError(t, err)

	_, err = cars.Create(ctx, model.Car{Make: "Ford", Model: "Focus", Year: 2027}, dealerA)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = cars.Create(ctx, model.Car{Make: "", Model: "", Year: 0, StockLevel: -1}, dealerA)
	var verr *apperr.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 4)

	list, err := cars.ListAll(ctx, dealerA)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestListAllIsScopedAndOrdered(t *testing.T) {
	cars, dealerA, dealerB := newCars(t)
	ctx := context.Background()

	for _, m := range []string{"Corolla", "Yaris", "Supra"} {
		_, err := cars.Create(ctx, model.Car{Make: "Toyota", Model: m, Year: 2020}, dealerA)
		require.NoError(t, err)
	}
	_, err := cars.Create(ctx, model.Car{Make: "Honda", Model: "Civic", Year: 2020}, dealerB)
	require.NoError(t, err)

	list, err := cars.ListAll(ctx, dealerA)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"Corolla", "Yaris", "Supra"}, []string{list[0].Model, list[1].Model, list[2].Model})
	for _, c := range list {
		assert.Equal(t, dealerA, c.DealerID)
	}
}

func TestForeignDealerCannotMutate(t *testing.T) {
	cars, dealerA, dealerB := newCars(t)
	ctx := context.Background()

	car, err := cars.Create(ctx, model.Car{Make: "Toyota", Model: "Corolla", Year: 2020, StockLevel: 5}, dealerA)
	require.NoError(t, err)

	changed, err := cars.Update(ctx, model.Car{ID: car.ID, Make: "Hacked", Model: "Hacked", Year: 2020}, dealerB)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = cars.UpdateStock(ctx, car.ID, 0, dealerB)
	require.NoError(t, err)
	assert.False(t, changed)

	deleted, err := cars.Delete(ctx, car.ID, dealerB)
	require.NoError(t, err)
	assert.False(t, deleted)

	got, err := cars.GetByID(ctx, car.ID, dealerA)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Toyota", got.Make)
	assert.Equal(t, 5, got.StockLevel)
}

func TestUpdateCar(t *testing.T) {
	cars, dealerA, _ := newCars(t)
	ctx := context.Background()

	car, err := cars.Create(ctx, model.Car{Make: "Toyota", Model: "Corolla", Year: 2020, StockLevel: 5}, dealerA)
	require.NoError(t, err)

	changed, err := cars.Update(ctx, model.Car{ID: car.ID, Make: "Toyota", Model: "Camry", Year: 2021, StockLevel: 2}, dealerA)
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := cars.GetByID(ctx, car.ID, dealerA)
	require.NoError(t, err)
	assert.Equal(t, "Camry", got.Model)
	assert.Equal(t, 2021, got.Year)
	assert.Equal(t, 2, got.StockLevel)
	assert.Equal(t, dealerA, got.DealerID)

	changed, err = cars.Update(ctx, model.Car{ID: 999, Make: "Toyota", Model: "Camry", Year: 2021}, dealerA)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = cars.Update(ctx, model.Car{ID: car.ID, Make: "", Model: "Camry", Year: 2021}, dealerA)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDeleteCar(t *testing.T) {
	cars, dealerA, _ := newCars(t)
	ctx := context.Background()

	car, err := cars.Create(ctx, model.Car{Make: "Mazda", Model: "MX-5", Year: 2022}, dealerA)
	require.NoError(t, err)

	deleted, err := cars.Delete(ctx, car.ID, dealerA)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = cars.Delete(ctx, car.ID, dealerA)
	require.NoError(t, err)
	assert.False(t, deleted)

	got, err := cars.GetByID(ctx, car.ID, dealerA)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpdateStockRejectsNegative(t *testing.T) {
	cars, dealerA, _ := newCars(t)
	ctx := context.Background()

	car, err := cars.Create(ctx, model.Car{Make: "Mazda", Model: "3", Year: 2022, StockLevel: 1}, dealerA)
	require.NoError(t, err)

	_, err = cars.UpdateStock(ctx, car.ID, -1, dealerA)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSearch(t *testing.T) {
	cars, dealerA, dealerB := newCars(t)
	ctx := context.Background()

	seed := []model.Car{
		{Make: "Toyota", Model: "Corolla", Year: 2020},
		{Make: "Toyota", Model: "Camry", Year: 2021},
		{Make: "Honda", Model: "Civic", Year: 2019},
		{Make: "Odd_Make", Model: "100%", Year: 2019},
	}
	for _, c := range seed {
		_, err := cars.Create(ctx, c, dealerA)
		require.NoError(t, err)
	}
	_, err := cars.Create(ctx, model.Car{Make: "Toyota", Model: "Corolla", Year: 2020}, dealerB)
	require.NoError(t, err)

	models := func(list []model.Car) []string {
		out := make([]string, 0, len(list))
		for _, c := range list {
			out = append(out, c.Model)
		}
		return out
	}

	tests := []struct {
		name  string
		make  string
		model string
		want  []string
	}{
		{"make only", "Toyota", "", []string{"Corolla", "Camry"}},
		{"model only", "", "ca", []string{"Camry"}},
		{"both", "toy", "oro", []string{"Corolla"}},
		{"no filter", "", "", []string{"Corolla", "Camry", "Civic", "100%"}},
		{"percent is literal", "", "%", []string{"100%"}},
		{"underscore is literal", "_", "", []string{"100%"}},
		{"no match", "BMW", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cars.Search(ctx, tt.make, tt.model, dealerA)
			require.NoError(t, err)
			assert.Equal(t, tt.want, models(got))
		})
	}
}
