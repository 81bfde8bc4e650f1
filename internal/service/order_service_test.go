package service

import (
	"context"
	"testing"

	"tropicalstore/internal/apperr"
	"tropicalstore/internal/dto"
	"tropicalstore/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func beachClassic(t *testing.T, f *fixture, kitStock int) {
	t.Helper()
	f.seedGradeProduct(t, "CHN001", "Beach Classic", "12.50", "Preto", "2549", []dto.CompositionEntry{
		{Size: "35", Quantity: 3},
		{Size: "36", Quantity: 4},
		{Size: "37", Quantity: 3},
	}, kitStock, "counter")
}

func TestCommit_GradeCounter(t *testing.T) {
	f := newFixture()
	beachClassic(t, f, 30)

	resp, err := f.orderSvc.Commit(context.Background(), dto.CommitRequest{Lines: []dto.CommitLine{
		{ProductCode: "CHN001", Color: "Preto", Grade: strPtr("2549"), Quantity: 5},
	}})
	require.NoError(t, err)
	assert.Equal(t, 1000, resp.Number)
	require.Len(t, resp.Lines, 1)

	line := resp.Lines[0]
	assert.Equal(t, model.OrderLineGrade, line.Kind)
	// One kit is 10 pairs at 12.50 → 125.00 per kit, 625.00 for five.
	assert.True(t, line.UnitPrice.Equal(price(t, "125.00")), "got %s", line.UnitPrice)
	assert.True(t, line.Subtotal.Equal(price(t, "625.00")))
	assert.True(t, resp.Total.Equal(price(t, "625.00")))
	assert.Equal(t, 25, line.NewStock)
	assert.Equal(t, 25, f.grades.associations[0].KitStock)

	// The decrement is ledgered against the association.
	require.Len(t, f.movements.movements, 1)
	m := f.movements.movements[0]
	assert.Equal(t, model.MovementTargetGrade, m.TargetKind)
	assert.Equal(t, f.grades.associations[0].ID, m.TargetID)
	assert.Equal(t, -5, m.Quantity)
	assert.Equal(t, "order", m.Type)
}

func TestCommit_InsufficientKitsLeavesStateUntouched(t *testing.T) {
	f := newFixture()
	beachClassic(t, f, 5)

	_, err := f.orderSvc.Commit(context.Background(), dto.CommitRequest{Lines: []dto.CommitLine{
		{ProductCode: "CHN001", Color: "Preto", Grade: strPtr("2549"), Quantity: 6},
	}})

	var ce *CommitError
	require.ErrorAs(t, err, &ce)
	require.Len(t, ce.Lines, 1)
	assert.Equal(t, "insufficient_stock", ce.Lines[0].Reason)

	assert.Equal(t, 5, f.grades.associations[0].KitStock)
	assert.Empty(t, f.orders.orders)
	assert.Empty(t, f.movements.movements)
}

func TestCommit_LastKitNotOversold(t *testing.T) {
	f := newFixture()
	beachClassic(t, f, 1)
	ctx := context.Background()
	line := dto.CommitLine{ProductCode: "CHN001", Color: "Preto", Grade: strPtr("2549"), Quantity: 1}

	_, err := f.orderSvc.Commit(ctx, dto.CommitRequest{Lines: []dto.CommitLine{line}})
	require.NoError(t, err)

	_, err = f.orderSvc.Commit(ctx, dto.CommitRequest{Lines: []dto.CommitLine{line}})
	var ce *CommitError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 0, f.grades.associations[0].KitStock)
	assert.Len(t, f.orders.orders, 1)
}

func TestCommit_MixedLineFailureAbortsWholeOrder(t *testing.T) {
	f := newFixture()
	beachClassic(t, f, 0)
	f.seedUnitProduct(t, "TEN001", "Urban Runner", "199.90", "White", map[string]int{"40": 10}, false)

	_, err := f.orderSvc.Commit(context.Background(), dto.CommitRequest{Lines: []dto.CommitLine{
		{ProductCode: "TEN001", Color: "White", Size: strPtr("40"), Quantity: 2},
		{ProductCode: "CHN001", Color: "Preto", Grade: strPtr("2549"), Quantity: 1},
	}})

	var ce *CommitError
	require.ErrorAs(t, err, &ce)
	require.Len(t, ce.Lines, 1)
	assert.Equal(t, 1, ce.Lines[0].Index)

	// The healthy line was rolled back with the rest.
	assert.Equal(t, 10, f.products.sizeVariants[0].Stock)
	assert.Empty(t, f.orders.orders)
}

func TestCommit_UnitLine(t *testing.T) {
	f := newFixture()
	f.seedUnitProduct(t, "TEN001", "Urban Runner", "199.90", "White", map[string]int{"40": 10}, false)

	resp, err := f.orderSvc.Commit(context.Background(), dto.CommitRequest{Lines: []dto.CommitLine{
		{ProductCode: "TEN001", Color: "White", Size: strPtr("40"), Quantity: 3},
	}})
	require.NoError(t, err)
	require.Len(t, resp.Lines, 1)
	assert.Equal(t, model.OrderLineUnit, resp.Lines[0].Kind)
	assert.True(t, resp.Lines[0].UnitPrice.Equal(price(t, "199.90")))
	assert.Equal(t, 7, resp.Lines[0].NewStock)
	assert.Equal(t, 7, f.products.sizeVariants[0].Stock)

	order, err := f.orderSvc.GetOrder(context.Background(), mustOrderID(t, resp.OrderID))
	require.NoError(t, err)
	assert.Equal(t, "committed", order.Status)
	require.Len(t, order.Items, 1)
	assert.NotNil(t, order.Items[0].SizeVariantID)
	assert.Nil(t, order.Items[0].GradeID)
}

func TestCommit_DerivedGradeDecrementsSizeStocks(t *testing.T) {
	f := newFixture()
	f.seedGradeProduct(t, "CHN002", "Beach Sport", "15.00", "Azul", "2533", []dto.CompositionEntry{
		{Size: "37", Quantity: 2},
		{Size: "38", Quantity: 3},
	}, 0, "derived")
	ctx := context.Background()
	for size, stock := range map[string]int{"37": 4, "38": 6} {
		_, err := f.catalog.UpsertSizeVariant(ctx, "CHN002", dto.UpsertSizeVariantRequest{
			Color: "Azul",
			Size:  size,
			Stock: stock,
		})
		require.NoError(t, err)
	}
	f.attachRefs()

	resp, err := f.orderSvc.Commit(ctx, dto.CommitRequest{Lines: []dto.CommitLine{
		{ProductCode: "CHN002", Color: "Azul", Grade: strPtr("2533"), Quantity: 2},
	}})
	require.NoError(t, err)

	// Two kits pull 2×2 pairs of 37 and 2×3 pairs of 38.
	stocks := map[string]int{}
	for _, sv := range f.products.sizeVariants {
		stocks[sv.Size.Name] = sv.Stock
	}
	assert.Equal(t, map[string]int{"37": 0, "38": 0}, stocks)
	// 5 pairs per kit at 15.00 → 75.00 per kit.
	assert.True(t, resp.Lines[0].UnitPrice.Equal(price(t, "75.00")))
	assert.Equal(t, 0, resp.Lines[0].NewStock)
	// One movement per composition size.
	assert.Len(t, f.movements.movements, 2)
}

func TestCommit_DerivedGradeShortStock(t *testing.T) {
	f := newFixture()
	f.seedGradeProduct(t, "CHN002", "Beach Sport", "15.00", "Azul", "2533", []dto.CompositionEntry{
		{Size: "37", Quantity: 2},
		{Size: "38", Quantity: 3},
	}, 0, "derived")
	ctx := context.Background()
	for size, stock := range map[string]int{"37": 4, "38": 2} {
		_, err := f.catalog.UpsertSizeVariant(ctx, "CHN002", dto.UpsertSizeVariantRequest{
			Color: "Azul",
			Size:  size,
			Stock: stock,
		})
		require.NoError(t, err)
	}
	f.attachRefs()

	_, err := f.orderSvc.Commit(ctx, dto.CommitRequest{Lines: []dto.CommitLine{
		{ProductCode: "CHN002", Color: "Azul", Grade: strPtr("2533"), Quantity: 1},
	}})
	var ce *CommitError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "insufficient_stock", ce.Lines[0].Reason)
}

func TestCommit_SellWithoutStockGoesNegative(t *testing.T) {
	f := newFixture()
	f.seedUnitProduct(t, "TEN001", "Urban Runner", "199.90", "White", map[string]int{"40": 1}, true)

	resp, err := f.orderSvc.Commit(context.Background(), dto.CommitRequest{Lines: []dto.CommitLine{
		{ProductCode: "TEN001", Color: "White", Size: strPtr("40"), Quantity: 3},
	}})
	require.NoError(t, err)
	assert.Equal(t, -2, resp.Lines[0].NewStock)
	assert.Equal(t, -2, f.products.sizeVariants[0].Stock)
}

func TestCommit_LineShapeValidation(t *testing.T) {
	f := newFixture()
	beachClassic(t, f, 10)
	f.seedUnitProduct(t, "TEN001", "Urban Runner", "199.90", "White", map[string]int{"40": 5}, false)
	ctx := context.Background()

	cases := []struct {
		name   string
		line   dto.CommitLine
		reason string
	}{
		{
			name:   "both size and grade",
			line:   dto.CommitLine{ProductCode: "TEN001", Color: "White", Size: strPtr("40"), Grade: strPtr("2549"), Quantity: 1},
			reason: "validation",
		},
		{
			name:   "neither size nor grade",
			line:   dto.CommitLine{ProductCode: "TEN001", Color: "White", Quantity: 1},
			reason: "validation",
		},
		{
			name:   "size line on grade product",
			line:   dto.CommitLine{ProductCode: "CHN001", Color: "Preto", Size: strPtr("37"), Quantity: 1},
			reason: "validation",
		},
		{
			name:   "grade line on unit product",
			line:   dto.CommitLine{ProductCode: "TEN001", Color: "White", Grade: strPtr("2549"), Quantity: 1},
			reason: "validation",
		},
		{
			name:   "unknown product",
			line:   dto.CommitLine{ProductCode: "NOPE", Color: "White", Size: strPtr("40"), Quantity: 1},
			reason: "not_found",
		},
		{
			name:   "unknown color",
			line:   dto.CommitLine{ProductCode: "TEN001", Color: "Chartreuse", Size: strPtr("40"), Quantity: 1},
			reason: "not_found",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.orderSvc.Commit(ctx, dto.CommitRequest{Lines: []dto.CommitLine{tc.line}})
			var ce *CommitError
			require.ErrorAs(t, err, &ce)
			require.Len(t, ce.Lines, 1)
			assert.Equal(t, tc.reason, ce.Lines[0].Reason)
		})
	}
}

func TestVoidOrder_RestoresCounterStock(t *testing.T) {
	f := newFixture()
	beachClassic(t, f, 30)
	ctx := context.Background()

	resp, err := f.orderSvc.Commit(ctx, dto.CommitRequest{Lines: []dto.CommitLine{
		{ProductCode: "CHN001", Color: "Preto", Grade: strPtr("2549"), Quantity: 5},
	}})
	require.NoError(t, err)
	require.Equal(t, 25, f.grades.associations[0].KitStock)

	orderID := mustOrderID(t, resp.OrderID)
	require.NoError(t, f.orderSvc.VoidOrder(ctx, orderID, "customer cancelled"))

	assert.Equal(t, 30, f.grades.associations[0].KitStock)
	order, err := f.orderSvc.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, "voided", order.Status)

	// Restore is ledgered too.
	require.Len(t, f.movements.movements, 2)
	assert.Equal(t, "order_void", f.movements.movements[1].Type)
	assert.Equal(t, 5, f.movements.movements[1].Quantity)

	// Voiding twice is a conflict, not a double restore.
	err = f.orderSvc.VoidOrder(ctx, orderID, "again")
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.Equal(t, 30, f.grades.associations[0].KitStock)
}

func TestVoidOrder_RestoresUnitStock(t *testing.T) {
	f := newFixture()
	f.seedUnitProduct(t, "TEN001", "Urban Runner", "199.90", "White", map[string]int{"40": 10}, false)
	ctx := context.Background()

	resp, err := f.orderSvc.Commit(ctx, dto.CommitRequest{Lines: []dto.CommitLine{
		{ProductCode: "TEN001", Color: "White", Size: strPtr("40"), Quantity: 4},
	}})
	require.NoError(t, err)
	require.Equal(t, 6, f.products.sizeVariants[0].Stock)

	require.NoError(t, f.orderSvc.VoidOrder(ctx, mustOrderID(t, resp.OrderID), "wrong size"))
	assert.Equal(t, 10, f.products.sizeVariants[0].Stock)
}

func TestVoidOrder_RestoresDerivedStock(t *testing.T) {
	f := newFixture()
	f.seedGradeProduct(t, "CHN002", "Beach Sport", "15.00", "Azul", "2533", []dto.CompositionEntry{
		{Size: "37", Quantity: 2},
		{Size: "38", Quantity: 3},
	}, 0, "derived")
	ctx := context.Background()
	for size, stock := range map[string]int{"37": 4, "38": 6} {
		_, err := f.catalog.UpsertSizeVariant(ctx, "CHN002", dto.UpsertSizeVariantRequest{
			Color: "Azul",
			Size:  size,
			Stock: stock,
		})
		require.NoError(t, err)
	}
	f.attachRefs()

	resp, err := f.orderSvc.Commit(ctx, dto.CommitRequest{Lines: []dto.CommitLine{
		{ProductCode: "CHN002", Color: "Azul", Grade: strPtr("2533"), Quantity: 2},
	}})
	require.NoError(t, err)
	require.NoError(t, f.orderSvc.VoidOrder(ctx, mustOrderID(t, resp.OrderID), "returned"))

	stocks := map[string]int{}
	for _, sv := range f.products.sizeVariants {
		stocks[sv.Size.Name] = sv.Stock
	}
	assert.Equal(t, map[string]int{"37": 4, "38": 6}, stocks)

	// Every restored size is ledgered alongside the commit decrements.
	require.Len(t, f.movements.movements, 4)
	voidRows := 0
	for _, m := range f.movements.movements {
		if m.Type == "order_void" {
			voidRows++
			assert.Equal(t, model.MovementTargetSize, m.TargetKind)
			assert.Positive(t, m.Quantity)
			assert.Equal(t, m.StockBefore+m.Quantity, m.StockAfter)
		}
	}
	assert.Equal(t, 2, voidRows)
}

func TestVoidOrder_DerivedMissingVariantAborts(t *testing.T) {
	f := newFixture()
	f.seedGradeProduct(t, "CHN002", "Beach Sport", "15.00", "Azul", "2533", []dto.CompositionEntry{
		{Size: "37", Quantity: 2},
		{Size: "38", Quantity: 3},
	}, 0, "derived")
	ctx := context.Background()
	for size, stock := range map[string]int{"37": 4, "38": 6} {
		_, err := f.catalog.UpsertSizeVariant(ctx, "CHN002", dto.UpsertSizeVariantRequest{
			Color: "Azul",
			Size:  size,
			Stock: stock,
		})
		require.NoError(t, err)
	}
	f.attachRefs()

	resp, err := f.orderSvc.Commit(ctx, dto.CommitRequest{Lines: []dto.CommitLine{
		{ProductCode: "CHN002", Color: "Azul", Grade: strPtr("2533"), Quantity: 1},
	}})
	require.NoError(t, err)
	committed := len(f.movements.movements)

	// The first composition size loses its variant between commit and void.
	kept := f.products.sizeVariants[:0]
	for _, sv := range f.products.sizeVariants {
		if sv.Size.Name != "37" {
			kept = append(kept, sv)
		}
	}
	f.products.sizeVariants = kept

	err = f.orderSvc.VoidOrder(ctx, mustOrderID(t, resp.OrderID), "returned")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	// Nothing was restored, nothing was ledgered, and the order keeps its
	// committed status.
	assert.Equal(t, 3, f.products.sizeVariants[0].Stock)
	assert.Len(t, f.movements.movements, committed)
	assert.Equal(t, "committed", f.orders.orders[mustOrderID(t, resp.OrderID)].Status)
}

func TestVoidOrder_NotFound(t *testing.T) {
	f := newFixture()
	err := f.orderSvc.VoidOrder(context.Background(), uuid.New(), "nothing there")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestListOrders(t *testing.T) {
	f := newFixture()
	beachClassic(t, f, 30)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.orderSvc.Commit(ctx, dto.CommitRequest{Lines: []dto.CommitLine{
			{ProductCode: "CHN001", Color: "Preto", Grade: strPtr("2549"), Quantity: 1},
		}})
		require.NoError(t, err)
	}

	list, err := f.orderSvc.ListOrders(ctx, dto.OrderFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, list.Total)
	assert.Len(t, list.Data, 3)

	list, err = f.orderSvc.ListOrders(ctx, dto.OrderFilter{Status: "voided"})
	require.NoError(t, err)
	assert.Empty(t, list.Data)
}

func mustOrderID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}
