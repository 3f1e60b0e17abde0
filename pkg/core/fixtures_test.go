package core_test

import "github.com/leapstack-labs/sqlgen/pkg/core"

type fixture struct {
	customer *core.Table
	order    *core.Table
}

func newFixture() fixture {
	customer := core.NewTable("Customer",
		&core.Field{Name: "Id", Type: core.KindInt32, DataType: core.DataInt32, IsPrimaryKey: true, IsIdentity: true},
		&core.Field{Name: "Name", Type: core.KindString, DataType: core.DataNVarChar, Length: 50, Nullable: true},
		&core.Field{Name: "City", Type: core.KindString, DataType: core.DataNVarChar, Length: 30, Nullable: true},
	)
	customer.Alias = "c"

	order := core.NewTable("Order",
		&core.Field{Name: "Id", Type: core.KindInt32, DataType: core.DataInt32, IsPrimaryKey: true},
		&core.Field{Name: "CustomerId", Type: core.KindInt32, DataType: core.DataInt32},
		&core.Field{Name: "Total", Type: core.KindDecimal, DataType: core.DataDecimal, Precision: 18, Scale: 2},
	)
	return fixture{customer: customer, order: order}
}

func eq(l, r core.Expr) *core.ExprExpr {
	return &core.ExprExpr{Left: l, Op: core.OpEqual, Right: r}
}
