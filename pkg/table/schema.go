package table

import (
	"github.com/apache/arrow/go/v17/arrow"
)

// Raw trip columns.
const (
	FareAmount       = "fare_amount"
	PickupDatetime   = "pickup_datetime"
	PickupLongitude  = "pickup_longitude"
	PickupLatitude   = "pickup_latitude"
	DropoffLongitude = "dropoff_longitude"
	DropoffLatitude  = "dropoff_latitude"
	PassengerCount   = "passenger_count"
)

// Derived columns.
const (
	AbsDiffLat = "abs_diff_lat"
	AbsDiffLon = "abs_diff_lon"
	Manhatten  = "Manhatten"
	Haversine  = "haversine"
)

// PickupTimestampType is the type of pickup_datetime after load.
var PickupTimestampType = &arrow.TimestampType{Unit: arrow.Second, TimeZone: "UTC"}

// TripSchema returns the typed schema of a freshly loaded trip table.
func TripSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: FareAmount, Type: arrow.PrimitiveTypes.Float32, Nullable: true},
		{Name: PickupDatetime, Type: PickupTimestampType},
		{Name: PickupLongitude, Type: arrow.PrimitiveTypes.Float32, Nullable: true},
		{Name: PickupLatitude, Type: arrow.PrimitiveTypes.Float32, Nullable: true},
		{Name: DropoffLongitude, Type: arrow.PrimitiveTypes.Float32, Nullable: true},
		{Name: DropoffLatitude, Type: arrow.PrimitiveTypes.Float32, Nullable: true},
		{Name: PassengerCount, Type: arrow.PrimitiveTypes.Uint8},
	}, nil)
}

// TripColumns lists the raw column names in load order.
func TripColumns() []string {
	fields := TripSchema().Fields()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}
	return cols
}
