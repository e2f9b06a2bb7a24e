package translator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spotsync/backend/domain"
)

func TestCityParking(t *testing.T) {
	now := time.Now()
	fee := 500
	item := CityParkingItem{
		Code:            "100",
		Name:            "central lot",
		Address:         "1 main st",
		Latitude:        37.5665,
		Longitude:       126.978,
		TotalSlots:      50,
		CurrentVehicles: 30,
		BaseFee:         &fee,
	}

	update := New(nil).CityParking(item, now)
	require.NotNil(t, update)
	assert.Equal(t, "CITY_100", update.ExternalID)
	assert.Equal(t, domain.KindParking, update.Kind)
	assert.Equal(t, 50, update.TotalCount)
	assert.Equal(t, 20, update.AvailableCount, "occupancy converts to availability")
	require.NotNil(t, update.Extra.BaseFee)
	assert.Equal(t, 500, *update.Extra.BaseFee)
}

func TestCityParking_OverOccupied(t *testing.T) {
	item := CityParkingItem{
		Code: "100", Latitude: 37.5, Longitude: 127.0,
		TotalSlots: 10, CurrentVehicles: 14,
	}
	update := New(nil).CityParking(item, time.Now())
	require.NotNil(t, update)
	assert.Equal(t, 0, update.AvailableCount)
}

func TestCityParking_Rejections(t *testing.T) {
	tr := New(nil)
	now := time.Now()

	assert.Nil(t, tr.CityParking(CityParkingItem{Latitude: 37.5, Longitude: 127.0}, now), "missing code")
	assert.Nil(t, tr.CityParking(CityParkingItem{Code: "1"}, now), "null island")
	assert.Nil(t, tr.CityParking(CityParkingItem{Code: "1", Latitude: 95, Longitude: 127}, now), "latitude range")
}

func TestTSParking(t *testing.T) {
	now := time.Now()
	info := TSParkingInfoItem{
		ID: "P77", Name: "station lot", Address: "2 rail rd",
		Latitude: 37.5, Longitude: 127.0, TotalCount: 120,
	}
	fee := 1000
	opr := &TSParkingOprItem{ID: "P77", WeekdayHours: "06:00-23:00", BaseFee: &fee, FreeOfCharge: "N"}

	update := New(nil).TSParking(info, opr, now)
	require.NotNil(t, update)
	assert.Equal(t, "TS_P77", update.ExternalID)
	assert.Equal(t, 120, update.AvailableCount, "assume full capacity until realtime corrects")
	assert.Equal(t, "06:00-23:00", update.Extra.OperatingHours)
	assert.Nil(t, update.Extra.Free)
}

func TestTSParking_NilOperation(t *testing.T) {
	info := TSParkingInfoItem{ID: "P1", Latitude: 37.5, Longitude: 127.0, TotalCount: 10}
	update := New(nil).TSParking(info, nil, time.Now())
	require.NotNil(t, update)
	assert.True(t, update.Extra.IsZero())
}

func TestOperationExtra_Free(t *testing.T) {
	extra := OperationExtra(&TSParkingOprItem{ID: "P1", FreeOfCharge: "Y"})
	require.NotNil(t, extra.Free)
	assert.True(t, *extra.Free)
}

func TestCharger(t *testing.T) {
	now := time.Now()
	item := ChargerItem{
		StationID:     "ST01",
		ChargerID:     "03",
		Name:          "mall chargers",
		Address:       "3 retail ave",
		AddressDetail: "B2",
		Latitude:      "37.5100",
		Longitude:     "127.0300",
		ChargerType:   "DC_COMBO",
		Status:        "2",
		Output:        "100",
		UseTime:       "24h",
		OperatorName:  "chargeco",
		ParkingFree:   "Y",
	}

	update := New(nil).Charger(item, now)
	require.NotNil(t, update)
	assert.Equal(t, "ST01-03", update.ExternalID)
	assert.Equal(t, domain.KindCharging, update.Kind)
	assert.Equal(t, 1, update.TotalCount)
	assert.Equal(t, 1, update.AvailableCount)
	assert.Equal(t, "3 retail ave B2", update.Address)
	assert.Equal(t, "DC_COMBO", update.Extra.ChargerType)
	assert.Equal(t, "chargeco", update.Extra.Attrs["operator"])
	require.NotNil(t, update.Extra.Free)
	assert.True(t, *update.Extra.Free)
}

func TestCharger_Occupied(t *testing.T) {
	item := ChargerItem{
		StationID: "ST01", ChargerID: "03",
		Latitude: "37.51", Longitude: "127.03", Status: "3",
	}
	update := New(nil).Charger(item, time.Now())
	require.NotNil(t, update)
	assert.Equal(t, 0, update.AvailableCount)
}

func TestCharger_Rejections(t *testing.T) {
	tr := New(nil)
	now := time.Now()

	assert.Nil(t, tr.Charger(ChargerItem{ChargerID: "1", Latitude: "37.5", Longitude: "127"}, now), "missing station id")
	assert.Nil(t, tr.Charger(ChargerItem{StationID: "S", ChargerID: "1", Latitude: "garbage", Longitude: "127"}, now), "unparsable latitude")
	assert.Nil(t, tr.Charger(ChargerItem{StationID: "S", ChargerID: "1", Latitude: "0", Longitude: "0"}, now), "null island")
}

func TestChargerAvailable(t *testing.T) {
	assert.Equal(t, 1, ChargerAvailable("2"))
	assert.Equal(t, 0, ChargerAvailable("3"))
	assert.Equal(t, 0, ChargerAvailable(""))
}
