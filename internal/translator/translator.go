// Package translator maps heterogeneous upstream payloads into the canonical
// update representation. It is an anti-corruption layer: pure, side-effect
// free, and it rejects by returning nil rather than by raising errors, since
// a malformed upstream record is routine, not exceptional.
package translator

import (
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/spotsync/backend/domain"
	"github.com/spotsync/backend/pkg/geo"
)

// External id prefixes, one per source, so ids never collide across feeds.
const (
	CityPrefix = "CITY_"
	TSPrefix   = "TS_"
)

type Translator struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Translator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Translator{logger: logger}
}

// CityParking maps a municipal parking record into a full update.
// Returns nil when identity fields are missing or coordinates are invalid.
func (t *Translator) CityParking(item CityParkingItem, observedAt time.Time) *domain.FacilityUpdate {
	if item.Code == "" {
		return nil
	}
	if !geo.ValidCoordinates(item.Latitude, item.Longitude) {
		return nil
	}

	available := item.TotalSlots - item.CurrentVehicles
	if available < 0 {
		available = 0
	}

	return &domain.FacilityUpdate{
		ExternalID:     CityPrefix + item.Code,
		Kind:           domain.KindParking,
		Name:           item.Name,
		Address:        item.Address,
		Latitude:       item.Latitude,
		Longitude:      item.Longitude,
		TotalCount:     item.TotalSlots,
		AvailableCount: available,
		Extra: domain.ExtraInfo{
			BaseFee:     item.BaseFee,
			BaseMinutes: item.BaseMinutes,
			UnitFee:     item.UnitFee,
			UnitMinutes: item.UnitMinutes,
			DailyMaxFee: item.DailyMaxFee,
		},
		ObservedAt: observedAt,
	}
}

// TSParking merges a transport-authority facility record with its optional
// operational record into a full update. The feed has no realtime counter
// here; availability starts at full capacity and is corrected by the
// realtime feed.
func (t *Translator) TSParking(info TSParkingInfoItem, opr *TSParkingOprItem, observedAt time.Time) *domain.FacilityUpdate {
	if info.ID == "" {
		return nil
	}
	if !geo.ValidCoordinates(info.Latitude, info.Longitude) {
		return nil
	}

	return &domain.FacilityUpdate{
		ExternalID:     TSPrefix + info.ID,
		Kind:           domain.KindParking,
		Name:           info.Name,
		Address:        info.Address,
		Latitude:       info.Latitude,
		Longitude:      info.Longitude,
		TotalCount:     info.TotalCount,
		AvailableCount: info.TotalCount,
		Extra:          OperationExtra(opr),
		ObservedAt:     observedAt,
	}
}

// OperationExtra maps the operational record to the extra attributes. A nil
// record yields the zero value.
func OperationExtra(opr *TSParkingOprItem) domain.ExtraInfo {
	if opr == nil {
		return domain.ExtraInfo{}
	}
	extra := domain.ExtraInfo{
		BaseFee:        opr.BaseFee,
		BaseMinutes:    opr.BaseMinutes,
		UnitFee:        opr.UnitFee,
		UnitMinutes:    opr.UnitMinutes,
		DailyMaxFee:    opr.DailyMaxFee,
		OperatingHours: opr.WeekdayHours,
	}
	if opr.FreeOfCharge == "Y" {
		free := true
		extra.Free = &free
	}
	return extra
}

// Charger maps one charger record into a full update. Each charger is its
// own facility with capacity 1; station and charger ids combine into the
// external id.
func (t *Translator) Charger(item ChargerItem, observedAt time.Time) *domain.FacilityUpdate {
	if item.StationID == "" || item.ChargerID == "" {
		return nil
	}

	lat, errLat := strconv.ParseFloat(item.Latitude, 64)
	lng, errLng := strconv.ParseFloat(item.Longitude, 64)
	if errLat != nil || errLng != nil {
		t.logger.Warn("invalid charger coordinates",
			zap.String("station", item.StationID),
			zap.String("lat", item.Latitude),
			zap.String("lng", item.Longitude))
		return nil
	}
	if !geo.ValidCoordinates(lat, lng) {
		return nil
	}

	available := 0
	if item.Status == chargerStatusAvailable {
		available = 1
	}

	address := item.Address
	if item.AddressDetail != "" {
		address += " " + item.AddressDetail
	}

	extra := domain.ExtraInfo{
		ChargerType:    item.ChargerType,
		OutputKW:       item.Output,
		OperatingHours: item.UseTime,
		Attrs:          map[string]string{},
	}
	if item.OperatorName != "" {
		extra.Attrs["operator"] = item.OperatorName
	}
	if item.OperatorPhone != "" {
		extra.Attrs["operator_phone"] = item.OperatorPhone
	}
	if item.ParkingFree == "Y" {
		free := true
		extra.Free = &free
	}
	if len(extra.Attrs) == 0 {
		extra.Attrs = nil
	}

	return &domain.FacilityUpdate{
		ExternalID:     ChargerExternalID(item.StationID, item.ChargerID),
		Kind:           domain.KindCharging,
		Name:           item.Name,
		Address:        address,
		Latitude:       lat,
		Longitude:      lng,
		TotalCount:     1,
		AvailableCount: available,
		Extra:          extra,
		ObservedAt:     observedAt,
	}
}

// ChargerExternalID joins station and charger ids into the stable key.
func ChargerExternalID(stationID, chargerID string) string {
	return stationID + "-" + chargerID
}

// ChargerAvailable maps a status code to the 0/1 availability of a charger.
func ChargerAvailable(status string) int {
	if status == chargerStatusAvailable {
		return 1
	}
	return 0
}
