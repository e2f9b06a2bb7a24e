package translator

// Upstream payload shapes, one set per feed. Field presence is uneven across
// feeds, hence the pointer fields; the translator owns all normalization.

// CityParkingItem is one record of the municipal parking feed. The feed
// reports occupancy, not availability.
type CityParkingItem struct {
	Code            string  `json:"parking_code"`
	Name            string  `json:"parking_name"`
	Address         string  `json:"address"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	TotalSlots      int     `json:"total_slots"`
	CurrentVehicles int     `json:"current_vehicles"`
	BaseFee         *int    `json:"base_fee,omitempty"`
	BaseMinutes     *int    `json:"base_minutes,omitempty"`
	UnitFee         *int    `json:"unit_fee,omitempty"`
	UnitMinutes     *int    `json:"unit_minutes,omitempty"`
	DailyMaxFee     *int    `json:"daily_max_fee,omitempty"`
}

// TSParkingInfoItem is one record of the transport-authority facility feed.
type TSParkingInfoItem struct {
	ID         string  `json:"prk_center_id"`
	Name       string  `json:"prk_plce_nm"`
	Address    string  `json:"prk_plce_adres"`
	Latitude   float64 `json:"prk_plce_entrc_la"`
	Longitude  float64 `json:"prk_plce_entrc_lo"`
	TotalCount int     `json:"prk_cmprt_co"`
}

// TSParkingOprItem is the matching operational record (fees, hours).
type TSParkingOprItem struct {
	ID           string `json:"prk_center_id"`
	WeekdayHours string `json:"weekday_oper_time"`
	BaseFee      *int   `json:"basic_fee,omitempty"`
	BaseMinutes  *int   `json:"basic_time,omitempty"`
	UnitFee      *int   `json:"add_fee,omitempty"`
	UnitMinutes  *int   `json:"add_time,omitempty"`
	DailyMaxFee  *int   `json:"day_max_fee,omitempty"`
	FreeOfCharge string `json:"free_yn,omitempty"`
}

// TSParkingRealtimeItem is one record of the realtime availability feed.
type TSParkingRealtimeItem struct {
	ID             string `json:"prk_center_id"`
	AvailableCount int    `json:"pkfc_available_parking_space_total"`
}

// ChargerItem is one charger of the EV charging feed. Coordinates arrive as
// strings and are occasionally garbage.
type ChargerItem struct {
	StationID     string `json:"stat_id"`
	ChargerID     string `json:"chger_id"`
	Name          string `json:"stat_nm"`
	Address       string `json:"addr"`
	AddressDetail string `json:"addr_detail"`
	Latitude      string `json:"lat"`
	Longitude     string `json:"lng"`
	ChargerType   string `json:"chger_type"`
	Status        string `json:"stat"`
	Output        string `json:"output"`
	UseTime       string `json:"use_time"`
	OperatorName  string `json:"busi_nm"`
	OperatorPhone string `json:"busi_call"`
	ParkingFree   string `json:"parking_free"`
}

// ChargerStatusItem is the delta feed for charger state transitions.
type ChargerStatusItem struct {
	StationID string `json:"stat_id"`
	ChargerID string `json:"chger_id"`
	Status    string `json:"stat"`
}

// Charger status codes as published by the feed.
const chargerStatusAvailable = "2"
