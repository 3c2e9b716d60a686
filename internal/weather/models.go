package weather

import (
	"encoding/json"
	"fmt"
	"time"
)

// Condition is the primary weather group reported by the provider
// (e.g. "Clouds") together with its human readable description.
type Condition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

// Temperature holds the measured and perceived temperature in the
// provider's configured units (Kelvin unless units are requested).
type Temperature struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
}

// Wind holds the wind speed in the provider's configured units.
type Wind struct {
	Speed float64 `json:"speed"`
}

// Sys holds sunrise and sunset as unix seconds (UTC).
type Sys struct {
	Sunrise int64 `json:"sunrise"`
	Sunset  int64 `json:"sunset"`
}

// Record is an immutable snapshot of the current weather for one location.
// It is a plain value type: two records are equal when all fields are equal.
type Record struct {
	Weather     Condition   `json:"weather"`
	Temperature Temperature `json:"temperature"`
	Visibility  int         `json:"visibility"`
	Wind        Wind        `json:"wind"`
	Datetime    int64       `json:"datetime"` // observation time, unix seconds
	Sys         Sys         `json:"sys"`
	Timezone    int         `json:"timezone"` // shift from UTC in seconds
	Name        string      `json:"name"`
}

// ObservedAt returns the observation time as a UTC time.Time.
func (r Record) ObservedAt() time.Time {
	return time.Unix(r.Datetime, 0).UTC()
}

// JSON returns the JSON encoding of the record.
func (r Record) JSON() ([]byte, error) {
	return json.Marshal(r)
}

// String renders the record as a JSON string. Encoding a Record cannot fail,
// but the error branch keeps the method total.
func (r Record) String() string {
	b, err := r.JSON()
	if err != nil {
		return fmt.Sprintf("weather.Record{name=%q}", r.Name)
	}
	return string(b)
}

// Entry is a cached record plus the moment it was fetched.
// Entries are replaced whole, never mutated.
type Entry struct {
	Value     Record
	FetchedAt time.Time
}

// Age returns how old the entry is at now.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}
