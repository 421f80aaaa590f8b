package model

import (
	"math"
	"time"
)

// Condition is the category of a weather condition code
type Condition string

const (
	ConditionThunderstorm Condition = "thunderstorm"
	ConditionDrizzle      Condition = "drizzle"
	ConditionRain         Condition = "rain"
	ConditionSnow         Condition = "snow"
	ConditionAtmosphere   Condition = "atmosphere"
	ConditionClear        Condition = "clear"
	ConditionClouds       Condition = "clouds"
	ConditionUnknown      Condition = "unknown"
)

// CategoryOf maps a condition code from the remote taxonomy to its category.
// 400-499 is unassigned upstream.
func CategoryOf(code int) Condition {
	switch {
	case code >= 200 && code < 300:
		return ConditionThunderstorm
	case code >= 300 && code < 400:
		return ConditionDrizzle
	case code >= 500 && code < 600:
		return ConditionRain
	case code >= 600 && code < 700:
		return ConditionSnow
	case code >= 700 && code < 800:
		return ConditionAtmosphere
	case code == 800:
		return ConditionClear
	case code > 800:
		return ConditionClouds
	}
	return ConditionUnknown
}

// WeatherSample is one point of the forecast feed
type WeatherSample struct {
	Timestamp     int64   `json:"dt"`
	Temperature   float64 `json:"temp"`
	ConditionCode int     `json:"condition_code"`
	Description   string  `json:"description"`
}

// Time returns the sample timestamp in loc
func (s WeatherSample) Time(loc *time.Location) time.Time {
	return time.Unix(s.Timestamp, 0).In(loc)
}

// DailyForecast summarises all samples sharing a calendar date
type DailyForecast struct {
	Date           time.Time `json:"date"`
	Weekday        string    `json:"weekday"`
	AvgTemperature int       `json:"avg_temperature"`
	ConditionCode  int       `json:"condition_code"`
	Description    string    `json:"description"`
	Category       Condition `json:"category"`
	Samples        int       `json:"samples"`
}

// CurrentWeather holds current conditions for a city
type CurrentWeather struct {
	Name          string    `json:"name"`
	Country       string    `json:"country"`
	Temperature   float64   `json:"temperature"`
	FeelsLike     float64   `json:"feels_like"`
	Humidity      int       `json:"humidity"`
	WindSpeed     float64   `json:"wind_speed"`
	WindSpeedKmh  int       `json:"wind_speed_kmh"`
	Description   string    `json:"description"`
	ConditionCode int       `json:"condition_code"`
	Category      Condition `json:"category"`
}

// KmhFromSpeed converts a wind speed reported in the given OpenWeatherMap units to whole km/h.
// metric and standard report m/s, imperial reports mph.
func KmhFromSpeed(speed float64, units string) int {
	if units == "imperial" {
		return int(math.Round(speed * 1.609344))
	}
	return int(math.Round(speed * 3.6))
}
