package model

import "time"

// WeatherReport is a normalized snapshot of current conditions for a city.
// Description holds the provider's English text until the use case layer
// localizes it.
type WeatherReport struct {
	City         string
	TemperatureC float64
	Description  string
	HumidityPct  int
	WindSpeedMS  float64
	FetchedAt    time.Time
}
