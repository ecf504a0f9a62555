package models

// WeatherSnapshot is a point-in-time reading for a coordinate. When present it
// replaces all three climate fields of a feature vector.
type WeatherSnapshot struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Rainfall    float64 `json:"rainfall"`
	Location    string  `json:"location"`
}
