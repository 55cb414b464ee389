// Package weather wraps the Open-Meteo forecast API and derives the
// farming advice shown on the weather dashboard.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"
)

// Current holds today's conditions.
type Current struct {
	Temperature int    `json:"temperature"` // °C
	Humidity    int    `json:"humidity"`    // %
	WindSpeed   int    `json:"wind_speed"`  // km/h
	Visibility  int    `json:"visibility"`  // km
	Condition   string `json:"condition"`
	Icon        string `json:"icon"`
}

// ForecastDay is one day of the multi-day forecast.
type ForecastDay struct {
	Date      string `json:"date"`
	MaxTemp   int    `json:"max_temp"`
	MinTemp   int    `json:"min_temp"`
	Rainfall  int    `json:"rainfall"` // mm
	Condition string `json:"condition"`
	Icon      string `json:"icon"`
}

// Report is the full weather response for one location.
type Report struct {
	Current       Current       `json:"current"`
	Forecast      []ForecastDay `json:"forecast"`
	FarmingAdvice string        `json:"farming_advice"`
}

// District coordinates for the Kerala district picker.
var Districts = map[string]struct{ Lat, Lon float64 }{
	"Kochi":          {9.931233, 76.267303},
	"Thrissur":       {10.530345, 76.214729},
	"Palakkad":       {10.784703, 76.653145},
	"Alappuzha":      {9.498067, 76.338844},
	"Kozhikode":      {11.258753, 75.780411},
	"Malappuram":     {11.072035, 76.074005},
	"Kannur":         {11.874477, 75.370369},
	"Kollam":         {8.893212, 76.614143},
	"Pathanamthitta": {9.2648, 76.7870},
	"Idukki":         {9.8790, 77.1473},
}

// Client fetches forecasts from Open-Meteo. Read-only, no auth.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type openMeteoResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		Humidity    float64 `json:"relative_humidity_2m"`
		WeatherCode int     `json:"weather_code"`
		WindSpeed   float64 `json:"wind_speed_10m"`
		Visibility  float64 `json:"visibility"`
		IsDay       int     `json:"is_day"`
	} `json:"current"`
	Daily struct {
		Time        []string  `json:"time"`
		WeatherCode []int     `json:"weather_code"`
		TempMax     []float64 `json:"temperature_2m_max"`
		TempMin     []float64 `json:"temperature_2m_min"`
		Precip      []float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

// Fetch returns current conditions plus a four-day forecast for the given
// coordinates.
func (c *Client) Fetch(ctx context.Context, lat, lon float64) (*Report, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.6f", lat))
	q.Set("longitude", fmt.Sprintf("%.6f", lon))
	q.Set("current", "temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m,visibility,is_day")
	q.Set("daily", "weather_code,temperature_2m_max,temperature_2m_min,precipitation_sum")
	q.Set("timezone", "Asia/Kolkata")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating weather request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("weather status %d: %s", resp.StatusCode, respBody)
	}

	var data openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding weather response: %w", err)
	}

	report := &Report{
		Current: Current{
			Temperature: int(math.Round(data.Current.Temperature)),
			Humidity:    int(math.Round(data.Current.Humidity)),
			WindSpeed:   int(math.Round(data.Current.WindSpeed * 3.6)), // m/s -> km/h
			Visibility:  int(math.Round(data.Current.Visibility / 1000)),
			Condition:   conditionForCode(data.Current.WeatherCode),
			Icon:        iconForCode(data.Current.WeatherCode, data.Current.IsDay == 1),
		},
	}

	days := len(data.Daily.Time)
	if days > 4 {
		days = 4
	}
	for i := 0; i < days; i++ {
		report.Forecast = append(report.Forecast, ForecastDay{
			Date:      data.Daily.Time[i],
			MaxTemp:   int(math.Round(data.Daily.TempMax[i])),
			MinTemp:   int(math.Round(data.Daily.TempMin[i])),
			Rainfall:  int(math.Round(data.Daily.Precip[i])),
			Condition: conditionForCode(data.Daily.WeatherCode[i]),
			Icon:      iconForCode(data.Daily.WeatherCode[i], true),
		})
	}

	report.FarmingAdvice = farmingAdvice(data)
	return report, nil
}

// WMO weather interpretation codes.
func conditionForCode(code int) string {
	switch {
	case code == 0:
		return "Clear sky"
	case code <= 3:
		return "Partly cloudy"
	case code >= 51 && code <= 67:
		return "Rainy"
	case code >= 71 && code <= 77:
		return "Snowy"
	case code >= 80 && code <= 99:
		return "Thunderstorm"
	default:
		return "Cloudy"
	}
}

func iconForCode(code int, isDay bool) string {
	switch {
	case code == 0:
		if isDay {
			return "☀️"
		}
		return "🌙"
	case code <= 3:
		return "☁️"
	case code >= 51 && code <= 67:
		return "🌧️"
	case code >= 71 && code <= 77:
		return "🌨️"
	case code >= 80 && code <= 99:
		return "⛈️"
	default:
		return "☁️"
	}
}

func farmingAdvice(data openMeteoResponse) string {
	var todayRain, tomorrowRain float64
	if len(data.Daily.Precip) > 0 {
		todayRain = data.Daily.Precip[0]
	}
	if len(data.Daily.Precip) > 1 {
		tomorrowRain = data.Daily.Precip[1]
	}

	switch {
	case todayRain > 5:
		return "Avoid spraying pesticides today due to expected rainfall."
	case tomorrowRain > 5:
		return "Consider completing outdoor activities today before tomorrow's rain."
	case data.Current.WindSpeed > 15:
		return "Delay spraying fertilizers or pesticides due to high wind speeds."
	case data.Current.WeatherCode == 0:
		return "Good time for transplanting rice seedlings in sunny conditions."
	default:
		return "Monitor weather conditions for optimal farming activities."
	}
}
