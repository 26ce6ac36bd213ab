package server

import (
	"context"

	"github.com/fakhrymubarak/weather-gateway/internal/model"
)

type repositoryFunc func() (model.WeatherResult, error)

func (f repositoryFunc) FetchCurrent(ctx context.Context, city string) (model.WeatherResult, error) {
	return f()
}

type panickingService struct{}

func (panickingService) GetWeather(ctx context.Context, city string) (model.WeatherResult, error) {
	panic("unexpected")
}
